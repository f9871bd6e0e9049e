package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"bookstock/config"
	"bookstock/internal/pkg/database"
)

// Uso: migrate [up|down|status|redo|version] [args...]
// As migrações são as mesmas embutidas no servidor.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Aviso: arquivo .env não encontrado, usando apenas o ambiente do sistema: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("migrate: %v", err)
	}
	flag.Parse()

	db, err := database.Open(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("goose: failed to connect to DB: %v\n", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Fatalf("goose: failed to close DB: %v\n", err)
		}
	}()

	arguments := flag.Args()
	if len(arguments) == 0 {
		arguments = []string{"up"}
	}

	command := arguments[0]
	if err := database.Run(db.DB, cfg.DBDriver, command, arguments[1:]...); err != nil {
		log.Fatalf("%v", err)
	}

	fmt.Printf("goose %s success\n", command)
}
