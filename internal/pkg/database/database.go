package database

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	// Drivers registrados por database/sql: "postgres" (produção) e "sqlite" (dev/testes).
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Open inicializa o pool de conexões do driver informado e testa a conexão.
func Open(driver, dataSourceName string) (*sqlx.DB, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("driver de banco não suportado: %q", driver)
	}

	db, err := sqlx.Open(driver, dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("falha ao abrir a conexão com o DB: %w", err)
	}

	configurePool(db, driver)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("falha ao realizar o ping inicial no DB: %w", err)
	}

	if driver == DriverSQLite {
		if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
			db.Close()
			return nil, fmt.Errorf("falha ao habilitar foreign keys no SQLite: %w", err)
		}
	}

	return db, nil
}

// configurePool ajusta o pool por driver.
// SQLite usa uma única conexão sem expiração: um banco ":memory:" vive na conexão
// e o SQLite só aceita um escritor por vez.
func configurePool(db *sqlx.DB, driver string) {
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		db.SetConnMaxIdleTime(0)
		return
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)
}

// SupportsRowLocks informa se o driver entende SELECT ... FOR UPDATE.
func SupportsRowLocks(db *sqlx.DB) bool {
	return db.DriverName() == DriverPostgres
}
