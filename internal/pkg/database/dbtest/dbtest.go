// Package dbtest fornece um banco SQLite em memória, já migrado, para testes de repositório.
package dbtest

import (
	"testing"

	"github.com/jmoiron/sqlx"

	"bookstock/internal/pkg/database"
)

// Open abre um SQLite em memória com o schema de produção, fechado ao fim do teste.
func Open(t testing.TB) *sqlx.DB {
	t.Helper()

	db, err := database.Open(database.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("abrir sqlite em memória: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(db.DB, database.DriverSQLite); err != nil {
		t.Fatalf("migrar sqlite em memória: %v", err)
	}
	return db
}
