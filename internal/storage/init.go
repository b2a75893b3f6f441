// internal/storage/init_storage.go
package storage

import (
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

var migrationPath = "migrations"

func runMigrations(db *sql.DB) error {
	const op = "storage.migrations"

	goose.SetDialect("postgres")

	err := goose.Up(db, migrationPath)
	if err != nil {
		if err == goose.ErrNoNextVersion {
			return nil
		}
		return fmt.Errorf("%s: %v", op, err)
	}
	return nil
}
