// Package database opens the Postgres connection used for the descriptor
// cache and keeps its schema migrated.
package database

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/navikt/nada-tablesync/pkg/errs"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"

	// Postgres driver
	_ "github.com/lib/pq"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

func New(dsn string, maxIdleConn, maxOpenConn int, log zerolog.Logger) (*sql.DB, error) {
	const op errs.Op = "database.New"

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errs.E(errs.Database, op, fmt.Errorf("opening database: %w", err))
	}

	db.SetMaxIdleConns(maxIdleConn)
	db.SetMaxOpenConns(maxOpenConn)

	err = db.Ping()
	if err != nil {
		return nil, errs.E(errs.Database, op, fmt.Errorf("pinging database: %w", err))
	}

	err = Migrate(db, log)
	if err != nil {
		return nil, errs.E(op, err)
	}

	return db, nil
}

func Migrate(db *sql.DB, log zerolog.Logger) error {
	const op errs.Op = "database.Migrate"

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(&gooseLogger{log: log})

	err := goose.SetDialect("postgres")
	if err != nil {
		return errs.E(errs.Internal, op, err)
	}

	err = goose.Up(db, "migrations")
	if err != nil {
		return errs.E(errs.Database, op, fmt.Errorf("running migrations: %w", err))
	}

	return nil
}

type gooseLogger struct {
	log zerolog.Logger
}

func (l *gooseLogger) Fatalf(format string, v ...interface{}) {
	l.log.Fatal().Msgf(format, v...)
}

func (l *gooseLogger) Printf(format string, v ...interface{}) {
	l.log.Info().Msgf(format, v...)
}
