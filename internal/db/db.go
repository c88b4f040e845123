package db

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/1code1day/platform-service/pkg/logger"
)

// Connect открывает пул соединений к PostgreSQL
func Connect(dsn string, log *logger.Logger) (*sqlx.DB, error) {
	database, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	database.SetMaxOpenConns(25)
	database.SetMaxIdleConns(5)
	database.SetConnMaxLifetime(5 * time.Minute)

	log.Info("Connected to PostgreSQL")
	return database, nil
}

// RunMigrations применяет миграции из каталога migrationsPath
func RunMigrations(database *sqlx.DB, migrationsPath string, log *logger.Logger) error {
	driver, err := postgres.WithInstance(database.DB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("Migrations: no change")
			return nil
		}
		return fmt.Errorf("apply migrations: %w", err)
	}

	log.Info("Migrations applied")
	return nil
}
