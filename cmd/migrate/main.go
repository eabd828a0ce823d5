// Command migrate applies schema migrations using golang-migrate.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const defaultTimeout = 5 * time.Minute

func main() {
	var (
		dbURL   = flag.String("database-url", os.Getenv("DATABASE_URL"), "Postgres connection URL")
		path    = flag.String("path", getEnv("MIGRATIONS_PATH", "migrations"), "Path to migrations directory")
		timeout = flag.Duration("timeout", defaultTimeout, "Timeout per migration")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <command> [args]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  up [N]     Apply all or N up migrations\n")
		fmt.Fprintf(os.Stderr, "  down [N]   Apply all or N down migrations\n")
		fmt.Fprintf(os.Stderr, "  version    Print current migration version\n")
		fmt.Fprintf(os.Stderr, "  force V    Set version V without running migrations\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		os.Exit(1)
	}
	if *dbURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	m, err := newMigrate(*dbURL, *path, *timeout)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	defer m.Close()

	if err := runCommand(m, args[0], args[1:]); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func runCommand(m *migrate.Migrate, cmd string, args []string) error {
	switch cmd {
	case "up":
		return step(m, args, false)
	case "down":
		return step(m, args, true)
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			if errors.Is(err, migrate.ErrNilVersion) {
				log.Println("No migrations have been applied yet")
				return nil
			}
			return fmt.Errorf("failed to get version: %w", err)
		}
		status := ""
		if dirty {
			status = " (dirty)"
		}
		log.Printf("Current migration version: %d%s", version, status)
		return nil
	case "force":
		if len(args) < 1 {
			return fmt.Errorf("force requires a version number")
		}
		var version int
		if _, err := fmt.Sscanf(args[0], "%d", &version); err != nil {
			return fmt.Errorf("invalid version: %s", args[0])
		}
		if err := m.Force(version); err != nil {
			return fmt.Errorf("force failed: %w", err)
		}
		log.Printf("Version forced to %d", version)
		return nil
	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func step(m *migrate.Migrate, args []string, down bool) error {
	steps := 0
	if len(args) > 0 {
		if _, err := fmt.Sscanf(args[0], "%d", &steps); err != nil {
			return fmt.Errorf("invalid number of steps: %s", args[0])
		}
	}

	var err error
	switch {
	case steps > 0 && down:
		err = m.Steps(-steps)
	case steps > 0:
		err = m.Steps(steps)
	case down:
		err = m.Down()
	default:
		err = m.Up()
	}

	if err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Println("No migrations to apply")
			return nil
		}
		return fmt.Errorf("migration failed: %w", err)
	}

	version, _, _ := m.Version()
	log.Printf("Migration completed, now at version %d", version)
	return nil
}

func newMigrate(dbURL, path string, timeout time.Duration) (*migrate.Migrate, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{
		MigrationsTable: "schema_migrations",
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create database driver: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve migrations path: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+abs, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.LockTimeout = timeout

	return m, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
