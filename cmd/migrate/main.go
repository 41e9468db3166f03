package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"releasesync/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

var errNameRequired = errors.New("name is required for 'create' command")

func main() {
	var (
		command = flag.String("command", "up", "Migration command: up, down, redo, status, version, create")
		name    = flag.String("name", "", "Name for 'create' command")
	)
	flag.Parse()

	config.LoadEnvFiles()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg := loadMigrateConfig()
	if err := run(context.Background(), cfg, *command, *name); err != nil {
		logger.Error("migrate failed", "command", *command, "dir", cfg.Dir, "error", err)
		os.Exit(1)
	}
	logger.Info("migrate finished", "command", *command, "dir", cfg.Dir)
}

func run(ctx context.Context, cfg migrateConfig, command, name string) error {
	if command == "create" {
		if name == "" {
			return errNameRequired
		}
		if err := goose.Create(nil, cfg.Dir, name, "sql"); err != nil {
			return fmt.Errorf("create migration %q: %w", name, err)
		}
		return nil
	}

	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	goose.SetTableName(cfg.Table)

	switch command {
	case "up":
		err = goose.UpContext(ctx, db, cfg.Dir)
	case "down":
		err = goose.DownContext(ctx, db, cfg.Dir)
	case "redo":
		err = goose.RedoContext(ctx, db, cfg.Dir)
	case "status":
		err = goose.StatusContext(ctx, db, cfg.Dir)
	case "version":
		err = goose.VersionContext(ctx, db, cfg.Dir)
	default:
		return fmt.Errorf("unknown command %q, use: up, down, redo, status, version, create", command)
	}
	if err != nil {
		return fmt.Errorf("%s migrations: %w", command, err)
	}
	return nil
}
