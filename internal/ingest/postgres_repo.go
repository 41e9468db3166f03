package ingest

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:generate mockgen -source=postgres_repo.go -destination=mock_repository_test.go -package=ingest

// Repository records one row per sync run.
type Repository interface {
	CreateRun(ctx context.Context, run *Run) (string, error)
	UpdateRun(ctx context.Context, run *Run) error
}

type PostgresRepo struct {
	db *pgxpool.Pool
}

func NewPostgresRepo(db *pgxpool.Pool) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) CreateRun(ctx context.Context, run *Run) (string, error) {
	const sql = `
		INSERT INTO ingest_runs (started_at, status, providers)
		VALUES ($1, $2, $3)
		RETURNING id::text`

	var id string
	err := r.db.QueryRow(ctx, sql, run.StartedAt, run.Status, run.Providers).Scan(&id)
	return id, err
}

func (r *PostgresRepo) UpdateRun(ctx context.Context, run *Run) error {
	const sql = `
		UPDATE ingest_runs SET
			finished_at = $1,
			status = $2,
			items_fetched = $3,
			items_saved = $4,
			write_errors = $5,
			failures = $6,
			error = $7
		WHERE id = $8::uuid`

	_, err := r.db.Exec(ctx, sql, run.FinishedAt, run.Status, run.Fetched, run.Saved, run.WriteErrors, run.Failures, run.Error, run.ID)
	return err
}
