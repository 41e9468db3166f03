package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"releasesync/internal/release"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const DefaultItemTable = "items"

const itemColumns = `id, kind, title, release_date::text, platform_or_genre, genre, publisher, developer,
	description, price, currency, image_url, product_url, critic_score, user_score,
	isbn, jan, igdb_id, google_volume_id, source, created_at, updated_at`

// ItemPG keeps one row per canonical item id.
type ItemPG struct {
	db    *pgxpool.Pool
	table string
}

func NewItemPG(db *pgxpool.Pool, table string) *ItemPG {
	if strings.TrimSpace(table) == "" {
		table = DefaultItemTable
	}
	return &ItemPG{db: db, table: pgx.Identifier{table}.Sanitize()}
}

// Get returns nil, nil when no row has the id.
func (r *ItemPG) Get(ctx context.Context, id string) (*release.Record, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, itemColumns, r.table)

	var (
		rec  release.Record
		kind string
	)
	err := r.db.QueryRow(ctx, query, id).Scan(
		&rec.ID, &kind, &rec.Title, &rec.ReleaseDate, &rec.PlatformOrGenre, &rec.Genre,
		&rec.Publisher, &rec.Developer, &rec.Description, &rec.Price, &rec.Currency,
		&rec.ImageURL, &rec.ProductURL, &rec.CriticScore, &rec.UserScore,
		&rec.SourceIDs.ISBN, &rec.SourceIDs.JAN, &rec.SourceIDs.IGDBID, &rec.SourceIDs.GoogleVolumeID,
		&rec.Source, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec.Kind = release.Kind(kind)
	return &rec, nil
}

// Put writes the full record, replacing any existing row with the same id.
func (r *ItemPG) Put(ctx context.Context, rec release.Record) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (
			id, kind, title, release_date, platform_or_genre, genre, publisher, developer,
			description, price, currency, image_url, product_url, critic_score, user_score,
			isbn, jan, igdb_id, google_volume_id, source, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4::date, $5, $6, $7, $8,
			$9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22
		)
		ON CONFLICT (id) DO UPDATE SET
			kind = EXCLUDED.kind,
			title = EXCLUDED.title,
			release_date = EXCLUDED.release_date,
			platform_or_genre = EXCLUDED.platform_or_genre,
			genre = EXCLUDED.genre,
			publisher = EXCLUDED.publisher,
			developer = EXCLUDED.developer,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			currency = EXCLUDED.currency,
			image_url = EXCLUDED.image_url,
			product_url = EXCLUDED.product_url,
			critic_score = EXCLUDED.critic_score,
			user_score = EXCLUDED.user_score,
			isbn = EXCLUDED.isbn,
			jan = EXCLUDED.jan,
			igdb_id = EXCLUDED.igdb_id,
			google_volume_id = EXCLUDED.google_volume_id,
			source = EXCLUDED.source,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at`, r.table)

	_, err := r.db.Exec(ctx, query,
		rec.ID, string(rec.Kind), rec.Title, rec.ReleaseDate, rec.PlatformOrGenre, rec.Genre,
		rec.Publisher, rec.Developer, rec.Description, rec.Price, rec.Currency,
		rec.ImageURL, rec.ProductURL, rec.CriticScore, rec.UserScore,
		rec.SourceIDs.ISBN, rec.SourceIDs.JAN, rec.SourceIDs.IGDBID, rec.SourceIDs.GoogleVolumeID,
		rec.Source, rec.CreatedAt, rec.UpdatedAt,
	)
	return err
}

// Ping reports whether the pool can reach the database.
func (r *ItemPG) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}
