package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"releasesync/internal/config"
	"releasesync/internal/ingest"
	"releasesync/internal/logging"
	"releasesync/internal/normalize"
	booksapi "releasesync/internal/platform/googlebooks"
	"releasesync/internal/platform/httpjson"
	igdbapi "releasesync/internal/platform/igdb"
	rakutenapi "releasesync/internal/platform/rakuten"
	"releasesync/internal/platform/twitch"
	"releasesync/internal/provider"
	"releasesync/internal/provider/googlebooks"
	"releasesync/internal/provider/igdb"
	"releasesync/internal/provider/rakuten"
	"releasesync/internal/store"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/time/rate"
)

// app holds the wired pipeline for one process.
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	pool    *pgxpool.Pool
	memory  *store.Memory
	service *ingest.Service
}

func newApp(ctx context.Context, dryRun bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	registry, err := buildRegistry(cfg, logger)
	if err != nil {
		return nil, err
	}
	providers, err := registry.Select(cfg.Providers)
	if err != nil {
		return nil, fmt.Errorf("SYNC_PROVIDERS: %w", err)
	}

	a := &app{cfg: cfg, logger: logger}
	opts := []ingest.Option{ingest.WithLogger(logger), ingest.WithMetrics(ingest.DefaultMetrics())}

	var items ingest.Store
	if dryRun {
		a.memory = store.NewMemory()
		items = a.memory
		logger.Info("dry run, writing to memory store")
	} else {
		if cfg.DBDSN == "" {
			return nil, fmt.Errorf("DB_DSN is required (or use --dry-run)")
		}
		a.pool, err = openDB(ctx, cfg)
		if err != nil {
			return nil, err
		}
		items = store.NewItemPG(a.pool, cfg.ItemTable)
		opts = append(opts, ingest.WithRunRepository(ingest.NewPostgresRepo(a.pool)))
		logger.Info("database connection OK", "dsn", cfg.RedactedDSN(), "table", cfg.ItemTable)
	}

	a.service = ingest.NewService(providers, ingest.NewWriter(items), opts...)
	return a, nil
}

func (a *app) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

func openDB(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("create db pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database (%s): %w", cfg.RedactedDSN(), err)
	}
	return pool, nil
}

// buildRegistry constructs every known provider; SYNC_PROVIDERS picks which run.
func buildRegistry(cfg config.Config, logger *slog.Logger) (provider.Registry, error) {
	d := cfg.Data
	httpClient := &http.Client{Timeout: d.HTTP.Timeout}
	newHTTP := func(opts ...httpjson.Option) *httpjson.Client {
		return httpjson.NewClient(d.HTTP.UserAgent, d.HTTP.MaxRetries, append([]httpjson.Option{httpjson.WithHTTPClient(httpClient)}, opts...)...)
	}
	hc := newHTTP()
	platforms := d.PlatformTable()

	// both retailer stages share one request budget, retries included
	rakutenLimiter := newLimiter(d.Rakuten.Delay)
	rc := rakutenapi.NewClient(newHTTP(httpjson.WithRetryLimiter(rakutenLimiter, d.Rakuten.Delay)),
		d.Rakuten.BaseURL, cfg.RakutenAppID, cfg.RakutenAffiliateID)
	books := rakuten.NewBooks(rc, rakuten.BooksConfig{
		Genres:     d.Rakuten.BookGenres,
		Hits:       d.Rakuten.Hits,
		GenreTable: normalize.NewGenreTable(d.Rakuten.GenreTable),
	}, rakutenLimiter, logger)
	games := rakuten.NewGames(rc, rakuten.GamesConfig{
		Hardware:  d.Rakuten.Hardware,
		Hits:      d.Rakuten.Hits,
		Platforms: platforms,
	}, rakutenLimiter, logger)

	tokens := twitch.NewTokenCache(hc, cfg.TwitchClientID, cfg.TwitchClientSecret, logger, twitch.WithTokenURL(d.IGDB.TokenURL))
	igdbGames := igdb.NewGames(igdbapi.NewClient(hc, d.IGDB.BaseURL, cfg.TwitchClientID), tokens, igdb.Config{
		WindowDays:      d.IGDB.WindowDays,
		Limit:           d.IGDB.Limit,
		TargetRegion:    d.IGDB.TargetRegion,
		WorldwideRegion: d.IGDB.WorldwideRegion,
		Platforms:       platforms,
		Genres:          normalize.NewGenreTable(d.IGDB.GenreTable),
	}, logger)

	booksLimiter := newLimiter(d.GoogleBooks.Delay)
	bc := booksapi.NewClient(newHTTP(httpjson.WithRetryLimiter(booksLimiter, d.GoogleBooks.Delay)),
		d.GoogleBooks.BaseURL, cfg.GoogleBooksAPIKey)
	volumes := googlebooks.NewBooks(bc, googlebooks.Config{
		Queries:    d.GoogleBooks.Queries,
		MaxResults: d.GoogleBooks.MaxResults,
	}, booksLimiter, logger)

	return provider.NewRegistry(books, games, igdbGames, volumes)
}

// newLimiter spaces calls by delay; zero disables throttling.
func newLimiter(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}
