package rakuten

import (
	"context"
	"log/slog"
	"time"

	"releasesync/internal/normalize"
	rakutenapi "releasesync/internal/platform/rakuten"
	"releasesync/internal/provider"
	"releasesync/internal/release"
)

const (
	BooksName = "rakuten-books"
	GamesName = "rakuten-games"
)

type BookSearcher interface {
	Configured() bool
	SearchBooks(ctx context.Context, q rakutenapi.Query) ([]rakutenapi.BookItem, error)
}

type GameSearcher interface {
	Configured() bool
	SearchGames(ctx context.Context, q rakutenapi.Query) ([]rakutenapi.GameItem, error)
}

type BooksConfig struct {
	Genres     []string
	Hits       int
	GenreTable normalize.GenreTable
}

type GamesConfig struct {
	Hardware  []string
	Hits      int
	Platforms normalize.PlatformTable
}

// Books issues one sales-ordered search per configured genre code.
type Books struct {
	client  BookSearcher
	cfg     BooksConfig
	limiter provider.Limiter
	now     func() time.Time
	logger  *slog.Logger
}

func NewBooks(client BookSearcher, cfg BooksConfig, limiter provider.Limiter, logger *slog.Logger) *Books {
	return &Books{client: client, cfg: cfg, limiter: limiter, now: time.Now, logger: orDefault(logger)}
}

func (b *Books) Name() string { return BooksName }

func (b *Books) Fetch(ctx context.Context) provider.Result {
	if !b.client.Configured() {
		b.logger.Warn("rakuten application id not configured", "provider", BooksName)
		return provider.Skip(BooksName, "RAKUTEN_APP_ID not set")
	}
	return collect(ctx, BooksName, "genre", b.cfg.Genres, b.limiter, b.logger,
		func(ctx context.Context, genre string) ([]rakutenapi.BookItem, error) {
			return b.client.SearchBooks(ctx, rakutenapi.Query{GenreID: genre, Hits: b.cfg.Hits})
		},
		func(it rakutenapi.BookItem) (release.Record, error) {
			return ConvertBook(it, b.cfg.GenreTable, b.now())
		},
		func(it rakutenapi.BookItem) string { return it.Title },
	)
}

// Games issues one sales-ordered search per configured hardware family.
type Games struct {
	client  GameSearcher
	cfg     GamesConfig
	limiter provider.Limiter
	now     func() time.Time
	logger  *slog.Logger
}

func NewGames(client GameSearcher, cfg GamesConfig, limiter provider.Limiter, logger *slog.Logger) *Games {
	return &Games{client: client, cfg: cfg, limiter: limiter, now: time.Now, logger: orDefault(logger)}
}

func (g *Games) Name() string { return GamesName }

func (g *Games) Fetch(ctx context.Context) provider.Result {
	if !g.client.Configured() {
		g.logger.Warn("rakuten application id not configured", "provider", GamesName)
		return provider.Skip(GamesName, "RAKUTEN_APP_ID not set")
	}
	return collect(ctx, GamesName, "hardware", g.cfg.Hardware, g.limiter, g.logger,
		func(ctx context.Context, hw string) ([]rakutenapi.GameItem, error) {
			return g.client.SearchGames(ctx, rakutenapi.Query{Hardware: hw, Hits: g.cfg.Hits})
		},
		func(it rakutenapi.GameItem) (release.Record, error) {
			return ConvertGame(it, g.cfg.Platforms, g.now())
		},
		func(it rakutenapi.GameItem) string { return it.Title },
	)
}

// collect runs the sub-queries strictly in declared order. The limiter is
// consulted before every call, including calls that follow a failure.
func collect[T any](
	ctx context.Context,
	name, param string,
	subs []string,
	limiter provider.Limiter,
	logger *slog.Logger,
	search func(context.Context, string) ([]T, error),
	convert func(T) (release.Record, error),
	title func(T) string,
) provider.Result {
	var res provider.Result
	for _, sub := range subs {
		op := param + "=" + sub
		if err := limiter.Wait(ctx); err != nil {
			res.Fail(name, release.ErrKindTransport, op, err)
			logger.Error("rakuten sub-query aborted", "provider", name, "op", op, "error", err)
			break
		}

		items, err := search(ctx, sub)
		if err != nil {
			res.Fail(name, release.ErrKindTransport, op, err)
			logger.Error("rakuten sub-query failed", "provider", name, "op", op, "error", err)
			continue
		}
		res.Fetched += len(items)

		for _, it := range items {
			rec, err := convert(it)
			if err != nil {
				res.Dropped++
				logger.Debug("dropped item", "provider", name, "op", op, "title", title(it), "reason", err)
				continue
			}
			res.Records = append(res.Records, rec)
		}
		logger.Info("rakuten sub-query done", "provider", name, "op", op, "items", len(items))
	}
	return res
}

func orDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
