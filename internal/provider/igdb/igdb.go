package igdb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"releasesync/internal/normalize"
	"releasesync/internal/platform/httpjson"
	igdbapi "releasesync/internal/platform/igdb"
	"releasesync/internal/provider"
	"releasesync/internal/release"
)

const (
	Name = "igdb"

	// MaxLimit is the largest page the query asks for.
	MaxLimit = 100
)

type GameQuerier interface {
	Games(ctx context.Context, token, query string) ([]igdbapi.Game, error)
}

// TokenSource is satisfied by *twitch.TokenCache.
type TokenSource interface {
	ClientID() string
	Token(ctx context.Context) (string, bool)
	Invalidate()
}

type Config struct {
	WindowDays      int
	Limit           int
	TargetRegion    int
	WorldwideRegion int
	Platforms       normalize.PlatformTable
	Genres          normalize.GenreTable
}

// Games queries the game metadata database for releases in the upcoming window.
type Games struct {
	client GameQuerier
	tokens TokenSource
	cfg    Config
	now    func() time.Time
	logger *slog.Logger
}

func NewGames(client GameQuerier, tokens TokenSource, cfg Config, logger *slog.Logger) *Games {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = 90
	}
	if cfg.Limit <= 0 || cfg.Limit > MaxLimit {
		cfg.Limit = MaxLimit
	}
	return &Games{client: client, tokens: tokens, cfg: cfg, now: time.Now, logger: logger}
}

func (g *Games) Name() string { return Name }

func (g *Games) Fetch(ctx context.Context) provider.Result {
	if g.tokens.ClientID() == "" {
		g.logger.Warn("igdb client id not configured", "provider", Name)
		return provider.Skip(Name, "TWITCH_CLIENT_ID not set")
	}
	token, ok := g.tokens.Token(ctx)
	if !ok {
		return provider.Skip(Name, "no bearer token")
	}

	query := BuildQuery(g.now(), g.cfg)
	games, err := g.client.Games(ctx, token, query)
	var se *httpjson.StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusUnauthorized {
		// the cached token was revoked early; refresh once
		g.tokens.Invalidate()
		if token, ok = g.tokens.Token(ctx); !ok {
			return provider.Skip(Name, "no bearer token")
		}
		games, err = g.client.Games(ctx, token, query)
	}

	var res provider.Result
	if err != nil {
		res.Fail(Name, release.ErrKindTransport, "query=games", err)
		g.logger.Error("igdb query failed", "provider", Name, "op", "query=games", "error", err)
		return res
	}

	res.Fetched = len(games)
	for _, game := range games {
		rec, err := ConvertGame(game, g.cfg)
		if err != nil {
			res.Dropped++
			g.logger.Debug("dropped item", "provider", Name, "title", game.Name, "reason", err)
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res
}

// BuildQuery renders the Apicalypse body for releases in [now, now+window].
func BuildQuery(now time.Time, cfg Config) string {
	from := now.Unix()
	to := now.Add(time.Duration(cfg.WindowDays) * 24 * time.Hour).Unix()

	regions := []string{strconv.Itoa(cfg.TargetRegion)}
	if cfg.WorldwideRegion != 0 && cfg.WorldwideRegion != cfg.TargetRegion {
		regions = append(regions, strconv.Itoa(cfg.WorldwideRegion))
	}

	var b strings.Builder
	b.WriteString("fields name, summary, cover.url, genres.name, platforms.name, first_release_date, ")
	b.WriteString("release_dates.date, release_dates.region, release_dates.platform.name, ")
	b.WriteString("rating, aggregated_rating, ")
	b.WriteString("involved_companies.company.name, involved_companies.developer, involved_companies.publisher;\n")
	fmt.Fprintf(&b, "where release_dates.date >= %d & release_dates.date <= %d & release_dates.region = (%s);\n",
		from, to, strings.Join(regions, ","))
	b.WriteString("sort release_dates.date asc;\n")
	fmt.Fprintf(&b, "limit %d;\n", cfg.Limit)
	return b.String()
}

// ConvertGame normalizes one database game entry.
func ConvertGame(game igdbapi.Game, cfg Config) (release.Record, error) {
	regional := make([]normalize.Regional, 0, len(game.ReleaseDates))
	for _, rd := range game.ReleaseDates {
		regional = append(regional, normalize.Regional{Region: rd.Region, Date: rd.Date})
	}
	date, ok := normalize.RegionalDate(regional, game.FirstReleaseDate, cfg.TargetRegion, cfg.WorldwideRegion)
	if !ok {
		return release.Record{}, release.ErrMissingReleaseDate
	}

	platforms := make([]string, 0, len(game.Platforms))
	for _, p := range game.Platforms {
		platforms = append(platforms, p.Name)
	}

	var genre string
	if len(game.Genres) > 0 {
		genre = cfg.Genres.Lookup(game.Genres[0].Name)
	}

	var developer, publisher string
	for _, ic := range game.InvolvedCompanies {
		if ic.Developer && developer == "" {
			developer = ic.Company.Name
		}
		if ic.Publisher && publisher == "" {
			publisher = ic.Company.Name
		}
	}

	var cover string
	if game.Cover != nil {
		cover = normalize.IGDBCover(game.Cover.URL)
	}

	ids := release.SourceIDs{IGDBID: game.ID}
	id, ok := release.IdentityKey(ids)
	if !ok {
		return release.Record{}, release.ErrMissingID
	}

	rec := release.Record{
		ID:              id,
		Kind:            release.KindGame,
		Title:           strings.TrimSpace(game.Name),
		ReleaseDate:     date,
		PlatformOrGenre: cfg.Platforms.Join(platforms),
		Genre:           genre,
		Publisher:       publisher,
		Developer:       developer,
		Description:     game.Summary,
		Currency:        release.Currency,
		ImageURL:        cover,
		CriticScore:     score(game.AggregatedRating),
		UserScore:       score(game.Rating),
		SourceIDs:       ids,
		Source:          Name,
	}
	if err := rec.Validate(); err != nil {
		return release.Record{}, err
	}
	return rec, nil
}

func score(v float64) *int {
	if v <= 0 {
		return nil
	}
	return release.IntPtr(int(math.Round(v)))
}
