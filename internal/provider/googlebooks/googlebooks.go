package googlebooks

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"releasesync/internal/normalize"
	booksapi "releasesync/internal/platform/googlebooks"
	"releasesync/internal/provider"
	"releasesync/internal/release"
)

const Name = "google-books"

type VolumeSearcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]booksapi.Volume, error)
}

type Config struct {
	Queries    []string
	MaxResults int
}

// Books supplements the retailer catalogue with newest Japanese volumes.
// No credentials are required; an API key only raises the quota.
type Books struct {
	client  VolumeSearcher
	cfg     Config
	limiter provider.Limiter
	logger  *slog.Logger
}

func NewBooks(client VolumeSearcher, cfg Config, limiter provider.Limiter, logger *slog.Logger) *Books {
	if logger == nil {
		logger = slog.Default()
	}
	return &Books{client: client, cfg: cfg, limiter: limiter, logger: logger}
}

func (b *Books) Name() string { return Name }

func (b *Books) Fetch(ctx context.Context) provider.Result {
	var res provider.Result
	for _, q := range b.cfg.Queries {
		op := "q=" + q
		if err := b.limiter.Wait(ctx); err != nil {
			res.Fail(Name, release.ErrKindTransport, op, err)
			b.logger.Error("google books query aborted", "provider", Name, "op", op, "error", err)
			break
		}
		vols, err := b.client.Search(ctx, q, b.cfg.MaxResults)
		if err != nil {
			res.Fail(Name, release.ErrKindTransport, op, err)
			b.logger.Error("google books query failed", "provider", Name, "op", op, "error", err)
			continue
		}
		res.Fetched += len(vols)
		for _, v := range vols {
			rec, err := ConvertVolume(v)
			if err != nil {
				res.Dropped++
				b.logger.Debug("dropped item", "provider", Name, "op", op, "title", v.VolumeInfo.Title, "reason", err)
				continue
			}
			res.Records = append(res.Records, rec)
		}
	}
	return res
}

// ConvertVolume normalizes one volume. ISBN-13 is the preferred identity so
// that a volume also sold by the retailer converges on the same row.
func ConvertVolume(v booksapi.Volume) (release.Record, error) {
	info := v.VolumeInfo
	date, ok := normalize.ParseDate(info.PublishedDate)
	if !ok {
		return release.Record{}, fmt.Errorf("%w: %q", release.ErrMissingReleaseDate, info.PublishedDate)
	}

	ids := release.SourceIDs{ISBN: isbn(info.IndustryIdentifiers), GoogleVolumeID: strings.TrimSpace(v.ID)}
	id, ok := release.IdentityKey(ids)
	if !ok {
		return release.Record{}, release.ErrMissingID
	}

	title := strings.TrimSpace(info.Title)
	if sub := strings.TrimSpace(info.Subtitle); title != "" && sub != "" {
		title += " " + sub
	}

	genre := normalize.Other
	if len(info.Categories) > 0 {
		genre = info.Categories[0]
	}

	rec := release.Record{
		ID:              id,
		Kind:            release.KindBook,
		Title:           title,
		ReleaseDate:     date,
		PlatformOrGenre: genre,
		Publisher:       info.Publisher,
		Developer:       strings.Join(info.Authors, ", "),
		Description:     info.Description,
		Price:           yen(v.SaleInfo.RetailPrice, v.SaleInfo.ListPrice),
		Currency:        release.Currency,
		ImageURL:        normalize.SecureURL(info.ImageLinks.Thumbnail),
		ProductURL:      info.InfoLink,
		SourceIDs:       ids,
		Source:          Name,
	}
	if err := rec.Validate(); err != nil {
		return release.Record{}, err
	}
	return rec, nil
}

func isbn(ids []booksapi.Identifier) string {
	var isbn10 string
	for _, id := range ids {
		switch id.Type {
		case "ISBN_13":
			return strings.TrimSpace(id.Identifier)
		case "ISBN_10":
			if isbn10 == "" {
				isbn10 = strings.TrimSpace(id.Identifier)
			}
		}
	}
	return isbn10
}

// yen returns the first positive JPY amount.
func yen(prices ...*booksapi.Price) *int {
	for _, p := range prices {
		if p == nil || p.Amount <= 0 || p.CurrencyCode != release.Currency {
			continue
		}
		return release.IntPtr(int(math.Round(p.Amount)))
	}
	return nil
}
