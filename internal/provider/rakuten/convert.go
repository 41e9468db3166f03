package rakuten

import (
	"fmt"
	"strings"
	"time"

	"releasesync/internal/normalize"
	rakutenapi "releasesync/internal/platform/rakuten"
	"releasesync/internal/release"
)

// ConvertBook normalizes one retailer book item. Items without a parseable
// sales date or a title are rejected.
func ConvertBook(it rakutenapi.BookItem, genres normalize.GenreTable, now time.Time) (release.Record, error) {
	date, ok := normalize.ParseDate(it.SalesDate)
	if !ok {
		return release.Record{}, fmt.Errorf("%w: %q", release.ErrMissingReleaseDate, it.SalesDate)
	}

	ids := release.SourceIDs{ISBN: strings.TrimSpace(it.ISBN)}
	rec := release.Record{
		ID:              release.ResolveID(ids, "rakuten-book", now),
		Kind:            release.KindBook,
		Title:           strings.TrimSpace(it.Title),
		ReleaseDate:     date,
		PlatformOrGenre: genres.Lookup(it.BooksGenreID),
		Publisher:       it.PublisherName,
		Developer:       it.Author,
		Description:     it.ItemCaption,
		Price:           price(it.ItemPrice),
		Currency:        release.Currency,
		ImageURL:        normalize.SecureURL(firstNonEmpty(it.LargeImageURL, it.MediumImageURL)),
		ProductURL:      firstNonEmpty(it.AffiliateURL, it.ItemURL),
		SourceIDs:       ids,
		Source:          BooksName,
	}
	if err := rec.Validate(); err != nil {
		return release.Record{}, err
	}
	return rec, nil
}

// ConvertGame normalizes one retailer game item.
func ConvertGame(it rakutenapi.GameItem, platforms normalize.PlatformTable, now time.Time) (release.Record, error) {
	date, ok := normalize.ParseDate(it.SalesDate)
	if !ok {
		return release.Record{}, fmt.Errorf("%w: %q", release.ErrMissingReleaseDate, it.SalesDate)
	}

	ids := release.SourceIDs{JAN: strings.TrimSpace(it.JAN)}
	rec := release.Record{
		ID:              release.ResolveID(ids, "rakuten-game", now),
		Kind:            release.KindGame,
		Title:           strings.TrimSpace(it.Title),
		ReleaseDate:     date,
		PlatformOrGenre: platforms.Lookup(it.Hardware),
		Publisher:       it.Label,
		Description:     it.ItemCaption,
		Price:           price(it.ItemPrice),
		Currency:        release.Currency,
		ImageURL:        normalize.SecureURL(firstNonEmpty(it.LargeImageURL, it.MediumImageURL)),
		ProductURL:      firstNonEmpty(it.AffiliateURL, it.ItemURL),
		SourceIDs:       ids,
		Source:          GamesName,
	}
	if err := rec.Validate(); err != nil {
		return release.Record{}, err
	}
	return rec, nil
}

func price(v int) *int {
	if v <= 0 {
		return nil
	}
	return release.IntPtr(v)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
