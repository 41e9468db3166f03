package rakuten

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"releasesync/internal/normalize"
	rakutenapi "releasesync/internal/platform/rakuten"
	"releasesync/internal/release"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockBookSearcher struct {
	mock.Mock
}

func (m *mockBookSearcher) Configured() bool {
	return m.Called().Bool(0)
}

func (m *mockBookSearcher) SearchBooks(ctx context.Context, q rakutenapi.Query) ([]rakutenapi.BookItem, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]rakutenapi.BookItem), args.Error(1)
}

type mockGameSearcher struct {
	mock.Mock
}

func (m *mockGameSearcher) Configured() bool {
	return m.Called().Bool(0)
}

func (m *mockGameSearcher) SearchGames(ctx context.Context, q rakutenapi.Query) ([]rakutenapi.GameItem, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]rakutenapi.GameItem), args.Error(1)
}

// countingLimiter records every Wait so tests can check the throttle is
// applied before each sub-query.
type countingLimiter struct {
	waits int
	err   error
}

func (l *countingLimiter) Wait(ctx context.Context) error {
	l.waits++
	return l.err
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var genreTable = normalize.NewGenreTable([]normalize.GenreRule{
	{Prefix: "001004008", Label: "light-novel"},
	{Prefix: "001001", Label: "comic"},
})

func TestBooks_Fetch(t *testing.T) {
	ctx := context.Background()
	client := new(mockBookSearcher)
	limiter := &countingLimiter{}
	p := NewBooks(client, BooksConfig{Genres: []string{"001004008", "001001", "001005"}, Hits: 30, GenreTable: genreTable}, limiter, discard())

	client.On("Configured").Return(true)
	client.On("SearchBooks", ctx, rakutenapi.Query{GenreID: "001004008", Hits: 30}).Return([]rakutenapi.BookItem{
		{Title: "Example Title", SalesDate: "2026年03月10日", ItemPrice: 4950, ISBN: "9784000000000", BooksGenreID: "001004008003",
			LargeImageURL: "http://thumbnail.image.rakuten.co.jp/a.jpg", ItemURL: "https://books.rakuten.co.jp/rb/1/"},
		{Title: "No Date", SalesDate: "未定", ISBN: "9784000000001"},
	}, nil).Once()
	client.On("SearchBooks", ctx, rakutenapi.Query{GenreID: "001001", Hits: 30}).Return(nil, errors.New("connection reset")).Once()
	client.On("SearchBooks", ctx, rakutenapi.Query{GenreID: "001005", Hits: 30}).Return([]rakutenapi.BookItem{
		{Title: "Comic", SalesDate: "2026年04月", BooksGenreID: "001001001"},
	}, nil).Once()

	res := p.Fetch(ctx)

	client.AssertExpectations(t)
	assert.Equal(t, 3, limiter.waits, "limiter must run before every sub-query, including after a failure")
	assert.False(t, res.Skipped)
	assert.Equal(t, 3, res.Fetched)
	assert.Equal(t, 1, res.Dropped)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, release.ErrKindTransport, res.Failures[0].Kind)
	assert.Equal(t, "genre=001001", res.Failures[0].Op)

	require.Len(t, res.Records, 2)
	first := res.Records[0]
	assert.Equal(t, "9784000000000", first.ID)
	assert.Equal(t, release.KindBook, first.Kind)
	assert.Equal(t, "2026-03-10", first.ReleaseDate)
	assert.Equal(t, "light-novel", first.PlatformOrGenre)
	require.NotNil(t, first.Price)
	assert.Equal(t, 4950, *first.Price)
	assert.Equal(t, "https://thumbnail.image.rakuten.co.jp/a.jpg", first.ImageURL)
	assert.Equal(t, BooksName, first.Source)

	second := res.Records[1]
	assert.True(t, strings.HasPrefix(second.ID, "rakuten-book-"), "items without isbn get a generated id")
	assert.Equal(t, "2026-04-01", second.ReleaseDate)
	assert.Equal(t, "comic", second.PlatformOrGenre)
	assert.Nil(t, second.Price)
}

func TestBooks_Fetch_NotConfigured(t *testing.T) {
	client := new(mockBookSearcher)
	limiter := &countingLimiter{}
	p := NewBooks(client, BooksConfig{Genres: []string{"001001"}}, limiter, discard())

	client.On("Configured").Return(false)

	res := p.Fetch(context.Background())
	assert.True(t, res.Skipped)
	assert.Empty(t, res.Records)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, release.ErrKindCredentials, res.Failures[0].Kind)
	assert.Equal(t, 0, limiter.waits)
	client.AssertNotCalled(t, "SearchBooks", mock.Anything, mock.Anything)
}

func TestBooks_Fetch_StopsWhenLimiterFails(t *testing.T) {
	client := new(mockBookSearcher)
	limiter := &countingLimiter{err: context.Canceled}
	p := NewBooks(client, BooksConfig{Genres: []string{"001001", "001004"}}, limiter, discard())

	client.On("Configured").Return(true)

	res := p.Fetch(context.Background())
	assert.Equal(t, 1, limiter.waits)
	require.Len(t, res.Failures, 1)
	assert.ErrorIs(t, res.Failures[0], context.Canceled)
	client.AssertNotCalled(t, "SearchBooks", mock.Anything, mock.Anything)
}

func TestGames_Fetch(t *testing.T) {
	ctx := context.Background()
	client := new(mockGameSearcher)
	limiter := &countingLimiter{}
	platforms := normalize.PlatformTable{"Xbox Series X": "Xbox Series X|S"}
	p := NewGames(client, GamesConfig{Hardware: []string{"Nintendo Switch", "Xbox Series X"}, Hits: 30, Platforms: platforms}, limiter, discard())

	client.On("Configured").Return(true)
	client.On("SearchGames", ctx, rakutenapi.Query{Hardware: "Nintendo Switch", Hits: 30}).Return(nil, errors.New("HTTP 503")).Once()
	client.On("SearchGames", ctx, rakutenapi.Query{Hardware: "Xbox Series X", Hits: 30}).Return([]rakutenapi.GameItem{
		{Title: "Game", JAN: "4902370540000", Hardware: "Xbox Series X", Label: "Publisher", SalesDate: "2026/3/5", ItemPrice: 7980,
			AffiliateURL: "https://hb.afl.rakuten.co.jp/x", ItemURL: "https://books.rakuten.co.jp/rb/2/"},
	}, nil).Once()

	res := p.Fetch(ctx)

	client.AssertExpectations(t)
	assert.Equal(t, 2, limiter.waits)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "hardware=Nintendo Switch", res.Failures[0].Op)
	require.Len(t, res.Records, 1)

	rec := res.Records[0]
	assert.Equal(t, "4902370540000", rec.ID)
	assert.Equal(t, release.KindGame, rec.Kind)
	assert.Equal(t, "2026-03-05", rec.ReleaseDate)
	assert.Equal(t, "Xbox Series X|S", rec.PlatformOrGenre)
	assert.Equal(t, "Publisher", rec.Publisher)
	assert.Equal(t, "https://hb.afl.rakuten.co.jp/x", rec.ProductURL)
	assert.Equal(t, release.Currency, rec.Currency)
}

func TestConvertGame_MissingTitle(t *testing.T) {
	_, err := ConvertGame(rakutenapi.GameItem{Title: " ", SalesDate: "2026年03月10日", JAN: "1"}, nil, time.Now())
	assert.ErrorIs(t, err, release.ErrMissingTitle)
}

func TestConvertBook_UnparseableDate(t *testing.T) {
	_, err := ConvertBook(rakutenapi.BookItem{Title: "T", SalesDate: "近日発売"}, genreTable, time.Now())
	assert.ErrorIs(t, err, release.ErrMissingReleaseDate)
}
