package rakuten

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"releasesync/internal/platform/httpjson"
	rakutenapi "releasesync/internal/platform/rakuten"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

const bookBody = `{"count":1,"Items":[{"Item":{"title":"Example Title","isbn":"9784000000000","salesDate":"2026年03月10日","itemPrice":4950,"booksGenreId":"001004008001"}}]}`

func TestBooks_Fetch_RetriesStayThrottled(t *testing.T) {
	const delay = 200 * time.Millisecond

	var (
		mu    sync.Mutex
		stamp []time.Time
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		stamp = append(stamp, time.Now())
		n := len(stamp)
		mu.Unlock()

		if n == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(bookBody))
	}))
	defer srv.Close()

	limiter := rate.NewLimiter(rate.Every(delay), 1)
	hc := httpjson.NewClient("releasesync-test", 3, httpjson.WithRetryLimiter(limiter, delay))
	p := NewBooks(rakutenapi.NewClient(hc, srv.URL, "app", ""),
		BooksConfig{Genres: []string{"001004008", "001001"}, Hits: 30, GenreTable: genreTable}, limiter, discard())

	res := p.Fetch(context.Background())

	assert.Empty(t, res.Failures)
	assert.Len(t, res.Records, 2)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, stamp, 3)
	for i := 1; i < len(stamp); i++ {
		gap := stamp[i].Sub(stamp[i-1])
		assert.GreaterOrEqual(t, gap, delay-10*time.Millisecond, "request %d came %s after the previous one", i, gap)
	}
}
