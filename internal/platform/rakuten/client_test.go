package rakuten

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"releasesync/internal/platform/httpjson"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_SearchBooks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/BooksBook/Search/20170404", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "json", q.Get("format"))
		assert.Equal(t, "app-1", q.Get("applicationId"))
		assert.Equal(t, "aff-1", q.Get("affiliateId"))
		assert.Equal(t, "001004008", q.Get("booksGenreId"))
		assert.Equal(t, "sales", q.Get("sort"))
		assert.Equal(t, "30", q.Get("hits"))
		_, _ = w.Write([]byte(`{"count":1,"Items":[{"Item":{"title":"Example Title","isbn":"9784000000000","salesDate":"2026年03月10日","itemPrice":4950,"booksGenreId":"001004008001"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(httpjson.NewClient("", 0), srv.URL, "app-1", "aff-1")
	items, err := c.SearchBooks(context.Background(), Query{GenreID: "001004008", Hits: 99})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Example Title", items[0].Title)
	assert.Equal(t, "9784000000000", items[0].ISBN)
	assert.Equal(t, 4950, items[0].ItemPrice)
	assert.True(t, c.Configured())
}

func TestClient_SearchGames(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/BooksGame/Search/20170404", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "Nintendo Switch", q.Get("hardware"))
		assert.Empty(t, q.Get("affiliateId"))
		assert.Equal(t, "10", q.Get("hits"))
		_, _ = w.Write([]byte(`{"Items":[{"Item":{"title":"Game","jan":"4902370540000","hardware":"Nintendo Switch","label":"Nintendo"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(httpjson.NewClient("", 0), srv.URL, "app-1", "")
	items, err := c.SearchGames(context.Background(), Query{Hardware: "Nintendo Switch", Hits: 10})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "4902370540000", items[0].JAN)
	assert.Equal(t, "Nintendo", items[0].Label)
	assert.False(t, NewClient(httpjson.NewClient("", 0), srv.URL, "", "").Configured())
}

func TestClient_SearchBooks_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(httpjson.NewClient("", 0), srv.URL, "app-1", "")
	items, err := c.SearchBooks(context.Background(), Query{GenreID: "001001"})
	assert.Error(t, err)
	assert.Nil(t, items)
}
