package googlebooks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"releasesync/internal/platform/httpjson"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "subject:ライトノベル", q.Get("q"))
		assert.Equal(t, "40", q.Get("maxResults"))
		assert.Equal(t, "ja", q.Get("langRestrict"))
		assert.Equal(t, "JP", q.Get("country"))
		assert.Equal(t, "key-1", q.Get("key"))
		_, _ = w.Write([]byte(`{"totalItems":1,"items":[{"id":"vol1","volumeInfo":{"title":"T","publishedDate":"2026-03",
			"industryIdentifiers":[{"type":"ISBN_13","identifier":"9784000000000"}]},
			"saleInfo":{"retailPrice":{"amount":1320,"currencyCode":"JPY"}}}]}`))
	}))
	defer srv.Close()

	c := NewClient(httpjson.NewClient("", 0), srv.URL, "key-1")
	vols, err := c.Search(context.Background(), "subject:ライトノベル", 0)
	require.NoError(t, err)
	require.Len(t, vols, 1)
	assert.Equal(t, "vol1", vols[0].ID)
	assert.Equal(t, "2026-03", vols[0].VolumeInfo.PublishedDate)
	require.NotNil(t, vols[0].SaleInfo.RetailPrice)
	assert.Equal(t, 1320.0, vols[0].SaleInfo.RetailPrice.Amount)
}

func TestClient_Search_NoItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query().Get("key"))
		_, _ = w.Write([]byte(`{"totalItems":0}`))
	}))
	defer srv.Close()

	c := NewClient(httpjson.NewClient("", 0), srv.URL, "")
	vols, err := c.Search(context.Background(), "subject:小説", 10)
	require.NoError(t, err)
	assert.Empty(t, vols)
}
