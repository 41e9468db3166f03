package rakuten

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"releasesync/internal/platform/httpjson"
)

const (
	DefaultBaseURL = "https://app.rakuten.co.jp/services/api"
	booksPath      = "/BooksBook/Search/20170404"
	gamesPath      = "/BooksGame/Search/20170404"

	// MaxHits is the provider's page size ceiling.
	MaxHits = 30
)

// BookItem matches one BooksBook/Search item.
type BookItem struct {
	Title          string `json:"title"`
	Author         string `json:"author"`
	PublisherName  string `json:"publisherName"`
	ISBN           string `json:"isbn"`
	ItemCaption    string `json:"itemCaption"`
	SalesDate      string `json:"salesDate"`
	ItemPrice      int    `json:"itemPrice"`
	ItemURL        string `json:"itemUrl"`
	AffiliateURL   string `json:"affiliateUrl"`
	LargeImageURL  string `json:"largeImageUrl"`
	MediumImageURL string `json:"mediumImageUrl"`
	BooksGenreID   string `json:"booksGenreId"`
}

// GameItem matches one BooksGame/Search item.
type GameItem struct {
	Title          string `json:"title"`
	Hardware       string `json:"hardware"`
	Label          string `json:"label"`
	JAN            string `json:"jan"`
	ItemCaption    string `json:"itemCaption"`
	SalesDate      string `json:"salesDate"`
	ItemPrice      int    `json:"itemPrice"`
	ItemURL        string `json:"itemUrl"`
	AffiliateURL   string `json:"affiliateUrl"`
	LargeImageURL  string `json:"largeImageUrl"`
	MediumImageURL string `json:"mediumImageUrl"`
}

type searchResponse[T any] struct {
	Count int `json:"count"`
	Items []struct {
		Item T `json:"Item"`
	} `json:"Items"`
}

// Query is one search call. Exactly one of GenreID or Hardware is used.
type Query struct {
	GenreID  string
	Hardware string
	Sort     string
	Hits     int
}

type Client struct {
	http        *httpjson.Client
	baseURL     string
	appID       string
	affiliateID string
}

func NewClient(hc *httpjson.Client, baseURL, appID, affiliateID string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{http: hc, baseURL: baseURL, appID: appID, affiliateID: affiliateID}
}

// Configured reports whether an application id is available.
func (c *Client) Configured() bool {
	return c.appID != ""
}

func (c *Client) SearchBooks(ctx context.Context, q Query) ([]BookItem, error) {
	params := c.params(q)
	if q.GenreID != "" {
		params.Set("booksGenreId", q.GenreID)
	}
	var res searchResponse[BookItem]
	if err := c.get(ctx, booksPath, params, &res); err != nil {
		return nil, err
	}
	out := make([]BookItem, 0, len(res.Items))
	for _, it := range res.Items {
		out = append(out, it.Item)
	}
	return out, nil
}

func (c *Client) SearchGames(ctx context.Context, q Query) ([]GameItem, error) {
	params := c.params(q)
	if q.Hardware != "" {
		params.Set("hardware", q.Hardware)
	}
	var res searchResponse[GameItem]
	if err := c.get(ctx, gamesPath, params, &res); err != nil {
		return nil, err
	}
	out := make([]GameItem, 0, len(res.Items))
	for _, it := range res.Items {
		out = append(out, it.Item)
	}
	return out, nil
}

func (c *Client) params(q Query) url.Values {
	hits := q.Hits
	if hits <= 0 || hits > MaxHits {
		hits = MaxHits
	}
	sort := q.Sort
	if sort == "" {
		sort = "sales"
	}
	params := url.Values{}
	params.Set("format", "json")
	params.Set("applicationId", c.appID)
	if c.affiliateID != "" {
		params.Set("affiliateId", c.affiliateID)
	}
	params.Set("sort", sort)
	params.Set("hits", strconv.Itoa(hits))
	return params
}

func (c *Client) get(ctx context.Context, path string, params url.Values, target any) error {
	u := c.baseURL + path + "?" + params.Encode()
	return c.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}, target)
}
