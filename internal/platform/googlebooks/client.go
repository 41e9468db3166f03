package googlebooks

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"releasesync/internal/platform/httpjson"
)

const DefaultBaseURL = "https://www.googleapis.com/books/v1/volumes"

type Identifier struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}

type Price struct {
	Amount       float64 `json:"amount"`
	CurrencyCode string  `json:"currencyCode"`
}

type Volume struct {
	ID         string `json:"id"`
	VolumeInfo struct {
		Title               string       `json:"title"`
		Subtitle            string       `json:"subtitle"`
		Authors             []string     `json:"authors"`
		Publisher           string       `json:"publisher"`
		PublishedDate       string       `json:"publishedDate"`
		Description         string       `json:"description"`
		IndustryIdentifiers []Identifier `json:"industryIdentifiers"`
		Categories          []string     `json:"categories"`
		ImageLinks          struct {
			Thumbnail string `json:"thumbnail"`
		} `json:"imageLinks"`
		InfoLink string `json:"infoLink"`
	} `json:"volumeInfo"`
	SaleInfo struct {
		ListPrice   *Price `json:"listPrice"`
		RetailPrice *Price `json:"retailPrice"`
	} `json:"saleInfo"`
}

type searchResponse struct {
	TotalItems int      `json:"totalItems"`
	Items      []Volume `json:"items"`
}

type Client struct {
	http    *httpjson.Client
	baseURL string
	apiKey  string
}

func NewClient(hc *httpjson.Client, baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{http: hc, baseURL: baseURL, apiKey: apiKey}
}

// Search returns the newest Japanese-language volumes for a query.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]Volume, error) {
	if maxResults <= 0 || maxResults > 40 {
		maxResults = 40
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(maxResults))
	params.Set("langRestrict", "ja")
	params.Set("orderBy", "newest")
	params.Set("printType", "books")
	params.Set("country", "JP")
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}
	u := c.baseURL + "?" + params.Encode()

	var res searchResponse
	err := c.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}, &res)
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}
