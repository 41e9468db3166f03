package igdb

import (
	"context"
	"net/http"
	"strings"

	"releasesync/internal/platform/httpjson"
)

const DefaultBaseURL = "https://api.igdb.com/v4"

// Region codes used by release_dates.region.
const (
	RegionEurope       = 1
	RegionNorthAmerica = 2
	RegionJapan        = 5
	RegionWorldwide    = 8
)

type Named struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type ReleaseDate struct {
	Date     int64 `json:"date"`
	Region   int   `json:"region"`
	Platform Named `json:"platform"`
}

type Image struct {
	URL string `json:"url"`
}

type InvolvedCompany struct {
	Company   Named `json:"company"`
	Developer bool  `json:"developer"`
	Publisher bool  `json:"publisher"`
}

// Game is the subset of /games fields the pipeline requests.
type Game struct {
	ID                int64             `json:"id"`
	Name              string            `json:"name"`
	Summary           string            `json:"summary"`
	FirstReleaseDate  int64             `json:"first_release_date"`
	Rating            float64           `json:"rating"`
	AggregatedRating  float64           `json:"aggregated_rating"`
	Cover             *Image            `json:"cover"`
	Genres            []Named           `json:"genres"`
	Platforms         []Named           `json:"platforms"`
	ReleaseDates      []ReleaseDate     `json:"release_dates"`
	InvolvedCompanies []InvolvedCompany `json:"involved_companies"`
}

type Client struct {
	http     *httpjson.Client
	baseURL  string
	clientID string
}

func NewClient(hc *httpjson.Client, baseURL, clientID string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{http: hc, baseURL: strings.TrimRight(baseURL, "/"), clientID: clientID}
}

// Games posts an Apicalypse query to /games.
func (c *Client) Games(ctx context.Context, token, query string) ([]Game, error) {
	var out []Game
	err := c.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/games", strings.NewReader(query))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Client-ID", c.clientID)
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "text/plain")
		return req, nil
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}
