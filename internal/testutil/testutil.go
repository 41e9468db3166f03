package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	"releasesync/internal/release"
)

// Created is the fixed timestamp used by fixtures.
var Created = time.Date(2026, 1, 5, 3, 0, 0, 0, time.UTC)

// BookRecord returns a valid retailer book record.
func BookRecord(id string) release.Record {
	return release.Record{
		ID:              id,
		Kind:            release.KindBook,
		Title:           "Example Title",
		ReleaseDate:     "2026-03-10",
		PlatformOrGenre: "light-novel",
		Price:           release.IntPtr(4950),
		Currency:        release.Currency,
		SourceIDs:       release.SourceIDs{ISBN: id},
		Source:          "rakuten-books",
		CreatedAt:       Created,
		UpdatedAt:       Created,
	}
}

// GameRecord returns a valid game database record.
func GameRecord(id string) release.Record {
	return release.Record{
		ID:              id,
		Kind:            release.KindGame,
		Title:           "Sample Quest",
		ReleaseDate:     "2026-02-16",
		PlatformOrGenre: "PS5, Switch",
		Genre:           "rpg",
		Currency:        release.Currency,
		CriticScore:     release.IntPtr(77),
		Source:          "igdb",
		CreatedAt:       Created,
		UpdatedAt:       Created,
	}
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewRequest creates a new HTTP request, JSON encoding body when set.
func NewRequest(method, path string, body any) *http.Request {
	if body == nil {
		return httptest.NewRequest(method, path, nil)
	}
	b, _ := json.Marshal(body)
	r := httptest.NewRequest(method, path, bytes.NewReader(b))
	r.Header.Set("Content-Type", "application/json")
	return r
}

// NewRequestWithSecret sets the internal job secret header.
func NewRequestWithSecret(method, path, secret string) *http.Request {
	r := NewRequest(method, path, nil)
	if secret != "" {
		r.Header.Set("X-Internal-Secret", secret)
	}
	return r
}

type RecordResponse struct {
	Code   int
	Header http.Header
	Body   map[string]any
}

// RecordHTTPResponse decodes the recorded JSON envelope.
func RecordHTTPResponse(w *httptest.ResponseRecorder) RecordResponse {
	result := w.Result()
	defer result.Body.Close()

	raw, _ := io.ReadAll(result.Body)

	var body map[string]any
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &body)
	}
	return RecordResponse{Code: result.StatusCode, Header: result.Header, Body: body}
}
