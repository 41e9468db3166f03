package ingest

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"

	"releasesync/internal/httpx"
)

// Trigger starts a run on demand, honouring the same exclusion as the schedule.
type Trigger interface {
	RunNow(ctx context.Context) (Summary, error)
}

type HTTPHandler struct {
	trigger Trigger
	secret  string
}

func NewHTTPHandler(trigger Trigger, secret string) *HTTPHandler {
	return &HTTPHandler{trigger: trigger, secret: secret}
}

type providerResponse struct {
	Name        string         `json:"name"`
	Skipped     bool           `json:"skipped"`
	Fetched     int            `json:"fetched"`
	Dropped     int            `json:"dropped"`
	Saved       int            `json:"saved"`
	WriteErrors int            `json:"write_errors"`
	Failures    map[string]int `json:"failures,omitempty"`
}

type syncResponse struct {
	RunID     string             `json:"run_id,omitempty"`
	Saved     int                `json:"saved"`
	Providers []providerResponse `json:"providers"`
}

// Sync handles POST /internal/jobs/sync
func (h *HTTPHandler) Sync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpx.JSONError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "use POST", nil)
		return
	}
	secret := r.Header.Get("X-Internal-Secret")
	if h.secret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(h.secret)) != 1 {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid internal secret", nil)
		return
	}

	// a dropped client connection must not abort the run
	sum, err := h.trigger.RunNow(context.WithoutCancel(r.Context()))
	switch {
	case errors.Is(err, ErrRunInProgress):
		httpx.JSONError(w, r, http.StatusConflict, "SYNC_IN_PROGRESS", err.Error(), nil)
		return
	case err != nil:
		httpx.JSONError(w, r, http.StatusInternalServerError, "SYNC_FAILED", err.Error(), nil)
		return
	}

	httpx.JSONSuccess(w, r, toResponse(sum), nil)
}

func toResponse(sum Summary) syncResponse {
	out := syncResponse{RunID: sum.RunID, Saved: sum.Saved, Providers: make([]providerResponse, 0, len(sum.Providers))}
	for _, p := range sum.Providers {
		pr := providerResponse{
			Name:        p.Name,
			Skipped:     p.Skipped,
			Fetched:     p.Fetched,
			Dropped:     p.Dropped,
			Saved:       p.Saved,
			WriteErrors: p.WriteErrors,
		}
		if len(p.Failures) > 0 {
			pr.Failures = make(map[string]int)
			for _, f := range p.Failures {
				pr.Failures[string(f.Kind)]++
			}
		}
		out.Providers = append(out.Providers, pr)
	}
	return out
}
