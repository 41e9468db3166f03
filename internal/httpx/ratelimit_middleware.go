package httpx

import (
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// ThrottleMiddleware rejects requests once the shared token bucket is empty.
// Admin endpoints only; nothing here is per-client.
func ThrottleMiddleware(every time.Duration, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Every(every), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Retry-After", strconv.Itoa(int(every.Seconds())))
				JSONError(w, r, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Too many requests", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
