package release

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// IdentityKey derives the durable id from provider-native identifiers.
// Order: ISBN, JAN, IGDB numeric id, Google Books volume id. Numeric and
// volume ids carry a source prefix so they never collide across providers.
func IdentityKey(ids SourceIDs) (string, bool) {
	if v := strings.TrimSpace(ids.ISBN); v != "" {
		return v, true
	}
	if v := strings.TrimSpace(ids.JAN); v != "" {
		return v, true
	}
	if ids.IGDBID > 0 {
		return "igdb-" + strconv.FormatInt(ids.IGDBID, 10), true
	}
	if v := strings.TrimSpace(ids.GoogleVolumeID); v != "" {
		return "gbooks-" + v, true
	}
	return "", false
}

// FallbackID is used when an item has no reliable native identifier. The id is
// unique per call, so such items are not deduplicated across runs.
func FallbackID(prefix string, now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("%s-%d-%s", prefix, now.UnixNano(), suffix)
}

// ResolveID returns the identity key, falling back to a generated id.
func ResolveID(ids SourceIDs, prefix string, now time.Time) string {
	if id, ok := IdentityKey(ids); ok {
		return id
	}
	return FallbackID(prefix, now)
}
