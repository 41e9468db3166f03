package normalize

import "strings"

// SecureURL rewrites plain-http and protocol-relative URLs to https.
func SecureURL(u string) string {
	u = strings.TrimSpace(u)
	switch {
	case strings.HasPrefix(u, "http://"):
		return "https://" + strings.TrimPrefix(u, "http://")
	case strings.HasPrefix(u, "//"):
		return "https:" + u
	}
	return u
}

// IGDBCover upgrades an IGDB thumbnail URL to the large cover size.
func IGDBCover(u string) string {
	if u == "" {
		return ""
	}
	return SecureURL(strings.Replace(u, "t_thumb", "t_cover_big", 1))
}
