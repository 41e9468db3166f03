package normalize

import (
	"sort"
	"strings"
)

// Other is the bucket for codes no rule matches.
const Other = "other"

// GenreRule maps a hierarchical category code prefix to a canonical label.
type GenreRule struct {
	Prefix string `yaml:"prefix"`
	Label  string `yaml:"label"`
}

// GenreTable is a prefix lookup table. Longer prefixes win.
type GenreTable struct {
	rules []GenreRule
}

func NewGenreTable(rules []GenreRule) GenreTable {
	sorted := make([]GenreRule, 0, len(rules))
	for _, r := range rules {
		if strings.TrimSpace(r.Prefix) == "" || strings.TrimSpace(r.Label) == "" {
			continue
		}
		sorted = append(sorted, r)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Prefix) > len(sorted[j].Prefix)
	})
	return GenreTable{rules: sorted}
}

// Lookup never fails: unknown or empty codes map to Other.
func (t GenreTable) Lookup(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return Other
	}
	for _, r := range t.rules {
		if strings.HasPrefix(code, r.Prefix) {
			return r.Label
		}
	}
	return Other
}

// PlatformTable maps retailer and database hardware names to canonical platforms.
type PlatformTable map[string]string

// Lookup returns the canonical platform, or the trimmed input when unmapped.
func (t PlatformTable) Lookup(name string) string {
	name = strings.TrimSpace(name)
	if v, ok := t[name]; ok {
		return v
	}
	return name
}

// Join maps every name and joins the distinct results in input order.
func (t PlatformTable) Join(names []string) string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		p := t.Lookup(n)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return strings.Join(out, ", ")
}
