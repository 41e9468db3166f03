package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"releasesync/internal/normalize"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultProviders []byte

type HTTPData struct {
	UserAgent  string        `yaml:"user_agent"`
	MaxRetries int           `yaml:"max_retries" validate:"gte=0,lte=10"`
	Timeout    time.Duration `yaml:"timeout"`
}

type RakutenData struct {
	BaseURL    string                `yaml:"base_url" validate:"required,url"`
	Delay      time.Duration         `yaml:"delay"`
	Hits       int                   `yaml:"hits" validate:"min=1,max=30"`
	BookGenres []string              `yaml:"book_genres" validate:"dive,required"`
	Hardware   []string              `yaml:"hardware" validate:"dive,required"`
	GenreTable []normalize.GenreRule `yaml:"genre_table"`
}

type IGDBData struct {
	BaseURL         string                `yaml:"base_url" validate:"required,url"`
	TokenURL        string                `yaml:"token_url" validate:"required,url"`
	WindowDays      int                   `yaml:"window_days" validate:"min=1"`
	Limit           int                   `yaml:"limit" validate:"min=1,max=500"`
	TargetRegion    int                   `yaml:"target_region" validate:"required"`
	WorldwideRegion int                   `yaml:"worldwide_region"`
	GenreTable      []normalize.GenreRule `yaml:"genre_table"`
}

type GoogleBooksData struct {
	BaseURL    string        `yaml:"base_url" validate:"required,url"`
	Delay      time.Duration `yaml:"delay"`
	MaxResults int           `yaml:"max_results" validate:"min=1,max=40"`
	Queries    []string      `yaml:"queries"`
}

// ProviderData is the non-secret provider configuration: sub-query lists,
// lookup tables, region codes and pacing.
type ProviderData struct {
	HTTP        HTTPData          `yaml:"http"`
	Rakuten     RakutenData       `yaml:"rakuten"`
	IGDB        IGDBData          `yaml:"igdb"`
	GoogleBooks GoogleBooksData   `yaml:"google_books"`
	Platforms   map[string]string `yaml:"platforms"`
}

// LoadProviderData decodes the embedded defaults and, when path is set,
// overlays the file at path. Lists in the overlay replace the defaults;
// platform aliases are merged.
func LoadProviderData(path string) (ProviderData, error) {
	var d ProviderData
	if err := yaml.Unmarshal(defaultProviders, &d); err != nil {
		return ProviderData{}, fmt.Errorf("decode default provider data: %w", err)
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return ProviderData{}, fmt.Errorf("read provider data: %w", err)
		}
		if err := yaml.Unmarshal(b, &d); err != nil {
			return ProviderData{}, fmt.Errorf("decode provider data %s: %w", path, err)
		}
	}
	return d, d.validate()
}

var validate = validator.New()

func (d ProviderData) validate() error {
	if err := validate.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fmt.Errorf("provider data: %s", describe(verrs[0]))
		}
		return err
	}
	for name, delay := range map[string]time.Duration{
		"rakuten.delay":      d.Rakuten.Delay,
		"google_books.delay": d.GoogleBooks.Delay,
	} {
		if delay < 0 {
			return fmt.Errorf("provider data: %s must not be negative", name)
		}
	}
	return nil
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "url":
		return field + " must be an absolute URL"
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s, got %v", field, fe.Param(), fe.Value())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s, got %v", field, fe.Param(), fe.Value())
	default:
		return field + " is invalid"
	}
}

func (d ProviderData) PlatformTable() normalize.PlatformTable {
	return normalize.PlatformTable(d.Platforms)
}
