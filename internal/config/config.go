package config

import (
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // SYNC_TIMEZONE must resolve in minimal containers

	"github.com/joho/godotenv"
)

const (
	DefaultProviders = "rakuten-books,rakuten-games,igdb"
	DefaultSchedule  = "0 3 * * *"
	DefaultTimezone  = "Asia/Tokyo"
	DefaultTimeout   = 15 * time.Minute
)

type Config struct {
	DBDSN     string
	ItemTable string

	RakutenAppID       string
	RakutenAffiliateID string
	TwitchClientID     string
	TwitchClientSecret string
	GoogleBooksAPIKey  string

	Providers      []string
	Schedule       string
	Location       *time.Location
	Timeout        time.Duration
	MetricsAddr    string
	InternalSecret string

	LogLevel  string
	LogFormat string

	Data ProviderData
}

// LoadEnvFiles reads .env and .env.local without overriding variables the
// runtime already provides.
func LoadEnvFiles() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")
}

// Load reads the environment and the provider data file.
func Load() (Config, error) {
	cfg := Config{
		DBDSN:              os.Getenv("DB_DSN"),
		ItemTable:          getEnv("ITEM_TABLE_NAME", "items"),
		RakutenAppID:       os.Getenv("RAKUTEN_APP_ID"),
		RakutenAffiliateID: os.Getenv("RAKUTEN_AFFILIATE_ID"),
		TwitchClientID:     os.Getenv("TWITCH_CLIENT_ID"),
		TwitchClientSecret: os.Getenv("TWITCH_CLIENT_SECRET"),
		GoogleBooksAPIKey:  os.Getenv("GOOGLE_BOOKS_API_KEY"),
		Providers:          splitList(getEnv("SYNC_PROVIDERS", DefaultProviders)),
		Schedule:           getEnv("SYNC_SCHEDULE", DefaultSchedule),
		MetricsAddr:        getEnv("METRICS_ADDR", ":9090"),
		InternalSecret:     os.Getenv("INTERNAL_SECRET"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "text"),
	}

	loc, err := time.LoadLocation(getEnv("SYNC_TIMEZONE", DefaultTimezone))
	if err != nil {
		return Config{}, fmt.Errorf("SYNC_TIMEZONE: %w", err)
	}
	cfg.Location = loc

	cfg.Timeout = DefaultTimeout
	if v := os.Getenv("SYNC_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("SYNC_TIMEOUT: invalid duration %q", v)
		}
		cfg.Timeout = d
	}

	if len(cfg.Providers) == 0 {
		return Config{}, fmt.Errorf("SYNC_PROVIDERS: at least one provider is required")
	}

	cfg.Data, err = LoadProviderData(os.Getenv("PROVIDERS_FILE"))
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// RedactedDSN hides the credentials part of the DSN for logging.
func (c Config) RedactedDSN() string {
	const marker = "://"
	start := strings.Index(c.DBDSN, marker)
	if start < 0 {
		return c.DBDSN
	}
	start += len(marker)
	end := strings.Index(c.DBDSN[start:], "@")
	if end < 0 {
		return c.DBDSN
	}
	return c.DBDSN[:start] + "***" + c.DBDSN[start+end:]
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
