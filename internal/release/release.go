package release

import (
	"time"
)

type Kind string

const (
	KindGame Kind = "GAME"
	KindBook Kind = "BOOK"
)

// Currency is the only market the pipeline ingests for.
const Currency = "JPY"

// SourceIDs are the provider-native identifiers an item was discovered with.
type SourceIDs struct {
	ISBN           string `json:"isbn,omitempty"`
	JAN            string `json:"jan,omitempty"`
	IGDBID         int64  `json:"igdb_id,omitempty"`
	GoogleVolumeID string `json:"google_volume_id,omitempty"`
}

// Record is the canonical, store-ready shape of one game or book release.
type Record struct {
	ID              string    `json:"id" validate:"notblank"`
	Kind            Kind      `json:"kind" validate:"oneof=GAME BOOK"`
	Title           string    `json:"title" validate:"notblank"`
	ReleaseDate     string    `json:"release_date" validate:"datetime=2006-01-02"`
	PlatformOrGenre string    `json:"platform_or_genre,omitempty"`
	Genre           string    `json:"genre,omitempty"`
	Publisher       string    `json:"publisher,omitempty"`
	Developer       string    `json:"developer,omitempty"`
	Description     string    `json:"description,omitempty"`
	Price           *int      `json:"price,omitempty" validate:"omitempty,min=0"`
	Currency        string    `json:"currency"`
	ImageURL        string    `json:"image_url,omitempty"`
	ProductURL      string    `json:"product_url,omitempty"`
	CriticScore     *int      `json:"critic_score,omitempty" validate:"omitempty,min=0,max=100"`
	UserScore       *int      `json:"user_score,omitempty" validate:"omitempty,min=0,max=100"`
	SourceIDs       SourceIDs `json:"source_ids"`
	Source          string    `json:"source"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// IntPtr is a helper for optional integer fields.
func IntPtr(v int) *int {
	return &v
}
