package core

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Well-known completion values written by the collection export.
const (
	CompletionBeaten     = "Beaten"
	CompletionCompleted  = "Completed"
	CompletionDropped    = "Dropped"
	CompletionContinuous = "Continuous"

	StatusPlayed  = "Played"
	StatusPlaying = "Playing"

	UnknownTitle    = "Unknown Title"
	UnknownPlatform = "Unknown"
	UnknownValue    = "Unknown"
)

// Year bounds accepted as a recap target.
const (
	MinYear = 1
	MaxYear = 9999
)

const (
	ImportPending   ImportStatus = "pending"
	ImportProcessed ImportStatus = "processed"
	ImportFailed    ImportStatus = "error"
)

type (
	ImportStatus string

	// Game is the normalized, read-only view of one raw record used during a
	// single aggregation pass.
	Game struct {
		ID                   string
		Title                string
		Platform             string
		PlatformAbbreviation string
		ReleaseYear          *int
		Completion           string
		Status               string
		AcquisitionDate      *time.Time
		CompletionDate       *time.Time
		PlayTime             *int // minutes
		Rating               *float64
		CoverImage           *string
	}

	// GameOverride holds user-entered corrections for one game, keyed by game id.
	GameOverride struct {
		CoverImage *string   `json:"coverImage,omitempty"`
		UpdatedAt  time.Time `json:"updatedAt"`
	}

	// Import is a stored batch of raw records plus the years to recap.
	Import struct {
		ID          int64        `json:"id"`
		Name        string       `json:"name"`
		Source      string       `json:"source"`
		Years       []int        `json:"years"`
		Records     []RawRecord  `json:"-"`
		RecordCount int          `json:"recordCount"`
		Status      ImportStatus `json:"status"`
		CreatedAt   time.Time    `json:"createdAt"`
	}
)

var (
	ErrInvalidYear     = errors.New("invalid year")
	ErrNotFound        = errors.New("not found")
	ErrEmptyImport     = errors.New("import has no records")
	ErrEmptyGameID     = errors.New("empty game id")
	ErrInvalidOverride = errors.New("invalid override")
)

// ValidateYear checks a year supplied from outside (request, message, config).
// Summarize itself accepts any year.
func ValidateYear(year int) error {
	if year < MinYear || year > MaxYear {
		return fmt.Errorf("%w: %d (must be between %d and %d)", ErrInvalidYear, year, MinYear, MaxYear)
	}
	return nil
}

// CompletedIn reports completion-window membership for year.
func (g Game) CompletedIn(year int) bool {
	return g.CompletionDate != nil && g.CompletionDate.Year() == year
}

// AcquiredIn reports acquisition-window membership for year.
func (g Game) AcquiredIn(year int) bool {
	return g.AcquisitionDate != nil && g.AcquisitionDate.Year() == year
}

func (o GameOverride) Validate() error {
	if o.CoverImage == nil {
		return fmt.Errorf("%w: nothing to override", ErrInvalidOverride)
	}
	raw := strings.TrimSpace(*o.CoverImage)
	if raw == "" {
		return fmt.Errorf("%w: empty cover image", ErrInvalidOverride)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: cover image must be an http(s) URL", ErrInvalidOverride)
	}
	return nil
}

func (i Import) Validate() error {
	if len(i.Records) == 0 {
		return ErrEmptyImport
	}
	if len(i.Years) == 0 {
		return fmt.Errorf("%w: no years requested", ErrInvalidYear)
	}
	for _, y := range i.Years {
		if err := ValidateYear(y); err != nil {
			return err
		}
	}
	if len(i.Name) > 200 {
		return errors.New("import name too long (max 200 characters)")
	}
	return nil
}
