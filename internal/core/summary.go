package core

// PlatformTotal counts completion-window games on one platform.
type PlatformTotal struct {
	Platform             string `json:"platform"`
	PlatformAbbreviation string `json:"platformAbbreviation"`
	Total                int    `json:"total"`
}

// LengthGroupTotal counts games in one length bucket. TotalTimeSpent is in
// whole hours.
type LengthGroupTotal struct {
	LengthGroup    LengthGroup `json:"lengthGroup"`
	TotalGames     int         `json:"totalGames"`
	TotalTimeSpent int         `json:"totalTimeSpent"`
}

// ReleaseDecadeTotal counts games released in one decade. Decade 0 also holds
// games without a release date.
type ReleaseDecadeTotal struct {
	Decade int `json:"decade"`
	Total  int `json:"total"`
}

// AcquisitionSummary is the acquired -> played -> finished funnel.
type AcquisitionSummary struct {
	TotalAcquired   int `json:"totalAcquired"`
	TotalPlayed     int `json:"totalPlayed"`
	TotalFinished   int `json:"totalFinished"` // Beaten, Completed, Dropped, Continuous
	TotalDropped    int `json:"totalDropped"`
	TotalBeaten     int `json:"totalBeaten"`
	TotalCompleted  int `json:"totalCompleted"`
	TotalContinuous int `json:"totalContinuous"`
	PercentPlayed   int `json:"percentPlayed"`
	PercentFinished int `json:"percentFinished"`
}

// SummaryGame is a Game that matched the year, with display annotations.
type SummaryGame struct {
	ID                   string   `json:"id"`
	Title                string   `json:"title"`
	Platform             string   `json:"platform"`
	PlatformAbbreviation string   `json:"platformAbbreviation"`
	Status               string   `json:"status"`
	Completion           string   `json:"completion"`
	ReleaseYear          *int     `json:"releaseYear"`
	AcquisitionDate      *string  `json:"acquisitionDate"`
	AcquisitionMonth     *string  `json:"acquisitionMonth"`
	AcquiredThisYear     bool     `json:"acquiredThisYear"`
	CompletionDate       *string  `json:"completionDate"`
	CompletionMonth      *string  `json:"completionMonth"`
	PlayTime             *int     `json:"playTime"`
	PlayTimeHours        *float64 `json:"playTimeHours"`
	CoverImage           *string  `json:"coverImage"`
	Rating               *float64 `json:"rating"`
}

// Summary is the single-year recap of a collection.
type Summary struct {
	Year                int                  `json:"year"`
	PlatformTotals      []PlatformTotal      `json:"platformTotals"`
	LengthGroupTotals   []LengthGroupTotal   `json:"lengthGroupTotals"`
	ReleaseDecadeTotals []ReleaseDecadeTotal `json:"releaseDecadeTotals"`
	TotalGamesBeaten    int                  `json:"totalGamesBeaten"`
	TotalGamesCompleted int                  `json:"totalGamesCompleted"`
	TotalTimeSpent      int                  `json:"totalTimeSpent"`   // minutes
	AverageTimeSpent    float64              `json:"averageTimeSpent"` // hours
	Acquisitions        AcquisitionSummary   `json:"acquisitions"`
	TopGames            []string             `json:"topGames"`
	Games               []SummaryGame        `json:"games"`
}

// Clone returns a deep copy: no slice or pointed-to value is shared with s.
func (s Summary) Clone() Summary {
	c := s
	c.PlatformTotals = append([]PlatformTotal{}, s.PlatformTotals...)
	c.LengthGroupTotals = append([]LengthGroupTotal{}, s.LengthGroupTotals...)
	c.ReleaseDecadeTotals = append([]ReleaseDecadeTotal{}, s.ReleaseDecadeTotals...)
	c.TopGames = append([]string{}, s.TopGames...)
	c.Games = make([]SummaryGame, len(s.Games))
	for i, g := range s.Games {
		c.Games[i] = g.Clone()
	}
	return c
}

// Clone returns a copy of g with its own pointed-to values.
func (g SummaryGame) Clone() SummaryGame {
	c := g
	c.ReleaseYear = clonePtr(g.ReleaseYear)
	c.AcquisitionDate = clonePtr(g.AcquisitionDate)
	c.AcquisitionMonth = clonePtr(g.AcquisitionMonth)
	c.CompletionDate = clonePtr(g.CompletionDate)
	c.CompletionMonth = clonePtr(g.CompletionMonth)
	c.PlayTime = clonePtr(g.PlayTime)
	c.PlayTimeHours = clonePtr(g.PlayTimeHours)
	c.CoverImage = clonePtr(g.CoverImage)
	c.Rating = clonePtr(g.Rating)
	return c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// CompletionWindowGames counts the games attributed to the completion window.
func (s Summary) CompletionWindowGames() int {
	n := 0
	for _, p := range s.PlatformTotals {
		n += p.Total
	}
	return n
}
