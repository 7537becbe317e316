package core

import (
	"math"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const (
	topGamesLimit = 5
	dateLabel     = "Jan 02"
)

// Summarize computes the recap of records for year. Records that fall in
// neither the completion nor the acquisition window of year are dropped.
//
// Summarize never fails: malformed record fields fall back to their
// documented defaults and a year no record matches, including years outside
// the calendar range, yields the all-zero summary.
func Summarize(records []RawRecord, year int) Summary {
	completions := newCompletionReducer()
	var acquisitions acquisitionReducer
	games := make([]SummaryGame, 0)

	for i, rec := range records {
		g := Normalize(rec, i)
		completed := g.CompletedIn(year)
		acquired := g.AcquiredIn(year)
		if !completed && !acquired {
			continue
		}
		if completed {
			completions.add(g)
		}
		if acquired {
			acquisitions.add(g)
		}
		games = append(games, newSummaryGame(g, acquired))
	}

	s := Summary{Year: year, Games: games}
	completions.finish(&s)
	s.Acquisitions = acquisitions.finish()
	return s
}

// completionReducer folds completion-window games into the year totals.
type completionReducer struct {
	beaten     int
	completed  int
	minutes    int
	timedGames int

	platforms     map[string]*PlatformTotal
	platformOrder []string
	lengths       map[LengthGroup]*lengthAccumulator
	decades       map[int]int
	rated         []Game
}

type lengthAccumulator struct {
	games   int
	minutes int
}

func newCompletionReducer() *completionReducer {
	return &completionReducer{
		platforms: make(map[string]*PlatformTotal),
		lengths:   make(map[LengthGroup]*lengthAccumulator),
		decades:   make(map[int]int),
	}
}

func (r *completionReducer) add(g Game) {
	switch g.Completion {
	case CompletionBeaten:
		r.beaten++
	case CompletionCompleted:
		r.completed++
	}

	minutes := 0
	if g.PlayTime != nil {
		minutes = *g.PlayTime
		r.minutes += minutes
		r.timedGames++
	}

	if pt, ok := r.platforms[g.Platform]; ok {
		pt.Total++
	} else {
		r.platforms[g.Platform] = &PlatformTotal{
			Platform:             g.Platform,
			PlatformAbbreviation: g.PlatformAbbreviation,
			Total:                1,
		}
		r.platformOrder = append(r.platformOrder, g.Platform)
	}

	group := LengthGroupFor(g.PlayTime)
	acc, ok := r.lengths[group]
	if !ok {
		acc = &lengthAccumulator{}
		r.lengths[group] = acc
	}
	acc.games++
	acc.minutes += minutes

	r.decades[decadeOf(g.ReleaseYear)]++

	if g.Rating != nil {
		r.rated = append(r.rated, g)
	}
}

func (r *completionReducer) finish(s *Summary) {
	s.TotalGamesBeaten = r.beaten
	s.TotalGamesCompleted = r.completed
	s.TotalTimeSpent = r.minutes
	if r.timedGames > 0 {
		s.AverageTimeSpent = roundTo(float64(r.minutes)/float64(r.timedGames)/60, 1)
	}
	s.PlatformTotals = r.platformTotals()
	s.LengthGroupTotals = r.lengthGroupTotals()
	s.ReleaseDecadeTotals = r.releaseDecadeTotals()
	s.TopGames = r.topGames()
}

// platformTotals sorts by platform name with locale-aware collation. The
// collator is built per call because it is not safe for concurrent use.
func (r *completionReducer) platformTotals() []PlatformTotal {
	out := make([]PlatformTotal, 0, len(r.platformOrder))
	for _, name := range r.platformOrder {
		out = append(out, *r.platforms[name])
	}
	col := collate.New(language.Und)
	sort.SliceStable(out, func(i, j int) bool {
		return col.CompareString(out[i].Platform, out[j].Platform) < 0
	})
	return out
}

func (r *completionReducer) lengthGroupTotals() []LengthGroupTotal {
	out := make([]LengthGroupTotal, 0, len(r.lengths))
	for group, acc := range r.lengths {
		out = append(out, LengthGroupTotal{
			LengthGroup:    group,
			TotalGames:     acc.games,
			TotalTimeSpent: int(hoursFromMinutes(acc.minutes, 0)),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return lengthGroupOrder[out[i].LengthGroup] < lengthGroupOrder[out[j].LengthGroup]
	})
	return out
}

// releaseDecadeTotals returns every decade between the earliest and latest
// observed one, zero-filling the gaps.
func (r *completionReducer) releaseDecadeTotals() []ReleaseDecadeTotal {
	out := make([]ReleaseDecadeTotal, 0, len(r.decades))
	if len(r.decades) == 0 {
		return out
	}
	first, last := math.MaxInt, math.MinInt
	for d := range r.decades {
		first = min(first, d)
		last = max(last, d)
	}
	for d := first; d <= last; d += 10 {
		out = append(out, ReleaseDecadeTotal{Decade: d, Total: r.decades[d]})
	}
	return out
}

func (r *completionReducer) topGames() []string {
	rated := append([]Game(nil), r.rated...)
	sort.SliceStable(rated, func(i, j int) bool {
		if *rated[i].Rating != *rated[j].Rating {
			return *rated[i].Rating > *rated[j].Rating
		}
		return strings.ToLower(rated[i].Title) < strings.ToLower(rated[j].Title)
	})
	out := make([]string, 0, topGamesLimit)
	for i := 0; i < len(rated) && i < topGamesLimit; i++ {
		out = append(out, rated[i].ID)
	}
	return out
}

// acquisitionReducer folds acquisition-window games into the funnel.
type acquisitionReducer struct {
	summary AcquisitionSummary
}

func (r *acquisitionReducer) add(g Game) {
	a := &r.summary
	a.TotalAcquired++
	switch g.Completion {
	case CompletionBeaten:
		a.TotalBeaten++
		a.TotalFinished++
	case CompletionCompleted:
		a.TotalCompleted++
		a.TotalFinished++
	case CompletionDropped:
		a.TotalDropped++
		a.TotalFinished++
	case CompletionContinuous:
		a.TotalContinuous++
		a.TotalFinished++
	}
	if g.Status == StatusPlayed || g.Status == StatusPlaying {
		a.TotalPlayed++
	}
}

func (r *acquisitionReducer) finish() AcquisitionSummary {
	a := r.summary
	a.PercentPlayed = percentOf(a.TotalPlayed, a.TotalAcquired)
	a.PercentFinished = percentOf(a.TotalFinished, a.TotalAcquired)
	return a
}

func percentOf(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

// decadeOf maps a release year to its decade; unknown years map to 0.
func decadeOf(year *int) int {
	if year == nil || *year == 0 {
		return 0
	}
	y := *year
	d := y / 10
	if y < 0 && y%10 != 0 {
		d--
	}
	return d * 10
}

func newSummaryGame(g Game, acquiredThisYear bool) SummaryGame {
	sg := SummaryGame{
		ID:                   g.ID,
		Title:                g.Title,
		Platform:             g.Platform,
		PlatformAbbreviation: g.PlatformAbbreviation,
		Status:               g.Status,
		Completion:           g.Completion,
		ReleaseYear:          g.ReleaseYear,
		AcquiredThisYear:     acquiredThisYear,
		PlayTime:             g.PlayTime,
		PlayTimeHours:        PlayTimeInHours(g.PlayTime, 1),
		CoverImage:           g.CoverImage,
		Rating:               g.Rating,
	}
	if g.AcquisitionDate != nil {
		sg.AcquisitionDate = ptr(g.AcquisitionDate.Format(dateLabel))
		sg.AcquisitionMonth = ptr(g.AcquisitionDate.Month().String())
	}
	if g.CompletionDate != nil {
		sg.CompletionDate = ptr(g.CompletionDate.Format(dateLabel))
		sg.CompletionMonth = ptr(g.CompletionDate.Month().String())
	}
	return sg
}

func ptr[T any](v T) *T {
	return &v
}
