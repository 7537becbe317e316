package services

import "recap/internal/core"

// ApplyOverrides returns a copy of s whose games carry the user's overrides.
// s itself is left untouched so cached summaries stay pristine.
func ApplyOverrides(s core.Summary, overrides map[string]core.GameOverride) core.Summary {
	out := s.Clone()
	if len(overrides) == 0 {
		return out
	}
	for i := range out.Games {
		o, ok := overrides[out.Games[i].ID]
		if !ok || o.CoverImage == nil {
			continue
		}
		cover := *o.CoverImage
		out.Games[i].CoverImage = &cover
	}
	return out
}
