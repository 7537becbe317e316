package core

// LengthGroup classifies a game by minutes played.
type LengthGroup string

const (
	LengthUpToOneHour   LengthGroup = "≤1hr"
	LengthOneToFive     LengthGroup = "1-5hrs"
	LengthFiveToTen     LengthGroup = "5-10hrs"
	LengthTenToTwenty   LengthGroup = "10-20hrs"
	LengthTwentyToForty LengthGroup = "20-40hrs"
	LengthFortyToEighty LengthGroup = "40-80hrs"
	LengthEightyPlus    LengthGroup = "80+hrs"
	LengthUnknown       LengthGroup = "unknown"
)

// lengthThresholds are inclusive upper bounds in minutes, in canonical order.
var lengthThresholds = []struct {
	maxMinutes int
	group      LengthGroup
}{
	{1 * 60, LengthUpToOneHour},
	{5 * 60, LengthOneToFive},
	{10 * 60, LengthFiveToTen},
	{20 * 60, LengthTenToTwenty},
	{40 * 60, LengthTwentyToForty},
	{80 * 60, LengthFortyToEighty},
}

var lengthGroupOrder = map[LengthGroup]int{
	LengthUpToOneHour:   1,
	LengthOneToFive:     2,
	LengthFiveToTen:     3,
	LengthTenToTwenty:   4,
	LengthTwentyToForty: 5,
	LengthFortyToEighty: 6,
	LengthEightyPlus:    7,
	LengthUnknown:       8,
}

// LengthGroupFor returns the bucket for a playtime in minutes.
func LengthGroupFor(playTime *int) LengthGroup {
	if playTime == nil {
		return LengthUnknown
	}
	for _, t := range lengthThresholds {
		if *playTime <= t.maxMinutes {
			return t.group
		}
	}
	return LengthEightyPlus
}

// LengthGroups lists every bucket in canonical order.
func LengthGroups() []LengthGroup {
	out := make([]LengthGroup, 0, len(lengthGroupOrder))
	for _, t := range lengthThresholds {
		out = append(out, t.group)
	}
	return append(out, LengthEightyPlus, LengthUnknown)
}

var platformAbbreviations = map[string]string{
	"Windows PC":                          "PC",
	"Web Browser":                         "Web",
	"Nintendo Entertainment System":       "NES",
	"Family Computer":                     "Famicom",
	"Super Famicom":                       "SFC",
	"Super Nintendo Entertainment System": "SNES",
	"Nintendo 64":                         "N64",
	"Nintendo GameCube":                   "GC",
	"Nintendo Switch":                     "Switch",
	"Nintendo Switch 2":                   "Switch2",
	"Gameboy":                             "GB",
	"Gameboy Color":                       "GBC",
	"Gameboy Advance":                     "GBA",
	"Nintendo DS":                         "DS",
	"Nintendo 3DS":                        "3DS",
	"Sega Master System":                  "SMS",
	"Sega Genesis":                        "Genesis",
	"Sega Game Gear":                      "GG",
	"Sega CD":                             "SegaCD",
	"Sega 32X":                            "32X",
	"Sega Mega Drive":                     "MD",
	"Sega Saturn":                         "Saturn",
	"Sega Dreamcast":                      "DC",
	"PlayStation":                         "PS1",
	"PlayStation 2":                       "PS2",
	"PlayStation 3":                       "PS3",
	"PlayStation 4":                       "PS4",
	"PlayStation 5":                       "PS5",
	"Xbox":                                "XB",
	"Xbox 360":                            "360",
	"Xbox One":                            "XB1",
	"Xbox Series X|S":                     "XBS",
}

// PlatformAbbreviation looks up the display abbreviation for an exact platform
// name. Unknown platforms are returned unchanged.
func PlatformAbbreviation(platform string) string {
	if abbr, ok := platformAbbreviations[platform]; ok {
		return abbr
	}
	return platform
}
