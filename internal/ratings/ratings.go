// Package ratings maps YouTube/yt-dlp content rating signals to normalized
// Plex/Kodi ratings and a numeric restrictiveness order.
//
// Every function here is pure and never returns an error: unknown or missing
// input degrades to the empty string (no rating) or zero (no order). Callers
// must treat "" as "no rating available", not as a failure.
package ratings

import (
	"fmt"
	"strings"

	"plextube/internal/models"
)

// NoRating is the explicit "not rated" marker accepted from channel defaults
// and manual overrides. It forces the effective rating to none, which is
// distinct from "no default set".
const NoRating = "NR"

// DefaultPriority is the rating source priority walked by MapFromEntry.
const DefaultPriority = "mpaa,tvpg,ytrating,age"

// Rating source labels for ratings that did not come from metadata.
const (
	SourceManualOverride = "Manual Override"
	SourceChannelDefault = "Channel Default"
)

// mpaaRatings maps lower-cased MPAA keys from yt-dlp to normalized ratings.
// Unrated maps to "" (present in the table but carries no rating).
var mpaaRatings = map[string]string{
	"mpaag":       "G",
	"mpaapg":      "PG",
	"mpaapg13":    "PG-13",
	"mpaar":       "R",
	"mpaanc17":    "NC-17",
	"mpaaunrated": "",
}

// tvpgRatings maps lower-cased TV Parental Guidance keys to normalized
// ratings. YouTube emits a bare "14" for TV-14 in some extractor paths.
var tvpgRatings = map[string]string{
	"tvpgy":       "TV-Y",
	"tvpgy7":      "TV-Y7",
	"tvpgg":       "TV-G",
	"tvpgpg":      "TV-PG",
	"14":          "TV-14",
	"tvpg14":      "TV-14",
	"tvpgma":      "TV-MA",
	"tvpgunrated": "",
}

// ageThresholds holds age-limit heuristics checked from highest to lowest.
var ageThresholds = []struct {
	minAge int
	rating string
}{
	{18, "R"},
	{16, "PG-13"},
	{13, "TV-14"},
	{7, "TV-PG"},
	{0, "TV-G"},
}

// numericOrder ranks normalized ratings 1 (mildest) to 4 (most restrictive).
var numericOrder = map[string]int{
	"G":     1,
	"TV-Y":  1,
	"TV-Y7": 1,
	"TV-G":  1,
	"PG":    2,
	"TV-PG": 2,
	"PG-13": 3,
	"TV-14": 3,
	"R":     4,
	"TV-MA": 4,
	"NC-17": 4,
}

// Result pairs a normalized rating with the diagnostic string describing
// where it came from.
type Result struct {
	NormalizedRating string
	Source           string
}

// Effective is the final rating decision for a video, including its numeric
// order for max-rating filtering.
type Effective struct {
	NormalizedRating string
	NumericRating    int
	RatingSource     string
}

// Normalize looks a raw rating key up in the MPAA and TVPG tables,
// case-insensitively. Unknown or empty keys return "".
func Normalize(key string) string {
	k := strings.ToLower(strings.TrimSpace(key))
	if k == "" {
		return ""
	}
	if v, ok := mpaaRatings[k]; ok {
		return v
	}
	if v, ok := tvpgRatings[k]; ok {
		return v
	}
	return ""
}

// MapAgeLimit maps a yt-dlp age_limit to a rating via threshold heuristics.
// nil returns "". Note that an explicit 0 maps to TV-G here; MapFromEntry
// deliberately treats a bare 0 as unrated before ever reaching this function.
func MapAgeLimit(ageLimit *int) string {
	if ageLimit == nil {
		return ""
	}
	for _, t := range ageThresholds {
		if *ageLimit >= t.minAge {
			return t.rating
		}
	}
	return ""
}

// MapFromEntry resolves a rating for a metadata entry by walking the
// priority list in order; the first source producing a non-empty rating
// wins. The "ytrating" step fires only for age-restricted markers and always
// yields R. The "age" step is skipped entirely when the age limit is absent
// or zero (a bare 0 is ambiguous and treated as unrated).
func MapFromEntry(contentRating *models.ContentRating, ageLimit *int, priority string) Result {
	if priority == "" {
		priority = DefaultPriority
	}

	if contentRating == nil && (ageLimit == nil || *ageLimit == 0) {
		return Result{}
	}

	for _, level := range strings.Split(strings.ToLower(priority), ",") {
		switch strings.TrimSpace(level) {
		case "mpaa":
			if contentRating == nil {
				continue
			}
			if key := contentRating.MPAA(); key != "" {
				if normalized := Normalize(key); normalized != "" {
					return Result{
						NormalizedRating: normalized,
						Source:           "youtube:" + key,
					}
				}
			}
		case "tvpg":
			if contentRating == nil {
				continue
			}
			if key := contentRating.TVPG(); key != "" {
				if normalized := Normalize(key); normalized != "" {
					return Result{
						NormalizedRating: normalized,
						Source:           "youtube:" + key,
					}
				}
			}
		case "ytrating":
			if contentRating == nil {
				continue
			}
			if key := contentRating.YT(); key != "" && strings.Contains(strings.ToLower(key), "agerestricted") {
				return Result{
					NormalizedRating: "R",
					Source:           "youtube:" + key,
				}
			}
		case "age":
			if ageLimit == nil || *ageLimit == 0 {
				continue
			}
			if normalized := MapAgeLimit(ageLimit); normalized != "" {
				return Result{
					NormalizedRating: normalized,
					Source:           fmt.Sprintf("yt-dlp:age_limit=%d", *ageLimit),
				}
			}
		}
	}

	return Result{}
}

// DetermineEffective picks the final rating for a video.
//
// Precedence: manual override > channel default > metadata-derived > none.
// Both the override and the channel default accept NoRating ("NR") as an
// explicit "not rated", which is distinct from the field being unset (nil).
func DetermineEffective(meta *models.VideoMetadata, channelDefault, manualOverride *string) Effective {
	if manualOverride != nil {
		rating := *manualOverride
		if rating == NoRating {
			rating = ""
		}
		return Effective{
			NormalizedRating: rating,
			NumericRating:    NumericOrder(rating),
			RatingSource:     SourceManualOverride,
		}
	}

	if channelDefault != nil && *channelDefault != "" {
		rating := *channelDefault
		if rating == NoRating {
			rating = ""
		}
		return Effective{
			NormalizedRating: rating,
			NumericRating:    NumericOrder(rating),
			RatingSource:     SourceChannelDefault,
		}
	}

	if meta != nil {
		derived := MapFromEntry(meta.ContentRating, meta.AgeLimit, DefaultPriority)
		if derived.NormalizedRating != "" {
			return Effective{
				NormalizedRating: derived.NormalizedRating,
				NumericRating:    NumericOrder(derived.NormalizedRating),
				RatingSource:     derived.Source,
			}
		}
	}

	return Effective{}
}

// NumericOrder maps a normalized rating to its restrictiveness rank (1-4).
// Empty, NoRating, and unknown values return 0. The ordering is total and
// monotonic with restrictiveness, suitable for "max content rating" filters.
func NumericOrder(rating string) int {
	return numericOrder[rating]
}
