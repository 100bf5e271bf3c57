// Package validation handles validation of user-supplied channel settings.
//
// Validators are pure and never return Go errors: they report failures as
// displayable strings that flow to end users verbatim, so the texts are part
// of the API contract.
package validation

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"plextube/internal/domain/consts"
	"plextube/internal/ratings"
)

// Result reports a validation outcome. Err is a user-displayable message and
// is empty when Valid is true.
type Result struct {
	Valid bool
	Err   string
}

func ok() Result { return Result{Valid: true} }

func fail(msg string) Result { return Result{Err: msg} }

var subfolderPattern = regexp.MustCompile(`^[a-zA-Z0-9\s\-_]+$`)

// SubfolderName validates a literal subfolder name. Empty input is valid
// (meaning "no subfolder"); sentinels are handled before validation and
// never reach here.
func SubfolderName(subFolder string) Result {
	trimmed := strings.TrimSpace(subFolder)
	if trimmed == "" {
		return ok()
	}

	if len(trimmed) > consts.MaxSubfolderNameLen {
		return fail("Subfolder name must be 100 characters or less")
	}

	if !subfolderPattern.MatchString(trimmed) {
		return fail("Subfolder name can only contain letters, numbers, spaces, hyphens, and underscores")
	}

	// Path traversal: the character class above already excludes
	// separators, but keep the explicit check as a second line.
	if strings.Contains(trimmed, "..") || strings.ContainsAny(trimmed, `/\`) {
		return fail("Invalid subfolder name")
	}

	if strings.HasPrefix(trimmed, consts.SubfolderPrefix) {
		return fail("Subfolder names cannot start with __ (reserved prefix)")
	}

	return ok()
}

// VideoQuality validates a per-channel quality override. Empty means
// "inherit the global setting" and is valid. Quality arrives as a wire
// string ("1080"), so it is parsed before the lookup.
func VideoQuality(quality string) Result {
	if quality == "" {
		return ok()
	}
	height, err := strconv.Atoi(quality)
	if err != nil || !slices.Contains(consts.ValidVideoQualities, height) {
		return fail("Invalid video quality. Valid values: 360, 480, 720, 1080, 1440, 2160, or null for global setting")
	}
	return ok()
}

// DurationSeconds validates a min/max duration bound in seconds.
func DurationSeconds(seconds int) Result {
	if seconds < 0 {
		return fail("Duration must be zero or a positive number of seconds")
	}
	return ok()
}

// DurationRange validates that a min/max pair is coherent. Zero values mean
// "no bound".
func DurationRange(minSeconds, maxSeconds int) Result {
	if r := DurationSeconds(minSeconds); !r.Valid {
		return r
	}
	if r := DurationSeconds(maxSeconds); !r.Valid {
		return r
	}
	if minSeconds > 0 && maxSeconds > 0 && minSeconds > maxSeconds {
		return fail("Minimum duration cannot exceed maximum duration")
	}
	return ok()
}

// TitleFilterRegex validates a per-channel title filter. Empty is valid.
func TitleFilterRegex(expr string) Result {
	if expr == "" {
		return ok()
	}
	if len(expr) > 255 {
		return fail("Title filter must be 255 characters or less")
	}
	if _, err := regexp.Compile(expr); err != nil {
		return fail("Title filter must be a valid regular expression")
	}
	return ok()
}

// DefaultRating validates a channel default rating. Empty means "no default";
// "NR" is the explicit not-rated marker.
func DefaultRating(rating string) Result {
	if rating == "" || rating == ratings.NoRating {
		return ok()
	}
	if ratings.NumericOrder(rating) == 0 {
		return fail("Invalid default rating. Valid values: G, PG, PG-13, R, NC-17, TV-Y, TV-Y7, TV-G, TV-PG, TV-14, TV-MA, or NR")
	}
	return ok()
}
