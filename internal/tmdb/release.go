package tmdb

import "time"

// Annotations attached to a title based on its release date.
const (
	StatusUpcoming = "(UPCOMING)"
	StatusRecent   = "(RECENT)"
	StatusNotFound = "(Not found in database)"
)

// ReleaseStatus classifies a TMDB release date string relative to now.
// Strictly future dates are UPCOMING, dates within recentWindow of now are
// RECENT, everything else including unparseable or empty dates gets no
// annotation.
func ReleaseStatus(releaseDate string, now time.Time, recentWindow time.Duration) string {
	if releaseDate == "" {
		return ""
	}
	date, err := time.Parse("2006-01-02", releaseDate)
	if err != nil {
		return ""
	}
	if date.After(now) {
		return StatusUpcoming
	}
	if now.Sub(date) <= recentWindow {
		return StatusRecent
	}
	return ""
}
