package schedule

import (
	"strings"
	"time"
)

// weekdayTokens maps German and English day tokens (full names and the usual
// two/three letter abbreviations) to their canonical weekday. Lookups are
// case-insensitive; callers must lowercase and trim before indexing.
var weekdayTokens = map[string]time.Weekday{
	"mo": time.Monday, "mon": time.Monday, "monday": time.Monday, "montag": time.Monday,
	"di": time.Tuesday, "tue": time.Tuesday, "tuesday": time.Tuesday, "dienstag": time.Tuesday,
	"mi": time.Wednesday, "wed": time.Wednesday, "wednesday": time.Wednesday, "mittwoch": time.Wednesday,
	"do": time.Thursday, "thu": time.Thursday, "thursday": time.Thursday, "donnerstag": time.Thursday,
	"fr": time.Friday, "fri": time.Friday, "friday": time.Friday, "freitag": time.Friday,
	"sa": time.Saturday, "sat": time.Saturday, "saturday": time.Saturday, "samstag": time.Saturday,
	"so": time.Sunday, "sun": time.Sunday, "sunday": time.Sunday, "sonntag": time.Sunday,
}

// ParseWeekday resolves a day token to a weekday. The second return value is
// false for unrecognized tokens.
func ParseWeekday(token string) (time.Weekday, bool) {
	d, ok := weekdayTokens[strings.ToLower(strings.TrimSpace(token))]
	return d, ok
}
