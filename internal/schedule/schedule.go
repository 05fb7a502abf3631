package schedule

import (
	"fmt"
	"regexp"
	"time"
)

const (
	// MaxNameLength is the upper bound for a medication name. Names double as
	// the intake log key, so they are kept short.
	MaxNameLength = 100

	defaultReminderWindow = 30
	defaultTimezone       = "Europe/Berlin"
)

var clockRe = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):([0-5][0-9])$`)

// ConfigError reports a schedule document that failed validation. Field names
// the offending entry so the operator can fix the document.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid schedule configuration: %s: %s", e.Field, e.Reason)
}

// MedicationRule is one configured medication with its recurrence and times.
type MedicationRule struct {
	Name        string   `yaml:"name" json:"name"`
	DisplayText string   `yaml:"display_text,omitempty" json:"display_text,omitempty"`
	Times       []string `yaml:"times" json:"times"`
	Days        []string `yaml:"days,omitempty" json:"days,omitempty"`
	Enabled     bool     `yaml:"enabled" json:"enabled"`

	weekdays map[time.Weekday]bool
}

// ScheduledOn reports whether the rule produces dose instances on the given
// local date. An empty day set means every day.
func (r *MedicationRule) ScheduledOn(date time.Time) bool {
	if len(r.weekdays) == 0 {
		return true
	}
	return r.weekdays[date.Weekday()]
}

// HasTime reports whether the (normalized) clock value is one of the rule's
// configured times.
func (r *MedicationRule) HasTime(clock string) bool {
	for _, t := range r.Times {
		if t == clock {
			return true
		}
	}
	return false
}

// Settings holds the engine-wide tuning knobs from the schedule document.
type Settings struct {
	ReminderWindow int    `yaml:"reminder_window" json:"reminder_window"`
	Timezone       string `yaml:"timezone" json:"timezone"`
}

// AuthSettings lists the e-mail addresses allowed to log in.
type AuthSettings struct {
	AllowedEmails []string `yaml:"allowed_emails,omitempty" json:"allowed_emails,omitempty"`
}

// Document is the parsed schedule configuration (reminder.yaml).
type Document struct {
	Medications []MedicationRule `yaml:"medications" json:"medications"`
	Settings    Settings         `yaml:"settings" json:"settings"`
	Auth        AuthSettings     `yaml:"auth,omitempty" json:"auth,omitempty"`

	loc *time.Location
}

// Location returns the timezone resolved during validation.
func (d *Document) Location() *time.Location {
	if d.loc == nil {
		return time.UTC
	}
	return d.loc
}

// Rule looks up a medication rule by name.
func (d *Document) Rule(name string) (*MedicationRule, bool) {
	for i := range d.Medications {
		if d.Medications[i].Name == name {
			return &d.Medications[i], true
		}
	}
	return nil, false
}

// NormalizeClock validates an HH:MM value and returns it zero-padded, so that
// "8:00" and "08:00" identify the same dose instance.
func NormalizeClock(s string) (string, error) {
	m := clockRe.FindStringSubmatch(s)
	if m == nil {
		return "", fmt.Errorf("invalid time %q (use HH:MM)", s)
	}
	if len(m[1]) == 1 {
		return "0" + m[1] + ":" + m[2], nil
	}
	return m[1] + ":" + m[2], nil
}

// At combines a local date with an HH:MM value into an instant in the given
// location. The clock value must have been validated beforehand.
func At(date time.Time, clock string, loc *time.Location) time.Time {
	var h, m int
	fmt.Sscanf(clock, "%d:%d", &h, &m)
	return time.Date(date.Year(), date.Month(), date.Day(), h, m, 0, 0, loc)
}

// Validate checks the whole document, applies setting defaults, normalizes
// times and resolves weekday tokens. Invalid rules are rejected here, never
// silently dropped during status computation.
func (d *Document) Validate() error {
	if d.Settings.ReminderWindow == 0 {
		d.Settings.ReminderWindow = defaultReminderWindow
	}
	if d.Settings.ReminderWindow < 0 {
		return &ConfigError{Field: "settings.reminder_window", Reason: "must be positive"}
	}
	if d.Settings.Timezone == "" {
		d.Settings.Timezone = defaultTimezone
	}
	loc, err := time.LoadLocation(d.Settings.Timezone)
	if err != nil {
		return &ConfigError{Field: "settings.timezone", Reason: fmt.Sprintf("unknown IANA zone %q", d.Settings.Timezone)}
	}
	d.loc = loc

	seenNames := make(map[string]bool, len(d.Medications))
	for i := range d.Medications {
		med := &d.Medications[i]
		field := fmt.Sprintf("medications[%d]", i)

		if med.Name == "" {
			return &ConfigError{Field: field + ".name", Reason: "required"}
		}
		if len(med.Name) > MaxNameLength {
			return &ConfigError{Field: field + ".name", Reason: fmt.Sprintf("longer than %d characters", MaxNameLength)}
		}
		if seenNames[med.Name] {
			return &ConfigError{Field: field + ".name", Reason: fmt.Sprintf("duplicate name %q", med.Name)}
		}
		seenNames[med.Name] = true

		if med.Enabled && len(med.Times) == 0 {
			return &ConfigError{Field: field + ".times", Reason: "enabled medication needs at least one time"}
		}
		seenTimes := make(map[string]bool, len(med.Times))
		for j, t := range med.Times {
			norm, err := NormalizeClock(t)
			if err != nil {
				return &ConfigError{Field: fmt.Sprintf("%s.times[%d]", field, j), Reason: err.Error()}
			}
			if seenTimes[norm] {
				return &ConfigError{Field: fmt.Sprintf("%s.times[%d]", field, j), Reason: fmt.Sprintf("duplicate time %q", norm)}
			}
			seenTimes[norm] = true
			med.Times[j] = norm
		}

		if len(med.Days) > 0 {
			med.weekdays = make(map[time.Weekday]bool, len(med.Days))
			for j, tok := range med.Days {
				day, ok := ParseWeekday(tok)
				if !ok {
					return &ConfigError{Field: fmt.Sprintf("%s.days[%d]", field, j), Reason: fmt.Sprintf("unknown weekday token %q", tok)}
				}
				med.weekdays[day] = true
			}
		}
	}
	return nil
}
