// Package engine implements the medication schedule and acknowledgment core:
// classifying every scheduled dose of the current day as upcoming, due,
// overdue or acknowledged, and recording confirmations and snoozes.
package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"medreminder-backend/internal/model"
	"medreminder-backend/internal/schedule"
	"medreminder-backend/internal/snooze"
	"medreminder-backend/internal/store"
)

// Item is one classified dose instance.
type Item struct {
	Medication   string    `json:"medication"`
	DisplayText  string    `json:"display_text,omitempty"`
	Time         string    `json:"time"`
	Scheduled    time.Time `json:"scheduled"`
	MinutesLate  int       `json:"minutes_late,omitempty"`
	MinutesUntil int       `json:"minutes_until,omitempty"`
	Snoozed      bool      `json:"snoozed,omitempty"`
}

// Report is the partitioned status of all of today's dose instances.
// Acknowledged doses appear in none of the lists.
type Report struct {
	Overdue   []Item            `json:"overdue"`
	Due       []Item            `json:"due"`
	Upcoming  []Item            `json:"upcoming"`
	Timestamp time.Time         `json:"timestamp"`
	Settings  schedule.Settings `json:"settings"`
	// Degraded is set when the intake log was unreachable and acknowledgments
	// could not be checked (doses are then reported as not yet confirmed).
	Degraded bool `json:"degraded,omitempty"`
}

// ConfirmResult reports the outcome of a confirmation. Duplicate is a normal
// result, not an error: confirmation is idempotent per calendar day.
type ConfirmResult struct {
	Medication    string    `json:"medication"`
	ScheduledTime string    `json:"scheduled_time"`
	TakenAt       time.Time `json:"taken_at"`
	Duplicate     bool      `json:"duplicate,omitempty"`
}

// Engine wires the schedule provider, the durable intake log and the volatile
// snooze layer together. All methods re-read the schedule document, so
// operator edits take effect on the next request.
type Engine struct {
	provider schedule.Provider
	store    store.Store
	snoozes  *snooze.Store
	log      *zap.SugaredLogger
}

// New creates an engine.
func New(provider schedule.Provider, s store.Store, snoozes *snooze.Store, log *zap.SugaredLogger) *Engine {
	return &Engine{provider: provider, store: s, snoozes: snoozes, log: log}
}

// Status classifies every dose instance scheduled for today at now. The
// computation is pure given the schedule document, the intake log, the snooze
// layer and now; nothing is cached. With degraded set, an unreachable intake
// log yields a report that treats every dose as unconfirmed instead of an
// error.
func (e *Engine) Status(ctx context.Context, now time.Time, degraded bool) (*Report, error) {
	doc, err := e.provider.Load()
	if err != nil {
		return nil, err
	}

	loc := doc.Location()
	localNow := now.In(loc)
	today := localNow.Format("2006-01-02")
	window := time.Duration(doc.Settings.ReminderWindow) * time.Minute

	report := &Report{
		Overdue:   []Item{},
		Due:       []Item{},
		Upcoming:  []Item{},
		Timestamp: now,
		Settings:  doc.Settings,
	}

	taken, err := e.store.TakenOn(ctx, today)
	if err != nil {
		if !degraded {
			return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
		e.log.Warnw("intake log unavailable, serving degraded status", "error", err)
		taken = map[store.IntakeKey]struct{}{}
		report.Degraded = true
	}

	for i := range doc.Medications {
		med := &doc.Medications[i]
		if !med.Enabled || !med.ScheduledOn(localNow) {
			continue
		}
		for _, clock := range med.Times {
			if _, ack := taken[store.IntakeKey{Medication: med.Name, ScheduledTime: clock}]; ack {
				continue
			}

			item := Item{
				Medication:  med.Name,
				DisplayText: med.DisplayText,
				Time:        clock,
			}

			// A live snooze keeps the dose visible but not actionable: it is
			// shown as upcoming with the suppress-until instant as its time.
			if until, ok := e.snoozes.ActiveUntil(med.Name, clock, now); ok {
				item.Scheduled = until
				item.MinutesUntil = int(until.Sub(now).Minutes())
				item.Snoozed = true
				report.Upcoming = append(report.Upcoming, item)
				continue
			}

			scheduled := schedule.At(localNow, clock, loc)
			item.Scheduled = scheduled
			delta := now.Sub(scheduled)
			deltaMinutes := int(delta.Minutes())

			switch {
			case delta < -window:
				item.MinutesUntil = -deltaMinutes
				report.Upcoming = append(report.Upcoming, item)
			case delta <= window:
				if deltaMinutes > 0 {
					item.MinutesLate = deltaMinutes
				}
				report.Due = append(report.Due, item)
			default:
				item.MinutesLate = deltaMinutes
				report.Overdue = append(report.Overdue, item)
			}
		}
	}

	sortItems(report.Overdue)
	sortItems(report.Due)
	sortItems(report.Upcoming)
	return report, nil
}

// sortItems orders by scheduled time, then medication name for ties, so the
// output is deterministic.
func sortItems(items []Item) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].Scheduled.Equal(items[j].Scheduled) {
			return items[i].Scheduled.Before(items[j].Scheduled)
		}
		return items[i].Medication < items[j].Medication
	})
}

// Confirm records a dose intake at the given instant. A second confirmation
// for the same (medication, time, day) returns Duplicate instead of failing,
// so retried clients are not penalized. Under concurrent confirms exactly one
// caller observes a non-duplicate result; the uniqueness constraint in the
// store serializes the check-then-insert.
func (e *Engine) Confirm(ctx context.Context, medication, clock string, at time.Time) (*ConfirmResult, error) {
	doc, err := e.provider.Load()
	if err != nil {
		return nil, err
	}
	med, norm, err := validateDose(doc, medication, clock)
	if err != nil {
		return nil, err
	}

	rec := &model.IntakeRecord{
		Medication:    med.Name,
		ScheduledTime: norm,
		IntakeDate:    at.In(doc.Location()).Format("2006-01-02"),
		TakenAt:       at,
	}
	created, err := e.store.CreateIntake(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return &ConfirmResult{
		Medication:    med.Name,
		ScheduledTime: norm,
		TakenAt:       at,
		Duplicate:     !created,
	}, nil
}

// Snooze suppresses reminders for a dose until at+duration. Snoozing is
// always accepted and overwrites any prior entry; repeatedly snoozing keeps
// pushing the window forward. The intake log is not touched.
func (e *Engine) Snooze(medication, clock string, at time.Time, duration time.Duration) (time.Time, error) {
	doc, err := e.provider.Load()
	if err != nil {
		return time.Time{}, err
	}
	med, norm, err := validateDose(doc, medication, clock)
	if err != nil {
		return time.Time{}, err
	}
	if duration <= 0 {
		duration = snooze.DefaultDuration
	}
	until := at.Add(duration)
	e.snoozes.Set(med.Name, norm, until, at)
	return until, nil
}

// History returns intake records of the last days days, most recent first.
// days is clamped to [1, 365]; 0 means the default of 7.
func (e *Engine) History(ctx context.Context, now time.Time, days int) ([]model.IntakeRecord, error) {
	if days <= 0 {
		days = 7
	}
	if days > 365 {
		days = 365
	}
	records, err := e.store.History(ctx, now.AddDate(0, 0, -days))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return records, nil
}

// validateDose checks a confirm/snooze input against the configured rule set
// before any durable state is touched.
func validateDose(doc *schedule.Document, medication, clock string) (*schedule.MedicationRule, string, error) {
	if medication == "" {
		return nil, "", &ValidationError{Field: "medication", Reason: "required"}
	}
	if len(medication) > schedule.MaxNameLength {
		return nil, "", &ValidationError{Field: "medication", Reason: "name too long"}
	}
	med, ok := doc.Rule(medication)
	if !ok {
		return nil, "", &ValidationError{Field: "medication", Reason: fmt.Sprintf("unknown medication %q", medication)}
	}
	norm, err := schedule.NormalizeClock(clock)
	if err != nil {
		return nil, "", &ValidationError{Field: "time", Reason: err.Error()}
	}
	if !med.HasTime(norm) {
		return nil, "", &ValidationError{Field: "time", Reason: fmt.Sprintf("%s is not a scheduled time for %q", norm, med.Name)}
	}
	return med, norm, nil
}
