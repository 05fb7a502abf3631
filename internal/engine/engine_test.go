package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"medreminder-backend/internal/model"
	"medreminder-backend/internal/schedule"
	"medreminder-backend/internal/snooze"
	"medreminder-backend/internal/store"
)

// fakeProvider serves a fixed schedule document.
type fakeProvider struct {
	doc *schedule.Document
	err error
}

func (p *fakeProvider) Load() (*schedule.Document, error) { return p.doc, p.err }
func (p *fakeProvider) Save(*schedule.Document) error     { return nil }

// fakeStore is an in-memory intake log with insert-once semantics.
type fakeStore struct {
	records []model.IntakeRecord
	fail    bool
}

func (s *fakeStore) CreateIntake(_ context.Context, rec *model.IntakeRecord) (bool, error) {
	if s.fail {
		return false, errors.New("db down")
	}
	for _, r := range s.records {
		if r.Medication == rec.Medication && r.ScheduledTime == rec.ScheduledTime && r.IntakeDate == rec.IntakeDate {
			return false, nil
		}
	}
	s.records = append(s.records, *rec)
	return true, nil
}

func (s *fakeStore) TakenOn(_ context.Context, date string) (map[store.IntakeKey]struct{}, error) {
	if s.fail {
		return nil, errors.New("db down")
	}
	taken := make(map[store.IntakeKey]struct{})
	for _, r := range s.records {
		if r.IntakeDate == date {
			taken[store.IntakeKey{Medication: r.Medication, ScheduledTime: r.ScheduledTime}] = struct{}{}
		}
	}
	return taken, nil
}

func (s *fakeStore) History(_ context.Context, since time.Time) ([]model.IntakeRecord, error) {
	if s.fail {
		return nil, errors.New("db down")
	}
	var out []model.IntakeRecord
	for i := len(s.records) - 1; i >= 0; i-- {
		if !s.records[i].TakenAt.Before(since) {
			out = append(out, s.records[i])
		}
	}
	return out, nil
}

func (s *fakeStore) Subscriptions(context.Context) ([]model.PushSubscription, error) { return nil, nil }
func (s *fakeStore) GetSubscription(context.Context, string) (*model.PushSubscription, error) {
	return nil, nil
}
func (s *fakeStore) UpsertSubscription(context.Context, *model.PushSubscription) error { return nil }
func (s *fakeStore) DeleteSubscription(context.Context, string) error                  { return nil }

func testDocument(t *testing.T, window int, meds ...schedule.MedicationRule) *schedule.Document {
	t.Helper()
	doc := &schedule.Document{
		Medications: meds,
		Settings:    schedule.Settings{ReminderWindow: window, Timezone: "Europe/Berlin"},
	}
	require.NoError(t, doc.Validate())
	return doc
}

func newTestEngine(t *testing.T, doc *schedule.Document) (*Engine, *fakeStore) {
	t.Helper()
	fs := &fakeStore{}
	e := New(&fakeProvider{doc: doc}, fs, snooze.NewStore(), zap.NewNop().Sugar())
	return e, fs
}

// berlin returns an instant on Monday 2025-03-10 in the configured zone.
func berlin(t *testing.T, hh, mm int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	return time.Date(2025, 3, 10, hh, mm, 0, 0, loc)
}

func TestStatusWindowBoundaries(t *testing.T) {
	doc := testDocument(t, 15, schedule.MedicationRule{Name: "Iron", Times: []string{"08:00"}, Enabled: true})
	e, _ := newTestEngine(t, doc)

	testCases := []struct {
		now          time.Time
		wantList     string
		wantLate     int
		wantUntil    int
	}{
		{berlin(t, 7, 44), "upcoming", 0, 16},
		{berlin(t, 7, 45), "due", 0, 0},
		{berlin(t, 8, 0), "due", 0, 0},
		{berlin(t, 8, 14), "due", 14, 0},
		{berlin(t, 8, 15), "due", 15, 0},
		{berlin(t, 8, 16), "overdue", 16, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.now.Format("15:04"), func(t *testing.T) {
			report, err := e.Status(context.Background(), tc.now, false)
			require.NoError(t, err)

			// Every un-acknowledged, non-snoozed dose lands in exactly one list.
			total := len(report.Overdue) + len(report.Due) + len(report.Upcoming)
			require.Equal(t, 1, total)

			switch tc.wantList {
			case "upcoming":
				require.Len(t, report.Upcoming, 1)
				assert.Equal(t, tc.wantUntil, report.Upcoming[0].MinutesUntil)
			case "due":
				require.Len(t, report.Due, 1)
				assert.Equal(t, tc.wantLate, report.Due[0].MinutesLate)
			case "overdue":
				require.Len(t, report.Overdue, 1)
				assert.Equal(t, tc.wantLate, report.Overdue[0].MinutesLate)
			}
		})
	}
}

func TestStatusSkipsDisabledAndOffDayRules(t *testing.T) {
	doc := testDocument(t, 30,
		schedule.MedicationRule{Name: "WeekdayOnly", Times: []string{"08:00", "20:00"}, Days: []string{"Mon", "Wed"}, Enabled: true},
		schedule.MedicationRule{Name: "Disabled", Times: []string{"08:00"}, Enabled: false},
	)
	e, _ := newTestEngine(t, doc)

	// Monday: both configured times appear.
	report, err := e.Status(context.Background(), berlin(t, 12, 0), false)
	require.NoError(t, err)
	total := len(report.Overdue) + len(report.Due) + len(report.Upcoming)
	assert.Equal(t, 2, total)

	// Tuesday: nothing is scheduled.
	report, err = e.Status(context.Background(), berlin(t, 12, 0).AddDate(0, 0, 1), false)
	require.NoError(t, err)
	total = len(report.Overdue) + len(report.Due) + len(report.Upcoming)
	assert.Equal(t, 0, total)
}

func TestStatusOrdering(t *testing.T) {
	doc := testDocument(t, 600,
		schedule.MedicationRule{Name: "Zinc", Times: []string{"09:00"}, Enabled: true},
		schedule.MedicationRule{Name: "Iron", Times: []string{"09:00"}, Enabled: true},
		schedule.MedicationRule{Name: "VitD", Times: []string{"08:00"}, Enabled: true},
	)
	e, _ := newTestEngine(t, doc)

	report, err := e.Status(context.Background(), berlin(t, 10, 0), false)
	require.NoError(t, err)
	require.Len(t, report.Due, 3)

	// Ascending scheduled time, medication name on ties.
	assert.Equal(t, "VitD", report.Due[0].Medication)
	assert.Equal(t, "Iron", report.Due[1].Medication)
	assert.Equal(t, "Zinc", report.Due[2].Medication)
}

func TestConfirmIdempotent(t *testing.T) {
	doc := testDocument(t, 30, schedule.MedicationRule{Name: "VitD", Times: []string{"12:00"}, Enabled: true})
	e, _ := newTestEngine(t, doc)
	ctx := context.Background()

	res, err := e.Confirm(ctx, "VitD", "12:00", berlin(t, 12, 5))
	require.NoError(t, err)
	assert.False(t, res.Duplicate)

	res, err = e.Confirm(ctx, "VitD", "12:00", berlin(t, 12, 6))
	require.NoError(t, err)
	assert.True(t, res.Duplicate)

	res, err = e.Confirm(ctx, "VitD", "12:00", berlin(t, 12, 7))
	require.NoError(t, err)
	assert.True(t, res.Duplicate)
}

func TestConfirmedDoseLeavesStatus(t *testing.T) {
	doc := testDocument(t, 30, schedule.MedicationRule{Name: "VitD", Times: []string{"12:00"}, Enabled: true})
	e, _ := newTestEngine(t, doc)
	ctx := context.Background()

	report, err := e.Status(ctx, berlin(t, 12, 5), false)
	require.NoError(t, err)
	require.Len(t, report.Due, 1)
	assert.Equal(t, 5, report.Due[0].MinutesLate)

	_, err = e.Confirm(ctx, "VitD", "12:00", berlin(t, 12, 5))
	require.NoError(t, err)

	report, err = e.Status(ctx, berlin(t, 12, 10), false)
	require.NoError(t, err)
	assert.Empty(t, report.Overdue)
	assert.Empty(t, report.Due)
	assert.Empty(t, report.Upcoming)
}

func TestSnoozeRedirectsToUpcoming(t *testing.T) {
	doc := testDocument(t, 30, schedule.MedicationRule{Name: "Statin", Times: []string{"20:00"}, Enabled: true})
	e, _ := newTestEngine(t, doc)
	ctx := context.Background()

	until, err := e.Snooze("Statin", "20:00", berlin(t, 19, 58), 0)
	require.NoError(t, err)
	assert.Equal(t, berlin(t, 20, 3), until)

	// At 20:01 the dose would be due, but the live snooze keeps it visible as
	// upcoming with the suppress-until instant as its time.
	report, err := e.Status(ctx, berlin(t, 20, 1), false)
	require.NoError(t, err)
	assert.Empty(t, report.Due)
	assert.Empty(t, report.Overdue)
	require.Len(t, report.Upcoming, 1)
	assert.True(t, report.Upcoming[0].Snoozed)
	assert.Equal(t, berlin(t, 20, 3), report.Upcoming[0].Scheduled)

	// Once the snooze expires, the dose is due again.
	report, err = e.Status(ctx, berlin(t, 20, 4), false)
	require.NoError(t, err)
	require.Len(t, report.Due, 1)
	assert.Empty(t, report.Upcoming)
}

func TestSnoozeOverwrites(t *testing.T) {
	doc := testDocument(t, 30, schedule.MedicationRule{Name: "Statin", Times: []string{"20:00"}, Enabled: true})
	e, _ := newTestEngine(t, doc)

	first, err := e.Snooze("Statin", "20:00", berlin(t, 19, 58), 0)
	require.NoError(t, err)
	second, err := e.Snooze("Statin", "20:00", berlin(t, 20, 1), 0)
	require.NoError(t, err)
	assert.True(t, second.After(first))

	report, err := e.Status(context.Background(), berlin(t, 20, 4), false)
	require.NoError(t, err)
	require.Len(t, report.Upcoming, 1)
	assert.Equal(t, second, report.Upcoming[0].Scheduled)
}

func TestValidation(t *testing.T) {
	doc := testDocument(t, 30, schedule.MedicationRule{Name: "VitD", Times: []string{"12:00"}, Enabled: true})
	e, _ := newTestEngine(t, doc)
	ctx := context.Background()

	testCases := []struct {
		name       string
		medication string
		clock      string
		wantField  string
	}{
		{"unknown medication", "Aspirin", "12:00", "medication"},
		{"empty medication", "", "12:00", "medication"},
		{"malformed time", "VitD", "noon", "time"},
		{"unknown time", "VitD", "13:00", "time"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.Confirm(ctx, tc.medication, tc.clock, berlin(t, 12, 0))
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tc.wantField, vErr.Field)

			_, err = e.Snooze(tc.medication, tc.clock, berlin(t, 12, 0), 0)
			require.ErrorAs(t, err, &vErr)
		})
	}
}

func TestConfirmAcceptsUnpaddedTime(t *testing.T) {
	doc := testDocument(t, 30, schedule.MedicationRule{Name: "Iron", Times: []string{"08:00"}, Enabled: true})
	e, _ := newTestEngine(t, doc)

	res, err := e.Confirm(context.Background(), "Iron", "8:00", berlin(t, 8, 0))
	require.NoError(t, err)
	assert.Equal(t, "08:00", res.ScheduledTime)
}

func TestStatusDegradedMode(t *testing.T) {
	doc := testDocument(t, 30, schedule.MedicationRule{Name: "VitD", Times: []string{"12:00"}, Enabled: true})
	e, fs := newTestEngine(t, doc)
	fs.fail = true
	ctx := context.Background()

	// Without the opt-in, a storage outage fails the call.
	_, err := e.Status(ctx, berlin(t, 12, 5), false)
	require.ErrorIs(t, err, ErrStorageUnavailable)

	// With it, doses are reported as not yet confirmed.
	report, err := e.Status(ctx, berlin(t, 12, 5), true)
	require.NoError(t, err)
	assert.True(t, report.Degraded)
	require.Len(t, report.Due, 1)
}

func TestConfirmFailsOnStorageOutage(t *testing.T) {
	doc := testDocument(t, 30, schedule.MedicationRule{Name: "VitD", Times: []string{"12:00"}, Enabled: true})
	e, fs := newTestEngine(t, doc)
	fs.fail = true

	_, err := e.Confirm(context.Background(), "VitD", "12:00", berlin(t, 12, 5))
	require.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestStatusPropagatesConfigError(t *testing.T) {
	fs := &fakeStore{}
	provider := &fakeProvider{err: &schedule.ConfigError{Field: "document", Reason: "broken"}}
	e := New(provider, fs, snooze.NewStore(), zap.NewNop().Sugar())

	_, err := e.Status(context.Background(), berlin(t, 12, 0), false)
	var cErr *schedule.ConfigError
	require.ErrorAs(t, err, &cErr)
}

func TestHistoryRange(t *testing.T) {
	doc := testDocument(t, 30, schedule.MedicationRule{Name: "VitD", Times: []string{"12:00"}, Enabled: true})
	e, fs := newTestEngine(t, doc)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		fs.records = append(fs.records, model.IntakeRecord{
			Medication:    "VitD",
			ScheduledTime: "12:00",
			IntakeDate:    fmt.Sprintf("2025-03-%02d", 7+i),
			TakenAt:       berlin(t, 12, 0).AddDate(0, 0, -(2 - i)),
		})
	}

	records, err := e.History(ctx, berlin(t, 13, 0), 2)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Most recent first.
	assert.True(t, !records[0].TakenAt.Before(records[1].TakenAt))
}
