package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"medreminder-backend/internal/model"
)

// IntakeKey identifies one dose instance within a single day.
type IntakeKey struct {
	Medication    string
	ScheduledTime string
}

// Store defines the interface for all database operations.
type Store interface {
	// CreateIntake inserts a confirmation record unless one already exists
	// for the same (medication, time, date). It reports whether a row was
	// created; false means the dose was already acknowledged.
	CreateIntake(ctx context.Context, rec *model.IntakeRecord) (created bool, err error)
	// TakenOn returns the set of acknowledged dose instances for a date
	// (YYYY-MM-DD) in a single query.
	TakenOn(ctx context.Context, date string) (map[IntakeKey]struct{}, error)
	// History returns intake records created at or after since, most recent
	// first.
	History(ctx context.Context, since time.Time) ([]model.IntakeRecord, error)

	Subscriptions(ctx context.Context) ([]model.PushSubscription, error)
	GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error)
	UpsertSubscription(ctx context.Context, sub *model.PushSubscription) error
	DeleteSubscription(ctx context.Context, endpoint string) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// CreateIntake relies on the unique index over (medication, scheduled_time,
// intake_date): the conflict clause turns a duplicate confirmation into a
// no-op in the same statement, so concurrent confirms for one dose resolve to
// exactly one created row without an explicit transaction.
func (s *gormStore) CreateIntake(ctx context.Context, rec *model.IntakeRecord) (bool, error) {
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "medication"}, {Name: "scheduled_time"}, {Name: "intake_date"},
		},
		DoNothing: true,
	}).Create(rec)
	if res.Error != nil {
		return false, fmt.Errorf("insert intake record: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *gormStore) TakenOn(ctx context.Context, date string) (map[IntakeKey]struct{}, error) {
	var records []model.IntakeRecord
	if err := s.db.WithContext(ctx).
		Where("intake_date = ?", date).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("fetch intake records for %s: %w", date, err)
	}

	taken := make(map[IntakeKey]struct{}, len(records))
	for _, r := range records {
		taken[IntakeKey{Medication: r.Medication, ScheduledTime: r.ScheduledTime}] = struct{}{}
	}
	return taken, nil
}

func (s *gormStore) History(ctx context.Context, since time.Time) ([]model.IntakeRecord, error) {
	var records []model.IntakeRecord
	if err := s.db.WithContext(ctx).
		Where("created_at >= ?", since).
		Order("created_at DESC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("fetch intake history: %w", err)
	}
	return records, nil
}

func (s *gormStore) Subscriptions(ctx context.Context) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	if err := s.db.WithContext(ctx).Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("fetch push subscriptions: %w", err)
	}
	return subs, nil
}

func (s *gormStore) GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	if err := s.db.WithContext(ctx).First(&sub, "endpoint = ?", endpoint).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *gormStore) UpsertSubscription(ctx context.Context, sub *model.PushSubscription) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth"}),
	}).Create(sub).Error
}

func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	return s.db.WithContext(ctx).Delete(&model.PushSubscription{Endpoint: endpoint}).Error
}
