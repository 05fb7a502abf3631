package model

import "time"

// IntakeRecord is one confirmed dose: append-only, never mutated or deleted
// by the engine. The composite unique index makes the confirm check-then-
// insert atomic: at most one row can exist per (medication, time, date).
type IntakeRecord struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Medication    string    `gorm:"size:100;not null;uniqueIndex:idx_intake_dose" json:"medication"`
	ScheduledTime string    `gorm:"size:5;not null;uniqueIndex:idx_intake_dose" json:"scheduled_time"`
	IntakeDate    string    `gorm:"size:10;not null;uniqueIndex:idx_intake_dose" json:"intake_date"`
	TakenAt       time.Time `gorm:"not null" json:"taken_at"`
	CreatedAt     time.Time `json:"created_at"`
}
