package models

import (
	"time"

	"github.com/google/uuid"
)

// Outcome ist das Ergebnis des Abgleichs eines einzelnen Datensatzes.
type Outcome string

const (
	OutcomeInserted         Outcome = "inserted"
	OutcomeUpdated          Outcome = "updated"
	OutcomeSkippedDuplicate Outcome = "skipped-duplicate"
	OutcomeSkippedExcluded  Outcome = "skipped-excluded"
	OutcomeRejectedInvalid  Outcome = "rejected-invalid"
	OutcomeRejectedOrphan   Outcome = "rejected-orphan"
	OutcomeFailed           Outcome = "failed"
)

// Entitäten, die abgeglichen werden.
const (
	EntityFaculty  = "faculty"
	EntityResearch = "research"
)

const (
	SyncRunStatusRunning = "running"
	SyncRunStatusSuccess = "success"
	SyncRunStatusFailed  = "failed"
)

// SyncRun protokolliert einen Abgleichlauf und seine Zählerstände.
type SyncRun struct {
	ID     uint       `json:"id" gorm:"primaryKey;autoIncrement"`
	RunID  uuid.UUID  `json:"run_id" gorm:"type:uuid;uniqueIndex;not null"`
	Entity string     `json:"entity" gorm:"size:16;not null;index"`
	Source string     `json:"source" gorm:"size:64;not null"`
	Origin DataSource `json:"origin" gorm:"size:16;not null"`
	DryRun bool       `json:"dry_run" gorm:"not null;default:false"`

	Status       string  `json:"status" gorm:"size:16;not null;default:'running'"`
	ErrorMessage *string `json:"error_message,omitempty" gorm:"type:text"`

	Total            int `json:"total" gorm:"not null;default:0"`
	Inserted         int `json:"inserted" gorm:"not null;default:0"`
	Updated          int `json:"updated" gorm:"not null;default:0"`
	SkippedDuplicate int `json:"skipped_duplicate" gorm:"not null;default:0"`
	SkippedExcluded  int `json:"skipped_excluded" gorm:"not null;default:0"`
	RejectedInvalid  int `json:"rejected_invalid" gorm:"not null;default:0"`
	RejectedOrphan   int `json:"rejected_orphan" gorm:"not null;default:0"`
	Failed           int `json:"failed" gorm:"not null;default:0"`

	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// TableName gibt explizit den Tabellennamen an.
func (SyncRun) TableName() string {
	return "sync_runs"
}

// Record zählt ein Einzelergebnis.
func (r *SyncRun) Record(o Outcome) {
	r.Total++
	switch o {
	case OutcomeInserted:
		r.Inserted++
	case OutcomeUpdated:
		r.Updated++
	case OutcomeSkippedDuplicate:
		r.SkippedDuplicate++
	case OutcomeSkippedExcluded:
		r.SkippedExcluded++
	case OutcomeRejectedInvalid:
		r.RejectedInvalid++
	case OutcomeRejectedOrphan:
		r.RejectedOrphan++
	case OutcomeFailed:
		r.Failed++
	}
}

// Finish schließt den Lauf mit Status und optionaler Fehlermeldung ab.
func (r *SyncRun) Finish(at time.Time, err error) {
	r.FinishedAt = &at
	if err != nil {
		msg := err.Error()
		r.ErrorMessage = &msg
		r.Status = SyncRunStatusFailed
		return
	}
	r.Status = SyncRunStatusSuccess
}
