package services

import (
	"context"
	"time"

	"aacsb-sync/models"
)

// SyncStore ist die Persistenzschicht des Abgleichs.
// Upserts werten den Guard atomar mit dem Schreiben aus und liefern
// inserted, updated oder skipped-duplicate.
type SyncStore interface {
	Ping(ctx context.Context) error
	// WithRunLock führt fn exklusiv für key aus; ein laufender Abgleich
	// mit demselben key führt zu apperrors.ErrRunInProgress.
	WithRunLock(ctx context.Context, key string, fn func(ctx context.Context) error) error

	FacultyExists(ctx context.Context, userID string) (bool, error)
	LookupFaculty(ctx context.Context, userID string) (*Existing, error)
	LookupResearch(ctx context.Context, key models.ResearchKey) (*Existing, error)

	UpsertFaculty(ctx context.Context, rec *models.FacultyRecord, guard Guard, now time.Time) (models.Outcome, error)
	UpsertResearch(ctx context.Context, rec *models.ResearchOutput, guard Guard, now time.Time) (models.Outcome, error)

	SaveSyncRun(ctx context.Context, run *models.SyncRun) error
}

// ClassificationStore speichert die Begutachtung von Forschungsergebnissen.
type ClassificationStore interface {
	GetResearch(ctx context.Context, researchID uint) (*models.ResearchOutput, error)
	GetClassification(ctx context.Context, facNIP string, researchID uint) (*models.Classification, error)
	// SetClassificationAxis schreibt ausschließlich die Spalten der Achse von c.
	SetClassificationAxis(ctx context.Context, c *models.Classification, axis models.Axis, now time.Time) (*models.Classification, error)
}

// ResearchFilter schränkt ListResearch ein; leere Felder filtern nicht.
type ResearchFilter struct {
	FacNIP string
	Year   int
}

// ResearchStore bietet die Operationen der Pflegeoberfläche.
type ResearchStore interface {
	FacultyExists(ctx context.Context, userID string) (bool, error)
	GetResearch(ctx context.Context, researchID uint) (*models.ResearchOutput, error)
	CreateResearch(ctx context.Context, rec *models.ResearchOutput) error
	// UpdateManualResearch überschreibt ein bestehendes Ergebnis, ohne es neu
	// anzulegen; eine geänderte fac_nip wird in derselben Transaktion auf die
	// Klassifizierung übertragen.
	UpdateManualResearch(ctx context.Context, rec *models.ResearchOutput) error
	// UpdateResearchColumns ändert nur die genannten Spalten.
	UpdateResearchColumns(ctx context.Context, researchID uint, cols map[string]interface{}) (*models.ResearchOutput, error)
	DeleteResearch(ctx context.Context, researchID uint) error
	ListResearch(ctx context.Context, filter ResearchFilter) ([]models.ResearchWithClassification, error)
	FindFaculty(ctx context.Context, query string) ([]models.FacultyRecord, error)
}

// ReportStore liefert die Rohdaten der Berichte. Alle Methoden sind lesend.
type ReportStore interface {
	TeachingLoads(ctx context.Context, discipline string, year int) ([]models.TeachingLoad, error)
	// ProfiledFaculty liefert kanonische Lehrpersonen mit Akkreditierungsprofil, nach Name sortiert.
	ProfiledFaculty(ctx context.Context) ([]models.FacultyRecord, error)
	ManagedOutputs(ctx context.Context, fromYear, toYear int) ([]models.ManagedOutput, error)
	// UnprofiledFaculty liefert kanonische Lehrpersonen ohne Akkreditierungsprofil.
	UnprofiledFaculty(ctx context.Context, excludedDepartments []string) ([]models.FacultyRecord, error)
	Disciplines(ctx context.Context) ([]models.Discipline, error)
}
