package services

import (
	"context"
	"time"

	"aacsb-sync/models"
)

// Existing beschreibt einen bereits gespeicherten Datensatz.
type Existing struct {
	Key        string
	DataSource models.DataSource
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Resolver bestimmt über den natürlichen Schlüssel, ob ein Datensatz bereits existiert.
type Resolver struct {
	Store SyncStore
}

// ResolveFaculty sucht über user_id. nil bedeutet: noch nicht vorhanden.
func (r *Resolver) ResolveFaculty(ctx context.Context, rec *models.FacultyRecord) (*Existing, error) {
	return r.Store.LookupFaculty(ctx, rec.UserID)
}

// ResolveResearch sucht über api_research_id, ohne externe ID über den Fingerprint.
func (r *Resolver) ResolveResearch(ctx context.Context, rec *models.ResearchOutput) (*Existing, error) {
	return r.Store.LookupResearch(ctx, ResearchKey(rec))
}

// ResearchKey liefert den natürlichen Schlüssel eines Forschungsergebnisses.
func ResearchKey(rec *models.ResearchOutput) models.ResearchKey {
	if rec.APIResearchID != nil {
		return models.ResearchKey{APIResearchID: *rec.APIResearchID}
	}
	if rec.Fingerprint != nil {
		return models.ResearchKey{Fingerprint: *rec.Fingerprint}
	}
	return models.ResearchKey{}
}
