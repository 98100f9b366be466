package providers

import (
	"aacsb-sync/apperrors"
	"aacsb-sync/models"
	"aacsb-sync/normalize"
)

// ValidateFaculty prüft die Pflichtfelder eines normalisierten Lehrpersonen-Datensatzes.
func ValidateFaculty(rec *models.FacultyRecord) error {
	var missing []string
	if rec.UserID == "" {
		missing = append(missing, "user_id")
	}
	if rec.Name == "" {
		missing = append(missing, "name")
	}
	if len(missing) > 0 {
		return &apperrors.ValidationError{Missing: missing}
	}
	return nil
}

// CompleteResearch prüft die Pflichtfelder eines Forschungsergebnisses und setzt
// die abgeleiteten Felder Kind und Fingerprint.
func CompleteResearch(rec *models.ResearchOutput, requireExternalID bool) error {
	var missing []string
	if requireExternalID && rec.APIResearchID == nil {
		missing = append(missing, "api_research_id")
	}
	if rec.FacNIP == "" {
		missing = append(missing, "fac_nip")
	}
	if rec.Title == "" {
		missing = append(missing, "title")
	}
	if rec.PublishedAt.IsZero() {
		missing = append(missing, "published_at")
	}
	if len(missing) > 0 {
		return &apperrors.ValidationError{Missing: missing}
	}

	rec.Kind = models.KindOther
	if rec.Type != nil {
		rec.Kind = models.KindOf(*rec.Type)
	}
	rec.Fingerprint = nil
	if rec.APIResearchID == nil {
		fp := normalize.Fingerprint(rec.FacNIP, rec.Title, rec.PublishedAt)
		rec.Fingerprint = &fp
	}
	return nil
}
