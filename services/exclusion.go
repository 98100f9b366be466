package services

import (
	"strings"

	"aacsb-sync/apperrors"
	"aacsb-sync/config"
	"aacsb-sync/models"
)

// Namen der Ausschlussregeln, wie sie in Logs und Fehlern erscheinen.
const (
	RuleExcludedJobType = "excluded-job-type"
	RuleForeignCollege  = "foreign-college"
	RuleInternalGrant   = "internal-grant"
)

// ExclusionFilter wendet die Geschäftsregeln an, nach denen Datensätze
// nicht in den kanonischen Bestand gelangen.
type ExclusionFilter struct {
	AccreditedCollege string
	ExcludedJobType   string
	InstitutionName   string
}

// NewExclusionFilter übernimmt die Regeln aus der Konfiguration.
func NewExclusionFilter(cfg *config.Config) *ExclusionFilter {
	return &ExclusionFilter{
		AccreditedCollege: cfg.AccreditedCollege,
		ExcludedJobType:   cfg.ExcludedJobType,
		InstitutionName:   cfg.InstitutionName,
	}
}

// CheckFaculty liefert einen *apperrors.ExclusionError, wenn die Lehrperson
// Stipendiatenassistent ist oder nicht zum akkreditierten College gehört.
func (f *ExclusionFilter) CheckFaculty(rec *models.FacultyRecord) error {
	if rec.JobType != nil && *rec.JobType == f.ExcludedJobType {
		return &apperrors.ExclusionError{Rule: RuleExcludedJobType, Detail: *rec.JobType}
	}
	if rec.College == nil || *rec.College != f.AccreditedCollege {
		college := ""
		if rec.College != nil {
			college = *rec.College
		}
		return &apperrors.ExclusionError{Rule: RuleForeignCollege, Detail: college}
	}
	return nil
}

// CheckResearch schließt interne Forschungsförderung der eigenen Hochschule aus.
func (f *ExclusionFilter) CheckResearch(rec *models.ResearchOutput) error {
	if rec.Kind != models.KindFundedGrant || rec.Publisher == nil || f.InstitutionName == "" {
		return nil
	}
	if strings.Contains(*rec.Publisher, f.InstitutionName) {
		return &apperrors.ExclusionError{Rule: RuleInternalGrant, Detail: *rec.Publisher}
	}
	return nil
}
