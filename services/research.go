package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"aacsb-sync/apperrors"
	"aacsb-sync/models"
	"aacsb-sync/normalize"
	"aacsb-sync/providers"
)

// ResearchService enthält die Operationen der Pflegeoberfläche. Nur manuell
// angelegte Ergebnisse dürfen bearbeitet oder gelöscht werden; bei importierten
// Ergebnissen sind nur Übersetzungen und das AACSB-Kennzeichen änderbar.
type ResearchService struct {
	Store  ResearchStore
	Filter *ExclusionFilter
	Logger *zap.Logger
	Now    func() time.Time
}

func NewResearchService(store ResearchStore, filter *ExclusionFilter, logger *zap.Logger) *ResearchService {
	return &ResearchService{Store: store, Filter: filter, Logger: logger, Now: time.Now}
}

// CreateManual legt ein manuelles Forschungsergebnis an.
func (s *ResearchService) CreateManual(ctx context.Context, rec *models.ResearchOutput) (*models.ResearchOutput, error) {
	rec.ResearchID = 0
	rec.APIResearchID = nil
	rec.DataSource = models.SourceManual
	rec.FacNIP = normalize.Text(rec.FacNIP)
	rec.Title = normalize.Text(rec.Title)
	if err := providers.CompleteResearch(rec, false); err != nil {
		return nil, err
	}
	// Manuelle Einträge dürfen sich inhaltlich wiederholen.
	rec.Fingerprint = nil
	if err := s.Filter.CheckResearch(rec); err != nil {
		return nil, err
	}
	if err := s.requireFaculty(ctx, rec.FacNIP); err != nil {
		return nil, err
	}

	now := s.Now()
	rec.CreatedAt, rec.UpdatedAt = now, now
	if err := s.Store.CreateResearch(ctx, rec); err != nil {
		return nil, err
	}
	s.Logger.Info("Manuelles Forschungsergebnis angelegt", zap.Uint("research_id", rec.ResearchID), zap.String("fac_nip", rec.FacNIP))
	return rec, nil
}

// UpdateManual ersetzt die Felder eines manuellen Forschungsergebnisses.
func (s *ResearchService) UpdateManual(ctx context.Context, researchID uint, rec *models.ResearchOutput) (*models.ResearchOutput, error) {
	stored, err := s.manual(ctx, researchID)
	if err != nil {
		return nil, err
	}
	rec.ResearchID = stored.ResearchID
	rec.APIResearchID = nil
	rec.DataSource = models.SourceManual
	rec.IsAACSBManaged = stored.IsAACSBManaged
	rec.FacNIP = normalize.Text(rec.FacNIP)
	rec.Title = normalize.Text(rec.Title)
	if err := providers.CompleteResearch(rec, false); err != nil {
		return nil, err
	}
	rec.Fingerprint = nil
	if rec.FacNIP != stored.FacNIP {
		if err := s.requireFaculty(ctx, rec.FacNIP); err != nil {
			return nil, err
		}
	}
	rec.CreatedAt = stored.CreatedAt
	rec.UpdatedAt = s.Now()
	if err := s.Store.UpdateManualResearch(ctx, rec); err != nil {
		return nil, err
	}
	if rec.FacNIP != stored.FacNIP {
		s.Logger.Info("Forschungsergebnis umgehängt",
			zap.Uint("research_id", rec.ResearchID),
			zap.String("from", stored.FacNIP),
			zap.String("to", rec.FacNIP))
	}
	return rec, nil
}

// DeleteManual löscht ein manuelles Forschungsergebnis.
func (s *ResearchService) DeleteManual(ctx context.Context, researchID uint) error {
	if _, err := s.manual(ctx, researchID); err != nil {
		return err
	}
	if err := s.Store.DeleteResearch(ctx, researchID); err != nil {
		return err
	}
	s.Logger.Info("Manuelles Forschungsergebnis gelöscht", zap.Uint("research_id", researchID))
	return nil
}

// UpdateTranslation setzt englischen Titel und/oder Zeitschriftennamen; erlaubt für jede Herkunft.
// Geschrieben werden nur diese Spalten, damit ein parallel laufender Abgleich nicht zurückgesetzt wird.
func (s *ResearchService) UpdateTranslation(ctx context.Context, researchID uint, englishTitle, englishJournal *string) (*models.ResearchOutput, error) {
	if englishTitle == nil && englishJournal == nil {
		return nil, &apperrors.ValidationError{Missing: []string{"english_title", "english_journal"}}
	}
	cols := map[string]interface{}{"updated_at": s.Now()}
	if englishTitle != nil {
		cols["english_title"] = normalize.String(*englishTitle)
	}
	if englishJournal != nil {
		cols["english_journal"] = normalize.String(*englishJournal)
	}
	return s.Store.UpdateResearchColumns(ctx, researchID, cols)
}

// SetAACSBManaged markiert ein Ergebnis als für die Akkreditierung gezählt.
func (s *ResearchService) SetAACSBManaged(ctx context.Context, researchID uint, managed bool) (*models.ResearchOutput, error) {
	return s.Store.UpdateResearchColumns(ctx, researchID, map[string]interface{}{
		"is_aacsb_managed": managed,
		"updated_at":       s.Now(),
	})
}

// ListResearch liefert Ergebnisse mit Klassifizierung, neueste zuerst.
func (s *ResearchService) ListResearch(ctx context.Context, filter ResearchFilter) ([]models.ResearchWithClassification, error) {
	return s.Store.ListResearch(ctx, filter)
}

// FindFaculty sucht über user_id oder exakten Namen; Namensvettern werden alle geliefert.
func (s *ResearchService) FindFaculty(ctx context.Context, query string) ([]models.FacultyRecord, error) {
	if query == "" {
		return nil, &apperrors.ValidationError{Missing: []string{"query"}}
	}
	return s.Store.FindFaculty(ctx, query)
}

func (s *ResearchService) manual(ctx context.Context, researchID uint) (*models.ResearchOutput, error) {
	rec, err := s.Store.GetResearch(ctx, researchID)
	if err != nil {
		return nil, err
	}
	if rec.DataSource != models.SourceManual {
		return nil, fmt.Errorf("%w: research %d has data source %s", apperrors.ErrImmutable, researchID, rec.DataSource)
	}
	return rec, nil
}

func (s *ResearchService) requireFaculty(ctx context.Context, facNIP string) error {
	ok, err := s.Store.FacultyExists(ctx, facNIP)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", apperrors.ErrUnknownFaculty, facNIP)
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, apperrors.ErrNotFound)
}
