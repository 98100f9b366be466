package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"aacsb-sync/apperrors"
	"aacsb-sync/models"
)

// ClassificationService setzt die Begutachtungs-Flags von Forschungsergebnissen.
type ClassificationService struct {
	Store  ClassificationStore
	Logger *zap.Logger
	Now    func() time.Time
}

func NewClassificationService(store ClassificationStore, logger *zap.Logger) *ClassificationService {
	return &ClassificationService{Store: store, Logger: logger, Now: time.Now}
}

// SetClassification setzt flag auf der Achse axis und löscht dort alle anderen Flags.
// Die Flags der anderen Achse bleiben unverändert; fehlt die Zeile, wird sie angelegt.
func (s *ClassificationService) SetClassification(ctx context.Context, facNIP string, researchID uint, axis models.Axis, flag models.Flag) (*models.Classification, error) {
	flagAxis, ok := models.AxisOf(flag)
	if !ok {
		return nil, fmt.Errorf("%w: unknown classification flag %q", apperrors.ErrValidation, flag)
	}
	if flagAxis != axis {
		return nil, fmt.Errorf("%w: flag %s does not belong to axis %s", apperrors.ErrValidation, flag, axis)
	}

	research, err := s.Store.GetResearch(ctx, researchID)
	if err != nil {
		return nil, err
	}
	if research.FacNIP != facNIP {
		return nil, fmt.Errorf("%w: research %d does not belong to %s", apperrors.ErrNotFound, researchID, facNIP)
	}

	c := &models.Classification{FacNIP: facNIP, ResearchID: researchID}
	if err := c.Set(flag); err != nil {
		return nil, err
	}
	saved, err := s.Store.SetClassificationAxis(ctx, c, axis, s.Now())
	if err != nil {
		s.Logger.Error("Fehler beim Speichern der Klassifizierung",
			zap.String("fac_nip", facNIP), zap.Uint("research_id", researchID), zap.Error(err))
		return nil, err
	}
	nature, _ := saved.Selected(models.AxisNature)
	review, _ := saved.Selected(models.AxisReview)
	s.Logger.Info("Klassifizierung gesetzt",
		zap.String("fac_nip", facNIP),
		zap.Uint("research_id", researchID),
		zap.String("axis", string(axis)),
		zap.String("nature", string(nature)),
		zap.String("review", string(review)),
		zap.Bool("fully_classified", saved.FullyClassified()))
	return saved, nil
}

// GetClassification liefert die Klassifizierung; ohne Zeile eine leere.
func (s *ClassificationService) GetClassification(ctx context.Context, facNIP string, researchID uint) (*models.Classification, error) {
	c, err := s.Store.GetClassification(ctx, facNIP, researchID)
	if err == nil {
		return c, nil
	}
	if !isNotFound(err) {
		return nil, err
	}
	if _, err := s.Store.GetResearch(ctx, researchID); err != nil {
		return nil, err
	}
	return &models.Classification{FacNIP: facNIP, ResearchID: researchID}, nil
}
