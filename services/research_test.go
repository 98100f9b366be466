package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"aacsb-sync/apperrors"
	"aacsb-sync/models"
)

func researchFixture(t *testing.T) (*ResearchService, *memStore, *clock) {
	t.Helper()
	store := newMemStore()
	store.faculty["F1"] = *facultyRec("F1", "Lee", models.SourceAPI)
	store.faculty["F2"] = *facultyRec("F2", "Lee", models.SourceSpreadsheet)
	c := &clock{now: t0}
	svc := NewResearchService(store, NewExclusionFilter(testConfig()), zap.NewNop())
	svc.Now = c.Now
	return svc, store, c
}

func TestCreateManual(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := researchFixture(t)

	rec, err := svc.CreateManual(ctx, researchRec("X", "F1", "  Manual  paper ", t0, models.SourceAPI))
	require.NoError(t, err)
	assert.Equal(t, models.SourceManual, rec.DataSource)
	assert.Nil(t, rec.APIResearchID)
	assert.Equal(t, "Manual paper", rec.Title)
	assert.Equal(t, t0, rec.CreatedAt)
	assert.Len(t, store.research, 1)

	_, err = svc.CreateManual(ctx, researchRec("", "NOBODY", "Ghost", t0, models.SourceManual))
	require.ErrorIs(t, err, apperrors.ErrUnknownFaculty)

	_, err = svc.CreateManual(ctx, researchRec("", "F1", "", t0, models.SourceManual))
	require.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestManualOnlyMutations(t *testing.T) {
	ctx := context.Background()
	svc, store, c := researchFixture(t)

	imported := researchRec("R1", "F1", "Imported", t0, models.SourceAPI)
	require.NoError(t, store.CreateResearch(ctx, imported))
	manual, err := svc.CreateManual(ctx, researchRec("", "F1", "Manual", t0, models.SourceManual))
	require.NoError(t, err)

	_, err = svc.UpdateManual(ctx, imported.ResearchID, researchRec("", "F1", "Changed", t0, models.SourceManual))
	require.ErrorIs(t, err, apperrors.ErrImmutable)
	require.ErrorIs(t, svc.DeleteManual(ctx, imported.ResearchID), apperrors.ErrImmutable)

	c.Advance(time.Hour)
	updated, err := svc.UpdateManual(ctx, manual.ResearchID, researchRec("", "F2", "Changed", t0, models.SourceManual))
	require.NoError(t, err)
	assert.Equal(t, "Changed", updated.Title)
	assert.Equal(t, "F2", updated.FacNIP)
	assert.Equal(t, t0, updated.CreatedAt)
	assert.Equal(t, c.now, updated.UpdatedAt)

	require.NoError(t, svc.DeleteManual(ctx, manual.ResearchID))
	_, err = store.GetResearch(ctx, manual.ResearchID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUpdateTranslationAndManagedFlag(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := researchFixture(t)

	imported := researchRec("R1", "F1", "디지털 전략", t0, models.SourceAPI)
	require.NoError(t, store.CreateResearch(ctx, imported))

	_, err := svc.UpdateTranslation(ctx, imported.ResearchID, nil, nil)
	require.ErrorIs(t, err, apperrors.ErrValidation)

	rec, err := svc.UpdateTranslation(ctx, imported.ResearchID, str(" Digital Strategy "), nil)
	require.NoError(t, err)
	assert.Equal(t, "Digital Strategy", *rec.EnglishTitle)
	assert.Nil(t, rec.EnglishJournal)

	rec, err = svc.SetAACSBManaged(ctx, imported.ResearchID, true)
	require.NoError(t, err)
	assert.True(t, rec.IsAACSBManaged)
	assert.Equal(t, models.SourceAPI, rec.DataSource)
}

// columnRecorder merkt sich, welche Spalten eine gezielte Änderung schreibt.
type columnRecorder struct {
	*memStore
	written []string
}

func (s *columnRecorder) UpdateResearchColumns(ctx context.Context, researchID uint, cols map[string]interface{}) (*models.ResearchOutput, error) {
	for col := range cols {
		s.written = append(s.written, col)
	}
	return s.memStore.UpdateResearchColumns(ctx, researchID, cols)
}

func TestUpdateTranslation_WritesOnlyItsColumns(t *testing.T) {
	ctx := context.Background()
	svc, store, c := researchFixture(t)
	recorder := &columnRecorder{memStore: store}
	svc.Store = recorder

	imported := researchRec("R1", "F1", "디지털 전략", t0, models.SourceAPI)
	require.NoError(t, store.CreateResearch(ctx, imported))

	// Ein Abgleich ändert den Titel, bevor die Übersetzung gespeichert wird.
	row := store.research[imported.ResearchID]
	row.Title = "디지털 전략 (개정)"
	store.research[imported.ResearchID] = row

	c.Advance(time.Hour)
	rec, err := svc.UpdateTranslation(ctx, imported.ResearchID, nil, str("Journal of Strategy"))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"english_journal", "updated_at"}, recorder.written)
	assert.Equal(t, "디지털 전략 (개정)", rec.Title)
	assert.Equal(t, c.now, rec.UpdatedAt)

	recorder.written = nil
	rec, err = svc.SetAACSBManaged(ctx, imported.ResearchID, true)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"is_aacsb_managed", "updated_at"}, recorder.written)
	assert.Equal(t, "Journal of Strategy", *rec.EnglishJournal)
	assert.Equal(t, "디지털 전략 (개정)", store.research[imported.ResearchID].Title)
}

func TestUpdateTranslation_DeletedRowStaysDeleted(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := researchFixture(t)

	manual, err := svc.CreateManual(ctx, researchRec("", "F1", "Manual", t0, models.SourceManual))
	require.NoError(t, err)
	require.NoError(t, svc.DeleteManual(ctx, manual.ResearchID))

	_, err = svc.UpdateTranslation(ctx, manual.ResearchID, str("Manual"), nil)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = svc.SetAACSBManaged(ctx, manual.ResearchID, true)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Empty(t, store.research)
}

func TestUpdateManual_MovesClassification(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := researchFixture(t)
	classify := NewClassificationService(store, zap.NewNop())

	manual, err := svc.CreateManual(ctx, researchRec("", "F1", "Manual", t0, models.SourceManual))
	require.NoError(t, err)
	_, err = classify.SetClassification(ctx, "F1", manual.ResearchID, models.AxisNature, models.FlagApplied)
	require.NoError(t, err)

	_, err = svc.UpdateManual(ctx, manual.ResearchID, researchRec("", "F2", "Manual", t0, models.SourceManual))
	require.NoError(t, err)

	_, err = store.GetClassification(ctx, "F1", manual.ResearchID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
	moved, err := classify.GetClassification(ctx, "F2", manual.ResearchID)
	require.NoError(t, err)
	assert.True(t, moved.IsApplied)

	list, err := svc.ListResearch(ctx, ResearchFilter{FacNIP: "F2"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].IsApplied)
}

func TestListResearchAndFindFaculty(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := researchFixture(t)

	older := researchRec("R1", "F1", "Older", time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), models.SourceAPI)
	newer := researchRec("R2", "F1", "Newer", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), models.SourceAPI)
	require.NoError(t, store.CreateResearch(ctx, older))
	require.NoError(t, store.CreateResearch(ctx, newer))
	store.classifications[classKey{"F1", older.ResearchID}] = models.Classification{FacNIP: "F1", ResearchID: older.ResearchID, IsBasic: true}

	list, err := svc.ListResearch(ctx, ResearchFilter{FacNIP: "F1"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Newer", list[0].Title)
	assert.False(t, list[0].IsBasic)
	assert.True(t, list[1].IsBasic)

	list, err = svc.ListResearch(ctx, ResearchFilter{Year: 2022})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	homonyms, err := svc.FindFaculty(ctx, "Lee")
	require.NoError(t, err)
	assert.Len(t, homonyms, 2)

	_, err = svc.FindFaculty(ctx, "")
	require.ErrorIs(t, err, apperrors.ErrValidation)
}
