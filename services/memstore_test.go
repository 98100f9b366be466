package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"aacsb-sync/apperrors"
	"aacsb-sync/models"
)

type classKey struct {
	facNIP     string
	researchID uint
}

// memStore ist ein In-Memory-Store für Tests; Guards werden wie in SQL ausgewertet.
type memStore struct {
	mu              sync.Mutex
	faculty         map[string]models.FacultyRecord
	research        map[uint]models.ResearchOutput
	nextID          uint
	classifications map[classKey]models.Classification
	runs            map[string]models.SyncRun
	locks           map[string]bool
	profiles        map[string]models.FacultyProfile
	loads           []models.TeachingLoad
	disciplines     []models.Discipline

	ping      func() error
	upsertErr error
	writes    int
}

func newMemStore() *memStore {
	return &memStore{
		faculty:         map[string]models.FacultyRecord{},
		research:        map[uint]models.ResearchOutput{},
		classifications: map[classKey]models.Classification{},
		runs:            map[string]models.SyncRun{},
		locks:           map[string]bool{},
		profiles:        map[string]models.FacultyProfile{},
	}
}

func (m *memStore) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ping != nil {
		return m.ping()
	}
	return nil
}

func (m *memStore) WithRunLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	if m.locks[key] {
		m.mu.Unlock()
		return apperrors.ErrRunInProgress
	}
	m.locks[key] = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.locks, key)
		m.mu.Unlock()
	}()
	return fn(ctx)
}

func (m *memStore) FacultyExists(ctx context.Context, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.faculty[userID]
	return ok, nil
}

func (m *memStore) LookupFaculty(ctx context.Context, userID string) (*Existing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.faculty[userID]
	if !ok {
		return nil, nil
	}
	return &Existing{Key: userID, DataSource: f.DataSource, CreatedAt: f.CreatedAt, UpdatedAt: f.UpdatedAt}, nil
}

func (m *memStore) findResearch(key models.ResearchKey) (models.ResearchOutput, bool) {
	for _, r := range m.research {
		if key.APIResearchID != "" && r.APIResearchID != nil && *r.APIResearchID == key.APIResearchID {
			return r, true
		}
		if key.APIResearchID == "" && key.Fingerprint != "" && r.APIResearchID == nil &&
			r.Fingerprint != nil && *r.Fingerprint == key.Fingerprint {
			return r, true
		}
	}
	return models.ResearchOutput{}, false
}

func (m *memStore) LookupResearch(ctx context.Context, key models.ResearchKey) (*Existing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.findResearch(key)
	if !ok {
		return nil, nil
	}
	return &Existing{Key: key.String(), DataSource: r.DataSource, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}, nil
}

func (m *memStore) UpsertFaculty(ctx context.Context, rec *models.FacultyRecord, guard Guard, now time.Time) (models.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return "", m.upsertErr
	}
	stored, ok := m.faculty[rec.UserID]
	if ok && !guard.Admits(stored.UpdatedAt) {
		return models.OutcomeSkippedDuplicate, nil
	}
	m.writes++
	row := *rec
	row.SourceUpdatedAt = nil
	row.UpdatedAt = now
	if ok {
		row.CreatedAt = stored.CreatedAt
		m.faculty[rec.UserID] = row
		return models.OutcomeUpdated, nil
	}
	row.CreatedAt = now
	m.faculty[rec.UserID] = row
	return models.OutcomeInserted, nil
}

func (m *memStore) UpsertResearch(ctx context.Context, rec *models.ResearchOutput, guard Guard, now time.Time) (models.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return "", m.upsertErr
	}
	if _, ok := m.faculty[rec.FacNIP]; !ok {
		return "", apperrors.ErrUnknownFaculty
	}
	stored, ok := m.findResearch(ResearchKey(rec))
	if ok && !guard.Admits(stored.UpdatedAt) {
		return models.OutcomeSkippedDuplicate, nil
	}
	m.writes++
	row := *rec
	row.SourceUpdatedAt = nil
	row.UpdatedAt = now
	if ok {
		row.ResearchID = stored.ResearchID
		row.CreatedAt = stored.CreatedAt
		row.IsAACSBManaged = stored.IsAACSBManaged
		row.EnglishTitle = stored.EnglishTitle
		row.EnglishJournal = stored.EnglishJournal
		m.research[row.ResearchID] = row
		return models.OutcomeUpdated, nil
	}
	m.nextID++
	row.ResearchID = m.nextID
	row.CreatedAt = now
	m.research[row.ResearchID] = row
	return models.OutcomeInserted, nil
}

func (m *memStore) SaveSyncRun(ctx context.Context, run *models.SyncRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.RunID.String()] = *run
	return nil
}

func (m *memStore) GetResearch(ctx context.Context, researchID uint) (*models.ResearchOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.research[researchID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &r, nil
}

func (m *memStore) GetClassification(ctx context.Context, facNIP string, researchID uint) (*models.Classification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.classifications[classKey{facNIP, researchID}]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &c, nil
}

func (m *memStore) SetClassificationAxis(ctx context.Context, c *models.Classification, axis models.Axis, now time.Time) (*models.Classification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := classKey{c.FacNIP, c.ResearchID}
	stored, ok := m.classifications[key]
	if !ok {
		stored = models.Classification{FacNIP: c.FacNIP, ResearchID: c.ResearchID, CreatedAt: now}
	}
	if f, ok := c.Selected(axis); ok {
		if err := stored.Set(f); err != nil {
			return nil, err
		}
	}
	stored.UpdatedAt = now
	m.classifications[key] = stored
	return &stored, nil
}

func (m *memStore) CreateResearch(ctx context.Context, rec *models.ResearchOutput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	rec.ResearchID = m.nextID
	m.research[rec.ResearchID] = *rec
	return nil
}

func (m *memStore) UpdateManualResearch(ctx context.Context, rec *models.ResearchOutput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.research[rec.ResearchID]
	if !ok {
		return apperrors.ErrNotFound
	}
	row := *rec
	row.IsAACSBManaged = stored.IsAACSBManaged
	row.CreatedAt = stored.CreatedAt
	m.research[rec.ResearchID] = row
	for key, c := range m.classifications {
		if key.researchID != rec.ResearchID || key.facNIP == rec.FacNIP {
			continue
		}
		delete(m.classifications, key)
		c.FacNIP = rec.FacNIP
		m.classifications[classKey{rec.FacNIP, rec.ResearchID}] = c
	}
	return nil
}

func (m *memStore) UpdateResearchColumns(ctx context.Context, researchID uint, cols map[string]interface{}) (*models.ResearchOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.research[researchID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	for col, v := range cols {
		switch col {
		case "english_title":
			r.EnglishTitle = v.(*string)
		case "english_journal":
			r.EnglishJournal = v.(*string)
		case "is_aacsb_managed":
			r.IsAACSBManaged = v.(bool)
		case "updated_at":
			r.UpdatedAt = v.(time.Time)
		default:
			return nil, fmt.Errorf("memStore: unsupported column %q", col)
		}
	}
	m.research[researchID] = r
	return &r, nil
}

func (m *memStore) DeleteResearch(ctx context.Context, researchID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.research[researchID]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.research, researchID)
	return nil
}

func (m *memStore) ListResearch(ctx context.Context, filter ResearchFilter) ([]models.ResearchWithClassification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ResearchWithClassification
	for _, r := range m.research {
		if filter.FacNIP != "" && r.FacNIP != filter.FacNIP {
			continue
		}
		if filter.Year != 0 && r.PublishedAt.Year() != filter.Year {
			continue
		}
		c := m.classifications[classKey{r.FacNIP, r.ResearchID}]
		out = append(out, models.ResearchWithClassification{
			ResearchOutput:     r,
			IsBasic:            c.IsBasic,
			IsApplied:          c.IsApplied,
			IsTeaching:         c.IsTeaching,
			IsPeerJournal:      c.IsPeerJournal,
			IsOtherReviewed:    c.IsOtherReviewed,
			IsOtherNonreviewed: c.IsOtherNonreviewed,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PublishedAt.Equal(out[j].PublishedAt) {
			return out[i].PublishedAt.After(out[j].PublishedAt)
		}
		return out[i].ResearchID > out[j].ResearchID
	})
	return out, nil
}

func (m *memStore) FindFaculty(ctx context.Context, query string) ([]models.FacultyRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.FacultyRecord
	for _, f := range m.faculty {
		if f.UserID == query || f.Name == query {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (m *memStore) TeachingLoads(ctx context.Context, discipline string, year int) ([]models.TeachingLoad, error) {
	var out []models.TeachingLoad
	for _, l := range m.loads {
		if l.Discipline == discipline && l.Year == year {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memStore) ProfiledFaculty(ctx context.Context) ([]models.FacultyRecord, error) {
	var out []models.FacultyRecord
	for id, f := range m.faculty {
		if _, ok := m.profiles[id]; ok {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) ManagedOutputs(ctx context.Context, fromYear, toYear int) ([]models.ManagedOutput, error) {
	var out []models.ManagedOutput
	for _, r := range m.research {
		y := r.PublishedAt.Year()
		if !r.IsAACSBManaged || y < fromYear || y > toYear {
			continue
		}
		c := m.classifications[classKey{r.FacNIP, r.ResearchID}]
		out = append(out, models.ManagedOutput{
			FacNIP:          r.FacNIP,
			ResearchID:      r.ResearchID,
			PublishedAt:     r.PublishedAt,
			FullyClassified: c.FullyClassified(),
		})
	}
	return out, nil
}

func (m *memStore) UnprofiledFaculty(ctx context.Context, excludedDepartments []string) ([]models.FacultyRecord, error) {
	var out []models.FacultyRecord
	for id, f := range m.faculty {
		if _, ok := m.profiles[id]; ok {
			continue
		}
		if f.Department != nil && contains(excludedDepartments, *f.Department) {
			continue
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) Disciplines(ctx context.Context) ([]models.Discipline, error) {
	out := append([]models.Discipline(nil), m.disciplines...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Level != out[j].Level {
			return out[i].Level < out[j].Level
		}
		return strings.Compare(out[i].Name, out[j].Name) < 0
	})
	return out, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

var (
	_ SyncStore           = (*memStore)(nil)
	_ ClassificationStore = (*memStore)(nil)
	_ ResearchStore       = (*memStore)(nil)
	_ ReportStore         = (*memStore)(nil)
)
