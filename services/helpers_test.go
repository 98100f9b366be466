package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"aacsb-sync/config"
	"aacsb-sync/models"
	"aacsb-sync/providers"
)

var t0 = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func testConfig() *config.Config {
	return &config.Config{
		AccreditedCollege:              "경상대학",
		ExcludedJobType:                "장학조교",
		InstitutionName:                "한양대학교",
		NonMatchedExcludedDepartments:  "경제학부",
		ReportWindowYears:              5,
		FacultyMissingTimestampPolicy:  "newer",
		ResearchMissingTimestampPolicy: "now",
	}
}

func newTestReconciler(store SyncStore, c *clock) *Reconciler {
	r, err := NewReconciler(testConfig(), store, NewMetrics(nil), zap.NewNop())
	if err != nil {
		panic(err)
	}
	r.Now = c.Now
	return r
}

func str(s string) *string { return &s }

func ts(t time.Time) *time.Time { return &t }

type stubFaculty struct {
	ref string
	rec *models.FacultyRecord
	err error
}

func (i stubFaculty) Ref() string { return i.ref }

func (i stubFaculty) Faculty() (*models.FacultyRecord, error) {
	if i.err != nil {
		return nil, i.err
	}
	cp := *i.rec
	return &cp, nil
}

type stubResearch struct {
	ref string
	rec *models.ResearchOutput
	err error
}

func (i stubResearch) Ref() string { return i.ref }

func (i stubResearch) Research() (*models.ResearchOutput, error) {
	if i.err != nil {
		return nil, i.err
	}
	cp := *i.rec
	if err := providers.CompleteResearch(&cp, cp.DataSource == models.SourceAPI); err != nil {
		return nil, err
	}
	return &cp, nil
}

// staticSource liefert feste Datensätze einer Herkunft.
type staticSource struct {
	origin   models.DataSource
	faculty  []stubFaculty
	research []stubResearch
}

func (s *staticSource) Name() string { return "static:" + string(s.origin) }

func (s *staticSource) Origin() models.DataSource { return s.origin }

func (s *staticSource) FetchFaculty(ctx context.Context) ([]providers.FacultyItem, error) {
	out := make([]providers.FacultyItem, 0, len(s.faculty))
	for _, i := range s.faculty {
		out = append(out, i)
	}
	return out, nil
}

func (s *staticSource) FetchResearch(ctx context.Context) ([]providers.ResearchItem, error) {
	out := make([]providers.ResearchItem, 0, len(s.research))
	for _, i := range s.research {
		out = append(out, i)
	}
	return out, nil
}

func facultyRec(id, name string, src models.DataSource) *models.FacultyRecord {
	return &models.FacultyRecord{
		UserID:     id,
		Name:       name,
		College:    str("경상대학"),
		JobType:    str("정년트랙"),
		Department: str("경영학부"),
		DataSource: src,
	}
}

func researchRec(apiID, facNIP, title string, published time.Time, src models.DataSource) *models.ResearchOutput {
	rec := &models.ResearchOutput{
		FacNIP:      facNIP,
		Title:       title,
		PublishedAt: published,
		Type:        str("논문"),
		DataSource:  src,
	}
	if apiID != "" {
		rec.APIResearchID = str(apiID)
	}
	return rec
}
