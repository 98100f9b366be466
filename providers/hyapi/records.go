package hyapi

import (
	"time"

	"aacsb-sync/models"
	"aacsb-sync/normalize"
	"aacsb-sync/providers"
)

type facultyItem struct {
	data FacultyData
	loc  *time.Location
}

func (f facultyItem) Ref() string {
	return "userId=" + normalize.Text(f.data.UserID.String())
}

func (f facultyItem) Faculty() (*models.FacultyRecord, error) {
	d := f.data
	rec := &models.FacultyRecord{
		UserID:             normalize.Text(d.UserID.String()),
		Campus:             normalize.String(d.Campus.String()),
		College:            normalize.String(d.College.String()),
		Department:         normalize.String(d.Department.String()),
		TenureTrack:        normalize.String(d.TenureTrack.String()),
		JobType:            normalize.String(d.JobType.String()),
		JobRank:            normalize.String(d.JobRank.String()),
		Name:               normalize.Text(d.Name.String()),
		EnglishName:        normalize.String(d.EnglishName.String()),
		HighestDegree:      normalize.String(d.HighestDegree.String()),
		Email:              normalize.String(d.Email.String()),
		BachelorDegreeYear: normalize.Int(d.BachelorDegreeYear.String()),
		MasterDegreeYear:   normalize.Int(d.MasterDegreeYear.String()),
		DoctoralDegreeYear: normalize.Int(d.DoctoralDegreeYear.String()),
		DataSource:         models.SourceAPI,
		SourceUpdatedAt:    timestamp(d.UpdatedAt, f.loc),
	}
	if err := providers.ValidateFaculty(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

type researchItem struct {
	data ResearchData
	loc  *time.Location
}

func (r researchItem) Ref() string {
	return "researchId=" + normalize.Text(r.data.ResearchID.String())
}

func (r researchItem) Research() (*models.ResearchOutput, error) {
	d := r.data
	rec := &models.ResearchOutput{
		APIResearchID:   normalize.String(d.ResearchID.String()),
		FacNIP:          normalize.Text(d.UserID.String()),
		Name:            normalize.String(d.Name.String()),
		Title:           normalize.Text(d.title()),
		DOI:             normalize.String(d.DOI.String()),
		Publisher:       normalize.String(d.Publisher.String()),
		JournalName:     normalize.String(d.JournalName.String()),
		JournalIndex:    normalize.String(d.JournalIndex.String()),
		Type:            normalize.String(d.Type.String()),
		JournalCategory: normalize.String(d.JournalCategory.String()),
		IsQ1Last3Years:  normalize.Flag(d.IsQ1Last3Years.String(), "true"),
		IsDomestic:      normalize.Flag(d.IsDomestic.String(), "true"),
		Role:            normalize.String(d.Role.String()),
		DataSource:      models.SourceAPI,
		SourceUpdatedAt: timestamp(d.UpdatedAt, r.loc),
	}
	// 0 bedeutet bei der API "kein Impact Factor".
	if f := normalize.Float(d.ImpactFactor.String()); f != nil && *f != 0 {
		rec.ImpactFactor = f
	}
	if published, ok := normalize.Date(d.PublishedAt.String()); ok {
		rec.PublishedAt = published
	}
	if err := providers.CompleteResearch(rec, true); err != nil {
		return nil, err
	}
	return rec, nil
}

func timestamp(v Flex, loc *time.Location) *time.Time {
	t, ok := normalize.Timestamp(v.String(), loc)
	if !ok {
		return nil
	}
	return &t
}
