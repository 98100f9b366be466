package storage

import (
	"context"

	"aacsb-sync/models"
)

const teachingLoadSQL = `
WITH total_credits AS (
	SELECT fac_nip, year, semester, SUM(credit) AS total_credit
	FROM teaching
	WHERE year = @year
	GROUP BY fac_nip, year, semester
),
discipline_credits AS (
	SELECT fac_nip, year, semester, t_discipline AS discipline, SUM(credit) AS discipline_credit
	FROM teaching
	WHERE year = @year AND t_discipline = @discipline
	GROUP BY fac_nip, year, semester, t_discipline
)
SELECT d.fac_nip, d.year, d.semester, d.discipline, d.discipline_credit, t.total_credit,
	f.fac_nip AS p_fac_nip,
	f.fac_name AS p_fac_name,
	f.specialty_field1 AS p_specialty_field1,
	f.specialty_field2 AS p_specialty_field2,
	f.highest_degree AS p_highest_degree,
	f.highest_degree_year AS p_highest_degree_year,
	f.normal_professional_responsibilities AS p_normal_professional_responsibilities,
	f.fac_discipline AS p_fac_discipline,
	f.fac_time AS p_fac_time,
	f.fac_ccataacsb AS p_fac_ccataacsb,
	f.fac_cqualaacsb2013 AS p_fac_cqualaacsb2013,
	f.full_time_equivalent AS p_full_time_equivalent
FROM discipline_credits d
JOIN total_credits t ON d.fac_nip = t.fac_nip AND d.year = t.year AND d.semester = t.semester
JOIN faculty f ON d.fac_nip = f.fac_nip`

type teachingLoadRow struct {
	FacNIP           string `gorm:"column:fac_nip"`
	Year             int
	Semester         string
	Discipline       string
	DisciplineCredit float64
	TotalCredit      float64
	Profile          models.FacultyProfile `gorm:"embedded;embeddedPrefix:p_"`
}

// TeachingLoads liefert je Lehrperson und Semester die Leistungspunkte in der
// Disziplin und insgesamt, zusammen mit dem Akkreditierungsprofil.
func (s *GormStore) TeachingLoads(ctx context.Context, discipline string, year int) ([]models.TeachingLoad, error) {
	var rows []teachingLoadRow
	err := s.DB.WithContext(ctx).
		Raw(teachingLoadSQL, map[string]interface{}{"year": year, "discipline": discipline}).
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err)
	}
	out := make([]models.TeachingLoad, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.TeachingLoad{
			FacNIP:           r.FacNIP,
			Year:             r.Year,
			Semester:         r.Semester,
			Discipline:       r.Discipline,
			DisciplineCredit: r.DisciplineCredit,
			TotalCredit:      r.TotalCredit,
			Profile:          r.Profile,
		})
	}
	return out, nil
}

func (s *GormStore) ProfiledFaculty(ctx context.Context) ([]models.FacultyRecord, error) {
	var out []models.FacultyRecord
	err := s.DB.WithContext(ctx).
		Select("aacsb_faculty.*").
		Joins("JOIN faculty f ON f.fac_nip = aacsb_faculty.user_id").
		Order("aacsb_faculty.name").
		Find(&out).Error
	return out, translate(err)
}

const managedOutputsSQL = `
SELECT aro.fac_nip, aro.research_id, aro.published_at,
	COALESCE(
		(arc.is_basic::int + arc.is_applied::int + arc.is_teaching::int) = 1 AND
		(arc.is_peer_journal::int + arc.is_other_reviewed::int + arc.is_other_nonreviewed::int) = 1,
		false) AS fully_classified
FROM aacsb_research_outputs aro
JOIN aacsb_faculty af ON af.user_id = aro.fac_nip
LEFT JOIN aacsb_research_classifications arc ON arc.research_id = aro.research_id AND arc.fac_nip = aro.fac_nip
WHERE aro.is_aacsb_managed AND EXTRACT(YEAR FROM aro.published_at) BETWEEN @from AND @to`

func (s *GormStore) ManagedOutputs(ctx context.Context, fromYear, toYear int) ([]models.ManagedOutput, error) {
	var out []models.ManagedOutput
	err := s.DB.WithContext(ctx).
		Raw(managedOutputsSQL, map[string]interface{}{"from": fromYear, "to": toYear}).
		Scan(&out).Error
	return out, translate(err)
}

func (s *GormStore) UnprofiledFaculty(ctx context.Context, excludedDepartments []string) ([]models.FacultyRecord, error) {
	q := s.DB.WithContext(ctx).
		Select("aacsb_faculty.*").
		Joins("LEFT JOIN faculty f ON f.fac_nip = aacsb_faculty.user_id").
		Where("f.fac_nip IS NULL")
	if len(excludedDepartments) > 0 {
		q = q.Where("aacsb_faculty.department IS NULL OR aacsb_faculty.department NOT IN ?", excludedDepartments)
	}
	var out []models.FacultyRecord
	err := q.Order("aacsb_faculty.name").Find(&out).Error
	return out, translate(err)
}

func (s *GormStore) Disciplines(ctx context.Context) ([]models.Discipline, error) {
	var out []models.Discipline
	err := s.DB.WithContext(ctx).Order("level, name").Find(&out).Error
	return out, translate(err)
}
