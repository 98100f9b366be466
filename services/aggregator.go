package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"aacsb-sync/config"
	"aacsb-sync/models"
)

// DefaultDiscipline wird verwendet, wenn keine Disziplin angefragt ist.
const DefaultDiscipline = "AS"

// Aggregator berechnet die Akkreditierungsberichte. Er ist zustandslos und
// rechnet bei jedem Aufruf neu.
type Aggregator struct {
	Store               ReportStore
	Logger              *zap.Logger
	WindowYears         int
	ExcludedDepartments []string
	Now                 func() time.Time
}

func NewAggregator(cfg *config.Config, store ReportStore, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		Store:               store,
		Logger:              logger,
		WindowYears:         cfg.ReportWindowYears,
		ExcludedDepartments: cfg.ExcludedDepartments(),
		Now:                 time.Now,
	}
}

// Table31 berechnet je Lehrperson und Semester den Anteil der Lehre in der
// Disziplin, gewichtet mit dem Zeitanteil, in der Spalte ihrer Qualifikation.
func (a *Aggregator) Table31(ctx context.Context, discipline string, year int) ([]models.Table31Row, error) {
	if discipline == "" {
		discipline = DefaultDiscipline
	}
	if year == 0 {
		year = a.Now().Year()
	}

	loads, err := a.Store.TeachingLoads(ctx, discipline, year)
	if err != nil {
		return nil, fmt.Errorf("load teaching for %s/%d: %w", discipline, year, err)
	}

	rows := make([]models.Table31Row, 0, len(loads))
	for _, load := range loads {
		row, known := Table31Row(load)
		if !known {
			a.Logger.Warn("Unbekannte Qualifikation, Zeile ohne Zuordnung",
				zap.String("fac_nip", load.FacNIP),
				zap.Stringp("qualification", load.Profile.FacCQualAACSB2013))
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Discipline != rows[j].Discipline {
			return rows[i].Discipline < rows[j].Discipline
		}
		if rows[i].FacName != rows[j].FacName {
			return rows[i].FacName < rows[j].FacName
		}
		return rows[i].Semester < rows[j].Semester
	})
	return rows, nil
}

// Table31Row berechnet eine Berichtszeile. known ist false, wenn die
// Qualifikation keiner der fünf Kategorien entspricht; dann sind alle Werte 0.
func Table31Row(load models.TeachingLoad) (row models.Table31Row, known bool) {
	p := load.Profile
	row = models.Table31Row{
		Discipline:                         load.Discipline,
		FacNIP:                             load.FacNIP,
		FacName:                            p.FacName,
		Semester:                           load.Semester,
		SpecialtyField1:                    p.SpecialtyField1,
		SpecialtyField2:                    p.SpecialtyField2,
		HighestDegree:                      p.HighestDegree,
		HighestDegreeYear:                  p.HighestDegreeYear,
		NormalProfessionalResponsibilities: p.NormalProfessionalResponsibilities,
	}
	if p.FacTime != nil {
		row.FacTime = *p.FacTime
	}

	share := 0.0
	if load.TotalCredit != 0 {
		share = load.DisciplineCredit / load.TotalCredit * row.FacTime
	}
	share = round2(share)

	qual := ""
	if p.FacCQualAACSB2013 != nil {
		qual = *p.FacCQualAACSB2013
	}
	known = true
	switch qual {
	case models.QualSA:
		row.SA = share
	case models.QualPA:
		row.PA = share
	case models.QualSP:
		row.SP = share
	case models.QualIP:
		row.IP = share
	case models.QualA:
		row.A = share
	default:
		known = false
	}
	return row, known
}

// ResearchStatus zählt je Lehrperson die AACSB-relevanten Ergebnisse der
// letzten WindowYears Jahre (inklusive des laufenden) und wie viele davon
// vollständig klassifiziert sind.
func (a *Aggregator) ResearchStatus(ctx context.Context) (*models.ResearchStatusReport, error) {
	endYear := a.Now().Year()
	window := a.WindowYears
	if window < 1 {
		window = 1
	}
	startYear := endYear - window + 1

	faculty, err := a.Store.ProfiledFaculty(ctx)
	if err != nil {
		return nil, fmt.Errorf("load faculty: %w", err)
	}
	outputs, err := a.Store.ManagedOutputs(ctx, startYear, endYear)
	if err != nil {
		return nil, fmt.Errorf("load managed outputs: %w", err)
	}

	required := make(map[string]int)
	processed := make(map[string]int)
	for _, o := range outputs {
		required[o.FacNIP]++
		if o.FullyClassified {
			processed[o.FacNIP]++
		}
	}

	report := &models.ResearchStatusReport{
		YearRange:   fmt.Sprintf("%d-%d", startYear, endYear),
		FacultyList: make([]models.ResearchStatus, 0, len(faculty)),
	}
	for _, f := range faculty {
		status := models.ResearchStatus{
			UserID:     f.UserID,
			Name:       f.Name,
			Department: f.Department,
			Required:   required[f.UserID],
			Processed:  processed[f.UserID],
		}
		if status.Required > 0 {
			status.Ratio = int(math.Round(float64(status.Processed) / float64(status.Required) * 100))
		}
		report.FacultyList = append(report.FacultyList, status)
	}
	return report, nil
}

// NonMatchedFaculty listet kanonische Lehrpersonen ohne Akkreditierungsprofil.
func (a *Aggregator) NonMatchedFaculty(ctx context.Context) ([]models.NonMatchedFaculty, error) {
	faculty, err := a.Store.UnprofiledFaculty(ctx, a.ExcludedDepartments)
	if err != nil {
		return nil, err
	}
	out := make([]models.NonMatchedFaculty, 0, len(faculty))
	for _, f := range faculty {
		out = append(out, models.NonMatchedFaculty{
			UserID:            f.UserID,
			Name:              f.Name,
			EnglishName:       f.EnglishName,
			College:           f.College,
			Department:        f.Department,
			JobType:           f.JobType,
			JobRank:           f.JobRank,
			HighestDegree:     f.HighestDegree,
			HighestDegreeYear: f.HighestDegreeYear(),
		})
	}
	return out, nil
}

// Disciplines liefert die Disziplinliste.
func (a *Aggregator) Disciplines(ctx context.Context) ([]models.Discipline, error) {
	return a.Store.Disciplines(ctx)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
