package models

import "time"

// Qualifikationskategorien der Tabelle 3-1.
const (
	QualSA = "SA"
	QualPA = "PA"
	QualSP = "SP"
	QualIP = "IP"
	QualA  = "A"
)

// TeachingLoad ist die Eingabe der Aggregation: Lehrleistung einer Person in einem Semester,
// einmal in der angefragten Disziplin und einmal insgesamt.
type TeachingLoad struct {
	FacNIP           string
	Year             int
	Semester         string
	Discipline       string
	DisciplineCredit float64
	TotalCredit      float64
	Profile          FacultyProfile
}

// Table31Row ist eine Zeile des Berichts "Table 3-1".
type Table31Row struct {
	Discipline                         string  `json:"discipline"`
	FacNIP                             string  `json:"fac_nip"`
	FacName                            string  `json:"fac_name"`
	Semester                           string  `json:"semester"`
	SpecialtyField1                    *string `json:"specialty_field1"`
	SpecialtyField2                    *string `json:"specialty_field2"`
	HighestDegree                      *string `json:"highest_degree"`
	HighestDegreeYear                  *int    `json:"highest_degree_year"`
	NormalProfessionalResponsibilities *string `json:"normal_professional_responsibilities"`
	FacTime                            float64 `json:"fac_time"`
	SA                                 float64 `json:"sa"`
	PA                                 float64 `json:"pa"`
	SP                                 float64 `json:"sp"`
	IP                                 float64 `json:"ip"`
	A                                  float64 `json:"a"`
}

// ManagedOutput ist ein AACSB-relevantes Ergebnis mit Klassifizierungsstand.
type ManagedOutput struct {
	FacNIP          string    `gorm:"column:fac_nip"`
	ResearchID      uint      `gorm:"column:research_id"`
	PublishedAt     time.Time `gorm:"column:published_at"`
	FullyClassified bool      `gorm:"column:fully_classified"`
}

// ResearchStatus beschreibt den Bearbeitungsfortschritt einer Lehrperson.
type ResearchStatus struct {
	UserID     string  `json:"user_id"`
	Name       string  `json:"name"`
	Department *string `json:"department"`
	Required   int     `json:"required"`
	Processed  int     `json:"processed"`
	Ratio      int     `json:"ratio"`
}

// ResearchStatusReport bündelt den Fortschritt aller Lehrpersonen.
type ResearchStatusReport struct {
	YearRange   string           `json:"year_range"`
	FacultyList []ResearchStatus `json:"faculty_list"`
}

// NonMatchedFaculty ist eine Lehrperson ohne Akkreditierungsprofil.
type NonMatchedFaculty struct {
	UserID            string  `json:"user_id"`
	Name              string  `json:"name"`
	EnglishName       *string `json:"english_name"`
	College           *string `json:"college"`
	Department        *string `json:"department"`
	JobType           *string `json:"job_type"`
	JobRank           *string `json:"job_rank"`
	HighestDegree     *string `json:"highest_degree"`
	HighestDegreeYear *int    `json:"highest_degree_year"`
}
