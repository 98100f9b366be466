package models

import "time"

// DataSource kennzeichnet die Herkunft eines kanonischen Datensatzes.
type DataSource string

const (
	SourceSpreadsheet DataSource = "SPREADSHEET"
	SourceAPI         DataSource = "API"
	SourceManual      DataSource = "MANUAL"
)

// Bezeichnungen des höchsten Abschlusses, wie sie beide Quellen liefern.
const (
	DegreeBachelor = "학사"
	DegreeMaster   = "석사"
	DegreeDoctoral = "박사"
)

// FacultyRecord ist der kanonische Eintrag einer Lehrperson, genau einer pro UserID.
type FacultyRecord struct {
	UserID           string  `json:"user_id" gorm:"column:user_id;primaryKey;size:32"`
	Campus           *string `json:"campus,omitempty"`
	College          *string `json:"college,omitempty" gorm:"index"`
	Department       *string `json:"department,omitempty"`
	TenureTrack      *string `json:"tenure_track,omitempty"`
	JobType          *string `json:"job_type,omitempty"`
	JobRank          *string `json:"job_rank,omitempty"`
	Name             string  `json:"name" gorm:"not null;index"`
	EnglishName      *string `json:"english_name,omitempty"`
	HighestDegree    *string `json:"highest_degree,omitempty"`
	EmploymentStatus *string `json:"employment_status,omitempty"`
	Email            *string `json:"email,omitempty"`

	// Nur das Jahr passend zu HighestDegree ist fachlich relevant.
	BachelorDegreeYear *int `json:"bachelor_degree_year,omitempty"`
	MasterDegreeYear   *int `json:"master_degree_year,omitempty"`
	DoctoralDegreeYear *int `json:"doctoral_degree_year,omitempty"`

	DataSource DataSource `json:"data_source" gorm:"size:16;not null"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	// SourceUpdatedAt ist der Änderungszeitpunkt laut Quelle; wird nicht gespeichert.
	SourceUpdatedAt *time.Time `json:"-" gorm:"-"`
}

// TableName gibt explizit den Tabellennamen an.
func (FacultyRecord) TableName() string {
	return "aacsb_faculty"
}

// HighestDegreeYear liefert das Abschlussjahr, das zum höchsten Abschluss gehört.
func (f FacultyRecord) HighestDegreeYear() *int {
	if f.HighestDegree == nil {
		return nil
	}
	switch *f.HighestDegree {
	case DegreeBachelor:
		return f.BachelorDegreeYear
	case DegreeMaster:
		return f.MasterDegreeYear
	case DegreeDoctoral:
		return f.DoctoralDegreeYear
	}
	return nil
}
