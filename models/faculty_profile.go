package models

// FacultyProfile ist der administrativ gepflegte Akkreditierungsdatensatz einer Lehrperson
// (Qualifikation, Zeitanteil, Disziplin). Er wird vom Abgleich nicht verändert.
type FacultyProfile struct {
	FacNIP                             string   `json:"fac_nip" gorm:"column:fac_nip;primaryKey;size:32"`
	FacName                            string   `json:"fac_name" gorm:"column:fac_name"`
	SpecialtyField1                    *string  `json:"specialty_field1,omitempty" gorm:"column:specialty_field1"`
	SpecialtyField2                    *string  `json:"specialty_field2,omitempty" gorm:"column:specialty_field2"`
	HighestDegree                      *string  `json:"highest_degree,omitempty"`
	HighestDegreeYear                  *int     `json:"highest_degree_year,omitempty"`
	NormalProfessionalResponsibilities *string  `json:"normal_professional_responsibilities,omitempty"`
	FacDiscipline                      *string  `json:"fac_discipline,omitempty" gorm:"column:fac_discipline"`
	FacTime                            *float64 `json:"fac_time,omitempty" gorm:"column:fac_time"`
	FacCCatAACSB                       *string  `json:"fac_ccataacsb,omitempty" gorm:"column:fac_ccataacsb"`
	FacCQualAACSB2013                  *string  `json:"fac_cqualaacsb2013,omitempty" gorm:"column:fac_cqualaacsb2013"`
	FullTimeEquivalent                 *float64 `json:"full_time_equivalent,omitempty"`
}

// TableName gibt explizit den Tabellennamen an.
func (FacultyProfile) TableName() string {
	return "faculty"
}

// Teaching ist eine Lehrveranstaltung mit Leistungspunkten in einer Disziplin.
type Teaching struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	FacNIP      string  `json:"fac_nip" gorm:"column:fac_nip;index;size:32;not null"`
	Year        int     `json:"year" gorm:"index;not null"`
	Semester    string  `json:"semester" gorm:"size:8;not null"`
	TDiscipline string  `json:"t_discipline" gorm:"column:t_discipline;size:16;index"`
	Credit      float64 `json:"credit" gorm:"not null;default:0"`
}

// TableName gibt explizit den Tabellennamen an.
func (Teaching) TableName() string {
	return "teaching"
}

// Discipline ist ein Eintrag der Disziplinliste.
type Discipline struct {
	Code  string `json:"code" gorm:"primaryKey;size:16"`
	Name  string `json:"name" gorm:"not null"`
	Level string `json:"level"`
}

// TableName gibt explizit den Tabellennamen an.
func (Discipline) TableName() string {
	return "disciplines"
}
