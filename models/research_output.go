package models

import "time"

// OutputKind ist die normalisierte Art eines Forschungsergebnisses.
type OutputKind string

const (
	KindPaper        OutputKind = "paper"
	KindBook         OutputKind = "book"
	KindPresentation OutputKind = "presentation"
	KindFundedGrant  OutputKind = "funded-grant"
	KindOther        OutputKind = "other"
)

// KindOf bildet das Freitextfeld 업적구분 auf eine OutputKind ab.
func KindOf(rawType string) OutputKind {
	switch rawType {
	case "논문":
		return KindPaper
	case "저서":
		return KindBook
	case "학술발표":
		return KindPresentation
	case "연구비수혜":
		return KindFundedGrant
	}
	return KindOther
}

// ResearchOutput ist ein kanonisches Forschungsergebnis.
// APIResearchID ist nur bei API-Datensätzen gesetzt; Datensätze ohne externe ID
// werden über Fingerprint dedupliziert.
type ResearchOutput struct {
	ResearchID    uint    `json:"research_id" gorm:"column:research_id;primaryKey"`
	APIResearchID *string `json:"api_research_id,omitempty" gorm:"column:api_research_id;uniqueIndex;size:64"`
	Fingerprint   *string `json:"-" gorm:"column:fingerprint;size:64;uniqueIndex:idx_research_fingerprint,where:api_research_id IS NULL"`

	FacNIP  string         `json:"fac_nip" gorm:"column:fac_nip;not null;index;size:32"`
	Faculty *FacultyRecord `json:"-" gorm:"foreignKey:FacNIP;references:UserID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Name    *string        `json:"name,omitempty"`

	Title          string     `json:"title" gorm:"not null"`
	EnglishTitle   *string    `json:"english_title,omitempty"`
	DOI            *string    `json:"doi,omitempty" gorm:"column:doi"`
	PublishedAt    time.Time  `json:"published_at" gorm:"type:date;not null;index"`
	Publisher      *string    `json:"publisher,omitempty"`
	JournalName    *string    `json:"journal_name,omitempty"`
	EnglishJournal *string    `json:"english_journal,omitempty"`
	JournalIndex   *string    `json:"journal_index,omitempty"`
	Type           *string    `json:"type,omitempty"`
	Kind           OutputKind `json:"kind" gorm:"size:16;not null;default:'other'"`

	JournalCategory *string  `json:"journal_category,omitempty"`
	ImpactFactor    *float64 `json:"impact_factor,omitempty"`
	IsQ1Last3Years  *bool    `json:"is_q1_last3years,omitempty" gorm:"column:is_q1_last3years"`
	IsPeerReviewed  *bool    `json:"is_peer_reviewed,omitempty"`
	Role            *string  `json:"role,omitempty"`
	IsDomestic      *bool    `json:"is_domestic,omitempty"`

	DataSource     DataSource `json:"data_source" gorm:"size:16;not null"`
	IsAACSBManaged bool       `json:"is_aacsb_managed" gorm:"column:is_aacsb_managed;not null;default:false"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	SourceUpdatedAt *time.Time `json:"-" gorm:"-"`
}

// TableName gibt explizit den Tabellennamen an.
func (ResearchOutput) TableName() string {
	return "aacsb_research_outputs"
}

// ResearchWithClassification ist ein Forschungsergebnis samt Klassifizierung;
// nicht begutachtete Ergebnisse haben alle Flags auf false.
type ResearchWithClassification struct {
	ResearchOutput
	IsBasic            bool `json:"is_basic"`
	IsApplied          bool `json:"is_applied"`
	IsTeaching         bool `json:"is_teaching"`
	IsPeerJournal      bool `json:"is_peer_journal"`
	IsOtherReviewed    bool `json:"is_other_reviewed"`
	IsOtherNonreviewed bool `json:"is_other_nonreviewed"`
}

// ResearchKey ist der natürliche Schlüssel eines Forschungsergebnisses:
// die externe ID oder, falls diese fehlt, der Fingerprint.
type ResearchKey struct {
	APIResearchID string
	Fingerprint   string
}

func (k ResearchKey) IsZero() bool {
	return k.APIResearchID == "" && k.Fingerprint == ""
}

func (k ResearchKey) String() string {
	if k.APIResearchID != "" {
		return "api_research_id=" + k.APIResearchID
	}
	return "fingerprint=" + k.Fingerprint
}
