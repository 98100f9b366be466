package hyapi

import (
	"strings"

	"aacsb-sync/normalize"
)

// Envelope ist die Top-Level-Struktur aller Antworten der Hochschul-API.
type Envelope[T any] struct {
	Response struct {
		TotalCount Flex `json:"totalCount"`
		List       []T  `json:"list"`
	} `json:"response"`
}

// Flex nimmt ein JSON-Skalar auf, egal ob die API String, Zahl oder Boolean liefert.
type Flex string

func (f *Flex) UnmarshalJSON(data []byte) error {
	*f = Flex(normalize.FlexibleString(data))
	return nil
}

func (f Flex) String() string {
	return string(f)
}

// FacultyData ist ein Eintrag der Lehrpersonen-Schnittstelle.
// Der Beschäftigungsstatus wird von der API nicht geliefert.
type FacultyData struct {
	UserID             Flex `json:"userId"`
	Campus             Flex `json:"campus"`
	College            Flex `json:"college"`
	Department         Flex `json:"department"`
	TenureTrack        Flex `json:"tenureTrack"`
	JobType            Flex `json:"jobType"`
	JobRank            Flex `json:"jobRank"`
	Name               Flex `json:"name"`
	EnglishName        Flex `json:"englishName"`
	HighestDegree      Flex `json:"highestDegree"`
	Email              Flex `json:"email"`
	BachelorDegreeYear Flex `json:"bachelorDegreeYear"`
	MasterDegreeYear   Flex `json:"masterDegreeYear"`
	DoctoralDegreeYear Flex `json:"doctoralDegreeYear"`
	CreatedAt          Flex `json:"createdAt"`
	UpdatedAt          Flex `json:"updatedAt"`
}

// ResearchData ist ein Eintrag der Forschungsergebnis-Schnittstelle.
// Die API liefert den Titel unter dem falsch geschriebenen Schlüssel "tiltle".
type ResearchData struct {
	ResearchID      Flex `json:"researchId"`
	UserID          Flex `json:"userId"`
	Name            Flex `json:"name"`
	Tiltle          Flex `json:"tiltle"`
	Title           Flex `json:"title"`
	DOI             Flex `json:"doi"`
	PublishedAt     Flex `json:"publishedAt"`
	Publisher       Flex `json:"publisher"`
	JournalName     Flex `json:"journalName"`
	JournalIndex    Flex `json:"journalIndex"`
	Type            Flex `json:"type"`
	JournalCategory Flex `json:"journalCategory"`
	ImpactFactor    Flex `json:"impactFactor"`
	IsQ1Last3Years  Flex `json:"isQ1Last3years"`
	IsDomestic      Flex `json:"isDomestic"`
	Role            Flex `json:"role"`
	CreatedAt       Flex `json:"createdAt"`
	UpdatedAt       Flex `json:"updatedAt"`
}

// title bevorzugt den Schlüssel, den die API tatsächlich liefert.
func (r ResearchData) title() string {
	if t := strings.TrimSpace(r.Tiltle.String()); t != "" {
		return t
	}
	return r.Title.String()
}
