package models

import (
	"fmt"
	"time"
)

// Axis ist eine der beiden unabhängigen Klassifizierungsachsen.
type Axis string

const (
	AxisNature Axis = "nature"
	AxisReview Axis = "review"
)

// Flag entspricht einer Boolean-Spalte der Klassifizierungstabelle.
type Flag string

const (
	FlagBasic            Flag = "is_basic"
	FlagApplied          Flag = "is_applied"
	FlagTeaching         Flag = "is_teaching"
	FlagPeerJournal      Flag = "is_peer_journal"
	FlagOtherReviewed    Flag = "is_other_reviewed"
	FlagOtherNonreviewed Flag = "is_other_nonreviewed"
)

var axisFlags = map[Axis][]Flag{
	AxisNature: {FlagBasic, FlagApplied, FlagTeaching},
	AxisReview: {FlagPeerJournal, FlagOtherReviewed, FlagOtherNonreviewed},
}

// ParseAxis akzeptiert auch die Altbezeichnungen group1/group2.
func ParseAxis(s string) (Axis, error) {
	switch s {
	case string(AxisNature), "group1", "A":
		return AxisNature, nil
	case string(AxisReview), "group2", "B":
		return AxisReview, nil
	}
	return "", fmt.Errorf("unknown classification axis %q", s)
}

// Flags liefert die Flags der Achse in Spaltenreihenfolge.
func (a Axis) Flags() []Flag {
	return axisFlags[a]
}

// AxisOf bestimmt die Achse eines Flags.
func AxisOf(flag Flag) (Axis, bool) {
	for axis, flags := range axisFlags {
		for _, f := range flags {
			if f == flag {
				return axis, true
			}
		}
	}
	return "", false
}

// Classification hält pro Forschungsergebnis je Achse höchstens ein gesetztes Flag.
type Classification struct {
	FacNIP             string    `json:"fac_nip" gorm:"column:fac_nip;primaryKey;size:32"`
	ResearchID         uint      `json:"research_id" gorm:"column:research_id;primaryKey"`
	IsBasic            bool      `json:"is_basic" gorm:"not null;default:false"`
	IsApplied          bool      `json:"is_applied" gorm:"not null;default:false"`
	IsTeaching         bool      `json:"is_teaching" gorm:"not null;default:false"`
	IsPeerJournal      bool      `json:"is_peer_journal" gorm:"not null;default:false"`
	IsOtherReviewed    bool      `json:"is_other_reviewed" gorm:"not null;default:false"`
	IsOtherNonreviewed bool      `json:"is_other_nonreviewed" gorm:"not null;default:false"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// TableName gibt explizit den Tabellennamen an.
func (Classification) TableName() string {
	return "aacsb_research_classifications"
}

func (c *Classification) field(flag Flag) *bool {
	switch flag {
	case FlagBasic:
		return &c.IsBasic
	case FlagApplied:
		return &c.IsApplied
	case FlagTeaching:
		return &c.IsTeaching
	case FlagPeerJournal:
		return &c.IsPeerJournal
	case FlagOtherReviewed:
		return &c.IsOtherReviewed
	case FlagOtherNonreviewed:
		return &c.IsOtherNonreviewed
	}
	return nil
}

// Value liefert den Wert eines Flags.
func (c Classification) Value(flag Flag) bool {
	if p := c.field(flag); p != nil {
		return *p
	}
	return false
}

// Set setzt flag und löscht alle anderen Flags derselben Achse.
// Die andere Achse bleibt unverändert.
func (c *Classification) Set(flag Flag) error {
	axis, ok := AxisOf(flag)
	if !ok {
		return fmt.Errorf("unknown classification flag %q", flag)
	}
	for _, f := range axis.Flags() {
		*c.field(f) = f == flag
	}
	return nil
}

// Selected liefert das gesetzte Flag einer Achse, falls vorhanden.
func (c Classification) Selected(axis Axis) (Flag, bool) {
	for _, f := range axis.Flags() {
		if c.Value(f) {
			return f, true
		}
	}
	return "", false
}

// FullyClassified ist wahr, wenn auf beiden Achsen genau ein Flag gesetzt ist.
func (c Classification) FullyClassified() bool {
	for _, axis := range []Axis{AxisNature, AxisReview} {
		n := 0
		for _, f := range axis.Flags() {
			if c.Value(f) {
				n++
			}
		}
		if n != 1 {
			return false
		}
	}
	return true
}
