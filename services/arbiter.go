package services

import (
	"fmt"
	"time"

	"aacsb-sync/models"
)

// Mode legt fest, wie eine Quelle mit bereits bekannten Schlüsseln umgeht.
type Mode int

const (
	// InsertOnly legt nur neue Datensätze an und überschreibt nie.
	InsertOnly Mode = iota
	// NewerWins überschreibt, wenn der Quellzeitstempel neuer als der gespeicherte ist.
	NewerWins
)

// MissingTimestamp legt fest, wie ein fehlender Quellzeitstempel gewertet wird.
type MissingTimestamp int

const (
	TreatAsNewer MissingTimestamp = iota
	AssumeNow
	TreatAsStale
)

// ParseMissingTimestamp liest die Konfigurationswerte newer|now|stale.
func ParseMissingTimestamp(s string) (MissingTimestamp, error) {
	switch s {
	case "newer":
		return TreatAsNewer, nil
	case "now":
		return AssumeNow, nil
	case "stale":
		return TreatAsStale, nil
	}
	return 0, fmt.Errorf("unknown missing-timestamp policy %q (want newer|now|stale)", s)
}

// Policy ist die Abgleichsstrategie einer Quelle.
type Policy struct {
	Mode             Mode
	MissingTimestamp MissingTimestamp
}

// Standardstrategien je Quelle.
var (
	SpreadsheetPolicy = Policy{Mode: InsertOnly}
	APIFacultyPolicy  = Policy{Mode: NewerWins, MissingTimestamp: TreatAsNewer}
	APIResearchPolicy = Policy{Mode: NewerWins, MissingTimestamp: AssumeNow}
)

// GuardKind beschreibt, wann ein vorhandener Datensatz überschrieben wird.
type GuardKind int

const (
	GuardNever GuardKind = iota
	GuardAlways
	GuardIfOlder
)

// Guard ist die Überschreibbedingung für genau einen Schreibvorgang.
// Der Store wertet sie atomar zusammen mit dem Schreiben aus.
type Guard struct {
	Kind   GuardKind
	Before time.Time
}

// Admits meldet, ob ein gespeicherter Datensatz mit storedUpdatedAt überschrieben werden darf.
func (g Guard) Admits(storedUpdatedAt time.Time) bool {
	switch g.Kind {
	case GuardAlways:
		return true
	case GuardIfOlder:
		return storedUpdatedAt.Before(g.Before)
	}
	return false
}

func (g Guard) String() string {
	switch g.Kind {
	case GuardAlways:
		return "always"
	case GuardIfOlder:
		return "if-older-than " + g.Before.Format(time.RFC3339)
	}
	return "never"
}

// Arbiter übersetzt Strategie und Quellzeitstempel in einen Guard.
type Arbiter struct {
	Now func() time.Time
}

// Guard bestimmt die Überschreibbedingung für einen eingehenden Datensatz.
func (a *Arbiter) Guard(p Policy, sourceUpdatedAt *time.Time) Guard {
	if p.Mode == InsertOnly {
		return Guard{Kind: GuardNever}
	}
	if sourceUpdatedAt != nil {
		return Guard{Kind: GuardIfOlder, Before: *sourceUpdatedAt}
	}
	switch p.MissingTimestamp {
	case AssumeNow:
		return Guard{Kind: GuardIfOlder, Before: a.Now()}
	case TreatAsStale:
		return Guard{Kind: GuardNever}
	}
	return Guard{Kind: GuardAlways}
}

// Decide sagt das Ergebnis eines Schreibvorgangs voraus, ohne zu schreiben.
func Decide(existing *Existing, g Guard) models.Outcome {
	if existing == nil {
		return models.OutcomeInserted
	}
	if g.Admits(existing.UpdatedAt) {
		return models.OutcomeUpdated
	}
	return models.OutcomeSkippedDuplicate
}

// Policies ordnet jeder Herkunft ihre Strategie zu, getrennt nach Entität.
type Policies struct {
	Faculty  map[models.DataSource]Policy
	Research map[models.DataSource]Policy
}

// DefaultPolicies liefert die Standardstrategien: Tabellen nur einfügen,
// API nach Zeitstempel abgleichen.
func DefaultPolicies() Policies {
	return Policies{
		Faculty: map[models.DataSource]Policy{
			models.SourceSpreadsheet: SpreadsheetPolicy,
			models.SourceAPI:         APIFacultyPolicy,
		},
		Research: map[models.DataSource]Policy{
			models.SourceSpreadsheet: SpreadsheetPolicy,
			models.SourceAPI:         APIResearchPolicy,
		},
	}
}

// PoliciesFromConfig überschreibt die Behandlung fehlender API-Zeitstempel.
func PoliciesFromConfig(facultyMissing, researchMissing string) (Policies, error) {
	p := DefaultPolicies()
	fm, err := ParseMissingTimestamp(facultyMissing)
	if err != nil {
		return p, fmt.Errorf("faculty: %w", err)
	}
	rm, err := ParseMissingTimestamp(researchMissing)
	if err != nil {
		return p, fmt.Errorf("research: %w", err)
	}
	p.Faculty[models.SourceAPI] = Policy{Mode: NewerWins, MissingTimestamp: fm}
	p.Research[models.SourceAPI] = Policy{Mode: NewerWins, MissingTimestamp: rm}
	return p, nil
}

// For liefert die Strategie für entity und origin; unbekannte Herkünfte
// dürfen nur einfügen.
func (p Policies) For(entity string, origin models.DataSource) Policy {
	m := p.Faculty
	if entity == models.EntityResearch {
		m = p.Research
	}
	if policy, ok := m[origin]; ok {
		return policy
	}
	return Policy{Mode: InsertOnly}
}
