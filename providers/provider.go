package providers

import (
	"context"

	"aacsb-sync/models"
)

// FacultyItem ist ein roher Lehrpersonen-Datensatz, so wie die Quelle ihn geliefert hat.
// Faculty wendet den Quell-Adapter an und liefert den kanonischen Datensatz oder
// einen Validierungsfehler.
type FacultyItem interface {
	Ref() string
	Faculty() (*models.FacultyRecord, error)
}

// ResearchItem ist ein roher Forschungsergebnis-Datensatz.
type ResearchItem interface {
	Ref() string
	Research() (*models.ResearchOutput, error)
}

// FacultyProvider ist das Interface, das jede Quelle für Lehrpersonen implementieren muss.
type FacultyProvider interface {
	// Name gibt den eindeutigen Namen der Quelle zurück (z.B. "api").
	Name() string
	// Origin bestimmt die Abgleichsregel, die für diese Quelle gilt.
	Origin() models.DataSource
	FetchFaculty(ctx context.Context) ([]FacultyItem, error)
}

// ResearchProvider ist das Interface für Quellen von Forschungsergebnissen.
type ResearchProvider interface {
	Name() string
	Origin() models.DataSource
	FetchResearch(ctx context.Context) ([]ResearchItem, error)
}
