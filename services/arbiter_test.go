package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aacsb-sync/models"
)

func TestArbiter_Guard(t *testing.T) {
	a := &Arbiter{Now: func() time.Time { return t0 }}
	source := t0.Add(-time.Hour)

	assert.Equal(t, Guard{Kind: GuardNever}, a.Guard(SpreadsheetPolicy, &source))
	assert.Equal(t, Guard{Kind: GuardIfOlder, Before: source}, a.Guard(APIFacultyPolicy, &source))
	assert.Equal(t, Guard{Kind: GuardAlways}, a.Guard(APIFacultyPolicy, nil))
	assert.Equal(t, Guard{Kind: GuardIfOlder, Before: t0}, a.Guard(APIResearchPolicy, nil))
	assert.Equal(t, Guard{Kind: GuardNever}, a.Guard(Policy{Mode: NewerWins, MissingTimestamp: TreatAsStale}, nil))
}

func TestGuard_Admits(t *testing.T) {
	g := Guard{Kind: GuardIfOlder, Before: t0}
	assert.True(t, g.Admits(t0.Add(-time.Second)))
	assert.False(t, g.Admits(t0))
	assert.False(t, g.Admits(t0.Add(time.Second)))
	assert.True(t, Guard{Kind: GuardAlways}.Admits(t0))
	assert.False(t, Guard{Kind: GuardNever}.Admits(time.Time{}))
}

func TestDecide(t *testing.T) {
	existing := &Existing{UpdatedAt: t0}
	assert.Equal(t, models.OutcomeInserted, Decide(nil, Guard{Kind: GuardNever}))
	assert.Equal(t, models.OutcomeSkippedDuplicate, Decide(existing, Guard{Kind: GuardNever}))
	assert.Equal(t, models.OutcomeUpdated, Decide(existing, Guard{Kind: GuardIfOlder, Before: t0.Add(time.Second)}))
}

func TestPoliciesFromConfig(t *testing.T) {
	p, err := PoliciesFromConfig("stale", "newer")
	require.NoError(t, err)
	assert.Equal(t, TreatAsStale, p.For(models.EntityFaculty, models.SourceAPI).MissingTimestamp)
	assert.Equal(t, TreatAsNewer, p.For(models.EntityResearch, models.SourceAPI).MissingTimestamp)
	assert.Equal(t, InsertOnly, p.For(models.EntityResearch, models.SourceSpreadsheet).Mode)
	assert.Equal(t, InsertOnly, p.For(models.EntityResearch, models.SourceManual).Mode)

	_, err = PoliciesFromConfig("sometimes", "now")
	require.Error(t, err)
}
