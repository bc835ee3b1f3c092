package match

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flottaio/carburante/internal/model"
	"github.com/flottaio/carburante/internal/normalize"
)

func newTestEngine() *Engine {
	return NewEngine(normalize.DefaultFuelTable())
}

func TestEngine_NoCandidates(t *testing.T) {
	engine := newTestEngine()
	line := model.ExtractedLine{LineNumber: 4, LicensePlate: strPtr("AB123CD")}

	decision := engine.Match(&line, nil, model.DefaultTolerances())

	assert.Equal(t, model.OutcomeUnmatched, decision.Outcome)
	assert.Equal(t, 4, decision.LineNumber)
	assert.Nil(t, decision.Matched)
	assert.Empty(t, decision.Suggestions)
}

func TestEngine_AutoMatchOnExactPlate(t *testing.T) {
	engine := newTestEngine()
	line := model.ExtractedLine{LineNumber: 1, LicensePlate: strPtr("AB 123 CD")}
	candidates := []model.ReferenceRecord{
		{ID: 1, Plate: "AB123CD", VehicleID: 1},
		{ID: 2, Plate: "GA456EF", VehicleID: 2},
	}

	decision := engine.Match(&line, candidates, model.DefaultTolerances())

	require.Equal(t, model.OutcomeAuto, decision.Outcome)
	require.NotNil(t, decision.Matched)
	assert.Equal(t, 1, decision.Matched.Candidate.ID)
	assert.Equal(t, 1.0, decision.Matched.Composite)
}

func TestEngine_ThresholdIsInclusive(t *testing.T) {
	engine := newTestEngine()

	// Plate agrees, fuel type disagrees: composite is 0.4/0.5 = 0.8.
	line := model.ExtractedLine{
		LineNumber:   1,
		LicensePlate: strPtr("AB123CD"),
		FuelType:     strPtr("GASOLIO"),
	}
	candidates := []model.ReferenceRecord{
		{ID: 1, Plate: "AB123CD", FuelType: strPtr("BENZINA")},
	}

	tolerances := model.DefaultTolerances()
	tolerances.AutoMatchThreshold = 0.8
	decision := engine.Match(&line, candidates, tolerances)
	assert.Equal(t, model.OutcomeAuto, decision.Outcome, "a composite exactly at the threshold auto-matches")

	tolerances.AutoMatchThreshold = 0.801
	decision = engine.Match(&line, candidates, tolerances)
	assert.Equal(t, model.OutcomeSuggested, decision.Outcome)
	assert.Nil(t, decision.Matched)
}

func TestEngine_ZeroScoreIsUnmatchedNotSuggested(t *testing.T) {
	engine := newTestEngine()
	line := model.ExtractedLine{LineNumber: 1, LicensePlate: strPtr("AB123CD")}
	candidates := []model.ReferenceRecord{
		{ID: 1, Plate: "GA456EF"},
		{ID: 2, Plate: "XY789ZW"},
	}

	decision := engine.Match(&line, candidates, model.DefaultTolerances())

	assert.Equal(t, model.OutcomeUnmatched, decision.Outcome)
	assert.Empty(t, decision.Suggestions)
}

func TestEngine_SuggestionsAreCappedAndPositive(t *testing.T) {
	engine := newTestEngine()
	line := model.ExtractedLine{
		LineNumber:   1,
		LicensePlate: strPtr("AB123CD"),
		FuelType:     strPtr("GASOLIO"),
	}

	// Seven candidates score 0.2 (fuel-only agreement), one scores zero.
	candidates := make([]model.ReferenceRecord, 0, 8)
	for i := 1; i <= 7; i++ {
		candidates = append(candidates, model.ReferenceRecord{
			ID: i, Plate: "GA456EF", FuelType: strPtr("DIESEL"),
		})
	}
	candidates = append(candidates, model.ReferenceRecord{
		ID: 8, Plate: "GA456EF", FuelType: strPtr("BENZINA"),
	})

	decision := engine.Match(&line, candidates, model.DefaultTolerances())

	require.Equal(t, model.OutcomeSuggested, decision.Outcome)
	require.Len(t, decision.Suggestions, 5)
	for _, s := range decision.Suggestions {
		assert.Greater(t, s.Composite, 0.0)
	}
}

func TestEngine_TieBreakByRecencyThenID(t *testing.T) {
	engine := newTestEngine()
	line := model.ExtractedLine{LineNumber: 1, FuelType: strPtr("GASOLIO")}

	older := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC)

	candidates := []model.ReferenceRecord{
		{ID: 1, FuelType: strPtr("DIESEL"), LastSeenAt: older},
		{ID: 2, FuelType: strPtr("DIESEL"), LastSeenAt: newer},
		{ID: 3, FuelType: strPtr("DIESEL"), LastSeenAt: newer},
	}

	decision := engine.Match(&line, candidates, model.DefaultTolerances())

	require.Equal(t, model.OutcomeSuggested, decision.Outcome)
	require.Len(t, decision.Suggestions, 3)
	assert.Equal(t, 2, decision.Suggestions[0].Candidate.ID, "more recently seen candidate ranks first")
	assert.Equal(t, 3, decision.Suggestions[1].Candidate.ID, "equal recency breaks by ascending ID")
	assert.Equal(t, 1, decision.Suggestions[2].Candidate.ID)
}

func TestEngine_MatchAllIsDeterministic(t *testing.T) {
	engine := newTestEngine()
	lines := []model.ExtractedLine{
		{LineNumber: 1, LicensePlate: strPtr("AB123CD")},
		{LineNumber: 2, FuelType: strPtr("GASOLIO")},
		{LineNumber: 3},
	}
	candidates := []model.ReferenceRecord{
		{ID: 1, Plate: "AB123CD", FuelType: strPtr("DIESEL")},
		{ID: 2, Plate: "GA456EF", FuelType: strPtr("BENZINA")},
	}
	tolerances := model.DefaultTolerances()

	first := engine.MatchAll(lines, candidates, tolerances)
	second := engine.MatchAll(lines, candidates, tolerances)

	require.Len(t, first, 3)
	assert.Equal(t, first, second, "re-running a match never changes its decisions")
}
