package match

import (
	"sort"

	"github.com/flottaio/carburante/internal/model"
	"github.com/flottaio/carburante/internal/normalize"
)

// maxSuggestions bounds how many ranked candidates are surfaced for manual
// confirmation when no candidate clears the auto-match threshold.
const maxSuggestions = 5

// Engine ranks candidates per extracted line and applies the decision
// policy: auto-match at or above the threshold, suggestions above zero,
// unmatched otherwise.
type Engine struct {
	scorer *Scorer
}

// NewEngine creates a matching engine using the given fuel-type table.
func NewEngine(fuel normalize.FuelTable) *Engine {
	return &Engine{scorer: NewScorer(fuel)}
}

// Scorer exposes the engine's scorer for callers that need raw scores.
func (e *Engine) Scorer() *Scorer {
	return e.scorer
}

// Match decides the outcome for one extracted line against the full
// candidate set.
func (e *Engine) Match(line *model.ExtractedLine, candidates []model.ReferenceRecord, tolerances model.MatchingTolerances) model.MatchDecision {
	decision := model.MatchDecision{
		LineNumber: line.LineNumber,
		Outcome:    model.OutcomeUnmatched,
	}
	if len(candidates) == 0 {
		return decision
	}

	scores := make([]model.MatchScore, 0, len(candidates))
	for i := range candidates {
		scores = append(scores, e.scorer.Score(line, &candidates[i], tolerances))
	}
	rank(scores)

	top := scores[0]
	if top.Composite <= 0 {
		return decision
	}

	// The threshold is inclusive: a composite exactly at the threshold
	// auto-matches.
	if top.Composite >= tolerances.AutoMatchThreshold {
		decision.Outcome = model.OutcomeAuto
		decision.Matched = &top
		return decision
	}

	decision.Outcome = model.OutcomeSuggested
	for _, score := range scores {
		if score.Composite <= 0 || len(decision.Suggestions) == maxSuggestions {
			break
		}
		decision.Suggestions = append(decision.Suggestions, score)
	}
	return decision
}

// MatchAll decides outcomes for every extracted line independently.
func (e *Engine) MatchAll(lines []model.ExtractedLine, candidates []model.ReferenceRecord, tolerances model.MatchingTolerances) []model.MatchDecision {
	decisions := make([]model.MatchDecision, 0, len(lines))
	for i := range lines {
		decisions = append(decisions, e.Match(&lines[i], candidates, tolerances))
	}
	return decisions
}

// rank orders scores by composite descending. Ties break by candidate
// recency, most recently seen first, then by ascending candidate ID so the
// ordering is fully deterministic.
func rank(scores []model.MatchScore) {
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Composite != scores[j].Composite {
			return scores[i].Composite > scores[j].Composite
		}
		ri, rj := scores[i].Candidate.Recency(), scores[j].Candidate.Recency()
		if !ri.Equal(rj) {
			return ri.After(rj)
		}
		return scores[i].Candidate.ID < scores[j].Candidate.ID
	})
}
