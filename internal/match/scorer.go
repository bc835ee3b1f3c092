// Package match implements the weighted scoring engine that reconciles
// extracted fuel lines against the tenant's reference fleet data.
//
// The engine is stateless and deterministic: identical inputs always yield
// identical decisions, so re-importing the same invoice against unchanged
// reference data can never change its matches.
package match

import (
	"math"
	"time"

	"github.com/flottaio/carburante/internal/model"
	"github.com/flottaio/carburante/internal/normalize"
)

// Dimension names used in MatchScore.Dimensions.
const (
	DimLicensePlate = "licensePlate"
	DimDate         = "date"
	DimQuantity     = "quantity"
	DimAmount       = "amount"
	DimFuelType     = "fuelType"
)

// Scorer computes per-candidate similarity scores.
type Scorer struct {
	fuel normalize.FuelTable
}

// NewScorer creates a scorer using the given fuel-type lookup table.
func NewScorer(fuel normalize.FuelTable) *Scorer {
	return &Scorer{fuel: fuel}
}

// Score computes the weighted composite similarity of one extracted line and
// one candidate. Dimensions where either side has no value are excluded from
// both the numerator and the weight-sum denominator: missing data is neither
// a mismatch nor a silent perfect match. With no comparable dimensions at
// all, the composite is 0 and the pairing can never auto-match.
func (s *Scorer) Score(line *model.ExtractedLine, candidate *model.ReferenceRecord, tolerances model.MatchingTolerances) model.MatchScore {
	dims := make(map[string]float64)
	var weightedSum, totalWeight float64

	include := func(name string, weight, score float64) {
		dims[name] = score
		weightedSum += weight * score
		totalWeight += weight
	}

	if line.LicensePlate != nil && candidate.Plate != "" {
		include(DimLicensePlate, tolerances.Weights.LicensePlate,
			scorePlate(*line.LicensePlate, candidate.Plate))
	}
	if line.Date != nil && candidate.Date != nil {
		include(DimDate, tolerances.Weights.Date,
			scoreDate(*line.Date, *candidate.Date, tolerances.DateToleranceDays))
	}
	if line.Quantity != nil && candidate.Quantity != nil {
		include(DimQuantity, tolerances.Weights.Quantity,
			scoreWithinPercent(*line.Quantity, *candidate.Quantity, tolerances.QuantityTolerancePercent))
	}
	if line.Amount != nil && candidate.Amount != nil {
		include(DimAmount, tolerances.Weights.Amount,
			scoreWithinPercent(*line.Amount, *candidate.Amount, tolerances.AmountTolerancePercent))
	}
	if line.FuelType != nil && candidate.FuelType != nil {
		include(DimFuelType, tolerances.Weights.FuelType,
			s.scoreFuelType(*line.FuelType, *candidate.FuelType))
	}

	composite := 0.0
	if totalWeight > 0 {
		composite = weightedSum / totalWeight
	}

	return model.MatchScore{
		Candidate:  *candidate,
		Dimensions: dims,
		Composite:  composite,
	}
}

// scorePlate compares plates exactly after normalization. Plates are never
// fuzzy-matched: billing the wrong vehicle costs more than a manual review.
func scorePlate(extracted, reference string) float64 {
	if normalize.Plate(extracted) == normalize.Plate(reference) {
		return 1.0
	}
	return 0.0
}

// scoreDate is 1.0 on the same calendar day, decaying linearly to 0.0 at
// toleranceDays away, with a hard cutoff beyond the window.
func scoreDate(extracted, reference time.Time, toleranceDays int) float64 {
	days := math.Abs(truncateDay(extracted).Sub(truncateDay(reference)).Hours() / 24)
	if days == 0 {
		return 1.0
	}
	tolerance := float64(toleranceDays)
	if tolerance <= 0 || days >= tolerance {
		return 0.0
	}
	return 1.0 - days/tolerance
}

// scoreWithinPercent is 1.0 at exact equality, decaying linearly to 0.0 at
// the tolerance percentage of the reference value. The percentage is always
// relative to the reference side so the window stays symmetric and
// predictable for whoever authors the tolerances.
func scoreWithinPercent(extracted, reference, tolerancePercent float64) float64 {
	diff := math.Abs(extracted - reference)
	if diff == 0 {
		return 1.0
	}
	window := math.Abs(reference) * tolerancePercent / 100
	if window <= 0 || diff >= window {
		return 0.0
	}
	return 1.0 - diff/window
}

func (s *Scorer) scoreFuelType(extracted, reference string) float64 {
	if s.fuel.Macro(extracted) == s.fuel.Macro(reference) {
		return 1.0
	}
	return 0.0
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
