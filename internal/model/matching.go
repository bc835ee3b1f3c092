package model

import (
	"fmt"
	"time"
)

// MatchOutcome is the decision reached for one extracted line.
type MatchOutcome string

// Match outcome constants.
const (
	OutcomeAuto      MatchOutcome = "auto"
	OutcomeSuggested MatchOutcome = "suggested"
	OutcomeUnmatched MatchOutcome = "unmatched"
)

// MatchWeights are the relative per-dimension weights of the composite
// score. They need not sum to 1; the composite is normalized by the total
// weight of the dimensions that were actually comparable.
type MatchWeights struct {
	LicensePlate float64 `json:"licensePlate"`
	Date         float64 `json:"date"`
	Quantity     float64 `json:"quantity"`
	Amount       float64 `json:"amount"`
	FuelType     float64 `json:"fuelType"`
}

// MatchingTolerances configures the scoring engine. Configured once per
// supplier (or as a tenant-wide default) and read-only at match time.
type MatchingTolerances struct {
	DateToleranceDays        int          `json:"dateToleranceDays"`
	QuantityTolerancePercent float64      `json:"quantityTolerancePercent"`
	AmountTolerancePercent   float64      `json:"amountTolerancePercent"`
	AutoMatchThreshold       float64      `json:"autoMatchThreshold"`
	Weights                  MatchWeights `json:"weights"`
}

// DefaultTolerances returns the tenant-wide defaults used when a supplier
// has no specific configuration.
func DefaultTolerances() MatchingTolerances {
	return MatchingTolerances{
		DateToleranceDays:        3,
		QuantityTolerancePercent: 5,
		AmountTolerancePercent:   5,
		AutoMatchThreshold:       0.85,
		Weights: MatchWeights{
			LicensePlate: 0.4,
			Date:         0.2,
			Quantity:     0.15,
			Amount:       0.15,
			FuelType:     0.1,
		},
	}
}

// Validate checks tolerance values for structural problems.
func (t *MatchingTolerances) Validate() error {
	if t.AutoMatchThreshold < 0 || t.AutoMatchThreshold > 1 {
		return fmt.Errorf("%w: autoMatchThreshold must be between 0 and 1", ErrInvalidTolerances)
	}
	if t.DateToleranceDays < 0 {
		return fmt.Errorf("%w: dateToleranceDays must not be negative", ErrInvalidTolerances)
	}
	if t.QuantityTolerancePercent < 0 || t.AmountTolerancePercent < 0 {
		return fmt.Errorf("%w: tolerance percentages must not be negative", ErrInvalidTolerances)
	}
	total := t.Weights.LicensePlate + t.Weights.Date + t.Weights.Quantity +
		t.Weights.Amount + t.Weights.FuelType
	if total <= 0 {
		return fmt.Errorf("%w: at least one weight must be positive", ErrInvalidTolerances)
	}
	return nil
}

// ReferenceRecord is a candidate the matching engine scores extracted lines
// against: a known fuel event or registry entry from the tenant's fleet data.
// Registry-only candidates (a vehicle with no recorded transaction) leave the
// event dimensions nil, which excludes those dimensions from the composite.
type ReferenceRecord struct {
	Date       *time.Time `json:"date,omitempty"`
	Quantity   *float64   `json:"quantity,omitempty"`
	Amount     *float64   `json:"amount,omitempty"`
	FuelType   *string    `json:"fuelType,omitempty"`
	LastSeenAt time.Time  `json:"last_seen_at"`
	CreatedAt  time.Time  `json:"created_at"`
	Plate      string     `json:"plate,omitempty"`
	CardNumber string     `json:"cardNumber,omitempty"`
	VehicleID  int        `json:"vehicleId,omitempty"`
	ID         int        `json:"id"`
}

// Recency returns the timestamp used for deterministic tie-breaking:
// the most recently used candidate wins, falling back to creation time.
func (r *ReferenceRecord) Recency() time.Time {
	if !r.LastSeenAt.IsZero() {
		return r.LastSeenAt
	}
	return r.CreatedAt
}

// MatchScore is the scored pairing of one extracted line with one candidate.
type MatchScore struct {
	Candidate  ReferenceRecord    `json:"candidate"`
	Dimensions map[string]float64 `json:"dimensions"` // per-dimension scores actually compared
	Composite  float64            `json:"composite"`
}

// MatchDecision is the outcome for one extracted line against the full
// candidate set.
type MatchDecision struct {
	Outcome     MatchOutcome     `json:"outcome"`
	Matched     *MatchScore      `json:"matched,omitempty"`     // set for auto outcomes
	Suggestions []MatchScore     `json:"suggestions,omitempty"` // top candidates for manual review
	LineNumber  int              `json:"lineNumber"`
}
