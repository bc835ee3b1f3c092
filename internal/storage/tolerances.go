package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/flottaio/carburante/internal/model"
)

// tenantDefaultKey is the tolerances row holding the tenant-wide default.
const tenantDefaultKey = ""

// SaveTolerances stores matching tolerances for a supplier. An empty
// supplier VAT sets the tenant-wide default.
func (s *SQLiteStorage) SaveTolerances(ctx context.Context, supplierVAT string, tolerances model.MatchingTolerances) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := tolerances.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tolerances (
			supplier_vat, date_tolerance_days,
			quantity_tolerance_percent, amount_tolerance_percent,
			auto_match_threshold, weight_license_plate, weight_date,
			weight_quantity, weight_amount, weight_fuel_type
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(supplier_vat) DO UPDATE SET
			date_tolerance_days = excluded.date_tolerance_days,
			quantity_tolerance_percent = excluded.quantity_tolerance_percent,
			amount_tolerance_percent = excluded.amount_tolerance_percent,
			auto_match_threshold = excluded.auto_match_threshold,
			weight_license_plate = excluded.weight_license_plate,
			weight_date = excluded.weight_date,
			weight_quantity = excluded.weight_quantity,
			weight_amount = excluded.weight_amount,
			weight_fuel_type = excluded.weight_fuel_type,
			updated_at = CURRENT_TIMESTAMP
	`, supplierVAT, tolerances.DateToleranceDays,
		tolerances.QuantityTolerancePercent, tolerances.AmountTolerancePercent,
		tolerances.AutoMatchThreshold, tolerances.Weights.LicensePlate,
		tolerances.Weights.Date, tolerances.Weights.Quantity,
		tolerances.Weights.Amount, tolerances.Weights.FuelType)
	if err != nil {
		return fmt.Errorf("failed to save tolerances: %w", err)
	}

	return nil
}

// GetTolerances resolves the tolerances for a supplier: the supplier's own
// row if present, then the stored tenant default, then the built-in default.
func (s *SQLiteStorage) GetTolerances(ctx context.Context, supplierVAT string) (model.MatchingTolerances, error) {
	if err := validateContext(ctx); err != nil {
		return model.MatchingTolerances{}, err
	}

	for _, key := range []string{supplierVAT, tenantDefaultKey} {
		tolerances, err := s.getTolerancesRow(ctx, key)
		if err == nil {
			return tolerances, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return model.MatchingTolerances{}, err
		}
	}

	return model.DefaultTolerances(), nil
}

func (s *SQLiteStorage) getTolerancesRow(ctx context.Context, supplierVAT string) (model.MatchingTolerances, error) {
	var t model.MatchingTolerances
	err := s.db.QueryRowContext(ctx, `
		SELECT date_tolerance_days, quantity_tolerance_percent,
			amount_tolerance_percent, auto_match_threshold,
			weight_license_plate, weight_date, weight_quantity,
			weight_amount, weight_fuel_type
		FROM tolerances
		WHERE supplier_vat = ?
	`, supplierVAT).Scan(
		&t.DateToleranceDays, &t.QuantityTolerancePercent,
		&t.AmountTolerancePercent, &t.AutoMatchThreshold,
		&t.Weights.LicensePlate, &t.Weights.Date, &t.Weights.Quantity,
		&t.Weights.Amount, &t.Weights.FuelType,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return t, err
		}
		return t, fmt.Errorf("failed to get tolerances: %w", err)
	}
	return t, nil
}
