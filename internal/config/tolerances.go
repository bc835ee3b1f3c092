package config

import (
	"github.com/spf13/viper"

	"github.com/flottaio/carburante/internal/model"
)

// TolerancesFromViper reads the tenant-wide default matching tolerances from
// configuration, falling back to the built-in defaults for any value that is
// not set. Per-supplier overrides live in storage, not in the config file.
func TolerancesFromViper() model.MatchingTolerances {
	tolerances := model.DefaultTolerances()

	if viper.IsSet("matching.date_tolerance_days") {
		tolerances.DateToleranceDays = viper.GetInt("matching.date_tolerance_days")
	}
	if viper.IsSet("matching.quantity_tolerance_percent") {
		tolerances.QuantityTolerancePercent = viper.GetFloat64("matching.quantity_tolerance_percent")
	}
	if viper.IsSet("matching.amount_tolerance_percent") {
		tolerances.AmountTolerancePercent = viper.GetFloat64("matching.amount_tolerance_percent")
	}
	if viper.IsSet("matching.auto_match_threshold") {
		tolerances.AutoMatchThreshold = viper.GetFloat64("matching.auto_match_threshold")
	}
	if viper.IsSet("matching.weights.license_plate") {
		tolerances.Weights.LicensePlate = viper.GetFloat64("matching.weights.license_plate")
	}
	if viper.IsSet("matching.weights.date") {
		tolerances.Weights.Date = viper.GetFloat64("matching.weights.date")
	}
	if viper.IsSet("matching.weights.quantity") {
		tolerances.Weights.Quantity = viper.GetFloat64("matching.weights.quantity")
	}
	if viper.IsSet("matching.weights.amount") {
		tolerances.Weights.Amount = viper.GetFloat64("matching.weights.amount")
	}
	if viper.IsSet("matching.weights.fuel_type") {
		tolerances.Weights.FuelType = viper.GetFloat64("matching.weights.fuel_type")
	}

	return tolerances
}
