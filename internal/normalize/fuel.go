package normalize

import (
	"sort"
	"strings"
)

// Macro fuel categories.
const (
	FuelPetrol     = "PETROL"
	FuelDiesel     = "DIESEL"
	FuelLPG        = "LPG"
	FuelNaturalGas = "NATURAL_GAS"
	FuelAdBlue     = "ADBLUE"
	FuelElectric   = "ELECTRIC"
)

// FuelTable maps heterogeneous supplier fuel-type strings to macro fuel
// categories. It is immutable after construction so engines holding one stay
// pure and independently testable.
type FuelTable struct {
	macros map[string]string
	keys   []string // sorted by descending length for substring lookup
}

// NewFuelTable builds a lookup table from supplier spelling to macro
// category. Keys are matched case-insensitively, exact first, then as
// substrings of the candidate value (longest key wins).
func NewFuelTable(mapping map[string]string) FuelTable {
	macros := make(map[string]string, len(mapping))
	keys := make([]string, 0, len(mapping))
	for k, v := range mapping {
		key := strings.ToUpper(strings.TrimSpace(k))
		macros[key] = v
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return FuelTable{macros: macros, keys: keys}
}

// DefaultFuelTable covers the spellings seen across Italian fuel-card
// issuers.
func DefaultFuelTable() FuelTable {
	return NewFuelTable(map[string]string{
		"BENZINA":      FuelPetrol,
		"SUPER":        FuelPetrol,
		"SUPER 95":     FuelPetrol,
		"SUPER 98":     FuelPetrol,
		"SP95":         FuelPetrol,
		"SP98":         FuelPetrol,
		"SENZA PIOMBO": FuelPetrol,
		"UNLEADED":     FuelPetrol,
		"GASOLIO":      FuelDiesel,
		"DIESEL":       FuelDiesel,
		"BLUE DIESEL":  FuelDiesel,
		"HVO":          FuelDiesel,
		"GPL":          FuelLPG,
		"LPG":          FuelLPG,
		"METANO":       FuelNaturalGas,
		"CNG":          FuelNaturalGas,
		"LNG":          FuelNaturalGas,
		"ADBLUE":       FuelAdBlue,
		"AD BLUE":      FuelAdBlue,
		"ELETTRICO":    FuelElectric,
		"ELECTRIC":     FuelElectric,
		"RICARICA":     FuelElectric,
	})
}

// Macro resolves a supplier fuel-type string to its macro category. Unknown
// values fall back to the trimmed, uppercased input so comparisons still work
// for suppliers the table does not know about.
func (t FuelTable) Macro(s string) string {
	candidate := strings.ToUpper(strings.TrimSpace(s))
	if candidate == "" {
		return ""
	}
	if macro, ok := t.macros[candidate]; ok {
		return macro
	}
	for _, key := range t.keys {
		if strings.Contains(candidate, key) {
			return t.macros[key]
		}
	}
	return candidate
}
