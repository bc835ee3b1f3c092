package normalize

import (
	"fmt"
	"strconv"
	"strings"
)

// Locale selects the decimal convention for numeric extraction.
type Locale string

// Supported numeric locales.
const (
	LocaleItalian Locale = "it" // decimal comma, dot thousands
	LocaleEnglish Locale = "en" // decimal point, comma thousands
)

// ParseDecimal parses numeric invoice text under the given locale.
// Currency markers and surrounding whitespace are tolerated; anything else
// non-numeric is an error. Callers must treat a parse failure as a null
// value, never as zero.
func ParseDecimal(s string, locale Locale) (float64, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimPrefix(cleaned, "€")
	cleaned = strings.TrimSuffix(cleaned, "€")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return 0, fmt.Errorf("empty numeric value")
	}

	switch locale {
	case LocaleEnglish:
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	case LocaleItalian:
		// Values with a decimal comma use dots as thousands separators.
		// Values without a comma are canonical XML decimals (dot decimal),
		// which FatturaPA amount elements use regardless of locale.
		if strings.Contains(cleaned, ",") {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		}
	default:
		return 0, fmt.Errorf("unknown locale %q", locale)
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable number %q: %w", s, err)
	}
	return value, nil
}

// ParseInt parses integer invoice text (odometer readings) under the given
// locale, rejecting fractional values.
func ParseInt(s string, locale Locale) (int, error) {
	value, err := ParseDecimal(s, locale)
	if err != nil {
		return 0, err
	}
	n := int(value)
	if float64(n) != value {
		return 0, fmt.Errorf("expected integer, got %q", s)
	}
	return n, nil
}
