// Package normalize provides the shared value-normalization helpers used by
// both the extraction and the matching engines: string transforms, license
// plate and fuel-type normalization, locale-aware numeric parsing, and
// template date-format handling.
package normalize

import (
	"strings"

	"github.com/flottaio/carburante/internal/model"
)

// ApplyTransform applies a template transform to an extracted value.
// Transforms are idempotent and never fail on already-clean input; an
// unknown transform leaves the value untouched.
func ApplyTransform(t model.Transform, value string) string {
	switch t {
	case model.TransformUppercase:
		return strings.ToUpper(value)
	case model.TransformLowercase:
		return strings.ToLower(value)
	case model.TransformTrim:
		return strings.TrimSpace(value)
	}
	return value
}

// Plate normalizes a license plate for comparison: whitespace and hyphens
// stripped, uppercase. Plates are compared exactly after this; they are
// never fuzzy-matched.
func Plate(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case ' ', '\t', '-':
			continue
		}
		b.WriteRune(r)
	}
	return strings.ToUpper(b.String())
}

// CardNumber normalizes a fuel card number: spaces and hyphens stripped.
func CardNumber(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case ' ', '\t', '-':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
