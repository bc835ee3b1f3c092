// Package model defines the core data structures for the carburante engine.
package model

import (
	"fmt"
	"time"
)

// ExtractionMethod selects how a field value is pulled out of a line node.
type ExtractionMethod string

// Extraction method constants.
const (
	MethodXPath      ExtractionMethod = "XPATH"
	MethodRegex      ExtractionMethod = "REGEX"
	MethodXPathRegex ExtractionMethod = "XPATH_REGEX"
	MethodStatic     ExtractionMethod = "STATIC"
)

// Transform is a post-extraction string normalization step.
type Transform string

// Transform constants.
const (
	TransformUppercase Transform = "uppercase"
	TransformLowercase Transform = "lowercase"
	TransformTrim      Transform = "trim"
)

// FilterAction decides whether a matching line is kept or dropped.
type FilterAction string

// Filter action constants.
const (
	ActionInclude FilterAction = "include"
	ActionExclude FilterAction = "exclude"
)

// Semantic field names recognized by templates. Every key in
// TemplateConfig.Fields must be one of these.
const (
	FieldLicensePlate = "licensePlate"
	FieldDate         = "date"
	FieldFuelType     = "fuelType"
	FieldQuantity     = "quantity"
	FieldAmount       = "amount"
	FieldCardNumber   = "cardNumber"
	FieldOdometerKm   = "odometerKm"
	FieldDescription  = "description"
	FieldUnitPrice    = "unitPrice"
)

// FieldNames lists the recognized semantic fields in a stable order.
var FieldNames = []string{
	FieldLicensePlate,
	FieldDate,
	FieldFuelType,
	FieldQuantity,
	FieldAmount,
	FieldCardNumber,
	FieldOdometerKm,
	FieldDescription,
	FieldUnitPrice,
}

// RegexPattern is one entry of an ordered fallback list. The first pattern
// that matches wins; later patterns are not tried.
type RegexPattern struct {
	Regex      string     `json:"regex"`
	RegexGroup *int       `json:"regexGroup,omitempty"` // default 1
	Transform  *Transform `json:"transform,omitempty"`  // overrides the rule-level transform
}

// FieldExtractionRule describes how a single semantic field is extracted
// from a line node. The Method tag selects the code path; the other fields
// are interpreted according to it.
type FieldExtractionRule struct {
	Method        ExtractionMethod `json:"method"`
	XPath         string           `json:"xpath,omitempty"`
	Regex         string           `json:"regex,omitempty"`
	RegexPatterns []RegexPattern   `json:"regexPatterns,omitempty"`
	RegexGroup    *int             `json:"regexGroup,omitempty"` // default 1
	Transform     *Transform       `json:"transform,omitempty"`
	DateFormat    string           `json:"dateFormat,omitempty"` // e.g. "dd/MM/yyyy"
	StaticValue   string           `json:"staticValue,omitempty"`
}

// LineFilter is an include/exclude predicate applied to the already-extracted
// line record, after all fields have been evaluated.
type LineFilter struct {
	FieldPath string       `json:"fieldPath"`
	Regex     string       `json:"regex"`
	Action    FilterAction `json:"action"`
}

// SupplierDetection holds document-root paths used to recognize which
// supplier issued an invoice.
type SupplierDetection struct {
	VATNumberPath string `json:"vatNumberPath,omitempty"`
}

// InvoiceMetadataPaths holds document-root paths for invoice-level fields.
type InvoiceMetadataPaths struct {
	InvoiceNumberPath string `json:"invoiceNumberPath,omitempty"`
	InvoiceDatePath   string `json:"invoiceDatePath,omitempty"`
	InvoiceDateFormat string `json:"invoiceDateFormat,omitempty"`
}

// TemplateConfig is the per-supplier extraction template. It is immutable at
// extraction time and JSON-serializable for persistence.
type TemplateConfig struct {
	Version           int                            `json:"version"`
	Name              string                         `json:"name,omitempty"`
	LineXPath         string                         `json:"lineXpath"`
	Fields            map[string]FieldExtractionRule `json:"fields"`
	LineFilters       []LineFilter                   `json:"lineFilters,omitempty"`
	SupplierDetection *SupplierDetection             `json:"supplierDetection,omitempty"`
	InvoiceMetadata   *InvoiceMetadataPaths          `json:"invoiceMetadata,omitempty"`
}

// Template pairs a stored template with its supplier identity.
type Template struct {
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Name        string         `json:"name"`
	SupplierVAT string         `json:"supplier_vat"`
	Config      TemplateConfig `json:"config"`
	ID          int            `json:"id"`
	IsActive    bool           `json:"is_active"`
}

// Validate checks the template for structural problems that would make it
// unusable against any document. Data-quality problems (regexes that never
// match, wrong paths) are not validation errors; they surface as null fields
// or per-line errors at extraction time.
func (c *TemplateConfig) Validate() error {
	if c.LineXPath == "" {
		return fmt.Errorf("%w: lineXpath is required", ErrInvalidTemplate)
	}
	if len(c.Fields) == 0 {
		return fmt.Errorf("%w: at least one field rule is required", ErrInvalidTemplate)
	}

	known := make(map[string]bool, len(FieldNames))
	for _, name := range FieldNames {
		known[name] = true
	}

	for name, rule := range c.Fields {
		if !known[name] {
			return fmt.Errorf("%w: unrecognized field %q", ErrInvalidTemplate, name)
		}
		switch rule.Method {
		case MethodXPath:
			if rule.XPath == "" {
				return fmt.Errorf("%w: field %q: XPATH method requires xpath", ErrInvalidTemplate, name)
			}
		case MethodRegex:
			if rule.Regex == "" && len(rule.RegexPatterns) == 0 {
				return fmt.Errorf("%w: field %q: REGEX method requires regex or regexPatterns", ErrInvalidTemplate, name)
			}
		case MethodXPathRegex:
			if rule.XPath == "" {
				return fmt.Errorf("%w: field %q: XPATH_REGEX method requires xpath", ErrInvalidTemplate, name)
			}
			if rule.Regex == "" && len(rule.RegexPatterns) == 0 {
				return fmt.Errorf("%w: field %q: XPATH_REGEX method requires regex or regexPatterns", ErrInvalidTemplate, name)
			}
		case MethodStatic:
			if rule.StaticValue == "" {
				return fmt.Errorf("%w: field %q: STATIC method requires staticValue", ErrInvalidTemplate, name)
			}
		default:
			return fmt.Errorf("%w: field %q: unknown method %q", ErrInvalidTemplate, name, rule.Method)
		}
	}

	for i, filter := range c.LineFilters {
		if filter.FieldPath == "" {
			return fmt.Errorf("%w: lineFilters[%d]: fieldPath is required", ErrInvalidTemplate, i)
		}
		if filter.Regex == "" {
			return fmt.Errorf("%w: lineFilters[%d]: regex is required", ErrInvalidTemplate, i)
		}
		if filter.Action != ActionInclude && filter.Action != ActionExclude {
			return fmt.Errorf("%w: lineFilters[%d]: action must be include or exclude", ErrInvalidTemplate, i)
		}
	}

	return nil
}

// GroupOrDefault returns the capture group for a rule, defaulting to 1.
func (r *FieldExtractionRule) GroupOrDefault() int {
	if r.RegexGroup != nil {
		return *r.RegexGroup
	}
	return 1
}

// GroupOrDefault returns the capture group for a pattern, defaulting to 1.
func (p *RegexPattern) GroupOrDefault() int {
	if p.RegexGroup != nil {
		return *p.RegexGroup
	}
	return 1
}
