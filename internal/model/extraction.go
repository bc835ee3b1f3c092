package model

import (
	"fmt"
	"time"
)

// ExtractedLine is one structured row produced from a located line-item node.
// Field values are pointers: nil means the value was absent or unparseable,
// which is a normal, representable extraction outcome rather than an error.
type ExtractedLine struct {
	Date         *time.Time `json:"date,omitempty"`
	LicensePlate *string    `json:"licensePlate,omitempty"`
	FuelType     *string    `json:"fuelType,omitempty"`
	Quantity     *float64   `json:"quantity,omitempty"`
	Amount       *float64   `json:"amount,omitempty"`
	CardNumber   *string    `json:"cardNumber,omitempty"`
	OdometerKm   *int       `json:"odometerKm,omitempty"`
	Description  *string    `json:"description,omitempty"`
	UnitPrice    *float64   `json:"unitPrice,omitempty"`

	// RawXML preserves the source node for debugging and manual review.
	RawXML string `json:"rawXml,omitempty"`

	// Errors collects non-fatal extraction complaints for this line,
	// e.g. an unparseable date under the template's stated format.
	Errors []string `json:"errors,omitempty"`

	// LineNumber is the 1-based position within the pre-filter sequence.
	// It is assigned before line filters run and never renumbered, so
	// audit trails can reference the original invoice line.
	LineNumber int `json:"lineNumber"`
}

// FieldString returns the string form of a named field value, with ok=false
// when the field is nil or the name is not recognized. Line filters resolve
// their fieldPath through this accessor, never through the raw XML.
func (l *ExtractedLine) FieldString(name string) (string, bool) {
	switch name {
	case FieldLicensePlate:
		if l.LicensePlate != nil {
			return *l.LicensePlate, true
		}
	case FieldDate:
		if l.Date != nil {
			return l.Date.Format("2006-01-02"), true
		}
	case FieldFuelType:
		if l.FuelType != nil {
			return *l.FuelType, true
		}
	case FieldQuantity:
		if l.Quantity != nil {
			return fmt.Sprintf("%g", *l.Quantity), true
		}
	case FieldAmount:
		if l.Amount != nil {
			return fmt.Sprintf("%g", *l.Amount), true
		}
	case FieldCardNumber:
		if l.CardNumber != nil {
			return *l.CardNumber, true
		}
	case FieldOdometerKm:
		if l.OdometerKm != nil {
			return fmt.Sprintf("%d", *l.OdometerKm), true
		}
	case FieldDescription:
		if l.Description != nil {
			return *l.Description, true
		}
	case FieldUnitPrice:
		if l.UnitPrice != nil {
			return fmt.Sprintf("%g", *l.UnitPrice), true
		}
	}
	return "", false
}

// AddError records a non-fatal extraction complaint for this line.
func (l *ExtractedLine) AddError(format string, args ...any) {
	l.Errors = append(l.Errors, fmt.Sprintf(format, args...))
}

// InvoiceMetadata carries invoice-level fields read from the document root.
type InvoiceMetadata struct {
	InvoiceDate   *time.Time `json:"invoiceDate,omitempty"`
	InvoiceNumber string     `json:"invoiceNumber,omitempty"`
	SupplierVAT   string     `json:"supplierVat,omitempty"`
}

// ExtractionResult is the complete outcome of running a template against one
// invoice document.
type ExtractionResult struct {
	InvoiceMetadata InvoiceMetadata `json:"invoiceMetadata"`
	Lines           []ExtractedLine `json:"lines"`
	Errors          []string        `json:"errors,omitempty"`
	TotalLines      int             `json:"totalLines"`    // line nodes located, before filtering
	FilteredLines   int             `json:"filteredLines"` // lines removed by line filters
	Success         bool            `json:"success"`
}
