// Package extract implements the template-driven extraction engine that
// turns FatturaPA invoice documents into structured fuel line items.
//
// The engine is pure: it holds no mutable state, performs no I/O, and may be
// invoked concurrently, one invocation per document. Data-quality problems
// (unmatched regexes, unparseable dates or numbers, missing paths) are
// represented in the result, never raised as errors; only a structurally
// unparseable document fails the whole call.
package extract

import (
	"github.com/beevik/etree"

	"github.com/flottaio/carburante/internal/fattura"
	"github.com/flottaio/carburante/internal/model"
	"github.com/flottaio/carburante/internal/normalize"
)

// Engine evaluates extraction templates against parsed invoice documents.
type Engine struct {
	locale normalize.Locale
}

// NewEngine creates an extraction engine using the given numeric locale.
func NewEngine(locale normalize.Locale) *Engine {
	if locale == "" {
		locale = normalize.LocaleItalian
	}
	return &Engine{locale: locale}
}

// ExtractBytes parses raw invoice bytes and runs the template against them.
// A document that does not parse as XML yields success=false with a
// document-level error and no lines; lines are never partially returned
// from an unparseable document.
func (e *Engine) ExtractBytes(raw []byte, config model.TemplateConfig) model.ExtractionResult {
	doc, err := fattura.Parse(raw)
	if err != nil {
		return model.ExtractionResult{
			Success: false,
			Errors:  []string{err.Error()},
		}
	}
	return e.Extract(doc, config)
}

// Extract runs the template against a parsed document.
func (e *Engine) Extract(doc *fattura.Document, config model.TemplateConfig) model.ExtractionResult {
	// A line path that resolves to nothing is a valid empty result: many
	// invoices legitimately carry zero fuel lines for a given template.
	lineNodes := doc.Resolve(config.LineXPath)

	lines := make([]model.ExtractedLine, 0, len(lineNodes))
	for i, node := range lineNodes {
		lines = append(lines, e.extractLine(node, i+1, config))
	}

	totalLines := len(lines)
	kept := applyFilters(lines, config.LineFilters)

	return model.ExtractionResult{
		Success:         true,
		Lines:           kept,
		TotalLines:      totalLines,
		FilteredLines:   totalLines - len(kept),
		InvoiceMetadata: e.extractMetadata(doc, config),
	}
}

// extractLine evaluates every field rule independently against one line
// node. Line numbers are assigned here, before filtering, and are stable.
func (e *Engine) extractLine(node *etree.Element, lineNumber int, config model.TemplateConfig) model.ExtractedLine {
	line := model.ExtractedLine{
		LineNumber: lineNumber,
		RawXML:     fattura.InnerXML(node),
	}

	for _, name := range model.FieldNames {
		rule, ok := config.Fields[name]
		if !ok {
			continue
		}
		value, ok := evaluateRule(node, &rule, &line)
		if !ok {
			continue
		}
		e.assignField(&line, name, value, &rule)
	}

	return line
}

// assignField converts the extracted string into the field's typed value.
// Unparseable dates and numbers become nil plus a recorded line error,
// never a placeholder or zero.
func (e *Engine) assignField(line *model.ExtractedLine, name, value string, rule *model.FieldExtractionRule) {
	switch name {
	case model.FieldDate:
		parsed, err := normalize.ParseDate(value, rule.DateFormat)
		if err != nil {
			line.AddError("field %s: %v", name, err)
			return
		}
		line.Date = &parsed
	case model.FieldQuantity:
		parsed, err := normalize.ParseDecimal(value, e.locale)
		if err != nil {
			line.AddError("field %s: %v", name, err)
			return
		}
		line.Quantity = &parsed
	case model.FieldAmount:
		parsed, err := normalize.ParseDecimal(value, e.locale)
		if err != nil {
			line.AddError("field %s: %v", name, err)
			return
		}
		line.Amount = &parsed
	case model.FieldUnitPrice:
		parsed, err := normalize.ParseDecimal(value, e.locale)
		if err != nil {
			line.AddError("field %s: %v", name, err)
			return
		}
		line.UnitPrice = &parsed
	case model.FieldOdometerKm:
		parsed, err := normalize.ParseInt(value, e.locale)
		if err != nil {
			line.AddError("field %s: %v", name, err)
			return
		}
		line.OdometerKm = &parsed
	case model.FieldLicensePlate:
		line.LicensePlate = &value
	case model.FieldFuelType:
		line.FuelType = &value
	case model.FieldCardNumber:
		line.CardNumber = &value
	case model.FieldDescription:
		line.Description = &value
	}
}

// extractMetadata reads invoice-level fields from the document root. These
// never affect per-line extraction and their absence is not an error.
func (e *Engine) extractMetadata(doc *fattura.Document, config model.TemplateConfig) model.InvoiceMetadata {
	var meta model.InvoiceMetadata

	var vatPath string
	if config.SupplierDetection != nil {
		vatPath = config.SupplierDetection.VATNumberPath
	}
	meta.SupplierVAT = doc.SupplierVAT(vatPath)

	if config.InvoiceMetadata == nil {
		return meta
	}

	if path := config.InvoiceMetadata.InvoiceNumberPath; path != "" {
		if number, ok := doc.Text(path); ok {
			meta.InvoiceNumber = number
		}
	}
	if path := config.InvoiceMetadata.InvoiceDatePath; path != "" {
		if text, ok := doc.Text(path); ok {
			format := config.InvoiceMetadata.InvoiceDateFormat
			if format == "" {
				format = "yyyy-MM-dd"
			}
			if parsed, err := normalize.ParseDate(text, format); err == nil {
				meta.InvoiceDate = &parsed
			}
		}
	}

	return meta
}
