package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"

	"github.com/flottaio/carburante/internal/common"
	"github.com/flottaio/carburante/internal/extract"
	"github.com/flottaio/carburante/internal/fattura"
	"github.com/flottaio/carburante/internal/match"
	"github.com/flottaio/carburante/internal/model"
)

// ImportOptions control one import run.
type ImportOptions struct {
	// TemplateID forces a specific template instead of detecting the
	// supplier from the document's VAT number.
	TemplateID int
	// DryRun extracts and matches without persisting anything.
	DryRun bool
	// ShowProgress renders a progress bar across files.
	ShowProgress bool
}

// FileResult is the outcome for one input file.
type FileResult struct {
	Err       error
	Invoice   *model.Invoice
	File      string
	Result    model.ExtractionResult
	Decisions []model.MatchDecision
	Skipped   bool
}

// ImportSummary aggregates one import run.
type ImportSummary struct {
	RunID     string
	Results   []FileResult
	Imported  int
	Skipped   int
	Failed    int
	Auto      int
	Suggested int
	Unmatched int
}

// Importer runs the import pipeline over invoice files.
type Importer struct {
	storage   Storage
	extractor *extract.Engine
	matcher   *match.Engine
}

// NewImporter creates an import pipeline over the given storage and engines.
func NewImporter(storage Storage, extractor *extract.Engine, matcher *match.Engine) *Importer {
	return &Importer{
		storage:   storage,
		extractor: extractor,
		matcher:   matcher,
	}
}

// ImportFiles processes the given invoice files in order. Per-file failures
// (unreadable file, malformed XML, unknown supplier) are recorded in the
// summary and do not abort the run; only context cancellation and storage
// failures on shared state do.
func (imp *Importer) ImportFiles(ctx context.Context, paths []string, opts ImportOptions) (*ImportSummary, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no files to import")
	}

	// The candidate set is fetched once per run so every file in the run
	// is matched against the same reference data.
	candidates, err := imp.storage.GetCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidates: %w", err)
	}

	summary := &ImportSummary{RunID: uuid.NewString()}

	var bar *progressbar.ProgressBar
	if opts.ShowProgress {
		bar = progressbar.Default(int64(len(paths)), "importing invoices")
	}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("import interrupted: %w", err)
		}

		result := imp.importFile(ctx, path, candidates, summary.RunID, opts)
		summary.add(result)

		if bar != nil {
			_ = bar.Add(1)
		}
	}

	slog.Info("Import run complete",
		"run_id", summary.RunID,
		"files", len(paths),
		"imported", summary.Imported,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"auto", summary.Auto,
		"suggested", summary.Suggested,
		"unmatched", summary.Unmatched)

	return summary, nil
}

func (imp *Importer) importFile(ctx context.Context, path string, candidates []model.ReferenceRecord, runID string, opts ImportOptions) FileResult {
	result := FileResult{File: path}

	raw, err := os.ReadFile(path)
	if err != nil {
		result.Err = fmt.Errorf("failed to read %s: %w", path, err)
		return result
	}

	hash := model.InvoiceHash(raw)
	if !opts.DryRun {
		exists, err := imp.storage.HasInvoice(ctx, hash)
		if err != nil {
			result.Err = err
			return result
		}
		if exists {
			result.Skipped = true
			result.Err = fmt.Errorf("%s: %w", filepath.Base(path), common.ErrDuplicateInvoice)
			return result
		}
	}

	doc, err := fattura.Parse(raw)
	if err != nil {
		result.Result = model.ExtractionResult{Success: false, Errors: []string{err.Error()}}
		result.Err = err
		return result
	}

	template, err := imp.resolveTemplate(ctx, doc, opts.TemplateID)
	if err != nil {
		result.Err = err
		return result
	}

	extraction := imp.extractor.Extract(doc, template.Config)
	result.Result = extraction

	tolerances, err := imp.storage.GetTolerances(ctx, template.SupplierVAT)
	if err != nil {
		result.Err = err
		return result
	}

	result.Decisions = imp.matcher.MatchAll(extraction.Lines, candidates, tolerances)

	invoice := &model.Invoice{
		Hash:          hash,
		RunID:         runID,
		FileName:      filepath.Base(path),
		SupplierVAT:   extraction.InvoiceMetadata.SupplierVAT,
		InvoiceNumber: extraction.InvoiceMetadata.InvoiceNumber,
		InvoiceDate:   extraction.InvoiceMetadata.InvoiceDate,
		TemplateID:    template.ID,
		TotalLines:    extraction.TotalLines,
		FilteredLines: extraction.FilteredLines,
	}
	result.Invoice = invoice

	if opts.DryRun {
		return result
	}

	if err := imp.storage.SaveExtraction(ctx, invoice, extraction.Lines); err != nil {
		result.Err = err
		return result
	}
	if err := imp.storage.SaveDecisions(ctx, invoice.ID, result.Decisions); err != nil {
		result.Err = err
		return result
	}

	for _, decision := range result.Decisions {
		if decision.Outcome != model.OutcomeAuto || decision.Matched == nil {
			continue
		}
		if err := imp.storage.TouchVehicle(ctx, decision.Matched.Candidate.VehicleID); err != nil {
			slog.Warn("Failed to update vehicle recency",
				"vehicle_id", decision.Matched.Candidate.VehicleID,
				"error", err)
		}
	}

	return result
}

// resolveTemplate picks the template for a document: the explicitly
// requested one, or the active template registered for the supplier VAT
// found in the document header.
func (imp *Importer) resolveTemplate(ctx context.Context, doc *fattura.Document, templateID int) (*model.Template, error) {
	if templateID != 0 {
		return imp.storage.GetTemplate(ctx, templateID)
	}

	vat := doc.SupplierVAT("")
	if vat == "" {
		return nil, fmt.Errorf("%w: document has no supplier VAT and no template was specified", common.ErrNoTemplate)
	}

	template, err := imp.storage.GetTemplateBySupplier(ctx, vat)
	if err != nil {
		return nil, fmt.Errorf("%w: supplier VAT %s", common.ErrNoTemplate, vat)
	}
	return template, nil
}

func (s *ImportSummary) add(result FileResult) {
	s.Results = append(s.Results, result)

	switch {
	case result.Skipped:
		s.Skipped++
	case result.Err != nil:
		s.Failed++
	default:
		s.Imported++
	}

	for _, decision := range result.Decisions {
		switch decision.Outcome {
		case model.OutcomeAuto:
			s.Auto++
		case model.OutcomeSuggested:
			s.Suggested++
		case model.OutcomeUnmatched:
			s.Unmatched++
		}
	}
}
