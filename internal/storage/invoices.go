package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/flottaio/carburante/internal/common"
	"github.com/flottaio/carburante/internal/model"
)

// SaveExtraction persists an imported invoice together with its extracted
// lines, atomically. The invoice hash is unique: re-importing identical
// content fails with ErrDuplicateInvoice instead of duplicating data.
func (s *SQLiteStorage) SaveExtraction(ctx context.Context, invoice *model.Invoice, lines []model.ExtractedLine) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateInvoice(invoice); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO invoices (
			hash, run_id, file_name, supplier_vat, invoice_number,
			invoice_date, template_id, total_lines, filtered_lines
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, invoice.Hash, invoice.RunID, invoice.FileName, invoice.SupplierVAT,
		invoice.InvoiceNumber, invoice.InvoiceDate, invoice.TemplateID,
		invoice.TotalLines, invoice.FilteredLines)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%s: %w", invoice.FileName, common.ErrDuplicateInvoice)
		}
		return fmt.Errorf("failed to save invoice: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get invoice ID: %w", err)
	}
	invoice.ID = int(id)
	invoice.ImportedAt = time.Now()

	for i := range lines {
		if err := insertLine(ctx, tx, invoice.ID, &lines[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit extraction: %w", err)
	}

	return nil
}

func insertLine(ctx context.Context, tx *sql.Tx, invoiceID int, line *model.ExtractedLine) error {
	var lineErrors *string
	if len(line.Errors) > 0 {
		encoded, err := json.Marshal(line.Errors)
		if err != nil {
			return fmt.Errorf("failed to encode line errors: %w", err)
		}
		s := string(encoded)
		lineErrors = &s
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO invoice_lines (
			invoice_id, line_number, date, license_plate, fuel_type,
			quantity, amount, card_number, odometer_km, description,
			unit_price, raw_xml, errors
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, invoiceID, line.LineNumber, line.Date, line.LicensePlate,
		line.FuelType, line.Quantity, line.Amount, line.CardNumber,
		line.OdometerKm, line.Description, line.UnitPrice, line.RawXML,
		lineErrors)
	if err != nil {
		return fmt.Errorf("failed to save line %d: %w", line.LineNumber, err)
	}
	return nil
}

// HasInvoice reports whether an invoice with the given content hash was
// already imported.
func (s *SQLiteStorage) HasInvoice(ctx context.Context, hash string) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateString(hash, "hash"); err != nil {
		return false, err
	}

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM invoices WHERE hash = ?", hash).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check invoice hash: %w", err)
	}
	return count > 0, nil
}

// GetInvoiceLines retrieves the extracted lines of a stored invoice in line
// order.
func (s *SQLiteStorage) GetInvoiceLines(ctx context.Context, invoiceID int) ([]model.ExtractedLine, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT line_number, date, license_plate, fuel_type, quantity,
			amount, card_number, odometer_km, description, unit_price,
			raw_xml, errors
		FROM invoice_lines
		WHERE invoice_id = ?
		ORDER BY line_number
	`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice lines: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var lines []model.ExtractedLine
	for rows.Next() {
		var line model.ExtractedLine
		var rawXML, lineErrors sql.NullString
		if err := rows.Scan(
			&line.LineNumber, &line.Date, &line.LicensePlate, &line.FuelType,
			&line.Quantity, &line.Amount, &line.CardNumber, &line.OdometerKm,
			&line.Description, &line.UnitPrice, &rawXML, &lineErrors,
		); err != nil {
			return nil, fmt.Errorf("failed to scan invoice line: %w", err)
		}
		line.RawXML = rawXML.String
		if lineErrors.Valid {
			if err := json.Unmarshal([]byte(lineErrors.String), &line.Errors); err != nil {
				return nil, fmt.Errorf("failed to decode line errors: %w", err)
			}
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invoice lines: %w", err)
	}

	return lines, nil
}

// ListInvoices retrieves imported invoices, newest first.
func (s *SQLiteStorage) ListInvoices(ctx context.Context) ([]model.Invoice, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, hash, run_id, file_name, supplier_vat, invoice_number,
			invoice_date, template_id, total_lines, filtered_lines, imported_at
		FROM invoices
		ORDER BY imported_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var invoices []model.Invoice
	for rows.Next() {
		var invoice model.Invoice
		var supplierVAT, invoiceNumber sql.NullString
		var invoiceDate sql.NullTime
		var templateID sql.NullInt64
		if err := rows.Scan(
			&invoice.ID, &invoice.Hash, &invoice.RunID, &invoice.FileName,
			&supplierVAT, &invoiceNumber, &invoiceDate, &templateID,
			&invoice.TotalLines, &invoice.FilteredLines, &invoice.ImportedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoice.SupplierVAT = supplierVAT.String
		invoice.InvoiceNumber = invoiceNumber.String
		if invoiceDate.Valid {
			d := invoiceDate.Time
			invoice.InvoiceDate = &d
		}
		invoice.TemplateID = int(templateID.Int64)
		invoices = append(invoices, invoice)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invoices: %w", err)
	}

	return invoices, nil
}

// SaveDecisions persists the match decisions for an invoice, replacing any
// earlier decisions for the same lines so re-matching stays idempotent.
func (s *SQLiteStorage) SaveDecisions(ctx context.Context, invoiceID int, decisions []model.MatchDecision) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i := range decisions {
		decision := &decisions[i]

		var vehicleID *int
		var composite float64
		if decision.Matched != nil {
			id := decision.Matched.Candidate.VehicleID
			vehicleID = &id
			composite = decision.Matched.Composite
		} else if len(decision.Suggestions) > 0 {
			composite = decision.Suggestions[0].Composite
		}

		var suggestions *string
		if len(decision.Suggestions) > 0 {
			encoded, err := json.Marshal(decision.Suggestions)
			if err != nil {
				return fmt.Errorf("failed to encode suggestions: %w", err)
			}
			s := string(encoded)
			suggestions = &s
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO match_decisions (
				invoice_id, line_number, outcome, vehicle_id, composite, suggestions
			) VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(invoice_id, line_number) DO UPDATE SET
				outcome = excluded.outcome,
				vehicle_id = excluded.vehicle_id,
				composite = excluded.composite,
				suggestions = excluded.suggestions,
				decided_at = CURRENT_TIMESTAMP
		`, invoiceID, decision.LineNumber, string(decision.Outcome),
			vehicleID, composite, suggestions); err != nil {
			return fmt.Errorf("failed to save decision for line %d: %w", decision.LineNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit decisions: %w", err)
	}

	return nil
}

// DecisionCounts tallies stored decisions by outcome for one invoice.
func (s *SQLiteStorage) DecisionCounts(ctx context.Context, invoiceID int) (map[model.MatchOutcome]int, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT outcome, COUNT(*)
		FROM match_decisions
		WHERE invoice_id = ?
		GROUP BY outcome
	`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to count decisions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[model.MatchOutcome]int)
	for rows.Next() {
		var outcome string
		var count int
		if err := rows.Scan(&outcome, &count); err != nil {
			return nil, fmt.Errorf("failed to scan decision count: %w", err)
		}
		counts[model.MatchOutcome(outcome)] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating decision counts: %w", err)
	}

	return counts, nil
}

// GetInvoice retrieves an invoice by ID.
func (s *SQLiteStorage) GetInvoice(ctx context.Context, id int) (*model.Invoice, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var hash string
	err := s.db.QueryRowContext(ctx,
		"SELECT hash FROM invoices WHERE id = ?", id).Scan(&hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("invoice %d: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return s.GetInvoiceByHash(ctx, hash)
}

// GetInvoiceByHash retrieves an invoice by its content hash.
func (s *SQLiteStorage) GetInvoiceByHash(ctx context.Context, hash string) (*model.Invoice, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(hash, "hash"); err != nil {
		return nil, err
	}

	var invoice model.Invoice
	var supplierVAT, invoiceNumber sql.NullString
	var invoiceDate sql.NullTime
	var templateID sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, hash, run_id, file_name, supplier_vat, invoice_number,
			invoice_date, template_id, total_lines, filtered_lines, imported_at
		FROM invoices
		WHERE hash = ?
	`, hash).Scan(
		&invoice.ID, &invoice.Hash, &invoice.RunID, &invoice.FileName,
		&supplierVAT, &invoiceNumber, &invoiceDate, &templateID,
		&invoice.TotalLines, &invoice.FilteredLines, &invoice.ImportedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("invoice: %w", common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	invoice.SupplierVAT = supplierVAT.String
	invoice.InvoiceNumber = invoiceNumber.String
	if invoiceDate.Valid {
		d := invoiceDate.Time
		invoice.InvoiceDate = &d
	}
	invoice.TemplateID = int(templateID.Int64)

	return &invoice, nil
}
