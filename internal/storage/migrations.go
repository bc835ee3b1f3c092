package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/flottaio/carburante/internal/common"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS templates (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL,
					supplier_vat TEXT NOT NULL,
					config TEXT NOT NULL,
					is_active BOOLEAN DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_templates_supplier ON templates(supplier_vat)`,

				`CREATE TABLE IF NOT EXISTS vehicles (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					plate TEXT UNIQUE NOT NULL,
					fuel_type TEXT,
					make TEXT,
					model TEXT,
					is_active BOOLEAN DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					last_seen_at DATETIME
				)`,

				`CREATE TABLE IF NOT EXISTS employees (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					first_name TEXT NOT NULL,
					last_name TEXT NOT NULL,
					is_active BOOLEAN DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS fuel_cards (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					card_number TEXT UNIQUE NOT NULL,
					supplier TEXT,
					vehicle_id INTEGER REFERENCES vehicles(id),
					employee_id INTEGER REFERENCES employees(id),
					is_active BOOLEAN DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					last_seen_at DATETIME
				)`,

				`CREATE TABLE IF NOT EXISTS invoices (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					hash TEXT UNIQUE NOT NULL,
					run_id TEXT NOT NULL,
					file_name TEXT NOT NULL,
					supplier_vat TEXT,
					invoice_number TEXT,
					invoice_date DATETIME,
					template_id INTEGER REFERENCES templates(id),
					total_lines INTEGER NOT NULL DEFAULT 0,
					filtered_lines INTEGER NOT NULL DEFAULT 0,
					imported_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_invoices_hash ON invoices(hash)`,

				`CREATE TABLE IF NOT EXISTS invoice_lines (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					invoice_id INTEGER NOT NULL REFERENCES invoices(id),
					line_number INTEGER NOT NULL,
					date DATETIME,
					license_plate TEXT,
					fuel_type TEXT,
					quantity REAL,
					amount REAL,
					card_number TEXT,
					odometer_km INTEGER,
					description TEXT,
					unit_price REAL,
					raw_xml TEXT,
					errors TEXT,
					UNIQUE(invoice_id, line_number)
				)`,
				`CREATE INDEX idx_invoice_lines_invoice ON invoice_lines(invoice_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Per-supplier matching tolerances",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS tolerances (
					supplier_vat TEXT PRIMARY KEY,
					date_tolerance_days INTEGER NOT NULL,
					quantity_tolerance_percent REAL NOT NULL,
					amount_tolerance_percent REAL NOT NULL,
					auto_match_threshold REAL NOT NULL,
					weight_license_plate REAL NOT NULL,
					weight_date REAL NOT NULL,
					weight_quantity REAL NOT NULL,
					weight_amount REAL NOT NULL,
					weight_fuel_type REAL NOT NULL,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)
			`)
			return err
		},
	},
	{
		Version:     3,
		Description: "Match decisions per invoice line",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS match_decisions (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					invoice_id INTEGER NOT NULL REFERENCES invoices(id),
					line_number INTEGER NOT NULL,
					outcome TEXT NOT NULL,
					vehicle_id INTEGER REFERENCES vehicles(id),
					composite REAL NOT NULL DEFAULT 0,
					suggestions TEXT,
					decided_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE(invoice_id, line_number)
				)`,
				`CREATE INDEX idx_match_decisions_outcome ON match_decisions(outcome)`,
			}
			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
}

// Migrate applies all pending migrations to bring the schema to the
// expected version.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			description TEXT,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	current, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	if current > ExpectedSchemaVersion {
		return fmt.Errorf("%w: schema version %d is newer than supported version %d",
			common.ErrDatabaseCorrupted, current, ExpectedSchemaVersion)
	}

	for _, migration := range migrations {
		if migration.Version <= current {
			continue
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration transaction: %w", err)
		}

		if err := migration.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", migration.Version, migration.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_migrations (version, description) VALUES (?, ?)",
			migration.Version, migration.Description,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	return nil
}

// SchemaVersion returns the highest applied migration version.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		"SELECT MAX(version) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return int(version.Int64), nil
}
