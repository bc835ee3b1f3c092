package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/flottaio/carburante/internal/common"
	"github.com/flottaio/carburante/internal/model"
)

// CreateTemplate persists a new extraction template. The template config is
// stored as JSON so template versions can migrate forward without schema
// changes.
func (s *SQLiteStorage) CreateTemplate(ctx context.Context, template *model.Template) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTemplate(template); err != nil {
		return err
	}

	config, err := json.Marshal(template.Config)
	if err != nil {
		return fmt.Errorf("failed to encode template config: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO templates (name, supplier_vat, config, is_active)
		VALUES (?, ?, ?, ?)
	`, template.Name, template.SupplierVAT, string(config), template.IsActive)
	if err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get template ID: %w", err)
	}

	template.ID = int(id)
	template.CreatedAt = time.Now()
	template.UpdatedAt = time.Now()

	return nil
}

// GetTemplate retrieves a template by ID.
func (s *SQLiteStorage) GetTemplate(ctx context.Context, id int) (*model.Template, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, supplier_vat, config, is_active, created_at, updated_at
		FROM templates
		WHERE id = ?
	`, id)

	return scanTemplate(row)
}

// GetTemplateBySupplier retrieves the active template for a supplier VAT
// number, used for auto-detection during import.
func (s *SQLiteStorage) GetTemplateBySupplier(ctx context.Context, supplierVAT string) (*model.Template, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(supplierVAT, "supplierVAT"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, supplier_vat, config, is_active, created_at, updated_at
		FROM templates
		WHERE supplier_vat = ? AND is_active = 1
		ORDER BY updated_at DESC
		LIMIT 1
	`, supplierVAT)

	return scanTemplate(row)
}

// ListTemplates retrieves all templates, active first, newest first.
func (s *SQLiteStorage) ListTemplates(ctx context.Context) ([]model.Template, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, supplier_vat, config, is_active, created_at, updated_at
		FROM templates
		ORDER BY is_active DESC, updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var templates []model.Template
	for rows.Next() {
		template, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, *template)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating templates: %w", err)
	}

	return templates, nil
}

// UpdateTemplate replaces an existing template's config and metadata.
func (s *SQLiteStorage) UpdateTemplate(ctx context.Context, template *model.Template) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTemplate(template); err != nil {
		return err
	}

	config, err := json.Marshal(template.Config)
	if err != nil {
		return fmt.Errorf("failed to encode template config: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE templates
		SET name = ?, supplier_vat = ?, config = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, template.Name, template.SupplierVAT, string(config), template.IsActive, template.ID)
	if err != nil {
		return fmt.Errorf("failed to update template: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("template %d: %w", template.ID, common.ErrNotFound)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row rowScanner) (*model.Template, error) {
	var template model.Template
	var config string

	err := row.Scan(
		&template.ID, &template.Name, &template.SupplierVAT, &config,
		&template.IsActive, &template.CreatedAt, &template.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("template: %w", common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to scan template: %w", err)
	}

	if err := json.Unmarshal([]byte(config), &template.Config); err != nil {
		return nil, fmt.Errorf("failed to decode template config: %w", err)
	}

	return &template, nil
}
