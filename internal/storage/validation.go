package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/flottaio/carburante/internal/model"
)

// Validation errors.
var (
	ErrNilContext     = errors.New("context cannot be nil")
	ErrEmptyString    = errors.New("string parameter cannot be empty")
	ErrNilParameter   = errors.New("parameter cannot be nil")
	ErrInvalidVehicle = errors.New("invalid vehicle")
	ErrInvalidCard    = errors.New("invalid fuel card")
	ErrInvalidInvoice = errors.New("invalid invoice")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateTemplate validates a template before persisting it.
func validateTemplate(template *model.Template) error {
	if template == nil {
		return fmt.Errorf("%w: template", ErrNilParameter)
	}
	if err := validateString(template.Name, "template name"); err != nil {
		return err
	}
	if err := validateString(template.SupplierVAT, "supplier VAT"); err != nil {
		return err
	}
	return template.Config.Validate()
}

// validateVehicle validates a vehicle before persisting it.
func validateVehicle(vehicle *model.Vehicle) error {
	if vehicle == nil {
		return fmt.Errorf("%w: vehicle", ErrNilParameter)
	}
	if strings.TrimSpace(vehicle.Plate) == "" {
		return fmt.Errorf("%w: missing plate", ErrInvalidVehicle)
	}
	return nil
}

// validateCard validates a fuel card before persisting it.
func validateCard(card *model.FuelCard) error {
	if card == nil {
		return fmt.Errorf("%w: fuel card", ErrNilParameter)
	}
	if strings.TrimSpace(card.CardNumber) == "" {
		return fmt.Errorf("%w: missing card number", ErrInvalidCard)
	}
	return nil
}

// validateInvoice validates an invoice before persisting it.
func validateInvoice(invoice *model.Invoice) error {
	if invoice == nil {
		return fmt.Errorf("%w: invoice", ErrNilParameter)
	}
	if invoice.Hash == "" {
		return fmt.Errorf("%w: missing hash", ErrInvalidInvoice)
	}
	if invoice.FileName == "" {
		return fmt.Errorf("%w: missing file name", ErrInvalidInvoice)
	}
	return nil
}
