// Package service orchestrates the invoice import pipeline: parse, detect
// the supplier template, extract, persist, and match.
package service

import (
	"context"

	"github.com/flottaio/carburante/internal/model"
)

// Storage is the persistence surface the importer needs. *storage.SQLiteStorage
// satisfies it; tests may substitute a fake.
type Storage interface {
	GetTemplate(ctx context.Context, id int) (*model.Template, error)
	GetTemplateBySupplier(ctx context.Context, supplierVAT string) (*model.Template, error)
	GetTolerances(ctx context.Context, supplierVAT string) (model.MatchingTolerances, error)
	GetCandidates(ctx context.Context) ([]model.ReferenceRecord, error)
	HasInvoice(ctx context.Context, hash string) (bool, error)
	SaveExtraction(ctx context.Context, invoice *model.Invoice, lines []model.ExtractedLine) error
	SaveDecisions(ctx context.Context, invoiceID int, decisions []model.MatchDecision) error
	TouchVehicle(ctx context.Context, id int) error
}
