package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flottaio/carburante/internal/common"
	"github.com/flottaio/carburante/internal/model"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func testTemplate(name, supplierVAT string) *model.Template {
	return &model.Template{
		Name:        name,
		SupplierVAT: supplierVAT,
		IsActive:    true,
		Config: model.TemplateConfig{
			Version:   1,
			Name:      name,
			LineXPath: "FatturaElettronicaBody.DatiBeniServizi.DettaglioLinee",
			Fields: map[string]model.FieldExtractionRule{
				model.FieldDescription: {Method: model.MethodXPath, XPath: "Descrizione"},
			},
		},
	}
}

func TestMigrate(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	version, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)

	// Migrating an up-to-date database is a no-op.
	require.NoError(t, store.Migrate(ctx))
	version, err = store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)
}

func TestTemplateCRUD(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	template := testTemplate("edenred-v1", "01014310357")
	require.NoError(t, store.CreateTemplate(ctx, template))
	require.NotZero(t, template.ID)

	got, err := store.GetTemplate(ctx, template.ID)
	require.NoError(t, err)
	assert.Equal(t, "edenred-v1", got.Name)
	assert.Equal(t, "01014310357", got.SupplierVAT)
	assert.Equal(t, template.Config, got.Config, "config survives the JSON round trip")

	bySupplier, err := store.GetTemplateBySupplier(ctx, "01014310357")
	require.NoError(t, err)
	assert.Equal(t, template.ID, bySupplier.ID)

	got.Name = "edenred-v2"
	require.NoError(t, store.UpdateTemplate(ctx, got))
	updated, err := store.GetTemplate(ctx, template.ID)
	require.NoError(t, err)
	assert.Equal(t, "edenred-v2", updated.Name)

	templates, err := store.ListTemplates(ctx)
	require.NoError(t, err)
	assert.Len(t, templates, 1)
}

func TestTemplateNotFound(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	_, err := store.GetTemplate(ctx, 999)
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = store.GetTemplateBySupplier(ctx, "00000000000")
	assert.ErrorIs(t, err, common.ErrNotFound)

	missing := testTemplate("ghost", "00000000000")
	missing.ID = 999
	assert.ErrorIs(t, store.UpdateTemplate(ctx, missing), common.ErrNotFound)
}

func TestCreateTemplate_RejectsInvalidConfig(t *testing.T) {
	store := newTestStorage(t)

	template := testTemplate("broken", "01014310357")
	template.Config.LineXPath = ""

	err := store.CreateTemplate(context.Background(), template)
	assert.ErrorIs(t, err, model.ErrInvalidTemplate)
}

func TestTolerancesResolution(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	// Nothing stored: built-in defaults.
	got, err := store.GetTolerances(ctx, "01014310357")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultTolerances(), got)

	// A stored tenant default applies to every supplier.
	tenantWide := model.DefaultTolerances()
	tenantWide.DateToleranceDays = 5
	require.NoError(t, store.SaveTolerances(ctx, "", tenantWide))
	got, err = store.GetTolerances(ctx, "01014310357")
	require.NoError(t, err)
	assert.Equal(t, 5, got.DateToleranceDays)

	// A supplier-specific row wins over the tenant default.
	specific := model.DefaultTolerances()
	specific.DateToleranceDays = 1
	specific.AutoMatchThreshold = 0.9
	require.NoError(t, store.SaveTolerances(ctx, "01014310357", specific))
	got, err = store.GetTolerances(ctx, "01014310357")
	require.NoError(t, err)
	assert.Equal(t, 1, got.DateToleranceDays)
	assert.InDelta(t, 0.9, got.AutoMatchThreshold, 1e-9)

	// Upserting the same supplier replaces the row.
	specific.DateToleranceDays = 2
	require.NoError(t, store.SaveTolerances(ctx, "01014310357", specific))
	got, err = store.GetTolerances(ctx, "01014310357")
	require.NoError(t, err)
	assert.Equal(t, 2, got.DateToleranceDays)
}

func TestSaveTolerances_RejectsInvalid(t *testing.T) {
	store := newTestStorage(t)

	bad := model.DefaultTolerances()
	bad.AutoMatchThreshold = 2.0

	err := store.SaveTolerances(context.Background(), "", bad)
	assert.ErrorIs(t, err, model.ErrInvalidTolerances)
}

func TestVehicleCRUD(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	vehicle := &model.Vehicle{Plate: "ab 123-cd", FuelType: "GASOLIO", IsActive: true}
	require.NoError(t, store.CreateVehicle(ctx, vehicle))
	assert.Equal(t, "AB123CD", vehicle.Plate, "plates are stored normalized")

	got, err := store.GetVehicleByPlate(ctx, "AB 123 CD")
	require.NoError(t, err)
	assert.Equal(t, vehicle.ID, got.ID)

	_, err = store.GetVehicleByPlate(ctx, "ZZ999ZZ")
	assert.ErrorIs(t, err, common.ErrNotFound)

	require.NoError(t, store.TouchVehicle(ctx, vehicle.ID))
	got, err = store.GetVehicleByPlate(ctx, "AB123CD")
	require.NoError(t, err)
	assert.False(t, got.LastSeenAt.IsZero())
}

func TestCreateVehicle_DuplicatePlate(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.CreateVehicle(ctx, &model.Vehicle{Plate: "AB123CD", IsActive: true}))

	// The same plate with different formatting normalizes to a duplicate.
	err := store.CreateVehicle(ctx, &model.Vehicle{Plate: "ab 123-cd", IsActive: true})
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)
}

func TestCreateFuelCard_DuplicateNumber(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.CreateFuelCard(ctx, &model.FuelCard{CardNumber: "7002 1234", IsActive: true}))

	err := store.CreateFuelCard(ctx, &model.FuelCard{CardNumber: "70021234", IsActive: true})
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)
}

func TestEmployees(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.CreateEmployee(ctx, &model.Employee{
		FirstName: "Mario", LastName: "Rossi", IsActive: true,
	}))
	require.NoError(t, store.CreateEmployee(ctx, &model.Employee{
		FirstName: "Anna", LastName: "Bianchi", IsActive: true,
	}))

	employees, err := store.ListEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, employees, 2)
	assert.Equal(t, "Bianchi", employees[0].LastName, "ordered by last name")
	assert.Equal(t, "Rossi", employees[1].LastName)
}

func TestGetCandidates(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	diesel := &model.Vehicle{Plate: "AB123CD", FuelType: "GASOLIO", IsActive: true}
	require.NoError(t, store.CreateVehicle(ctx, diesel))
	petrol := &model.Vehicle{Plate: "GA456EF", IsActive: true}
	require.NoError(t, store.CreateVehicle(ctx, petrol))

	bound := &model.FuelCard{CardNumber: "7002 1234", VehicleID: &diesel.ID, IsActive: true}
	require.NoError(t, store.CreateFuelCard(ctx, bound))
	unbound := &model.FuelCard{CardNumber: "7002 9999", IsActive: true}
	require.NoError(t, store.CreateFuelCard(ctx, unbound))

	candidates, err := store.GetCandidates(ctx)
	require.NoError(t, err)
	require.Len(t, candidates, 3, "two vehicles plus one vehicle-bound card")

	byID := make(map[int]model.ReferenceRecord, len(candidates))
	for _, c := range candidates {
		byID[c.ID] = c
	}

	v := byID[diesel.ID]
	assert.Equal(t, "AB123CD", v.Plate)
	require.NotNil(t, v.FuelType)
	assert.Equal(t, "GASOLIO", *v.FuelType)

	assert.Nil(t, byID[petrol.ID].FuelType, "empty fuel type stays null, not empty string")

	card := byID[cardCandidateIDOffset+bound.ID]
	assert.Equal(t, "70021234", card.CardNumber)
	assert.Equal(t, diesel.ID, card.VehicleID)
	assert.Equal(t, "AB123CD", card.Plate)

	for _, c := range candidates {
		assert.Nil(t, c.Date, "registry candidates carry no event dimensions")
		assert.Nil(t, c.Quantity)
		assert.Nil(t, c.Amount)
	}
}

func TestSaveExtraction_DuplicateHash(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	hash := model.InvoiceHash([]byte("<FatturaElettronica/>"))
	invoice := &model.Invoice{
		Hash:     hash,
		RunID:    "run-1",
		FileName: "dicembre.xml",
	}
	require.NoError(t, store.SaveExtraction(ctx, invoice, nil))
	require.NotZero(t, invoice.ID)

	has, err := store.HasInvoice(ctx, hash)
	require.NoError(t, err)
	assert.True(t, has)

	// Same content under another name is still a duplicate.
	again := &model.Invoice{Hash: hash, RunID: "run-2", FileName: "copia.xml"}
	err = store.SaveExtraction(ctx, again, nil)
	assert.ErrorIs(t, err, common.ErrDuplicateInvoice)

	invoices, err := store.ListInvoices(ctx)
	require.NoError(t, err)
	assert.Len(t, invoices, 1)
}

func TestSaveExtraction_LinesRoundTrip(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	date := time.Date(2024, time.December, 17, 18, 38, 0, 0, time.UTC)
	fuelType := "SUPER 95"
	quantity := 16.41
	odometer := 22947

	lines := []model.ExtractedLine{
		{
			LineNumber: 1,
			Date:       &date,
			FuelType:   &fuelType,
			Quantity:   &quantity,
			OdometerKm: &odometer,
			RawXML:     "<DettaglioLinee/>",
		},
		{
			LineNumber: 3,
			Errors:     []string{"field date: empty date value"},
		},
	}

	invoice := &model.Invoice{
		Hash:          model.InvoiceHash([]byte("round-trip")),
		RunID:         "run-1",
		FileName:      "dicembre.xml",
		SupplierVAT:   "01014310357",
		InvoiceNumber: "V0-2024-88",
		TotalLines:    3,
		FilteredLines: 1,
	}
	require.NoError(t, store.SaveExtraction(ctx, invoice, lines))

	got, err := store.GetInvoiceLines(ctx, invoice.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, 1, got[0].LineNumber)
	require.NotNil(t, got[0].Date)
	assert.True(t, date.Equal(*got[0].Date))
	require.NotNil(t, got[0].FuelType)
	assert.Equal(t, fuelType, *got[0].FuelType)
	require.NotNil(t, got[0].Quantity)
	assert.InDelta(t, quantity, *got[0].Quantity, 1e-9)
	require.NotNil(t, got[0].OdometerKm)
	assert.Equal(t, odometer, *got[0].OdometerKm)

	assert.Equal(t, 3, got[1].LineNumber, "pre-filter line numbers persist as-is")
	assert.Nil(t, got[1].Date)
	assert.Equal(t, []string{"field date: empty date value"}, got[1].Errors)

	stored, err := store.GetInvoice(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, "01014310357", stored.SupplierVAT)
	assert.Equal(t, 3, stored.TotalLines)
	assert.Equal(t, 1, stored.FilteredLines)
}

func TestSaveDecisions_Upsert(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	invoice := &model.Invoice{
		Hash:     model.InvoiceHash([]byte("decisions")),
		RunID:    "run-1",
		FileName: "dicembre.xml",
	}
	require.NoError(t, store.SaveExtraction(ctx, invoice, nil))

	matched := &model.MatchScore{
		Candidate: model.ReferenceRecord{ID: 1, VehicleID: 1, Plate: "AB123CD"},
		Composite: 1.0,
	}
	decisions := []model.MatchDecision{
		{LineNumber: 1, Outcome: model.OutcomeAuto, Matched: matched},
		{LineNumber: 2, Outcome: model.OutcomeUnmatched},
	}
	require.NoError(t, store.SaveDecisions(ctx, invoice.ID, decisions))

	counts, err := store.DecisionCounts(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[model.OutcomeAuto])
	assert.Equal(t, 1, counts[model.OutcomeUnmatched])

	// Re-matching the same lines replaces the earlier decisions.
	decisions[0] = model.MatchDecision{
		LineNumber: 1,
		Outcome:    model.OutcomeSuggested,
		Suggestions: []model.MatchScore{
			{Candidate: model.ReferenceRecord{ID: 2, VehicleID: 2}, Composite: 0.5},
		},
	}
	require.NoError(t, store.SaveDecisions(ctx, invoice.ID, decisions))

	counts, err = store.DecisionCounts(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Zero(t, counts[model.OutcomeAuto])
	assert.Equal(t, 1, counts[model.OutcomeSuggested])
	assert.Equal(t, 1, counts[model.OutcomeUnmatched])
}

func TestValidation(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	//nolint:staticcheck // nil context is the case under test
	_, err := store.GetTemplate(nil, 1)
	assert.ErrorIs(t, err, ErrNilContext)

	assert.ErrorIs(t, store.CreateVehicle(ctx, nil), ErrNilParameter)
	assert.ErrorIs(t, store.CreateVehicle(ctx, &model.Vehicle{}), ErrInvalidVehicle)
	assert.ErrorIs(t, store.CreateFuelCard(ctx, &model.FuelCard{}), ErrInvalidCard)
	assert.ErrorIs(t, store.SaveExtraction(ctx, &model.Invoice{}, nil), ErrInvalidInvoice)
	_, err = store.GetInvoiceByHash(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyString)
}
