package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flottaio/carburante/internal/model"
	"github.com/flottaio/carburante/internal/normalize"
)

// edenredInvoice mimics the card-issuer layout where every per-transaction
// fact is packed into the Descrizione free text.
const edenredInvoice = `<?xml version="1.0" encoding="UTF-8"?>
<p:FatturaElettronica xmlns:p="http://ivaservizi.agenziaentrate.gov.it/docs/xsd/fatture/v1.2" versione="FPR12">
  <FatturaElettronicaHeader>
    <CedentePrestatore>
      <DatiAnagrafici>
        <IdFiscaleIVA>
          <IdPaese>IT</IdPaese>
          <IdCodice>01014310357</IdCodice>
        </IdFiscaleIVA>
      </DatiAnagrafici>
    </CedentePrestatore>
  </FatturaElettronicaHeader>
  <FatturaElettronicaBody>
    <DatiGenerali>
      <DatiGeneraliDocumento>
        <Numero>V0-2024-88</Numero>
        <Data>2024-12-31</Data>
      </DatiGeneraliDocumento>
    </DatiGenerali>
    <DatiBeniServizi>
      <DettaglioLinee>
        <NumeroLinea>1</NumeroLinea>
        <Descrizione>17/12/2024 18:38:00 AGIP Roma (RM) Agip JOLLY 1 Km:22947 SUPER 95 16,41 lt 28,37Eu.</Descrizione>
        <PrezzoTotale>28.37</PrezzoTotale>
      </DettaglioLinee>
      <DettaglioLinee>
        <NumeroLinea>2</NumeroLinea>
        <Descrizione>COMMISSIONI DI SERVIZIO</Descrizione>
        <PrezzoTotale>1.20</PrezzoTotale>
      </DettaglioLinee>
      <DettaglioLinee>
        <NumeroLinea>3</NumeroLinea>
        <Descrizione>18/12/2024 09:12:00 Q8 Milano (MI) Km:23105 AdBlue 10,00 lt 8,90Eu.</Descrizione>
        <PrezzoTotale>8.90</PrezzoTotale>
      </DettaglioLinee>
    </DatiBeniServizi>
  </FatturaElettronicaBody>
</p:FatturaElettronica>`

func edenredTemplate() model.TemplateConfig {
	return model.TemplateConfig{
		Version:   1,
		Name:      "edenred-v1",
		LineXPath: "FatturaElettronicaBody.DatiBeniServizi.DettaglioLinee",
		Fields: map[string]model.FieldExtractionRule{
			model.FieldDescription: {
				Method: model.MethodXPath,
				XPath:  "Descrizione",
			},
			model.FieldDate: {
				Method:     model.MethodXPathRegex,
				XPath:      "Descrizione",
				Regex:      `(\d{2}/\d{2}/\d{4} \d{2}:\d{2}:\d{2})`,
				DateFormat: "dd/MM/yyyy HH:mm:ss",
			},
			model.FieldFuelType: {
				Method: model.MethodXPathRegex,
				XPath:  "Descrizione",
				Regex:  `Km:\d+\s+(.+?)\s+\d+(?:,\d+)?\s*lt`,
			},
			model.FieldOdometerKm: {
				Method: model.MethodXPathRegex,
				XPath:  "Descrizione",
				Regex:  `Km:(\d+)`,
			},
			model.FieldQuantity: {
				Method: model.MethodXPathRegex,
				XPath:  "Descrizione",
				Regex:  `(\d+(?:,\d+)?)\s*lt`,
			},
			model.FieldAmount: {
				Method: model.MethodXPath,
				XPath:  "PrezzoTotale",
			},
		},
		LineFilters: []model.LineFilter{
			{FieldPath: model.FieldDescription, Regex: `\d+(?:,\d+)?\s*lt`, Action: model.ActionInclude},
			{FieldPath: model.FieldDescription, Regex: `AdBlue`, Action: model.ActionExclude},
		},
		InvoiceMetadata: &model.InvoiceMetadataPaths{
			InvoiceNumberPath: "FatturaElettronicaBody.DatiGenerali.DatiGeneraliDocumento.Numero",
			InvoiceDatePath:   "FatturaElettronicaBody.DatiGenerali.DatiGeneraliDocumento.Data",
		},
	}
}

func TestEngine_ExtractEdenredInvoice(t *testing.T) {
	engine := NewEngine(normalize.LocaleItalian)
	config := edenredTemplate()
	require.NoError(t, config.Validate())

	result := engine.ExtractBytes([]byte(edenredInvoice), config)

	require.True(t, result.Success)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 3, result.TotalLines)
	assert.Equal(t, 2, result.FilteredLines, "service fee and AdBlue lines are filtered out")
	require.Len(t, result.Lines, 1)

	line := result.Lines[0]
	assert.Equal(t, 1, line.LineNumber)
	require.NotNil(t, line.Date)
	assert.Equal(t, time.Date(2024, time.December, 17, 18, 38, 0, 0, time.UTC), *line.Date)
	require.NotNil(t, line.FuelType)
	assert.Equal(t, "SUPER 95", *line.FuelType)
	require.NotNil(t, line.OdometerKm)
	assert.Equal(t, 22947, *line.OdometerKm)
	require.NotNil(t, line.Quantity)
	assert.InDelta(t, 16.41, *line.Quantity, 1e-9)
	require.NotNil(t, line.Amount)
	assert.InDelta(t, 28.37, *line.Amount, 1e-9)
	assert.Nil(t, line.LicensePlate, "no plate rule configured")
	assert.Empty(t, line.Errors)
	assert.Contains(t, line.RawXML, "Descrizione")

	assert.Equal(t, "01014310357", result.InvoiceMetadata.SupplierVAT)
	assert.Equal(t, "V0-2024-88", result.InvoiceMetadata.InvoiceNumber)
	require.NotNil(t, result.InvoiceMetadata.InvoiceDate)
	assert.Equal(t, time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC), *result.InvoiceMetadata.InvoiceDate)
}

func TestEngine_ExtractIsIdempotent(t *testing.T) {
	engine := NewEngine(normalize.LocaleItalian)
	config := edenredTemplate()

	first := engine.ExtractBytes([]byte(edenredInvoice), config)
	second := engine.ExtractBytes([]byte(edenredInvoice), config)

	assert.Equal(t, first, second)
}

func TestEngine_MalformedXML(t *testing.T) {
	engine := NewEngine(normalize.LocaleItalian)

	result := engine.ExtractBytes([]byte("this is not xml <"), edenredTemplate())

	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Errors)
	assert.Empty(t, result.Lines, "no partial lines from an unparseable document")
}

func TestEngine_LinePathResolvesToNothing(t *testing.T) {
	engine := NewEngine(normalize.LocaleItalian)
	config := edenredTemplate()
	config.LineXPath = "FatturaElettronicaBody.NoSuchSection.DettaglioLinee"

	result := engine.ExtractBytes([]byte(edenredInvoice), config)

	assert.True(t, result.Success, "an invoice with zero matching lines is a valid result")
	assert.Empty(t, result.Lines)
	assert.Zero(t, result.TotalLines)
	assert.Empty(t, result.Errors)
}

func TestEngine_AbsentFieldIsNullNotError(t *testing.T) {
	engine := NewEngine(normalize.LocaleItalian)
	config := edenredTemplate()
	config.Fields[model.FieldLicensePlate] = model.FieldExtractionRule{
		Method: model.MethodXPath,
		XPath:  "Targa",
	}
	config.LineFilters = nil

	result := engine.ExtractBytes([]byte(edenredInvoice), config)

	require.True(t, result.Success)
	require.Len(t, result.Lines, 3)
	for _, line := range result.Lines {
		assert.Nil(t, line.LicensePlate)
		assert.Empty(t, line.Errors)
	}
}

func TestEngine_UnparseableValueRecordsLineError(t *testing.T) {
	engine := NewEngine(normalize.LocaleItalian)
	config := edenredTemplate()
	// Point the quantity rule at free text that is not a number.
	config.Fields[model.FieldQuantity] = model.FieldExtractionRule{
		Method: model.MethodXPathRegex,
		XPath:  "Descrizione",
		Regex:  `(COMMISSIONI)`,
	}
	config.LineFilters = nil

	result := engine.ExtractBytes([]byte(edenredInvoice), config)

	require.True(t, result.Success)
	require.Len(t, result.Lines, 3)
	fee := result.Lines[1]
	assert.Nil(t, fee.Quantity, "unparseable numbers stay null, never zero")
	require.NotEmpty(t, fee.Errors)
	assert.Contains(t, fee.Errors[0], "quantity")
}

func TestEngine_StaticField(t *testing.T) {
	engine := NewEngine(normalize.LocaleItalian)
	config := edenredTemplate()
	config.Fields[model.FieldFuelType] = model.FieldExtractionRule{
		Method:      model.MethodStatic,
		StaticValue: "GASOLIO",
	}
	config.LineFilters = nil

	result := engine.ExtractBytes([]byte(edenredInvoice), config)

	require.True(t, result.Success)
	require.Len(t, result.Lines, 3)
	for _, line := range result.Lines {
		require.NotNil(t, line.FuelType)
		assert.Equal(t, "GASOLIO", *line.FuelType)
	}
}

func TestEngine_LineNumbersSurviveFiltering(t *testing.T) {
	engine := NewEngine(normalize.LocaleItalian)
	config := edenredTemplate()
	// Keep only the AdBlue line: its pre-filter position must be preserved.
	config.LineFilters = []model.LineFilter{
		{FieldPath: model.FieldDescription, Regex: `AdBlue`, Action: model.ActionInclude},
	}

	result := engine.ExtractBytes([]byte(edenredInvoice), config)

	require.True(t, result.Success)
	require.Len(t, result.Lines, 1)
	assert.Equal(t, 3, result.Lines[0].LineNumber)
}
