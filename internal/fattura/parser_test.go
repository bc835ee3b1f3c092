package fattura

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleInvoice = `<?xml version="1.0" encoding="UTF-8"?>
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
        <Descrizione>GASOLIO 41,00 lt</Descrizione>
      </DettaglioLinee>
      <DettaglioLinee>
        <NumeroLinea>2</NumeroLinea>
        <Descrizione>COMMISSIONI DI SERVIZIO</Descrizione>
      </DettaglioLinee>
    </DatiBeniServizi>
  </FatturaElettronicaBody>
</p:FatturaElettronica>`

func TestParse_MalformedXML(t *testing.T) {
	_, err := Parse([]byte("<FatturaElettronica><unclosed>"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "malformed XML")

	_, err = Parse([]byte(""))
	assert.Error(t, err)
}

func TestDocument_Resolve(t *testing.T) {
	doc, err := Parse([]byte(sampleInvoice))
	require.NoError(t, err)

	lines := doc.Resolve("FatturaElettronicaBody.DatiBeniServizi.DettaglioLinee")
	assert.Len(t, lines, 2)

	// A leading segment naming the root element is accepted and skipped.
	lines = doc.Resolve("FatturaElettronica.FatturaElettronicaBody.DatiBeniServizi.DettaglioLinee")
	assert.Len(t, lines, 2)

	assert.Empty(t, doc.Resolve("FatturaElettronicaBody.NoSuchElement"))
	assert.Empty(t, doc.Resolve(""))
}

func TestDocument_Text(t *testing.T) {
	doc, err := Parse([]byte(sampleInvoice))
	require.NoError(t, err)

	number, ok := doc.Text("FatturaElettronicaBody.DatiGenerali.DatiGeneraliDocumento.Numero")
	require.True(t, ok)
	assert.Equal(t, "V0-2024-88", number)

	_, ok = doc.Text("FatturaElettronicaBody.NoSuchElement")
	assert.False(t, ok)
}

func TestDocument_SupplierVAT(t *testing.T) {
	doc, err := Parse([]byte(sampleInvoice))
	require.NoError(t, err)

	assert.Equal(t, "01014310357", doc.SupplierVAT(""), "default header path")
	assert.Equal(t, "IT", doc.SupplierVAT("FatturaElettronicaHeader.CedentePrestatore.DatiAnagrafici.IdFiscaleIVA.IdPaese"))
	assert.Equal(t, "", doc.SupplierVAT("FatturaElettronicaHeader.NoSuchElement"))
}

func TestTextFrom(t *testing.T) {
	doc, err := Parse([]byte(sampleInvoice))
	require.NoError(t, err)

	lines := doc.Resolve("FatturaElettronicaBody.DatiBeniServizi.DettaglioLinee")
	require.Len(t, lines, 2)

	desc, ok := TextFrom(lines[0], "Descrizione")
	require.True(t, ok)
	assert.Equal(t, "GASOLIO 41,00 lt", desc)

	_, ok = TextFrom(lines[0], "NoSuchChild")
	assert.False(t, ok)
}

func TestInnerXML(t *testing.T) {
	doc, err := Parse([]byte(sampleInvoice))
	require.NoError(t, err)

	lines := doc.Resolve("FatturaElettronicaBody.DatiBeniServizi.DettaglioLinee")
	require.NotEmpty(t, lines)

	raw := InnerXML(lines[0])
	assert.True(t, strings.Contains(raw, "<Descrizione>"))
	assert.True(t, strings.Contains(raw, "GASOLIO 41,00 lt"))
}
