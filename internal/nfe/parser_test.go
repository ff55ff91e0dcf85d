package nfe

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleNFe = `<?xml version="1.0" encoding="UTF-8"?>
<nfeProc xmlns="http://www.portalfiscal.inf.br/nfe" versao="4.00">
  <NFe>
    <infNFe Id="NFe35240112345678000199550010000012341000012349" versao="4.00">
      <ide>
        <nNF>1234</nNF>
        <dhEmi>2024-01-15T10:30:00-03:00</dhEmi>
      </ide>
      <emit>
        <CNPJ>12345678000199</CNPJ>
        <xNome>Confeccoes Alfa LTDA</xNome>
      </emit>
      <det nItem="1">
        <prod>
          <cProd>A001</cProd>
          <cEAN>7891234567890</cEAN>
          <xProd>CAMISETA BASICA</xProd>
          <NCM>61091000</NCM>
          <CFOP>5102</CFOP>
          <uCom>UN</uCom>
          <qCom>10.0000</qCom>
          <vUnCom>60.00</vUnCom>
          <vProd>600.00</vProd>
        </prod>
      </det>
      <det nItem="2">
        <prod>
          <cProd>B002</cProd>
          <cEAN></cEAN>
          <xProd>CALCA JEANS</xProd>
          <NCM>62034200</NCM>
          <CFOP>5102</CFOP>
          <uCom>UN</uCom>
          <qCom>4,0000</qCom>
          <vUnCom>100,00</vUnCom>
          <vProd>400,00</vProd>
        </prod>
      </det>
      <total>
        <ICMSTot>
          <vProd>1000.00</vProd>
          <vNF>900.00</vNF>
        </ICMSTot>
      </total>
    </infNFe>
  </NFe>
</nfeProc>`

func TestParse(t *testing.T) {
	invoice, err := Parse([]byte(sampleNFe))
	require.NoError(t, err)

	assert.Equal(t, "35240112345678000199550010000012341000012349", invoice.ID)
	assert.Equal(t, "1234", invoice.Number)
	assert.Equal(t, "Confeccoes Alfa LTDA", invoice.Supplier)
	assert.Equal(t, "12345678000199", invoice.SupplierTaxID)
	assert.Equal(t, "2024-01-15T10:30:00-03:00", invoice.IssuedAt)
	assert.Equal(t, 2, invoice.ItemCount)
	assert.True(t, invoice.TotalAmount.Equal(decimal.RequireFromString("900.00")))

	// Defaults seeded on import.
	assert.True(t, invoice.EntryTaxRate.Equal(decimal.NewFromInt(12)))
	assert.True(t, invoice.XapuriMarkup.Equal(decimal.NewFromInt(160)))
	assert.True(t, invoice.EpitaMarkup.Equal(decimal.NewFromInt(130)))
	assert.Equal(t, "none", invoice.Rounding)
	assert.False(t, invoice.Locked)

	require.Len(t, invoice.Items, 2)
	first := invoice.Items[0]
	assert.Equal(t, "A001", first.Code)
	assert.Equal(t, "CAMISETA BASICA", first.Description)
	assert.Equal(t, "61091000", first.NCM)
	assert.True(t, first.Quantity.Equal(decimal.NewFromInt(10)))
	assert.True(t, first.UnitPrice.Equal(decimal.NewFromInt(60)))
	assert.True(t, first.TotalPrice.Equal(decimal.NewFromInt(600)))

	// Invoice discount is 10% of the products total, spread by gross value:
	// item 1 carries 60.00, item 2 carries 40.00.
	assert.InDelta(t, 60, first.Discount.InexactFloat64(), 1e-9)
	assert.InDelta(t, 40, invoice.Items[1].Discount.InexactFloat64(), 1e-9)
}

func TestParse_CommaDecimals(t *testing.T) {
	invoice, err := Parse([]byte(sampleNFe))
	require.NoError(t, err)

	second := invoice.Items[1]
	assert.True(t, second.Quantity.Equal(decimal.NewFromInt(4)))
	assert.True(t, second.UnitPrice.Equal(decimal.NewFromInt(100)))
}

func TestParse_BareNFeRoot(t *testing.T) {
	bare := `<?xml version="1.0" encoding="UTF-8"?>
<NFe xmlns="http://www.portalfiscal.inf.br/nfe">
  <infNFe Id="NFe999" versao="4.00">
    <ide><nNF>77</nNF><dEmi>2024-02-01</dEmi></ide>
    <emit><CNPJ>11222333000144</CNPJ><xNome>Beta Tecidos</xNome></emit>
    <det nItem="1">
      <prod>
        <cProd>C1</cProd><xProd>MEIA</xProd><uCom>PAR</uCom>
        <qCom>2</qCom><vUnCom>5.00</vUnCom><vProd>10.00</vProd>
      </prod>
    </det>
    <total><ICMSTot><vProd>10.00</vProd><vNF>10.00</vNF></ICMSTot></total>
  </infNFe>
</NFe>`

	invoice, err := Parse([]byte(bare))
	require.NoError(t, err)
	assert.Equal(t, 1, invoice.ItemCount)
	assert.Equal(t, "999", invoice.AccessKey)
	assert.Equal(t, "2024-02-01", invoice.IssuedAt)
	assert.True(t, invoice.Items[0].Discount.IsZero())
}

func TestParse_NoItems(t *testing.T) {
	_, err := Parse([]byte(`<NFe><infNFe Id="NFe123"></infNFe></NFe>`))
	assert.ErrorIs(t, err, ErrNoItems)
}

func TestParse_MalformedXML(t *testing.T) {
	_, err := Parse([]byte(`<nfeProc><NFe>`))
	assert.Error(t, err)
}
