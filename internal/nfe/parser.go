// Package nfe extracts invoice data from NF-e XML documents into the
// canonical model types. Localized tag names live only here; the rest of
// the system never sees them.
package nfe

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strings"

	"nfe-backend/internal/model"

	"github.com/shopspring/decimal"
)

var ErrNoItems = errors.New("nfe: document has no line items")

type xmlProc struct {
	NFe xmlNFe `xml:"NFe"`
}

type xmlNFe struct {
	InfNFe xmlInfNFe `xml:"infNFe"`
}

type xmlInfNFe struct {
	ID    string   `xml:"Id,attr"`
	Ide   xmlIde   `xml:"ide"`
	Emit  xmlEmit  `xml:"emit"`
	Det   []xmlDet `xml:"det"`
	Total xmlTotal `xml:"total"`
}

type xmlIde struct {
	NNF   string `xml:"nNF"`
	DhEmi string `xml:"dhEmi"`
	DEmi  string `xml:"dEmi"`
}

type xmlEmit struct {
	CNPJ  string `xml:"CNPJ"`
	XNome string `xml:"xNome"`
}

type xmlDet struct {
	Prod xmlProd `xml:"prod"`
}

type xmlProd struct {
	CProd  string `xml:"cProd"`
	CEAN   string `xml:"cEAN"`
	XProd  string `xml:"xProd"`
	NCM    string `xml:"NCM"`
	CFOP   string `xml:"CFOP"`
	UCom   string `xml:"uCom"`
	QCom   string `xml:"qCom"`
	VUnCom string `xml:"vUnCom"`
	VProd  string `xml:"vProd"`
}

type xmlTotal struct {
	ICMSTot xmlICMSTot `xml:"ICMSTot"`
}

type xmlICMSTot struct {
	VProd string `xml:"vProd"`
	VNF   string `xml:"vNF"`
}

// Parse reads an NF-e document (either an <nfeProc> envelope or a bare
// <NFe> root) and returns the invoice with its line items. The
// invoice-level discount (products total minus invoice total, when
// positive) is spread over the items proportionally to their gross value,
// the way the source documents state it.
func Parse(data []byte) (*model.Nfe, error) {
	var proc xmlProc
	if err := xml.Unmarshal(data, &proc); err != nil {
		return nil, fmt.Errorf("nfe: malformed XML: %w", err)
	}

	inf := proc.NFe.InfNFe
	if len(inf.Det) == 0 {
		// Root may be <NFe> directly rather than the process envelope.
		var bare xmlNFe
		if err := xml.Unmarshal(data, &bare); err != nil {
			return nil, fmt.Errorf("nfe: malformed XML: %w", err)
		}
		inf = bare.InfNFe
	}
	if len(inf.Det) == 0 {
		return nil, ErrNoItems
	}

	accessKey := strings.TrimPrefix(inf.ID, "NFe")
	issuedAt := inf.Ide.DhEmi
	if issuedAt == "" {
		issuedAt = inf.Ide.DEmi
	}

	productsTotal := parseDecimal(inf.Total.ICMSTot.VProd)
	invoiceTotal := parseDecimal(inf.Total.ICMSTot.VNF)

	// Invoice-level discount as a percentage of the products total.
	discountPct := decimal.Zero
	if diff := productsTotal.Sub(invoiceTotal); diff.IsPositive() && productsTotal.IsPositive() {
		discountPct = diff.Div(productsTotal).Mul(decimal.NewFromInt(100))
	}

	items := make([]model.NfeItem, 0, len(inf.Det))
	for i, det := range inf.Det {
		prod := det.Prod
		quantity := parseDecimal(prod.QCom)
		unitPrice := parseDecimal(prod.VUnCom)
		totalPrice := parseDecimal(prod.VProd)

		unitDiscount := unitPrice.Mul(discountPct).Div(decimal.NewFromInt(100))
		discount := unitDiscount.Mul(quantity)

		items = append(items, model.NfeItem{
			Ordinal:     i + 1,
			Code:        prod.CProd,
			Description: prod.XProd,
			NCM:         prod.NCM,
			CFOP:        prod.CFOP,
			Unit:        prod.UCom,
			EAN:         prod.CEAN,
			Reference:   prod.CProd,
			Quantity:    quantity,
			UnitPrice:   unitPrice,
			TotalPrice:  totalPrice,
			Discount:    discount,
			ExtraCost:   decimal.Zero,
		})
	}

	total := invoiceTotal
	if total.IsZero() {
		total = productsTotal
	}

	invoice := &model.Nfe{
		ID:            invoiceID(accessKey, inf.Ide.NNF),
		Number:        inf.Ide.NNF,
		AccessKey:     accessKey,
		IssuedAt:      issuedAt,
		Supplier:      inf.Emit.XNome,
		SupplierTaxID: inf.Emit.CNPJ,
		TotalAmount:   total,
		ItemCount:     len(items),
		Items:         items,
	}
	invoice.ApplyConfigDefaults()
	return invoice, nil
}

func invoiceID(accessKey, number string) string {
	if accessKey != "" {
		return accessKey
	}
	return "nfe-" + number
}

// parseDecimal tolerates comma decimal separators and stray characters;
// anything unparseable becomes zero, matching how the documents are read.
func parseDecimal(s string) decimal.Decimal {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',', r == '-':
			return r
		default:
			return -1
		}
	}, s)
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return d
}
