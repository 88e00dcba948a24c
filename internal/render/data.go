package render

import (
	"github.com/shopspring/decimal"

	"github.com/seeall/facturation/internal/config"
	"github.com/seeall/facturation/internal/models"
)

// Renderers (PDF, Word) are external collaborators: they receive a fully
// resolved DocumentData and only lay it out. All totals are computed here
// from the document's current line items, and rounding to two decimals
// happens here and nowhere earlier.

const dateLayout = "02/01/2006"

type ClientData struct {
	Name    string
	SIRET   string
	Address string
	Email   string
	Phone   string
}

type LineData struct {
	SiteNumber  string
	Address     string
	Coordinates string
	Description string
	Quantity    int
	PriceExTax  string
}

type DocumentData struct {
	Title          string // DEVIS ou FACTURE
	Number         string
	Date           string
	OrderReference string
	Typology       string
	Client         ClientData
	Company        config.Company
	Lines          []LineData
	TotalExTax     string
	TotalTax       string
	TotalIncTax    string
	NetToPay       string
	LegalText      string
	PaymentTerms   string
	PaymentText    string
}

// Build flattens a document and the company constants into the shape the
// renderers consume.
func Build(doc *models.Document, company config.Company, vatRate decimal.Decimal) DocumentData {
	data := DocumentData{
		Number:         doc.Number,
		OrderReference: doc.OrderReference,
		Typology:       doc.Typology,
		Company:        company,
		Client: ClientData{
			Name:    doc.Client.Name,
			SIRET:   doc.Client.SIRET,
			Address: doc.Client.Address,
			Email:   doc.Client.Email,
			Phone:   doc.Client.Phone,
		},
		LegalText:    company.LegalText(),
		PaymentTerms: company.PaymentTerms,
		PaymentText:  company.PaymentConditions(),
	}

	switch doc.Kind {
	case models.KindInvoice:
		data.Title = "FACTURE"
		if doc.InterventionDate != nil {
			data.Date = doc.InterventionDate.Format(dateLayout)
		}
	default:
		data.Title = "DEVIS"
		if doc.DocumentDate != nil {
			data.Date = doc.DocumentDate.Format(dateLayout)
		}
	}

	for _, site := range doc.Sites {
		data.Lines = append(data.Lines, LineData{
			SiteNumber:  site.SiteNumber,
			Address:     site.FullAddress(),
			Coordinates: site.Coordinates(),
			Description: site.Description,
			Quantity:    1,
			PriceExTax:  FormatAmount(site.UnitPriceExTax, company),
		})
	}
	for _, item := range doc.LegacyItems {
		data.Lines = append(data.Lines, LineData{
			Description: item.Description,
			Quantity:    item.Quantity,
			PriceExTax:  FormatAmount(item.UnitPrice, company),
		})
	}

	data.TotalExTax = FormatAmount(doc.TotalExTax(), company)
	data.TotalTax = FormatAmount(doc.TotalTax(vatRate), company)
	data.TotalIncTax = FormatAmount(doc.TotalIncTax(vatRate), company)
	data.NetToPay = data.TotalIncTax
	return data
}

// FormatAmount renders a monetary amount with two decimals and the
// configured currency position.
func FormatAmount(amount decimal.Decimal, company config.Company) string {
	fixed := amount.StringFixed(2)
	if company.CurrencyPosition == "before" {
		return company.Currency + fixed
	}
	return fixed + " " + company.Currency
}
