package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DocumentKind distinguishes quotes from invoices; both share the same
// table and row shape.
type DocumentKind string

const (
	KindQuote   DocumentKind = "quote"
	KindInvoice DocumentKind = "invoice"
)

func (k DocumentKind) Valid() bool { return k == KindQuote || k == KindInvoice }

// Document is a quote or an invoice depending on Kind.
//
// A draft has no ID and no Number; both are assigned atomically on first
// save. Number is unique across both kinds (the prefix tells them apart).
type Document struct {
	ID               uint   `gorm:"primaryKey"`
	Number           string `gorm:"uniqueIndex;not null"`
	ClientID         uint   `gorm:"not null;index"`
	Client           Client `gorm:"foreignKey:ClientID"`
	Kind             DocumentKind `gorm:"not null;index"`
	Typology         string       // Pylonne, TT, CDE, Eglise, Autre...
	DocumentDate     *time.Time   // devis
	InterventionDate *time.Time   // factures
	OrderReference   string       // bon de commande, factures uniquement
	Invoiced         bool         `gorm:"default:false"` // devis converti en facture
	LinkedInvoiceID  *uint        // facture issue de ce devis
	Sites            []Site       `gorm:"foreignKey:DocumentID"`
	LegacyItems      []LegacyItem `gorm:"foreignKey:DocumentID"`
	CreatedAt        time.Time
}

// Site is one priced line of work tied to a physical location. It has no
// existence outside its owning document: saves replace the whole set.
type Site struct {
	ID         uint   `gorm:"primaryKey"`
	DocumentID uint   `gorm:"not null;index"`
	SiteNumber string `gorm:"not null"`
	Street     string
	PostalCode string
	City       string
	Latitude   string // kept verbatim, never parsed to float
	Longitude  string
	Description    string          `gorm:"not null"`
	UnitPriceExTax decimal.Decimal `gorm:"type:numeric;not null"`
}

func (Site) TableName() string { return "document_sites" }

// FullAddress renders "street, postal city" skipping empty parts.
func (s Site) FullAddress() string {
	var parts []string
	if v := strings.TrimSpace(s.Street); v != "" {
		parts = append(parts, v)
	}
	if city := strings.TrimSpace(strings.TrimSpace(s.PostalCode) + " " + strings.TrimSpace(s.City)); city != "" {
		parts = append(parts, city)
	}
	return strings.Join(parts, ", ")
}

// Coordinates renders "Lat: x, Lng: y" when both are present.
func (s Site) Coordinates() string {
	if strings.TrimSpace(s.Latitude) == "" || strings.TrimSpace(s.Longitude) == "" {
		return ""
	}
	return "Lat: " + s.Latitude + ", Lng: " + s.Longitude
}

// LegacyItem is the pre-multi-site line format kept for old records.
// It carries a quantity multiplier that sites do not have.
type LegacyItem struct {
	ID         uint   `gorm:"primaryKey"`
	DocumentID uint   `gorm:"not null;index"`
	Description string          `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric;not null"`
	Quantity    int             `gorm:"not null;default:1"`
}

func (LegacyItem) TableName() string { return "document_legacy_items" }

func (it LegacyItem) Total() decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// TotalExTax sums sites and legacy items. Always computed from the current
// line items, never cached.
func (d *Document) TotalExTax() decimal.Decimal {
	total := decimal.Zero
	for _, s := range d.Sites {
		total = total.Add(s.UnitPriceExTax)
	}
	for _, it := range d.LegacyItems {
		total = total.Add(it.Total())
	}
	return total
}

func (d *Document) TotalTax(vatRate decimal.Decimal) decimal.Decimal {
	return d.TotalExTax().Mul(vatRate)
}

func (d *Document) TotalIncTax(vatRate decimal.Decimal) decimal.Decimal {
	return d.TotalExTax().Add(d.TotalTax(vatRate))
}

// Empty reports whether the document has no line items at all. Documents
// may carry only sites, only legacy items, or a mix of both.
func (d *Document) Empty() bool {
	return len(d.Sites) == 0 && len(d.LegacyItems) == 0
}

// SiteNumbers lists the non-blank site numbers in document order.
func (d *Document) SiteNumbers() []string {
	var numbers []string
	for _, s := range d.Sites {
		if n := strings.TrimSpace(s.SiteNumber); n != "" {
			numbers = append(numbers, n)
		}
	}
	return numbers
}

// SiteNumbersDisplay is the compact list-view form: "N1 (+2)".
func (d *Document) SiteNumbersDisplay() string {
	numbers := d.SiteNumbers()
	switch len(numbers) {
	case 0:
		return "Aucun site"
	case 1:
		return numbers[0]
	default:
		return numbers[0] + " (+" + strconv.Itoa(len(numbers)-1) + ")"
	}
}
