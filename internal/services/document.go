package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/seeall/facturation/internal/models"
	"github.com/seeall/facturation/internal/validation"
)

// DocumentService is the lifecycle engine for quotes and invoices: first
// save with number assignment, full-replace updates, the quote→invoice
// conversion, and the deletion guards keeping both sides consistent.
//
// Every multi-step operation runs inside one transaction; either all of
// its sub-steps commit or none do.
type DocumentService struct {
	DB        *gorm.DB
	Numbering *NumberingService
}

func NewDocumentService(db *gorm.DB, numbering *NumberingService) *DocumentService {
	return &DocumentService{DB: db, Numbering: numbering}
}

// List returns all documents of the given kind, newest first, with client
// and line items fully resolved. Callers get complete aggregates; mutating
// one has no effect until it is saved back.
func (s *DocumentService) List(kind models.DocumentKind) ([]models.Document, error) {
	if !kind.Valid() {
		return nil, &ValidationError{Violations: validation.Violations{"kind": "invalid"}}
	}
	var docs []models.Document
	err := s.DB.Preload("Client").Preload("Sites").Preload("LegacyItems").
		Where("kind = ?", kind).
		Order("created_at DESC, id DESC").
		Find(&docs).Error
	if err != nil {
		return nil, storageErr("list documents", err)
	}
	return docs, nil
}

// Get returns one fully resolved document by id.
func (s *DocumentService) Get(id uint) (*models.Document, error) {
	var doc models.Document
	err := s.DB.Preload("Client").Preload("Sites").Preload("LegacyItems").
		First(&doc, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get document", err)
	}
	return &doc, nil
}

// Save persists a document. A draft (no id) gets its id and number
// assigned atomically on this first save; an existing document has its
// header updated and its sites and legacy items replaced wholesale.
// Conversion state (Invoiced, LinkedInvoiceID) is never taken from the
// caller: only ConvertToInvoice and invoice deletion touch it.
func (s *DocumentService) Save(doc *models.Document) (uint, error) {
	if err := validateDocument(doc); err != nil {
		return 0, err
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var client models.Client
		if err := tx.First(&client, doc.ClientID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return storageErr("save document", err)
		}

		if doc.ID == 0 {
			number, err := s.Numbering.Reserve(tx, client.Name, doc.Kind)
			if err != nil {
				return err
			}
			doc.Number = number
			doc.Invoiced = false
			doc.LinkedInvoiceID = nil
			if err := tx.Omit(clause.Associations).Create(doc).Error; err != nil {
				return storageErr("save document", err)
			}
		} else {
			var existing models.Document
			if err := tx.First(&existing, doc.ID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrNotFound
				}
				return storageErr("save document", err)
			}
			// number, kind, creation time and conversion state are immutable here
			doc.Number = existing.Number
			doc.Kind = existing.Kind
			doc.CreatedAt = existing.CreatedAt
			doc.Invoiced = existing.Invoiced
			doc.LinkedInvoiceID = existing.LinkedInvoiceID
			updates := map[string]any{
				"client_id":         doc.ClientID,
				"typology":          doc.Typology,
				"document_date":     doc.DocumentDate,
				"intervention_date": doc.InterventionDate,
				"order_reference":   doc.OrderReference,
			}
			if err := tx.Model(&models.Document{}).Where("id = ?", doc.ID).Updates(updates).Error; err != nil {
				return storageErr("save document", err)
			}
			if err := deleteChildren(tx, doc.ID); err != nil {
				return err
			}
		}

		return insertChildren(tx, doc)
	})
	if err != nil {
		return 0, err
	}
	return doc.ID, nil
}

// ConvertToInvoice turns an open quote into an invoice: a new invoice
// document is created with the quote's sites and legacy items deep-copied,
// and the quote is flagged as invoiced and linked to it. The whole step is
// atomic and returns the new invoice number.
func (s *DocumentService) ConvertToInvoice(quoteID uint, orderReference string, interventionDate time.Time) (string, error) {
	v := validation.Violations{}
	validation.Required("order_reference", orderReference, v)
	if interventionDate.IsZero() {
		v["intervention_date"] = "required"
	}
	if !v.Empty() {
		return "", &ValidationError{Violations: v}
	}

	var invoiceNumber string
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var quote models.Document
		err := tx.Preload("Client").Preload("Sites").Preload("LegacyItems").
			First(&quote, quoteID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return storageErr("convert quote", err)
		}
		if quote.Kind != models.KindQuote {
			return &ConflictError{Code: "not_a_quote", BlockingNumber: quote.Number}
		}
		if quote.Invoiced {
			blocking := ""
			if quote.LinkedInvoiceID != nil {
				var linked models.Document
				if err := tx.First(&linked, *quote.LinkedInvoiceID).Error; err == nil {
					blocking = linked.Number
				}
			}
			return &ConflictError{Code: "quote_already_invoiced", BlockingNumber: blocking}
		}

		number, err := s.Numbering.Reserve(tx, quote.Client.Name, models.KindInvoice)
		if err != nil {
			return err
		}

		invoice := models.Document{
			Number:           number,
			ClientID:         quote.ClientID,
			Kind:             models.KindInvoice,
			Typology:         quote.Typology,
			DocumentDate:     quote.DocumentDate,
			InterventionDate: &interventionDate,
			OrderReference:   orderReference,
		}
		if err := tx.Omit(clause.Associations).Create(&invoice).Error; err != nil {
			return storageErr("convert quote", err)
		}

		// deep copy: the invoice's lines live their own life from here on
		invoice.Sites = make([]models.Site, len(quote.Sites))
		for i, site := range quote.Sites {
			site.ID = 0
			site.DocumentID = invoice.ID
			invoice.Sites[i] = site
		}
		invoice.LegacyItems = make([]models.LegacyItem, len(quote.LegacyItems))
		for i, item := range quote.LegacyItems {
			item.ID = 0
			item.DocumentID = invoice.ID
			invoice.LegacyItems[i] = item
		}
		if err := insertChildren(tx, &invoice); err != nil {
			return err
		}

		flags := map[string]any{"invoiced": true, "linked_invoice_id": invoice.ID}
		if err := tx.Model(&models.Document{}).Where("id = ?", quote.ID).Updates(flags).Error; err != nil {
			return storageErr("convert quote", err)
		}
		invoiceNumber = number
		return nil
	})
	if err != nil {
		return "", err
	}
	return invoiceNumber, nil
}

// Delete removes a document with its line items. A converted quote cannot
// be deleted while its invoice exists; deleting an invoice releases its
// source quote back to the open state so it can be converted again.
func (s *DocumentService) Delete(id uint) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var doc models.Document
		if err := tx.First(&doc, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return storageErr("delete document", err)
		}

		if doc.Kind == models.KindQuote && doc.Invoiced {
			blocking := ""
			if doc.LinkedInvoiceID != nil {
				var linked models.Document
				if err := tx.First(&linked, *doc.LinkedInvoiceID).Error; err == nil {
					blocking = linked.Number
				}
			}
			return &ConflictError{Code: "quote_invoiced", BlockingNumber: blocking}
		}

		if doc.Kind == models.KindInvoice {
			// release the source quote, if it still exists
			reset := map[string]any{"invoiced": false, "linked_invoice_id": nil}
			if err := tx.Model(&models.Document{}).Where("linked_invoice_id = ?", id).Updates(reset).Error; err != nil {
				return storageErr("delete document", err)
			}
		}

		if err := deleteChildren(tx, id); err != nil {
			return err
		}
		if err := tx.Delete(&models.Document{}, id).Error; err != nil {
			return storageErr("delete document", err)
		}
		return nil
	})
}

func deleteChildren(tx *gorm.DB, documentID uint) error {
	if err := tx.Where("document_id = ?", documentID).Delete(&models.Site{}).Error; err != nil {
		return storageErr("delete sites", err)
	}
	if err := tx.Where("document_id = ?", documentID).Delete(&models.LegacyItem{}).Error; err != nil {
		return storageErr("delete legacy items", err)
	}
	return nil
}

func insertChildren(tx *gorm.DB, doc *models.Document) error {
	for i := range doc.Sites {
		doc.Sites[i].ID = 0
		doc.Sites[i].DocumentID = doc.ID
	}
	if len(doc.Sites) > 0 {
		if err := tx.Create(&doc.Sites).Error; err != nil {
			return storageErr("insert sites", err)
		}
	}
	for i := range doc.LegacyItems {
		doc.LegacyItems[i].ID = 0
		doc.LegacyItems[i].DocumentID = doc.ID
	}
	if len(doc.LegacyItems) > 0 {
		if err := tx.Create(&doc.LegacyItems).Error; err != nil {
			return storageErr("insert legacy items", err)
		}
	}
	return nil
}

func validateDocument(doc *models.Document) error {
	v := validation.Violations{}
	if !doc.Kind.Valid() {
		v["kind"] = "invalid"
	}
	if doc.ClientID == 0 {
		v["client_id"] = "required"
	}
	switch doc.Kind {
	case models.KindQuote:
		if doc.DocumentDate == nil || doc.DocumentDate.IsZero() {
			v["document_date"] = "required"
		}
	case models.KindInvoice:
		if doc.InterventionDate == nil || doc.InterventionDate.IsZero() {
			v["intervention_date"] = "required"
		}
		validation.Required("order_reference", doc.OrderReference, v)
	}
	if doc.Empty() {
		v["items"] = "at_least_one_site_or_item"
	}
	for i, site := range doc.Sites {
		validation.Required(fmt.Sprintf("sites[%d].site_number", i), site.SiteNumber, v)
		validation.Required(fmt.Sprintf("sites[%d].description", i), site.Description, v)
		validation.NonNegativeAmount(fmt.Sprintf("sites[%d].unit_price_ex_tax", i), site.UnitPriceExTax, v)
	}
	for i, item := range doc.LegacyItems {
		validation.Required(fmt.Sprintf("legacy_items[%d].description", i), item.Description, v)
		validation.NonNegativeAmount(fmt.Sprintf("legacy_items[%d].unit_price", i), item.UnitPrice, v)
		validation.PositiveInt(fmt.Sprintf("legacy_items[%d].quantity", i), item.Quantity, v)
	}
	if !v.Empty() {
		return &ValidationError{Violations: v}
	}
	return nil
}
