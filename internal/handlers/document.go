package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/seeall/facturation/internal/config"
	"github.com/seeall/facturation/internal/httpx"
	"github.com/seeall/facturation/internal/models"
	"github.com/seeall/facturation/internal/render"
	"github.com/seeall/facturation/internal/services"
	"github.com/seeall/facturation/internal/validation"
)

const dateLayout = "2006-01-02"

type DocumentHandler struct {
	Svc     *services.DocumentService
	Company config.Company
	VATRate decimal.Decimal
}

func NewDocumentHandler(svc *services.DocumentService, company config.Company, vatRate decimal.Decimal) *DocumentHandler {
	return &DocumentHandler{Svc: svc, Company: company, VATRate: vatRate}
}

type siteReq struct {
	SiteNumber     string `json:"site_number"`
	Street         string `json:"street"`
	PostalCode     string `json:"postal_code"`
	City           string `json:"city"`
	Latitude       string `json:"latitude"`
	Longitude      string `json:"longitude"`
	Description    string `json:"description"`
	UnitPriceExTax string `json:"unit_price_ex_tax"`
}

type legacyItemReq struct {
	Description string `json:"description"`
	UnitPrice   string `json:"unit_price"`
	Quantity    int    `json:"quantity"`
}

type saveDocumentReq struct {
	ID               uint            `json:"id"`
	Kind             string          `json:"kind"`
	ClientID         uint            `json:"client_id"`
	Typology         string          `json:"typology"`
	DocumentDate     string          `json:"document_date"`
	InterventionDate string          `json:"intervention_date"`
	OrderReference   string          `json:"order_reference"`
	Sites            []siteReq       `json:"sites"`
	LegacyItems      []legacyItemReq `json:"legacy_items"`
}

// List: GET /documents?kind=quote|invoice
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	kind := models.DocumentKind(r.URL.Query().Get("kind"))
	if kind == "" {
		kind = models.KindQuote
	}
	docs, err := h.Svc.List(kind)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	items := make([]map[string]any, 0, len(docs))
	for i := range docs {
		items = append(items, h.documentJSON(&docs[i]))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items, "total": len(items)})
}

// Save: POST /documents – first save assigns id and number
func (h *DocumentHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req saveDocumentReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	doc, verr := buildDocument(&req)
	if verr != nil {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", verr.Violations)
		return
	}
	id, err := h.Svc.Save(doc)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	status := http.StatusCreated
	if req.ID != 0 {
		status = http.StatusOK
	}
	httpx.JSON(w, status, map[string]any{
		"id":           id,
		"number":       doc.Number,
		"total_ex_tax": doc.TotalExTax(),
		"total_tax":    doc.TotalTax(h.VATRate),
		"total_inc_tax": doc.TotalIncTax(h.VATRate),
	})
}

// Convert: POST /documents/convert
func (h *DocumentHandler) Convert(w http.ResponseWriter, r *http.Request) {
	type convertReq struct {
		QuoteID          uint   `json:"quote_id"`
		OrderReference   string `json:"order_reference"`
		InterventionDate string `json:"intervention_date"`
	}
	var req convertReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	interventionDate, err := time.Parse(dateLayout, req.InterventionDate)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"intervention_date": "invalid_date"})
		return
	}
	number, err := h.Svc.ConvertToInvoice(req.QuoteID, req.OrderReference, interventionDate)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]string{"invoice_number": number})
}

// Delete: POST /documents/delete?id=...
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.URL.Query().Get("id"))
	if err != nil || id <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	if err := h.Svc.Delete(uint(id)); err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// RenderData: GET /documents/render?id=... – the payload handed to
// external PDF/Word renderers, amounts already formatted.
func (h *DocumentHandler) RenderData(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.URL.Query().Get("id"))
	if err != nil || id <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	doc, err := h.Svc.Get(uint(id))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, render.Build(doc, h.Company, h.VATRate))
}

func (h *DocumentHandler) documentJSON(doc *models.Document) map[string]any {
	out := map[string]any{
		"id":            doc.ID,
		"number":        doc.Number,
		"kind":          doc.Kind,
		"client_id":     doc.ClientID,
		"client_name":   doc.Client.Name,
		"typology":      doc.Typology,
		"invoiced":      doc.Invoiced,
		"sites":         doc.Sites,
		"legacy_items":  doc.LegacyItems,
		"site_numbers":  doc.SiteNumbersDisplay(),
		"created_at":    doc.CreatedAt,
		"total_ex_tax":  doc.TotalExTax(),
		"total_tax":     doc.TotalTax(h.VATRate),
		"total_inc_tax": doc.TotalIncTax(h.VATRate),
	}
	if doc.DocumentDate != nil {
		out["document_date"] = doc.DocumentDate.Format(dateLayout)
	}
	if doc.InterventionDate != nil {
		out["intervention_date"] = doc.InterventionDate.Format(dateLayout)
	}
	if doc.OrderReference != "" {
		out["order_reference"] = doc.OrderReference
	}
	if doc.LinkedInvoiceID != nil {
		out["linked_invoice_id"] = *doc.LinkedInvoiceID
	}
	return out
}

// buildDocument converts the wire form into a model, rejecting non-numeric
// prices and malformed dates before anything touches the store.
func buildDocument(req *saveDocumentReq) (*models.Document, *services.ValidationError) {
	v := validation.Violations{}
	doc := &models.Document{
		ID:             req.ID,
		Kind:           models.DocumentKind(req.Kind),
		ClientID:       req.ClientID,
		Typology:       req.Typology,
		OrderReference: req.OrderReference,
	}
	if req.Kind == "" {
		doc.Kind = models.KindQuote
	}
	if req.DocumentDate != "" {
		d, err := time.Parse(dateLayout, req.DocumentDate)
		if err != nil {
			v["document_date"] = "invalid_date"
		} else {
			doc.DocumentDate = &d
		}
	}
	if req.InterventionDate != "" {
		d, err := time.Parse(dateLayout, req.InterventionDate)
		if err != nil {
			v["intervention_date"] = "invalid_date"
		} else {
			doc.InterventionDate = &d
		}
	}
	for i, s := range req.Sites {
		price, err := decimal.NewFromString(s.UnitPriceExTax)
		if err != nil {
			v["sites["+strconv.Itoa(i)+"].unit_price_ex_tax"] = "invalid_price"
			continue
		}
		doc.Sites = append(doc.Sites, models.Site{
			SiteNumber:     s.SiteNumber,
			Street:         s.Street,
			PostalCode:     s.PostalCode,
			City:           s.City,
			Latitude:       s.Latitude,
			Longitude:      s.Longitude,
			Description:    s.Description,
			UnitPriceExTax: price,
		})
	}
	for i, it := range req.LegacyItems {
		price, err := decimal.NewFromString(it.UnitPrice)
		if err != nil {
			v["legacy_items["+strconv.Itoa(i)+"].unit_price"] = "invalid_price"
			continue
		}
		qty := it.Quantity
		if qty == 0 {
			qty = 1
		}
		doc.LegacyItems = append(doc.LegacyItems, models.LegacyItem{
			Description: it.Description,
			UnitPrice:   price,
			Quantity:    qty,
		})
	}
	if !v.Empty() {
		return nil, &services.ValidationError{Violations: v}
	}
	return doc, nil
}
