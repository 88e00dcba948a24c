package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/seeall/facturation/internal/config"
	dbpkg "github.com/seeall/facturation/internal/db"
	"github.com/seeall/facturation/internal/models"
	"github.com/seeall/facturation/internal/services"
)

func setupHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, dbpkg.Migrate(conn))
	return conn
}

func newHandlers(t *testing.T, conn *gorm.DB) (*ClientHandler, *DocumentHandler) {
	t.Helper()
	numbering := services.NewNumberingService("SA", "FA")
	numbering.Now = func() time.Time { return time.Date(2025, time.May, 15, 10, 0, 0, 0, time.UTC) }
	docSvc := services.NewDocumentService(conn, numbering)
	return NewClientHandler(services.NewClientService(conn)),
		NewDocumentHandler(docSvc, config.DefaultCompany(), decimal.RequireFromString("0.20"))
}

func seedHandlerClient(t *testing.T, conn *gorm.DB) models.Client {
	t.Helper()
	client := models.Client{Name: "Acme Co", Email: "contact@acme.fr"}
	require.NoError(t, conn.Create(&client).Error)
	return client
}

func postJSON(t *testing.T, handler http.HandlerFunc, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func saveQuoteBody(clientID uint) string {
	return `{"kind":"quote","client_id":` + strconv.Itoa(int(clientID)) + `,"typology":"Pylonne","document_date":"2025-05-20",` +
		`"sites":[{"site_number":"PYL-01","street":"3 chemin des Crêtes","postal_code":"38000","city":"Grenoble",` +
		`"description":"Inspection pylône","unit_price_ex_tax":"100.00"},` +
		`{"site_number":"PYL-02","description":"Inspection antenne","unit_price_ex_tax":"250.00"}]}`
}

func TestDocumentSaveAndListJSON(t *testing.T) {
	conn := setupHandlerDB(t)
	_, dh := newHandlers(t, conn)
	client := seedHandlerClient(t, conn)

	w := postJSON(t, dh.Save, "/documents", saveQuoteBody(client.ID))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Equal(t, "SA.ACMECO.052025001", created["number"])
	require.Equal(t, "350", created["total_ex_tax"])
	require.Equal(t, "420", created["total_inc_tax"])

	listReq := httptest.NewRequest(http.MethodGet, "/documents?kind=quote", nil)
	listW := httptest.NewRecorder()
	dh.List(listW, listReq)
	require.Equal(t, http.StatusOK, listW.Code)
	var list struct {
		Items []map[string]any `json:"items"`
		Total int              `json:"total"`
	}
	require.NoError(t, json.Unmarshal(listW.Body.Bytes(), &list))
	require.Equal(t, 1, list.Total)
	require.Equal(t, "Acme Co", list.Items[0]["client_name"])
	require.Equal(t, "PYL-01 (+1)", list.Items[0]["site_numbers"])

	// invoices list is still empty
	invReq := httptest.NewRequest(http.MethodGet, "/documents?kind=invoice", nil)
	invW := httptest.NewRecorder()
	dh.List(invW, invReq)
	var invList struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(invW.Body.Bytes(), &invList))
	require.Zero(t, invList.Total)
}

func TestDocumentSaveRejectsInvalidPrice(t *testing.T) {
	conn := setupHandlerDB(t)
	_, dh := newHandlers(t, conn)
	client := seedHandlerClient(t, conn)

	body := `{"kind":"quote","client_id":` + strconv.Itoa(int(client.ID)) + `,"document_date":"2025-05-20",` +
		`"sites":[{"site_number":"S1","description":"x","unit_price_ex_tax":"abc"}]}`
	w := postJSON(t, dh.Save, "/documents", body)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "validation_failed")
	require.Contains(t, w.Body.String(), "invalid_price")
}

func TestDocumentSaveRejectsEmptyDocument(t *testing.T) {
	conn := setupHandlerDB(t)
	_, dh := newHandlers(t, conn)
	client := seedHandlerClient(t, conn)

	body := `{"kind":"quote","client_id":` + strconv.Itoa(int(client.ID)) + `,"document_date":"2025-05-20"}`
	w := postJSON(t, dh.Save, "/documents", body)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "at_least_one_site_or_item")
}

func TestConvertAndDeletionGuards(t *testing.T) {
	conn := setupHandlerDB(t)
	_, dh := newHandlers(t, conn)
	client := seedHandlerClient(t, conn)

	w := postJSON(t, dh.Save, "/documents", saveQuoteBody(client.ID))
	require.Equal(t, http.StatusCreated, w.Code)
	var created map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	quoteID := int(created["id"].(float64))

	// convert
	convBody := `{"quote_id":` + strconv.Itoa(quoteID) + `,"order_reference":"PO-9","intervention_date":"2025-05-28"}`
	convW := postJSON(t, dh.Convert, "/documents/convert", convBody)
	require.Equal(t, http.StatusCreated, convW.Code, convW.Body.String())
	var conv map[string]string
	require.NoError(t, json.Unmarshal(convW.Body.Bytes(), &conv))
	require.Equal(t, "FA.ACMECO.052025002", conv["invoice_number"])

	// deleting the quote is blocked with the invoice named
	delW := postJSON(t, dh.Delete, "/documents/delete?id="+strconv.Itoa(quoteID), "")
	require.Equal(t, http.StatusConflict, delW.Code)
	require.Contains(t, delW.Body.String(), "FA.ACMECO.052025002")

	// find the invoice id and delete it; the quote becomes deletable
	var invoice models.Document
	require.NoError(t, conn.Where("kind = ?", models.KindInvoice).First(&invoice).Error)
	delInvW := postJSON(t, dh.Delete, "/documents/delete?id="+strconv.Itoa(int(invoice.ID)), "")
	require.Equal(t, http.StatusOK, delInvW.Code)

	delW = postJSON(t, dh.Delete, "/documents/delete?id="+strconv.Itoa(quoteID), "")
	require.Equal(t, http.StatusOK, delW.Code, delW.Body.String())
}

func TestConvertRejectsBadDate(t *testing.T) {
	conn := setupHandlerDB(t)
	_, dh := newHandlers(t, conn)

	w := postJSON(t, dh.Convert, "/documents/convert", `{"quote_id":1,"order_reference":"PO-9","intervention_date":"28/05/2025"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "invalid_date")
}

func TestDeleteUnknownDocumentReturns404(t *testing.T) {
	conn := setupHandlerDB(t)
	_, dh := newHandlers(t, conn)

	w := postJSON(t, dh.Delete, "/documents/delete?id=9999", "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestRenderDataEndpoint(t *testing.T) {
	conn := setupHandlerDB(t)
	_, dh := newHandlers(t, conn)
	client := seedHandlerClient(t, conn)

	w := postJSON(t, dh.Save, "/documents", saveQuoteBody(client.ID))
	require.Equal(t, http.StatusCreated, w.Code)
	var created map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	id := int(created["id"].(float64))

	req := httptest.NewRequest(http.MethodGet, "/documents/render?id="+strconv.Itoa(id), nil)
	rw := httptest.NewRecorder()
	dh.RenderData(rw, req)
	require.Equal(t, http.StatusOK, rw.Code)
	var data struct {
		Title       string
		Number      string
		TotalIncTax string
		Lines       []map[string]any
	}
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &data))
	require.Equal(t, "DEVIS", data.Title)
	require.Equal(t, "SA.ACMECO.052025001", data.Number)
	require.Equal(t, "420.00 €", data.TotalIncTax)
	require.Len(t, data.Lines, 2)
}

func TestClientHandlers(t *testing.T) {
	conn := setupHandlerDB(t)
	ch, dh := newHandlers(t, conn)

	w := postJSON(t, ch.Save, "/clients", `{"name":"Acme Co","email":"contact@acme.fr"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	clientID := int(created["id"].(float64))

	// blank name rejected
	bad := postJSON(t, ch.Save, "/clients", `{"name":"  "}`)
	require.Equal(t, http.StatusBadRequest, bad.Code)

	// a document blocks deletion
	saveW := postJSON(t, dh.Save, "/documents", saveQuoteBody(uint(clientID)))
	require.Equal(t, http.StatusCreated, saveW.Code)

	delW := postJSON(t, ch.Delete, "/clients/delete?id="+strconv.Itoa(clientID), "")
	require.Equal(t, http.StatusConflict, delW.Code)
	require.Contains(t, delW.Body.String(), "blocking_count")

	// unknown client
	nf := postJSON(t, ch.Delete, "/clients/delete?id=9999", "")
	require.Equal(t, http.StatusNotFound, nf.Code)

	listReq := httptest.NewRequest(http.MethodGet, "/clients", nil)
	listW := httptest.NewRecorder()
	ch.List(listW, listReq)
	require.Equal(t, http.StatusOK, listW.Code)
	require.Contains(t, listW.Body.String(), "Acme Co")
}
