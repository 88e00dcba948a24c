package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/seeall/facturation/internal/models"
)

func TestClientSaveRequiresName(t *testing.T) {
	conn := setupServiceDB(t)
	svc := NewClientService(conn)

	_, err := svc.Save(&models.Client{Name: "   "})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Contains(t, vErr.Violations, "name")
}

func TestClientSaveAndList(t *testing.T) {
	conn := setupServiceDB(t)
	svc := NewClientService(conn)

	idB, err := svc.Save(&models.Client{Name: "Bravo SARL"})
	require.NoError(t, err)
	idA, err := svc.Save(&models.Client{Name: "Alpha SAS", Email: "contact@alpha.fr"})
	require.NoError(t, err)
	require.NotEqual(t, idA, idB)

	clients, err := svc.List()
	require.NoError(t, err)
	require.Len(t, clients, 2)
	require.Equal(t, "Alpha SAS", clients[0].Name, "ordered by name")
	require.Equal(t, "Bravo SARL", clients[1].Name)
}

func TestClientDeleteBlockedByDocuments(t *testing.T) {
	conn := setupServiceDB(t)
	svc := NewClientService(conn)
	docSvc := newDocumentService(t, conn)
	client := seedClient(t, conn, "Acme Co")

	quoteID, err := docSvc.Save(testQuote(client.ID))
	require.NoError(t, err)
	_, err = docSvc.ConvertToInvoice(quoteID, "PO-9", time.Date(2025, time.May, 28, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	err = svc.Delete(client.ID)
	var cErr *ConflictError
	require.ErrorAs(t, err, &cErr)
	require.Equal(t, "client_has_documents", cErr.Code)
	require.Equal(t, 2, cErr.BlockingCount, "quote and invoice both block")

	count, err := svc.DocumentCount(client.ID)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)
}

func TestClientDeleteWithoutDocuments(t *testing.T) {
	conn := setupServiceDB(t)
	svc := NewClientService(conn)
	client := seedClient(t, conn, "Acme Co")

	require.NoError(t, svc.Delete(client.ID))
	_, err := svc.Get(client.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestClientDeleteUnknown(t *testing.T) {
	conn := setupServiceDB(t)
	svc := NewClientService(conn)
	require.ErrorIs(t, svc.Delete(9999), ErrNotFound)
}
