package services

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/seeall/facturation/internal/models"
)

var tokenRegexp = regexp.MustCompile(`[^A-Za-z0-9]`)

// NormalizeClientToken derives the client part of a document number:
// uppercase, alphanumerics only, at most 10 characters. An empty result is
// accepted and produces a degenerate but valid number.
func NormalizeClientToken(name string) string {
	token := tokenRegexp.ReplaceAllString(strings.ToUpper(name), "")
	if len(token) > 10 {
		token = token[:10]
	}
	return token
}

// NumberingService hands out document numbers scoped by client and
// calendar month. Quotes and invoices share one counter per key; the
// prefix tells them apart.
type NumberingService struct {
	QuotePrefix   string
	InvoicePrefix string
	Now           func() time.Time // overridable for tests
}

func NewNumberingService(quotePrefix, invoicePrefix string) *NumberingService {
	return &NumberingService{QuotePrefix: quotePrefix, InvoicePrefix: invoicePrefix, Now: time.Now}
}

// Reserve consumes the next sequence slot for (client, current month) and
// formats the full document number. It must run inside the same
// transaction as the insert that uses the number: the read-modify-write on
// the counter row is what guarantees two reservations never collide.
// Reserved numbers are never reused, even if the transaction's document is
// later deleted.
func (n *NumberingService) Reserve(tx *gorm.DB, clientName string, kind models.DocumentKind) (string, error) {
	token := NormalizeClientToken(clientName)
	period := n.Now().Format("012006") // MMYYYY

	counter := models.Counter{ClientToken: token, Period: period}
	if err := tx.Where(models.Counter{ClientToken: token, Period: period}).
		FirstOrCreate(&counter).Error; err != nil {
		return "", storageErr("reserve number", err)
	}
	if err := tx.Model(&models.Counter{}).
		Where("client_token = ? AND period = ?", token, period).
		UpdateColumn("counter", gorm.Expr("counter + 1")).Error; err != nil {
		return "", storageErr("reserve number", err)
	}
	if err := tx.Where("client_token = ? AND period = ?", token, period).
		First(&counter).Error; err != nil {
		return "", storageErr("reserve number", err)
	}

	prefix := n.QuotePrefix
	if kind == models.KindInvoice {
		prefix = n.InvoicePrefix
	}
	// %03d zero-pads to three digits and keeps growing past 999
	return fmt.Sprintf("%s.%s.%s%03d", prefix, token, period, counter.Counter), nil
}
