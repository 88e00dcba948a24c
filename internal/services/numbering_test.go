package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/seeall/facturation/internal/models"
)

func setupNumberingDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Counter{}))
	return db
}

func fixedClock(year int, month time.Month) func() time.Time {
	return func() time.Time { return time.Date(year, month, 15, 10, 0, 0, 0, time.UTC) }
}

func TestNormalizeClientToken(t *testing.T) {
	cases := map[string]string{
		"Acme Co":                  "ACMECO",
		"Société Générale":         "SOCITGNRAL",
		"a-b_c 123":                "ABC123",
		"éàç":                      "",
		"":                         "",
		"VeryLongClientNameIndeed": "VERYLONGCL",
	}
	for in, want := range cases {
		require.Equal(t, want, NormalizeClientToken(in), "input %q", in)
	}
}

func TestReserveSequence(t *testing.T) {
	db := setupNumberingDB(t)
	svc := NewNumberingService("SA", "FA")
	svc.Now = fixedClock(2025, time.May)

	n1, err := svc.Reserve(db, "Acme Co", models.KindQuote)
	require.NoError(t, err)
	require.Equal(t, "SA.ACMECO.052025001", n1)

	n2, err := svc.Reserve(db, "Acme Co", models.KindQuote)
	require.NoError(t, err)
	require.Equal(t, "SA.ACMECO.052025002", n2)
}

func TestReserveSharedCounterAcrossKinds(t *testing.T) {
	// Quotes and invoices draw from the same (client, period) counter; the
	// prefix keeps the full numbers distinct.
	db := setupNumberingDB(t)
	svc := NewNumberingService("SA", "FA")
	svc.Now = fixedClock(2025, time.May)

	n1, err := svc.Reserve(db, "Acme Co", models.KindQuote)
	require.NoError(t, err)
	n2, err := svc.Reserve(db, "Acme Co", models.KindInvoice)
	require.NoError(t, err)
	require.Equal(t, "SA.ACMECO.052025001", n1)
	require.Equal(t, "FA.ACMECO.052025002", n2)
}

func TestReserveScopedByClientAndPeriod(t *testing.T) {
	db := setupNumberingDB(t)
	svc := NewNumberingService("SA", "FA")
	svc.Now = fixedClock(2025, time.May)

	n1, err := svc.Reserve(db, "Acme Co", models.KindQuote)
	require.NoError(t, err)
	n2, err := svc.Reserve(db, "Other Client", models.KindQuote)
	require.NoError(t, err)
	require.Equal(t, "SA.ACMECO.052025001", n1)
	require.Equal(t, "SA.OTHERCLIEN.052025001", n2)

	svc.Now = fixedClock(2025, time.June)
	n3, err := svc.Reserve(db, "Acme Co", models.KindQuote)
	require.NoError(t, err)
	require.Equal(t, "SA.ACMECO.062025001", n3)
}

func TestReserveNeverRepeats(t *testing.T) {
	db := setupNumberingDB(t)
	svc := NewNumberingService("SA", "FA")
	svc.Now = fixedClock(2025, time.May)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		n, err := svc.Reserve(db, "Acme Co", models.KindQuote)
		require.NoError(t, err)
		require.False(t, seen[n], "number %s repeated", n)
		seen[n] = true
	}
}

func TestReserveGrowsPastThreeDigits(t *testing.T) {
	db := setupNumberingDB(t)
	svc := NewNumberingService("SA", "FA")
	svc.Now = fixedClock(2025, time.May)

	require.NoError(t, db.Create(&models.Counter{ClientToken: "ACMECO", Period: "052025", Counter: 999}).Error)
	n, err := svc.Reserve(db, "Acme Co", models.KindQuote)
	require.NoError(t, err)
	require.Equal(t, "SA.ACMECO.0520251000", n)
}

func TestReserveEmptyToken(t *testing.T) {
	// A name that normalizes to nothing still yields a valid number.
	db := setupNumberingDB(t)
	svc := NewNumberingService("SA", "FA")
	svc.Now = fixedClock(2025, time.May)

	n, err := svc.Reserve(db, "éàç", models.KindQuote)
	require.NoError(t, err)
	require.Equal(t, "SA..052025001", n)
}
