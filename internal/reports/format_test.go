package reports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/malyjan/reservanto-reports/internal/visits"
)

func TestFormatTime(t *testing.T) {
	ts := time.Date(2024, 3, 5, 18, 28, 0, 0, time.UTC)
	assert.Equal(t, "'05.03.2024 18:28", formatTime(ts))
	assert.Equal(t, "", formatTime(time.Time{}))
}

func TestFormatStandard(t *testing.T) {
	table := FormatStandard([]visits.Visit{
		{
			Title:        "Masáž",
			CreatedAt:    time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC),
			Start:        time.Date(2025, 1, 2, 10, 30, 0, 0, time.UTC),
			Customer:     "Jana Nováková",
			PhoneNumber:  "123 456 789",
			EmailAddress: "jana@seznam.cz",
			BookingNote:  "1/3",
		},
		{Customer: "bez názvu služby"}, // absent title is dropped
	})

	assert.Equal(t, []string{
		"title", "createdAt", "start", "customer",
		"phoneNumber", "emailAddress", "bookingNote",
	}, table.Header)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, []string{
		"Masáž", "'01.01.2025 08:00", "'02.01.2025 10:30", "Jana Nováková",
		"123 456 789", "jana@seznam.cz", "1/3",
	}, table.Rows[0])
}

func TestFormatVouchers(t *testing.T) {
	start := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)
	until := time.Date(2025, 5, 6, 10, 0, 0, 0, time.UTC)
	table := FormatVouchers([]VoucherRow{
		{
			Visit:        visits.Visit{Title: "Masáž", Start: start, Customer: "A"},
			CurrentVisit: 1, TotalVisits: 3,
			VoucherStart: start, StartFound: true,
			IsValid: true, ValidUntil: until,
		},
		{
			Visit:        visits.Visit{Title: "Masáž", Start: start, Customer: "B"},
			CurrentVisit: 2, TotalVisits: 5,
			// voucher start not reconstructed
		},
	})

	assert.Equal(t, "isValidUntil", table.Header[7])
	assert.Equal(t, "isValidVoucher", table.Header[8])
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "'06.05.2025 10:00", table.Rows[0][7])
	assert.Equal(t, "TRUE", table.Rows[0][8])
	assert.Equal(t, "", table.Rows[1][7], "validity stays empty without a start")
	assert.Equal(t, "", table.Rows[1][8])
}

func TestFormatAllData(t *testing.T) {
	table := FormatAllData([]visits.Visit{
		{
			Title:      "Kontrola",
			Start:      time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC),
			End:        time.Date(2025, 2, 1, 9, 30, 0, 0, time.UTC),
			Customer:   "Petr Svoboda",
			CustomerID: 42,
			IsFreeTime: true,
		},
	})

	require.Len(t, table.Rows, 1)
	row := table.Rows[0]
	require.Len(t, row, len(table.Header))
	assert.Equal(t, "42", row[8])
	assert.Equal(t, "TRUE", row[11])
	assert.Equal(t, "'01.02.2025 09:30", row[3])
}

func TestTabNames(t *testing.T) {
	assert.Equal(t, "nepřišli_100_dní", AbsentTabName(100))
	assert.Equal(t, "návštěvy_z_roihunteru_za_březen", MonthTabName(3))
	assert.Equal(t, "návštěvy_z_roihunteru_za_prosinec", MonthTabName(12))
}
