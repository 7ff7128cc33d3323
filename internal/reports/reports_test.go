package reports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/malyjan/reservanto-reports/internal/visits"
)

func at(day, hour int) time.Time {
	return time.Date(2025, 1, day, hour, 0, 0, 0, time.UTC)
}

// withIndexes renumbers rows the way the normalizer does.
func withIndexes(vs []visits.Visit) []visits.Visit {
	for i := range vs {
		vs[i].Index = i
	}
	return vs
}

func TestLastVisitsPicksMaxStartPerCustomer(t *testing.T) {
	table := withIndexes([]visits.Visit{
		{Customer: "Jana Nováková", Start: at(1, 10)},
		{Customer: "Petr Svoboda", Start: at(3, 10)},
		{Customer: "Jana Nováková", Start: at(5, 10)},
		{Customer: "Petr Svoboda", Start: at(2, 10)},
	})

	got := LastVisits(table)
	require.Len(t, got, 2)
	// original row order, not grouping order
	assert.Equal(t, 1, got[0].Index)
	assert.Equal(t, "Petr Svoboda", got[0].Customer)
	assert.Equal(t, 2, got[1].Index)
	assert.Equal(t, "Jana Nováková", got[1].Customer)
}

func TestLastVisitsTieKeepsEarliestRow(t *testing.T) {
	table := withIndexes([]visits.Visit{
		{Customer: "Jana Nováková", Start: at(1, 10)},
		{Customer: "Jana Nováková", Start: at(1, 10)},
	})
	got := LastVisits(table)
	require.Len(t, got, 1)
	assert.Equal(t, 0, got[0].Index)
}

func TestLastVisitsGroupsByNameNotCustomerID(t *testing.T) {
	table := withIndexes([]visits.Visit{
		{Customer: "Jana Nováková", CustomerID: 1, Start: at(1, 10)},
		{Customer: "Jana Nováková", CustomerID: 2, Start: at(2, 10)},
	})
	got := LastVisits(table)
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].CustomerID)
}

func TestOnlyOncePatients(t *testing.T) {
	table := withIndexes([]visits.Visit{
		{Customer: "A", Title: InitialExamTitle, Start: at(1, 10)},
		{Customer: "B", Title: InitialExamTitle, Start: at(2, 10)},
		{Customer: "B", Title: "Kontrola", Start: at(3, 10)},
		{Customer: "C", Title: "Masáž", Start: at(4, 10)},
	})

	got := OnlyOncePatients(table)
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].Customer)
}

func TestOnlyOncePatientsCountsAcrossCustomerIDs(t *testing.T) {
	// same person under two portal IDs is still two visits
	table := withIndexes([]visits.Visit{
		{Customer: "Jana Nováková", CustomerID: 1, Title: InitialExamTitle, Start: at(1, 10)},
		{Customer: "Jana Nováková", CustomerID: 2, Title: "Kontrola", Start: at(2, 10)},
	})
	assert.Empty(t, OnlyOncePatients(table))
}

func TestAbsentForDaysBoundary(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	boundary := now.Add(-30 * 24 * time.Hour)

	exactlyOnBoundary := withIndexes([]visits.Visit{{Customer: "A", Start: boundary}})
	assert.Empty(t, AbsentForDays(exactlyOnBoundary, 30, now), "boundary is strict")

	justOver := withIndexes([]visits.Visit{{Customer: "A", Start: boundary.Add(-time.Second)}})
	assert.Len(t, AbsentForDays(justOver, 30, now), 1)

	recent := withIndexes([]visits.Visit{{Customer: "A", Start: boundary.Add(time.Second)}})
	assert.Empty(t, AbsentForDays(recent, 30, now))
}

func TestAbsentForDaysUsesLastVisitOnly(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	table := withIndexes([]visits.Visit{
		{Customer: "A", Start: at(1, 10)},               // long ago
		{Customer: "A", Start: now.Add(-24 * time.Hour)}, // yesterday
	})
	assert.Empty(t, AbsentForDays(table, 30, now), "recent last visit hides older ones")
}

func TestReferralLastVisits(t *testing.T) {
	table := withIndexes([]visits.Visit{
		{Customer: "A", Start: at(1, 10), BookingNote: "z ROIhunteru"},
		{Customer: "B", Start: at(2, 10), EmailAddress: "lead@roihunter.com"},
		{Customer: "C", Start: at(3, 10), BookingNote: "doporučení"},
		{Customer: "D", Start: at(4, 10)},
	})

	got := ReferralLastVisits(table)
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Customer)
	assert.Equal(t, "B", got[1].Customer)
}

func TestReferralVisitsInMonthWindow(t *testing.T) {
	table := withIndexes([]visits.Visit{
		{Customer: "A", BookingNote: "roi", Start: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
		{Customer: "A", BookingNote: "roi", Start: time.Date(2025, 3, 31, 23, 59, 59, 0, time.UTC)},
		{Customer: "A", BookingNote: "roi", Start: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)},
		{Customer: "B", BookingNote: "bez kampaně", Start: time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)},
	})

	got, err := ReferralVisitsInMonth(table, 3, 2025)
	require.NoError(t, err)
	require.Len(t, got, 2, "window start inclusive, end exclusive")
	// all rows count, not just last visits
	assert.Equal(t, 0, got[0].Index)
	assert.Equal(t, 1, got[1].Index)
}

func TestReferralVisitsInMonthDecemberRollsToNextYear(t *testing.T) {
	table := withIndexes([]visits.Visit{
		{Customer: "A", BookingNote: "roi", Start: time.Date(2025, 12, 31, 23, 0, 0, 0, time.UTC)},
		{Customer: "A", BookingNote: "roi", Start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
	})

	got, err := ReferralVisitsInMonth(table, 12, 2025)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 0, got[0].Index)
}

func TestReferralVisitsInMonthRejectsBadMonth(t *testing.T) {
	_, err := ReferralVisitsInMonth(nil, 0, 2025)
	assert.Error(t, err)
	_, err = ReferralVisitsInMonth(nil, 13, 2025)
	assert.Error(t, err)
}

func TestEndToEndScenario(t *testing.T) {
	t0 := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	table := withIndexes([]visits.Visit{
		{Customer: "X", Title: InitialExamTitle, Start: t0},
	})

	onlyOnce := OnlyOncePatients(table)
	require.Len(t, onlyOnce, 1)
	assert.Equal(t, "X", onlyOnce[0].Customer)

	now := t0.Add(101 * 24 * time.Hour)
	absent := AbsentForDays(table, 100, now)
	require.Len(t, absent, 1)
	assert.Equal(t, "X", absent[0].Customer)

	assert.Empty(t, ReferralLastVisits(table))
	inMonth, err := ReferralVisitsInMonth(table, 1, 2025)
	require.NoError(t, err)
	assert.Empty(t, inMonth)
}
