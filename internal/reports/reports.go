// Package reports derives the business reports from the normalized
// visit table. Every function takes a read-only snapshot and returns a
// new slice; the input is never mutated and no report reads another
// report's output.
package reports

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/malyjan/reservanto-reports/internal/visits"
)

// InitialExamTitle is the service name of a first appointment.
const InitialExamTitle = "Vstupní vyšetření"

// referralTag marks bookings acquired through the ROI Hunter campaign;
// it shows up in free-text notes and in campaign email addresses.
const referralTag = "roi"

// LastVisits returns, per customer, the row with the maximum start
// timestamp. When timestamps tie the earliest row wins. Output keeps
// the original row order.
func LastVisits(vs []visits.Visit) []visits.Visit {
	best := make(map[string]visits.Visit, len(vs))
	for _, v := range vs {
		cur, ok := best[v.Customer]
		if !ok || v.Start.After(cur.Start) {
			best[v.Customer] = v
		}
	}
	out := make([]visits.Visit, 0, len(best))
	for _, v := range best {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// OnlyOncePatients returns initial examinations of patients whose name
// appears exactly once in the whole table.
func OnlyOncePatients(vs []visits.Visit) []visits.Visit {
	counts := make(map[string]int, len(vs))
	for _, v := range vs {
		counts[v.Customer]++
	}
	var out []visits.Visit
	for _, v := range vs {
		if v.Title == InitialExamTitle && counts[v.Customer] == 1 {
			out = append(out, v)
		}
	}
	return out
}

// AbsentForDays returns the last visits of customers whose most recent
// start is strictly earlier than now minus the given number of days.
func AbsentForDays(vs []visits.Visit, days int, now time.Time) []visits.Visit {
	threshold := now.Add(-time.Duration(days) * 24 * time.Hour)
	var out []visits.Visit
	for _, v := range LastVisits(vs) {
		if v.Start.Before(threshold) {
			out = append(out, v)
		}
	}
	return out
}

// isReferral reports whether the row came through the referral
// campaign. Absent note and email behave as empty strings.
func isReferral(v visits.Visit) bool {
	return strings.Contains(strings.ToLower(v.BookingNote), referralTag) ||
		strings.Contains(strings.ToLower(v.EmailAddress), referralTag)
}

// ReferralLastVisits returns the last visits of customers acquired
// through the referral campaign.
func ReferralLastVisits(vs []visits.Visit) []visits.Visit {
	var out []visits.Visit
	for _, v := range LastVisits(vs) {
		if isReferral(v) {
			out = append(out, v)
		}
	}
	return out
}

// ReferralVisitsInMonth returns every referral-campaign visit whose
// start falls within the given calendar month, UTC. December rolls the
// window end into January of the following year.
func ReferralVisitsInMonth(vs []visits.Visit, month, year int) ([]visits.Visit, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("reports: month must be 1-12, got %d", month)
	}
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes month 13 into January of year+1
	to := time.Date(year, time.Month(month+1), 1, 0, 0, 0, 0, time.UTC)

	var out []visits.Visit
	for _, v := range vs {
		if !isReferral(v) {
			continue
		}
		if !v.Start.Before(from) && v.Start.Before(to) {
			out = append(out, v)
		}
	}
	return out, nil
}
