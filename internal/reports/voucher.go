package reports

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/malyjan/reservanto-reports/internal/visits"
)

// Voucher progress is encoded at the front of the booking note as
// "<current>/<total>" (a backslash separator appears in older notes).
var voucherNotePattern = regexp.MustCompile(`^(\d+)[/\\](\d+)`)

// A month is fixed at 31 days for voucher validity. Documented
// simplification, not calendar-accurate.
const daysPerMonth = 31

// validity window in months, keyed by package size
var voucherMonths = map[int]int{3: 4, 5: 8, 10: 12}

// ErrBadVoucherSize marks a voucher package size outside {3, 5, 10}.
var ErrBadVoucherSize = errors.New("voucher size must be 3, 5 or 10 visits")

// VoucherProgress is the parsed "<current>/<total>" tag.
type VoucherProgress struct {
	CurrentVisit int
	TotalVisits  int
}

// ParseVoucherNote extracts voucher progress from a booking note. The
// second return value is false when the note carries no voucher tag;
// parsing never fails otherwise.
func ParseVoucherNote(note string) (VoucherProgress, bool) {
	m := voucherNotePattern.FindStringSubmatch(note)
	if m == nil {
		return VoucherProgress{}, false
	}
	// the pattern guarantees digits, Atoi cannot fail here
	current, _ := strconv.Atoi(m[1])
	total, _ := strconv.Atoi(m[2])
	return VoucherProgress{CurrentVisit: current, TotalVisits: total}, true
}

// VoucherValidity computes whether a voucher that started at the given
// instant is still valid now, and until when it is valid.
func VoucherValidity(start time.Time, totalVisits int, now time.Time) (valid bool, until time.Time, err error) {
	months, ok := voucherMonths[totalVisits]
	if !ok {
		return false, time.Time{}, fmt.Errorf("reports: %w, got %d", ErrBadVoucherSize, totalVisits)
	}
	window := time.Duration(months*daysPerMonth) * 24 * time.Hour
	return start.After(now.Add(-window)), start.Add(window), nil
}

// VoucherRow is one customer mid-voucher, augmented with the derived
// voucher state.
type VoucherRow struct {
	visits.Visit
	CurrentVisit int
	TotalVisits  int
	VoucherStart time.Time
	StartFound   bool
	IsValid      bool
	ValidUntil   time.Time
}

type voucherVisit struct {
	visits.Visit
	progress VoucherProgress
}

// UnusedVouchers reports customers whose latest voucher-tagged visit
// shows an unfinished package (current < total). Each reported row
// carries the reconstructed voucher start: the most recent row (by
// original row index) tagged with the lowest visit number present for
// that customer. The walk over visit numbers is bounded by the highest
// number seen in the dataset; when nothing matches the row is reported
// with StartFound false instead of looping.
//
// Customers whose package size is outside {3, 5, 10} are skipped and
// returned as errors so one bad record cannot kill the batch.
func UnusedVouchers(vs []visits.Visit, now time.Time) (rows []VoucherRow, skipped []error) {
	var tagged []voucherVisit
	maxVisitNumber := 0
	for _, v := range vs {
		if v.BookingNote == "" {
			continue
		}
		p, ok := ParseVoucherNote(v.BookingNote)
		if !ok {
			continue
		}
		tagged = append(tagged, voucherVisit{Visit: v, progress: p})
		if p.CurrentVisit > maxVisitNumber {
			maxVisitNumber = p.CurrentVisit
		}
	}

	// current voucher state: per customer, the tagged row with the
	// latest start (earliest row wins a tie)
	latest := make(map[string]voucherVisit, len(tagged))
	for _, v := range tagged {
		cur, ok := latest[v.Customer]
		if !ok || v.Start.After(cur.Start) {
			latest[v.Customer] = v
		}
	}
	states := make([]voucherVisit, 0, len(latest))
	for _, v := range latest {
		states = append(states, v)
	}
	// output follows the original row order of the state rows
	sort.Slice(states, func(i, j int) bool { return states[i].Index < states[j].Index })

	for _, state := range states {
		if state.progress.CurrentVisit >= state.progress.TotalVisits {
			continue
		}
		if _, ok := voucherMonths[state.progress.TotalVisits]; !ok {
			skipped = append(skipped, fmt.Errorf("reports: customer %q: %w, got %d",
				state.Customer, ErrBadVoucherSize, state.progress.TotalVisits))
			continue
		}

		row := VoucherRow{
			Visit:        state.Visit,
			CurrentVisit: state.progress.CurrentVisit,
			TotalVisits:  state.progress.TotalVisits,
		}
		if start, ok := findVoucherStart(tagged, state.Customer, maxVisitNumber); ok {
			row.VoucherStart = start
			row.StartFound = true
			row.IsValid, row.ValidUntil, _ = VoucherValidity(start, row.TotalVisits, now)
		}
		rows = append(rows, row)
	}
	return rows, skipped
}

// findVoucherStart walks visit numbers 1, 2, 3, ... up to the highest
// number seen in the dataset and returns the start of the most recent
// row (by row index) tagged with the first number that matches. The
// numbering restarts when a customer buys a new voucher, so the most
// recent tagged row is the best-effort reconstruction of the current
// package's first visit.
func findVoucherStart(tagged []voucherVisit, customer string, maxVisitNumber int) (time.Time, bool) {
	for n := 1; n <= maxVisitNumber; n++ {
		found := false
		var best voucherVisit
		for _, v := range tagged {
			if v.Customer != customer || v.progress.CurrentVisit != n {
				continue
			}
			if !found || v.Index > best.Index {
				best = v
				found = true
			}
		}
		if found {
			return best.Start, true
		}
	}
	return time.Time{}, false
}
