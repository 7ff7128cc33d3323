package reports

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/malyjan/reservanto-reports/internal/visits"
)

// Spreadsheet tab names, matching the original report layout.
const (
	TabOnlyOnce     = "přišli_jen_jednou"
	TabReferralLast = "poslední_návštěvy_z_roihunteru"
	TabVouchers     = "nevyužité_vouchery"
	TabAllData      = "všechna_data"
)

// AbsentTabName returns the tab name for the absence report with the
// given threshold.
func AbsentTabName(days int) string {
	return fmt.Sprintf("nepřišli_%d_dní", days)
}

var czechMonths = [...]string{
	"leden", "únor", "březen", "duben", "květen", "červen",
	"červenec", "srpen", "září", "říjen", "listopad", "prosinec",
}

// MonthTabName returns the tab name for the monthly referral report.
func MonthTabName(month int) string {
	if month < 1 || month > 12 {
		return "návštěvy_z_roihunteru"
	}
	return "návštěvy_z_roihunteru_za_" + czechMonths[month-1]
}

// Table is a display-ready report: header plus string cells, the form
// the publisher writes to a spreadsheet tab.
type Table struct {
	Header []string
	Rows   [][]string
}

var (
	standardColumns = []string{
		"title", "createdAt", "start", "customer",
		"phoneNumber", "emailAddress", "bookingNote",
	}
	voucherColumns = append(append([]string{}, standardColumns...),
		"isValidUntil", "isValidVoucher")
	allDataColumns = []string{
		"title", "createdAt", "start", "end",
		"customer", "phoneNumber", "emailAddress", "bookingNote",
		"customerId", "bookingNoShowState", "hasCustomerNote", "isFreeTime", "noShowStatus",
	}
)

// displayTimeFormat renders e.g. 05.03.2024 18:28. The leading
// apostrophe keeps Sheets from reinterpreting the value as a locale
// date.
const displayTimeFormat = "02.01.2006 15:04"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return "'" + t.Format(displayTimeFormat)
}

func formatBool(b bool) string {
	return strings.ToUpper(strconv.FormatBool(b))
}

// FormatStandard renders a report in the seven-column display layout.
// Rows without a title are dropped.
func FormatStandard(vs []visits.Visit) Table {
	t := Table{Header: append([]string{}, standardColumns...)}
	for _, v := range vs {
		if v.Title == "" {
			continue
		}
		t.Rows = append(t.Rows, []string{
			v.Title, formatTime(v.CreatedAt), formatTime(v.Start), v.Customer,
			v.PhoneNumber, v.EmailAddress, v.BookingNote,
		})
	}
	return t
}

// FormatVouchers renders the unused-voucher report, standard columns
// plus the validity pair. Validity cells stay empty when the voucher
// start could not be reconstructed.
func FormatVouchers(rows []VoucherRow) Table {
	t := Table{Header: append([]string{}, voucherColumns...)}
	for _, r := range rows {
		if r.Title == "" {
			continue
		}
		until, valid := "", ""
		if r.StartFound {
			until = formatTime(r.ValidUntil)
			valid = formatBool(r.IsValid)
		}
		t.Rows = append(t.Rows, []string{
			r.Title, formatTime(r.CreatedAt), formatTime(r.Start), r.Customer,
			r.PhoneNumber, r.EmailAddress, r.BookingNote,
			until, valid,
		})
	}
	return t
}

// FormatAllData renders the full normalized table for the "all data"
// tab.
func FormatAllData(vs []visits.Visit) Table {
	t := Table{Header: append([]string{}, allDataColumns...)}
	for _, v := range vs {
		if v.Title == "" {
			continue
		}
		t.Rows = append(t.Rows, []string{
			v.Title, formatTime(v.CreatedAt), formatTime(v.Start), formatTime(v.End),
			v.Customer, v.PhoneNumber, v.EmailAddress, v.BookingNote,
			strconv.FormatInt(v.CustomerID, 10), strconv.Itoa(v.BookingNoShowState),
			formatBool(v.HasCustomerNote), formatBool(v.IsFreeTime), strconv.Itoa(v.NoShowStatus),
		})
	}
	return t
}
