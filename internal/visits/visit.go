// Package visits holds the booking-event data model shared by the
// ingestion client, the normalizer and the report engine.
package visits

import (
	"regexp"
	"time"
)

// DeletedCustomer is the placeholder the portal substitutes for
// customers whose records were erased. Such rows carry no identity and
// are dropped before any report runs.
const DeletedCustomer = "Smazáno"

// Raw is one row of the calendar feed exactly as the portal returns it.
// Timestamps are kept as strings until normalization.
type Raw struct {
	Title              string `json:"title"`
	CreatedAt          string `json:"createdAt"`
	Start              string `json:"start"`
	End                string `json:"end"`
	BookingNote        string `json:"bookingNote"`
	CustomerID         int64  `json:"customerId"`
	Customer           string `json:"customer"`
	CustomerContact    string `json:"customerContact"`
	BookingNoShowState int    `json:"bookingNoShowState"`
	HasCustomerNote    bool   `json:"hasCustomerNote"`
	IsFreeTime         bool   `json:"isFreeTime"`
	NoShowStatus       int    `json:"noShowStatus"`
}

// Visit is a normalized booking event. The zero time.Time value marks
// an absent or unparseable timestamp; string fields use "" for absent.
//
// Customer (the display name) is the patient identity. The portal
// assigns multiple CustomerIDs to the same person, so no grouping may
// ever key on CustomerID.
type Visit struct {
	Index              int
	Title              string
	CreatedAt          time.Time
	Start              time.Time
	End                time.Time
	BookingNote        string
	CustomerID         int64
	Customer           string
	PhoneNumber        string
	EmailAddress       string
	BookingNoShowState int
	HasCustomerNote    bool
	IsFreeTime         bool
	NoShowStatus       int
}

var (
	// +420 123 456 789 -> captures "123 456 789"
	phonePattern = regexp.MustCompile(`\+\d{3} (\d{3} \d{3} \d{3})`)
	emailPattern = regexp.MustCompile(`[\w.-]+@[\w.-]+\.\w+`)
)

// SplitContact extracts a phone number and an email address from the
// free-form contact string. The phone keeps only the three 3-digit
// groups, without the country prefix. Non-matching input yields "".
func SplitContact(contact string) (phone, email string) {
	if m := phonePattern.FindStringSubmatch(contact); m != nil {
		phone = m[1]
	}
	email = emailPattern.FindString(contact)
	return phone, email
}

// feed timestamps come as ISO-8601 variants, with or without zone
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601-compatible string into a UTC
// instant. Malformed input returns the zero time and false; it never
// fails the row.
func ParseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
