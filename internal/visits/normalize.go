package visits

// Dedupe removes exact duplicate rows, keeping the last occurrence of
// each. The relative order of the kept rows is preserved.
func Dedupe(raws []Raw) []Raw {
	remaining := make(map[Raw]int, len(raws))
	for _, r := range raws {
		remaining[r]++
	}
	out := make([]Raw, 0, len(remaining))
	for _, r := range raws {
		remaining[r]--
		if remaining[r] == 0 {
			out = append(out, r)
		}
	}
	return out
}

// Normalize turns the raw feed into the table every report reads:
// deleted customers dropped, exact duplicates removed (last occurrence
// kept), timestamps parsed as UTC instants and the contact string split
// into phone and email. Row-level parse failures leave the field absent
// and keep the row.
func Normalize(raws []Raw) []Visit {
	kept := make([]Raw, 0, len(raws))
	for _, r := range raws {
		if r.Customer == DeletedCustomer {
			continue
		}
		kept = append(kept, r)
	}
	kept = Dedupe(kept)

	out := make([]Visit, 0, len(kept))
	for i, r := range kept {
		v := Visit{
			Index:              i,
			Title:              r.Title,
			BookingNote:        r.BookingNote,
			CustomerID:         r.CustomerID,
			Customer:           r.Customer,
			BookingNoShowState: r.BookingNoShowState,
			HasCustomerNote:    r.HasCustomerNote,
			IsFreeTime:         r.IsFreeTime,
			NoShowStatus:       r.NoShowStatus,
		}
		v.CreatedAt, _ = ParseTimestamp(r.CreatedAt)
		v.Start, _ = ParseTimestamp(r.Start)
		v.End, _ = ParseTimestamp(r.End)
		v.PhoneNumber, v.EmailAddress = SplitContact(r.CustomerContact)
		out = append(out, v)
	}
	return out
}
