package visits

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// snapshotHeader is the column order of the CSV interchange format
// between ingestion and the report engine.
var snapshotHeader = []string{
	"title", "createdAt", "start", "end",
	"bookingNote", "customerId", "customer", "customerContact",
	"bookingNoShowState", "hasCustomerNote", "isFreeTime", "noShowStatus",
}

// WriteSnapshot writes raw visits as `;`-delimited UTF-8 CSV with a
// header row.
func WriteSnapshot(w io.Writer, raws []Raw) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := cw.Write(snapshotHeader); err != nil {
		return fmt.Errorf("visits: write snapshot header: %w", err)
	}
	for _, r := range raws {
		record := []string{
			r.Title, r.CreatedAt, r.Start, r.End,
			r.BookingNote, strconv.FormatInt(r.CustomerID, 10), r.Customer, r.CustomerContact,
			strconv.Itoa(r.BookingNoShowState), strconv.FormatBool(r.HasCustomerNote),
			strconv.FormatBool(r.IsFreeTime), strconv.Itoa(r.NoShowStatus),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("visits: write snapshot row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadSnapshot parses a `;`-delimited CSV snapshot. Columns are matched
// by header name, so extra columns (e.g. a leading index column from an
// older export) are ignored.
func ReadSnapshot(r io.Reader) ([]Raw, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("visits: read snapshot header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, required := range []string{"customer", "start"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("visits: snapshot missing required column %q", required)
		}
	}

	field := func(record []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	var raws []Raw
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("visits: read snapshot row: %w", err)
		}
		raw := Raw{
			Title:           field(record, "title"),
			CreatedAt:       field(record, "createdAt"),
			Start:           field(record, "start"),
			End:             field(record, "end"),
			BookingNote:     field(record, "bookingNote"),
			Customer:        field(record, "customer"),
			CustomerContact: field(record, "customerContact"),
		}
		raw.CustomerID, _ = strconv.ParseInt(field(record, "customerId"), 10, 64)
		raw.BookingNoShowState, _ = strconv.Atoi(field(record, "bookingNoShowState"))
		raw.HasCustomerNote, _ = strconv.ParseBool(field(record, "hasCustomerNote"))
		raw.IsFreeTime, _ = strconv.ParseBool(field(record, "isFreeTime"))
		raw.NoShowStatus, _ = strconv.Atoi(field(record, "noShowStatus"))
		raws = append(raws, raw)
	}
	return raws, nil
}

// SaveSnapshot writes the snapshot to a file.
func SaveSnapshot(path string, raws []Raw) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("visits: create snapshot file: %w", err)
	}
	defer f.Close()
	if err := WriteSnapshot(f, raws); err != nil {
		return err
	}
	return f.Close()
}

// LoadSnapshot reads a snapshot file.
func LoadSnapshot(path string) ([]Raw, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("visits: open snapshot file: %w", err)
	}
	defer f.Close()
	return ReadSnapshot(f)
}
