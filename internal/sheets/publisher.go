// Package sheets publishes report tables to a Google Spreadsheet. The
// services are constructed once per run from a service-account
// credential file and injected into the pipeline; nothing here is
// global.
package sheets

import (
	"context"
	"fmt"
	"strings"

	driveapi "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/malyjan/reservanto-reports/internal/reports"
	"github.com/malyjan/reservanto-reports/pkg/logging"
)

// Publisher writes report tables into spreadsheet tabs, creating the
// spreadsheet and tabs as needed. The spreadsheet is owned by the
// service account and shared with the configured user address.
type Publisher struct {
	sheets    *sheetsapi.Service
	drive     *driveapi.Service
	logger    *logging.Logger
	shareWith string
}

// NewPublisher builds Sheets and Drive services from the given
// service-account credential file.
func NewPublisher(ctx context.Context, credentialsPath, shareWith string, logger *logging.Logger) (*Publisher, error) {
	if logger == nil {
		logger = logging.Default()
	}
	sheetsSvc, err := sheetsapi.NewService(ctx,
		option.WithCredentialsFile(credentialsPath),
		option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("sheets: create sheets service: %w", err)
	}
	driveSvc, err := driveapi.NewService(ctx,
		option.WithCredentialsFile(credentialsPath),
		option.WithScopes(driveapi.DriveScope))
	if err != nil {
		return nil, fmt.Errorf("sheets: create drive service: %w", err)
	}
	return &Publisher{
		sheets:    sheetsSvc,
		drive:     driveSvc,
		logger:    logger,
		shareWith: shareWith,
	}, nil
}

// EnsureSpreadsheet returns the id of the spreadsheet with the given
// title, creating and sharing it when absent. Lookup by title keeps the
// operation idempotent across reruns of the same day.
func (p *Publisher) EnsureSpreadsheet(ctx context.Context, title string) (string, error) {
	query := fmt.Sprintf("name='%s' and mimeType='application/vnd.google-apps.spreadsheet' and trashed=false",
		strings.ReplaceAll(title, "'", `\'`))
	list, err := p.drive.Files.List().Q(query).Fields("files(id, name)").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("sheets: search for spreadsheet %q: %w", title, err)
	}
	if len(list.Files) > 0 {
		id := list.Files[0].Id
		p.logger.Info("spreadsheet already exists", "title", title, "id", id)
		return id, nil
	}

	created, err := p.sheets.Spreadsheets.Create(&sheetsapi.Spreadsheet{
		Properties: &sheetsapi.SpreadsheetProperties{Title: title},
	}).Fields("spreadsheetId").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("sheets: create spreadsheet %q: %w", title, err)
	}
	id := created.SpreadsheetId
	p.logger.Info("spreadsheet created", "title", title, "id", id)

	_, err = p.drive.Permissions.Create(id, &driveapi.Permission{
		Type:         "user",
		Role:         "writer",
		EmailAddress: p.shareWith,
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("sheets: share spreadsheet with %s: %w", p.shareWith, err)
	}
	p.logger.Info("spreadsheet shared", "with", p.shareWith)
	return id, nil
}

// Publish overwrites the named tab with the table, creating the tab
// when it does not exist. Returns the number of cells written.
func (p *Publisher) Publish(ctx context.Context, spreadsheetID, tab string, table reports.Table) (int64, error) {
	spreadsheet, err := p.sheets.Spreadsheets.Get(spreadsheetID).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("sheets: get spreadsheet: %w", err)
	}
	exists := false
	for _, s := range spreadsheet.Sheets {
		if s.Properties.Title == tab {
			exists = true
			break
		}
	}

	if !exists {
		_, err = p.sheets.Spreadsheets.BatchUpdate(spreadsheetID, &sheetsapi.BatchUpdateSpreadsheetRequest{
			Requests: []*sheetsapi.Request{{
				AddSheet: &sheetsapi.AddSheetRequest{
					Properties: &sheetsapi.SheetProperties{Title: tab},
				},
			}},
		}).Context(ctx).Do()
		if err != nil {
			return 0, fmt.Errorf("sheets: add tab %q: %w", tab, err)
		}
	} else {
		// a shorter table must not leave stale rows from the last run
		_, err = p.sheets.Spreadsheets.Values.Clear(spreadsheetID, quoteTab(tab), &sheetsapi.ClearValuesRequest{}).Context(ctx).Do()
		if err != nil {
			return 0, fmt.Errorf("sheets: clear tab %q: %w", tab, err)
		}
	}

	resp, err := p.sheets.Spreadsheets.Values.BatchUpdate(spreadsheetID, &sheetsapi.BatchUpdateValuesRequest{
		ValueInputOption: "USER_ENTERED",
		Data: []*sheetsapi.ValueRange{{
			Range:          quoteTab(tab) + "!A1",
			MajorDimension: "ROWS",
			Values:         tableValues(table),
		}},
	}).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("sheets: write tab %q: %w", tab, err)
	}

	p.logger.Info("tab published", "tab", tab, "cells", resp.TotalUpdatedCells)
	return resp.TotalUpdatedCells, nil
}

// quoteTab wraps a tab name for A1 notation; the Czech tab names are
// not plain identifiers.
func quoteTab(tab string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
}

// tableValues converts a display table into the header-first row matrix
// the values API expects.
func tableValues(table reports.Table) [][]interface{} {
	values := make([][]interface{}, 0, len(table.Rows)+1)
	header := make([]interface{}, len(table.Header))
	for i, h := range table.Header {
		header[i] = h
	}
	values = append(values, header)
	for _, row := range table.Rows {
		cells := make([]interface{}, len(row))
		for i, cell := range row {
			cells[i] = cell
		}
		values = append(values, cells)
	}
	return values
}
