// Package pipeline wires ingestion, normalization, the report engine,
// the formatter and the publisher into one batch run. Each run works on
// a fresh immutable snapshot of the visit table; there is no shared
// state between runs.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/malyjan/reservanto-reports/internal/observability/metrics"
	"github.com/malyjan/reservanto-reports/internal/reports"
	"github.com/malyjan/reservanto-reports/internal/visits"
	"github.com/malyjan/reservanto-reports/pkg/logging"
)

// VisitSource produces the raw visit table, normally the Reservanto
// portal client.
type VisitSource interface {
	FetchVisits(ctx context.Context, from, to time.Time) ([]visits.Raw, error)
}

// TablePublisher writes display tables to spreadsheet tabs, normally
// the Google Sheets publisher.
type TablePublisher interface {
	EnsureSpreadsheet(ctx context.Context, title string) (string, error)
	Publish(ctx context.Context, spreadsheetID, tab string, table reports.Table) (int64, error)
}

// Config holds everything one pipeline needs. Source and Publisher are
// required; the rest defaults sensibly.
type Config struct {
	Source    VisitSource
	Publisher TablePublisher
	Logger    *logging.Logger
	Metrics   *metrics.PipelineMetrics
	Now       func() time.Time

	AbsenceDays  int
	ReportMonth  int
	ReportYear   int
	FeedStart    time.Time
	SnapshotPath string // when set, the fetched feed is cached there
	TitlePrefix  string
}

// Pipeline runs the full fetch-derive-publish batch.
type Pipeline struct {
	cfg Config
}

// New validates the configuration and builds a pipeline. Source may be
// nil for snapshot-only pipelines; Run will refuse to fetch without
// one.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Publisher == nil {
		return nil, errors.New("pipeline: table publisher is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	if cfg.AbsenceDays == 0 {
		cfg.AbsenceDays = 100
	}
	if cfg.ReportMonth == 0 {
		cfg.ReportMonth = int(cfg.Now().UTC().Month())
	}
	if cfg.ReportYear == 0 {
		cfg.ReportYear = 2025
	}
	if cfg.TitlePrefix == "" {
		cfg.TitlePrefix = "reservanto-automatic-"
	}
	return &Pipeline{cfg: cfg}, nil
}

// Result summarizes one pipeline run.
type Result struct {
	RunID         string
	SpreadsheetID string
	ReportRows    map[string]int
	CellsWritten  int64
	VoucherSkips  int
}

// Run fetches a fresh snapshot from the source and processes it.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	if p.cfg.Source == nil {
		return nil, errors.New("pipeline: visit source is required")
	}
	runID := uuid.NewString()
	logger := &logging.Logger{Logger: p.cfg.Logger.With("run_id", runID)}
	started := p.cfg.Now()

	raws, err := p.cfg.Source.FetchVisits(ctx, p.cfg.FeedStart, p.cfg.Now())
	if err != nil {
		p.cfg.Metrics.ObserveRun("error", p.cfg.Now().Sub(started).Seconds())
		return nil, fmt.Errorf("pipeline: ingestion stage: %w", err)
	}
	p.cfg.Metrics.ObserveFetched(len(raws))
	logger.Stage("ingest").Info("feed fetched", "rows", len(raws))

	if p.cfg.SnapshotPath != "" {
		// the snapshot is a cache; a failed write must not abort the run
		if err := visits.SaveSnapshot(p.cfg.SnapshotPath, raws); err != nil {
			logger.Stage("ingest").Warn("snapshot not saved", "path", p.cfg.SnapshotPath, "error", err)
		}
	}

	result, err := p.process(ctx, runID, logger, raws)
	status := "ok"
	if err != nil {
		status = "error"
	}
	p.cfg.Metrics.ObserveRun(status, p.cfg.Now().Sub(started).Seconds())
	return result, err
}

// RunFromSnapshot processes a previously cached feed instead of calling
// the portal.
func (p *Pipeline) RunFromSnapshot(ctx context.Context, path string) (*Result, error) {
	runID := uuid.NewString()
	logger := &logging.Logger{Logger: p.cfg.Logger.With("run_id", runID)}
	started := p.cfg.Now()

	raws, err := visits.LoadSnapshot(path)
	if err != nil {
		p.cfg.Metrics.ObserveRun("error", p.cfg.Now().Sub(started).Seconds())
		return nil, fmt.Errorf("pipeline: ingestion stage: %w", err)
	}
	logger.Stage("ingest").Info("snapshot loaded", "path", path, "rows", len(raws))

	result, err := p.process(ctx, runID, logger, raws)
	status := "ok"
	if err != nil {
		status = "error"
	}
	p.cfg.Metrics.ObserveRun(status, p.cfg.Now().Sub(started).Seconds())
	return result, err
}

func (p *Pipeline) process(ctx context.Context, runID string, logger *logging.Logger, raws []visits.Raw) (*Result, error) {
	now := p.cfg.Now()
	table := visits.Normalize(raws)
	logger.Stage("normalize").Info("table normalized", "rows", len(table), "dropped", len(raws)-len(table))

	onlyOnce := reports.OnlyOncePatients(table)
	absent := reports.AbsentForDays(table, p.cfg.AbsenceDays, now)
	referralLast := reports.ReferralLastVisits(table)
	referralMonth, err := reports.ReferralVisitsInMonth(table, p.cfg.ReportMonth, p.cfg.ReportYear)
	if err != nil {
		return nil, fmt.Errorf("pipeline: report stage: %w", err)
	}
	vouchers, skipped := reports.UnusedVouchers(table, now)
	for _, skip := range skipped {
		logger.Stage("reports").Warn("voucher row skipped", "error", skip)
	}
	p.cfg.Metrics.ObserveVoucherSkips(len(skipped))

	type sheet struct {
		tab   string
		table reports.Table
	}
	sheets := []sheet{
		{reports.TabAllData, reports.FormatAllData(table)},
		{reports.TabOnlyOnce, reports.FormatStandard(onlyOnce)},
		{reports.AbsentTabName(p.cfg.AbsenceDays), reports.FormatStandard(absent)},
		{reports.TabReferralLast, reports.FormatStandard(referralLast)},
		{reports.MonthTabName(p.cfg.ReportMonth), reports.FormatStandard(referralMonth)},
		{reports.TabVouchers, reports.FormatVouchers(vouchers)},
	}

	result := &Result{
		RunID:        runID,
		ReportRows:   make(map[string]int, len(sheets)),
		VoucherSkips: len(skipped),
	}

	title := p.cfg.TitlePrefix + now.Format("2006-01-02")
	spreadsheetID, err := p.cfg.Publisher.EnsureSpreadsheet(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("pipeline: publish stage: %w", err)
	}
	result.SpreadsheetID = spreadsheetID

	for _, s := range sheets {
		cells, err := p.cfg.Publisher.Publish(ctx, spreadsheetID, s.tab, s.table)
		if err != nil {
			return nil, fmt.Errorf("pipeline: publish stage: tab %q: %w", s.tab, err)
		}
		result.CellsWritten += cells
		result.ReportRows[s.tab] = len(s.table.Rows)
		p.cfg.Metrics.ObserveReportRows(s.tab, len(s.table.Rows))
	}
	p.cfg.Metrics.ObserveCellsPublished(result.CellsWritten)

	logger.Stage("publish").Info("run finished",
		"spreadsheet_id", spreadsheetID,
		"cells", result.CellsWritten,
	)
	return result, nil
}
