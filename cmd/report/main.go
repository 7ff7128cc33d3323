// Command report runs the patient-visit reporting pipeline once:
// fetch the booking feed, derive the reports and publish them to the
// shared spreadsheet.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/malyjan/reservanto-reports/internal/config"
	"github.com/malyjan/reservanto-reports/internal/pipeline"
	"github.com/malyjan/reservanto-reports/internal/reservanto"
	"github.com/malyjan/reservanto-reports/internal/sheets"
	"github.com/malyjan/reservanto-reports/pkg/logging"
)

func main() {
	fromCSV := flag.String("from-csv", "", "run from a cached feed snapshot instead of the portal")
	saveCSV := flag.String("save-csv", "", "cache the fetched feed to this CSV file")
	flag.Parse()

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	offline := *fromCSV != ""
	if err := cfg.Validate(offline); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	publisher, err := sheets.NewPublisher(ctx, cfg.CredentialsPath, cfg.GoogleEmailAddress, logger)
	if err != nil {
		logger.Error("failed to build sheets publisher", "error", err)
		os.Exit(1)
	}

	pipeCfg := pipeline.Config{
		Publisher:    publisher,
		Logger:       logger,
		AbsenceDays:  cfg.AbsenceDays,
		ReportMonth:  cfg.ReportMonth,
		ReportYear:   cfg.ReportYear,
		FeedStart:    cfg.FeedWindowStart,
		SnapshotPath: *saveCSV,
	}
	if !offline {
		client, err := reservanto.NewClient(cfg.ReservantoUsername, cfg.ReservantoPassword,
			reservanto.WithLogger(logger),
			reservanto.WithResourceIDs(cfg.FeedResourceIDs),
		)
		if err != nil {
			logger.Error("failed to build portal client", "error", err)
			os.Exit(1)
		}
		pipeCfg.Source = client
	}

	p, err := pipeline.New(pipeCfg)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	var result *pipeline.Result
	if offline {
		result, err = p.RunFromSnapshot(ctx, *fromCSV)
	} else {
		result, err = p.Run(ctx)
	}
	if err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}

	logger.Info("run complete",
		"run_id", result.RunID,
		"spreadsheet_id", result.SpreadsheetID,
		"cells_written", result.CellsWritten,
		"voucher_skips", result.VoucherSkips,
	)
}
