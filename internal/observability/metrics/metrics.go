package metrics

import "github.com/prometheus/client_golang/prometheus"

// PipelineMetrics exposes counters/histograms for report pipeline runs.
type PipelineMetrics struct {
	runsTotal      *prometheus.CounterVec
	visitsFetched  prometheus.Counter
	voucherSkips   prometheus.Counter
	reportRows     *prometheus.GaugeVec
	cellsPublished prometheus.Counter
	runDuration    prometheus.Histogram
}

func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	m := &PipelineMetrics{
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reservanto",
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total pipeline runs by outcome",
		}, []string{"status"}),
		visitsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reservanto",
			Subsystem: "pipeline",
			Name:      "visits_fetched_total",
			Help:      "Total raw visit rows fetched from the portal",
		}),
		voucherSkips: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reservanto",
			Subsystem: "pipeline",
			Name:      "voucher_rows_skipped_total",
			Help:      "Voucher rows rejected for an unknown package size",
		}),
		reportRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "reservanto",
			Subsystem: "pipeline",
			Name:      "report_rows",
			Help:      "Row count of each report in the most recent run",
		}, []string{"report"}),
		cellsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reservanto",
			Subsystem: "pipeline",
			Name:      "cells_published_total",
			Help:      "Total spreadsheet cells written",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "reservanto",
			Subsystem: "pipeline",
			Name:      "run_duration_seconds",
			Help:      "Duration of full pipeline runs",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.runsTotal, m.visitsFetched, m.voucherSkips, m.reportRows, m.cellsPublished, m.runDuration)
	return m
}

func (m *PipelineMetrics) ObserveRun(status string, seconds float64) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(status).Inc()
	m.runDuration.Observe(seconds)
}

func (m *PipelineMetrics) ObserveFetched(rows int) {
	if m == nil {
		return
	}
	m.visitsFetched.Add(float64(rows))
}

func (m *PipelineMetrics) ObserveVoucherSkips(n int) {
	if m == nil {
		return
	}
	m.voucherSkips.Add(float64(n))
}

func (m *PipelineMetrics) ObserveReportRows(report string, rows int) {
	if m == nil {
		return
	}
	m.reportRows.WithLabelValues(report).Set(float64(rows))
}

func (m *PipelineMetrics) ObserveCellsPublished(cells int64) {
	if m == nil {
		return
	}
	m.cellsPublished.Add(float64(cells))
}
