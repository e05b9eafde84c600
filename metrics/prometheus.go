// Package metrics provides Prometheus metrics for label exports
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Export metrics
	LabelsExported = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spoolprint_labels_exported_total",
			Help: "Total number of label files written",
		},
		[]string{"format", "resource"},
	)

	LabelDuplicates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spoolprint_label_duplicates_total",
			Help: "Labels skipped because an identical label was already exported",
		},
		[]string{"resource"},
	)

	ExportDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spoolprint_export_duration_seconds",
			Help:    "Time taken for a complete export",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		},
		[]string{"format"},
	)

	// Error metrics
	ExportErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spoolprint_export_errors_total",
			Help: "Total number of failed exports by stage",
		},
		[]string{"format", "stage"},
	)

	// Vendor logo metrics
	LogoLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spoolprint_logo_lookups_total",
			Help: "Vendor logo lookups by result (hit, loaded, miss, error)",
		},
		[]string{"result"},
	)
)

// Export stages reported in ExportErrors.
const (
	StageLayout    = "layout"
	StageRasterize = "rasterize"
	StageEncode    = "encode"
	StageBundle    = "bundle"
	StageWrite     = "write"
)
