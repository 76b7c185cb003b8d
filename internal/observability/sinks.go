package observability

import (
	"context"
	"log/slog"

	"github.com/vitalsync/backend/internal/domain"
)

// SlogSink writes each diagnostic as a structured warning
type SlogSink struct {
	Logger *slog.Logger
}

// NewSlogSink returns a sink on logger, or on slog.Default when logger is nil
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{Logger: logger}
}

// Report implements domain.DiagnosticSink
func (s *SlogSink) Report(d domain.Diagnostic) {
	level := slog.LevelWarn
	if d.Kind == domain.DiagUnitConverted {
		level = slog.LevelDebug
	}
	s.Logger.Log(context.Background(), level, d.Message,
		"kind", string(d.Kind),
		"nutrient", d.Nutrient,
		"value", d.Value,
		"unit", string(d.Unit),
	)
}

// MetricsSink counts diagnostics by kind
type MetricsSink struct {
	metrics *Metrics
}

// NewMetricsSink returns a sink that increments m.Diagnostics
func NewMetricsSink(m *Metrics) *MetricsSink {
	return &MetricsSink{metrics: m}
}

// Report implements domain.DiagnosticSink
func (s *MetricsSink) Report(d domain.Diagnostic) {
	s.metrics.Diagnostics.WithLabelValues(string(d.Kind)).Inc()
}
