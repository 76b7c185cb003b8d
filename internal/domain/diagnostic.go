package domain

import "sync"

// DiagnosticKind classifies a non-fatal data problem found while computing a report
type DiagnosticKind string

const (
	// DiagInvalidReference marks an RDA entry missing its value or unit
	DiagInvalidReference DiagnosticKind = "invalid_reference"
	// DiagUnexpectedFormat marks an intake value with an unrecognized shape
	DiagUnexpectedFormat DiagnosticKind = "unexpected_format"
	// DiagOutOfRange marks an intake value discarded for being negative or above the cap
	DiagOutOfRange DiagnosticKind = "out_of_range"
	// DiagUnresolvedUnit marks an intake whose unit could not be aligned to the RDA unit
	DiagUnresolvedUnit DiagnosticKind = "unresolved_unit"
	// DiagUnitConverted marks a mineral amount rewritten from mcg to mg
	DiagUnitConverted DiagnosticKind = "unit_converted"
	// DiagHighTotal marks a suspiciously large daily total
	DiagHighTotal DiagnosticKind = "high_total"
	// DiagHighPercent marks a percent-of-RDA large enough to suggest a missed conversion
	DiagHighPercent DiagnosticKind = "high_percent"
)

// Diagnostic describes one data problem. Nutrient is empty for table-wide issues.
type Diagnostic struct {
	Kind     DiagnosticKind `json:"kind"`
	Nutrient string         `json:"nutrient,omitempty"`
	Value    float64        `json:"value,omitempty"`
	Unit     Unit           `json:"unit,omitempty"`
	Message  string         `json:"message"`
}

// DiagnosticSink receives diagnostics as they are found
type DiagnosticSink interface {
	Report(d Diagnostic)
}

// SinkFunc adapts a function to DiagnosticSink
type SinkFunc func(d Diagnostic)

// Report implements DiagnosticSink
func (f SinkFunc) Report(d Diagnostic) { f(d) }

// Discard drops every diagnostic
var Discard DiagnosticSink = SinkFunc(func(Diagnostic) {})

// Collector records diagnostics in arrival order
type Collector struct {
	mu    sync.Mutex
	items []Diagnostic
}

// Report implements DiagnosticSink
func (c *Collector) Report(d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, d)
}

// Diagnostics returns a copy of everything recorded so far
func (c *Collector) Diagnostics() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Diagnostic, len(c.items))
	copy(out, c.items)
	return out
}

// Kinds returns the kind of every recorded diagnostic, in order
func (c *Collector) Kinds() []DiagnosticKind {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]DiagnosticKind, len(c.items))
	for i, d := range c.items {
		out[i] = d.Kind
	}
	return out
}

// MultiSink fans a diagnostic out to several sinks. Nil sinks are skipped.
func MultiSink(sinks ...DiagnosticSink) DiagnosticSink {
	return SinkFunc(func(d Diagnostic) {
		for _, s := range sinks {
			if s != nil {
				s.Report(d)
			}
		}
	})
}
