package domain

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollector(t *testing.T) {
	c := &Collector{}
	c.Report(Diagnostic{Kind: DiagOutOfRange, Nutrient: "iron"})
	c.Report(Diagnostic{Kind: DiagHighTotal, Nutrient: "magnesium"})

	assert.Equal(t, []DiagnosticKind{DiagOutOfRange, DiagHighTotal}, c.Kinds())

	snapshot := c.Diagnostics()
	snapshot[0].Nutrient = "changed"
	assert.Equal(t, "iron", c.Diagnostics()[0].Nutrient)
}

func TestCollector_Concurrent(t *testing.T) {
	c := &Collector{}
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Report(Diagnostic{Kind: DiagUnitConverted})
		}()
	}
	wg.Wait()

	assert.Len(t, c.Diagnostics(), 50)
}

func TestMultiSink(t *testing.T) {
	a, b := &Collector{}, &Collector{}
	var calls int
	sink := MultiSink(a, nil, b, SinkFunc(func(Diagnostic) { calls++ }))

	sink.Report(Diagnostic{Kind: DiagInvalidReference})

	assert.Len(t, a.Diagnostics(), 1)
	assert.Len(t, b.Diagnostics(), 1)
	assert.Equal(t, 1, calls)
	Discard.Report(Diagnostic{Kind: DiagInvalidReference})
}
