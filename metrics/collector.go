// Package metrics provides per-scan metrics collection.
//
// The Collector accumulates counters during a single scan. It is a leaf
// package with no internal dependencies. Page-level totals are absorbed at
// each </page> boundary rather than per tag, keeping the per-line hot path
// to one counter.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all scan counters.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Stream progress
	LinesScanned int64

	// Page lifecycle
	PagesSeen      int64
	PagesQualified int64
	PagesEmitted   int64
	BatchesEmitted int64

	// Accumulated totals (absorbed at page close, all pages)
	RevisionsTallied int64
	BytesTallied     int64

	// Data anomalies: <text> tags whose bytes attribute was missing or
	// unparsable and defaulted to zero.
	ByteLenDefaults int64

	// Sink outcomes (per Write call)
	EmitSuccess int64
	EmitFailure int64

	// Dimensions (informational, set at construction)
	Input string
	Mode  string
}

// Collector accumulates metrics during a single scan.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver safe, so
// callers never need to guard instrumentation sites.
type Collector struct {
	mu sync.Mutex

	linesScanned int64

	pagesSeen      int64
	pagesQualified int64
	pagesEmitted   int64
	batchesEmitted int64

	revisionsTallied int64
	bytesTallied     int64

	byteLenDefaults int64

	emitSuccess int64
	emitFailure int64

	input string
	mode  string
}

// NewCollector creates a Collector with dimension labels: the input name
// (path or "stdin") and the emission mode ("page" or "batch").
func NewCollector(input, mode string) *Collector {
	return &Collector{input: input, mode: mode}
}

// IncLinesScanned records one consumed input line (or line fragment).
func (c *Collector) IncLinesScanned() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.linesScanned++
	c.mu.Unlock()
}

// IncPagesSeen records a <page> open tag.
func (c *Collector) IncPagesSeen() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.pagesSeen++
	c.mu.Unlock()
}

// IncPagesQualified records a page passing the namespace filter.
func (c *Collector) IncPagesQualified() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.pagesQualified++
	c.mu.Unlock()
}

// IncPagesEmitted records a per-page summary emission.
func (c *Collector) IncPagesEmitted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.pagesEmitted++
	c.mu.Unlock()
}

// IncBatchesEmitted records a batch-window summary emission.
func (c *Collector) IncBatchesEmitted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.batchesEmitted++
	c.mu.Unlock()
}

// IncByteLenDefaults records a <text> tag that contributed a defaulted zero
// byte length.
func (c *Collector) IncByteLenDefaults() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.byteLenDefaults++
	c.mu.Unlock()
}

// AbsorbPageTotals folds one finalized page's counters into the running
// totals. Called once per </page> regardless of emission outcome, so the
// totals describe the whole stream, not just what was printed.
func (c *Collector) AbsorbPageTotals(revisions, bytes int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.revisionsTallied += revisions
	c.bytesTallied += bytes
	c.mu.Unlock()
}

// IncEmitSuccess records a successful sink write (per-call).
func (c *Collector) IncEmitSuccess() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.emitSuccess++
	c.mu.Unlock()
}

// IncEmitFailure records a failed sink write (per-call).
func (c *Collector) IncEmitFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.emitFailure++
	c.mu.Unlock()
}

// Snapshot returns an immutable point-in-time view of all counters.
// The returned Snapshot is safe to read concurrently; the Collector can
// continue to be mutated independently.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		LinesScanned:     c.linesScanned,
		PagesSeen:        c.pagesSeen,
		PagesQualified:   c.pagesQualified,
		PagesEmitted:     c.pagesEmitted,
		BatchesEmitted:   c.batchesEmitted,
		RevisionsTallied: c.revisionsTallied,
		BytesTallied:     c.bytesTallied,
		ByteLenDefaults:  c.byteLenDefaults,
		EmitSuccess:      c.emitSuccess,
		EmitFailure:      c.emitFailure,
		Input:            c.input,
		Mode:             c.mode,
	}
}
