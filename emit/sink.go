package emit

import (
	"bufio"
	"io"
	"sync"

	"go.uber.org/multierr"

	"github.com/wikistats/revtally/metrics"
)

// Sink receives summaries as the scan produces them.
// Implementations may render lines, append binary records, or stub for
// testing. A Write error terminates the scan; sinks are not expected to
// retry. Close flushes anything buffered and releases resources.
type Sink interface {
	Write(s *Summary) error
	Close() error
}

// LineSink renders summaries through a Formatter, one newline-terminated
// line per record, buffered until Close.
type LineSink struct {
	w   *bufio.Writer
	fmt *Formatter
}

// NewLineSink creates a line sink writing formatted records to w.
func NewLineSink(w io.Writer, f *Formatter) *LineSink {
	return &LineSink{w: bufio.NewWriter(w), fmt: f}
}

// Write renders and buffers one summary line.
func (s *LineSink) Write(sum *Summary) error {
	if _, err := s.w.WriteString(s.fmt.Line(sum)); err != nil {
		return err
	}
	return s.w.WriteByte('\n')
}

// Close flushes buffered lines. The underlying writer is not closed; the
// caller owns it (it is usually stdout).
func (s *LineSink) Close() error {
	return s.w.Flush()
}

// MultiSink fans each summary out to several sinks in order.
// The first Write failure aborts the fan-out and is returned; Close closes
// every sink regardless of individual failures and aggregates their errors.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink creates a sink that duplicates writes across sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Write delivers the summary to each sink in registration order.
func (m *MultiSink) Write(s *Summary) error {
	for _, sink := range m.sinks {
		if err := sink.Write(s); err != nil {
			return err
		}
	}
	return nil
}

// Close closes all sinks and returns their combined errors.
func (m *MultiSink) Close() error {
	var err error
	for _, sink := range m.sinks {
		err = multierr.Append(err, sink.Close())
	}
	return err
}

// InstrumentedSink wraps a Sink and records write outcomes on the metrics
// collector. Each Write counts as one emit_success or emit_failure.
type InstrumentedSink struct {
	inner     Sink
	collector *metrics.Collector
}

// NewInstrumentedSink wraps a sink with metrics instrumentation.
func NewInstrumentedSink(inner Sink, collector *metrics.Collector) *InstrumentedSink {
	return &InstrumentedSink{inner: inner, collector: collector}
}

// Write delegates to the inner sink and records success or failure.
func (s *InstrumentedSink) Write(sum *Summary) error {
	err := s.inner.Write(sum)
	if err != nil {
		s.collector.IncEmitFailure()
	} else {
		s.collector.IncEmitSuccess()
	}
	return err
}

// Close delegates to the inner sink.
func (s *InstrumentedSink) Close() error {
	return s.inner.Close()
}

// StubSink is a test sink that records summaries without rendering them.
type StubSink struct {
	mu sync.Mutex

	// Written stores copies of all written summaries in order.
	Written []Summary
	// Closed indicates whether Close was called.
	Closed bool
	// ErrorOnWrite, if non-nil, is returned by Write.
	ErrorOnWrite error
}

// NewStubSink creates a new stub sink for testing.
func NewStubSink() *StubSink {
	return &StubSink{Written: make([]Summary, 0)}
}

// Write records a copy of the summary.
func (s *StubSink) Write(sum *Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ErrorOnWrite != nil {
		return s.ErrorOnWrite
	}
	s.Written = append(s.Written, *sum)
	return nil
}

// Close marks the sink as closed.
func (s *StubSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Closed = true
	return nil
}

// Summaries returns a snapshot copy of everything written so far.
func (s *StubSink) Summaries() []Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Summary, len(s.Written))
	copy(out, s.Written)
	return out
}

// Verify sink implementations.
var (
	_ Sink = (*LineSink)(nil)
	_ Sink = (*MultiSink)(nil)
	_ Sink = (*InstrumentedSink)(nil)
	_ Sink = (*StubSink)(nil)
)
