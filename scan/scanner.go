package scan

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/wikistats/revtally/emit"
	"github.com/wikistats/revtally/log"
	"github.com/wikistats/revtally/metrics"
)

// Config fixes the scan behavior at startup; it is never mutated during a run.
type Config struct {
	// AllNamespaces disables the main-namespace filter.
	AllNamespaces bool
	// Cutoff is the minimum revision count (exclusive) a page or batch must
	// exceed to be emitted.
	Cutoff int64
	// BatchSize aggregates that many consecutive pages per emitted record
	// when positive; zero means one record per qualifying page.
	BatchSize int64
}

// Batching reports whether summaries aggregate page windows.
func (c Config) Batching() bool { return c.BatchSize > 0 }

// Mode names the emission cadence for diagnostics.
func (c Config) Mode() string {
	if c.Batching() {
		return "batch"
	}
	return "page"
}

// Scanner drives the tagger over an input stream and forwards summaries to a
// sink. One Scanner serves one Run; it is not safe for concurrent use.
type Scanner struct {
	cfg       Config
	sink      emit.Sink
	collector *metrics.Collector
	logger    *log.Logger

	state State
	page  pageTally
	batch batchTally
}

// Option configures optional Scanner collaborators.
type Option func(*Scanner)

// WithCollector attaches a metrics collector.
func WithCollector(c *metrics.Collector) Option {
	return func(s *Scanner) { s.collector = c }
}

// WithLogger attaches a diagnostics logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Scanner) { s.logger = l }
}

// New creates a Scanner emitting through sink.
func New(cfg Config, sink emit.Sink, opts ...Option) *Scanner {
	s := &Scanner{cfg: cfg, sink: sink, logger: log.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run consumes the stream until EOF, feeding each line to the tagger.
//
// Lines longer than the read buffer are consumed in bounded fragments, each
// fed to the tagger in turn: page text escapes literal '<', so a fragment
// starting mid-line can never fake a trigger prefix, and memory stays bounded
// by the buffer on inputs of any size. Cancellation is checked between
// fragments; a canceled run returns ctx.Err() without flushing.
//
// An end of stream inside a partially filled batch window drops the window,
// matching the page-boundary cadence of complete exports. A truncated export
// is indistinguishable from a complete one terminating early.
func (s *Scanner) Run(ctx context.Context, r io.Reader) error {
	s.state = StateNone
	s.page.reset()
	s.batch.reset()

	br := bufio.NewReader(r)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := br.ReadSlice('\n')
		if len(line) > 0 {
			s.collector.IncLinesScanned()
			if werr := s.observe(trimLine(line)); werr != nil {
				return werr
			}
		}
		switch err {
		case nil, bufio.ErrBufferFull:
			// next line, or next fragment of an overlong line
		case io.EOF:
			if s.cfg.Batching() && s.batch.pagesSeen > 0 {
				s.logger.Debug("dropping partial trailing batch window", map[string]any{
					"pages_seen": s.batch.pagesSeen,
					"batch_size": s.cfg.BatchSize,
				})
			}
			return nil
		default:
			return fmt.Errorf("read input: %w", err)
		}
	}
}

// trimLine strips leading blanks and the trailing newline before tag matching.
func trimLine(line []byte) []byte {
	line = bytes.TrimRight(line, "\r\n")
	for len(line) > 0 && (line[0] == ' ' || line[0] == '\t') {
		line = line[1:]
	}
	return line
}

// observe advances the state machine by one trimmed line and applies the
// side effect of the resulting state. States that persist across lines
// (StartPage, Title, StartNS) fire their effect only on lines actually
// bearing the trigger prefix, so junk lines arriving mid-element cannot
// re-capture the title or re-decide qualification.
func (s *Scanner) observe(line []byte) error {
	next := Next(s.state, line)
	s.state = next

	switch next {
	case StateStartPage:
		if !bytes.HasPrefix(line, openPage) {
			return nil
		}
		s.page.reset()
		s.collector.IncPagesSeen()

	case StateTitle:
		if !bytes.HasPrefix(line, openTitle) {
			return nil
		}
		s.page.title = string(titleText(line))

	case StateStartNS:
		if !bytes.HasPrefix(line, openNS) {
			return nil
		}
		s.page.namespace = LeadingInt(line[len(openNS):])
		s.page.qualifies = s.cfg.AllNamespaces || s.page.namespace == 0
		if s.page.qualifies {
			s.collector.IncPagesQualified()
		}

	case StatePageID:
		s.page.id = LeadingInt(line[len(openID):])
		s.state = StateNone

	case StateStartRev:
		s.page.addRevision()
		s.state = StateNone

	case StateByteLen:
		n, ok := ByteLenAttr(line)
		if !ok {
			s.collector.IncByteLenDefaults()
		}
		s.page.addByteLen(n)
		s.state = StateNone

	case StateEndPage:
		s.state = StateNone
		return s.closePage()
	}
	return nil
}

// closePage finalizes the current page at its </page> boundary: absorb its
// totals, then emit it (per-page mode) or fold it into the batch window.
func (s *Scanner) closePage() error {
	p := &s.page
	s.collector.AbsorbPageTotals(p.revisions, p.bytes)

	if !s.cfg.Batching() {
		if !p.qualifies || p.revisions <= s.cfg.Cutoff {
			return nil
		}
		sum := emit.Summary{
			PageID:    p.id,
			Title:     p.title,
			Revisions: p.revisions,
			Bytes:     p.bytes,
			MaxRevLen: p.maxRevLen,
			Pages:     1,
		}
		if err := s.sink.Write(&sum); err != nil {
			return fmt.Errorf("emit page %d: %w", p.id, err)
		}
		s.collector.IncPagesEmitted()
		return nil
	}

	s.batch.notePage(p)
	if !s.batch.full(s.cfg.BatchSize) {
		return nil
	}
	b := &s.batch
	if b.revisions > s.cfg.Cutoff {
		sum := emit.Summary{
			PageID:    b.firstID,
			Title:     b.firstTitle,
			Revisions: b.revisions,
			Bytes:     b.bytes,
			MaxRevLen: b.maxRevLen,
			Pages:     b.pagesSeen,
		}
		if err := s.sink.Write(&sum); err != nil {
			return fmt.Errorf("emit batch at page %d: %w", b.firstID, err)
		}
		s.collector.IncBatchesEmitted()
	}
	s.batch.reset()
	return nil
}
