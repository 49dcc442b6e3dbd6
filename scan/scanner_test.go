package scan_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/wikistats/revtally/emit"
	"github.com/wikistats/revtally/metrics"
	"github.com/wikistats/revtally/scan"
)

// page renders one export page with the given namespace and revision byte
// lengths, using the indentation of real dump files.
func page(id int64, title string, ns int64, revBytes ...int64) string {
	var b strings.Builder
	b.WriteString("  <page>\n")
	b.WriteString("    <title>" + title + "</title>\n")
	b.WriteString("    <ns>" + itoa(ns) + "</ns>\n")
	b.WriteString("    <id>" + itoa(id) + "</id>\n")
	for i, n := range revBytes {
		b.WriteString("    <revision>\n")
		b.WriteString("      <id>" + itoa(1000*id+int64(i)) + "</id>\n")
		b.WriteString("      <contributor>\n")
		b.WriteString("        <id>7</id>\n")
		b.WriteString("      </contributor>\n")
		b.WriteString(`      <text xml:space="preserve" bytes="` + itoa(n) + "\" />\n")
		b.WriteString("    </revision>\n")
	}
	b.WriteString("  </page>\n")
	return b.String()
}

func itoa(n int64) string {
	if n < 0 {
		return "-" + itoa(-n)
	}
	if n < 10 {
		return string(rune('0' + n))
	}
	return itoa(n/10) + string(rune('0'+n%10))
}

// runScan scans the input and returns everything the sink saw.
func runScan(t *testing.T, cfg scan.Config, input string) []emit.Summary {
	t.Helper()
	sink := emit.NewStubSink()
	s := scan.New(cfg, sink)
	if err := s.Run(context.Background(), strings.NewReader(input)); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return sink.Summaries()
}

func TestScanner_SinglePage(t *testing.T) {
	input := page(12, "Main Page", 0, 10, 20, 5) + "</mediawiki>\n"

	got := runScan(t, scan.Config{}, input)
	if len(got) != 1 {
		t.Fatalf("emitted %d summaries, want 1", len(got))
	}
	want := emit.Summary{
		PageID:    12,
		Title:     "Main Page",
		Revisions: 3,
		Bytes:     35,
		MaxRevLen: 20,
		Pages:     1,
	}
	if got[0] != want {
		t.Errorf("summary = %+v, want %+v", got[0], want)
	}
}

func TestScanner_ZeroRevisionPageSuppressed(t *testing.T) {
	got := runScan(t, scan.Config{}, page(3, "Empty", 0))
	if len(got) != 0 {
		t.Errorf("emitted %d summaries for a zero-revision page, want 0", len(got))
	}
}

func TestScanner_NamespaceFilter(t *testing.T) {
	input := page(1, "Article", 0, 10) +
		page(2, "Talk:Article", 1, 10, 10) +
		page(3, "Another", 0, 5)

	t.Run("default excludes non-main", func(t *testing.T) {
		got := runScan(t, scan.Config{}, input)
		if len(got) != 2 {
			t.Fatalf("emitted %d summaries, want 2", len(got))
		}
		if got[0].PageID != 1 || got[1].PageID != 3 {
			t.Errorf("emitted pages %d, %d, want 1, 3", got[0].PageID, got[1].PageID)
		}
	})

	t.Run("all includes every namespace", func(t *testing.T) {
		got := runScan(t, scan.Config{AllNamespaces: true}, input)
		if len(got) != 3 {
			t.Fatalf("emitted %d summaries, want 3", len(got))
		}
		if got[1].PageID != 2 || got[1].Revisions != 2 {
			t.Errorf("talk page summary = %+v, want page 2 with 2 revisions", got[1])
		}
	})
}

// Each page's qualification is decided independently: revisions of an
// excluded page never leak into a neighboring qualifying page.
func TestScanner_QualificationPerPage(t *testing.T) {
	input := page(1, "A", 0, 10) + page(2, "Talk:A", 1, 99, 99) + page(3, "B", 0, 20)

	got := runScan(t, scan.Config{}, input)
	if len(got) != 2 {
		t.Fatalf("emitted %d summaries, want 2", len(got))
	}
	if got[0].Revisions != 1 || got[0].Bytes != 10 {
		t.Errorf("page 1 = %+v, want revs 1 bytes 10", got[0])
	}
	if got[1].Revisions != 1 || got[1].Bytes != 20 {
		t.Errorf("page 3 = %+v, want revs 1 bytes 20", got[1])
	}
}

func TestScanner_CutoffIsStrict(t *testing.T) {
	input := page(1, "AtCutoff", 0, 1, 1, 1, 1, 1) + page(2, "AboveCutoff", 0, 1, 1, 1, 1, 1, 1)

	got := runScan(t, scan.Config{Cutoff: 5}, input)
	if len(got) != 1 {
		t.Fatalf("emitted %d summaries, want 1 (exactly-at-cutoff suppressed)", len(got))
	}
	if got[0].PageID != 2 {
		t.Errorf("emitted page %d, want 2", got[0].PageID)
	}
}

func TestScanner_Batching(t *testing.T) {
	input := page(1, "A", 0, 1, 1, 1, 1) + page(2, "B", 0, 1, 1, 1, 1, 1, 1)

	got := runScan(t, scan.Config{BatchSize: 2}, input)
	if len(got) != 1 {
		t.Fatalf("emitted %d summaries, want 1 batch", len(got))
	}
	want := emit.Summary{
		PageID:    1,
		Title:     "A",
		Revisions: 10,
		Bytes:     10,
		MaxRevLen: 1,
		Pages:     2,
	}
	if got[0] != want {
		t.Errorf("batch = %+v, want %+v", got[0], want)
	}
}

// The window advances on every page seen; excluded pages consume a slot but
// contribute nothing.
func TestScanner_BatchWindowCountsAllPages(t *testing.T) {
	input := page(1, "A", 0, 10) + page(2, "Talk:A", 1, 99) +
		page(3, "B", 0, 20) + page(4, "C", 0, 30)

	got := runScan(t, scan.Config{BatchSize: 2}, input)
	if len(got) != 2 {
		t.Fatalf("emitted %d batches, want 2", len(got))
	}
	if got[0].Revisions != 1 || got[0].Bytes != 10 {
		t.Errorf("first batch = %+v, want only page 1's counters", got[0])
	}
	if got[1].Revisions != 2 || got[1].Bytes != 50 {
		t.Errorf("second batch = %+v, want pages 3+4 summed", got[1])
	}
}

// Cutoff applies once per batch against the summed revision count, not to
// individual pages inside the window.
func TestScanner_BatchCutoffAppliedAtEmission(t *testing.T) {
	input := page(1, "A", 0, 1, 1) + page(2, "B", 0, 1, 1, 1)

	got := runScan(t, scan.Config{BatchSize: 2, Cutoff: 4}, input)
	if len(got) != 1 {
		t.Fatalf("emitted %d batches, want 1 (2+3 revisions > 4)", len(got))
	}
	if got[0].Revisions != 5 {
		t.Errorf("batch revisions = %d, want 5", got[0].Revisions)
	}
}

func TestScanner_BatchBelowCutoffSuppressed(t *testing.T) {
	input := page(1, "A", 0, 1) + page(2, "B", 0, 1)

	got := runScan(t, scan.Config{BatchSize: 2, Cutoff: 2}, input)
	if len(got) != 0 {
		t.Errorf("emitted %d batches, want 0 (sum 2 not > 2)", len(got))
	}
}

func TestScanner_PartialTrailingBatchDropped(t *testing.T) {
	input := page(1, "A", 0, 1, 1) + page(2, "B", 0, 1) + page(3, "C", 0, 1)

	got := runScan(t, scan.Config{BatchSize: 2}, input)
	if len(got) != 1 {
		t.Fatalf("emitted %d batches, want 1 (trailing window of 1 page dropped)", len(got))
	}
	if got[0].Pages != 2 {
		t.Errorf("batch pages = %d, want 2", got[0].Pages)
	}
}

func TestScanner_TextWithoutBytesAttr(t *testing.T) {
	input := "<page>\n" +
		"<title>X</title>\n" +
		"<ns>0</ns>\n" +
		"<id>5</id>\n" +
		"<revision>\n" +
		"<text xml:space=\"preserve\">inline body</text>\n" +
		"</revision>\n" +
		"</page>\n"

	collector := metrics.NewCollector("test", "page")
	sink := emit.NewStubSink()
	s := scan.New(scan.Config{}, sink, scan.WithCollector(collector))
	if err := s.Run(context.Background(), strings.NewReader(input)); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	got := sink.Summaries()
	if len(got) != 1 {
		t.Fatalf("emitted %d summaries, want 1", len(got))
	}
	if got[0].Revisions != 1 || got[0].Bytes != 0 || got[0].MaxRevLen != 0 {
		t.Errorf("summary = %+v, want 1 revision with zero byte totals", got[0])
	}
	if snap := collector.Snapshot(); snap.ByteLenDefaults != 1 {
		t.Errorf("ByteLenDefaults = %d, want 1", snap.ByteLenDefaults)
	}
}

// A fresh <page> after </mediawiki> starts a new page: the close tag resets
// the tagger, it does not stop the loop.
func TestScanner_ResumesAfterMediawikiClose(t *testing.T) {
	input := page(1, "A", 0, 10) + "</mediawiki>\n" + page(2, "B", 0, 20)

	got := runScan(t, scan.Config{}, input)
	if len(got) != 2 {
		t.Fatalf("emitted %d summaries, want 2", len(got))
	}
}

func TestScanner_EmptyInput(t *testing.T) {
	got := runScan(t, scan.Config{}, "")
	if len(got) != 0 {
		t.Errorf("emitted %d summaries on empty input, want 0", len(got))
	}
}

func TestScanner_DeterministicAcrossRuns(t *testing.T) {
	input := page(1, "A", 0, 3, 9) + page(2, "Talk:A", 1, 4) + page(3, "B", 0, 2)
	cfg := scan.Config{AllNamespaces: true, Cutoff: 0}

	first := runScan(t, cfg, input)
	second := runScan(t, cfg, input)
	if len(first) != len(second) {
		t.Fatalf("run lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("summary %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestScanner_SinkErrorStopsScan(t *testing.T) {
	sink := emit.NewStubSink()
	sink.ErrorOnWrite = errors.New("pipe closed")
	s := scan.New(scan.Config{}, sink)

	err := s.Run(context.Background(), strings.NewReader(page(1, "A", 0, 10)))
	if err == nil {
		t.Fatal("expected error from failing sink")
	}
	if !strings.Contains(err.Error(), "pipe closed") {
		t.Errorf("error = %v, want wrapped sink error", err)
	}
}

func TestScanner_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := scan.New(scan.Config{}, emit.NewStubSink())
	err := s.Run(ctx, strings.NewReader(page(1, "A", 0, 10)))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run = %v, want context.Canceled", err)
	}
}

// A page body line far longer than the read buffer must neither break the
// tagger nor grow memory; fragments starting mid-text can never match a
// trigger prefix because page text escapes literal '<'.
func TestScanner_LongBodyLine(t *testing.T) {
	longBody := strings.Repeat("lorem ipsum &lt;dolor&gt; ", 16*1024)
	input := "<page>\n" +
		"<title>Long</title>\n" +
		"<ns>0</ns>\n" +
		"<id>9</id>\n" +
		"<revision>\n" +
		"<text bytes=\"42\" xml:space=\"preserve\">" + longBody + "</text>\n" +
		"</revision>\n" +
		"<revision>\n" +
		"<text bytes=\"7\" />\n" +
		"</revision>\n" +
		"</page>\n"

	got := runScan(t, scan.Config{}, input)
	if len(got) != 1 {
		t.Fatalf("emitted %d summaries, want 1", len(got))
	}
	if got[0].Revisions != 2 || got[0].Bytes != 49 || got[0].MaxRevLen != 42 {
		t.Errorf("summary = %+v, want revs 2 bytes 49 maxrevlen 42", got[0])
	}
}

func TestScanner_CollectorCounts(t *testing.T) {
	input := page(1, "A", 0, 10, 20) + page(2, "Talk:A", 1, 5) + page(3, "B", 0)

	collector := metrics.NewCollector("test", "page")
	sink := emit.NewStubSink()
	s := scan.New(scan.Config{}, emit.NewInstrumentedSink(sink, collector),
		scan.WithCollector(collector))
	if err := s.Run(context.Background(), strings.NewReader(input)); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	snap := collector.Snapshot()
	if snap.PagesSeen != 3 {
		t.Errorf("PagesSeen = %d, want 3", snap.PagesSeen)
	}
	if snap.PagesQualified != 2 {
		t.Errorf("PagesQualified = %d, want 2", snap.PagesQualified)
	}
	if snap.PagesEmitted != 1 {
		t.Errorf("PagesEmitted = %d, want 1", snap.PagesEmitted)
	}
	if snap.RevisionsTallied != 2 {
		t.Errorf("RevisionsTallied = %d, want 2 (excluded page contributes none)", snap.RevisionsTallied)
	}
	if snap.BytesTallied != 30 {
		t.Errorf("BytesTallied = %d, want 30", snap.BytesTallied)
	}
	if snap.EmitSuccess != 1 {
		t.Errorf("EmitSuccess = %d, want 1", snap.EmitSuccess)
	}
	if snap.LinesScanned == 0 {
		t.Error("LinesScanned = 0, want > 0")
	}
}
