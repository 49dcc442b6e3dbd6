// Package emit carries scan summaries to their destinations: formatted lines
// on stdout, and optionally length-prefixed binary records for downstream
// tools. Sinks are deliberately small; the scanner owns all accumulation and
// hands over finished records only.
package emit

// Summary is one emitted record: a single qualifying page, or one closed
// batch window. Field selection happens at rendering time; the record always
// carries everything the scan observed.
type Summary struct {
	// PageID is the page's own id, or the id of the first page seen in the
	// window when batching.
	PageID int64 `msgpack:"page_id"`
	// Title is captured verbatim from the export, or the first page's title
	// when batching.
	Title string `msgpack:"title"`
	// Revisions is the revision count (summed across the window when batching).
	Revisions int64 `msgpack:"revisions"`
	// Bytes is the total byte length of all counted revisions.
	Bytes int64 `msgpack:"bytes"`
	// MaxRevLen is the byte length of the largest single revision observed.
	MaxRevLen int64 `msgpack:"max_rev_len"`
	// Pages is the number of pages folded into this record: 1 for per-page
	// emission, the window size for batches.
	Pages int64 `msgpack:"pages"`
}

// Fields selects which summary fields appear in rendered output lines.
// The revision count is always rendered and has no toggle.
type Fields struct {
	PageID    bool
	Bytes     bool
	MaxRevLen bool
	Title     bool
}
