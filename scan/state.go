// Package scan implements a single-pass, line-oriented tagger over MediaWiki
// XML export streams. It recognizes the page/revision element boundaries it
// needs by line prefix, accumulates per-page (or per-batch) revision counters,
// and emits summary records through an emit.Sink.
//
// The tagger is deliberately not an XML parser: exports are line-broken by
// convention, tags are never split across a <…> boundary within a line, and
// page text escapes literal '<' characters. Matching trimmed line prefixes is
// sufficient and keeps memory bounded by the read buffer on inputs of any
// size.
package scan

import "bytes"

// State is the tagger position within the export element structure.
type State uint8

const (
	// StateNone is the rest state between recognized elements.
	StateNone State = iota
	// StateStartPage marks a <page> open tag; the page accumulator resets here.
	StateStartPage
	// StateTitle marks the <title> element; persists until the namespace line.
	StateTitle
	// StateStartNS marks the page's <ns> element; persists until the page id line.
	StateStartNS
	// StatePageID marks the page's own <id> element (not revision/contributor ids).
	StatePageID
	// StateStartRev marks a <revision> open tag.
	StateStartRev
	// StateByteLen marks an attribute-bearing <text …> tag carrying bytes="N".
	StateByteLen
	// StateEndPage marks a </page> close tag; emission eligibility is decided here.
	StateEndPage
)

// String returns the state name for diagnostics.
func (s State) String() string {
	switch s {
	case StateNone:
		return "none"
	case StateStartPage:
		return "start_page"
	case StateTitle:
		return "title"
	case StateStartNS:
		return "start_ns"
	case StatePageID:
		return "page_id"
	case StateStartRev:
		return "start_rev"
	case StateByteLen:
		return "byte_len"
	case StateEndPage:
		return "end_page"
	default:
		return "unknown"
	}
}

// Trigger prefixes, matched against whitespace-trimmed lines.
var (
	openPage   = []byte("<page>")
	openTitle  = []byte("<title>")
	closeTitle = []byte("</title>")
	openNS     = []byte("<ns>")
	openID     = []byte("<id>")
	openRev    = []byte("<revision>")
	openText   = []byte("<text ")
	closePage  = []byte("</page>")
	closeDump  = []byte("</mediawiki")
)

// Next computes the state after observing one whitespace-trimmed line.
// It is pure: no accumulator access, no side effects.
//
// The guards on <ns> and <id> encode the fixed element order of the export
// schema (title, then namespace, then page id, before any revision). They are
// what keeps the page's own id distinct from the <id> fields that appear
// later inside <revision> and <contributor> elements: those are only reached
// from StateNone and match nothing.
func Next(cur State, line []byte) State {
	switch {
	case bytes.HasPrefix(line, openPage):
		return StateStartPage
	case bytes.HasPrefix(line, openTitle):
		return StateTitle
	case cur == StateTitle && bytes.HasPrefix(line, openNS):
		return StateStartNS
	case cur == StateStartNS && bytes.HasPrefix(line, openID):
		return StatePageID
	case bytes.HasPrefix(line, openRev):
		return StateStartRev
	case bytes.HasPrefix(line, openText):
		return StateByteLen
	case bytes.HasPrefix(line, closePage):
		return StateEndPage
	case bytes.HasPrefix(line, closeDump):
		return StateNone
	default:
		return cur
	}
}

// titleText extracts the title bytes from a <title> line: everything between
// the open tag and the first closing marker. A line with no closing marker
// yields the remainder as-is rather than failing.
//
// The returned slice aliases line; callers must copy before the read buffer
// is reused.
func titleText(line []byte) []byte {
	s := line[len(openTitle):]
	if i := bytes.Index(s, closeTitle); i >= 0 {
		return s[:i]
	}
	return s
}
