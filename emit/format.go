package emit

import (
	"strconv"
	"strings"
)

// Formatter renders summaries as single output lines, without the trailing
// newline. Field order is fixed — page id, bytes, maxrevlen, revs, title —
// and consumers of the concise layout depend on it.
type Formatter struct {
	fields  Fields
	concise bool
}

// NewFormatter creates a formatter for the given field selection.
// Concise selects colon-separated bare values instead of label:value pairs.
func NewFormatter(fields Fields, concise bool) *Formatter {
	return &Formatter{fields: fields, concise: concise}
}

// Line renders one summary.
func (f *Formatter) Line(s *Summary) string {
	if f.concise {
		return f.conciseLine(s)
	}
	return f.verboseLine(s)
}

func (f *Formatter) verboseLine(s *Summary) string {
	var b strings.Builder
	if f.fields.PageID {
		b.WriteString("page:")
		b.WriteString(strconv.FormatInt(s.PageID, 10))
		b.WriteByte(' ')
	}
	if f.fields.Bytes {
		b.WriteString("bytes:")
		b.WriteString(strconv.FormatInt(s.Bytes, 10))
		b.WriteByte(' ')
	}
	if f.fields.MaxRevLen {
		b.WriteString("maxrevlen:")
		b.WriteString(strconv.FormatInt(s.MaxRevLen, 10))
		b.WriteByte(' ')
	}
	b.WriteString("revs:")
	b.WriteString(strconv.FormatInt(s.Revisions, 10))
	if f.fields.Title {
		b.WriteString(" title:")
		b.WriteString(s.Title)
	}
	return b.String()
}

// conciseLine joins the selected field values with ':'. Title stays last so
// titles containing colons (interwiki and talk-page names do) remain
// recoverable by splitting a bounded number of times from the left.
func (f *Formatter) conciseLine(s *Summary) string {
	parts := make([]string, 0, 5)
	if f.fields.PageID {
		parts = append(parts, strconv.FormatInt(s.PageID, 10))
	}
	if f.fields.Bytes {
		parts = append(parts, strconv.FormatInt(s.Bytes, 10))
	}
	if f.fields.MaxRevLen {
		parts = append(parts, strconv.FormatInt(s.MaxRevLen, 10))
	}
	parts = append(parts, strconv.FormatInt(s.Revisions, 10))
	if f.fields.Title {
		parts = append(parts, s.Title)
	}
	return strings.Join(parts, ":")
}
