// Package args parses the scanner's bare-token argument grammar.
//
// The grammar predates the flag surface and is kept verbatim for pipeline
// compatibility: tokens are order-insensitive words (all, bytes, maxrevlen,
// title, concise), `batch` followed by a window size, and a single bare
// integer naming the revision-count cutoff. Unknown tokens are usage errors
// reported before any input is read.
package args

import (
	"fmt"
	"strconv"
)

// Options is the resolved scan configuration after tokens are applied over
// config-file defaults.
type Options struct {
	// All includes every namespace, not just main (0). It also adds the
	// page id field to output lines.
	All bool
	// Bytes includes the total byte length in output.
	Bytes bool
	// MaxRevLen includes the largest single-revision byte length in output.
	MaxRevLen bool
	// Title includes the page title in output.
	Title bool
	// Concise emits colon-separated bare values instead of label:value pairs.
	Concise bool
	// Batch aggregates that many consecutive pages per record; 0 disables.
	Batch int64
	// Cutoff is the minimum revision count (exclusive) for emission.
	Cutoff int64
}

// UsageError reports a rejected command line. It carries the offending
// token so the message can point at what was typed.
type UsageError struct {
	Token  string
	Reason string
}

func (e *UsageError) Error() string {
	if e.Token == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %q", e.Reason, e.Token)
}

// Usage is the grammar summary printed on argument errors.
const Usage = `usage: revtally [flags] [all] [bytes] [maxrevlen] [title] [batch <n>] [concise] [<cutoff>]

tokens (order-insensitive):
  all         include every namespace, not just main (0); adds page: to output
  bytes       include total byte length of counted revisions
  maxrevlen   include byte length of the largest single revision
  title       include the page title
  batch <n>   aggregate n consecutive pages per output line
  concise     colon-separated bare values instead of label:value pairs
  <cutoff>    suppress pages/batches with revision count <= cutoff (default 0)

run 'revtally --help' for the flag surface (config file, file input, progress,
binary records, log level).`

// Parse applies tokens over defaults and returns the resolved options.
// Boolean tokens only enable; batch and cutoff override the default, last
// occurrence winning. Any rejection is a *UsageError.
func Parse(defaults Options, tokens []string) (Options, error) {
	opts := defaults
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		switch tok {
		case "all":
			opts.All = true
		case "bytes":
			opts.Bytes = true
		case "maxrevlen":
			opts.MaxRevLen = true
		case "title":
			opts.Title = true
		case "concise":
			opts.Concise = true
		case "batch":
			if i+1 >= len(tokens) {
				return Options{}, &UsageError{Token: tok, Reason: "batch requires a window size"}
			}
			i++
			n, err := parseCount(tokens[i])
			if err != nil || n < 1 {
				return Options{}, &UsageError{Token: tokens[i], Reason: "invalid batch size"}
			}
			opts.Batch = n
		default:
			n, err := parseCount(tok)
			if err != nil {
				return Options{}, &UsageError{Token: tok, Reason: "unknown option"}
			}
			opts.Cutoff = n
		}
	}
	return opts, nil
}

// parseCount accepts only all-digit tokens. The historical binaries took any
// digit-prefixed token and silently dropped the tail; that leniency belongs
// to the data stream, not the command line, so here "5x" is a usage error.
func parseCount(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty count")
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("count %q is not a non-negative integer", s)
		}
	}
	return strconv.ParseInt(s, 10, 64)
}
