// Package input opens the scan's input stream: stdin by default, or a
// regular file, optionally wrapped in a byte-units progress bar on stderr.
// The exports the historical binaries were run over are multi-gigabyte
// decompressed streams, so a size-known file input is the one place a
// progress surface is worth having. The bar never touches stdout.
package input

import (
	"fmt"
	"io"
	"os"

	"github.com/cheggaaa/pb"
	"go.uber.org/multierr"
	"golang.org/x/term"
)

// StdinName is the input label used in diagnostics when reading stdin.
const StdinName = "stdin"

// Source is an open input stream plus its diagnostics label.
type Source struct {
	// Reader delivers the stream, through the progress proxy when active.
	Reader io.Reader
	// Name is the file path, or StdinName.
	Name string

	file *os.File
	bar  *pb.ProgressBar
}

// Open opens path for scanning. An empty path or "-" means stdin.
// When progress is requested, the source wraps a regular file of known size
// in a progress bar on stderr; stdin and non-regular files scan without one
// (there is no size to report against), as do runs where stderr is not a
// terminal.
func Open(path string, progress bool) (*Source, error) {
	if path == "" || path == "-" {
		return &Source{Reader: os.Stdin, Name: StdinName}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input %q: %w", path, err)
	}
	src := &Source{Reader: f, Name: path, file: f}

	if !progress {
		return src, nil
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat input %q: %w", path, err)
	}
	if !info.Mode().IsRegular() || !term.IsTerminal(int(os.Stderr.Fd())) {
		return src, nil
	}

	bar := pb.New64(info.Size()).SetUnits(pb.U_BYTES)
	bar.Output = os.Stderr
	bar.Start()
	src.bar = bar
	src.Reader = bar.NewProxyReader(f)
	return src, nil
}

// Close finishes the progress bar and closes the file. Closing a stdin
// source is a no-op.
func (s *Source) Close() error {
	if s.bar != nil {
		s.bar.Finish()
		s.bar = nil
	}
	var err error
	if s.file != nil {
		err = multierr.Append(err, s.file.Close())
		s.file = nil
	}
	return err
}
