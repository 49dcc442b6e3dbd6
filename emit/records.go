package emit

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/multierr"
)

// Binary record framing: each summary is written as a 4-byte big-endian
// length prefix followed by a msgpack-encoded frame. The frame envelope
// carries a format version so downstream readers can reject layouts they do
// not understand.
const (
	// FormatVersion identifies the record frame layout.
	FormatVersion = 1
	// MaxFramePayload bounds a single frame payload (1 MiB). Titles are
	// line-bounded, so real frames stay well under a kilobyte; anything
	// larger in a records file is corruption.
	MaxFramePayload = 1 << 20
	// lengthPrefixSize is the size of the length prefix in bytes.
	lengthPrefixSize = 4
)

// recordFrame is the on-disk envelope around one summary.
type recordFrame struct {
	Format  int      `msgpack:"format"`
	Summary *Summary `msgpack:"summary"`
}

// RecordErrorKind classifies record decoding errors.
type RecordErrorKind int

const (
	// RecordErrorPartial indicates a truncated frame (corrupt or cut-off file).
	RecordErrorPartial RecordErrorKind = iota
	// RecordErrorTooLarge indicates a frame exceeding MaxFramePayload.
	RecordErrorTooLarge
	// RecordErrorDecode indicates a msgpack decoding failure.
	RecordErrorDecode
	// RecordErrorVersion indicates an unsupported format version.
	RecordErrorVersion
)

// RecordError represents a record decoding error.
type RecordError struct {
	Kind RecordErrorKind
	Msg  string
	Err  error
}

func (e *RecordError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// RecordWriter appends framed summary records to a destination.
// It implements Sink; Close flushes the internal buffer and closes the
// destination when it is an io.Closer.
type RecordWriter struct {
	buf *bufio.Writer
	dst io.Writer
}

// NewRecordWriter creates a record writer over dst.
func NewRecordWriter(dst io.Writer) *RecordWriter {
	return &RecordWriter{buf: bufio.NewWriter(dst), dst: dst}
}

// Write encodes and appends one summary frame.
func (w *RecordWriter) Write(s *Summary) error {
	payload, err := msgpack.Marshal(&recordFrame{Format: FormatVersion, Summary: s})
	if err != nil {
		return fmt.Errorf("encode summary record: %w", err)
	}
	if len(payload) > MaxFramePayload {
		return fmt.Errorf("summary record payload %d exceeds maximum %d", len(payload), MaxFramePayload)
	}

	var prefix [lengthPrefixSize]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(payload)))
	if _, err := w.buf.Write(prefix[:]); err != nil {
		return fmt.Errorf("write record prefix: %w", err)
	}
	if _, err := w.buf.Write(payload); err != nil {
		return fmt.Errorf("write record payload: %w", err)
	}
	return nil
}

// Close flushes buffered frames and closes the destination if it supports it.
func (w *RecordWriter) Close() error {
	err := w.buf.Flush()
	if c, ok := w.dst.(io.Closer); ok {
		err = multierr.Append(err, c.Close())
	}
	return err
}

// Verify RecordWriter implements Sink.
var _ Sink = (*RecordWriter)(nil)

// RecordReader decodes framed summary records from a stream, for tests and
// downstream consumers of --records output.
type RecordReader struct {
	r io.Reader
}

// NewRecordReader creates a record reader over r.
func NewRecordReader(r io.Reader) *RecordReader {
	return &RecordReader{r: r}
}

// Read decodes the next summary frame.
//
// Errors:
//   - io.EOF: stream ended cleanly between frames (no more records)
//   - *RecordError with Kind=RecordErrorPartial: truncated frame
//   - *RecordError with Kind=RecordErrorTooLarge: frame exceeds limit
//   - *RecordError with Kind=RecordErrorDecode: payload is not a valid frame
//   - *RecordError with Kind=RecordErrorVersion: unsupported format version
func (r *RecordReader) Read() (*Summary, error) {
	var lengthBuf [lengthPrefixSize]byte
	if _, err := io.ReadFull(r.r, lengthBuf[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, &RecordError{
			Kind: RecordErrorPartial,
			Msg:  "failed to read record prefix",
			Err:  err,
		}
	}

	payloadSize := binary.BigEndian.Uint32(lengthBuf[:])
	if payloadSize > MaxFramePayload {
		return nil, &RecordError{
			Kind: RecordErrorTooLarge,
			Msg:  fmt.Sprintf("record payload %d exceeds maximum %d", payloadSize, MaxFramePayload),
		}
	}

	payload := make([]byte, payloadSize)
	if _, err := io.ReadFull(r.r, payload); err != nil {
		return nil, &RecordError{
			Kind: RecordErrorPartial,
			Msg:  "failed to read record payload",
			Err:  err,
		}
	}

	var frame recordFrame
	if err := msgpack.Unmarshal(payload, &frame); err != nil {
		return nil, &RecordError{
			Kind: RecordErrorDecode,
			Msg:  "failed to decode summary record",
			Err:  err,
		}
	}
	if frame.Format != FormatVersion {
		return nil, &RecordError{
			Kind: RecordErrorVersion,
			Msg:  fmt.Sprintf("unsupported record format %d (want %d)", frame.Format, FormatVersion),
		}
	}
	if frame.Summary == nil {
		return nil, &RecordError{
			Kind: RecordErrorDecode,
			Msg:  "record frame carries no summary",
		}
	}
	return frame.Summary, nil
}

// ReadAll decodes records until end of stream.
func (r *RecordReader) ReadAll() ([]Summary, error) {
	var out []Summary
	for {
		s, err := r.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, *s)
	}
}
