package delimited

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/fyrsmithlabs/handclass/internal/classify"
)

// Stdio is the path that selects standard output for a sink and standard
// input for a source.
const Stdio = "-"

// Sink is a classify.ResultSink that writes one delimited line per row and
// hands it to the output before WriteRow returns. A failed write leaves no
// state behind, so the same row can be retried.
type Sink struct {
	out     io.Writer
	dialect Dialect
	line    bytes.Buffer
	closer  io.Closer
	rows    int
}

// NewSink writes rows to w in dialect d. The caller owns w.
func NewSink(w io.Writer, d Dialect) *Sink {
	return &Sink{out: w, dialect: d}
}

// OpenSink opens path for writing. Stdio writes to standard output. With
// appendRows set an existing file is extended rather than truncated, which
// is how a run resumed with --skip keeps earlier rows.
func OpenSink(path string, d Dialect, appendRows bool) (*Sink, error) {
	if path == "" || path == Stdio {
		return NewSink(os.Stdout, d), nil
	}
	flags := os.O_WRONLY | os.O_CREATE
	if appendRows {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open output %s: %w", path, err)
	}
	s := NewSink(f, d)
	s.closer = f
	return s, nil
}

// WriteRow implements classify.ResultSink.
func (s *Sink) WriteRow(row classify.Row) error {
	s.line.Reset()
	cw := csv.NewWriter(&s.line)
	cw.Comma = s.dialect.Comma
	cw.UseCRLF = s.dialect.CRLF
	if err := cw.Write(row); err != nil {
		return fmt.Errorf("encode row: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("encode row: %w", err)
	}

	// One Write per row: the output never holds a buffered error.
	if _, err := s.out.Write(s.line.Bytes()); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	s.rows++
	return nil
}

// Rows returns the number of rows written.
func (s *Sink) Rows() int { return s.rows }

// Close closes the underlying file if the sink opened it.
func (s *Sink) Close() error {
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}
