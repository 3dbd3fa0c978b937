package delimited

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fyrsmithlabs/handclass/internal/classify"
)

// ReadOptions controls how records are read.
type ReadOptions struct {
	Dialect Dialect
	// Header drops the first line.
	Header bool
	// Skip drops this many records after the header, for resuming a run.
	Skip int
}

// ReadRecords reads every record from r. Records may have differing field
// counts; each mode checks its own minimum when items are built.
func ReadRecords(r io.Reader, opts ReadOptions) ([]classify.Record, error) {
	if opts.Skip < 0 {
		return nil, fmt.Errorf("%w: skip must be >= 0, got %d", classify.ErrConfiguration, opts.Skip)
	}
	comma := opts.Dialect.Comma
	if comma == 0 {
		comma = ExcelTab.Comma
	}

	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = false

	if opts.Header {
		if _, err := cr.Read(); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, nil
			}
			return nil, fmt.Errorf("%w: read header: %w", classify.ErrMalformedItem, err)
		}
	}

	var out []classify.Record
	skipped := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", classify.ErrMalformedItem, err)
		}
		if skipped < opts.Skip {
			skipped++
			continue
		}
		out = append(out, classify.Record(rec))
	}
	return out, nil
}

// LoadRecords reads records from path. Stdio reads standard input.
func LoadRecords(path string, opts ReadOptions) ([]classify.Record, error) {
	if path == "" || path == Stdio {
		return ReadRecords(os.Stdin, opts)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input %s: %w", path, err)
	}
	defer f.Close()

	recs, err := ReadRecords(f, opts)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return recs, nil
}
