// Package tableio reads and writes long-format tables as delimited text.
//
// Fields are split on the delimiter with no quote interpretation, so a quote
// character is ordinary data. The first line is the header. Blank lines are
// skipped.
package tableio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/vpclean/preprocess/internal/errhandling"
	"github.com/vpclean/preprocess/pkg/dataset"
)

// DefaultDelimiter separates fields when none is configured.
const DefaultDelimiter = ","

const utf8BOM = "\ufeff"

var (
	// ErrNoHeader is returned when the input has no header line
	ErrNoHeader = errors.New("input has no header line")
	// ErrBadHeader wraps header lines that cannot name a table's columns
	ErrBadHeader = errors.New("invalid header")
)

// RowError reports a data line whose field count differs from the header.
type RowError struct {
	Line   int
	Fields int
	Want   int
}

// Error implements the error interface.
func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: got %d fields, want %d", e.Line, e.Fields, e.Want)
}

// ReaderOptions configures Read.
type ReaderOptions struct {
	// Delimiter separates fields. Empty uses DefaultDelimiter.
	Delimiter string
	// NullMarkers are field values read as missing cells. Every other value,
	// including the empty string when it is not a marker, is read as text.
	NullMarkers []string
}

// WriterOptions configures Write.
type WriterOptions struct {
	// Delimiter separates fields. Empty uses DefaultDelimiter.
	Delimiter string
}

func delimiterOrDefault(d string) string {
	if d == "" {
		return DefaultDelimiter
	}
	return d
}

// Read parses a delimited table from r.
func Read(r io.Reader, opts ReaderOptions) (*dataset.Table, error) {
	delim := delimiterOrDefault(opts.Delimiter)
	nulls := make(map[string]bool, len(opts.NullMarkers))
	for _, m := range opts.NullMarkers {
		nulls[m] = true
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var (
		header []string
		rows   [][]dataset.Cell
		line   int
	)
	for scanner.Scan() {
		line++
		text := strings.TrimSuffix(scanner.Text(), "\r")
		if header == nil {
			text = strings.TrimPrefix(text, utf8BOM)
			if text == "" {
				continue
			}
			header = strings.Split(text, delim)
			continue
		}
		if text == "" {
			continue
		}

		fields := strings.Split(text, delim)
		if len(fields) != len(header) {
			return nil, &RowError{Line: line, Fields: len(fields), Want: len(header)}
		}
		row := make([]dataset.Cell, len(fields))
		for i, f := range fields {
			if nulls[f] {
				row[i] = dataset.Null()
			} else {
				row[i] = dataset.Text(f)
			}
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading line %d: %w", line+1, err)
	}
	if header == nil {
		return nil, ErrNoHeader
	}

	t, err := dataset.New(header, rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadHeader, err)
	}
	return t, nil
}

// ReadFile reads a delimited table from path. Open failures are classified
// as I/O errors.
func ReadFile(path string, opts ReaderOptions) (*dataset.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errhandling.NewIOError(fmt.Sprintf("opening %s", path), err)
	}
	defer f.Close()

	t, err := Read(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Write writes t as delimited text: the header, then every row in order.
// Missing cells are written as empty fields and numbers in their canonical
// form.
func Write(w io.Writer, t *dataset.Table, opts WriterOptions) error {
	delim := delimiterOrDefault(opts.Delimiter)
	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString(strings.Join(t.Columns(), delim) + "\n"); err != nil {
		return err
	}
	fields := make([]string, len(t.Columns()))
	for r := 0; r < t.Len(); r++ {
		for i, c := range t.Row(r) {
			fields[i] = c.String()
		}
		if _, err := bw.WriteString(strings.Join(fields, delim) + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile writes t to path, replacing any existing file.
func WriteFile(path string, t *dataset.Table, opts WriterOptions) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errhandling.NewIOError(fmt.Sprintf("creating %s", path), err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errhandling.NewIOError(fmt.Sprintf("closing %s", path), cerr)
		}
	}()

	if err := Write(f, t, opts); err != nil {
		return errhandling.NewIOError(fmt.Sprintf("writing %s", path), err)
	}
	return nil
}
