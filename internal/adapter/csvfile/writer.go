package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

// Writer appends rows to a CSV output file.
// It implements pipeline.RowSink.
type Writer struct {
	file *os.File
	csv  *csv.Writer
}

// Create creates or truncates path for writing. When crlf is set, lines end
// in "\r\n" instead of "\n".
func Create(path string, crlf bool) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}
	w := NewWriter(f, crlf)
	w.file = f
	return w, nil
}

// NewWriter writes rows to w. Close flushes but does not close w.
func NewWriter(w io.Writer, crlf bool) *Writer {
	cw := csv.NewWriter(w)
	cw.UseCRLF = crlf
	return &Writer{csv: cw}
}

// Write encodes one row.
func (w *Writer) Write(fields []string) error {
	if err := w.csv.Write(fields); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// Close flushes buffered rows and closes the underlying file. Rows written
// before a failure stay in the file.
func (w *Writer) Close() error {
	w.csv.Flush()
	flushErr := w.csv.Error()
	if flushErr != nil {
		flushErr = fmt.Errorf("write output: %w", flushErr)
	}
	if w.file == nil {
		return flushErr
	}
	if err := w.file.Close(); err != nil {
		return errors.Join(flushErr, fmt.Errorf("close output: %w", err))
	}
	return flushErr
}
