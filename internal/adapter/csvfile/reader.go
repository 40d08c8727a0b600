package csvfile

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/deeper-cleaner/internal/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Reader yields raw rows from a headerless sensor CSV file.
// It implements pipeline.RowSource.
type Reader struct {
	file *os.File
	csv  *csv.Reader
	line int
}

// Open opens path for reading. Rows may have any number of fields and stray
// quotes inside unquoted cells are tolerated. A leading UTF-8 BOM is skipped.
// Lines may end in LF, CRLF or a lone CR.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}

	src, err := skipBOM(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read input: %w", err)
	}

	return &Reader{file: f, csv: newCSVReader(src)}, nil
}

// NewReader reads rows from r. Close is a no-op for readers built this way.
func NewReader(r io.Reader) (*Reader, error) {
	src, err := skipBOM(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return &Reader{csv: newCSVReader(src)}, nil
}

func newCSVReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr
}

func skipBOM(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(utf8BOM))
	if err != nil && err != io.EOF {
		return nil, err
	}
	if bytes.Equal(head, utf8BOM) {
		if _, err := br.Discard(len(utf8BOM)); err != nil {
			return nil, err
		}
	}
	return &lineEndingReader{r: br}, nil
}

// lineEndingReader rewrites a CR that is not followed by LF into LF, so
// CR-only files split into rows. CRLF passes through unchanged.
type lineEndingReader struct {
	r *bufio.Reader
}

func (l *lineEndingReader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		b, err := l.r.ReadByte()
		if err != nil {
			if err == io.EOF && n > 0 {
				return n, nil
			}
			return n, err
		}
		if b == '\r' {
			if next, err := l.r.Peek(1); err != nil || next[0] != '\n' {
				b = '\n'
			}
		}
		p[n] = b
		n++
		if l.r.Buffered() == 0 {
			break
		}
	}
	return n, nil
}

// Next returns the next row, or io.EOF when the file is exhausted. Blank
// lines are skipped by the CSV decoder and never returned.
func (r *Reader) Next() (domain.RawRow, error) {
	rec, err := r.csv.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	r.line, _ = r.csv.FieldPos(0)
	return domain.RawRow(rec), nil
}

// Line reports the input line on which the last returned row started.
func (r *Reader) Line() int {
	return r.line
}

func (r *Reader) Close() error {
	if r.file == nil {
		return nil
	}
	return r.file.Close()
}
