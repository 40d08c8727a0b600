package pipeline

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/couchcryptid/deeper-cleaner/internal/domain"
	"github.com/couchcryptid/deeper-cleaner/internal/observability"
)

// RowSource yields raw rows in file order and io.EOF at the end.
type RowSource interface {
	Next() (domain.RawRow, error)
	Line() int
}

// RowSink accepts output rows, header first.
type RowSink interface {
	Write(fields []string) error
}

// RowTransformer turns a raw row into an output record, or rejects it.
type RowTransformer interface {
	Transform(raw domain.RawRow) (domain.Record, error)
	Header() []string
}

// Stats counts what a single pass over the input did.
type Stats struct {
	RowsRead    int                         `json:"rows_read"`
	RowsWritten int                         `json:"rows_written"`
	Rejected    map[domain.RejectReason]int `json:"rejected"`
}

// RowsRejected is the total number of skipped rows.
func (s Stats) RowsRejected() int {
	n := 0
	for _, c := range s.Rejected {
		n += c
	}
	return n
}

// Pipeline streams rows from a source through a transformer into a sink.
type Pipeline struct {
	source      RowSource
	transformer RowTransformer
	sink        RowSink
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// New creates a Pipeline with the given stages and observability.
func New(src RowSource, t RowTransformer, sink RowSink, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		source:      src,
		transformer: t,
		sink:        sink,
		logger:      logger,
		metrics:     metrics,
	}
}

// Run writes the header, then every accepted row in input order. Rejected
// rows are counted and skipped. Any read or write failure stops the run and
// is returned together with the counts so far; rows already handed to the
// sink are not taken back.
func (p *Pipeline) Run() (Stats, error) {
	stats := Stats{Rejected: make(map[domain.RejectReason]int)}

	if err := p.sink.Write(p.transformer.Header()); err != nil {
		return stats, fmt.Errorf("write header: %w", err)
	}

	for {
		raw, err := p.source.Next()
		if errors.Is(err, io.EOF) {
			return stats, nil
		}
		if err != nil {
			return stats, err
		}
		stats.RowsRead++
		p.metrics.RowsRead.Inc()

		rec, err := p.transformer.Transform(raw)
		if err != nil {
			reason := domain.ReasonOf(err)
			if reason == "" {
				return stats, fmt.Errorf("transform line %d: %w", p.source.Line(), err)
			}
			stats.Rejected[reason]++
			p.metrics.RowsRejected.WithLabelValues(string(reason)).Inc()
			p.logger.Debug("row rejected, skipping",
				"line", p.source.Line(),
				"reason", reason,
				"error", err,
			)
			continue
		}

		if err := p.sink.Write(rec.Fields()); err != nil {
			return stats, err
		}
		stats.RowsWritten++
		p.metrics.RowsWritten.Inc()
	}
}
