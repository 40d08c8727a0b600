package pipeline

import "github.com/couchcryptid/deeper-cleaner/internal/domain"

// Enricher is an optional stage applied to every validated record.
type Enricher func(domain.Record) (domain.Record, error)

// AltitudeEnricher derives altitude_asl from the given surface reference.
func AltitudeEnricher(surface domain.SurfaceReference) Enricher {
	return func(rec domain.Record) (domain.Record, error) {
		return domain.Enrich(rec, surface)
	}
}

// SensorTransformer implements RowTransformer using domain validation with
// an optional enrichment stage.
type SensorTransformer struct {
	enrich Enricher
}

// NewTransformer creates a SensorTransformer. Pass a nil enricher for the
// basic five-column output.
func NewTransformer(enrich Enricher) *SensorTransformer {
	return &SensorTransformer{enrich: enrich}
}

func (t *SensorTransformer) Transform(raw domain.RawRow) (domain.Record, error) {
	rec, err := domain.ValidateRow(raw)
	if err != nil {
		return domain.Record{}, err
	}
	if t.enrich == nil {
		return rec, nil
	}
	return t.enrich(rec)
}

// Header returns the output column names matching the configured stages.
func (t *SensorTransformer) Header() []string {
	if t.enrich == nil {
		return domain.BasicHeader
	}
	return domain.EnrichedHeader
}
