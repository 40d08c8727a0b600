package pipeline

import (
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/deeper-cleaner/internal/adapter/csvfile"
	"github.com/couchcryptid/deeper-cleaner/internal/domain"
	"github.com/couchcryptid/deeper-cleaner/internal/observability"
	"github.com/google/uuid"
)

// ErrAlreadyRun is returned when Clean is called on a Cleaner that has
// already left the idle state. Each run needs a new Cleaner.
var ErrAlreadyRun = errors.New("cleaner already used, start a new run")

// Mode selects the output layout.
type Mode string

const (
	ModeBasic  Mode = "basic"
	ModeEnrich Mode = "enrich"
)

// State is a step in the life of a cleaning run:
// idle -> validating_inputs -> streaming -> completed | failed.
type State int32

const (
	StateIdle State = iota
	StateValidatingInputs
	StateStreaming
	StateCompleted
	StateFailed
)

var stateNames = [...]string{"idle", "validating_inputs", "streaming", "completed", "failed"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Options describe one cleaning run.
type Options struct {
	Input  string
	Output string

	// SurfaceAltitude is the operator-entered surface elevation. Blank means 0.
	// Ignored when Basic is set.
	SurfaceAltitude string

	Basic bool
	CRLF  bool
}

// Mode reports the output layout selected by the options.
func (o Options) Mode() Mode {
	if o.Basic {
		return ModeBasic
	}
	return ModeEnrich
}

// Result is the outcome of a cleaning run. It is returned to the caller and
// handed explicitly to any report or metrics writer.
type Result struct {
	RunID           string   `json:"run_id"`
	Mode            Mode     `json:"mode"`
	Input           string   `json:"input"`
	Output          string   `json:"output"`
	SurfaceAltitude *float64 `json:"surface_altitude,omitempty"`
	Stats
	State      State     `json:"state"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Duration is the wall time of the run.
func (r Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Cleaner runs the file-to-file cleaning operation once.
type Cleaner struct {
	opts    Options
	logger  *slog.Logger
	metrics *observability.Metrics
	state   atomic.Int32
}

// NewCleaner creates a single-use Cleaner for opts.
func NewCleaner(opts Options, logger *slog.Logger, metrics *observability.Metrics) *Cleaner {
	return &Cleaner{opts: opts, logger: logger, metrics: metrics}
}

// State reports where the run currently is.
func (c *Cleaner) State() State {
	return State(c.state.Load())
}

// Clean validates the surface altitude, opens the input, creates (or
// truncates) the output and streams accepted rows into it. A bad surface
// altitude fails before any file is touched. On an I/O failure mid-stream the
// rows already written are left in the output file. Both files are closed
// before Clean returns.
func (c *Cleaner) Clean() (Result, error) {
	if !c.state.CompareAndSwap(int32(StateIdle), int32(StateValidatingInputs)) {
		return Result{State: c.State()}, ErrAlreadyRun
	}

	res := Result{
		RunID:     uuid.NewString(),
		Mode:      c.opts.Mode(),
		Input:     c.opts.Input,
		Output:    c.opts.Output,
		Stats:     Stats{Rejected: map[domain.RejectReason]int{}},
		StartedAt: clock.Now(),
	}
	logger := c.logger.With("run_id", res.RunID)
	logger.Info("cleaning started", "input", res.Input, "output", res.Output, "mode", res.Mode)

	var enrich Enricher
	if res.Mode == ModeEnrich {
		surface, err := domain.ParseSurfaceReference(c.opts.SurfaceAltitude)
		if err != nil {
			return c.finish(logger, res, err)
		}
		res.SurfaceAltitude = &surface.Meters
		enrich = AltitudeEnricher(surface)
	} else if c.opts.SurfaceAltitude != "" {
		logger.Warn("surface altitude ignored in basic mode", "surface_altitude", c.opts.SurfaceAltitude)
	}

	stats, err := c.stream(logger, NewTransformer(enrich))
	res.Stats = stats
	return c.finish(logger, res, err)
}

func (c *Cleaner) stream(logger *slog.Logger, t *SensorTransformer) (stats Stats, err error) {
	stats = Stats{Rejected: map[domain.RejectReason]int{}}

	src, err := csvfile.Open(c.opts.Input)
	if err != nil {
		return stats, err
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			logger.Warn("close input failed", "error", cerr)
		}
	}()

	sink, err := csvfile.Create(c.opts.Output, c.opts.CRLF)
	if err != nil {
		return stats, err
	}
	defer func() {
		if cerr := sink.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	c.state.Store(int32(StateStreaming))
	return New(src, t, sink, logger, c.metrics).Run()
}

func (c *Cleaner) finish(logger *slog.Logger, res Result, err error) (Result, error) {
	res.FinishedAt = clock.Now()
	c.metrics.RunDuration.Observe(res.Duration().Seconds())

	if err != nil {
		res.State = StateFailed
		c.state.Store(int32(StateFailed))
		c.metrics.Runs.WithLabelValues(StateFailed.String()).Inc()
		logger.Error("cleaning failed",
			"error", err,
			"rows_read", res.RowsRead,
			"rows_written", res.RowsWritten,
		)
		return res, err
	}

	res.State = StateCompleted
	c.state.Store(int32(StateCompleted))
	c.metrics.Runs.WithLabelValues(StateCompleted.String()).Inc()
	logger.Info("cleaning completed",
		"rows_read", res.RowsRead,
		"rows_written", res.RowsWritten,
		"rows_rejected", res.RowsRejected(),
		"duration", res.Duration(),
	)
	return res, nil
}
