package pipeline_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/deeper-cleaner/internal/domain"
	"github.com/couchcryptid/deeper-cleaner/internal/pipeline"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleInput = `10.5,20.3,45.20,2023-01-01T00:00:00,12.5
0.0,20.3,45.20,t,12.5
 11.25 , 21.5 , 3.5 , 2023-01-01T00:00:10 , 12.4
abc,20.3,45.20,t,12.5
12,22,deep,t,12.5
1,2,3
13,23,10,2023-01-01T00:00:20,12.3,vendor
`

func writeInput(t *testing.T, content string) (dir, input string) {
	t.Helper()
	dir = t.TempDir()
	input = filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(input, []byte(content), 0o600))
	return dir, input
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func clean(t *testing.T, opts pipeline.Options) (pipeline.Result, error) {
	t.Helper()
	return pipeline.NewCleaner(opts, slog.Default(), newTestMetrics()).Clean()
}

func TestCleaner_Clean_Enriched(t *testing.T) {
	dir, input := writeInput(t, sampleInput)
	output := filepath.Join(dir, "out.csv")

	res, err := clean(t, pipeline.Options{Input: input, Output: output, SurfaceAltitude: "100,0"})

	require.NoError(t, err)
	expected := "latitude,longitude,depth,timestamp,temperature,altitude_asl\n" +
		"10.5,20.3,45.20,2023-01-01T00:00:00,12.5,54.80\n" +
		"11.25,21.5,3.5,2023-01-01T00:00:10,12.4,96.50\n" +
		"13,23,10,2023-01-01T00:00:20,12.3,vendor,90.00\n"
	assert.Equal(t, expected, readFile(t, output))

	assert.Equal(t, pipeline.ModeEnrich, res.Mode)
	assert.Equal(t, pipeline.StateCompleted, res.State)
	assert.Equal(t, 7, res.RowsRead)
	assert.Equal(t, 3, res.RowsWritten)
	assert.Equal(t, 4, res.RowsRejected())
	require.NotNil(t, res.SurfaceAltitude)
	assert.Equal(t, 100.0, *res.SurfaceAltitude)
	assert.NotEmpty(t, res.RunID)
}

func TestCleaner_Clean_Basic(t *testing.T) {
	dir, input := writeInput(t, sampleInput)
	output := filepath.Join(dir, "out.csv")

	res, err := clean(t, pipeline.Options{Input: input, Output: output, Basic: true})

	require.NoError(t, err)
	expected := "latitude,longitude,depth,timestamp,temperature\n" +
		"10.5,20.3,45.20,2023-01-01T00:00:00,12.5\n" +
		"11.25,21.5,3.5,2023-01-01T00:00:10,12.4\n" +
		"12,22,deep,t,12.5\n" +
		"13,23,10,2023-01-01T00:00:20,12.3,vendor\n"
	assert.Equal(t, expected, readFile(t, output))
	assert.Equal(t, pipeline.ModeBasic, res.Mode)
	assert.Nil(t, res.SurfaceAltitude)
	assert.Equal(t, 4, res.RowsWritten)
}

func TestCleaner_Clean_ReferenceArithmetic(t *testing.T) {
	dir, input := writeInput(t, "45.1,11.2,45.20,t,9\n")
	output := filepath.Join(dir, "out.csv")

	_, err := clean(t, pipeline.Options{Input: input, Output: output, SurfaceAltitude: "195.50"})

	require.NoError(t, err)
	assert.Equal(t, "latitude,longitude,depth,timestamp,temperature,altitude_asl\n45.1,11.2,45.20,t,9,150.30\n",
		readFile(t, output))
}

func TestCleaner_Clean_BlankSurfaceIsSeaLevel(t *testing.T) {
	dir, input := writeInput(t, "10.5,20.3,45.20,t,12.5\n")
	output := filepath.Join(dir, "out.csv")

	res, err := clean(t, pipeline.Options{Input: input, Output: output})

	require.NoError(t, err)
	assert.Contains(t, readFile(t, output), "10.5,20.3,45.20,t,12.5,-45.20\n")
	require.NotNil(t, res.SurfaceAltitude)
	assert.Equal(t, 0.0, *res.SurfaceAltitude)
}

func TestCleaner_Clean_OnlyZeroFixGivesHeaderOnly(t *testing.T) {
	dir, input := writeInput(t, "0.0,20.3,45.20,t,12.5\n")
	output := filepath.Join(dir, "out.csv")

	res, err := clean(t, pipeline.Options{Input: input, Output: output, SurfaceAltitude: "10"})

	require.NoError(t, err)
	assert.Equal(t, "latitude,longitude,depth,timestamp,temperature,altitude_asl\n", readFile(t, output))
	assert.Equal(t, 0, res.RowsWritten)
	assert.Equal(t, 1, res.Rejected[domain.ReasonZeroCoord])
}

func TestCleaner_Clean_InvalidSurfaceLeavesOutputUntouched(t *testing.T) {
	dir, input := writeInput(t, sampleInput)

	t.Run("output not created", func(t *testing.T) {
		output := filepath.Join(dir, "never.csv")

		res, err := clean(t, pipeline.Options{Input: input, Output: output, SurfaceAltitude: "abc"})

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidSurfaceAltitude)
		assert.Equal(t, pipeline.StateFailed, res.State)
		_, statErr := os.Stat(output)
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("existing output not overwritten", func(t *testing.T) {
		output := filepath.Join(dir, "existing.csv")
		require.NoError(t, os.WriteFile(output, []byte("keep me\n"), 0o600))

		_, err := clean(t, pipeline.Options{Input: input, Output: output, SurfaceAltitude: "abc"})

		require.Error(t, err)
		assert.Equal(t, "keep me\n", readFile(t, output))
	})
}

func TestCleaner_Clean_MissingInputDoesNotCreateOutput(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "out.csv")

	res, err := clean(t, pipeline.Options{Input: filepath.Join(dir, "missing.csv"), Output: output})

	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, pipeline.StateFailed, res.State)
	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr))
}

func TestCleaner_Clean_UnwritableOutput(t *testing.T) {
	dir, input := writeInput(t, sampleInput)

	_, err := clean(t, pipeline.Options{Input: input, Output: filepath.Join(dir, "no", "such", "dir.csv")})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "create output")
}

func TestCleaner_Clean_Idempotent(t *testing.T) {
	dir, input := writeInput(t, sampleInput)
	first := filepath.Join(dir, "first.csv")
	second := filepath.Join(dir, "second.csv")
	opts := pipeline.Options{Input: input, SurfaceAltitude: "195.5"}

	opts.Output = first
	_, err := clean(t, opts)
	require.NoError(t, err)
	opts.Output = second
	_, err = clean(t, opts)
	require.NoError(t, err)

	assert.Equal(t, readFile(t, first), readFile(t, second))

	// Re-running onto the same output overwrites with identical bytes.
	opts.Output = first
	_, err = clean(t, opts)
	require.NoError(t, err)
	assert.Equal(t, readFile(t, second), readFile(t, first))
}

func TestCleaner_Clean_CRLF(t *testing.T) {
	dir, input := writeInput(t, "10.5,20.3,45.20,t,12.5\n")
	output := filepath.Join(dir, "out.csv")

	_, err := clean(t, pipeline.Options{Input: input, Output: output, Basic: true, CRLF: true})

	require.NoError(t, err)
	assert.Equal(t, "latitude,longitude,depth,timestamp,temperature\r\n10.5,20.3,45.20,t,12.5\r\n", readFile(t, output))
}

func TestCleaner_Clean_CROnlyInputSplitsRows(t *testing.T) {
	dir, input := writeInput(t, "10.5,20.3,45.20,t,12.5\r11.5,21.3,5,t,1\r")
	output := filepath.Join(dir, "out.csv")

	res, err := clean(t, pipeline.Options{Input: input, Output: output, SurfaceAltitude: "100"})

	require.NoError(t, err)
	assert.Equal(t, 2, res.RowsRead)
	assert.Equal(t, 2, res.RowsWritten)
	assert.Equal(t, "latitude,longitude,depth,timestamp,temperature,altitude_asl\n"+
		"10.5,20.3,45.20,t,12.5,54.80\n"+
		"11.5,21.3,5,t,1,95.00\n", readFile(t, output))
}

func TestCleaner_Clean_SingleUse(t *testing.T) {
	dir, input := writeInput(t, sampleInput)
	c := pipeline.NewCleaner(pipeline.Options{Input: input, Output: filepath.Join(dir, "out.csv")}, slog.Default(), newTestMetrics())
	assert.Equal(t, pipeline.StateIdle, c.State())

	_, err := c.Clean()
	require.NoError(t, err)
	assert.Equal(t, pipeline.StateCompleted, c.State())

	_, err = c.Clean()
	assert.ErrorIs(t, err, pipeline.ErrAlreadyRun)
}

func TestCleaner_Clean_FailedRunCannotRestart(t *testing.T) {
	c := pipeline.NewCleaner(pipeline.Options{Input: "in.csv", Output: "out.csv", SurfaceAltitude: "x"}, slog.Default(), newTestMetrics())

	_, err := c.Clean()
	require.Error(t, err)
	assert.Equal(t, pipeline.StateFailed, c.State())

	_, err = c.Clean()
	assert.ErrorIs(t, err, pipeline.ErrAlreadyRun)
}

func TestCleaner_Clean_TimingAndMetrics(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	pipeline.SetClock(clockwork.NewFakeClockAt(start))
	defer pipeline.SetClock(nil)

	dir, input := writeInput(t, sampleInput)
	metrics := newTestMetrics()
	c := pipeline.NewCleaner(pipeline.Options{Input: input, Output: filepath.Join(dir, "out.csv")}, slog.Default(), metrics)

	res, err := c.Clean()

	require.NoError(t, err)
	assert.Equal(t, start, res.StartedAt)
	assert.Equal(t, start, res.FinishedAt)
	assert.Equal(t, time.Duration(0), res.Duration())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Runs.WithLabelValues("completed")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.Runs.WithLabelValues("failed")))
	assert.Equal(t, 7.0, testutil.ToFloat64(metrics.RowsRead))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", pipeline.StateIdle.String())
	assert.Equal(t, "validating_inputs", pipeline.StateValidatingInputs.String())
	assert.Equal(t, "streaming", pipeline.StateStreaming.String())
	assert.Equal(t, "completed", pipeline.StateCompleted.String())
	assert.Equal(t, "failed", pipeline.StateFailed.String())
	assert.Equal(t, "unknown", pipeline.State(42).String())
}
