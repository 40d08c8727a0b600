package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/couchcryptid/deeper-cleaner/internal/pipeline"
	"github.com/spf13/cobra"
)

func newCleanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Drop malformed GPS rows from a sensor CSV and derive altitude above sea level",
		Long: `Reads a headerless CSV of latitude, longitude, depth, timestamp, temperature
rows, drops rows that are short, have non-numeric coordinates or an unset (0.0)
GPS fix, and writes the rest with a header. Unless --basic is given, each row
gains an altitude_asl column computed as surface altitude minus depth; rows with
a non-numeric depth are dropped as well.`,
		Args: cobra.NoArgs,
		RunE: runClean,
	}

	f := cmd.Flags()
	f.String("input", "", "input CSV path")
	f.String("output", "", "output CSV path (created or overwritten)")
	f.String("surface-altitude", "", "surface altitude in meters above sea level; '.' or ',' decimal separator; blank means 0")
	f.Bool("basic", false, "write the five original columns without altitude_asl")
	f.Bool("crlf", false, "end output lines with CRLF")

	return cmd
}

func runClean(cmd *cobra.Command, _ []string) error {
	e, err := setup(cmd, map[string]string{
		"input":            "input",
		"output":           "output",
		"surface_altitude": "surface-altitude",
		"basic":            "basic",
		"crlf":             "crlf",
	})
	if err != nil {
		return err
	}
	if err := e.cfg.ValidateClean(); err != nil {
		return err
	}

	cleaner := pipeline.NewCleaner(pipeline.Options{
		Input:           e.cfg.Clean.Input,
		Output:          e.cfg.Clean.Output,
		SurfaceAltitude: e.cfg.Clean.SurfaceAltitude,
		Basic:           e.cfg.Clean.Basic,
		CRLF:            e.cfg.Clean.CRLF,
	}, e.logger, e.metrics)

	res, err := cleaner.Clean()
	e.writeMetrics()
	if err != nil {
		return err
	}

	return writeCleanReport(cmd.OutOrStdout(), e.cfg.Report, res)
}

func writeCleanReport(w io.Writer, format string, res pipeline.Result) error {
	if strings.EqualFold(format, "json") {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	msg := "Cleaned data saved to %s"
	if res.Mode == pipeline.ModeEnrich {
		msg = "Cleaned data with ASL altitude saved to %s"
	}
	_, err := fmt.Fprintf(w, msg+" (%d rows written, %d skipped)\n", res.Output, res.RowsWritten, res.RowsRejected())
	return err
}
