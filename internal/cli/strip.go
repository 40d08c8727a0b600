package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/couchcryptid/deeper-cleaner/internal/metastrip"
	"github.com/spf13/cobra"
)

func newStripCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "strip-metadata",
		Short: "Copy photos to a new directory with EXIF and other metadata removed",
		Args:  cobra.NoArgs,
		RunE:  runStrip,
	}

	f := cmd.Flags()
	f.String("input-dir", "", "directory with the original photos")
	f.String("output-dir", "", "directory for the cleaned copies (created if missing)")
	f.Int("jpeg-quality", metastrip.DefaultJPEGQuality, "JPEG re-encode quality, 1-100")

	return cmd
}

func runStrip(cmd *cobra.Command, _ []string) error {
	e, err := setup(cmd, map[string]string{
		"input_dir":    "input-dir",
		"output_dir":   "output-dir",
		"jpeg_quality": "jpeg-quality",
	})
	if err != nil {
		return err
	}
	if err := e.cfg.ValidateStrip(); err != nil {
		return err
	}

	stripper := metastrip.NewStripper(e.cfg.Strip.JPEGQuality, e.logger, e.metrics)
	res, err := stripper.Strip(e.cfg.Strip.InputDir, e.cfg.Strip.OutputDir)
	e.writeMetrics()
	if err != nil {
		return err
	}

	return writeStripReport(cmd.OutOrStdout(), e.cfg.Report, res)
}

func writeStripReport(w io.Writer, format string, res metastrip.Result) error {
	if strings.EqualFold(format, "json") {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	_, err := fmt.Fprintf(w, "Metadata removed from %d images\n", res.Processed)
	return err
}
