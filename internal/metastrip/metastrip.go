// Package metastrip removes embedded metadata (EXIF, XMP, ICC profiles, PNG
// text chunks) from photos by decoding each image and encoding the pixels
// again. The encoders write image data only, so nothing from the source
// container survives.
package metastrip

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/couchcryptid/deeper-cleaner/internal/observability"
)

// ErrNoImages is returned when the source directory holds no supported images.
var ErrNoImages = errors.New("no images found in source directory")

// DefaultJPEGQuality is the re-encode quality used when none is configured.
const DefaultJPEGQuality = 100

type format int

const (
	formatUnknown format = iota
	formatJPEG
	formatPNG
)

func formatOf(name string) format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		return formatJPEG
	case ".png":
		return formatPNG
	default:
		return formatUnknown
	}
}

// Result reports what a stripping run did.
type Result struct {
	Processed int      `json:"processed"`
	Files     []string `json:"files"`
}

// Stripper re-encodes images from one directory into another.
type Stripper struct {
	jpegQuality int
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// NewStripper creates a Stripper. A quality outside 1-100 falls back to DefaultJPEGQuality.
func NewStripper(jpegQuality int, logger *slog.Logger, metrics *observability.Metrics) *Stripper {
	if jpegQuality < 1 || jpegQuality > 100 {
		jpegQuality = DefaultJPEGQuality
	}
	return &Stripper{jpegQuality: jpegQuality, logger: logger, metrics: metrics}
}

// Strip processes every .jpg, .jpeg and .png file directly inside srcDir
// (case-insensitive, name order) and writes a clean copy with the same name
// into dstDir, creating it if needed. The first failure stops the run; the
// returned Result still counts the images finished before it.
func (s *Stripper) Strip(srcDir, dstDir string) (Result, error) {
	var res Result

	names, err := listImages(srcDir)
	if err != nil {
		return res, err
	}
	if len(names) == 0 {
		return res, fmt.Errorf("%w: %s", ErrNoImages, srcDir)
	}

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return res, fmt.Errorf("create destination: %w", err)
	}

	for _, name := range names {
		if err := s.stripFile(filepath.Join(srcDir, name), filepath.Join(dstDir, name)); err != nil {
			s.logger.Error("strip metadata failed", "file", name, "error", err, "processed", res.Processed)
			return res, fmt.Errorf("strip %s: %w", name, err)
		}
		res.Processed++
		res.Files = append(res.Files, name)
		s.metrics.ImagesProcessed.Inc()
		s.logger.Debug("metadata stripped", "file", name)
	}

	s.logger.Info("metadata stripping completed", "processed", res.Processed, "source", srcDir, "destination", dstDir)
	return res, nil
}

func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read source directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || formatOf(e.Name()) == formatUnknown {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (s *Stripper) stripFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer in.Close()

	img, _, err := image.Decode(in)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}

	if err := s.encode(out, img, formatOf(dst)); err != nil {
		out.Close()
		return fmt.Errorf("encode: %w", err)
	}
	return out.Close()
}

func (s *Stripper) encode(w io.Writer, img image.Image, f format) error {
	switch f {
	case formatJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: s.jpegQuality})
	case formatPNG:
		return png.Encode(w, img)
	default:
		return fmt.Errorf("unsupported format")
	}
}
