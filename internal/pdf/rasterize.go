package pdf

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/Fayo2019/Bank-Statement-KYB-agent/internal/model"
)

// Rasterizer converts PDF pages to images. It is an external capability:
// implementations may block, time out, or fail, and callers must treat all
// three as expected.
type Rasterizer interface {
	// Rasterize renders up to maxPages pages as PNGs, in page order.
	Rasterize(ctx context.Context, path string, maxPages int) ([][]byte, error)
}

// PopplerRasterizer shells out to pdftoppm. It is a thin wrapper and carries
// no pipeline logic.
type PopplerRasterizer struct {
	DPI int
}

// NewPopplerRasterizer returns a rasterizer using the poppler CLI tools.
func NewPopplerRasterizer() *PopplerRasterizer {
	return &PopplerRasterizer{DPI: 150}
}

// Rasterize renders the first maxPages pages via pdftoppm.
func (r *PopplerRasterizer) Rasterize(ctx context.Context, path string, maxPages int) ([][]byte, error) {
	if maxPages <= 0 || maxPages > model.MaxPages {
		maxPages = model.MaxPages
	}

	dir, err := os.MkdirTemp("", "kyb-raster-*")
	if err != nil {
		return nil, fmt.Errorf("rasterize: %w", err)
	}
	defer os.RemoveAll(dir)

	prefix := filepath.Join(dir, "page")
	cmd := exec.CommandContext(ctx, "pdftoppm",
		"-png",
		"-r", fmt.Sprint(r.DPI),
		"-f", "1",
		"-l", fmt.Sprint(maxPages),
		path, prefix,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("pdftoppm: %w: %s", err, out)
	}

	matches, err := filepath.Glob(prefix + "-*.png")
	if err != nil || len(matches) == 0 {
		return nil, fmt.Errorf("rasterize: no pages produced")
	}
	sort.Strings(matches) // pdftoppm zero-pads page numbers

	images := make([][]byte, 0, len(matches))
	for _, m := range matches {
		data, err := os.ReadFile(m)
		if err != nil {
			return nil, fmt.Errorf("rasterize: read %s: %w", m, err)
		}
		images = append(images, data)
	}
	return images, nil
}
