package world

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"voxelworld/internal/spatial"
)

const previewAmbientLight = 0.35

var (
	previewBackground = color.NRGBA{R: 10, G: 10, B: 18, A: 255}
	previewFallback   = color.NRGBA{R: 128, G: 128, B: 128, A: 255}
)

type previewColumn struct {
	set   bool
	top   float64
	block BlockID
}

// Preview renders the world from above, one pixel per voxel column. Each
// pixel takes the colour of the highest non-air block in its column, darker
// the lower that block sits. Image x follows world x and image y follows
// world z.
func (w *World) Preview(table *BlockTable) *image.NRGBA {
	w.mu.RLock()
	defer w.mu.RUnlock()

	cfg := w.tree.Config()
	voxel := cfg.MinSize()
	half := cfg.Size / 2
	count := int(math.Ldexp(1, int(cfg.MaxDepth)))

	columns := make([]previewColumn, count*count)
	w.tree.Walk(func(n *spatial.Node[BlockID]) bool {
		if !n.IsLeaf() {
			return true
		}
		id, _ := n.Value()
		if id == Air {
			return false
		}
		box := n.BoundingBox()
		x0, x1 := previewSpan(box.Min[0], box.Max[0], half, voxel)
		z0, z1 := previewSpan(box.Min[2], box.Max[2], half, voxel)
		for iz := z0; iz < z1; iz++ {
			for ix := x0; ix < x1; ix++ {
				c := &columns[iz*count+ix]
				if !c.set || box.Max[1] > c.top {
					*c = previewColumn{set: true, top: box.Max[1], block: id}
				}
			}
		}
		return false
	})

	img := image.NewNRGBA(image.Rect(0, 0, count, count))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: previewBackground}, image.Point{}, draw.Src)
	for i, c := range columns {
		if !c.set {
			continue
		}
		img.SetNRGBA(i%count, i/count, applyLighting(resolveBlockColor(table, c.block), previewShade(c.top, cfg.Size)))
	}
	return img
}

// SavePreview writes img as a PNG file, creating its directory.
func SavePreview(img image.Image, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "create preview directory")
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create preview")
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		return errors.Wrap(err, "encode preview")
	}
	return errors.Wrap(file.Close(), "close preview")
}

// previewShade maps a height in [-size/2, size/2] to a light factor.
func previewShade(top, size float64) float64 {
	return previewAmbientLight + (1-previewAmbientLight)*(top+size/2)/size
}

func previewSpan(lo, hi, half, voxel float64) (int, int) {
	return int(math.Round((lo + half) / voxel)), int(math.Round((hi + half) / voxel))
}

func resolveBlockColor(table *BlockTable, id BlockID) color.NRGBA {
	if table == nil {
		return previewFallback
	}
	block, ok := table.Type(id)
	if !ok {
		return previewFallback
	}
	if col, ok := parseHexColor(block.Color); ok {
		return col
	}
	return previewFallback
}

func parseHexColor(value string) (color.NRGBA, bool) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(value), "#")
	if len(trimmed) != 6 {
		return color.NRGBA{}, false
	}
	var rgb [3]uint8
	for i := range rgb {
		v, err := strconv.ParseUint(trimmed[2*i:2*i+2], 16, 8)
		if err != nil {
			return color.NRGBA{}, false
		}
		rgb[i] = uint8(v)
	}
	return color.NRGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255}, true
}

func applyLighting(base color.NRGBA, factor float64) color.NRGBA {
	factor = math.Max(0, math.Min(1, factor))
	return color.NRGBA{
		R: uint8(math.Round(float64(base.R) * factor)),
		G: uint8(math.Round(float64(base.G) * factor)),
		B: uint8(math.Round(float64(base.B) * factor)),
		A: 255,
	}
}
