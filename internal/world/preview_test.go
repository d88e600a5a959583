package world

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"voxelworld/internal/spatial"
)

func TestPreviewColoursHighestBlock(t *testing.T) {
	w, table := newTestWorld(t)
	grass := blockID(t, table, "grass")
	dirt := blockID(t, table, "dirt")

	empty := w.Preview(table)
	require.Equal(t, 16, empty.Bounds().Dx())
	require.Equal(t, 16, empty.Bounds().Dy())
	require.Equal(t, previewBackground, empty.NRGBAAt(3, 3))

	require.NoError(t, w.SetRegion(lowerHalf(), dirt))
	require.NoError(t, w.SetBlock(spatial.Point3(0.5, 0.5, -7.5), grass))

	img := w.Preview(table)
	dirtColour := applyLighting(resolveBlockColor(table, dirt), previewShade(0, 16))
	grassColour := applyLighting(resolveBlockColor(table, grass), previewShade(1, 16))

	require.Equal(t, grassColour, img.NRGBAAt(8, 0))
	require.Equal(t, dirtColour, img.NRGBAAt(0, 0))
	require.Equal(t, dirtColour, img.NRGBAAt(15, 15))
	require.Equal(t, dirtColour, img.NRGBAAt(8, 1))
}

func TestResolveBlockColor(t *testing.T) {
	_, table := newTestWorld(t)

	col := resolveBlockColor(table, blockID(t, table, "gold"))
	require.Equal(t, uint8(0xFF), col.R)
	require.Equal(t, uint8(0xD7), col.G)
	require.Equal(t, uint8(0x00), col.B)

	require.Equal(t, previewFallback, resolveBlockColor(table, BlockID(table.Len()+1)))
	require.Equal(t, previewFallback, resolveBlockColor(nil, 1))

	_, ok := parseHexColor("#12345")
	require.False(t, ok)
	_, ok = parseHexColor("#GG0000")
	require.False(t, ok)
}

func TestSavePreviewWritesPNG(t *testing.T) {
	w, table := newTestWorld(t)
	require.NoError(t, w.SetRegion(lowerHalf(), blockID(t, table, "dirt")))

	path := filepath.Join(t.TempDir(), "previews", "world.png")
	require.NoError(t, SavePreview(w.Preview(table), path))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	img, err := png.Decode(file)
	require.NoError(t, err)
	require.Equal(t, 16, img.Bounds().Dx())
}
