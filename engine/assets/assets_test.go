package assets

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spaghettifunk/quadbench/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 16), G: uint8(y * 16), B: 200, A: 255})
		}
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func newTestManager(t *testing.T) (*AssetManager, string) {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "shaders", "quad_vs.glsl"), []byte("#version 450\n"))
	writeFile(t, filepath.Join(dir, "shaders", "notes.txt"), []byte("ignored"))
	writePNG(t, filepath.Join(dir, "textures", "b.png"), 12, 6)
	writePNG(t, filepath.Join(dir, "textures", "a.png"), 4, 4)

	am, err := NewAssetManager()
	require.NoError(t, err)
	require.NoError(t, am.Initialize(dir))
	t.Cleanup(func() { am.Close() })
	return am, dir
}

func TestAssetManagerIndexesKnownTypes(t *testing.T) {
	am, _ := newTestManager(t)
	assert.Equal(t, 3, am.Count())
	assert.Equal(t, []string{"a.png", "b.png"}, am.Images())
}

func TestShaderSource(t *testing.T) {
	am, _ := newTestManager(t)

	src, err := am.ShaderSource("quad_vs.glsl")
	require.NoError(t, err)
	assert.Equal(t, "#version 450\n", src)

	_, err = am.ShaderSource("missing_fs.glsl")
	assert.ErrorIs(t, err, core.ErrAssetNotFound)
}

func TestLoadImageScalesAndBuildsMips(t *testing.T) {
	am, _ := newTestManager(t)

	details, err := am.LoadImage("b.png", 8)
	require.NoError(t, err)
	assert.Equal(t, "b", details.Name)
	assert.Equal(t, uint32(8), details.Width)
	assert.Equal(t, uint32(8), details.Height)
	// 8, 4, 2, 1
	assert.Equal(t, uint32(4), details.MipCount())
	assert.NoError(t, details.Validate())
}

func TestInitializeMissingDirectory(t *testing.T) {
	am, err := NewAssetManager()
	require.NoError(t, err)
	defer am.Close()
	assert.ErrorIs(t, am.Initialize(filepath.Join(t.TempDir(), "nope")), core.ErrAssetNotFound)
}

func TestWatcherPicksUpNewFiles(t *testing.T) {
	am, dir := newTestManager(t)

	writeFile(t, filepath.Join(dir, "shaders", "quad_fs.glsl"), []byte("#version 450\nout vec4 c;\n"))
	assert.Eventually(t, func() bool {
		_, err := am.ShaderSource("quad_fs.glsl")
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.Remove(filepath.Join(dir, "textures", "a.png")))
	assert.Eventually(t, func() bool {
		return len(am.Images()) == 1
	}, 2*time.Second, 10*time.Millisecond)
}
