package solutions

import (
	"errors"
	"image/color"
	"testing"

	"github.com/spaghettifunk/quadbench/engine/core"
	"github.com/spaghettifunk/quadbench/engine/math"
	"github.com/spaghettifunk/quadbench/engine/renderer/metadata"
	"github.com/spaghettifunk/quadbench/engine/systems"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeImages struct {
	names  []string
	loaded []string
}

func (f *fakeImages) Images() []string { return f.names }

func (f *fakeImages) LoadImage(name string, size uint32) (*metadata.TextureDetails, error) {
	f.loaded = append(f.loaded, name)
	return Checkerboard(name, size, color.RGBA{A: 255}, color.RGBA{R: 255, A: 255}), nil
}

func testProblemConfig() *TexturedQuadsProblemConfig {
	return &TexturedQuadsProblemConfig{GridWidth: 3, GridHeight: 2, TextureCount: 4, TextureSize: 8, Seed: 7}
}

func TestNewTexturedQuadsProblem(t *testing.T) {
	p, err := NewTexturedQuadsProblem(testProblemConfig(), nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 6, p.ObjectCount())
	assert.Len(t, p.Vertices(), 4)
	assert.Equal(t, []metadata.Index{0, 1, 2, 0, 2, 3}, p.Indices())
	require.Len(t, p.Textures(), 4)
	for _, tex := range p.Textures() {
		assert.NoError(t, tex.Validate())
		assert.Equal(t, uint32(4), tex.MipCount())
	}

	xforms := p.Update(0)
	require.Len(t, xforms, 6)
	// Grid is centred on the origin.
	first, last := xforms[0].Data, xforms[5].Data
	assert.InDelta(t, -2.0, first[12], 1e-5)
	assert.InDelta(t, -1.0, first[13], 1e-5)
	assert.InDelta(t, 2.0, last[12], 1e-5)
	assert.InDelta(t, 1.0, last[13], 1e-5)
}

func TestTexturedQuadsProblemRejectsEmptyConfig(t *testing.T) {
	cfg := testProblemConfig()
	cfg.TextureCount = 0
	_, err := NewTexturedQuadsProblem(cfg, nil, nil)
	assert.ErrorIs(t, err, core.ErrInvalidConfig)
}

func TestTexturedQuadsProblemUsesImagesFirst(t *testing.T) {
	images := &fakeImages{names: []string{"a.png", "b.png", "c.png", "d.png", "e.png"}}
	cfg := testProblemConfig()
	cfg.TextureCount = 3
	p, err := NewTexturedQuadsProblem(cfg, images, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png", "b.png", "c.png"}, images.loaded)

	images = &fakeImages{names: []string{"a.png"}}
	p, err = NewTexturedQuadsProblem(testProblemConfig(), images, nil)
	require.NoError(t, err)
	assert.Equal(t, "a.png", p.Textures()[0].Name)
	assert.Equal(t, "checker_001", p.Textures()[1].Name)
}

func TestTexturedQuadsProblemIsDeterministic(t *testing.T) {
	a, err := NewTexturedQuadsProblem(testProblemConfig(), nil, nil)
	require.NoError(t, err)
	b, err := NewTexturedQuadsProblem(testProblemConfig(), nil, nil)
	require.NoError(t, err)

	assert.Equal(t, a.Textures(), b.Textures())
	xa := append([]math.Mat4(nil), a.Update(0.5)...)
	xb := b.Update(0.5)
	assert.Equal(t, xa, xb)

	// Spinning keeps each quad in place.
	assert.InDelta(t, xa[0].Data[12], -2.0, 1e-5)
	assert.False(t, xa[0].Compare(math.NewMat4Translation(math.NewVec3(-2, -1, 0)), 1e-6))
}

func TestTexturedQuadsProblemOnJobs(t *testing.T) {
	jobs, err := systems.NewJobSystem(3, 1)
	require.NoError(t, err)
	defer jobs.Shutdown()

	cfg := testProblemConfig()
	cfg.TextureCount = 9
	inline, err := NewTexturedQuadsProblem(cfg, &fakeImages{names: []string{"a.png", "b.png"}}, nil)
	require.NoError(t, err)
	pooled, err := NewTexturedQuadsProblem(cfg, &fakeImages{names: []string{"a.png", "b.png"}}, jobs)
	require.NoError(t, err)
	assert.Equal(t, inline.Textures(), pooled.Textures())

	_, err = NewTexturedQuadsProblem(cfg, failingImages{}, jobs)
	assert.Error(t, err)
}

type failingImages struct{}

func (failingImages) Images() []string { return []string{"broken.png"} }

func (failingImages) LoadImage(name string, size uint32) (*metadata.TextureDetails, error) {
	return nil, errors.New("corrupt image")
}
