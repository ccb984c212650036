package systems

import (
	"testing"

	"github.com/spaghettifunk/quadbench/engine/core"
	"github.com/spaghettifunk/quadbench/engine/renderer/gfx"
	"github.com/spaghettifunk/quadbench/engine/renderer/gfx/gfxtest"
	"github.com/spaghettifunk/quadbench/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidDetails(name string, size uint32) *metadata.TextureDetails {
	td := &metadata.TextureDetails{Name: name, Width: size, Height: size, Format: metadata.TextureFormatRGBA8}
	for w := size; ; w /= 2 {
		td.Mips = append(td.Mips, make([]byte, w*w*4))
		if w == 1 {
			break
		}
	}
	return td
}

func newTestTextureSystem(t *testing.T, ctx *gfxtest.Context, slices uint32) *TextureSystem {
	t.Helper()
	ts, err := NewTextureSystem(&TextureSystemConfig{ContainerSlices: slices})
	require.NoError(t, err)
	require.NoError(t, ts.Initialize(ctx))
	return ts
}

func TestNewTextureSystemRejectsZeroSlices(t *testing.T) {
	_, err := NewTextureSystem(&TextureSystemConfig{})
	assert.Error(t, err)
}

func TestTextureSystemInitialize(t *testing.T) {
	ctx := gfxtest.New()
	ts := newTestTextureSystem(t, ctx, DefaultTextureSystemConfig().ContainerSlices)
	assert.True(t, ts.SupportsBindless())
	assert.True(t, ts.SupportsSparse())

	ctx = gfxtest.New()
	ctx.Integers[gfx.MaxArrayTextureLayers] = 0
	ts, err := NewTextureSystem(DefaultTextureSystemConfig())
	require.NoError(t, err)
	assert.ErrorIs(t, ts.Initialize(ctx), core.ErrTextureSystemUnsupported)

	ctx = gfxtest.New()
	delete(ctx.Extensions, gfx.ExtBindlessTexture)
	ts = newTestTextureSystem(t, ctx, 4)
	assert.False(t, ts.SupportsBindless())
}

func TestTextureSystemClampsSlicesToDriverLimit(t *testing.T) {
	ctx := gfxtest.New()
	ctx.Integers[gfx.MaxArrayTextureLayers] = 2
	ts := newTestTextureSystem(t, ctx, 16)

	for i := 0; i < 3; i++ {
		_, err := ts.NewTexture2DFromDetails(ctx, solidDetails("t", 4))
		require.NoError(t, err)
	}
	assert.Equal(t, 2, ts.ContainerCount())
}

func TestTexturesShareContainers(t *testing.T) {
	ctx := gfxtest.New()
	ts := newTestTextureSystem(t, ctx, 2)

	a, err := ts.NewTexture2DFromDetails(ctx, solidDetails("a", 8))
	require.NoError(t, err)
	b, err := ts.NewTexture2DFromDetails(ctx, solidDetails("b", 8))
	require.NoError(t, err)
	c, err := ts.NewTexture2DFromDetails(ctx, solidDetails("c", 8))
	require.NoError(t, err)
	d, err := ts.NewTexture2DFromDetails(ctx, solidDetails("d", 4))
	require.NoError(t, err)

	assert.Equal(t, a.Address().ContainerHandle, b.Address().ContainerHandle)
	assert.NotEqual(t, a.Address().ContainerHandle, c.Address().ContainerHandle)
	assert.NotEqual(t, a.Address().ContainerHandle, d.Address().ContainerHandle)
	assert.Equal(t, float32(0), a.Address().Page)
	assert.Equal(t, float32(1), b.Address().Page)
	assert.Equal(t, float32(0), c.Address().Page)
	assert.Equal(t, "b", b.Name())

	assert.Equal(t, 3, ts.ContainerCount())
	assert.Equal(t, 3, ctx.LiveTextures())
	assert.Equal(t, 3, ctx.ResidentHandles())
}

func TestTextureUploadCommitsSparsePages(t *testing.T) {
	ctx := gfxtest.New()
	ts := newTestTextureSystem(t, ctx, 4)

	details := solidDetails("a", 8)
	tex, err := ts.NewTexture2DFromDetails(ctx, details)
	require.NoError(t, err)

	id := tex.container.id
	assert.True(t, ctx.SliceCommitted(id, 0))
	assert.False(t, ctx.SliceCommitted(id, 1))
	assert.Equal(t, len(details.Mips), ctx.SliceUploads(id, 0))

	tex.Release(ctx)
	assert.Equal(t, 0, ts.ContainerCount())
	assert.Equal(t, 0, ctx.LiveTextures())
	assert.Equal(t, 0, ctx.ResidentHandles())
}

func TestTextureWithoutSparse(t *testing.T) {
	ctx := gfxtest.New()
	delete(ctx.Extensions, gfx.ExtSparseTexture)
	ts := newTestTextureSystem(t, ctx, 4)

	tex, err := ts.NewTexture2DFromDetails(ctx, solidDetails("a", 4))
	require.NoError(t, err)
	assert.NotContains(t, ctx.CallNames(), "TexPageCommitment")
	assert.Equal(t, 3, ctx.SliceUploads(tex.container.id, 0))
}

func TestReleasedSliceIsReused(t *testing.T) {
	ctx := gfxtest.New()
	ts := newTestTextureSystem(t, ctx, 4)

	a, err := ts.NewTexture2DFromDetails(ctx, solidDetails("a", 4))
	require.NoError(t, err)
	b, err := ts.NewTexture2DFromDetails(ctx, solidDetails("b", 4))
	require.NoError(t, err)

	a.Release(ctx)
	a.Release(ctx)
	assert.False(t, ctx.SliceCommitted(b.container.id, 0))

	c, err := ts.NewTexture2DFromDetails(ctx, solidDetails("c", 4))
	require.NoError(t, err)
	assert.Equal(t, float32(0), c.Address().Page)
	assert.Equal(t, 1, ts.ContainerCount())
}

func TestTextureRejectsBadDetails(t *testing.T) {
	ctx := gfxtest.New()
	ts := newTestTextureSystem(t, ctx, 4)

	details := solidDetails("a", 4)
	details.Mips[1] = details.Mips[1][:3]
	_, err := ts.NewTexture2DFromDetails(ctx, details)
	assert.Error(t, err)
	assert.Equal(t, 0, ctx.LiveTextures())

	uninitialized, err := NewTextureSystem(DefaultTextureSystemConfig())
	require.NoError(t, err)
	_, err = uninitialized.NewTexture2DFromDetails(ctx, solidDetails("a", 4))
	assert.Error(t, err)
}

func TestTextureSystemShutdown(t *testing.T) {
	ctx := gfxtest.New()
	ts := newTestTextureSystem(t, ctx, 1)

	a, err := ts.NewTexture2DFromDetails(ctx, solidDetails("a", 4))
	require.NoError(t, err)
	_, err = ts.NewTexture2DFromDetails(ctx, solidDetails("b", 4))
	require.NoError(t, err)

	require.NoError(t, ts.Shutdown(ctx))
	assert.Equal(t, 0, ts.ContainerCount())
	assert.Equal(t, 0, ctx.LiveTextures())
	assert.Equal(t, 0, ctx.ResidentHandles())

	ctx.ResetCalls()
	a.Release(ctx)
	assert.Empty(t, ctx.Calls)
}

func TestTextureFallsBackWhenPagesDoNotFit(t *testing.T) {
	ctx := gfxtest.New()
	ctx.Internalformats[gfx.VirtualPageSizeXARB] = 128
	ctx.Internalformats[gfx.VirtualPageSizeYARB] = 128
	ts := newTestTextureSystem(t, ctx, 4)
	require.True(t, ts.SupportsSparse())

	tex, err := ts.NewTexture2DFromDetails(ctx, solidDetails("a", 16))
	require.NoError(t, err)

	id := tex.container.id
	assert.False(t, ctx.IsSparse(id))
	assert.NotContains(t, ctx.CallNames(), "TexPageCommitment")
	assert.Equal(t, 5, ctx.SliceUploads(id, 0))
	assert.Equal(t, gfx.NoError, ctx.GetError())

	// A format without any page size is never sparse either.
	ctx = gfxtest.New()
	ctx.Internalformats[gfx.NumVirtualPageSizesARB] = 0
	ts = newTestTextureSystem(t, ctx, 4)
	tex, err = ts.NewTexture2DFromDetails(ctx, solidDetails("a", 8))
	require.NoError(t, err)
	assert.False(t, ctx.IsSparse(tex.container.id))
	assert.Equal(t, gfx.NoError, ctx.GetError())
}

func TestMipTailIsSharedBySlices(t *testing.T) {
	ctx := gfxtest.New()
	ts := newTestTextureSystem(t, ctx, 4)

	// 4x4 pages: levels 8 and 4 are sparse, 2 and 1 are the tail.
	a, err := ts.NewTexture2DFromDetails(ctx, solidDetails("a", 8))
	require.NoError(t, err)
	b, err := ts.NewTexture2DFromDetails(ctx, solidDetails("b", 8))
	require.NoError(t, err)
	require.Equal(t, a.container, b.container)

	id := a.container.id
	require.True(t, ctx.IsSparse(id))
	assert.Equal(t, int32(2), ctx.SparseLevels(id))
	for slice := int32(0); slice < 4; slice++ {
		assert.True(t, ctx.LevelCommitted(id, 2, slice))
		assert.True(t, ctx.LevelCommitted(id, 3, slice))
	}
	assert.False(t, ctx.LevelCommitted(id, 1, 2))

	ctx.ResetCalls()
	a.Release(ctx)
	for _, call := range ctx.Calls {
		if call.Name == "TexPageCommitment" {
			assert.Less(t, call.Args[1].(int32), int32(2), "tail decommitted: %s", call)
		}
	}
	assert.False(t, ctx.LevelCommitted(id, 0, 0))
	assert.False(t, ctx.LevelCommitted(id, 1, 0))
	assert.True(t, ctx.LevelCommitted(id, 0, 1))
	assert.True(t, ctx.LevelCommitted(id, 2, 1))
	assert.True(t, ctx.LevelCommitted(id, 3, 1))
	assert.Equal(t, gfx.NoError, ctx.GetError())
}
