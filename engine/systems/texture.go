package systems

import (
	"fmt"

	"github.com/spaghettifunk/quadbench/engine/core"
	"github.com/spaghettifunk/quadbench/engine/math"
	"github.com/spaghettifunk/quadbench/engine/renderer/gfx"
	"github.com/spaghettifunk/quadbench/engine/renderer/metadata"
)

type TextureSystemConfig struct {
	/** @brief The number of slices allocated per texture array container. */
	ContainerSlices uint32
}

func DefaultTextureSystemConfig() *TextureSystemConfig {
	return &TextureSystemConfig{
		ContainerSlices: 16,
	}
}

// Textures of identical shape share a container.
type containerKey struct {
	width  uint32
	height uint32
	levels uint32
	format metadata.TextureFormat
}

// textureContainer is one GL_TEXTURE_2D_ARRAY whose slices are handed out
// to individual textures.
type textureContainer struct {
	key    containerKey
	id     uint32
	handle uint64
	sparse bool
	// levels below sparseLevels are committed per slice, the mip tail
	// above them is committed for every slice when the container is made
	sparseLevels int32
	// free slice indices, popped from the end
	free      []int32
	used      int
	destroyed bool
}

/**
 * @brief Allocates GPU-resident 2D textures as slices of bindless texture
 * arrays. With ARB_sparse_texture only the pages of slices in use are
 * committed.
 */
type TextureSystem struct {
	Config *TextureSystemConfig

	initialized bool
	bindless    bool
	sparse      bool
	slices      uint32
	containers  map[containerKey][]*textureContainer
}

func NewTextureSystem(config *TextureSystemConfig) (*TextureSystem, error) {
	if config.ContainerSlices == 0 {
		err := fmt.Errorf("func NewTextureSystem - config.ContainerSlices must be > 0")
		core.LogError(err.Error())
		return nil, err
	}
	return &TextureSystem{
		Config:     config,
		containers: make(map[containerKey][]*textureContainer),
	}, nil
}

// Initialize queries driver support. It fails when the driver offers no
// texture array layers at all.
func (ts *TextureSystem) Initialize(ctx gfx.Context) error {
	maxLayers := ctx.GetInteger(gfx.MaxArrayTextureLayers)
	if maxLayers <= 0 {
		core.LogError("texture system: driver reports %d array texture layers", maxLayers)
		return core.ErrTextureSystemUnsupported
	}
	ts.slices = math.Clamp(ts.Config.ContainerSlices, 1, uint32(maxLayers))
	if ts.slices != ts.Config.ContainerSlices {
		core.LogWarn("texture system: clamping container slices from %d to %d", ts.Config.ContainerSlices, ts.slices)
	}

	ts.bindless = ctx.HasExtension(gfx.ExtBindlessTexture)
	ts.sparse = ctx.HasExtension(gfx.ExtSparseTexture)
	ts.initialized = true

	core.LogDebug("texture system: bindless=%t sparse=%t slices/container=%d", ts.bindless, ts.sparse, ts.slices)
	return nil
}

func (ts *TextureSystem) SupportsBindless() bool {
	return ts.bindless
}

func (ts *TextureSystem) SupportsSparse() bool {
	return ts.sparse
}

// ContainerCount returns the number of texture arrays currently allocated.
func (ts *TextureSystem) ContainerCount() int {
	n := 0
	for _, list := range ts.containers {
		n += len(list)
	}
	return n
}

// NewTexture2DFromDetails places details into a free slice of a matching
// container, creating the container if needed, and uploads every mip level.
func (ts *TextureSystem) NewTexture2DFromDetails(ctx gfx.Context, details *metadata.TextureDetails) (*Texture, error) {
	if !ts.initialized {
		return nil, fmt.Errorf("texture system: not initialized")
	}
	if err := details.Validate(); err != nil {
		return nil, err
	}

	key := containerKey{
		width:  details.Width,
		height: details.Height,
		levels: details.MipCount(),
		format: details.Format,
	}

	container := ts.findFreeContainer(key)
	if container == nil {
		container = ts.newContainer(ctx, key)
		ts.containers[key] = append(ts.containers[key], container)
	}

	slice := container.free[len(container.free)-1]
	container.free = container.free[:len(container.free)-1]
	container.used++

	ctx.BindTexture(gfx.Texture2DArray, container.id)
	w, h := int32(key.width), int32(key.height)
	for level, pixels := range details.Mips {
		if container.sparse && int32(level) < container.sparseLevels {
			ctx.TexPageCommitment(gfx.Texture2DArray, int32(level), 0, 0, slice, w, h, 1, true)
		}
		ctx.TexSubImage3D(gfx.Texture2DArray, int32(level), 0, 0, slice, w, h, 1, gfx.RGBA, gfx.UnsignedByte, pixels)
		w, h = max(w/2, 1), max(h/2, 1)
	}
	ctx.BindTexture(gfx.Texture2DArray, 0)

	return &Texture{
		name:      details.Name,
		system:    ts,
		container: container,
		slice:     slice,
	}, nil
}

func (ts *TextureSystem) findFreeContainer(key containerKey) *textureContainer {
	for _, c := range ts.containers[key] {
		if len(c.free) > 0 {
			return c
		}
	}
	return nil
}

func (ts *TextureSystem) newContainer(ctx gfx.Context, key containerKey) *textureContainer {
	c := &textureContainer{
		key:    key,
		id:     ctx.GenTexture(),
		sparse: ts.sparse && ts.fitsSparsePages(ctx, key),
		free:   make([]int32, ts.slices),
	}
	// hand out slice 0 first
	for i := range c.free {
		c.free[i] = int32(len(c.free) - 1 - i)
	}

	minFilter := gfx.Linear
	if key.levels > 1 {
		minFilter = gfx.LinearMipmapLinear
	}

	ctx.BindTexture(gfx.Texture2DArray, c.id)
	if c.sparse {
		ctx.TexParameteri(gfx.Texture2DArray, gfx.TextureSparseARB, 1)
	}
	ctx.TexParameteri(gfx.Texture2DArray, gfx.TextureMinFilter, int32(minFilter))
	ctx.TexParameteri(gfx.Texture2DArray, gfx.TextureMagFilter, int32(gfx.Linear))
	ctx.TexParameteri(gfx.Texture2DArray, gfx.TextureWrapS, int32(gfx.Repeat))
	ctx.TexParameteri(gfx.Texture2DArray, gfx.TextureWrapT, int32(gfx.Repeat))
	ctx.TexStorage3D(gfx.Texture2DArray, int32(key.levels), gfx.RGBA8, int32(key.width), int32(key.height), int32(ts.slices))
	if c.sparse {
		c.sparseLevels = ctx.GetTexParameteri(gfx.Texture2DArray, gfx.NumSparseLevelsARB)
		// The tail may be shared by all slices, so it stays committed for
		// the lifetime of the container.
		for level := c.sparseLevels; level < int32(key.levels); level++ {
			w, h := mipSize(key.width, level), mipSize(key.height, level)
			ctx.TexPageCommitment(gfx.Texture2DArray, level, 0, 0, 0, w, h, int32(ts.slices), true)
		}
	}

	if ts.bindless {
		c.handle = ctx.GetTextureHandle(c.id)
		ctx.MakeTextureHandleResident(c.handle)
	}
	ctx.BindTexture(gfx.Texture2DArray, 0)

	core.LogDebug("texture system: new %dx%d %s container (%d levels, %d slices, sparse=%t, sparse levels=%d)",
		key.width, key.height, key.format, key.levels, ts.slices, c.sparse, c.sparseLevels)
	return c
}

// fitsSparsePages reports whether a container of this shape can be sparse:
// its base level must be a whole number of virtual pages.
func (ts *TextureSystem) fitsSparsePages(ctx gfx.Context, key containerKey) bool {
	if ctx.GetInternalformativ(gfx.Texture2DArray, gfx.RGBA8, gfx.NumVirtualPageSizesARB) <= 0 {
		core.LogDebug("texture system: no sparse page sizes for %s, allocating fully", key.format)
		return false
	}
	pageX := ctx.GetInternalformativ(gfx.Texture2DArray, gfx.RGBA8, gfx.VirtualPageSizeXARB)
	pageY := ctx.GetInternalformativ(gfx.Texture2DArray, gfx.RGBA8, gfx.VirtualPageSizeYARB)
	if pageX <= 0 || pageY <= 0 || int32(key.width)%pageX != 0 || int32(key.height)%pageY != 0 {
		core.LogDebug("texture system: %dx%d is not a multiple of the %dx%d sparse page, allocating fully",
			key.width, key.height, pageX, pageY)
		return false
	}
	return true
}

func mipSize(base uint32, level int32) int32 {
	return max(int32(base>>uint32(level)), 1)
}

func (ts *TextureSystem) destroyContainer(ctx gfx.Context, c *textureContainer) {
	if c.handle != 0 {
		ctx.MakeTextureHandleNonResident(c.handle)
	}
	ctx.DeleteTexture(c.id)
	c.destroyed = true

	list := ts.containers[c.key]
	for i, other := range list {
		if other == c {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(ts.containers, c.key)
	} else {
		ts.containers[c.key] = list
	}
}

func (ts *TextureSystem) release(ctx gfx.Context, t *Texture) {
	c := t.container
	if c.sparse {
		ctx.BindTexture(gfx.Texture2DArray, c.id)
		for level := int32(0); level < c.sparseLevels; level++ {
			w, h := mipSize(c.key.width, level), mipSize(c.key.height, level)
			ctx.TexPageCommitment(gfx.Texture2DArray, level, 0, 0, t.slice, w, h, 1, false)
		}
		ctx.BindTexture(gfx.Texture2DArray, 0)
	}
	c.free = append(c.free, t.slice)
	c.used--
	if c.used == 0 {
		ts.destroyContainer(ctx, c)
	}
}

// Shutdown destroys every container, including those still referenced by
// unreleased textures.
func (ts *TextureSystem) Shutdown(ctx gfx.Context) error {
	for _, list := range ts.containers {
		for _, c := range append([]*textureContainer(nil), list...) {
			if c.used > 0 {
				core.LogWarn("texture system: destroying container %d with %d textures still in use", c.id, c.used)
			}
			ts.destroyContainer(ctx, c)
		}
	}
	ts.initialized = false
	return nil
}

/**
 * @brief A texture living in one slice of a container. It is owned by
 * whoever created it and must be released exactly once through Release.
 */
type Texture struct {
	name      string
	system    *TextureSystem
	container *textureContainer
	slice     int32
	released  bool
}

func (t *Texture) Name() string {
	return t.name
}

// Address returns the value the shader uses to sample this texture.
func (t *Texture) Address() metadata.TexAddress {
	return metadata.TexAddress{
		ContainerHandle: t.container.handle,
		Page:            float32(t.slice),
	}
}

// Release gives the slice back to its container. Further calls do nothing.
func (t *Texture) Release(ctx gfx.Context) {
	if t.released {
		return
	}
	t.released = true
	if !t.container.destroyed {
		t.system.release(ctx, t)
	}
}
