// Package gfxtest provides a recording gfx.Context for tests. It keeps enough
// state (live objects, bindings, storage contents) to verify what a renderer
// did without a GPU.
package gfxtest

import (
	"fmt"
	"strings"

	"github.com/spaghettifunk/quadbench/engine/renderer/gfx"
)

// Call is one recorded entry point invocation.
type Call struct {
	Name string
	Args []any
}

func (c Call) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = fmt.Sprint(a)
	}
	return fmt.Sprintf("%s(%s)", c.Name, strings.Join(args, ", "))
}

// Draw captures a DrawElements call along with the DrawID-style integer
// uniform values that were current when it was issued.
type Draw struct {
	Program  uint32
	Count    int32
	Uniforms map[int32]int32
}

type texture struct {
	target  uint32
	levels  int32
	width   int32
	height  int32
	depth   int32
	sparse  bool
	handle  uint64
	// committed {level, slice} pairs
	commits map[[2]int32]bool
	// slice -> upload count per level
	uploads map[int32]int
}

// sparseLevels counts the leading mip levels whose size is a whole number of
// pages. The remaining levels form the mip tail.
func (t *texture) sparseLevels(pageX, pageY int32) int32 {
	if pageX <= 0 || pageY <= 0 {
		return 0
	}
	n := int32(0)
	w, h := t.width, t.height
	for n < t.levels && w%pageX == 0 && h%pageY == 0 {
		n++
		w, h = w/2, h/2
		if w == 0 || h == 0 {
			break
		}
	}
	return n
}

type program struct {
	shaders  []uint32
	linked   bool
	uniforms map[string]int32
}

// Context is a fake gfx.Context. The exported fields configure driver
// capabilities and failure modes; everything else is observed through methods.
type Context struct {
	Extensions map[string]bool
	// FailCompile makes every shader whose source contains the string fail.
	FailCompile string
	FailLink    bool
	// MissingUniforms are reported at location -1.
	MissingUniforms []string
	// PendingError is returned (once) by the next GetError.
	PendingError uint32
	// Integers answers GetInteger queries.
	Integers map[uint32]int32
	// Internalformats answers GetInternalformativ queries for every format.
	Internalformats map[uint32]int32

	Calls []Call
	Draws []Draw

	next      uint32
	buffers   map[uint32][]byte
	vaos      map[uint32]bool
	shaders   map[uint32]string
	programs  map[uint32]*program
	textures  map[uint32]*texture
	handles   map[uint64]uint32
	resident  map[uint64]bool
	bound     map[uint32]uint32
	bases     map[uint32]map[uint32]uint32
	enabled   map[uint32]bool
	attribs   map[uint32]bool
	current   uint32
	uniforms  map[uint32]map[int32]int32
	matrices  map[uint32]map[int32][16]float32
	cullFace  uint32
	frontFace uint32
	depthMask bool
	colorMask [4]bool
}

// New returns a context that supports bindless and sparse textures.
func New() *Context {
	return &Context{
		Extensions: map[string]bool{
			gfx.ExtBindlessTexture: true,
			gfx.ExtSparseTexture:   true,
		},
		Integers: map[uint32]int32{
			gfx.MaxArrayTextureLayers: 2048,
		},
		Internalformats: map[uint32]int32{
			gfx.NumVirtualPageSizesARB: 1,
			gfx.VirtualPageSizeXARB:    4,
			gfx.VirtualPageSizeYARB:    4,
		},
		buffers:  make(map[uint32][]byte),
		vaos:     make(map[uint32]bool),
		shaders:  make(map[uint32]string),
		programs: make(map[uint32]*program),
		textures: make(map[uint32]*texture),
		handles:  make(map[uint64]uint32),
		resident: make(map[uint64]bool),
		bound:    make(map[uint32]uint32),
		bases:    make(map[uint32]map[uint32]uint32),
		enabled:  make(map[uint32]bool),
		attribs:  make(map[uint32]bool),
		uniforms: make(map[uint32]map[int32]int32),
		matrices: make(map[uint32]map[int32][16]float32),
	}
}

func (c *Context) record(name string, args ...any) {
	c.Calls = append(c.Calls, Call{Name: name, Args: args})
}

func (c *Context) id() uint32 {
	c.next++
	return c.next
}

// CallNames returns the names of every recorded call, in order.
func (c *Context) CallNames() []string {
	names := make([]string, len(c.Calls))
	for i, call := range c.Calls {
		names[i] = call.Name
	}
	return names
}

// ResetCalls forgets recorded calls and draws but keeps all object state.
func (c *Context) ResetCalls() {
	c.Calls = nil
	c.Draws = nil
}

// LiveObjects counts every GL object that has been created and not deleted.
func (c *Context) LiveObjects() int {
	return len(c.buffers) + len(c.vaos) + len(c.shaders) + len(c.programs) + len(c.textures)
}

func (c *Context) LiveBuffers() int  { return len(c.buffers) }
func (c *Context) LiveTextures() int { return len(c.textures) }
func (c *Context) LivePrograms() int { return len(c.programs) }
func (c *Context) LiveShaders() int  { return len(c.shaders) }

// ResidentHandles counts bindless handles currently resident.
func (c *Context) ResidentHandles() int {
	return len(c.resident)
}

// BufferContents returns the bytes last uploaded into buffer.
func (c *Context) BufferContents(buffer uint32) []byte {
	return c.buffers[buffer]
}

// BoundBase returns the buffer bound to an indexed binding point.
func (c *Context) BoundBase(target, index uint32) uint32 {
	return c.bases[target][index]
}

// Bound returns the buffer currently bound at target.
func (c *Context) Bound(target uint32) uint32 {
	return c.bound[target]
}

func (c *Context) IsEnabled(capability uint32) bool {
	return c.enabled[capability]
}

func (c *Context) AttribEnabled(index uint32) bool {
	return c.attribs[index]
}

func (c *Context) CurrentProgram() uint32 {
	return c.current
}

func (c *Context) CullFaceMode() uint32  { return c.cullFace }
func (c *Context) FrontFaceMode() uint32 { return c.frontFace }
func (c *Context) DepthWrites() bool     { return c.depthMask }
func (c *Context) ColorWrites() [4]bool  { return c.colorMask }

// Matrix returns the matrix uniform last set at location on program.
func (c *Context) Matrix(program uint32, location int32) ([16]float32, bool) {
	m, ok := c.matrices[program][location]
	return m, ok
}

// SliceCommitted reports whether level 0 of a texture array slice is committed.
func (c *Context) SliceCommitted(tex uint32, slice int32) bool {
	return c.LevelCommitted(tex, 0, slice)
}

func (c *Context) LevelCommitted(tex uint32, level, slice int32) bool {
	t, ok := c.textures[tex]
	return ok && t.commits[[2]int32{level, slice}]
}

// SparseLevels returns the number of mip levels of tex outside the mip tail.
func (c *Context) SparseLevels(tex uint32) int32 {
	t, ok := c.textures[tex]
	if !ok || !t.sparse {
		return 0
	}
	return t.sparseLevels(c.Internalformats[gfx.VirtualPageSizeXARB], c.Internalformats[gfx.VirtualPageSizeYARB])
}

// IsSparse reports whether tex was allocated with TEXTURE_SPARSE_ARB.
func (c *Context) IsSparse(tex uint32) bool {
	t, ok := c.textures[tex]
	return ok && t.sparse
}

// SliceUploads returns how many levels were uploaded into a texture array slice.
func (c *Context) SliceUploads(tex uint32, slice int32) int {
	if t, ok := c.textures[tex]; ok {
		return t.uploads[slice]
	}
	return 0
}

func (c *Context) HasExtension(name string) bool {
	return c.Extensions[name]
}

func (c *Context) GetError() uint32 {
	c.record("GetError")
	err := c.PendingError
	c.PendingError = gfx.NoError
	return err
}

func (c *Context) GetInteger(pname uint32) int32 {
	c.record("GetInteger", pname)
	return c.Integers[pname]
}

func (c *Context) GenBuffer() uint32 {
	b := c.id()
	c.buffers[b] = nil
	c.record("GenBuffer", b)
	return b
}

func (c *Context) DeleteBuffer(buffer uint32) {
	c.record("DeleteBuffer", buffer)
	if buffer == 0 {
		return
	}
	delete(c.buffers, buffer)
	for target, b := range c.bound {
		if b == buffer {
			delete(c.bound, target)
		}
	}
	for _, bases := range c.bases {
		for index, b := range bases {
			if b == buffer {
				delete(bases, index)
			}
		}
	}
}

func (c *Context) BindBuffer(target, buffer uint32) {
	c.record("BindBuffer", target, buffer)
	c.bound[target] = buffer
}

func (c *Context) BindBufferBase(target, index, buffer uint32) {
	c.record("BindBufferBase", target, index, buffer)
	if c.bases[target] == nil {
		c.bases[target] = make(map[uint32]uint32)
	}
	c.bases[target][index] = buffer
	// glBindBufferBase also binds the generic binding point.
	c.bound[target] = buffer
}

func (c *Context) BufferData(target uint32, data []byte, usage uint32) {
	c.record("BufferData", target, len(data), usage)
	buffer, ok := c.bound[target]
	if !ok || buffer == 0 {
		panic(fmt.Sprintf("gfxtest: BufferData with no buffer bound at 0x%X", target))
	}
	c.buffers[buffer] = append([]byte(nil), data...)
}

func (c *Context) GenVertexArray() uint32 {
	v := c.id()
	c.vaos[v] = true
	c.record("GenVertexArray", v)
	return v
}

func (c *Context) DeleteVertexArray(vao uint32) {
	c.record("DeleteVertexArray", vao)
	delete(c.vaos, vao)
}

func (c *Context) BindVertexArray(vao uint32) {
	c.record("BindVertexArray", vao)
}

func (c *Context) VertexAttribPointer(index uint32, size int32, xtype uint32, normalized bool, stride int32, offset uintptr) {
	c.record("VertexAttribPointer", index, size, xtype, normalized, stride, offset)
}

func (c *Context) EnableVertexAttribArray(index uint32) {
	c.record("EnableVertexAttribArray", index)
	c.attribs[index] = true
}

func (c *Context) DisableVertexAttribArray(index uint32) {
	c.record("DisableVertexAttribArray", index)
	delete(c.attribs, index)
}

func (c *Context) CreateShader(xtype uint32) uint32 {
	s := c.id()
	c.shaders[s] = ""
	c.record("CreateShader", xtype, s)
	return s
}

func (c *Context) ShaderSource(shader uint32, source string) {
	c.record("ShaderSource", shader)
	c.shaders[shader] = source
}

func (c *Context) CompileShader(shader uint32) {
	c.record("CompileShader", shader)
}

func (c *Context) ShaderCompiled(shader uint32) (bool, string) {
	src := c.shaders[shader]
	if c.FailCompile != "" && strings.Contains(src, c.FailCompile) {
		return false, "0(1) : error C0000: syntax error"
	}
	return true, ""
}

func (c *Context) DeleteShader(shader uint32) {
	c.record("DeleteShader", shader)
	delete(c.shaders, shader)
}

func (c *Context) CreateProgram() uint32 {
	p := c.id()
	c.programs[p] = &program{uniforms: make(map[string]int32)}
	c.record("CreateProgram", p)
	return p
}

func (c *Context) AttachShader(prog, shader uint32) {
	c.record("AttachShader", prog, shader)
	if p, ok := c.programs[prog]; ok {
		p.shaders = append(p.shaders, shader)
	}
}

func (c *Context) DetachShader(prog, shader uint32) {
	c.record("DetachShader", prog, shader)
}

func (c *Context) LinkProgram(prog uint32) {
	c.record("LinkProgram", prog)
	if p, ok := c.programs[prog]; ok {
		p.linked = !c.FailLink
	}
}

func (c *Context) ProgramLinked(prog uint32) (bool, string) {
	p, ok := c.programs[prog]
	if !ok || !p.linked {
		return false, "error: vertex shader output not read by fragment shader"
	}
	return true, ""
}

func (c *Context) DeleteProgram(prog uint32) {
	c.record("DeleteProgram", prog)
	delete(c.programs, prog)
	if c.current == prog {
		c.current = 0
	}
}

func (c *Context) UseProgram(prog uint32) {
	c.record("UseProgram", prog)
	c.current = prog
}

func (c *Context) GetUniformLocation(prog uint32, name string) int32 {
	c.record("GetUniformLocation", prog, name)
	for _, missing := range c.MissingUniforms {
		if missing == name {
			return -1
		}
	}
	p, ok := c.programs[prog]
	if !ok || !p.linked {
		return -1
	}
	if loc, ok := p.uniforms[name]; ok {
		return loc
	}
	loc := int32(len(p.uniforms))
	p.uniforms[name] = loc
	return loc
}

func (c *Context) UniformMatrix4fv(location int32, transpose bool, value *[16]float32) {
	c.record("UniformMatrix4fv", location, transpose)
	if c.matrices[c.current] == nil {
		c.matrices[c.current] = make(map[int32][16]float32)
	}
	c.matrices[c.current][location] = *value
}

func (c *Context) Uniform1i(location int32, value int32) {
	c.record("Uniform1i", location, value)
	if c.uniforms[c.current] == nil {
		c.uniforms[c.current] = make(map[int32]int32)
	}
	c.uniforms[c.current][location] = value
}

func (c *Context) Enable(capability uint32) {
	c.record("Enable", capability)
	c.enabled[capability] = true
}

func (c *Context) Disable(capability uint32) {
	c.record("Disable", capability)
	delete(c.enabled, capability)
}

func (c *Context) CullFace(mode uint32) {
	c.record("CullFace", mode)
	c.cullFace = mode
}

func (c *Context) FrontFace(mode uint32) {
	c.record("FrontFace", mode)
	c.frontFace = mode
}

func (c *Context) ColorMask(r, g, b, a bool) {
	c.record("ColorMask", r, g, b, a)
	c.colorMask = [4]bool{r, g, b, a}
}

func (c *Context) DepthMask(flag bool) {
	c.record("DepthMask", flag)
	c.depthMask = flag
}

func (c *Context) Viewport(x, y, width, height int32) {
	c.record("Viewport", x, y, width, height)
}

func (c *Context) ClearColor(r, g, b, a float32) {
	c.record("ClearColor", r, g, b, a)
}

func (c *Context) Clear(mask uint32) {
	c.record("Clear", mask)
}

func (c *Context) DrawElements(mode uint32, count int32, xtype uint32, offset uintptr) {
	c.record("DrawElements", mode, count, xtype, offset)
	snapshot := make(map[int32]int32, len(c.uniforms[c.current]))
	for loc, v := range c.uniforms[c.current] {
		snapshot[loc] = v
	}
	c.Draws = append(c.Draws, Draw{Program: c.current, Count: count, Uniforms: snapshot})
}

func (c *Context) GenTexture() uint32 {
	t := c.id()
	c.textures[t] = &texture{commits: make(map[[2]int32]bool), uploads: make(map[int32]int)}
	c.record("GenTexture", t)
	return t
}

func (c *Context) DeleteTexture(tex uint32) {
	c.record("DeleteTexture", tex)
	t, ok := c.textures[tex]
	if !ok {
		return
	}
	if t.handle != 0 {
		delete(c.handles, t.handle)
	}
	delete(c.textures, tex)
}

func (c *Context) BindTexture(target, tex uint32) {
	c.record("BindTexture", target, tex)
	c.bound[target] = tex
}

func (c *Context) boundTexture(target uint32) *texture {
	t, ok := c.textures[c.bound[target]]
	if !ok {
		panic(fmt.Sprintf("gfxtest: no texture bound at 0x%X", target))
	}
	return t
}

func (c *Context) TexParameteri(target, pname uint32, param int32) {
	c.record("TexParameteri", target, pname, param)
	if pname == gfx.TextureSparseARB {
		c.boundTexture(target).sparse = param != 0
	}
}

func (c *Context) GetTexParameteri(target, pname uint32) int32 {
	c.record("GetTexParameteri", target, pname)
	if pname == gfx.NumSparseLevelsARB {
		return c.SparseLevels(c.bound[target])
	}
	return 0
}

func (c *Context) GetInternalformativ(target, internalFormat, pname uint32) int32 {
	c.record("GetInternalformativ", target, internalFormat, pname)
	return c.Internalformats[pname]
}

func (c *Context) TexStorage3D(target uint32, levels int32, internalFormat uint32, width, height, depth int32) {
	c.record("TexStorage3D", target, levels, internalFormat, width, height, depth)
	t := c.boundTexture(target)
	t.target, t.levels, t.width, t.height, t.depth = target, levels, width, height, depth
	if t.sparse {
		pageX, pageY := c.Internalformats[gfx.VirtualPageSizeXARB], c.Internalformats[gfx.VirtualPageSizeYARB]
		if pageX <= 0 || pageY <= 0 || width%pageX != 0 || height%pageY != 0 {
			c.raise(gfx.InvalidValue)
		}
	}
}

// raise keeps the first error until GetError reads it, as GL does.
func (c *Context) raise(err uint32) {
	if c.PendingError == gfx.NoError {
		c.PendingError = err
	}
}

func (c *Context) TexSubImage3D(target uint32, level, xoffset, yoffset, zoffset, width, height, depth int32, format, xtype uint32, pixels []byte) {
	c.record("TexSubImage3D", target, level, zoffset, width, height, len(pixels))
	t := c.boundTexture(target)
	if t.sparse && !t.commits[[2]int32{level, zoffset}] {
		panic(fmt.Sprintf("gfxtest: upload into uncommitted level %d of slice %d", level, zoffset))
	}
	t.uploads[zoffset]++
}

func (c *Context) TexPageCommitment(target uint32, level, xoffset, yoffset, zoffset, width, height, depth int32, commit bool) {
	c.record("TexPageCommitment", target, level, zoffset, commit)
	t := c.boundTexture(target)
	if !t.sparse {
		panic("gfxtest: page commitment on a non-sparse texture")
	}
	for z := zoffset; z < zoffset+depth; z++ {
		key := [2]int32{level, z}
		if commit {
			t.commits[key] = true
		} else {
			delete(t.commits, key)
			if level == 0 {
				delete(t.uploads, z)
			}
		}
	}
}

func (c *Context) GetTextureHandle(tex uint32) uint64 {
	c.record("GetTextureHandle", tex)
	t, ok := c.textures[tex]
	if !ok {
		return 0
	}
	if t.handle == 0 {
		t.handle = 0x1000_0000_0000 + uint64(tex)
		c.handles[t.handle] = tex
	}
	return t.handle
}

func (c *Context) MakeTextureHandleResident(handle uint64) {
	c.record("MakeTextureHandleResident", handle)
	c.resident[handle] = true
}

func (c *Context) MakeTextureHandleNonResident(handle uint64) {
	c.record("MakeTextureHandleNonResident", handle)
	delete(c.resident, handle)
}

var _ gfx.Context = (*Context)(nil)
