// Package gfx models the OpenGL state machine as an explicit Context so that
// every bind, upload and draw goes through an object that can be swapped for
// a recording implementation in tests.
package gfx

// Enum values match the OpenGL headers so implementations may pass them
// straight through to the driver.
const (
	NoError uint32 = 0

	ArrayBuffer         uint32 = 0x8892
	ElementArrayBuffer  uint32 = 0x8893
	ShaderStorageBuffer uint32 = 0x90D2

	StaticDraw  uint32 = 0x88E4
	DynamicDraw uint32 = 0x88E8

	Triangles     uint32 = 0x0004
	UnsignedByte  uint32 = 0x1401
	UnsignedShort uint32 = 0x1403
	Float         uint32 = 0x1406

	CullFace    uint32 = 0x0B44
	ScissorTest uint32 = 0x0C11
	Blend       uint32 = 0x0BE2
	DepthTest   uint32 = 0x0B71

	Front uint32 = 0x0404
	Back  uint32 = 0x0405
	CW    uint32 = 0x0900
	CCW   uint32 = 0x0901

	ColorBufferBit uint32 = 0x00004000
	DepthBufferBit uint32 = 0x00000100

	VertexShader   uint32 = 0x8B31
	FragmentShader uint32 = 0x8B30

	Texture2DArray     uint32 = 0x8C1A
	RGBA               uint32 = 0x1908
	RGBA8              uint32 = 0x8058
	TextureMinFilter   uint32 = 0x2801
	TextureMagFilter   uint32 = 0x2800
	TextureWrapS       uint32 = 0x2802
	TextureWrapT       uint32 = 0x2803
	TextureSparseARB   uint32 = 0x91A6
	NumSparseLevelsARB uint32 = 0x91AA
	Linear             uint32 = 0x2601
	LinearMipmapLinear uint32 = 0x2703
	Repeat             uint32 = 0x2901

	MaxArrayTextureLayers uint32 = 0x88FF

	// Internal format queries of ARB_sparse_texture.
	VirtualPageSizeXARB    uint32 = 0x9195
	VirtualPageSizeYARB    uint32 = 0x9196
	NumVirtualPageSizesARB uint32 = 0x91A8
)

// Extension names queried through HasExtension.
const (
	ExtBindlessTexture = "GL_ARB_bindless_texture"
	ExtSparseTexture   = "GL_ARB_sparse_texture"
)

// Context is the subset of OpenGL 4.5 core (plus ARB_bindless_texture and
// ARB_sparse_texture) the benchmark issues. All calls must be made from the
// thread owning the GL context.
type Context interface {
	HasExtension(name string) bool
	GetError() uint32
	GetInteger(pname uint32) int32

	// Buffers
	GenBuffer() uint32
	DeleteBuffer(buffer uint32)
	BindBuffer(target, buffer uint32)
	BindBufferBase(target, index, buffer uint32)
	BufferData(target uint32, data []byte, usage uint32)

	// Vertex input
	GenVertexArray() uint32
	DeleteVertexArray(vao uint32)
	BindVertexArray(vao uint32)
	VertexAttribPointer(index uint32, size int32, xtype uint32, normalized bool, stride int32, offset uintptr)
	EnableVertexAttribArray(index uint32)
	DisableVertexAttribArray(index uint32)

	// Shaders and programs
	CreateShader(xtype uint32) uint32
	ShaderSource(shader uint32, source string)
	CompileShader(shader uint32)
	// ShaderCompiled returns the compile status and the info log.
	ShaderCompiled(shader uint32) (bool, string)
	DeleteShader(shader uint32)
	CreateProgram() uint32
	AttachShader(program, shader uint32)
	DetachShader(program, shader uint32)
	LinkProgram(program uint32)
	// ProgramLinked returns the link status and the info log.
	ProgramLinked(program uint32) (bool, string)
	DeleteProgram(program uint32)
	UseProgram(program uint32)
	GetUniformLocation(program uint32, name string) int32
	UniformMatrix4fv(location int32, transpose bool, value *[16]float32)
	Uniform1i(location int32, value int32)

	// Fixed function state
	Enable(capability uint32)
	Disable(capability uint32)
	CullFace(mode uint32)
	FrontFace(mode uint32)
	ColorMask(r, g, b, a bool)
	DepthMask(flag bool)
	Viewport(x, y, width, height int32)
	ClearColor(r, g, b, a float32)
	Clear(mask uint32)

	// Draws
	DrawElements(mode uint32, count int32, xtype uint32, offset uintptr)

	// Textures
	GenTexture() uint32
	DeleteTexture(texture uint32)
	BindTexture(target, texture uint32)
	TexParameteri(target, pname uint32, param int32)
	GetTexParameteri(target, pname uint32) int32
	// GetInternalformativ returns the first value of an internal format query.
	GetInternalformativ(target, internalFormat, pname uint32) int32
	TexStorage3D(target uint32, levels int32, internalFormat uint32, width, height, depth int32)
	TexSubImage3D(target uint32, level, xoffset, yoffset, zoffset, width, height, depth int32, format, xtype uint32, pixels []byte)
	TexPageCommitment(target uint32, level, xoffset, yoffset, zoffset, width, height, depth int32, commit bool)
	GetTextureHandle(texture uint32) uint64
	MakeTextureHandleResident(handle uint64)
	MakeTextureHandleNonResident(handle uint64)
}
