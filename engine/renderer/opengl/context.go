package opengl

import (
	"strings"
	"unsafe"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/spaghettifunk/quadbench/engine/core"
	"github.com/spaghettifunk/quadbench/engine/renderer/gfx"
)

// Context forwards gfx.Context calls to the OpenGL context current on the
// calling thread.
type Context struct {
	extensions map[string]bool
}

// New loads the GL entry points. A context must already be current.
func New() (*Context, error) {
	if err := gl.Init(); err != nil {
		core.LogError("failed to initialize OpenGL: %s", err)
		return nil, err
	}

	var count int32
	gl.GetIntegerv(gl.NUM_EXTENSIONS, &count)
	extensions := make(map[string]bool, count)
	for i := int32(0); i < count; i++ {
		extensions[gl.GoStr(gl.GetStringi(gl.EXTENSIONS, uint32(i)))] = true
	}

	core.LogInfo("OpenGL %s (%s, %s), %d extensions",
		gl.GoStr(gl.GetString(gl.VERSION)),
		gl.GoStr(gl.GetString(gl.RENDERER)),
		gl.GoStr(gl.GetString(gl.VENDOR)),
		count)

	return &Context{extensions: extensions}, nil
}

func (c *Context) HasExtension(name string) bool {
	return c.extensions[name]
}

func (c *Context) GetError() uint32 {
	return gl.GetError()
}

func (c *Context) GetInteger(pname uint32) int32 {
	var value int32
	gl.GetIntegerv(pname, &value)
	return value
}

func (c *Context) GenBuffer() uint32 {
	var buffer uint32
	gl.GenBuffers(1, &buffer)
	return buffer
}

func (c *Context) DeleteBuffer(buffer uint32) {
	gl.DeleteBuffers(1, &buffer)
}

func (c *Context) BindBuffer(target, buffer uint32) {
	gl.BindBuffer(target, buffer)
}

func (c *Context) BindBufferBase(target, index, buffer uint32) {
	gl.BindBufferBase(target, index, buffer)
}

func (c *Context) BufferData(target uint32, data []byte, usage uint32) {
	gl.BufferData(target, len(data), ptr(data), usage)
}

func (c *Context) GenVertexArray() uint32 {
	var vao uint32
	gl.GenVertexArrays(1, &vao)
	return vao
}

func (c *Context) DeleteVertexArray(vao uint32) {
	gl.DeleteVertexArrays(1, &vao)
}

func (c *Context) BindVertexArray(vao uint32) {
	gl.BindVertexArray(vao)
}

func (c *Context) VertexAttribPointer(index uint32, size int32, xtype uint32, normalized bool, stride int32, offset uintptr) {
	gl.VertexAttribPointerWithOffset(index, size, xtype, normalized, stride, offset)
}

func (c *Context) EnableVertexAttribArray(index uint32) {
	gl.EnableVertexAttribArray(index)
}

func (c *Context) DisableVertexAttribArray(index uint32) {
	gl.DisableVertexAttribArray(index)
}

func (c *Context) CreateShader(xtype uint32) uint32 {
	return gl.CreateShader(xtype)
}

func (c *Context) ShaderSource(shader uint32, source string) {
	csources, free := gl.Strs(source + "\x00")
	defer free()
	gl.ShaderSource(shader, 1, csources, nil)
}

func (c *Context) CompileShader(shader uint32) {
	gl.CompileShader(shader)
}

func (c *Context) ShaderCompiled(shader uint32) (bool, string) {
	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.TRUE {
		return true, ""
	}
	var logLength int32
	gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
	return false, infoLog(logLength, func(size int32, out *uint8) {
		gl.GetShaderInfoLog(shader, size, nil, out)
	})
}

func (c *Context) DeleteShader(shader uint32) {
	gl.DeleteShader(shader)
}

func (c *Context) CreateProgram() uint32 {
	return gl.CreateProgram()
}

func (c *Context) AttachShader(program, shader uint32) {
	gl.AttachShader(program, shader)
}

func (c *Context) DetachShader(program, shader uint32) {
	gl.DetachShader(program, shader)
}

func (c *Context) LinkProgram(program uint32) {
	gl.LinkProgram(program)
}

func (c *Context) ProgramLinked(program uint32) (bool, string) {
	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.TRUE {
		return true, ""
	}
	var logLength int32
	gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
	return false, infoLog(logLength, func(size int32, out *uint8) {
		gl.GetProgramInfoLog(program, size, nil, out)
	})
}

func (c *Context) DeleteProgram(program uint32) {
	gl.DeleteProgram(program)
}

func (c *Context) UseProgram(program uint32) {
	gl.UseProgram(program)
}

func (c *Context) GetUniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

func (c *Context) UniformMatrix4fv(location int32, transpose bool, value *[16]float32) {
	gl.UniformMatrix4fv(location, 1, transpose, &value[0])
}

func (c *Context) Uniform1i(location int32, value int32) {
	gl.Uniform1i(location, value)
}

func (c *Context) Enable(capability uint32) {
	gl.Enable(capability)
}

func (c *Context) Disable(capability uint32) {
	gl.Disable(capability)
}

func (c *Context) CullFace(mode uint32) {
	gl.CullFace(mode)
}

func (c *Context) FrontFace(mode uint32) {
	gl.FrontFace(mode)
}

func (c *Context) ColorMask(r, g, b, a bool) {
	gl.ColorMask(r, g, b, a)
}

func (c *Context) DepthMask(flag bool) {
	gl.DepthMask(flag)
}

func (c *Context) Viewport(x, y, width, height int32) {
	gl.Viewport(x, y, width, height)
}

func (c *Context) ClearColor(r, g, b, a float32) {
	gl.ClearColor(r, g, b, a)
}

func (c *Context) Clear(mask uint32) {
	gl.Clear(mask)
}

func (c *Context) DrawElements(mode uint32, count int32, xtype uint32, offset uintptr) {
	gl.DrawElementsWithOffset(mode, count, xtype, offset)
}

func (c *Context) GenTexture() uint32 {
	var texture uint32
	gl.GenTextures(1, &texture)
	return texture
}

func (c *Context) DeleteTexture(texture uint32) {
	gl.DeleteTextures(1, &texture)
}

func (c *Context) BindTexture(target, texture uint32) {
	gl.BindTexture(target, texture)
}

func (c *Context) TexParameteri(target, pname uint32, param int32) {
	gl.TexParameteri(target, pname, param)
}

func (c *Context) GetTexParameteri(target, pname uint32) int32 {
	var value int32
	gl.GetTexParameteriv(target, pname, &value)
	return value
}

func (c *Context) GetInternalformativ(target, internalFormat, pname uint32) int32 {
	var value int32
	gl.GetInternalformativ(target, internalFormat, pname, 1, &value)
	return value
}

func (c *Context) TexStorage3D(target uint32, levels int32, internalFormat uint32, width, height, depth int32) {
	gl.TexStorage3D(target, levels, internalFormat, width, height, depth)
}

func (c *Context) TexSubImage3D(target uint32, level, xoffset, yoffset, zoffset, width, height, depth int32, format, xtype uint32, pixels []byte) {
	gl.TexSubImage3D(target, level, xoffset, yoffset, zoffset, width, height, depth, format, xtype, ptr(pixels))
}

func (c *Context) TexPageCommitment(target uint32, level, xoffset, yoffset, zoffset, width, height, depth int32, commit bool) {
	gl.TexPageCommitmentARB(target, level, xoffset, yoffset, zoffset, width, height, depth, commit)
}

func (c *Context) GetTextureHandle(texture uint32) uint64 {
	return gl.GetTextureHandleARB(texture)
}

func (c *Context) MakeTextureHandleResident(handle uint64) {
	gl.MakeTextureHandleResidentARB(handle)
}

func (c *Context) MakeTextureHandleNonResident(handle uint64) {
	gl.MakeTextureHandleNonResidentARB(handle)
}

// ptr returns nil for empty slices, where gl.Ptr would panic.
func ptr(data []byte) unsafe.Pointer {
	if len(data) == 0 {
		return nil
	}
	return gl.Ptr(data)
}

func infoLog(length int32, read func(size int32, out *uint8)) string {
	if length <= 0 {
		return ""
	}
	buf := strings.Repeat("\x00", int(length+1))
	read(length, gl.Str(buf))
	return strings.TrimRight(buf, "\x00\n")
}

var _ gfx.Context = (*Context)(nil)
