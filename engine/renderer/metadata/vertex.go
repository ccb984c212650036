package metadata

import "unsafe"

/**
 * @brief Represents a single vertex of a textured quad.
 */
type Vertex struct {
	/** @brief The position of the vertex */
	Pos [3]float32
	/** @brief The texture coordinate of the vertex. */
	Tex [2]float32
}

// Index is a 16-bit index into the vertex buffer.
type Index = uint16

// Vertex attribute layout, in bytes.
var (
	VertexStride    = int32(unsafe.Sizeof(Vertex{}))
	VertexPosOffset = unsafe.Offsetof(Vertex{}.Pos)
	VertexTexOffset = unsafe.Offsetof(Vertex{}.Tex)
)
