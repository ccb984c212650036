package gfx

import "unsafe"

// Bytes reinterprets a slice of plain-old-data values as its raw bytes.
// The result aliases data.
func Bytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), len(data)*int(unsafe.Sizeof(zero)))
}

// FromBytes is the inverse of Bytes. Trailing bytes that do not fill a whole T
// are dropped.
func FromBytes[T any](data []byte) []T {
	var zero T
	size := int(unsafe.Sizeof(zero))
	if len(data) < size || size == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&data[0])), len(data)/size)
}

// BufferDataSlice uploads data to the buffer currently bound at target.
func BufferDataSlice[T any](ctx Context, target uint32, data []T, usage uint32) {
	ctx.BufferData(target, Bytes(data), usage)
}

// NewBufferFromSlice creates a buffer, binds it at target and fills it with data.
// The buffer stays bound on return.
func NewBufferFromSlice[T any](ctx Context, target uint32, data []T, usage uint32) uint32 {
	buffer := ctx.GenBuffer()
	ctx.BindBuffer(target, buffer)
	BufferDataSlice(ctx, target, data, usage)
	return buffer
}
