package math

// Vec3 represents a 3D vector
type Vec3 struct {
	X, Y, Z float32
}

/**
 * @brief a 4x4 matrix, typically used to represent object transformations.
 * Elements are laid out so that Data[12..14] hold the translation, which is
 * the memory order OpenGL expects for a column-major matrix. Products follow
 * the row-vector convention: a.Mul(b) applies a first, then b.
 */
type Mat4 struct {
	/** @brief The matrix elements */
	Data [16]float32
}
