package core

import (
	"errors"
)

var (
	ErrBindlessUnsupported      = errors.New("bindless textures are not supported by the driver")
	ErrTextureSystemUnsupported = errors.New("texture system is not supported by the driver")
	ErrShaderCompile            = errors.New("shader compilation failed")
	ErrShaderLink               = errors.New("program linking failed")
	ErrUniformNotFound          = errors.New("uniform not found in program")
	ErrGraphicsAPI              = errors.New("graphics api reported an error")
	ErrUnknownSolution          = errors.New("unknown solution")
	ErrInvalidConfig            = errors.New("invalid configuration")
	ErrAssetNotFound            = errors.New("asset not found")
)
