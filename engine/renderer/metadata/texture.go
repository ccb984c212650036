package metadata

import "fmt"

/**
 * @brief Pixel formats a TextureDetails can carry. Only uncompressed RGBA8 is
 * produced by the loaders today.
 */
type TextureFormat int

const (
	TextureFormatRGBA8 TextureFormat = iota
)

func (f TextureFormat) String() string {
	switch f {
	case TextureFormatRGBA8:
		return "RGBA8"
	default:
		return fmt.Sprintf("TextureFormat(%d)", int(f))
	}
}

// BytesPerPixel is the size of one texel in the format.
func (f TextureFormat) BytesPerPixel() int {
	return 4
}

/**
 * @brief Describes a 2D texture before it is handed to the GPU: its
 * dimensions, format and the pixel data for every mip level.
 */
type TextureDetails struct {
	/** @brief The texture Name, used in logs. */
	Name string
	/** @brief The texture Width at mip level 0. */
	Width uint32
	/** @brief The texture Height at mip level 0. */
	Height uint32
	Format TextureFormat
	/** @brief Pixels for each mip level, level 0 first. */
	Mips [][]byte
}

// MipCount is the number of levels carried by the details.
func (td *TextureDetails) MipCount() uint32 {
	return uint32(len(td.Mips))
}

// Validate checks that every mip level holds exactly the bytes its size requires.
func (td *TextureDetails) Validate() error {
	if td.Width == 0 || td.Height == 0 {
		return fmt.Errorf("texture %q: zero size %dx%d", td.Name, td.Width, td.Height)
	}
	if len(td.Mips) == 0 {
		return fmt.Errorf("texture %q: no pixel data", td.Name)
	}
	w, h := td.Width, td.Height
	for level, pixels := range td.Mips {
		want := int(w) * int(h) * td.Format.BytesPerPixel()
		if len(pixels) != want {
			return fmt.Errorf("texture %q: mip %d has %d bytes, want %d", td.Name, level, len(pixels), want)
		}
		w, h = max(w/2, 1), max(h/2, 1)
	}
	return nil
}

/**
 * @brief The shader-visible address of a texture: the bindless handle of the
 * texture array that holds it plus the slice ("page") inside that array.
 * Laid out to match a std430 struct { uvec2 handle; float page; int reserved; }.
 */
type TexAddress struct {
	ContainerHandle uint64
	Page            float32
	Reserved        int32
}
