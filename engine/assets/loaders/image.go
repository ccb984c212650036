package loaders

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/spaghettifunk/quadbench/engine/renderer/metadata"
	"golang.org/x/image/draw"
)

/** @brief Parameters for the image loader. */
type ImageParams struct {
	/** @brief Edge length the image is resampled to. Zero keeps the source size. */
	Size uint32
	/** @brief Build the full mip chain down to 1x1. */
	Mipmaps bool
}

type ImageLoader struct{}

// Load decodes a PNG or JPEG into RGBA8 texture details.
func (il *ImageLoader) Load(path string, params interface{}) (*metadata.Resource, error) {
	typedParams, ok := params.(*ImageParams)
	if !ok || typedParams == nil {
		typedParams = &ImageParams{}
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	src, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	width, height := uint32(src.Bounds().Dx()), uint32(src.Bounds().Dy())
	if typedParams.Size > 0 {
		width, height = typedParams.Size, typedParams.Size
	}

	level := resample(src, width, height)
	details := &metadata.TextureDetails{
		Name:   strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Width:  width,
		Height: height,
		Format: metadata.TextureFormatRGBA8,
		Mips:   [][]byte{level.Pix},
	}
	if typedParams.Mipmaps {
		details.Mips = append(details.Mips, Mipmaps(level)...)
	}

	size := uint64(0)
	for _, m := range details.Mips {
		size += uint64(len(m))
	}
	return &metadata.Resource{
		Name:     details.Name,
		FullPath: path,
		DataSize: size,
		Data:     details,
	}, nil
}

func (il *ImageLoader) Unload(*metadata.Resource) error {
	return nil
}

func resample(src image.Image, width, height uint32) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, int(width), int(height)))
	if src.Bounds().Dx() == int(width) && src.Bounds().Dy() == int(height) {
		draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	}
	return dst
}

// Mipmaps returns every level below base, each half the size of the previous
// one, ending at 1x1.
func Mipmaps(base *image.RGBA) [][]byte {
	var levels [][]byte
	prev := base
	w, h := base.Bounds().Dx(), base.Bounds().Dy()
	for w > 1 || h > 1 {
		w, h = max(w/2, 1), max(h/2, 1)
		next := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.BiLinear.Scale(next, next.Bounds(), prev, prev.Bounds(), draw.Src, nil)
		levels = append(levels, next.Pix)
		prev = next
	}
	return levels
}
