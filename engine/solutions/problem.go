package solutions

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/spaghettifunk/quadbench/engine/assets/loaders"
	"github.com/spaghettifunk/quadbench/engine/core"
	"github.com/spaghettifunk/quadbench/engine/math"
	"github.com/spaghettifunk/quadbench/engine/renderer/metadata"
	"github.com/spaghettifunk/quadbench/engine/systems"
	"golang.org/x/exp/rand"
)

const (
	quadSpacing  = 2.0
	checkerCells = 8

	// Maximum spin in radians per second, either direction.
	maxSpin = 1.5
)

// ImageSource provides image assets to use as textures.
type ImageSource interface {
	Images() []string
	LoadImage(name string, size uint32) (*metadata.TextureDetails, error)
}

type TexturedQuadsProblemConfig struct {
	GridWidth    uint32
	GridHeight   uint32
	TextureCount uint32
	TextureSize  uint32
	Seed         uint64
}

/**
 * @brief A grid of spinning unit quads, each sampling one of a fixed set of
 * textures. The problem owns the CPU side data every solution draws.
 */
type TexturedQuadsProblem struct {
	Config *TexturedQuadsProblemConfig

	vertices   []metadata.Vertex
	indices    []metadata.Index
	textures   []*metadata.TextureDetails
	positions  []math.Vec3
	spin       []float32
	angles     []float32
	transforms []math.Mat4
}

// NewTexturedQuadsProblem builds the geometry, the grid and the textures.
// Image assets are used first and procedural checkerboards fill the rest.
// Textures are generated on jobs when it is not nil.
func NewTexturedQuadsProblem(config *TexturedQuadsProblemConfig, images ImageSource, jobs *systems.JobSystem) (*TexturedQuadsProblem, error) {
	if config.GridWidth == 0 || config.GridHeight == 0 || config.TextureCount == 0 || config.TextureSize == 0 {
		return nil, fmt.Errorf("%w: textured quads problem needs a non empty grid and textures", core.ErrInvalidConfig)
	}

	p := &TexturedQuadsProblem{
		Config: config,
		vertices: []metadata.Vertex{
			{Pos: [3]float32{-0.5, -0.5, 0}, Tex: [2]float32{0, 0}},
			{Pos: [3]float32{0.5, -0.5, 0}, Tex: [2]float32{1, 0}},
			{Pos: [3]float32{0.5, 0.5, 0}, Tex: [2]float32{1, 1}},
			{Pos: [3]float32{-0.5, 0.5, 0}, Tex: [2]float32{0, 1}},
		},
		indices: []metadata.Index{0, 1, 2, 0, 2, 3},
	}

	count := int(config.GridWidth * config.GridHeight)
	p.positions = make([]math.Vec3, 0, count)
	p.spin = make([]float32, count)
	p.angles = make([]float32, count)
	p.transforms = make([]math.Mat4, count)

	cx := float32(config.GridWidth-1) / 2
	cy := float32(config.GridHeight-1) / 2
	for y := uint32(0); y < config.GridHeight; y++ {
		for x := uint32(0); x < config.GridWidth; x++ {
			p.positions = append(p.positions, math.NewVec3((float32(x)-cx)*quadSpacing, (float32(y)-cy)*quadSpacing, 0))
		}
	}

	rng := rand.New(rand.NewSource(config.Seed))
	for i := range p.spin {
		p.spin[i] = (rng.Float32()*2 - 1) * maxSpin
	}

	textures, err := p.buildTextures(images, jobs, rng)
	if err != nil {
		return nil, err
	}
	p.textures = textures
	p.Update(0)

	core.LogDebug("textured quads problem: %d objects, %d textures of %dx%d",
		count, len(p.textures), config.TextureSize, config.TextureSize)
	return p, nil
}

func (p *TexturedQuadsProblem) buildTextures(images ImageSource, jobs *systems.JobSystem, rng *rand.Rand) ([]*metadata.TextureDetails, error) {
	count := int(p.Config.TextureCount)
	size := p.Config.TextureSize
	textures := make([]*metadata.TextureDetails, count)
	builders := make([]func() (*metadata.TextureDetails, error), 0, count)

	if images != nil {
		for _, name := range images.Images() {
			if len(builders) == count {
				break
			}
			builders = append(builders, func() (*metadata.TextureDetails, error) {
				return images.LoadImage(name, size)
			})
		}
	}
	// Colours are drawn up front so the result does not depend on job order.
	for i := len(builders); i < count; i++ {
		a := color.RGBA{R: uint8(rng.Intn(256)), G: uint8(rng.Intn(256)), B: uint8(rng.Intn(256)), A: 255}
		b := color.RGBA{R: 255 - a.R, G: 255 - a.G, B: 255 - a.B, A: 255}
		name := fmt.Sprintf("checker_%03d", i)
		builders = append(builders, func() (*metadata.TextureDetails, error) {
			return Checkerboard(name, size, a, b), nil
		})
	}

	if jobs == nil {
		for i, build := range builders {
			details, err := build()
			if err != nil {
				return nil, err
			}
			textures[i] = details
		}
		return textures, nil
	}

	var mutex sync.Mutex
	var firstErr error
	for i, build := range builders {
		err := jobs.Submit(metadata.JobTask{
			Name: fmt.Sprintf("texture %d", i),
			OnStart: func() error {
				details, err := build()
				if err != nil {
					return err
				}
				textures[i] = details
				return nil
			},
			OnFailure: func(err error) {
				mutex.Lock()
				defer mutex.Unlock()
				if firstErr == nil {
					firstErr = err
				}
			},
		})
		if err != nil {
			jobs.Wait()
			return nil, err
		}
	}
	jobs.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return textures, nil
}

// Checkerboard returns size x size RGBA8 details with a full mip chain.
func Checkerboard(name string, size uint32, a, b color.RGBA) *metadata.TextureDetails {
	img := image.NewRGBA(image.Rect(0, 0, int(size), int(size)))
	cell := max(int(size)/checkerCells, 1)
	for y := 0; y < int(size); y++ {
		for x := 0; x < int(size); x++ {
			if (x/cell+y/cell)%2 == 0 {
				img.SetRGBA(x, y, a)
			} else {
				img.SetRGBA(x, y, b)
			}
		}
	}
	return &metadata.TextureDetails{
		Name:   name,
		Width:  size,
		Height: size,
		Format: metadata.TextureFormatRGBA8,
		Mips:   append([][]byte{img.Pix}, loaders.Mipmaps(img)...),
	}
}

func (p *TexturedQuadsProblem) Vertices() []metadata.Vertex {
	return p.vertices
}

func (p *TexturedQuadsProblem) Indices() []metadata.Index {
	return p.indices
}

func (p *TexturedQuadsProblem) Textures() []*metadata.TextureDetails {
	return p.textures
}

func (p *TexturedQuadsProblem) ObjectCount() int {
	return len(p.positions)
}

// Update advances every quad's spin by dt seconds and returns the transforms.
// The returned slice is reused by the next call.
func (p *TexturedQuadsProblem) Update(dt float32) []math.Mat4 {
	for i, pos := range p.positions {
		p.angles[i] += p.spin[i] * dt
		p.transforms[i] = math.NewMat4EulerZ(p.angles[i]).Mul(math.NewMat4Translation(pos))
	}
	return p.transforms
}
