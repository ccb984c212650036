package core

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

type ApplicationConfig struct {
	Name   string `toml:"name" yaml:"name"`
	Width  uint32 `toml:"width" yaml:"width"`
	Height uint32 `toml:"height" yaml:"height"`
	PosX   uint32 `toml:"pos_x" yaml:"pos_x"`
	PosY   uint32 `toml:"pos_y" yaml:"pos_y"`
	VSync  bool   `toml:"vsync" yaml:"vsync"`
}

type LoggingConfig struct {
	Level string `toml:"level" yaml:"level"`
}

type BenchmarkConfig struct {
	// Solution is the registered name of the technique to run.
	Solution string `toml:"solution" yaml:"solution"`
	// Frames to render before exiting. 0 runs until the window is closed.
	Frames uint64 `toml:"frames" yaml:"frames"`
	// The problem draws GridWidth * GridHeight quads.
	GridWidth    uint32 `toml:"grid_width" yaml:"grid_width"`
	GridHeight   uint32 `toml:"grid_height" yaml:"grid_height"`
	TextureCount uint32 `toml:"texture_count" yaml:"texture_count"`
	TextureSize  uint32 `toml:"texture_size" yaml:"texture_size"`
	Seed         uint64 `toml:"seed" yaml:"seed"`
}

type AssetsConfig struct {
	Dir string `toml:"dir" yaml:"dir"`
}

type Config struct {
	Application ApplicationConfig `toml:"application" yaml:"application"`
	Logging     LoggingConfig     `toml:"logging" yaml:"logging"`
	Benchmark   BenchmarkConfig   `toml:"benchmark" yaml:"benchmark"`
	Assets      AssetsConfig      `toml:"assets" yaml:"assets"`
}

func DefaultConfig() *Config {
	return &Config{
		Application: ApplicationConfig{
			Name:   "Anima QuadBench",
			Width:  1280,
			Height: 720,
			PosX:   100,
			PosY:   100,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Benchmark: BenchmarkConfig{
			Solution:     "GLSparseBindlessTextureArray",
			Frames:       0,
			GridWidth:    100,
			GridHeight:   100,
			TextureCount: 100,
			TextureSize:  256,
			Seed:         1,
		},
		Assets: AssetsConfig{
			Dir: "assets",
		},
	}
}

// LoadConfig reads a TOML file, or a YAML file when the extension is .yaml or
// .yml, on top of DefaultConfig. Keys missing from the file keep their
// default, unknown keys are an error.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAMLConfig(data)
	}
	return ParseConfig(data)
}

func ParseYAMLConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	// An empty document keeps the defaults.
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: %s", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.Application.Width == 0 || c.Application.Height == 0:
		return fmt.Errorf("%w: window size must be > 0", ErrInvalidConfig)
	case c.Benchmark.Solution == "":
		return fmt.Errorf("%w: benchmark.solution is empty", ErrInvalidConfig)
	case c.Benchmark.GridWidth == 0 || c.Benchmark.GridHeight == 0:
		return fmt.Errorf("%w: grid size must be > 0", ErrInvalidConfig)
	case c.Benchmark.TextureCount == 0:
		return fmt.Errorf("%w: benchmark.texture_count must be > 0", ErrInvalidConfig)
	case c.Benchmark.TextureSize == 0 || c.Benchmark.TextureSize&(c.Benchmark.TextureSize-1) != 0:
		return fmt.Errorf("%w: benchmark.texture_size must be a power of two", ErrInvalidConfig)
	}
	return nil
}

// ObjectCount is the number of quads drawn per frame.
func (c *Config) ObjectCount() int {
	return int(c.Benchmark.GridWidth) * int(c.Benchmark.GridHeight)
}
