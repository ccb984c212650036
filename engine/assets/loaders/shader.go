package loaders

import (
	"os"

	"github.com/spaghettifunk/quadbench/engine/renderer/metadata"
)

type ShaderLoader struct{}

// Load reads a GLSL stage. The resource data is the source as a string.
func (sl *ShaderLoader) Load(path string, params interface{}) (*metadata.Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &metadata.Resource{
		Name:     "shader",
		FullPath: path,
		DataSize: uint64(len(data)),
		Data:     string(data),
	}, nil
}

func (sl *ShaderLoader) Unload(*metadata.Resource) error {
	return nil
}
