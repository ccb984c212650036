package solutions

import (
	"fmt"
	"sort"

	"github.com/spaghettifunk/quadbench/engine/core"
	"github.com/spaghettifunk/quadbench/engine/systems"
)

// Factory builds a solution that loads its programs through shaders.
type Factory func(shaders *systems.ShaderSystem) Solution

var registry = map[string]Factory{
	SparseBindlessTextureArrayName: func(shaders *systems.ShaderSystem) Solution {
		return NewSparseBindlessTextureArray(shaders)
	},
}

// New returns the solution registered under name.
func New(name string, shaders *systems.ShaderSystem) (Solution, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", core.ErrUnknownSolution, name, Names())
	}
	return factory(shaders), nil
}

// Names lists the registered solutions in lexical order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
