//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Vets the module and runs every test. The GL bindings need cgo.
func (Build) Check() error {
	if _, err := executeCmd("go", withArgs("vet", "./..."), withEnv("CGO_ENABLED=1")); err != nil {
		return err
	}
	if _, err := executeCmd("go", withArgs("test", "./..."), withEnv("CGO_ENABLED=1"), withStream()); err != nil {
		return err
	}
	return nil
}

// Compiles the benchmark binary into bin/quadbench.
func (Build) Binary() error {
	_, err := executeCmd("go", withArgs("build", "-o", "bin/quadbench", "."), withEnv("CGO_ENABLED=1"), withStream())
	return err
}
