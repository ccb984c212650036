//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Runs the benchmark with config.toml. QUADBENCH_SOLUTION and
// QUADBENCH_FRAMES override the configured solution and frame count.
func (Run) Bench() error {
	args := []string{"run", ".", "-config", "config.toml"}
	if s := os.Getenv("QUADBENCH_SOLUTION"); s != "" {
		args = append(args, "-solution", s)
	}
	if f := os.Getenv("QUADBENCH_FRAMES"); f != "" {
		args = append(args, "-frames", f)
	}
	fmt.Println("Run benchmark...")
	_, err := executeCmd("go", withArgs(args...), withStream())
	return err
}

// Lists the registered solutions.
func (Run) List() error {
	_, err := executeCmd("go", withArgs("run", ".", "-list"), withStream())
	return err
}
