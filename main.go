/*
Runs one textured quads solution in a window and reports its frame times.
*/
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/quadbench/engine"
	"github.com/spaghettifunk/quadbench/engine/core"
	"github.com/spaghettifunk/quadbench/engine/solutions"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to the benchmark configuration")
	solution := flag.String("solution", "", "solution to run, overrides the configuration")
	frames := flag.Uint64("frames", 0, "frames to render, overrides the configuration when > 0")
	list := flag.Bool("list", false, "list the available solutions and exit")
	flag.Parse()

	if *list {
		for _, name := range solutions.Names() {
			core.LogInfo(name)
		}
		return
	}

	cfg, err := core.LoadConfig(*configPath)
	if err != nil {
		core.LogFatal("unable to load configuration: %s", err)
	}
	if *solution != "" {
		cfg.Benchmark.Solution = *solution
	}
	if *frames > 0 {
		cfg.Benchmark.Frames = *frames
	}

	e, err := engine.New(cfg)
	if err != nil {
		core.LogFatal(err.Error())
	}

	if err := e.Initialize(); err != nil {
		_ = e.Shutdown()
		core.LogFatal(err.Error())
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	// GL calls must stay on this thread, so the handler only stops the loop
	go func() {
		<-sigCh
		e.Stop()
	}()

	if _, err := e.Run(); err != nil {
		core.LogError(err.Error())
	}
	if err := e.Shutdown(); err != nil {
		core.LogFatal(err.Error())
	}
}
