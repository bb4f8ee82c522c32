// Command mini-voxel opens a window and flies a camera over the streamed
// world.
package main

import (
	"context"
	"flag"
	"log"
	"runtime"

	"mini-voxel/internal/config"

	"github.com/go-gl/glfw/v3.3/glfw"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "", "YAML config file (defaults to $"+config.EnvPath+")")
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	config.SetRenderDistance(cfg.ViewRadius)

	if err := glfw.Init(); err != nil {
		log.Fatalf("glfw: %v", err)
	}
	defer glfw.Terminate()

	window, err := setupWindow()
	if err != nil {
		log.Fatalf("window: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	v, err := setupViewer(ctx, window, cfg)
	if err != nil {
		log.Fatalf("viewer: %v", err)
	}
	defer v.Dispose()

	if err := v.Run(); err != nil {
		log.Printf("viewer: %v", err)
	}
}
