package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/example/easyfs/pkg/bcache"
	"github.com/example/easyfs/pkg/blockdev"
	"github.com/example/easyfs/pkg/efs"
	"github.com/example/easyfs/pkg/kernel"
	"github.com/example/easyfs/pkg/server"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "efs.yaml", "Path of the yaml configuration file")
	listenAddr := flag.String("listen", "", "Network address to listen on")
	imagePath := flag.String("image", "", "easy-fs image to serve")
	maxConcurrent := flag.Int("max-concurrent", 0, "Maximum concurrent requests")
	flag.Parse()

	config, err := server.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// flags override the file and the environment
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "listen":
			config.ListenAddress = *listenAddr
		case "image":
			config.ImagePath = *imagePath
		case "max-concurrent":
			config.MaxConcurrent = *maxConcurrent
		}
	})

	dev, err := blockdev.OpenFile(config.ImagePath)
	if err != nil {
		log.Fatalf("Failed to open image: %v", err)
	}
	defer dev.Close()

	fsys, err := efs.Open(bcache.New(dev, config.CacheBlocks))
	if err != nil {
		log.Fatalf("Failed to open filesystem: %v", err)
	}

	fileServer, err := server.NewFileServer(config, kernel.NewResolver(fsys))
	if err != nil {
		log.Fatalf("Failed to create file server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := fileServer.Start(ctx); err != nil {
		log.Printf("Server error: %v", err)
	}

	if err := fsys.Cache().SyncAll(); err != nil {
		log.Printf("Failed to flush image: %v", err)
	}
	log.Println("File server stopped")
}
