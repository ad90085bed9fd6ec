package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/easyfs/pkg/fuse"
)

func main() {
	// Parse command line arguments
	mountPoint := flag.String("mount", "", "Mount point for the image")
	imagePath := flag.String("image", "fs.img", "easy-fs image to mount")
	cacheBlocks := flag.Int("cache", 16, "Number of blocks to cache")
	readOnly := flag.Bool("readonly", false, "Mount filesystem as read-only")
	allowOther := flag.Bool("allow-other", false, "Allow other users to access the mount")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *mountPoint == "" {
		fmt.Println("Error: Mount point is required")
		flag.Usage()
		os.Exit(1)
	}

	// Ensure mount point exists
	if _, err := os.Stat(*mountPoint); os.IsNotExist(err) {
		log.Printf("Creating mount point: %s", *mountPoint)
		if err := os.MkdirAll(*mountPoint, 0755); err != nil {
			log.Fatalf("Failed to create mount point: %v", err)
		}
	}

	options := fuse.MountOptions{
		MountPoint:  *mountPoint,
		ImagePath:   *imagePath,
		CacheBlocks: *cacheBlocks,
		ReadOnly:    *readOnly,
		AllowOther:  *allowOther,
		Debug:       *debug,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Println("Press Ctrl+C to unmount")
	if err := fuse.Mount(ctx, options); err != nil {
		log.Fatalf("Error mounting filesystem: %v", err)
	}
	log.Println("Filesystem unmounted")
}
