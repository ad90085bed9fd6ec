package fuse

import (
	"context"
	"errors"
	"fmt"
	"log"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"
	"github.com/moby/sys/mountinfo"

	"github.com/example/easyfs/pkg/bcache"
	"github.com/example/easyfs/pkg/blockdev"
	"github.com/example/easyfs/pkg/efs"
	"github.com/example/easyfs/pkg/kernel"
)

// ErrMounted is returned when the mount point already has a filesystem on it
var ErrMounted = errors.New("mount point is already in use")

// MountOptions contains options for mounting an image
type MountOptions struct {
	MountPoint  string
	ImagePath   string
	CacheBlocks int
	ReadOnly    bool
	AllowOther  bool
	Debug       bool
}

// CheckMountPoint refuses a mount point that is already mounted
func CheckMountPoint(mountPoint string) error {
	mounted, err := mountinfo.Mounted(mountPoint)
	if err != nil {
		return fmt.Errorf("check mount point %s: %w", mountPoint, err)
	}
	if mounted {
		return fmt.Errorf("%s: %w", mountPoint, ErrMounted)
	}
	return nil
}

// Mount serves the image at options.ImagePath on options.MountPoint until
// ctx is cancelled or the filesystem is unmounted externally
func Mount(ctx context.Context, options MountOptions) error {
	if err := CheckMountPoint(options.MountPoint); err != nil {
		return err
	}
	if options.CacheBlocks < bcache.MinCapacity {
		options.CacheBlocks = bcache.DefaultCapacity
	}

	dev, err := blockdev.OpenFile(options.ImagePath)
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	defer dev.Close()

	fsys, err := efs.Open(bcache.New(dev, options.CacheBlocks))
	if err != nil {
		return fmt.Errorf("failed to open filesystem: %w", err)
	}
	resolver := kernel.NewResolver(fsys)

	mountOpts := []fuse.MountOption{
		fuse.FSName("easy-fs"),
		fuse.Subtype("efs"),
	}
	if options.ReadOnly {
		mountOpts = append(mountOpts, fuse.ReadOnly())
	}
	if options.AllowOther {
		mountOpts = append(mountOpts, fuse.AllowOther())
	}
	if options.Debug {
		fuse.Debug = func(msg interface{}) {
			log.Printf("FUSE: %v", msg)
		}
	}

	log.Printf("Mounting %s at %s", options.ImagePath, options.MountPoint)
	c, err := fuse.Mount(options.MountPoint, mountOpts...)
	if err != nil {
		return fmt.Errorf("failed to mount: %w", err)
	}
	defer c.Close()

	served := make(chan error, 1)
	go func() {
		served <- fusefs.Serve(c, NewEFS(resolver))
	}()

	select {
	case <-ctx.Done():
		log.Println("Unmounting filesystem...")
		if err := Unmount(options.MountPoint); err != nil {
			log.Printf("Warning: failed to unmount cleanly: %v", err)
		}
		err = <-served
	case err = <-served:
	}

	if syncErr := fsys.Cache().SyncAll(); syncErr != nil && err == nil {
		err = syncErr
	}
	return err
}

// Unmount unmounts the filesystem
func Unmount(mountPoint string) error {
	return fuse.Unmount(mountPoint)
}
