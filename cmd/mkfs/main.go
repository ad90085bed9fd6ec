package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/example/easyfs/pkg/bcache"
	"github.com/example/easyfs/pkg/blockdev"
	"github.com/example/easyfs/pkg/efs"
	"github.com/example/easyfs/pkg/fs"
	"github.com/example/easyfs/pkg/kernel"
)

func main() {
	output := flag.String("o", "fs.img", "Path of the image to create")
	blocks := flag.Uint("blocks", 16*2048, "Size of the image in blocks")
	inodeBitmap := flag.Uint("inode-bitmap", 1, "Number of inode bitmap blocks")
	packDir := flag.String("pack", "", "Copy the regular files of this directory into the image")
	mem := flag.Bool("mem", false, "Build the image in memory without writing it")
	flag.Parse()

	var dev blockdev.Device
	if *mem {
		dev = blockdev.NewMemDevice(uint32(*blocks))
	} else {
		fileDev, err := blockdev.CreateFile(*output, uint32(*blocks))
		if err != nil {
			log.Fatalf("Failed to create image: %v", err)
		}
		defer fileDev.Close()
		dev = fileDev
	}

	fsys, err := efs.Create(bcache.New(dev, bcache.DefaultCapacity), uint32(*blocks), uint32(*inodeBitmap))
	if err != nil {
		log.Fatalf("Failed to format image: %v", err)
	}

	r := kernel.NewResolver(fsys)
	if *packDir != "" {
		n, err := pack(context.Background(), r, *packDir)
		if err != nil {
			log.Fatalf("Failed to pack %s: %v", *packDir, err)
		}
		log.Printf("Packed %d files from %s", n, *packDir)
	}

	if err := fsys.Cache().SyncAll(); err != nil {
		log.Fatalf("Failed to flush image: %v", err)
	}
	st, err := r.StatFS()
	if err != nil {
		log.Fatalf("Failed to stat image: %v", err)
	}
	fmt.Printf("%d blocks, %d/%d data blocks free, %d/%d inodes free\n",
		st.TotalBlocks, st.FreeBlocks, st.DataBlocks, st.FreeFiles, st.TotalFiles)
}

type hostFile struct {
	name string
	data []byte
}

// pack copies every regular file directly under dir into the root directory
// of r, in name order. Files are read concurrently and written one by one.
func pack(ctx context.Context, r *kernel.Resolver, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	files := make([]hostFile, len(names))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(filepath.Join(dir, name))
			if err != nil {
				return err
			}
			files[i] = hostFile{name: name, data: data}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	for _, f := range files {
		file, err := r.OpenFile(f.name, fs.CREATE|fs.WRONLY)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", f.name, err)
		}
		if _, err := file.Write(fs.Buffers{f.data}); err != nil {
			return 0, fmt.Errorf("%s: %w", f.name, err)
		}
	}
	return len(files), nil
}
