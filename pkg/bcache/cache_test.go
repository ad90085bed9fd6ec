package bcache

import (
	"errors"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/example/easyfs/pkg/blockdev"
)

func TestModifyIsWrittenOnSync(t *testing.T) {
	dev := blockdev.NewMemDevice(4)
	cache := New(dev, 2)

	err := cache.Modify(1, 10, 3, func(p []byte) {
		copy(p, "abc")
	})
	if err != nil {
		t.Fatalf("Modify failed: %v", err)
	}

	raw := make([]byte, blockdev.BlockSize)
	dev.ReadBlock(1, raw)
	if string(raw[10:13]) == "abc" {
		t.Fatal("Block reached the device before SyncAll")
	}

	if err := cache.SyncAll(); err != nil {
		t.Fatalf("SyncAll failed: %v", err)
	}
	dev.ReadBlock(1, raw)
	if string(raw[10:13]) != "abc" {
		t.Errorf("Device content after SyncAll: got %q, want %q", raw[10:13], "abc")
	}
}

func TestReadSeesModify(t *testing.T) {
	cache := New(blockdev.NewMemDevice(4), 4)

	cache.Modify(2, 0, 4, func(p []byte) {
		copy(p, []byte{1, 2, 3, 4})
	})

	var got []byte
	cache.Read(2, 1, 2, func(p []byte) {
		got = append(got, p...)
	})
	if len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Errorf("Read after Modify: got %v, want [2 3]", got)
	}
}

func TestEvictionWritesBack(t *testing.T) {
	dev := blockdev.NewMemDevice(8)
	cache := New(dev, 2)

	cache.Modify(0, 0, 1, func(p []byte) { p[0] = 0xAA })
	cache.Read(1, 0, 1, func(p []byte) {})
	// Loading a third block evicts block 0, the oldest one
	cache.Read(2, 0, 1, func(p []byte) {})

	if cache.Len() != 2 {
		t.Errorf("Cache length: got %d, want 2", cache.Len())
	}

	raw := make([]byte, blockdev.BlockSize)
	dev.ReadBlock(0, raw)
	if raw[0] != 0xAA {
		t.Errorf("Evicted dirty block was not written back")
	}

	var b byte
	cache.Read(0, 0, 1, func(p []byte) { b = p[0] })
	if b != 0xAA {
		t.Errorf("Reloaded block: got %x, want aa", b)
	}
}

func TestPinnedBlocksAreNotEvicted(t *testing.T) {
	cache := New(blockdev.NewMemDevice(8), 2)

	b0, err := cache.Get(0)
	if err != nil {
		t.Fatalf("Get(0) failed: %v", err)
	}
	b1, err := cache.Get(1)
	if err != nil {
		t.Fatalf("Get(1) failed: %v", err)
	}

	if _, err := cache.Get(2); !errors.Is(err, ErrCacheFull) {
		t.Errorf("Expected ErrCacheFull with every block pinned, got %v", err)
	}

	b0.Release()
	b2, err := cache.Get(2)
	if err != nil {
		t.Fatalf("Get(2) after release failed: %v", err)
	}
	if b2.ID() != 2 {
		t.Errorf("Block id: got %d, want 2", b2.ID())
	}
	b1.Release()
	b2.Release()
}

func TestGetReturnsSameBlock(t *testing.T) {
	cache := New(blockdev.NewMemDevice(2), 0)

	a, _ := cache.Get(1)
	b, _ := cache.Get(1)
	if a != b {
		t.Error("Two gets of one block id returned different blocks")
	}
	a.Release()
	b.Release()
}

func TestDeviceErrorIsReturned(t *testing.T) {
	cache := New(blockdev.NewMemDevice(2), 2)
	if _, err := cache.Get(5); !errors.Is(err, blockdev.ErrOutOfRange) {
		t.Errorf("Expected ErrOutOfRange, got %v", err)
	}
	if cache.Len() != 0 {
		t.Errorf("Failed load left %d blocks cached", cache.Len())
	}
}

func TestNestedAccessDuringEviction(t *testing.T) {
	dev := blockdev.NewMemDevice(64)
	cache := New(dev, MinCapacity)

	done := make(chan error, 1)
	go func() {
		var g errgroup.Group
		for w := 0; w < 6; w++ {
			g.Go(func() error {
				for i := 0; i < 200; i++ {
					outer := uint32(w*8 + i%8)
					inner := uint32(48 + (w+i)%16)
					var innerErr error
					err := cache.Modify(outer, 0, 1, func(p []byte) {
						innerErr = cache.Read(inner, 0, 1, func([]byte) {})
						p[0]++
					})
					for _, err := range []error{err, innerErr} {
						if err != nil && !errors.Is(err, ErrCacheFull) {
							return err
						}
					}
				}
				return nil
			})
		}
		g.Go(func() error {
			for i := 0; i < 100; i++ {
				if err := cache.SyncAll(); err != nil {
					return err
				}
			}
			return nil
		})
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Nested access failed: %v", err)
		}
	case <-time.After(30 * time.Second):
		t.Fatal("Nested access did not finish; lock order violated")
	}
}
