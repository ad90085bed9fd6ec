package main

import (
	"bytes"
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/easyfs/pkg/bcache"
	"github.com/example/easyfs/pkg/blockdev"
	"github.com/example/easyfs/pkg/efs"
	"github.com/example/easyfs/pkg/kernel"
	"github.com/example/easyfs/pkg/server"
)

func startServer(t *testing.T) string {
	t.Helper()
	fsys, err := efs.Create(bcache.New(blockdev.NewMemDevice(2048), bcache.DefaultCapacity), 2048, 1)
	if err != nil {
		t.Fatalf("Failed to format image: %v", err)
	}
	fileServer, err := server.NewFileServer(server.DefaultConfig(), kernel.NewResolver(fsys))
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		fileServer.Serve(ctx, lis)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return lis.Addr().String()
}

func run(t *testing.T, addr string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.RunContext(context.Background(), append([]string{"efsctl", "-s", addr}, args...))
	return out.String(), err
}

func TestCommands(t *testing.T) {
	addr := startServer(t)
	local := filepath.Join(t.TempDir(), "local.txt")
	if err := os.WriteFile(local, []byte("hello from the host\n"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	steps := []struct {
		args []string
		want string
	}{
		{[]string{"put", "a", local}, ""},
		{[]string{"cat", "a"}, "hello from the host\n"},
		{[]string{"link", "a", "b"}, ""},
		{[]string{"ls", "-l"}, "a\nb\ninode 1: 2 links\n"},
		{[]string{"stat", "b"}, "name:  b\ninode: 1\nmode:  regular\nlinks: 2\n"},
		{[]string{"unlink", "a"}, ""},
		{[]string{"ls", "-a"}, "<deleted>\nb\n"},
		{[]string{"cat", "b"}, "hello from the host\n"},
	}
	for _, step := range steps {
		got, err := run(t, addr, step.args...)
		if err != nil {
			t.Fatalf("efsctl %v failed: %v", step.args, err)
		}
		if got != step.want {
			t.Errorf("efsctl %v printed %q, expected %q", step.args, got, step.want)
		}
	}

	got, err := run(t, addr, "df")
	if err != nil {
		t.Fatalf("efsctl df failed: %v", err)
	}
	if !strings.Contains(got, "block size:  512") || !strings.Contains(got, "name limit:  27") {
		t.Errorf("efsctl df printed %q", got)
	}
}

func TestCommandErrors(t *testing.T) {
	addr := startServer(t)

	if _, err := run(t, addr, "cat"); !errors.Is(err, errUsage) {
		t.Errorf("cat without a name: expected errUsage, got %v", err)
	}
	if _, err := run(t, addr, "link", "a"); !errors.Is(err, errUsage) {
		t.Errorf("link with one name: expected errUsage, got %v", err)
	}
	if _, err := run(t, addr, "cat", "missing"); err == nil {
		t.Error("cat of a missing file should fail")
	}
}
