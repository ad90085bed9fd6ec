package server

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/kylelemons/godebug/pretty"

	"github.com/example/easyfs/pkg/api"
	"github.com/example/easyfs/pkg/bcache"
	"github.com/example/easyfs/pkg/blockdev"
	"github.com/example/easyfs/pkg/efs"
	"github.com/example/easyfs/pkg/fs"
	"github.com/example/easyfs/pkg/kernel"
)

func setupServer(t *testing.T) *FileServer {
	t.Helper()

	dev := blockdev.NewMemDevice(2048)
	fsys, err := efs.Create(bcache.New(dev, bcache.DefaultCapacity), 2048, 1)
	if err != nil {
		t.Fatalf("Failed to format image: %v", err)
	}

	config := DefaultConfig()
	config.MaxReadSize = 1000
	config.MaxWriteSize = 4096
	server, err := NewFileServer(config, kernel.NewResolver(fsys))
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	return server
}

func openSession(t *testing.T, server *FileServer) string {
	t.Helper()
	resp, err := server.OpenSession(context.Background(), &api.OpenSessionRequest{ClientName: "test"})
	if err != nil || resp.Status != api.Status_OK {
		t.Fatalf("OpenSession failed: %v, %v", resp.GetStatus(), err)
	}
	return resp.SessionId
}

func TestOpenWriteRead(t *testing.T) {
	server := setupServer(t)
	ctx := context.Background()
	sid := openSession(t, server)

	openResp, err := server.Open(ctx, &api.OpenRequest{SessionId: sid, Name: "hello.txt", Flags: uint32(fs.CREATE | fs.RDWR)})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if openResp.Status != api.Status_OK {
		t.Fatalf("Open status: got %s", openResp.Status)
	}

	data := bytes.Repeat([]byte("0123456789"), 150)
	writeResp, _ := server.Write(ctx, &api.WriteRequest{SessionId: sid, Fd: openResp.Fd, Data: data})
	if writeResp.Status != api.Status_OK || writeResp.Count != uint32(len(data)) {
		t.Fatalf("Write: got (%s, %d)", writeResp.Status, writeResp.Count)
	}

	// A second descriptor starts at offset 0
	rdResp, _ := server.Open(ctx, &api.OpenRequest{SessionId: sid, Name: "hello.txt", Flags: uint32(fs.RDONLY)})
	if rdResp.Fd != openResp.Fd+1 {
		t.Errorf("Second descriptor: got %d, want %d", rdResp.Fd, openResp.Fd+1)
	}

	var got []byte
	for {
		readResp, _ := server.Read(ctx, &api.ReadRequest{SessionId: sid, Fd: rdResp.Fd, Count: 4096})
		if readResp.Status != api.Status_OK {
			t.Fatalf("Read status: got %s", readResp.Status)
		}
		if len(readResp.Data) > 1000 {
			t.Fatalf("Read returned %d bytes, above the configured limit", len(readResp.Data))
		}
		got = append(got, readResp.Data...)
		if readResp.Eof {
			break
		}
	}
	if !bytes.Equal(got, data) {
		t.Errorf("Read back %d bytes, want %d", len(got), len(data))
	}
}

func TestErrorStatuses(t *testing.T) {
	server := setupServer(t)
	ctx := context.Background()
	sid := openSession(t, server)

	resp, _ := server.Open(ctx, &api.OpenRequest{SessionId: sid, Name: "missing", Flags: uint32(fs.RDONLY)})
	if resp.Status != api.Status_ERR_NOENT {
		t.Errorf("Open missing: got %s, want ERR_NOENT", resp.Status)
	}

	resp, _ = server.Open(ctx, &api.OpenRequest{SessionId: sid, Name: "this-name-is-far-too-long-for-easy-fs", Flags: uint32(fs.CREATE)})
	if resp.Status != api.Status_ERR_NAMETOOLONG {
		t.Errorf("Open long name: got %s, want ERR_NAMETOOLONG", resp.Status)
	}

	readResp, _ := server.Read(ctx, &api.ReadRequest{SessionId: sid, Fd: 42, Count: 10})
	if readResp.Status != api.Status_ERR_BADF {
		t.Errorf("Read bad fd: got %s, want ERR_BADF", readResp.Status)
	}

	wo, _ := server.Open(ctx, &api.OpenRequest{SessionId: sid, Name: "w", Flags: uint32(fs.CREATE | fs.WRONLY)})
	readResp, _ = server.Read(ctx, &api.ReadRequest{SessionId: sid, Fd: wo.Fd, Count: 10})
	if readResp.Status != api.Status_ERR_ACCES {
		t.Errorf("Read write-only fd: got %s, want ERR_ACCES", readResp.Status)
	}

	writeResp, _ := server.Write(ctx, &api.WriteRequest{SessionId: sid, Fd: wo.Fd, Data: make([]byte, 5000)})
	if writeResp.Status != api.Status_ERR_FBIG {
		t.Errorf("Oversized write: got %s, want ERR_FBIG", writeResp.Status)
	}

	statResp, _ := server.StatFS(ctx, &api.StatFSRequest{SessionId: "no-such-session"})
	if statResp.Status != api.Status_ERR_BADSESSION {
		t.Errorf("Unknown session: got %s, want ERR_BADSESSION", statResp.Status)
	}
}

func TestLinkUnlinkList(t *testing.T) {
	server := setupServer(t)
	ctx := context.Background()
	sid := openSession(t, server)

	fd, _ := server.Open(ctx, &api.OpenRequest{SessionId: sid, Name: "a", Flags: uint32(fs.CREATE | fs.RDWR)})
	if resp, _ := server.Link(ctx, &api.LinkRequest{SessionId: sid, OldName: "a", NewName: "b"}); resp.Status != api.Status_OK {
		t.Fatalf("Link: got %s", resp.Status)
	}
	if resp, _ := server.Link(ctx, &api.LinkRequest{SessionId: sid, OldName: "a", NewName: "b"}); resp.Status != api.Status_ERR_EXIST {
		t.Errorf("Link onto existing name: got %s, want ERR_EXIST", resp.Status)
	}

	statResp, _ := server.Fstat(ctx, &api.FstatRequest{SessionId: sid, Fd: fd.Fd})
	want := &api.Stat{Ino: 1, Mode: uint32(fs.ModeFile), Nlink: 2}
	if diff := pretty.Compare(statResp.Stat, want); diff != "" {
		t.Errorf("Fstat mismatch (-got +want):\n%s", diff)
	}

	if resp, _ := server.Unlink(ctx, &api.UnlinkRequest{SessionId: sid, Name: "a"}); resp.Status != api.Status_OK {
		t.Fatalf("Unlink: got %s", resp.Status)
	}
	if resp, _ := server.Unlink(ctx, &api.UnlinkRequest{SessionId: sid, Name: "a"}); resp.Status != api.Status_ERR_NOENT {
		t.Errorf("Second unlink: got %s, want ERR_NOENT", resp.Status)
	}

	listResp, _ := server.List(ctx, &api.ListRequest{SessionId: sid})
	wantList := &api.ListResponse{
		Status:    api.Status_OK,
		Names:     []string{"", "b"},
		HardLinks: []*api.HardLink{{InodeId: 1, Count: 1}},
	}
	if diff := pretty.Compare(listResp, wantList); diff != "" {
		t.Errorf("List mismatch (-got +want):\n%s", diff)
	}
}

func TestSessions(t *testing.T) {
	server := setupServer(t)
	ctx := context.Background()

	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	server.now = func() time.Time { return clock }

	idle := openSession(t, server)
	busy := openSession(t, server)
	if idle == busy {
		t.Fatal("Two sessions share an id")
	}

	// Descriptor tables are per session
	a, _ := server.Open(ctx, &api.OpenRequest{SessionId: idle, Name: "f", Flags: uint32(fs.CREATE | fs.RDWR)})
	b, _ := server.Open(ctx, &api.OpenRequest{SessionId: busy, Name: "f", Flags: uint32(fs.RDWR)})
	if a.Fd != 0 || b.Fd != 0 {
		t.Errorf("First descriptors: got %d and %d, want 0 and 0", a.Fd, b.Fd)
	}

	clock = clock.Add(server.config.SessionTTL - time.Second)
	server.StatFS(ctx, &api.StatFSRequest{SessionId: busy})
	clock = clock.Add(2 * time.Second)

	if n := server.expireSessions(); n != 1 {
		t.Errorf("Expired sessions: got %d, want 1", n)
	}
	if resp, _ := server.List(ctx, &api.ListRequest{SessionId: idle}); resp.Status != api.Status_ERR_BADSESSION {
		t.Errorf("Expired session still usable: got %s", resp.Status)
	}

	closeResp, _ := server.CloseSession(ctx, &api.CloseSessionRequest{SessionId: busy})
	if closeResp.Status != api.Status_OK || closeResp.ClosedFds != 1 {
		t.Errorf("CloseSession: got (%s, %d), want (OK, 1)", closeResp.Status, closeResp.ClosedFds)
	}
	if server.SessionCount() != 0 {
		t.Errorf("SessionCount: got %d, want 0", server.SessionCount())
	}
	closeResp, _ = server.CloseSession(ctx, &api.CloseSessionRequest{SessionId: busy})
	if closeResp.Status != api.Status_ERR_BADSESSION {
		t.Errorf("Second CloseSession: got %s", closeResp.Status)
	}
}

func TestWorkerPoolTimeout(t *testing.T) {
	server := setupServer(t)
	server.config.RequestTimeout = 20 * time.Millisecond
	server.workerPool = make(chan struct{}, 1)
	server.workerPool <- struct{}{}

	_, err := server.OpenSession(context.Background(), &api.OpenSessionRequest{})
	if err == nil {
		t.Fatal("Expected a timeout while every worker is busy")
	}
	if server.SessionCount() != 0 {
		t.Errorf("Session created despite timeout")
	}
}
