package fuse

import (
	"context"
	"errors"
	"syscall"
	"testing"

	"bazil.org/fuse"
	"github.com/kylelemons/godebug/pretty"

	"github.com/example/easyfs/pkg/bcache"
	"github.com/example/easyfs/pkg/blockdev"
	"github.com/example/easyfs/pkg/efs"
	"github.com/example/easyfs/pkg/fs"
	"github.com/example/easyfs/pkg/kernel"
)

func setupRoot(t *testing.T) (*Dir, *kernel.Resolver) {
	t.Helper()
	dev := blockdev.NewMemDevice(2048)
	fsys, err := efs.Create(bcache.New(dev, bcache.DefaultCapacity), 2048, 1)
	if err != nil {
		t.Fatalf("Failed to format image: %v", err)
	}
	r := kernel.NewResolver(fsys)
	root, err := NewEFS(r).Root()
	if err != nil {
		t.Fatalf("Root failed: %v", err)
	}
	return root.(*Dir), r
}

func create(t *testing.T, d *Dir, name string, data string) (*File, *FileHandle) {
	t.Helper()
	ctx := context.Background()
	node, handle, err := d.Create(ctx, &fuse.CreateRequest{Name: name, Flags: fuse.OpenReadWrite}, &fuse.CreateResponse{})
	if err != nil {
		t.Fatalf("Create(%q) failed: %v", name, err)
	}
	h := handle.(*FileHandle)
	if data != "" {
		resp := &fuse.WriteResponse{}
		if err := h.Write(ctx, &fuse.WriteRequest{Data: []byte(data)}, resp); err != nil {
			t.Fatalf("Write(%q) failed: %v", name, err)
		}
		if resp.Size != len(data) {
			t.Fatalf("Write(%q) wrote %d bytes, expected %d", name, resp.Size, len(data))
		}
	}
	return node.(*File), h
}

func TestCreateReadWrite(t *testing.T) {
	ctx := context.Background()
	d, _ := setupRoot(t)
	f, h := create(t, d, "hello", "hello, world")

	var attr fuse.Attr
	if err := f.Attr(ctx, &attr); err != nil {
		t.Fatalf("Attr failed: %v", err)
	}
	if attr.Inode != 2 || attr.Size != 12 || attr.Nlink != 1 {
		t.Errorf("Attr = inode %d size %d nlink %d, expected 2 12 1", attr.Inode, attr.Size, attr.Nlink)
	}

	testCases := []struct {
		offset int64
		size   int
		want   string
	}{
		{0, 5, "hello"},
		{7, 100, "world"},
		{12, 10, ""},
		{100, 10, ""},
	}
	for _, tc := range testCases {
		resp := &fuse.ReadResponse{}
		if err := h.Read(ctx, &fuse.ReadRequest{Offset: tc.offset, Size: tc.size}, resp); err != nil {
			t.Fatalf("Read(%d, %d) failed: %v", tc.offset, tc.size, err)
		}
		if string(resp.Data) != tc.want {
			t.Errorf("Read(%d, %d) = %q, expected %q", tc.offset, tc.size, resp.Data, tc.want)
		}
	}

	var dirAttr fuse.Attr
	if err := d.Attr(ctx, &dirAttr); err != nil {
		t.Fatalf("Dir Attr failed: %v", err)
	}
	if dirAttr.Inode != 1 || !dirAttr.Mode.IsDir() || dirAttr.Size != 32 {
		t.Errorf("Dir Attr = inode %d mode %v size %d", dirAttr.Inode, dirAttr.Mode, dirAttr.Size)
	}
}

func TestLookup(t *testing.T) {
	ctx := context.Background()
	d, _ := setupRoot(t)
	create(t, d, "a", "data")

	node, err := d.Lookup(ctx, "a")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if id := node.(*File).inode.InodeID(); id != 1 {
		t.Errorf("Lookup returned inode %d, expected 1", id)
	}
	if _, err := d.Lookup(ctx, "missing"); err != fuse.Errno(syscall.ENOENT) {
		t.Errorf("Lookup of a missing name: expected ENOENT, got %v", err)
	}
}

func TestReadDirAllHidesDeleted(t *testing.T) {
	ctx := context.Background()
	d, r := setupRoot(t)
	for _, name := range []string{"x", "y", "z"} {
		create(t, d, name, name)
	}
	if err := d.Remove(ctx, &fuse.RemoveRequest{Name: "y"}); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	names, err := r.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if diff := pretty.Compare(names, []string{"x", "", "z"}); diff != "" {
		t.Errorf("List diff (-got +want):\n%s", diff)
	}

	dirents, err := d.ReadDirAll(ctx)
	if err != nil {
		t.Fatalf("ReadDirAll failed: %v", err)
	}
	want := []fuse.Dirent{
		{Inode: 2, Name: "x", Type: fuse.DT_File},
		{Inode: 4, Name: "z", Type: fuse.DT_File},
	}
	if diff := pretty.Compare(dirents, want); diff != "" {
		t.Errorf("ReadDirAll diff (-got +want):\n%s", diff)
	}
}

func TestLinkRemove(t *testing.T) {
	ctx := context.Background()
	d, r := setupRoot(t)
	f, _ := create(t, d, "a", "shared")

	node, err := d.Link(ctx, &fuse.LinkRequest{NewName: "b"}, f)
	if err != nil {
		t.Fatalf("Link failed: %v", err)
	}
	if _, err := d.Link(ctx, &fuse.LinkRequest{NewName: "b"}, f); err != fuse.Errno(syscall.EEXIST) {
		t.Errorf("Link onto an existing name: expected EEXIST, got %v", err)
	}

	var attr fuse.Attr
	if err := node.Attr(ctx, &attr); err != nil {
		t.Fatalf("Attr failed: %v", err)
	}
	if attr.Nlink != 2 {
		t.Errorf("Nlink after link = %d, expected 2", attr.Nlink)
	}

	if err := d.Remove(ctx, &fuse.RemoveRequest{Name: "a"}); err != nil {
		t.Fatalf("Remove(a) failed: %v", err)
	}
	b, err := d.Lookup(ctx, "b")
	if err != nil {
		t.Fatalf("Lookup(b) failed: %v", err)
	}
	h, err := b.(*File).Open(ctx, &fuse.OpenRequest{Flags: fuse.OpenReadOnly}, &fuse.OpenResponse{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	resp := &fuse.ReadResponse{}
	if err := h.(*FileHandle).Read(ctx, &fuse.ReadRequest{Size: 64}, resp); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(resp.Data) != "shared" {
		t.Errorf("Read through remaining link = %q, expected %q", resp.Data, "shared")
	}

	if err := d.Remove(ctx, &fuse.RemoveRequest{Name: "b"}); err != nil {
		t.Fatalf("Remove(b) failed: %v", err)
	}
	if size, _ := f.inode.Size(); size != 0 {
		t.Errorf("size after last unlink = %d, expected 0", size)
	}
	if err := d.Remove(ctx, &fuse.RemoveRequest{Name: "sub", Dir: true}); err != fuse.Errno(syscall.ENOTDIR) {
		t.Errorf("rmdir: expected ENOTDIR, got %v", err)
	}
	if n := r.Nlink(f.inode.InodeID()); n != 0 {
		t.Errorf("Nlink after last unlink = %d, expected 0", n)
	}
}

func TestOpenAccess(t *testing.T) {
	ctx := context.Background()
	d, _ := setupRoot(t)
	f, _ := create(t, d, "a", "content")

	h, err := f.Open(ctx, &fuse.OpenRequest{Flags: fuse.OpenReadOnly}, &fuse.OpenResponse{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	err = h.(*FileHandle).Write(ctx, &fuse.WriteRequest{Data: []byte("x")}, &fuse.WriteResponse{})
	if err != fuse.Errno(syscall.EACCES) {
		t.Errorf("Write on a read-only handle: expected EACCES, got %v", err)
	}

	h, err = f.Open(ctx, &fuse.OpenRequest{Flags: fuse.OpenWriteOnly | fuse.OpenTruncate}, &fuse.OpenResponse{})
	if err != nil {
		t.Fatalf("Open with truncate failed: %v", err)
	}
	if size, _ := f.inode.Size(); size != 0 {
		t.Errorf("size after O_TRUNC = %d, expected 0", size)
	}
	err = h.(*FileHandle).Read(ctx, &fuse.ReadRequest{Size: 4}, &fuse.ReadResponse{})
	if err != fuse.Errno(syscall.EACCES) {
		t.Errorf("Read on a write-only handle: expected EACCES, got %v", err)
	}
}

func TestSetattr(t *testing.T) {
	ctx := context.Background()
	d, _ := setupRoot(t)
	f, _ := create(t, d, "a", "some bytes")

	req := &fuse.SetattrRequest{Valid: fuse.SetattrSize, Size: 3}
	if err := f.Setattr(ctx, req, &fuse.SetattrResponse{}); err != fuse.Errno(syscall.ENOTSUP) {
		t.Errorf("Setattr to a non-zero size: expected ENOTSUP, got %v", err)
	}

	resp := &fuse.SetattrResponse{}
	if err := f.Setattr(ctx, &fuse.SetattrRequest{Valid: fuse.SetattrSize}, resp); err != nil {
		t.Fatalf("Setattr to zero failed: %v", err)
	}
	if resp.Attr.Size != 0 {
		t.Errorf("size after truncate = %d, expected 0", resp.Attr.Size)
	}
	if err := f.Fsync(ctx, &fuse.FsyncRequest{}); err != nil {
		t.Errorf("Fsync failed: %v", err)
	}
}

func TestStatfs(t *testing.T) {
	d, r := setupRoot(t)
	resp := &fuse.StatfsResponse{}
	if err := d.fs.Statfs(context.Background(), &fuse.StatfsRequest{}, resp); err != nil {
		t.Fatalf("Statfs failed: %v", err)
	}
	st, err := r.StatFS()
	if err != nil {
		t.Fatalf("StatFS failed: %v", err)
	}
	if resp.Blocks != st.DataBlocks || resp.Bfree != st.FreeBlocks || resp.Namelen != 27 || resp.Bsize != 512 {
		t.Errorf("Statfs = %+v, expected %+v", resp, st)
	}
}

func TestToErrno(t *testing.T) {
	testCases := []struct {
		err  error
		want syscall.Errno
	}{
		{fs.ErrNotExist, syscall.ENOENT},
		{fs.NewError("create", "x", fs.ErrExist), syscall.EEXIST},
		{fs.ErrNameTooLong, syscall.ENAMETOOLONG},
		{fs.ErrInvalidName, syscall.EINVAL},
		{fs.ErrNoSpace, syscall.ENOSPC},
		{fs.ErrFileTooLarge, syscall.EFBIG},
		{errors.New("boom"), syscall.EIO},
	}
	for _, tc := range testCases {
		if got := toErrno(tc.err); got != fuse.Errno(tc.want) {
			t.Errorf("toErrno(%v) = %v, expected %v", tc.err, got, tc.want)
		}
	}
	if toErrno(nil) != nil {
		t.Error("toErrno(nil) should be nil")
	}
}

func TestCheckMountPoint(t *testing.T) {
	if err := CheckMountPoint(t.TempDir()); err != nil {
		t.Errorf("CheckMountPoint on a fresh directory: %v", err)
	}
	if err := CheckMountPoint("/"); !errors.Is(err, ErrMounted) {
		t.Errorf("CheckMountPoint(/): expected ErrMounted, got %v", err)
	}
}
