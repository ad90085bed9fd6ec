package client

import (
	"context"
	"time"

	"github.com/example/easyfs/pkg/api"
	"github.com/example/easyfs/pkg/fs"
	"github.com/example/easyfs/pkg/kernel"
	"github.com/example/easyfs/pkg/rpc"
)

// Open resolves name in the root directory and returns a descriptor
func (c *Client) Open(ctx context.Context, name string, flags fs.OpenFlags) (fd int, err error) {
	start := time.Now()
	defer func() { c.record(start, 0, 0, err) }()
	if c.conn == nil {
		return -1, ErrClosed
	}

	var resp *api.OpenResponse
	err = c.callWithRetry(ctx, "Open", func(ctx context.Context) error {
		var err error
		resp, err = c.efsClient.Open(ctx, &api.OpenRequest{
			SessionId: c.sessionID,
			Name:      name,
			Flags:     uint32(flags),
		})
		return err
	})
	if err != nil {
		return -1, err
	}
	if err = StatusToError("Open", resp.Status); err != nil {
		return -1, err
	}
	return int(resp.Fd), nil
}

// CloseFD frees a descriptor
func (c *Client) CloseFD(ctx context.Context, fd int) (err error) {
	start := time.Now()
	defer func() { c.record(start, 0, 0, err) }()
	if c.conn == nil {
		return ErrClosed
	}

	var resp *api.CloseResponse
	err = c.callWithRetry(ctx, "Close", func(ctx context.Context) error {
		var err error
		resp, err = c.efsClient.Close(ctx, &api.CloseRequest{SessionId: c.sessionID, Fd: uint32(fd)})
		return err
	})
	if err != nil {
		return err
	}
	return StatusToError("Close", resp.Status)
}

// Read reads up to count bytes from the descriptor's cursor
func (c *Client) Read(ctx context.Context, fd int, count int) (data []byte, eof bool, err error) {
	start := time.Now()
	defer func() { c.record(start, len(data), 0, err) }()
	if c.conn == nil {
		return nil, false, ErrClosed
	}

	var resp *api.ReadResponse
	err = c.callWithRetry(ctx, "Read", func(ctx context.Context) error {
		var err error
		resp, err = c.efsClient.Read(ctx, &api.ReadRequest{
			SessionId: c.sessionID,
			Fd:        uint32(fd),
			Count:     uint32(count),
		})
		return err
	})
	if err != nil {
		return nil, false, err
	}
	if err = StatusToError("Read", resp.Status); err != nil {
		return nil, false, err
	}
	return resp.Data, resp.Eof, nil
}

// Write writes data at the descriptor's cursor
func (c *Client) Write(ctx context.Context, fd int, data []byte) (n int, err error) {
	start := time.Now()
	defer func() { c.record(start, 0, n, err) }()
	if c.conn == nil {
		return 0, ErrClosed
	}

	var resp *api.WriteResponse
	err = c.callWithRetry(ctx, "Write", func(ctx context.Context) error {
		var err error
		resp, err = c.efsClient.Write(ctx, &api.WriteRequest{
			SessionId: c.sessionID,
			Fd:        uint32(fd),
			Data:      data,
		})
		return err
	})
	if err != nil {
		return 0, err
	}
	if err = StatusToError("Write", resp.Status); err != nil {
		return 0, err
	}
	return int(resp.Count), nil
}

// Fstat describes the file open at fd
func (c *Client) Fstat(ctx context.Context, fd int) (st fs.Stat, err error) {
	start := time.Now()
	defer func() { c.record(start, 0, 0, err) }()
	if c.conn == nil {
		return fs.Stat{}, ErrClosed
	}

	var resp *api.FstatResponse
	err = c.callWithRetry(ctx, "Fstat", func(ctx context.Context) error {
		var err error
		resp, err = c.efsClient.Fstat(ctx, &api.FstatRequest{SessionId: c.sessionID, Fd: uint32(fd)})
		return err
	})
	if err != nil {
		return fs.Stat{}, err
	}
	if err = StatusToError("Fstat", resp.Status); err != nil {
		return fs.Stat{}, err
	}
	return rpc.ProtoToStat(resp.Stat), nil
}

// Link adds newName for the file oldName names
func (c *Client) Link(ctx context.Context, oldName, newName string) (err error) {
	start := time.Now()
	defer func() { c.record(start, 0, 0, err) }()
	if c.conn == nil {
		return ErrClosed
	}

	var resp *api.LinkResponse
	err = c.callWithRetry(ctx, "Link", func(ctx context.Context) error {
		var err error
		resp, err = c.efsClient.Link(ctx, &api.LinkRequest{
			SessionId: c.sessionID,
			OldName:   oldName,
			NewName:   newName,
		})
		return err
	})
	if err != nil {
		return err
	}
	return StatusToError("Link", resp.Status)
}

// Unlink removes name
func (c *Client) Unlink(ctx context.Context, name string) (err error) {
	start := time.Now()
	defer func() { c.record(start, 0, 0, err) }()
	if c.conn == nil {
		return ErrClosed
	}

	var resp *api.UnlinkResponse
	err = c.callWithRetry(ctx, "Unlink", func(ctx context.Context) error {
		var err error
		resp, err = c.efsClient.Unlink(ctx, &api.UnlinkRequest{SessionId: c.sessionID, Name: name})
		return err
	})
	if err != nil {
		return err
	}
	return StatusToError("Unlink", resp.Status)
}

// List returns every root directory slot and the hard-link table
func (c *Client) List(ctx context.Context) (names []string, links []kernel.HardLink, err error) {
	start := time.Now()
	defer func() { c.record(start, 0, 0, err) }()
	if c.conn == nil {
		return nil, nil, ErrClosed
	}

	var resp *api.ListResponse
	err = c.callWithRetry(ctx, "List", func(ctx context.Context) error {
		var err error
		resp, err = c.efsClient.List(ctx, &api.ListRequest{SessionId: c.sessionID})
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	if err = StatusToError("List", resp.Status); err != nil {
		return nil, nil, err
	}
	return resp.Names, rpc.ProtoToHardLinks(resp.HardLinks), nil
}

// StatFS reports usage of the image
func (c *Client) StatFS(ctx context.Context) (st fs.FSStat, err error) {
	start := time.Now()
	defer func() { c.record(start, 0, 0, err) }()
	if c.conn == nil {
		return fs.FSStat{}, ErrClosed
	}

	var resp *api.StatFSResponse
	err = c.callWithRetry(ctx, "StatFS", func(ctx context.Context) error {
		var err error
		resp, err = c.efsClient.StatFS(ctx, &api.StatFSRequest{SessionId: c.sessionID})
		return err
	})
	if err != nil {
		return fs.FSStat{}, err
	}
	if err = StatusToError("StatFS", resp.Status); err != nil {
		return fs.FSStat{}, err
	}
	return rpc.ProtoToFSStat(resp.Stat), nil
}

// ReadFile returns the whole content of name
func (c *Client) ReadFile(ctx context.Context, name string, chunk int) ([]byte, error) {
	fd, err := c.Open(ctx, name, fs.RDONLY)
	if err != nil {
		return nil, err
	}
	defer c.CloseFD(ctx, fd)

	var out []byte
	for {
		data, eof, err := c.Read(ctx, fd, chunk)
		if err != nil {
			return out, err
		}
		out = append(out, data...)
		if eof || len(data) == 0 {
			return out, nil
		}
	}
}

// WriteFile creates or truncates name and writes data in chunks
func (c *Client) WriteFile(ctx context.Context, name string, data []byte, chunk int) error {
	fd, err := c.Open(ctx, name, fs.CREATE|fs.WRONLY)
	if err != nil {
		return err
	}
	defer c.CloseFD(ctx, fd)

	for len(data) > 0 {
		n := min(chunk, len(data))
		if _, err := c.Write(ctx, fd, data[:n]); err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}
