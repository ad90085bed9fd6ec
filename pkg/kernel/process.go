package kernel

import (
	"log"
	"sync"

	"github.com/example/easyfs/pkg/fs"
)

// Process is a descriptor table bound to one resolver. Descriptors are
// small integers; Open hands out the lowest free one.
type Process struct {
	r *Resolver

	mu    sync.Mutex
	files []*OSInode
}

// NewProcess returns a process with an empty descriptor table.
func NewProcess(r *Resolver) *Process {
	return &Process{r: r}
}

func (p *Process) allocFD() int {
	for fd, f := range p.files {
		if f == nil {
			return fd
		}
	}
	p.files = append(p.files, nil)
	return len(p.files) - 1
}

func (p *Process) file(fd int) (*OSInode, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if fd < 0 || fd >= len(p.files) || p.files[fd] == nil {
		return nil, fs.ErrBadFD
	}
	return p.files[fd], nil
}

// Open resolves path and installs it at the lowest free descriptor.
func (p *Process) Open(path string, flags fs.OpenFlags) (int, error) {
	f, err := p.r.OpenFile(path, flags)
	if err != nil {
		return -1, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	fd := p.allocFD()
	p.files[fd] = f
	return fd, nil
}

// Close frees descriptor fd.
func (p *Process) Close(fd int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if fd < 0 || fd >= len(p.files) || p.files[fd] == nil {
		return fs.NewError("close", "", fs.ErrBadFD)
	}
	p.files[fd] = nil
	return nil
}

// CloseAll frees every descriptor and returns how many were open.
func (p *Process) CloseAll() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, f := range p.files {
		if f != nil {
			n++
		}
	}
	p.files = nil
	return n
}

// OpenCount returns the number of open descriptors.
func (p *Process) OpenCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, f := range p.files {
		if f != nil {
			n++
		}
	}
	return n
}

// File returns the open file behind fd.
func (p *Process) File(fd int) (*OSInode, error) {
	f, err := p.file(fd)
	if err != nil {
		return nil, fs.NewError("file", "", err)
	}
	return f, nil
}

// Read reads into buf from fd's cursor.
func (p *Process) Read(fd int, buf []byte) (int, error) {
	f, err := p.file(fd)
	if err != nil {
		return 0, fs.NewError("read", "", err)
	}
	if !f.Readable() {
		return 0, fs.NewError("read", "", fs.ErrPermission)
	}
	return f.Read(fs.Buffers{buf})
}

// Write writes buf at fd's cursor.
func (p *Process) Write(fd int, buf []byte) (int, error) {
	f, err := p.file(fd)
	if err != nil {
		return 0, fs.NewError("write", "", err)
	}
	if !f.Writable() {
		return 0, fs.NewError("write", "", fs.ErrPermission)
	}
	return f.Write(fs.Buffers{buf})
}

// Fstat describes the file open at fd.
func (p *Process) Fstat(fd int) (fs.Stat, error) {
	f, err := p.file(fd)
	if err != nil {
		return fs.Stat{}, fs.NewError("fstat", "", err)
	}
	return p.r.Stat(f), nil
}

// Linkat adds newName for the inode oldName names. oldName must exist and
// newName must not.
func (p *Process) Linkat(oldName, newName string) error {
	old, err := p.r.FindInode(oldName)
	if err != nil {
		return err
	}
	if _, err := p.r.FindInode(newName); err == nil {
		return fs.NewError("linkat", newName, fs.ErrExist)
	}
	return p.r.Link(newName, old.InodeID())
}

// Unlinkat removes name. When that drops the inode's link count to zero
// its data blocks are freed.
func (p *Process) Unlinkat(name string) error {
	inode, nlink, err := p.r.Remove(name)
	if err != nil {
		return err
	}
	if nlink == 0 {
		log.Printf("[unlinkat] inode %d has no links left, clearing", inode.InodeID())
		return inode.Clear()
	}
	return nil
}
