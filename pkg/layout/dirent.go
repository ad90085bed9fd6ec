package layout

import (
	"bytes"
	"encoding/binary"
)

const (
	// NameLengthLimit is the longest name a directory entry can hold.
	NameLengthLimit = 27

	// DirentSize is the encoded size of a DirEntry.
	DirentSize = 32

	// Sentinel is the inode id of a deleted directory entry.
	Sentinel uint32 = 0xFFFFFFFF
)

// DirEntry is one fixed-size slot of a directory: a NUL padded name followed
// by an inode id.
type DirEntry struct {
	name    [NameLengthLimit + 1]byte
	inodeID uint32
}

// NewDirEntry builds an entry. name must not be longer than NameLengthLimit.
func NewDirEntry(name string, inodeID uint32) DirEntry {
	var d DirEntry
	copy(d.name[:NameLengthLimit], name)
	d.inodeID = inodeID
	return d
}

// Tombstone returns the entry written over a deleted slot.
func Tombstone() DirEntry {
	return NewDirEntry("", Sentinel)
}

// Name returns the logical name, ignoring padding.
func (d *DirEntry) Name() string {
	if i := bytes.IndexByte(d.name[:], 0); i >= 0 {
		return string(d.name[:i])
	}
	return string(d.name[:])
}

// InodeID returns the inode the entry refers to.
func (d *DirEntry) InodeID() uint32 {
	return d.inodeID
}

// Deleted reports whether the entry is a tombstone.
func (d *DirEntry) Deleted() bool {
	return d.inodeID == Sentinel
}

// Bytes encodes the entry.
func (d *DirEntry) Bytes() []byte {
	p := make([]byte, DirentSize)
	copy(p, d.name[:])
	binary.LittleEndian.PutUint32(p[len(d.name):], d.inodeID)
	return p
}

// SetBytes decodes the entry from p, which holds DirentSize bytes.
func (d *DirEntry) SetBytes(p []byte) {
	copy(d.name[:], p[:len(d.name)])
	d.inodeID = binary.LittleEndian.Uint32(p[len(d.name):])
}
