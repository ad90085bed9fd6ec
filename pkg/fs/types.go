package fs

// OpenFlags is the flags argument of open, constructed by ORing together
// zero or more of the values below.
type OpenFlags uint32

const (
	// RDONLY opens for reading only
	RDONLY OpenFlags = 0
	// WRONLY opens for writing only
	WRONLY OpenFlags = 1 << 0
	// RDWR opens for reading and writing
	RDWR OpenFlags = 1 << 1
	// CREATE creates the file, truncating it if it already exists
	CREATE OpenFlags = 1 << 9
	// TRUNC truncates an existing file to size 0
	TRUNC OpenFlags = 1 << 10
)

// Has reports whether every bit of other is set in f.
func (f OpenFlags) Has(other OpenFlags) bool {
	return f&other == other
}

// ReadWrite returns the access mode encoded in the flags. Validity of the
// combination is not checked: anything other than RDONLY or WRONLY is
// treated as read-write.
func (f OpenFlags) ReadWrite() (readable, writable bool) {
	switch {
	case f == RDONLY:
		return true, false
	case f.Has(WRONLY):
		return false, true
	default:
		return true, true
	}
}

// StatMode is the file type reported by fstat.
type StatMode uint32

const (
	// ModeNull is reported when the inode type is unknown
	ModeNull StatMode = 0
	// ModeDir is a directory
	ModeDir StatMode = 0o040000
	// ModeFile is an ordinary regular file
	ModeFile StatMode = 0o100000
)

// String returns a string representation of the mode
func (m StatMode) String() string {
	switch m {
	case ModeDir:
		return "directory"
	case ModeFile:
		return "regular"
	default:
		return "unknown"
	}
}

// Stat contains information about an open file.
type Stat struct {
	// Dev is the device containing the file, always 0
	Dev uint64

	// Ino is the inode number
	Ino uint64

	// Mode is the file type
	Mode StatMode

	// Nlink is the number of hard links to the file
	Nlink uint32
}

// FSStat contains information about a filesystem.
type FSStat struct {
	// BlockSize is the size of one block in bytes
	BlockSize uint32

	// TotalBlocks is the size of the image in blocks
	TotalBlocks uint64

	// DataBlocks is the number of blocks in the data area
	DataBlocks uint64

	// FreeBlocks is the number of unallocated data blocks
	FreeBlocks uint64

	// TotalFiles is the total number of inode slots
	TotalFiles uint64

	// FreeFiles is the number of unallocated inode slots
	FreeFiles uint64

	// NameMaxLength is the maximum length of a file name
	NameMaxLength uint32
}

// Buffers is a scattered caller buffer. Reads and writes walk the slices in
// order.
type Buffers [][]byte

// Len returns the total number of bytes across all slices.
func (b Buffers) Len() int {
	n := 0
	for _, s := range b {
		n += len(s)
	}
	return n
}
