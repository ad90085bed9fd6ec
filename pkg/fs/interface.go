package fs

// File is the contract an open file offers to the file-descriptor table.
type File interface {
	// Readable reports whether the file was opened for reading.
	Readable() bool

	// Writable reports whether the file was opened for writing.
	Writable() bool

	// Read fills buf from the current cursor and advances it.
	// Returns the number of bytes transferred; 0 means end of file.
	Read(buf Buffers) (int, error)

	// Write writes buf at the current cursor and advances it.
	Write(buf Buffers) (int, error)

	// InodeID returns the id of the inode behind the file.
	InodeID() uint32

	// Mode reports directory/file/unknown from the inode type.
	Mode() StatMode
}

// FileSystem defines the operations the syscall layer and the network
// service use to reach the root directory of an image.
type FileSystem interface {
	// Open resolves name in the root directory according to flags.
	// Returns ErrNotExist when the name is absent and CREATE is not set.
	Open(name string, flags OpenFlags) (File, error)

	// Link adds newName as another directory entry for oldInodeID.
	Link(newName string, oldInodeID uint32) error

	// Unlink removes the first directory entry called name.
	Unlink(name string) error

	// Nlink returns the hard-link count of an inode.
	Nlink(inodeID uint32) uint32

	// List returns the name of every directory slot in order.
	List() ([]string, error)

	// StatFS retrieves file system statistics.
	StatFS() (FSStat, error)
}
