package client

import (
	"context"
	"time"

	"github.com/example/easyfs/pkg/fs"
	"github.com/example/easyfs/pkg/kernel"
)

// EFSClient defines the file operations available over one session
type EFSClient interface {
	// Descriptor operations

	// Open resolves name in the root directory and returns a descriptor
	Open(ctx context.Context, name string, flags fs.OpenFlags) (int, error)

	// CloseFD frees a descriptor
	CloseFD(ctx context.Context, fd int) error

	// Read reads up to count bytes from the descriptor's cursor
	// Returns the data read and whether the end of the file was reached
	Read(ctx context.Context, fd int, count int) ([]byte, bool, error)

	// Write writes data at the descriptor's cursor
	Write(ctx context.Context, fd int, data []byte) (int, error)

	// Fstat describes the file open at fd
	Fstat(ctx context.Context, fd int) (fs.Stat, error)

	// Name operations

	// Link adds newName for the file oldName names
	Link(ctx context.Context, oldName, newName string) error

	// Unlink removes name
	Unlink(ctx context.Context, name string) error

	// List returns every root directory slot and the hard-link table
	List(ctx context.Context) ([]string, []kernel.HardLink, error)

	// StatFS reports usage of the image
	StatFS(ctx context.Context) (fs.FSStat, error)

	// Close ends the session and releases the connection
	Close() error
}

// StatisticsClient extends EFSClient with statistics reporting
type StatisticsClient interface {
	EFSClient

	// GetStatistics returns client operation statistics
	GetStatistics() ClientStats
}

// ClientStats contains statistics about client operations
type ClientStats struct {
	Operations      uint64        // Total number of operations performed
	Errors          uint64        // Number of operations that resulted in errors
	BytesRead       uint64        // Total bytes read
	BytesWritten    uint64        // Total bytes written
	AvgResponseTime time.Duration // Average operation response time

	totalTime time.Duration
}
