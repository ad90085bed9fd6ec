package client

import (
	"errors"
	"fmt"

	"github.com/example/easyfs/pkg/api"
	"github.com/example/easyfs/pkg/rpc"
)

// ErrClosed is returned for calls on a closed client
var ErrClosed = errors.New("client is closed")

// EFSError represents a failed operation on the server
type EFSError struct {
	// Operation that failed
	Op string

	// Response status
	Status api.Status

	// Error message
	Message string

	// Underlying error, wrapping the matching fs sentinel
	Err error
}

// Error implements the error interface
func (e *EFSError) Error() string {
	return fmt.Sprintf("%s failed: %s (%s)", e.Op, e.Status, e.Message)
}

// Unwrap returns the underlying error
func (e *EFSError) Unwrap() error {
	return e.Err
}

// StatusToError converts a response status to an error
func StatusToError(op string, status api.Status) error {
	if status == api.Status_OK {
		return nil
	}

	var message string
	switch status {
	case api.Status_ERR_NOENT:
		message = "no such file"
	case api.Status_ERR_IO:
		message = "I/O error"
	case api.Status_ERR_BADF:
		message = "bad file descriptor"
	case api.Status_ERR_ACCES:
		message = "permission denied"
	case api.Status_ERR_EXIST:
		message = "file exists"
	case api.Status_ERR_NOTDIR:
		message = "not a directory"
	case api.Status_ERR_ISDIR:
		message = "is a directory"
	case api.Status_ERR_INVAL:
		message = "invalid argument"
	case api.Status_ERR_FBIG:
		message = "file too large"
	case api.Status_ERR_NOSPC:
		message = "no space left on device"
	case api.Status_ERR_NAMETOOLONG:
		message = "filename too long"
	case api.Status_ERR_NOTSUPP:
		message = "operation not supported"
	case api.Status_ERR_BADSESSION:
		message = "session expired or unknown"
	case api.Status_ERR_SERVERFAULT:
		message = "server fault"
	default:
		message = "unknown error"
	}

	return &EFSError{
		Op:      op,
		Status:  status,
		Message: message,
		Err:     rpc.StatusToError(status),
	}
}
