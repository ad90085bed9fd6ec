// Package rpc holds the glue between the file service messages and the
// filesystem: status mapping, request logging and conversions.
package rpc

import (
	"errors"
	"fmt"
	"log"
	"os"
	"syscall"

	"github.com/example/easyfs/pkg/api"
	"github.com/example/easyfs/pkg/fs"
)

// ErrBadSession is returned for a session id the server does not know.
var ErrBadSession = errors.New("unknown session")

// MapErrorToStatus converts a Go error to a response status
func MapErrorToStatus(err error) api.Status {
	if err == nil {
		return api.Status_OK
	}

	// Map filesystem errors
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return api.Status_ERR_NOENT
	case errors.Is(err, fs.ErrPermission):
		return api.Status_ERR_ACCES
	case errors.Is(err, fs.ErrExist):
		return api.Status_ERR_EXIST
	case errors.Is(err, fs.ErrIO):
		return api.Status_ERR_IO
	case errors.Is(err, fs.ErrIsDir):
		return api.Status_ERR_ISDIR
	case errors.Is(err, fs.ErrNotDir):
		return api.Status_ERR_NOTDIR
	case errors.Is(err, fs.ErrInvalid), errors.Is(err, fs.ErrInvalidName):
		return api.Status_ERR_INVAL
	case errors.Is(err, fs.ErrNameTooLong):
		return api.Status_ERR_NAMETOOLONG
	case errors.Is(err, fs.ErrBadFD):
		return api.Status_ERR_BADF
	case errors.Is(err, fs.ErrNoSpace):
		return api.Status_ERR_NOSPC
	case errors.Is(err, fs.ErrFileTooLarge):
		return api.Status_ERR_FBIG
	case errors.Is(err, fs.ErrNotSupported):
		return api.Status_ERR_NOTSUPP
	case errors.Is(err, ErrBadSession):
		return api.Status_ERR_BADSESSION
	}

	// Map standard Go errors
	switch {
	case errors.Is(err, os.ErrPermission):
		return api.Status_ERR_ACCES
	case errors.Is(err, os.ErrNotExist):
		return api.Status_ERR_NOENT
	case errors.Is(err, os.ErrExist):
		return api.Status_ERR_EXIST
	}

	// Map syscall errors from the block device
	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.EIO, syscall.ENXIO, syscall.ENODEV:
			return api.Status_ERR_IO
		case syscall.ENOSPC:
			return api.Status_ERR_NOSPC
		case syscall.EFBIG:
			return api.Status_ERR_FBIG
		}
	}

	// Default for unrecognized errors
	LogUnknownError(err)
	return api.Status_ERR_SERVERFAULT
}

// StatusToError converts a response status back to an error wrapping the
// matching filesystem sentinel. OK maps to nil.
func StatusToError(status api.Status) error {
	var sentinel error
	switch status {
	case api.Status_OK:
		return nil
	case api.Status_ERR_NOENT:
		sentinel = fs.ErrNotExist
	case api.Status_ERR_EXIST:
		sentinel = fs.ErrExist
	case api.Status_ERR_IO:
		sentinel = fs.ErrIO
	case api.Status_ERR_BADF:
		sentinel = fs.ErrBadFD
	case api.Status_ERR_ACCES:
		sentinel = fs.ErrPermission
	case api.Status_ERR_NOTDIR:
		sentinel = fs.ErrNotDir
	case api.Status_ERR_ISDIR:
		sentinel = fs.ErrIsDir
	case api.Status_ERR_INVAL:
		sentinel = fs.ErrInvalid
	case api.Status_ERR_FBIG:
		sentinel = fs.ErrFileTooLarge
	case api.Status_ERR_NOSPC:
		sentinel = fs.ErrNoSpace
	case api.Status_ERR_NAMETOOLONG:
		sentinel = fs.ErrNameTooLong
	case api.Status_ERR_NOTSUPP:
		sentinel = fs.ErrNotSupported
	case api.Status_ERR_BADSESSION:
		sentinel = ErrBadSession
	default:
		sentinel = fs.ErrIO
	}
	return NewRPCError(status, "remote call failed", sentinel)
}

// LogUnknownError logs detailed information about unrecognized errors
func LogUnknownError(err error) {
	log.Printf("Unknown error type: %T, message: %v", err, err)
}

// LogRequest logs information about a received request
func LogRequest(op string, reqID string, clientAddr string) {
	log.Printf("EFS request: %s, ID: %s, Client: %s", op, reqID, clientAddr)
}

// LogResponse logs information about a response
func LogResponse(op string, reqID string, status api.Status, duration string) {
	log.Printf("EFS response: %s, ID: %s, Status: %s, Duration: %s",
		op, reqID, status.String(), duration)
}

// LogError logs an error with its context
func LogError(op string, reqID string, err error) {
	log.Printf("EFS error: %s, ID: %s, Error: %v", op, reqID, err)
}

// RPCError represents an error with a response status
type RPCError struct {
	Status  api.Status // response status
	Message string     // Error description
	Cause   error      // Underlying error
}

// Error implements the error interface
func (e *RPCError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (underlying: %v)", e.Status.String(), e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Status.String(), e.Message)
}

// Unwrap returns the underlying error
func (e *RPCError) Unwrap() error {
	return e.Cause
}

// NewRPCError creates a new RPCError
func NewRPCError(status api.Status, message string, cause error) *RPCError {
	return &RPCError{
		Status:  status,
		Message: message,
		Cause:   cause,
	}
}
