package remote

import (
	"errors"
	"fmt"
)

// Sentinel errors for remote operations.
var (
	// ErrUnreachable indicates the endpoint could not be dialed.
	ErrUnreachable = errors.New("endpoint unreachable")

	// ErrAuthFailed indicates the server rejected the credentials.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrPathNotFound indicates a directory could not be entered.
	ErrPathNotFound = errors.New("path not found")

	// ErrNotFound indicates the requested file does not exist.
	ErrNotFound = errors.New("file not found")

	// ErrTransfer indicates an I/O or protocol fault during listing or retrieval.
	ErrTransfer = errors.New("transfer failed")
)

// Error wraps backend-specific errors with operation context.
type Error struct {
	// Op is the operation that failed (e.g., "Dial", "List", "Retrieve").
	Op string

	// Backend identifies the connection type (e.g., "ftp", "s3").
	Backend string

	// Name is the file or directory name, if applicable.
	Name string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s %s: %s: %v", e.Backend, e.Op, e.Name, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Backend, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsUnreachable returns true if the error indicates the endpoint could not be dialed.
func IsUnreachable(err error) bool {
	return errors.Is(err, ErrUnreachable)
}

// IsAuthFailed returns true if the error indicates rejected credentials.
func IsAuthFailed(err error) bool {
	return errors.Is(err, ErrAuthFailed)
}

// IsPathNotFound returns true if the error indicates a missing directory.
func IsPathNotFound(err error) bool {
	return errors.Is(err, ErrPathNotFound)
}

// IsNotFound returns true if the error indicates a missing file.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsTransfer returns true if the error indicates a listing or retrieval fault.
func IsTransfer(err error) bool {
	return errors.Is(err, ErrTransfer)
}
