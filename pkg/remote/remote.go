// Package remote defines abstractions for the remote file server that holds
// report artifacts.
//
// Connections implement a minimal surface area focused on listing, directory
// navigation, and retrieval. Credentials are passed through from configuration;
// connections should not implement custom auth logic.
package remote

import (
	"context"
	"io"
	"time"
)

// Conn is a live session against a remote file server.
//
// Implementations maintain an implicit working directory, the way FTP does.
// Navigation must be kept symmetric: every ChangeDir that succeeds is expected
// to be paired with a ChangeDirToParent before unrelated operations run.
// WithDir enforces that pairing and should be preferred over manual calls.
//
// Conn is owned by a single job run and is not safe for concurrent use.
type Conn interface {
	// List returns the entry names of the current working directory, in the
	// order the server reports them. An empty directory yields an empty
	// slice, not an error.
	List(ctx context.Context) ([]string, error)

	// ChangeDir enters the named child directory.
	ChangeDir(ctx context.Context, name string) error

	// ChangeDirToParent returns to the parent directory.
	ChangeDirToParent(ctx context.Context) error

	// Retrieve streams the named file in the current directory to w.
	// Returns ErrNotFound if the file does not exist.
	Retrieve(ctx context.Context, name string, w io.Writer) error

	// Close disconnects. Best effort; never reports an error to callers.
	Close() error
}

// Endpoint holds the connection parameters for one job run.
//
// An Endpoint is constructed per run, dialed, used, and discarded. It is never
// persisted or shared across runs.
type Endpoint struct {
	Host     string
	Port     int
	User     string
	Password string

	// BaseDir is the directory the connection starts in. Dial fails with
	// ErrPathNotFound if it cannot be entered.
	BaseDir string

	// ConnectTimeout bounds the dial and login. Zero means DefaultConnectTimeout.
	ConnectTimeout time.Duration
}

// DefaultConnectTimeout is applied when Endpoint.ConnectTimeout is zero.
const DefaultConnectTimeout = 15 * time.Second

// WithDir runs fn with the connection positioned inside the named child
// directory, restoring the previous working directory on every exit path.
//
// If fn fails, the restore still happens and fn's error is returned. A restore
// failure is only reported when fn itself succeeded, since a connection that
// cannot navigate back is unusable for subsequent operations.
func WithDir(ctx context.Context, c Conn, name string, fn func() error) error {
	if err := c.ChangeDir(ctx, name); err != nil {
		return err
	}

	fnErr := fn()
	if restoreErr := c.ChangeDirToParent(ctx); restoreErr != nil && fnErr == nil {
		return restoreErr
	}
	return fnErr
}
