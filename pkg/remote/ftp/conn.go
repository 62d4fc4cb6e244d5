// Package ftp implements remote.Conn over FTP.
package ftp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/textproto"
	"sync"
	"time"

	"github.com/jlaffaye/ftp"

	"github.com/automailhq/automail/pkg/remote"
)

// Conn implements remote.Conn using a single FTP control connection.
//
// The protocol library blocks without consulting a context, so the connection
// tracks every TCP connection it opens (control and data) and each operation
// arms a watchdog that force-closes them when its context ends. A job
// deadline therefore unblocks a hung NLST or RETR instead of waiting on the
// server, and the run guard upstream is always released.
type Conn struct {
	client *ftp.ServerConn

	mu  sync.Mutex
	raw []net.Conn
}

var _ remote.Conn = (*Conn)(nil)

// Dial connects and logs in to the endpoint, then enters its base directory.
func Dial(ctx context.Context, ep remote.Endpoint) (*Conn, error) {
	timeout := ep.ConnectTimeout
	if timeout <= 0 {
		timeout = remote.DefaultConnectTimeout
	}

	c := &Conn{}
	addr := fmt.Sprintf("%s:%d", ep.Host, ep.Port)
	client, err := ftp.Dial(addr, ftp.DialWithDialFunc(c.dialFunc(ctx, timeout)))
	if err != nil {
		return nil, &remote.Error{Op: "Dial", Backend: "ftp", Err: wrapDial(err)}
	}
	c.client = client

	stop := c.abortOnDone(ctx)
	defer stop()

	if err := client.Login(ep.User, ep.Password); err != nil {
		_ = client.Quit()
		return nil, wrapOp(ctx, "Login", "", err, wrapLogin)
	}

	if ep.BaseDir != "" {
		if err := client.ChangeDir(ep.BaseDir); err != nil {
			_ = client.Quit()
			return nil, wrapOp(ctx, "ChangeDir", ep.BaseDir, err, wrapNav)
		}
	}

	return c, nil
}

// dialFunc dials with the connect timeout and records the resulting
// connection so the watchdog can reach it. The library routes data
// connections (NLST, RETR) through the same hook.
func (c *Conn) dialFunc(ctx context.Context, timeout time.Duration) func(network, address string) (net.Conn, error) {
	return func(network, address string) (net.Conn, error) {
		d := net.Dialer{Timeout: timeout}
		conn, err := d.DialContext(ctx, network, address)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.raw = append(c.raw, conn)
		c.mu.Unlock()
		return conn, nil
	}
}

// abortOnDone closes the underlying connections when ctx ends, unblocking
// whatever protocol call is in flight. The returned stop func must be called
// when the call completes.
func (c *Conn) abortOnDone(ctx context.Context) func() {
	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			c.closeRaw()
		case <-stop:
		}
	}()
	return func() { close(stop) }
}

func (c *Conn) closeRaw() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, conn := range c.raw {
		_ = conn.Close()
	}
	c.raw = nil
}

// List returns the entry names of the current directory.
//
// Some servers answer NLST on an empty directory with a 550 instead of an
// empty list; that response maps to an empty listing here so the caller can
// treat "nothing there yet" as a normal state.
func (c *Conn) List(ctx context.Context) ([]string, error) {
	stop := c.abortOnDone(ctx)
	defer stop()

	names, err := c.client.NameList("")
	if err != nil {
		if ctx.Err() == nil && isEmptyListingResponse(err) {
			return nil, nil
		}
		return nil, wrapOp(ctx, "List", "", err, wrapList)
	}
	return names, nil
}

// ChangeDir enters the named child directory.
func (c *Conn) ChangeDir(ctx context.Context, name string) error {
	stop := c.abortOnDone(ctx)
	defer stop()

	if err := c.client.ChangeDir(name); err != nil {
		return wrapOp(ctx, "ChangeDir", name, err, wrapNav)
	}
	return nil
}

// ChangeDirToParent returns to the parent directory.
func (c *Conn) ChangeDirToParent(ctx context.Context) error {
	stop := c.abortOnDone(ctx)
	defer stop()

	if err := c.client.ChangeDirToParent(); err != nil {
		return wrapOp(ctx, "ChangeDirToParent", "", err, wrapNav)
	}
	return nil
}

// Retrieve streams the named file to w.
func (c *Conn) Retrieve(ctx context.Context, name string, w io.Writer) error {
	stop := c.abortOnDone(ctx)
	defer stop()

	resp, err := c.client.Retr(name)
	if err != nil {
		return wrapOp(ctx, "Retrieve", name, err, wrapRetr)
	}
	defer func() { _ = resp.Close() }()

	if _, err := io.Copy(w, resp); err != nil {
		return wrapOp(ctx, "Retrieve", name, err, wrapList)
	}
	return nil
}

// Close sends QUIT and drops any tracked connections. Best effort.
func (c *Conn) Close() error {
	_ = c.client.Quit()
	c.closeRaw()
	return nil
}

// wrapOp classifies err, preferring the context's verdict when the watchdog
// fired mid-call: a connection the watchdog closed surfaces as an arbitrary
// I/O error, and the deadline is the real cause.
func wrapOp(ctx context.Context, op, name string, err error, wrap func(error) error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return &remote.Error{Op: op, Backend: "ftp", Name: name, Err: ctxErr}
	}
	return &remote.Error{Op: op, Backend: "ftp", Name: name, Err: wrap(err)}
}

func wrapDial(err error) error {
	return fmt.Errorf("%w: %v", remote.ErrUnreachable, err)
}

func wrapLogin(err error) error {
	return fmt.Errorf("%w: %v", remote.ErrAuthFailed, err)
}

func wrapList(err error) error {
	return fmt.Errorf("%w: %v", remote.ErrTransfer, err)
}

func wrapNav(err error) error {
	if code, ok := protoCode(err); ok && code == ftp.StatusFileUnavailable {
		return fmt.Errorf("%w: %v", remote.ErrPathNotFound, err)
	}
	return fmt.Errorf("%w: %v", remote.ErrTransfer, err)
}

func wrapRetr(err error) error {
	if code, ok := protoCode(err); ok && code == ftp.StatusFileUnavailable {
		return fmt.Errorf("%w: %v", remote.ErrNotFound, err)
	}
	return fmt.Errorf("%w: %v", remote.ErrTransfer, err)
}

// isEmptyListingResponse reports whether err is the 550 a server may send for
// NLST on an empty directory.
func isEmptyListingResponse(err error) bool {
	code, ok := protoCode(err)
	return ok && code == ftp.StatusFileUnavailable
}

func protoCode(err error) (int, bool) {
	var proto *textproto.Error
	if errors.As(err, &proto) {
		return proto.Code, true
	}
	return 0, false
}
