package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/automailhq/automail/pkg/compose"
	"github.com/automailhq/automail/pkg/fetch"
	"github.com/automailhq/automail/pkg/locate"
	"github.com/automailhq/automail/pkg/remote"
)

// fakeConn serves a canned tree: root entries plus per-folder entries and file
// bytes keyed by "<folder>/<name>" ("" folder for root files).
type fakeConn struct {
	root    []string
	folders map[string][]string
	files   map[string]string

	failRetrieve map[string]error

	cwd    string
	closed bool
}

func (c *fakeConn) List(ctx context.Context) ([]string, error) {
	if c.cwd == "" {
		return c.root, nil
	}
	return c.folders[c.cwd], nil
}

func (c *fakeConn) ChangeDir(ctx context.Context, name string) error {
	if _, ok := c.folders[name]; !ok {
		return remote.ErrPathNotFound
	}
	c.cwd = name
	return nil
}

func (c *fakeConn) ChangeDirToParent(ctx context.Context) error {
	c.cwd = ""
	return nil
}

func (c *fakeConn) Retrieve(ctx context.Context, name string, w io.Writer) error {
	key := c.cwd + "/" + name
	if err := c.failRetrieve[key]; err != nil {
		return err
	}
	content, ok := c.files[key]
	if !ok {
		return remote.ErrNotFound
	}
	_, err := io.WriteString(w, content)
	return err
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

func discardLog(string, ...any) {}

// fakeRender produces n synthetic page files under dir.
func fakeRender(n int) compose.RenderFunc {
	return func(docPath, dir string, dpi float64) ([]compose.Page, error) {
		var pages []compose.Page
		for i := 1; i <= n; i++ {
			f, err := os.CreateTemp(dir, fmt.Sprintf("page-%d-*.png", i))
			if err != nil {
				return nil, err
			}
			_ = f.Close()
			pages = append(pages, compose.Page{Number: i, CID: fmt.Sprintf("page_%d", i), Path: f.Name()})
		}
		return pages, nil
	}
}

func datedConn() *fakeConn {
	return &fakeConn{
		root: []string{"2024-01-01", "2024-01-02", "readme.txt"},
		folders: map[string][]string{
			"2024-01-01": {"report.pdf", "preview.png"},
			"2024-01-02": {"report.pdf", "preview.png"},
		},
		files: map[string]string{
			"2024-01-01/report.pdf":  "%PDF old",
			"2024-01-01/preview.png": "png old",
			"2024-01-02/report.pdf":  "%PDF new",
			"2024-01-02/preview.png": "png new",
		},
	}
}

func TestRun_DatedFolderSuccess(t *testing.T) {
	scratch := t.TempDir()
	conn := datedConn()

	var sent *compose.Message
	cfg := Config{
		Connect:       func(ctx context.Context) (remote.Conn, error) { return conn, nil },
		Send:          func(msg *compose.Message) error { sent = msg; return nil },
		Convention:    ConventionDatedFolder,
		ScratchDir:    scratch,
		Recipients:    []string{"ops@example.com"},
		SubjectPrefix: "Daily report",
		Body:          "Report attached.",
	}

	outcome := Run(context.Background(), cfg, discardLog)

	require.True(t, outcome.Success, outcome.Message)
	require.NotNil(t, sent)
	assert.Equal(t, "Daily report (2024-01-02)", sent.Subject)
	require.Len(t, sent.Inlines, 1)
	assert.Equal(t, "preview", sent.Inlines[0].CID)
	require.Len(t, sent.Attachments, 1)
	assert.Equal(t, "report.pdf", sent.Attachments[0].Filename)
	assert.True(t, conn.closed)
	assert.Empty(t, conn.cwd, "working directory restored after run")

	entries, err := os.ReadDir(scratch)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch files removed after run")
}

func TestRun_SecondaryFetchFailureDegrades(t *testing.T) {
	scratch := t.TempDir()
	conn := datedConn()
	conn.failRetrieve = map[string]error{
		"2024-01-02/preview.png": errors.New("connection reset"),
	}

	var sent *compose.Message
	cfg := Config{
		Connect:       func(ctx context.Context) (remote.Conn, error) { return conn, nil },
		Send:          func(msg *compose.Message) error { sent = msg; return nil },
		Render:        fakeRender(2),
		Convention:    ConventionDatedFolder,
		ScratchDir:    scratch,
		Recipients:    []string{"ops@example.com"},
		SubjectPrefix: "Daily report",
		Body:          "Report attached.",
	}

	outcome := Run(context.Background(), cfg, discardLog)

	require.True(t, outcome.Success, outcome.Message)
	require.NotNil(t, sent)

	// Preview failed, so the run falls back to self-rendering. Every inline
	// the HTML references must exist; no dangling cid to the lost preview.
	require.Len(t, sent.Inlines, 2)
	for _, inline := range sent.Inlines {
		assert.Contains(t, sent.HTML, "cid:"+inline.CID)
	}
	assert.NotContains(t, sent.HTML, "cid:preview")
}

func TestRun_TimestampedFileSuccess(t *testing.T) {
	scratch := t.TempDir()
	conn := &fakeConn{
		root: []string{"RPA-X-2024-01-01-09-00.pdf", "RPA-X-2024-01-02-08-30.pdf"},
		files: map[string]string{
			"/RPA-X-2024-01-02-08-30.pdf": "%PDF new",
		},
	}

	var sent *compose.Message
	cfg := Config{
		Connect:       func(ctx context.Context) (remote.Conn, error) { return conn, nil },
		Send:          func(msg *compose.Message) error { sent = msg; return nil },
		Render:        fakeRender(3),
		Convention:    ConventionTimestampedFile,
		FilePrefix:    "RPA-X-",
		ScratchDir:    scratch,
		Recipients:    []string{"ops@example.com"},
		SubjectPrefix: "Daily report",
		Body:          "Report attached.",
	}

	outcome := Run(context.Background(), cfg, discardLog)

	require.True(t, outcome.Success, outcome.Message)
	require.NotNil(t, sent)
	assert.Equal(t, "Daily report (RPA-X-2024-01-02-08-30.pdf)", sent.Subject)
	require.Len(t, sent.Inlines, 3)
	assert.Equal(t, "page_1", sent.Inlines[0].CID)
	assert.Equal(t, "page_3", sent.Inlines[2].CID)

	entries, err := os.ReadDir(scratch)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch and page files removed after run")
}

func TestRun_NoMatchingArtifact(t *testing.T) {
	conn := &fakeConn{root: []string{"readme.txt", "archive"}}

	cfg := Config{
		Connect:    func(ctx context.Context) (remote.Conn, error) { return conn, nil },
		Send:       func(msg *compose.Message) error { t.Fatal("must not send"); return nil },
		Convention: ConventionDatedFolder,
		ScratchDir: t.TempDir(),
	}

	outcome := Run(context.Background(), cfg, discardLog)

	require.False(t, outcome.Success)
	assert.Equal(t, KindNotFound, outcome.Kind)
	assert.True(t, conn.closed)
}

func TestRun_ConnectFailure(t *testing.T) {
	cfg := Config{
		Connect: func(ctx context.Context) (remote.Conn, error) {
			return nil, &remote.Error{Op: "dial", Backend: "ftp", Err: remote.ErrUnreachable}
		},
		Send:       func(msg *compose.Message) error { return nil },
		Convention: ConventionDatedFolder,
		ScratchDir: t.TempDir(),
	}

	outcome := Run(context.Background(), cfg, discardLog)

	require.False(t, outcome.Success)
	assert.Equal(t, KindConnection, outcome.Kind)
}

func TestRun_PrimaryFetchFailureIsFatal(t *testing.T) {
	scratch := t.TempDir()
	conn := datedConn()
	conn.failRetrieve = map[string]error{
		"2024-01-02/report.pdf": &remote.Error{Op: "retr", Backend: "ftp", Name: "report.pdf", Err: remote.ErrTransfer},
	}

	cfg := Config{
		Connect:    func(ctx context.Context) (remote.Conn, error) { return conn, nil },
		Send:       func(msg *compose.Message) error { t.Fatal("must not send"); return nil },
		Convention: ConventionDatedFolder,
		ScratchDir: scratch,
	}

	outcome := Run(context.Background(), cfg, discardLog)

	require.False(t, outcome.Success)
	assert.Equal(t, KindTransfer, outcome.Kind)

	entries, err := os.ReadDir(scratch)
	require.NoError(t, err)
	assert.Empty(t, entries, "no scratch residue after a failed run")
}

func TestRun_SendFailure(t *testing.T) {
	scratch := t.TempDir()
	conn := datedConn()

	cfg := Config{
		Connect: func(ctx context.Context) (remote.Conn, error) { return conn, nil },
		Send: func(msg *compose.Message) error {
			return fmt.Errorf("%w: relay refused", compose.ErrTransmission)
		},
		Convention: ConventionDatedFolder,
		ScratchDir: scratch,
		Recipients: []string{"ops@example.com"},
	}

	outcome := Run(context.Background(), cfg, discardLog)

	require.False(t, outcome.Success)
	assert.Equal(t, KindTransmission, outcome.Kind)

	entries, err := os.ReadDir(scratch)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRun_Timeout(t *testing.T) {
	cfg := Config{
		Connect: func(ctx context.Context) (remote.Conn, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
		Send:       func(msg *compose.Message) error { return nil },
		Convention: ConventionDatedFolder,
		ScratchDir: t.TempDir(),
		JobTimeout: 10 * time.Millisecond,
	}

	outcome := Run(context.Background(), cfg, discardLog)

	require.False(t, outcome.Success)
	assert.Equal(t, KindTimeout, outcome.Kind)
}

func TestRun_RenderFailureCleansScratch(t *testing.T) {
	scratch := t.TempDir()
	conn := datedConn()
	delete(conn.files, "2024-01-02/preview.png")
	conn.folders["2024-01-02"] = []string{"report.pdf"}

	cfg := Config{
		Connect: func(ctx context.Context) (remote.Conn, error) { return conn, nil },
		Send:    func(msg *compose.Message) error { t.Fatal("must not send"); return nil },
		Render: func(docPath, dir string, dpi float64) ([]compose.Page, error) {
			return nil, fmt.Errorf("%w: truncated xref", compose.ErrDocumentInvalid)
		},
		Convention: ConventionDatedFolder,
		ScratchDir: scratch,
	}

	outcome := Run(context.Background(), cfg, discardLog)

	require.False(t, outcome.Success)
	assert.Equal(t, KindRender, outcome.Kind)

	entries, err := os.ReadDir(scratch)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"unreachable", &remote.Error{Op: "dial", Backend: "ftp", Err: remote.ErrUnreachable}, KindConnection},
		{"auth", &remote.Error{Op: "login", Backend: "ftp", Err: remote.ErrAuthFailed}, KindConnection},
		{"path", &remote.Error{Op: "cd", Backend: "ftp", Name: "x", Err: remote.ErrPathNotFound}, KindConnection},
		{"no match", fmt.Errorf("%w (convention dated-folder)", locate.ErrNoMatch), KindNotFound},
		{"no primary", fmt.Errorf("%w: 2024-01-02", fetch.ErrNoPrimary), KindNotFound},
		{"transfer", &remote.Error{Op: "retr", Backend: "ftp", Name: "a.pdf", Err: remote.ErrTransfer}, KindTransfer},
		{"remote missing file", &remote.Error{Op: "retr", Backend: "s3", Name: "a.pdf", Err: remote.ErrNotFound}, KindTransfer},
		{"doc missing", fmt.Errorf("%w: /tmp/x.pdf", compose.ErrDocumentNotFound), KindRender},
		{"doc invalid", compose.ErrDocumentInvalid, KindRender},
		{"render exhausted", compose.ErrRenderExhausted, KindRender},
		{"transmission", fmt.Errorf("%w: 535", compose.ErrTransmission), KindTransmission},
		{"deadline", context.DeadlineExceeded, KindTimeout},
		{"canceled", context.Canceled, KindTimeout},
		{"unknown", errors.New("surprise"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.err))
		})
	}
}

func TestGuard(t *testing.T) {
	var g Guard

	assert.False(t, g.Held())
	assert.True(t, g.TryAcquire())
	assert.True(t, g.Held())
	assert.False(t, g.TryAcquire(), "second acquire while held must fail")

	g.Release()
	assert.False(t, g.Held())
	assert.True(t, g.TryAcquire(), "slot reusable after release")
}

func TestRunner_SkipsWhileHeld(t *testing.T) {
	r := NewRunner(func() (Config, error) {
		t.Fatal("config must not load on a skipped trigger")
		return Config{}, nil
	}, discardLog)

	require.True(t, r.guard.TryAcquire())
	defer r.guard.Release()

	outcome := r.Trigger(context.Background())
	assert.False(t, outcome.Success)
	assert.Equal(t, KindSkipped, outcome.Kind)
}

func TestRunner_ReleasesGuardAfterRun(t *testing.T) {
	conn := datedConn()
	r := NewRunner(func() (Config, error) {
		return Config{
			Connect:    func(ctx context.Context) (remote.Conn, error) { return conn, nil },
			Send:       func(msg *compose.Message) error { return nil },
			Convention: ConventionDatedFolder,
			ScratchDir: t.TempDir(),
		}, nil
	}, discardLog)

	outcome := r.Trigger(context.Background())
	require.True(t, outcome.Success, outcome.Message)
	assert.False(t, r.Running(), "guard released after the run ends")
}

func TestRunner_ConfigLoadFailureReleasesGuard(t *testing.T) {
	r := NewRunner(func() (Config, error) {
		return Config{}, errors.New("bad config")
	}, discardLog)

	outcome := r.Trigger(context.Background())
	require.False(t, outcome.Success)
	assert.Equal(t, KindInternal, outcome.Kind)
	assert.False(t, r.Running())
}

func TestRunner_LogsProgress(t *testing.T) {
	var lines []string
	logf := func(format string, args ...any) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}

	conn := datedConn()
	r := NewRunner(func() (Config, error) {
		return Config{
			Connect:       func(ctx context.Context) (remote.Conn, error) { return conn, nil },
			Send:          func(msg *compose.Message) error { return nil },
			Convention:    ConventionDatedFolder,
			ScratchDir:    t.TempDir(),
			SubjectPrefix: "Daily report",
		}, nil
	}, logf)

	outcome := r.Trigger(context.Background())
	require.True(t, outcome.Success, outcome.Message)

	assert.Contains(t, lines, "Starting automation job...")
	assert.Contains(t, lines, "Located latest artifact: 2024-01-02")
	assert.Contains(t, lines, "Email sent successfully")
}
