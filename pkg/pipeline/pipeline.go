// Package pipeline orchestrates one report job: connect, locate the newest
// artifact, fetch it to scratch storage, compose and send the notification
// email, and clean up. Stages run strictly sequentially and short-circuit on
// the first fatal fault.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/automailhq/automail/pkg/compose"
	"github.com/automailhq/automail/pkg/fetch"
	"github.com/automailhq/automail/pkg/locate"
	"github.com/automailhq/automail/pkg/remote"
)

// Convention selects how the newest artifact is identified.
type Convention string

const (
	// ConventionDatedFolder: one folder per day named YYYY-MM-DD, holding the
	// document and an optional preview image.
	ConventionDatedFolder Convention = "dated-folder"

	// ConventionTimestampedFile: flat files named
	// <prefix>YYYY-MM-DD-HH-mm.pdf.
	ConventionTimestampedFile Convention = "timestamped-file"
)

// DefaultJobTimeout bounds a whole run when Config.JobTimeout is zero. A hung
// network call therefore cannot hold the run guard forever.
const DefaultJobTimeout = 10 * time.Minute

// Logf receives operator-visible progress lines.
type Logf func(format string, args ...any)

// Config is the bundle one job run needs. It is assembled by the orchestrator
// from persisted configuration and discarded when the run ends.
type Config struct {
	// Connect dials the remote endpoint. Injected so the backend (ftp, s3)
	// is chosen by configuration, not by this package.
	Connect func(ctx context.Context) (remote.Conn, error)

	// Send transmits the composed message. Injected for the same reason.
	Send func(msg *compose.Message) error

	// Render overrides page rasterization. Nil uses compose.RenderPages.
	Render compose.RenderFunc

	Convention Convention

	// FilePrefix is the fixed prefix for the timestamped-file convention.
	FilePrefix string

	// PrimaryPattern/SecondaryPattern override the artifact globs inside a
	// dated folder. Empty uses the fetch package defaults.
	PrimaryPattern   string
	SecondaryPattern string

	ScratchDir string
	RenderDPI  float64

	Recipients    []string
	SubjectPrefix string
	Body          string

	// JobTimeout bounds the whole run. Zero means DefaultJobTimeout.
	JobTimeout time.Duration
}

func (c Config) strategy() locate.Strategy {
	if c.Convention == ConventionTimestampedFile {
		return locate.TimestampedFile{Prefix: c.FilePrefix}
	}
	return locate.DatedFolder{}
}

// Run executes one job. Every scratch file created along the way is removed
// before Run returns, success or failure.
func Run(ctx context.Context, cfg Config, logf Logf) Outcome {
	timeout := cfg.JobTimeout
	if timeout <= 0 {
		timeout = DefaultJobTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var scratch []string
	defer func() {
		for _, path := range scratch {
			if err := os.Remove(path); err == nil {
				logf("Cleaned up: %s", path)
			}
		}
	}()

	conn, err := cfg.Connect(ctx)
	if err != nil {
		return failed(err)
	}
	defer func() { _ = conn.Close() }()
	logf("Connected to remote endpoint")

	listing, err := conn.List(ctx)
	if err != nil {
		return failed(err)
	}

	ref, err := cfg.strategy().Select(listing)
	if err != nil {
		return failed(fmt.Errorf("%w (convention %s)", err, cfg.Convention))
	}
	logf("Located latest artifact: %s", ref.Name)

	docPath, previewPath, err := fetchArtifacts(ctx, conn, cfg, ref, &scratch, logf)
	if err != nil {
		return failed(err)
	}

	if err := composeAndSend(cfg, ref, docPath, previewPath, logf); err != nil {
		return failed(err)
	}

	logf("Email sent successfully")
	return succeeded(fmt.Sprintf("report %s sent to %d recipient(s)", ref.Name, len(cfg.Recipients)))
}

// fetchArtifacts downloads the primary document and, under the dated-folder
// convention, the optional preview image. Only the primary is fatal: a failed
// preview fetch degrades to document-only with a log line.
func fetchArtifacts(ctx context.Context, conn remote.Conn, cfg Config, ref locate.Ref, scratch *[]string, logf Logf) (docPath, previewPath string, err error) {
	if cfg.Convention == ConventionTimestampedFile {
		docPath = fetch.ScratchPath(cfg.ScratchDir, ref.Name)
		if err := fetch.Fetch(ctx, conn, ref.Name, docPath); err != nil {
			return "", "", err
		}
		*scratch = append(*scratch, docPath)
		logf("Downloaded document: %s", ref.Name)
		return docPath, "", nil
	}

	files, err := fetch.ResolveFolderFiles(ctx, conn, ref.Name, cfg.PrimaryPattern, cfg.SecondaryPattern)
	if err != nil {
		return "", "", err
	}
	logf("Found document %s, preview %s", files.Primary, orNone(files.Secondary))

	err = remote.WithDir(ctx, conn, ref.Name, func() error {
		docPath = fetch.ScratchPath(cfg.ScratchDir, files.Primary)
		if err := fetch.Fetch(ctx, conn, files.Primary, docPath); err != nil {
			return err
		}
		*scratch = append(*scratch, docPath)
		logf("Downloaded document: %s", files.Primary)

		if files.Secondary == "" {
			return nil
		}
		candidate := fetch.ScratchPath(cfg.ScratchDir, files.Secondary)
		if err := fetch.Fetch(ctx, conn, files.Secondary, candidate); err != nil {
			logf("Preview download failed, continuing without it: %v", err)
			return nil
		}
		*scratch = append(*scratch, candidate)
		previewPath = candidate
		logf("Downloaded preview: %s", files.Secondary)
		return nil
	})
	if err != nil {
		return "", "", err
	}
	return docPath, previewPath, nil
}

// composeAndSend picks the composition mode: pass-through when an external
// preview image exists, self-rendering otherwise.
func composeAndSend(cfg Config, ref locate.Ref, docPath, previewPath string, logf Logf) error {
	params := compose.Params{
		Recipients: cfg.Recipients,
		Subject:    fmt.Sprintf("%s (%s)", cfg.SubjectPrefix, ref.Name),
		Body:       cfg.Body,
	}

	if previewPath != "" {
		msg, err := compose.PassThrough(params, docPath, previewPath)
		if err != nil {
			return err
		}
		return cfg.Send(msg)
	}

	render := cfg.Render
	if render == nil {
		render = compose.RenderPages
	}
	pages, err := render(docPath, cfg.ScratchDir, cfg.RenderDPI)
	if err != nil {
		return err
	}
	defer compose.CleanupPages(pages)
	logf("Rendered %d page preview(s)", len(pages))

	msg, err := compose.FromPages(params, docPath, pages)
	if err != nil {
		return err
	}
	return cfg.Send(msg)
}

func orNone(name string) string {
	if name == "" {
		return "(none)"
	}
	return name
}
