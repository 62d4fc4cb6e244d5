// Package fetch materializes remote report artifacts into local scratch files.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"

	"github.com/automailhq/automail/pkg/remote"
)

// ErrNoPrimary indicates a dated folder contains no primary document.
var ErrNoPrimary = errors.New("no primary document in folder")

// Default glob patterns for artifact roles. Matching is case-insensitive.
const (
	DefaultPrimaryPattern   = "*.pdf"
	DefaultSecondaryPattern = "*.png"
)

// FolderFiles is the result of resolving artifact names inside a dated folder.
type FolderFiles struct {
	// Primary is the document filename. Always set on success.
	Primary string

	// Secondary is the preview image filename, or empty when the folder has
	// none. A missing secondary is a signal, never an error.
	Secondary string
}

// ResolveFolderFiles enters folder, picks the first entry matching each role
// pattern, and restores the previous working directory on every exit path.
func ResolveFolderFiles(ctx context.Context, conn remote.Conn, folder, primaryPattern, secondaryPattern string) (FolderFiles, error) {
	if primaryPattern == "" {
		primaryPattern = DefaultPrimaryPattern
	}
	if secondaryPattern == "" {
		secondaryPattern = DefaultSecondaryPattern
	}

	var files FolderFiles
	err := remote.WithDir(ctx, conn, folder, func() error {
		names, err := conn.List(ctx)
		if err != nil {
			return err
		}
		for _, name := range names {
			lower := strings.ToLower(name)
			if files.Primary == "" && globMatch(primaryPattern, lower) {
				files.Primary = name
			} else if files.Secondary == "" && globMatch(secondaryPattern, lower) {
				files.Secondary = name
			}
		}
		if files.Primary == "" {
			return fmt.Errorf("%w: %s", ErrNoPrimary, folder)
		}
		return nil
	})
	if err != nil {
		return FolderFiles{}, err
	}
	return files, nil
}

func globMatch(pattern, name string) bool {
	ok, err := doublestar.Match(strings.ToLower(pattern), name)
	return err == nil && ok
}

// Fetch streams the named remote file (relative to the connection's current
// directory) into localPath.
//
// On any failure the partially written file is removed, so a fetch error never
// leaves a truncated file behind to be mistaken for a complete one.
func Fetch(ctx context.Context, conn remote.Conn, name, localPath string) error {
	f, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("create scratch file: %w", err)
	}

	if err := conn.Retrieve(ctx, name, f); err != nil {
		_ = f.Close()
		_ = os.Remove(localPath)
		return err
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(localPath)
		return fmt.Errorf("close scratch file: %w", err)
	}
	return nil
}

// ScratchPath returns a collision-safe local path for a remote name. Sequential
// runs share the scratch directory, so every run gets unique filenames.
func ScratchPath(dir, remoteName string) string {
	return filepath.Join(dir, uuid.New().String()+"-"+filepath.Base(remoteName))
}
