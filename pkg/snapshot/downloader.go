// Package snapshot is the concrete, local-filesystem implementation of
// the downloadSnapshot/parseSnapshot/cleanupFile collaborators pkg/sync
// pipelines are injected with. The actual upstream snapshot producer (a
// browser-automation tool) is out of scope; this package only needs to
// hand each pipeline a real file and a real decoder so the engine runs
// end to end against files an operator (or that external tool) drops in
// a well-known directory.
package snapshot

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cuemby/syncd/pkg/types"
)

// FileDownloader resolves a (kind, tenant) pair to a CSV file under Dir
// by naming convention: "<kind>-<userID>.csv", or "<kind>-shared.csv"
// for the two tenant-less kinds.
type FileDownloader struct {
	Dir string
}

// NewFileDownloader builds a FileDownloader rooted at dir.
func NewFileDownloader(dir string) *FileDownloader {
	return &FileDownloader{Dir: dir}
}

func fileName(kind types.SyncKind, userID *string) string {
	tenant := "shared"
	if userID != nil && *userID != "" {
		tenant = *userID
	}
	return fmt.Sprintf("%s-%s.csv", kind, tenant)
}

// Path returns the path under Dir that Download would read for (kind, userID),
// without requiring the file to exist — used by callers that want to
// check presence before triggering a run.
func (d *FileDownloader) Path(kind types.SyncKind, userID *string) string {
	return filepath.Join(d.Dir, fileName(kind, userID))
}

// Download builds a DownloadSnapshot closure for kind. It does no actual
// network I/O: it copies the well-known source file into a fresh temp
// file and hands back that path, so Cleanup can remove the copy without
// touching the operator-managed source — mirroring the "downloaded file,
// cleaned up after use" contract even though the transport is a local
// copy rather than an HTTP fetch. A missing source file is reported the
// same way a transport failure would be: a blocking, possibly-transient
// error.
func (d *FileDownloader) Download(kind types.SyncKind) func(ctx context.Context, userID *string) (string, error) {
	return func(ctx context.Context, userID *string) (string, error) {
		src := d.Path(kind, userID)
		in, err := os.Open(src)
		if err != nil {
			return "", fmt.Errorf("snapshot file for %s: %w", kind, err)
		}
		defer in.Close()

		tmp, err := os.CreateTemp("", fmt.Sprintf("syncd-%s-*.csv", kind))
		if err != nil {
			return "", fmt.Errorf("stage snapshot for %s: %w", kind, err)
		}
		defer tmp.Close()

		if _, err := io.Copy(tmp, in); err != nil {
			_ = os.Remove(tmp.Name())
			return "", fmt.Errorf("stage snapshot for %s: %w", kind, err)
		}
		return tmp.Name(), nil
	}
}

// Cleanup best-effort removes a downloaded snapshot copy, swallowing its
// own errors per the pipeline contract (cleanupFile never fails a run).
func Cleanup(path string) {
	_ = os.Remove(path)
}
