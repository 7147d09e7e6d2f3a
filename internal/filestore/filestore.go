// Package filestore keeps uploaded report files on local disk behind opaque
// handles. Content is validated and durably written before any database row
// references it, so a crash between the two at worst orphans a file.
package filestore

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/frahmantamala/report-management/internal"
)

const pdfContentType = "application/pdf"

var pdfMagic = []byte("%PDF-")

type Store struct {
	dir      string
	maxBytes int64
}

func New(dir string, maxBytes int64) (*Store, error) {
	if maxBytes <= 0 {
		maxBytes = internal.DefaultMaxUploadBytes
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &Store{dir: dir, maxBytes: maxBytes}, nil
}

// Save validates and writes the content, returning an opaque handle and the
// stored size. Only PDF payloads up to the configured ceiling are accepted;
// both the declared content type and the file magic must match.
func (s *Store) Save(content io.Reader, declaredType string) (string, int64, error) {
	if declaredType != "" && !strings.HasPrefix(declaredType, pdfContentType) {
		return "", 0, internal.NewValidationError("only PDF files are accepted", internal.ErrCodeFileNotPDF)
	}

	// read one byte past the ceiling to detect oversized payloads
	data, err := io.ReadAll(io.LimitReader(content, s.maxBytes+1))
	if err != nil {
		return "", 0, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return "", 0, internal.NewValidationError(
			fmt.Sprintf("file exceeds the %d byte limit", s.maxBytes),
			internal.ErrCodeFileTooLarge)
	}
	if len(data) == 0 {
		return "", 0, internal.NewValidationError("file is required", internal.ErrCodeFileMissing)
	}

	if !bytes.HasPrefix(data, pdfMagic) || http.DetectContentType(data) != pdfContentType {
		return "", 0, internal.NewValidationError("only PDF files are accepted", internal.ErrCodeFileNotPDF)
	}

	handle := uuid.NewString() + ".pdf"
	path := filepath.Join(s.dir, handle)

	tmp, err := os.CreateTemp(s.dir, "upload-*")
	if err != nil {
		return "", 0, fmt.Errorf("failed to create upload file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", 0, fmt.Errorf("failed to write upload file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", 0, fmt.Errorf("failed to sync upload file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", 0, fmt.Errorf("failed to close upload file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", 0, fmt.Errorf("failed to place upload file: %w", err)
	}

	return handle, int64(len(data)), nil
}

// Open returns the content behind a handle.
func (s *Store) Open(handle string) (io.ReadCloser, error) {
	clean := filepath.Base(handle) // handles are flat names, never paths
	f, err := os.Open(filepath.Join(s.dir, clean))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, internal.NewNotFoundError("file not found", internal.ErrCodeReportNotFound)
		}
		return nil, err
	}
	return f, nil
}

// Remove deletes the content behind a handle. Missing files are not an
// error: removal is used for best-effort cleanup.
func (s *Store) Remove(handle string) error {
	clean := filepath.Base(handle)
	err := os.Remove(filepath.Join(s.dir, clean))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
