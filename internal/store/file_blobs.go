package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
)

// fileBlobStorage keeps attachment bytes on the local filesystem, one
// directory per record id:
//
//	<root>/<record id>/<filename>
type fileBlobStorage struct {
	root   string
	logger *logger.Logger
}

// NewFileBlobStorage returns a BlobStore rooted at dir, creating it if needed.
func NewFileBlobStorage(dir string, logger *logger.Logger) (BlobStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: empty blob directory", ErrInvalidBlobName)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Err(err).Str("func", "NewFileBlobStorage").Str("dir", dir).Msg("failed to create blob directory")
		return nil, fmt.Errorf("create blob directory: %w", err)
	}
	return &fileBlobStorage{root: dir, logger: logger}, nil
}

func (f *fileBlobStorage) PutBlob(ctx context.Context, recordID, filename string, data []byte) error {
	path, err := f.blobPath(recordID, filename)
	if err != nil {
		return err
	}
	if err = ctx.Err(); err != nil {
		return err
	}

	if err = os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create record blob directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".blob-*")
	if err != nil {
		return fmt.Errorf("create temp blob: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write blob: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close blob: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		f.logger.Err(err).
			Str("func", "fileBlobStorage.PutBlob").
			Str("record_id", recordID).
			Str("filename", filename).
			Msg("failed to move blob into place")
		return fmt.Errorf("store blob: %w", err)
	}

	return nil
}

func (f *fileBlobStorage) GetBlob(ctx context.Context, recordID, filename string) ([]byte, error) {
	path, err := f.blobPath(recordID, filename)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read blob: %w", err)
	}
	return data, nil
}

func (f *fileBlobStorage) ListBlobs(ctx context.Context, recordID string) ([]string, error) {
	dir, err := f.recordDir(recordID)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list blobs: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".blob-") {
			continue
		}
		names = append(names, e.Name())
	}
	slices.Sort(names)
	return names, nil
}

func (f *fileBlobStorage) DeleteBlobs(ctx context.Context, recordID string) error {
	dir, err := f.recordDir(recordID)
	if err != nil {
		return err
	}
	if err = os.RemoveAll(dir); err != nil {
		return fmt.Errorf("delete blobs: %w", err)
	}
	return nil
}

func (f *fileBlobStorage) recordDir(recordID string) (string, error) {
	if !validName(recordID) {
		return "", fmt.Errorf("%w: record id %q", ErrInvalidBlobName, recordID)
	}
	return filepath.Join(f.root, recordID), nil
}

func (f *fileBlobStorage) blobPath(recordID, filename string) (string, error) {
	dir, err := f.recordDir(recordID)
	if err != nil {
		return "", err
	}
	if !validName(filename) {
		return "", fmt.Errorf("%w: filename %q", ErrInvalidBlobName, filename)
	}
	return filepath.Join(dir, filename), nil
}

// validName rejects names that are empty or would leave their directory.
func validName(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}
