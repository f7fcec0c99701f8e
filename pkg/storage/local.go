package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// localStorage writes blobs to a filesystem served by the HTTP server under
// publicURL. Production uses a base path OS filesystem, tests a MemMapFs.
type localStorage struct {
	fs        afero.Fs
	publicURL string
}

func NewLocalStorage(fsys afero.Fs, publicURL string) ImageStorage {
	return &localStorage{
		fs:        fsys,
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}
}

func (s *localStorage) UploadImage(ctx context.Context, r io.Reader, folder, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return "", fmt.Errorf("invalid object key %q", key)
	}

	if err := s.fs.MkdirAll(folder, 0o755); err != nil {
		return "", fmt.Errorf("failed to create folder %s: %w", folder, err)
	}

	objectPath := path.Join(folder, key)
	if err := afero.WriteReader(s.fs, objectPath, r); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", objectPath, err)
	}

	return s.publicURL + "/" + objectPath, nil
}

func (s *localStorage) DeleteImage(ctx context.Context, fileURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	prefix := s.publicURL + "/"
	if !strings.HasPrefix(fileURL, prefix) {
		return fmt.Errorf("url %q is not served by local storage", fileURL)
	}

	objectPath := path.Clean(strings.TrimPrefix(fileURL, prefix))
	if objectPath == ".." || strings.HasPrefix(objectPath, "../") {
		return fmt.Errorf("invalid object path %q", objectPath)
	}

	if err := s.fs.Remove(objectPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", objectPath, err)
	}
	return nil
}
