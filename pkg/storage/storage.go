package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/mozillazg/go-unidecode"
	"github.com/spf13/afero"
)

// ImageStorage defines contract for the blob store behind avatars and the gallery.
type ImageStorage interface {
	// UploadImage stores r under folder/key and returns a publicly fetchable URL.
	UploadImage(ctx context.Context, r io.Reader, folder, key string) (string, error)
	// DeleteImage deletes a blob using the URL UploadImage returned.
	DeleteImage(ctx context.Context, fileURL string) error
}

const (
	DriverCloudinary = "cloudinary"
	DriverMinIO      = "minio"
	DriverLocal      = "local"
)

type Options struct {
	Driver string

	CloudinaryFolder string

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool

	LocalDir       string
	LocalPublicURL string
}

// New builds the driver selected by opts.Driver.
func New(ctx context.Context, opts Options) (ImageStorage, error) {
	switch opts.Driver {
	case DriverCloudinary:
		return NewCloudinaryStorage(opts.CloudinaryFolder)
	case DriverMinIO:
		return NewMinIOStorage(ctx, opts.MinIOEndpoint, opts.MinIOAccessKey, opts.MinIOSecretKey, opts.MinIOBucket, opts.MinIOUseSSL)
	case DriverLocal, "":
		if err := ensureDir(opts.LocalDir); err != nil {
			return nil, err
		}
		return NewLocalStorage(afero.NewBasePathFs(afero.NewOsFs(), opts.LocalDir), opts.LocalPublicURL), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}
}

func ensureDir(dir string) error {
	if err := afero.NewOsFs().MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create upload dir %s: %w", dir, err)
	}
	return nil
}

var (
	unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)
	dotRuns        = regexp.MustCompile(`\.{2,}`)
)

// ObjectKey builds "<unix-millis>-<filename>" with the filename folded to a
// URL and filesystem safe ASCII form.
func ObjectKey(now time.Time, fileName string) string {
	base := filepath.Base(fileName)
	base = unidecode.Unidecode(base)
	base = strings.ReplaceAll(base, " ", "_")
	base = unsafeKeyChars.ReplaceAllString(base, "")
	base = dotRuns.ReplaceAllString(base, ".")
	base = strings.Trim(base, ".-_")
	if base == "" {
		base = "image"
	}
	return fmt.Sprintf("%d-%s", now.UnixMilli(), base)
}
