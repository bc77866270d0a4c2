package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DiskUploader writes files to a local directory served under baseURL.
// It stands in for Cloudinary in dev mode.
type DiskUploader struct {
	dir     string
	baseURL string
}

func NewDiskUploader(dir, baseURL string) (*DiskUploader, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &DiskUploader{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

func (d *DiskUploader) Upload(_ context.Context, name string, r io.Reader) (Uploaded, error) {
	id := uuid.NewString() + strings.ToLower(filepath.Ext(name))
	f, err := os.Create(filepath.Join(d.dir, id))
	if err != nil {
		return Uploaded{}, err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return Uploaded{}, err
	}
	if err := f.Close(); err != nil {
		return Uploaded{}, err
	}
	return Uploaded{URL: d.baseURL + "/" + id, PublicID: id}, nil
}

func (d *DiskUploader) Delete(_ context.Context, publicID string) error {
	if publicID != filepath.Base(publicID) {
		return fmt.Errorf("invalid file id %q", publicID)
	}
	return os.Remove(filepath.Join(d.dir, publicID))
}
