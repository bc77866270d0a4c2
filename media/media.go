// Package media validates and stores images uploaded from the admin panel.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrTooLarge        = errors.New("file too large")
	ErrEmpty           = errors.New("file is empty")
)

// AllowedExtensions are the image types accepted for upload.
var AllowedExtensions = []string{".jpg", ".jpeg", ".png", ".webp", ".gif"}

// Uploaded is a stored file.
type Uploaded struct {
	URL      string `json:"file_url"`
	PublicID string `json:"public_id,omitempty"`
}

type Uploader interface {
	Upload(ctx context.Context, name string, r io.Reader) (Uploaded, error)
	Delete(ctx context.Context, publicID string) error
}

// Validate checks a file's name and size before anything is sent out.
func Validate(name string, size, maxBytes int64) error {
	ext := strings.ToLower(filepath.Ext(name))
	allowed := false
	for _, a := range AllowedExtensions {
		if ext == a {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w %q", ErrUnsupportedType, ext)
	}
	if size <= 0 {
		return ErrEmpty
	}
	if maxBytes > 0 && size > maxBytes {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, size, maxBytes)
	}
	return nil
}

// IsValidationError reports whether err rejects the file itself.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrUnsupportedType) || errors.Is(err, ErrTooLarge) || errors.Is(err, ErrEmpty)
}

type Service struct {
	uploader Uploader
	maxBytes int64
}

func NewService(uploader Uploader, maxBytes int64) *Service {
	return &Service{uploader: uploader, maxBytes: maxBytes}
}

// Upload validates the file then stores it.
func (s *Service) Upload(ctx context.Context, name string, size int64, r io.Reader) (Uploaded, error) {
	if err := Validate(name, size, s.maxBytes); err != nil {
		return Uploaded{}, err
	}
	// Never read past the declared size.
	limited := io.LimitReader(r, size)
	up, err := s.uploader.Upload(ctx, name, limited)
	if err != nil {
		return Uploaded{}, fmt.Errorf("failed to upload %s: %w", name, err)
	}
	zap.S().Infow("Uploaded file", "name", name, "size", size, "url", up.URL)
	return up, nil
}

func (s *Service) Delete(ctx context.Context, publicID string) error {
	if err := s.uploader.Delete(ctx, publicID); err != nil {
		return fmt.Errorf("failed to delete %s: %w", publicID, err)
	}
	return nil
}
