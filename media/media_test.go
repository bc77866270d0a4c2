package media

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	const limit = 10 << 20
	tests := []struct {
		name    string
		file    string
		size    int64
		wantErr error
	}{
		{"jpg", "deck.jpg", 1024, nil},
		{"upper case ext", "DECK.JPEG", 1024, nil},
		{"webp", "a.webp", limit, nil},
		{"pdf", "plan.pdf", 1024, ErrUnsupportedType},
		{"no ext", "photo", 1024, ErrUnsupportedType},
		{"too large", "big.png", limit + 1, ErrTooLarge},
		{"empty", "empty.gif", 0, ErrEmpty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.file, tt.size, limit)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, IsValidationError(err))
		})
	}
}

type countingUploader struct {
	calls int
	err   error
}

func (c *countingUploader) Upload(ctx context.Context, name string, r io.Reader) (Uploaded, error) {
	c.calls++
	if c.err != nil {
		return Uploaded{}, c.err
	}
	return Uploaded{URL: "https://cdn.example/" + name}, nil
}

func (c *countingUploader) Delete(ctx context.Context, publicID string) error { return nil }

func TestService_RejectsBeforeUpload(t *testing.T) {
	up := &countingUploader{}
	svc := NewService(up, 10)

	_, err := svc.Upload(context.Background(), "a.exe", 5, strings.NewReader("hello"))
	assert.ErrorIs(t, err, ErrUnsupportedType)
	_, err = svc.Upload(context.Background(), "a.png", 11, strings.NewReader("hello world"))
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.Equal(t, 0, up.calls)

	got, err := svc.Upload(context.Background(), "a.png", 5, strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/a.png", got.URL)

	up.err = errors.New("quota")
	_, err = svc.Upload(context.Background(), "a.png", 5, strings.NewReader("hello"))
	assert.Error(t, err)
	assert.False(t, IsValidationError(err))
}

func TestDiskUploader(t *testing.T) {
	dir := t.TempDir()
	d, err := NewDiskUploader(dir, "/uploads/")
	require.NoError(t, err)

	up, err := d.Upload(context.Background(), "Photo.PNG", strings.NewReader("pixels"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(up.URL, "/uploads/"))
	assert.True(t, strings.HasSuffix(up.URL, ".png"))

	data, err := os.ReadFile(filepath.Join(dir, up.PublicID))
	require.NoError(t, err)
	assert.Equal(t, "pixels", string(data))

	require.NoError(t, d.Delete(context.Background(), up.PublicID))
	assert.Error(t, d.Delete(context.Background(), "../etc/passwd"))
}
