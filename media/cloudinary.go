package media

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryUploader stores files in a Cloudinary folder.
type CloudinaryUploader struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinary(cloudURL, folder string) (*CloudinaryUploader, error) {
	cld, err := cloudinary.NewFromURL(cloudURL)
	if err != nil {
		return nil, fmt.Errorf("cloudinary init: %w", err)
	}
	return &CloudinaryUploader{cld: cld, folder: folder}, nil
}

func (c *CloudinaryUploader) Upload(ctx context.Context, _ string, r io.Reader) (Uploaded, error) {
	res, err := c.cld.Upload.Upload(ctx, r, uploader.UploadParams{Folder: c.folder})
	if err != nil {
		return Uploaded{}, err
	}
	if res.SecureURL == "" {
		return Uploaded{}, errors.New(res.Error.Message)
	}
	return Uploaded{URL: res.SecureURL, PublicID: res.PublicID}, nil
}

func (c *CloudinaryUploader) Delete(ctx context.Context, publicID string) error {
	_, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	return err
}
