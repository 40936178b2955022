package storage

import (
	"bytes"
	"context"
	"fmt"

	repo "storefront/internal/repository"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

// Cloudinaryに画像を置く。pathはpublic id。
type CloudinaryStorage struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryStorage(cldURL string) (*CloudinaryStorage, error) {
	cld, err := cloudinary.NewFromURL(cldURL)
	if err != nil {
		return nil, fmt.Errorf("cloudinary init from URL: %w", err)
	}
	return &CloudinaryStorage{cld: cld}, nil
}

func (s *CloudinaryStorage) Save(ctx context.Context, dir string, file repo.FileUpload) (string, error) {
	resp, err := s.cld.Upload.Upload(ctx, bytes.NewReader(file.Data), uploader.UploadParams{
		PublicID: uuid.NewString(),
		Folder:   cleanDir(dir),
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	if resp == nil || resp.PublicID == "" {
		return "", fmt.Errorf("cloudinary upload: empty response")
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload: %s", resp.Error.Message)
	}
	return resp.PublicID, nil
}

func (s *CloudinaryStorage) Delete(ctx context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}
	res, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("cloudinary destroy: %w", err)
	}
	// "not found"は削除済み扱い
	if res != nil && res.Error.Message != "" {
		return fmt.Errorf("cloudinary destroy: %s", res.Error.Message)
	}
	return nil
}

func (s *CloudinaryStorage) URL(publicID string) string {
	if publicID == "" {
		return ""
	}
	img, err := s.cld.Image(publicID)
	if err != nil {
		return ""
	}
	u, err := img.String()
	if err != nil {
		return ""
	}
	return u
}
