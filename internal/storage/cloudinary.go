package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// ErrNotConfigured is returned by Disabled so uploads fail with a clear reason.
var ErrNotConfigured = errors.New("image uploads are not configured")

type ImageStore interface {
	UploadAvatar(ctx context.Context, file io.Reader, userID string) (string, error)
	UploadBlogCover(ctx context.Context, file io.Reader, postID string) (string, error)
}

type CloudinaryStore struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryStore(cloudName, apiKey, apiSecret string) (*CloudinaryStore, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("cloudinary configuration is missing")
	}

	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}
	return &CloudinaryStore{cld: cld}, nil
}

func (s *CloudinaryStore) UploadAvatar(ctx context.Context, file io.Reader, userID string) (string, error) {
	overwrite := true
	res, err := s.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		PublicID:       userID,
		Folder:         "campus-rank/avatars",
		Overwrite:      &overwrite,
		ResourceType:   "image",
		Format:         "jpg",
		Transformation: "c_fill,g_face,h_400,w_400",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload avatar: %w", err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("cloudinary rejected avatar: %s", res.Error.Message)
	}
	return res.SecureURL, nil
}

func (s *CloudinaryStore) UploadBlogCover(ctx context.Context, file io.Reader, postID string) (string, error) {
	overwrite := true
	res, err := s.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		PublicID:       postID,
		Folder:         "campus-rank/blog",
		Overwrite:      &overwrite,
		ResourceType:   "image",
		Transformation: "c_fill,h_630,w_1200",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload blog cover: %w", err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("cloudinary rejected cover: %s", res.Error.Message)
	}
	return res.SecureURL, nil
}

type Disabled struct{}

func (Disabled) UploadAvatar(context.Context, io.Reader, string) (string, error) {
	return "", ErrNotConfigured
}

func (Disabled) UploadBlogCover(context.Context, io.Reader, string) (string, error) {
	return "", ErrNotConfigured
}
