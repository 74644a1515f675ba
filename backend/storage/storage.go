package storage

import (
	"context"
	"fmt"
	"io"
	"memberspace/backend/config"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Path prefixes inside the bucket. Kept in sync with the client routes
// that upload branding logos, profile photos and lesson files.
const (
	PrefixBranding = "branding"
	PrefixProfiles = "profiles"
	PrefixContent  = "content"
)

var validPrefixes = map[string]bool{
	PrefixBranding: true,
	PrefixProfiles: true,
	PrefixContent:  true,
}

func ValidPrefix(prefix string) bool {
	return validPrefixes[prefix]
}

// Client wraps an S3-compatible object store. Public URLs are persisted
// verbatim into database rows; Delete derives the object key back by
// stripping the public base URL, so the two must stay in sync.
type Client struct {
	mc        *minio.Client
	bucket    string
	publicURL string
}

func New(cfg *config.Config) (*Client, error) {
	if cfg.StorageEndpoint == "" {
		return nil, fmt.Errorf("storage endpoint not configured")
	}

	mc, err := minio.New(cfg.StorageEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.StorageAccessKey, cfg.StorageSecretKey, ""),
		Secure: cfg.StorageUseSSL,
	})
	if err != nil {
		return nil, err
	}

	publicURL := cfg.StoragePublicURL
	if publicURL == "" {
		scheme := "http"
		if cfg.StorageUseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s/%s", scheme, cfg.StorageEndpoint, cfg.StorageBucket)
	}

	return &Client{
		mc:        mc,
		bucket:    cfg.StorageBucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

// Upload stores an object under prefix/<random><ext> and returns its
// public URL. Filenames are randomized to avoid collisions; the original
// name only contributes its extension.
func (c *Client) Upload(ctx context.Context, prefix, filename string, r io.Reader, size int64, contentType string) (string, error) {
	if !ValidPrefix(prefix) {
		return "", fmt.Errorf("invalid storage prefix %q", prefix)
	}

	key := fmt.Sprintf("%s/%s%s", prefix, uuid.NewString(), path.Ext(filename))

	_, err := c.mc.PutObject(ctx, c.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}

	return c.publicURL + "/" + key, nil
}

// ObjectKey derives the bucket key of a stored object from its public URL.
func (c *Client) ObjectKey(publicURL string) (string, error) {
	if !strings.HasPrefix(publicURL, c.publicURL+"/") {
		return "", fmt.Errorf("url %q is not served by this bucket", publicURL)
	}
	return strings.TrimPrefix(publicURL, c.publicURL+"/"), nil
}

func (c *Client) Delete(ctx context.Context, publicURL string) error {
	key, err := c.ObjectKey(publicURL)
	if err != nil {
		return err
	}
	return c.mc.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{})
}
