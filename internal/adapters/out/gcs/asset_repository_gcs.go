// internal/adapters/out/gcs/asset_repository_gcs.go
package gcs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
)

// =====================================================
// GCS-based object storage for drop assets
// =====================================================
//
// The provision CLI pushes each item's image and metadata.json here
// before the candy machine is created; the hosted URLs go into the
// on-chain metadata.

type AssetRepositoryGCS struct {
	Client *storage.Client
	Bucket string
}

// NewAssetRepositoryGCS creates a repository backed by GCS.
func NewAssetRepositoryGCS(client *storage.Client, bucket string) *AssetRepositoryGCS {
	return &AssetRepositoryGCS{
		Client: client,
		Bucket: strings.TrimSpace(bucket),
	}
}

func (r *AssetRepositoryGCS) bucketName() (string, error) {
	if r.Client == nil {
		return "", errors.New("assets: GCS client is nil")
	}
	b := strings.TrimSpace(r.Bucket)
	if b == "" {
		return "", errors.New("assets: bucket is empty")
	}
	return b, nil
}

// objectPath builds "<drop>/<fileName>".
func objectPath(drop, fileName string) (string, error) {
	d := strings.TrimSpace(drop)
	f := strings.TrimLeft(strings.TrimSpace(fileName), "/")
	if d == "" || f == "" {
		return "", fmt.Errorf("invalid drop or fileName: %q, %q", drop, fileName)
	}
	return d + "/" + f, nil
}

// Put uploads one object and returns its public URL.
func (r *AssetRepositoryGCS) Put(ctx context.Context, drop, fileName, contentType string, data []byte) (string, error) {
	bucket, err := r.bucketName()
	if err != nil {
		return "", err
	}
	path, err := objectPath(drop, fileName)
	if err != nil {
		return "", err
	}

	w := r.Client.Bucket(bucket).Object(path).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("assets: write %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("assets: close %s: %w", path, err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, path), nil
}

// UploadDir uploads every *.json (and sibling *.png) under dir and
// returns the metadata URLs in item order (0.json, 1.json, …).
func (r *AssetRepositoryGCS) UploadDir(ctx context.Context, drop, dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("assets: read dir %s: %w", dir, err)
	}

	var metaFiles []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		switch {
		case strings.HasSuffix(name, ".json"):
			metaFiles = append(metaFiles, name)
		case strings.HasSuffix(name, ".png"):
			data, err := os.ReadFile(filepath.Join(dir, name))
			if err != nil {
				return nil, fmt.Errorf("assets: read %s: %w", name, err)
			}
			if _, err := r.Put(ctx, drop, name, "image/png", data); err != nil {
				return nil, err
			}
		}
	}
	sort.Strings(metaFiles)

	urls := make([]string, 0, len(metaFiles))
	for _, name := range metaFiles {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("assets: read %s: %w", name, err)
		}
		url, err := r.Put(ctx, drop, name, "application/json", data)
		if err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}
