package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"ihk_prep_backend/internal/config"
	"ihk_prep_backend/internal/util"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ContentSource abstracts where the content manifest lives. The engine
// reads modules/, quizzes/, learning-paths/ and metadata/ through it.
type ContentSource interface {
	// ListJSON returns the names of the .json files directly under dir.
	ListJSON(ctx context.Context, dir string) ([]string, error)
	// ReadFile returns the raw bytes of dir/name.
	ReadFile(ctx context.Context, dir, name string) ([]byte, error)
}

// NewContentSource builds the configured source: a local directory by
// default, a MinIO bucket when configured.
func NewContentSource(cfg *config.ContentConfig) (ContentSource, error) {
	switch cfg.SourceType {
	case util.ContentSourceLocal, "":
		return &LocalContentSource{Root: cfg.Dir}, nil
	case util.ContentSourceMinio:
		client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
			Secure: cfg.MinioUseSSL,
		})
		if err != nil {
			return nil, err
		}
		return &MinioContentSource{
			Client: client,
			Bucket: cfg.MinioBucket,
			Prefix: cfg.MinioPrefix,
		}, nil
	default:
		return nil, fmt.Errorf("unknown content source type %q", cfg.SourceType)
	}
}

// LocalContentSource reads the manifest from a directory on disk.
type LocalContentSource struct {
	Root string
}

func (s *LocalContentSource) ListJSON(ctx context.Context, dir string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.Root, dir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

func (s *LocalContentSource) ReadFile(ctx context.Context, dir, name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(s.Root, dir, name))
}

// MinioContentSource reads the manifest from an object storage bucket.
type MinioContentSource struct {
	Client *minio.Client
	Bucket string
	Prefix string
}

func (s *MinioContentSource) ListJSON(ctx context.Context, dir string) ([]string, error) {
	prefix := path.Join(s.Prefix, dir) + "/"
	var names []string
	for obj := range s.Client.ListObjects(ctx, s.Bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: false,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		name := strings.TrimPrefix(obj.Key, prefix)
		if name == "" || strings.Contains(name, "/") || !strings.HasSuffix(name, ".json") {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

func (s *MinioContentSource) ReadFile(ctx context.Context, dir, name string) ([]byte, error) {
	obj, err := s.Client.GetObject(ctx, s.Bucket, path.Join(s.Prefix, dir, name), minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	return io.ReadAll(obj)
}
