package catalog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"

	"bingo-service/internal/models"
)

// Source yields every card it holds.
type Source interface {
	Load(ctx context.Context) ([]*models.Card, error)
}

// LoadAll reads every source in order. Any malformed card fails the load.
func LoadAll(ctx context.Context, sources ...Source) ([]*models.Card, error) {
	var cards []*models.Card
	for _, src := range sources {
		loaded, err := src.Load(ctx)
		if err != nil {
			return nil, err
		}
		cards = append(cards, loaded...)
	}
	return cards, nil
}

type DirSource struct {
	Dir string
}

func (s DirSource) Load(ctx context.Context) ([]*models.Card, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read cards directory: %w", err)
	}

	var cards []*models.Card
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !IsCardFile(entry.Name()) {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.Dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read card file: %w", err)
		}
		card, err := Parse(entry.Name(), data)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}

	log.Printf("Loaded %d cards from %s", len(cards), s.Dir)
	return cards, nil
}

// ObjectStore is the subset of the S3 client the catalog needs.
type ObjectStore interface {
	CreateBucket(ctx context.Context, bucketName string) error
	UploadFile(ctx context.Context, bucketName, objectName string, reader io.Reader, size int64, contentType string) error
	ListFiles(ctx context.Context, bucketName, prefix string) ([]string, error)
	DownloadFile(ctx context.Context, bucketName, objectName string) (io.ReadCloser, error)
}

type S3Source struct {
	store  ObjectStore
	bucket string
	prefix string
}

func NewS3Source(store ObjectStore, bucket, prefix string) *S3Source {
	return &S3Source{store: store, bucket: bucket, prefix: prefix}
}

func (s *S3Source) Load(ctx context.Context) ([]*models.Card, error) {
	names, err := s.store.ListFiles(ctx, s.bucket, s.prefix)
	if err != nil {
		return nil, err
	}

	var cards []*models.Card
	for _, name := range names {
		if !IsCardFile(name) {
			continue
		}
		card, err := s.fetch(ctx, name)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}

	log.Printf("Loaded %d cards from s3://%s/%s", len(cards), s.bucket, s.prefix)
	return cards, nil
}

func (s *S3Source) fetch(ctx context.Context, name string) (*models.Card, error) {
	r, err := s.store.DownloadFile(ctx, s.bucket, name)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return Parse(path.Base(name), data)
}

// Push validates every card file in dir and uploads it under the prefix.
func (s *S3Source) Push(ctx context.Context, dir string) (int, error) {
	if err := s.store.CreateBucket(ctx, s.bucket); err != nil {
		return 0, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read cards directory: %w", err)
	}

	pushed := 0
	for _, entry := range entries {
		if entry.IsDir() || !IsCardFile(entry.Name()) {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return pushed, fmt.Errorf("failed to read card file: %w", err)
		}
		if _, err := Parse(entry.Name(), data); err != nil {
			return pushed, err
		}

		object := strings.TrimSuffix(s.prefix, "/")
		if object != "" {
			object += "/"
		}
		object += entry.Name()

		if err := s.store.UploadFile(ctx, s.bucket, object, bytes.NewReader(data), int64(len(data)), contentType(entry.Name())); err != nil {
			return pushed, err
		}
		pushed++
	}
	return pushed, nil
}

func contentType(name string) string {
	if strings.EqualFold(path.Ext(name), ".json") {
		return "application/json"
	}
	return "application/yaml"
}
