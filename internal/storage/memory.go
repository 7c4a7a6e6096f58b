package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/aws-samples/media-localization-with-visual-dubbing-lip-sync/pkg/s3uri"
)

// MemoryStore is an in-process Store used by tests and dry runs.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string][]byte),
	}
}

func (m *MemoryStore) Put(_ context.Context, uri s3uri.URI, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	buf := make([]byte, len(body))
	copy(buf, body)
	m.objects[uri.String()] = buf
	return nil
}

func (m *MemoryStore) Get(_ context.Context, uri s3uri.URI) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	body, ok := m.objects[uri.String()]
	if !ok {
		return nil, fmt.Errorf("object does not exist: %s", uri)
	}
	buf := make([]byte, len(body))
	copy(buf, body)
	return buf, nil
}

func (m *MemoryStore) Exists(_ context.Context, uri s3uri.URI) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.objects[uri.String()]
	return ok, nil
}

func (m *MemoryStore) Download(ctx context.Context, uri s3uri.URI, localPath string) error {
	body, err := m.Get(ctx, uri)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(localPath, body, 0o644)
}

func (m *MemoryStore) Upload(ctx context.Context, localPath string, uri s3uri.URI) error {
	body, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", localPath, err)
	}
	return m.Put(ctx, uri, body)
}

func (m *MemoryStore) List(_ context.Context, bucket, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	uriPrefix := s3uri.URI{Bucket: bucket, Key: prefix}.String()
	keys := make([]string, 0)
	for raw := range m.objects {
		if strings.HasPrefix(raw, uriPrefix) {
			parsed, err := s3uri.Parse(raw)
			if err != nil {
				continue
			}
			keys = append(keys, parsed.Key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
