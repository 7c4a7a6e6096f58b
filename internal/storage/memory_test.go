package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aws-samples/media-localization-with-visual-dubbing-lip-sync/pkg/s3uri"
)

func TestMemoryStore_PutGetExists(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	uri := s3uri.Build("bucket", "inputs", "a.json")

	exists, err := store.Exists(ctx, uri)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.Put(ctx, uri, []byte(`{"a":1}`)))

	exists, err = store.Exists(ctx, uri)
	require.NoError(t, err)
	assert.True(t, exists)

	body, err := store.Get(ctx, uri)
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"a":1}`), body)

	_, err = store.Get(ctx, s3uri.Build("bucket", "missing"))
	require.Error(t, err)
}

func TestMemoryStore_UploadDownload(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	uri := s3uri.Build("bucket", "inputs", "clip.wav")

	src := filepath.Join(t.TempDir(), "clip.wav")
	require.NoError(t, os.WriteFile(src, []byte("pcm-bytes"), 0o644))
	require.NoError(t, store.Upload(ctx, src, uri))

	dst := filepath.Join(t.TempDir(), "nested", "clip.wav")
	require.NoError(t, store.Download(ctx, uri, dst))

	body, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, []byte("pcm-bytes"), body)
}

func TestMemoryStore_List(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Put(ctx, s3uri.Build("b", "inputs/jobs/b.json"), []byte("{}")))
	require.NoError(t, store.Put(ctx, s3uri.Build("b", "inputs/jobs/a.json"), []byte("{}")))
	require.NoError(t, store.Put(ctx, s3uri.Build("b", "outputs/x.wav"), []byte("x")))
	require.NoError(t, store.Put(ctx, s3uri.Build("other", "inputs/jobs/c.json"), []byte("{}")))

	keys, err := store.List(ctx, "b", "inputs/jobs")
	require.NoError(t, err)
	assert.Equal(t, []string{"inputs/jobs/a.json", "inputs/jobs/b.json"}, keys)
}
