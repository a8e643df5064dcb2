package local

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_UploadAndResolve(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	s, err := NewStore(dir, zerolog.Nop())
	require.NoError(t, err)

	ref, err := s.Upload(context.Background(), "Chair.JPG", []byte("jpeg-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(ref, ".jpg"))

	data, err := os.ReadFile(filepath.Join(dir, ref))
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))

	assert.Equal(t, "/uploads/"+ref, s.Resolve(ref))
	assert.Equal(t, "https://cdn.example.com/a.jpg", s.Resolve("https://cdn.example.com/a.jpg"))
	assert.Equal(t, "", s.Resolve(""))
}

func TestStore_UploadsDoNotCollide(t *testing.T) {
	s, err := NewStore(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)

	a, err := s.Upload(context.Background(), "a.jpg", []byte("1"))
	require.NoError(t, err)
	b, err := s.Upload(context.Background(), "a.jpg", []byte("2"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
