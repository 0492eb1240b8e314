package service

import (
	"bytes"
	"context"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}

func multipartFiles(t *testing.T, files map[string][]byte) []*multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for name, data := range files {
		part, err := writer.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	reader := multipart.NewReader(&body, writer.Boundary())
	form, err := reader.ReadForm(10 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })

	return form.File["files"]
}

func TestSaveUploadsStoresRecognizedFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewMediaService(NewLocalMediaStore(dir))

	paths, err := s.SaveUploads(context.Background(), multipartFiles(t, map[string][]byte{
		"photo.png": pngHeader,
	}))

	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.True(t, strings.HasPrefix(paths[0], "uploads/"))
	assert.True(t, strings.HasSuffix(paths[0], ".png"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSaveUploadsRejectsUnknownType(t *testing.T) {
	s := NewMediaService(NewLocalMediaStore(t.TempDir()))

	_, err := s.SaveUploads(context.Background(), multipartFiles(t, map[string][]byte{
		"notes.txt": []byte("plain text"),
	}))

	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestSaveUploadsRejectsTooManyFiles(t *testing.T) {
	s := NewMediaService(NewLocalMediaStore(t.TempDir()))

	files := map[string][]byte{}
	for _, name := range []string{"a.png", "b.png", "c.png", "d.png", "e.png"} {
		files[name] = pngHeader
	}

	_, err := s.SaveUploads(context.Background(), multipartFiles(t, files))

	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestDeleteFileUsesBaseName(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("x"), 0o644))

	s := NewMediaService(NewLocalMediaStore(dir))

	require.NoError(t, s.DeleteFile(context.Background(), "uploads/a.jpg"))
	_, err := os.Stat(filepath.Join(dir, "a.jpg"))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStoreRoundTrip(t *testing.T) {
	store := NewLocalMediaStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "a.png", pngHeader, "image/png"))

	data, err := store.Read(ctx, "a.png")
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)

	require.NoError(t, store.Delete(ctx, "a.png"))
	_, err = store.Read(ctx, "a.png")
	assert.Error(t, err)
}

func TestLocalStoreDeleteMissingIsNoop(t *testing.T) {
	store := NewLocalMediaStore(t.TempDir())
	assert.NoError(t, store.Delete(context.Background(), "gone.png"))
}
