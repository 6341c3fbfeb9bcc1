package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectPath(t *testing.T) {
	p, err := ObjectPath("collections/summer-2024/beach", "image/png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(p, "collections/summer-2024/beach/"))
	assert.True(t, strings.HasSuffix(p, ".png"))

	other, err := ObjectPath("collections/summer-2024/beach", "image/png")
	require.NoError(t, err)
	assert.NotEqual(t, p, other, "every upload gets a fresh object")
}

func TestObjectPathTrimsSlashes(t *testing.T) {
	p, err := ObjectPath("/collections/a/", "image/jpeg")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(p, "collections/a/"))
	assert.True(t, strings.HasSuffix(p, ".jpg"))
}

func TestObjectPathRejects(t *testing.T) {
	_, err := ObjectPath("", "image/png")
	assert.ErrorIs(t, err, ErrEmptyFolder)

	_, err = ObjectPath("collections/a", "application/pdf")
	assert.ErrorIs(t, err, ErrInvalidFileType)
}

func TestPublicURL(t *testing.T) {
	s := NewGCSImageStore(nil, "galleria-media", "")
	assert.Equal(t,
		"https://storage.googleapis.com/galleria-media/collections/a%20b/x.png",
		s.PublicURL("collections/a b/x.png"))

	custom := NewGCSImageStore(nil, "bucket", "https://cdn.example.com/")
	assert.Equal(t, "https://cdn.example.com/bucket/collections/x.jpg", custom.PublicURL("collections/x.jpg"))
}

func TestFolderPrefix(t *testing.T) {
	p, err := folderPrefix("collections/summer")
	require.NoError(t, err)
	assert.Equal(t, "collections/summer/", p)

	_, err = folderPrefix("  / ")
	assert.ErrorIs(t, err, ErrEmptyFolder)
}

func TestStoreGuardsBeforeTouchingClient(t *testing.T) {
	s := NewGCSImageStore(nil, "bucket", "")
	ctx := context.Background()

	assert.ErrorIs(t, s.Delete(ctx, " "), ErrEmptyRemoteID)
	assert.ErrorIs(t, s.DeleteFolder(ctx, ""), ErrEmptyFolder)
	assert.Error(t, s.Delete(ctx, "collections/x.png"), "nil client must be reported")

	_, err := s.Upload(ctx, File{Name: "a.txt", ContentType: "text/plain"}, "collections/a")
	assert.ErrorIs(t, err, ErrInvalidFileType)
}
