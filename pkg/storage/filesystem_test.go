package storage

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeFileHeader(t *testing.T, filename, contentType string, size int) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {fmt.Sprintf(`form-data; name="photo"; filename="%s"`, filename)},
		"Content-Type":        {contentType},
	})
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte("a"), size))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(body, writer.Boundary()).ReadForm(int64(size) + 1024)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["photo"][0]
}

func TestPhotoStoreSaveUpload(t *testing.T) {
	store, err := NewPhotoStore(t.TempDir(), 1024, []string{"image/jpeg", "image/png"})
	require.NoError(t, err)

	header := makeFileHeader(t, "rex.JPG", "image/jpeg", 128)
	relPath, err := store.SaveUpload("pets", header)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(relPath, "pets/"))
	assert.True(t, strings.HasSuffix(relPath, ".jpg"))

	data, err := os.ReadFile(filepath.Join(store.BaseDir(), filepath.FromSlash(relPath)))
	require.NoError(t, err)
	assert.Len(t, data, 128)
}

func TestPhotoStoreRejectsOversizeUpload(t *testing.T) {
	store, err := NewPhotoStore(t.TempDir(), 64, []string{"image/jpeg"})
	require.NoError(t, err)

	header := makeFileHeader(t, "rex.jpg", "image/jpeg", 128)
	_, err = store.SaveUpload("pets", header)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")
}

func TestPhotoStoreRejectsUnsupportedContentType(t *testing.T) {
	store, err := NewPhotoStore(t.TempDir(), 1024, []string{"image/jpeg"})
	require.NoError(t, err)

	header := makeFileHeader(t, "malware.exe", "application/octet-stream", 16)
	_, err = store.SaveUpload("pets", header)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported content type")
}

func TestPhotoStoreSanitizesCategory(t *testing.T) {
	store, err := NewPhotoStore(t.TempDir(), 0, nil)
	require.NoError(t, err)

	header := makeFileHeader(t, "luna.png", "image/png", 8)
	relPath, err := store.SaveUpload("Lost & Found", header)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(relPath, "lost---found/"), relPath)

	header = makeFileHeader(t, "luna.png", "image/png", 8)
	relPath, err = store.SaveUpload("", header)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(relPath, "misc/"), relPath)
}

func TestPhotoStoreDelete(t *testing.T) {
	store, err := NewPhotoStore(t.TempDir(), 0, nil)
	require.NoError(t, err)

	header := makeFileHeader(t, "rex.jpg", "image/jpeg", 8)
	relPath, err := store.SaveUpload("pets", header)
	require.NoError(t, err)

	require.NoError(t, store.Delete(relPath))
	_, err = os.Stat(filepath.Join(store.BaseDir(), filepath.FromSlash(relPath)))
	assert.True(t, os.IsNotExist(err))

	// deleting twice is fine
	require.NoError(t, store.Delete(relPath))
	require.NoError(t, store.Delete(""))
}
