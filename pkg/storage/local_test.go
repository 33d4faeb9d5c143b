package storage_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapkeep/printworks/pkg/storage"
)

func TestLocalDiskRoundTrip(t *testing.T) {
	disk := storage.NewLocal(t.TempDir(), "http://localhost:8030/files")

	require.NoError(t, disk.Put("user-images/ana/pack.zip", []byte("zipbytes")))
	assert.True(t, disk.Exists("user-images/ana/pack.zip"))

	data, err := disk.Get("user-images/ana/pack.zip")
	require.NoError(t, err)
	assert.Equal(t, "zipbytes", string(data))

	assert.Equal(t, "http://localhost:8030/files/user-images/ana/pack.zip",
		disk.URL("user-images/ana/pack.zip"))

	require.NoError(t, disk.Delete("user-images/ana/pack.zip"))
	assert.False(t, disk.Exists("user-images/ana/pack.zip"))
}

func TestLocalDiskPutStream(t *testing.T) {
	disk := storage.NewLocal(t.TempDir(), "")

	require.NoError(t, disk.PutStream("a/b/c.txt", strings.NewReader("streamed")))

	data, err := disk.Get("a/b/c.txt")
	require.NoError(t, err)
	assert.Equal(t, "streamed", string(data))
}

func TestLocalDiskDeleteMissingIsNotAnError(t *testing.T) {
	disk := storage.NewLocal(t.TempDir(), "")
	assert.NoError(t, disk.Delete("never/existed.zip"))
}

func TestLocalDiskGetMissing(t *testing.T) {
	disk := storage.NewLocal(t.TempDir(), "")
	_, err := disk.Get("missing.zip")
	assert.Error(t, err)
}
