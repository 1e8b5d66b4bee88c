package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/genservices/internal/storage"
)

func TestLocalSave(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "out")
	l, err := storage.NewLocal(dir)
	require.NoError(t, err)

	res, err := l.Save(context.Background(), []byte("RIFF"), "clip.wav", "audio/wav")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "clip.wav"), res.Location)
	assert.True(t, filepath.IsAbs(res.Location))
	assert.Nil(t, res.URL)
	assert.Equal(t, "local", res.Backend)
	assert.Equal(t, "audio/wav", res.ContentType)

	data, err := os.ReadFile(res.Location)
	require.NoError(t, err)
	assert.Equal(t, []byte("RIFF"), data)
}

func TestLocalRejectsEscapingNames(t *testing.T) {
	t.Parallel()

	l, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"", "../x.wav", "a/b.wav", `a\b.wav`, ".."} {
		_, err := l.Save(context.Background(), []byte("x"), name, "audio/wav")
		assert.Error(t, err, name)
	}
}

func TestRegisterDefaults(t *testing.T) {
	t.Parallel()

	r := storage.NewRegistry()
	storage.RegisterDefaults(r, configWithDir(t.TempDir()))

	assert.Equal(t, []string{"local", "nats", "s3"}, r.Names())

	local, err := r.Resolve("local")
	require.NoError(t, err)
	assert.Equal(t, "local", local.Name())

	_, err = r.Resolve("s3")
	assert.ErrorContains(t, err, "S3_BUCKET")
	_, err = r.Resolve("nats")
	assert.ErrorContains(t, err, "NATS_URL")
}
