package registry_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/genservices/internal/registry"
)

type greeter struct{ word string }

func TestResolveUnknownListsAvailable(t *testing.T) {
	t.Parallel()

	r := registry.New[*greeter]("TTS model")
	r.Register("kokoro", func() (*greeter, error) { return &greeter{"hi"}, nil })
	r.Register("piper", func() (*greeter, error) { return &greeter{"yo"}, nil })

	_, err := r.Resolve("Kokoro")
	require.Error(t, err)
	assert.True(t, errors.Is(err, registry.ErrUnknown))

	var unknown *registry.UnknownError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "Kokoro", unknown.Name)
	assert.Equal(t, []string{"kokoro", "piper"}, unknown.Available)
	assert.Contains(t, err.Error(), `unknown TTS model "Kokoro"`)
}

func TestResolveConstructsLazilyOnce(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	r := registry.New[*greeter]("TTS model")
	r.Register("kokoro", func() (*greeter, error) {
		calls.Add(1)
		return &greeter{"hi"}, nil
	})
	r.Register("expensive", func() (*greeter, error) {
		t.Fatal("factory for an unused backend must not run")
		return nil, nil
	})

	assert.Equal(t, int32(0), calls.Load())

	var wg sync.WaitGroup
	results := make([]*greeter, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			g, err := r.Resolve("kokoro")
			assert.NoError(t, err)
			results[i] = g
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, g := range results {
		assert.Same(t, results[0], g)
	}
}

func TestResolveRetriesFailedConstruction(t *testing.T) {
	t.Parallel()

	attempts := 0
	r := registry.New[*greeter]("storage backend")
	r.Register("s3", func() (*greeter, error) {
		attempts++
		if attempts == 1 {
			return nil, errors.New("bucket not configured")
		}
		return &greeter{"ok"}, nil
	})

	_, err := r.Resolve("s3")
	require.ErrorContains(t, err, "bucket not configured")
	assert.False(t, errors.Is(err, registry.ErrUnknown))

	g, err := r.Resolve("s3")
	require.NoError(t, err)
	assert.Equal(t, "ok", g.word)
}

func TestRegisterDuplicateOverwrites(t *testing.T) {
	t.Parallel()

	r := registry.New[*greeter]("TTS model")
	r.Register("kokoro", func() (*greeter, error) { return &greeter{"first"}, nil })
	first, err := r.Resolve("kokoro")
	require.NoError(t, err)
	assert.Equal(t, "first", first.word)

	r.Register("kokoro", func() (*greeter, error) { return &greeter{"second"}, nil })
	second, err := r.Resolve("kokoro")
	require.NoError(t, err)
	assert.Equal(t, "second", second.word)
	assert.Equal(t, []string{"kokoro"}, r.Names())
	assert.True(t, r.Has("kokoro"))
	assert.False(t, r.Has("KOKORO"))
}
