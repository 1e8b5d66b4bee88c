package tts_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/genservices/internal/audio"
	"github.com/nikhilbhutani/genservices/internal/tts"
)

type fakeKokoro struct {
	voiceCalls atomic.Int32

	mu         sync.Mutex
	lastSpeech map[string]any
}

func (f *fakeKokoro) last() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastSpeech
}

func newFakeKokoro(t *testing.T) (*fakeKokoro, *httptest.Server) {
	t.Helper()

	f := &fakeKokoro{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/audio/voices", func(w http.ResponseWriter, r *http.Request) {
		f.voiceCalls.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{"voices": []string{"af_heart", "bf_emma"}})
	})
	mux.HandleFunc("POST /v1/audio/speech", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if body["input"] == "boom" {
			http.Error(w, "model exploded", http.StatusInternalServerError)
			return
		}
		f.mu.Lock()
		f.lastSpeech = body
		f.mu.Unlock()
		w.Header().Set("Content-Type", audio.ContentTypeWAV)
		_, _ = w.Write(audio.EncodePCM16(make([]byte, 4800), 24000, 1))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return f, srv
}

func TestKokoroGenerate(t *testing.T) {
	t.Parallel()

	fake, srv := newFakeKokoro(t)
	k := tts.NewKokoro(tts.KokoroConfig{BaseURL: srv.URL + "/v1/"})

	res, err := k.Generate(context.Background(), tts.Request{Text: "Hello", Speed: 1.25, Language: "a"})
	require.NoError(t, err)

	info, err := audio.Inspect(res.Audio)
	require.NoError(t, err)
	assert.Equal(t, 24000, info.SampleRate)
	assert.Equal(t, audio.ContentTypeWAV, res.ContentType)

	body := fake.last()
	assert.Equal(t, "Hello", body["input"])
	assert.Equal(t, "af_heart", body["voice"])
	assert.Equal(t, "wav", body["response_format"])
	assert.Equal(t, "a", body["lang_code"])
	assert.InEpsilon(t, 1.25, body["speed"], 0.001)
}

func TestKokoroPipelineRebuiltOnlyOnLanguageChange(t *testing.T) {
	t.Parallel()

	fake, srv := newFakeKokoro(t)
	k := tts.NewKokoro(tts.KokoroConfig{BaseURL: srv.URL + "/v1"})
	ctx := context.Background()

	for _, lang := range []string{"a", "a", "b", "b", "a"} {
		_, err := k.Generate(ctx, tts.Request{Text: "hi", Voice: "default", Speed: 1, Language: lang})
		require.NoError(t, err)
	}

	assert.Equal(t, int32(3), fake.voiceCalls.Load())
	assert.Equal(t, []string{"af_heart", "bf_emma"}, k.SupportedVoices())
}

func TestKokoroBackendError(t *testing.T) {
	t.Parallel()

	_, srv := newFakeKokoro(t)
	k := tts.NewKokoro(tts.KokoroConfig{BaseURL: srv.URL + "/v1"})

	_, err := k.Generate(context.Background(), tts.Request{Text: "boom", Speed: 1, Language: "a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
	assert.Contains(t, err.Error(), "model exploded")
}

func TestKokoroStaticMetadata(t *testing.T) {
	t.Parallel()

	k := tts.NewKokoro(tts.KokoroConfig{})
	assert.Equal(t, "kokoro", k.Name())
	assert.Equal(t, []string{"a", "b"}, k.SupportedLanguages())
	assert.Contains(t, k.SupportedVoices(), "af_heart")
}
