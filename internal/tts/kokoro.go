package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/nikhilbhutani/genservices/internal/audio"
)

const kokoroDefaultVoice = "af_heart"

// Voices bundled with Kokoro v1.0.
var kokoroVoices = []string{
	"af_heart", "af_bella", "af_sarah", "af_sky",
	"am_adam", "am_michael",
	"bf_emma", "bf_isabella",
	"bm_george", "bm_lewis",
}

// KokoroConfig holds configuration for a Kokoro server exposing the
// OpenAI-compatible speech API (e.g. Kokoro-FastAPI).
type KokoroConfig struct {
	BaseURL    string // default: "http://localhost:8880/v1"
	HTTPClient *http.Client
}

// kokoroPipeline is bound to one language code. Building one probes the
// server for its voice list, which blocks until the model weights are loaded.
type kokoroPipeline struct {
	langCode string
	voices   []string
}

// Kokoro synthesizes speech with the Kokoro neural TTS model.
type Kokoro struct {
	cfg        KokoroConfig
	httpClient *http.Client

	mu       sync.Mutex
	pipeline *kokoroPipeline
}

func NewKokoro(cfg KokoroConfig) *Kokoro {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8880/v1"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	client := cfg.HTTPClient
	if client == nil {
		// No timeout: long inputs legitimately take minutes on CPU.
		client = &http.Client{}
	}
	return &Kokoro{cfg: cfg, httpClient: client}
}

func (k *Kokoro) Name() string { return "kokoro" }

func (k *Kokoro) SupportedVoices() []string {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.pipeline != nil && len(k.pipeline.voices) > 0 {
		return append([]string(nil), k.pipeline.voices...)
	}
	return append([]string(nil), kokoroVoices...)
}

// SupportedLanguages returns Kokoro's English dialect codes:
// 'a' = American English, 'b' = British English.
func (k *Kokoro) SupportedLanguages() []string {
	return []string{"a", "b"}
}

// Generate synthesizes req.Text and returns a WAV file.
func (k *Kokoro) Generate(ctx context.Context, req Request) (*Result, error) {
	p, err := k.pipelineFor(ctx, req.Language)
	if err != nil {
		return nil, err
	}

	voice := req.Voice
	if isDefaultVoice(voice) {
		voice = kokoroDefaultVoice
	}

	body := map[string]any{
		"model":           "kokoro",
		"input":           req.Text,
		"voice":           voice,
		"response_format": "wav",
		"speed":           req.Speed,
		"lang_code":       p.langCode,
		"stream":          false,
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, k.cfg.BaseURL+"/audio/speech", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := k.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("kokoro request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("kokoro failed (status %d): %s", resp.StatusCode, string(respBody))
	}

	wav, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	if len(wav) == 0 {
		return nil, fmt.Errorf("kokoro returned no audio")
	}

	return &Result{Audio: wav, ContentType: audio.ContentTypeWAV}, nil
}

// pipelineFor returns the current pipeline, rebuilding it only when the
// language differs from the one it was built for.
func (k *Kokoro) pipelineFor(ctx context.Context, langCode string) (*kokoroPipeline, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.pipeline != nil && k.pipeline.langCode == langCode {
		return k.pipeline, nil
	}

	slog.Info("initializing kokoro pipeline", "lang_code", langCode, "base_url", k.cfg.BaseURL)
	voices, err := k.fetchVoices(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialize kokoro pipeline: %w", err)
	}
	k.pipeline = &kokoroPipeline{langCode: langCode, voices: voices}
	return k.pipeline, nil
}

func (k *Kokoro) fetchVoices(ctx context.Context) ([]string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, k.cfg.BaseURL+"/audio/voices", nil)
	if err != nil {
		return nil, err
	}

	resp, err := k.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("list voices: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("list voices (status %d): %s", resp.StatusCode, string(respBody))
	}

	var out struct {
		Voices []string `json:"voices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode voices: %w", err)
	}
	return out.Voices, nil
}
