package tts

import (
	"context"

	"github.com/nikhilbhutani/genservices/internal/config"
	"github.com/nikhilbhutani/genservices/internal/registry"
)

// Request holds the parameters for text-to-speech generation.
// Empty Voice or the literal "default" selects the backend's own default.
type Request struct {
	Text     string
	Voice    string
	Speed    float64
	Language string
}

// Result holds the generated audio and its content type.
type Result struct {
	Audio       []byte
	ContentType string // always a WAV container
}

// Synthesizer is the interface for text-to-speech backends.
type Synthesizer interface {
	Name() string
	Generate(ctx context.Context, req Request) (*Result, error)
	// SupportedVoices lists known voice identifiers; backends may accept more.
	SupportedVoices() []string
	// SupportedLanguages lists accepted language codes. An empty list means
	// the backend does its own language handling.
	SupportedLanguages() []string
}

// Registry is the process-wide name -> synthesizer mapping.
type Registry = registry.Registry[Synthesizer]

func NewRegistry() *Registry {
	return registry.New[Synthesizer]("TTS model")
}

// RegisterDefaults registers every built-in backend. Nothing is dialled or
// loaded here; each backend initializes itself on first use.
func RegisterDefaults(r *Registry, cfg config.TTSConfig) {
	r.Register("kokoro", func() (Synthesizer, error) {
		return NewKokoro(KokoroConfig{BaseURL: cfg.KokoroBaseURL}), nil
	})
	r.Register("openai", func() (Synthesizer, error) {
		return NewOpenAI(OpenAIConfig{
			APIKey:  cfg.OpenAIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
		})
	})
	r.Register("piper", func() (Synthesizer, error) {
		return NewPiper(PiperConfig{
			BinPath:   cfg.PiperBinPath,
			ModelPath: cfg.PiperModel,
		})
	})
	r.Register("google", func() (Synthesizer, error) {
		return NewGoogle(GoogleConfig{CredentialsFile: cfg.GoogleCredentials}), nil
	})
}

func isDefaultVoice(voice string) bool {
	return voice == "" || voice == "default"
}
