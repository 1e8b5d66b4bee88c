// Package voice turns text into stored or streamed audio using the
// registered synthesizers and storage backends.
package voice

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/genservices/internal/audio"
	"github.com/nikhilbhutani/genservices/internal/config"
	"github.com/nikhilbhutani/genservices/internal/registry"
	"github.com/nikhilbhutani/genservices/internal/storage"
	"github.com/nikhilbhutani/genservices/internal/tts"
)

// GenerateRequest is the body of a synthesis call. Omitted fields fall back
// to the service defaults.
type GenerateRequest struct {
	Text     string   `json:"text"`
	Model    string   `json:"model,omitempty"`
	Voice    string   `json:"voice,omitempty"`
	Speed    *float64 `json:"speed,omitempty"`
	Language string   `json:"language,omitempty"`
}

type SaveRequest struct {
	GenerateRequest
	Storage  string `json:"storage,omitempty"`
	Filename string `json:"filename,omitempty"`
}

type SaveResponse struct {
	Location    string  `json:"location"`
	URL         *string `json:"url"`
	ContentType string  `json:"content_type"`
	Backend     string  `json:"backend"`
	Filename    string  `json:"filename"`
}

// ModelInfo describes what a synthesizer accepts.
type ModelInfo struct {
	Model     string   `json:"model"`
	Voices    []string `json:"voices"`
	Languages []string `json:"languages"`
}

type Defaults struct {
	Model    string
	Voice    string
	Speed    float64
	Language string
	Storage  string
}

// DefaultsFrom pulls request defaults out of the service configuration.
func DefaultsFrom(cfg *config.Voice) Defaults {
	return Defaults{
		Model:    cfg.TTS.DefaultModel,
		Voice:    cfg.TTS.DefaultVoice,
		Speed:    cfg.TTS.DefaultSpeed,
		Language: cfg.TTS.DefaultLanguage,
		Storage:  cfg.Storage.Default,
	}
}

type Service struct {
	models   *tts.Registry
	stores   *storage.Registry
	defaults Defaults
}

func NewService(models *tts.Registry, stores *storage.Registry, defaults Defaults) *Service {
	return &Service{models: models, stores: stores, defaults: defaults}
}

func (s *Service) Models() []string {
	return s.models.Names()
}

// Voices reports the voices and languages a model supports.
func (s *Service) Voices(model string) (*ModelInfo, error) {
	synth, err := s.resolveModel(model)
	if err != nil {
		return nil, err
	}
	return &ModelInfo{
		Model:     model,
		Voices:    nonNil(synth.SupportedVoices()),
		Languages: nonNil(synth.SupportedLanguages()),
	}, nil
}

// Synthesize validates req and returns WAV bytes.
func (s *Service) Synthesize(ctx context.Context, req GenerateRequest) ([]byte, error) {
	synth, treq, err := s.prepare(req)
	if err != nil {
		return nil, err
	}
	return s.generate(ctx, synth, treq)
}

// PrepareSave applies defaults and validates everything a save needs without
// doing any synthesis or storage I/O. The returned request has its model,
// storage and filename filled in.
func (s *Service) PrepareSave(req SaveRequest) (SaveRequest, error) {
	_, treq, err := s.prepare(req.GenerateRequest)
	if err != nil {
		return req, err
	}

	filename, err := NormalizeFilename(req.Filename)
	if err != nil {
		return req, err
	}

	backend := req.Storage
	if backend == "" {
		backend = s.defaults.Storage
	}
	if !s.stores.Has(backend) {
		// Resolve builds the error listing what is registered.
		_, err := s.stores.Resolve(backend)
		return req, err
	}

	out := req
	if out.Model == "" {
		out.Model = s.defaults.Model
	}
	out.Voice = treq.Voice
	out.Speed = &treq.Speed
	out.Language = treq.Language
	out.Storage = backend
	out.Filename = filename
	return out, nil
}

// Save synthesizes req and persists the audio to the chosen backend.
func (s *Service) Save(ctx context.Context, req SaveRequest) (*SaveResponse, error) {
	req, err := s.PrepareSave(req)
	if err != nil {
		return nil, err
	}

	store, err := s.stores.Resolve(req.Storage)
	if err != nil {
		return nil, &StorageError{Backend: req.Storage, Err: err}
	}
	synth, treq, err := s.prepare(req.GenerateRequest)
	if err != nil {
		return nil, err
	}

	wav, err := s.generate(ctx, synth, treq)
	if err != nil {
		return nil, err
	}

	res, err := store.Save(ctx, wav, req.Filename, audio.ContentTypeWAV)
	if err != nil {
		slog.Error("storage save failed", "backend", req.Storage, "filename", req.Filename, "error", err)
		return nil, &StorageError{Backend: req.Storage, Err: err}
	}

	return &SaveResponse{
		Location:    res.Location,
		URL:         res.URL,
		ContentType: res.ContentType,
		Backend:     res.Backend,
		Filename:    req.Filename,
	}, nil
}

func (s *Service) prepare(req GenerateRequest) (tts.Synthesizer, tts.Request, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, tts.Request{}, invalidf("text must not be empty")
	}

	speed := s.defaults.Speed
	if req.Speed != nil {
		speed = *req.Speed
	}
	if math.IsNaN(speed) || speed < config.MinSpeed || speed > config.MaxSpeed {
		return nil, tts.Request{}, invalidf("speed must be between %g and %g, got %g", config.MinSpeed, config.MaxSpeed, speed)
	}

	model := req.Model
	if model == "" {
		model = s.defaults.Model
	}
	synth, err := s.resolveModel(model)
	if err != nil {
		return nil, tts.Request{}, err
	}

	lang := req.Language
	if lang == "" {
		lang = s.defaults.Language
	}
	if langs := synth.SupportedLanguages(); len(langs) > 0 && !slices.Contains(langs, lang) {
		return nil, tts.Request{}, invalidf("language %q is not supported by model %q; supported: %s",
			lang, model, strings.Join(langs, ", "))
	}

	// The configured voice belongs to the default model; other models pick
	// their own default.
	voice := req.Voice
	if voice == "" && model == s.defaults.Model {
		voice = s.defaults.Voice
	}

	return synth, tts.Request{Text: req.Text, Voice: voice, Speed: speed, Language: lang}, nil
}

func (s *Service) resolveModel(name string) (tts.Synthesizer, error) {
	synth, err := s.models.Resolve(name)
	if err != nil {
		if errors.Is(err, registry.ErrUnknown) {
			return nil, err
		}
		return nil, &SynthesisError{Model: name, Err: err}
	}
	return synth, nil
}

func (s *Service) generate(ctx context.Context, synth tts.Synthesizer, req tts.Request) ([]byte, error) {
	start := time.Now()
	res, err := synth.Generate(ctx, req)
	if err != nil {
		slog.Error("tts generation failed", "model", synth.Name(), "error", err)
		return nil, &SynthesisError{Model: synth.Name(), Err: err}
	}

	info, err := audio.Inspect(res.Audio)
	if err != nil {
		slog.Error("tts backend returned invalid audio", "model", synth.Name(), "error", err)
		return nil, &SynthesisError{Model: synth.Name(), Err: err}
	}

	slog.Info("speech generated",
		"model", synth.Name(),
		"voice", req.Voice,
		"chars", len(req.Text),
		"audio_seconds", info.Duration(),
		"elapsed", time.Since(start),
	)
	return res.Audio, nil
}

// NormalizeFilename returns the name audio is stored under. An empty name
// gets a random one; anything else keeps its name with ".wav" appended when
// missing. Names that could leave the storage namespace are rejected.
func NormalizeFilename(name string) (string, error) {
	if name == "" {
		return uuid.NewString() + audio.Extension, nil
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return "", invalidf("filename %q must not contain path separators or '..'", name)
	}
	if !strings.HasSuffix(name, audio.Extension) {
		name += audio.Extension
	}
	return name, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
