package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	openai "github.com/sashabaranov/go-openai"

	"github.com/nikhilbhutani/genservices/internal/audio"
)

var openAIVoices = []string{
	"alloy", "ash", "ballad", "coral", "echo", "fable",
	"nova", "onyx", "sage", "shimmer", "verse",
}

// OpenAIConfig holds configuration for the OpenAI TTS backend.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string // default: "https://api.openai.com/v1"
	Model   string // default: "tts-1"
}

// OpenAI synthesizes speech using OpenAI's speech API.
type OpenAI struct {
	cfg OpenAIConfig

	once   sync.Once
	client *openai.Client
}

// NewOpenAI validates cfg; the API client itself is created on first use.
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, errors.New("openai api key is required (set OPENAI_API_KEY)")
	}
	if cfg.Model == "" {
		cfg.Model = string(openai.TTSModel1)
	}
	return &OpenAI{cfg: cfg}, nil
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) SupportedVoices() []string {
	return append([]string(nil), openAIVoices...)
}

// SupportedLanguages is empty: the model detects the language from the input.
func (o *OpenAI) SupportedLanguages() []string { return nil }

func (o *OpenAI) getClient() *openai.Client {
	o.once.Do(func() {
		clientCfg := openai.DefaultConfig(o.cfg.APIKey)
		if o.cfg.BaseURL != "" {
			clientCfg.BaseURL = o.cfg.BaseURL
		}
		o.client = openai.NewClientWithConfig(clientCfg)
	})
	return o.client
}

// Generate converts text to audio and returns it as WAV.
func (o *OpenAI) Generate(ctx context.Context, req Request) (*Result, error) {
	voice := req.Voice
	if isDefaultVoice(voice) {
		voice = string(openai.VoiceAlloy)
	}

	resp, err := o.getClient().CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(o.cfg.Model),
		Input:          req.Text,
		Voice:          openai.SpeechVoice(voice),
		ResponseFormat: openai.SpeechResponseFormatWav,
		Speed:          req.Speed,
	})
	if err != nil {
		return nil, fmt.Errorf("openai speech: %w", err)
	}
	defer resp.Close()

	wav, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}

	return &Result{Audio: wav, ContentType: audio.ContentTypeWAV}, nil
}
