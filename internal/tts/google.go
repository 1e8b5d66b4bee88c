package tts

import (
	"context"
	"fmt"
	"strings"
	"sync"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"google.golang.org/api/option"

	"github.com/nikhilbhutani/genservices/internal/audio"
)

// Kokoro-style dialect codes mapped to BCP-47 so the shared defaults work.
var googleLanguageAliases = map[string]string{
	"a": "en-US",
	"b": "en-GB",
}

type GoogleConfig struct {
	// Service account key file; empty uses Application Default Credentials.
	CredentialsFile string
}

// Google synthesizes speech through Google Cloud Text-to-Speech. LINEAR16
// responses already carry a WAV header.
type Google struct {
	cfg GoogleConfig

	mu     sync.Mutex
	client *texttospeech.Client
}

func NewGoogle(cfg GoogleConfig) *Google {
	return &Google{cfg: cfg}
}

func (g *Google) Name() string { return "google" }

// SupportedVoices is empty: the catalogue is large and changes server side.
func (g *Google) SupportedVoices() []string { return nil }

func (g *Google) SupportedLanguages() []string { return nil }

func (g *Google) getClient(ctx context.Context) (*texttospeech.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.client != nil {
		return g.client, nil
	}
	var opts []option.ClientOption
	if g.cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(g.cfg.CredentialsFile))
	}
	client, err := texttospeech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create google tts client: %w", err)
	}
	g.client = client
	return client, nil
}

func (g *Google) Generate(ctx context.Context, req Request) (*Result, error) {
	client, err := g.getClient(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := client.SynthesizeSpeech(ctx, googleRequest(req))
	if err != nil {
		return nil, fmt.Errorf("google synthesize: %w", err)
	}

	return &Result{Audio: resp.GetAudioContent(), ContentType: audio.ContentTypeWAV}, nil
}

func googleRequest(req Request) *texttospeechpb.SynthesizeSpeechRequest {
	lang := req.Language
	if alias, ok := googleLanguageAliases[lang]; ok {
		lang = alias
	}

	voice := &texttospeechpb.VoiceSelectionParams{LanguageCode: lang}
	// Google voice names look like "en-US-Neural2-C"; anything else (such as a
	// Kokoro default) is left for the service to pick by language.
	if !isDefaultVoice(req.Voice) && strings.Count(req.Voice, "-") >= 2 {
		voice.Name = req.Voice
	}

	return &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: req.Text},
		},
		Voice: voice,
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_LINEAR16,
			SpeakingRate:  req.Speed,
		},
	}
}
