package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/nikhilbhutani/genservices/internal/audio"
)

const piperDefaultSampleRate = 22050

// PiperConfig holds configuration for the local Piper TTS backend.
type PiperConfig struct {
	BinPath   string // default: "piper"
	ModelPath string // required: path to the .onnx voice model
}

// piperModelConfig is the subset of <model>.onnx.json we rely on.
type piperModelConfig struct {
	Audio struct {
		SampleRate int `json:"sample_rate"`
	} `json:"audio"`
	SpeakerIDMap map[string]int `json:"speaker_id_map"`
}

// Piper synthesizes speech using the Piper binary via subprocess.
// Piper writes raw 16-bit mono PCM; the WAV header is added here using the
// sample rate from the model's JSON sidecar.
type Piper struct {
	cfg PiperConfig

	once     sync.Once
	model    piperModelConfig
	modelErr error
}

// NewPiper creates a Piper backend. The model sidecar is read on first use.
func NewPiper(cfg PiperConfig) (*Piper, error) {
	if cfg.ModelPath == "" {
		return nil, errors.New("piper model path is required (set TTS_LOCAL_PIPER_MODEL)")
	}
	if cfg.BinPath == "" {
		cfg.BinPath = "piper"
	}
	return &Piper{cfg: cfg}, nil
}

func (p *Piper) Name() string { return "piper" }

// SupportedVoices lists the speaker names of a multi-speaker model.
func (p *Piper) SupportedVoices() []string {
	model, err := p.loadModel()
	if err != nil {
		return nil
	}
	voices := make([]string, 0, len(model.SpeakerIDMap))
	for name := range model.SpeakerIDMap {
		voices = append(voices, name)
	}
	sort.Strings(voices)
	return voices
}

// SupportedLanguages is empty: the language is fixed by the model file.
func (p *Piper) SupportedLanguages() []string { return nil }

func (p *Piper) loadModel() (piperModelConfig, error) {
	p.once.Do(func() {
		data, err := os.ReadFile(p.cfg.ModelPath + ".json")
		if errors.Is(err, fs.ErrNotExist) {
			slog.Warn("piper model config not found, assuming defaults",
				"model", p.cfg.ModelPath, "sample_rate", piperDefaultSampleRate)
			p.model.Audio.SampleRate = piperDefaultSampleRate
			return
		}
		if err != nil {
			p.modelErr = fmt.Errorf("read piper model config: %w", err)
			return
		}
		if err := json.Unmarshal(data, &p.model); err != nil {
			p.modelErr = fmt.Errorf("parse piper model config: %w", err)
			return
		}
		if p.model.Audio.SampleRate == 0 {
			p.model.Audio.SampleRate = piperDefaultSampleRate
		}
	})
	return p.model, p.modelErr
}

// Generate pipes text into Piper via stdin and wraps the raw PCM from stdout.
func (p *Piper) Generate(ctx context.Context, req Request) (*Result, error) {
	model, err := p.loadModel()
	if err != nil {
		return nil, err
	}

	args := []string{"--model", p.cfg.ModelPath, "--output-raw"}
	if req.Speed > 0 {
		args = append(args, "--length_scale", strconv.FormatFloat(1/req.Speed, 'f', 3, 64))
	}
	if speaker, ok := piperSpeaker(model, req.Voice); ok {
		args = append(args, "--speaker", strconv.Itoa(speaker))
	}

	// #nosec G204 -- binary and model come from process configuration
	cmd := exec.CommandContext(ctx, p.cfg.BinPath, args...)
	cmd.Stdin = strings.NewReader(req.Text)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("piper failed: %w (stderr: %s)", err, stderr.String())
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("piper produced no audio (stderr: %s)", stderr.String())
	}

	return &Result{
		Audio:       audio.EncodePCM16(stdout.Bytes(), model.Audio.SampleRate, 1),
		ContentType: audio.ContentTypeWAV,
	}, nil
}

// piperSpeaker resolves a voice to a speaker id, by name or numeric id.
func piperSpeaker(model piperModelConfig, voice string) (int, bool) {
	if isDefaultVoice(voice) {
		return 0, false
	}
	if id, ok := model.SpeakerIDMap[voice]; ok {
		return id, true
	}
	if id, err := strconv.Atoi(voice); err == nil && id >= 0 {
		return id, true
	}
	return 0, false
}
