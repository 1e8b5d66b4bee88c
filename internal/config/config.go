package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const (
	DefaultVoicePort = 8000
	DefaultSlidePort = 5000

	// Accepted bounds for the speech rate multiplier.
	MinSpeed = 0.1
	MaxSpeed = 4.0
)

type ServerConfig struct {
	Host     string `env:"HOST" envDefault:"0.0.0.0"`
	Port     int    `env:"PORT"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	CORSOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

type AuthConfig struct {
	JWTSecret string `env:"AUTH_JWT_SECRET"`
}

type RateLimitConfig struct {
	RPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"20"`
	Burst int     `env:"RATE_LIMIT_BURST" envDefault:"40"`
}

type TTSConfig struct {
	DefaultModel    string  `env:"DEFAULT_TTS_MODEL" envDefault:"kokoro"`
	DefaultVoice    string  `env:"DEFAULT_VOICE" envDefault:"af_heart"`
	DefaultSpeed    float64 `env:"DEFAULT_SPEED" envDefault:"1.0"`
	DefaultLanguage string  `env:"DEFAULT_LANGUAGE" envDefault:"a"`

	KokoroBaseURL string `env:"KOKORO_BASE_URL" envDefault:"http://localhost:8880/v1"`

	OpenAIKey     string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"TTS_OPENAI_BASE_URL"`
	OpenAIModel   string `env:"TTS_OPENAI_MODEL" envDefault:"tts-1"`

	PiperBinPath string `env:"TTS_LOCAL_PIPER_BIN" envDefault:"piper"`
	PiperModel   string `env:"TTS_LOCAL_PIPER_MODEL"`

	GoogleCredentials string `env:"GOOGLE_APPLICATION_CREDENTIALS"`
}

type S3Config struct {
	Bucket      string `env:"S3_BUCKET"`
	Prefix      string `env:"S3_PREFIX" envDefault:"voice-output/"`
	Region      string `env:"S3_REGION" envDefault:"us-east-1"`
	PresignTTL  int    `env:"S3_PRESIGN_TTL" envDefault:"3600"`
	EndpointURL string `env:"S3_ENDPOINT_URL"`

	// Leave both blank to use the default credential chain (IAM role, profile, ...).
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
}

type NATSConfig struct {
	URL    string `env:"NATS_URL"`
	Bucket string `env:"NATS_OBJECT_BUCKET" envDefault:"voice-output"`
}

type StorageConfig struct {
	Default        string `env:"DEFAULT_STORAGE" envDefault:"local"`
	LocalOutputDir string `env:"LOCAL_OUTPUT_DIR" envDefault:"/tmp/voice-output"`
	S3             S3Config
	NATS           NATSConfig
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// Enabled reports whether deferred jobs can be queued.
func (r RedisConfig) Enabled() bool { return r.Addr != "" }

type MarpConfig struct {
	BinPath string `env:"MARP_BIN" envDefault:"marp"`
	WorkDir string `env:"SLIDE_WORK_DIR"`
}

// Voice is the configuration of the voice service and its worker.
type Voice struct {
	Server    ServerConfig
	TTS       TTSConfig
	Storage   StorageConfig
	Redis     RedisConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
}

// Slide is the configuration of the slide service.
type Slide struct {
	Server    ServerConfig
	Marp      MarpConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
}

// LoadVoice reads the voice configuration from the process environment,
// after applying envFile (or ./.env when envFile is empty and present).
func LoadVoice(envFile string) (*Voice, error) {
	if err := loadEnvFile(envFile); err != nil {
		return nil, err
	}
	return ParseVoice(nil)
}

// ParseVoice builds the voice configuration from environ, or from the
// process environment when environ is nil.
func ParseVoice(environ map[string]string) (*Voice, error) {
	cfg := &Voice{Server: ServerConfig{Port: DefaultVoicePort}}
	if err := parse(cfg, environ); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadSlide(envFile string) (*Slide, error) {
	if err := loadEnvFile(envFile); err != nil {
		return nil, err
	}
	return ParseSlide(nil)
}

func ParseSlide(environ map[string]string) (*Slide, error) {
	cfg := &Slide{Server: ServerConfig{Port: DefaultSlidePort}}
	if err := parse(cfg, environ); err != nil {
		return nil, err
	}
	if cfg.Marp.WorkDir == "" {
		cfg.Marp.WorkDir = filepath.Join(os.TempDir(), "slides")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Voice) Validate() error {
	var problems []string
	if c.TTS.DefaultModel == "" {
		problems = append(problems, "DEFAULT_TTS_MODEL must not be empty")
	}
	if c.TTS.DefaultSpeed < MinSpeed || c.TTS.DefaultSpeed > MaxSpeed {
		problems = append(problems, fmt.Sprintf("DEFAULT_SPEED must be between %.1f and %.1f", MinSpeed, MaxSpeed))
	}
	if c.Storage.Default == "" {
		problems = append(problems, "DEFAULT_STORAGE must not be empty")
	}
	if c.Storage.S3.PresignTTL <= 0 {
		problems = append(problems, "S3_PRESIGN_TTL must be positive")
	}
	problems = append(problems, c.Server.problems()...)
	problems = append(problems, c.RateLimit.problems()...)
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Slide) Validate() error {
	var problems []string
	if c.Marp.BinPath == "" {
		problems = append(problems, "MARP_BIN must not be empty")
	}
	problems = append(problems, c.Server.problems()...)
	problems = append(problems, c.RateLimit.problems()...)
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (s ServerConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func (s ServerConfig) problems() []string {
	if s.Port <= 0 || s.Port > 65535 {
		return []string{fmt.Sprintf("PORT %d out of range", s.Port)}
	}
	return nil
}

func (r RateLimitConfig) problems() []string {
	if r.RPS <= 0 || r.Burst <= 0 {
		return []string{"RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive"}
	}
	return nil
}

func parse(cfg any, environ map[string]string) error {
	var err error
	if environ == nil {
		err = env.Parse(cfg)
	} else {
		err = env.Parse(cfg, env.Options{Environment: environ})
	}
	if err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}

func loadEnvFile(path string) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
		return nil
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}
