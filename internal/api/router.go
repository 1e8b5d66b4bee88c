package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/nikhilbhutani/genservices/internal/api/handlers"
	"github.com/nikhilbhutani/genservices/internal/api/middleware"
	"github.com/nikhilbhutani/genservices/internal/auth"
	"github.com/nikhilbhutani/genservices/internal/config"
	"github.com/nikhilbhutani/genservices/internal/voice"
)

// VoiceDeps are the collaborators of the voice router. Queue, Tasks and
// Redis are nil when REDIS_ADDR is unset.
type VoiceDeps struct {
	Service *voice.Service
	Queue   handlers.SaveEnqueuer
	Tasks   handlers.TaskStatusGetter
	Redis   *redis.Client
}

type VoiceRouter struct {
	mux  *chi.Mux
	cfg  *config.Voice
	deps VoiceDeps
	rl   *middleware.RateLimiter
}

func NewVoiceRouter(cfg *config.Voice, deps VoiceDeps) *VoiceRouter {
	return &VoiceRouter{
		mux:  chi.NewRouter(),
		cfg:  cfg,
		deps: deps,
		rl:   middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
	}
}

// RateLimiter exposes the limiter so main can run its eviction loop.
func (rt *VoiceRouter) RateLimiter() *middleware.RateLimiter { return rt.rl }

func (rt *VoiceRouter) Setup() http.Handler {
	r := rt.mux
	useCommon(r, rt.cfg.Server, rt.rl)

	health := handlers.NewHealthHandler(rt.deps.Redis)
	r.Get("/health", health.Healthz)
	r.Get("/readyz", health.Readyz)

	voiceH := handlers.NewVoiceHandler(rt.deps.Service, rt.deps.Queue)
	r.Get("/models", voiceH.Models)
	r.Get("/models/{name}/voices", voiceH.ModelVoices)

	r.Group(func(r chi.Router) {
		useAuth(r, rt.cfg.Auth)

		r.Post("/generate", voiceH.Generate)
		r.Post("/generate/save", voiceH.Save)

		if rt.deps.Queue != nil {
			r.Post("/generate/save/async", voiceH.SaveAsync)
		}
		if rt.deps.Tasks != nil {
			r.Get("/tasks/{id}", handlers.NewTaskHandler(rt.deps.Tasks).Get)
		}
	})

	return r
}

type SlideRouter struct {
	mux      *chi.Mux
	cfg      *config.Slide
	renderer handlers.SlideRenderer
	rl       *middleware.RateLimiter
}

func NewSlideRouter(cfg *config.Slide, renderer handlers.SlideRenderer) *SlideRouter {
	return &SlideRouter{
		mux:      chi.NewRouter(),
		cfg:      cfg,
		renderer: renderer,
		rl:       middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
	}
}

func (rt *SlideRouter) RateLimiter() *middleware.RateLimiter { return rt.rl }

func (rt *SlideRouter) Setup() http.Handler {
	r := rt.mux
	useCommon(r, rt.cfg.Server, rt.rl)

	health := handlers.NewHealthHandler(nil)
	r.Get("/health", health.Healthz)

	slideH := handlers.NewSlideHandler(rt.renderer)
	r.Group(func(r chi.Router) {
		useAuth(r, rt.cfg.Auth)
		r.Post("/generate", slideH.Generate)
	})

	return r
}

func useCommon(r chi.Router, srv config.ServerConfig, rl *middleware.RateLimiter) {
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(srv.CORSOrigins))
	r.Use(rl.Limit)
}

// useAuth protects the group only when a JWT secret is configured.
func useAuth(r chi.Router, cfg config.AuthConfig) {
	if cfg.JWTSecret != "" {
		r.Use(auth.NewJWTMiddleware(cfg.JWTSecret).Authenticate)
	}
}
