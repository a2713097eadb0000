package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"llmserver/internal/buildinfo"
	"llmserver/internal/config"
	"llmserver/pkg/types"
)

// ResponsePrefix is prepended to the generated text in /api/chat responses.
const ResponsePrefix = "Inference result: "

// Health payload returned by GET /api/health.
var healthOK = types.HealthResponse{Status: "OK", Details: "Server is running smoothly."}

// Generator produces text for a prompt using the named model.
// *engine.Engine satisfies it.
type Generator interface {
	Generate(ctx context.Context, prompt, modelName string) (string, error)
}

// Deps are the collaborators the router dispatches to.
type Deps struct {
	// Configs resolves the model configuration on every chat request.
	Configs config.ConfigProvider
	// Engine runs generation.
	Engine Generator
	// BuildMetadata is the path of the TOML file served by /api/app/version.
	BuildMetadata string
}

// NewMux builds the router. Only exact path and method matches are served;
// everything else is 404 "Route not found".
func NewMux(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}

	r.Post("/api/chat", chatHandler(d))
	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthOK)
	})
	r.Get("/api/app/version", versionHandler(d.BuildMetadata))
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	MountSwagger(r)

	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)
	return r
}

// chatHandler serves POST /api/chat.
//
// @Summary      Generate text
// @Description  Runs the configured model on the prompt. Failures return an empty body.
// @Accept       json
// @Produce      json
// @Param        request  body      types.ChatRequest  true  "Prompt"
// @Success      200      {object}  types.ChatResponse
// @Failure      400      "malformed request"
// @Failure      500      "config or inference failure"
// @Router       /api/chat [post]
func chatHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		prompt, err := decodeChat(w, r)
		if err != nil {
			event(r, LevelDebug).Err(err).Msg("chat bad request")
			writeEmpty(w, http.StatusBadRequest)
			return
		}
		if d.Configs == nil || d.Engine == nil {
			event(r, LevelError).Msg("chat handler not wired")
			writeEmpty(w, http.StatusInternalServerError)
			return
		}
		cfg, err := d.Configs.Load()
		if err != nil {
			event(r, LevelError).Err(err).Msg("error loading model configuration")
			writeEmpty(w, http.StatusInternalServerError)
			return
		}
		event(r, LevelInfo).Str("model", cfg.ModelName).Int("prompt_len", len(prompt)).Msg("chat start")
		text, err := d.Engine.Generate(generationContext(), prompt, cfg.ModelName)
		if err != nil {
			event(r, LevelError).Err(err).Str("model", cfg.ModelName).Dur("dur", time.Since(start)).Msg("error in inference")
			writeEmpty(w, http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, types.ChatResponse{Response: ResponsePrefix + text})
		event(r, LevelInfo).Int("status", http.StatusOK).Int("response_len", len(text)).Dur("dur", time.Since(start)).Msg("chat end")
	}
}

// decodeChat reads the whole body and requires a JSON object with a string
// "prompt". Keys match exactly; trailing data and invalid UTF-8 are rejected.
func decodeChat(w http.ResponseWriter, r *http.Request) (string, error) {
	body := r.Body
	if maxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", errors.New("body is not valid UTF-8")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return "", err
	}
	raw, ok := fields["prompt"]
	if !ok {
		return "", errors.New("prompt is required")
	}
	var prompt *string
	if err := json.Unmarshal(raw, &prompt); err != nil {
		return "", fmt.Errorf("prompt: %w", err)
	}
	if prompt == nil {
		return "", errors.New("prompt is required")
	}
	return *prompt, nil
}

// versionHandler serves GET /api/app/version.
//
// @Summary  Build metadata
// @Produce  json
// @Success  200  {object}  types.VersionResponse
// @Failure  404  "metadata file missing"
// @Failure  500  "metadata unreadable"
// @Router   /api/app/version [get]
func versionHandler(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info, err := buildinfo.Read(path)
		if err != nil {
			if errors.Is(err, buildinfo.ErrNotFound) {
				writeText(w, http.StatusNotFound, "Version not found")
				return
			}
			event(r, LevelError).Err(err).Msg("error reading build metadata")
			writeText(w, http.StatusInternalServerError, "Error reading build metadata")
			return
		}
		writeJSON(w, http.StatusOK, types.VersionResponse{Version: info.String()})
	}
}
