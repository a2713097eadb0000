package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// DefaultMaxTokens bounds generation when Params.MaxTokens is unset.
const DefaultMaxTokens = 140

// zlog is the package logger. Replace it with SetLogger.
var zlog = zerolog.New(os.Stderr).With().Timestamp().Str("component", "engine").Logger()

// SetLogger installs a structured logger used by the engine.
func SetLogger(l zerolog.Logger) { zlog = l.With().Str("component", "engine").Logger() }

// ModelResolver maps a configured model name to a file on disk.
// registry.Store satisfies it.
type ModelResolver interface {
	Resolve(name string) (string, error)
}

// Config wires an Engine.
type Config struct {
	Adapter  Adapter
	Resolver ModelResolver
	Params   Params
	// MaxConcurrent caps simultaneous generations; <=0 means 1.
	MaxConcurrent int
	// Diagnostics receives load progress and every emitted token. nil discards.
	Diagnostics io.Writer
}

// Engine loads a model and runs one generation session per call.
type Engine struct {
	adapter  Adapter
	resolver ModelResolver
	params   Params
	gate     *semaphore.Weighted
	diag     io.Writer
}

// New constructs an Engine from cfg, applying defaults.
func New(cfg Config) *Engine {
	e := &Engine{
		adapter:  cfg.Adapter,
		resolver: cfg.Resolver,
		params:   cfg.Params,
		diag:     cfg.Diagnostics,
	}
	if e.params.MaxTokens <= 0 {
		e.params.MaxTokens = DefaultMaxTokens
	}
	n := cfg.MaxConcurrent
	if n <= 0 {
		n = 1
	}
	e.gate = semaphore.NewWeighted(int64(n))
	if e.diag == nil {
		e.diag = io.Discard
	}
	return e
}

// Params returns the generation parameters applied to every session.
func (e *Engine) Params() Params { return e.params }

// Generate resolves modelName, loads the model and returns the concatenation
// of every token the session emitted. All failures are *InferenceError.
func (e *Engine) Generate(ctx context.Context, prompt, modelName string) (string, error) {
	start := time.Now()
	text, err := e.generate(ctx, prompt, modelName)
	generationSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		generationsTotal.WithLabelValues("error").Inc()
		return "", err
	}
	generationsTotal.WithLabelValues("ok").Inc()
	return text, nil
}

func (e *Engine) generate(ctx context.Context, prompt, modelName string) (string, error) {
	if e.resolver == nil {
		return "", &InferenceError{Op: "resolve", Model: modelName, Err: fmt.Errorf("no model resolver configured")}
	}
	path, err := e.resolver.Resolve(modelName)
	if err != nil {
		return "", &InferenceError{Op: "resolve", Model: modelName, Err: err}
	}
	if e.adapter == nil {
		return "", &InferenceError{Op: "load", Model: path, Err: ErrDependencyUnavailable("inference adapter not initialized")}
	}

	if err := e.gate.Acquire(ctx, 1); err != nil {
		return "", &InferenceError{Op: "admit", Model: path, Err: err}
	}
	defer e.gate.Release(1)
	inflight.Inc()
	defer inflight.Dec()

	log := zlog.With().Str("session", uuid.NewString()).Str("model", path).Logger()
	log.Info().Int("max_tokens", e.params.MaxTokens).Msg("loading model")
	loadStart := time.Now()
	sess, err := e.adapter.Start(path, e.params)
	if err != nil {
		log.Error().Err(err).Msg("model load failed")
		return "", &InferenceError{Op: "load", Model: path, Err: err}
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("session close")
		}
	}()
	elapsed := time.Since(loadStart)
	loadSeconds.Observe(elapsed.Seconds())
	fmt.Fprintf(e.diag, "Model fully loaded! Elapsed: %dms\n", elapsed.Milliseconds())

	var acc Accumulator
	err = sess.Generate(ctx, prompt, func(tok Token) Feedback {
		acc.Append(tok)
		tokensTotal.WithLabelValues(tok.Kind.String()).Inc()
		_, _ = io.WriteString(e.diag, tok.Text)
		return Continue
	})
	_, _ = io.WriteString(e.diag, "\n")
	if err != nil {
		log.Error().Err(err).Int("tokens", acc.Tokens()).Msg("generation failed")
		return "", &InferenceError{Op: "generate", Model: path, Err: err}
	}
	log.Info().Int("tokens", acc.Tokens()).Dur("load", elapsed).Msg("generation complete")
	return acc.String(), nil
}
