//go:build llama

package engine

import (
	"context"
	"errors"
	"strings"

	llama "github.com/go-skynet/go-llama.cpp"
)

// LlamaAvailable reports whether this binary was compiled with llama support.
func LlamaAvailable() bool { return true }

// llamaAdapter holds the runtime settings used to load every model.
type llamaAdapter struct {
	ctxSize int
	threads int
}

// NewLlamaAdapter returns an in-process go-llama.cpp adapter. The tokenizer is
// the one embedded in the model file.
func NewLlamaAdapter(ctxSize, threads int) Adapter {
	return &llamaAdapter{ctxSize: ctxSize, threads: threads}
}

type llamaSession struct {
	model   *llama.LLama
	threads int
	params  Params
}

func (a *llamaAdapter) Start(modelPath string, params Params) (Session, error) {
	if strings.TrimSpace(modelPath) == "" {
		return nil, errors.New("model path is empty")
	}
	var mo []llama.ModelOption
	if a.ctxSize > 0 {
		mo = append(mo, llama.SetContext(a.ctxSize))
	}
	m, err := llama.New(modelPath, mo...)
	if err != nil {
		return nil, err
	}
	return &llamaSession{model: m, threads: a.threads, params: params}, nil
}

func (s *llamaSession) Generate(ctx context.Context, prompt string, onToken func(Token) Feedback) error {
	// go-llama.cpp only reports sampled tokens; the prompt is evaluated up front.
	if onToken(Token{Kind: TokenPrompt, Text: prompt}) == Halt {
		return nil
	}
	if s.model == nil {
		return errors.New("llama model not initialized")
	}
	s.model.SetTokenCallback(func(tok string) bool {
		select {
		case <-ctx.Done():
			return false
		default:
		}
		return onToken(Token{Kind: TokenInferred, Text: tok}) == Continue
	})
	defer s.model.SetTokenCallback(nil)

	if _, err := s.model.Predict(prompt, predictOptions(s.params, s.threads)...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

func (s *llamaSession) Close() error {
	if s.model != nil {
		s.model.Free()
		s.model = nil
	}
	return nil
}

func zn(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func zf(v, def float32) float32 {
	if v > 0 {
		return v
	}
	return def
}

// predictOptions converts Params into go-llama.cpp options, falling back to
// the library defaults for unset sampling values.
func predictOptions(p Params, threads int) []llama.PredictOption {
	po := []llama.PredictOption{
		llama.SetTokens(zn(p.MaxTokens, DefaultMaxTokens)),
		llama.SetThreads(zn(threads, llama.DefaultOptions.Threads)),
		llama.SetTopP(zf(p.TopP, llama.DefaultOptions.TopP)),
		llama.SetTopK(zn(p.TopK, llama.DefaultOptions.TopK)),
		llama.SetTemperature(zf(p.Temperature, llama.DefaultOptions.Temperature)),
		llama.SetPenalty(zf(p.RepeatPenalty, llama.DefaultOptions.Penalty)),
	}
	if p.Seed != 0 {
		po = append(po, llama.SetSeed(p.Seed))
	}
	if len(p.Stop) > 0 {
		po = append(po, llama.SetStopWords(p.Stop...))
	}
	return po
}
