package engine

import "context"

// Adapter abstracts the model runtime used by the Engine.
type Adapter interface {
	// Start loads the model at modelPath and opens a generation session.
	// Loading is synchronous and may take a long time for large models.
	Start(modelPath string, params Params) (Session, error)
}

// Session is one generation run over a loaded model.
type Session interface {
	// Generate feeds prompt to the model and invokes onToken for every emitted
	// token, in order. It returns when the token bound is reached, the runtime
	// stops on its own, onToken returns Halt, or ctx is canceled.
	Generate(ctx context.Context, prompt string, onToken func(Token) Feedback) error
	// Close releases the model and any native resources.
	Close() error
}

// Params captures generation parameters passed to the adapter. Zero sampling
// values select the runtime defaults.
type Params struct {
	MaxTokens     int
	Temperature   float32
	TopP          float32
	TopK          int
	RepeatPenalty float32
	Seed          int
	Stop          []string
}

// TokenKind tells prompt tokens echoed back by the runtime apart from newly
// inferred ones.
type TokenKind int

const (
	TokenInferred TokenKind = iota
	TokenPrompt
)

func (k TokenKind) String() string {
	if k == TokenPrompt {
		return "prompt"
	}
	return "inferred"
}

// Token is a single unit of emitted text.
type Token struct {
	Kind TokenKind
	Text string
}

// Feedback is returned by the token callback to steer generation.
type Feedback int

const (
	Continue Feedback = iota
	Halt
)
