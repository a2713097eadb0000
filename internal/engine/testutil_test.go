package engine

import (
	"context"
	"io/fs"
	"sync"
	"testing"
	"time"
)

// fakeAdapter is a lightweight in-memory adapter used for tests.
type fakeAdapter struct {
	mu         sync.Mutex
	startErr   error
	genErr     error
	tokens     []Token
	block      chan struct{} // when set, Generate waits on it before emitting
	started    chan struct{} // when set, receives once per Generate call
	receivedMP string
	params     Params
	closed     int
}

func (f *fakeAdapter) Start(modelPath string, params Params) (Session, error) {
	f.mu.Lock()
	f.receivedMP = modelPath
	f.params = params
	f.mu.Unlock()
	if f.startErr != nil {
		return nil, f.startErr
	}
	return &fakeSession{f: f}, nil
}

type fakeSession struct{ f *fakeAdapter }

func (s *fakeSession) Generate(ctx context.Context, prompt string, onToken func(Token) Feedback) error {
	if s.f.started != nil {
		s.f.started <- struct{}{}
	}
	if s.f.block != nil {
		select {
		case <-s.f.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if s.f.genErr != nil {
		return s.f.genErr
	}
	limit := s.f.params.MaxTokens
	for i, t := range s.f.tokens {
		if limit > 0 && i >= limit {
			break
		}
		if onToken(t) == Halt {
			break
		}
	}
	return nil
}

func (s *fakeSession) Close() error {
	s.f.mu.Lock()
	s.f.closed++
	s.f.mu.Unlock()
	return nil
}

// mapResolver resolves names from a fixed table.
type mapResolver map[string]string

func (m mapResolver) Resolve(name string) (string, error) {
	if p, ok := m[name]; ok {
		return p, nil
	}
	return "", fs.ErrNotExist
}

func inferred(texts ...string) []Token {
	out := make([]Token, len(texts))
	for i, t := range texts {
		out[i] = Token{Kind: TokenInferred, Text: t}
	}
	return out
}

// testCtx returns a context with a short timeout, canceled on test cleanup.
func testCtx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return c
}
