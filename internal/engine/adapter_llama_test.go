//go:build llama

package engine

import (
	"context"
	"os"
	"strings"
	"testing"

	llama "github.com/go-skynet/go-llama.cpp"
)

func applyPredict(opts []llama.PredictOption) llama.PredictOptions {
	var po llama.PredictOptions
	for _, o := range opts {
		o(&po)
	}
	return po
}

func TestPredictOptionsDefaults(t *testing.T) {
	po := applyPredict(predictOptions(Params{}, 0))
	d := llama.DefaultOptions
	if po.Tokens != DefaultMaxTokens {
		t.Fatalf("tokens=%d want %d", po.Tokens, DefaultMaxTokens)
	}
	if po.Threads != d.Threads || po.TopK != d.TopK || po.TopP != d.TopP ||
		po.Temperature != d.Temperature || po.Penalty != d.Penalty {
		t.Fatalf("unexpected defaults: %+v", po)
	}
	if len(po.StopPrompts) != 0 {
		t.Fatalf("stop words set without Params.Stop: %v", po.StopPrompts)
	}
}

func TestPredictOptionsFromParams(t *testing.T) {
	p := Params{
		MaxTokens:     7,
		Temperature:   0.2,
		TopP:          0.5,
		TopK:          5,
		RepeatPenalty: 1.3,
		Seed:          42,
		Stop:          []string{"</s>"},
	}
	po := applyPredict(predictOptions(p, 3))
	if po.Tokens != 7 || po.Threads != 3 || po.TopK != 5 || po.Seed != 42 {
		t.Fatalf("unexpected ints: %+v", po)
	}
	if po.TopP != 0.5 || po.Temperature != 0.2 || po.Penalty != 1.3 {
		t.Fatalf("unexpected floats: %+v", po)
	}
	if len(po.StopPrompts) != 1 || po.StopPrompts[0] != "</s>" {
		t.Fatalf("stop=%v", po.StopPrompts)
	}
}

func TestLlamaStartRejectsEmptyPath(t *testing.T) {
	if _, err := NewLlamaAdapter(0, 0).Start("  ", Params{}); err == nil {
		t.Fatalf("expected error for empty model path")
	}
}

func TestLlamaSessionEmitsPromptFirst(t *testing.T) {
	var got []Token
	s := &llamaSession{}
	err := s.Generate(context.Background(), "hello", func(tok Token) Feedback {
		got = append(got, tok)
		return Halt
	})
	if err != nil {
		t.Fatalf("halt on prompt: %v", err)
	}
	if len(got) != 1 || got[0] != (Token{Kind: TokenPrompt, Text: "hello"}) {
		t.Fatalf("tokens=%+v", got)
	}

	got = nil
	err = s.Generate(context.Background(), "hello", func(tok Token) Feedback {
		got = append(got, tok)
		return Continue
	})
	if err == nil {
		t.Fatalf("expected error without a loaded model")
	}
	if len(got) != 1 || got[0].Kind != TokenPrompt {
		t.Fatalf("tokens=%+v", got)
	}
}

// Runs against a real model when LLMSERVER_TEST_MODEL points at a GGUF file.
func TestLlamaGenerateWithModel(t *testing.T) {
	path := strings.TrimSpace(os.Getenv("LLMSERVER_TEST_MODEL"))
	if path == "" {
		t.Skip("LLMSERVER_TEST_MODEL not set; skipping llama generation test")
	}
	sess, err := NewLlamaAdapter(512, 0).Start(path, Params{MaxTokens: 8})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	defer sess.Close()
	var prompt, inferred int
	err = sess.Generate(context.Background(), "Once upon a time", func(tok Token) Feedback {
		if tok.Kind == TokenPrompt {
			prompt++
		} else {
			inferred++
		}
		return Continue
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if prompt != 1 || inferred == 0 || inferred > 8 {
		t.Fatalf("prompt=%d inferred=%d", prompt, inferred)
	}
}
