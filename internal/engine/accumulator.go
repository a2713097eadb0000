package engine

import "strings"

// Accumulator collects token text in the order it is appended.
type Accumulator struct {
	b strings.Builder
	n int
}

// Append adds the token's text regardless of its kind.
func (a *Accumulator) Append(t Token) {
	a.b.WriteString(t.Text)
	a.n++
}

// String returns the accumulated text.
func (a *Accumulator) String() string { return a.b.String() }

// Tokens returns how many tokens were appended.
func (a *Accumulator) Tokens() int { return a.n }
