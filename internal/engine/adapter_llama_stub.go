//go:build !llama

package engine

// LlamaAvailable reports whether this binary was compiled with llama support.
func LlamaAvailable() bool { return false }

// llamaAdapter refuses to run without the 'llama' build tag so CGO-free
// builds fail loudly instead of producing fake output.
type llamaAdapter struct {
	ctxSize int
	threads int
}

// NewLlamaAdapter returns the stub adapter.
func NewLlamaAdapter(ctxSize, threads int) Adapter {
	return &llamaAdapter{ctxSize: ctxSize, threads: threads}
}

func (a *llamaAdapter) Start(modelPath string, params Params) (Session, error) {
	return nil, ErrDependencyUnavailable("llama support not built (missing 'llama' build tag)")
}
