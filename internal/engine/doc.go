// Package engine runs text generation against a local model artifact.
//
// An Engine resolves a configured model name to a file, admits the request
// through a bounded gate, loads the model through an Adapter, and drives one
// Session per call. Every token the session emits is appended, in emission
// order, to an Accumulator whose contents become the result.
//
// Nothing is cached between calls: each Generate loads the model from disk and
// closes the session before returning. Model loading and generation block the
// calling goroutine; with the default gate capacity of one, concurrent calls
// are served one at a time.
//
// Build tags:
//
//   - llama: in-process go-llama.cpp adapter (cgo, links libllama).
//     Files: adapter_llama.go, llama_cgo.go.
//   - default: adapter_llama_stub.go, which fails every Start with a
//     dependency-unavailable error so CGO-free builds never fake output.
package engine
