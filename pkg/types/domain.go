package types

// Model represents a model artifact found in the local models directory.
type Model struct {
	// Identifier relative to the models directory.
	// example: rustformers_redpajama-3b-ggml/model.gguf
	ID string `json:"id" example:"rustformers_redpajama-3b-ggml/model.gguf"`
	// Absolute path to the model file on disk.
	// example: /srv/llmserver/models/rustformers_redpajama-3b-ggml/model.gguf
	Path string `json:"path" example:"/srv/llmserver/models/rustformers_redpajama-3b-ggml/model.gguf"`
	// File size in bytes.
	// example: 2019233792
	SizeBytes int64 `json:"size_bytes" example:"2019233792"`
}
