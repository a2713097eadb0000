package types

// ChatRequest is the payload accepted by POST /api/chat.
type ChatRequest struct {
	// Prompt text to generate a completion for. Required; any length is accepted.
	// example: Howz the day Today?
	Prompt string `json:"prompt" example:"Howz the day Today?"`
}

// ChatResponse is returned by POST /api/chat on success.
type ChatResponse struct {
	// Generated text prefixed with "Inference result: ".
	// example: Inference result: Howz the day Today? Sunny and warm.
	Response string `json:"response" example:"Inference result: Howz the day Today? Sunny and warm."`
}

// HealthResponse is returned by GET /api/health.
type HealthResponse struct {
	// example: OK
	Status string `json:"status" example:"OK"`
	// example: Server is running smoothly.
	Details string `json:"details" example:"Server is running smoothly."`
}

// VersionResponse is returned by GET /api/app/version.
type VersionResponse struct {
	// Package name, version and edition from the build metadata file.
	// example: name: llmserver, version: 0.1.0, edition: 2024
	Version string `json:"version" example:"name: llmserver, version: 0.1.0, edition: 2024"`
}
