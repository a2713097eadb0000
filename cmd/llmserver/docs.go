package main

// General API documentation for swaggo. Regenerate with `swag init -g cmd/llmserver/docs.go`.
//
// @title           llmserver API
// @version         1.0
// @description     HTTP API for text generation with a local LLM.
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
