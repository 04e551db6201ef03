package api

import "github.com/samcharles93/ggufmeta/internal/gguf"

// ExtractionRequest asks the server to run a metadata pass over a
// checkpoint on its local filesystem.
type ExtractionRequest struct {
	// Path is the checkpoint file to read. Required.
	Path string `json:"path"`
	// Markers overrides the default key substrings when non-empty.
	Markers []string `json:"markers,omitempty"`
	// Table selects the tag table: "legacy" (default) or "canonical".
	Table string `json:"table,omitempty"`
}

// ExtractionResponse is one stored extraction.
type ExtractionResponse struct {
	ID        string       `json:"id"`
	Object    string       `json:"object"`
	CreatedAt int64        `json:"created_at"`
	Path      string       `json:"path"`
	KVCount   uint64       `json:"kv_count"`
	Count     int          `json:"count"`
	Entries   []gguf.Entry `json:"entries"`
	Flagged   []string     `json:"flagged,omitempty"`
}

// ResponseError is the error payload shape shared by all endpoints.
type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Param   string `json:"param,omitempty"`
}
