package types

// ModelsResponse wraps the catalog returned by GET /models.
type ModelsResponse struct {
	// Loadable models.
	Models []Model `json:"models"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: model not found
	Error string `json:"error" example:"model not found"`
	// HTTP status code.
	// example: 404
	Code int `json:"code" example:"404"`
}

// InstanceStatus summarizes one registry entry for /status.
type InstanceStatus struct {
	// Model name.
	// example: resnet50
	Name string `json:"name" example:"resnet50"`
	// Lifecycle state: Loading, Available, Unloading, Unloaded or Failed.
	// example: Available
	State string `json:"state" example:"Available"`
	// Failure reason when State is Failed.
	Reason string `json:"reason,omitempty"`
	// Runtime backing the instance.
	// example: llama
	Runtime string `json:"runtime,omitempty" example:"llama"`
	// Artifact path or endpoint.
	// example: /srv/models/resnet50.gguf
	Artifact string `json:"artifact,omitempty" example:"/srv/models/resnet50.gguf"`
	// Predict calls currently holding the model.
	// example: 2
	Refcount int `json:"refcount" example:"2"`
	// Predict calls admitted since the instance was created.
	// example: 1024
	Predictions uint64 `json:"predictions" example:"1024"`
	// Creation time (unix seconds).
	// example: 1700000000
	CreatedAt int64 `json:"created_unix" example:"1700000000"`
	// Time the model became Available (unix seconds), 0 if never.
	// example: 1700000003
	LoadedAt int64 `json:"loaded_unix,omitempty" example:"1700000003"`
	// Last time a predict was admitted (unix seconds), 0 if never.
	// example: 1700000100
	LastUsed int64 `json:"last_used_unix,omitempty" example:"1700000100"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Registered instances sorted by name.
	Instances []InstanceStatus `json:"instances"`
	// Instance count per state.
	Counts map[string]int `json:"counts"`
	// Background loads not yet finished.
	// example: 1
	PendingLoads int `json:"pending_loads" example:"1"`
	// Whether the control plane accepts traffic.
	// example: true
	Ready bool `json:"ready" example:"true"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}

// GenerateRequest is the body of POST /generate-text.
type GenerateRequest struct {
	// Prompt to complete.
	// example: Write a haiku about the ocean.
	Prompt string `json:"prompt" example:"Write a haiku about the ocean."`
	// Maximum tokens to generate; 150 when omitted.
	// example: 150
	MaxTokens int `json:"max_tokens,omitempty" example:"150"`
}

// ExtractResponse is returned by POST /extract/text.
type ExtractResponse struct {
	// Text of every page, each followed by a newline.
	ExtractedText string `json:"extracted_text"`
}
