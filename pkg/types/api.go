package types

// ChatRequest is the payload sent to the active server's chat completions
// endpoint. Model defaults to the active model id when empty.
type ChatRequest struct {
	// Optional model identifier forwarded to the server.
	// example: venice
	Model string `json:"model,omitempty" example:"venice"`
	// Conversation so far, oldest first.
	Messages []ChatMessage `json:"messages"`
	// Maximum number of new tokens to generate.
	// example: 1000
	MaxTokens int `json:"max_tokens,omitempty" example:"1000"`
	// Sampling temperature (higher = more random). Nil selects the
	// configured default; 0 requests greedy decoding.
	// example: 0.7
	Temperature *float64 `json:"temperature,omitempty" example:"0.7"`
}

// ChatResult is the outcome of one completed chat request.
type ChatResult struct {
	// Generated assistant content.
	Content string `json:"content"`
	// Whitespace-separated word count of Content.
	// example: 312
	WordCount int `json:"word_count" example:"312"`
	// Finish reason reported by the server, if any.
	// example: stop
	FinishReason string `json:"finish_reason,omitempty" example:"stop"`
	// Token accounting reported by the server, if any.
	Usage Usage `json:"usage"`
}

// Usage contains token accounting.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// StartRequest is the body of POST /server/start.
type StartRequest struct {
	// example: venice
	Model string `json:"model" example:"venice"`
	// Port to bind; 0 selects the configured default.
	// example: 8188
	Port int `json:"port,omitempty" example:"8188"`
}

// ModelsResponse wraps the list of models returned by GET /models.
type ModelsResponse struct {
	Models []ModelConfig `json:"models"`
	// Ids of catalog models whose file is missing from the models directory.
	Missing []string `json:"missing,omitempty"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// ServerStatus summarizes the active server for /status.
type ServerStatus struct {
	// example: venice
	ModelID string `json:"model_id" example:"venice"`
	// example: 8188
	Port int `json:"port" example:"8188"`
	// example: 12345
	PID int `json:"pid" example:"12345"`
	// example: http://127.0.0.1:8188
	BaseURL string `json:"base_url" example:"http://127.0.0.1:8188"`
	// Unix seconds of when the server became active.
	StartedUnix int64 `json:"started_unix"`
	// Number of output lines captured during startup.
	StartupLogLines int `json:"startup_log_lines"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Supervisor lifecycle state (idle, starting, active).
	// example: active
	State string `json:"state" example:"active"`
	// Active server, absent when idle.
	Server *ServerStatus `json:"server,omitempty"`
	// Last start failure observed by the supervisor (if any).
	LastError string `json:"last_error,omitempty"`
	// example: 3
	StartsTotal uint64 `json:"starts_total" example:"3"`
	// example: 1
	FailuresTotal uint64 `json:"failures_total" example:"1"`
	// Uptime of the supervisor in seconds.
	UptimeSeconds int64 `json:"uptime_seconds"`
	// Server time in unix seconds.
	ServerTimeUnix int64 `json:"server_time_unix"`
}

// PromptInfo is returned by GET /prompt.
type PromptInfo struct {
	// example: 0
	Index int `json:"prompt_index" example:"0"`
	// example: You are a helpful assistant.
	Content string `json:"prompt_content" example:"You are a helpful assistant."`
	// example: 3
	InteractionCount int `json:"interaction_count" example:"3"`
	// Threshold of the active entry; absent when no entries are configured.
	// example: 5
	NextPromptCount *int `json:"next_prompt_count,omitempty" example:"5"`
}

// ChatTurnRequest is the body of POST /chat: one user turn in a session.
type ChatTurnRequest struct {
	// Optional session id; a new session is created when empty or unknown.
	SessionID string `json:"session_id,omitempty"`
	// example: Describe the alien marketplace.
	Message string `json:"message" example:"Describe the alien marketplace."`
	// example: 800
	MaxTokens int `json:"max_tokens,omitempty" example:"800"`
	// Omitted selects the configured default.
	// example: 0.7
	Temperature *float64 `json:"temperature,omitempty" example:"0.7"`
}

// ChatTurnResponse is returned by POST /chat.
type ChatTurnResponse struct {
	SessionID string     `json:"session_id"`
	Result    ChatResult `json:"result"`
	// True when the scheduler rotated to another system prompt after this turn.
	Rotated bool       `json:"rotated"`
	Prompt  PromptInfo `json:"prompt"`
}

// SessionResponse is returned by GET /sessions/{id}.
type SessionResponse struct {
	SessionID string        `json:"session_id"`
	Messages  []ChatMessage `json:"messages"`
	// One line per message, content cut at 50 characters.
	Summary string `json:"summary"`
}

// StopResponse is returned by POST /server/stop.
type StopResponse struct {
	// True when a server was running and has been stopped.
	Stopped bool `json:"stopped"`
}
