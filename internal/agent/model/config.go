package model

// ================ Config ================
type ConversationConfig struct {
	TTL                 string `envconfig:"SESSION_TTL" default:"24h"`
	MaxGraphSteps       int    `envconfig:"TURN_MAX_GRAPH_STEPS" default:"15"`
	MaxSupervisorVisits int    `envconfig:"TURN_MAX_SUPERVISOR_VISITS" default:"6"`

	History struct {
		MaxTurns int `envconfig:"SESSION_HISTORY_MAX_TURNS" default:"10"`
	}
	Tools struct {
		MaxCalls int `envconfig:"TURN_TOOL_MAX_CALLS" default:"5"`
	}
}

type SupervisorModelConfig struct {
	Model       string  `envconfig:"SUPERVISOR_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens   int     `envconfig:"SUPERVISOR_MAX_TOKENS" default:"512"`
	Temperature float32 `envconfig:"SUPERVISOR_TEMPERATURE" default:"0"`
}

type RetrieverModelConfig struct {
	Model       string  `envconfig:"RETRIEVER_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"RETRIEVER_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"RETRIEVER_TEMPERATURE" default:"0.2"`
}

type ChatModelConfig struct {
	Model       string  `envconfig:"CHAT_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"CHAT_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"CHAT_TEMPERATURE" default:"0.7"`
}

type ExtractionModelConfig struct {
	Model       string  `envconfig:"EXTRACTION_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens   int     `envconfig:"EXTRACTION_MAX_TOKENS" default:"1024"`
	Temperature float32 `envconfig:"EXTRACTION_TEMPERATURE" default:"0"`
}

type RateLimitConfig struct {
	SessionMax int `envconfig:"RATE_LIMIT_SESSION_MAX" default:"20"`
	GlobalMax  int `envconfig:"RATE_LIMIT_GLOBAL_MAX" default:"100"`
	WindowSecs int `envconfig:"RATE_LIMIT_WINDOW_SECONDS" default:"60"`
}
