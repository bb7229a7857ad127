package config

import (
	"os"
	"time"
)

// ResumeParserMode selects how resume parsing is performed. Resolved once at
// process start so handlers receive an explicit capability instead of
// reading environment variables ad hoc.
type ResumeParserMode string

const (
	// ResumeParserOff disables resume parsing; the endpoint answers 503.
	ResumeParserOff ResumeParserMode = ""
	// ResumeParserOpenAI delegates extraction to an OpenAI-compatible API.
	ResumeParserOpenAI ResumeParserMode = "openai"
	// ResumeParserHeuristic extracts fields locally with regex heuristics.
	ResumeParserHeuristic ResumeParserMode = "heuristic"
)

// Server captures process-level configuration.
type Server struct {
	Addr        string
	DatabaseURL string

	ResumeParser       ResumeParserMode
	OpenAIAPIKey       string
	OpenAIBaseURL      string
	OpenAIModel        string
	ResumeParseTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("ROLODEX_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	baseURL := os.Getenv("OPENAI_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}

	parseTimeout := 30 * time.Second
	if raw := os.Getenv("RESUME_PARSE_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			parseTimeout = d
		}
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	mode := ResumeParserMode(os.Getenv("RESUME_PARSER"))
	switch mode {
	case ResumeParserOpenAI, ResumeParserHeuristic:
		// explicit selection wins
	default:
		mode = ResumeParserOff
		if apiKey != "" {
			mode = ResumeParserOpenAI
		}
	}
	if mode == ResumeParserOpenAI && apiKey == "" {
		// Missing key must degrade gracefully, never crash the service.
		mode = ResumeParserOff
	}

	return Server{
		Addr:               addr,
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		ResumeParser:       mode,
		OpenAIAPIKey:       apiKey,
		OpenAIBaseURL:      baseURL,
		OpenAIModel:        model,
		ResumeParseTimeout: parseTimeout,
	}
}
