package llm

import (
	"encoding/json"
	"time"
)

// ProviderGemini is the only supported provider.
const ProviderGemini = "gemini"

const (
	maxOutputTokens = 700
	temperature     = 0.7
)

// Settings configures a Client.
type Settings struct {
	Provider   string
	APIKey     string
	BaseURL    string
	APIVersion string
	Model      string
	Timeout    time.Duration
}

// Answer is the text extracted from a successful generateContent call together
// with the provider's complete response body.
type Answer struct {
	Text string
	Raw  json.RawMessage
}

// Part is a single piece of content.
type Part struct {
	Text string `json:"text"`
}

// Content is a list of parts authored by one role.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// GenerationConfig holds the sampling parameters sent with every request.
type GenerationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens"`
	Temperature     float64 `json:"temperature"`
}

// GenerateContentRequest is the request payload for models/{model}:generateContent.
type GenerateContentRequest struct {
	Contents         []Content        `json:"contents"`
	GenerationConfig GenerationConfig `json:"generationConfig"`
}
