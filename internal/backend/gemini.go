package backend

import "strings"

// GeminiRequest represents the request body for the Gemini generateContent API
type GeminiRequest struct {
	SystemInstruction *GeminiContent  `json:"system_instruction,omitempty"`
	Contents          []GeminiContent `json:"contents"`
}

// GeminiContent represents one entry in the conversation context
type GeminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []GeminiPart `json:"parts"`
}

// GeminiPart represents a single text part of a content entry
type GeminiPart struct {
	Text string `json:"text"`
}

// GeminiResponse represents the response from the Gemini generateContent API
type GeminiResponse struct {
	Candidates []struct {
		Content      GeminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata map[string]interface{} `json:"usageMetadata"`
}

// Text returns the text of the first candidate, with multiple parts
// concatenated. Empty when the response carries no candidates.
func (r *GeminiResponse) Text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, part := range r.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String()
}
