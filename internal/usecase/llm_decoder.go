package usecase

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/smartswap/backend/internal/domain"
)

const (
	defaultLLMReasoning  = "LLM recommendation"
	defaultLLMConfidence = 0.7
)

// LLMSuggestion is one decoded provider recommendation
type LLMSuggestion struct {
	SKU        string
	Reasoning  string
	Confidence float64
}

type rawLLMSuggestion struct {
	SKU        *string         `json:"sku"`
	Reasoning  json.RawMessage `json:"reasoning"`
	Confidence json.RawMessage `json:"confidence"`
}

// DecodeLLMSuggestions parses a provider response as a JSON array of
// {sku, reasoning, confidence}, optionally wrapped in a code fence.
// Any deviation is reported as ErrProviderParse.
func DecodeLLMSuggestions(text string) ([]LLMSuggestion, error) {
	body := stripCodeFence(strings.TrimSpace(text))
	if body == "" {
		return nil, fmt.Errorf("%w: empty response", domain.ErrProviderParse)
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(body), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderParse, err)
	}

	suggestions := make([]LLMSuggestion, 0, len(items))
	for i, item := range items {
		if trimmed := bytes.TrimSpace(item); len(trimmed) == 0 || trimmed[0] != '{' {
			return nil, fmt.Errorf("%w: item %d is not an object", domain.ErrProviderParse, i)
		}

		var raw rawLLMSuggestion
		if err := json.Unmarshal(item, &raw); err != nil {
			return nil, fmt.Errorf("%w: item %d: %v", domain.ErrProviderParse, i, err)
		}
		if raw.SKU == nil || strings.TrimSpace(*raw.SKU) == "" {
			return nil, fmt.Errorf("%w: item %d has no sku", domain.ErrProviderParse, i)
		}

		s := LLMSuggestion{
			SKU:        strings.TrimSpace(*raw.SKU),
			Reasoning:  defaultLLMReasoning,
			Confidence: defaultLLMConfidence,
		}
		if len(raw.Reasoning) > 0 && !isNullJSON(raw.Reasoning) {
			if err := json.Unmarshal(raw.Reasoning, &s.Reasoning); err != nil {
				return nil, fmt.Errorf("%w: item %d reasoning is not a string", domain.ErrProviderParse, i)
			}
		}
		if len(raw.Confidence) > 0 && !isNullJSON(raw.Confidence) {
			if err := json.Unmarshal(raw.Confidence, &s.Confidence); err != nil {
				return nil, fmt.Errorf("%w: item %d confidence is not a number", domain.ErrProviderParse, i)
			}
		}
		suggestions = append(suggestions, s)
	}

	return suggestions, nil
}

// stripCodeFence unwraps ```json ... ``` or ``` ... ``` blocks
func stripCodeFence(text string) string {
	for _, fence := range []string{"```json", "```"} {
		if idx := strings.Index(text, fence); idx >= 0 {
			rest := text[idx+len(fence):]
			if end := strings.Index(rest, "```"); end >= 0 {
				rest = rest[:end]
			}
			return strings.TrimSpace(rest)
		}
	}
	return text
}

func isNullJSON(data json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}
