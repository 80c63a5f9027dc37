package insight

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Summary is the headline finding for an entity.
type Summary struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Sentiment carries the model's read on the entity's tone.
type Sentiment struct {
	Label string   `json:"label"`
	Score float64  `json:"score"`
	Tones []string `json:"tones,omitempty"`
}

// SignalHint is a model-suggested signal attached to an insight.
type SignalHint struct {
	Type     string `json:"type"`
	Severity string `json:"severity"`
	Note     string `json:"note,omitempty"`
}

// Insight is one generated finding for an entity.
type Insight struct {
	PromptID        string            `json:"promptId,omitempty"`
	EntityRef       string            `json:"entityRef,omitempty"`
	Summary         Summary           `json:"summary"`
	Sentiment       Sentiment         `json:"sentiment"`
	EscalationScore float64           `json:"escalationScore,omitempty"`
	Requirement     string            `json:"requirement,omitempty"`
	WaitingOn       []string          `json:"waitingOn,omitempty"`
	Tags            []string          `json:"tags,omitempty"`
	Signals         []SignalHint      `json:"signals,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	ExpiresAt       string            `json:"expiresAt,omitempty"`
	GeneratedAt     string            `json:"generatedAt,omitempty"`
	Provider        string            `json:"provider,omitempty"`
}

// ParseResponse decodes a model reply into insights. Replies may be a single
// object or an array, optionally wrapped in markdown fences; the result is
// capped at max entries.
func ParseResponse(raw string, max int) ([]Insight, error) {
	if max <= 0 {
		max = 3
	}
	body := stripFences(raw)
	if body == "" {
		return nil, fmt.Errorf("empty model response")
	}

	var single Insight
	if err := json.Unmarshal([]byte(body), &single); err == nil {
		return []Insight{single}, nil
	}
	var many []Insight
	if err := json.Unmarshal([]byte(body), &many); err != nil {
		return nil, fmt.Errorf("decode insight response: %w", err)
	}
	if len(many) > max {
		many = many[:max]
	}
	return many, nil
}

func stripFences(raw string) string {
	body := strings.TrimSpace(raw)
	if strings.HasPrefix(body, "```") {
		body = strings.TrimPrefix(body, "```json")
		body = strings.TrimPrefix(body, "```")
		if idx := strings.LastIndex(body, "```"); idx >= 0 {
			body = body[:idx]
		}
	}
	return strings.TrimSpace(body)
}

// Normalize patches up model output so downstream consumers never see nils or
// inconsistent sentiment. A negative label with a zero score gets a small
// negative score so sorting by sentiment stays meaningful.
func Normalize(in Insight) Insight {
	if strings.TrimSpace(in.Sentiment.Label) == "" {
		in.Sentiment.Label = "neutral"
	}
	in.Sentiment.Label = strings.ToLower(in.Sentiment.Label)
	if in.Sentiment.Label == "negative" && in.Sentiment.Score == 0 {
		in.Sentiment.Score = -0.1
	}
	if in.Sentiment.Tones == nil {
		in.Sentiment.Tones = []string{}
	}
	if in.WaitingOn == nil {
		in.WaitingOn = []string{}
	}
	if in.Tags == nil {
		in.Tags = []string{}
	}
	if in.Metadata == nil {
		in.Metadata = map[string]string{}
	}
	for i := range in.Signals {
		sev := strings.ToLower(strings.TrimSpace(in.Signals[i].Severity))
		if sev == "" {
			sev = "low"
		}
		in.Signals[i].Severity = sev
	}
	return in
}

// Valid reports whether an insight is usable.
func Valid(in Insight) bool {
	return strings.TrimSpace(in.Summary.Text) != ""
}

// Fallback builds a degraded insight straight from the payload when no model
// is available or its reply could not be used.
func Fallback(payload map[string]any) Insight {
	raw, _ := json.Marshal(payload)
	text := string(raw)
	if len(text) > 256 {
		text = text[:256] + "…"
	}
	return Normalize(Insight{
		PromptID:  "fallback",
		Summary:   Summary{Text: text, Confidence: 0},
		Sentiment: Sentiment{Label: "neutral"},
	})
}
