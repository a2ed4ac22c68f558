// Package guidance turns a computed safety assessment into human-readable
// advice using a text-generation model. The model's output is advisory
// only: it never feeds back into the safety score, and any failure falls
// back to canned guidance derived from the score.
package guidance

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/safepath-labs/safepath/internal/model"
)

// Guidance is the structured advice returned for an assessed area.
type Guidance struct {
	RiskLevel       string   `json:"risk_level"`
	Summary         string   `json:"summary"`
	PrimaryConcerns []string `json:"primary_concerns"`
	Recommendations []string `json:"recommendations"`
	ConfidenceScore float64  `json:"confidence_score"`
}

// messenger is the slice of the model API the generator needs. The SDK
// client satisfies it; tests substitute a fake.
type messenger interface {
	New(ctx context.Context, params sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// Generator produces narrative guidance from safety assessments.
type Generator struct {
	messages  messenger
	model     string
	maxTokens int64
}

// Options configures a Generator.
type Options struct {
	APIKey    string
	Model     string
	MaxTokens int64
}

// NewGenerator creates a Generator backed by the Anthropic API.
func NewGenerator(opts Options) *Generator {
	if opts.Model == "" {
		opts.Model = "claude-haiku-4-5-20251001"
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = 1024
	}
	client := sdk.NewClient(option.WithAPIKey(opts.APIKey))
	return &Generator{
		messages:  &client.Messages,
		model:     opts.Model,
		maxTokens: opts.MaxTokens,
	}
}

const systemPrompt = `You are a personal safety advisor. You receive civic
safety statistics for a small urban area and reply with practical advice.
Reply with a single JSON object and nothing else, using this shape:
{"risk_level": "low"|"medium"|"high", "summary": string,
 "primary_concerns": [up to 3 strings],
 "recommendations": [3 to 5 strings],
 "confidence_score": number between 0 and 1}`

// AreaGuidance generates advice for an assessed area. Any model or parse
// failure degrades to deterministic fallback guidance with a warning log;
// the caller always gets usable advice.
func (g *Generator) AreaGuidance(ctx context.Context, result *model.SafetyResult) *Guidance {
	out, err := g.generate(ctx, result)
	if err != nil {
		zap.L().Warn("guidance: generation failed, using fallback",
			zap.Float64("safety_score", result.SafetyScore),
			zap.Error(err),
		)
		return Fallback(result.SafetyScore)
	}
	return out
}

func (g *Generator) generate(ctx context.Context, result *model.SafetyResult) (*Guidance, error) {
	prompt, err := buildPrompt(result)
	if err != nil {
		return nil, err
	}

	msg, err := g.messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(g.model),
		MaxTokens: g.maxTokens,
		System: []sdk.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "guidance: create message")
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return parseGuidance(text.String())
}

// buildPrompt serializes the assessment into the user message.
func buildPrompt(result *model.SafetyResult) (string, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return "", eris.Wrap(err, "guidance: marshal assessment")
	}
	return fmt.Sprintf("Area safety assessment (score %0.1f/100):\n%s", result.SafetyScore, payload), nil
}

// parseGuidance extracts the JSON object from the model reply. Models
// occasionally wrap JSON in prose or code fences; take the outermost braces.
func parseGuidance(text string) (*Guidance, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, eris.Errorf("guidance: no JSON object in reply (%d bytes)", len(text))
	}

	var out Guidance
	if err := json.Unmarshal([]byte(text[start:end+1]), &out); err != nil {
		return nil, eris.Wrap(err, "guidance: decode reply")
	}
	if out.RiskLevel == "" {
		return nil, eris.New("guidance: reply missing risk_level")
	}
	return &out, nil
}

// Fallback returns deterministic guidance derived from the score alone.
func Fallback(score float64) *Guidance {
	level := "low"
	switch {
	case score < 40:
		level = "high"
	case score < 70:
		level = "medium"
	}
	return &Guidance{
		RiskLevel: level,
		Summary:   fmt.Sprintf("Automated guidance is unavailable. The area scored %0.1f/100 on recent civic data.", score),
		Recommendations: []string{
			"Stay on well-lit main streets",
			"Share your route with a trusted contact",
			"Keep emergency contacts easily reachable",
		},
		ConfidenceScore: 0.3,
	}
}
