package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/validator/backend/internal/config"
	"github.com/validator/backend/internal/models"
)

// ContentVerdict is the moderation outcome for a submitted idea.
type ContentVerdict struct {
	Valid      bool   `json:"valid"`
	Reason     string `json:"reason,omitempty"`
	Category   string `json:"category,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Generator produces landing and ad copy from an idea description via the
// Gemini API. Without an API key it degrades to deterministic template copy
// so the rest of the product keeps working.
type Generator struct {
	client *genai.Client
	model  string
	log    *zap.Logger
}

func NewGenerator(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Generator, error) {
	g := &Generator{model: cfg.GeminiModel, log: log}
	if cfg.GeminiAPIKey == "" {
		log.Warn("GEMINI_API_KEY not set, copy generation uses static templates")
		return g, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.GeminiAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	g.client = client
	return g, nil
}

const landingPrompt = `You are a conversion copywriter. Write landing page copy for the following product idea.

Product name: %s
Description: %s

Respond with ONLY a JSON object, no prose, in exactly this shape:
{
  "hero_title": "string, under 10 words",
  "hero_subtitle": "string, one sentence",
  "benefits": ["three to five short benefit strings"],
  "faq": [{"question": "string", "answer": "string"}],
  "cta_text": "string, under 5 words",
  "theme": "one of: light, dark, gradient"
}`

// GenerateLanding drafts the landing page copy for an idea. Malformed model
// output falls back to template copy rather than failing the experiment.
func (g *Generator) GenerateLanding(ctx context.Context, ideaName, ideaDescription string) (*models.Landing, error) {
	if g.client == nil {
		return staticLanding(ideaName), nil
	}

	prompt := fmt.Sprintf(landingPrompt, ideaName, ideaDescription)
	raw, err := g.generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("landing generation: %w", err)
	}

	payload, ok := extractJSON(raw)
	if !ok {
		g.log.Warn("model returned no JSON object for landing copy, using template",
			zap.String("idea", ideaName))
		return staticLanding(ideaName), nil
	}

	var landing models.Landing
	if err := json.Unmarshal([]byte(payload), &landing); err != nil {
		g.log.Warn("landing copy JSON did not parse, using template",
			zap.String("idea", ideaName), zap.Error(err))
		return staticLanding(ideaName), nil
	}
	if landing.HeroTitle == "" {
		landing.HeroTitle = ideaName
	}
	if landing.CTAText == "" {
		landing.CTAText = "Join the waitlist"
	}
	if landing.Theme == "" {
		landing.Theme = "light"
	}
	return &landing, nil
}

const adCopyPrompt = `You are a performance marketer. Write a short ad for the following product.

Product name: %s
Description: %s
Landing page: %s

Respond with ONLY a JSON object, no prose:
{
  "headline": "string, under 40 characters",
  "message": "string, one or two sentences"
}`

// GenerateAdCopy drafts the ad headline and primary text.
func (g *Generator) GenerateAdCopy(ctx context.Context, ideaName, ideaDescription, landingURL string) (*models.AdCreative, error) {
	if g.client == nil {
		return staticAdCopy(ideaName), nil
	}

	prompt := fmt.Sprintf(adCopyPrompt, ideaName, ideaDescription, landingURL)
	raw, err := g.generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("ad copy generation: %w", err)
	}

	payload, ok := extractJSON(raw)
	if !ok {
		return staticAdCopy(ideaName), nil
	}
	var creative models.AdCreative
	if err := json.Unmarshal([]byte(payload), &creative); err != nil {
		return staticAdCopy(ideaName), nil
	}
	if creative.Headline == "" {
		creative.Headline = ideaName
	}
	return &creative, nil
}

const moderationPrompt = `You are a content policy reviewer for an advertising platform. Review this product idea.

Product name: %s
Description: %s

Reject ideas that involve illegal goods, adult content, weapons, gambling, deceptive schemes, or medical claims. Accept everything else.

Respond with ONLY a JSON object, no prose:
{
  "valid": true or false,
  "reason": "why it was rejected, empty when valid",
  "category": "the violated category, empty when valid",
  "suggestion": "how to rework the idea, empty when valid"
}`

// ValidateContent moderates an idea before any ad spend happens. When no
// model is configured the idea passes; the ad platform applies its own
// review downstream.
func (g *Generator) ValidateContent(ctx context.Context, ideaName, ideaDescription string) (*ContentVerdict, error) {
	if g.client == nil {
		return &ContentVerdict{Valid: true}, nil
	}

	prompt := fmt.Sprintf(moderationPrompt, ideaName, ideaDescription)
	raw, err := g.generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("content validation: %w", err)
	}

	payload, ok := extractJSON(raw)
	if !ok {
		g.log.Warn("moderation verdict missing JSON, allowing idea",
			zap.String("idea", ideaName))
		return &ContentVerdict{Valid: true}, nil
	}
	var verdict ContentVerdict
	if err := json.Unmarshal([]byte(payload), &verdict); err != nil {
		return &ContentVerdict{Valid: true}, nil
	}
	return &verdict, nil
}

func (g *Generator) generate(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}
	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", err
	}
	return result.Text(), nil
}

// extractJSON finds the first balanced top-level JSON object in model output,
// skipping markdown fences and surrounding prose.
func extractJSON(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

func staticLanding(ideaName string) *models.Landing {
	return &models.Landing{
		HeroTitle:    ideaName,
		HeroSubtitle: "Be the first to try " + ideaName + ".",
		Benefits: []string{
			"Early access before public launch",
			"Shape the product with your feedback",
			"Founding member pricing",
		},
		FAQ: []models.FAQItem{
			{Question: "When does it launch?", Answer: "We are onboarding waitlist members in small batches."},
			{Question: "Is it free to join?", Answer: "Joining the waitlist is free and takes one click."},
		},
		CTAText: "Join the waitlist",
		Theme:   "light",
	}
}

func staticAdCopy(ideaName string) *models.AdCreative {
	return &models.AdCreative{
		Headline: ideaName,
		Message:  ideaName + " is launching soon. Join the waitlist for early access.",
	}
}
