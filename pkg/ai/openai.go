package ai

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"identivibe/pkg/config"
	errs "identivibe/pkg/errors"
	"identivibe/pkg/logger"
	"identivibe/pkg/models"
)

const systemPrompt = `You label social media users from their own words.
Given a user's comments and captions, respond with JSON only:
{"labels": ["..."], "summary": "..."}
labels: 3 to 6 short lowercase interest or tone tags.
summary: one sentence describing the user's vibe.`

// parse retries cover the occasional malformed completion even in JSON mode.
const maxParseAttempts = 3

// LLMAnnotator implements Annotator over any OpenAI-compatible chat API.
type LLMAnnotator struct {
	client llms.Model
	logger logger.Logger
}

// NewAnnotator creates an LLM-backed annotator. A blank token falls back to
// "none" for local OpenAI-compatible services that skip auth.
func NewAnnotator(cfg config.AIConfig, log logger.Logger) (*LLMAnnotator, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	token := cfg.Token
	if token == "" {
		token = "none"
	}

	client, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(token),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, err
	}

	return &LLMAnnotator{client: client, logger: log}, nil
}

// Annotate sends the bundle's texts to the model and parses its JSON reply.
func (a *LLMAnnotator) Annotate(ctx context.Context, bundle models.UserBundle) (*Annotation, error) {
	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(systemPrompt)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(bundleText(bundle))},
		},
	}

	var lastErr error
	for attempt := 0; attempt < maxParseAttempts; attempt++ {
		response, err := a.client.GenerateContent(ctx, content,
			llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			return nil, errs.New(errs.ErrorTypeTransport, 0, "annotation request failed: %v", err)
		}
		if len(response.Choices) == 0 {
			return nil, errs.New(errs.ErrorTypeParsing, 0, "model returned no choices")
		}

		text := strings.TrimSpace(response.Choices[0].Content)
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
		text = strings.TrimSpace(text)

		var annotation Annotation
		if err := json.Unmarshal([]byte(text), &annotation); err != nil {
			lastErr = err
			a.logger.WarnWithFields("malformed annotation response", map[string]interface{}{
				"username": bundle.Username,
				"attempt":  attempt + 1,
				"error":    err.Error(),
			})
			continue
		}
		return &annotation, nil
	}

	return nil, errs.New(errs.ErrorTypeParsing, 0,
		"failed to parse annotation after %d attempts: %v", maxParseAttempts, lastErr)
}

// bundleText flattens a bundle into the prompt body. Captions are set off
// from comments so the model can weigh self-presentation separately.
func bundleText(bundle models.UserBundle) string {
	var b strings.Builder
	b.WriteString("Comments:\n")
	for _, c := range bundle.Comments {
		b.WriteString("- ")
		b.WriteString(c)
		b.WriteString("\n")
	}
	if len(bundle.Captions) > 0 {
		b.WriteString("\nCaptions:\n")
		for _, c := range bundle.Captions {
			b.WriteString("- ")
			b.WriteString(c)
			b.WriteString("\n")
		}
	}
	return b.String()
}
