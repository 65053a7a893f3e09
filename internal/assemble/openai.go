// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package assemble

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/pdiddy/daily-analyst/pkg/types"
)

const systemPrompt = `You are a news editor writing a daily AI-industry briefing.
Given one story (headline, excerpt, sources), write a neutral two-to-four
sentence summary of what happened and why it matters.

Rules:
- Facts only: keep names, numbers, dates as given
- No urgency words, no ALL CAPS, no editorializing
- Do not invent details absent from the input
- Output plain text only, no JSON, no Markdown headings`

// OpenAISummarizer implements Summarizer on the OpenAI chat completions API.
type OpenAISummarizer struct {
	client *openai.Client
	model  openai.ChatModel
}

// NewOpenAISummarizer builds a summarizer for the configured model
// (default gpt-4o-mini).
func NewOpenAISummarizer(cfg types.SummaryConfig) *OpenAISummarizer {
	client := openai.NewClient(option.WithAPIKey(cfg.APIKey))
	model := openai.ChatModel(cfg.Model)
	if cfg.Model == "" {
		model = openai.ChatModelGPT4oMini
	}
	return &OpenAISummarizer{client: &client, model: model}
}

// Summarize asks the model for a summary of one record. Failures are
// classified transient so the orchestrator may retry; an empty response is
// reported as-is and left to the assembler's partial-failure handling.
func (s *OpenAISummarizer) Summarize(ctx context.Context, rec types.NormalizedRecord) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Headline: %s\n", rec.Title)
	if rec.BodyExcerpt != "" {
		fmt.Fprintf(&b, "Excerpt: %s\n", rec.BodyExcerpt)
	}
	fmt.Fprintf(&b, "Sources: %s\n", strings.Join(rec.SourceURLs, ", "))

	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: s.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(b.String()),
		},
	})
	if err != nil {
		// The SDK retries some cases itself; anything surfacing here is
		// worth one more round at the orchestrator's discretion.
		return "", types.TransientError("openai", err)
	}
	if len(resp.Choices) == 0 {
		return "", types.TransientError("openai", fmt.Errorf("no choices in response"))
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
