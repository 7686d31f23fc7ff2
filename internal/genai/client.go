// Package genai wraps the OpenAI API for moderation, summarization,
// categorization, and quote generation.
package genai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/quoted/internal/config"
	"github.com/fyrsmithlabs/quoted/internal/logging"
	"github.com/fyrsmithlabs/quoted/internal/quote"
)

// Client calls the OpenAI chat and moderation endpoints. When no API key is
// configured the client is disabled: moderation passes everything through
// with a warning and generation calls fail.
type Client struct {
	api             *openai.Client
	chatModel       string
	moderationModel string
	enabled         bool
	logger          *logging.Logger
}

// NewClient builds an OpenAI client from configuration.
func NewClient(cfg *config.OpenAIConfig, logger *logging.Logger) *Client {
	c := &Client{
		chatModel:       cfg.Model,
		moderationModel: cfg.ModerationModel,
		enabled:         cfg.APIKey != "",
		logger:          logger,
	}
	if c.enabled {
		c.api = openai.NewClient(cfg.APIKey)
	}
	return c
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.enabled
}

// Moderate checks the text against the moderation endpoint and reports
// whether it was flagged. With no API key configured, moderation is skipped
// and the text passes.
func (c *Client) Moderate(ctx context.Context, text string) (bool, error) {
	if !c.enabled {
		c.logger.Warn(ctx, "moderation skipped, no API key configured")
		return false, nil
	}

	resp, err := c.api.Moderations(ctx, openai.ModerationRequest{
		Model: c.moderationModel,
		Input: text,
	})
	if err != nil {
		return false, fmt.Errorf("moderation request failed: %w", err)
	}
	for _, result := range resp.Results {
		if result.Flagged {
			return true, nil
		}
	}
	return false, nil
}

func (c *Client) chat(ctx context.Context, system, user string) (string, error) {
	if !c.enabled {
		return "", fmt.Errorf("openai api key not configured")
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Summarize produces a short summary of the quote's meaning. The summary is
// stored alongside the quote and folded into its embedding text.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	system := "You summarize quotes. Respond with one or two sentences capturing the quote's meaning. Respond with the summary only."
	return c.chat(ctx, system, text)
}

// Categorize produces a free-text, comma-separated category list describing
// the quote's content. The categories feed the search index; they are not
// constrained to the tag vocabulary and never touch the quote's tags.
func (c *Client) Categorize(ctx context.Context, text string) (string, error) {
	system := "You help categorize quotes for people to search for later. " +
		"The user is going to give you a quote and your job is to list the most relevant categories for the quote, based on the content of the quote. " +
		"Do not include words about quotes in general; focus on what the content is about. " +
		"Return only the categories, comma separated. Do not include a preamble or introduction, just the categories."

	categories, err := c.chat(ctx, system, text)
	if err != nil {
		return "", err
	}
	if categories == "" {
		return "", fmt.Errorf("categorization returned no categories")
	}
	return categories, nil
}

// GenerateQuote asks the model for a new original quote in the style of the
// given inspirations, tagged from the allowed vocabulary.
func (c *Client) GenerateQuote(ctx context.Context, inspirations []quote.Scored, allowed []string) (string, []string, error) {
	var sb strings.Builder
	sb.WriteString("Write one new, original, short quote inspired by the style and themes of the examples below. ")
	sb.WriteString("Do not copy or closely paraphrase any example.\n\n")
	for _, insp := range inspirations {
		fmt.Fprintf(&sb, "- %q", insp.Text)
		if insp.Author != "" {
			fmt.Fprintf(&sb, " (%s)", insp.Author)
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "\nTag the quote with up to %d tags from this list: %s.\n", quote.MaxTags, strings.Join(allowed, ", "))
	sb.WriteString("Respond in exactly this format:\nQUOTE: <the quote>\nTAGS: <tag1, tag2, tag3>")

	system := "You are a thoughtful aphorist. Follow the response format exactly."
	raw, err := c.chat(ctx, system, sb.String())
	if err != nil {
		return "", nil, err
	}

	text, tags, err := ParseGenerated(raw)
	if err != nil {
		c.logger.Warn(ctx, "generated quote failed to parse", zap.String("raw", raw))
		return "", nil, err
	}
	return text, tags, nil
}
