// Package gemini provides the model handle used to reach Google's Gemini
// models.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

const (
	DefaultModel = "gemini-2.5-flash"
	providerName = "gemini"
)

// Client wraps a genai.Client bound to a single model.
type Client struct {
	genaiClient *genai.Client
	modelName   string
	log         zerolog.Logger
}

// NewClient creates a Gemini handle for apiKey. An empty modelOverride
// selects DefaultModel. No request is sent until Generate is called.
func NewClient(ctx context.Context, apiKey string, modelOverride string, logger zerolog.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	genaiClient, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	modelToUse := DefaultModel
	if modelOverride != "" {
		modelToUse = modelOverride
	}
	logger.Debug().Str("provider", providerName).Str("model", modelToUse).Msg("gemini client ready")

	return &Client{
		genaiClient: genaiClient,
		modelName:   modelToUse,
		log:         logger,
	}, nil
}

// Generate sends instruction as the sole content of one GenerateContent
// call and returns the concatenated text of the first candidate.
func (c *Client) Generate(ctx context.Context, instruction string) (string, error) {
	if c.genaiClient == nil {
		return "", fmt.Errorf("Gemini client not initialized")
	}

	model := c.genaiClient.GenerativeModel(c.modelName)
	if model == nil {
		return "", fmt.Errorf("failed to get generative model: %s", c.modelName)
	}

	resp, err := model.GenerateContent(ctx, genai.Text(instruction))
	if err != nil {
		return "", fmt.Errorf("failed to generate content from Gemini: %w", err)
	}

	return textFromResponse(resp, c.log)
}

// textFromResponse joins the text parts of the first candidate. Blocked or
// empty responses are reported as errors.
func textFromResponse(resp *genai.GenerateContentResponse, logger zerolog.Logger) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("Gemini response was empty or malformed")
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
			return "", fmt.Errorf("Gemini content generation blocked due to safety settings")
		}
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
			return "", fmt.Errorf("Gemini prompt blocked: %s", resp.PromptFeedback.BlockReason.String())
		}
		return "", fmt.Errorf("Gemini response was empty or malformed")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		} else {
			logger.Debug().Str("part", fmt.Sprintf("%T", part)).Msg("ignoring non-text part")
		}
	}

	if sb.Len() == 0 {
		return "", fmt.Errorf("Gemini response contained no usable text content")
	}
	return sb.String(), nil
}

// ProviderName returns the name of this provider.
func (c *Client) ProviderName() string {
	return providerName
}

// Model returns the model identifier requests are sent to.
func (c *Client) Model() string {
	return c.modelName
}

// Close releases the underlying genai client.
func (c *Client) Close() error {
	if c.genaiClient != nil {
		return c.genaiClient.Close()
	}
	return nil
}
