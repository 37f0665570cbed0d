package remote

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	"pkt.systems/pslog"
)

// DefaultModel is the text model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// GeminiConfig configures the Gemini client.
type GeminiConfig struct {
	APIKey string
	Model  string
	Logger pslog.Logger
}

// GeminiClient implements Generator on the Gemini API. The underlying client
// is created on first use.
type GeminiClient struct {
	apiKey string
	model  string
	log    pslog.Logger

	mu     sync.Mutex
	client *genai.Client
}

// NewGemini constructs a client. An empty key yields a client whose Ready
// reports ErrNoCredential.
func NewGemini(cfg GeminiConfig) *GeminiClient {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	log := cfg.Logger
	if log == nil {
		log = pslog.Ctx(context.Background())
	}
	return &GeminiClient{
		apiKey: strings.TrimSpace(cfg.APIKey),
		model:  model,
		log:    log,
	}
}

// Model returns the configured model name.
func (c *GeminiClient) Model() string {
	return c.model
}

// Ready implements Generator.
func (c *GeminiClient) Ready() error {
	if c == nil || c.apiKey == "" {
		return ErrNoCredential
	}
	return nil
}

func (c *GeminiClient) getClient(ctx context.Context) (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return c.client, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  c.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	c.client = client
	return client, nil
}

// GenerateText implements Generator.
func (c *GeminiClient) GenerateText(ctx context.Context, prompt string, hint FormatHint) (string, error) {
	if err := c.Ready(); err != nil {
		return "", err
	}
	if strings.TrimSpace(prompt) == "" {
		return "", errors.New("empty prompt")
	}
	client, err := c.getClient(ctx)
	if err != nil {
		return "", err
	}
	var config *genai.GenerateContentConfig
	if hint != FormatText {
		config = &genai.GenerateContentConfig{ResponseMIMEType: string(hint)}
	}
	c.log.Debug("remote generate start", "model", c.model, "prompt_len", len(prompt), "format", string(hint))
	result, err := client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), config)
	if err != nil {
		c.log.Warn("remote generate failed", "model", c.model, "err", err)
		return "", fmt.Errorf("generate content: %w", err)
	}
	text := result.Text()
	c.log.Debug("remote generate finished", "model", c.model, "text_len", len(text))
	return text, nil
}
