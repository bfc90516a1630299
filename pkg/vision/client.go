package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"stocktake-service/pkg/config"

	"go.uber.org/zap"
)

// Client calls the optional image-understanding collaborator that turns a
// product photo into best-effort attribute suggestions. Suggestions only
// prefill a draft; they are never authoritative and go through the same
// validation as hand-typed values.
type Client struct {
	Endpoint   string
	APIKey     string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Suggestion is the best-effort attribute set extracted from a photo. Every
// field may be absent.
type Suggestion struct {
	Name     *string  `json:"name,omitempty"`
	Flavor   *string  `json:"flavor,omitempty"`
	Size     *string  `json:"size,omitempty"`
	Nicotine *float64 `json:"nicotine,omitempty"`
}

type extractRequest struct {
	ImageBase64 string `json:"image_base64"`
}

// NewClient creates a vision client from configuration. It returns nil when
// no endpoint is configured; the autofill feature is simply off in that case.
func NewClient(cfg *config.VisionConfig, logger *zap.Logger) *Client {
	if cfg.Endpoint == "" {
		return nil
	}
	return &Client{
		Endpoint:   cfg.Endpoint,
		APIKey:     cfg.APIKey,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
		Logger:     logger,
	}
}

// Extract posts an encoded photo to the extraction endpoint and returns the
// attribute suggestions it produced.
func (c *Client) Extract(ctx context.Context, imageBase64 string) (*Suggestion, error) {
	c.Logger.Info("Requesting product attribute extraction",
		zap.Int("image_bytes", len(imageBase64)))

	payload, err := json.Marshal(extractRequest{ImageBase64: imageBase64})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.Logger.Error("Extraction request failed", zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.Logger.Error("Failed to read extraction response", zap.Error(err))
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		c.Logger.Error("Extraction endpoint returned an error",
			zap.Int("status_code", resp.StatusCode),
			zap.String("response", string(body)))
		return nil, fmt.Errorf("extraction failed: %d %s", resp.StatusCode, string(body))
	}

	var suggestion Suggestion
	if err := json.Unmarshal(body, &suggestion); err != nil {
		c.Logger.Error("Failed to parse extraction response", zap.Error(err))
		return nil, err
	}

	c.Logger.Info("Extraction suggestions received",
		zap.Bool("has_name", suggestion.Name != nil),
		zap.Bool("has_flavor", suggestion.Flavor != nil),
		zap.Bool("has_size", suggestion.Size != nil),
		zap.Bool("has_nicotine", suggestion.Nicotine != nil))

	return &suggestion, nil
}
