package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Composer turns a prompt into email copy through a text generation API.
// When the API is unconfigured or misbehaves the caller's fallback text is
// used instead, so notification delivery never depends on the generator.
type Composer struct {
	apiURL  string
	apiKey  string
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

type ComposerConfig struct {
	APIURL  string
	APIKey  string
	Model   string
	Timeout time.Duration
}

func NewComposer(config ComposerConfig, logger *slog.Logger) *Composer {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Composer{
		apiURL:  config.APIURL,
		apiKey:  config.APIKey,
		model:   config.Model,
		timeout: timeout,
		logger:  logger,
	}
}

// Compose asks the generator for email copy. The fallback is returned
// whenever the generator cannot answer.
func (c *Composer) Compose(ctx context.Context, prompt, fallback string) string {
	if c.apiURL == "" || c.apiKey == "" {
		return fallback
	}

	body, err := c.generate(ctx, prompt)
	if err != nil {
		c.logger.Warn("composer: text generation failed, using fallback", "error", err)
		return fallback
	}

	body = strings.TrimSpace(body)
	if body == "" {
		return fallback
	}
	return body
}

func (c *Composer) generate(ctx context.Context, prompt string) (string, error) {
	payload := map[string]interface{}{
		"model": c.model,
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]string{
					{"text": prompt},
				},
			},
		},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal generation request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/models/%s:generateContent", c.apiURL, c.model)
	req, err := http.NewRequestWithContext(reqCtx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create generation request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	client := &http.Client{Timeout: c.timeout}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("generation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("generation API returned status %d", resp.StatusCode)
	}

	var apiResponse struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return "", fmt.Errorf("failed to decode generation response: %w", err)
	}

	if len(apiResponse.Candidates) == 0 || len(apiResponse.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("generation response contained no candidates")
	}

	return apiResponse.Candidates[0].Content.Parts[0].Text, nil
}
