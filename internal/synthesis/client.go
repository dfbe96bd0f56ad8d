// Package synthesis speaks through a local TTS sidecar. The sidecar
// owns the audio device; this client blocks for the duration of one
// utterance and aborts playback when the request context is canceled.
package synthesis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	voice      string
	rate       float64
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		// Long utterances play in real time; the timeout bounds a
		// wedged sidecar, not normal speech.
		timeout = 60 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.Address,
		voice:      cfg.Voice,
		rate:       cfg.Rate,
	}
}

// Speak synthesizes and plays one utterance, returning once the
// sidecar reports playback finished.
func (c *Client) Speak(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}

	body, err := json.Marshal(speakRequest{
		Text:  text,
		Voice: c.voice,
		Rate:  c.rate,
	})
	if err != nil {
		return fmt.Errorf("encode speak request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/speak", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build speak request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("speak request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tts sidecar returned status %d", resp.StatusCode)
	}

	var out speakResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("decode speak response: %w", err)
	}
	if out.Error != "" {
		return fmt.Errorf("tts sidecar: %s", out.Error)
	}

	return nil
}

// Ping checks the sidecar's health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tts sidecar health returned status %d", resp.StatusCode)
	}
	return nil
}
