package memory

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sightline-labs/sightline/internal/shared"
)

type ExtractorConfig struct {
	Address string
	Timeout time.Duration
}

// ExtractorClient talks to the feature-extraction sidecar. The
// sidecar crops the frame to the box and returns either an embedding
// or a keypoint set, depending on the model it loaded.
type ExtractorClient struct {
	httpClient *http.Client
	baseURL    string
}

func NewExtractorClient(cfg ExtractorConfig) *ExtractorClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &ExtractorClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.Address, "/"),
	}
}

type extractRequest struct {
	Image string             `json:"image"`
	Box   shared.BoundingBox `json:"box"`
}

type extractResponse struct {
	Features FeatureSet `json:"features"`
	Error    string     `json:"error,omitempty"`
}

func (c *ExtractorClient) Extract(ctx context.Context, frame []byte, box shared.BoundingBox) (FeatureSet, error) {
	if len(frame) == 0 {
		return FeatureSet{}, fmt.Errorf("no frame data provided")
	}

	body, err := json.Marshal(extractRequest{
		Image: base64.StdEncoding.EncodeToString(frame),
		Box:   box,
	})
	if err != nil {
		return FeatureSet{}, fmt.Errorf("marshal extract request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/extract", bytes.NewReader(body))
	if err != nil {
		return FeatureSet{}, fmt.Errorf("create extract request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return FeatureSet{}, fmt.Errorf("extractor request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return FeatureSet{}, fmt.Errorf("extractor returned status %d", resp.StatusCode)
	}

	var out extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return FeatureSet{}, fmt.Errorf("decode extractor response: %w", err)
	}
	if out.Error != "" {
		return FeatureSet{}, fmt.Errorf("extractor error: %s", out.Error)
	}
	return out.Features, nil
}

// Ping checks sidecar reachability for readiness probes.
func (c *ExtractorClient) Ping(ctx context.Context) error {
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
		return fmt.Errorf("extractor health returned status %d", resp.StatusCode)
	}
	return nil
}
