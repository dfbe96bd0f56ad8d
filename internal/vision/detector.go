package vision

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

// Detector produces per-frame detections. The sidecar implementation
// is DetectorClient; tests substitute fakes.
type Detector interface {
	Detect(ctx context.Context, frame []byte) ([]shared.Detection, error)
}

// DetectorClient talks to the object-detection sidecar.
type DetectorClient struct {
	httpClient *http.Client
	baseURL    string
}

func NewDetectorClient(cfg DetectorConfig) *DetectorClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &DetectorClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.Address, "/"),
	}
}

type detectRequest struct {
	Image string `json:"image"`
}

type detectResponse struct {
	Detections []shared.Detection `json:"detections"`
	Error      string             `json:"error,omitempty"`
}

func (c *DetectorClient) Detect(ctx context.Context, frame []byte) ([]shared.Detection, error) {
	if len(frame) == 0 {
		return nil, fmt.Errorf("no frame data provided")
	}

	body, err := json.Marshal(detectRequest{
		Image: base64.StdEncoding.EncodeToString(frame),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal detect request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/detect", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create detect request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("detector request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("detector returned status %d", resp.StatusCode)
	}

	var out detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode detector response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("detector error: %s", out.Error)
	}
	return out.Detections, nil
}

// Ping checks sidecar reachability for readiness probes.
func (c *DetectorClient) Ping(ctx context.Context) error {
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
		return fmt.Errorf("detector health returned status %d", resp.StatusCode)
	}
	return nil
}
