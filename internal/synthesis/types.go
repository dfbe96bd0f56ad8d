package synthesis

import "time"

type Config struct {
	Address string
	Voice   string
	Rate    float64
	Timeout time.Duration
}

type speakRequest struct {
	Text  string  `json:"text"`
	Voice string  `json:"voice,omitempty"`
	Rate  float64 `json:"rate,omitempty"`
}

type speakResponse struct {
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}
