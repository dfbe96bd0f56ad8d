package vision

import "time"

// Frame is one captured camera image, encoded (jpeg/png/webp).
type Frame struct {
	Timestamp int64  `json:"timestamp"`
	Data      []byte `json:"-"`
}

type DetectorConfig struct {
	Address string
	Timeout time.Duration
}
