package vision

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sightline-labs/sightline/internal/shared"
)

const frameKey = "camera:frames"

// FrameStore keeps a short sliding window of camera frames in redis,
// scored by capture timestamp. The key expires when capture stops.
type FrameStore struct {
	redis    *redis.Client
	frameTTL time.Duration
	window   int64
}

func NewFrameStore(redisClient *redis.Client, frameTTL time.Duration) *FrameStore {
	if frameTTL == 0 {
		frameTTL = 60 * time.Second
	}
	return &FrameStore{
		redis:    redisClient,
		frameTTL: frameTTL,
		window:   100,
	}
}

func (s *FrameStore) Put(ctx context.Context, frame *Frame) error {
	if frame.Timestamp == 0 {
		frame.Timestamp = time.Now().UnixMilli()
	}
	member := redis.Z{
		Score:  float64(frame.Timestamp),
		Member: frame.Data,
	}

	pipe := s.redis.Pipeline()
	pipe.ZAdd(ctx, frameKey, member)
	pipe.ZRemRangeByRank(ctx, frameKey, 0, -(s.window + 1))
	pipe.Expire(ctx, frameKey, s.frameTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// Latest returns the newest frame in the window, ErrNotFound when the
// window is empty.
func (s *FrameStore) Latest(ctx context.Context) (*Frame, error) {
	results, err := s.redis.ZRevRangeWithScores(ctx, frameKey, 0, 0).Result()
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, shared.ErrNotFound
	}

	data, ok := results[0].Member.(string)
	if !ok {
		return nil, fmt.Errorf("invalid frame member type %T", results[0].Member)
	}

	return &Frame{
		Timestamp: int64(results[0].Score),
		Data:      []byte(data),
	}, nil
}

func (s *FrameStore) Clear(ctx context.Context) error {
	return s.redis.Del(ctx, frameKey).Err()
}
