package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/edirooss/nvr-server/internal/recording"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var segmentChannelPrefix = "nvr:segments:"

// SegmentChannel is the pub/sub channel completed segments of a camera are
// announced on.
func SegmentChannel(cameraID string) string {
	return segmentChannelPrefix + cameraID
}

type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// SegmentPublisher announces completed segments over Redis pub/sub.
// It implements recording.Hook; failures are logged and never block the
// segment reader for longer than the publish timeout.
type SegmentPublisher struct {
	client  publisher
	log     *zap.Logger
	timeout time.Duration
}

func NewSegmentPublisher(log *zap.Logger, client publisher) *SegmentPublisher {
	return &SegmentPublisher{
		client:  client,
		log:     log.Named("segment_publisher"),
		timeout: 2 * time.Second,
	}
}

func (p *SegmentPublisher) OnSegmentCompleted(ctx context.Context, s recording.Segment) {
	b, err := json.Marshal(s)
	if err != nil {
		p.log.Error("marshal segment", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	channel := SegmentChannel(s.CameraID)
	if err := p.client.Publish(ctx, channel, b).Err(); err != nil {
		p.log.Warn("publish failed",
			zap.String("channel", channel),
			zap.String("file", s.Filename),
			zap.Error(err))
	}
}
