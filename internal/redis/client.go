package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const probeTimeout = 500 * time.Millisecond

// Client is the connection segment announcements go out on.
type Client struct {
	*redis.Client
	log *zap.Logger
}

// NewClient builds a client for addr, which is either host:port or a
// redis:// (rediss://) URL. db is ignored for URLs, which carry their own.
// The server is probed once; an unreachable server is logged, not returned,
// since go-redis dials again on every publish.
func NewClient(addr string, db int, log *zap.Logger) (*Client, error) {
	opts, err := clientOptions(addr, db)
	if err != nil {
		return nil, err
	}

	client := &Client{
		Client: redis.NewClient(opts),
		log:    log.Named("redis").With(zap.String("addr", opts.Addr), zap.Int("db", opts.DB)),
	}

	if rtt, err := client.Probe(context.Background()); err != nil {
		client.log.Warn("redis unreachable; segment announcements will be retried per publish", zap.Error(err))
	} else {
		client.log.Info("redis connected", zap.Duration("ping_rtt", rtt))
	}
	return client, nil
}

func clientOptions(addr string, db int) (*redis.Options, error) {
	if strings.Contains(addr, "://") {
		opts, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("redis address: %w", err)
		}
		opts.MaxRetries = 1
		return opts, nil
	}

	if addr == "" {
		return nil, fmt.Errorf("redis address is empty")
	}
	return &redis.Options{
		Addr:         addr,
		DB:           db,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		PoolSize:     4, // one publisher per camera at most, segments are minutes apart
		MaxRetries:   1,
	}, nil
}

// Probe pings the server with a short timeout and returns the round trip.
func (c *Client) Probe(ctx context.Context) (time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	start := time.Now()
	err := c.Ping(ctx).Err()
	return time.Since(start), err
}

func (c *Client) Close() error {
	if err := c.Client.Close(); err != nil {
		return fmt.Errorf("close redis: %w", err)
	}
	return nil
}
