package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/edirooss/nvr-server/internal/recording"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type fakePublisher struct {
	channel string
	message []byte
	err     error
}

func (f *fakePublisher) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	f.channel = channel
	f.message, _ = message.([]byte)
	cmd := redis.NewIntCmd(ctx, "publish", channel, message)
	if f.err != nil {
		cmd.SetErr(f.err)
	} else {
		cmd.SetVal(1)
	}
	return cmd
}

func TestSegmentPublisher(t *testing.T) {
	fp := &fakePublisher{}
	p := NewSegmentPublisher(zap.NewNop(), fp)

	start := time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC)
	seg := recording.Segment{CameraID: "cam1", Filename: "2024-03-09T14-05-00.mp4", Start: start, End: start.Add(time.Minute)}
	p.OnSegmentCompleted(context.Background(), seg)

	if fp.channel != "nvr:segments:cam1" {
		t.Fatalf("channel = %q", fp.channel)
	}
	var got recording.Segment
	if err := json.Unmarshal(fp.message, &got); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if got.Filename != seg.Filename || !got.Start.Equal(seg.Start) {
		t.Fatalf("payload = %+v", got)
	}
}

func TestSegmentPublisher_errorIsSwallowed(t *testing.T) {
	fp := &fakePublisher{err: errors.New("connection refused")}
	p := NewSegmentPublisher(zap.NewNop(), fp)
	p.OnSegmentCompleted(context.Background(), recording.Segment{CameraID: "cam1"})

	var _ recording.Hook = p
}

func TestClientOptions(t *testing.T) {
	opts, err := clientOptions("10.0.0.5:6379", 2)
	if err != nil {
		t.Fatal(err)
	}
	if opts.Addr != "10.0.0.5:6379" || opts.DB != 2 {
		t.Fatalf("host:port options = %s db %d", opts.Addr, opts.DB)
	}

	opts, err = clientOptions("redis://:pw@cache:6380/5", 2)
	if err != nil {
		t.Fatal(err)
	}
	if opts.Addr != "cache:6380" || opts.DB != 5 || opts.Password != "pw" {
		t.Fatalf("url options = %s db %d", opts.Addr, opts.DB)
	}

	if _, err := clientOptions("redis://cache/notadb", 0); err == nil {
		t.Fatal("bad url accepted")
	}
	if _, err := clientOptions("", 0); err == nil {
		t.Fatal("empty address accepted")
	}
}
