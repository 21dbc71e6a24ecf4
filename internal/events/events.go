// Package events publishes committed wheel rotations to a Redis stream.
package events

import (
	"context"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// RotationEvent describes one committed rotation.
type RotationEvent struct {
	WheelID           string
	WheelSerialNumber string
	Station           string
	Sequence          int64
	PreviousPosition  int
	NewPosition       int
	RotationDate      time.Time
	NextRotationDue   *time.Time
	PerformedBy       string
}

// Publisher sends rotation events somewhere.
type Publisher interface {
	PublishRotation(ctx context.Context, ev RotationEvent) error
}

// Nop discards events.
type Nop struct{}

// PublishRotation does nothing.
func (Nop) PublishRotation(context.Context, RotationEvent) error { return nil }

// RedisPublisher appends events to a Redis stream with XADD.
type RedisPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewRedisPublisher creates a publisher for stream. maxLen caps the stream
// length approximately; zero leaves it unbounded.
func NewRedisPublisher(client *redis.Client, stream string, maxLen int64) *RedisPublisher {
	return &RedisPublisher{client: client, stream: stream, maxLen: maxLen}
}

// NewRedisClient connects to the event feed.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// Ping checks the Redis connection.
func Ping(ctx context.Context, client *redis.Client) error {
	return client.Ping(ctx).Err()
}

// PublishRotation adds ev to the stream and returns the XADD error, if any.
func (p *RedisPublisher) PublishRotation(ctx context.Context, ev RotationEvent) error {
	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: Fields(ev),
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}
	return p.client.XAdd(ctx, args).Err()
}

// Fields flattens ev into stream field values.
func Fields(ev RotationEvent) map[string]any {
	values := map[string]any{
		"type":              "wheel.rotated",
		"wheel_id":          ev.WheelID,
		"serial_number":     ev.WheelSerialNumber,
		"station":           ev.Station,
		"sequence":          strconv.FormatInt(ev.Sequence, 10),
		"previous_position": strconv.Itoa(ev.PreviousPosition),
		"new_position":      strconv.Itoa(ev.NewPosition),
		"rotation_date":     ev.RotationDate.UTC().Format(time.RFC3339),
		"performed_by":      ev.PerformedBy,
	}
	if ev.NextRotationDue != nil {
		values["next_rotation_due"] = ev.NextRotationDue.UTC().Format(time.RFC3339)
	}
	return values
}
