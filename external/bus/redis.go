package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lingoroom/captiond/internal/bus"
	"github.com/redis/go-redis/v9"
)

const (
	dispatchQueueKey     = "captiond:dispatch:messages"
	roomUpdateChannelFmt = "captiond:room:%s:updates"
)

type RedisBus struct {
	client *redis.Client
}

func NewRedisBus(redisURL string) (*RedisBus, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return &RedisBus{client: redis.NewClient(opts)}, nil
}

func (b *RedisBus) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func (b *RedisBus) Enqueue(ctx context.Context, item bus.QueueItem) error {
	payload, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal queue item: %w", err)
	}
	if err := b.client.LPush(ctx, dispatchQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("enqueue dispatch item: %w", err)
	}
	return nil
}

func (b *RedisBus) Dequeue(ctx context.Context, timeout time.Duration) (*bus.QueueItem, error) {
	reply, err := b.client.BRPop(ctx, timeout, dispatchQueueKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("dequeue dispatch item: %w", err)
	}
	if len(reply) != 2 {
		return nil, fmt.Errorf("unexpected BRPOP reply length %d", len(reply))
	}

	var item bus.QueueItem
	if err := json.Unmarshal([]byte(reply[1]), &item); err != nil {
		return nil, fmt.Errorf("decode queue item: %w", err)
	}
	if item.MessageID == "" || item.RoomID == "" {
		return nil, fmt.Errorf("queue item missing messageId or roomId")
	}
	return &item, nil
}

func (b *RedisBus) PublishRoomUpdate(ctx context.Context, roomID string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal room update: %w", err)
	}
	channel := fmt.Sprintf(roomUpdateChannelFmt, roomID)
	if err := b.client.Publish(ctx, channel, body).Err(); err != nil {
		return fmt.Errorf("publish room update: %w", err)
	}
	return nil
}

func (b *RedisBus) Close() error {
	return b.client.Close()
}
