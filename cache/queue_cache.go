package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// QueueItem is one entry of a user's play queue.
type QueueItem struct {
	TrackID   string `json:"trackId"`
	Title     string `json:"title"`
	Artist    string `json:"artist,omitempty"`
	AudioURL  string `json:"audioUrl"`
	PosterURL string `json:"posterUrl,omitempty"`
	Position  int    `json:"position"`
	AddedAt   int64  `json:"addedAt,omitempty"`
}

// queueTTL bounds how long an idle queue survives.
const queueTTL = 24 * time.Hour

// QueueKey builds the Redis key of a user's play queue.
func QueueKey(userID string) string {
	return fmt.Sprintf("queue:%s", userID)
}

// AddToQueue appends an item to the user's play queue.
func AddToQueue(ctx context.Context, userID string, item QueueItem) error {
	if RedisClient == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	key := QueueKey(userID)

	items, err := GetQueue(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get current queue: %w", err)
	}

	maxPos := -1
	for _, existing := range items {
		if existing.Position > maxPos {
			maxPos = existing.Position
		}
	}
	item.Position = maxPos + 1
	item.AddedAt = time.Now().Unix()

	itemJSON, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal queue item: %w", err)
	}

	// Sorted set scored by position keeps the queue ordered.
	err = RedisClient.ZAdd(ctx, key, &redis.Z{
		Score:  float64(item.Position),
		Member: itemJSON,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to add track to queue: %w", err)
	}

	if err := RedisClient.Expire(ctx, key, queueTTL).Err(); err != nil {
		return fmt.Errorf("failed to set queue expiration: %w", err)
	}
	return nil
}

// GetQueue returns the user's play queue in order.
func GetQueue(ctx context.Context, userID string) ([]QueueItem, error) {
	if RedisClient == nil {
		return nil, fmt.Errorf("Redis client not initialized")
	}

	members, err := RedisClient.ZRange(ctx, QueueKey(userID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	items := make([]QueueItem, 0, len(members))
	for _, member := range members {
		var item QueueItem
		if err := json.Unmarshal([]byte(member), &item); err != nil {
			return nil, fmt.Errorf("failed to unmarshal queue item: %w", err)
		}
		items = append(items, item)
	}
	return items, nil
}

// RemoveFromQueue removes all entries for a track from the user's queue.
func RemoveFromQueue(ctx context.Context, userID, trackID string) error {
	if RedisClient == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	key := QueueKey(userID)

	items, err := GetQueue(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get queue: %w", err)
	}

	for _, item := range items {
		if item.TrackID != trackID {
			continue
		}
		itemJSON, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("failed to marshal queue item: %w", err)
		}
		if err := RedisClient.ZRem(ctx, key, itemJSON).Err(); err != nil {
			return fmt.Errorf("failed to remove track from queue: %w", err)
		}
	}
	return nil
}

// ClearQueue removes the user's play queue entirely.
func ClearQueue(ctx context.Context, userID string) error {
	if RedisClient == nil {
		return fmt.Errorf("Redis client not initialized")
	}
	if err := RedisClient.Del(ctx, QueueKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to clear queue: %w", err)
	}
	return nil
}
