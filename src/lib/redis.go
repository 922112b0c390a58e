package lib

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

func GetRedisClient() *redis.Client {
	if redisClient != nil {
		return redisClient
	}
	redisHost := os.Getenv("REDIS_HOST")
	opt, err := redis.ParseURL(redisHost)
	if err != nil {
		log.Printf("[redis] Error parsing connection string: %s\n", err.Error())
		return nil
	}
	rdb := redis.NewClient(opt)
	redisClient = rdb
	return rdb
}

// NewRedisClient Replace redis instance with custom client implementation
func NewRedisClient(c *redis.Client) *redis.Client {
	redisClient = c
	return redisClient
}

const webhookEventTTL = 24 * time.Hour

func webhookEventKey(eventID string) string {
	return fmt.Sprintf("webhook:events:%s", eventID)
}

// WebhookEventSeen reports whether a provider event id has already been
// processed. Best-effort: when redis is unavailable every event looks
// new and the state-guarded writes in the payment flow take over.
func WebhookEventSeen(ctx context.Context, eventID string) bool {
	rdb := GetRedisClient()
	if rdb == nil {
		return false
	}
	n, err := rdb.Exists(ctx, webhookEventKey(eventID)).Result()
	if err != nil {
		log.Printf("[redis] Error checking webhook event [%s]: %s\n", eventID, err.Error())
		return false
	}
	return n > 0
}

// MarkWebhookEventProcessed records an event id once its side effects
// have been applied. Marking afterwards keeps redeliveries useful when
// a handler hits a transient failure.
func MarkWebhookEventProcessed(ctx context.Context, eventID string) {
	rdb := GetRedisClient()
	if rdb == nil {
		return
	}
	if err := rdb.SetNX(ctx, webhookEventKey(eventID), 1, webhookEventTTL).Err(); err != nil {
		log.Printf("[redis] Error recording webhook event [%s]: %s\n", eventID, err.Error())
	}
}
