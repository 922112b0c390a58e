package lib

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWebhookDedupeWithoutRedis(t *testing.T) {
	t.Setenv("REDIS_HOST", "")
	NewRedisClient(nil)

	ctx := context.Background()
	assert.False(t, WebhookEventSeen(ctx, "evt_1"))

	// Marking is a no-op without a store; every delivery looks new and
	// the guarded booking updates keep replays safe.
	MarkWebhookEventProcessed(ctx, "evt_1")
	assert.False(t, WebhookEventSeen(ctx, "evt_1"))
}
