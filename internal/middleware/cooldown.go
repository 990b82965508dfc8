package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/usherbot/usher/internal/domain"
)

// Cooldown returns a before-handler that throttles each chat/sender pair to
// one command per window. The claim is a redis SETNX so multiple bot
// processes share the same cooldown. Redis failures fail open: a broken cache
// must not take the bot down with it.
func Cooldown(client *redis.Client, window time.Duration, logger *zap.Logger) BeforeFunc {
	return func(ctx context.Context, c *domain.Context) (any, error) {
		key := fmt.Sprintf("usher:cooldown:%s:%s", c.Msg.Chat, c.Msg.Sender)

		acquired, err := client.SetNX(ctx, key, 1, window).Result()
		if err != nil {
			logger.Warn("Cooldown check failed, allowing message",
				zap.String("key", key),
				zap.Error(err),
			)
			return nil, nil
		}

		if !acquired {
			logger.Debug("Message throttled",
				zap.String("chat", c.Msg.Chat),
				zap.String("sender", c.Msg.Sender),
			)
			return "Slow down! Try again in a moment.", nil
		}

		return nil, nil
	}
}
