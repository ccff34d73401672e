package subscriber

import (
	"context"
	"time"

	"github.com/campusline/platform/shared/logger"
	"github.com/redis/go-redis/v9"
)

const (
	welcomeSentKeyPrefix = "notification:welcome:sent:"
	welcomeSentTTL       = 72 * time.Hour
)

// RedisDeliveryLog remembers which users already got a welcome email so a
// redelivered user.registered event does not send a second one.
type RedisDeliveryLog struct {
	redis redis.Cmdable
	log   logger.Logger
}

func NewRedisDeliveryLog(client redis.Cmdable, log logger.Logger) *RedisDeliveryLog {
	return &RedisDeliveryLog{redis: client, log: log}
}

// AlreadySent reports false when Redis cannot be read.
func (r *RedisDeliveryLog) AlreadySent(ctx context.Context, userID string) bool {
	n, err := r.redis.Exists(ctx, welcomeSentKeyPrefix+userID).Result()
	return err == nil && n > 0
}

func (r *RedisDeliveryLog) MarkSent(ctx context.Context, userID string) {
	if err := r.redis.Set(ctx, welcomeSentKeyPrefix+userID, "1", welcomeSentTTL).Err(); err != nil {
		r.log.Warn("failed to record welcome email delivery", logger.Fields{"userId": userID, "error": err})
	}
}
