package repository

import (
	"context"
	"encoding/json"
	"strings"

	"owner_chat_service/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const userChannelPrefix = "chat:user:"

// relayEnvelope what travels between instances on chat:user:<id>
type relayEnvelope struct {
	Origin  string          `json:"origin"`
	UserID  string          `json:"userID"`
	Payload json.RawMessage `json:"payload"`
}

// RedisRelay forwards user-routed events to the other service instances over redis pub/sub
type RedisRelay struct {
	client     *redis.Client
	instanceID string
}

// NewRedisRelay create RedisRelay, instanceID tags every published event
func NewRedisRelay(client *redis.Client, instanceID string) *RedisRelay {
	return &RedisRelay{
		client:     client,
		instanceID: instanceID,
	}
}

// Publish 將已編碼的 event 發布到 chat:user:<userID>
func (r *RedisRelay) Publish(ctx context.Context, userID string, payload []byte) error {
	data, err := json.Marshal(relayEnvelope{Origin: r.instanceID, UserID: userID, Payload: payload})
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, userChannelPrefix+userID, data).Err()
}

// Run 訂閱 chat:user:*, hands events from other instances to deliver until ctx is done
func (r *RedisRelay) Run(ctx context.Context, deliver func(userID string, payload []byte)) {
	sub := r.client.PSubscribe(ctx, userChannelPrefix+"*")
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case m, ok := <-ch:
			if !ok {
				return
			}

			var env relayEnvelope
			if err := json.Unmarshal([]byte(m.Payload), &env); err != nil {
				logger.Log.Warn("relay: bad envelope", zap.String("channel", m.Channel), zap.Error(err))
				continue
			}
			if env.Origin == r.instanceID {
				continue
			}
			userID := env.UserID
			if userID == "" {
				userID = strings.TrimPrefix(m.Channel, userChannelPrefix)
			}
			deliver(userID, env.Payload)
		case <-ctx.Done():
			logger.Log.Info("relay subscription closed")
			return
		}
	}
}
