package realtime

import (
	"context"
	"encoding/json"

	"github.com/devboardui/devboard/util"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const redisEventsChannel = "devboard:events"

// redisEnvelope tags each relayed event with the publishing node so a node
// can skip its own messages.
type redisEnvelope struct {
	Node  string `json:"node"`
	Event Event  `json:"event"`
}

// RedisEventBridge relays events through a Redis Pub/Sub channel. It keeps
// no state beyond the subscription; ordering across nodes follows Redis
// delivery order.
type RedisEventBridge struct {
	client *redis.Client
	nodeID string

	cancelListen context.CancelFunc
}

func NewRedisEventBridge(config util.RedisConfig) *RedisEventBridge {
	addr := config.Addr
	if addr == "" {
		addr = "127.0.0.1:6379"
	}

	return &RedisEventBridge{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Username: config.User,
			Password: config.Pass,
			DB:       config.DB,
		}),
		nodeID: uuid.NewString(),
	}
}

func (b *RedisEventBridge) Start(handler func(Event)) error {
	ctx, cancel := context.WithCancel(context.Background())
	b.cancelListen = cancel

	pubsub := b.client.Subscribe(ctx, redisEventsChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		cancel()
		return err
	}

	go func() {
		for {
			msg, err := pubsub.ReceiveMessage(ctx)
			if err != nil {
				return
			}
			var envelope redisEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
				log.WithError(err).Warn("redis bridge: malformed event")
				continue
			}
			if envelope.Node == b.nodeID {
				continue
			}
			handler(envelope.Event)
		}
	}()

	return nil
}

func (b *RedisEventBridge) Forward(ev Event) {
	payload, err := json.Marshal(redisEnvelope{Node: b.nodeID, Event: ev})
	if err != nil {
		return
	}
	if err := b.client.Publish(context.Background(), redisEventsChannel, payload).Err(); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"project": ev.ProjectID,
			"context": "redis_bridge",
		}).Error("redis publish failed")
	}
}

func (b *RedisEventBridge) Close() error {
	if b.cancelListen != nil {
		b.cancelListen()
	}
	return b.client.Close()
}
