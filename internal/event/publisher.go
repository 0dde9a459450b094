package event

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const channelPrefix = "board:"

// envelope is the wire form of a DomainEvent on the redis channel. Origin
// identifies the publishing process so the relay can drop its own echoes:
// local subscribers already received the event directly from the registry.
type envelope struct {
	Origin  string          `json:"origin"`
	Action  string          `json:"action"`
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// Publisher routes committed domain events to board topics: directly into
// the local registry, and through redis pub/sub for other server instances.
type Publisher struct {
	registry *Registry
	rdb      *redis.Client
	origin   string
}

func NewPublisher(registry *Registry, rdb *redis.Client) *Publisher {
	return &Publisher{
		registry: registry,
		rdb:      rdb,
		origin:   uuid.NewString(),
	}
}

// Publish fans the event out. Delivery is fire-and-forget: a redis failure
// is logged and does not fail the mutation that produced the event.
func (p *Publisher) Publish(ctx context.Context, ev DomainEvent) {
	p.registry.Publish(ev)

	if p.rdb == nil {
		return
	}
	data, err := json.Marshal(envelope{
		Origin:  p.origin,
		Action:  ev.Action,
		Kind:    ev.Kind,
		Payload: ev.Payload,
	})
	if err != nil {
		log.WithError(err).Error("marshal domain event")
		return
	}
	if err := p.rdb.Publish(ctx, channelPrefix+ev.Topic, data).Err(); err != nil {
		log.WithError(err).WithField("topic", ev.Topic).Error("publish domain event")
	}
}

// Relay feeds events published by other server instances into the local
// registry. It reconnects with a short pause if the redis subscription
// drops, and returns when the context is cancelled.
func (p *Publisher) Relay(ctx context.Context) {
	for {
		sub := p.rdb.PSubscribe(ctx, channelPrefix+"*")
		ch := sub.Channel()
		for msg := range ch {
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				log.WithError(err).Error("unable to parse relayed event")
				continue
			}
			if env.Origin == p.origin {
				continue
			}
			p.registry.Publish(DomainEvent{
				Topic:   strings.TrimPrefix(msg.Channel, channelPrefix),
				Action:  env.Action,
				Kind:    env.Kind,
				Payload: env.Payload,
			})
		}
		_ = sub.Close()
		if ctx.Err() != nil {
			return
		}
		log.Error("pubsub channel closed, reconnecting")
		time.Sleep(time.Second)
	}
}
