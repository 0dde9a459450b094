package event_test

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"retroboard/internal/event"

	"github.com/stretchr/testify/assert"
)

func payload(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	assert.NoError(t, err)
	return data
}

func TestRegistry_DeliversInPublishOrder(t *testing.T) {
	registry := event.NewRegistry()
	ch := registry.Subscribe("sprint-7")
	defer registry.Unsubscribe("sprint-7", ch)

	for i := 0; i < 5; i++ {
		registry.Publish(event.DomainEvent{
			Topic:   "sprint-7",
			Action:  event.ActionAdded,
			Kind:    event.KindCard,
			Payload: payload(t, map[string]int{"seq": i}),
		})
	}

	for i := 0; i < 5; i++ {
		ev := <-ch
		var got map[string]int
		assert.NoError(t, json.Unmarshal(ev.Payload, &got))
		assert.Equal(t, i, got["seq"])
	}
}

func TestRegistry_NoReplayForLateSubscribers(t *testing.T) {
	registry := event.NewRegistry()

	registry.Publish(event.DomainEvent{Topic: "sprint-7", Action: event.ActionAdded, Kind: event.KindCard})

	ch := registry.Subscribe("sprint-7")
	defer registry.Unsubscribe("sprint-7", ch)

	select {
	case <-ch:
		t.Fatal("late subscriber must not see earlier events")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRegistry_TopicScoping(t *testing.T) {
	registry := event.NewRegistry()
	sprintCh := registry.Subscribe("sprint-7")
	otherCh := registry.Subscribe("sprint-8")
	defer registry.Unsubscribe("sprint-7", sprintCh)
	defer registry.Unsubscribe("sprint-8", otherCh)

	registry.Publish(event.DomainEvent{Topic: "sprint-7", Action: event.ActionUpdated, Kind: event.KindCard})

	ev := <-sprintCh
	assert.Equal(t, "sprint-7", ev.Topic)

	select {
	case <-otherCh:
		t.Fatal("event leaked to another topic")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRegistry_UnsubscribeStopsDelivery(t *testing.T) {
	registry := event.NewRegistry()
	ch := registry.Subscribe("sprint-7")

	registry.Unsubscribe("sprint-7", ch)
	assert.Equal(t, 0, registry.Subscribers("sprint-7"))

	// Channel is closed; publishing afterwards must not panic.
	registry.Publish(event.DomainEvent{Topic: "sprint-7", Action: event.ActionDestroyed, Kind: event.KindCard})

	_, open := <-ch
	assert.False(t, open)
}

func TestRegistry_FanOutToAllSubscribers(t *testing.T) {
	registry := event.NewRegistry()
	first := registry.Subscribe("sprint-7")
	second := registry.Subscribe("sprint-7")
	defer registry.Unsubscribe("sprint-7", first)
	defer registry.Unsubscribe("sprint-7", second)

	registry.Publish(event.DomainEvent{Topic: "sprint-7", Action: event.ActionAdded, Kind: event.KindComment})

	assert.Equal(t, event.KindComment, (<-first).Kind)
	assert.Equal(t, event.KindComment, (<-second).Kind)
}

func TestRegistry_ConcurrentAttachDetachPublish(t *testing.T) {
	registry := event.NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			topic := fmt.Sprintf("board-%d", n%2)
			for j := 0; j < 100; j++ {
				ch := registry.Subscribe(topic)
				registry.Publish(event.DomainEvent{Topic: topic, Action: event.ActionUpdated, Kind: event.KindCard})
				registry.Unsubscribe(topic, ch)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, registry.Subscribers("board-0"))
	assert.Equal(t, 0, registry.Subscribers("board-1"))
}
