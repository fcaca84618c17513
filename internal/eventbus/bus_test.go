package eventbus

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"csms/ocpp/core"
)

func seqEvent(n int) core.Event {
	return core.Event{Type: core.EventType(fmt.Sprintf("seq-%d", n))}
}

func TestPublishDeliversToMatchingTopic(t *testing.T) {
	bus := New()
	sub := bus.Subscribe("cp-1")
	defer sub.Close()

	bus.Publish("cp-1", core.Event{Type: core.EventAuthorizationResult, ChargePointId: "cp-1"})

	select {
	case ev := <-sub.Events():
		assert.Equal(t, core.EventAuthorizationResult, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestPublishDoesNotCrossTopics(t *testing.T) {
	bus := New()
	sub := bus.Subscribe("cp-1")
	defer sub.Close()

	bus.Publish("cp-2", core.Event{Type: core.EventAuthorizationResult, ChargePointId: "cp-2"})

	select {
	case ev := <-sub.Events():
		t.Fatalf("unexpected event delivered to unrelated topic: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestWildcardSubscriberReceivesEveryTopic(t *testing.T) {
	bus := New()
	sub := bus.Subscribe(Wildcard)
	defer sub.Close()

	bus.Publish("cp-1", core.Event{Type: core.EventAuthorizationResult})
	bus.Publish("cp-2", core.Event{Type: core.EventTransactionStarted})

	first := <-sub.Events()
	second := <-sub.Events()
	assert.Equal(t, core.EventAuthorizationResult, first.Type)
	assert.Equal(t, core.EventTransactionStarted, second.Type)
}

type recordingLagObserver struct {
	dropped int
}

func (r *recordingLagObserver) ObserveLag(_ string, n int) { r.dropped += n }

func TestSlowSubscriberDropsOldestRatherThanBlocking(t *testing.T) {
	bus := New().WithCapacity(2)
	lag := &recordingLagObserver{}
	bus.SetLagObserver(lag)

	sub := bus.Subscribe("cp-1")
	defer sub.Close()

	for i := 0; i < 5; i++ {
		bus.Publish("cp-1", seqEvent(i))
	}

	require.Greater(t, lag.dropped, 0)

	var last core.Event
	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				goto done
			}
			last = ev
		default:
			goto done
		}
	}
done:
	assert.Equal(t, seqEvent(4).Type, last.Type)
}

func TestCloseUnsubscribesAndIsIdempotent(t *testing.T) {
	bus := New()
	sub := bus.Subscribe("cp-1")
	require.Equal(t, 1, bus.SubscriberCount("cp-1"))

	sub.Close()
	sub.Close()

	assert.Equal(t, 0, bus.SubscriberCount("cp-1"))
}
