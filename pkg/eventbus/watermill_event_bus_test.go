package eventbus_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/editorial/pkg/channels/gochannel"
	"github.com/dukex/editorial/pkg/eventbus"
	"github.com/dukex/editorial/pkg/events"
	"github.com/dukex/editorial/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBus(t *testing.T) *eventbus.WatermillEventBus {
	t.Helper()

	pubSub := gochannel.CreateChannel(watermill.NopLogger{}, gochannel.Options{Buffer: 10})
	bus := eventbus.NewWatermillEventBus(pubSub, pubSub)

	t.Cleanup(func() { _ = bus.Close() })

	return bus
}

func TestWatermillEventBus_DeliversTypedEvents(t *testing.T) {
	bus := newBus(t)
	received := make(chan *events.PostTransitioned, 1)

	require.NoError(t, bus.Handle(events.PostTransitionedEvent, func(_ context.Context, event any) error {
		received <- event.(*events.PostTransitioned)

		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	require.NoError(t, bus.Subscribe(ctx))

	published := events.PostTransitioned{
		BaseEvent:    events.NewBaseEvent(bus.GenerateID(), events.PostTransitionedEvent, "post-1", time.Now().UTC()),
		TransitionID: "t-1",
		FromState:    models.StateReview,
		ToState:      models.StateApproved,
		Action:       models.ActionApprove,
		UserID:       "editor-1",
	}

	require.NoError(t, bus.Publish(ctx, "post-1", published))

	select {
	case event := <-received:
		assert.Equal(t, "post-1", event.PostID)
		assert.Equal(t, models.StateApproved, event.ToState)
		assert.Equal(t, models.ActionApprove, event.Action)
	case <-time.After(5 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestWatermillEventBus_UnhandledTypesAreAcked(t *testing.T) {
	bus := newBus(t)
	received := make(chan string, 2)

	require.NoError(t, bus.Handle(events.VersionCreatedEvent, func(_ context.Context, event any) error {
		received <- event.(*events.VersionCreated).VersionID

		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	require.NoError(t, bus.Subscribe(ctx))

	now := time.Now().UTC()
	require.NoError(t, bus.Publish(ctx, "post-1", events.VersionRestored{
		BaseEvent: events.NewBaseEvent(bus.GenerateID(), events.VersionRestoredEvent, "post-1", now),
	}))
	require.NoError(t, bus.Publish(ctx, "post-1", events.VersionCreated{
		BaseEvent: events.NewBaseEvent(bus.GenerateID(), events.VersionCreatedEvent, "post-1", now),
		VersionID: "v-2",
	}))

	select {
	case versionID := <-received:
		assert.Equal(t, "v-2", versionID)
	case <-time.After(5 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestNoopEventBus(t *testing.T) {
	var bus eventbus.EventBus = eventbus.NoopEventBus{}

	assert.NoError(t, bus.Publish(t.Context(), "k", events.VersionCreated{}))
	assert.NoError(t, bus.Handle(events.VersionCreatedEvent, func(context.Context, any) error { return errors.New("never called") }))
	assert.NoError(t, bus.Subscribe(t.Context()))
	assert.NotEmpty(t, bus.GenerateID())
	assert.NoError(t, bus.Close())
}
