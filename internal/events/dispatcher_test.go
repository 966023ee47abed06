package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()

	var delivered []string
	d.Subscribe(EventAnalysisCompleted, func(ctx context.Context, event Event) error {
		delivered = append(delivered, event.TicketKey)
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventAnalysisCompleted, TicketKey: "ABC-1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ABC-1"}, delivered)
}

func TestDispatcherIgnoresUnsubscribedTypes(t *testing.T) {
	d := NewInMemoryDispatcher()

	called := false
	d.Subscribe(EventAnalysisFailed, func(ctx context.Context, event Event) error {
		called = true
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventAnalysisCompleted, TicketKey: "ABC-1"})
	require.NoError(t, err)
	assert.False(t, called)
}

func TestDispatcherCollectsHandlerErrors(t *testing.T) {
	d := NewInMemoryDispatcher()
	boom := errors.New("handler failed")

	d.Subscribe(EventAnalysisCompleted, func(ctx context.Context, event Event) error {
		return boom
	})
	d.Subscribe(EventAnalysisCompleted, func(ctx context.Context, event Event) error {
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventAnalysisCompleted})
	assert.ErrorIs(t, err, boom)
}
