package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/safebite/internal/common"
	"github.com/ternarybob/safebite/internal/interfaces"
	"github.com/ternarybob/safebite/internal/models"
)

func TestPublishSync_DeliversPayload(t *testing.T) {
	svc := NewService(common.GetLogger())

	var received atomic.Value
	err := svc.Subscribe(interfaces.EventEnrichmentStateChanged, func(_ context.Context, event interfaces.Event) error {
		received.Store(event.Payload)
		return nil
	})
	require.NoError(t, err)

	change := interfaces.EnrichmentStateChange{
		ProductID: "prod_1",
		Field:     models.FieldSummary,
		State:     models.EnrichmentSucceeded,
	}
	require.NoError(t, svc.PublishSync(context.Background(), interfaces.Event{
		Type:    interfaces.EventEnrichmentStateChanged,
		Payload: change,
	}))

	assert.Equal(t, change, received.Load())
}

func TestPublishSync_AggregatesHandlerErrors(t *testing.T) {
	svc := NewService(common.GetLogger())

	require.NoError(t, svc.Subscribe(interfaces.EventHistoryCleared, func(_ context.Context, _ interfaces.Event) error {
		return errors.New("boom")
	}))
	require.NoError(t, svc.Subscribe(interfaces.EventHistoryCleared, func(_ context.Context, _ interfaces.Event) error {
		return nil
	}))

	err := svc.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventHistoryCleared})
	assert.Error(t, err)
}

func TestPublish_NoSubscribersIsNoop(t *testing.T) {
	svc := NewService(common.GetLogger())
	assert.NoError(t, svc.Publish(context.Background(), interfaces.Event{Type: interfaces.EventProductScanned}))
}

