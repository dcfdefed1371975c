package recyclebin

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediasweep/internal/media"
	"mediasweep/internal/metrics"
)

func TestEventTypeString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		t    EventType
		want string
	}{
		{EventRecycled, "recycled"},
		{EventRestored, "restored"},
		{EventDeleted, "deleted"},
		{EventEmptied, "emptied"},
		{EventType(99), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.t.String())
	}
}

func TestSubscribeReceivesEvents(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := Open(ctx, newFakeProvider("a"), nil)
	events, cancel := s.Subscribe(8)
	defer cancel()

	x := assetItem("a", 5)
	require.NoError(t, s.Recycle(ctx, x))
	_, err := s.Restore(ctx, x.ID)
	require.NoError(t, err)
	s.EmptyRecycleBin(ctx)

	ev := <-events
	assert.Equal(t, EventRecycled, ev.Type)
	assert.Equal(t, 1, ev.Count)
	assert.Equal(t, int64(5), ev.TotalSize)
	require.Len(t, ev.Items, 1)
	assert.Equal(t, x.ID, ev.Items[0].ID)

	ev = <-events
	assert.Equal(t, EventRestored, ev.Type)
	assert.Equal(t, 0, ev.Count)
	assert.False(t, ev.Items[0].InRecycleBin)

	ev = <-events
	assert.Equal(t, EventEmptied, ev.Type)
}

func TestSlowSubscriberDropsEvents(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := Open(ctx, nil, nil)
	events, cancel := s.Subscribe(1)
	defer cancel()

	before := testutil.ToFloat64(metrics.RecycleBinEventsDropped)
	_, err := s.RecycleMany(ctx, []media.Item{assetItem("a", 1)})
	require.NoError(t, err)
	_, err = s.RecycleMany(ctx, []media.Item{assetItem("b", 1)})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, testutil.ToFloat64(metrics.RecycleBinEventsDropped)-before, 1.0)
	ev := <-events
	assert.Equal(t, "a", ev.Items[0].Handle)
	assert.Equal(t, 2, s.Count())
}

func TestCancelClosesChannel(t *testing.T) {
	t.Parallel()

	s := Open(context.Background(), nil, nil)
	events, cancel := s.Subscribe(1)
	cancel()
	cancel()

	_, ok := <-events
	assert.False(t, ok)
	require.NoError(t, s.Recycle(context.Background(), assetItem("a", 1)))
}
