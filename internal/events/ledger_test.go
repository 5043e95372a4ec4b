package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcaster_PublishSubscribe(t *testing.T) {
	b := NewBroadcaster(1)
	ch := b.Subscribe()
	require.Equal(t, 1, b.Subscribers())

	b.Publish(Notification{Kind: KindEventAdded, Account: "a"})
	b.Publish(Notification{Kind: KindPeriodClosed}) // dropped, buffer is full

	n := <-ch
	assert.Equal(t, KindEventAdded, n.Kind)
	assert.False(t, n.Timestamp.IsZero())
	assert.Empty(t, ch)

	b.Unsubscribe(ch)
	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, b.Subscribers())

	b.Unsubscribe(ch)
}
