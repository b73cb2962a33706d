package eventbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrain_DeliversInOrder(t *testing.T) {
	bus := New(8)

	var got []int
	bus.SubscribeFileDeleted(func(p FileDeletedPayload) { got = append(got, p.FileID) })

	for id := 1; id <= 3; id++ {
		bus.PublishFileDeleted(FileDeletedPayload{FileID: id})
	}
	bus.Drain()

	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestSend_DropsWhenFull(t *testing.T) {
	bus := New(1)

	var dropped []Event
	bus.OnDrop(func(e Event, _ any) { dropped = append(dropped, e) })

	bus.PublishTuiStarted(TUIStartedPayload{})
	bus.PublishTuiStopped(TUIStoppedPayload{})

	assert.Equal(t, []Event{EventTuiStopped}, dropped)
}

func TestDispatch_RecoversPanics(t *testing.T) {
	bus := New(4)

	var recovered any
	bus.OnPanic(func(_ Event, _ any, r any) { recovered = r })

	delivered := false
	bus.SubscribeFileAdded(func(FileAddedPayload) { panic("boom") })
	bus.SubscribeFileAdded(func(FileAddedPayload) { delivered = true })

	bus.PublishFileAdded(FileAddedPayload{})
	bus.Drain()

	require.Equal(t, "boom", recovered)
	assert.True(t, delivered, "later subscribers still run")
}

func TestHooks_MayRegisterHooks(t *testing.T) {
	bus := New(4)

	var published []Event
	bus.OnPublish(func(e Event, _ any) {
		published = append(published, e)
		if len(published) == 1 {
			bus.OnPublish(func(Event, any) {})
		}
	})

	bus.PublishFolderDeleted(FolderDeletedPayload{FolderID: 1})
	bus.PublishFileDeleted(FileDeletedPayload{FileID: 2})

	assert.Equal(t, []Event{EventFolderDeleted, EventFileDeleted}, published)
}
