package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adisglobe/pkg/geo"
	"adisglobe/pkg/model"
)

func TestHub_FanOut(t *testing.T) {
	h := NewHub()
	a := h.Subscribe("a")
	b := h.Subscribe("b")
	assert.Equal(t, 2, h.Clients())

	sel := model.Selection{
		ID:         "sel-1",
		Kind:       model.SelectionPoint,
		Name:       model.VirtualPointName,
		Coordinate: geo.Coordinate{Lat: 10, Lon: 20},
		CreatedAt:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	h.PublishSelection(sel)

	for _, ch := range []<-chan Message{a, b} {
		msg := <-ch
		assert.Equal(t, TypeSelection, msg.Type)
		assert.Equal(t, "sel-1", msg.ID)
		assert.Equal(t, sel.CreatedAt, msg.Timestamp)
		require.NotNil(t, msg.Feature)
	}

	h.PublishDismiss()
	msg := <-a
	assert.Equal(t, TypeDismiss, msg.Type)
	assert.False(t, msg.Timestamp.IsZero())
}

func TestHub_UnsubscribeClosesChannel(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe("a")
	h.Unsubscribe("a")
	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, h.Clients())

	// Unknown ids are ignored.
	h.Unsubscribe("a")
}

func TestHub_ResubscribeReplaces(t *testing.T) {
	h := NewHub()
	old := h.Subscribe("a")
	_ = h.Subscribe("a")
	_, open := <-old
	assert.False(t, open)
	assert.Equal(t, 1, h.Clients())
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	h := NewHub()
	_ = h.Subscribe("slow")

	done := make(chan struct{})
	go func() {
		for range subscriberBuffer + 5 {
			h.PublishDismiss()
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}
	assert.Equal(t, uint64(5), h.Dropped())
}

func TestMessage_JSON(t *testing.T) {
	sel := model.Selection{ID: "x", Kind: model.SelectionPoint, Name: "Selected Location", Coordinate: geo.Coordinate{Lat: 1, Lon: 2}}
	raw, err := json.Marshal(SelectionMessage(sel))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "selection", decoded["type"])
	feature := decoded["feature"].(map[string]any)
	assert.Equal(t, "Feature", feature["type"])
	geom := feature["geometry"].(map[string]any)
	assert.Equal(t, []any{2.0, 1.0}, geom["coordinates"])
}

func TestHub_Close(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe("a")
	h.Close()
	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, h.Clients())
}
