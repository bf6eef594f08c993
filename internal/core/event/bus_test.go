package event_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tickarena/server/internal/core/event"
)

func TestBusDeliversAfterSwapInEmissionOrder(t *testing.T) {
	b := event.NewBus()

	var trace []string
	event.Subscribe(b, func(e event.PlayerHit) { trace = append(trace, "hit") })
	event.Subscribe(b, func(e event.PlayerDied) { trace = append(trace, "died") })

	event.Emit(b, event.PlayerHit{TargetID: 1, HP: 0})
	event.Emit(b, event.PlayerDied{PlayerID: 1})

	b.DispatchAll()
	assert.Empty(t, trace, "events are not readable before the swap")
	assert.Equal(t, 2, b.Pending())

	b.SwapBuffers()
	assert.Equal(t, 0, b.Pending())
	b.DispatchAll()
	assert.Equal(t, []string{"hit", "died"}, trace)

	b.SwapBuffers()
	b.DispatchAll()
	assert.Len(t, trace, 2, "events are delivered once")
}
