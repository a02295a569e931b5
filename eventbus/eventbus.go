package eventbus

import (
	evbus "github.com/asaskevich/EventBus"
)

// InProcBus delivers events to in-process subscribers. Broadcast is
// synchronous so that a call's success or failure event is observable by
// the time the dispatcher returns.
type InProcBus struct {
	bus evbus.Bus
}

func New() *InProcBus {
	return &InProcBus{
		bus: evbus.New(),
	}
}

func (b *InProcBus) Broadcast(channel string, data interface{}) {
	b.bus.Publish(channel, data)
}

func (b *InProcBus) Subscribe(channel string, cb Callback) {
	_ = b.bus.Subscribe(channel, cb)
}

func (b *InProcBus) Unsubscribe(channel string, cb Callback) {
	_ = b.bus.Unsubscribe(channel, cb)
}
