package tipper

import (
	"strconv"

	"pizzachain/core/events"
	"pizzachain/core/types"
)

// EventTypePizzaSent is emitted once per accepted tip.
const EventTypePizzaSent = "tipper.pizza.sent"

type eventEnvelope struct {
	evt *types.Event
}

func (e eventEnvelope) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e eventEnvelope) Event() *types.Event { return e.evt }

// WrapEvent converts a raw event payload into the emitter-friendly envelope.
func WrapEvent(evt *types.Event) events.Event { return eventEnvelope{evt: evt} }

// PizzaSentEvent returns the structured payload for an accepted tip.
func PizzaSentEvent(from string, to string, id uint32, pizzas uint32) *types.Event {
	return &types.Event{
		Type: EventTypePizzaSent,
		Attributes: map[string]string{
			"from":   from,
			"to":     to,
			"id":     strconv.FormatUint(uint64(id), 10),
			"pizzas": strconv.FormatUint(uint64(pizzas), 10),
		},
	}
}
