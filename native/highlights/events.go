package highlights

import (
	"strconv"

	"pizzachain/core/events"
	"pizzachain/core/types"
)

const (
	// EventTypePizzaHighlighted is emitted when a tip is promoted.
	EventTypePizzaHighlighted = "highlights.pizza.highlighted"
	// EventTypeContentHighlighted is emitted when a content item is promoted.
	EventTypeContentHighlighted = "highlights.content.highlighted"
	// EventTypeHighlightRemoved is emitted when a highlight is cleared.
	EventTypeHighlightRemoved = "highlights.removed"
)

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

// PizzaHighlightedEvent returns the structured payload for a promoted tip.
func PizzaHighlightedEvent(from string, to string, id uint32, pizzas uint32) *types.Event {
	return &types.Event{
		Type: EventTypePizzaHighlighted,
		Attributes: map[string]string{
			"from":   from,
			"to":     to,
			"id":     strconv.FormatUint(uint64(id), 10),
			"pizzas": strconv.FormatUint(uint64(pizzas), 10),
		},
	}
}

// ContentHighlightedEvent returns the structured payload for promoted content.
func ContentHighlightedEvent(author string, id uint32) *types.Event {
	return &types.Event{
		Type: EventTypeContentHighlighted,
		Attributes: map[string]string{
			"author": author,
			"id":     strconv.FormatUint(uint64(id), 10),
		},
	}
}

// HighlightRemovedEvent returns the structured payload for a cleared highlight.
func HighlightRemovedEvent(author string) *types.Event {
	return &types.Event{
		Type: EventTypeHighlightRemoved,
		Attributes: map[string]string{
			"author": author,
		},
	}
}
