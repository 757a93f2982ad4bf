package highlights

import (
	"encoding/hex"
	"errors"

	"pizzachain/core/events"
	"pizzachain/core/types"
)

var errNilState = errors.New("highlights engine: state not configured")

type engineState interface {
	HighlightedPizzaGet(author [20]byte) (uint32, bool, error)
	HighlightedPizzaPut(author [20]byte, id uint32) error
	HighlightedPizzaDelete(author [20]byte) error
	HighlightedContentGet(author [20]byte) (uint32, bool, error)
	HighlightedContentPut(author [20]byte, id uint32) error
	HighlightedContentDelete(author [20]byte) error
	HighlightedListGet() ([][20]byte, error)
	HighlightedListPut(list [][20]byte) error
}

// Engine owns the highlight registry: one pizza highlight and one content
// highlight per author, plus an insertion-ordered audit list across both
// namespaces. Every mutation is gated on the owner identity captured when the
// registry instance was deployed; ownership is never reassigned.
type Engine struct {
	state   engineState
	emitter events.Emitter
	owner   [20]byte
}

// NewEngine constructs a registry engine owned by the deploying identity.
func NewEngine(owner [20]byte) *Engine {
	return &Engine{
		owner:   owner,
		emitter: events.NoopEmitter{},
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// Owner returns the identity allowed to mutate the registry.
func (e *Engine) Owner() [20]byte { return e.owner }

func (e *Engine) authorize(caller [20]byte) error {
	if caller != e.owner {
		return ErrAccessDenied
	}
	return nil
}

func hexAddr(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

// AddPizzaHighlight promotes the tip identified by (from, id). At most one
// pizza highlight may exist per submitter.
func (e *Engine) AddPizzaHighlight(caller [20]byte, from [20]byte, to [20]byte, id uint32, pizzas uint32) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.authorize(caller); err != nil {
		return err
	}
	if _, exists, err := e.state.HighlightedPizzaGet(from); err != nil {
		return err
	} else if exists {
		return ErrAlreadyHighlighted
	}
	if err := e.state.HighlightedPizzaPut(from, id); err != nil {
		return err
	}
	if err := e.appendAudit(from); err != nil {
		return err
	}
	e.emit(PizzaHighlightedEvent(hexAddr(from), hexAddr(to), id, pizzas))
	return nil
}

// AddContentHighlight promotes a content item by author. The content
// namespace is independent of the pizza namespace.
func (e *Engine) AddContentHighlight(caller [20]byte, author [20]byte, id uint32) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.authorize(caller); err != nil {
		return err
	}
	if _, exists, err := e.state.HighlightedContentGet(author); err != nil {
		return err
	} else if exists {
		return ErrAlreadyHighlighted
	}
	if err := e.state.HighlightedContentPut(author, id); err != nil {
		return err
	}
	if err := e.appendAudit(author); err != nil {
		return err
	}
	e.emit(ContentHighlightedEvent(hexAddr(author), id))
	return nil
}

// DeletePizzaHighlight clears the pizza highlight for the submitter. Deleting
// makes the identity eligible for highlighting again.
func (e *Engine) DeletePizzaHighlight(caller [20]byte, from [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.authorize(caller); err != nil {
		return err
	}
	if _, exists, err := e.state.HighlightedPizzaGet(from); err != nil {
		return err
	} else if !exists {
		return ErrHighlightNotFound
	}
	if err := e.state.HighlightedPizzaDelete(from); err != nil {
		return err
	}
	if err := e.removeAudit(from); err != nil {
		return err
	}
	e.emit(HighlightRemovedEvent(hexAddr(from)))
	return nil
}

// DeleteContentHighlight clears the content highlight for the author.
func (e *Engine) DeleteContentHighlight(caller [20]byte, author [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.authorize(caller); err != nil {
		return err
	}
	if _, exists, err := e.state.HighlightedContentGet(author); err != nil {
		return err
	} else if !exists {
		return ErrHighlightNotFound
	}
	if err := e.state.HighlightedContentDelete(author); err != nil {
		return err
	}
	if err := e.removeAudit(author); err != nil {
		return err
	}
	e.emit(HighlightRemovedEvent(hexAddr(author)))
	return nil
}

// PizzaHighlight returns the highlighted tip id for the submitter, if any.
// Reads are public.
func (e *Engine) PizzaHighlight(from [20]byte) (uint32, bool, error) {
	if e == nil || e.state == nil {
		return 0, false, errNilState
	}
	return e.state.HighlightedPizzaGet(from)
}

// ContentHighlight returns the highlighted content id for the author, if any.
func (e *Engine) ContentHighlight(author [20]byte) (uint32, bool, error) {
	if e == nil || e.state == nil {
		return 0, false, errNilState
	}
	return e.state.HighlightedContentGet(author)
}

// Highlighted returns the audit list of highlighted identities across both
// namespaces, in insertion order.
func (e *Engine) Highlighted() ([][20]byte, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	list, err := e.state.HighlightedListGet()
	if err != nil {
		return nil, err
	}
	out := make([][20]byte, len(list))
	copy(out, list)
	return out, nil
}

func (e *Engine) appendAudit(addr [20]byte) error {
	list, err := e.state.HighlightedListGet()
	if err != nil {
		return err
	}
	return e.state.HighlightedListPut(append(list, addr))
}

// removeAudit drops the first audit entry matching the identity. Linear scan;
// fine at registry scale.
func (e *Engine) removeAudit(addr [20]byte) error {
	list, err := e.state.HighlightedListGet()
	if err != nil {
		return err
	}
	for i, entry := range list {
		if entry == addr {
			return e.state.HighlightedListPut(append(list[:i:i], list[i+1:]...))
		}
	}
	return nil
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(WrapEvent(evt))
}
