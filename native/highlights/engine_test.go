package highlights

import (
	"errors"
	"testing"

	"pizzachain/core/events"
	"pizzachain/core/types"
)

type mockState struct {
	pizzas  map[[20]byte]uint32
	content map[[20]byte]uint32
	list    [][20]byte
}

func newMockState() *mockState {
	return &mockState{
		pizzas:  make(map[[20]byte]uint32),
		content: make(map[[20]byte]uint32),
	}
}

func (m *mockState) HighlightedPizzaGet(author [20]byte) (uint32, bool, error) {
	id, ok := m.pizzas[author]
	return id, ok, nil
}

func (m *mockState) HighlightedPizzaPut(author [20]byte, id uint32) error {
	m.pizzas[author] = id
	return nil
}

func (m *mockState) HighlightedPizzaDelete(author [20]byte) error {
	delete(m.pizzas, author)
	return nil
}

func (m *mockState) HighlightedContentGet(author [20]byte) (uint32, bool, error) {
	id, ok := m.content[author]
	return id, ok, nil
}

func (m *mockState) HighlightedContentPut(author [20]byte, id uint32) error {
	m.content[author] = id
	return nil
}

func (m *mockState) HighlightedContentDelete(author [20]byte) error {
	delete(m.content, author)
	return nil
}

func (m *mockState) HighlightedListGet() ([][20]byte, error) {
	return append([][20]byte(nil), m.list...), nil
}

func (m *mockState) HighlightedListPut(list [][20]byte) error {
	m.list = append([][20]byte(nil), list...)
	return nil
}

type captureEmitter struct {
	events []events.Event
}

func (c *captureEmitter) Emit(evt events.Event) { c.events = append(c.events, evt) }

func newTestAddress(fill byte) [20]byte {
	var addr [20]byte
	for i := range addr {
		addr[i] = fill
	}
	return addr
}

func newTestEngine() (*Engine, *mockState, *captureEmitter, [20]byte) {
	owner := newTestAddress(0x01)
	state := newMockState()
	emitter := &captureEmitter{}
	engine := NewEngine(owner)
	engine.SetState(state)
	engine.SetEmitter(emitter)
	return engine, state, emitter, owner
}

func payload(t *testing.T, evt events.Event) *types.Event {
	t.Helper()
	carrier, ok := evt.(interface{ Event() *types.Event })
	if !ok {
		t.Fatalf("event %T carries no payload", evt)
	}
	return carrier.Event()
}

func TestAddPizzaHighlight(t *testing.T) {
	engine, state, emitter, owner := newTestEngine()
	from := newTestAddress(0xAA)
	to := newTestAddress(0xBB)

	if err := engine.AddPizzaHighlight(owner, from, to, 3, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if id, ok := state.pizzas[from]; !ok || id != 3 {
		t.Fatalf("stored id = %d, ok = %v", id, ok)
	}
	if len(state.list) != 1 || state.list[0] != from {
		t.Fatalf("audit list = %v", state.list)
	}
	if len(emitter.events) != 1 {
		t.Fatalf("expected one event, got %d", len(emitter.events))
	}
	evt := payload(t, emitter.events[0])
	if evt.Type != EventTypePizzaHighlighted {
		t.Fatalf("event type = %s", evt.Type)
	}
	if evt.Attributes["id"] != "3" || evt.Attributes["pizzas"] != "2" {
		t.Fatalf("event attributes = %v", evt.Attributes)
	}
}

func TestAddPizzaHighlightDuplicate(t *testing.T) {
	engine, _, _, owner := newTestEngine()
	from := newTestAddress(0xAA)
	to := newTestAddress(0xBB)

	if err := engine.AddPizzaHighlight(owner, from, to, 0, 1); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := engine.AddPizzaHighlight(owner, from, to, 1, 1); !errors.Is(err, ErrAlreadyHighlighted) {
		t.Fatalf("err = %v, want ErrAlreadyHighlighted", err)
	}
}

func TestMutationsRequireOwner(t *testing.T) {
	engine, _, _, owner := newTestEngine()
	outsider := newTestAddress(0x99)
	from := newTestAddress(0xAA)

	if err := engine.AddPizzaHighlight(outsider, from, from, 0, 1); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("add pizza err = %v, want ErrAccessDenied", err)
	}
	if err := engine.AddContentHighlight(outsider, from, 0); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("add content err = %v, want ErrAccessDenied", err)
	}
	if err := engine.DeletePizzaHighlight(outsider, from); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("delete pizza err = %v, want ErrAccessDenied", err)
	}
	if err := engine.DeleteContentHighlight(outsider, from); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("delete content err = %v, want ErrAccessDenied", err)
	}

	// The access check fires before argument validation.
	if err := engine.DeletePizzaHighlight(outsider, newTestAddress(0x00)); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("err = %v, want ErrAccessDenied", err)
	}
	_ = owner
}

func TestDeletePizzaHighlightNotFound(t *testing.T) {
	engine, _, _, owner := newTestEngine()
	if err := engine.DeletePizzaHighlight(owner, newTestAddress(0xAA)); !errors.Is(err, ErrHighlightNotFound) {
		t.Fatalf("err = %v, want ErrHighlightNotFound", err)
	}
}

func TestAddDeleteAddCycle(t *testing.T) {
	engine, state, _, owner := newTestEngine()
	from := newTestAddress(0xAA)
	to := newTestAddress(0xBB)

	if err := engine.AddPizzaHighlight(owner, from, to, 0, 1); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := engine.DeletePizzaHighlight(owner, from); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(state.list) != 0 {
		t.Fatalf("audit list should be empty after delete, got %v", state.list)
	}
	if err := engine.AddPizzaHighlight(owner, from, to, 5, 1); err != nil {
		t.Fatalf("re-add: %v", err)
	}
	id, found, err := engine.PizzaHighlight(from)
	if err != nil || !found || id != 5 {
		t.Fatalf("lookup after re-add: id=%d found=%v err=%v", id, found, err)
	}
}

func TestContentNamespaceIsIndependent(t *testing.T) {
	engine, _, _, owner := newTestEngine()
	author := newTestAddress(0xAA)

	if err := engine.AddPizzaHighlight(owner, author, author, 1, 1); err != nil {
		t.Fatalf("add pizza: %v", err)
	}
	if err := engine.AddContentHighlight(owner, author, 9); err != nil {
		t.Fatalf("add content should not collide with pizza namespace: %v", err)
	}
	if err := engine.DeletePizzaHighlight(owner, author); err != nil {
		t.Fatalf("delete pizza: %v", err)
	}
	id, found, err := engine.ContentHighlight(author)
	if err != nil || !found || id != 9 {
		t.Fatalf("content highlight should survive pizza delete: id=%d found=%v err=%v", id, found, err)
	}
}

func TestHighlightedListOrder(t *testing.T) {
	engine, _, _, owner := newTestEngine()
	a := newTestAddress(0xAA)
	b := newTestAddress(0xBB)
	c := newTestAddress(0xCC)

	if err := engine.AddPizzaHighlight(owner, a, b, 0, 1); err != nil {
		t.Fatalf("add a: %v", err)
	}
	if err := engine.AddContentHighlight(owner, b, 1); err != nil {
		t.Fatalf("add b: %v", err)
	}
	if err := engine.AddPizzaHighlight(owner, c, a, 2, 1); err != nil {
		t.Fatalf("add c: %v", err)
	}

	list, err := engine.Highlighted()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := [][20]byte{a, b, c}
	if len(list) != len(want) {
		t.Fatalf("list length = %d, want %d", len(list), len(want))
	}
	for i := range want {
		if list[i] != want[i] {
			t.Fatalf("list[%d] = %x, want %x", i, list[i], want[i])
		}
	}

	// Reverse removal by value drops only the first matching entry.
	if err := engine.DeleteContentHighlight(owner, b); err != nil {
		t.Fatalf("delete b: %v", err)
	}
	list, err = engine.Highlighted()
	if err != nil {
		t.Fatalf("list after delete: %v", err)
	}
	if len(list) != 2 || list[0] != a || list[1] != c {
		t.Fatalf("list after delete = %v", list)
	}
}

func TestHighlightRemovedEvent(t *testing.T) {
	engine, _, emitter, owner := newTestEngine()
	author := newTestAddress(0xAA)

	if err := engine.AddContentHighlight(owner, author, 4); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := engine.DeleteContentHighlight(owner, author); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(emitter.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(emitter.events))
	}
	evt := payload(t, emitter.events[1])
	if evt.Type != EventTypeHighlightRemoved {
		t.Fatalf("event type = %s", evt.Type)
	}
}
