package storage

// Overlay buffers writes on top of a backing Database. Reads fall through to
// the backing store for keys that were not touched. Nothing reaches the
// backing store until Commit; Discard drops the buffered writes.
//
// The node runs each invocation against a fresh overlay so that a fatal
// mid-invocation failure leaves no partial state behind.
type Overlay struct {
	backend Database
	writes  map[string][]byte
	deletes map[string]struct{}
}

// NewOverlay wraps the provided backing store with an empty write buffer.
func NewOverlay(backend Database) *Overlay {
	return &Overlay{
		backend: backend,
		writes:  make(map[string][]byte),
		deletes: make(map[string]struct{}),
	}
}

func (o *Overlay) Put(key []byte, value []byte) error {
	k := string(key)
	delete(o.deletes, k)
	o.writes[k] = append([]byte(nil), value...)
	return nil
}

func (o *Overlay) Get(key []byte) ([]byte, error) {
	k := string(key)
	if _, ok := o.deletes[k]; ok {
		return nil, ErrKeyNotFound
	}
	if value, ok := o.writes[k]; ok {
		return append([]byte(nil), value...), nil
	}
	return o.backend.Get(key)
}

func (o *Overlay) Delete(key []byte) error {
	k := string(key)
	delete(o.writes, k)
	o.deletes[k] = struct{}{}
	return nil
}

// Close satisfies the Database interface. The backing store stays open.
func (o *Overlay) Close() error { return nil }

// Commit flushes the buffered writes and deletes to the backing store and
// resets the overlay.
func (o *Overlay) Commit() error {
	for k, v := range o.writes {
		if err := o.backend.Put([]byte(k), v); err != nil {
			return err
		}
	}
	for k := range o.deletes {
		if err := o.backend.Delete([]byte(k)); err != nil {
			return err
		}
	}
	o.Discard()
	return nil
}

// Discard drops all buffered writes without touching the backing store.
func (o *Overlay) Discard() {
	o.writes = make(map[string][]byte)
	o.deletes = make(map[string]struct{})
}
