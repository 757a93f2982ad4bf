package events

import (
	"encoding/binary"
	"encoding/json"
	"log/slog"

	bolt "go.etcd.io/bbolt"

	"pizzachain/core/types"
)

var bucketEvents = []byte("events")

// payloadCarrier is implemented by module event envelopes that wrap a raw
// types.Event. Events without a payload are journaled by type only.
type payloadCarrier interface {
	Event() *types.Event
}

// Journal is an append-only, insertion-ordered log of emitted events backed by
// bbolt. It satisfies the Emitter interface; emission is fire-and-forget, so
// write failures are logged rather than surfaced to the emitting module.
type Journal struct {
	db     *bolt.DB
	logger *slog.Logger
}

// OpenJournal opens (or creates) the journal database at the given path.
func OpenJournal(path string, logger *slog.Logger) (*Journal, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketEvents)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Journal{db: db, logger: logger}, nil
}

// Emit appends the event to the journal in emission order.
func (j *Journal) Emit(evt Event) {
	if j == nil || j.db == nil || evt == nil {
		return
	}
	record := types.Event{Type: evt.EventType(), Attributes: map[string]string{}}
	if carrier, ok := evt.(payloadCarrier); ok {
		if payload := carrier.Event(); payload != nil {
			record = *payload
		}
	}
	encoded, err := json.Marshal(record)
	if err != nil {
		j.logger.Error("journal: encode event", slog.Any("error", err))
		return
	}
	if err := j.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketEvents)
		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}
		var key [8]byte
		binary.BigEndian.PutUint64(key[:], seq)
		return bucket.Put(key[:], encoded)
	}); err != nil {
		j.logger.Error("journal: append event", slog.String("type", record.Type), slog.Any("error", err))
	}
}

// List returns up to limit journaled events, oldest first. A non-positive
// limit returns everything.
func (j *Journal) List(limit int) ([]types.Event, error) {
	var out []types.Event
	err := j.db.View(func(tx *bolt.Tx) error {
		cursor := tx.Bucket(bucketEvents).Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			if limit > 0 && len(out) >= limit {
				break
			}
			var evt types.Event
			if err := json.Unmarshal(v, &evt); err != nil {
				return err
			}
			out = append(out, evt)
		}
		return nil
	})
	return out, err
}

// Close releases the underlying database handle.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}
