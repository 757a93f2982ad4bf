package oracle

import (
	"errors"
	"math/big"
)

var (
	ErrAccessDenied = errors.New("oracle: access denied")

	errNilState     = errors.New("oracle engine: state not configured")
	errInvalidPrice = errors.New("oracle engine: price must be non-negative")
)

// PizzaPrice is a published price point with the reporter's confidence.
type PizzaPrice struct {
	Confidence uint64   `json:"confidence"`
	Price      *big.Int `json:"price"`
}

// Clone returns a deep copy of the price record.
func (p *PizzaPrice) Clone() *PizzaPrice {
	if p == nil {
		return nil
	}
	clone := &PizzaPrice{Confidence: p.Confidence, Price: big.NewInt(0)}
	if p.Price != nil {
		clone.Price = new(big.Int).Set(p.Price)
	}
	return clone
}

type engineState interface {
	OraclePriceGet(id uint32) (*PizzaPrice, bool, error)
	OraclePricePut(id uint32, price *PizzaPrice) error
}

// Engine is the read-mostly price reference. The tip ledger prices pizzas
// from a fixed construction-time constant and does not consult the oracle
// per tip; the lookup surface exists for clients and future wiring.
type Engine struct {
	state   engineState
	updater [20]byte
}

// NewEngine constructs an oracle engine whose price feed may only be written
// by the updater identity.
func NewEngine(updater [20]byte) *Engine {
	return &Engine{updater: updater}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// Price returns the published price record for the id, if any. Pure read.
func (e *Engine) Price(id uint32) (*PizzaPrice, bool, error) {
	if e == nil || e.state == nil {
		return nil, false, errNilState
	}
	record, found, err := e.state.OraclePriceGet(id)
	if err != nil || !found {
		return nil, found, err
	}
	return record.Clone(), true, nil
}

// SetPrice publishes a price point. Only the updater may write the feed.
func (e *Engine) SetPrice(caller [20]byte, id uint32, confidence uint64, price *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if caller != e.updater {
		return ErrAccessDenied
	}
	if price == nil || price.Sign() < 0 {
		return errInvalidPrice
	}
	return e.state.OraclePricePut(id, &PizzaPrice{
		Confidence: confidence,
		Price:      new(big.Int).Set(price),
	})
}
