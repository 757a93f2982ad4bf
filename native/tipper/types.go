package tipper

import (
	"errors"
	"fmt"
	"math/big"
)

// Tip records a pledge of a message and a pizza quantity from one identity to
// another, backed by a payment. Records are immutable once written and are
// identified by a strictly increasing uint32 sequence id.
type Tip struct {
	From    [20]byte `json:"from"`
	To      [20]byte `json:"to"`
	Pizzas  uint32   `json:"pizzas"`
	Message string   `json:"message"`
}

// Meta tracks the ledger's id allocation and lifecycle flags.
type Meta struct {
	NextID     uint32
	Records    uint32
	Terminated bool
}

// Caller-correctable ledger rejections.
var (
	ErrAlreadyTipped = errors.New("tipper: caller already tipped")
	ErrTipTransfer   = errors.New("tipper: payout transfer failed")
	ErrTerminated    = errors.New("tipper: ledger terminated")
)

// InsufficientAmountError rejects a tip whose attached payment does not cover
// the required pizza cost. Required carries the exact amount the caller was
// short of.
type InsufficientAmountError struct {
	Required *big.Int
}

func (e *InsufficientAmountError) Error() string {
	return fmt.Sprintf("tipper: attached payment below required %s", e.Required)
}

// HighlightError wraps a registry rejection surfacing through the ledger. The
// inner error stays reachable through Unwrap so callers can tell which module
// originated the failure.
type HighlightError struct {
	Err error
}

func (e *HighlightError) Error() string {
	return "tipper: highlight rejected: " + e.Err.Error()
}

func (e *HighlightError) Unwrap() error { return e.Err }
