package invoke

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

// Transport-level failures. Any non-nil error returned from Router.Call is
// unrecoverable for the calling invocation: the node discards all state
// written during the invocation instead of committing it. Caller-correctable
// rejections never travel this path; they ride in Result.Status.
var (
	ErrContractNotFound = errors.New("invoke: no contract at address")
	ErrUnknownSelector  = errors.New("invoke: selector not registered")
	ErrBadArguments     = errors.New("invoke: malformed call arguments")
	ErrValueOutOfRange  = errors.New("invoke: attached value exceeds u128")
)

// Selector is a fixed 4-byte big-endian operation code used for binary
// dispatch between modules without a schema exchange.
type Selector [4]byte

// NewSelector builds a selector from its numeric operation code.
func NewSelector(op uint32) Selector {
	var s Selector
	binary.BigEndian.PutUint32(s[:], op)
	return s
}

// Uint32 returns the numeric operation code.
func (s Selector) Uint32() uint32 { return binary.BigEndian.Uint32(s[:]) }

func (s Selector) String() string { return fmt.Sprintf("0x%08x", s.Uint32()) }

// Request carries one cross-module call: the operation selector, the calling
// identity, the attached payment value and the RLP-encoded arguments.
type Request struct {
	Selector Selector
	Caller   [20]byte
	Value    *big.Int
	Args     []byte
}

// StatusOK marks a successful Result.
const StatusOK uint8 = 0

// Result is the tagged return value of a cross-module call. Status zero means
// success; nonzero statuses are application error codes defined by the callee
// module.
type Result struct {
	Status uint8
	Data   []byte
}

// OK reports whether the call succeeded at the application level.
func (r Result) OK() bool { return r.Status == StatusOK }

// Handler executes a single operation. A non-nil error is treated as a
// transport fault (typically ErrBadArguments); application rejections must be
// encoded into the Result status instead.
type Handler func(req *Request) (Result, error)

// Contract is a dispatch table binding selectors to handlers for one deployed
// module instance.
type Contract struct {
	name     string
	handlers map[Selector]Handler
}

// NewContract creates an empty dispatch table. The name only shows up in
// error messages.
func NewContract(name string) *Contract {
	return &Contract{name: name, handlers: make(map[Selector]Handler)}
}

// Register binds a handler to a selector, replacing any previous binding.
func (c *Contract) Register(sel Selector, handler Handler) {
	c.handlers[sel] = handler
}

func (c *Contract) dispatch(req *Request) (Result, error) {
	handler, ok := c.handlers[req.Selector]
	if !ok {
		return Result{}, fmt.Errorf("%s %s: %w", c.name, req.Selector, ErrUnknownSelector)
	}
	return handler(req)
}

// Router resolves module addresses to deployed contracts and performs calls.
type Router struct {
	contracts map[[20]byte]*Contract
}

func NewRouter() *Router {
	return &Router{contracts: make(map[[20]byte]*Contract)}
}

// Deploy binds a contract to an address.
func (r *Router) Deploy(addr [20]byte, contract *Contract) {
	r.contracts[addr] = contract
}

// Call performs a synchronous cross-module call. The attached value must fit
// an unsigned 128-bit integer; monetary amounts wider than that never appear
// on the wire.
func (r *Router) Call(addr [20]byte, req *Request) (Result, error) {
	if req.Value != nil {
		if req.Value.Sign() < 0 {
			return Result{}, ErrValueOutOfRange
		}
		value, overflow := uint256.FromBig(req.Value)
		if overflow || value.BitLen() > 128 {
			return Result{}, ErrValueOutOfRange
		}
	}
	contract, ok := r.contracts[addr]
	if !ok {
		return Result{}, fmt.Errorf("%x: %w", addr, ErrContractNotFound)
	}
	return contract.dispatch(req)
}
