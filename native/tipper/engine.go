package tipper

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"pizzachain/core/events"
	"pizzachain/core/types"
	"pizzachain/native/highlights"
	"pizzachain/native/invoke"
)

var (
	errNilState    = errors.New("tipper engine: state not configured")
	errNilRegistry = errors.New("tipper engine: registry not configured")
)

// maxUint128 caps the required-payment computation; amounts on the wire are
// unsigned 128-bit.
var maxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

type engineState interface {
	TipperMetaGet() (*Meta, error)
	TipperMetaPut(meta *Meta) error
	TipperTipGet(id uint32) (*Tip, bool, error)
	TipperTipPut(id uint32, tip *Tip) error
	TipperSubmitterIDGet(addr [20]byte) (uint32, bool, error)
	TipperSubmitterIDPut(addr [20]byte, id uint32) error
	TipperSubmittersGet() ([][20]byte, error)
	TipperSubmittersPut(list [][20]byte) error
	TipperBalanceGet(addr [20]byte) (*big.Int, error)
	TipperBalanceSet(addr [20]byte, amount *big.Int) error
	GetAccount(addr []byte) (*types.Account, error)
	PutAccount(addr []byte, account *types.Account) error
}

// Engine owns tip records and ledger-local balances, validates payments, and
// relays highlight operations to the registry module when one is configured.
// The payout to the recipient and the record write form a single unit: no
// record is persisted unless the payout succeeded. A registry failure after
// the record write is deliberately not rolled back; highlighting is
// best-effort commentary on an already-settled tip.
type Engine struct {
	state             engineState
	emitter           events.Emitter
	router            *invoke.Router
	registry          *[20]byte
	moduleAddr        [20]byte
	operator          [20]byte
	price             *big.Int
	version           uint8
	allowMultipleTips bool
}

// NewEngine constructs a ledger engine with the protocol version byte and the
// fixed per-pizza price captured at deployment.
func NewEngine(version uint8, pricePerPizza *big.Int) *Engine {
	price := big.NewInt(0)
	if pricePerPizza != nil {
		price = new(big.Int).Set(pricePerPizza)
	}
	return &Engine{
		emitter: events.NoopEmitter{},
		price:   price,
		version: version,
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

// SetModuleAddress configures the identity this ledger instance calls out as.
func (e *Engine) SetModuleAddress(addr [20]byte) { e.moduleAddr = addr }

// SetOperator configures the identity allowed to terminate the ledger and to
// drive the operator-facing registry relays.
func (e *Engine) SetOperator(addr [20]byte) { e.operator = addr }

// SetRegistry binds the registry module the ledger highlights through. A nil
// address disables highlighting entirely.
func (e *Engine) SetRegistry(router *invoke.Router, addr *[20]byte) {
	e.router = router
	if addr == nil {
		e.registry = nil
		return
	}
	bound := *addr
	e.registry = &bound
}

// SetAllowMultipleTips toggles the duplicate-submission guard. The historical
// deployments disagreed on this behaviour, so it is explicit configuration
// rather than a hardcoded choice.
func (e *Engine) SetAllowMultipleTips(allow bool) { e.allowMultipleTips = allow }

// Version returns the protocol version byte supplied at construction.
func (e *Engine) Version() uint8 { return e.version }

// PricePerPizza returns a copy of the fixed per-pizza price.
func (e *Engine) PricePerPizza() *big.Int { return new(big.Int).Set(e.price) }

// RequiredAmount computes price*pizzas, saturating at the maximum unsigned
// 128-bit value instead of wrapping or trapping.
func (e *Engine) RequiredAmount(pizzas uint32) *big.Int {
	required := new(big.Int).Mul(e.price, new(big.Int).SetUint64(uint64(pizzas)))
	if required.Cmp(maxUint128) > 0 {
		required.Set(maxUint128)
	}
	return required
}

func hexAddr(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

// Tip validates the attached payment, forwards it to the recipient, persists
// the record and, when a registry is bound, promotes the fresh tip. The
// returned id identifies the record for later lookups. Registry rejections
// come back as *HighlightError with the record already settled; transport
// faults reaching the registry propagate untouched and the caller must treat
// the whole invocation as failed.
func (e *Engine) Tip(caller [20]byte, value *big.Int, message string, to [20]byte, pizzas uint32) (uint32, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	meta, err := e.state.TipperMetaGet()
	if err != nil {
		return 0, err
	}
	if meta.Terminated {
		return 0, ErrTerminated
	}
	if !e.allowMultipleTips {
		if _, tipped, err := e.state.TipperSubmitterIDGet(caller); err != nil {
			return 0, err
		} else if tipped {
			return 0, ErrAlreadyTipped
		}
	}
	required := e.RequiredAmount(pizzas)
	attached := cloneBigInt(value)
	if attached.Cmp(required) < 0 {
		return 0, &InsufficientAmountError{Required: required}
	}

	// Payout first. Nothing below runs unless the attached payment reached
	// the recipient.
	if err := e.transfer(caller, to, attached); err != nil {
		return 0, err
	}
	balance, err := e.state.TipperBalanceGet(to)
	if err != nil {
		return 0, err
	}
	if err := e.state.TipperBalanceSet(to, new(big.Int).Add(balance, attached)); err != nil {
		return 0, err
	}

	id := meta.NextID
	if err := e.state.TipperTipPut(id, &Tip{From: caller, To: to, Pizzas: pizzas, Message: message}); err != nil {
		return 0, err
	}
	if err := e.state.TipperSubmitterIDPut(caller, id); err != nil {
		return 0, err
	}
	submitters, err := e.state.TipperSubmittersGet()
	if err != nil {
		return 0, err
	}
	if err := e.state.TipperSubmittersPut(append(submitters, caller)); err != nil {
		return 0, err
	}
	meta.NextID = id + 1
	meta.Records++
	if err := e.state.TipperMetaPut(meta); err != nil {
		return 0, err
	}
	e.emit(PizzaSentEvent(hexAddr(caller), hexAddr(to), id, pizzas))

	if e.registry != nil {
		surplus := new(big.Int).Sub(attached, required)
		if err := e.highlightTip(caller, to, id, pizzas, surplus); err != nil {
			return id, err
		}
	}
	return id, nil
}

// transfer forwards the attached amount from the caller's account to the
// recipient's. An underfunded caller is a payout failure (ErrTipTransfer);
// state backend errors propagate raw and abort the invocation.
func (e *Engine) transfer(from [20]byte, to [20]byte, amount *big.Int) error {
	fromAcc, err := e.state.GetAccount(from[:])
	if err != nil {
		return err
	}
	fromAcc = types.EnsureAccount(fromAcc)
	if fromAcc.Balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: balance %s below attached %s", ErrTipTransfer, fromAcc.Balance, amount)
	}
	toAcc, err := e.state.GetAccount(to[:])
	if err != nil {
		return err
	}
	toAcc = types.EnsureAccount(toAcc)
	fromAcc.Balance = new(big.Int).Sub(fromAcc.Balance, amount)
	toAcc.Balance = new(big.Int).Add(toAcc.Balance, amount)
	if err := e.state.PutAccount(from[:], fromAcc); err != nil {
		return err
	}
	return e.state.PutAccount(to[:], toAcc)
}

// highlightTip issues the registry's add operation for the fresh tip, with
// the payment surplus attached. Transport faults are unrecoverable and
// propagate as-is; registry rejections are wrapped, never flattened.
func (e *Engine) highlightTip(from [20]byte, to [20]byte, id uint32, pizzas uint32, cost *big.Int) error {
	args, err := rlp.EncodeToBytes(&highlights.AddPizzaArgs{From: from, To: to, ID: id, Pizzas: pizzas})
	if err != nil {
		return err
	}
	return e.callRegistry(highlights.SelectorAddPizzaHighlight, args, cost)
}

func (e *Engine) callRegistry(selector invoke.Selector, args []byte, value *big.Int) error {
	if e.router == nil || e.registry == nil {
		return nil
	}
	res, err := e.router.Call(*e.registry, &invoke.Request{
		Selector: selector,
		Caller:   e.moduleAddr,
		Value:    cloneBigInt(value),
		Args:     args,
	})
	if err != nil {
		return err
	}
	if !res.OK() {
		return &HighlightError{Err: highlights.ErrorFromStatus(res.Status)}
	}
	return nil
}

func (e *Engine) relayGate(caller [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if caller != e.operator {
		return &HighlightError{Err: highlights.ErrAccessDenied}
	}
	if e.registry == nil {
		return errNilRegistry
	}
	return nil
}

// HighlightContent promotes a content item through the registry. The ledger
// owns the registry instance, so operator-facing registry mutations relay
// through here.
func (e *Engine) HighlightContent(caller [20]byte, author [20]byte, id uint32) error {
	if err := e.relayGate(caller); err != nil {
		return err
	}
	args, err := rlp.EncodeToBytes(&highlights.AddContentArgs{Author: author, ID: id})
	if err != nil {
		return err
	}
	return e.callRegistry(highlights.SelectorAddContentHighlight, args, nil)
}

// RemovePizzaHighlight clears the pizza highlight for a submitter through the
// registry.
func (e *Engine) RemovePizzaHighlight(caller [20]byte, from [20]byte) error {
	if err := e.relayGate(caller); err != nil {
		return err
	}
	args, err := rlp.EncodeToBytes(&highlights.AuthorArgs{Author: from})
	if err != nil {
		return err
	}
	return e.callRegistry(highlights.SelectorDeletePizzaHighlight, args, nil)
}

// RemoveContentHighlight clears the content highlight for an author through
// the registry.
func (e *Engine) RemoveContentHighlight(caller [20]byte, author [20]byte) error {
	if err := e.relayGate(caller); err != nil {
		return err
	}
	args, err := rlp.EncodeToBytes(&highlights.AuthorArgs{Author: author})
	if err != nil {
		return err
	}
	return e.callRegistry(highlights.SelectorDeleteContentHighlight, args, nil)
}

// BalanceOf returns the ledger-local balance credited to the owner, zero when
// absent. No side effects.
func (e *Engine) BalanceOf(owner [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.state.TipperBalanceGet(owner)
}

// Submitters returns a copy of the insertion-ordered audit list of everyone
// who has ever tipped.
func (e *Engine) Submitters() ([][20]byte, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	list, err := e.state.TipperSubmittersGet()
	if err != nil {
		return nil, err
	}
	out := make([][20]byte, len(list))
	copy(out, list)
	return out, nil
}

// TipByID returns the record stored under the sequence id, if any.
func (e *Engine) TipByID(id uint32) (*Tip, bool, error) {
	if e == nil || e.state == nil {
		return nil, false, errNilState
	}
	return e.state.TipperTipGet(id)
}

// TipBySubmitter returns the active record for the submitter, if any.
func (e *Engine) TipBySubmitter(addr [20]byte) (*Tip, bool, error) {
	if e == nil || e.state == nil {
		return nil, false, errNilState
	}
	id, found, err := e.state.TipperSubmitterIDGet(addr)
	if err != nil || !found {
		return nil, false, err
	}
	return e.state.TipperTipGet(id)
}

// Terminate releases the ledger. Permitted only for the operator and only
// while no tip records exist; anything else is a no-op. On success the module
// account balance is paid out to the caller and the ledger goes permanently
// inert.
func (e *Engine) Terminate(caller [20]byte) (bool, error) {
	if e == nil || e.state == nil {
		return false, errNilState
	}
	meta, err := e.state.TipperMetaGet()
	if err != nil {
		return false, err
	}
	if meta.Terminated || caller != e.operator || meta.Records != 0 {
		return false, nil
	}
	moduleAcc, err := e.state.GetAccount(e.moduleAddr[:])
	if err != nil {
		return false, err
	}
	moduleAcc = types.EnsureAccount(moduleAcc)
	if moduleAcc.Balance.Sign() > 0 {
		callerAcc, err := e.state.GetAccount(caller[:])
		if err != nil {
			return false, err
		}
		callerAcc = types.EnsureAccount(callerAcc)
		callerAcc.Balance = new(big.Int).Add(callerAcc.Balance, moduleAcc.Balance)
		moduleAcc.Balance = big.NewInt(0)
		if err := e.state.PutAccount(caller[:], callerAcc); err != nil {
			return false, err
		}
		if err := e.state.PutAccount(e.moduleAddr[:], moduleAcc); err != nil {
			return false, err
		}
	}
	meta.Terminated = true
	if err := e.state.TipperMetaPut(meta); err != nil {
		return false, err
	}
	return true, nil
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(WrapEvent(evt))
}
