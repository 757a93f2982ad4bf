package core

import (
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"pizzachain/core/events"
	"pizzachain/core/state"
	"pizzachain/native/highlights"
	"pizzachain/native/invoke"
	"pizzachain/native/oracle"
	"pizzachain/native/tipper"
	"pizzachain/observability"
	"pizzachain/storage"
)

// ModuleAddress derives the deterministic address a native module is deployed
// at from its stable label.
func ModuleAddress(label string) [20]byte {
	hash := ethcrypto.Keccak256([]byte("module/" + label))
	var addr [20]byte
	copy(addr[:], hash[12:])
	return addr
}

// Config captures the construction parameters of the node's ledger deployment.
type Config struct {
	// Version is the ledger protocol version byte.
	Version uint8
	// PricePerPizza is the fixed per-unit price, unsigned 128-bit.
	PricePerPizza *big.Int
	// AllowMultipleTips disables the duplicate-submission guard.
	AllowMultipleTips bool
	// RegistryEnabled deploys the highlight registry alongside the ledger.
	// When false, tips settle without any highlighting step.
	RegistryEnabled bool
	// Operator may terminate the ledger and drive registry mutations.
	Operator [20]byte
	// OracleUpdater may publish oracle price points. Zero means the
	// operator doubles as updater.
	OracleUpdater [20]byte
}

// Node hosts the tipper ledger, the highlight registry and the price oracle
// over a shared key-value store. Invocations run one at a time to completion;
// each mutating invocation executes against a write overlay that commits on
// success or application-level rejection and is discarded entirely on a
// transport fault, so a fatal cross-module failure never leaves partial state.
type Node struct {
	mu      sync.Mutex
	db      storage.Database
	emitter events.Emitter
	logger  *slog.Logger
	metrics *observability.LedgerMetrics
	cfg     Config

	tipperAddr    [20]byte
	registryAddr  [20]byte
	oracleAddr    [20]byte
	registryOwner [20]byte
	oracleUpdater [20]byte
}

// NewNode wires the ledger deployment over the database. When the registry is
// enabled its owner is recorded on first boot: the ledger module instantiates
// the registry, so the ledger's own address becomes the owner.
func NewNode(db storage.Database, cfg Config) (*Node, error) {
	if db == nil {
		return nil, errors.New("node: database required")
	}
	if cfg.PricePerPizza == nil {
		cfg.PricePerPizza = big.NewInt(0)
	}
	node := &Node{
		db:            db,
		emitter:       events.NoopEmitter{},
		logger:        slog.Default(),
		metrics:       observability.Ledger(),
		cfg:           cfg,
		tipperAddr:    ModuleAddress("tipper"),
		registryAddr:  ModuleAddress("highlights"),
		oracleAddr:    ModuleAddress("oracle"),
		oracleUpdater: cfg.OracleUpdater,
	}
	if node.oracleUpdater == ([20]byte{}) {
		node.oracleUpdater = cfg.Operator
	}
	if cfg.RegistryEnabled {
		manager := state.NewManager(db)
		owner, found, err := manager.HighlightsOwnerGet()
		if err != nil {
			return nil, fmt.Errorf("node: load registry owner: %w", err)
		}
		if !found {
			owner = node.tipperAddr
			if err := manager.HighlightsOwnerPut(owner); err != nil {
				return nil, fmt.Errorf("node: record registry owner: %w", err)
			}
		}
		node.registryOwner = owner
	}
	return node, nil
}

// SetEmitter configures where settled invocations publish their events.
// Passing nil resets to a no-op emitter.
func (n *Node) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		n.emitter = events.NoopEmitter{}
		return
	}
	n.emitter = emitter
}

// SetLogger overrides the node logger.
func (n *Node) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	n.logger = logger
}

// TipperAddress returns the ledger module's address.
func (n *Node) TipperAddress() [20]byte { return n.tipperAddr }

// RegistryAddress returns the registry module's address.
func (n *Node) RegistryAddress() [20]byte { return n.registryAddr }

// bufferedEmitter holds events back until the invocation's overlay commits,
// so a discarded invocation publishes nothing.
type bufferedEmitter struct {
	pending []events.Event
}

func (b *bufferedEmitter) Emit(evt events.Event) { b.pending = append(b.pending, evt) }

type frame struct {
	overlay  *storage.Overlay
	manager  *state.Manager
	buffer   *bufferedEmitter
	ledger   *tipper.Engine
	registry *highlights.Engine
	oracle   *oracle.Engine
}

func (n *Node) newFrame() *frame {
	overlay := storage.NewOverlay(n.db)
	manager := state.NewManager(overlay)
	buffer := &bufferedEmitter{}

	ledger := tipper.NewEngine(n.cfg.Version, n.cfg.PricePerPizza)
	ledger.SetState(manager)
	ledger.SetEmitter(buffer)
	ledger.SetModuleAddress(n.tipperAddr)
	ledger.SetOperator(n.cfg.Operator)
	ledger.SetAllowMultipleTips(n.cfg.AllowMultipleTips)

	router := invoke.NewRouter()

	var registry *highlights.Engine
	if n.cfg.RegistryEnabled {
		registry = highlights.NewEngine(n.registryOwner)
		registry.SetState(manager)
		registry.SetEmitter(buffer)
		router.Deploy(n.registryAddr, highlights.Contract(registry))
		registryAddr := n.registryAddr
		ledger.SetRegistry(router, &registryAddr)
	}

	oracleEngine := oracle.NewEngine(n.oracleUpdater)
	oracleEngine.SetState(manager)
	router.Deploy(n.oracleAddr, oracle.Contract(oracleEngine))

	return &frame{
		overlay:  overlay,
		manager:  manager,
		buffer:   buffer,
		ledger:   ledger,
		registry: registry,
		oracle:   oracleEngine,
	}
}

// isApplicationError separates caller-correctable rejections from transport
// and backend faults. Rejections commit whatever the invocation already
// settled; everything else discards the overlay.
func isApplicationError(err error) bool {
	var insufficient *tipper.InsufficientAmountError
	var highlightErr *tipper.HighlightError
	switch {
	case errors.As(err, &insufficient), errors.As(err, &highlightErr):
		return true
	case errors.Is(err, tipper.ErrAlreadyTipped),
		errors.Is(err, tipper.ErrTipTransfer),
		errors.Is(err, tipper.ErrTerminated):
		return true
	case errors.Is(err, highlights.ErrAlreadyHighlighted),
		errors.Is(err, highlights.ErrHighlightNotFound),
		errors.Is(err, highlights.ErrAccessDenied),
		errors.Is(err, oracle.ErrAccessDenied):
		return true
	}
	return false
}

// execute runs one mutating invocation to completion under the node lock.
func (n *Node) execute(op func(f *frame) error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	f := n.newFrame()
	err := op(f)
	if err != nil && !isApplicationError(err) {
		f.overlay.Discard()
		return err
	}
	if commitErr := f.overlay.Commit(); commitErr != nil {
		return commitErr
	}
	for _, evt := range f.buffer.pending {
		n.emitter.Emit(evt)
	}
	return err
}

func rejectionReason(err error) string {
	var insufficient *tipper.InsufficientAmountError
	switch {
	case errors.Is(err, tipper.ErrAlreadyTipped):
		return "already_tipped"
	case errors.As(err, &insufficient):
		return "insufficient_amount"
	case errors.Is(err, tipper.ErrTipTransfer):
		return "transfer_failed"
	case errors.Is(err, tipper.ErrTerminated):
		return "terminated"
	default:
		return "fault"
	}
}

func highlightFailureReason(err error) string {
	switch {
	case errors.Is(err, highlights.ErrAlreadyHighlighted):
		return "already_highlighted"
	case errors.Is(err, highlights.ErrHighlightNotFound):
		return "not_found"
	case errors.Is(err, highlights.ErrAccessDenied):
		return "access_denied"
	default:
		return "fault"
	}
}

// Tip processes one tip invocation end to end and returns the sequence id of
// the settled record. A *tipper.HighlightError return means the record did
// settle but the registry rejected the highlight.
func (n *Node) Tip(caller [20]byte, value *big.Int, message string, to [20]byte, pizzas uint32) (uint32, error) {
	var id uint32
	err := n.execute(func(f *frame) error {
		var err error
		id, err = f.ledger.Tip(caller, value, message, to, pizzas)
		return err
	})
	var highlightErr *tipper.HighlightError
	switch {
	case err == nil:
		n.metrics.TipAccepted()
		if n.cfg.RegistryEnabled {
			n.metrics.HighlightApplied("pizza")
		}
		n.logger.Info("tip settled", slog.Uint64("id", uint64(id)), slog.Uint64("pizzas", uint64(pizzas)))
	case errors.As(err, &highlightErr):
		n.metrics.TipAccepted()
		n.metrics.HighlightFailed(highlightFailureReason(err))
		n.logger.Warn("tip settled, highlight rejected", slog.Uint64("id", uint64(id)), slog.Any("error", err))
	default:
		n.metrics.TipRejected(rejectionReason(err))
		n.logger.Warn("tip rejected", slog.Any("error", err))
	}
	return id, err
}

// Terminate releases the ledger when the operator calls it before any record
// exists. Any other caller or a non-empty ledger makes it a no-op.
func (n *Node) Terminate(caller [20]byte) (bool, error) {
	var done bool
	err := n.execute(func(f *frame) error {
		var err error
		done, err = f.ledger.Terminate(caller)
		return err
	})
	if err == nil && done {
		n.logger.Info("ledger terminated")
	}
	return done, err
}

// HighlightContent promotes a content item through the operator relay.
func (n *Node) HighlightContent(caller [20]byte, author [20]byte, id uint32) error {
	err := n.execute(func(f *frame) error {
		return f.ledger.HighlightContent(caller, author, id)
	})
	if err == nil {
		n.metrics.HighlightApplied("content")
	} else if isApplicationError(err) {
		n.metrics.HighlightFailed(highlightFailureReason(err))
	}
	return err
}

// RemovePizzaHighlight clears a submitter's pizza highlight through the
// operator relay.
func (n *Node) RemovePizzaHighlight(caller [20]byte, from [20]byte) error {
	err := n.execute(func(f *frame) error {
		return f.ledger.RemovePizzaHighlight(caller, from)
	})
	if err != nil && isApplicationError(err) {
		n.metrics.HighlightFailed(highlightFailureReason(err))
	}
	return err
}

// RemoveContentHighlight clears an author's content highlight through the
// operator relay.
func (n *Node) RemoveContentHighlight(caller [20]byte, author [20]byte) error {
	err := n.execute(func(f *frame) error {
		return f.ledger.RemoveContentHighlight(caller, author)
	})
	if err != nil && isApplicationError(err) {
		n.metrics.HighlightFailed(highlightFailureReason(err))
	}
	return err
}

// SetPizzaPrice publishes an oracle price point.
func (n *Node) SetPizzaPrice(caller [20]byte, id uint32, confidence uint64, price *big.Int) error {
	return n.execute(func(f *frame) error {
		return f.oracle.SetPrice(caller, id, confidence, price)
	})
}

// Credit funds an account balance directly. Genesis-style helper; attached
// payments are debited from these balances.
func (n *Node) Credit(addr [20]byte, amount *big.Int) error {
	return n.execute(func(f *frame) error {
		account, err := f.manager.GetAccount(addr[:])
		if err != nil {
			return err
		}
		account.Balance = new(big.Int).Add(account.Balance, amount)
		return f.manager.PutAccount(addr[:], account)
	})
}

func (n *Node) readFrame() *frame {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.newFrame()
}

// BalanceOf returns the ledger-local balance credited to the owner.
func (n *Node) BalanceOf(owner [20]byte) (*big.Int, error) {
	return n.readFrame().ledger.BalanceOf(owner)
}

// AccountBalance returns the chain-native account balance for the address.
func (n *Node) AccountBalance(addr [20]byte) (*big.Int, error) {
	account, err := n.readFrame().manager.GetAccount(addr[:])
	if err != nil {
		return nil, err
	}
	return account.Balance, nil
}

// Submitters returns the insertion-ordered audit list of tip submitters.
func (n *Node) Submitters() ([][20]byte, error) {
	return n.readFrame().ledger.Submitters()
}

// TipByID returns the record stored under the sequence id, if any.
func (n *Node) TipByID(id uint32) (*tipper.Tip, bool, error) {
	return n.readFrame().ledger.TipByID(id)
}

// TipBySubmitter returns the active record for the submitter, if any.
func (n *Node) TipBySubmitter(addr [20]byte) (*tipper.Tip, bool, error) {
	return n.readFrame().ledger.TipBySubmitter(addr)
}

// PizzaHighlight returns the highlighted tip id for the submitter, if any.
func (n *Node) PizzaHighlight(from [20]byte) (uint32, bool, error) {
	f := n.readFrame()
	if f.registry == nil {
		return 0, false, nil
	}
	return f.registry.PizzaHighlight(from)
}

// ContentHighlight returns the highlighted content id for the author, if any.
func (n *Node) ContentHighlight(author [20]byte) (uint32, bool, error) {
	f := n.readFrame()
	if f.registry == nil {
		return 0, false, nil
	}
	return f.registry.ContentHighlight(author)
}

// Highlighted returns the registry's audit list of highlighted identities.
func (n *Node) Highlighted() ([][20]byte, error) {
	f := n.readFrame()
	if f.registry == nil {
		return nil, nil
	}
	return f.registry.Highlighted()
}

// PizzaPrice returns the oracle record for the id, if any.
func (n *Node) PizzaPrice(id uint32) (*oracle.PizzaPrice, bool, error) {
	return n.readFrame().oracle.Price(id)
}
