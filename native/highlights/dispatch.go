package highlights

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"pizzachain/native/invoke"
)

// Operation codes for the registry's binary call interface. Selector 5 is a
// legacy alias for the pizza-highlight lookup kept for old clients; the price
// oracle uses the same code in its own dispatch table.
const (
	OpDeleteContentHighlight uint32 = 0x00000003
	OpDeletePizzaHighlight   uint32 = 0x00000004
	OpGetByAuthor            uint32 = 0x00000005
	OpGetPizzaHighlight      uint32 = 0x00000006
	OpAddPizzaHighlight      uint32 = 0x00000007
	OpGetContentHighlight    uint32 = 0x00000008
	OpAddContentHighlight    uint32 = 0x00000009
)

var (
	SelectorDeleteContentHighlight = invoke.NewSelector(OpDeleteContentHighlight)
	SelectorDeletePizzaHighlight   = invoke.NewSelector(OpDeletePizzaHighlight)
	SelectorGetByAuthor            = invoke.NewSelector(OpGetByAuthor)
	SelectorGetPizzaHighlight      = invoke.NewSelector(OpGetPizzaHighlight)
	SelectorAddPizzaHighlight      = invoke.NewSelector(OpAddPizzaHighlight)
	SelectorGetContentHighlight    = invoke.NewSelector(OpGetContentHighlight)
	SelectorAddContentHighlight    = invoke.NewSelector(OpAddContentHighlight)
)

// AddPizzaArgs is the RLP argument payload for OpAddPizzaHighlight.
type AddPizzaArgs struct {
	From   [20]byte
	To     [20]byte
	ID     uint32
	Pizzas uint32
}

// AddContentArgs is the RLP argument payload for OpAddContentHighlight.
type AddContentArgs struct {
	Author [20]byte
	ID     uint32
}

// AuthorArgs is the RLP argument payload for the lookup and delete operations.
type AuthorArgs struct {
	Author [20]byte
}

// HighlightLookup is the RLP result payload of the lookup operations.
type HighlightLookup struct {
	Found bool
	ID    uint32
}

func decodeArgs(raw []byte, out interface{}) error {
	if err := rlp.DecodeBytes(raw, out); err != nil {
		return fmt.Errorf("%v: %w", err, invoke.ErrBadArguments)
	}
	return nil
}

func resultFor(err error) (invoke.Result, error) {
	if err == nil {
		return invoke.Result{Status: invoke.StatusOK}, nil
	}
	if code, ok := StatusFromError(err); ok {
		return invoke.Result{Status: code}, nil
	}
	return invoke.Result{}, err
}

// Contract builds the registry's dispatch table over the supplied engine.
// Engine validation errors become result status codes; undecodable arguments
// and state failures stay transport-fatal.
func Contract(engine *Engine) *invoke.Contract {
	contract := invoke.NewContract("highlights")

	contract.Register(SelectorAddPizzaHighlight, func(req *invoke.Request) (invoke.Result, error) {
		var args AddPizzaArgs
		if err := decodeArgs(req.Args, &args); err != nil {
			return invoke.Result{}, err
		}
		return resultFor(engine.AddPizzaHighlight(req.Caller, args.From, args.To, args.ID, args.Pizzas))
	})

	contract.Register(SelectorAddContentHighlight, func(req *invoke.Request) (invoke.Result, error) {
		var args AddContentArgs
		if err := decodeArgs(req.Args, &args); err != nil {
			return invoke.Result{}, err
		}
		return resultFor(engine.AddContentHighlight(req.Caller, args.Author, args.ID))
	})

	contract.Register(SelectorDeletePizzaHighlight, func(req *invoke.Request) (invoke.Result, error) {
		var args AuthorArgs
		if err := decodeArgs(req.Args, &args); err != nil {
			return invoke.Result{}, err
		}
		return resultFor(engine.DeletePizzaHighlight(req.Caller, args.Author))
	})

	contract.Register(SelectorDeleteContentHighlight, func(req *invoke.Request) (invoke.Result, error) {
		var args AuthorArgs
		if err := decodeArgs(req.Args, &args); err != nil {
			return invoke.Result{}, err
		}
		return resultFor(engine.DeleteContentHighlight(req.Caller, args.Author))
	})

	lookupPizza := func(req *invoke.Request) (invoke.Result, error) {
		var args AuthorArgs
		if err := decodeArgs(req.Args, &args); err != nil {
			return invoke.Result{}, err
		}
		id, found, err := engine.PizzaHighlight(args.Author)
		if err != nil {
			return invoke.Result{}, err
		}
		data, err := rlp.EncodeToBytes(&HighlightLookup{Found: found, ID: id})
		if err != nil {
			return invoke.Result{}, err
		}
		return invoke.Result{Status: invoke.StatusOK, Data: data}, nil
	}
	contract.Register(SelectorGetPizzaHighlight, lookupPizza)
	contract.Register(SelectorGetByAuthor, lookupPizza)

	contract.Register(SelectorGetContentHighlight, func(req *invoke.Request) (invoke.Result, error) {
		var args AuthorArgs
		if err := decodeArgs(req.Args, &args); err != nil {
			return invoke.Result{}, err
		}
		id, found, err := engine.ContentHighlight(args.Author)
		if err != nil {
			return invoke.Result{}, err
		}
		data, err := rlp.EncodeToBytes(&HighlightLookup{Found: found, ID: id})
		if err != nil {
			return invoke.Result{}, err
		}
		return invoke.Result{Status: invoke.StatusOK, Data: data}, nil
	})

	return contract
}
