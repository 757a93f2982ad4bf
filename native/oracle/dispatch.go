package oracle

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"pizzachain/native/invoke"
)

// OpGetPrice is the oracle's only wire operation. The code collides with the
// registry's legacy get-by-author on purpose; dispatch tables are per module
// address, not global.
const OpGetPrice uint32 = 0x00000005

var SelectorGetPrice = invoke.NewSelector(OpGetPrice)

// PriceArgs is the RLP argument payload for OpGetPrice.
type PriceArgs struct {
	ID uint32
}

// PriceLookup is the RLP result payload of OpGetPrice.
type PriceLookup struct {
	Found      bool
	Confidence uint64
	Price      *big.Int
}

// Contract builds the oracle's dispatch table over the supplied engine.
func Contract(engine *Engine) *invoke.Contract {
	contract := invoke.NewContract("oracle")

	contract.Register(SelectorGetPrice, func(req *invoke.Request) (invoke.Result, error) {
		var args PriceArgs
		if err := rlp.DecodeBytes(req.Args, &args); err != nil {
			return invoke.Result{}, fmt.Errorf("%v: %w", err, invoke.ErrBadArguments)
		}
		record, found, err := engine.Price(args.ID)
		if err != nil {
			return invoke.Result{}, err
		}
		lookup := &PriceLookup{Found: found, Price: big.NewInt(0)}
		if found {
			lookup.Confidence = record.Confidence
			lookup.Price = record.Price
		}
		data, err := rlp.EncodeToBytes(lookup)
		if err != nil {
			return invoke.Result{}, err
		}
		return invoke.Result{Status: invoke.StatusOK, Data: data}, nil
	})

	return contract
}
