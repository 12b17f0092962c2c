package swap

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/wormholelabs-xyz/swap-layer/types"
	"github.com/wormholelabs-xyz/swap-layer/util"
)

// ConstantProductVenue is a minimal in-process swap venue backed by constant
// product pools. It exists so the node can run self-contained and so tests
// have a deterministic venue; the production routing logic lives outside
// this engine.
type ConstantProductVenue struct {
	pools map[pairKey]*pool
}

type pairKey struct {
	a, b types.Address
}

type pool struct {
	reserveA uint64
	reserveB uint64
}

var (
	ErrNoPool           = errors.New("no pool for asset pair")
	ErrSlippageExceeded = errors.New("amount out below minimum")
)

const maxBps = 10_000

func NewConstantProductVenue() *ConstantProductVenue {
	return &ConstantProductVenue{pools: map[pairKey]*pool{}}
}

// AddPool registers a pool with the given reserves. The pool serves swaps in
// both directions.
func (v *ConstantProductVenue) AddPool(assetA, assetB types.Address, reserveA, reserveB uint64) {
	v.pools[orderedKey(assetA, assetB)] = &pool{reserveA: reserveA, reserveB: reserveB}
}

func (v *ConstantProductVenue) Swap(route []Hop, srcAsset, dstAsset types.Address, args Args) (uint64, error) {
	p, ok := v.pools[orderedKey(srcAsset, dstAsset)]
	if !ok {
		return 0, fmt.Errorf("%w: %s/%s", ErrNoPool, srcAsset, dstAsset)
	}
	reserveIn, reserveOut := p.reserveA, p.reserveB
	if orderedKey(srcAsset, dstAsset).a != srcAsset {
		reserveIn, reserveOut = reserveOut, reserveIn
	}

	// out = reserveOut * in / (reserveIn + in), 256 bit intermediates
	in := uint256.NewInt(args.InAmount)
	num := new(uint256.Int).Mul(uint256.NewInt(reserveOut), in)
	den := new(uint256.Int).Add(uint256.NewInt(reserveIn), in)
	if den.IsZero() {
		return 0, fmt.Errorf("%w: empty pool", ErrNoPool)
	}
	out := new(uint256.Int).Div(num, den)
	if !out.IsUint64() {
		return 0, errors.New("amount out overflows uint64")
	}
	amountOut := out.Uint64()

	minOut := minimumOut(args.QuotedOutAmount, args.SlippageBps)
	if amountOut < minOut {
		return 0, fmt.Errorf("%w: got %d, want at least %d", ErrSlippageExceeded, amountOut, minOut)
	}

	newIn, ok := util.AddUint64(reserveIn, args.InAmount)
	if !ok {
		return 0, fmt.Errorf("pool reserve overflows uint64: %d + %d", reserveIn, args.InAmount)
	}
	newOut, ok := util.SubUint64(reserveOut, amountOut)
	if !ok {
		return 0, fmt.Errorf("pool reserve underflows: %d - %d", reserveOut, amountOut)
	}
	if orderedKey(srcAsset, dstAsset).a == srcAsset {
		p.reserveA, p.reserveB = newIn, newOut
	} else {
		p.reserveB, p.reserveA = newIn, newOut
	}
	return amountOut, nil
}

func minimumOut(quoted uint64, slippageBps uint16) uint64 {
	if slippageBps >= maxBps {
		return 0
	}
	res := new(uint256.Int).Mul(uint256.NewInt(quoted), uint256.NewInt(uint64(maxBps-slippageBps)))
	res.Div(res, uint256.NewInt(maxBps))
	return res.Uint64()
}

func orderedKey(a, b types.Address) pairKey {
	if string(a[:]) < string(b[:]) {
		return pairKey{a: a, b: b}
	}
	return pairKey{a: b, b: a}
}
