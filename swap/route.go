// Package swap wraps the external swap execution venue: the engine validates
// a caller-provided route against its own expectations, optionally overrides
// the quoted amounts with parameters fixed at staging time, and only then
// lets the venue move assets.
package swap

import (
	"errors"
	"fmt"

	"github.com/wormholelabs-xyz/swap-layer/types"
)

type (
	// Route is the caller-declared execution route: which custody accounts
	// the venue may debit and credit, under which transfer authority, and
	// through which hops.
	Route struct {
		_                 struct{} `cbor:",toarray"`
		TransferAuthority types.UnitID
		SrcCustodyToken   types.UnitID
		DstCustodyToken   types.UnitID
		SrcAsset          types.Address
		DstAsset          types.Address
		RoutePlan         []Hop
	}

	Hop struct {
		_            struct{} `cbor:",toarray"`
		DexProgramID types.Address
	}

	// Args are the quoted swap arguments as submitted by the caller. For all
	// asset-converting completions the engine overrides InAmount,
	// QuotedOutAmount and SlippageBps before execution.
	Args struct {
		_               struct{} `cbor:",toarray"`
		InAmount        uint64
		QuotedOutAmount uint64
		SlippageBps     uint16
		PlatformFeeBps  uint16
	}

	// Expectations are what the engine knows the route must bind to.
	Expectations struct {
		TransferAuthority types.UnitID
		SrcCustodyToken   types.UnitID
		DstCustodyToken   types.UnitID
		SrcAsset          types.Address
		DstAsset          types.Address
	}

	// Override replaces caller-declared amounts with parameters fixed at
	// staging time. Slippage is forced to zero because the limit amount was
	// already fixed when the transfer was staged.
	Override struct {
		InAmount    uint64
		LimitAmount uint64
		// PinnedDex, when set, requires the route to be a single hop
		// targeting exactly this venue.
		PinnedDex *types.Address
	}

	// Venue is the injected quote-and-execute capability of the external
	// swap venue. Implementations must respect the minimum-out bound derived
	// from the quoted amount and slippage.
	Venue interface {
		Swap(route []Hop, srcAsset, dstAsset types.Address, args Args) (amountOut uint64, err error)
	}

	// Executor validates routes and runs swaps through a Venue.
	Executor struct {
		venue Venue
	}
)

var (
	ErrInvalidTransferAuthority = errors.New("invalid swap transfer authority")
	ErrInvalidSrcCustodyToken   = errors.New("invalid source swap custody token")
	ErrInvalidDstCustodyToken   = errors.New("invalid destination swap custody token")
	ErrInvalidSrcAsset          = errors.New("invalid source asset")
	ErrInvalidDstAsset          = errors.New("invalid destination asset")
	ErrNotDirectRoute           = errors.New("pinned venue requires a direct route")
	ErrDexProgramMismatch       = errors.New("route does not target the pinned venue")
	ErrEmptyRoutePlan           = errors.New("route plan is empty")
)

func NewExecutor(venue Venue) *Executor {
	return &Executor{venue: venue}
}

// ExecuteExactIn validates the route against the engine's expectations,
// applies the override if any, and executes the swap. It fails closed: any
// mismatch aborts before the venue is invoked.
func (e *Executor) ExecuteExactIn(route Route, args Args, expect Expectations, override *Override) (uint64, error) {
	if !route.TransferAuthority.Eq(expect.TransferAuthority) {
		return 0, ErrInvalidTransferAuthority
	}
	if !route.SrcCustodyToken.Eq(expect.SrcCustodyToken) {
		return 0, ErrInvalidSrcCustodyToken
	}
	if !route.DstCustodyToken.Eq(expect.DstCustodyToken) {
		return 0, ErrInvalidDstCustodyToken
	}
	if !route.SrcAsset.Eq(expect.SrcAsset) {
		return 0, ErrInvalidSrcAsset
	}
	if !route.DstAsset.Eq(expect.DstAsset) {
		return 0, ErrInvalidDstAsset
	}
	if len(route.RoutePlan) == 0 {
		return 0, ErrEmptyRoutePlan
	}

	if override != nil {
		args.InAmount = override.InAmount
		args.QuotedOutAmount = override.LimitAmount
		args.SlippageBps = 0

		if override.PinnedDex != nil {
			if len(route.RoutePlan) != 1 {
				return 0, ErrNotDirectRoute
			}
			if !route.RoutePlan[0].DexProgramID.Eq(*override.PinnedDex) {
				return 0, ErrDexProgramMismatch
			}
		}
	}

	amountOut, err := e.venue.Swap(route.RoutePlan, route.SrcAsset, route.DstAsset, args)
	if err != nil {
		return 0, fmt.Errorf("venue swap failed: %w", err)
	}
	return amountOut, nil
}
