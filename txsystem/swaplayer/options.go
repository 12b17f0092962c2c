package swaplayer

import (
	"github.com/wormholelabs-xyz/swap-layer/state"
	"github.com/wormholelabs-xyz/swap-layer/swap"
)

// DefaultHoldingDeposit is the native deposit taken from the relayer when
// it parks a payload fill, returned on release.
const DefaultHoldingDeposit = 2_030_000

type (
	Options struct {
		state          *state.State
		venue          swap.Venue
		holdingDeposit uint64
	}

	Option func(*Options)
)

func DefaultOptions() *Options {
	return &Options{
		holdingDeposit: DefaultHoldingDeposit,
	}
}

func WithState(s *state.State) Option {
	return func(o *Options) {
		o.state = s
	}
}

func WithVenue(v swap.Venue) Option {
	return func(o *Options) {
		o.venue = v
	}
}

func WithHoldingDeposit(deposit uint64) Option {
	return func(o *Options) {
		o.holdingDeposit = deposit
	}
}
