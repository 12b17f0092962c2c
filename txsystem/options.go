package txsystem

import (
	"github.com/wormholelabs-xyz/swap-layer/state"
)

type (
	Options struct {
		state *state.State
	}

	Option func(*Options)
)

func DefaultOptions() *Options {
	return &Options{
		state: state.NewEmptyState(),
	}
}

func WithState(s *state.State) Option {
	return func(o *Options) {
		o.state = s
	}
}
