package txsystem

import (
	"github.com/wormholelabs-xyz/swap-layer/state"
	"github.com/wormholelabs-xyz/swap-layer/types"
)

type (
	// ExecutionContext provides additional context and info for tx validation
	// and execution.
	ExecutionContext interface {
		GetUnit(id types.UnitID, committed bool) (*state.Unit, error)
		CurrentRound() uint64
	}

	txExecutionContext struct {
		txs *GenericTxSystem
	}
)

func (ec txExecutionContext) GetUnit(id types.UnitID, committed bool) (*state.Unit, error) {
	return ec.txs.state.GetUnit(id, committed)
}

func (ec txExecutionContext) CurrentRound() uint64 {
	return ec.txs.currentRound
}
