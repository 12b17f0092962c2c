package swaplayer

import (
	"fmt"
	"log/slog"

	"github.com/wormholelabs-xyz/swap-layer/state"
	"github.com/wormholelabs-xyz/swap-layer/swap"
	"github.com/wormholelabs-xyz/swap-layer/txsystem"
)

var _ txsystem.Module = (*Module)(nil)

// Module implements the settlement engine transaction handlers on top of
// the generic transaction system.
type Module struct {
	state          *state.State
	swapExec       *swap.Executor
	holdingDeposit uint64
	log            *slog.Logger
}

func NewModule(observe txsystem.Observability, opts ...Option) (*Module, error) {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	if options.state == nil {
		return nil, fmt.Errorf("state is nil")
	}
	if options.venue == nil {
		return nil, fmt.Errorf("swap venue is nil")
	}
	return &Module{
		state:          options.state,
		swapExec:       swap.NewExecutor(options.venue),
		holdingDeposit: options.holdingDeposit,
		log:            observe.Logger(),
	}, nil
}

func (m *Module) TxHandlers() map[string]txsystem.TxExecutor {
	return map[string]txsystem.TxExecutor{
		PayloadTypeStageOutbound:          txsystem.NewTxHandler(m.validateStageOutboundTx, m.executeStageOutboundTx),
		PayloadTypeGrantTransferAuthority: txsystem.NewTxHandler(m.validateGrantTransferAuthorityTx, m.executeGrantTransferAuthorityTx),

		PayloadTypeCompleteTransferDirect:  txsystem.NewTxHandler(m.validateCompleteTransferDirectTx, m.executeCompleteTransferDirectTx),
		PayloadTypeCompleteTransferRelay:   txsystem.NewTxHandler(m.validateCompleteTransferRelayTx, m.executeCompleteTransferRelayTx),
		PayloadTypeCompleteTransferPayload: txsystem.NewTxHandler(m.validateCompleteTransferPayloadTx, m.executeCompleteTransferPayloadTx),
		PayloadTypeCompleteSwapDirect:      txsystem.NewTxHandler(m.validateCompleteSwapDirectTx, m.executeCompleteSwapDirectTx),
		PayloadTypeCompleteSwapRelay:       txsystem.NewTxHandler(m.validateCompleteSwapRelayTx, m.executeCompleteSwapRelayTx),
		PayloadTypeCompleteSwapPayload:     txsystem.NewTxHandler(m.validateCompleteSwapPayloadTx, m.executeCompleteSwapPayloadTx),
		PayloadTypeReleaseInbound:          txsystem.NewTxHandler(m.validateReleaseInboundTx, m.executeReleaseInboundTx),

		PayloadTypeUpdateFeeRecipient:       txsystem.NewTxHandler(m.validateUpdateFeeRecipientTx, m.executeUpdateFeeRecipientTx),
		PayloadTypeUpdateOwnerAssistant:     txsystem.NewTxHandler(m.validateUpdateOwnerAssistantTx, m.executeUpdateOwnerAssistantTx),
		PayloadTypeSubmitOwnershipTransfer:  txsystem.NewTxHandler(m.validateSubmitOwnershipTransferTx, m.executeSubmitOwnershipTransferTx),
		PayloadTypeConfirmOwnershipTransfer: txsystem.NewTxHandler(m.validateConfirmOwnershipTransferTx, m.executeConfirmOwnershipTransferTx),
	}
}
