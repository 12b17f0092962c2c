package swaplayer

import (
	"fmt"

	"github.com/wormholelabs-xyz/swap-layer/logger"
	"github.com/wormholelabs-xyz/swap-layer/messages"
	"github.com/wormholelabs-xyz/swap-layer/state"
	"github.com/wormholelabs-xyz/swap-layer/swap"
	"github.com/wormholelabs-xyz/swap-layer/txsystem"
	"github.com/wormholelabs-xyz/swap-layer/types"
)

func (m *Module) validateCompleteSwapDirectTx(tx *types.TransactionOrder, attr *CompleteSwapDirectAttributes, exeCtx txsystem.ExecutionContext) error {
	msg, err := m.fillMessage(exeCtx, tx.UnitID())
	if err != nil {
		return err
	}
	if _, ok := msg.RedeemMode.(messages.RedeemDirect); !ok {
		return ErrInvalidRedeemMode
	}
	outputSwap, _, err := swapOutput(msg.OutputToken)
	if err != nil {
		return err
	}
	return m.checkDeadline(outputSwap, exeCtx)
}

// Direct swap completion converts the full fill amount into the requested
// output asset and pays the result to the recipient. Anyone may execute it;
// the payout target is fixed by the message.
func (m *Module) executeCompleteSwapDirectTx(tx *types.TransactionOrder, attr *CompleteSwapDirectAttributes, exeCtx txsystem.ExecutionContext) (*types.ServerMetadata, error) {
	return m.completeSwap(tx, attr.Route, attr.Args, exeCtx, false)
}

func (m *Module) validateCompleteSwapRelayTx(tx *types.TransactionOrder, attr *CompleteSwapRelayAttributes, exeCtx txsystem.ExecutionContext) error {
	fill, err := m.preparedFill(exeCtx, tx.UnitID())
	if err != nil {
		return err
	}
	msg, err := messages.Decode(fill.RedeemerMessage)
	if err != nil {
		return fmt.Errorf("decoding redeemer message: %w", err)
	}
	relay, ok := msg.RedeemMode.(messages.RedeemRelay)
	if !ok {
		return ErrInvalidRedeemMode
	}
	outputSwap, _, err := swapOutput(msg.OutputToken)
	if err != nil {
		return err
	}
	if err := m.checkDeadline(outputSwap, exeCtx); err != nil {
		return err
	}
	if tx.Submitter().Eq(msg.Recipient) {
		return nil
	}
	if relay.RelayingFee > fill.Amount {
		return fmt.Errorf("fee %d, amount %d: %w", relay.RelayingFee, fill.Amount, ErrFeeExceedsAmount)
	}
	if dropoff := DenormalizeGasDropoff(relay.GasDropoff); dropoff > 0 {
		payer := tx.Submitter()
		payerNative, err := m.tokenAccount(exeCtx, NewTokenAccountID(payer, AssetGas), payer[:])
		if err != nil {
			return fmt.Errorf("relayer gas account: %w", err)
		}
		if payerNative.Balance < dropoff {
			return fmt.Errorf("gas dropoff %d with balance %d: %w", dropoff, payerNative.Balance, ErrInsufficientBalance)
		}
	}
	return nil
}

func (m *Module) executeCompleteSwapRelayTx(tx *types.TransactionOrder, attr *CompleteSwapRelayAttributes, exeCtx txsystem.ExecutionContext) (*types.ServerMetadata, error) {
	return m.completeSwap(tx, attr.Route, attr.Args, exeCtx, true)
}

func (m *Module) validateCompleteSwapPayloadTx(tx *types.TransactionOrder, attr *CompleteSwapPayloadAttributes, exeCtx txsystem.ExecutionContext) error {
	if initialized, err := m.stagedInboundInitialized(exeCtx, tx.UnitID()); err != nil || initialized {
		return err
	}
	msg, err := m.fillMessage(exeCtx, tx.UnitID())
	if err != nil {
		return err
	}
	if _, ok := msg.RedeemMode.(messages.RedeemPayload); !ok {
		return ErrInvalidRedeemMode
	}
	outputSwap, _, err := swapOutput(msg.OutputToken)
	if err != nil {
		return err
	}
	if err := m.checkDeadline(outputSwap, exeCtx); err != nil {
		return err
	}
	if m.holdingDeposit > 0 {
		payer := tx.Submitter()
		payerNative, err := m.tokenAccount(exeCtx, NewTokenAccountID(payer, AssetGas), payer[:])
		if err != nil {
			return fmt.Errorf("relayer gas account: %w", err)
		}
		if payerNative.Balance < m.holdingDeposit {
			return fmt.Errorf("holding deposit %d with balance %d: %w", m.holdingDeposit, payerNative.Balance, ErrInsufficientBalance)
		}
	}
	return nil
}

// Payload swap completion converts the fill and parks the swapped output
// in a staged inbound record for the recipient to release. Like the plain
// payload completion, repeating it on an initialized record is a no-op.
func (m *Module) executeCompleteSwapPayloadTx(tx *types.TransactionOrder, attr *CompleteSwapPayloadAttributes, exeCtx txsystem.ExecutionContext) (*types.ServerMetadata, error) {
	fillID := tx.UnitID()
	if initialized, err := m.stagedInboundInitialized(exeCtx, fillID); err != nil {
		return nil, err
	} else if initialized {
		stagedID := NewStagedInboundID(fillID)
		m.log.Debug("inbound record already initialized", logger.UnitID(stagedID))
		return &types.ServerMetadata{
			TargetUnits:      []types.UnitID{stagedID},
			SuccessIndicator: types.TxStatusSuccessful,
		}, nil
	}
	fill, err := m.preparedFill(exeCtx, fillID)
	if err != nil {
		return nil, err
	}
	msg, err := messages.Decode(fill.RedeemerMessage)
	if err != nil {
		return nil, fmt.Errorf("decoding redeemer message: %w", err)
	}
	payload := msg.RedeemMode.(messages.RedeemPayload)
	amount, consume, err := m.consumePreparedFill(exeCtx, fillID)
	if err != nil {
		return nil, err
	}
	amountOut, dstAsset, err := m.runFillSwap(fillID, amount, msg.OutputToken, attr.Route, attr.Args)
	if err != nil {
		return nil, err
	}

	payer := tx.Submitter()
	stagedID := NewStagedInboundID(fillID)
	custodyID := NewStagedCustodyTokenID(stagedID)
	actions := consume
	if m.holdingDeposit > 0 {
		actions = append(actions, debitToken(NewTokenAccountID(payer, AssetGas), m.holdingDeposit))
	}
	actions = append(actions,
		state.AddUnit(stagedID, msg.Recipient[:], &StagedInboundData{
			CustodyToken: custodyID,
			StagedBy:     payer,
			SourceChain:  fill.SourceChain,
			Sender:       payload.Sender,
			Recipient:    msg.Recipient,
			Payload:      payload.Payload,
			Deposit:      m.holdingDeposit,
		}),
		creditToken(custodyID, types.Bytes(stagedID), dstAsset, amountOut),
	)
	if err := m.state.Apply(actions...); err != nil {
		return nil, fmt.Errorf("staging swapped inbound transfer: %w", err)
	}
	m.log.Debug("staged swapped inbound transfer", logger.UnitID(stagedID), logger.Data(amountOut))
	return &types.ServerMetadata{
		TargetUnits:      []types.UnitID{fillID, stagedID, custodyID},
		SuccessIndicator: types.TxStatusSuccessful,
	}, nil
}

// completeSwap is the shared direct/relay swap completion: consume the
// fill, take the relaying fee in usdc off the top when relayed, convert the
// rest through the declared route and pay the output to the recipient. A
// failing swap fails the whole operation, leaving the fill unconsumed.
func (m *Module) completeSwap(tx *types.TransactionOrder, route swap.Route, args swap.Args, exeCtx txsystem.ExecutionContext, relayed bool) (*types.ServerMetadata, error) {
	fillID := tx.UnitID()
	msg, err := m.fillMessage(exeCtx, fillID)
	if err != nil {
		return nil, err
	}
	amount, consume, err := m.consumePreparedFill(exeCtx, fillID)
	if err != nil {
		return nil, err
	}

	payer := tx.Submitter()
	var fee, dropoff uint64
	if relayed {
		relay := msg.RedeemMode.(messages.RedeemRelay)
		fee = relay.RelayingFee
		dropoff = DenormalizeGasDropoff(relay.GasDropoff)
		if payer.Eq(msg.Recipient) {
			fee, dropoff = 0, 0
		}
		if fee > amount {
			return nil, fmt.Errorf("fee %d, amount %d: %w", fee, amount, ErrFeeExceedsAmount)
		}
	}

	amountOut, dstAsset, err := m.runFillSwap(fillID, amount-fee, msg.OutputToken, route, args)
	if err != nil {
		return nil, err
	}

	recipientAccount := NewTokenAccountID(msg.Recipient, dstAsset)
	targets := []types.UnitID{fillID, recipientAccount}
	actions := append(consume, creditToken(recipientAccount, msg.Recipient[:], dstAsset, amountOut))
	if fee > 0 {
		custodian, err := m.custodian(exeCtx)
		if err != nil {
			return nil, err
		}
		feeAccount := NewTokenAccountID(custodian.FeeRecipient, AssetUsdc)
		actions = append(actions, creditToken(feeAccount, custodian.FeeRecipient[:], AssetUsdc, fee))
		targets = append(targets, feeAccount)
	}
	if dropoff > 0 {
		payerNative := NewTokenAccountID(payer, AssetGas)
		recipientNative := NewTokenAccountID(msg.Recipient, AssetGas)
		actions = append(actions,
			debitToken(payerNative, dropoff),
			creditToken(recipientNative, msg.Recipient[:], AssetGas, dropoff),
		)
		targets = append(targets, payerNative, recipientNative)
	}
	if err := m.state.Apply(actions...); err != nil {
		return nil, fmt.Errorf("completing swap: %w", err)
	}
	m.log.Debug("completed swap", logger.UnitID(fillID), logger.Data(amountOut))
	return &types.ServerMetadata{
		TargetUnits:      targets,
		SuccessIndicator: types.TxStatusSuccessful,
	}, nil
}

// runFillSwap executes the usdc-to-output conversion for one fill under
// the fill's transient swap authority. The route must bind to exactly the
// custody accounts and assets the engine derives itself; the in amount and
// the limit fixed in the message override whatever the relayer quoted.
func (m *Module) runFillSwap(fillID types.UnitID, inAmount uint64, outputToken messages.OutputToken, route swap.Route, args swap.Args) (uint64, types.Address, error) {
	outputSwap, dstAsset, err := swapOutput(outputToken)
	if err != nil {
		return 0, types.Address{}, err
	}
	authority := NewSwapAuthorityID(fillID)
	expect := swap.Expectations{
		TransferAuthority: authority,
		SrcCustodyToken:   NewSwapCustodyTokenID(authority, AssetUsdc),
		DstCustodyToken:   NewSwapCustodyTokenID(authority, dstAsset),
		SrcAsset:          AssetUsdc,
		DstAsset:          dstAsset,
	}
	override := &swap.Override{
		InAmount:    inAmount,
		LimitAmount: outputSwap.LimitAmount,
		PinnedDex:   outputSwap.SwapType.DexProgramID,
	}
	amountOut, err := m.swapExec.ExecuteExactIn(route, args, expect, override)
	if err != nil {
		return 0, types.Address{}, fmt.Errorf("executing swap: %w", err)
	}
	return amountOut, dstAsset, nil
}

// swapOutput extracts the swap parameters and destination asset of an
// asset-converting output token. Plain usdc output is not a swap.
func swapOutput(token messages.OutputToken) (messages.OutputSwap, types.Address, error) {
	switch t := token.(type) {
	case messages.TokenGas:
		return t.Swap, AssetGas, nil
	case messages.TokenOther:
		return t.Swap, t.Address, nil
	default:
		return messages.OutputSwap{}, types.Address{}, ErrInvalidOutputToken
	}
}

func (m *Module) checkDeadline(outputSwap messages.OutputSwap, exeCtx txsystem.ExecutionContext) error {
	if outputSwap.Deadline != 0 && uint64(outputSwap.Deadline) < exeCtx.CurrentRound() {
		return fmt.Errorf("deadline %d, current round %d: %w", outputSwap.Deadline, exeCtx.CurrentRound(), ErrSwapPastDeadline)
	}
	return nil
}
