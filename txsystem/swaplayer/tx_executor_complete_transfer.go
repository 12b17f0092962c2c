package swaplayer

import (
	"errors"
	"fmt"

	"github.com/wormholelabs-xyz/swap-layer/logger"
	"github.com/wormholelabs-xyz/swap-layer/messages"
	"github.com/wormholelabs-xyz/swap-layer/state"
	"github.com/wormholelabs-xyz/swap-layer/txsystem"
	"github.com/wormholelabs-xyz/swap-layer/types"
)

func (m *Module) validateCompleteTransferDirectTx(tx *types.TransactionOrder, _ *CompleteTransferDirectAttributes, exeCtx txsystem.ExecutionContext) error {
	msg, err := m.fillMessage(exeCtx, tx.UnitID())
	if err != nil {
		return err
	}
	if _, ok := msg.RedeemMode.(messages.RedeemDirect); !ok {
		return ErrInvalidRedeemMode
	}
	if _, ok := msg.OutputToken.(messages.TokenUsdc); !ok {
		return ErrInvalidOutputToken
	}
	if !tx.Submitter().Eq(msg.Recipient) {
		return ErrCallerNotRecipient
	}
	return nil
}

// Direct completion pays the full fill amount to the recipient's usdc
// account. Only the recipient itself may trigger it.
func (m *Module) executeCompleteTransferDirectTx(tx *types.TransactionOrder, _ *CompleteTransferDirectAttributes, exeCtx txsystem.ExecutionContext) (*types.ServerMetadata, error) {
	fillID := tx.UnitID()
	msg, err := m.fillMessage(exeCtx, fillID)
	if err != nil {
		return nil, err
	}
	amount, consume, err := m.consumePreparedFill(exeCtx, fillID)
	if err != nil {
		return nil, err
	}
	recipientAccount := NewTokenAccountID(msg.Recipient, AssetUsdc)
	actions := append(consume, creditToken(recipientAccount, msg.Recipient[:], AssetUsdc, amount))
	if err := m.state.Apply(actions...); err != nil {
		return nil, fmt.Errorf("completing direct transfer: %w", err)
	}
	m.log.Debug("completed direct transfer", logger.UnitID(fillID), logger.Data(amount))
	return &types.ServerMetadata{
		TargetUnits:      []types.UnitID{fillID, recipientAccount},
		SuccessIndicator: types.TxStatusSuccessful,
	}, nil
}

func (m *Module) validateCompleteTransferRelayTx(tx *types.TransactionOrder, _ *CompleteTransferRelayAttributes, exeCtx txsystem.ExecutionContext) error {
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
	if _, ok := msg.OutputToken.(messages.TokenUsdc); !ok {
		return ErrInvalidOutputToken
	}
	// self redemption waives the fee and the dropoff
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

// Relayed completion splits the fill between the recipient and the fee
// recipient, and moves the promised gas dropoff from the relayer to the
// recipient's native account. When the recipient redeems its own relayed
// fill, both the fee and the dropoff are waived.
func (m *Module) executeCompleteTransferRelayTx(tx *types.TransactionOrder, _ *CompleteTransferRelayAttributes, exeCtx txsystem.ExecutionContext) (*types.ServerMetadata, error) {
	fillID := tx.UnitID()
	msg, err := m.fillMessage(exeCtx, fillID)
	if err != nil {
		return nil, err
	}
	relay := msg.RedeemMode.(messages.RedeemRelay)
	amount, consume, err := m.consumePreparedFill(exeCtx, fillID)
	if err != nil {
		return nil, err
	}

	payer := tx.Submitter()
	fee := relay.RelayingFee
	dropoff := DenormalizeGasDropoff(relay.GasDropoff)
	if payer.Eq(msg.Recipient) {
		fee, dropoff = 0, 0
	}
	if fee > amount {
		return nil, fmt.Errorf("fee %d, amount %d: %w", fee, amount, ErrFeeExceedsAmount)
	}

	recipientAccount := NewTokenAccountID(msg.Recipient, AssetUsdc)
	targets := []types.UnitID{fillID, recipientAccount}
	actions := append(consume, creditToken(recipientAccount, msg.Recipient[:], AssetUsdc, amount-fee))
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
		return nil, fmt.Errorf("completing relayed transfer: %w", err)
	}
	m.log.Debug("completed relayed transfer", logger.UnitID(fillID), logger.Data(amount))
	return &types.ServerMetadata{
		TargetUnits:      targets,
		SuccessIndicator: types.TxStatusSuccessful,
	}, nil
}

func (m *Module) validateCompleteTransferPayloadTx(tx *types.TransactionOrder, _ *CompleteTransferPayloadAttributes, exeCtx txsystem.ExecutionContext) error {
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
	if _, ok := msg.OutputToken.(messages.TokenUsdc); !ok {
		return ErrInvalidOutputToken
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

// Payload completion does not pay anyone: it parks the funds and the
// payload in a staged inbound record that only the recipient can release.
// The submitter escrows a holding deposit it gets back on release. Repeating
// the completion on an already initialized record is a no-op success, so the
// operation is safe to retry after a partial external failure.
func (m *Module) executeCompleteTransferPayloadTx(tx *types.TransactionOrder, _ *CompleteTransferPayloadAttributes, exeCtx txsystem.ExecutionContext) (*types.ServerMetadata, error) {
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
		creditToken(custodyID, types.Bytes(stagedID), AssetUsdc, amount),
	)
	if err := m.state.Apply(actions...); err != nil {
		return nil, fmt.Errorf("staging inbound payload transfer: %w", err)
	}
	m.log.Debug("staged inbound payload transfer", logger.UnitID(stagedID), logger.Data(amount))
	return &types.ServerMetadata{
		TargetUnits:      []types.UnitID{fillID, stagedID, custodyID},
		SuccessIndicator: types.TxStatusSuccessful,
	}, nil
}

func (m *Module) validateReleaseInboundTx(tx *types.TransactionOrder, _ *ReleaseInboundAttributes, exeCtx txsystem.ExecutionContext) error {
	staged, err := m.stagedInbound(exeCtx, tx.UnitID())
	if err != nil {
		return err
	}
	if !tx.Submitter().Eq(staged.Recipient) {
		return ErrNotInboundRecipient
	}
	return nil
}

// Release drains a staged inbound record into an account the releaser
// selects and returns the holding deposit to the beneficiary named by the
// caller. Only the releaser's identity is checked; ownership of the
// destination is its own concern.
func (m *Module) executeReleaseInboundTx(tx *types.TransactionOrder, attr *ReleaseInboundAttributes, exeCtx txsystem.ExecutionContext) (*types.ServerMetadata, error) {
	stagedID := tx.UnitID()
	staged, err := m.stagedInbound(exeCtx, stagedID)
	if err != nil {
		return nil, err
	}
	custody, err := m.tokenAccount(exeCtx, staged.CustodyToken, types.Bytes(stagedID))
	if err != nil {
		return nil, fmt.Errorf("staged custody: %w", err)
	}

	destination := attr.Destination
	if destination.IsZero() {
		destination = staged.Recipient
	}
	beneficiary := attr.Beneficiary
	if beneficiary.IsZero() {
		beneficiary = staged.Recipient
	}
	destinationAccount := NewTokenAccountID(destination, custody.Asset)
	actions := []state.Action{
		state.DeleteUnit(staged.CustodyToken),
		state.DeleteUnit(stagedID),
		creditToken(destinationAccount, destination[:], custody.Asset, custody.Balance),
	}
	targets := []types.UnitID{stagedID, destinationAccount}
	if staged.Deposit > 0 {
		beneficiaryNative := NewTokenAccountID(beneficiary, AssetGas)
		actions = append(actions, creditToken(beneficiaryNative, beneficiary[:], AssetGas, staged.Deposit))
		targets = append(targets, beneficiaryNative)
	}
	if err := m.state.Apply(actions...); err != nil {
		return nil, fmt.Errorf("releasing inbound transfer: %w", err)
	}
	m.log.Debug("released inbound transfer", logger.UnitID(stagedID), logger.Data(custody.Balance))
	return &types.ServerMetadata{
		TargetUnits:      targets,
		SuccessIndicator: types.TxStatusSuccessful,
	}, nil
}

func (m *Module) fillMessage(exeCtx unitFetcher, fillID types.UnitID) (messages.SwapMessage, error) {
	fill, err := m.preparedFill(exeCtx, fillID)
	if err != nil {
		return messages.SwapMessage{}, err
	}
	msg, err := messages.Decode(fill.RedeemerMessage)
	if err != nil {
		return messages.SwapMessage{}, fmt.Errorf("decoding redeemer message: %w", err)
	}
	return msg, nil
}

// stagedInboundInitialized reports whether the payload escrow of the fill
// already exists. The fill is gone by then, so a repeated completion must
// succeed without touching anything instead of failing on the consumed fill.
func (m *Module) stagedInboundInitialized(exeCtx unitFetcher, fillID types.UnitID) (bool, error) {
	if _, err := exeCtx.GetUnit(NewStagedInboundID(fillID), false); err != nil {
		if errors.Is(err, state.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("fetching staged inbound record: %w", err)
	}
	return true, nil
}

func (m *Module) stagedInbound(exeCtx unitFetcher, id types.UnitID) (*StagedInboundData, error) {
	if !id.HasType(StagedInboundUnitType) {
		return nil, fmt.Errorf("unit %s is not a staged inbound record", id)
	}
	u, err := exeCtx.GetUnit(id, false)
	if err != nil {
		if errors.Is(err, state.ErrNotFound) {
			return nil, fmt.Errorf("staged inbound %s: %w", id, state.ErrNotFound)
		}
		return nil, fmt.Errorf("fetching staged inbound %s: %w", id, err)
	}
	staged, ok := u.Data().(*StagedInboundData)
	if !ok {
		return nil, fmt.Errorf("unit %s is not a staged inbound record", id)
	}
	return staged, nil
}

func (m *Module) custodian(exeCtx unitFetcher) (*CustodianData, error) {
	u, err := exeCtx.GetUnit(CustodianID, false)
	if err != nil {
		return nil, fmt.Errorf("fetching custodian: %w", err)
	}
	custodian, ok := u.Data().(*CustodianData)
	if !ok {
		return nil, fmt.Errorf("unit is not the custodian record")
	}
	return custodian, nil
}
