package swaplayer

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/wormholelabs-xyz/swap-layer/logger"
	"github.com/wormholelabs-xyz/swap-layer/messages"
	"github.com/wormholelabs-xyz/swap-layer/state"
	"github.com/wormholelabs-xyz/swap-layer/txsystem"
	"github.com/wormholelabs-xyz/swap-layer/types"
	"github.com/wormholelabs-xyz/swap-layer/util"
)

func (m *Module) validateStageOutboundTx(tx *types.TransactionOrder, attr *StageOutboundAttributes, exeCtx txsystem.ExecutionContext) error {
	if attr.Amount == 0 {
		return ErrInvalidAmount
	}
	if attr.Recipient.IsZero() {
		return ErrInvalidRecipient
	}
	requestHash := stageRequestHash(tx)
	if !tx.UnitID().Eq(NewStagedOutboundID(requestHash)) {
		return errors.New("transaction unit ID does not match staged outbound record")
	}
	if _, err := exeCtx.GetUnit(tx.UnitID(), false); err == nil {
		return errors.New("staged outbound record already exists")
	} else if !errors.Is(err, state.ErrNotFound) {
		return fmt.Errorf("fetching staged outbound record: %w", err)
	}

	if attr.RedeemOption != nil && attr.RedeemOption.Mode > StagedRedeemRelay {
		return ErrInvalidRedeemMode
	}
	peer, err := m.peer(exeCtx, attr.TargetChain)
	if err != nil {
		return err
	}
	outputToken, err := stagedOutputToken(attr.EncodedOutputToken)
	if err != nil {
		return fmt.Errorf("invalid output token: %w", err)
	}
	relayingFee, err := m.stagedRelayingFee(peer, attr, outputToken)
	if err != nil {
		return err
	}
	total, ok := util.AddUint64(attr.Amount, relayingFee)
	if !ok {
		return errors.New("amount and relaying fee overflow")
	}

	sender, err := m.stagingSender(tx, attr, exeCtx, requestHash)
	if err != nil {
		return err
	}
	senderAccount, err := m.tokenAccount(exeCtx, NewTokenAccountID(sender, AssetUsdc), sender[:])
	if err != nil {
		return fmt.Errorf("sender account: %w", err)
	}
	if senderAccount.Balance < total {
		return fmt.Errorf("staging %d with balance %d: %w", total, senderAccount.Balance, ErrInsufficientBalance)
	}
	return nil
}

func (m *Module) executeStageOutboundTx(tx *types.TransactionOrder, attr *StageOutboundAttributes, exeCtx txsystem.ExecutionContext) (*types.ServerMetadata, error) {
	requestHash := stageRequestHash(tx)
	stagedID := tx.UnitID()
	custodyID := NewStagedCustodyTokenID(stagedID)

	peer, err := m.peer(exeCtx, attr.TargetChain)
	if err != nil {
		return nil, err
	}
	outputToken, err := stagedOutputToken(attr.EncodedOutputToken)
	if err != nil {
		return nil, err
	}
	relayingFee, err := m.stagedRelayingFee(peer, attr, outputToken)
	if err != nil {
		return nil, err
	}
	total, ok := util.AddUint64(attr.Amount, relayingFee)
	if !ok {
		return nil, errors.New("amount and relaying fee overflow")
	}
	sender, err := m.stagingSender(tx, attr, exeCtx, requestHash)
	if err != nil {
		return nil, err
	}

	stagedRedeem := StagedRedeem{Mode: StagedRedeemDirect}
	if attr.RedeemOption != nil {
		stagedRedeem = StagedRedeem{
			Mode:        attr.RedeemOption.Mode,
			GasDropoff:  attr.RedeemOption.GasDropoff,
			RelayingFee: relayingFee,
			Payload:     attr.RedeemOption.Payload,
		}
	}

	actions := make([]state.Action, 0, 4)
	if attr.UseTransferAuthority {
		actions = append(actions, state.DeleteUnit(NewTransferAuthorityID(requestHash)))
	}
	refundRecipient := attr.RefundRecipient
	if refundRecipient.IsZero() {
		refundRecipient = sender
	}
	actions = append(actions,
		debitToken(NewTokenAccountID(sender, AssetUsdc), total),
		state.AddUnit(stagedID, sender[:], &StagedOutboundData{
			Sender:             sender,
			PreparedBy:         tx.Submitter(),
			TargetChain:        attr.TargetChain,
			Recipient:          attr.Recipient,
			StagedRedeem:       stagedRedeem,
			EncodedOutputToken: attr.EncodedOutputToken,
			CustodyToken:       custodyID,
			RefundToken:        NewTokenAccountID(refundRecipient, AssetUsdc),
		}),
		creditToken(custodyID, types.Bytes(stagedID), AssetUsdc, total),
	)
	if err := m.state.Apply(actions...); err != nil {
		return nil, fmt.Errorf("staging outbound transfer: %w", err)
	}
	m.log.Debug("staged outbound transfer", logger.UnitID(stagedID), logger.Data(total))
	return &types.ServerMetadata{
		TargetUnits:      []types.UnitID{stagedID, custodyID, NewTokenAccountID(sender, AssetUsdc)},
		SuccessIndicator: types.TxStatusSuccessful,
	}, nil
}

func (m *Module) validateGrantTransferAuthorityTx(tx *types.TransactionOrder, attr *GrantTransferAuthorityAttributes, exeCtx txsystem.ExecutionContext) error {
	if len(attr.RequestHash) != sha256.Size {
		return fmt.Errorf("request hash must be %d bytes", sha256.Size)
	}
	if !tx.UnitID().Eq(NewTransferAuthorityID(attr.RequestHash)) {
		return errors.New("transaction unit ID does not match transfer authority")
	}
	if _, err := exeCtx.GetUnit(tx.UnitID(), false); err == nil {
		return errors.New("transfer authority already exists")
	} else if !errors.Is(err, state.ErrNotFound) {
		return fmt.Errorf("fetching transfer authority: %w", err)
	}
	return nil
}

func (m *Module) executeGrantTransferAuthorityTx(tx *types.TransactionOrder, attr *GrantTransferAuthorityAttributes, _ txsystem.ExecutionContext) (*types.ServerMetadata, error) {
	submitter := tx.Submitter()
	if err := m.state.Apply(
		state.AddUnit(tx.UnitID(), submitter[:], &TransferAuthorityData{RequestHash: attr.RequestHash}),
	); err != nil {
		return nil, fmt.Errorf("granting transfer authority: %w", err)
	}
	return &types.ServerMetadata{
		TargetUnits:      []types.UnitID{tx.UnitID()},
		SuccessIndicator: types.TxStatusSuccessful,
	}, nil
}

// stagingSender resolves who pays for the staging: the submitter itself, or
// the sender who pre-authorized this exact request with a single-use
// transfer authority.
func (m *Module) stagingSender(tx *types.TransactionOrder, attr *StageOutboundAttributes, exeCtx txsystem.ExecutionContext, requestHash []byte) (types.Address, error) {
	if !attr.UseTransferAuthority {
		if !tx.Submitter().Eq(attr.Sender) {
			return types.Address{}, errors.New("submitter is not the declared sender")
		}
		return attr.Sender, nil
	}
	u, err := exeCtx.GetUnit(NewTransferAuthorityID(requestHash), false)
	if err != nil {
		if errors.Is(err, state.ErrNotFound) {
			return types.Address{}, ErrTransferAuthorityUnknown
		}
		return types.Address{}, fmt.Errorf("fetching transfer authority: %w", err)
	}
	authority, ok := u.Data().(*TransferAuthorityData)
	if !ok {
		return types.Address{}, errors.New("unit is not a transfer authority")
	}
	if !bytes.Equal(authority.RequestHash, requestHash) {
		return types.Address{}, ErrTransferAuthorityMismatch
	}
	if !bytes.Equal(u.Bearer(), attr.Sender[:]) {
		return types.Address{}, errors.New("transfer authority not granted by the declared sender")
	}
	return attr.Sender, nil
}

func (m *Module) stagedRelayingFee(peer *PeerData, attr *StageOutboundAttributes, outputToken messages.OutputToken) (uint64, error) {
	if attr.RedeemOption == nil || attr.RedeemOption.Mode != StagedRedeemRelay {
		return 0, nil
	}
	fee, err := CalculateRelayerFee(peer.RelayParams, attr.RedeemOption.GasDropoff, outputToken)
	if err != nil {
		return 0, err
	}
	if fee > attr.RedeemOption.MaxRelayerFee {
		return 0, fmt.Errorf("fee %d, caller maximum %d: %w", fee, attr.RedeemOption.MaxRelayerFee, ErrExceedsMaxRelayingFee)
	}
	return fee, nil
}

func (m *Module) peer(exeCtx unitFetcher, chain types.ChainID) (*PeerData, error) {
	u, err := exeCtx.GetUnit(NewPeerID(chain), false)
	if err != nil {
		if errors.Is(err, state.ErrNotFound) {
			return nil, fmt.Errorf("chain %d: %w", chain, ErrChainNotSupported)
		}
		return nil, fmt.Errorf("fetching peer: %w", err)
	}
	peer, ok := u.Data().(*PeerData)
	if !ok {
		return nil, fmt.Errorf("unit is not a peer record")
	}
	return peer, nil
}

// stagedOutputToken decodes the caller's encoded output token; nil means
// plain usdc delivery.
func stagedOutputToken(encoded types.Bytes) (messages.OutputToken, error) {
	if len(encoded) == 0 {
		return messages.TokenUsdc{}, nil
	}
	return messages.DecodeOutputToken(encoded)
}

func stageRequestHash(tx *types.TransactionOrder) []byte {
	h := sha256.Sum256(tx.Payload.Attributes)
	return h[:]
}
