package swaplayer

import (
	"errors"
	"fmt"

	"github.com/wormholelabs-xyz/swap-layer/state"
	"github.com/wormholelabs-xyz/swap-layer/types"
)

// preparedFill loads a prepared fill for validation without consuming it.
// Only fills emitted by the registered peer of their source chain are
// redeemable.
func (m *Module) preparedFill(exeCtx unitFetcher, fillID types.UnitID) (*PreparedFillData, error) {
	if !fillID.HasType(PreparedFillUnitType) {
		return nil, fmt.Errorf("unit %s is not a prepared fill", fillID)
	}
	u, err := exeCtx.GetUnit(fillID, false)
	if err != nil {
		if errors.Is(err, state.ErrNotFound) {
			return nil, fmt.Errorf("prepared fill %s: %w", fillID, ErrFillConsumed)
		}
		return nil, fmt.Errorf("fetching prepared fill %s: %w", fillID, err)
	}
	fill, ok := u.Data().(*PreparedFillData)
	if !ok {
		return nil, fmt.Errorf("unit %s is not a prepared fill", fillID)
	}
	peer, err := m.peer(exeCtx, fill.SourceChain)
	if err != nil {
		return nil, err
	}
	if !peer.PeerAddress.Eq(fill.OrderSender) {
		return nil, fmt.Errorf("order sender %s, chain %d: %w", fill.OrderSender, fill.SourceChain, ErrInvalidPeer)
	}
	return fill, nil
}

// consumePreparedFill returns the actions that atomically consume a fill:
// the fill record and its custody account are deleted in the same unit of
// work as whatever the caller does with the returned amount. A second
// consumption attempt fails because the record is gone.
func (m *Module) consumePreparedFill(exeCtx unitFetcher, fillID types.UnitID) (amount uint64, actions []state.Action, err error) {
	custodyID := NewFillCustodyTokenID(fillID)
	custody, err := m.tokenAccount(exeCtx, custodyID, types.Bytes(fillID))
	if err != nil {
		return 0, nil, fmt.Errorf("fill custody: %w", err)
	}
	if !custody.Asset.Eq(AssetUsdc) {
		return 0, nil, fmt.Errorf("fill custody %s does not hold usdc", custodyID)
	}
	return custody.Balance, []state.Action{
		state.DeleteUnit(custodyID),
		state.DeleteUnit(fillID),
	}, nil
}

// PreparedFill builds the genesis/bridge-ingest actions adding a prepared
// fill and its funded custody account. The fill seed is the bridging
// layer's unique identifier for the source-chain message.
func PreparedFill(fillSeed []byte, amount uint64, sourceChain types.ChainID, orderSender types.Address, redeemerMessage []byte) (types.UnitID, []state.Action) {
	fillID := NewPreparedFillID(fillSeed)
	return fillID, []state.Action{
		state.AddUnit(fillID, types.Bytes(CustodianID), &PreparedFillData{
			Amount:          amount,
			SourceChain:     sourceChain,
			OrderSender:     orderSender,
			RedeemerMessage: redeemerMessage,
		}),
		state.AddUnit(NewFillCustodyTokenID(fillID), types.Bytes(fillID), &TokenAccountData{
			Asset:   AssetUsdc,
			Balance: amount,
		}),
	}
}
