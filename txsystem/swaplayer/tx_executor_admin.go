package swaplayer

import (
	"errors"
	"fmt"

	"github.com/wormholelabs-xyz/swap-layer/state"
	"github.com/wormholelabs-xyz/swap-layer/txsystem"
	"github.com/wormholelabs-xyz/swap-layer/types"
)

func (m *Module) validateUpdateFeeRecipientTx(tx *types.TransactionOrder, attr *UpdateFeeRecipientAttributes, exeCtx txsystem.ExecutionContext) error {
	custodian, err := m.custodianTarget(tx, exeCtx)
	if err != nil {
		return err
	}
	if attr.NewFeeRecipient.IsZero() {
		return ErrZeroAddress
	}
	submitter := tx.Submitter()
	if !submitter.Eq(custodian.Owner) && !submitter.Eq(custodian.OwnerAssistant) {
		return ErrOwnerOrAssistantOnly
	}
	return nil
}

func (m *Module) executeUpdateFeeRecipientTx(tx *types.TransactionOrder, attr *UpdateFeeRecipientAttributes, _ txsystem.ExecutionContext) (*types.ServerMetadata, error) {
	return m.updateCustodian(func(c *CustodianData) {
		c.FeeRecipient = attr.NewFeeRecipient
	})
}

func (m *Module) validateUpdateOwnerAssistantTx(tx *types.TransactionOrder, attr *UpdateOwnerAssistantAttributes, exeCtx txsystem.ExecutionContext) error {
	custodian, err := m.custodianTarget(tx, exeCtx)
	if err != nil {
		return err
	}
	if attr.NewAssistant.IsZero() {
		return ErrZeroAddress
	}
	if !tx.Submitter().Eq(custodian.Owner) {
		return ErrOwnerOnly
	}
	return nil
}

func (m *Module) executeUpdateOwnerAssistantTx(tx *types.TransactionOrder, attr *UpdateOwnerAssistantAttributes, _ txsystem.ExecutionContext) (*types.ServerMetadata, error) {
	return m.updateCustodian(func(c *CustodianData) {
		c.OwnerAssistant = attr.NewAssistant
	})
}

// Ownership moves in two steps: the owner nominates, the nominee confirms.
// A new nomination overwrites any pending one.
func (m *Module) validateSubmitOwnershipTransferTx(tx *types.TransactionOrder, attr *SubmitOwnershipTransferAttributes, exeCtx txsystem.ExecutionContext) error {
	custodian, err := m.custodianTarget(tx, exeCtx)
	if err != nil {
		return err
	}
	if !tx.Submitter().Eq(custodian.Owner) {
		return ErrOwnerOnly
	}
	if attr.NewOwner.IsZero() || attr.NewOwner.Eq(custodian.Owner) {
		return ErrInvalidNewOwner
	}
	return nil
}

func (m *Module) executeSubmitOwnershipTransferTx(tx *types.TransactionOrder, attr *SubmitOwnershipTransferAttributes, _ txsystem.ExecutionContext) (*types.ServerMetadata, error) {
	return m.updateCustodian(func(c *CustodianData) {
		c.PendingOwner = attr.NewOwner
	})
}

func (m *Module) validateConfirmOwnershipTransferTx(tx *types.TransactionOrder, _ *ConfirmOwnershipTransferAttributes, exeCtx txsystem.ExecutionContext) error {
	custodian, err := m.custodianTarget(tx, exeCtx)
	if err != nil {
		return err
	}
	if custodian.PendingOwner.IsZero() {
		return ErrNoPendingTransfer
	}
	if !tx.Submitter().Eq(custodian.PendingOwner) {
		return ErrNotPendingOwner
	}
	return nil
}

func (m *Module) executeConfirmOwnershipTransferTx(tx *types.TransactionOrder, _ *ConfirmOwnershipTransferAttributes, _ txsystem.ExecutionContext) (*types.ServerMetadata, error) {
	return m.updateCustodian(func(c *CustodianData) {
		c.Owner = c.PendingOwner
		c.PendingOwner = types.Address{}
	})
}

func (m *Module) custodianTarget(tx *types.TransactionOrder, exeCtx txsystem.ExecutionContext) (*CustodianData, error) {
	if !tx.UnitID().Eq(CustodianID) {
		return nil, errors.New("transaction unit ID is not the custodian record")
	}
	return m.custodian(exeCtx)
}

func (m *Module) updateCustodian(update func(c *CustodianData)) (*types.ServerMetadata, error) {
	if err := m.state.Apply(state.UpdateUnitData(CustodianID, func(data state.UnitData) (state.UnitData, error) {
		custodian, ok := data.(*CustodianData)
		if !ok {
			return nil, errors.New("unit is not the custodian record")
		}
		update(custodian)
		return custodian, nil
	})); err != nil {
		return nil, fmt.Errorf("updating custodian: %w", err)
	}
	return &types.ServerMetadata{
		TargetUnits:      []types.UnitID{CustodianID},
		SuccessIndicator: types.TxStatusSuccessful,
	}, nil
}
