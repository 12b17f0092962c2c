package swaplayer

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/wormholelabs-xyz/swap-layer/state"
	"github.com/wormholelabs-xyz/swap-layer/types"
	"github.com/wormholelabs-xyz/swap-layer/util"
)

// creditToken adds amount to the token account, creating it with the given
// bearer if it does not exist yet. Crediting an existing account of a
// different asset is an error.
func creditToken(id types.UnitID, bearer types.Bytes, asset types.Address, amount uint64) state.Action {
	return func(s state.ShardState) error {
		u, err := s.Get(id)
		if err != nil {
			if !errors.Is(err, state.ErrNotFound) {
				return fmt.Errorf("fetching token account: %w", err)
			}
			return state.AddUnit(id, bearer, &TokenAccountData{Asset: asset, Balance: amount})(s)
		}
		account, ok := u.Data().(*TokenAccountData)
		if !ok {
			return fmt.Errorf("unit %s is not a token account", id)
		}
		if !account.Asset.Eq(asset) {
			return fmt.Errorf("token account %s holds a different asset", id)
		}
		return state.UpdateUnitData(id, func(data state.UnitData) (state.UnitData, error) {
			acc, ok := data.(*TokenAccountData)
			if !ok {
				return nil, fmt.Errorf("unit %s is not a token account", id)
			}
			balance, ok := util.AddUint64(acc.Balance, amount)
			if !ok {
				return nil, fmt.Errorf("token account %s balance overflow", id)
			}
			acc.Balance = balance
			return acc, nil
		})(s)
	}
}

// debitToken removes amount from the token account. The bearer check is the
// caller's responsibility.
func debitToken(id types.UnitID, amount uint64) state.Action {
	return state.UpdateUnitData(id, func(data state.UnitData) (state.UnitData, error) {
		acc, ok := data.(*TokenAccountData)
		if !ok {
			return nil, fmt.Errorf("unit %s is not a token account", id)
		}
		balance, ok := util.SubUint64(acc.Balance, amount)
		if !ok {
			return nil, fmt.Errorf("token account %s: %w", id, ErrInsufficientBalance)
		}
		acc.Balance = balance
		return acc, nil
	})
}

// tokenAccount loads a token account, verifying its bearer.
func (m *Module) tokenAccount(exeCtx unitFetcher, id types.UnitID, bearer types.Bytes) (*TokenAccountData, error) {
	u, err := exeCtx.GetUnit(id, false)
	if err != nil {
		return nil, fmt.Errorf("fetching token account %s: %w", id, err)
	}
	if !bytes.Equal(u.Bearer(), bearer) {
		return nil, fmt.Errorf("token account %s: bearer mismatch", id)
	}
	account, ok := u.Data().(*TokenAccountData)
	if !ok {
		return nil, fmt.Errorf("unit %s is not a token account", id)
	}
	return account, nil
}

type unitFetcher interface {
	GetUnit(id types.UnitID, committed bool) (*state.Unit, error)
}
