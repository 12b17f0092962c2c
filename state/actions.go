package state

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/wormholelabs-xyz/swap-layer/types"
)

type (
	ShardState interface {
		Add(id types.UnitID, u *Unit) error
		Get(id types.UnitID) (*Unit, error)
		Update(id types.UnitID, unit *Unit) error
		Delete(id types.UnitID) error
	}

	Action func(s ShardState) error

	// UpdateFunction is a function for updating the data of a unit. Takes the
	// previous UnitData and returns new UnitData.
	UpdateFunction func(data UnitData) (newData UnitData, err error)
)

// AddUnit adds a new unit with given identifier, bearer and unit data.
func AddUnit(id types.UnitID, bearer types.Bytes, data UnitData) Action {
	return func(s ShardState) error {
		if id == nil {
			return errors.New("id is nil")
		}
		u := &Unit{
			bearer: bytes.Clone(bearer),
			data:   copyData(data),
		}
		if err := s.Add(id, u); err != nil {
			return fmt.Errorf("unable to add unit: %w", err)
		}
		return nil
	}
}

// UpdateUnitData changes the data of the unit, leaves the bearer as is.
func UpdateUnitData(id types.UnitID, f UpdateFunction) Action {
	return func(s ShardState) error {
		if f == nil {
			return errors.New("update function is nil")
		}
		u, err := s.Get(id)
		if err != nil {
			return fmt.Errorf("failed to get unit: %w", err)
		}
		cloned := u.Clone()
		newData, err := f(cloned.data)
		if err != nil {
			return fmt.Errorf("unable to update unit data: %w", err)
		}
		cloned.data = newData
		if err = s.Update(id, cloned); err != nil {
			return fmt.Errorf("unable to update unit: %w", err)
		}
		return nil
	}
}

// SetOwner changes the bearer of the unit, leaves the data as is.
func SetOwner(id types.UnitID, bearer types.Bytes) Action {
	return func(s ShardState) error {
		if id == nil {
			return errors.New("id is nil")
		}
		u, err := s.Get(id)
		if err != nil {
			return fmt.Errorf("failed to find unit: %w", err)
		}
		cloned := u.Clone()
		cloned.bearer = bytes.Clone(bearer)
		if err = s.Update(id, cloned); err != nil {
			return fmt.Errorf("unable to update unit: %w", err)
		}
		return nil
	}
}

// DeleteUnit removes the unit with given identifier from the state.
func DeleteUnit(id types.UnitID) Action {
	return func(s ShardState) error {
		if id == nil {
			return errors.New("id is nil")
		}
		if err := s.Delete(id); err != nil {
			return fmt.Errorf("unable to delete unit: %w", err)
		}
		return nil
	}
}
