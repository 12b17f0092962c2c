package state

import (
	"bytes"
	"hash"

	"github.com/wormholelabs-xyz/swap-layer/types"
)

type (
	// Unit is an entry in the state: escrow, account or record. The bearer is
	// the identity whose authority is required to move value held by the
	// unit. It is always the deterministic identity of a logical entity,
	// never a human-controlled key.
	Unit struct {
		bearer types.Bytes
		data   UnitData
	}

	// UnitData is a generic data type for the unit state.
	UnitData interface {
		Write(hasher hash.Hash) error
		SummaryValueInput() uint64
		Copy() UnitData
	}

	// UnitDataConstructor is a function that constructs an empty UnitData
	// structure based on UnitID, used when recovering a serialized state.
	UnitDataConstructor func(types.UnitID) (UnitData, error)
)

func NewUnit(bearer types.Bytes, data UnitData) *Unit {
	return &Unit{
		bearer: bearer,
		data:   data,
	}
}

func (u *Unit) Clone() *Unit {
	if u == nil {
		return nil
	}
	return &Unit{
		bearer: bytes.Clone(u.bearer),
		data:   copyData(u.data),
	}
}

// Bearer returns the owner identity of the unit.
func (u *Unit) Bearer() types.Bytes {
	return bytes.Clone(u.bearer)
}

func (u *Unit) Data() UnitData {
	return copyData(u.data)
}

func copyData(data UnitData) UnitData {
	if data == nil {
		return nil
	}
	return data.Copy()
}
