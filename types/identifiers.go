package types

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

// ChainID is the Wormhole chain identifier of a network.
type ChainID uint16

// UnitID identifies a unit in the state: a 32 byte unit part followed by a
// one byte type part.
type UnitID []byte

// Address is a 32 byte universal address. Depending on context it identifies
// an account owner, a token mint or a foreign-chain contract.
type Address [32]byte

// NewUnitID creates a new UnitID consisting of an unitPart and typePart.
// The unitPart is copied right-aligned, leaving zero bytes in the beginning
// in case it is shorter than unitIDLength-len(typePart).
func NewUnitID(unitIDLength int, unitPart []byte, typePart []byte) UnitID {
	unitID := make([]byte, unitIDLength)
	unitPartLength := unitIDLength - len(typePart)

	unitPartStart := max(0, unitPartLength-len(unitPart))
	copy(unitID[unitPartStart:], unitPart)
	copy(unitID[unitPartLength:], typePart)
	return unitID
}

func (uid UnitID) Compare(key UnitID) int {
	return bytes.Compare(uid, key)
}

func (uid UnitID) String() string {
	return fmt.Sprintf("%X", []byte(uid))
}

func (uid UnitID) Eq(id UnitID) bool {
	return bytes.Equal(uid, id)
}

func (uid UnitID) HasType(typePart []byte) bool {
	return bytes.HasSuffix(uid, typePart)
}

func (uid UnitID) MarshalText() ([]byte, error) {
	res := make([]byte, hex.EncodedLen(len(uid)))
	hex.Encode(res, uid)
	return res, nil
}

func (uid *UnitID) UnmarshalText(src []byte) error {
	res := make([]byte, hex.DecodedLen(len(src)))
	if _, err := hex.Decode(res, src); err != nil {
		return fmt.Errorf("decoding unit ID: %w", err)
	}
	*uid = res
	return nil
}

func BytesToAddress(b []byte) (Address, error) {
	var a Address
	if len(b) != len(a) {
		return a, fmt.Errorf("invalid address length: expected %d bytes, got %d", len(a), len(b))
	}
	copy(a[:], b)
	return a, nil
}

func (a Address) Bytes() []byte {
	return a[:]
}

func (a Address) IsZero() bool {
	return a == Address{}
}

func (a Address) Eq(b Address) bool {
	return a == b
}

func (a Address) String() string {
	return fmt.Sprintf("%X", a[:])
}

func (a Address) MarshalText() ([]byte, error) {
	res := make([]byte, hex.EncodedLen(len(a)))
	hex.Encode(res, a[:])
	return res, nil
}

func (a *Address) UnmarshalText(src []byte) error {
	res := make([]byte, hex.DecodedLen(len(src)))
	if _, err := hex.Decode(res, src); err != nil {
		return fmt.Errorf("decoding address: %w", err)
	}
	addr, err := BytesToAddress(res)
	if err != nil {
		return err
	}
	*a = addr
	return nil
}
