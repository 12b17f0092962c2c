package types

import (
	"crypto"
	_ "crypto/sha256"
	"errors"
)

type (
	// TransactionOrder is the envelope of a single settlement operation. The
	// submitter identity has already been authenticated by the host ledger;
	// signature verification is not this engine's concern.
	TransactionOrder struct {
		_       struct{} `cbor:",toarray"`
		Payload *Payload
	}

	Payload struct {
		_          struct{} `cbor:",toarray"`
		Type       string
		UnitID     UnitID
		Submitter  Address
		Attributes RawCBOR
	}

	ServerMetadata struct {
		_                struct{} `cbor:",toarray"`
		TargetUnits      []UnitID
		SuccessIndicator TxStatus
	}

	TxStatus uint8
)

const (
	TxStatusFailed     TxStatus = 0
	TxStatusSuccessful TxStatus = 1
)

func (t *TransactionOrder) PayloadBytes() ([]byte, error) {
	if t == nil || t.Payload == nil {
		return nil, errors.New("transaction order is nil")
	}
	return Cbor.Marshal(t.Payload)
}

func (t *TransactionOrder) UnmarshalAttributes(v any) error {
	if t == nil || t.Payload == nil {
		return errors.New("transaction order is nil")
	}
	return Cbor.Unmarshal(t.Payload.Attributes, v)
}

func (t *TransactionOrder) SetAttributes(attr any) error {
	if t == nil || t.Payload == nil {
		return errors.New("transaction order is nil")
	}
	data, err := Cbor.Marshal(attr)
	if err != nil {
		return err
	}
	t.Payload.Attributes = data
	return nil
}

func (t *TransactionOrder) UnitID() UnitID {
	if t == nil || t.Payload == nil {
		return nil
	}
	return t.Payload.UnitID
}

func (t *TransactionOrder) PayloadType() string {
	if t == nil || t.Payload == nil {
		return ""
	}
	return t.Payload.Type
}

func (t *TransactionOrder) Submitter() Address {
	if t == nil || t.Payload == nil {
		return Address{}
	}
	return t.Payload.Submitter
}

func (t *TransactionOrder) Hash(algorithm crypto.Hash) []byte {
	hasher := algorithm.New()
	data, err := Cbor.Marshal(t)
	if err != nil {
		// the order was built from in-memory structures, encoding cannot fail
		panic(err)
	}
	hasher.Write(data)
	return hasher.Sum(nil)
}
