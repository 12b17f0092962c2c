package types

import (
	"io"

	"github.com/fxamacker/cbor/v2"
)

type (
	RawCBOR []byte

	Bytes []byte

	cborHandler struct {
		encMode cbor.EncMode
	}
)

// Cbor is the codec used for all persisted unit data and transaction
// attributes. Core deterministic encoding so that hashes over encoded data
// are stable.
var Cbor = cborHandler{}

func (c cborHandler) cborEncoder() (cbor.EncMode, error) {
	if c.encMode != nil {
		return c.encMode, nil
	}
	encMode, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return nil, err
	}
	c.encMode = encMode
	return encMode, nil
}

func (c cborHandler) Marshal(v any) ([]byte, error) {
	enc, err := c.cborEncoder()
	if err != nil {
		return nil, err
	}
	return enc.Marshal(v)
}

func (c cborHandler) Unmarshal(data []byte, v any) error {
	return cbor.Unmarshal(data, v)
}

func (c cborHandler) Encode(w io.Writer, v any) error {
	enc, err := c.cborEncoder()
	if err != nil {
		return err
	}
	return enc.NewEncoder(w).Encode(v)
}

func (c cborHandler) GetEncoder(w io.Writer) (*cbor.Encoder, error) {
	enc, err := c.cborEncoder()
	if err != nil {
		return nil, err
	}
	return enc.NewEncoder(w), nil
}

func (c cborHandler) GetDecoder(r io.Reader) *cbor.Decoder {
	return cbor.NewDecoder(r)
}

// MarshalCBOR returns r or CBOR nil if r is empty so that RawCBOR fields can
// be embedded into other CBOR encoded structures.
func (r RawCBOR) MarshalCBOR() ([]byte, error) {
	if len(r) == 0 {
		return cborNil, nil
	}
	return r, nil
}

func (r *RawCBOR) UnmarshalCBOR(data []byte) error {
	if len(data) > 0 {
		*r = append((*r)[0:0], data...)
	}
	return nil
}

var cborNil = []byte{0xf6}
