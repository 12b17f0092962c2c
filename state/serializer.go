package state

import (
	"fmt"
	"io"

	"github.com/wormholelabs-xyz/swap-layer/types"
)

type (
	header struct {
		_         struct{} `cbor:",toarray"`
		Version   uint32
		NodeCount uint64
	}

	nodeRecord struct {
		_        struct{} `cbor:",toarray"`
		UnitID   types.UnitID
		Bearer   types.Bytes
		UnitData types.RawCBOR
	}
)

const serializerVersion = 1

// Serialize writes the state as a CBOR stream: a header followed by one node
// record per unit, in unit id order. If committed is true the committed
// state is written, otherwise the latest uncommitted state.
func (s *State) Serialize(writer io.Writer, committed bool) error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	t := s.latestSavepoint()
	if committed {
		t = s.committedTree
	}

	encoder, err := types.Cbor.GetEncoder(writer)
	if err != nil {
		return fmt.Errorf("creating encoder: %w", err)
	}
	ids := t.sortedIDs()
	if err = encoder.Encode(header{Version: serializerVersion, NodeCount: uint64(len(ids))}); err != nil {
		return fmt.Errorf("encoding header: %w", err)
	}
	for _, id := range ids {
		u, err := t.Get(id)
		if err != nil {
			return err
		}
		unitData, err := types.Cbor.Marshal(u.data)
		if err != nil {
			return fmt.Errorf("encoding unit %s data: %w", id, err)
		}
		if err = encoder.Encode(nodeRecord{UnitID: id, Bearer: u.bearer, UnitData: unitData}); err != nil {
			return fmt.Errorf("encoding unit %s: %w", id, err)
		}
	}
	return nil
}

// NewRecoveredState restores a state from a serialized stream. The unit data
// constructor maps unit ids to empty unit data values of the right type.
func NewRecoveredState(stateData io.Reader, udc UnitDataConstructor, opts ...Option) (*State, error) {
	if stateData == nil {
		return nil, fmt.Errorf("reader is nil")
	}
	if udc == nil {
		return nil, fmt.Errorf("unit data constructor is nil")
	}
	options := loadOptions(opts...)
	decoder := types.Cbor.GetDecoder(stateData)

	var head header
	if err := decoder.Decode(&head); err != nil {
		return nil, fmt.Errorf("unable to decode header: %w", err)
	}
	if head.Version != serializerVersion {
		return nil, fmt.Errorf("unsupported state version %d", head.Version)
	}

	t := newTree()
	for i := uint64(0); i < head.NodeCount; i++ {
		var rec nodeRecord
		if err := decoder.Decode(&rec); err != nil {
			return nil, fmt.Errorf("unable to decode node record: %w", err)
		}
		unitData, err := udc(rec.UnitID)
		if err != nil {
			return nil, fmt.Errorf("unable to construct unit data: %w", err)
		}
		if err = types.Cbor.Unmarshal(rec.UnitData, &unitData); err != nil {
			return nil, fmt.Errorf("unable to decode unit data: %w", err)
		}
		if err = t.Add(rec.UnitID, &Unit{bearer: rec.Bearer, data: unitData}); err != nil {
			return nil, fmt.Errorf("unable to add unit: %w", err)
		}
	}

	return &State{
		hashAlgorithm: options.hashAlgorithm,
		committedTree: t,
		savepoints:    []*tree{t.Clone()},
	}, nil
}
