package swaplayer

import (
	"fmt"
	"hash"

	"github.com/wormholelabs-xyz/swap-layer/state"
	"github.com/wormholelabs-xyz/swap-layer/types"
)

// TokenAccountData is the balance of one owner in one asset. Custody
// accounts use the same unit type with the owning record's unit ID as
// bearer.
type TokenAccountData struct {
	_       struct{}      `cbor:",toarray"`
	Asset   types.Address `json:"asset"`
	Balance uint64        `json:"balance,string"`
}

// PreparedFillData is a bridged-in transfer waiting to be consumed exactly
// once. The tokens themselves sit in the fill's custody account.
type PreparedFillData struct {
	_               struct{}      `cbor:",toarray"`
	Amount          uint64        `json:"amount,string"`
	SourceChain     types.ChainID `json:"sourceChain"`
	OrderSender     types.Address `json:"orderSender"`
	RedeemerMessage types.Bytes   `json:"redeemerMessage"`
}

// StagedRedeem captures the redeem option chosen when staging an outbound
// transfer.
type StagedRedeem struct {
	_           struct{}    `cbor:",toarray"`
	Mode        uint8       `json:"mode"`
	GasDropoff  uint32      `json:"gasDropoff"`
	RelayingFee uint64      `json:"relayingFee,string"`
	Payload     types.Bytes `json:"payload,omitempty"`
}

const (
	StagedRedeemDirect uint8 = iota
	StagedRedeemPayload
	StagedRedeemRelay
)

// StagedOutboundData records an accepted outbound request until the bridge
// picks it up. Funds are escrowed in the record's custody account.
type StagedOutboundData struct {
	_                  struct{}      `cbor:",toarray"`
	Sender             types.Address `json:"sender"`
	PreparedBy         types.Address `json:"preparedBy"`
	TargetChain        types.ChainID `json:"targetChain"`
	Recipient          types.Address `json:"recipient"`
	StagedRedeem       StagedRedeem  `json:"stagedRedeem"`
	EncodedOutputToken types.Bytes   `json:"encodedOutputToken,omitempty"`
	CustodyToken       types.UnitID  `json:"custodyToken"`
	// RefundToken is the usdc account credited if the outbound transfer is
	// aborted before the bridge picks it up.
	RefundToken types.UnitID `json:"refundToken"`
}

// StagedInboundData parks a payload-mode fill until its recipient releases
// it. Deposit is the native holding deposit returned to the releaser's
// beneficiary.
type StagedInboundData struct {
	_            struct{}      `cbor:",toarray"`
	CustodyToken types.UnitID  `json:"custodyToken"`
	StagedBy     types.Address `json:"stagedBy"`
	SourceChain  types.ChainID `json:"sourceChain"`
	Sender       types.Address `json:"sender"`
	Recipient    types.Address `json:"recipient"`
	Payload      types.Bytes   `json:"payload"`
	Deposit      uint64        `json:"deposit,string"`
}

// TransferAuthorityData is a single-use capability bound to the hash of one
// exact staging request. The bearer is the delegating sender.
type TransferAuthorityData struct {
	_           struct{}    `cbor:",toarray"`
	RequestHash types.Bytes `json:"requestHash"`
}

// PeerData registers the trusted counterpart endpoint on a foreign chain
// together with the relay pricing for that corridor.
type PeerData struct {
	_           struct{}      `cbor:",toarray"`
	Chain       types.ChainID `json:"chain"`
	PeerAddress types.Address `json:"peerAddress"`
	RelayParams RelayParams   `json:"relayParams"`
}

// CustodianData is the singleton admin record of the engine.
type CustodianData struct {
	_              struct{}      `cbor:",toarray"`
	Owner          types.Address `json:"owner"`
	OwnerAssistant types.Address `json:"ownerAssistant"`
	PendingOwner   types.Address `json:"pendingOwner"`
	FeeRecipient   types.Address `json:"feeRecipient"`
}

func (t *TokenAccountData) Write(hasher hash.Hash) error { return writeData(hasher, t) }
func (t *TokenAccountData) SummaryValueInput() uint64    { return t.Balance }
func (t *TokenAccountData) Copy() state.UnitData {
	c := *t
	return &c
}

func (f *PreparedFillData) Write(hasher hash.Hash) error { return writeData(hasher, f) }
func (f *PreparedFillData) SummaryValueInput() uint64    { return 0 }
func (f *PreparedFillData) Copy() state.UnitData {
	c := *f
	c.RedeemerMessage = append(types.Bytes(nil), f.RedeemerMessage...)
	return &c
}

func (s *StagedOutboundData) Write(hasher hash.Hash) error { return writeData(hasher, s) }
func (s *StagedOutboundData) SummaryValueInput() uint64    { return 0 }
func (s *StagedOutboundData) Copy() state.UnitData {
	c := *s
	c.StagedRedeem.Payload = append(types.Bytes(nil), s.StagedRedeem.Payload...)
	c.EncodedOutputToken = append(types.Bytes(nil), s.EncodedOutputToken...)
	c.CustodyToken = append(types.UnitID(nil), s.CustodyToken...)
	c.RefundToken = append(types.UnitID(nil), s.RefundToken...)
	return &c
}

func (s *StagedInboundData) Write(hasher hash.Hash) error { return writeData(hasher, s) }
func (s *StagedInboundData) SummaryValueInput() uint64    { return s.Deposit }
func (s *StagedInboundData) Copy() state.UnitData {
	c := *s
	c.CustodyToken = append(types.UnitID(nil), s.CustodyToken...)
	c.Payload = append(types.Bytes(nil), s.Payload...)
	return &c
}

func (a *TransferAuthorityData) Write(hasher hash.Hash) error { return writeData(hasher, a) }
func (a *TransferAuthorityData) SummaryValueInput() uint64    { return 0 }
func (a *TransferAuthorityData) Copy() state.UnitData {
	c := *a
	c.RequestHash = append(types.Bytes(nil), a.RequestHash...)
	return &c
}

func (p *PeerData) Write(hasher hash.Hash) error { return writeData(hasher, p) }
func (p *PeerData) SummaryValueInput() uint64    { return 0 }
func (p *PeerData) Copy() state.UnitData {
	c := *p
	return &c
}

func (c *CustodianData) Write(hasher hash.Hash) error { return writeData(hasher, c) }
func (c *CustodianData) SummaryValueInput() uint64    { return 0 }
func (c *CustodianData) Copy() state.UnitData {
	d := *c
	return &d
}

func writeData(hasher hash.Hash, d state.UnitData) error {
	enc, err := types.Cbor.Marshal(d)
	if err != nil {
		return fmt.Errorf("unit data encode error: %w", err)
	}
	_, err = hasher.Write(enc)
	return err
}
