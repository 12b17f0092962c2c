package swaplayer

import (
	"github.com/wormholelabs-xyz/swap-layer/swap"
	"github.com/wormholelabs-xyz/swap-layer/types"
)

const (
	PayloadTypeStageOutbound          = "stage-outbound"
	PayloadTypeGrantTransferAuthority = "grant-transfer-authority"

	PayloadTypeCompleteTransferDirect  = "complete-transfer-direct"
	PayloadTypeCompleteTransferRelay   = "complete-transfer-relay"
	PayloadTypeCompleteTransferPayload = "complete-transfer-payload"
	PayloadTypeCompleteSwapDirect      = "complete-swap-direct"
	PayloadTypeCompleteSwapRelay       = "complete-swap-relay"
	PayloadTypeCompleteSwapPayload     = "complete-swap-payload"
	PayloadTypeReleaseInbound          = "release-inbound"

	PayloadTypeUpdateFeeRecipient       = "update-fee-recipient"
	PayloadTypeUpdateOwnerAssistant     = "update-owner-assistant"
	PayloadTypeSubmitOwnershipTransfer  = "submit-ownership-transfer"
	PayloadTypeConfirmOwnershipTransfer = "confirm-ownership-transfer"
)

// RedeemOption selects the redeem mode baked into a staged outbound
// transfer. A nil RedeemOption on the attributes means direct redemption.
type RedeemOption struct {
	_             struct{}    `cbor:",toarray"`
	Mode          uint8       `json:"mode"`
	GasDropoff    uint32      `json:"gasDropoff"`
	MaxRelayerFee uint64      `json:"maxRelayerFee,string"`
	Payload       types.Bytes `json:"payload,omitempty"`
}

// StageOutboundAttributes describes an outbound staging request. The
// transaction's unit ID must be the staged outbound record derived from the
// hash of these attributes.
type StageOutboundAttributes struct {
	_                    struct{}      `cbor:",toarray"`
	Sender               types.Address `json:"sender"`
	Amount               uint64        `json:"amount,string"`
	TargetChain          types.ChainID `json:"targetChain"`
	Recipient            types.Address `json:"recipient"`
	RedeemOption         *RedeemOption `json:"redeemOption,omitempty"`
	EncodedOutputToken   types.Bytes   `json:"encodedOutputToken,omitempty"`
	// RefundRecipient receives the escrowed usdc if the outbound transfer is
	// aborted before the bridge picks it up. Defaults to Sender when zero.
	RefundRecipient      types.Address `json:"refundRecipient"`
	UseTransferAuthority bool          `json:"useTransferAuthority,omitempty"`
}

// GrantTransferAuthorityAttributes delegates a single staging request: the
// submitter authorizes anyone to stage exactly the request hashed here on
// their behalf.
type GrantTransferAuthorityAttributes struct {
	_           struct{}    `cbor:",toarray"`
	RequestHash types.Bytes `json:"requestHash"`
}

type CompleteTransferDirectAttributes struct {
	_ struct{} `cbor:",toarray"`
}

type CompleteTransferRelayAttributes struct {
	_ struct{} `cbor:",toarray"`
}

// CompleteTransferPayloadAttributes parks a payload fill in a staged
// inbound record for later release by the recipient.
type CompleteTransferPayloadAttributes struct {
	_ struct{} `cbor:",toarray"`
}

// CompleteSwapDirectAttributes carries the relayer-chosen route and quote
// for a direct-mode swap completion.
type CompleteSwapDirectAttributes struct {
	_     struct{}   `cbor:",toarray"`
	Route swap.Route `json:"route"`
	Args  swap.Args  `json:"args"`
}

type CompleteSwapRelayAttributes struct {
	_     struct{}   `cbor:",toarray"`
	Route swap.Route `json:"route"`
	Args  swap.Args  `json:"args"`
}

type CompleteSwapPayloadAttributes struct {
	_     struct{}   `cbor:",toarray"`
	Route swap.Route `json:"route"`
	Args  swap.Args  `json:"args"`
}

// ReleaseInboundAttributes releases a parked payload fill. Destination
// selects the account credited with the escrowed funds and Beneficiary
// receives the holding deposit; either defaults to the recipient when zero.
type ReleaseInboundAttributes struct {
	_           struct{}      `cbor:",toarray"`
	Destination types.Address `json:"destination"`
	Beneficiary types.Address `json:"beneficiary"`
}

type UpdateFeeRecipientAttributes struct {
	_               struct{}      `cbor:",toarray"`
	NewFeeRecipient types.Address `json:"newFeeRecipient"`
}

type UpdateOwnerAssistantAttributes struct {
	_            struct{}      `cbor:",toarray"`
	NewAssistant types.Address `json:"newAssistant"`
}

type SubmitOwnershipTransferAttributes struct {
	_        struct{}      `cbor:",toarray"`
	NewOwner types.Address `json:"newOwner"`
}

type ConfirmOwnershipTransferAttributes struct {
	_ struct{} `cbor:",toarray"`
}
