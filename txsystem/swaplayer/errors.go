package swaplayer

import "errors"

var (
	ErrInvalidAmount     = errors.New("amount must be greater than zero")
	ErrInvalidRecipient  = errors.New("recipient must not be the zero address")
	ErrChainNotSupported = errors.New("no peer registered for chain")
	ErrInvalidPeer       = errors.New("peer address does not match registered peer")

	ErrFillConsumed        = errors.New("prepared fill already consumed or unknown")
	ErrInvalidRedeemMode   = errors.New("fill redeem mode does not match operation")
	ErrInvalidOutputToken  = errors.New("fill output token does not match operation")
	ErrCallerNotRecipient  = errors.New("caller is not the fill recipient")
	ErrNotInboundRecipient = errors.New("caller is not the staged inbound recipient")
	ErrInsufficientBalance = errors.New("insufficient balance")

	ErrRelayingDisabled      = errors.New("relaying is disabled for this corridor")
	ErrInvalidGasDropoff     = errors.New("requested gas dropoff exceeds corridor maximum")
	ErrExceedsMaxRelayingFee = errors.New("relaying fee exceeds caller maximum")
	ErrRelayerFeeOverflow    = errors.New("relayer fee computation overflows uint64")
	ErrFeeExceedsAmount      = errors.New("relaying fee exceeds transfer amount")

	ErrSwapPastDeadline = errors.New("swap deadline has passed")

	ErrTransferAuthorityUnknown  = errors.New("no transfer authority for request")
	ErrTransferAuthorityMismatch = errors.New("transfer authority bound to a different request")

	ErrOwnerOnly            = errors.New("caller is not the owner")
	ErrOwnerOrAssistantOnly = errors.New("caller is neither owner nor owner assistant")
	ErrNotPendingOwner      = errors.New("caller is not the pending owner")
	ErrNoPendingTransfer    = errors.New("no pending ownership transfer")
	ErrInvalidNewOwner      = errors.New("new owner must not be the zero address or current owner")
	ErrZeroAddress          = errors.New("address must not be zero")
)
