// Package messages implements the swap-message envelope attached to every
// cross-chain fill. The byte layout is a fixed serialization contract shared
// with the foreign-chain peers; unknown or legacy encodings are rejected,
// never defaulted.
package messages

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/wormholelabs-xyz/swap-layer/types"
)

type (
	// SwapMessage is the decoded redeemer message of a fill: who gets the
	// proceeds, how the redemption may be performed and in which token the
	// proceeds are settled.
	SwapMessage struct {
		Recipient   types.Address
		RedeemMode  RedeemMode
		OutputToken OutputToken
	}

	// RedeemMode is a closed tagged union: Direct, Payload or Relay.
	RedeemMode interface {
		isRedeemMode()
	}

	// RedeemDirect requires the recipient itself to complete the transfer.
	RedeemDirect struct{}

	// RedeemPayload parks the proceeds together with an opaque payload for a
	// programmatic recipient.
	RedeemPayload struct {
		Sender  types.Address
		Payload []byte
	}

	// RedeemRelay lets a third party complete the transfer, fronting a gas
	// dropoff and collecting a relaying fee.
	RedeemRelay struct {
		// GasDropoff is in normalized units, see DenormalizeGasDropoff.
		GasDropoff  uint32
		RelayingFee uint64
	}

	// OutputToken is a closed tagged union: Usdc, Gas or Other.
	OutputToken interface {
		isOutputToken()
	}

	TokenUsdc struct{}

	// TokenGas means the proceeds are swapped into the native gas token.
	TokenGas struct {
		Swap OutputSwap
	}

	// TokenOther means the proceeds are swapped into an arbitrary mint.
	TokenOther struct {
		Address types.Address
		Swap    OutputSwap
	}

	// OutputSwap carries the swap constraints fixed at staging time.
	OutputSwap struct {
		Deadline    uint32
		LimitAmount uint64
		SwapType    SwapType
	}

	// SwapType pins the execution venue. A nil DexProgramID leaves the venue
	// to the completing party's route.
	SwapType struct {
		DexProgramID *types.Address
	}
)

func (RedeemDirect) isRedeemMode()  {}
func (RedeemPayload) isRedeemMode() {}
func (RedeemRelay) isRedeemMode()   {}

func (TokenUsdc) isOutputToken()  {}
func (TokenGas) isOutputToken()   {}
func (TokenOther) isOutputToken() {}

const (
	messageVersion = 1

	modeDirect  = 0
	modePayload = 1
	modeRelay   = 2

	tokenUsdc  = 0
	tokenGas   = 16
	tokenOther = 32

	swapTypeGenericRouter = 16

	// RelayingFee is a 6 byte field on the wire.
	maxRelayingFee = 1<<48 - 1
)

var (
	ErrInvalidVersion     = errors.New("invalid swap message version")
	ErrInvalidRedeemMode  = errors.New("invalid redeem mode encoding")
	ErrInvalidOutputToken = errors.New("invalid output token encoding")
	ErrInvalidSwapType    = errors.New("invalid swap type encoding")
	ErrTrailingBytes      = errors.New("swap message has trailing bytes")
	ErrLimitAmountRange   = errors.New("limit amount out of range")
	ErrRelayingFeeRange   = errors.New("relaying fee out of range")
)

// Encode serializes the message in its wire format.
func (m SwapMessage) Encode() ([]byte, error) {
	buf := &bytes.Buffer{}
	buf.WriteByte(messageVersion)
	buf.Write(m.Recipient[:])

	switch mode := m.RedeemMode.(type) {
	case RedeemDirect:
		buf.WriteByte(modeDirect)
	case RedeemPayload:
		buf.WriteByte(modePayload)
		buf.Write(mode.Sender[:])
		if len(mode.Payload) > 1<<16-1 {
			return nil, fmt.Errorf("payload too long: %d bytes", len(mode.Payload))
		}
		writeUint16(buf, uint16(len(mode.Payload)))
		buf.Write(mode.Payload)
	case RedeemRelay:
		buf.WriteByte(modeRelay)
		writeUint32(buf, mode.GasDropoff)
		if mode.RelayingFee > maxRelayingFee {
			return nil, ErrRelayingFeeRange
		}
		writeUint48(buf, mode.RelayingFee)
	default:
		return nil, ErrInvalidRedeemMode
	}

	switch token := m.OutputToken.(type) {
	case TokenUsdc:
		buf.WriteByte(tokenUsdc)
	case TokenGas:
		buf.WriteByte(tokenGas)
		if err := encodeOutputSwap(buf, token.Swap); err != nil {
			return nil, err
		}
	case TokenOther:
		buf.WriteByte(tokenOther)
		buf.Write(token.Address[:])
		if err := encodeOutputSwap(buf, token.Swap); err != nil {
			return nil, err
		}
	default:
		return nil, ErrInvalidOutputToken
	}
	return buf.Bytes(), nil
}

// Decode parses a wire-format message. The whole buffer must be consumed.
func Decode(data []byte) (SwapMessage, error) {
	r := bytes.NewReader(data)
	msg, err := decode(r)
	if err != nil {
		return SwapMessage{}, err
	}
	if r.Len() != 0 {
		return SwapMessage{}, ErrTrailingBytes
	}
	return msg, nil
}

func decode(r *bytes.Reader) (SwapMessage, error) {
	var msg SwapMessage
	version, err := r.ReadByte()
	if err != nil {
		return msg, fmt.Errorf("reading version: %w", err)
	}
	if version != messageVersion {
		return msg, fmt.Errorf("%w: %d", ErrInvalidVersion, version)
	}
	if msg.Recipient, err = readAddress(r); err != nil {
		return msg, fmt.Errorf("reading recipient: %w", err)
	}
	if msg.RedeemMode, err = decodeRedeemMode(r); err != nil {
		return msg, err
	}
	if msg.OutputToken, err = decodeOutputToken(r); err != nil {
		return msg, err
	}
	return msg, nil
}

// EncodeOutputToken serializes a single output token arm in wire format.
func EncodeOutputToken(token OutputToken) ([]byte, error) {
	buf := &bytes.Buffer{}
	switch t := token.(type) {
	case TokenUsdc:
		buf.WriteByte(tokenUsdc)
	case TokenGas:
		buf.WriteByte(tokenGas)
		if err := encodeOutputSwap(buf, t.Swap); err != nil {
			return nil, err
		}
	case TokenOther:
		buf.WriteByte(tokenOther)
		buf.Write(t.Address[:])
		if err := encodeOutputSwap(buf, t.Swap); err != nil {
			return nil, err
		}
	default:
		return nil, ErrInvalidOutputToken
	}
	return buf.Bytes(), nil
}

// DecodeOutputToken parses a single output token arm. The whole buffer must
// be consumed.
func DecodeOutputToken(data []byte) (OutputToken, error) {
	r := bytes.NewReader(data)
	token, err := decodeOutputToken(r)
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, ErrTrailingBytes
	}
	return token, nil
}

func decodeRedeemMode(r *bytes.Reader) (RedeemMode, error) {
	disc, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("reading redeem mode: %w", err)
	}
	switch disc {
	case modeDirect:
		return RedeemDirect{}, nil
	case modePayload:
		sender, err := readAddress(r)
		if err != nil {
			return nil, fmt.Errorf("reading payload sender: %w", err)
		}
		length, err := readUint16(r)
		if err != nil {
			return nil, fmt.Errorf("reading payload length: %w", err)
		}
		payload := make([]byte, length)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, fmt.Errorf("reading payload: %w", err)
		}
		return RedeemPayload{Sender: sender, Payload: payload}, nil
	case modeRelay:
		dropoff, err := readUint32(r)
		if err != nil {
			return nil, fmt.Errorf("reading gas dropoff: %w", err)
		}
		fee, err := readUint48(r)
		if err != nil {
			return nil, fmt.Errorf("reading relaying fee: %w", err)
		}
		return RedeemRelay{GasDropoff: dropoff, RelayingFee: fee}, nil
	default:
		return nil, fmt.Errorf("%w: discriminant %d", ErrInvalidRedeemMode, disc)
	}
}

func decodeOutputToken(r *bytes.Reader) (OutputToken, error) {
	disc, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("reading output token: %w", err)
	}
	switch disc {
	case tokenUsdc:
		return TokenUsdc{}, nil
	case tokenGas:
		swap, err := decodeOutputSwap(r)
		if err != nil {
			return nil, err
		}
		return TokenGas{Swap: swap}, nil
	case tokenOther:
		addr, err := readAddress(r)
		if err != nil {
			return nil, fmt.Errorf("reading output token address: %w", err)
		}
		swap, err := decodeOutputSwap(r)
		if err != nil {
			return nil, err
		}
		return TokenOther{Address: addr, Swap: swap}, nil
	default:
		return nil, fmt.Errorf("%w: discriminant %d", ErrInvalidOutputToken, disc)
	}
}

func encodeOutputSwap(buf *bytes.Buffer, swap OutputSwap) error {
	writeUint32(buf, swap.Deadline)
	// the wire field is u128, engine amounts are u64
	buf.Write(make([]byte, 8))
	writeUint64(buf, swap.LimitAmount)
	buf.WriteByte(swapTypeGenericRouter)
	if swap.SwapType.DexProgramID != nil {
		buf.WriteByte(1)
		buf.Write(swap.SwapType.DexProgramID[:])
	} else {
		buf.WriteByte(0)
	}
	return nil
}

func decodeOutputSwap(r *bytes.Reader) (OutputSwap, error) {
	var swap OutputSwap
	deadline, err := readUint32(r)
	if err != nil {
		return swap, fmt.Errorf("reading swap deadline: %w", err)
	}
	swap.Deadline = deadline
	high, err := readUint64(r)
	if err != nil {
		return swap, fmt.Errorf("reading limit amount: %w", err)
	}
	if high != 0 {
		return swap, ErrLimitAmountRange
	}
	if swap.LimitAmount, err = readUint64(r); err != nil {
		return swap, fmt.Errorf("reading limit amount: %w", err)
	}
	disc, err := r.ReadByte()
	if err != nil {
		return swap, fmt.Errorf("reading swap type: %w", err)
	}
	if disc != swapTypeGenericRouter {
		return swap, fmt.Errorf("%w: discriminant %d", ErrInvalidSwapType, disc)
	}
	hasDex, err := r.ReadByte()
	if err != nil {
		return swap, fmt.Errorf("reading dex flag: %w", err)
	}
	switch hasDex {
	case 0:
	case 1:
		dex, err := readAddress(r)
		if err != nil {
			return swap, fmt.Errorf("reading dex program id: %w", err)
		}
		swap.SwapType.DexProgramID = &dex
	default:
		return swap, fmt.Errorf("%w: invalid dex flag %d", ErrInvalidSwapType, hasDex)
	}
	return swap, nil
}

func readAddress(r *bytes.Reader) (types.Address, error) {
	var a types.Address
	if _, err := io.ReadFull(r, a[:]); err != nil {
		return a, err
	}
	return a, nil
}

func readUint16(r *bytes.Reader) (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b[:]), nil
}

func readUint32(r *bytes.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

func readUint48(r *bytes.Reader) (uint64, error) {
	var b [6]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return uint64(b[0])<<40 | uint64(b[1])<<32 | uint64(b[2])<<24 |
		uint64(b[3])<<16 | uint64(b[4])<<8 | uint64(b[5]), nil
}

func readUint64(r *bytes.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b[:]), nil
}

func writeUint16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeUint48(buf *bytes.Buffer, v uint64) {
	buf.Write([]byte{
		byte(v >> 40), byte(v >> 32), byte(v >> 24),
		byte(v >> 16), byte(v >> 8), byte(v),
	})
}

func writeUint64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}
