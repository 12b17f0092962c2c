package swaplayer

import (
	"math"

	"github.com/holiman/uint256"

	"github.com/wormholelabs-xyz/swap-layer/messages"
)

// Fee arithmetic follows the corridor pricing model: all prices are
// expressed in micro-USDC, margins in parts per million, and gas dropoffs
// travel over the wire normalized by a factor of 1000.
const (
	// BaseFeeDisabled as a peer's base fee means relaying to that chain is
	// switched off.
	BaseFeeDisabled = math.MaxUint32

	gasDropoffScale = 1_000
	marginScale     = 1_000_000

	// nativeTokenScale is the smallest-unit denomination of the gas token
	// that NativeTokenPrice quotes one whole token of.
	nativeTokenScale = 1_000_000_000

	// gasUnitScale converts GasPrice quotes (micro-gas-token per gas unit)
	// into whole gas tokens.
	gasUnitScale = 1_000_000

	// Gas consumed by a plain transfer completion on the target chain, and
	// the extra gas a swap completion burns on top of it.
	transferGasOverhead = 100_000
	swapGasOverhead     = 300_000
	dropoffGasOverhead  = 32_000
)

// ExecutionParams prices target-chain execution for one corridor.
type ExecutionParams struct {
	_ struct{} `cbor:",toarray"`
	// GasPrice is the target chain gas price in micro gas token per gas unit.
	GasPrice uint32 `json:"gasPrice"`
	// GasPriceMargin is a parts-per-million markup on execution cost.
	GasPriceMargin uint32 `json:"gasPriceMargin"`
}

// RelayParams is the relay pricing of one registered peer corridor.
type RelayParams struct {
	_ struct{} `cbor:",toarray"`
	// BaseFee in micro-USDC, or BaseFeeDisabled.
	BaseFee uint32 `json:"baseFee"`
	// NativeTokenPrice is micro-USDC per whole gas token.
	NativeTokenPrice uint64 `json:"nativeTokenPrice,string"`
	// MaxGasDropoff is the corridor cap, normalized.
	MaxGasDropoff uint32 `json:"maxGasDropoff"`
	// GasDropoffMargin is a parts-per-million markup on dropoff cost.
	GasDropoffMargin uint32          `json:"gasDropoffMargin"`
	ExecutionParams  ExecutionParams `json:"executionParams"`
}

// RelayingEnabled reports whether the corridor accepts relayed transfers.
func (p RelayParams) RelayingEnabled() bool {
	return p.BaseFee != BaseFeeDisabled
}

// DenormalizeGasDropoff converts a wire-format gas dropoff into gas token
// smallest units.
func DenormalizeGasDropoff(gasDropoff uint32) uint64 {
	return uint64(gasDropoff) * gasDropoffScale
}

// CalculateRelayerFee quotes the micro-USDC fee for relaying a transfer
// with the given dropoff and output token over one corridor. Intermediate
// products run in 256-bit arithmetic; a quote that does not fit uint64 is
// an error, never a silent truncation.
func CalculateRelayerFee(params RelayParams, gasDropoff uint32, outputToken messages.OutputToken) (uint64, error) {
	if !params.RelayingEnabled() {
		return 0, ErrRelayingDisabled
	}

	fee := uint256.NewInt(uint64(params.BaseFee))

	if gasDropoff > 0 {
		if gasDropoff > params.MaxGasDropoff {
			return 0, ErrInvalidGasDropoff
		}
		// dropoff cost = price * dropoff / scale, marked up by the margin
		cost := new(uint256.Int).SetUint64(params.NativeTokenPrice)
		cost.Mul(cost, uint256.NewInt(DenormalizeGasDropoff(gasDropoff)))
		cost.Div(cost, uint256.NewInt(nativeTokenScale))
		cost = withMargin(cost, params.GasDropoffMargin)
		fee.Add(fee, cost)
	}

	gasUnits := uint64(transferGasOverhead)
	switch outputToken.(type) {
	case messages.TokenUsdc:
	case messages.TokenGas, messages.TokenOther:
		gasUnits += swapGasOverhead
	default:
		return 0, ErrInvalidOutputToken
	}
	if gasDropoff > 0 {
		gasUnits += dropoffGasOverhead
	}

	// execution cost = gasUnits * gasPrice / gasUnitScale gas tokens,
	// priced in micro-USDC
	execCost := uint256.NewInt(gasUnits)
	execCost.Mul(execCost, uint256.NewInt(uint64(params.ExecutionParams.GasPrice)))
	execCost.Mul(execCost, new(uint256.Int).SetUint64(params.NativeTokenPrice))
	execCost.Div(execCost, uint256.NewInt(gasUnitScale))
	execCost = withMargin(execCost, params.ExecutionParams.GasPriceMargin)
	fee.Add(fee, execCost)

	if !fee.IsUint64() {
		return 0, ErrRelayerFeeOverflow
	}
	return fee.Uint64(), nil
}

func withMargin(v *uint256.Int, marginPPM uint32) *uint256.Int {
	r := new(uint256.Int).Mul(v, uint256.NewInt(marginScale+uint64(marginPPM)))
	return r.Div(r, uint256.NewInt(marginScale))
}
