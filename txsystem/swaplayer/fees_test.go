package swaplayer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wormholelabs-xyz/swap-layer/messages"
)

func defaultRelayParams() RelayParams {
	return RelayParams{
		BaseFee:          1500,
		NativeTokenPrice: 25_000_000,
		MaxGasDropoff:    1_000_000,
		GasDropoffMargin: 100_000, // 10%
		ExecutionParams: ExecutionParams{
			GasPrice:       2,
			GasPriceMargin: 250_000, // 25%
		},
	}
}

func TestCalculateRelayerFee(t *testing.T) {
	t.Run("usdc output, no dropoff", func(t *testing.T) {
		fee, err := CalculateRelayerFee(defaultRelayParams(), 0, messages.TokenUsdc{})
		require.NoError(t, err)
		// base 1500 + execution 100_000*2*25 with 25% margin
		require.EqualValues(t, 1500+6_250_000, fee)
	})

	t.Run("gas output with dropoff", func(t *testing.T) {
		fee, err := CalculateRelayerFee(defaultRelayParams(), 500_000, messages.TokenGas{})
		require.NoError(t, err)
		// base 1500
		// + dropoff 0.5 token * 25 USDC with 10% margin = 13_750_000
		// + execution 432_000 gas * 2 * 25 with 25% margin = 27_000_000
		require.EqualValues(t, 40_751_500, fee)
	})

	t.Run("other output prices like a swap", func(t *testing.T) {
		gasFee, err := CalculateRelayerFee(defaultRelayParams(), 0, messages.TokenGas{})
		require.NoError(t, err)
		otherFee, err := CalculateRelayerFee(defaultRelayParams(), 0, messages.TokenOther{})
		require.NoError(t, err)
		require.Equal(t, gasFee, otherFee)

		usdcFee, err := CalculateRelayerFee(defaultRelayParams(), 0, messages.TokenUsdc{})
		require.NoError(t, err)
		require.Greater(t, otherFee, usdcFee)
	})

	t.Run("relaying disabled", func(t *testing.T) {
		params := defaultRelayParams()
		params.BaseFee = BaseFeeDisabled
		_, err := CalculateRelayerFee(params, 0, messages.TokenUsdc{})
		require.ErrorIs(t, err, ErrRelayingDisabled)
	})

	t.Run("dropoff above corridor maximum", func(t *testing.T) {
		params := defaultRelayParams()
		_, err := CalculateRelayerFee(params, params.MaxGasDropoff+1, messages.TokenUsdc{})
		require.ErrorIs(t, err, ErrInvalidGasDropoff)
	})

	t.Run("fee overflow is rejected", func(t *testing.T) {
		params := defaultRelayParams()
		params.NativeTokenPrice = math.MaxUint64
		params.ExecutionParams.GasPrice = math.MaxUint32
		_, err := CalculateRelayerFee(params, 0, messages.TokenUsdc{})
		require.ErrorIs(t, err, ErrRelayerFeeOverflow)
	})
}

func TestDenormalizeGasDropoff(t *testing.T) {
	require.EqualValues(t, 0, DenormalizeGasDropoff(0))
	require.EqualValues(t, 7_000, DenormalizeGasDropoff(7))
	require.EqualValues(t, uint64(math.MaxUint32)*1000, DenormalizeGasDropoff(math.MaxUint32))
}
