package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wormholelabs-xyz/swap-layer/messages"
	"github.com/wormholelabs-xyz/swap-layer/txsystem/swaplayer"
)

type feeEstimateConfig struct {
	baseFee          uint32
	nativeTokenPrice uint64
	maxGasDropoff    uint32
	gasDropoffMargin uint32
	gasPrice         uint32
	gasPriceMargin   uint32
	gasDropoff       uint32
	outputToken      string
}

// newFeeEstimateCmd creates an offline relayer fee calculator. It runs the same
// pricing as a node does when staging a relayed transfer, so operators can
// sanity check corridor parameters without touching state.
func newFeeEstimateCmd(_ *baseConfiguration) *cobra.Command {
	conf := &feeEstimateConfig{}
	cmd := &cobra.Command{
		Use:   "fee-estimate",
		Short: "Estimate the relayer fee for a corridor",
		RunE: func(cmd *cobra.Command, args []string) error {
			return estimateFee(cmd, conf)
		},
	}
	cmd.Flags().Uint32Var(&conf.baseFee, "base-fee", 0, "corridor base fee in micro-USDC")
	cmd.Flags().Uint64Var(&conf.nativeTokenPrice, "native-token-price", 0, "target chain gas token price in micro-USDC per whole token")
	cmd.Flags().Uint32Var(&conf.maxGasDropoff, "max-gas-dropoff", 0, "corridor gas dropoff cap, normalized")
	cmd.Flags().Uint32Var(&conf.gasDropoffMargin, "gas-dropoff-margin", 0, "dropoff cost markup in parts per million")
	cmd.Flags().Uint32Var(&conf.gasPrice, "gas-price", 0, "target chain gas price in micro gas token per gas unit")
	cmd.Flags().Uint32Var(&conf.gasPriceMargin, "gas-price-margin", 0, "execution cost markup in parts per million")
	cmd.Flags().Uint32Var(&conf.gasDropoff, "gas-dropoff", 0, "requested gas dropoff, normalized")
	cmd.Flags().StringVar(&conf.outputToken, "output-token", "usdc", "output token kind: usdc, gas or other")
	return cmd
}

func estimateFee(cmd *cobra.Command, conf *feeEstimateConfig) error {
	var outputToken messages.OutputToken
	switch conf.outputToken {
	case "usdc":
		outputToken = messages.TokenUsdc{}
	case "gas":
		outputToken = messages.TokenGas{}
	case "other":
		outputToken = messages.TokenOther{}
	default:
		return fmt.Errorf("unknown output token kind %q", conf.outputToken)
	}
	params := swaplayer.RelayParams{
		BaseFee:          conf.baseFee,
		NativeTokenPrice: conf.nativeTokenPrice,
		MaxGasDropoff:    conf.maxGasDropoff,
		GasDropoffMargin: conf.gasDropoffMargin,
		ExecutionParams: swaplayer.ExecutionParams{
			GasPrice:       conf.gasPrice,
			GasPriceMargin: conf.gasPriceMargin,
		},
	}
	fee, err := swaplayer.CalculateRelayerFee(params, conf.gasDropoff, outputToken)
	if err != nil {
		return err
	}
	cmd.Printf("relayer fee: %d µUSDC\n", fee)
	if conf.gasDropoff > 0 {
		cmd.Printf("gas dropoff: %d gas token smallest units\n", swaplayer.DenormalizeGasDropoff(conf.gasDropoff))
	}
	return nil
}
