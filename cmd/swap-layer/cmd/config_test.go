package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wormholelabs-xyz/swap-layer/txsystem/swaplayer"
	"github.com/wormholelabs-xyz/swap-layer/types"
)

const testConfigYAML = `
server:
  address: "localhost:9500"
  round-interval: 250ms
database:
  path: ""
genesis:
  owner: "00000000000000000000000000000000000000000000000000000000000000a1"
  owner-assistant: "00000000000000000000000000000000000000000000000000000000000000a2"
  fee-recipient: "00000000000000000000000000000000000000000000000000000000000000a3"
  peers:
    - chain: 23
      peer-address: "00000000000000000000000000000000000000000000000000000000000000ee"
      relay-params:
        base-fee: 1500
        native-token-price: 25000000
        max-gas-dropoff: 1000000
        gas-dropoff-margin: 100000
        gas-price: 2
        gas-price-margin: 250000
  accounts:
    - owner: "0000000000000000000000000000000000000000000000000000000000000001"
      asset: usdc
      balance: 5000000
pools:
  - asset-a: usdc
    asset-b: gas
    reserve-a: 1000000000000
    reserve-b: 1000000000000
`

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadNodeConfiguration(t *testing.T) {
	t.Run("full file", func(t *testing.T) {
		conf, err := loadNodeConfiguration(writeTestConfig(t, testConfigYAML))
		require.NoError(t, err)
		require.Equal(t, "localhost:9500", conf.Server.Address)

		interval, err := conf.Server.roundInterval()
		require.NoError(t, err)
		require.Equal(t, int64(250_000_000), interval.Nanoseconds())

		genesis, err := conf.Genesis.toGenesisConfig()
		require.NoError(t, err)
		require.Equal(t, testAddr(0xA1), genesis.Owner)
		require.Equal(t, testAddr(0xA2), genesis.OwnerAssistant)
		require.Equal(t, testAddr(0xA3), genesis.FeeRecipient)
		require.Len(t, genesis.Peers, 1)
		require.Equal(t, types.ChainID(23), genesis.Peers[0].Chain)
		require.EqualValues(t, 1500, genesis.Peers[0].RelayParams.BaseFee)
		require.EqualValues(t, 2, genesis.Peers[0].RelayParams.ExecutionParams.GasPrice)
		require.Len(t, genesis.Accounts, 1)
		require.Equal(t, swaplayer.AssetUsdc, genesis.Accounts[0].Asset)
		require.EqualValues(t, 5_000_000, genesis.Accounts[0].Balance)
	})

	t.Run("defaults", func(t *testing.T) {
		conf, err := loadNodeConfiguration(writeTestConfig(t, "genesis:\n  owner: \"\"\n"))
		require.NoError(t, err)
		require.Equal(t, defaultServerAddress, conf.Server.Address)
		interval, err := conf.Server.roundInterval()
		require.NoError(t, err)
		require.Equal(t, defaultRoundInterval, interval)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := loadNodeConfiguration(filepath.Join(t.TempDir(), "nope.yaml"))
		require.ErrorContains(t, err, "reading configuration file")
	})

	t.Run("invalid round interval", func(t *testing.T) {
		conf, err := loadNodeConfiguration(writeTestConfig(t, "server:\n  round-interval: soon\n"))
		require.NoError(t, err)
		_, err = conf.Server.roundInterval()
		require.ErrorContains(t, err, "invalid round interval")
	})
}

func TestParseAsset(t *testing.T) {
	usdc, err := parseAsset("usdc")
	require.NoError(t, err)
	require.Equal(t, swaplayer.AssetUsdc, usdc)

	gas, err := parseAsset("gas")
	require.NoError(t, err)
	require.Equal(t, swaplayer.AssetGas, gas)

	other, err := parseAsset(strings.Repeat("ab", 32))
	require.NoError(t, err)
	require.Equal(t, byte(0xAB), other[0])

	_, err = parseAsset("bogus")
	require.ErrorContains(t, err, "invalid hex address")
}

func TestBuildVenue(t *testing.T) {
	venue, err := buildVenue([]poolConfiguration{
		{AssetA: "usdc", AssetB: "gas", ReserveA: 1_000_000, ReserveB: 1_000_000},
	})
	require.NoError(t, err)
	require.NotNil(t, venue)

	_, err = buildVenue([]poolConfiguration{
		{AssetA: "usdc", AssetB: "gas", ReserveA: 0, ReserveB: 1},
	})
	require.ErrorContains(t, err, "reserves must be positive")
}

func TestFeeEstimateCmd(t *testing.T) {
	run := func(t *testing.T, args ...string) (string, error) {
		t.Helper()
		cmd := newFeeEstimateCmd(&baseConfiguration{})
		out := &bytes.Buffer{}
		cmd.SetOut(out)
		cmd.SetErr(out)
		cmd.SetArgs(args)
		err := cmd.Execute()
		return out.String(), err
	}

	t.Run("usdc without dropoff", func(t *testing.T) {
		out, err := run(t,
			"--base-fee", "1500",
			"--native-token-price", "25000000",
			"--gas-price", "2",
			"--gas-price-margin", "250000",
		)
		require.NoError(t, err)
		require.Contains(t, out, "relayer fee: 6251500")
	})

	t.Run("dropoff over corridor cap", func(t *testing.T) {
		_, err := run(t,
			"--base-fee", "1500",
			"--native-token-price", "25000000",
			"--max-gas-dropoff", "100",
			"--gas-dropoff", "200",
		)
		require.ErrorIs(t, err, swaplayer.ErrInvalidGasDropoff)
	})

	t.Run("unknown output token", func(t *testing.T) {
		_, err := run(t, "--output-token", "stablecoin")
		require.ErrorContains(t, err, "unknown output token")
	})
}

func testAddr(b byte) types.Address {
	var a types.Address
	a[31] = b
	return a
}
