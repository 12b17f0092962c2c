package cmd

import (
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wormholelabs-xyz/swap-layer/txsystem/swaplayer"
	"github.com/wormholelabs-xyz/swap-layer/types"
)

type (
	// nodeConfiguration is the YAML file layout of a node. Addresses and
	// assets are hex strings (assets also accept the names "usdc" and
	// "gas") and are converted to engine types when the node starts.
	nodeConfiguration struct {
		Server   serverConfiguration   `yaml:"server"`
		Database databaseConfiguration `yaml:"database"`
		Genesis  genesisConfiguration  `yaml:"genesis"`
		Pools    []poolConfiguration   `yaml:"pools"`
	}

	serverConfiguration struct {
		Address       string `yaml:"address"`
		RoundInterval string `yaml:"round-interval"`
	}

	databaseConfiguration struct {
		// Path of the bolt database file. Empty means in-memory storage,
		// losing all state on shutdown.
		Path string `yaml:"path"`
	}

	genesisConfiguration struct {
		Owner          string                 `yaml:"owner"`
		OwnerAssistant string                 `yaml:"owner-assistant"`
		FeeRecipient   string                 `yaml:"fee-recipient"`
		Peers          []peerConfiguration    `yaml:"peers"`
		Accounts       []accountConfiguration `yaml:"accounts"`
	}

	peerConfiguration struct {
		Chain       uint16                   `yaml:"chain"`
		PeerAddress string                   `yaml:"peer-address"`
		RelayParams relayParamsConfiguration `yaml:"relay-params"`
	}

	relayParamsConfiguration struct {
		BaseFee          uint32 `yaml:"base-fee"`
		NativeTokenPrice uint64 `yaml:"native-token-price"`
		MaxGasDropoff    uint32 `yaml:"max-gas-dropoff"`
		GasDropoffMargin uint32 `yaml:"gas-dropoff-margin"`
		GasPrice         uint32 `yaml:"gas-price"`
		GasPriceMargin   uint32 `yaml:"gas-price-margin"`
	}

	accountConfiguration struct {
		Owner   string `yaml:"owner"`
		Asset   string `yaml:"asset"`
		Balance uint64 `yaml:"balance"`
	}

	poolConfiguration struct {
		AssetA   string `yaml:"asset-a"`
		AssetB   string `yaml:"asset-b"`
		ReserveA uint64 `yaml:"reserve-a"`
		ReserveB uint64 `yaml:"reserve-b"`
	}
)

const (
	defaultServerAddress = "localhost:8001"
	defaultRoundInterval = 2 * time.Second
)

func loadNodeConfiguration(path string) (*nodeConfiguration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration file: %w", err)
	}
	conf := &nodeConfiguration{}
	if err := yaml.Unmarshal(data, conf); err != nil {
		return nil, fmt.Errorf("parsing configuration file %s: %w", path, err)
	}
	if conf.Server.Address == "" {
		conf.Server.Address = defaultServerAddress
	}
	return conf, nil
}

func (c serverConfiguration) roundInterval() (time.Duration, error) {
	if c.RoundInterval == "" {
		return defaultRoundInterval, nil
	}
	d, err := time.ParseDuration(c.RoundInterval)
	if err != nil {
		return 0, fmt.Errorf("invalid round interval: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("round interval must be positive, got %s", d)
	}
	return d, nil
}

func (c genesisConfiguration) toGenesisConfig() (swaplayer.GenesisConfig, error) {
	cfg := swaplayer.GenesisConfig{}
	var err error
	if cfg.Owner, err = parseAddress(c.Owner); err != nil {
		return cfg, fmt.Errorf("genesis owner: %w", err)
	}
	if c.OwnerAssistant != "" {
		if cfg.OwnerAssistant, err = parseAddress(c.OwnerAssistant); err != nil {
			return cfg, fmt.Errorf("genesis owner assistant: %w", err)
		}
	}
	if cfg.FeeRecipient, err = parseAddress(c.FeeRecipient); err != nil {
		return cfg, fmt.Errorf("genesis fee recipient: %w", err)
	}
	for i, peer := range c.Peers {
		peerAddr, err := parseAddress(peer.PeerAddress)
		if err != nil {
			return cfg, fmt.Errorf("peer %d address: %w", i, err)
		}
		cfg.Peers = append(cfg.Peers, swaplayer.PeerConfig{
			Chain:       types.ChainID(peer.Chain),
			PeerAddress: peerAddr,
			RelayParams: swaplayer.RelayParams{
				BaseFee:          peer.RelayParams.BaseFee,
				NativeTokenPrice: peer.RelayParams.NativeTokenPrice,
				MaxGasDropoff:    peer.RelayParams.MaxGasDropoff,
				GasDropoffMargin: peer.RelayParams.GasDropoffMargin,
				ExecutionParams: swaplayer.ExecutionParams{
					GasPrice:       peer.RelayParams.GasPrice,
					GasPriceMargin: peer.RelayParams.GasPriceMargin,
				},
			},
		})
	}
	for i, account := range c.Accounts {
		owner, err := parseAddress(account.Owner)
		if err != nil {
			return cfg, fmt.Errorf("account %d owner: %w", i, err)
		}
		asset, err := parseAsset(account.Asset)
		if err != nil {
			return cfg, fmt.Errorf("account %d asset: %w", i, err)
		}
		cfg.Accounts = append(cfg.Accounts, swaplayer.GenesisAccount{
			Owner:   owner,
			Asset:   asset,
			Balance: account.Balance,
		})
	}
	return cfg, nil
}

func parseAddress(s string) (types.Address, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return types.Address{}, fmt.Errorf("invalid hex address %q: %w", s, err)
	}
	return types.BytesToAddress(b)
}

// parseAsset resolves an asset reference: the names "usdc" and "gas" map to
// the built-in assets, anything else must be a hex address of a token mint.
func parseAsset(s string) (types.Address, error) {
	switch s {
	case "usdc":
		return swaplayer.AssetUsdc, nil
	case "gas":
		return swaplayer.AssetGas, nil
	default:
		return parseAddress(s)
	}
}
