package swaplayer

import (
	"fmt"

	"github.com/wormholelabs-xyz/swap-layer/state"
	"github.com/wormholelabs-xyz/swap-layer/types"
)

type (
	// GenesisConfig describes the initial engine state: the custodian, the
	// registered peer corridors and any pre-funded accounts.
	GenesisConfig struct {
		Owner          types.Address    `json:"owner" yaml:"owner"`
		OwnerAssistant types.Address    `json:"ownerAssistant" yaml:"owner-assistant"`
		FeeRecipient   types.Address    `json:"feeRecipient" yaml:"fee-recipient"`
		Peers          []PeerConfig     `json:"peers" yaml:"peers"`
		Accounts       []GenesisAccount `json:"accounts" yaml:"accounts"`
	}

	PeerConfig struct {
		Chain       types.ChainID `json:"chain" yaml:"chain"`
		PeerAddress types.Address `json:"peerAddress" yaml:"peer-address"`
		RelayParams RelayParams   `json:"relayParams" yaml:"relay-params"`
	}

	GenesisAccount struct {
		Owner   types.Address `json:"owner" yaml:"owner"`
		Asset   types.Address `json:"asset" yaml:"asset"`
		Balance uint64        `json:"balance,string" yaml:"balance"`
	}
)

// NewGenesisState builds the committed initial state of the engine.
func NewGenesisState(cfg GenesisConfig, opts ...state.Option) (*state.State, error) {
	if cfg.Owner.IsZero() {
		return nil, fmt.Errorf("genesis owner must not be zero")
	}
	if cfg.FeeRecipient.IsZero() {
		return nil, fmt.Errorf("genesis fee recipient must not be zero")
	}
	s := state.NewEmptyState(opts...)

	actions := []state.Action{
		state.AddUnit(CustodianID, types.Bytes(CustodianID), &CustodianData{
			Owner:          cfg.Owner,
			OwnerAssistant: cfg.OwnerAssistant,
			FeeRecipient:   cfg.FeeRecipient,
		}),
	}
	for _, peer := range cfg.Peers {
		peerID := NewPeerID(peer.Chain)
		actions = append(actions, state.AddUnit(peerID, types.Bytes(peerID), &PeerData{
			Chain:       peer.Chain,
			PeerAddress: peer.PeerAddress,
			RelayParams: peer.RelayParams,
		}))
	}
	for _, account := range cfg.Accounts {
		actions = append(actions, state.AddUnit(
			NewTokenAccountID(account.Owner, account.Asset),
			account.Owner[:],
			&TokenAccountData{Asset: account.Asset, Balance: account.Balance},
		))
	}
	if err := s.Apply(actions...); err != nil {
		return nil, fmt.Errorf("applying genesis units: %w", err)
	}
	if err := s.Commit(); err != nil {
		return nil, fmt.Errorf("committing genesis state: %w", err)
	}
	return s, nil
}
