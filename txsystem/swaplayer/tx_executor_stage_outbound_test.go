package swaplayer

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wormholelabs-xyz/swap-layer/messages"
	"github.com/wormholelabs-xyz/swap-layer/types"
)

// stageTx builds a staging transaction with the unit ID derived from the
// attribute hash, the way a client would.
func stageTx(t *testing.T, submitter types.Address, attr *StageOutboundAttributes) *types.TransactionOrder {
	t.Helper()
	txo := txOrder(t, PayloadTypeStageOutbound, nil, submitter, attr)
	hash := sha256.Sum256(txo.Payload.Attributes)
	txo.Payload.UnitID = NewStagedOutboundID(hash[:])
	return txo
}

func TestStageOutbound(t *testing.T) {
	t.Run("escrows the amount in the record custody", func(t *testing.T) {
		f := newFixture(t, GenesisAccount{Owner: aliceAddr, Asset: AssetUsdc, Balance: 2_000_000})
		tx := stageTx(t, aliceAddr, &StageOutboundAttributes{
			Sender:      aliceAddr,
			Amount:      1_500_000,
			TargetChain: testChain,
			Recipient:   bobAddr,
		})
		sm, err := f.txs.Execute(tx)
		require.NoError(t, err)
		require.Equal(t, types.TxStatusSuccessful, sm.SuccessIndicator)
		require.EqualValues(t, 500_000, f.balance(t, aliceAddr, AssetUsdc))

		stagedID := tx.UnitID()
		u, err := f.state.GetUnit(stagedID, false)
		require.NoError(t, err)
		staged := u.Data().(*StagedOutboundData)
		require.Equal(t, bobAddr, staged.Recipient)
		require.Equal(t, StagedRedeemDirect, staged.StagedRedeem.Mode)
		// refunds default to the sender's usdc account
		require.True(t, staged.RefundToken.Eq(NewTokenAccountID(aliceAddr, AssetUsdc)))

		custody, err := f.state.GetUnit(staged.CustodyToken, false)
		require.NoError(t, err)
		require.EqualValues(t, 1_500_000, custody.Data().(*TokenAccountData).Balance)
	})

	t.Run("explicit refund recipient picks the refund account", func(t *testing.T) {
		f := newFixture(t, GenesisAccount{Owner: aliceAddr, Asset: AssetUsdc, Balance: 2_000_000})
		tx := stageTx(t, aliceAddr, &StageOutboundAttributes{
			Sender:          aliceAddr,
			Amount:          1_000_000,
			TargetChain:     testChain,
			Recipient:       bobAddr,
			RefundRecipient: relayerAddr,
		})
		_, err := f.txs.Execute(tx)
		require.NoError(t, err)

		u, err := f.state.GetUnit(tx.UnitID(), false)
		require.NoError(t, err)
		staged := u.Data().(*StagedOutboundData)
		require.True(t, staged.RefundToken.Eq(NewTokenAccountID(relayerAddr, AssetUsdc)))
	})

	t.Run("relay mode adds the quoted fee on top", func(t *testing.T) {
		f := newFixture(t, GenesisAccount{Owner: aliceAddr, Asset: AssetUsdc, Balance: 100_000_000})
		tx := stageTx(t, aliceAddr, &StageOutboundAttributes{
			Sender:      aliceAddr,
			Amount:      1_000_000,
			TargetChain: testChain,
			Recipient:   bobAddr,
			RedeemOption: &RedeemOption{
				Mode:          StagedRedeemRelay,
				MaxRelayerFee: 50_000_000,
			},
		})
		_, err := f.txs.Execute(tx)
		require.NoError(t, err)

		// usdc output, no dropoff: fee matches the calculator
		fee, err := CalculateRelayerFee(defaultRelayParams(), 0, mustOutputToken(t, nil))
		require.NoError(t, err)
		require.EqualValues(t, 100_000_000-1_000_000-fee, f.balance(t, aliceAddr, AssetUsdc))

		u, err := f.state.GetUnit(tx.UnitID(), false)
		require.NoError(t, err)
		staged := u.Data().(*StagedOutboundData)
		require.Equal(t, StagedRedeemRelay, staged.StagedRedeem.Mode)
		require.Equal(t, fee, staged.StagedRedeem.RelayingFee)
	})

	t.Run("fee above caller maximum is rejected", func(t *testing.T) {
		f := newFixture(t, GenesisAccount{Owner: aliceAddr, Asset: AssetUsdc, Balance: 100_000_000})
		tx := stageTx(t, aliceAddr, &StageOutboundAttributes{
			Sender:      aliceAddr,
			Amount:      1_000_000,
			TargetChain: testChain,
			Recipient:   bobAddr,
			RedeemOption: &RedeemOption{
				Mode:          StagedRedeemRelay,
				MaxRelayerFee: 10,
			},
		})
		_, err := f.txs.Execute(tx)
		require.ErrorIs(t, err, ErrExceedsMaxRelayingFee)
		require.EqualValues(t, 100_000_000, f.balance(t, aliceAddr, AssetUsdc))
	})

	t.Run("unknown target chain is rejected", func(t *testing.T) {
		f := newFixture(t, GenesisAccount{Owner: aliceAddr, Asset: AssetUsdc, Balance: 2_000_000})
		tx := stageTx(t, aliceAddr, &StageOutboundAttributes{
			Sender:      aliceAddr,
			Amount:      1_000_000,
			TargetChain: testChain + 1,
			Recipient:   bobAddr,
		})
		_, err := f.txs.Execute(tx)
		require.ErrorIs(t, err, ErrChainNotSupported)
	})

	t.Run("submitter must be the declared sender", func(t *testing.T) {
		f := newFixture(t, GenesisAccount{Owner: aliceAddr, Asset: AssetUsdc, Balance: 2_000_000})
		tx := stageTx(t, bobAddr, &StageOutboundAttributes{
			Sender:      aliceAddr,
			Amount:      1_000_000,
			TargetChain: testChain,
			Recipient:   bobAddr,
		})
		_, err := f.txs.Execute(tx)
		require.ErrorContains(t, err, "submitter is not the declared sender")
	})

	t.Run("insufficient balance fails atomically", func(t *testing.T) {
		f := newFixture(t, GenesisAccount{Owner: aliceAddr, Asset: AssetUsdc, Balance: 100})
		tx := stageTx(t, aliceAddr, &StageOutboundAttributes{
			Sender:      aliceAddr,
			Amount:      1_000_000,
			TargetChain: testChain,
			Recipient:   bobAddr,
		})
		_, err := f.txs.Execute(tx)
		require.ErrorIs(t, err, ErrInsufficientBalance)
		require.EqualValues(t, 100, f.balance(t, aliceAddr, AssetUsdc))
		require.False(t, f.unitExists(tx.UnitID()))
	})

	t.Run("zero amount and zero recipient are rejected", func(t *testing.T) {
		f := newFixture(t, GenesisAccount{Owner: aliceAddr, Asset: AssetUsdc, Balance: 2_000_000})
		tx := stageTx(t, aliceAddr, &StageOutboundAttributes{
			Sender:      aliceAddr,
			TargetChain: testChain,
			Recipient:   bobAddr,
		})
		_, err := f.txs.Execute(tx)
		require.ErrorIs(t, err, ErrInvalidAmount)

		tx = stageTx(t, aliceAddr, &StageOutboundAttributes{
			Sender:      aliceAddr,
			Amount:      1,
			TargetChain: testChain,
		})
		_, err = f.txs.Execute(tx)
		require.ErrorIs(t, err, ErrInvalidRecipient)
	})

	t.Run("same request cannot be staged twice", func(t *testing.T) {
		f := newFixture(t, GenesisAccount{Owner: aliceAddr, Asset: AssetUsdc, Balance: 4_000_000})
		attr := &StageOutboundAttributes{
			Sender:      aliceAddr,
			Amount:      1_000_000,
			TargetChain: testChain,
			Recipient:   bobAddr,
		}
		_, err := f.txs.Execute(stageTx(t, aliceAddr, attr))
		require.NoError(t, err)
		_, err = f.txs.Execute(stageTx(t, aliceAddr, attr))
		require.ErrorContains(t, err, "already exists")
	})
}

func TestTransferAuthority(t *testing.T) {
	stage := func(amount uint64) *StageOutboundAttributes {
		return &StageOutboundAttributes{
			Sender:               aliceAddr,
			Amount:               amount,
			TargetChain:          testChain,
			Recipient:            bobAddr,
			UseTransferAuthority: true,
		}
	}

	grant := func(t *testing.T, f *testFixture, attr *StageOutboundAttributes) []byte {
		t.Helper()
		// hash of the exact staging attributes the delegate will submit
		req := txOrder(t, PayloadTypeStageOutbound, nil, aliceAddr, attr)
		hash := sha256.Sum256(req.Payload.Attributes)
		tx := txOrder(t, PayloadTypeGrantTransferAuthority, NewTransferAuthorityID(hash[:]), aliceAddr,
			&GrantTransferAuthorityAttributes{RequestHash: hash[:]})
		_, err := f.txs.Execute(tx)
		require.NoError(t, err)
		return hash[:]
	}

	t.Run("delegate stages on behalf of the sender", func(t *testing.T) {
		f := newFixture(t, GenesisAccount{Owner: aliceAddr, Asset: AssetUsdc, Balance: 2_000_000})
		attr := stage(1_000_000)
		hash := grant(t, f, attr)

		tx := stageTx(t, relayerAddr, attr)
		_, err := f.txs.Execute(tx)
		require.NoError(t, err)
		require.EqualValues(t, 1_000_000, f.balance(t, aliceAddr, AssetUsdc))
		// single use: the authority is gone
		require.False(t, f.unitExists(NewTransferAuthorityID(hash)))
	})

	t.Run("authority cannot be used twice", func(t *testing.T) {
		f := newFixture(t, GenesisAccount{Owner: aliceAddr, Asset: AssetUsdc, Balance: 4_000_000})
		attr := stage(1_000_000)
		grant(t, f, attr)

		_, err := f.txs.Execute(stageTx(t, relayerAddr, attr))
		require.NoError(t, err)
		_, err = f.txs.Execute(stageTx(t, relayerAddr, attr))
		require.Error(t, err)
		require.EqualValues(t, 3_000_000, f.balance(t, aliceAddr, AssetUsdc))
	})

	t.Run("staging without a grant fails", func(t *testing.T) {
		f := newFixture(t, GenesisAccount{Owner: aliceAddr, Asset: AssetUsdc, Balance: 2_000_000})
		_, err := f.txs.Execute(stageTx(t, relayerAddr, stage(1_000_000)))
		require.ErrorIs(t, err, ErrTransferAuthorityUnknown)
	})

	t.Run("grant is bound to the exact request", func(t *testing.T) {
		f := newFixture(t, GenesisAccount{Owner: aliceAddr, Asset: AssetUsdc, Balance: 4_000_000})
		grant(t, f, stage(1_000_000))

		// different amount, different hash, no authority
		_, err := f.txs.Execute(stageTx(t, relayerAddr, stage(2_000_000)))
		require.ErrorIs(t, err, ErrTransferAuthorityUnknown)
	})
}

func mustOutputToken(t *testing.T, encoded []byte) messages.OutputToken {
	t.Helper()
	token, err := stagedOutputToken(encoded)
	require.NoError(t, err)
	return token
}
