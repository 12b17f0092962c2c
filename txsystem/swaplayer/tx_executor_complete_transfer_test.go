package swaplayer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wormholelabs-xyz/swap-layer/messages"
	"github.com/wormholelabs-xyz/swap-layer/types"
)

func TestCompleteTransferDirect(t *testing.T) {
	directUsdc := func(recipient types.Address) messages.SwapMessage {
		return messages.SwapMessage{
			Recipient:   recipient,
			RedeemMode:  messages.RedeemDirect{},
			OutputToken: messages.TokenUsdc{},
		}
	}

	t.Run("pays the full amount to the recipient", func(t *testing.T) {
		f := newFixture(t)
		fillID := f.addFill(t, 1, 1_000_000, directUsdc(aliceAddr))

		tx := txOrder(t, PayloadTypeCompleteTransferDirect, fillID, aliceAddr, &CompleteTransferDirectAttributes{})
		sm, err := f.txs.Execute(tx)
		require.NoError(t, err)
		require.Equal(t, types.TxStatusSuccessful, sm.SuccessIndicator)
		require.EqualValues(t, 1_000_000, f.balance(t, aliceAddr, AssetUsdc))
		require.False(t, f.unitExists(fillID))
		require.False(t, f.unitExists(NewFillCustodyTokenID(fillID)))
	})

	t.Run("second consumption fails and changes nothing", func(t *testing.T) {
		f := newFixture(t)
		fillID := f.addFill(t, 1, 1_000_000, directUsdc(aliceAddr))

		tx := txOrder(t, PayloadTypeCompleteTransferDirect, fillID, aliceAddr, &CompleteTransferDirectAttributes{})
		_, err := f.txs.Execute(tx)
		require.NoError(t, err)
		_, err = f.txs.Execute(tx)
		require.ErrorIs(t, err, ErrFillConsumed)
		require.EqualValues(t, 1_000_000, f.balance(t, aliceAddr, AssetUsdc))
	})

	t.Run("only the recipient may redeem", func(t *testing.T) {
		f := newFixture(t)
		fillID := f.addFill(t, 1, 1_000_000, directUsdc(aliceAddr))

		tx := txOrder(t, PayloadTypeCompleteTransferDirect, fillID, bobAddr, &CompleteTransferDirectAttributes{})
		_, err := f.txs.Execute(tx)
		require.ErrorIs(t, err, ErrCallerNotRecipient)
		require.True(t, f.unitExists(fillID))
	})

	t.Run("wrong redeem mode is rejected", func(t *testing.T) {
		f := newFixture(t)
		fillID := f.addFill(t, 1, 1_000_000, messages.SwapMessage{
			Recipient:   aliceAddr,
			RedeemMode:  messages.RedeemRelay{RelayingFee: 10},
			OutputToken: messages.TokenUsdc{},
		})
		tx := txOrder(t, PayloadTypeCompleteTransferDirect, fillID, aliceAddr, &CompleteTransferDirectAttributes{})
		_, err := f.txs.Execute(tx)
		require.ErrorIs(t, err, ErrInvalidRedeemMode)
	})

	t.Run("swap output token requires the swap operation", func(t *testing.T) {
		f := newFixture(t)
		fillID := f.addFill(t, 1, 1_000_000, messages.SwapMessage{
			Recipient:   aliceAddr,
			RedeemMode:  messages.RedeemDirect{},
			OutputToken: messages.TokenGas{},
		})
		tx := txOrder(t, PayloadTypeCompleteTransferDirect, fillID, aliceAddr, &CompleteTransferDirectAttributes{})
		_, err := f.txs.Execute(tx)
		require.ErrorIs(t, err, ErrInvalidOutputToken)
	})
}

func TestCompleteTransferRelay(t *testing.T) {
	relayUsdc := func(recipient types.Address, fee uint64, dropoff uint32) messages.SwapMessage {
		return messages.SwapMessage{
			Recipient:   recipient,
			RedeemMode:  messages.RedeemRelay{GasDropoff: dropoff, RelayingFee: fee},
			OutputToken: messages.TokenUsdc{},
		}
	}

	t.Run("splits amount between recipient and fee recipient", func(t *testing.T) {
		f := newFixture(t)
		fillID := f.addFill(t, 1, 1_000_000, relayUsdc(aliceAddr, 5_000, 0))

		tx := txOrder(t, PayloadTypeCompleteTransferRelay, fillID, relayerAddr, &CompleteTransferRelayAttributes{})
		_, err := f.txs.Execute(tx)
		require.NoError(t, err)
		require.EqualValues(t, 995_000, f.balance(t, aliceAddr, AssetUsdc))
		require.EqualValues(t, 5_000, f.balance(t, feeRecipient, AssetUsdc))
	})

	t.Run("moves the gas dropoff from relayer to recipient", func(t *testing.T) {
		f := newFixture(t, GenesisAccount{Owner: relayerAddr, Asset: AssetGas, Balance: 10_000})
		fillID := f.addFill(t, 1, 1_000_000, relayUsdc(aliceAddr, 5_000, 2))

		tx := txOrder(t, PayloadTypeCompleteTransferRelay, fillID, relayerAddr, &CompleteTransferRelayAttributes{})
		_, err := f.txs.Execute(tx)
		require.NoError(t, err)
		require.EqualValues(t, 2_000, f.balance(t, aliceAddr, AssetGas))
		require.EqualValues(t, 8_000, f.balance(t, relayerAddr, AssetGas))
	})

	t.Run("self redemption waives fee and dropoff", func(t *testing.T) {
		f := newFixture(t)
		fillID := f.addFill(t, 1, 1_000_000, relayUsdc(aliceAddr, 5_000, 2))

		tx := txOrder(t, PayloadTypeCompleteTransferRelay, fillID, aliceAddr, &CompleteTransferRelayAttributes{})
		_, err := f.txs.Execute(tx)
		require.NoError(t, err)
		require.EqualValues(t, 1_000_000, f.balance(t, aliceAddr, AssetUsdc))
		require.EqualValues(t, 0, f.balance(t, feeRecipient, AssetUsdc))
		require.EqualValues(t, 0, f.balance(t, aliceAddr, AssetGas))
	})

	t.Run("fee above amount fails atomically", func(t *testing.T) {
		f := newFixture(t)
		fillID := f.addFill(t, 1, 1_000, relayUsdc(aliceAddr, 5_000, 0))

		tx := txOrder(t, PayloadTypeCompleteTransferRelay, fillID, relayerAddr, &CompleteTransferRelayAttributes{})
		_, err := f.txs.Execute(tx)
		require.ErrorIs(t, err, ErrFeeExceedsAmount)
		// nothing moved, the fill is still consumable
		require.True(t, f.unitExists(fillID))
		require.EqualValues(t, 0, f.balance(t, aliceAddr, AssetUsdc))
		require.EqualValues(t, 0, f.balance(t, feeRecipient, AssetUsdc))
	})

	t.Run("relayer without dropoff funds is rejected", func(t *testing.T) {
		f := newFixture(t)
		fillID := f.addFill(t, 1, 1_000_000, relayUsdc(aliceAddr, 5_000, 2))

		tx := txOrder(t, PayloadTypeCompleteTransferRelay, fillID, relayerAddr, &CompleteTransferRelayAttributes{})
		_, err := f.txs.Execute(tx)
		require.Error(t, err)
		require.True(t, f.unitExists(fillID))
	})
}

func TestCompleteTransferPayload(t *testing.T) {
	payloadUsdc := func(recipient, sender types.Address, payload []byte) messages.SwapMessage {
		return messages.SwapMessage{
			Recipient:   recipient,
			RedeemMode:  messages.RedeemPayload{Sender: sender, Payload: payload},
			OutputToken: messages.TokenUsdc{},
		}
	}

	t.Run("parks amount and payload for the recipient", func(t *testing.T) {
		f := newFixture(t, GenesisAccount{Owner: relayerAddr, Asset: AssetGas, Balance: DefaultHoldingDeposit})
		fillID := f.addFill(t, 1, 750_000, payloadUsdc(aliceAddr, bobAddr, []byte("hello")))

		tx := txOrder(t, PayloadTypeCompleteTransferPayload, fillID, relayerAddr, &CompleteTransferPayloadAttributes{})
		_, err := f.txs.Execute(tx)
		require.NoError(t, err)

		stagedID := NewStagedInboundID(fillID)
		u, err := f.state.GetUnit(stagedID, false)
		require.NoError(t, err)
		staged := u.Data().(*StagedInboundData)
		require.Equal(t, aliceAddr, staged.Recipient)
		require.Equal(t, bobAddr, staged.Sender)
		require.Equal(t, types.Bytes("hello"), staged.Payload)
		require.EqualValues(t, DefaultHoldingDeposit, staged.Deposit)
		// funds are escrowed, not paid out
		require.EqualValues(t, 0, f.balance(t, aliceAddr, AssetUsdc))
		require.EqualValues(t, 0, f.balance(t, relayerAddr, AssetGas))
		require.False(t, f.unitExists(fillID))
	})

	t.Run("repeated completion is an idempotent no-op", func(t *testing.T) {
		f := newFixture(t, GenesisAccount{Owner: relayerAddr, Asset: AssetGas, Balance: DefaultHoldingDeposit})
		fillID := f.addFill(t, 1, 750_000, payloadUsdc(aliceAddr, bobAddr, []byte("hello")))

		tx := txOrder(t, PayloadTypeCompleteTransferPayload, fillID, relayerAddr, &CompleteTransferPayloadAttributes{})
		_, err := f.txs.Execute(tx)
		require.NoError(t, err)

		sm, err := f.txs.Execute(tx)
		require.NoError(t, err)
		require.Equal(t, types.TxStatusSuccessful, sm.SuccessIndicator)

		stagedID := NewStagedInboundID(fillID)
		u, err := f.state.GetUnit(stagedID, false)
		require.NoError(t, err)
		staged := u.Data().(*StagedInboundData)
		require.EqualValues(t, DefaultHoldingDeposit, staged.Deposit)
		// the retry escrowed nothing on top of the first run
		require.EqualValues(t, 0, f.balance(t, relayerAddr, AssetGas))
		custody, err := f.state.GetUnit(staged.CustodyToken, false)
		require.NoError(t, err)
		require.EqualValues(t, 750_000, custody.Data().(*TokenAccountData).Balance)
	})

	t.Run("release pays recipient and returns deposit", func(t *testing.T) {
		f := newFixture(t, GenesisAccount{Owner: relayerAddr, Asset: AssetGas, Balance: DefaultHoldingDeposit})
		fillID := f.addFill(t, 1, 750_000, payloadUsdc(aliceAddr, bobAddr, []byte("hello")))
		_, err := f.txs.Execute(txOrder(t, PayloadTypeCompleteTransferPayload, fillID, relayerAddr, &CompleteTransferPayloadAttributes{}))
		require.NoError(t, err)

		stagedID := NewStagedInboundID(fillID)
		release := txOrder(t, PayloadTypeReleaseInbound, stagedID, aliceAddr, &ReleaseInboundAttributes{Beneficiary: relayerAddr})
		_, err = f.txs.Execute(release)
		require.NoError(t, err)
		require.EqualValues(t, 750_000, f.balance(t, aliceAddr, AssetUsdc))
		require.EqualValues(t, DefaultHoldingDeposit, f.balance(t, relayerAddr, AssetGas))
		require.False(t, f.unitExists(stagedID))
	})

	t.Run("release may direct the payout to another account", func(t *testing.T) {
		f := newFixture(t, GenesisAccount{Owner: relayerAddr, Asset: AssetGas, Balance: DefaultHoldingDeposit})
		fillID := f.addFill(t, 1, 750_000, payloadUsdc(aliceAddr, bobAddr, nil))
		_, err := f.txs.Execute(txOrder(t, PayloadTypeCompleteTransferPayload, fillID, relayerAddr, &CompleteTransferPayloadAttributes{}))
		require.NoError(t, err)

		release := txOrder(t, PayloadTypeReleaseInbound, NewStagedInboundID(fillID), aliceAddr, &ReleaseInboundAttributes{
			Destination: bobAddr,
			Beneficiary: relayerAddr,
		})
		_, err = f.txs.Execute(release)
		require.NoError(t, err)
		require.EqualValues(t, 750_000, f.balance(t, bobAddr, AssetUsdc))
		require.EqualValues(t, 0, f.balance(t, aliceAddr, AssetUsdc))
		require.EqualValues(t, DefaultHoldingDeposit, f.balance(t, relayerAddr, AssetGas))
	})

	t.Run("only the recipient may release", func(t *testing.T) {
		f := newFixture(t, GenesisAccount{Owner: relayerAddr, Asset: AssetGas, Balance: DefaultHoldingDeposit})
		fillID := f.addFill(t, 1, 750_000, payloadUsdc(aliceAddr, bobAddr, nil))
		_, err := f.txs.Execute(txOrder(t, PayloadTypeCompleteTransferPayload, fillID, relayerAddr, &CompleteTransferPayloadAttributes{}))
		require.NoError(t, err)

		release := txOrder(t, PayloadTypeReleaseInbound, NewStagedInboundID(fillID), bobAddr, &ReleaseInboundAttributes{})
		_, err = f.txs.Execute(release)
		require.ErrorIs(t, err, ErrNotInboundRecipient)
	})

	t.Run("relayer must fund the holding deposit", func(t *testing.T) {
		f := newFixture(t)
		fillID := f.addFill(t, 1, 750_000, payloadUsdc(aliceAddr, bobAddr, nil))
		_, err := f.txs.Execute(txOrder(t, PayloadTypeCompleteTransferPayload, fillID, relayerAddr, &CompleteTransferPayloadAttributes{}))
		require.Error(t, err)
		require.True(t, f.unitExists(fillID))
	})
}

func TestFillSourceVerification(t *testing.T) {
	msg := messages.SwapMessage{
		Recipient:   aliceAddr,
		RedeemMode:  messages.RedeemDirect{},
		OutputToken: messages.TokenUsdc{},
	}
	encoded, err := msg.Encode()
	require.NoError(t, err)

	inject := func(t *testing.T, f *testFixture, chain types.ChainID, orderSender types.Address) types.UnitID {
		t.Helper()
		fillID, actions := PreparedFill([]byte{9}, 1_000_000, chain, orderSender, encoded)
		require.NoError(t, f.state.Apply(actions...))
		require.NoError(t, f.state.Commit())
		return fillID
	}

	t.Run("fill from an unknown order sender is not redeemable", func(t *testing.T) {
		f := newFixture(t)
		fillID := inject(t, f, testChain, bobAddr)

		tx := txOrder(t, PayloadTypeCompleteTransferDirect, fillID, aliceAddr, &CompleteTransferDirectAttributes{})
		_, err := f.txs.Execute(tx)
		require.ErrorIs(t, err, ErrInvalidPeer)
		require.True(t, f.unitExists(fillID))
		require.EqualValues(t, 0, f.balance(t, aliceAddr, AssetUsdc))
	})

	t.Run("fill from a chain without a registered peer is not redeemable", func(t *testing.T) {
		f := newFixture(t)
		fillID := inject(t, f, testChain+1, peerAddr)

		tx := txOrder(t, PayloadTypeCompleteTransferDirect, fillID, aliceAddr, &CompleteTransferDirectAttributes{})
		_, err := f.txs.Execute(tx)
		require.ErrorIs(t, err, ErrChainNotSupported)
		require.True(t, f.unitExists(fillID))
	})
}
