package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wormholelabs-xyz/swap-layer/keyvaluedb/memorydb"
	"github.com/wormholelabs-xyz/swap-layer/messages"
	"github.com/wormholelabs-xyz/swap-layer/node"
	"github.com/wormholelabs-xyz/swap-layer/observability"
	"github.com/wormholelabs-xyz/swap-layer/swap"
	"github.com/wormholelabs-xyz/swap-layer/txsystem/swaplayer"
	"github.com/wormholelabs-xyz/swap-layer/types"
)

var recipientAddr = testAddr(0x01)

func testAddr(b byte) types.Address {
	var a types.Address
	a[31] = b
	return a
}

func newTestServer(t *testing.T) (*httptest.Server, *node.Node) {
	t.Helper()
	n, err := node.New(node.Conf{
		Genesis: swaplayer.GenesisConfig{
			Owner:        testAddr(0xA1),
			FeeRecipient: testAddr(0xA3),
			Peers: []swaplayer.PeerConfig{
				{Chain: 23, PeerAddress: testAddr(0xEE)},
			},
		},
		Venue: swap.NewConstantProductVenue(),
		DB:    memorydb.New(),
	}, observability.NOP())
	require.NoError(t, err)
	srv := httptest.NewServer(NewRESTHandler(n, observability.NOP()))
	t.Cleanup(srv.Close)
	return srv, n
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, applicationJSON, bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decodeJSON[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestRESTAPI_FillLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)

	encoded, err := messages.SwapMessage{
		Recipient:   recipientAddr,
		RedeemMode:  messages.RedeemDirect{},
		OutputToken: messages.TokenUsdc{},
	}.Encode()
	require.NoError(t, err)

	// ingest a fill
	resp := postJSON(t, srv.URL+"/api/v1/fills", &ingestFillRequest{
		FillSeed:        []byte{1},
		Amount:          1_000_000,
		SourceChain:     23,
		OrderSender:     testAddr(0xEE),
		RedeemerMessage: encoded,
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	fill := decodeJSON[ingestFillResponse](t, resp)
	require.NotEmpty(t, fill.FillID)

	// finalize so the fill is committed and readable
	resp, err = http.Post(srv.URL+"/api/v1/rounds/finalize", applicationJSON, nil)
	require.NoError(t, err)
	round := decodeJSON[roundResponse](t, resp)
	require.EqualValues(t, 2, round.Round)

	// the fill unit is visible
	resp, err = http.Get(srv.URL + "/api/v1/units/" + fill.FillID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	unit := decodeJSON[unitResponse](t, resp)
	require.Equal(t, fill.FillID, unit.UnitID)

	// redeem it with a cbor encoded transaction order
	var fillID types.UnitID
	require.NoError(t, fillID.UnmarshalText([]byte(fill.FillID)))
	tx := &types.TransactionOrder{Payload: &types.Payload{
		Type:      swaplayer.PayloadTypeCompleteTransferDirect,
		UnitID:    fillID,
		Submitter: recipientAddr,
	}}
	require.NoError(t, tx.SetAttributes(&swaplayer.CompleteTransferDirectAttributes{}))
	txBytes, err := types.Cbor.Marshal(tx)
	require.NoError(t, err)

	resp, err = http.Post(srv.URL+"/api/v1/transactions", applicationCBOR, bytes.NewReader(txBytes))
	require.NoError(t, err)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	submitted := decodeJSON[submitTxResponse](t, resp)
	require.EqualValues(t, types.TxStatusSuccessful, submitted.Status)

	// the persisted record is retrievable by hash
	resp, err = http.Get(srv.URL + "/api/v1/transactions/" + submitted.TxHash)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	record := decodeJSON[txRecordResponse](t, resp)
	require.EqualValues(t, 2, record.Round)
}

func TestRESTAPI_SubmitTxErrors(t *testing.T) {
	srv, _ := newTestServer(t)

	t.Run("wrong content type", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/api/v1/transactions", applicationJSON, bytes.NewReader([]byte("{}")))
		require.NoError(t, err)
		require.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
	})

	t.Run("garbage body", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/api/v1/transactions", applicationCBOR, bytes.NewReader([]byte{0xFF, 0x00}))
		require.NoError(t, err)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown payload type", func(t *testing.T) {
		tx := &types.TransactionOrder{Payload: &types.Payload{Type: "bogus", UnitID: swaplayer.CustodianID}}
		txBytes, err := types.Cbor.Marshal(tx)
		require.NoError(t, err)
		resp, err := http.Post(srv.URL+"/api/v1/transactions", applicationCBOR, bytes.NewReader(txBytes))
		require.NoError(t, err)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		errResp := decodeJSON[errorResponse](t, resp)
		require.Contains(t, errResp.Error, "unknown transaction type")
	})
}

func TestRESTAPI_Reads(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/rounds/current")
	require.NoError(t, err)
	round := decodeJSON[roundResponse](t, resp)
	require.EqualValues(t, 1, round.Round)

	resp, err = http.Get(srv.URL + "/api/v1/state/summary")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	summary := decodeJSON[summaryResponse](t, resp)
	require.NotEmpty(t, summary.Root)

	resp, err = http.Get(srv.URL + "/api/v1/units/" + fmt.Sprintf("%X", []byte(swaplayer.CustodianID)))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/v1/units/zzzz")
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/v1/transactions/00ff")
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
