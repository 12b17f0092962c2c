package rpc

import (
	"crypto"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/wormholelabs-xyz/swap-layer/node"
	"github.com/wormholelabs-xyz/swap-layer/observability"
	"github.com/wormholelabs-xyz/swap-layer/types"
)

const (
	contentType     = "Content-Type"
	applicationJSON = "application/json"
	applicationCBOR = "application/cbor"

	// submitted transaction orders are size limited
	maxTxOrderSize = 1 << 20
)

type restAPI struct {
	node *node.Node
	log  *slog.Logger
}

// NewRESTHandler builds the HTTP API of the node. All routes live under
// /api/v1.
func NewRESTHandler(n *node.Node, observe observability.Observability) http.Handler {
	api := &restAPI{node: n, log: observe.Logger()}

	router := mux.NewRouter().StrictSlash(true)
	v1 := router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/transactions", api.submitTx).Methods(http.MethodPost)
	v1.HandleFunc("/transactions/{txHash}", api.getTxRecord).Methods(http.MethodGet)
	v1.HandleFunc("/fills", api.ingestFill).Methods(http.MethodPost)
	v1.HandleFunc("/units/{unitID}", api.getUnit).Methods(http.MethodGet)
	v1.HandleFunc("/rounds/current", api.currentRound).Methods(http.MethodGet)
	v1.HandleFunc("/rounds/finalize", api.finalizeRound).Methods(http.MethodPost)
	v1.HandleFunc("/state/summary", api.stateSummary).Methods(http.MethodGet)

	return handlers.CompressHandler(handlers.CORS(
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost}),
		handlers.AllowedHeaders([]string{contentType}),
	)(router))
}

type (
	errorResponse struct {
		Error string `json:"error"`
	}

	submitTxResponse struct {
		TxHash      string   `json:"txHash"`
		Status      uint8    `json:"status"`
		TargetUnits []string `json:"targetUnits"`
	}

	ingestFillRequest struct {
		FillSeed        types.Bytes   `json:"fillSeed"`
		Amount          uint64        `json:"amount,string"`
		SourceChain     types.ChainID `json:"sourceChain"`
		OrderSender     types.Address `json:"orderSender"`
		RedeemerMessage types.Bytes   `json:"redeemerMessage"`
	}

	ingestFillResponse struct {
		FillID string `json:"fillId"`
	}

	unitResponse struct {
		UnitID string `json:"unitId"`
		Bearer string `json:"bearer"`
		Data   any    `json:"data"`
	}

	roundResponse struct {
		Round uint64 `json:"round"`
	}

	txRecordResponse struct {
		Round       uint64   `json:"round"`
		Status      uint8    `json:"status"`
		TargetUnits []string `json:"targetUnits"`
	}

	summaryResponse struct {
		SummaryValue uint64 `json:"summaryValue,string"`
		Root         string `json:"root"`
	}
)

// submitTx accepts a cbor encoded transaction order and executes it in the
// current round.
func (api *restAPI) submitTx(w http.ResponseWriter, r *http.Request) {
	if ct := r.Header.Get(contentType); ct != applicationCBOR {
		api.writeError(w, http.StatusUnsupportedMediaType, fmt.Errorf("unsupported content type %q, expected %q", ct, applicationCBOR))
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxTxOrderSize))
	if err != nil {
		api.writeError(w, http.StatusBadRequest, fmt.Errorf("reading request body: %w", err))
		return
	}
	tx := &types.TransactionOrder{}
	if err := types.Cbor.Unmarshal(body, tx); err != nil {
		api.writeError(w, http.StatusBadRequest, fmt.Errorf("decoding transaction order: %w", err))
		return
	}
	sm, err := api.node.SubmitTx(r.Context(), tx)
	if err != nil {
		api.writeError(w, http.StatusBadRequest, err)
		return
	}
	api.writeJSON(w, http.StatusAccepted, &submitTxResponse{
		TxHash:      hex.EncodeToString(tx.Hash(crypto.SHA256)),
		Status:      uint8(sm.SuccessIndicator),
		TargetUnits: unitIDStrings(sm.TargetUnits),
	})
}

func (api *restAPI) getTxRecord(w http.ResponseWriter, r *http.Request) {
	txHash, err := hex.DecodeString(mux.Vars(r)["txHash"])
	if err != nil {
		api.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid tx hash: %w", err))
		return
	}
	record, err := api.node.GetTxRecord(txHash)
	if err != nil {
		api.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if record == nil {
		api.writeError(w, http.StatusNotFound, fmt.Errorf("no record for transaction"))
		return
	}
	api.writeJSON(w, http.StatusOK, &txRecordResponse{
		Round:       record.Round,
		Status:      uint8(record.Metadata.SuccessIndicator),
		TargetUnits: unitIDStrings(record.Metadata.TargetUnits),
	})
}

func (api *restAPI) ingestFill(w http.ResponseWriter, r *http.Request) {
	req := &ingestFillRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		api.writeError(w, http.StatusBadRequest, fmt.Errorf("decoding fill request: %w", err))
		return
	}
	fillID, err := api.node.IngestFill(r.Context(), req.FillSeed, req.Amount, req.SourceChain, req.OrderSender, req.RedeemerMessage)
	if err != nil {
		api.writeError(w, http.StatusBadRequest, err)
		return
	}
	api.writeJSON(w, http.StatusAccepted, &ingestFillResponse{FillID: fillID.String()})
}

func (api *restAPI) getUnit(w http.ResponseWriter, r *http.Request) {
	var unitID types.UnitID
	if err := unitID.UnmarshalText([]byte(mux.Vars(r)["unitID"])); err != nil {
		api.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid unit ID: %w", err))
		return
	}
	u, err := api.node.GetUnit(unitID)
	if err != nil {
		api.writeError(w, http.StatusNotFound, err)
		return
	}
	api.writeJSON(w, http.StatusOK, &unitResponse{
		UnitID: unitID.String(),
		Bearer: hex.EncodeToString(u.Bearer()),
		Data:   u.Data(),
	})
}

func (api *restAPI) currentRound(w http.ResponseWriter, _ *http.Request) {
	api.writeJSON(w, http.StatusOK, &roundResponse{Round: api.node.CurrentRound()})
}

func (api *restAPI) finalizeRound(w http.ResponseWriter, r *http.Request) {
	if err := api.node.FinalizeRound(r.Context()); err != nil {
		api.writeError(w, http.StatusInternalServerError, err)
		return
	}
	api.writeJSON(w, http.StatusOK, &roundResponse{Round: api.node.CurrentRound()})
}

func (api *restAPI) stateSummary(w http.ResponseWriter, _ *http.Request) {
	summary, root, err := api.node.StateSummary()
	if err != nil {
		api.writeError(w, http.StatusConflict, err)
		return
	}
	api.writeJSON(w, http.StatusOK, &summaryResponse{
		SummaryValue: summary,
		Root:         hex.EncodeToString(root),
	})
}

func (api *restAPI) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(contentType, applicationJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		api.log.Warn("writing response", slog.Any("err", err))
	}
}

func (api *restAPI) writeError(w http.ResponseWriter, status int, err error) {
	api.writeJSON(w, status, &errorResponse{Error: err.Error()})
}

func unitIDStrings(ids []types.UnitID) []string {
	res := make([]string, 0, len(ids))
	for _, id := range ids {
		res = append(res, id.String())
	}
	return res
}
