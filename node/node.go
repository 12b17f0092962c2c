package node

import (
	"bytes"
	"context"
	"crypto"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/metric"

	"github.com/wormholelabs-xyz/swap-layer/keyvaluedb"
	"github.com/wormholelabs-xyz/swap-layer/logger"
	"github.com/wormholelabs-xyz/swap-layer/observability"
	"github.com/wormholelabs-xyz/swap-layer/state"
	"github.com/wormholelabs-xyz/swap-layer/swap"
	"github.com/wormholelabs-xyz/swap-layer/txsystem"
	"github.com/wormholelabs-xyz/swap-layer/txsystem/swaplayer"
	"github.com/wormholelabs-xyz/swap-layer/types"
)

var (
	keySnapshot = []byte("snapshot")
	txKeyPrefix = "tx/"
)

type (
	// Node drives the settlement engine round by round: it executes
	// submitted operations against the transaction system, ingests prepared
	// fills from the bridging layer exactly once, and persists a state
	// snapshot every finalized round.
	Node struct {
		mu    sync.Mutex
		txs   *txsystem.GenericTxSystem
		state *state.State
		db    keyvaluedb.KeyValueDB
		log   *slog.Logger

		round uint64
		// ingestedFills is the set of fill seeds ever accepted. It is
		// persisted inside the round snapshot so dedup and the fill units
		// become durable together; a fill ingested in an unfinalized round
		// is re-deliverable after a restart, never silently dropped.
		ingestedFills map[string]struct{}

		roundCnt      metric.Int64Counter
		ingestFillCnt metric.Int64Counter
	}

	// TxRecord is the persisted execution result of one transaction.
	TxRecord struct {
		_        struct{}              `cbor:",toarray"`
		Round    uint64                `json:"round"`
		Metadata *types.ServerMetadata `json:"metadata"`
	}

	// snapshotRecord is the single durable record of a finalized round. One
	// key value write makes the state and the fill dedup set atomic.
	snapshotRecord struct {
		_             struct{}      `cbor:",toarray"`
		Round         uint64        `json:"round"`
		State         []byte        `json:"state"`
		IngestedFills []types.Bytes `json:"ingestedFills"`
	}

	Conf struct {
		Genesis swaplayer.GenesisConfig
		Venue   swap.Venue
		DB      keyvaluedb.KeyValueDB
	}
)

// New builds a node from the persisted snapshot if one exists, otherwise
// from the genesis configuration.
func New(conf Conf, observe observability.Observability) (*Node, error) {
	if conf.DB == nil {
		return nil, fmt.Errorf("storage is nil")
	}
	s, round, ingestedFills, err := loadState(conf)
	if err != nil {
		return nil, err
	}
	module, err := swaplayer.NewModule(observe,
		swaplayer.WithState(s),
		swaplayer.WithVenue(conf.Venue),
	)
	if err != nil {
		return nil, fmt.Errorf("creating swap layer module: %w", err)
	}
	txs, err := txsystem.NewGenericTxSystem([]txsystem.Module{module}, observe, txsystem.WithState(s))
	if err != nil {
		return nil, fmt.Errorf("creating transaction system: %w", err)
	}

	n := &Node{
		txs:           txs,
		state:         s,
		db:            conf.DB,
		log:           observe.Logger(),
		round:         round + 1,
		ingestedFills: ingestedFills,
	}
	mtr := observe.Meter("node")
	if n.roundCnt, err = mtr.Int64Counter("round.count", metric.WithDescription("Number of finalized rounds")); err != nil {
		return nil, fmt.Errorf("creating round counter: %w", err)
	}
	if n.ingestFillCnt, err = mtr.Int64Counter("ingest.fill.count", metric.WithDescription("Number of ingested prepared fills")); err != nil {
		return nil, fmt.Errorf("creating fill counter: %w", err)
	}
	txs.BeginRound(n.round)
	n.log.Info("node started", logger.Round(n.round))
	return n, nil
}

func loadState(conf Conf) (*state.State, uint64, map[string]struct{}, error) {
	snapshot := &snapshotRecord{}
	found, err := conf.DB.Read(keySnapshot, snapshot)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("reading round snapshot: %w", err)
	}
	if !found {
		s, err := swaplayer.NewGenesisState(conf.Genesis)
		if err != nil {
			return nil, 0, nil, fmt.Errorf("building genesis state: %w", err)
		}
		return s, 0, map[string]struct{}{}, nil
	}
	s, err := state.NewRecoveredState(bytes.NewReader(snapshot.State), swaplayer.NewUnitData)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("recovering state: %w", err)
	}
	ingestedFills := make(map[string]struct{}, len(snapshot.IngestedFills))
	for _, seed := range snapshot.IngestedFills {
		ingestedFills[string(seed)] = struct{}{}
	}
	return s, snapshot.Round, ingestedFills, nil
}

func (n *Node) CurrentRound() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.round
}

// SubmitTx executes one transaction order in the current round. The result
// is persisted under the transaction hash so clients can poll for it.
func (n *Node) SubmitTx(ctx context.Context, tx *types.TransactionOrder) (*types.ServerMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	sm, err := n.txs.Execute(tx)
	if err != nil {
		return nil, err
	}
	record := &TxRecord{Round: n.round, Metadata: sm}
	if err := n.db.Write(txKey(tx.Hash(crypto.SHA256)), record); err != nil {
		return nil, fmt.Errorf("persisting tx record: %w", err)
	}
	return sm, nil
}

// GetTxRecord returns the persisted result of an executed transaction.
func (n *Node) GetTxRecord(txHash []byte) (*TxRecord, error) {
	record := &TxRecord{}
	found, err := n.db.Read(txKey(txHash), record)
	if err != nil {
		return nil, fmt.Errorf("reading tx record: %w", err)
	}
	if !found {
		return nil, nil
	}
	return record, nil
}

// IngestFill registers a prepared fill delivered by the bridging layer.
// Re-delivery of the same fill seed is a no-op: the bridge may retry, the
// ledger must not double-fund. The dedup set only becomes durable when the
// round is finalized, together with the fill unit itself, so a re-delivery
// after a crash mid-round re-funds the fill instead of losing it.
func (n *Node) IngestFill(ctx context.Context, fillSeed []byte, amount uint64, sourceChain types.ChainID, orderSender types.Address, redeemerMessage []byte) (types.UnitID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(fillSeed) == 0 {
		return nil, fmt.Errorf("fill seed is empty")
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	fillID := swaplayer.NewPreparedFillID(fillSeed)
	if _, ok := n.ingestedFills[string(fillSeed)]; ok {
		n.log.Debug("duplicate fill delivery ignored", logger.UnitID(fillID))
		return fillID, nil
	}
	_, actions := swaplayer.PreparedFill(fillSeed, amount, sourceChain, orderSender, redeemerMessage)
	if err := n.state.Apply(actions...); err != nil {
		return nil, fmt.Errorf("applying prepared fill: %w", err)
	}
	n.ingestedFills[string(fillSeed)] = struct{}{}
	n.ingestFillCnt.Add(ctx, 1)
	n.log.Info("ingested prepared fill", logger.UnitID(fillID), logger.Data(amount))
	return fillID, nil
}

// FinalizeRound commits the round, persists a snapshot and begins the next
// round.
func (n *Node) FinalizeRound(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if err := n.txs.Commit(); err != nil {
		return fmt.Errorf("committing round %d: %w", n.round, err)
	}
	buf := &bytes.Buffer{}
	if err := n.state.Serialize(buf, true); err != nil {
		return fmt.Errorf("serializing state: %w", err)
	}
	fills := make([]types.Bytes, 0, len(n.ingestedFills))
	for seed := range n.ingestedFills {
		fills = append(fills, types.Bytes(seed))
	}
	snapshot := &snapshotRecord{Round: n.round, State: buf.Bytes(), IngestedFills: fills}
	if err := n.db.Write(keySnapshot, snapshot); err != nil {
		return fmt.Errorf("persisting round snapshot: %w", err)
	}
	n.roundCnt.Add(ctx, 1)
	n.log.Debug("finalized round", logger.Round(n.round))
	n.round++
	n.txs.BeginRound(n.round)
	return nil
}

// GetUnit reads a unit from the committed state.
func (n *Node) GetUnit(id types.UnitID) (*state.Unit, error) {
	return n.state.GetUnit(id, true)
}

// StateSummary returns the committed summary value and root hash.
func (n *Node) StateSummary() (uint64, []byte, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.txs.StateSummary()
}

func txKey(hash []byte) []byte {
	return []byte(txKeyPrefix + hex.EncodeToString(hash))
}
