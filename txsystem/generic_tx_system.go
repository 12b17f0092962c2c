package txsystem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/wormholelabs-xyz/swap-layer/logger"
	"github.com/wormholelabs-xyz/swap-layer/state"
	"github.com/wormholelabs-xyz/swap-layer/types"
)

var ErrStateContainsUncommittedChanges = errors.New("state contains uncommitted changes")

type (
	// Module is a set of tx handlers to register with the transaction system.
	Module interface {
		TxHandlers() map[string]TxExecutor
	}

	Observability interface {
		Meter(name string, opts ...metric.MeterOption) metric.Meter
		Logger() *slog.Logger
	}

	GenericTxSystem struct {
		state        *state.State
		currentRound uint64
		executors    TxExecutors
		log          *slog.Logger

		execTxCnt metric.Int64Counter
	}
)

func NewGenericTxSystem(modules []Module, observe Observability, opts ...Option) (*GenericTxSystem, error) {
	options := DefaultOptions()
	for _, option := range opts {
		option(options)
	}
	txs := &GenericTxSystem{
		state:     options.state,
		executors: make(TxExecutors),
		log:       observe.Logger(),
	}
	for _, module := range modules {
		if err := txs.executors.Add(module.TxHandlers()); err != nil {
			return nil, fmt.Errorf("registering tx executors: %w", err)
		}
	}
	if err := txs.initMetrics(observe.Meter("txsystem")); err != nil {
		return nil, fmt.Errorf("initializing metrics: %w", err)
	}
	return txs, nil
}

func (m *GenericTxSystem) initMetrics(mtr metric.Meter) (err error) {
	m.execTxCnt, err = mtr.Int64Counter(
		"exec.tx.count",
		metric.WithDescription("Number of transactions processed"),
	)
	if err != nil {
		return fmt.Errorf("creating tx counter: %w", err)
	}
	return nil
}

func (m *GenericTxSystem) State() *state.State {
	return m.state
}

func (m *GenericTxSystem) BeginRound(round uint64) {
	m.currentRound = round
}

func (m *GenericTxSystem) CurrentRound() uint64 {
	return m.currentRound
}

// Execute runs one transaction order as a single atomic operation: either
// every state change made by the handler survives, or none do. The savepoint
// taken here is rolled back on any validation or execution error.
func (m *GenericTxSystem) Execute(tx *types.TransactionOrder) (sm *types.ServerMetadata, rErr error) {
	exeCtx := txExecutionContext{txs: m}

	savepointID := m.state.Savepoint()
	defer func() {
		status := "ok"
		if rErr != nil {
			// transaction execution failed, revert every change made by the
			// transaction order
			m.state.RollbackToSavepoint(savepointID)
			status = "err"
		} else {
			m.state.ReleaseToSavepoint(savepointID)
		}
		m.execTxCnt.Add(context.Background(), 1,
			metric.WithAttributeSet(attribute.NewSet(
				attribute.String("tx", tx.PayloadType()),
				attribute.String("status", status),
			)))
	}()

	m.log.Debug("executing transaction", logger.TxType(tx.PayloadType()), logger.UnitID(tx.UnitID()), logger.Round(m.currentRound))
	sm, rErr = m.executors.ValidateAndExecute(tx, exeCtx)
	if rErr != nil {
		return nil, rErr
	}
	return sm, nil
}

// Commit makes all state changes of the round permanent.
func (m *GenericTxSystem) Commit() error {
	return m.state.Commit()
}

// Revert rolls the state back to the last committed round.
func (m *GenericTxSystem) Revert() {
	m.state.Revert()
}

// StateSummary returns the summary value and root hash of the committed
// state. Returns ErrStateContainsUncommittedChanges if the state has
// uncommitted changes.
func (m *GenericTxSystem) StateSummary() (uint64, []byte, error) {
	if !m.state.IsCommitted() {
		return 0, nil, ErrStateContainsUncommittedChanges
	}
	return m.state.CalculateRoot()
}
