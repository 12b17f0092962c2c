package logger

import (
	"log/slog"

	"github.com/wormholelabs-xyz/swap-layer/types"
)

/*
Log attribute key values. Generally shouldn't be used directly, use the
appropriate "attribute constructor function" instead.

Only define names here if they are common for multiple modules, module
specific names should be defined in the module.
*/
const (
	ModuleKey = "module"
	ErrorKey  = "err"
	RoundKey  = "round"
	UnitIDKey = "unit_id"
	TxTypeKey = "tx_type"
	DataKey   = "data"
)

/*
Error adds error to the log

	if err := f(); err != nil {
		log.Error("calling f", logger.Error(err))
	}
*/
func Error(err error) slog.Attr {
	return slog.Any(ErrorKey, err)
}

// UnitID is used to log the ID of the primary unit (account, escrow, staged
// record, ...) associated to the logging call.
func UnitID(id types.UnitID) slog.Attr {
	return slog.String(UnitIDKey, id.String())
}

// Round adds the current round number to the log.
func Round(round uint64) slog.Attr {
	return slog.Uint64(RoundKey, round)
}

// TxType adds the transaction payload type to the log.
func TxType(txType string) slog.Attr {
	return slog.String(TxTypeKey, txType)
}

/*
Data adds an additional data field to the message.

Use of anonymous types is discouraged.
*/
func Data(d any) slog.Attr {
	return slog.Any(DataKey, d)
}
