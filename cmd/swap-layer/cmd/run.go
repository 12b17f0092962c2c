package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wormholelabs-xyz/swap-layer/keyvaluedb"
	"github.com/wormholelabs-xyz/swap-layer/keyvaluedb/boltdb"
	"github.com/wormholelabs-xyz/swap-layer/keyvaluedb/memorydb"
	"github.com/wormholelabs-xyz/swap-layer/node"
	"github.com/wormholelabs-xyz/swap-layer/observability"
	"github.com/wormholelabs-xyz/swap-layer/rpc"
	"github.com/wormholelabs-xyz/swap-layer/swap"
)

func newRunCmd(baseConf *baseConfiguration) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the settlement engine node",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNode(cmd.Context(), baseConf)
		},
	}
}

func runNode(ctx context.Context, baseConf *baseConfiguration) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log, err := baseConf.logger()
	if err != nil {
		return err
	}
	conf, err := loadNodeConfiguration(baseConf.CfgFile)
	if err != nil {
		return err
	}
	roundInterval, err := conf.Server.roundInterval()
	if err != nil {
		return err
	}
	genesis, err := conf.Genesis.toGenesisConfig()
	if err != nil {
		return err
	}
	venue, err := buildVenue(conf.Pools)
	if err != nil {
		return err
	}
	db, err := openDatabase(conf.Database, log)
	if err != nil {
		return err
	}
	if closer, ok := db.(io.Closer); ok {
		defer closer.Close()
	}

	observe := observability.New(log, nil)
	n, err := node.New(node.Conf{Genesis: genesis, Venue: venue, DB: db}, observe)
	if err != nil {
		return fmt.Errorf("starting node: %w", err)
	}
	log.InfoContext(ctx, "node started", "round", n.CurrentRound())

	srv := &http.Server{
		Addr:              conf.Server.Address,
		Handler:           rpc.NewRESTHandler(n, observe),
		ReadHeaderTimeout: 5 * time.Second,
	}
	srvErr := make(chan error, 1)
	go func() {
		log.InfoContext(ctx, "REST server listening", "address", conf.Server.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
	}()

	ticker := time.NewTicker(roundInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := n.FinalizeRound(ctx); err != nil {
				log.ErrorContext(ctx, "finalizing round", "err", err)
			}
		case err := <-srvErr:
			return fmt.Errorf("REST server: %w", err)
		case <-ctx.Done():
			log.InfoContext(ctx, "shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		}
	}
}

func buildVenue(pools []poolConfiguration) (*swap.ConstantProductVenue, error) {
	venue := swap.NewConstantProductVenue()
	for i, p := range pools {
		assetA, err := parseAsset(p.AssetA)
		if err != nil {
			return nil, fmt.Errorf("pool %d asset A: %w", i, err)
		}
		assetB, err := parseAsset(p.AssetB)
		if err != nil {
			return nil, fmt.Errorf("pool %d asset B: %w", i, err)
		}
		if p.ReserveA == 0 || p.ReserveB == 0 {
			return nil, fmt.Errorf("pool %d: reserves must be positive", i)
		}
		venue.AddPool(assetA, assetB, p.ReserveA, p.ReserveB)
	}
	return venue, nil
}

func openDatabase(conf databaseConfiguration, log *slog.Logger) (keyvaluedb.KeyValueDB, error) {
	if conf.Path == "" {
		log.Warn("no database path configured, state will not survive restart")
		return memorydb.New(), nil
	}
	return boltdb.New(conf.Path)
}
