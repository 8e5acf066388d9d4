package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/iotaledger/bee-sub004/domain/tangle"
	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
	"github.com/iotaledger/bee-sub004/infrastructure/config"
	infrastructuredatabase "github.com/iotaledger/bee-sub004/infrastructure/db/database"
	"github.com/iotaledger/bee-sub004/infrastructure/db/database/badgerdb"
	"github.com/iotaledger/bee-sub004/infrastructure/db/database/ldb"
	"github.com/iotaledger/bee-sub004/infrastructure/logger"
	"github.com/iotaledger/bee-sub004/infrastructure/metrics"
	"github.com/iotaledger/bee-sub004/infrastructure/os/signal"
	"github.com/iotaledger/bee-sub004/util/panics"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	leveldbCacheSizeMiB = 256
	maintenanceInterval = time.Second
	httpStopTimeout     = 2 * time.Second
)

func main() {
	defer panics.HandlePanic(log, "MAIN", nil)
	interrupt := signal.InterruptListener()

	cfg, err := config.LoadConfig()
	if err != nil {
		printErrorAndExit(errors.Wrap(err, "Error parsing command-line arguments"))
	}

	err = logger.InitLog(cfg.LogFile(), cfg.ErrLogFile())
	if err != nil {
		printErrorAndExit(errors.Wrap(err, "Error initializing the logger"))
	}
	defer logger.BackendLog.Close()

	db, err := openDatabase(cfg)
	if err != nil {
		printErrorAndExit(errors.Wrapf(err, "Error opening the %s database at %s", cfg.DbType, cfg.DataDir))
	}
	defer func() {
		err := db.Close()
		if err != nil {
			log.Errorf("Error closing the database: %s", err)
		}
	}()

	collector, err := metrics.New(prometheus.DefaultRegisterer)
	if err != nil {
		printErrorAndExit(err)
	}
	events := collector.TangleEvents(&tangle.Events{
		OnMilestoneInvalid: func(index externalapi.MilestoneIndex, err error) {
			log.Warnf("Milestone %d failed confirmation: %s", index, err)
		},
	})

	tangleInstance, err := tangle.NewFactory().NewTangle(cfg.NetParams(), db, events)
	if err != nil {
		printErrorAndExit(errors.Wrap(err, "Error creating the tangle"))
	}
	lsmi, err := tangleInstance.LatestSolidMilestoneIndex()
	if err != nil {
		printErrorAndExit(err)
	}
	log.Infof("Tangle on %s ready at milestone %d with %d blocks", cfg.NetParams().Name, lsmi,
		tangleInstance.BlockCount())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err = tangleInstance.Resume(ctx)
	if err != nil {
		log.Warnf("Could not resume interrupted work: %s", err)
	}
	spawn("maintainTangle", func() {
		maintainTangle(ctx, tangleInstance)
	})

	var metricsServer *http.Server
	if cfg.MetricsListen != "" {
		metricsServer = startMetricsServer(cfg.MetricsListen)
	}

	<-interrupt

	cancel()
	if metricsServer != nil {
		stopContext, stopCancel := context.WithTimeout(context.Background(), httpStopTimeout)
		defer stopCancel()
		err := metricsServer.Shutdown(stopContext)
		if err != nil {
			log.Warnf("Could not gracefully stop the metrics server: %s", err)
		}
	}
	log.Infof("Shutdown complete")
}

func openDatabase(cfg *config.Config) (infrastructuredatabase.Database, error) {
	err := os.MkdirAll(cfg.DataDir, 0700)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if cfg.DbType == config.DatabaseTypeBadger {
		db, err := badgerdb.NewBadgerDB(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		return db, nil
	}
	db, err := ldb.NewLevelDB(cfg.DataDir, leveldbCacheSizeMiB)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// maintainTangle periodically rescores the tip pool, so that tips age out
// even while no milestone arrives, and resumes interrupted work
func maintainTangle(ctx context.Context, tangleInstance tangle.Tangle) {
	ticker := time.NewTicker(maintenanceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			evicted, err := tangleInstance.UpdateTipScores()
			if err != nil {
				log.Errorf("Error updating tip scores: %s", err)
				continue
			}
			if evicted > 0 {
				log.Debugf("Evicted %d tips", evicted)
			}

			err = tangleInstance.Resume(ctx)
			if err != nil && ctx.Err() == nil {
				log.Warnf("Could not resume interrupted work: %s", err)
			}
		}
	}
}

func startMetricsServer(listen string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:              listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	spawn("metricsServer", func() {
		log.Infof("Serving metrics on %s", listen)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("Metrics server stopped: %s", err)
		}
	})
	return server
}

func printErrorAndExit(err error) {
	fmt.Fprintf(os.Stderr, "%s\n", err)
	os.Exit(1)
}
