package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"stakevault/config"
	"stakevault/core/events"
	"stakevault/core/types"
	"stakevault/crypto"
	"stakevault/native/staking"
	"stakevault/observability/logging"
	"stakevault/rpc"
	"stakevault/state"
	"stakevault/storage"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const envKey = "STAKEVAULT_ENV"

// logEmitter forwards engine events to the structured log so operators get an
// audit trail without a dedicated indexer.
type logEmitter struct {
	logger *slog.Logger
}

func (l logEmitter) Emit(evt events.Event) {
	attrs := []any{slog.String("type", evt.EventType())}
	if typed, ok := evt.(interface{ Event() *types.Event }); ok {
		if e := typed.Event(); e != nil {
			for k, v := range e.Attributes {
				attrs = append(attrs, slog.String(k, v))
			}
		}
	}
	l.logger.Info("engine event", attrs...)
}

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv(envKey))
	logger := logging.Setup("stakevaultd", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	var db storage.Database
	if cfg.DataDir == ":memory:" {
		db = storage.NewMemDB()
	} else {
		ldb, err := storage.NewLevelDB(cfg.DataDir)
		if err != nil {
			panic(fmt.Sprintf("Failed to open database: %v", err))
		}
		db = ldb
	}
	defer db.Close()

	manager := state.NewManager(db)
	genesisAccounts, err := cfg.Genesis.AccountBalances()
	if err != nil {
		logger.Error("Failed to parse genesis accounts", slog.Any("error", err))
		os.Exit(1)
	}
	if err := manager.InitGenesis(cfg.Genesis.TermTable(), genesisAccounts); err != nil {
		logger.Error("Failed to apply genesis", slog.Any("error", err))
		os.Exit(1)
	}

	adminAddr, err := crypto.DecodeAddress(cfg.AdminAddress)
	if err != nil {
		logger.Error("Invalid admin address", slog.Any("error", err))
		os.Exit(1)
	}

	engine := staking.NewEngine()
	engine.SetState(manager)
	engine.SetLedger(manager)
	engine.SetAdmin(adminAddr.Array())
	engine.SetVault(crypto.ModuleAddress("staking"))
	engine.SetEmitter(logEmitter{logger: logger})

	go func() {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		logger.Info("metrics listener starting", slog.String("addr", cfg.MetricsAddress))
		if err := http.ListenAndServe(cfg.MetricsAddress, metricsMux); err != nil {
			logger.Error("metrics listener failed", slog.Any("error", err))
		}
	}()

	server := rpc.NewServer(engine, manager)
	logger.Info("rpc server starting",
		slog.String("addr", cfg.RPCAddress),
		slog.String("network", cfg.NetworkName),
		slog.String("admin", cfg.AdminAddress),
	)
	if err := server.Start(cfg.RPCAddress); err != nil {
		logger.Error("rpc server failed", slog.Any("error", err))
		os.Exit(1)
	}
}
