// internal/daemon/runner.go
package daemon

import (
	"context"
	"crypto/sha256"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/settlabs/govault/internal/config"
	"github.com/settlabs/govault/internal/events"
	"github.com/settlabs/govault/internal/history"
	"github.com/settlabs/govault/internal/keeper"
	"github.com/settlabs/govault/internal/logging"
	"github.com/settlabs/govault/internal/strategy"
	"github.com/settlabs/govault/internal/token"
	"github.com/settlabs/govault/internal/vault"
)

// Runner wires the daemon: config, logger, the asset token, the vault, the
// demo strategy and the keeper schedules.
type Runner struct {
	log      *zap.Logger
	cfg      *config.Config
	registry *token.Registry
	vault    *vault.Vault
	strat    *strategy.Demo
	keeper   *keeper.Service
	bus      *events.Bus
	history  *history.HarvestHistory
	shutdown *ShutdownHandler
}

func NewRunner(log *zap.Logger) *Runner {
	return &Runner{log: log}
}

// Initialize loads the configuration and constructs every component. Nothing
// is scheduled yet; Run starts the keeper.
func (r *Runner) Initialize(configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	r.cfg = cfg

	log, err := logging.InitLogger(cfg.DebugLogging, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	r.log = log

	r.registry = token.NewRegistry()
	want := r.registry.Deploy(cfg.WantName, cfg.WantSymbol, cfg.WantDecimals)

	governance, _ := cfg.Address(cfg.Governance)
	strategist, _ := cfg.Address(cfg.Strategist)
	keeperAddr, _ := cfg.Address(cfg.Keeper)
	guardian, _ := cfg.Address(cfg.Guardian)
	treasury, _ := cfg.Address(cfg.Treasury)
	rewards, _ := cfg.Address(cfg.Rewards)
	vaultAddr := accountAddress("vault", cfg.WantSymbol)
	stratAddr := accountAddress("strategy", cfg.WantSymbol)

	r.bus = events.NewBus(r.log, cfg.EventBufferSize)
	r.subscribeEventLogging()

	hh, err := history.NewHarvestHistory(filepath.Dir(cfg.LogFile), 1024, r.log)
	if err != nil {
		return fmt.Errorf("create harvest history: %w", err)
	}
	hh.Subscribe(r.bus)
	r.history = hh

	v, err := vault.New(vault.Config{
		Tokens:                   r.registry,
		Want:                     want.Address(),
		Address:                  vaultAddr,
		Governance:               governance,
		Strategist:               strategist,
		Keeper:                   keeperAddr,
		Guardian:                 guardian,
		Treasury:                 treasury,
		Rewards:                  rewards,
		PerformanceFeeGovernance: cfg.PerformanceFeeGovernance,
		PerformanceFeeStrategist: cfg.PerformanceFeeStrategist,
		WithdrawalFee:            cfg.WithdrawalFee,
		ManagementFee:            cfg.ManagementFee,
		ToEarnBps:                cfg.ToEarnBps,
	}, vault.WithLogger(r.log), vault.WithEventBus(r.bus))
	if err != nil {
		return fmt.Errorf("create vault: %w", err)
	}
	r.vault = v

	strat, err := strategy.New(strategy.Config{
		Address:    stratAddr,
		Want:       want,
		Vault:      v,
		Governance: governance,
		Keeper:     keeperAddr,
	}, r.log)
	if err != nil {
		return fmt.Errorf("create strategy: %w", err)
	}
	r.strat = strat

	if err := v.SetStrategy(governance, stratAddr, strat); err != nil {
		return fmt.Errorf("set strategy: %w", err)
	}

	svc, err := keeper.New(keeper.Config{
		Address:     keeperAddr,
		EarnSpec:    cfg.EarnSchedule,
		HarvestSpec: cfg.HarvestSchedule,
		MaxRetries:  cfg.Retries,
	}, v, strat, r.log)
	if err != nil {
		return fmt.Errorf("create keeper: %w", err)
	}
	r.keeper = svc

	r.shutdown = NewShutdownHandler(r.log, 30*time.Second)
	r.shutdown.AddFunc("event_bus", r.bus.Close)
	r.shutdown.AddFunc("harvest_history", r.history.Close)

	r.log.Info("daemon initialized",
		zap.Stringer("want", want.Address()),
		zap.Stringer("vault", vaultAddr),
		zap.Stringer("strategy", stratAddr))
	return nil
}

// Run starts the keeper schedules and the periodic history flush, supervised
// by one errgroup.
func (r *Runner) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(runCtx)

	if err := r.keeper.Start(gctx); err != nil {
		cancel()
		return fmt.Errorf("start keeper: %w", err)
	}
	g.Go(func() error {
		<-gctx.Done()
		r.keeper.Stop()
		return nil
	})
	g.Go(func() error {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if err := r.history.Flush(); err != nil {
					r.log.Warn("history flush failed", zap.Error(err))
				}
			}
		}
	})

	r.shutdown.AddFunc("supervisor", func() error {
		cancel()
		return g.Wait()
	})
	return nil
}

// WaitForShutdown blocks until a termination signal, then stops everything.
func (r *Runner) WaitForShutdown() {
	r.shutdown.HandleShutdown()
	_ = r.log.Sync()
}

// Vault exposes the wired vault for embedding callers.
func (r *Runner) Vault() *vault.Vault { return r.vault }

// Strategy exposes the wired demo strategy.
func (r *Runner) Strategy() *strategy.Demo { return r.strat }

// Registry exposes the token registry, including the want faucet.
func (r *Runner) Registry() *token.Registry { return r.registry }

func (r *Runner) subscribeEventLogging() {
	for _, typ := range []events.EventType{
		events.Deposited,
		events.Withdrawn,
		events.Earned,
		events.Harvested,
		events.TreeDistribution,
		events.WithdrawalFeeAssessed,
		events.PauseChanged,
	} {
		eventType := typ
		r.bus.SubscribeFunc(eventType, func(_ context.Context, e events.Event) error {
			r.log.Info("vault event",
				zap.String("type", string(eventType)),
				zap.Time("at", e.Timestamp()))
			return nil
		})
	}
}

// accountAddress derives a stable custody address for an internal account.
func accountAddress(role, symbol string) common.Address {
	hash := sha256.Sum256([]byte("govault/" + role + "/" + symbol))
	return common.BytesToAddress(hash[12:])
}
