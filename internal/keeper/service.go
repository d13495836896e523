// internal/keeper/service.go
package keeper

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/settlabs/govault/internal/types"
)

// Earner is the vault surface the keeper drives.
type Earner interface {
	Earn(caller common.Address) error
}

// Harvester is the strategy surface the keeper drives.
type Harvester interface {
	Harvest(caller common.Address) error
}

// Config holds the keeper schedules. Cron specs use the standard five-field
// format; an empty spec disables that job.
type Config struct {
	Address      common.Address
	EarnSpec     string
	HarvestSpec  string
	MaxRetries   uint64
	EarnDisabled bool
}

// Service periodically deploys idle capital and harvests the strategy on
// behalf of the keeper actor. Transient failures are retried with exponential
// backoff; permanent gating errors (paused, unauthorized) are not.
type Service struct {
	log     *zap.Logger
	cfg     Config
	vault   Earner
	strat   Harvester
	cron    *cron.Cron
	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
}

func New(cfg Config, vault Earner, strat Harvester, log *zap.Logger) (*Service, error) {
	if cfg.Address == (common.Address{}) {
		return nil, types.ErrZeroAddress
	}
	if vault == nil || strat == nil {
		return nil, errors.New("keeper: vault and strategy are required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	return &Service{
		log:   log.Named("keeper"),
		cfg:   cfg,
		vault: vault,
		strat: strat,
	}, nil
}

// Start registers the cron jobs and begins scheduling. Safe to call once.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return errors.New("keeper: already started")
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	if s.cfg.EarnSpec != "" && !s.cfg.EarnDisabled {
		if _, err := s.cron.AddFunc(s.cfg.EarnSpec, s.runEarn); err != nil {
			return fmt.Errorf("schedule earn: %w", err)
		}
	}
	if s.cfg.HarvestSpec != "" {
		if _, err := s.cron.AddFunc(s.cfg.HarvestSpec, s.runHarvest); err != nil {
			return fmt.Errorf("schedule harvest: %w", err)
		}
	}

	s.cron.Start()
	s.started = true
	s.log.Info("keeper started",
		zap.String("earn_spec", s.cfg.EarnSpec),
		zap.String("harvest_spec", s.cfg.HarvestSpec))
	return nil
}

// Stop halts scheduling and waits for any running job to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.cancel()
	<-s.cron.Stop().Done()
	s.started = false
	s.log.Info("keeper stopped")
}

func (s *Service) runEarn() {
	if err := s.retry(func() error { return s.vault.Earn(s.cfg.Address) }); err != nil {
		s.log.Error("earn failed", zap.Error(err))
		return
	}
	s.log.Debug("earn executed")
}

func (s *Service) runHarvest() {
	if err := s.retry(func() error { return s.strat.Harvest(s.cfg.Address) }); err != nil {
		s.log.Error("harvest failed", zap.Error(err))
		return
	}
	s.log.Debug("harvest executed")
}

func (s *Service) retry(operation func() error) error {
	wrapped := func() error {
		err := operation()
		if isPermanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), s.cfg.MaxRetries)
	return backoff.Retry(wrapped, backoff.WithContext(b, s.ctx))
}

// isPermanent reports whether an error reflects vault state that retries
// cannot change.
func isPermanent(err error) bool {
	return errors.Is(err, types.ErrPaused) ||
		errors.Is(err, types.ErrUnauthorized)
}
