// internal/vault/fees.go
package vault

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/settlabs/govault/internal/types"
)

// Default governance-settable caps, in bps.
const (
	DefaultMaxPerformanceFee = 3_000
	DefaultMaxWithdrawalFee  = 200
	DefaultMaxManagementFee  = 200
)

// FeeRates holds the four fee rates, in bps.
type FeeRates struct {
	PerformanceGovernance uint64
	PerformanceStrategist uint64
	Withdrawal            uint64
	Management            uint64
}

// FeeCaps holds the governance-settable upper bounds, in bps. Caps themselves
// are bounded by the absolute MaxBPS ceiling.
type FeeCaps struct {
	MaxPerformance uint64
	MaxWithdrawal  uint64
	MaxManagement  uint64
}

type feeConfig struct {
	mu    sync.RWMutex
	rates FeeRates
	caps  FeeCaps
}

func (f *feeConfig) get() (FeeRates, FeeCaps) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.rates, f.caps
}

// Fees returns the current fee rates.
func (v *Vault) Fees() FeeRates {
	rates, _ := v.fees.get()
	return rates
}

// FeeCaps returns the current fee caps.
func (v *Vault) FeeCaps() FeeCaps {
	_, caps := v.fees.get()
	return caps
}

// Fee rate setters: governance or strategist, bounded by the matching cap,
// rejected while paused.

func (v *Vault) SetPerformanceFeeGovernance(caller common.Address, bps uint64) error {
	return v.setRate(caller, bps, func(f *feeConfig) *uint64 { return &f.rates.PerformanceGovernance },
		func(f *feeConfig) uint64 { return f.caps.MaxPerformance }, "performance_fee_governance")
}

func (v *Vault) SetPerformanceFeeStrategist(caller common.Address, bps uint64) error {
	return v.setRate(caller, bps, func(f *feeConfig) *uint64 { return &f.rates.PerformanceStrategist },
		func(f *feeConfig) uint64 { return f.caps.MaxPerformance }, "performance_fee_strategist")
}

func (v *Vault) SetWithdrawalFee(caller common.Address, bps uint64) error {
	return v.setRate(caller, bps, func(f *feeConfig) *uint64 { return &f.rates.Withdrawal },
		func(f *feeConfig) uint64 { return f.caps.MaxWithdrawal }, "withdrawal_fee")
}

func (v *Vault) SetManagementFee(caller common.Address, bps uint64) error {
	return v.setRate(caller, bps, func(f *feeConfig) *uint64 { return &f.rates.Management },
		func(f *feeConfig) uint64 { return f.caps.MaxManagement }, "management_fee")
}

func (v *Vault) setRate(caller common.Address, bps uint64,
	field func(*feeConfig) *uint64, cap func(*feeConfig) uint64, name string) error {
	if err := v.onlyGovernanceOrStrategist(caller); err != nil {
		return err
	}
	if err := v.pause.requireNotPaused(); err != nil {
		return err
	}

	v.fees.mu.Lock()
	defer v.fees.mu.Unlock()
	if bps > cap(&v.fees) {
		return ErrExcessiveFee
	}
	*field(&v.fees) = bps
	v.log.Info("fee updated", zap.String("fee", name), zap.Uint64("bps", bps))
	return nil
}

// Fee cap setters: governance only, bounded by the absolute bps ceiling,
// rejected while paused.

func (v *Vault) SetMaxPerformanceFee(caller common.Address, bps uint64) error {
	return v.setCap(caller, bps, func(f *feeConfig) *uint64 { return &f.caps.MaxPerformance },
		func(f *feeConfig) uint64 { return max(f.rates.PerformanceGovernance, f.rates.PerformanceStrategist) },
		"max_performance_fee")
}

func (v *Vault) SetMaxWithdrawalFee(caller common.Address, bps uint64) error {
	return v.setCap(caller, bps, func(f *feeConfig) *uint64 { return &f.caps.MaxWithdrawal },
		func(f *feeConfig) uint64 { return f.rates.Withdrawal }, "max_withdrawal_fee")
}

func (v *Vault) SetMaxManagementFee(caller common.Address, bps uint64) error {
	return v.setCap(caller, bps, func(f *feeConfig) *uint64 { return &f.caps.MaxManagement },
		func(f *feeConfig) uint64 { return f.rates.Management }, "max_management_fee")
}

// setCap keeps the rate <= cap invariant: a cap can never drop below the rate
// it bounds.
func (v *Vault) setCap(caller common.Address, bps uint64,
	field func(*feeConfig) *uint64, floor func(*feeConfig) uint64, name string) error {
	if err := v.onlyGovernance(caller); err != nil {
		return err
	}
	if err := v.pause.requireNotPaused(); err != nil {
		return err
	}
	if bps > types.MaxBPS {
		return ErrExcessiveFee
	}

	v.fees.mu.Lock()
	defer v.fees.mu.Unlock()
	if bps < floor(&v.fees) {
		return ErrExcessiveFee
	}
	*field(&v.fees) = bps
	v.log.Info("fee cap updated", zap.String("cap", name), zap.Uint64("bps", bps))
	return nil
}
