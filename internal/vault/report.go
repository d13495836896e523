// internal/vault/report.go
package vault

import (
	"fmt"

	"cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/settlabs/govault/internal/events"
	"github.com/settlabs/govault/internal/types"
)

// ReportHarvest is the strategy's harvest callback. The strategy credits the
// realized gain to its own balance first, then reports it here; the vault
// recovers the pre-harvest snapshot by subtracting the gain.
//
// All fee components are converted to shares against that one snapshot, so
// later mints cannot dilute against a base the earlier mints already moved.
// Deliberately not gated by the vault pause: a paused vault still accounts
// for gains the strategy already realized.
func (v *Vault) ReportHarvest(caller common.Address, gain math.Int) error {
	if err := v.onlyStrategy(caller); err != nil {
		return err
	}
	if err := v.guard.Enter(); err != nil {
		return err
	}
	defer v.guard.Exit()
	if gain.IsNegative() {
		return ErrZeroAmount
	}

	now := v.now()
	supplyBefore := v.ledger.TotalSupply()
	assetsBefore := v.TotalAssets().Sub(gain)
	if assetsBefore.IsNegative() {
		assetsBefore = math.ZeroInt()
	}

	rates, _ := v.fees.get()
	feeGovernance := types.BpsOf(gain, rates.PerformanceGovernance)
	feeStrategist := types.BpsOf(gain, rates.PerformanceStrategist)

	v.mu.RLock()
	lastHarvestedAt := v.lastHarvestedAt
	v.mu.RUnlock()
	elapsedSeconds := int64(now.Sub(lastHarvestedAt).Seconds())
	managementFee := math.ZeroInt()
	if rates.Management > 0 && elapsedSeconds > 0 {
		// Multiply through before dividing so small bases still accrue.
		managementFee = assetsBefore.
			MulRaw(int64(rates.Management)).
			MulRaw(elapsedSeconds).
			QuoRaw(types.MaxBPS).
			QuoRaw(types.SecondsPerYear)
	}

	actors := v.access.get()
	governanceShares := feeShares(feeGovernance.Add(managementFee), supplyBefore, assetsBefore)
	strategistShares := math.ZeroInt()
	if actors.Strategist != (common.Address{}) {
		strategistShares = feeShares(feeStrategist, supplyBefore, assetsBefore)
	}

	if governanceShares.IsPositive() {
		if err := v.ledger.Mint(actors.Treasury, governanceShares); err != nil {
			return fmt.Errorf("mint governance fee: %w", err)
		}
	}
	if strategistShares.IsPositive() {
		if err := v.ledger.Mint(actors.Strategist, strategistShares); err != nil {
			return fmt.Errorf("mint strategist fee: %w", err)
		}
	}

	v.mu.Lock()
	v.lastHarvestAmount = gain
	v.assetsAtLastHarvest = assetsBefore
	v.lifeTimeEarned = v.lifeTimeEarned.Add(gain)
	v.lastHarvestedAt = now
	v.mu.Unlock()

	v.log.Info("harvest reported",
		zap.String("gain", gain.String()),
		zap.String("assets_before", assetsBefore.String()),
		zap.String("governance_shares", governanceShares.String()),
		zap.String("strategist_shares", strategistShares.String()))
	v.publish(&events.HarvestedEvent{
		BaseEvent:        v.base(events.Harvested),
		Gain:             gain,
		GovernanceShares: governanceShares,
		StrategistShares: strategistShares,
		AssetsBefore:     assetsBefore,
	})
	return nil
}

// ReportAdditionalToken accounts an incidental reward token the strategy
// emitted: performance fees are taken in kind, the remainder is forwarded to
// the rewards distributor. The token balance must already sit in vault
// custody when the strategy reports it.
func (v *Vault) ReportAdditionalToken(caller, tokenAddr common.Address, amount math.Int) error {
	if err := v.onlyStrategy(caller); err != nil {
		return err
	}
	if err := v.guard.Enter(); err != nil {
		return err
	}
	defer v.guard.Exit()
	if tokenAddr == (common.Address{}) {
		return ErrZeroAddress
	}
	if tokenAddr == v.cfg.Want {
		return ErrNotWant
	}
	if !amount.IsPositive() {
		return ErrZeroAmount
	}
	tok, ok := v.tokens.Token(tokenAddr)
	if !ok {
		return fmt.Errorf("%s: %w", tokenAddr, ErrUnknownToken)
	}

	rates, _ := v.fees.get()
	actors := v.access.get()
	feeGovernance := types.BpsOf(amount, rates.PerformanceGovernance)
	feeStrategist := types.BpsOf(amount, rates.PerformanceStrategist)
	if actors.Strategist == (common.Address{}) {
		feeStrategist = math.ZeroInt()
	}

	if feeGovernance.IsPositive() {
		if err := tok.Transfer(v.cfg.Address, actors.Treasury, feeGovernance); err != nil {
			return fmt.Errorf("governance fee: %w", err)
		}
	}
	if feeStrategist.IsPositive() {
		if err := tok.Transfer(v.cfg.Address, actors.Strategist, feeStrategist); err != nil {
			return fmt.Errorf("strategist fee: %w", err)
		}
	}
	forwarded := amount.Sub(feeGovernance).Sub(feeStrategist)
	if forwarded.IsPositive() {
		if err := tok.Transfer(v.cfg.Address, actors.Rewards, forwarded); err != nil {
			return fmt.Errorf("forward rewards: %w", err)
		}
	}

	v.mu.Lock()
	earned, ok := v.additionalTokensEarned[tokenAddr]
	if !ok {
		earned = math.ZeroInt()
	}
	v.additionalTokensEarned[tokenAddr] = earned.Add(amount)
	v.mu.Unlock()

	v.log.Info("additional token reported",
		zap.Stringer("token", tokenAddr),
		zap.String("amount", amount.String()),
		zap.String("forwarded", forwarded.String()))
	v.publish(&events.TreeDistributionEvent{
		BaseEvent: v.base(events.TreeDistribution),
		Token:     tokenAddr,
		Amount:    amount,
		Forwarded: forwarded,
	})
	return nil
}

// Harvest audit trail accessors.

func (v *Vault) LastHarvestedAt() int64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.lastHarvestedAt.Unix()
}

func (v *Vault) LastHarvestAmount() math.Int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.lastHarvestAmount
}

func (v *Vault) AssetsAtLastHarvest() math.Int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.assetsAtLastHarvest
}

func (v *Vault) LifeTimeEarned() math.Int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.lifeTimeEarned
}

func (v *Vault) AdditionalTokensEarned(tokenAddr common.Address) math.Int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if earned, ok := v.additionalTokensEarned[tokenAddr]; ok {
		return earned
	}
	return math.ZeroInt()
}
