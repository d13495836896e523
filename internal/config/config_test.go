// internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const validConfig = `
want_name: "Wrapped BTC"
want_symbol: "WBTC"
want_decimals: 8
governance: "0x1000000000000000000000000000000000000001"
strategist: "0x1000000000000000000000000000000000000002"
keeper: "0x1000000000000000000000000000000000000003"
guardian: "0x1000000000000000000000000000000000000004"
treasury: "0x1000000000000000000000000000000000000005"
rewards: "0x1000000000000000000000000000000000000006"
performance_fee_governance: 1000
performance_fee_strategist: 1000
withdrawal_fee: 50
management_fee: 50
`

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, uint64(DefaultToEarnBps), cfg.ToEarnBps)
	assert.Equal(t, DefaultEarnSchedule, cfg.EarnSchedule)
	assert.Equal(t, DefaultHarvestSchedule, cfg.HarvestSchedule)
	assert.Equal(t, DefaultEventBufferSize, cfg.EventBufferSize)
	assert.Equal(t, DefaultLogFile, cfg.LogFile)
	assert.Equal(t, uint8(8), cfg.WantDecimals)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigMissingGovernance(t *testing.T) {
	body := `
want_name: "Wrapped BTC"
want_symbol: "WBTC"
keeper: "0x1000000000000000000000000000000000000003"
guardian: "0x1000000000000000000000000000000000000004"
treasury: "0x1000000000000000000000000000000000000005"
rewards: "0x1000000000000000000000000000000000000006"
`
	_, err := LoadConfig(writeConfig(t, body))
	assert.ErrorContains(t, err, "governance")
}

func TestLoadConfigStrategistOptional(t *testing.T) {
	body := validConfig
	cfg, err := LoadConfig(writeConfig(t, body))
	require.NoError(t, err)

	addr, err := cfg.Address("")
	require.NoError(t, err)
	assert.Equal(t, common.Address{}, addr)
}

func TestLoadConfigRejectsExcessiveFee(t *testing.T) {
	body := validConfig + "\nwithdrawal_fee: 10001\n"
	_, err := LoadConfig(writeConfig(t, body))
	assert.ErrorContains(t, err, "withdrawal_fee")
}

func TestLoadConfigRejectsBadAddress(t *testing.T) {
	body := validConfig + "\ntreasury: \"not-an-address\"\n"
	_, err := LoadConfig(writeConfig(t, body))
	assert.ErrorContains(t, err, "treasury")
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("GOVAULT_GOVERNANCE", "0x1000000000000000000000000000000000000099")

	cfg, err := LoadConfig(writeConfig(t, validConfig))
	require.NoError(t, err)
	assert.Equal(t, "0x1000000000000000000000000000000000000099", cfg.Governance)
}
