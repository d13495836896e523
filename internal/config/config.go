// internal/config/config.go
package config

import (
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"

	"github.com/settlabs/govault/internal/types"
)

type Config struct {
	LogFile      string `mapstructure:"log_file"`
	DebugLogging bool   `mapstructure:"debug_logging"`

	WantName     string `mapstructure:"want_name"`
	WantSymbol   string `mapstructure:"want_symbol"`
	WantDecimals uint8  `mapstructure:"want_decimals"`

	Governance string `mapstructure:"governance"`
	Strategist string `mapstructure:"strategist"`
	Keeper     string `mapstructure:"keeper"`
	Guardian   string `mapstructure:"guardian"`
	Treasury   string `mapstructure:"treasury"`
	Rewards    string `mapstructure:"rewards"`

	PerformanceFeeGovernance uint64 `mapstructure:"performance_fee_governance"`
	PerformanceFeeStrategist uint64 `mapstructure:"performance_fee_strategist"`
	WithdrawalFee            uint64 `mapstructure:"withdrawal_fee"`
	ManagementFee            uint64 `mapstructure:"management_fee"`
	ToEarnBps                uint64 `mapstructure:"to_earn_bps"`

	EarnSchedule    string `mapstructure:"earn_schedule"`
	HarvestSchedule string `mapstructure:"harvest_schedule"`
	Retries         uint64 `mapstructure:"retries"`
	EventBufferSize int    `mapstructure:"event_buffer_size"`
}

const (
	DefaultLogFile         = "vaultd.log"
	DefaultWantDecimals    = 18
	DefaultToEarnBps       = 500
	DefaultEarnSchedule    = "@every 1h"
	DefaultHarvestSchedule = "@every 24h"
	DefaultRetries         = 3
	DefaultEventBufferSize = 256
)

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"log_file":          DefaultLogFile,
		"want_decimals":     DefaultWantDecimals,
		"to_earn_bps":       DefaultToEarnBps,
		"earn_schedule":     DefaultEarnSchedule,
		"harvest_schedule":  DefaultHarvestSchedule,
		"retries":           DefaultRetries,
		"event_buffer_size": DefaultEventBufferSize,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := loadEnvironmentVariables(v, &cfg); err != nil {
		return nil, err
	}

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	if cfg.WantName == "" || cfg.WantSymbol == "" {
		return errors.New("missing want token name or symbol")
	}
	required := map[string]string{
		"governance": cfg.Governance,
		"keeper":     cfg.Keeper,
		"guardian":   cfg.Guardian,
		"treasury":   cfg.Treasury,
		"rewards":    cfg.Rewards,
	}
	for name, raw := range required {
		if _, err := parseAddress(raw); err != nil {
			return errors.New("invalid " + name + " address")
		}
	}
	// Strategist may be left unset to disable strategist fee mints.
	if cfg.Strategist != "" {
		if _, err := parseAddress(cfg.Strategist); err != nil {
			return errors.New("invalid strategist address")
		}
	}
	return validateNumericParams(cfg)
}

func validateNumericParams(cfg *Config) error {
	if cfg.PerformanceFeeGovernance > types.MaxBPS {
		return errors.New("invalid performance_fee_governance")
	}
	if cfg.PerformanceFeeStrategist > types.MaxBPS {
		return errors.New("invalid performance_fee_strategist")
	}
	if cfg.WithdrawalFee > types.MaxBPS {
		return errors.New("invalid withdrawal_fee")
	}
	if cfg.ManagementFee > types.MaxBPS {
		return errors.New("invalid management_fee")
	}
	if cfg.ToEarnBps > types.MaxBPS {
		return errors.New("invalid to_earn_bps")
	}
	if cfg.EventBufferSize <= 0 {
		return errors.New("invalid event_buffer_size")
	}
	return nil
}

// Address returns a validated actor address from its configured hex form. An
// empty string resolves to the zero address.
func (c *Config) Address(raw string) (common.Address, error) {
	if raw == "" {
		return common.Address{}, nil
	}
	return parseAddress(raw)
}

func parseAddress(raw string) (common.Address, error) {
	if !common.IsHexAddress(raw) {
		return common.Address{}, errors.New("not a hex address")
	}
	addr := common.HexToAddress(raw)
	if addr == (common.Address{}) {
		return common.Address{}, errors.New("zero address")
	}
	return addr, nil
}

func loadEnvironmentVariables(v *viper.Viper, cfg *Config) error {
	v.AutomaticEnv()
	v.SetEnvPrefix("GOVAULT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	envGovernance := v.GetString("GOVERNANCE")
	if envGovernance != "" {
		cfg.Governance = envGovernance
	}

	envKeeper := v.GetString("KEEPER")
	if envKeeper != "" {
		cfg.Keeper = envKeeper
	}
	return nil
}
