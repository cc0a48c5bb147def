package config

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"stakepool/native/stakepool"
)

// Validate rejects configurations the ledger cannot run with.
func (cfg *Config) Validate() error {
	if _, err := cfg.Globals(); err != nil {
		return err
	}
	if _, err := cfg.StakepoolParams(); err != nil {
		return err
	}
	if cfg.Server.RateLimitPerSecond < 0 || cfg.Server.Burst < 0 {
		return fmt.Errorf("server: rate limit and burst must not be negative")
	}
	if cfg.Log.MaxSizeMB < 0 || cfg.Log.MaxBackups < 0 || cfg.Log.MaxAgeDays < 0 {
		return fmt.Errorf("log: rotation limits must not be negative")
	}
	return nil
}

// Globals parses the protocol identities.
func (cfg *Config) Globals() (stakepool.Globals, error) {
	authority, err := parseAddress("protocol.Authority", cfg.Protocol.Authority)
	if err != nil {
		return stakepool.Globals{}, err
	}
	platform, err := parseAddress("protocol.Platform", cfg.Protocol.Platform)
	if err != nil {
		return stakepool.Globals{}, err
	}
	team, err := parseAddress("protocol.Team", cfg.Protocol.Team)
	if err != nil {
		return stakepool.Globals{}, err
	}
	return stakepool.Globals{Authority: authority, Platform: platform, Team: team}, nil
}

func parseAddress(field, value string) (common.Address, error) {
	if value == "" {
		return common.Address{}, fmt.Errorf("%s is required", field)
	}
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("%s: invalid address %q", field, value)
	}
	addr := common.HexToAddress(value)
	if addr == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%s must not be the zero address", field)
	}
	return addr, nil
}
