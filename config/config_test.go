package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"stakepool/native/fees"
)

const (
	testAuthority = "0x0000000000000000000000000000000000000a11"
	testPlatform  = "0x00000000000000000000000000000000000000f1"
	testTeam      = "0x00000000000000000000000000000000000000f2"
)

func writeFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "stakepool.toml")
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "protocol.Authority is required") {
		t.Fatalf("expected missing authority error, got %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if !strings.Contains(string(data), `InitialCountdown = "12h0m0s"`) {
		t.Fatalf("durations should persist as strings:\n%s", data)
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "stakepool.toml", `DataDir = "/var/lib/stakepool"
Environment = "prod"

[Log]
File = "/var/log/stakepool.log"
MaxSizeMB = 50

[Protocol]
Authority = "`+testAuthority+`"
Platform = "`+testPlatform+`"
Team = "`+testTeam+`"

[Fees]
stakers_bps = 600
platform_bps = 200
bonus_bps = 100
referral_bps = 50
team_bps = 50

[Limits]
MinContribution = 1000
MinWithdrawal = 1000
BonusQualifying = 5000

[Bonus]
InitialCountdown = "1h"
Extension = "5m"
Inactivity = "30m"

[Referral]
Period = "168h"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataDir != "/var/lib/stakepool" || cfg.Environment != "prod" || cfg.Log.MaxSizeMB != 50 {
		t.Fatalf("unexpected top-level settings: %+v", cfg)
	}
	globals, err := cfg.Globals()
	if err != nil {
		t.Fatalf("globals: %v", err)
	}
	if globals.Authority != common.HexToAddress(testAuthority) {
		t.Fatalf("unexpected authority %s", globals.Authority.Hex())
	}
	params, err := cfg.StakepoolParams()
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	if bps, _ := params.Fees.Bps("platform"); bps != 200 {
		t.Fatalf("unexpected platform bps %d", bps)
	}
	if params.Fees.Residual != "stakers" {
		t.Fatalf("unexpected residual %q", params.Fees.Residual)
	}
	if params.Bonus.InitialCountdown != time.Hour || params.Bonus.Extension != 5*time.Minute {
		t.Fatalf("unexpected bonus params %+v", params.Bonus)
	}
	if params.Bonus.QualifyingAmount != 5000 || params.MinContribution != 1000 {
		t.Fatalf("unexpected limits %+v", params)
	}
	if params.Referral.Period != 7*24*time.Hour {
		t.Fatalf("unexpected referral period %s", params.Referral.Period)
	}
	if cfg.Server.ListenAddress != ":8090" {
		t.Fatalf("defaults should fill unset sections, got %q", cfg.Server.ListenAddress)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "stakepool.yaml", `data_dir: ./data
protocol:
  authority: "`+testAuthority+`"
  platform: "`+testPlatform+`"
  team: "`+testTeam+`"
  paused: true
bonus:
  inactivity: 2h
server:
  listen: 127.0.0.1:9000
  rate_limit_per_second: 5
  burst: 10
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.Protocol.Paused {
		t.Fatalf("expected paused")
	}
	if cfg.Bonus.Inactivity.Duration != 2*time.Hour || cfg.Bonus.InitialCountdown.Duration != 12*time.Hour {
		t.Fatalf("unexpected bonus config %+v", cfg.Bonus)
	}
	if len(cfg.Fees.Weights) != 5 {
		t.Fatalf("missing fee table should fall back to defaults, got %v", cfg.Fees)
	}
	if cfg.Server.ListenAddress != "127.0.0.1:9000" || cfg.Server.Burst != 10 {
		t.Fatalf("unexpected server config %+v", cfg.Server)
	}
}

func TestValidateRejects(t *testing.T) {
	base := func() *Config {
		cfg := Default()
		cfg.Protocol = ProtocolConfig{Authority: testAuthority, Platform: testPlatform, Team: testTeam}
		return cfg
	}
	if err := base().Validate(); err != nil {
		t.Fatalf("base config should validate: %v", err)
	}

	cases := map[string]func(*Config){
		"zero address":    func(c *Config) { c.Protocol.Team = "0x0000000000000000000000000000000000000000" },
		"bad address":     func(c *Config) { c.Protocol.Platform = "nope" },
		"fees over 100%":  func(c *Config) { c.Fees.Weights[0].Bps = 10_000 },
		"unknown fee":     func(c *Config) { c.Fees.Weights = append(c.Fees.Weights, fees.Weight{Name: "treasury", Bps: 10}) },
		"zero minimum":    func(c *Config) { c.Limits.MinContribution = 0 },
		"zero extension":  func(c *Config) { c.Bonus.Extension = NewDuration(0) },
		"negative burst":  func(c *Config) { c.Server.Burst = -1 },
		"negative period": func(c *Config) { c.Referral.Period = NewDuration(-time.Hour) },
	}
	for name, mutate := range cases {
		cfg := base()
		mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestUnknownTOMLKeyRejected(t *testing.T) {
	path := writeFile(t, "stakepool.toml", `Bogus = 1
[Protocol]
Authority = "`+testAuthority+`"
Platform = "`+testPlatform+`"
Team = "`+testTeam+`"
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "unknown key") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestPersistedConfigRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stakepool.toml")
	cfg := Default()
	cfg.Protocol = ProtocolConfig{Authority: testAuthority, Platform: testPlatform, Team: testTeam}
	cfg.Fees = fees.ScheduleFromMap(map[string]uint64{"stakers": 650, "platform": 150, "bonus": 100, "referral": 50, "team": 50})
	if err := persist(path, cfg); err != nil {
		t.Fatalf("persist: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load persisted config: %v", err)
	}
	if bps, _ := loaded.Fees.Bps(fees.ComponentPlatform); bps != 150 {
		t.Fatalf("platform weight lost in round trip: %+v", loaded.Fees)
	}
	if loaded.Fees.Residual != fees.ComponentStakers || loaded.Fees.Weights[0].Name != fees.ComponentStakers {
		t.Fatalf("schedule order lost: %+v", loaded.Fees)
	}
}

func TestLoadYAMLFeeTable(t *testing.T) {
	path := writeFile(t, "stakepool.yml", `protocol:
  authority: "`+testAuthority+`"
  platform: "`+testPlatform+`"
  team: "`+testTeam+`"
fees:
  stakers: 800
  platform: 50
  bonus: 100
  referral: 25
  team: 25
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	params, err := cfg.StakepoolParams()
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	if bps, _ := params.Fees.Bps(fees.ComponentStakers); bps != 800 {
		t.Fatalf("stakers weight: got %d", bps)
	}
}
