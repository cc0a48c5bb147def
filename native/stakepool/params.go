package stakepool

import (
	"fmt"

	stakeerr "stakepool/core/errors"
	"stakepool/native/bonus"
	"stakepool/native/fees"
	"stakepool/native/referral"
)

// Shipped minimums, in base units.
const (
	DefaultMinContribution uint64 = 10_000_000
	DefaultMinWithdrawal   uint64 = 10_000_000
)

// Params bundles the configuration constants consulted by every operation.
type Params struct {
	Fees            fees.Schedule
	MinContribution uint64
	MinWithdrawal   uint64
	Bonus           bonus.Params
	Referral        referral.Params
}

// DefaultParams returns the shipped configuration.
func DefaultParams() Params {
	return Params{
		Fees:            fees.DefaultSchedule(),
		MinContribution: DefaultMinContribution,
		MinWithdrawal:   DefaultMinWithdrawal,
		Bonus:           bonus.DefaultParams(),
		Referral:        referral.DefaultParams(),
	}
}

var routable = map[string]struct{}{
	fees.ComponentStakers:  {},
	fees.ComponentPlatform: {},
	fees.ComponentBonus:    {},
	fees.ComponentReferral: {},
	fees.ComponentTeam:     {},
}

// Validate rejects parameters the engine cannot honour.
func (p Params) Validate() error {
	if err := p.Fees.Validate(); err != nil {
		return err
	}
	for _, w := range p.Fees.Weights {
		if _, ok := routable[w.Name]; !ok {
			return fmt.Errorf("%w: component %q has no destination", stakeerr.ErrInvalidSchedule, w.Name)
		}
	}
	if p.MinContribution == 0 {
		return fmt.Errorf("stakepool: minimum contribution must be positive")
	}
	if p.MinWithdrawal == 0 {
		return fmt.Errorf("stakepool: minimum withdrawal must be positive")
	}
	if err := p.Bonus.Validate(); err != nil {
		return err
	}
	return p.Referral.Validate()
}
