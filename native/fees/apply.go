package fees

import (
	"fmt"
	"strings"

	stakeerr "stakepool/core/errors"
	"stakepool/core/fixedpoint"
)

// Component names used by the shipped schedule.
const (
	ComponentStakers  = "stakers"
	ComponentPlatform = "platform"
	ComponentBonus    = "bonus"
	ComponentReferral = "referral"
	ComponentTeam     = "team"
)

// Weight assigns a basis-point share of the gross amount to a named component.
type Weight struct {
	Name string `json:"name"`
	Bps  uint64 `json:"bps"`
}

// Schedule is an ordered set of weights. Residual names the component that
// absorbs floor-rounding residue so the components always add up to the
// independently computed total fee; it defaults to the first weight.
type Schedule struct {
	Weights  []Weight
	Residual string
}

// DefaultSchedule returns the shipped 10% fee: 7% stakers, 1% platform, 1%
// bonus pool, 0.5% referral, 0.5% team.
func DefaultSchedule() Schedule {
	return Schedule{
		Weights: []Weight{
			{Name: ComponentStakers, Bps: 700},
			{Name: ComponentPlatform, Bps: 100},
			{Name: ComponentBonus, Bps: 100},
			{Name: ComponentReferral, Bps: 50},
			{Name: ComponentTeam, Bps: 50},
		},
		Residual: ComponentStakers,
	}
}

// Clone returns a deep copy of the schedule.
func (s Schedule) Clone() Schedule {
	return Schedule{Weights: append([]Weight(nil), s.Weights...), Residual: s.Residual}
}

// Total returns the sum of all weights in basis points.
func (s Schedule) Total() uint64 {
	var total uint64
	for _, w := range s.Weights {
		total += w.Bps
	}
	return total
}

// Bps returns the configured weight for name.
func (s Schedule) Bps(name string) (uint64, bool) {
	normalized := NormalizeName(name)
	for _, w := range s.Weights {
		if w.Name == normalized {
			return w.Bps, true
		}
	}
	return 0, false
}

// Validate ensures the schedule is well formed.
func (s Schedule) Validate() error {
	if len(s.Weights) == 0 {
		return fmt.Errorf("%w: no weights", stakeerr.ErrInvalidSchedule)
	}
	seen := make(map[string]struct{}, len(s.Weights))
	var total uint64
	for _, w := range s.Weights {
		if w.Name == "" {
			return fmt.Errorf("%w: weight name required", stakeerr.ErrInvalidSchedule)
		}
		if _, dup := seen[w.Name]; dup {
			return fmt.Errorf("%w: duplicate weight %q", stakeerr.ErrInvalidSchedule, w.Name)
		}
		seen[w.Name] = struct{}{}
		if w.Bps > fixedpoint.BpsDenominator {
			return fmt.Errorf("%w: weight %q exceeds 100%%", stakeerr.ErrInvalidSchedule, w.Name)
		}
		total += w.Bps
	}
	if total > fixedpoint.BpsDenominator {
		return fmt.Errorf("%w: weights total %d bps", stakeerr.ErrInvalidSchedule, total)
	}
	if s.Residual != "" {
		if _, ok := seen[s.Residual]; !ok {
			return fmt.Errorf("%w: residual component %q not in schedule", stakeerr.ErrInvalidSchedule, s.Residual)
		}
	}
	return nil
}

func (s Schedule) residualIndex() int {
	for i, w := range s.Weights {
		if w.Name == s.Residual {
			return i
		}
	}
	return 0
}

// NormalizeName canonicalises component identifiers for consistent lookups.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Component is one floored share of a gross amount.
type Component struct {
	Name   string
	Bps    uint64
	Amount uint64
}

// Breakdown summarises the partition of a gross amount.
type Breakdown struct {
	Gross      uint64
	Components []Component
	TotalFee   uint64
	Net        uint64
}

// Amount returns the value assigned to the named component, or zero.
func (b Breakdown) Amount(name string) uint64 {
	normalized := NormalizeName(name)
	for _, c := range b.Components {
		if c.Name == normalized {
			return c.Amount
		}
	}
	return 0
}

func (b Breakdown) Stakers() uint64  { return b.Amount(ComponentStakers) }
func (b Breakdown) Platform() uint64 { return b.Amount(ComponentPlatform) }
func (b Breakdown) Bonus() uint64    { return b.Amount(ComponentBonus) }
func (b Breakdown) Referral() uint64 { return b.Amount(ComponentReferral) }
func (b Breakdown) Team() uint64     { return b.Amount(ComponentTeam) }

// Verify re-checks that the components add up to TotalFee and that Net and
// TotalFee add up to Gross.
func (b Breakdown) Verify() error {
	var sum uint64
	for _, c := range b.Components {
		next, err := fixedpoint.Add(sum, c.Amount)
		if err != nil {
			return err
		}
		sum = next
	}
	if sum != b.TotalFee {
		return fmt.Errorf("%w: components %d, total %d", stakeerr.ErrInvalidFeeBreakdown, sum, b.TotalFee)
	}
	whole, err := fixedpoint.Add(b.Net, b.TotalFee)
	if err != nil {
		return err
	}
	if whole != b.Gross {
		return fmt.Errorf("%w: net %d + fee %d != gross %d", stakeerr.ErrInvalidFeeBreakdown, b.Net, b.TotalFee, b.Gross)
	}
	return nil
}

// Split partitions gross by the schedule. Every component is floored
// individually; the total fee is computed independently as
// floor(gross*total/10000) and the two must agree once the floor residue
// (strictly fewer units than there are components) has been assigned to the
// residual component. Any larger divergence fails closed.
//
// Amounts small enough that every component floors to zero carry no fee.
func Split(gross uint64, schedule Schedule) (Breakdown, error) {
	if err := schedule.Validate(); err != nil {
		return Breakdown{}, err
	}
	breakdown := Breakdown{Gross: gross, Components: make([]Component, len(schedule.Weights))}
	var floored uint64
	for i, w := range schedule.Weights {
		amount, err := fixedpoint.PercentOf(gross, w.Bps)
		if err != nil {
			return Breakdown{}, err
		}
		breakdown.Components[i] = Component{Name: w.Name, Bps: w.Bps, Amount: amount}
		if floored, err = fixedpoint.Add(floored, amount); err != nil {
			return Breakdown{}, err
		}
	}

	expected, err := fixedpoint.PercentOf(gross, schedule.Total())
	if err != nil {
		return Breakdown{}, err
	}
	residue, err := fixedpoint.Sub(expected, floored)
	if err != nil {
		return Breakdown{}, fmt.Errorf("%w: components %d exceed total %d", stakeerr.ErrInvalidFeeBreakdown, floored, expected)
	}
	if residue >= uint64(len(schedule.Weights)) {
		return Breakdown{}, fmt.Errorf("%w: rounding residue %d", stakeerr.ErrInvalidFeeBreakdown, residue)
	}
	if residue > 0 {
		idx := schedule.residualIndex()
		if breakdown.Components[idx].Amount, err = fixedpoint.Add(breakdown.Components[idx].Amount, residue); err != nil {
			return Breakdown{}, err
		}
	}

	breakdown.TotalFee = expected
	if breakdown.Net, err = fixedpoint.Sub(gross, expected); err != nil {
		return Breakdown{}, err
	}
	if err := breakdown.Verify(); err != nil {
		return Breakdown{}, err
	}
	return breakdown, nil
}
