package events

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"stakepool/core/types"
)

const (
	// TypeStakepoolInitialized is emitted once when the protocol is set up.
	TypeStakepoolInitialized = "stakepool.initialized"
	// TypeStakepoolStaked is emitted for every accepted contribution.
	TypeStakepoolStaked = "stakepool.staked"
	// TypeStakepoolUnstaked is emitted for every accepted withdrawal.
	TypeStakepoolUnstaked = "stakepool.unstaked"
	// TypeStakepoolRewardsClaimed is emitted when pending rewards are paid out.
	TypeStakepoolRewardsClaimed = "stakepool.rewardsClaimed"
	// TypeStakepoolBonusExtended is emitted when a qualifying contribution
	// pushes the bonus countdown out.
	TypeStakepoolBonusExtended = "stakepool.bonusExtended"
	// TypeStakepoolContributorRecorded is emitted when a contributor enters the
	// bonus buffer.
	TypeStakepoolContributorRecorded = "stakepool.contributorRecorded"
	TypeStakepoolBonusDistributed    = "stakepool.bonusDistributed"
	TypeStakepoolReferralDistributed = "stakepool.referralDistributed"
	// TypeStakepoolReferralPaid is emitted when a bound referrer receives the
	// referral fee directly.
	TypeStakepoolReferralPaid = "stakepool.referralPaid"
)

// StakepoolInitialized records protocol setup.
type StakepoolInitialized struct {
	Authority    common.Address
	Platform     common.Address
	Team         common.Address
	BonusExpiry  int64
	ReferralNext int64
}

// EventType satisfies the Event interface.
func (StakepoolInitialized) EventType() string { return TypeStakepoolInitialized }

// Event converts the structured payload into a broadcastable event.
func (e StakepoolInitialized) Event() *types.Event {
	return &types.Event{Type: TypeStakepoolInitialized, Attributes: map[string]string{
		"authority":    formatAddress(e.Authority),
		"platform":     formatAddress(e.Platform),
		"team":         formatAddress(e.Team),
		"bonusExpiry":  formatInt(e.BonusExpiry),
		"referralNext": formatInt(e.ReferralNext),
	}}
}

// StakepoolStaked captures the deltas of a contribution.
type StakepoolStaked struct {
	Staker         common.Address
	Referrer       *common.Address
	Gross          uint64
	Net            uint64
	TotalFee       uint64
	Harvested      uint64
	StakedAmount   uint64
	TotalStaked    uint64
	RewardPerShare *uint256.Int
}

// EventType satisfies the Event interface.
func (StakepoolStaked) EventType() string { return TypeStakepoolStaked }

// Event converts the structured payload into a broadcastable event.
func (e StakepoolStaked) Event() *types.Event {
	attrs := map[string]string{
		"staker":         formatAddress(e.Staker),
		"gross":          formatUint(e.Gross),
		"net":            formatUint(e.Net),
		"fee":            formatUint(e.TotalFee),
		"stakedAmount":   formatUint(e.StakedAmount),
		"totalStaked":    formatUint(e.TotalStaked),
		"rewardPerShare": formatWide(e.RewardPerShare),
	}
	if e.Harvested > 0 {
		attrs["harvested"] = formatUint(e.Harvested)
	}
	if e.Referrer != nil {
		attrs["referrer"] = formatAddress(*e.Referrer)
	}
	return &types.Event{Type: TypeStakepoolStaked, Attributes: attrs}
}

// StakepoolUnstaked captures the deltas of a withdrawal.
type StakepoolUnstaked struct {
	Staker         common.Address
	Gross          uint64
	Net            uint64
	TotalFee       uint64
	RewardsClaimed uint64
	StakedAmount   uint64
	TotalStaked    uint64
}

// EventType satisfies the Event interface.
func (StakepoolUnstaked) EventType() string { return TypeStakepoolUnstaked }

// Event converts the structured payload into a broadcastable event.
func (e StakepoolUnstaked) Event() *types.Event {
	return &types.Event{Type: TypeStakepoolUnstaked, Attributes: map[string]string{
		"staker":         formatAddress(e.Staker),
		"gross":          formatUint(e.Gross),
		"net":            formatUint(e.Net),
		"fee":            formatUint(e.TotalFee),
		"rewardsClaimed": formatUint(e.RewardsClaimed),
		"stakedAmount":   formatUint(e.StakedAmount),
		"totalStaked":    formatUint(e.TotalStaked),
	}}
}

// StakepoolRewardsClaimed captures a reward payout.
type StakepoolRewardsClaimed struct {
	Staker     common.Address
	Amount     uint64
	RewardDebt *uint256.Int
}

// EventType satisfies the Event interface.
func (StakepoolRewardsClaimed) EventType() string { return TypeStakepoolRewardsClaimed }

// Event converts the structured payload into a broadcastable event.
func (e StakepoolRewardsClaimed) Event() *types.Event {
	return &types.Event{Type: TypeStakepoolRewardsClaimed, Attributes: map[string]string{
		"staker":     formatAddress(e.Staker),
		"amount":     formatUint(e.Amount),
		"rewardDebt": formatWide(e.RewardDebt),
	}}
}

type StakepoolBonusExtended struct {
	Contributor common.Address
	Amount      uint64
	Expiry      int64
}

// EventType satisfies the Event interface.
func (StakepoolBonusExtended) EventType() string { return TypeStakepoolBonusExtended }

// Event converts the structured payload into a broadcastable event.
func (e StakepoolBonusExtended) Event() *types.Event {
	return &types.Event{Type: TypeStakepoolBonusExtended, Attributes: map[string]string{
		"contributor": formatAddress(e.Contributor),
		"amount":      formatUint(e.Amount),
		"expiry":      formatInt(e.Expiry),
	}}
}

type StakepoolContributorRecorded struct {
	Contributor common.Address
	Amount      uint64
	Slot        uint8
}

// EventType satisfies the Event interface.
func (StakepoolContributorRecorded) EventType() string {
	return TypeStakepoolContributorRecorded
}

// Event converts the structured payload into a broadcastable event.
func (e StakepoolContributorRecorded) Event() *types.Event {
	return &types.Event{Type: TypeStakepoolContributorRecorded, Attributes: map[string]string{
		"contributor": formatAddress(e.Contributor),
		"amount":      formatUint(e.Amount),
		"slot":        strconv.Itoa(int(e.Slot)),
	}}
}

// StakepoolBonusDistributed summarises a bonus round.
type StakepoolBonusDistributed struct {
	Trigger        string
	Balance        uint64
	ToContributors uint64
	ToStakers      uint64
	CarriedForward uint64
	Recipients     int
	NextExpiry     int64
}

// EventType satisfies the Event interface.
func (StakepoolBonusDistributed) EventType() string { return TypeStakepoolBonusDistributed }

// Event converts the structured payload into a broadcastable event.
func (e StakepoolBonusDistributed) Event() *types.Event {
	return &types.Event{Type: TypeStakepoolBonusDistributed, Attributes: map[string]string{
		"trigger":        e.Trigger,
		"balance":        formatUint(e.Balance),
		"toContributors": formatUint(e.ToContributors),
		"toStakers":      formatUint(e.ToStakers),
		"carriedForward": formatUint(e.CarriedForward),
		"recipients":     strconv.Itoa(e.Recipients),
		"nextExpiry":     formatInt(e.NextExpiry),
	}}
}

// StakepoolReferralDistributed summarises a referral release.
type StakepoolReferralDistributed struct {
	Forced           bool
	ToStakers        uint64
	CarriedForward   uint64
	NextDistribution int64
}

// EventType satisfies the Event interface.
func (StakepoolReferralDistributed) EventType() string {
	return TypeStakepoolReferralDistributed
}

// Event converts the structured payload into a broadcastable event.
func (e StakepoolReferralDistributed) Event() *types.Event {
	return &types.Event{Type: TypeStakepoolReferralDistributed, Attributes: map[string]string{
		"forced":           strconv.FormatBool(e.Forced),
		"toStakers":        formatUint(e.ToStakers),
		"carriedForward":   formatUint(e.CarriedForward),
		"nextDistribution": formatInt(e.NextDistribution),
	}}
}

type StakepoolReferralPaid struct {
	Staker   common.Address
	Referrer common.Address
	Amount   uint64
}

// EventType satisfies the Event interface.
func (StakepoolReferralPaid) EventType() string { return TypeStakepoolReferralPaid }

// Event converts the structured payload into a broadcastable event.
func (e StakepoolReferralPaid) Event() *types.Event {
	return &types.Event{Type: TypeStakepoolReferralPaid, Attributes: map[string]string{
		"staker":   formatAddress(e.Staker),
		"referrer": formatAddress(e.Referrer),
		"amount":   formatUint(e.Amount),
	}}
}
