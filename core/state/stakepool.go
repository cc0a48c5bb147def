package state

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	stakeerr "stakepool/core/errors"
	"stakepool/core/rewards"
	"stakepool/native/bonus"
	"stakepool/native/referral"
	"stakepool/native/stakepool"
)

// RLP has no signed integers, so timestamps are stored as uint64 and wide
// values as big.Int.

type globalsRecord struct {
	Authority     common.Address
	Platform      common.Address
	Team          common.Address
	InitializedAt uint64
}

type poolRecord struct {
	TotalStaked    uint64
	RewardPerShare *big.Int
	LastUpdateTime uint64
}

type participantRecord struct {
	Staker             common.Address
	StakedAmount       uint64
	RewardDebt         *big.Int
	StakeTimestamp     uint64
	LastClaimTimestamp uint64
	Referrer           *common.Address `rlp:"nil"`
}

type bonusEntryRecord struct {
	Contributor common.Address
	Amount      uint64
}

type bonusRecord struct {
	Balance                   uint64
	ExpiryTimestamp           uint64
	LastContributionTimestamp uint64
	Entries                   []bonusEntryRecord
	Cursor                    uint64
	Filled                    uint64
	TotalDistributed          uint64
	Rounds                    uint64
}

type referralRecord struct {
	Balance                   uint64
	LastDistributionTimestamp uint64
	NextDistributionTimestamp uint64
	TotalDistributed          uint64
}

func encodeTimestamp(ts int64) (uint64, error) {
	if ts < 0 {
		return 0, fmt.Errorf("%w: negative timestamp %d", stakeerr.ErrInvalidTimestamp, ts)
	}
	return uint64(ts), nil
}

func decodeTimestamp(ts uint64) (int64, error) {
	if ts > 1<<63-1 {
		return 0, fmt.Errorf("%w: timestamp %d out of range", stakeerr.ErrInvalidTimestamp, ts)
	}
	return int64(ts), nil
}

func encodeWide(v *uint256.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v.ToBig()
}

func decodeWide(v *big.Int) (*uint256.Int, error) {
	if v == nil {
		return new(uint256.Int), nil
	}
	out, overflow := uint256.FromBig(v)
	if overflow || v.Sign() < 0 {
		return nil, fmt.Errorf("%w: stored value %s", stakeerr.ErrOverflow, v)
	}
	return out, nil
}

// StakepoolGlobals implements the stakepool engine state.
func (s *Session) StakepoolGlobals() (*stakepool.Globals, bool, error) {
	var rec globalsRecord
	ok, err := s.KVGet(stakepoolGlobalsKey, &rec)
	if err != nil || !ok {
		return nil, false, err
	}
	initialized, err := decodeTimestamp(rec.InitializedAt)
	if err != nil {
		return nil, false, err
	}
	return &stakepool.Globals{
		Authority:     rec.Authority,
		Platform:      rec.Platform,
		Team:          rec.Team,
		InitializedAt: initialized,
	}, true, nil
}

func (s *Session) StakepoolGlobalsPut(globals *stakepool.Globals) error {
	if globals == nil {
		return fmt.Errorf("state: nil globals")
	}
	initialized, err := encodeTimestamp(globals.InitializedAt)
	if err != nil {
		return err
	}
	return s.KVPut(stakepoolGlobalsKey, globalsRecord{
		Authority:     globals.Authority,
		Platform:      globals.Platform,
		Team:          globals.Team,
		InitializedAt: initialized,
	})
}

func (s *Session) StakepoolPool() (*rewards.Pool, bool, error) {
	var rec poolRecord
	ok, err := s.KVGet(stakepoolPoolKey, &rec)
	if err != nil || !ok {
		return nil, false, err
	}
	rps, err := decodeWide(rec.RewardPerShare)
	if err != nil {
		return nil, false, err
	}
	updated, err := decodeTimestamp(rec.LastUpdateTime)
	if err != nil {
		return nil, false, err
	}
	return &rewards.Pool{TotalStaked: rec.TotalStaked, RewardPerShare: rps, LastUpdateTime: updated}, true, nil
}

func (s *Session) StakepoolPoolPut(pool *rewards.Pool) error {
	if pool == nil {
		return fmt.Errorf("state: nil pool")
	}
	updated, err := encodeTimestamp(pool.LastUpdateTime)
	if err != nil {
		return err
	}
	return s.KVPut(stakepoolPoolKey, poolRecord{
		TotalStaked:    pool.TotalStaked,
		RewardPerShare: encodeWide(pool.RewardPerShare),
		LastUpdateTime: updated,
	})
}

func (s *Session) StakepoolParticipant(staker common.Address) (*rewards.Participant, bool, error) {
	var rec participantRecord
	ok, err := s.KVGet(StakepoolParticipantKey(staker), &rec)
	if err != nil || !ok {
		return nil, false, err
	}
	debt, err := decodeWide(rec.RewardDebt)
	if err != nil {
		return nil, false, err
	}
	staked, err := decodeTimestamp(rec.StakeTimestamp)
	if err != nil {
		return nil, false, err
	}
	claimed, err := decodeTimestamp(rec.LastClaimTimestamp)
	if err != nil {
		return nil, false, err
	}
	return &rewards.Participant{
		Staker:             rec.Staker,
		StakedAmount:       rec.StakedAmount,
		RewardDebt:         debt,
		StakeTimestamp:     staked,
		LastClaimTimestamp: claimed,
		Referrer:           rec.Referrer,
	}, true, nil
}

// StakepoolParticipantPut stores the record and indexes new stakers.
func (s *Session) StakepoolParticipantPut(participant *rewards.Participant) error {
	if participant == nil {
		return fmt.Errorf("state: nil participant")
	}
	staked, err := encodeTimestamp(participant.StakeTimestamp)
	if err != nil {
		return err
	}
	claimed, err := encodeTimestamp(participant.LastClaimTimestamp)
	if err != nil {
		return err
	}
	rec := participantRecord{
		Staker:             participant.Staker,
		StakedAmount:       participant.StakedAmount,
		RewardDebt:         encodeWide(participant.RewardDebt),
		StakeTimestamp:     staked,
		LastClaimTimestamp: claimed,
	}
	if participant.Referrer != nil {
		ref := *participant.Referrer
		rec.Referrer = &ref
	}
	if err := s.KVPut(StakepoolParticipantKey(participant.Staker), rec); err != nil {
		return err
	}
	return s.KVAppend(stakepoolParticipantsKey, participant.Staker.Bytes())
}

// StakepoolParticipants lists every staker that ever contributed, in first
// contribution order.
func (s *Session) StakepoolParticipants() ([]common.Address, error) {
	var raw [][]byte
	if err := s.KVGetList(stakepoolParticipantsKey, &raw); err != nil {
		return nil, err
	}
	out := make([]common.Address, 0, len(raw))
	for _, b := range raw {
		out = append(out, common.BytesToAddress(b))
	}
	return out, nil
}

func (s *Session) StakepoolBonus() (*bonus.Pool, bool, error) {
	var rec bonusRecord
	ok, err := s.KVGet(stakepoolBonusKey, &rec)
	if err != nil || !ok {
		return nil, false, err
	}
	if len(rec.Entries) > bonus.Capacity || rec.Cursor >= bonus.Capacity || rec.Filled > bonus.Capacity {
		return nil, false, fmt.Errorf("state: corrupt bonus buffer")
	}
	expiry, err := decodeTimestamp(rec.ExpiryTimestamp)
	if err != nil {
		return nil, false, err
	}
	last, err := decodeTimestamp(rec.LastContributionTimestamp)
	if err != nil {
		return nil, false, err
	}
	pool := &bonus.Pool{
		Balance:                   rec.Balance,
		ExpiryTimestamp:           expiry,
		LastContributionTimestamp: last,
		TotalDistributed:          rec.TotalDistributed,
		Rounds:                    rec.Rounds,
	}
	for i, entry := range rec.Entries {
		pool.Recent.Entries[i] = bonus.Entry{Contributor: entry.Contributor, Amount: entry.Amount}
	}
	pool.Recent.Cursor = uint8(rec.Cursor)
	pool.Recent.Filled = uint8(rec.Filled)
	return pool, true, nil
}

func (s *Session) StakepoolBonusPut(pool *bonus.Pool) error {
	if pool == nil {
		return fmt.Errorf("state: nil bonus pool")
	}
	expiry, err := encodeTimestamp(pool.ExpiryTimestamp)
	if err != nil {
		return err
	}
	last, err := encodeTimestamp(pool.LastContributionTimestamp)
	if err != nil {
		return err
	}
	rec := bonusRecord{
		Balance:                   pool.Balance,
		ExpiryTimestamp:           expiry,
		LastContributionTimestamp: last,
		Entries:                   make([]bonusEntryRecord, bonus.Capacity),
		Cursor:                    uint64(pool.Recent.Cursor),
		Filled:                    uint64(pool.Recent.Filled),
		TotalDistributed:          pool.TotalDistributed,
		Rounds:                    pool.Rounds,
	}
	for i, entry := range pool.Recent.Entries {
		rec.Entries[i] = bonusEntryRecord{Contributor: entry.Contributor, Amount: entry.Amount}
	}
	return s.KVPut(stakepoolBonusKey, rec)
}

func (s *Session) StakepoolReferral() (*referral.Pool, bool, error) {
	var rec referralRecord
	ok, err := s.KVGet(stakepoolReferralKey, &rec)
	if err != nil || !ok {
		return nil, false, err
	}
	last, err := decodeTimestamp(rec.LastDistributionTimestamp)
	if err != nil {
		return nil, false, err
	}
	next, err := decodeTimestamp(rec.NextDistributionTimestamp)
	if err != nil {
		return nil, false, err
	}
	return &referral.Pool{
		Balance:                   rec.Balance,
		LastDistributionTimestamp: last,
		NextDistributionTimestamp: next,
		TotalDistributed:          rec.TotalDistributed,
	}, true, nil
}

func (s *Session) StakepoolReferralPut(pool *referral.Pool) error {
	if pool == nil {
		return fmt.Errorf("state: nil referral pool")
	}
	last, err := encodeTimestamp(pool.LastDistributionTimestamp)
	if err != nil {
		return err
	}
	next, err := encodeTimestamp(pool.NextDistributionTimestamp)
	if err != nil {
		return err
	}
	return s.KVPut(stakepoolReferralKey, referralRecord{
		Balance:                   pool.Balance,
		LastDistributionTimestamp: last,
		NextDistributionTimestamp: next,
		TotalDistributed:          pool.TotalDistributed,
	})
}
