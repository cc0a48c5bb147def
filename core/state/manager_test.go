package state

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"stakepool/core/rewards"
	"stakepool/native/bonus"
	"stakepool/native/referral"
	"stakepool/native/stakepool"
	"stakepool/storage"
)

func TestSessionCommitIsAtomic(t *testing.T) {
	db := storage.NewMemDB()
	store := NewStore(db)

	session := store.Begin()
	if err := session.KVPut([]byte("a"), uint64(7)); err != nil {
		t.Fatalf("put: %v", err)
	}
	var got uint64
	if ok, err := session.KVGet([]byte("a"), &got); err != nil || !ok || got != 7 {
		t.Fatalf("session should read its own writes: %d %v %v", got, ok, err)
	}
	if db.Len() != 0 {
		t.Fatalf("writes leaked before commit")
	}
	if err := session.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := session.KVPut([]byte("b"), uint64(1)); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expected closed session, got %v", err)
	}

	reader := store.Begin()
	if ok, err := reader.KVGet([]byte("a"), &got); err != nil || !ok || got != 7 {
		t.Fatalf("committed value missing: %d %v %v", got, ok, err)
	}
}

func TestSessionDiscard(t *testing.T) {
	db := storage.NewMemDB()
	store := NewStore(db)
	session := store.Begin()
	if err := session.PutLedgerBalance("vault", 10); err != nil {
		t.Fatalf("put: %v", err)
	}
	session.Discard()
	if db.Len() != 0 {
		t.Fatalf("discarded writes reached the database")
	}
	amount, err := store.Begin().LedgerBalance("vault")
	if err != nil || amount != 0 {
		t.Fatalf("unexpected balance %d %v", amount, err)
	}
}

func TestKVAppendDeduplicates(t *testing.T) {
	session := NewStore(storage.NewMemDB()).Begin()
	for _, v := range []string{"x", "y", "x"} {
		if err := session.KVAppend([]byte("list"), []byte(v)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	var list [][]byte
	if err := session.KVGetList([]byte("list"), &list); err != nil {
		t.Fatalf("get list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(list))
	}
	var empty [][]byte
	if err := session.KVGetList([]byte("missing"), &empty); err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("missing list should decode empty: %v %v", empty, err)
	}
}

func TestStakepoolRecordsRoundTrip(t *testing.T) {
	store := NewStore(storage.NewMemDB())
	session := store.Begin()

	referrer := common.HexToAddress("0x00000000000000000000000000000000000000c3")
	alice := common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob := common.HexToAddress("0x00000000000000000000000000000000000000b2")

	pool := &rewards.Pool{TotalStaked: 17_100_000_000, RewardPerShare: uint256.NewInt(70_000_000_000), LastUpdateTime: 1_700_000_020}
	withRef := &rewards.Participant{Staker: bob, StakedAmount: 8_100_000_000, RewardDebt: uint256.NewInt(567_000_000),
		StakeTimestamp: 1_700_000_020, LastClaimTimestamp: 1_700_000_020, Referrer: &referrer}
	noRef := rewards.NewParticipant(alice, 1_700_000_010, nil)

	bonusPool, err := bonus.New(1_700_000_000, bonus.DefaultParams())
	if err != nil {
		t.Fatalf("bonus: %v", err)
	}
	bonusPool.Balance = 890_000_000
	bonusPool.Recent.Push(bonus.Entry{Contributor: alice, Amount: 10_000_000_000})
	referralPool, err := referral.New(1_700_000_000, referral.DefaultParams())
	if err != nil {
		t.Fatalf("referral: %v", err)
	}
	referralPool.Balance = 50_000_000

	globals := &stakepool.Globals{Authority: alice, Platform: bob, Team: referrer, InitializedAt: 1_700_000_000}
	for _, step := range []error{
		session.StakepoolGlobalsPut(globals),
		session.StakepoolPoolPut(pool),
		session.StakepoolParticipantPut(noRef),
		session.StakepoolParticipantPut(withRef),
		session.StakepoolParticipantPut(withRef),
		session.StakepoolBonusPut(bonusPool),
		session.StakepoolReferralPut(referralPool),
	} {
		if step != nil {
			t.Fatalf("put: %v", step)
		}
	}
	if err := session.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	reader := store.Begin()
	gotGlobals, ok, err := reader.StakepoolGlobals()
	if err != nil || !ok || *gotGlobals != *globals {
		t.Fatalf("globals mismatch: %+v %v %v", gotGlobals, ok, err)
	}
	gotPool, _, err := reader.StakepoolPool()
	if err != nil || gotPool.TotalStaked != pool.TotalStaked || !gotPool.RewardPerShare.Eq(pool.RewardPerShare) || gotPool.LastUpdateTime != pool.LastUpdateTime {
		t.Fatalf("pool mismatch: %+v %v", gotPool, err)
	}
	gotBob, ok, err := reader.StakepoolParticipant(bob)
	if err != nil || !ok || gotBob.Referrer == nil || *gotBob.Referrer != referrer || !gotBob.RewardDebt.Eq(withRef.RewardDebt) {
		t.Fatalf("participant mismatch: %+v %v", gotBob, err)
	}
	gotAlice, _, err := reader.StakepoolParticipant(alice)
	if err != nil || gotAlice.Referrer != nil || !gotAlice.RewardDebt.IsZero() {
		t.Fatalf("participant without referrer mismatch: %+v %v", gotAlice, err)
	}
	if _, ok, err := reader.StakepoolParticipant(referrer); err != nil || ok {
		t.Fatalf("unexpected participant: %v %v", ok, err)
	}
	stakers, err := reader.StakepoolParticipants()
	if err != nil || len(stakers) != 2 || stakers[0] != alice || stakers[1] != bob {
		t.Fatalf("unexpected participant index %v %v", stakers, err)
	}
	gotBonus, _, err := reader.StakepoolBonus()
	if err != nil || *gotBonus != *bonusPool {
		t.Fatalf("bonus mismatch: %+v %v", gotBonus, err)
	}
	gotReferral, _, err := reader.StakepoolReferral()
	if err != nil || *gotReferral != *referralPool {
		t.Fatalf("referral mismatch: %+v %v", gotReferral, err)
	}
}

func TestNegativeTimestampRejected(t *testing.T) {
	session := NewStore(storage.NewMemDB()).Begin()
	if err := session.StakepoolPoolPut(rewards.NewPool(-1)); err == nil {
		t.Fatalf("expected negative timestamp to be rejected")
	}
}
