package state

import (
	"github.com/ethereum/go-ethereum/common"
)

var (
	stakepoolGlobalsKey      = []byte("stakepool/globals")
	stakepoolPoolKey         = []byte("stakepool/pool")
	stakepoolBonusKey        = []byte("stakepool/bonus")
	stakepoolReferralKey     = []byte("stakepool/referral")
	stakepoolParticipantsKey = []byte("stakepool/participants")
	ledgerIndexKey           = []byte("ledger/index")

	stakepoolParticipantPrefix = []byte("stakepool/participant/")
	ledgerBalancePrefix        = []byte("ledger/balance/")
)

// StakepoolParticipantKey returns the raw key of a participant record.
func StakepoolParticipantKey(staker common.Address) []byte {
	buf := make([]byte, len(stakepoolParticipantPrefix)+common.AddressLength)
	copy(buf, stakepoolParticipantPrefix)
	copy(buf[len(stakepoolParticipantPrefix):], staker.Bytes())
	return buf
}

// LedgerBalanceKey returns the raw key of a named ledger balance.
func LedgerBalanceKey(name string) []byte {
	buf := make([]byte, len(ledgerBalancePrefix)+len(name))
	copy(buf, ledgerBalancePrefix)
	copy(buf[len(ledgerBalancePrefix):], name)
	return buf
}
