package state

// LedgerBalance implements bank.Balances. Missing ledgers read as zero.
func (s *Session) LedgerBalance(name string) (uint64, error) {
	var amount uint64
	if _, err := s.KVGet(LedgerBalanceKey(name), &amount); err != nil {
		return 0, err
	}
	return amount, nil
}

// PutLedgerBalance implements bank.Balances and indexes the ledger name.
func (s *Session) PutLedgerBalance(name string, amount uint64) error {
	if err := s.KVPut(LedgerBalanceKey(name), amount); err != nil {
		return err
	}
	return s.KVAppend(ledgerIndexKey, []byte(name))
}

// LedgerBalances returns every ledger ever written, in first-write order.
func (s *Session) LedgerBalances() ([]string, map[string]uint64, error) {
	var names [][]byte
	if err := s.KVGetList(ledgerIndexKey, &names); err != nil {
		return nil, nil, err
	}
	ordered := make([]string, 0, len(names))
	balances := make(map[string]uint64, len(names))
	for _, raw := range names {
		name := string(raw)
		amount, err := s.LedgerBalance(name)
		if err != nil {
			return nil, nil, err
		}
		ordered = append(ordered, name)
		balances[name] = amount
	}
	return ordered, balances, nil
}
