package types

import (
	"reflect"
	"testing"
)

func TestEventPairsSorted(t *testing.T) {
	evt := &Event{Type: "stakepool.staked", Attributes: map[string]string{
		"staker": "0xa1",
		"amount": "10",
		"fee":    "1",
	}}
	want := []any{"amount", "10", "fee", "1", "staker", "0xa1"}
	if got := evt.Pairs(); !reflect.DeepEqual(got, want) {
		t.Fatalf("pairs = %v, want %v", got, want)
	}
	var empty *Event
	if got := empty.Pairs(); got != nil {
		t.Fatalf("nil event should yield no pairs, got %v", got)
	}
}
