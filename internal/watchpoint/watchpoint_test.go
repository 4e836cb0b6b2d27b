package watchpoint

import (
	"testing"

	"github.com/flightsw/limitchecker/internal/scalar"
)

type fixedClock struct{ sec, sub uint32 }

func (c fixedClock) Now() (uint32, uint32) { return c.sec, c.sub }

func newDef(op scalar.Operator, cmp uint32) Definition {
	return Definition{
		DataType:           scalar.U16BE,
		Operator:           op,
		Offset:             0,
		BitMask:            0xFFFFFFFF,
		ComparisonValue:    scalar.FromUint(scalar.U16BE, cmp),
		ResultAgeWhenStale: 3,
	}
}

func TestEvaluate_FalseToTrueTransition(t *testing.T) {
	tbl := NewTable([]Definition{newDef(scalar.OpGreater, 100)}, fixedClock{sec: 42})

	if err := tbl.Evaluate(0, []byte{0x00, 0x32}); err != nil { // 50, not > 100
		t.Fatalf("Evaluate err=%v", err)
	}
	if tbl.Results[0].WatchResult != False {
		t.Fatalf("expected False, got %v", tbl.Results[0].WatchResult)
	}

	if err := tbl.Evaluate(0, []byte{0x00, 0x96}); err != nil { // 150 > 100
		t.Fatalf("Evaluate err=%v", err)
	}
	r := tbl.Results[0]
	if r.WatchResult != True {
		t.Fatalf("expected True, got %v", r.WatchResult)
	}
	if r.FalseToTrueCount != 1 {
		t.Fatalf("expected FalseToTrueCount=1, got %d", r.FalseToTrueCount)
	}
	if r.LastFalseToTrue.SecondsTime != 42 {
		t.Fatalf("expected transition timestamp 42, got %d", r.LastFalseToTrue.SecondsTime)
	}
	if r.ConsecutiveTrueCount != 1 || r.CumulativeTrueCount != 1 {
		t.Fatalf("unexpected counters: %+v", r)
	}
}

func TestEvaluate_StaleAfterAging(t *testing.T) {
	tbl := NewTable([]Definition{newDef(scalar.OpEqual, 7)}, nil)
	if err := tbl.Evaluate(0, []byte{0x00, 0x07}); err != nil {
		t.Fatalf("Evaluate err=%v", err)
	}
	if tbl.Results[0].CountdownToStale != 3 {
		t.Fatalf("expected countdown 3, got %d", tbl.Results[0].CountdownToStale)
	}
	tbl.AgeOne()
	tbl.AgeOne()
	if tbl.Results[0].WatchResult == Stale {
		t.Fatalf("should not be stale yet")
	}
	tbl.AgeOne()
	if tbl.Results[0].WatchResult != Stale {
		t.Fatalf("expected Stale after aging to zero, got %v", tbl.Results[0].WatchResult)
	}
}

func TestEvaluate_FieldReadFaultYieldsError(t *testing.T) {
	tbl := NewTable([]Definition{newDef(scalar.OpEqual, 1)}, nil)
	if err := tbl.Evaluate(0, []byte{0x00}); err != nil { // too short for U16BE
		t.Fatalf("Evaluate should not itself error: %v", err)
	}
	if tbl.Results[0].WatchResult != Error {
		t.Fatalf("expected Error result, got %v", tbl.Results[0].WatchResult)
	}
}

func TestEvaluate_CustomPredicate(t *testing.T) {
	def := newDef(scalar.OpCustom, 0)
	def.Custom = func(v scalar.Value, arg uint32) (bool, error) {
		return v.AsUint32()%2 == 0, nil
	}
	tbl := NewTable([]Definition{def}, nil)
	if err := tbl.Evaluate(0, []byte{0x00, 0x04}); err != nil {
		t.Fatalf("Evaluate err=%v", err)
	}
	if tbl.Results[0].WatchResult != True {
		t.Fatalf("expected True for even value, got %v", tbl.Results[0].WatchResult)
	}
}

func TestEvaluate_InvalidIndex(t *testing.T) {
	tbl := NewTable([]Definition{newDef(scalar.OpEqual, 0)}, nil)
	if err := tbl.Evaluate(5, []byte{0x00, 0x00}); err == nil {
		t.Fatalf("expected out-of-range error")
	}
}
