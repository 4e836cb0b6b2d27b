// Package watchpoint implements the Watchpoint evaluator (W): decoding a
// typed field from a message payload via fieldreader, comparing it to a
// constant (or a registered custom predicate), and updating the mutable
// watchpoint-results table per spec §4.2.
//
// The evaluator's change-tracking shape — compare the new sample against
// the last recorded result, update transition counters only when the
// result actually changes, and age the result toward staleness on each
// sample cycle that requests aging — is grounded on the teacher's
// internal/writer/status_writer.go, which applies the same "diff against
// last, act only on change" discipline to a device status block.
package watchpoint

import (
	"github.com/flightsw/limitchecker/internal/fieldreader"
	"github.com/flightsw/limitchecker/internal/lcerr"
	"github.com/flightsw/limitchecker/internal/scalar"
)

// Result is the ternary (plus ERROR) outcome of a watchpoint evaluation.
type Result uint8

const (
	Stale Result = iota
	False
	True
	Error
)

// CustomPredicate evaluates OperatorID = CUSTOM watchpoints. The boolean
// return maps to True/False; a non-nil error maps to Error.
type CustomPredicate func(value scalar.Value, customArg uint32) (bool, error)

// Definition is one WDT entry (immutable after table load).
type Definition struct {
	DataType           scalar.DataType
	Operator           scalar.Operator
	MessageID          uint32
	Offset             uint32
	BitMask            uint32
	ComparisonValue    scalar.Value
	ResultAgeWhenStale uint32
	CustomArg          uint32
	Custom             CustomPredicate
}

// Transition records a FALSE<->TRUE edge: the triggering value, its type,
// and a timestamp (seconds, subseconds).
type Transition struct {
	Value         scalar.Value
	SecondsTime   uint32
	SubsecondTime uint32
}

// ResultEntry is one WRT entry (mutable).
type ResultEntry struct {
	WatchResult          Result
	CountdownToStale     uint32
	EvaluationCount      uint32
	FalseToTrueCount     uint32
	ConsecutiveTrueCount uint32
	CumulativeTrueCount  uint32
	LastFalseToTrue      Transition
	LastTrueToFalse      Transition
}

// saturatingAdd1 increments n by 1 without wrapping past the uint32 max.
func saturatingAdd1(n uint32) uint32 {
	if n == ^uint32(0) {
		return n
	}
	return n + 1
}

// Clock supplies the timestamp recorded on a FALSE<->TRUE transition.
type Clock interface {
	Now() (seconds, subseconds uint32)
}

// Table owns the WDT/WRT pair for all watchpoints and implements
// Evaluate per spec §4.2.
type Table struct {
	Defs    []Definition
	Results []ResultEntry
	Clock   Clock
}

// NewTable builds a Table sized for n watchpoints, all initialized to
// STALE per spec §3's cold-start lifecycle.
func NewTable(defs []Definition, clock Clock) *Table {
	return &Table{
		Defs:    defs,
		Results: make([]ResultEntry, len(defs)),
		Clock:   clock,
	}
}

// Evaluate runs watchpoint wpID against msg, per spec §4.2.
func (t *Table) Evaluate(wpID int, msg []byte) error {
	if wpID < 0 || wpID >= len(t.Defs) {
		return lcerr.New(lcerr.InvalidIndex, "watchpoint index out of range")
	}
	def := &t.Defs[wpID]
	res := &t.Results[wpID]

	value, err := fieldreader.Read(msg, def.Offset, def.DataType)
	if err != nil {
		res.WatchResult = Error
		res.CountdownToStale = 0
		return nil
	}

	value = value.Mask(def.BitMask)

	var newResult Result
	if def.Operator == scalar.OpCustom {
		ok, perr := def.Custom(value, def.CustomArg)
		switch {
		case perr != nil:
			newResult = Error
		case ok:
			newResult = True
		default:
			newResult = False
		}
	} else {
		ok, notOrdered := scalar.Compare(value, def.Operator, def.ComparisonValue)
		switch {
		case notOrdered:
			newResult = Error
		case ok:
			newResult = True
		default:
			newResult = False
		}
	}

	if newResult == Error {
		res.WatchResult = Error
		res.CountdownToStale = 0
		return nil
	}

	res.EvaluationCount = saturatingAdd1(res.EvaluationCount)

	if newResult == True {
		res.CumulativeTrueCount = saturatingAdd1(res.CumulativeTrueCount)
		if res.WatchResult == False || res.WatchResult == Stale {
			res.FalseToTrueCount = saturatingAdd1(res.FalseToTrueCount)
			res.LastFalseToTrue = t.transitionAt(value)
			res.ConsecutiveTrueCount = 1
		} else {
			res.ConsecutiveTrueCount = saturatingAdd1(res.ConsecutiveTrueCount)
		}
	} else { // False
		if res.WatchResult == True {
			res.LastTrueToFalse = t.transitionAt(value)
		}
		res.ConsecutiveTrueCount = 0
	}

	res.WatchResult = newResult
	res.CountdownToStale = def.ResultAgeWhenStale

	return nil
}

func (t *Table) transitionAt(v scalar.Value) Transition {
	var sec, sub uint32
	if t.Clock != nil {
		sec, sub = t.Clock.Now()
	}
	return Transition{Value: v, SecondsTime: sec, SubsecondTime: sub}
}

// ResetStats zeroes wpID's counters without touching WatchResult or
// CountdownToStale, per spec §4.7's RESET_WP_STATS contract.
func (t *Table) ResetStats(wpID int) error {
	if wpID < 0 || wpID >= len(t.Defs) {
		return lcerr.New(lcerr.InvalidIndex, "watchpoint index out of range")
	}
	r := &t.Results[wpID]
	r.EvaluationCount = 0
	r.FalseToTrueCount = 0
	r.ConsecutiveTrueCount = 0
	r.CumulativeTrueCount = 0
	return nil
}

// AgeOne decrements CountdownToStale for every entry still counting down,
// folding it to STALE when it reaches zero. Invoked by the AP sample
// command when UpdateAge is non-zero, per spec §4.4.
func (t *Table) AgeOne() {
	for i := range t.Results {
		r := &t.Results[i]
		if r.CountdownToStale == 0 {
			continue
		}
		r.CountdownToStale--
		if r.CountdownToStale == 0 {
			r.WatchResult = Stale
		}
	}
}
