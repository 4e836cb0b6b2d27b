// Package actionpoint implements the Actionpoint evaluator (A): composes
// the RPN evaluator over one actionpoint's program, maintains the per-AP
// state machine and counters, emits events, and requests RTS execution
// when the consecutive-fail threshold is crossed, per spec §4.4.
//
// The rate-limited, diff-triggered emission shape — only act when a
// counter crosses a configured threshold, track a per-entity suppression
// window so repeat crossings don't flood the collaborator — is grounded
// on internal/writer/status_writer.go's needFull/diff-against-last
// write discipline, generalized here from "write changed register slots"
// to "emit a failure event / RTS request only on a genuine threshold
// crossing".
package actionpoint

import (
	"github.com/flightsw/limitchecker/internal/appstate"
	"github.com/flightsw/limitchecker/internal/events"
	"github.com/flightsw/limitchecker/internal/lcerr"
	"github.com/flightsw/limitchecker/internal/rpn"
	"github.com/flightsw/limitchecker/internal/watchpoint"
)

// State is the per-AP state machine domain (spec §4.4).
type State uint8

const (
	NotUsed State = iota
	Disabled
	Passive
	Active
	PermOff
)

// Result is the per-AP evaluation outcome.
type Result uint8

const (
	Stale Result = iota
	Pass
	Fail
	Error
)

// ALL is the sentinel index meaning "every actionpoint" for SampleRange,
// matching ALL_ACTIONPOINTS in spec §4.4. The command handler uses its own
// wire sentinel (command.ALL).
const ALL = -1

// Definition is one ADT entry (immutable after table load).
type Definition struct {
	DefaultState      State
	MaxPassiveEvents  uint32
	MaxPassFailEvents uint32
	MaxFailPassEvents uint32
	RTSId             uint16
	MaxFailsBeforeRTS uint32
	RPNEquation       []rpn.Token
	EventType         events.Severity
	EventID           uint16
	EventText         string
}

// ResultEntry is one ART entry (mutable), plus the rate-limit windows
// needed to implement §4.4 step 4's event suppression.
type ResultEntry struct {
	ActionResult Result
	CurrentState State

	PassiveAPCount          uint32
	FailToPassCount         uint32
	PassToFailCount         uint32
	ConsecutiveFailCount    uint32
	CumulativeFailCount     uint32
	CumulativeRTSExecCount  uint32
	CumulativeEventMsgsSent uint32

	passFailEventsSent uint32
	passiveEventsSent  uint32
	failPassEventsSent uint32
}

// RTSRequester requests execution of a stored command sequence.
type RTSRequester interface {
	RequestRTS(rtsID uint16) error
}

// EventEmitter reports a classified event.
type EventEmitter interface {
	Emit(eventID uint16, severity events.Severity, text string)
}

// Table owns the ADT/ART pair for all actionpoints and implements
// SampleRange per spec §4.4.
type Table struct {
	Defs    []Definition
	Results []ResultEntry

	Watchpoints *watchpoint.Table
	RTS         RTSRequester
	Events      EventEmitter
	App         *appstate.State
}

// NewTable builds a Table sized for n actionpoints, all initialized to
// their configured DefaultState and ActionResult STALE.
func NewTable(defs []Definition, wp *watchpoint.Table, rtsExec RTSRequester, ev EventEmitter, app *appstate.State) *Table {
	results := make([]ResultEntry, len(defs))
	for i := range defs {
		results[i].CurrentState = defs[i].DefaultState
		results[i].ActionResult = Stale
	}
	return &Table{
		Defs:        defs,
		Results:     results,
		Watchpoints: wp,
		RTS:         rtsExec,
		Events:      ev,
		App:         app,
	}
}

func saturatingAdd1(n uint32) uint32 {
	if n == ^uint32(0) {
		return n
	}
	return n + 1
}

// SampleRange evaluates every actionpoint in [first, last] (inclusive),
// per spec §4.4's sample command. Pass ALL for both first and last to
// cover every entry.
func (t *Table) SampleRange(first, last int) error {
	if first == ALL && last == ALL {
		first, last = 0, len(t.Defs)-1
	}
	if first < 0 || last < first || last >= len(t.Defs) {
		return lcerr.New(lcerr.InvalidIndex, "actionpoint sample range out of bounds")
	}

	for i := first; i <= last; i++ {
		t.sampleOne(i)
	}
	return nil
}

func (t *Table) sampleOne(i int) {
	def := &t.Defs[i]
	res := &t.Results[i]

	if res.CurrentState == NotUsed || res.CurrentState == Disabled || res.CurrentState == PermOff {
		return
	}
	if t.App != nil && t.App.CurrentLCState == appstate.Disabled {
		return
	}

	outcome := rpn.Evaluate(def.RPNEquation, t.wpAtom())

	var newResult Result
	switch outcome {
	case rpn.Pass:
		newResult = Pass
	case rpn.Fail:
		newResult = Fail
	case rpn.Stale:
		newResult = Stale
	default:
		newResult = Error
	}

	prev := res.ActionResult
	res.ActionResult = newResult

	switch newResult {
	case Fail:
		res.CumulativeFailCount = saturatingAdd1(res.CumulativeFailCount)
		if prev == Pass || prev == Stale {
			res.PassToFailCount = saturatingAdd1(res.PassToFailCount)
			res.ConsecutiveFailCount = 1
			res.passFailEventsSent = 0
			res.passiveEventsSent = 0
		} else {
			res.ConsecutiveFailCount = saturatingAdd1(res.ConsecutiveFailCount)
		}
		t.checkTrigger(i, def, res)

	case Pass:
		if prev == Fail {
			res.FailToPassCount = saturatingAdd1(res.FailToPassCount)
			res.failPassEventsSent = 0
			t.emitIfUnderLimit(def, &res.failPassEventsSent, def.MaxFailPassEvents, res,
				"actionpoint recovered to PASS")
		}
		res.ConsecutiveFailCount = 0
	}

	t.App.BumpAPSampleCount()
}

// checkTrigger implements §4.4 step 4: on the exact consecutive-fail
// crossing, emit a rate-limited event and, depending on LC/AP state,
// either request RTS or account for passive suppression.
func (t *Table) checkTrigger(i int, def *Definition, res *ResultEntry) {
	if res.ConsecutiveFailCount != def.MaxFailsBeforeRTS {
		return
	}

	t.emitIfUnderLimit(def, &res.passFailEventsSent, def.MaxPassFailEvents, res, def.EventText)

	lcActive := t.App == nil || t.App.CurrentLCState == appstate.Active
	if lcActive && res.CurrentState == Active {
		if t.RTS != nil {
			_ = t.RTS.RequestRTS(def.RTSId)
		}
		res.CumulativeRTSExecCount = saturatingAdd1(res.CumulativeRTSExecCount)
		if t.App != nil {
			t.App.BumpRTSExecCount()
		}
		return
	}

	if t.App != nil && t.App.CurrentLCState == appstate.Passive || res.CurrentState == Passive {
		res.PassiveAPCount = saturatingAdd1(res.PassiveAPCount)
		if res.passiveEventsSent < def.MaxPassiveEvents || def.MaxPassiveEvents == 0 {
			res.passiveEventsSent++
			if t.App != nil {
				t.App.BumpPassiveRTSExecCount()
			}
		}
	}
}

// emitIfUnderLimit sends an event through the Events collaborator unless
// the per-window limit has already been reached. limit == 0 means
// unlimited. CumulativeEventMsgsSent is bumped only for events actually
// sent, per the Open Question (ii) resolution: suppressed crossings do
// not inflate the sent-count.
func (t *Table) emitIfUnderLimit(def *Definition, window *uint32, limit uint32, res *ResultEntry, text string) {
	if limit != 0 && *window >= limit {
		return
	}
	*window++
	res.CumulativeEventMsgsSent = saturatingAdd1(res.CumulativeEventMsgsSent)
	if t.Events != nil {
		t.Events.Emit(def.EventID, def.EventType, text)
	}
}

// wpAtom adapts the watchpoint table into an rpn.AtomSource.
func (t *Table) wpAtom() rpn.AtomSource {
	return func(wpIndex int) (rpn.Tri, bool) {
		if t.Watchpoints == nil || wpIndex < 0 || wpIndex >= len(t.Watchpoints.Results) {
			return rpn.Bot, true
		}
		switch t.Watchpoints.Results[wpIndex].WatchResult {
		case watchpoint.True:
			return rpn.True, false
		case watchpoint.False:
			return rpn.False, false
		case watchpoint.Stale:
			return rpn.Bot, false
		default: // watchpoint.Error
			return rpn.Bot, true
		}
	}
}

// SetState implements the non-sticky AP state transition path used by
// SET_AP_STATE: DISABLED/PASSIVE/ACTIVE are freely
// reachable from each other; NOT_USED and PERMOFF reject any command
// transition (spec §4.4, §4.7).
func (t *Table) SetState(i int, newState State) error {
	if i < 0 || i >= len(t.Defs) {
		return lcerr.New(lcerr.InvalidIndex, "actionpoint index out of range")
	}
	if newState != Active && newState != Passive && newState != Disabled {
		return lcerr.New(lcerr.InvalidEnum, "target AP state must be ACTIVE, PASSIVE, or DISABLED")
	}
	cur := t.Results[i].CurrentState
	if cur == NotUsed || cur == PermOff {
		return lcerr.New(lcerr.InvalidStateTransition, "actionpoint is NOT_USED or PERMOFF")
	}
	t.Results[i].CurrentState = newState
	return nil
}

// SetPermOff moves i from DISABLED to PERMOFF. ap=ALL is rejected by the
// caller (command handler) before this is reached, per spec §4.7.
func (t *Table) SetPermOff(i int) error {
	if i < 0 || i >= len(t.Defs) {
		return lcerr.New(lcerr.InvalidIndex, "actionpoint index out of range")
	}
	if t.Results[i].CurrentState != Disabled {
		return lcerr.New(lcerr.InvalidStateTransition, "SetAPPermOff requires current state DISABLED")
	}
	t.Results[i].CurrentState = PermOff
	return nil
}

// ResetStats zeroes i's counters without touching ActionResult or
// CurrentState, per spec §4.7's RESET_AP_STATS contract.
func (t *Table) ResetStats(i int) error {
	if i < 0 || i >= len(t.Defs) {
		return lcerr.New(lcerr.InvalidIndex, "actionpoint index out of range")
	}
	r := &t.Results[i]
	r.PassiveAPCount = 0
	r.FailToPassCount = 0
	r.PassToFailCount = 0
	r.ConsecutiveFailCount = 0
	r.CumulativeFailCount = 0
	r.CumulativeRTSExecCount = 0
	r.CumulativeEventMsgsSent = 0
	r.passFailEventsSent = 0
	r.passiveEventsSent = 0
	r.failPassEventsSent = 0
	return nil
}
