// Package command implements the Command handler (C): validates and
// applies state-changing commands delivered on CMD_MID, per spec §4.7.
//
// The "declarative validation only, must not mutate, descriptive error"
// idiom for the per-command checks is grounded on
// internal/config/validate.go; the exact ALL-vs-single-index and
// sticky-state-skip semantics for SET_AP_STATE/SET_AP_PERMOFF/
// RESET_AP_STATS are grounded on original_source/fsw/src/lc_cmds.c's
// LC_SetAPStateCmd/LC_SetAPPermOffCmd/LC_ResetResultsAP.
package command

import (
	"encoding/binary"
	"fmt"

	"github.com/flightsw/limitchecker/internal/actionpoint"
	"github.com/flightsw/limitchecker/internal/appstate"
	"github.com/flightsw/limitchecker/internal/events"
	"github.com/flightsw/limitchecker/internal/watchpoint"
)

// FunctionCode identifies a command within CMD_MID, per spec §6.
type FunctionCode uint8

const (
	Noop FunctionCode = iota
	Reset
	SetLCState
	SetAPState
	SetAPPermOff
	ResetAPStats
	ResetWPStats
)

// ALL is the heritage "apply to every actionpoint/watchpoint" sentinel.
const ALL = 0xFFFF

const version = "1.0.0"

// Event IDs for command-path reporting.
const (
	evtNoop         uint16 = 1
	evtLengthError  uint16 = 2
	evtCmdCodeError uint16 = 3
	evtAPIndexError uint16 = 4
	evtAPStateError uint16 = 5
	evtPermOffError uint16 = 6
	evtWPIndexError uint16 = 7
	evtLCStateError uint16 = 8
)

// EventEmitter reports a classified event.
type EventEmitter interface {
	Emit(eventID uint16, severity events.Severity, text string)
}

// Handler dispatches CMD_MID function codes against the app state,
// watchpoint table, and actionpoint table.
type Handler struct {
	App    *appstate.State
	WP     *watchpoint.Table
	AP     *actionpoint.Table
	Events EventEmitter
}

// Dispatch validates payload length for fc, then applies the command,
// per spec §4.7. Every path that rejects a command bumps CmdErrCount and
// emits a classified event without mutating target state; every
// successful state-changing path bumps CmdCount exactly once, except
// RESET, which zeroes CmdCount along with the other counters.
func (h *Handler) Dispatch(fc FunctionCode, payload []byte) {
	expected, ok := expectedLength[fc]
	if !ok {
		h.reject(evtCmdCodeError, fmt.Sprintf("invalid command code %d", fc))
		return
	}
	if len(payload) != expected {
		h.reject(evtLengthError, fmt.Sprintf("command %d: expected length %d, got %d", fc, expected, len(payload)))
		return
	}

	switch fc {
	case Noop:
		h.App.BumpCmdCount()
		h.emit(evtNoop, events.Info, "LC NOOP, version "+version)

	case Reset:
		h.App.Reset()
		h.emit(evtNoop, events.Info, "LC counters reset")

	case SetLCState:
		h.handleSetLCState(payload)

	case SetAPState:
		h.handleSetAPState(payload)

	case SetAPPermOff:
		h.handleSetAPPermOff(payload)

	case ResetAPStats:
		h.handleResetAPStats(payload)

	case ResetWPStats:
		h.handleResetWPStats(payload)
	}
}

var expectedLength = map[FunctionCode]int{
	Noop:         0,
	Reset:        0,
	SetLCState:   1,
	SetAPState:   3,
	SetAPPermOff: 2,
	ResetAPStats: 2,
	ResetWPStats: 2,
}

func (h *Handler) handleSetLCState(payload []byte) {
	state := payload[0]
	switch state {
	case uint8(appstate.Active), uint8(appstate.Passive), uint8(appstate.Disabled):
		h.App.CurrentLCState = appstate.LCState(state)
		h.App.BumpCmdCount()
		h.emit(evtNoop, events.Info, "LC state set")
	default:
		h.reject(evtLCStateError, fmt.Sprintf("invalid LC state %d", state))
	}
}

func (h *Handler) handleSetAPState(payload []byte) {
	ap := binary.BigEndian.Uint16(payload[0:2])
	newState := actionpoint.State(payload[2])

	if newState != actionpoint.Active && newState != actionpoint.Passive && newState != actionpoint.Disabled {
		h.reject(evtAPStateError, fmt.Sprintf("invalid target AP state %d", newState))
		return
	}

	if ap == ALL {
		for i := range h.AP.Results {
			_ = h.AP.SetState(i, newState) // heritage: NOT_USED/PERMOFF entries are silently skipped
		}
		h.App.BumpCmdCount()
		h.emit(evtNoop, events.Info, "SET_AP_STATE applied to all actionpoints")
		return
	}

	if int(ap) >= len(h.AP.Defs) {
		h.reject(evtAPIndexError, fmt.Sprintf("actionpoint index %d out of range", ap))
		return
	}
	if err := h.AP.SetState(int(ap), newState); err != nil {
		h.reject(evtAPStateError, err.Error())
		return
	}
	h.App.BumpCmdCount()
	h.emit(evtNoop, events.Info, "SET_AP_STATE applied")
}

func (h *Handler) handleSetAPPermOff(payload []byte) {
	ap := binary.BigEndian.Uint16(payload[0:2])
	if ap == ALL {
		h.reject(evtPermOffError, "SET_AP_PERMOFF does not accept ALL_ACTIONPOINTS")
		return
	}
	if int(ap) >= len(h.AP.Defs) {
		h.reject(evtAPIndexError, fmt.Sprintf("actionpoint index %d out of range", ap))
		return
	}
	if err := h.AP.SetPermOff(int(ap)); err != nil {
		h.reject(evtPermOffError, err.Error())
		return
	}
	h.App.BumpCmdCount()
	h.emit(evtNoop, events.Info, "actionpoint set to PERMOFF")
}

func (h *Handler) handleResetAPStats(payload []byte) {
	ap := binary.BigEndian.Uint16(payload[0:2])
	if ap == ALL {
		for i := range h.AP.Results {
			_ = h.AP.ResetStats(i)
		}
		h.App.BumpCmdCount()
		h.emit(evtNoop, events.Info, "RESET_AP_STATS applied to all actionpoints")
		return
	}
	if int(ap) >= len(h.AP.Defs) {
		h.reject(evtAPIndexError, fmt.Sprintf("actionpoint index %d out of range", ap))
		return
	}
	_ = h.AP.ResetStats(int(ap))
	h.App.BumpCmdCount()
	h.emit(evtNoop, events.Info, "RESET_AP_STATS applied")
}

func (h *Handler) handleResetWPStats(payload []byte) {
	wp := binary.BigEndian.Uint16(payload[0:2])
	if wp == ALL {
		for i := range h.WP.Results {
			_ = h.WP.ResetStats(i)
		}
		h.App.BumpCmdCount()
		h.emit(evtNoop, events.Info, "RESET_WP_STATS applied to all watchpoints")
		return
	}
	if int(wp) >= len(h.WP.Defs) {
		h.reject(evtWPIndexError, fmt.Sprintf("watchpoint index %d out of range", wp))
		return
	}
	_ = h.WP.ResetStats(int(wp))
	h.App.BumpCmdCount()
	h.emit(evtNoop, events.Info, "RESET_WP_STATS applied")
}

func (h *Handler) reject(eventID uint16, text string) {
	h.App.BumpCmdErrCount()
	h.emit(eventID, events.Error, text)
}

func (h *Handler) emit(eventID uint16, severity events.Severity, text string) {
	if h.Events != nil {
		h.Events.Emit(eventID, severity, text)
	}
}
