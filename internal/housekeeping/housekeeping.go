// Package housekeeping implements the Housekeeping packer (H): builds
// the HK telemetry payload on SEND_HK_MID per spec §4.6 — scalar
// counters, 2-bit-per-watchpoint result codes packed 4 to a byte, and
// 4-bit state/result nibbles packed 2 actionpoints to a byte.
//
// The "one module owns the layout constants, one pure Encode function
// with no IO" shape is lifted directly from internal/status/{constants,
// encode}.go, which is also what spec §9's design note for result-code
// packing explicitly asks for. The teacher packs a 3-field device status
// block into fixed register slots; this generalizes that to two/four-bit
// codes over many watchpoint/actionpoint entries.
package housekeeping

import (
	"github.com/flightsw/limitchecker/internal/actionpoint"
	"github.com/flightsw/limitchecker/internal/appstate"
	"github.com/flightsw/limitchecker/internal/watchpoint"
)

// WP result codes, per spec §4.6.
const (
	wpCodeStale uint8 = 0b00
	wpCodeFalse uint8 = 0b01
	wpCodeTrue  uint8 = 0b10
	wpCodeError uint8 = 0b11
)

// AP state codes, per spec §4.6. PERMOFF is folded to NOT_USED.
const (
	apStateNotUsed  uint8 = 0b00
	apStateActive   uint8 = 0b01
	apStatePassive  uint8 = 0b10
	apStateDisabled uint8 = 0b11
)

// AP result codes, per spec §4.6.
const (
	apResultStale uint8 = 0b00
	apResultPass  uint8 = 0b01
	apResultFail  uint8 = 0b10
	apResultError uint8 = 0b11
)

// Packet is the HK telemetry payload, matching spec §6's field list
// (fixed bus header is applied by the caller, not modeled here).
type Packet struct {
	CmdCount            uint8
	CmdErrCount         uint8
	CurrentLCState      uint8
	ActiveAPs           uint8
	APSampleCount       uint16
	PassiveRTSExecCount uint16
	WPsInUse            uint16
	RTSExecCount        uint16
	MonitoredMsgCount   uint32
	WPResults           []byte
	APResults           []byte
	TimestampSeconds    uint32
	TimestampSubseconds uint32
}

// Clock supplies the HK packet's timestamp.
type Clock interface {
	Now() (seconds, subseconds uint32)
}

// Build gathers counters from app, wp, and ap and packs the HK payload
// per spec §4.6. No IO; transmission is the caller's concern (see
// internal/bus).
func Build(app *appstate.State, wp *watchpoint.Table, ap *actionpoint.Table, clk Clock) Packet {
	sec, sub := uint32(0), uint32(0)
	if clk != nil {
		sec, sub = clk.Now()
	}

	var activeAPs uint8
	for _, r := range ap.Results {
		if r.CurrentState == actionpoint.Active {
			activeAPs++
		}
	}

	return Packet{
		CmdCount:            saturateU8(app.CmdCount),
		CmdErrCount:         saturateU8(app.CmdErrCount),
		CurrentLCState:      uint8(app.CurrentLCState),
		ActiveAPs:           activeAPs,
		APSampleCount:       saturateU16(app.APSampleCount),
		PassiveRTSExecCount: saturateU16(app.PassiveRTSExecCount),
		WPsInUse:            uint16(len(wp.Defs)),
		RTSExecCount:        saturateU16(app.RTSExecCount),
		MonitoredMsgCount:   app.MonitoredMsgCount,
		WPResults:           packWPResults(wp),
		APResults:           packAPResults(ap),
		TimestampSeconds:    sec,
		TimestampSubseconds: sub,
	}
}

func packWPResults(wp *watchpoint.Table) []byte {
	n := len(wp.Results)
	out := make([]byte, (n+3)/4)
	for i, r := range wp.Results {
		code := wpResultCode(r.WatchResult)
		byteIdx := i / 4
		shift := uint((i % 4) * 2)
		out[byteIdx] |= code << shift
	}
	return out
}

func wpResultCode(r watchpoint.Result) uint8 {
	switch r {
	case watchpoint.Stale:
		return wpCodeStale
	case watchpoint.False:
		return wpCodeFalse
	case watchpoint.True:
		return wpCodeTrue
	default:
		return wpCodeError
	}
}

func packAPResults(ap *actionpoint.Table) []byte {
	n := len(ap.Results)
	out := make([]byte, (n+1)/2)
	for i, r := range ap.Results {
		stateCode := apStateCode(r.CurrentState)
		resultCode := apResultCode(r.ActionResult)
		nibble := (stateCode << 2) | resultCode // high 2 bits = state, low 2 bits = result
		byteIdx := i / 2
		if i%2 == 0 {
			out[byteIdx] |= nibble
		} else {
			out[byteIdx] |= nibble << 4
		}
	}
	return out
}

func apStateCode(s actionpoint.State) uint8 {
	switch s {
	case actionpoint.Active:
		return apStateActive
	case actionpoint.Passive:
		return apStatePassive
	case actionpoint.Disabled:
		return apStateDisabled
	default: // NotUsed, PermOff
		return apStateNotUsed
	}
}

func apResultCode(r actionpoint.Result) uint8 {
	switch r {
	case actionpoint.Stale:
		return apResultStale
	case actionpoint.Pass:
		return apResultPass
	case actionpoint.Fail:
		return apResultFail
	default:
		return apResultError
	}
}

func saturateU8(n uint32) uint8 {
	if n > 0xFF {
		return 0xFF
	}
	return uint8(n)
}

func saturateU16(n uint32) uint16 {
	if n > 0xFFFF {
		return 0xFFFF
	}
	return uint16(n)
}

// Encode serializes a Packet into the wire form placed on the outbound
// bus, per §6. Layout is protocol-locked: fixed scalar fields followed
// by length-prefixed WP/AP result blocks.
func Encode(p Packet) []byte {
	out := make([]byte, 0, 24+len(p.WPResults)+len(p.APResults))
	out = append(out, p.CmdCount, p.CmdErrCount, p.CurrentLCState, p.ActiveAPs)
	out = appendU16(out, p.APSampleCount)
	out = appendU16(out, p.PassiveRTSExecCount)
	out = appendU16(out, p.WPsInUse)
	out = appendU16(out, p.RTSExecCount)
	out = appendU32(out, p.MonitoredMsgCount)
	out = appendU32(out, p.TimestampSeconds)
	out = appendU32(out, p.TimestampSubseconds)
	out = append(out, byte(len(p.WPResults)))
	out = append(out, p.WPResults...)
	out = append(out, byte(len(p.APResults)))
	out = append(out, p.APResults...)
	return out
}

func appendU16(out []byte, v uint16) []byte {
	return append(out, byte(v>>8), byte(v))
}

func appendU32(out []byte, v uint32) []byte {
	return append(out, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}
