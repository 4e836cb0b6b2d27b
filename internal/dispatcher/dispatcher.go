// Package dispatcher classifies each inbound bus message by MessageID
// and routes it to the actionpoint sampler, housekeeping packer,
// command handler, or watchpoint evaluator, per spec §4.5.
//
// The single switch on MessageID, with a nested switch on command
// function code for CMD_MID and a default case falling through to
// watchpoint dispatch, follows original_source/fsw/src/lc_cmds.c's
// LC_AppPipe almost line for line. The consumption loop shape (select
// over a bus-receive channel, one message processed to completion
// before the next) is grounded on cmd/replicator/main.go's per-unit
// orchestrator goroutine and internal/poller/runner.go's ticker/channel
// Run loop, adapted here to a message-receive loop instead of a ticker.
package dispatcher

import (
	"context"
	"encoding/binary"

	"github.com/flightsw/limitchecker/internal/actionpoint"
	"github.com/flightsw/limitchecker/internal/appstate"
	"github.com/flightsw/limitchecker/internal/command"
	"github.com/flightsw/limitchecker/internal/events"
	"github.com/flightsw/limitchecker/internal/housekeeping"
	"github.com/flightsw/limitchecker/internal/watchpoint"
)

// Config names the three reserved MessageIDs, per spec §6.
type Config struct {
	SampleAPMID uint32
	SendHKMID   uint32
	CmdMID      uint32
}

// Transmitter delivers an encoded HK payload.
type Transmitter interface {
	Send(payload []byte) error
}

// Maintenance is invoked after every HK build/send, the designated
// quiescent window in which the external table service may reload the
// WDT/ADT tables (spec §5).
type Maintenance func()

// EventEmitter reports a classified event.
type EventEmitter interface {
	Emit(eventID uint16, severity events.Severity, text string)
}

const evtDispatchError uint16 = 100

// Dispatcher owns the MessageID -> []WP-index reverse map and the
// collaborators each message class is routed to.
type Dispatcher struct {
	Cfg Config

	App    *appstate.State
	WP     *watchpoint.Table
	AP     *actionpoint.Table
	Cmd    *command.Handler
	Clock  housekeeping.Clock
	TX     Transmitter
	Events EventEmitter

	MessageIndex map[uint32][]int
	Maintenance  Maintenance
}

// Dispatch routes one inbound message per spec §4.5.
func (d *Dispatcher) Dispatch(id uint32, payload []byte) {
	switch id {
	case d.Cfg.SampleAPMID:
		d.dispatchSample(payload)

	case d.Cfg.SendHKMID:
		d.dispatchHK()

	case d.Cfg.CmdMID:
		d.dispatchCommand(payload)

	default:
		d.dispatchWatchpoints(id, payload)
	}
}

// dispatchSample decodes (StartIndex, EndIndex, UpdateAge) and invokes
// A.sample, then ages all WRT entries when UpdateAge is non-zero, per
// spec §4.4's sample command.
func (d *Dispatcher) dispatchSample(payload []byte) {
	if len(payload) != 6 {
		d.reject("sample command: expected 6-byte payload")
		return
	}
	start := binary.BigEndian.Uint16(payload[0:2])
	end := binary.BigEndian.Uint16(payload[2:4])
	updateAge := binary.BigEndian.Uint16(payload[4:6])

	first, last := int(start), int(end)
	if start == 0xFFFF && end == 0xFFFF {
		first, last = actionpoint.ALL, actionpoint.ALL
	}

	if err := d.AP.SampleRange(first, last); err != nil {
		d.reject(err.Error())
		return
	}
	if updateAge != 0 {
		d.WP.AgeOne()
	}
}

// dispatchHK builds and transmits the HK packet, then runs the
// maintenance hook — the designated window in which table reload may
// safely occur, per spec §5.
func (d *Dispatcher) dispatchHK() {
	pkt := housekeeping.Build(d.App, d.WP, d.AP, d.Clock)
	if d.TX != nil {
		if err := d.TX.Send(housekeeping.Encode(pkt)); err != nil {
			d.reject("HK transmit failed: " + err.Error())
		}
	}
	if d.Maintenance != nil {
		d.Maintenance()
	}
}

// dispatchCommand splits off the one-byte function code and hands the
// remaining payload to the command handler.
func (d *Dispatcher) dispatchCommand(payload []byte) {
	if len(payload) < 1 {
		d.reject("command message: missing function code")
		return
	}
	fc := command.FunctionCode(payload[0])
	d.Cmd.Dispatch(fc, payload[1:])
}

// dispatchWatchpoints evaluates every WP whose WDT MessageID equals id
// against msg, incrementing MonitoredMsgCount once per matched message
// (not per WP). Absent entries are a silent no-op, per spec §4.5.
func (d *Dispatcher) dispatchWatchpoints(id uint32, msg []byte) {
	indices, ok := d.MessageIndex[id]
	if !ok || len(indices) == 0 {
		return
	}
	for _, wpIdx := range indices {
		// Evaluate only errors on an out-of-range index, which cannot
		// happen here since wpIdx comes from the table's own reverse map;
		// field-read/compare faults are recorded in-place as Error.
		_ = d.WP.Evaluate(wpIdx, msg)
	}
	d.App.BumpMonitoredMsgCount()
}

func (d *Dispatcher) reject(text string) {
	if d.Events != nil {
		d.Events.Emit(evtDispatchError, events.Error, text)
	}
}

// Source is the inbound message stream the Run loop consumes.
type Source interface {
	Recv(ctx context.Context) (id uint32, payload []byte, err error)
}

// Run blocks on Source.Recv, processing each message to completion
// before the next is read — the app's single execution context, per
// spec §5. Returns when Recv fails or ctx is done.
func (d *Dispatcher) Run(ctx context.Context, src Source) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		id, payload, err := src.Recv(ctx)
		if err != nil {
			return err
		}
		d.Dispatch(id, payload)
	}
}
