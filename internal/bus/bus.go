// Package bus implements the software-bus transport named as an
// external collaborator in spec §6: an inbound tagged-Message stream
// and outbound HK packet delivery.
//
// The inbound geometry (one fixed register block per monitored
// MessageID, ticker-driven Run loop pushing onto a channel, all-or-
// nothing poll cycle) is grounded on internal/poller/{types,poller,
// runner}.go, generalized from "FC + geometry, no semantics" register
// blocks to "MessageID-tagged" ones. The outbound side reuses
// internal/bus/modbus's WriteRegisters (itself grounded on
// internal/writer/modbus/client.go).
package bus

import (
	"context"
	"errors"
	"time"
)

// Message is one inbound bus message: a MessageID and its raw payload.
type Message struct {
	ID      uint32
	Payload []byte
}

// RegisterBlock ties a fixed Modbus holding-register read to the
// MessageID it represents. Geometry only, no semantics: the dispatcher
// decides what a MessageID means.
type RegisterBlock struct {
	MessageID uint32
	Address   uint16
	Quantity  uint16
}

// Reader abstracts the register read the Receiver needs.
type Reader interface {
	ReadHoldingRegisters(unitID uint8, addr, qty uint16) ([]uint16, error)
}

// Config is the minimal runtime config a Receiver needs.
type Config struct {
	UnitID   uint8
	Interval time.Duration
	Blocks   []RegisterBlock
}

// Receiver is a dumb, clock-driven reader that turns register blocks
// into tagged Messages.
type Receiver struct {
	cfg    Config
	client Reader
}

// NewReceiver validates cfg and returns a Receiver.
func NewReceiver(cfg Config, client Reader) (*Receiver, error) {
	if cfg.Interval <= 0 {
		return nil, errors.New("bus: interval must be > 0")
	}
	if len(cfg.Blocks) == 0 {
		return nil, errors.New("bus: at least one register block required")
	}
	return &Receiver{cfg: cfg, client: client}, nil
}

// PollOnce reads every configured block once and returns the Messages
// produced. A single block's read failure aborts the cycle; partial
// results are discarded, matching the poller's all-or-nothing cycle.
func (r *Receiver) PollOnce() ([]Message, error) {
	msgs := make([]Message, 0, len(r.cfg.Blocks))
	for _, b := range r.cfg.Blocks {
		regs, err := r.client.ReadHoldingRegisters(r.cfg.UnitID, b.Address, b.Quantity)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, Message{ID: b.MessageID, Payload: registersToBytes(regs)})
	}
	return msgs, nil
}

// Run starts the ticker loop and emits each cycle's Messages on out.
// One poll cycle runs to completion before the next tick is honored.
func (r *Receiver) Run(ctx context.Context, out chan<- Message) {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			msgs, err := r.PollOnce()
			if err != nil {
				continue
			}
			for _, m := range msgs {
				out <- m
			}
		}
	}
}

// Writer abstracts the register write the Transmitter needs.
type Writer interface {
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
}

// Transmitter delivers the encoded HK payload to a fixed register
// address on every SEND_HK_MID.
type Transmitter struct {
	client Writer
	unitID uint8
	addr   uint16
}

// NewTransmitter builds a Transmitter writing to unitID/addr.
func NewTransmitter(client Writer, unitID uint8, addr uint16) *Transmitter {
	return &Transmitter{client: client, unitID: unitID, addr: addr}
}

// Send writes payload (already wire-encoded by the caller) to the
// configured register address.
func (t *Transmitter) Send(payload []byte) error {
	return t.client.WriteRegisters(t.unitID, t.addr, bytesToRegisters(payload))
}

func registersToBytes(regs []uint16) []byte {
	out := make([]byte, len(regs)*2)
	for i, r := range regs {
		out[2*i] = byte(r >> 8)
		out[2*i+1] = byte(r)
	}
	return out
}

func bytesToRegisters(data []byte) []uint16 {
	if len(data)%2 != 0 {
		data = append(data, 0)
	}
	out := make([]uint16, len(data)/2)
	for i := range out {
		out[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
	}
	return out
}
