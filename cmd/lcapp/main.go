// cmd/lcapp/main.go
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/flightsw/limitchecker/internal/actionpoint"
	"github.com/flightsw/limitchecker/internal/appstate"
	"github.com/flightsw/limitchecker/internal/bus"
	busmodbus "github.com/flightsw/limitchecker/internal/bus/modbus"
	"github.com/flightsw/limitchecker/internal/clock"
	"github.com/flightsw/limitchecker/internal/command"
	"github.com/flightsw/limitchecker/internal/dispatcher"
	"github.com/flightsw/limitchecker/internal/events"
	"github.com/flightsw/limitchecker/internal/lctable"
	"github.com/flightsw/limitchecker/internal/rts"
	"github.com/flightsw/limitchecker/internal/watchpoint"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: lcapp <config.yaml>")
	}

	cfg, err := LoadAppConfig(os.Args[1])
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	// --------------------
	// Load + validate + normalize the WDT/ADT table image
	// --------------------

	img, err := lctable.Load(cfg.TablePath)
	if err != nil {
		log.Fatalf("table load failed: %v", err)
	}
	if err := lctable.Validate(img); err != nil {
		log.Fatalf("table validation failed: %v", err)
	}
	tables, err := lctable.Normalize(img, nil)
	if err != nil {
		log.Fatalf("table normalization failed: %v", err)
	}

	// --------------------
	// Collaborators
	// --------------------

	evSvc, err := events.NewService("lc")
	if err != nil {
		log.Fatalf("event service init failed: %v", err)
	}

	rtsExec, err := rts.NewExecutor(rts.Config{
		Endpoint: cfg.RTS.Endpoint,
		Timeout:  time.Duration(cfg.RTS.TimeoutMs) * time.Millisecond,
	})
	if err != nil {
		log.Fatalf("rts executor init failed: %v", err)
	}

	sysClock := clock.System{}
	app := appstate.New()
	wp := watchpoint.NewTable(tables.WatchpointDefs, sysClock)
	ap := actionpoint.NewTable(tables.ActionpointDefs, wp, rtsExec, evSvc, app)
	cmdHandler := &command.Handler{App: app, WP: wp, AP: ap, Events: evSvc}

	busClient, err := busmodbus.NewEndpointClient(busmodbus.Config{
		Endpoint: cfg.Bus.Endpoint,
		Timeout:  time.Duration(cfg.Bus.TimeoutMs) * time.Millisecond,
	})
	if err != nil {
		log.Fatalf("bus endpoint init failed: %v", err)
	}
	defer busClient.Close()

	blocks := make([]bus.RegisterBlock, 0, len(cfg.Bus.Blocks))
	for _, b := range cfg.Bus.Blocks {
		blocks = append(blocks, bus.RegisterBlock{
			MessageID: b.MessageID, Address: b.Address, Quantity: b.Quantity,
		})
	}
	receiver, err := bus.NewReceiver(bus.Config{
		UnitID:   cfg.Bus.UnitID,
		Interval: time.Duration(cfg.Bus.PollIntervalMs) * time.Millisecond,
		Blocks:   blocks,
	}, busClient)
	if err != nil {
		log.Fatalf("bus receiver init failed: %v", err)
	}
	transmitter := bus.NewTransmitter(busClient, cfg.Bus.UnitID, cfg.Bus.HKAddress)

	d := &dispatcher.Dispatcher{
		Cfg: dispatcher.Config{
			SampleAPMID: cfg.MessageIDs.SampleAP,
			SendHKMID:   cfg.MessageIDs.SendHK,
			CmdMID:      cfg.MessageIDs.Cmd,
		},
		App:    app,
		WP:     wp,
		AP:     ap,
		Cmd:    cmdHandler,
		Clock:  sysClock,
		TX:     transmitter,
		Events: evSvc,

		MessageIndex: tables.MessageIndex,
		Maintenance: func() {
			// table reload is coordinated by the external table service;
			// this hook marks the quiescent window in which it may run.
		},
	}

	// --------------------
	// Run: one goroutine polls the bus, the single execution context
	// dispatches each message to completion before the next, per spec §5.
	// --------------------

	ctx := context.Background()
	msgs := make(chan bus.Message)
	go receiver.Run(ctx, msgs)

	if err := d.Run(ctx, &channelSource{ch: msgs}); err != nil {
		log.Fatalf("dispatcher stopped: %v", err)
	}
}

// channelSource adapts a bus.Message channel to dispatcher.Source.
type channelSource struct {
	ch <-chan bus.Message
}

func (s *channelSource) Recv(ctx context.Context) (uint32, []byte, error) {
	select {
	case <-ctx.Done():
		return 0, nil, ctx.Err()
	case m := <-s.ch:
		return m.ID, m.Payload, nil
	}
}
