package housekeeping

import (
	"testing"

	"github.com/flightsw/limitchecker/internal/actionpoint"
	"github.com/flightsw/limitchecker/internal/appstate"
	"github.com/flightsw/limitchecker/internal/watchpoint"
)

type fixedClock struct{ sec, sub uint32 }

func (c fixedClock) Now() (uint32, uint32) { return c.sec, c.sub }

func TestPackWPResults_BitLayout(t *testing.T) {
	wp := watchpoint.NewTable(make([]watchpoint.Definition, 8), nil)
	results := []watchpoint.Result{
		watchpoint.True, watchpoint.False, watchpoint.Stale, watchpoint.Error,
		watchpoint.True, watchpoint.True, watchpoint.False, watchpoint.Stale,
	}
	for i, r := range results {
		wp.Results[i].WatchResult = r
	}

	packed := packWPResults(wp)
	if len(packed) != 2 {
		t.Fatalf("expected 2 bytes, got %d", len(packed))
	}

	// byte 0 carries WP0..3: WP0 in bits1-0, WP1 in bits3-2, WP2 in bits5-4, WP3 in bits7-6.
	want0 := wpResultCode(watchpoint.True) |
		wpResultCode(watchpoint.False)<<2 |
		wpResultCode(watchpoint.Stale)<<4 |
		wpResultCode(watchpoint.Error)<<6
	if packed[0] != want0 {
		t.Fatalf("byte0: expected %#02x, got %#02x", want0, packed[0])
	}

	want1 := wpResultCode(watchpoint.True) |
		wpResultCode(watchpoint.True)<<2 |
		wpResultCode(watchpoint.False)<<4 |
		wpResultCode(watchpoint.Stale)<<6
	if packed[1] != want1 {
		t.Fatalf("byte1: expected %#02x, got %#02x", want1, packed[1])
	}
}

func TestPackWPResults_IdenticalResultsProduceIdenticalCodes(t *testing.T) {
	wp := watchpoint.NewTable(make([]watchpoint.Definition, 4), nil)
	wp.Results[0].WatchResult = watchpoint.True
	wp.Results[1].WatchResult = watchpoint.True
	packed := packWPResults(wp)
	code0 := packed[0] & 0x3
	code1 := (packed[0] >> 2) & 0x3
	if code0 != code1 {
		t.Fatalf("two TRUE watchpoints must pack to the same code, got %d vs %d", code0, code1)
	}
}

func TestPackAPResults_PermOffFoldsToNotUsed(t *testing.T) {
	ap := &actionpoint.Table{
		Defs: make([]actionpoint.Definition, 2),
		Results: []actionpoint.ResultEntry{
			{CurrentState: actionpoint.PermOff, ActionResult: actionpoint.Pass},
			{CurrentState: actionpoint.Active, ActionResult: actionpoint.Fail},
		},
	}
	packed := packAPResults(ap)
	if len(packed) != 1 {
		t.Fatalf("expected 1 byte for 2 APs, got %d", len(packed))
	}
	lowNibble := packed[0] & 0x0F
	stateCode := (lowNibble >> 2) & 0x3
	if stateCode != apStateNotUsed {
		t.Fatalf("PERMOFF must fold to NOT_USED code, got %d", stateCode)
	}
}

func TestBuild_ActiveAPsCount(t *testing.T) {
	app := appstate.New()
	wp := watchpoint.NewTable(nil, nil)
	ap := &actionpoint.Table{
		Defs: make([]actionpoint.Definition, 3),
		Results: []actionpoint.ResultEntry{
			{CurrentState: actionpoint.Active},
			{CurrentState: actionpoint.Passive},
			{CurrentState: actionpoint.Active},
		},
	}
	pkt := Build(app, wp, ap, fixedClock{sec: 123, sub: 456})
	if pkt.ActiveAPs != 2 {
		t.Fatalf("expected ActiveAPs=2, got %d", pkt.ActiveAPs)
	}
	if pkt.TimestampSeconds != 123 || pkt.TimestampSubseconds != 456 {
		t.Fatalf("expected clock-sourced timestamp, got %d/%d", pkt.TimestampSeconds, pkt.TimestampSubseconds)
	}
}
