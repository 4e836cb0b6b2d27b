// Package clock implements the clock service collaborator named in
// spec §6: now() -> (seconds, subseconds).
package clock

import "time"

// Clock supplies mission-elapsed time to watchpoint transitions and HK
// packet timestamps.
type Clock interface {
	Now() (seconds, subseconds uint32)
}

// System is a Clock backed by the wall clock, the way
// cmd/replicator/main.go uses bare time.Now()/time.NewTicker rather than
// an injected time source.
type System struct{}

// Now returns the current time as (seconds since Unix epoch, subseconds
// in 1/65536ths of a second — the classic CCSDS subsecond resolution).
func (System) Now() (uint32, uint32) {
	now := time.Now()
	sec := uint32(now.Unix())
	sub := uint32((now.Nanosecond() * 65536) / 1e9)
	return sec, sub
}
