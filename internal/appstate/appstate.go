// Package appstate holds the LC application's top-level mutable state
// (spec §3: ApplicationState): the app-wide LC state and the six scalar
// counters touched by the command handler, dispatcher, and actionpoint
// evaluator.
package appstate

// LCState is the application-wide monitoring state.
type LCState uint8

const (
	Active LCState = iota
	Passive
	Disabled
)

func (s LCState) String() string {
	switch s {
	case Active:
		return "ACTIVE"
	case Passive:
		return "PASSIVE"
	case Disabled:
		return "DISABLED"
	default:
		return "UNKNOWN"
	}
}

// State is the process-wide ApplicationState record (§3). It is mutated
// only by the single monitoring task per spec §5's concurrency model, so
// no locking is needed.
type State struct {
	CurrentLCState LCState

	CmdCount            uint32
	CmdErrCount         uint32
	APSampleCount       uint32
	MonitoredMsgCount   uint32
	RTSExecCount        uint32
	PassiveRTSExecCount uint32
}

// New returns a State cold-started to ACTIVE with all counters zeroed,
// per spec §6's cold-start lifecycle.
func New() *State {
	return &State{CurrentLCState: Active}
}

func saturatingAdd1(n uint32) uint32 {
	if n == ^uint32(0) {
		return n
	}
	return n + 1
}

// BumpCmdCount increments CmdCount (saturating).
func (s *State) BumpCmdCount() { s.CmdCount = saturatingAdd1(s.CmdCount) }

// BumpCmdErrCount increments CmdErrCount (saturating).
func (s *State) BumpCmdErrCount() { s.CmdErrCount = saturatingAdd1(s.CmdErrCount) }

// BumpAPSampleCount increments APSampleCount (saturating).
func (s *State) BumpAPSampleCount() { s.APSampleCount = saturatingAdd1(s.APSampleCount) }

// BumpMonitoredMsgCount increments MonitoredMsgCount (saturating).
func (s *State) BumpMonitoredMsgCount() { s.MonitoredMsgCount = saturatingAdd1(s.MonitoredMsgCount) }

// BumpRTSExecCount increments RTSExecCount (saturating).
func (s *State) BumpRTSExecCount() { s.RTSExecCount = saturatingAdd1(s.RTSExecCount) }

// BumpPassiveRTSExecCount increments PassiveRTSExecCount (saturating).
func (s *State) BumpPassiveRTSExecCount() {
	s.PassiveRTSExecCount = saturatingAdd1(s.PassiveRTSExecCount)
}

// Reset zeroes the six scalar counters, including CmdCount itself —
// heritage behavior per spec §9 Open Question (i), kept deliberately.
func (s *State) Reset() {
	s.CmdCount = 0
	s.CmdErrCount = 0
	s.APSampleCount = 0
	s.MonitoredMsgCount = 0
	s.RTSExecCount = 0
	s.PassiveRTSExecCount = 0
}
