// Package events implements the event service collaborator named in
// spec §6: emit(event_id, severity, formatted_text).
//
// Grounded on mlogger usage across the retrieval pack (e.g. apiManager's
// Start declaring a named log, setting a text/history limit, then
// calling Info/Warning/Error/Panic with a LoggerData literal): one
// Service wraps one declared mlogger log handle, and Emit maps the
// spec's four severities onto mlogger's call sites: DEBUG and INFO to
// Info, ERROR to Error, CRITICAL to Panic, and any other value to Warning.
package events

import (
	"fmt"

	"github.com/fpessolano/mlogger"
)

// Severity mirrors spec §6's event severities.
type Severity uint8

const (
	Debug Severity = iota
	Info
	Error
	Critical
)

// Service emits classified events against one declared mlogger log.
type Service struct {
	logID int
}

// NewService declares a named log and sets its text/history limits, the
// way apiManager.Start/gateManager.Start do for their own subsystem logs.
func NewService(name string) (*Service, error) {
	logID, err := mlogger.DeclareLog(name, false)
	if err != nil {
		return nil, err
	}
	if err := mlogger.SetTextLimit(logID, 80, 30, 12); err != nil {
		return nil, err
	}
	return &Service{logID: logID}, nil
}

// Emit reports one event, per spec §6.
func (s *Service) Emit(eventID uint16, severity Severity, text string) {
	data := mlogger.LoggerData{
		Id:        fmt.Sprintf("lc.event-%d", eventID),
		Message:   text,
		Data:      []int{int(eventID)},
		Aggregate: true,
	}
	switch severity {
	case Debug:
		mlogger.Info(s.logID, data)
	case Info:
		mlogger.Info(s.logID, data)
	case Error:
		mlogger.Error(s.logID, data)
	case Critical:
		mlogger.Panic(s.logID, data, true)
	default:
		mlogger.Warning(s.logID, data)
	}
}
