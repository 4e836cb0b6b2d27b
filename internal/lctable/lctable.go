// Package lctable implements the table-load/validate/normalize service
// named in spec §6: loads WDT and ADT from a table image, validates
// data-type/operator/default-state domains, RPN well-formedness, and
// offset alignment, then publishes read-only handles plus the derived
// MessageID reverse index.
//
// The three-function Load/Validate/Normalize pipeline is grounded
// directly on internal/config/{config,validate,normalize}.go: same
// "Validate must not mutate, Normalize runs only after Validate"
// contract. Validate checks enum domains by map lookup and RPN programs
// via rpn.ValidateProgram; it does no collision or overlap detection.
// Normalize builds the MessageID reverse index.
package lctable

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/flightsw/limitchecker/internal/actionpoint"
	"github.com/flightsw/limitchecker/internal/events"
	"github.com/flightsw/limitchecker/internal/lcerr"
	"github.com/flightsw/limitchecker/internal/rpn"
	"github.com/flightsw/limitchecker/internal/scalar"
	"github.com/flightsw/limitchecker/internal/watchpoint"
)

// WatchpointSpec is one WDT entry as read from the table image.
type WatchpointSpec struct {
	DataType           string  `yaml:"data_type"`
	Operator           string  `yaml:"operator"`
	MessageID          uint32  `yaml:"message_id"`
	Offset             uint32  `yaml:"offset"`
	BitMask            uint32  `yaml:"bit_mask"`
	ComparisonValue    float64 `yaml:"comparison_value"`
	ResultAgeWhenStale uint32  `yaml:"result_age_when_stale"`
	CustomArg          uint32  `yaml:"custom_arg"`
	CustomPredicate    string  `yaml:"custom_predicate"`
}

// ActionpointSpec is one ADT entry as read from the table image.
type ActionpointSpec struct {
	DefaultState      string   `yaml:"default_state"`
	MaxPassiveEvents  uint32   `yaml:"max_passive_events"`
	MaxPassFailEvents uint32   `yaml:"max_pass_fail_events"`
	MaxFailPassEvents uint32   `yaml:"max_fail_pass_events"`
	RTSId             uint16   `yaml:"rts_id"`
	MaxFailsBeforeRTS uint32   `yaml:"max_fails_before_rts"`
	RPNEquation       []string `yaml:"rpn_equation"`
	EventType         string   `yaml:"event_type"`
	EventID           uint16   `yaml:"event_id"`
	EventText         string   `yaml:"event_text"`
}

// Image is the raw WDT+ADT table image as loaded from disk.
type Image struct {
	Watchpoints  []WatchpointSpec  `yaml:"watchpoints"`
	Actionpoints []ActionpointSpec `yaml:"actionpoints"`
}

// Load reads a table image from path, the way internal/config would if
// it had its own Load: read the whole file, unmarshal with yaml.v3.
func Load(path string) (*Image, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("lctable: read %s: %w", path, err)
	}
	var img Image
	if err := yaml.Unmarshal(raw, &img); err != nil {
		return nil, fmt.Errorf("lctable: parse %s: %w", path, err)
	}
	return &img, nil
}

// Validate checks domain correctness per spec §6's table-service
// contract. It performs declarative validation only and must not mutate
// img.
func Validate(img *Image) error {
	for i, w := range img.Watchpoints {
		if _, ok := dataTypes[w.DataType]; !ok {
			return fmt.Errorf("watchpoint %d: unknown data_type %q", i, w.DataType)
		}
		if _, ok := operators[w.Operator]; !ok {
			return fmt.Errorf("watchpoint %d: unknown operator %q", i, w.Operator)
		}
		dt := dataTypes[w.DataType]
		size := dt.Size()
		if size > 1 && w.Offset%uint32(size) != 0 {
			return fmt.Errorf("watchpoint %d: offset %d misaligned for %s", i, w.Offset, w.DataType)
		}
		if w.Operator == "custom" && w.CustomPredicate == "" {
			return fmt.Errorf("watchpoint %d: operator=custom requires custom_predicate", i)
		}
	}

	for i, a := range img.Actionpoints {
		if _, ok := apStates[a.DefaultState]; !ok {
			return fmt.Errorf("actionpoint %d: unknown default_state %q", i, a.DefaultState)
		}
		if _, ok := severities[a.EventType]; !ok {
			return fmt.Errorf("actionpoint %d: unknown event_type %q", i, a.EventType)
		}
		tokens, err := compileEquation(a.RPNEquation, len(img.Watchpoints))
		if err != nil {
			return fmt.Errorf("actionpoint %d: %w", i, err)
		}
		if err := rpn.ValidateProgram(tokens); err != nil {
			return fmt.Errorf("actionpoint %d: %w", i, err)
		}
	}

	return nil
}

// Tables is the normalized, ready-to-run set of handles the monitoring
// engine borrows: the WDT/ADT definitions plus the derived MessageID
// reverse index.
type Tables struct {
	WatchpointDefs  []watchpoint.Definition
	ActionpointDefs []actionpoint.Definition

	// MessageIndex maps a bus MessageID to the watchpoint indices that
	// reference it, for the Dispatcher's watchpoint-dispatch path.
	MessageIndex map[uint32][]int
}

// CustomPredicates resolves a custom_predicate name to its
// implementation; the table format references predicates by name so the
// table image stays data, not code.
type CustomPredicates map[string]watchpoint.CustomPredicate

// Normalize converts a validated Image into Tables, building the
// MessageID reverse index along the way. It must be called only after
// Validate.
func Normalize(img *Image, predicates CustomPredicates) (*Tables, error) {
	wpDefs := make([]watchpoint.Definition, len(img.Watchpoints))
	msgIndex := make(map[uint32][]int)

	for i, w := range img.Watchpoints {
		dt := dataTypes[w.DataType]
		op := operators[w.Operator]

		var cmp scalar.Value
		switch {
		case dt.IsFloat():
			cmp = scalar.FromFloat32(dt, float32(w.ComparisonValue))
		case dt.IsSigned():
			cmp = scalar.FromInt(dt, int32(w.ComparisonValue))
		default:
			cmp = scalar.FromUint(dt, uint32(w.ComparisonValue))
		}

		var pred watchpoint.CustomPredicate
		if w.CustomPredicate != "" {
			pred = predicates[w.CustomPredicate]
			if pred == nil {
				return nil, lcerr.New(lcerr.InvalidEnum, fmt.Sprintf("watchpoint %d: unknown custom_predicate %q", i, w.CustomPredicate))
			}
		}

		wpDefs[i] = watchpoint.Definition{
			DataType:           dt,
			Operator:           op,
			MessageID:          w.MessageID,
			Offset:             w.Offset,
			BitMask:            w.BitMask,
			ComparisonValue:    cmp,
			ResultAgeWhenStale: w.ResultAgeWhenStale,
			CustomArg:          w.CustomArg,
			Custom:             pred,
		}

		msgIndex[w.MessageID] = append(msgIndex[w.MessageID], i)
	}

	apDefs := make([]actionpoint.Definition, len(img.Actionpoints))
	for i, a := range img.Actionpoints {
		tokens, err := compileEquation(a.RPNEquation, len(img.Watchpoints))
		if err != nil {
			return nil, fmt.Errorf("actionpoint %d: %w", i, err)
		}
		apDefs[i] = actionpoint.Definition{
			DefaultState:      apStates[a.DefaultState],
			MaxPassiveEvents:  a.MaxPassiveEvents,
			MaxPassFailEvents: a.MaxPassFailEvents,
			MaxFailPassEvents: a.MaxFailPassEvents,
			RTSId:             a.RTSId,
			MaxFailsBeforeRTS: a.MaxFailsBeforeRTS,
			RPNEquation:       tokens,
			EventType:         severities[a.EventType],
			EventID:           a.EventID,
			EventText:         a.EventText,
		}
	}

	return &Tables{
		WatchpointDefs:  wpDefs,
		ActionpointDefs: apDefs,
		MessageIndex:    msgIndex,
	}, nil
}

var dataTypes = map[string]scalar.DataType{
	"U8": scalar.U8, "I8": scalar.I8,
	"U16BE": scalar.U16BE, "U16LE": scalar.U16LE,
	"I16BE": scalar.I16BE, "I16LE": scalar.I16LE,
	"U32BE": scalar.U32BE, "U32LE": scalar.U32LE,
	"I32BE": scalar.I32BE, "I32LE": scalar.I32LE,
	"F32BE": scalar.F32BE, "F32LE": scalar.F32LE,
}

var operators = map[string]scalar.Operator{
	"<": scalar.OpLess, "<=": scalar.OpLessOrEqual,
	"==": scalar.OpEqual, "!=": scalar.OpNotEqual,
	">=": scalar.OpGreaterOrEqual, ">": scalar.OpGreater,
	"custom": scalar.OpCustom, "none": scalar.OpNone,
}

var apStates = map[string]actionpoint.State{
	"NOT_USED": actionpoint.NotUsed, "DISABLED": actionpoint.Disabled,
	"PASSIVE": actionpoint.Passive, "ACTIVE": actionpoint.Active,
	"PERMOFF": actionpoint.PermOff,
}

var severities = map[string]events.Severity{
	"DEBUG": events.Debug, "INFO": events.Info,
	"ERROR": events.Error, "CRITICAL": events.Critical,
}

// compileEquation parses the table image's string tokens into rpn.Token
// values. Atom tokens are "wp:<index>"; everything else is an operator
// keyword or a boolean constant.
func compileEquation(raw []string, wpCount int) ([]rpn.Token, error) {
	tokens := make([]rpn.Token, 0, len(raw))
	for _, tok := range raw {
		switch tok {
		case "not":
			tokens = append(tokens, rpn.Token{Kind: rpn.Not})
		case "and":
			tokens = append(tokens, rpn.Token{Kind: rpn.And})
		case "or":
			tokens = append(tokens, rpn.Token{Kind: rpn.Or})
		case "xor":
			tokens = append(tokens, rpn.Token{Kind: rpn.Xor})
		case "equal":
			tokens = append(tokens, rpn.Token{Kind: rpn.Equal})
		case "end":
			tokens = append(tokens, rpn.Token{Kind: rpn.End})
		case "true":
			tokens = append(tokens, rpn.Token{Kind: rpn.Const, ConstVal: rpn.True})
		case "false":
			tokens = append(tokens, rpn.Token{Kind: rpn.Const, ConstVal: rpn.False})
		default:
			idx, err := parseWPAtom(tok)
			if err != nil {
				return nil, err
			}
			if idx < 0 || idx >= wpCount {
				return nil, fmt.Errorf("rpn token %q references out-of-range watchpoint", tok)
			}
			tokens = append(tokens, rpn.Token{Kind: rpn.Atom, WPIndex: idx})
		}
	}
	return tokens, nil
}

func parseWPAtom(tok string) (int, error) {
	const prefix = "wp:"
	if len(tok) <= len(prefix) || tok[:len(prefix)] != prefix {
		return 0, fmt.Errorf("unrecognized rpn token %q", tok)
	}
	n := 0
	for _, c := range tok[len(prefix):] {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("unrecognized rpn token %q", tok)
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
}
