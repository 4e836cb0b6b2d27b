package rpn

import "testing"

func constSource(vals map[int]Tri, errIdx map[int]bool) AtomSource {
	return func(wpIndex int) (Tri, bool) {
		if errIdx[wpIndex] {
			return Bot, true
		}
		return vals[wpIndex], false
	}
}

func TestEvaluate_SingleAtomPassFail(t *testing.T) {
	prog := []Token{{Kind: Atom, WPIndex: 0}, {Kind: End}}

	out := Evaluate(prog, constSource(map[int]Tri{0: True}, nil))
	if out != Fail {
		t.Fatalf("WP0=TRUE expected Fail, got %v", out)
	}

	out = Evaluate(prog, constSource(map[int]Tri{0: False}, nil))
	if out != Pass {
		t.Fatalf("WP0=FALSE expected Pass, got %v", out)
	}

	out = Evaluate(prog, constSource(map[int]Tri{0: Bot}, nil))
	if out != Stale {
		t.Fatalf("WP0=BOT expected Stale, got %v", out)
	}
}

func TestEvaluate_AtomErrorPropagates(t *testing.T) {
	prog := []Token{{Kind: Atom, WPIndex: 0}, {Kind: End}}
	out := Evaluate(prog, constSource(nil, map[int]bool{0: true}))
	if out != ErrorOutcome {
		t.Fatalf("expected ErrorOutcome, got %v", out)
	}
}

func TestEvaluate_ANDStaleWithFalseIsFalse(t *testing.T) {
	// AP1 scenario 4: WP0=FALSE, WP1=STALE -> PASS
	prog := []Token{
		{Kind: Atom, WPIndex: 0},
		{Kind: Atom, WPIndex: 1},
		{Kind: And},
		{Kind: End},
	}
	out := Evaluate(prog, constSource(map[int]Tri{0: False, 1: Bot}, nil))
	if out != Pass {
		t.Fatalf("expected Pass, got %v", out)
	}
}

func TestEvaluate_ANDStaleWithTrueIsStale(t *testing.T) {
	// AP1 scenario 4: WP0=TRUE, WP1=STALE -> STALE
	prog := []Token{
		{Kind: Atom, WPIndex: 0},
		{Kind: Atom, WPIndex: 1},
		{Kind: And},
		{Kind: End},
	}
	out := Evaluate(prog, constSource(map[int]Tri{0: True, 1: Bot}, nil))
	if out != Stale {
		t.Fatalf("expected Stale, got %v", out)
	}
}

func TestEvaluate_ORTruthTable(t *testing.T) {
	prog := func() []Token {
		return []Token{
			{Kind: Atom, WPIndex: 0},
			{Kind: Atom, WPIndex: 1},
			{Kind: Or},
			{Kind: End},
		}
	}

	cases := []struct {
		a, b Tri
		want Outcome
	}{
		{Bot, True, Fail},
		{Bot, False, Stale},
		{True, False, Fail},
		{False, False, Pass},
	}
	for _, c := range cases {
		out := Evaluate(prog(), constSource(map[int]Tri{0: c.a, 1: c.b}, nil))
		if out != c.want {
			t.Fatalf("OR(%v,%v) expected %v, got %v", c.a, c.b, c.want, out)
		}
	}
}

func TestEvaluate_NOT(t *testing.T) {
	prog := []Token{{Kind: Atom, WPIndex: 0}, {Kind: Not}, {Kind: End}}
	if out := Evaluate(prog, constSource(map[int]Tri{0: Bot}, nil)); out != Stale {
		t.Fatalf("NOT(BOT) expected Stale, got %v", out)
	}
	if out := Evaluate(prog, constSource(map[int]Tri{0: True}, nil)); out != Pass {
		t.Fatalf("NOT(TRUE) expected Pass, got %v", out)
	}
}

func TestEvaluate_XorEqualBotPropagates(t *testing.T) {
	xorProg := []Token{
		{Kind: Atom, WPIndex: 0}, {Kind: Atom, WPIndex: 1}, {Kind: Xor}, {Kind: End},
	}
	if out := Evaluate(xorProg, constSource(map[int]Tri{0: Bot, 1: True}, nil)); out != Stale {
		t.Fatalf("XOR with BOT expected Stale, got %v", out)
	}

	eqProg := []Token{
		{Kind: Atom, WPIndex: 0}, {Kind: Atom, WPIndex: 1}, {Kind: Equal}, {Kind: End},
	}
	if out := Evaluate(eqProg, constSource(map[int]Tri{0: Bot, 1: True}, nil)); out != Stale {
		t.Fatalf("EQUAL with BOT expected Stale, got %v", out)
	}
}

func TestEvaluate_StackUnderflowIsError(t *testing.T) {
	prog := []Token{{Kind: And}, {Kind: End}}
	if out := Evaluate(prog, constSource(nil, nil)); out != ErrorOutcome {
		t.Fatalf("expected ErrorOutcome, got %v", out)
	}
}

func TestEvaluate_MissingEndIsError(t *testing.T) {
	prog := []Token{{Kind: Atom, WPIndex: 0}}
	if out := Evaluate(prog, constSource(map[int]Tri{0: True}, nil)); out != ErrorOutcome {
		t.Fatalf("expected ErrorOutcome for missing END, got %v", out)
	}
}

func TestEvaluate_ExtraOperandsIsError(t *testing.T) {
	prog := []Token{{Kind: Atom, WPIndex: 0}, {Kind: Atom, WPIndex: 1}, {Kind: End}}
	if out := Evaluate(prog, constSource(map[int]Tri{0: True, 1: False}, nil)); out != ErrorOutcome {
		t.Fatalf("expected ErrorOutcome for unreduced stack, got %v", out)
	}
}

func TestValidateProgram(t *testing.T) {
	good := []Token{{Kind: Atom}, {Kind: Atom}, {Kind: And}, {Kind: Not}, {Kind: End}}
	if err := ValidateProgram(good); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}

	bad := []Token{{Kind: And}, {Kind: End}}
	if err := ValidateProgram(bad); err == nil {
		t.Fatalf("expected underflow error")
	}

	noEnd := []Token{{Kind: Atom}}
	if err := ValidateProgram(noEnd); err == nil {
		t.Fatalf("expected missing-end error")
	}
}
