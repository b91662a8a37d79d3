package compiler

import "testing"

func mustParse(t *testing.T, src string) Expr {
	t.Helper()
	e, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	return e
}

func TestParseIdentity(t *testing.T) {
	e := mustParse(t, ".")
	if _, ok := e.(*Identity); !ok {
		t.Fatalf("expected Identity, got %T", e)
	}
}

func TestParseFieldChain(t *testing.T) {
	e := mustParse(t, ".a.b")
	outer, ok := e.(*FieldAccess)
	if !ok || outer.Name != "b" {
		t.Fatalf("expected outer FieldAccess(.b), got %#v", e)
	}
	inner, ok := outer.Inner.(*FieldAccess)
	if !ok || inner.Name != "a" {
		t.Fatalf("expected inner FieldAccess(.a), got %#v", outer.Inner)
	}
	if _, ok := inner.Inner.(*Identity); !ok {
		t.Fatalf("expected Identity at chain root, got %#v", inner.Inner)
	}
}

func TestParsePipeRightAssoc(t *testing.T) {
	e := mustParse(t, "a | b | c")
	p, ok := e.(*Pipe)
	if !ok {
		t.Fatalf("expected Pipe, got %T", e)
	}
	if _, ok := p.Left.(*Str); !ok {
		t.Fatalf("expected Str on the left of a right-associative pipe, got %T", p.Left)
	}
	if _, ok := p.Right.(*Pipe); !ok {
		t.Fatalf("expected nested Pipe on the right, got %T", p.Right)
	}
}

func TestParseBareIdentifierIsString(t *testing.T) {
	e := mustParse(t, "hello")
	s, ok := e.(*Str)
	if !ok || s.Value != "hello" {
		t.Fatalf("expected Str(\"hello\"), got %#v", e)
	}
}

func TestParseFunctionCall(t *testing.T) {
	e := mustParse(t, `select(. == 1)`)
	call, ok := e.(*FunctionCall)
	if !ok || call.Name != "select" || len(call.Args) != 1 {
		t.Fatalf("expected select/1 call, got %#v", e)
	}
}

func TestParseTuple(t *testing.T) {
	e := mustParse(t, "1, 2, 3")
	tup, ok := e.(*Tuple)
	if !ok || len(tup.Items) != 3 {
		t.Fatalf("expected 3-item Tuple, got %#v", e)
	}
}

func TestParseFold(t *testing.T) {
	e := mustParse(t, "[ .[] | . * 2 ]")
	fold, ok := e.(*Fold)
	if !ok || fold.Inner == nil {
		t.Fatalf("expected non-empty Fold, got %#v", e)
	}
}

func TestParseEmptyFoldIsEmptyList(t *testing.T) {
	e := mustParse(t, "[]")
	fold, ok := e.(*Fold)
	if !ok || fold.Inner != nil {
		t.Fatalf("expected empty Fold, got %#v", e)
	}
}

func TestParseAsBinding(t *testing.T) {
	e := mustParse(t, ". as $x | $x")
	bind, ok := e.(*AsBinding)
	if !ok || bind.Name != "x" {
		t.Fatalf("expected AsBinding($x), got %#v", e)
	}
}

func TestParseLetBinding(t *testing.T) {
	e := mustParse(t, "let 1 as $x in $x + 1")
	bind, ok := e.(*LetBinding)
	if !ok || bind.Name != "x" {
		t.Fatalf("expected LetBinding($x), got %#v", e)
	}
}

func TestParseIfElifElse(t *testing.T) {
	e := mustParse(t, "if . == 1 then \"a\" elif . == 2 then \"b\" else \"c\"")
	outer, ok := e.(*IfThenElse)
	if !ok {
		t.Fatalf("expected IfThenElse, got %T", e)
	}
	if _, ok := outer.Else.(*IfThenElse); !ok {
		t.Fatalf("expected elif to desugar to a nested IfThenElse, got %T", outer.Else)
	}
}

func TestParseAssignField(t *testing.T) {
	e := mustParse(t, `.p["k"] = "v"; .p.k`)
	seq, ok := e.(*Sequence)
	if !ok {
		t.Fatalf("expected Sequence, got %T", e)
	}
	if _, ok := seq.Left.(*AssignBracket); !ok {
		t.Fatalf("expected AssignBracket on the left of ;, got %T", seq.Left)
	}
}

func TestParseInvalidAssignTargetIsError(t *testing.T) {
	if _, err := Parse("1 = 2"); err == nil {
		t.Fatalf("expected a parse error for an invalid assignment target")
	}
}

func TestParseUnknownFunctionNameIsNotAnError(t *testing.T) {
	// Unknown names in expression position are just string literals; only a
	// known builtin name becomes a call without "(", and an unknown name
	// followed by "(" is rejected at compile time, not by the parser.
	e := mustParse(t, "whatever")
	if _, ok := e.(*Str); !ok {
		t.Fatalf("expected Str, got %T", e)
	}
}

func TestParsePrecedenceArithmeticOverComparison(t *testing.T) {
	e := mustParse(t, "1 + 2 == 3")
	bin, ok := e.(*Binary)
	if !ok || bin.Op != "==" {
		t.Fatalf("expected top-level ==, got %#v", e)
	}
	if _, ok := bin.Left.(*Binary); !ok {
		t.Fatalf("expected left side to be the nested + expression, got %T", bin.Left)
	}
}

func TestParseSliceBothBoundsOptional(t *testing.T) {
	e := mustParse(t, ".[1:]")
	sl, ok := e.(*Slice)
	if !ok || sl.Start == nil || sl.End != nil {
		t.Fatalf("expected Slice with only a start bound, got %#v", e)
	}
}

func TestParseUnbalancedBracketsIsError(t *testing.T) {
	if _, err := Parse(".[1"); err == nil {
		t.Fatalf("expected a parse error for an unbalanced bracket")
	}
}
