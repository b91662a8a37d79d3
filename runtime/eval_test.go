package runtime

import (
	"testing"

	"github.com/chazu/orgql/compiler"
)

// run parses, compiles, and executes src against the single-item input
// stream [in], with the given context vars.
func run(t *testing.T, src string, in Value, vars map[string]Value) Stream {
	t.Helper()
	ast, err := compiler.Parse(src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	stage, err := Compile(ast)
	if err != nil {
		t.Fatalf("compile %q: %v", src, err)
	}
	out, err := Run(stage, NewContext(vars), Stream{in})
	if err != nil {
		t.Fatalf("run %q: %v", src, err)
	}
	return out
}

func dict(pairs ...any) *Dict {
	d := NewDict()
	for i := 0; i+1 < len(pairs); i += 2 {
		d.Set(pairs[i].(string), pairs[i+1].(Value))
	}
	return d
}

func strList(items ...string) *List {
	vals := make([]Value, len(items))
	for i, s := range items {
		vals[i] = Str(s)
	}
	return &List{Items: vals}
}

func assertStream(t *testing.T, got Stream, want ...Value) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d (%v), want %d (%v)", len(got), got, len(want), want)
	}
	for i := range got {
		if !Equal(got[i], want[i]) {
			t.Fatalf("index %d: got %s, want %s", i, String(got[i]), String(want[i]))
		}
	}
}

// Scenario 1: unique over a fanned-out stream.
func TestScenarioUnique(t *testing.T) {
	in := NewList(Int(1), Int(1), Int(2), Int(3), Int(2))
	out := run(t, ".[] | unique", in, nil)
	assertStream(t, out, Int(1), Int(2), Int(3))
}

// Scenario 2: select + field projection.
func TestScenarioSelectProject(t *testing.T) {
	in := NewList(
		dict("todo", Str("DONE"), "h", Str("a")),
		dict("todo", Str("TODO"), "h", Str("b")),
		dict("todo", Str("DONE"), "h", Str("c")),
	)
	out := run(t, `.[] | select(.todo == "DONE") | .h`, in, nil)
	assertStream(t, out, Str("a"), Str("c"))
}

// Scenario 3: slice by variables.
func TestScenarioSliceByVars(t *testing.T) {
	in := NewList(Int(1), Int(2), Int(3), Int(4), Int(5))
	out := run(t, ".[ $offset : $offset + $limit ]", in, map[string]Value{
		"offset": Int(1), "limit": Int(3),
	})
	assertStream(t, out, NewList(Int(2), Int(3), Int(4)))
}

// Scenario 4: sha256 of a string.
func TestScenarioSha256(t *testing.T) {
	out := run(t, "sha256", Str("abc"), nil)
	if len(out) != 1 {
		t.Fatalf("expected one result, got %d", len(out))
	}
	if _, ok := out[0].(Str); !ok {
		t.Fatalf("expected a Str digest, got %T", out[0])
	}
}

// Scenario 5: mod/rem/quot on negative operands.
func TestScenarioModRemQuot(t *testing.T) {
	out := run(t, "-7 mod 3, -7 rem 3, -7 quot 3", Int(7), nil)
	assertStream(t, out, &Tuple{Items: []Value{Int(2), Int(-1), Int(-2)}})
}

// Scenario 6: sort_by descending.
func TestScenarioSortByDescending(t *testing.T) {
	in := NewList(Int(3), Int(1), Int(4), Int(1), Int(5), Int(9), Int(2))
	out := run(t, "sort_by(.)", in, nil)
	assertStream(t, out, NewList(Int(9), Int(5), Int(4), Int(3), Int(2), Int(1), Int(1)))
}

// sort_by dispatched over a fanned-out stream, not just a pre-built list.
func TestSortByOverFannedOutStream(t *testing.T) {
	in := NewList(
		dict("heading", Str("b")),
		dict("heading", Str("a")),
		dict("heading", Str("c")),
	)
	out := run(t, ".[] | sort_by(.heading)", in, nil)
	assertStream(t, out, NewList(
		dict("heading", Str("c")),
		dict("heading", Str("b")),
		dict("heading", Str("a")),
	))
}

// Scenario 7: bracket assignment then read-back.
func TestScenarioBracketAssign(t *testing.T) {
	in := dict("p", NewDict())
	out := run(t, `.p["k"] = "v"; .p.k`, in, nil)
	assertStream(t, out, Str("v"))
}

// Scenario 8: fold over a mapped sub-stream.
func TestScenarioFoldMap(t *testing.T) {
	in := NewList(Int(10), Int(20), Int(30))
	out := run(t, "[ .[] | . * 2 ]", in, nil)
	assertStream(t, out, NewList(Int(20), Int(40), Int(60)))
}

// Scenario 9: if/then/else.
func TestScenarioIfThenElse(t *testing.T) {
	out := run(t, `if . == 2 then "yes" else "no"`, Int(2), nil)
	assertStream(t, out, Str("yes"))
}

// Scenario 10: matches + membership combined with and.
func TestScenarioMatchesAndIn(t *testing.T) {
	in := dict("heading", Str("Fix bug"), "tags", strList("debug"))
	out := run(t, `select(.heading matches "^Fix" and "debug" in .tags) | .heading`, in, nil)
	assertStream(t, out, Str("Fix bug"))
}

// Universal invariant: comparisons against none.
func TestComparisonWithNone(t *testing.T) {
	cases := []struct {
		expr string
		want Value
	}{
		{"1 > none", Bool(false)},
		{"1 < none", Bool(false)},
		{"none > 1", Bool(false)},
		{"none < 1", Bool(false)},
		{"none <= none", Bool(true)},
		{"none >= none", Bool(true)},
		{"1 <= none", Bool(false)},
	}
	for _, c := range cases {
		out := run(t, c.expr, Int(0), nil)
		assertStream(t, out, c.want)
	}
}

// Universal invariant: `or` is value-preserving, `and` is boolean.
func TestOrIsValuePreserving(t *testing.T) {
	out := run(t, `none or "fallback"`, Int(0), nil)
	assertStream(t, out, Str("fallback"))

	out = run(t, `"left" or "right"`, Int(0), nil)
	assertStream(t, out, Str("left"))

	out = run(t, `1 and 2`, Int(0), nil)
	assertStream(t, out, Bool(true))
}

// Universal invariant: missing field/index is None.
func TestMissingIsNone(t *testing.T) {
	out := run(t, ".nope", dict("x", Int(1)), nil)
	assertStream(t, out, None{})

	out = run(t, ".[5]", NewList(Int(1), Int(2)), nil)
	assertStream(t, out, None{})
}

// Universal invariant: slice is total and clamps.
func TestSliceTotalClamped(t *testing.T) {
	in := NewList(Int(1), Int(2), Int(3))
	out := run(t, ".[1:100]", in, nil)
	assertStream(t, out, NewList(Int(2), Int(3)))

	out = run(t, ".[5:1]", in, nil)
	assertStream(t, out, NewList())
}

// Universal invariant: round-trip identity.
func TestIdentityRoundTrip(t *testing.T) {
	out := run(t, ".", Int(42), nil)
	assertStream(t, out, Int(42))
}

// Container-kind preservation for + and -.
func TestContainerKindPreservation(t *testing.T) {
	out := run(t, ". + 4", NewList(Int(1), Int(2)), nil)
	if _, ok := out[0].(*List); !ok {
		t.Fatalf("expected List, got %T", out[0])
	}

	out = run(t, ". - 2", NewSet(Int(1), Int(2), Int(3)), nil)
	if _, ok := out[0].(*Set); !ok {
		t.Fatalf("expected Set, got %T", out[0])
	}
}

func TestMaxMinIgnoreNone(t *testing.T) {
	in := NewList(Int(3), None{}, Int(1), None{})
	out := run(t, "max", in, nil)
	assertStream(t, out, Int(3))

	out = run(t, "min", in, nil)
	assertStream(t, out, Int(1))
}

func TestLengthFallsBackToNone(t *testing.T) {
	out := run(t, "length", Bool(true), nil)
	assertStream(t, out, None{})
}

func TestNotNegatesConditionStream(t *testing.T) {
	out := run(t, "not(. == 1)", Int(2), nil)
	assertStream(t, out, Bool(true))

	out = run(t, "not(. == 1)", Int(1), nil)
	assertStream(t, out, Bool(false))
}

func TestCoercionBuiltins(t *testing.T) {
	out := run(t, `int("42")`, Int(0), nil)
	assertStream(t, out, Int(42))

	out = run(t, `float("3.5")`, Int(0), nil)
	assertStream(t, out, Float(3.5))

	out = run(t, `bool("TRUE")`, Int(0), nil)
	assertStream(t, out, Bool(true))

	out = run(t, `str(1 + 1)`, Int(0), nil)
	assertStream(t, out, Str("2"))
}

func TestTimestampConstructor(t *testing.T) {
	out := run(t, `timestamp("<2024-01-15 09:00>")`, Int(0), nil)
	if len(out) != 1 {
		t.Fatalf("expected one result, got %d", len(out))
	}
	d, ok := out[0].(OrgDate)
	if !ok {
		t.Fatalf("expected OrgDate, got %T", out[0])
	}
	if d.Year != 2024 || d.Month != 1 || d.Day != 15 || !d.HasTime || d.Hour != 9 {
		t.Fatalf("unexpected OrgDate: %#v", d)
	}
}

func TestIterateOrgTree(t *testing.T) {
	child := &OrgNode{Heading: "child"}
	root := &OrgRootNode{File: "x.org", Children: []*OrgNode{child}}
	out := run(t, ".[] | .heading", root, nil)
	assertStream(t, out, Str("child"))
}

// Bracket access on a string indexes a single character and slices a
// substring, per the forgiving-access contract extended to Str.
func TestStringIndexAndSlice(t *testing.T) {
	out := run(t, ".[1]", Str("abc"), nil)
	assertStream(t, out, Str("b"))

	out = run(t, ".[10]", Str("abc"), nil)
	assertStream(t, out, None{})

	out = run(t, ".[1:3]", Str("abcde"), nil)
	assertStream(t, out, Str("bc"))
}

// Index/slice on a Tuple preserve tuple kind, same as List.
func TestTupleIndexAndSlice(t *testing.T) {
	in := &Tuple{Items: []Value{Int(1), Int(2), Int(3)}}
	out := run(t, ".[1]", in, nil)
	assertStream(t, out, Int(2))

	out = run(t, ".[0:2]", in, nil)
	assertStream(t, out, &Tuple{Items: []Value{Int(1), Int(2)}})
}

// Index/slice on an OrgRootNode treat it as a list of its top-level nodes.
func TestOrgRootIndexAndSlice(t *testing.T) {
	a := &OrgNode{Heading: "a"}
	b := &OrgNode{Heading: "b"}
	root := &OrgRootNode{File: "x.org", Children: []*OrgNode{a, b}}

	out := run(t, ".[1].heading", root, nil)
	assertStream(t, out, Str("b"))

	out = run(t, ".[0:1] | .[] | .heading", root, nil)
	assertStream(t, out, Str("a"))
}
