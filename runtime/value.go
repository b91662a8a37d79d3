// Package runtime implements the compiled-stage evaluator, its heterogeneous
// value model, and the builtin function registry for the query language.
package runtime

import "fmt"

// Value is any runtime value the evaluator can produce or consume: a scalar,
// a container, or an Org-domain value parsed out of an archive.
type Value interface {
	// Kind returns the name reported by the `type` builtin.
	Kind() string
}

// None is the absence of a value. Field/index access that misses always
// yields None rather than an error.
type None struct{}

func (None) Kind() string { return "none" }

// Bool is a boolean scalar.
type Bool bool

func (Bool) Kind() string { return "bool" }

// Int is a 64-bit signed integer scalar.
type Int int64

func (Int) Kind() string { return "int" }

// Float is a 64-bit floating point scalar.
type Float float64

func (Float) Kind() string { return "float" }

// Str is a UTF-8 string scalar.
type Str string

func (Str) Kind() string { return "str" }

// List is an ordered sequence that allows duplicate elements.
type List struct {
	Items []Value
}

func (*List) Kind() string { return "list" }

// NewList builds a List from the given items.
func NewList(items ...Value) *List {
	return &List{Items: items}
}

// Tuple is a fixed-arity ordered sequence produced by comma expressions.
type Tuple struct {
	Items []Value
}

func (*Tuple) Kind() string { return "tuple" }

// Set is an unordered collection with unique elements (by structural
// equality). Insertion order is retained internally only to keep iteration
// deterministic; it is not part of Set's semantics.
type Set struct {
	Items []Value
}

func (*Set) Kind() string { return "set" }

// NewSet builds a Set, discarding duplicate elements.
func NewSet(items ...Value) *Set {
	s := &Set{}
	for _, it := range items {
		s.Add(it)
	}
	return s
}

// Add inserts v into the set if it is not already present.
func (s *Set) Add(v Value) {
	for _, existing := range s.Items {
		if Equal(existing, v) {
			return
		}
	}
	s.Items = append(s.Items, v)
}

// Contains reports whether v is a member of the set.
func (s *Set) Contains(v Value) bool {
	for _, existing := range s.Items {
		if Equal(existing, v) {
			return true
		}
	}
	return false
}

// Dict is an insertion-ordered, string-keyed mapping.
type Dict struct {
	keys   []string
	values map[string]Value
}

func (*Dict) Kind() string { return "dict" }

// NewDict builds an empty Dict.
func NewDict() *Dict {
	return &Dict{values: map[string]Value{}}
}

// Set assigns key to v, appending key to the insertion order the first time
// it is used.
func (d *Dict) Set(key string, v Value) {
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = v
}

// Get retrieves the value for key. The forgiving-access rule means callers
// should treat a missing key as None, not as an error.
func (d *Dict) Get(key string) (Value, bool) {
	v, ok := d.values[key]
	return v, ok
}

// Keys returns the dict's keys in insertion order.
func (d *Dict) Keys() []string {
	return d.keys
}

// Clone makes a shallow copy of d, safe for field-assignment to mutate.
func (d *Dict) Clone() *Dict {
	nd := NewDict()
	for _, k := range d.keys {
		nd.Set(k, d.values[k])
	}
	return nd
}

// OrgNode represents a single heading in an Org-mode outline.
type OrgNode struct {
	Heading       string
	Level         int
	Todo          string // keyword text, e.g. "TODO"; empty if the node isn't a task
	Done          bool
	Priority      string // "A", "B", "C", or "" if unset
	Tags          []string
	Category      string
	Properties    map[string]string
	Body          string
	Scheduled     *OrgDate
	Deadline      *OrgDate
	Closed        *OrgDate
	Clocks        []OrgDateClock
	RepeatedTasks []OrgDateRepeatedTask
	Children      []*OrgNode

	Parent *OrgNode
}

func (*OrgNode) Kind() string { return "org_node" }

// OrgRootNode is the synthetic root of a parsed org file's node tree.
type OrgRootNode struct {
	File     string
	TodoKeys []string
	DoneKeys []string
	Children []*OrgNode
}

func (*OrgRootNode) Kind() string { return "org_root_node" }

// OrgDate is a single Org-mode timestamp, with an optional end timestamp
// (a range like <2024-01-15 10:00-11:00>) and an active/inactive flag. All
// fields are plain scalars (no pointers) so OrgDate stays comparable with
// "==", which backs structural Equal and Set/Dict keying.
type OrgDate struct {
	Year, Month, Day int
	Hour, Minute     int
	HasTime          bool
	Active           bool // true for <...>, false for [...]

	HasEnd                    bool
	EndYear, EndMonth, EndDay int
	EndHour, EndMinute        int
	EndHasTime                bool
}

func (OrgDate) Kind() string { return "org_date" }

// OrgDateClock is a single CLOCK: entry logging time spent on a task. End is
// absent while the clock is still running.
type OrgDateClock struct {
	Start    OrgDate
	End      OrgDate
	HasEnd   bool
	Active   bool
	Duration int // minutes; valid only when HasEnd is true
}

func (OrgDateClock) Kind() string { return "org_date_clock" }

// OrgDateRepeatedTask is a log entry recording a repeating task's completion:
// the timestamp it fired at, and the todo-state transition it caused, e.g.
// "- State \"DONE\" from \"TODO\" [2024-01-15 Mon 09:00]".
type OrgDateRepeatedTask struct {
	Timestamp OrgDate
	Before    string
	HasBefore bool
	After     string
	HasAfter  bool
	Active    bool
}

func (OrgDateRepeatedTask) Kind() string { return "org_date_repeated_task" }

// Equal reports structural equality between two values, used by Set
// membership, `unique`, and the `==`/`!=` operators.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case None:
		_, ok := b.(None)
		return ok
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Int:
		switch bv := b.(type) {
		case Int:
			return av == bv
		case Float:
			return float64(av) == float64(bv)
		}
		return false
	case Float:
		switch bv := b.(type) {
		case Int:
			return float64(av) == float64(bv)
		case Float:
			return av == bv
		}
		return false
	case Str:
		bv, ok := b.(Str)
		return ok && av == bv
	case *List:
		bv, ok := b.(*List)
		return ok && equalSlice(av.Items, bv.Items)
	case *Tuple:
		bv, ok := b.(*Tuple)
		return ok && equalSlice(av.Items, bv.Items)
	case *Set:
		bv, ok := b.(*Set)
		if !ok || len(av.Items) != len(bv.Items) {
			return false
		}
		for _, item := range av.Items {
			if !bv.Contains(item) {
				return false
			}
		}
		return true
	case *Dict:
		bv, ok := b.(*Dict)
		if !ok || len(av.keys) != len(bv.keys) {
			return false
		}
		for _, k := range av.keys {
			bvVal, ok := bv.Get(k)
			if !ok || !Equal(av.values[k], bvVal) {
				return false
			}
		}
		return true
	case OrgDate:
		bv, ok := b.(OrgDate)
		return ok && av == bv
	case OrgDateClock:
		bv, ok := b.(OrgDateClock)
		return ok && av == bv
	case OrgDateRepeatedTask:
		bv, ok := b.(OrgDateRepeatedTask)
		return ok && av == bv
	}
	return false
}

func equalSlice(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// String renders a value for display, matching the CLI's value-rendering
// contract: none, booleans and numbers print bare, strings print
// double-quoted, and containers render jq-ish literal syntax.
func String(v Value) string {
	switch t := v.(type) {
	case None:
		return "none"
	case Bool:
		if bool(t) {
			return "true"
		}
		return "false"
	case Int:
		return fmt.Sprintf("%d", int64(t))
	case Float:
		return fmt.Sprintf("%g", float64(t))
	case Str:
		return fmt.Sprintf("%q", string(t))
	case *List:
		return renderSeq("[", "]", t.Items)
	case *Tuple:
		return renderSeq("(", ")", t.Items)
	case *Set:
		return renderSeq("{", "}", t.Items)
	case *Dict:
		out := "{"
		for i, k := range t.keys {
			if i > 0 {
				out += ", "
			}
			v, _ := t.Get(k)
			out += fmt.Sprintf("%q: %s", k, String(v))
		}
		return out + "}"
	case *OrgNode:
		return fmt.Sprintf("<org_node %q>", t.Heading)
	case *OrgRootNode:
		return fmt.Sprintf("<org_root_node %q>", t.File)
	case OrgDate:
		open, close := "<", ">"
		if !t.Active {
			open, close = "[", "]"
		}
		s := fmt.Sprintf("%s%04d-%02d-%02d", open, t.Year, t.Month, t.Day)
		if t.HasTime {
			s += fmt.Sprintf(" %02d:%02d", t.Hour, t.Minute)
		}
		if t.HasEnd {
			s += fmt.Sprintf("-%04d-%02d-%02d", t.EndYear, t.EndMonth, t.EndDay)
			if t.EndHasTime {
				s += fmt.Sprintf(" %02d:%02d", t.EndHour, t.EndMinute)
			}
		}
		return s + close
	case OrgDateClock:
		s := fmt.Sprintf("CLOCK: %s", String(t.Start))
		if t.HasEnd {
			s += fmt.Sprintf("--%s => %02d:%02d", String(t.End), t.Duration/60, t.Duration%60)
		}
		return s
	case OrgDateRepeatedTask:
		before, after := "none", "none"
		if t.HasBefore {
			before = t.Before
		}
		if t.HasAfter {
			after = t.After
		}
		return fmt.Sprintf("- State %q from %q [%s]", after, before, String(t.Timestamp))
	}
	return fmt.Sprintf("%v", v)
}

func renderSeq(open, close string, items []Value) string {
	out := open
	for i, it := range items {
		if i > 0 {
			out += ", "
		}
		out += String(it)
	}
	return out + close
}
