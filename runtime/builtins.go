package runtime

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/chazu/orgql/compiler"
)

type builtinFunc func(ctx *Context, v Value, args []Stage) (Stream, error)

type builtinEntry struct {
	arity int // -1 means "not checked here": the builtin checks its own argument count (timestamp, clock, repeated_task)
	fn    builtinFunc
}

var registry map[string]builtinEntry

func init() {
	registry = map[string]builtinEntry{
		"length":        {0, biLength},
		"reverse":       {0, biReverse},
		"unique":        {0, biUnique},
		"sum":           {0, biSum},
		"max":           {0, biMax},
		"min":           {0, biMin},
		"select":        {1, biSelect},
		"sort_by":       {1, biSortBy},
		"join":          {1, biJoin},
		"map":           {1, biMap},
		"type":          {0, biType},
		"not":           {1, biNot},
		"str":           {1, biStr},
		"int":           {1, biInt},
		"float":         {1, biFloat},
		"bool":          {1, biBool},
		"ts":            {1, biTs},
		"timestamp":     {-1, biTimestamp},
		"sha256":        {0, biSha256},
		"match":         {1, biMatch},
		"uuid":          {0, biUUID},
		"debug":         {0, biDebug},
		"clock":         {-1, biClock},
		"repeated_task": {-1, biRepeatedTask},
		"keys":          {0, biKeys},
		"values":        {0, biValues},
		"has":           {1, biHas},
		"contains":      {1, biContains},
		"flatten":       {0, biFlatten},
		"first":         {0, biFirst},
		"last":          {0, biLast},
		"empty":         {0, biEmpty},
		"any":           {1, biAny},
		"all":           {1, biAll},
		"add":           {0, biAdd},
		"todo":          {0, orgAccessor("todo")},
		"done":          {0, orgAccessor("done")},
		"category":      {0, orgAccessor("category")},
		"tags":          {0, orgAccessor("tags")},
		"priority":      {0, orgAccessor("priority")},
		"level":         {0, orgAccessor("level")},
	}
}

func compileFunctionCall(n *compiler.FunctionCall) (Stage, error) {
	entry, ok := registry[n.Name]
	if !ok {
		return nil, &compiler.CompileError{Pos: n.Pos, Msg: fmt.Sprintf("unknown function %q", n.Name)}
	}
	if entry.arity >= 0 && len(n.Args) != entry.arity {
		return nil, &compiler.CompileError{Pos: n.Pos, Msg: fmt.Sprintf("%s expects %d argument(s), got %d", n.Name, entry.arity, len(n.Args))}
	}
	argStages := make([]Stage, len(n.Args))
	for i, a := range n.Args {
		s, err := Compile(a)
		if err != nil {
			return nil, err
		}
		argStages[i] = s
	}
	fn := entry.fn
	return func(ctx *Context, v Value) (Stream, error) {
		return fn(ctx, v, argStages)
	}, nil
}

func items(v Value) ([]Value, bool) {
	switch t := v.(type) {
	case *List:
		return t.Items, true
	case *Tuple:
		return t.Items, true
	case *Set:
		return t.Items, true
	}
	return nil, false
}

func biLength(ctx *Context, v Value, args []Stage) (Stream, error) {
	switch t := v.(type) {
	case Str:
		return Stream{Int(len([]rune(string(t))))}, nil
	case *Dict:
		return Stream{Int(len(t.Keys()))}, nil
	case *OrgRootNode:
		return Stream{Int(len(t.Children))}, nil
	}
	if its, ok := items(v); ok {
		return Stream{Int(len(its))}, nil
	}
	return Stream{None{}}, nil
}

func biReverse(ctx *Context, v Value, args []Stage) (Stream, error) {
	switch t := v.(type) {
	case Str:
		runes := []rune(string(t))
		for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
			runes[i], runes[j] = runes[j], runes[i]
		}
		return Stream{Str(string(runes))}, nil
	case *List:
		out := make([]Value, len(t.Items))
		for i, it := range t.Items {
			out[len(out)-1-i] = it
		}
		return Stream{&List{Items: out}}, nil
	case *Tuple:
		out := make([]Value, len(t.Items))
		for i, it := range t.Items {
			out[len(out)-1-i] = it
		}
		return Stream{&Tuple{Items: out}}, nil
	}
	return nil, errf("reverse", "cannot reverse a %s", v.Kind())
}

func biUnique(ctx *Context, v Value, args []Stage) (Stream, error) {
	its, ok := items(v)
	if !ok {
		return nil, errf("unique", "cannot deduplicate a %s", v.Kind())
	}
	var out []Value
	for _, it := range its {
		if !containsValue(out, it) {
			out = append(out, it)
		}
	}
	return Stream{&List{Items: out}}, nil
}

func biSum(ctx *Context, v Value, args []Stage) (Stream, error) {
	its, ok := items(v)
	if !ok {
		return nil, errf("sum", "cannot sum a %s", v.Kind())
	}
	if len(its) == 0 {
		return Stream{Int(0)}, nil
	}
	acc := its[0]
	for _, it := range its[1:] {
		var err error
		acc, err = evalArith("+", acc, it)
		if err != nil {
			return nil, err
		}
	}
	return Stream{acc}, nil
}

func biAdd(ctx *Context, v Value, args []Stage) (Stream, error) {
	return biSum(ctx, v, args)
}

func biMax(ctx *Context, v Value, args []Stage) (Stream, error) { return extremum(v, 1) }
func biMin(ctx *Context, v Value, args []Stage) (Stream, error) { return extremum(v, -1) }

func extremum(v Value, want int) (Stream, error) {
	its, ok := items(v)
	if !ok {
		return nil, errf("max/min", "cannot compare elements of a %s", v.Kind())
	}
	var filtered []Value
	for _, it := range its {
		if _, isNone := it.(None); !isNone {
			filtered = append(filtered, it)
		}
	}
	if len(filtered) == 0 {
		return Stream{None{}}, nil
	}
	best := filtered[0]
	for _, it := range filtered[1:] {
		c, err := compareValues("max/min", it, best)
		if err != nil {
			return nil, err
		}
		if c == want {
			best = it
		}
	}
	return Stream{best}, nil
}

func biSelect(ctx *Context, v Value, args []Stage) (Stream, error) {
	cs, err := args[0](ctx, v)
	if err != nil {
		return nil, err
	}
	var out Stream
	for _, cv := range cs {
		if truthy(cv) {
			out = append(out, v)
		}
	}
	return out, nil
}

func biMap(ctx *Context, v Value, args []Stage) (Stream, error) {
	its, ok := items(v)
	if !ok {
		if d, ok := v.(*Dict); ok {
			for _, k := range d.Keys() {
				val, _ := d.Get(k)
				its = append(its, val)
			}
		} else {
			return nil, errf("map", "cannot map over a %s", v.Kind())
		}
	}
	var out []Value
	for _, it := range its {
		rs, err := args[0](ctx, it)
		if err != nil {
			return nil, err
		}
		out = append(out, rs...)
	}
	return Stream{&List{Items: out}}, nil
}

func biSortBy(ctx *Context, v Value, args []Stage) (Stream, error) {
	l, ok := v.(*List)
	if !ok {
		return nil, errf("sort_by", "cannot sort a %s", v.Kind())
	}
	keys := make([]Value, len(l.Items))
	for i, it := range l.Items {
		ks, err := args[0](ctx, it)
		if err != nil {
			return nil, err
		}
		if len(ks) == 0 {
			keys[i] = None{}
		} else {
			keys[i] = ks[0]
		}
	}
	sorted, err := sortByKey(l.Items, keys)
	if err != nil {
		return nil, err
	}
	return Stream{&List{Items: sorted}}, nil
}

func biJoin(ctx *Context, v Value, args []Stage) (Stream, error) {
	l, ok := v.(*List)
	if !ok {
		return nil, errf("join", "cannot join a %s", v.Kind())
	}
	seps, err := args[0](ctx, v)
	if err != nil {
		return nil, err
	}
	sep := ""
	if len(seps) > 0 {
		s, ok := seps[0].(Str)
		if !ok {
			return nil, errf("join", "separator must be a string")
		}
		sep = string(s)
	}
	out := ""
	for i, it := range l.Items {
		s, ok := it.(Str)
		if !ok {
			return nil, errf("join", "cannot join a list containing a %s", it.Kind())
		}
		if i > 0 {
			out += sep
		}
		out += string(s)
	}
	return Stream{Str(out)}, nil
}

func biType(ctx *Context, v Value, args []Stage) (Stream, error) {
	return Stream{Str(v.Kind())}, nil
}

func biNot(ctx *Context, v Value, args []Stage) (Stream, error) {
	cs, err := args[0](ctx, v)
	if err != nil {
		return nil, err
	}
	any := false
	for _, cv := range cs {
		if truthy(cv) {
			any = true
			break
		}
	}
	return Stream{Bool(!any)}, nil
}

// biStr, biInt, biFloat, biBool, and biTs all share a shape: evaluate the
// single argument expression against the current item, then coerce each
// resulting value independently.
func biStr(ctx *Context, v Value, args []Stage) (Stream, error) {
	vals, err := args[0](ctx, v)
	if err != nil {
		return nil, err
	}
	out := make(Stream, len(vals))
	for i, val := range vals {
		if s, ok := val.(Str); ok {
			out[i] = s
		} else {
			out[i] = Str(String(val))
		}
	}
	return out, nil
}

func biInt(ctx *Context, v Value, args []Stage) (Stream, error) {
	vals, err := args[0](ctx, v)
	if err != nil {
		return nil, err
	}
	out := make(Stream, len(vals))
	for i, val := range vals {
		switch t := val.(type) {
		case Int:
			out[i] = t
		case Str:
			n, err := strconv.ParseInt(string(t), 10, 64)
			if err != nil {
				return nil, errf("int", "cannot parse %q as an integer", string(t))
			}
			out[i] = Int(n)
		default:
			return nil, errf("int", "int accepts integer and string values, got %s", val.Kind())
		}
	}
	return out, nil
}

func biFloat(ctx *Context, v Value, args []Stage) (Stream, error) {
	vals, err := args[0](ctx, v)
	if err != nil {
		return nil, err
	}
	out := make(Stream, len(vals))
	for i, val := range vals {
		switch t := val.(type) {
		case Float:
			out[i] = t
		case Str:
			f, err := strconv.ParseFloat(string(t), 64)
			if err != nil {
				return nil, errf("float", "cannot parse %q as a float", string(t))
			}
			out[i] = Float(f)
		default:
			return nil, errf("float", "float accepts float and string values, got %s", val.Kind())
		}
	}
	return out, nil
}

func biBool(ctx *Context, v Value, args []Stage) (Stream, error) {
	vals, err := args[0](ctx, v)
	if err != nil {
		return nil, err
	}
	out := make(Stream, len(vals))
	for i, val := range vals {
		switch t := val.(type) {
		case Bool:
			out[i] = t
		case Str:
			switch strings.ToLower(string(t)) {
			case "true":
				out[i] = Bool(true)
			case "false":
				out[i] = Bool(false)
			default:
				return nil, errf("bool", "cannot parse %q as a bool", string(t))
			}
		default:
			return nil, errf("bool", "bool accepts boolean and string values, got %s", val.Kind())
		}
	}
	return out, nil
}

func biTs(ctx *Context, v Value, args []Stage) (Stream, error) {
	vals, err := args[0](ctx, v)
	if err != nil {
		return nil, err
	}
	out := make(Stream, len(vals))
	for i, val := range vals {
		d, err := parseOrgDateValue(val)
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}

var orgDatePattern = regexp.MustCompile(
	`^([\[<])?(\d{4})-(\d{2})-(\d{2})(?:\s+[A-Za-z]+)?(?:\s+(\d{2}):(\d{2})(?:-(\d{2}):(\d{2}))?)?([\]>])?$`,
)

// parseOrgDateValue coerces a runtime value (an OrgDate passed through
// unchanged, or a string in Org timestamp syntax) into an OrgDate.
func parseOrgDateValue(v Value) (OrgDate, error) {
	if d, ok := v.(OrgDate); ok {
		return d, nil
	}
	s, ok := v.(Str)
	if !ok {
		return OrgDate{}, errf("timestamp", "timestamp values must be a string or org_date, got %s", v.Kind())
	}
	return parseOrgDateString(strings.TrimSpace(string(s)))
}

// parseOrgDateString parses Org timestamp syntax, e.g. "<2024-01-15 Mon
// 09:00>", "[2024-01-15]", or "2024-01-15 09:00-11:00" (a same-day time
// range). A timestamp with no enclosing brackets is treated as active.
func parseOrgDateString(s string) (OrgDate, error) {
	m := orgDatePattern.FindStringSubmatch(s)
	if m == nil {
		return OrgDate{}, errf("timestamp", "cannot parse timestamp %q", s)
	}
	open, close := m[1], m[9]
	if (open == "[") != (close == "]") && (open != "" || close != "") {
		return OrgDate{}, errf("timestamp", "mismatched brackets in timestamp %q", s)
	}
	d := OrgDate{Active: open != "["}
	d.Year = atoiMust(m[2])
	d.Month = atoiMust(m[3])
	d.Day = atoiMust(m[4])
	if m[5] != "" {
		d.HasTime = true
		d.Hour = atoiMust(m[5])
		d.Minute = atoiMust(m[6])
		if m[7] != "" {
			d.HasEnd = true
			d.EndYear, d.EndMonth, d.EndDay = d.Year, d.Month, d.Day
			d.EndHasTime = true
			d.EndHour = atoiMust(m[7])
			d.EndMinute = atoiMust(m[8])
		}
	}
	return d, nil
}

func atoiMust(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// asOrgDateOrNone coerces an optional argument value (None or a timestamp)
// into (date, present, error).
func asOrgDateOrNone(v Value) (OrgDate, bool, error) {
	if _, ok := v.(None); ok {
		return OrgDate{}, false, nil
	}
	d, err := parseOrgDateValue(v)
	return d, true, err
}

// asActiveOrNone coerces an optional boolean argument into (active, present,
// error); callers fall back to a default active value when not present.
func asActiveOrNone(v Value) (bool, bool, error) {
	if _, ok := v.(None); ok {
		return false, false, nil
	}
	b, ok := v.(Bool)
	if !ok {
		return false, false, errf("timestamp", "active value must be a boolean or none, got %s", v.Kind())
	}
	return bool(b), true, nil
}

// asStateOrNone coerces an optional todo-state string argument into
// (state, present, error).
func asStateOrNone(v Value, field string) (string, bool, error) {
	if _, ok := v.(None); ok {
		return "", false, nil
	}
	s, ok := v.(Str)
	if !ok {
		return "", false, errf("timestamp", "%s value must be a string or none, got %s", field, v.Kind())
	}
	return string(s), true, nil
}

func firstOrNone(vals Stream) Value {
	if len(vals) == 0 {
		return None{}
	}
	return vals[0]
}

// biTimestamp constructs an OrgDate from 1-3 arguments: a start timestamp,
// an optional end timestamp (or none), and an optional active flag that
// defaults to the start timestamp's own active-ness.
func biTimestamp(ctx *Context, v Value, args []Stage) (Stream, error) {
	if len(args) < 1 || len(args) > 3 {
		return nil, errf("timestamp", "timestamp expects 1, 2, or 3 argument(s), got %d", len(args))
	}
	startVals, err := args[0](ctx, v)
	if err != nil {
		return nil, err
	}
	start, err := parseOrgDateValue(firstOrNone(startVals))
	if err != nil {
		return nil, err
	}
	d := OrgDate{
		Year: start.Year, Month: start.Month, Day: start.Day,
		Hour: start.Hour, Minute: start.Minute, HasTime: start.HasTime,
		Active: start.Active,
	}
	if len(args) >= 2 {
		endVals, err := args[1](ctx, v)
		if err != nil {
			return nil, err
		}
		end, present, err := asOrgDateOrNone(firstOrNone(endVals))
		if err != nil {
			return nil, err
		}
		if present {
			d.HasEnd = true
			d.EndYear, d.EndMonth, d.EndDay = end.Year, end.Month, end.Day
			d.EndHasTime = end.HasTime
			d.EndHour, d.EndMinute = end.Hour, end.Minute
		}
	}
	if len(args) == 3 {
		activeVals, err := args[2](ctx, v)
		if err != nil {
			return nil, err
		}
		active, present, err := asActiveOrNone(firstOrNone(activeVals))
		if err != nil {
			return nil, err
		}
		if present {
			d.Active = active
		}
	}
	return Stream{d}, nil
}

func biSha256(ctx *Context, v Value, args []Stage) (Stream, error) {
	s, ok := v.(Str)
	if !ok {
		return nil, errf("sha256", "cannot hash a %s", v.Kind())
	}
	sum := sha256.Sum256([]byte(string(s)))
	return Stream{Str(hex.EncodeToString(sum[:]))}, nil
}

func biMatch(ctx *Context, v Value, args []Stage) (Stream, error) {
	ps, err := args[0](ctx, v)
	if err != nil {
		return nil, err
	}
	if len(ps) == 0 {
		return Stream{Bool(false)}, nil
	}
	res, err := evalMatches(v, ps[0])
	if err != nil {
		return nil, err
	}
	return Stream{res}, nil
}

func biUUID(ctx *Context, v Value, args []Stage) (Stream, error) {
	return Stream{Str(uuid.New().String())}, nil
}

func biDebug(ctx *Context, v Value, args []Stage) (Stream, error) {
	fmt.Fprintf(os.Stderr, "debug: %s\n", String(v))
	return Stream{v}, nil
}

// biClock constructs an OrgDateClock from a start timestamp, an end
// timestamp, and an optional active flag (2-3 arguments).
func biClock(ctx *Context, v Value, args []Stage) (Stream, error) {
	if len(args) < 2 || len(args) > 3 {
		return nil, errf("clock", "clock expects 2 or 3 argument(s), got %d", len(args))
	}
	startVals, err := args[0](ctx, v)
	if err != nil {
		return nil, err
	}
	start, err := parseOrgDateValue(firstOrNone(startVals))
	if err != nil {
		return nil, err
	}
	endVals, err := args[1](ctx, v)
	if err != nil {
		return nil, err
	}
	end, err := parseOrgDateValue(firstOrNone(endVals))
	if err != nil {
		return nil, err
	}
	c := OrgDateClock{Start: start, End: end, HasEnd: true, Active: true}
	c.Duration = int(dateOrdinal(end) - dateOrdinal(start))
	if len(args) == 3 {
		activeVals, err := args[2](ctx, v)
		if err != nil {
			return nil, err
		}
		active, present, err := asActiveOrNone(firstOrNone(activeVals))
		if err != nil {
			return nil, err
		}
		if present {
			c.Active = active
		}
	}
	return Stream{c}, nil
}

// biRepeatedTask constructs an OrgDateRepeatedTask from a fire timestamp,
// a before-state, an after-state, and an optional active flag (3-4
// arguments).
func biRepeatedTask(ctx *Context, v Value, args []Stage) (Stream, error) {
	if len(args) < 3 || len(args) > 4 {
		return nil, errf("repeated_task", "repeated_task expects 3 or 4 argument(s), got %d", len(args))
	}
	tsVals, err := args[0](ctx, v)
	if err != nil {
		return nil, err
	}
	ts, err := parseOrgDateValue(firstOrNone(tsVals))
	if err != nil {
		return nil, err
	}
	beforeVals, err := args[1](ctx, v)
	if err != nil {
		return nil, err
	}
	before, hasBefore, err := asStateOrNone(firstOrNone(beforeVals), "before")
	if err != nil {
		return nil, err
	}
	afterVals, err := args[2](ctx, v)
	if err != nil {
		return nil, err
	}
	after, hasAfter, err := asStateOrNone(firstOrNone(afterVals), "after")
	if err != nil {
		return nil, err
	}
	r := OrgDateRepeatedTask{
		Timestamp: ts,
		Before:    before, HasBefore: hasBefore,
		After: after, HasAfter: hasAfter,
		Active: true,
	}
	if len(args) == 4 {
		activeVals, err := args[3](ctx, v)
		if err != nil {
			return nil, err
		}
		active, present, err := asActiveOrNone(firstOrNone(activeVals))
		if err != nil {
			return nil, err
		}
		if present {
			r.Active = active
		}
	}
	return Stream{r}, nil
}

func biKeys(ctx *Context, v Value, args []Stage) (Stream, error) {
	d, ok := v.(*Dict)
	if !ok {
		return nil, errf("keys", "cannot take keys of a %s", v.Kind())
	}
	out := make([]Value, len(d.Keys()))
	for i, k := range d.Keys() {
		out[i] = Str(k)
	}
	return Stream{&List{Items: out}}, nil
}

func biValues(ctx *Context, v Value, args []Stage) (Stream, error) {
	d, ok := v.(*Dict)
	if !ok {
		return nil, errf("values", "cannot take values of a %s", v.Kind())
	}
	out := make([]Value, 0, len(d.Keys()))
	for _, k := range d.Keys() {
		val, _ := d.Get(k)
		out = append(out, val)
	}
	return Stream{&List{Items: out}}, nil
}

func biHas(ctx *Context, v Value, args []Stage) (Stream, error) {
	ks, err := args[0](ctx, v)
	if err != nil {
		return nil, err
	}
	if len(ks) == 0 {
		return Stream{Bool(false)}, nil
	}
	key := ks[0]
	switch t := v.(type) {
	case *Dict:
		s, ok := key.(Str)
		if !ok {
			return Stream{Bool(false)}, nil
		}
		_, found := t.Get(string(s))
		return Stream{Bool(found)}, nil
	case *List:
		i, ok := key.(Int)
		if !ok {
			return Stream{Bool(false)}, nil
		}
		return Stream{Bool(i >= 0 && int(i) < len(t.Items))}, nil
	}
	return Stream{Bool(false)}, nil
}

func biContains(ctx *Context, v Value, args []Stage) (Stream, error) {
	xs, err := args[0](ctx, v)
	if err != nil {
		return nil, err
	}
	if len(xs) == 0 {
		return Stream{Bool(false)}, nil
	}
	res, err := evalMembership("contains", xs[0], v)
	if err != nil {
		return nil, err
	}
	return Stream{res}, nil
}

func biFlatten(ctx *Context, v Value, args []Stage) (Stream, error) {
	l, ok := v.(*List)
	if !ok {
		return nil, errf("flatten", "cannot flatten a %s", v.Kind())
	}
	var out []Value
	for _, it := range l.Items {
		if sub, ok := it.(*List); ok {
			out = append(out, sub.Items...)
		} else {
			out = append(out, it)
		}
	}
	return Stream{&List{Items: out}}, nil
}

func biFirst(ctx *Context, v Value, args []Stage) (Stream, error) {
	its, ok := items(v)
	if !ok {
		return nil, errf("first", "cannot take first of a %s", v.Kind())
	}
	if len(its) == 0 {
		return Stream{None{}}, nil
	}
	return Stream{its[0]}, nil
}

func biLast(ctx *Context, v Value, args []Stage) (Stream, error) {
	its, ok := items(v)
	if !ok {
		return nil, errf("last", "cannot take last of a %s", v.Kind())
	}
	if len(its) == 0 {
		return Stream{None{}}, nil
	}
	return Stream{its[len(its)-1]}, nil
}

func biEmpty(ctx *Context, v Value, args []Stage) (Stream, error) {
	return Stream{}, nil
}

func biAny(ctx *Context, v Value, args []Stage) (Stream, error) {
	its, ok := items(v)
	if !ok {
		return nil, errf("any", "cannot test elements of a %s", v.Kind())
	}
	for _, it := range its {
		rs, err := args[0](ctx, it)
		if err != nil {
			return nil, err
		}
		for _, r := range rs {
			if truthy(r) {
				return Stream{Bool(true)}, nil
			}
		}
	}
	return Stream{Bool(false)}, nil
}

func biAll(ctx *Context, v Value, args []Stage) (Stream, error) {
	its, ok := items(v)
	if !ok {
		return nil, errf("all", "cannot test elements of a %s", v.Kind())
	}
	for _, it := range its {
		rs, err := args[0](ctx, it)
		if err != nil {
			return nil, err
		}
		for _, r := range rs {
			if !truthy(r) {
				return Stream{Bool(false)}, nil
			}
		}
	}
	return Stream{Bool(true)}, nil
}

// orgAccessor builds a 0-arg builtin delegating to the named OrgNode field,
// the way `.todo`/`.done`/etc would via FieldAccess, for use without a `.`.
func orgAccessor(name string) builtinFunc {
	return func(ctx *Context, v Value, args []Stage) (Stream, error) {
		fv, err := fieldGet(v, name)
		if err != nil {
			return nil, err
		}
		return Stream{fv}, nil
	}
}
