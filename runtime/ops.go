package runtime

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// truthy implements the boolean-coercion rule used by `and`/`or`/`not` and
// by `if`/`select` conditions: everything is truthy except none and false.
func truthy(v Value) bool {
	switch t := v.(type) {
	case None:
		return false
	case Bool:
		return bool(t)
	default:
		return true
	}
}

func fieldGet(v Value, name string) (Value, error) {
	switch t := v.(type) {
	case None:
		return None{}, nil
	case *Dict:
		if val, ok := t.Get(name); ok {
			return val, nil
		}
		return None{}, nil
	case *OrgNode:
		return orgNodeField(t, name)
	case *OrgRootNode:
		return orgRootField(t, name)
	default:
		return None{}, nil
	}
}

func orgNodeField(n *OrgNode, name string) (Value, error) {
	switch name {
	case "heading":
		return Str(n.Heading), nil
	case "level":
		return Int(n.Level), nil
	case "todo":
		if n.Todo == "" {
			return None{}, nil
		}
		return Str(n.Todo), nil
	case "done":
		return Bool(n.Done), nil
	case "priority":
		if n.Priority == "" {
			return None{}, nil
		}
		return Str(n.Priority), nil
	case "tags":
		items := make([]Value, len(n.Tags))
		for i, t := range n.Tags {
			items[i] = Str(t)
		}
		return NewSet(items...), nil
	case "category":
		if n.Category == "" {
			return None{}, nil
		}
		return Str(n.Category), nil
	case "properties":
		d := NewDict()
		for k, v := range n.Properties {
			d.Set(k, Str(v))
		}
		return d, nil
	case "body":
		return Str(n.Body), nil
	case "scheduled":
		if n.Scheduled == nil {
			return None{}, nil
		}
		return *n.Scheduled, nil
	case "deadline":
		if n.Deadline == nil {
			return None{}, nil
		}
		return *n.Deadline, nil
	case "closed":
		if n.Closed == nil {
			return None{}, nil
		}
		return *n.Closed, nil
	case "clocks":
		items := make([]Value, len(n.Clocks))
		for i, c := range n.Clocks {
			items[i] = c
		}
		return &List{Items: items}, nil
	case "repeated_tasks":
		items := make([]Value, len(n.RepeatedTasks))
		for i, r := range n.RepeatedTasks {
			items[i] = r
		}
		return &List{Items: items}, nil
	case "children":
		items := make([]Value, len(n.Children))
		for i, c := range n.Children {
			items[i] = c
		}
		return &List{Items: items}, nil
	case "parent":
		if n.Parent == nil {
			return None{}, nil
		}
		return n.Parent, nil
	default:
		return None{}, nil
	}
}

func orgRootField(r *OrgRootNode, name string) (Value, error) {
	switch name {
	case "file":
		return Str(r.File), nil
	case "todo_keys":
		items := make([]Value, len(r.TodoKeys))
		for i, k := range r.TodoKeys {
			items[i] = Str(k)
		}
		return &List{Items: items}, nil
	case "done_keys":
		items := make([]Value, len(r.DoneKeys))
		for i, k := range r.DoneKeys {
			items[i] = Str(k)
		}
		return &List{Items: items}, nil
	case "children":
		items := make([]Value, len(r.Children))
		for i, c := range r.Children {
			items[i] = c
		}
		return &List{Items: items}, nil
	default:
		return None{}, nil
	}
}

func bracketGet(v Value, key Value) (Value, error) {
	switch k := key.(type) {
	case Str:
		return fieldGet(v, string(k))
	case Int:
		return indexGet(v, int64(k))
	default:
		return nil, errf("[]", "bracket key must be a string or integer, got %s", key.Kind())
	}
}

func indexGet(v Value, idx int64) (Value, error) {
	switch t := v.(type) {
	case *List:
		return indexInto(t.Items, idx)
	case *Tuple:
		return indexInto(t.Items, idx)
	case *OrgRootNode:
		items := make([]Value, len(t.Children))
		for i, c := range t.Children {
			items[i] = c
		}
		return indexInto(items, idx)
	case Str:
		runes := []rune(string(t))
		if idx < 0 || idx >= int64(len(runes)) {
			return None{}, nil
		}
		return Str(string(runes[idx])), nil
	case None:
		return None{}, nil
	default:
		return nil, errf("[]", "cannot index a %s", v.Kind())
	}
}

func indexInto(items []Value, idx int64) (Value, error) {
	if idx < 0 || idx >= int64(len(items)) {
		return None{}, nil
	}
	return items[idx], nil
}

func clampBounds(n int, start, end *int64) (int, int) {
	lo := 0
	if start != nil {
		lo = int(*start)
	}
	hi := n
	if end != nil {
		hi = int(*end)
	}
	if lo < 0 {
		lo = 0
	}
	if hi > n {
		hi = n
	}
	if lo > n {
		lo = n
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

func sliceGet(v Value, start, end *int64) (Value, error) {
	switch t := v.(type) {
	case *List:
		lo, hi := clampBounds(len(t.Items), start, end)
		out := make([]Value, hi-lo)
		copy(out, t.Items[lo:hi])
		return &List{Items: out}, nil
	case *Tuple:
		lo, hi := clampBounds(len(t.Items), start, end)
		out := make([]Value, hi-lo)
		copy(out, t.Items[lo:hi])
		return &Tuple{Items: out}, nil
	case *OrgRootNode:
		lo, hi := clampBounds(len(t.Children), start, end)
		out := make([]Value, hi-lo)
		for i, c := range t.Children[lo:hi] {
			out[i] = c
		}
		return &List{Items: out}, nil
	case Str:
		runes := []rune(string(t))
		lo, hi := clampBounds(len(runes), start, end)
		return Str(string(runes[lo:hi])), nil
	case None:
		return None{}, nil
	default:
		return nil, errf("[:]", "cannot slice a %s", v.Kind())
	}
}

func iterate(v Value) (Stream, error) {
	switch t := v.(type) {
	case *List:
		return Stream(t.Items), nil
	case *Tuple:
		return Stream(t.Items), nil
	case *Set:
		return Stream(t.Items), nil
	case *Dict:
		out := make(Stream, 0, len(t.Keys()))
		for _, k := range t.Keys() {
			val, _ := t.Get(k)
			out = append(out, val)
		}
		return out, nil
	case None:
		return Stream{}, nil
	case *OrgRootNode:
		out := make(Stream, len(t.Children))
		for i, c := range t.Children {
			out[i] = c
		}
		return out, nil
	case *OrgNode:
		out := make(Stream, len(t.Children))
		for i, c := range t.Children {
			out[i] = c
		}
		return out, nil
	default:
		return nil, errf("[]", "cannot iterate over a %s", v.Kind())
	}
}

// compareCategory classifies a value for sort_by/max/min/ordering-comparison
// purposes. Mixed categories are a runtime error.
func compareCategory(v Value) (string, bool) {
	switch v.(type) {
	case Int, Float:
		return "number", true
	case Str:
		return "string", true
	case OrgDate:
		return "org_date", true
	default:
		return "", false
	}
}

func numberOf(v Value) float64 {
	switch t := v.(type) {
	case Int:
		return float64(t)
	case Float:
		return float64(t)
	}
	return 0
}

func dateOrdinal(d OrgDate) int64 {
	// Minutes since a fixed epoch; good enough for total ordering.
	days := int64(d.Year)*372 + int64(d.Month)*31 + int64(d.Day)
	minutes := days * 24 * 60
	if d.HasTime {
		minutes += int64(d.Hour)*60 + int64(d.Minute)
	}
	return minutes
}

// compareValues orders a and b within a single comparable category. It
// returns an error if a and b belong to different categories.
func compareValues(op string, a, b Value) (int, error) {
	ca, ok := compareCategory(a)
	if !ok {
		return 0, errf(op, "%s is not comparable", a.Kind())
	}
	cb, ok := compareCategory(b)
	if !ok {
		return 0, errf(op, "%s is not comparable", b.Kind())
	}
	if ca != cb {
		return 0, errf(op, "cannot compare %s with %s", ca, cb)
	}
	switch ca {
	case "number":
		af, bf := numberOf(a), numberOf(b)
		switch {
		case af < bf:
			return -1, nil
		case af > bf:
			return 1, nil
		default:
			return 0, nil
		}
	case "string":
		return strings.Compare(string(a.(Str)), string(b.(Str))), nil
	case "org_date":
		ao, bo := dateOrdinal(a.(OrgDate)), dateOrdinal(b.(OrgDate))
		switch {
		case ao < bo:
			return -1, nil
		case ao > bo:
			return 1, nil
		default:
			return 0, nil
		}
	}
	return 0, nil
}

func bothInt(a, b Value) (Int, Int, bool) {
	ai, ok1 := a.(Int)
	bi, ok2 := b.(Int)
	return ai, bi, ok1 && ok2
}

func evalArith(op string, a, b Value) (Value, error) {
	switch op {
	case "+":
		if ai, bi, ok := bothInt(a, b); ok {
			return ai + bi, nil
		}
		if isNumeric(a) && isNumeric(b) {
			return Float(numberOf(a) + numberOf(b)), nil
		}
		if as, ok := a.(Str); ok {
			if bs, ok := b.(Str); ok {
				return as + bs, nil
			}
		}
		if al, ok := a.(*List); ok {
			if bl, ok := b.(*List); ok {
				items := append(append([]Value{}, al.Items...), bl.Items...)
				return &List{Items: items}, nil
			}
			items := append(append([]Value{}, al.Items...), b)
			return &List{Items: items}, nil
		}
		if at, ok := a.(*Tuple); ok {
			if bt, ok := b.(*Tuple); ok {
				items := append(append([]Value{}, at.Items...), bt.Items...)
				return &Tuple{Items: items}, nil
			}
			items := append(append([]Value{}, at.Items...), b)
			return &Tuple{Items: items}, nil
		}
		if ad, ok := a.(*Dict); ok {
			if bd, ok := b.(*Dict); ok {
				out := ad.Clone()
				for _, k := range bd.Keys() {
					v, _ := bd.Get(k)
					out.Set(k, v)
				}
				return out, nil
			}
		}
		if as, ok := a.(*Set); ok {
			if bs, ok := b.(*Set); ok {
				out := NewSet(as.Items...)
				for _, v := range bs.Items {
					out.Add(v)
				}
				return out, nil
			}
			out := NewSet(as.Items...)
			out.Add(b)
			return out, nil
		}
		return nil, errf("+", "cannot add %s and %s", a.Kind(), b.Kind())

	case "-":
		if ai, bi, ok := bothInt(a, b); ok {
			return ai - bi, nil
		}
		if isNumeric(a) && isNumeric(b) {
			return Float(numberOf(a) - numberOf(b)), nil
		}
		if al, ok := a.(*List); ok {
			if bl, ok := b.(*List); ok {
				var out []Value
				for _, v := range al.Items {
					if !containsValue(bl.Items, v) {
						out = append(out, v)
					}
				}
				return &List{Items: out}, nil
			}
			var out []Value
			for _, v := range al.Items {
				if !Equal(v, b) {
					out = append(out, v)
				}
			}
			return &List{Items: out}, nil
		}
		if at, ok := a.(*Tuple); ok {
			if bt, ok := b.(*Tuple); ok {
				var out []Value
				for _, v := range at.Items {
					if !containsValue(bt.Items, v) {
						out = append(out, v)
					}
				}
				return &Tuple{Items: out}, nil
			}
			var out []Value
			for _, v := range at.Items {
				if !Equal(v, b) {
					out = append(out, v)
				}
			}
			return &Tuple{Items: out}, nil
		}
		if as, ok := a.(*Set); ok {
			if bs, ok := b.(*Set); ok {
				out := NewSet()
				for _, v := range as.Items {
					if !bs.Contains(v) {
						out.Add(v)
					}
				}
				return out, nil
			}
			out := NewSet()
			for _, v := range as.Items {
				if !Equal(v, b) {
					out.Add(v)
				}
			}
			return out, nil
		}
		return nil, errf("-", "cannot subtract %s and %s", a.Kind(), b.Kind())

	case "*":
		if ai, bi, ok := bothInt(a, b); ok {
			return ai * bi, nil
		}
		if isNumeric(a) && isNumeric(b) {
			return Float(numberOf(a) * numberOf(b)), nil
		}
		if as, ok := a.(Str); ok {
			if bi, ok := b.(Int); ok {
				return Str(strings.Repeat(string(as), max0(int(bi)))), nil
			}
		}
		if al, ok := a.(*List); ok {
			if bi, ok := b.(Int); ok {
				var out []Value
				for i := 0; i < max0(int(bi)); i++ {
					out = append(out, al.Items...)
				}
				return &List{Items: out}, nil
			}
		}
		return nil, errf("*", "cannot multiply %s and %s", a.Kind(), b.Kind())

	case "/":
		if as, ok := a.(Str); ok {
			if bs, ok := b.(Str); ok {
				parts := strings.Split(string(as), string(bs))
				items := make([]Value, len(parts))
				for i, p := range parts {
					items[i] = Str(p)
				}
				return &List{Items: items}, nil
			}
		}
		if isNumeric(a) && isNumeric(b) {
			if numberOf(b) == 0 {
				return nil, errf("/", "division by zero")
			}
			return Float(numberOf(a) / numberOf(b)), nil
		}
		return nil, errf("/", "cannot divide %s and %s", a.Kind(), b.Kind())

	case "mod", "rem", "quot":
		ai, bi, ok := bothInt(a, b)
		if !ok {
			return nil, errf(op, "%s requires two integers", op)
		}
		if bi == 0 {
			return nil, errf(op, "division by zero")
		}
		switch op {
		case "quot":
			return ai / bi, nil
		case "rem":
			return ai % bi, nil
		default: // mod
			m := ai % bi
			if m != 0 && (m < 0) != (bi < 0) {
				m += bi
			}
			return m, nil
		}

	case "**":
		if ai, bi, ok := bothInt(a, b); ok && bi >= 0 {
			result := Int(1)
			for i := Int(0); i < bi; i++ {
				result *= ai
			}
			return result, nil
		}
		if isNumeric(a) && isNumeric(b) {
			return Float(math.Pow(numberOf(a), numberOf(b))), nil
		}
		return nil, errf("**", "cannot exponentiate %s and %s", a.Kind(), b.Kind())
	}
	return nil, errf(op, "unknown operator")
}

func isNumeric(v Value) bool {
	switch v.(type) {
	case Int, Float:
		return true
	}
	return false
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func containsValue(items []Value, v Value) bool {
	for _, it := range items {
		if Equal(it, v) {
			return true
		}
	}
	return false
}

func evalMembership(op string, left, right Value) (Value, error) {
	switch r := right.(type) {
	case *List:
		return Bool(containsValue(r.Items, left)), nil
	case *Tuple:
		return Bool(containsValue(r.Items, left)), nil
	case *Set:
		return Bool(r.Contains(left)), nil
	case *Dict:
		if ls, ok := left.(Str); ok {
			_, found := r.Get(string(ls))
			return Bool(found), nil
		}
		return Bool(false), nil
	case Str:
		if ls, ok := left.(Str); ok {
			return Bool(strings.Contains(string(r), string(ls))), nil
		}
		return nil, errf("in", "left operand of `in` over a string must be a string")
	default:
		return nil, errf("in", "cannot test membership in a %s", right.Kind())
	}
}

func evalMatches(left, right Value) (Value, error) {
	ls, ok := left.(Str)
	if !ok {
		return nil, errf("matches", "left operand of `matches` must be a string")
	}
	rs, ok := right.(Str)
	if !ok {
		return nil, errf("matches", "right operand of `matches` must be a string pattern")
	}
	re, err := regexp.Compile(string(rs))
	if err != nil {
		return nil, errf("matches", "invalid regular expression %q: %v", string(rs), err)
	}
	return Bool(re.MatchString(string(ls))), nil
}

// sortByKey orders items by their parallel key values, descending, with
// items whose key is none deferred to the end (in their original relative
// order) rather than erroring.
func sortByKey(items []Value, keys []Value) ([]Value, error) {
	if len(items) != len(keys) {
		return nil, errf("sort_by", "internal error: key count mismatch")
	}
	type pair struct {
		item   Value
		key    Value
		isNone bool
	}
	var ranked, unranked []pair
	for i := range items {
		_, isNone := keys[i].(None)
		p := pair{items[i], keys[i], isNone}
		if isNone {
			unranked = append(unranked, p)
		} else {
			ranked = append(ranked, p)
		}
	}
	var sortErr error
	sort.SliceStable(ranked, func(i, j int) bool {
		if sortErr != nil {
			return false
		}
		c, err := compareValues("sort_by", ranked[i].key, ranked[j].key)
		if err != nil {
			sortErr = err
			return false
		}
		return c > 0
	})
	if sortErr != nil {
		return nil, sortErr
	}
	out := make([]Value, 0, len(items))
	for _, p := range ranked {
		out = append(out, p.item)
	}
	for _, p := range unranked {
		out = append(out, p.item)
	}
	return out, nil
}
