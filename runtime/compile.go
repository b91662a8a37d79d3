package runtime

import (
	"fmt"

	"github.com/chazu/orgql/compiler"
)

// Compile lowers a parsed AST into a single composed Stage. Compilation
// happens once per query text; the returned Stage can then be run against
// many input streams without re-parsing or re-checking arities.
func Compile(e compiler.Expr) (Stage, error) {
	switch n := e.(type) {
	case *compiler.Identity:
		return func(ctx *Context, v Value) (Stream, error) {
			return Stream{v}, nil
		}, nil

	case *compiler.Int:
		val := Int(n.Value)
		return constStage(val), nil

	case *compiler.Float:
		val := Float(n.Value)
		return constStage(val), nil

	case *compiler.Str:
		val := Str(n.Value)
		return constStage(val), nil

	case *compiler.Bool:
		val := Bool(n.Value)
		return constStage(val), nil

	case *compiler.NoneLit:
		return constStage(None{}), nil

	case *compiler.Variable:
		name := n.Name
		return func(ctx *Context, v Value) (Stream, error) {
			val, ok := ctx.Lookup(name)
			if !ok {
				return nil, errf("$"+name, "unbound variable $%s", name)
			}
			return Stream{val}, nil
		}, nil

	case *compiler.FieldAccess:
		inner, err := Compile(n.Inner)
		if err != nil {
			return nil, err
		}
		name := n.Name
		return func(ctx *Context, v Value) (Stream, error) {
			vs, err := inner(ctx, v)
			if err != nil {
				return nil, err
			}
			out := make(Stream, len(vs))
			for i, iv := range vs {
				fv, err := fieldGet(iv, name)
				if err != nil {
					return nil, err
				}
				out[i] = fv
			}
			return out, nil
		}, nil

	case *compiler.BracketAccess:
		inner, err := Compile(n.Inner)
		if err != nil {
			return nil, err
		}
		key, err := Compile(n.Key)
		if err != nil {
			return nil, err
		}
		return func(ctx *Context, v Value) (Stream, error) {
			vs, err := inner(ctx, v)
			if err != nil {
				return nil, err
			}
			var out Stream
			for _, iv := range vs {
				ks, err := key(ctx, v)
				if err != nil {
					return nil, err
				}
				for _, kv := range ks {
					rv, err := bracketGet(iv, kv)
					if err != nil {
						return nil, err
					}
					out = append(out, rv)
				}
			}
			return out, nil
		}, nil

	case *compiler.Iterate:
		inner, err := Compile(n.Inner)
		if err != nil {
			return nil, err
		}
		return func(ctx *Context, v Value) (Stream, error) {
			vs, err := inner(ctx, v)
			if err != nil {
				return nil, err
			}
			var out Stream
			for _, iv := range vs {
				items, err := iterate(iv)
				if err != nil {
					return nil, err
				}
				out = append(out, items...)
			}
			return out, nil
		}, nil

	case *compiler.Slice:
		inner, err := Compile(n.Inner)
		if err != nil {
			return nil, err
		}
		var startStage, endStage Stage
		if n.Start != nil {
			startStage, err = Compile(n.Start)
			if err != nil {
				return nil, err
			}
		}
		if n.End != nil {
			endStage, err = Compile(n.End)
			if err != nil {
				return nil, err
			}
		}
		return func(ctx *Context, v Value) (Stream, error) {
			vs, err := inner(ctx, v)
			if err != nil {
				return nil, err
			}
			var start, end *int64
			if startStage != nil {
				ss, err := startStage(ctx, v)
				if err != nil {
					return nil, err
				}
				if len(ss) > 0 {
					i, ok := ss[0].(Int)
					if !ok {
						return nil, errf("[:]", "slice bound must be an integer")
					}
					iv := int64(i)
					start = &iv
				}
			}
			if endStage != nil {
				es, err := endStage(ctx, v)
				if err != nil {
					return nil, err
				}
				if len(es) > 0 {
					i, ok := es[0].(Int)
					if !ok {
						return nil, errf("[:]", "slice bound must be an integer")
					}
					iv := int64(i)
					end = &iv
				}
			}
			out := make(Stream, len(vs))
			for i, iv := range vs {
				rv, err := sliceGet(iv, start, end)
				if err != nil {
					return nil, err
				}
				out[i] = rv
			}
			return out, nil
		}, nil

	case *compiler.UnaryMinus:
		inner, err := Compile(n.Inner)
		if err != nil {
			return nil, err
		}
		return func(ctx *Context, v Value) (Stream, error) {
			vs, err := inner(ctx, v)
			if err != nil {
				return nil, err
			}
			out := make(Stream, len(vs))
			for i, iv := range vs {
				switch t := iv.(type) {
				case Int:
					out[i] = -t
				case Float:
					out[i] = -t
				default:
					return nil, errf("-", "cannot negate a %s", iv.Kind())
				}
			}
			return out, nil
		}, nil

	case *compiler.Binary:
		return compileBinary(n)

	case *compiler.Tuple:
		stages := make([]Stage, len(n.Items))
		for i, it := range n.Items {
			s, err := Compile(it)
			if err != nil {
				return nil, err
			}
			stages[i] = s
		}
		return func(ctx *Context, v Value) (Stream, error) {
			streams := make([]Stream, len(stages))
			for i, s := range stages {
				sv, err := s(ctx, v)
				if err != nil {
					return nil, err
				}
				streams[i] = sv
			}
			combos := [][]Value{{}}
			for _, s := range streams {
				var next [][]Value
				for _, combo := range combos {
					for _, val := range s {
						nc := append(append([]Value{}, combo...), val)
						next = append(next, nc)
					}
				}
				combos = next
			}
			out := make(Stream, len(combos))
			for i, c := range combos {
				out[i] = &Tuple{Items: c}
			}
			return out, nil
		}, nil

	case *compiler.Fold:
		if n.Inner == nil {
			return func(ctx *Context, v Value) (Stream, error) {
				return Stream{&List{}}, nil
			}, nil
		}
		inner, err := Compile(n.Inner)
		if err != nil {
			return nil, err
		}
		return func(ctx *Context, v Value) (Stream, error) {
			vs, err := inner(ctx, v)
			if err != nil {
				return nil, err
			}
			return Stream{&List{Items: append([]Value{}, vs...)}}, nil
		}, nil

	case *compiler.Pipe:
		left, err := Compile(n.Left)
		if err != nil {
			return nil, err
		}
		if name, ok := wholeStreamCall(n.Right); ok {
			return func(ctx *Context, v Value) (Stream, error) {
				ls, err := left(ctx, v)
				if err != nil {
					return nil, err
				}
				return applyWholeStream(name, ls)
			}, nil
		}
		if keyStage, ok, err := sortByCall(n.Right); err != nil {
			return nil, err
		} else if ok {
			return func(ctx *Context, v Value) (Stream, error) {
				ls, err := left(ctx, v)
				if err != nil {
					return nil, err
				}
				return applySortBy(ctx, keyStage, ls)
			}, nil
		}
		right, err := Compile(n.Right)
		if err != nil {
			return nil, err
		}
		return func(ctx *Context, v Value) (Stream, error) {
			ls, err := left(ctx, v)
			if err != nil {
				return nil, err
			}
			return flatMap(ctx, ls, right)
		}, nil

	case *compiler.Sequence:
		left, err := Compile(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := Compile(n.Right)
		if err != nil {
			return nil, err
		}
		return func(ctx *Context, v Value) (Stream, error) {
			if _, err := left(ctx, v); err != nil {
				return nil, err
			}
			return right(ctx, v)
		}, nil

	case *compiler.AsBinding:
		return compileBinding(n.Value, n.Name, n.Body)

	case *compiler.LetBinding:
		return compileBinding(n.Value, n.Name, n.Body)

	case *compiler.IfThenElse:
		cond, err := Compile(n.Cond)
		if err != nil {
			return nil, err
		}
		thenS, err := Compile(n.Then)
		if err != nil {
			return nil, err
		}
		elseS, err := Compile(n.Else)
		if err != nil {
			return nil, err
		}
		return func(ctx *Context, v Value) (Stream, error) {
			cs, err := cond(ctx, v)
			if err != nil {
				return nil, err
			}
			var out Stream
			for _, cv := range cs {
				var branch Stage
				if truthy(cv) {
					branch = thenS
				} else {
					branch = elseS
				}
				bs, err := branch(ctx, v)
				if err != nil {
					return nil, err
				}
				out = append(out, bs...)
			}
			return out, nil
		}, nil

	case *compiler.AssignField:
		path, err := extractPath(n.Target)
		if err != nil {
			return nil, err
		}
		path = append(path, fieldSegment{name: n.Name})
		valueStage, err := Compile(n.Value)
		if err != nil {
			return nil, err
		}
		return compileAssign(path, valueStage)

	case *compiler.AssignBracket:
		path, err := extractPath(n.Target)
		if err != nil {
			return nil, err
		}
		keyStage, err := Compile(n.Key)
		if err != nil {
			return nil, err
		}
		path = append(path, fieldSegment{keyStage: keyStage})
		valueStage, err := Compile(n.Value)
		if err != nil {
			return nil, err
		}
		return compileAssign(path, valueStage)

	case *compiler.FunctionCall:
		return compileFunctionCall(n)
	}

	return nil, fmt.Errorf("compile: unsupported expression %T", e)
}

// wholeStreamCall reports whether e is a bare (argument-less) call to a
// function whose semantics operate over an entire incoming stream rather
// than per element — currently `reverse` and `unique`.
func wholeStreamCall(e compiler.Expr) (string, bool) {
	call, ok := e.(*compiler.FunctionCall)
	if !ok || len(call.Args) != 0 {
		return "", false
	}
	if call.Name == "reverse" || call.Name == "unique" {
		return call.Name, true
	}
	return "", false
}

// applyWholeStream implements `reverse`/`unique` over the stream flowing
// into them from the left side of a pipe, per the stream-level contract
// (as opposed to the single-value builtin registry entries, which apply
// when these names are used standalone on one container value).
func applyWholeStream(name string, ls Stream) (Stream, error) {
	switch name {
	case "reverse":
		if len(ls) == 1 {
			if its, ok := items(ls[0]); ok {
				out := make([]Value, len(its))
				for i, it := range its {
					out[len(out)-1-i] = it
				}
				return Stream{&List{Items: out}}, nil
			}
		}
		out := make(Stream, len(ls))
		for i, v := range ls {
			out[len(out)-1-i] = v
		}
		return out, nil
	case "unique":
		var out Stream
		for _, v := range ls {
			if !containsValue(out, v) {
				out = append(out, v)
			}
		}
		return out, nil
	}
	return ls, nil
}

// sortByCall reports whether e is a call to sort_by(key), and if so compiles
// its key argument into a Stage. sort_by takes an argument (unlike
// reverse/unique), so it can't be folded into wholeStreamCall's name-only
// dispatch, but it is a whole-stream operation in the same sense: per
// spec.md, `sort_by(key)` collects its incoming stream into a list before
// sorting it.
func sortByCall(e compiler.Expr) (Stage, bool, error) {
	call, ok := e.(*compiler.FunctionCall)
	if !ok || call.Name != "sort_by" || len(call.Args) != 1 {
		return nil, false, nil
	}
	keyStage, err := Compile(call.Args[0])
	if err != nil {
		return nil, false, err
	}
	return keyStage, true, nil
}

// applySortBy collects the stream flowing into sort_by from the left side of
// a pipe and sorts it. If the stream has exactly one container element (the
// `x | sort_by(key)` shape, where x already produced a single list/tuple/set),
// that container's items are sorted; otherwise the stream itself (e.g. a
// fanned-out `.[] | sort_by(key)`) is collected and sorted, mirroring the
// same single-container-or-whole-stream rule `reverse` uses.
func applySortBy(ctx *Context, keyStage Stage, ls Stream) (Stream, error) {
	its := Stream(ls)
	if len(ls) == 1 {
		if unwrapped, ok := items(ls[0]); ok {
			its = unwrapped
		}
	}
	keys := make([]Value, len(its))
	for i, it := range its {
		ks, err := keyStage(ctx, it)
		if err != nil {
			return nil, err
		}
		if len(ks) == 0 {
			keys[i] = None{}
		} else {
			keys[i] = ks[0]
		}
	}
	sorted, err := sortByKey(its, keys)
	if err != nil {
		return nil, err
	}
	return Stream{&List{Items: sorted}}, nil
}

func constStage(v Value) Stage {
	return func(ctx *Context, _ Value) (Stream, error) {
		return Stream{v}, nil
	}
}

func compileBinding(valueExpr compiler.Expr, name string, bodyExpr compiler.Expr) (Stage, error) {
	valueStage, err := Compile(valueExpr)
	if err != nil {
		return nil, err
	}
	bodyStage, err := Compile(bodyExpr)
	if err != nil {
		return nil, err
	}
	return func(ctx *Context, v Value) (Stream, error) {
		vs, err := valueStage(ctx, v)
		if err != nil {
			return nil, err
		}
		var out Stream
		for _, item := range vs {
			childCtx := ctx.Child(name, item)
			bs, err := bodyStage(childCtx, v)
			if err != nil {
				return nil, err
			}
			out = append(out, bs...)
		}
		return out, nil
	}, nil
}

func compileBinary(n *compiler.Binary) (Stage, error) {
	left, err := Compile(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := Compile(n.Right)
	if err != nil {
		return nil, err
	}
	op := n.Op

	return func(ctx *Context, v Value) (Stream, error) {
		ls, err := left(ctx, v)
		if err != nil {
			return nil, err
		}

		// and/or short-circuit per element of the left stream without
		// necessarily evaluating right when not needed. `and` always yields
		// a boolean conjunction; `or` is value-preserving, returning the
		// left operand itself when truthy instead of `true`.
		if op == "and" || op == "or" {
			var out Stream
			for _, lv := range ls {
				lt := truthy(lv)
				if op == "and" && !lt {
					out = append(out, Bool(false))
					continue
				}
				if op == "or" && lt {
					out = append(out, lv)
					continue
				}
				rs, err := right(ctx, v)
				if err != nil {
					return nil, err
				}
				for _, rv := range rs {
					if op == "and" {
						out = append(out, Bool(truthy(rv)))
					} else {
						out = append(out, rv)
					}
				}
			}
			return out, nil
		}

		rs, err := right(ctx, v)
		if err != nil {
			return nil, err
		}
		pairs, err := broadcast(op, ls, rs)
		if err != nil {
			return nil, err
		}
		out := make(Stream, len(pairs))
		for i, pair := range pairs {
			a, b := pair[0], pair[1]
			var res Value
			switch op {
			case "==":
				res = Bool(Equal(a, b))
			case "!=":
				res = Bool(!Equal(a, b))
			case "<", "<=", ">", ">=":
				_, aNone := a.(None)
				_, bNone := b.(None)
				if aNone || bNone {
					switch op {
					case "<", ">":
						res = Bool(false)
					case "<=", ">=":
						res = Bool(aNone && bNone)
					}
					break
				}
				c, err := compareValues(op, a, b)
				if err != nil {
					return nil, err
				}
				switch op {
				case "<":
					res = Bool(c < 0)
				case "<=":
					res = Bool(c <= 0)
				case ">":
					res = Bool(c > 0)
				case ">=":
					res = Bool(c >= 0)
				}
			case "in":
				res, err = evalMembership(op, a, b)
				if err != nil {
					return nil, err
				}
			case "matches":
				res, err = evalMatches(a, b)
				if err != nil {
					return nil, err
				}
			default:
				res, err = evalArith(op, a, b)
				if err != nil {
					return nil, err
				}
			}
			out[i] = res
		}
		return out, nil
	}, nil
}
