package runtime

import (
	"fmt"

	"github.com/chazu/orgql/compiler"
)

// fieldSegment is one step of a static assignment path: either a literal
// field name or a bracket key whose value is computed at runtime.
type fieldSegment struct {
	name     string
	keyStage Stage
}

// extractPath walks a FieldAccess/BracketAccess chain rooted at Identity and
// returns the ordered list of path segments from `.` down to e. Any other
// shape (a pipe, a function call, a literal...) is not a valid assignment
// target.
func extractPath(e compiler.Expr) ([]fieldSegment, error) {
	switch t := e.(type) {
	case *compiler.Identity:
		return nil, nil
	case *compiler.FieldAccess:
		prefix, err := extractPath(t.Inner)
		if err != nil {
			return nil, err
		}
		return append(prefix, fieldSegment{name: t.Name}), nil
	case *compiler.BracketAccess:
		prefix, err := extractPath(t.Inner)
		if err != nil {
			return nil, err
		}
		keyStage, err := Compile(t.Key)
		if err != nil {
			return nil, err
		}
		return append(prefix, fieldSegment{keyStage: keyStage}), nil
	default:
		return nil, fmt.Errorf("invalid assignment target: must be a path of fields/brackets from '.'")
	}
}

func compileAssign(path []fieldSegment, valueStage Stage) (Stage, error) {
	return func(ctx *Context, v Value) (Stream, error) {
		vs, err := valueStage(ctx, v)
		if err != nil {
			return nil, err
		}
		out := make(Stream, len(vs))
		for i, newVal := range vs {
			updated, err := setPath(ctx, v, path, newVal)
			if err != nil {
				return nil, err
			}
			out[i] = updated
		}
		return out, nil
	}, nil
}

// setPath resolves every segment's key against root (key sub-expressions are
// evaluated relative to the whole input value, not the traversal position),
// walks all but the last segment to find the dict to mutate, and sets the
// last segment's key on it in place. The only observable mutation a query
// can perform is this in-place dict write: callers that share a dict across
// queries see the change, matching the one stated mutation exception to the
// otherwise purely-functional evaluator.
func setPath(ctx *Context, root Value, path []fieldSegment, newVal Value) (Value, error) {
	keys := make([]Value, len(path))
	for i, seg := range path {
		if seg.keyStage != nil {
			ks, err := seg.keyStage(ctx, root)
			if err != nil {
				return nil, err
			}
			if len(ks) == 0 {
				return nil, errf("=", "bracket key expression produced no value")
			}
			keys[i] = ks[0]
		} else {
			keys[i] = Str(seg.name)
		}
	}

	container := root
	for _, key := range keys[:len(keys)-1] {
		next, err := bracketGet(container, key)
		if err != nil {
			return nil, err
		}
		container = next
	}
	if err := setField(container, keys[len(keys)-1], newVal); err != nil {
		return nil, err
	}
	return root, nil
}

func setField(container Value, key Value, newVal Value) error {
	d, ok := container.(*Dict)
	if !ok {
		return errf("=", "cannot assign a field into a %s", container.Kind())
	}
	ks, ok := key.(Str)
	if !ok {
		return errf("=", "cannot use a %s key on a dict", key.Kind())
	}
	d.Set(string(ks), newVal)
	return nil
}
