package runtime

// Stream is an ordered, finite, eagerly-materialized sequence of values.
type Stream []Value

// Stage is a compiled query fragment: given the current value and the scope
// chain in effect, it produces the stream of values that fragment yields for
// that one input. Pipelines compose stages by flat-mapping: each value in
// Left's output stream is fed through Right and the results concatenated.
type Stage func(ctx *Context, v Value) (Stream, error)

// Run drives a compiled Stage across every item of an initial input stream,
// concatenating the results. This is the "compile once, execute many" path:
// Compile happens a single time per query text, and Run can be called
// repeatedly against different input streams (e.g. one per archive file).
func Run(stage Stage, ctx *Context, in Stream) (Stream, error) {
	var out Stream
	for _, v := range in {
		vs, err := stage(ctx, v)
		if err != nil {
			return nil, err
		}
		out = append(out, vs...)
	}
	return out, nil
}

func flatMap(ctx *Context, in Stream, next Stage) (Stream, error) {
	var out Stream
	for _, v := range in {
		vs, err := next(ctx, v)
		if err != nil {
			return nil, err
		}
		out = append(out, vs...)
	}
	return out, nil
}

// broadcast pairs up two streams per the tuple/binary-operator combination
// rule: equal lengths zip elementwise; a length-1 stream broadcasts against
// any length; anything else is an arity mismatch.
func broadcast(op string, a, b Stream) ([][2]Value, error) {
	switch {
	case len(a) == len(b):
		pairs := make([][2]Value, len(a))
		for i := range a {
			pairs[i] = [2]Value{a[i], b[i]}
		}
		return pairs, nil
	case len(a) == 1:
		pairs := make([][2]Value, len(b))
		for i := range b {
			pairs[i] = [2]Value{a[0], b[i]}
		}
		return pairs, nil
	case len(b) == 1:
		pairs := make([][2]Value, len(a))
		for i := range a {
			pairs[i] = [2]Value{a[i], b[0]}
		}
		return pairs, nil
	default:
		return nil, errf(op, "cannot combine streams of length %d and %d", len(a), len(b))
	}
}
