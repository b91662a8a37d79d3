package compiler

// Expr is any node in the query abstract syntax tree.
type Expr interface {
	exprNode()
}

// Identity is the `.` expression: it streams its input unchanged.
type Identity struct{ Pos Position }

// Int is an integer literal.
type Int struct {
	Value int64
	Pos   Position
}

// Float is a floating point literal.
type Float struct {
	Value float64
	Pos   Position
}

// Str is a double-quoted string literal.
type Str struct {
	Value string
	Pos   Position
}

// Bool is a `true`/`false` literal.
type Bool struct {
	Value bool
	Pos   Position
}

// NoneLit is the `none` literal.
type NoneLit struct{ Pos Position }

// Variable is a `$name` reference resolved against the evaluation scope chain.
type Variable struct {
	Name string
	Pos  Position
}

// FieldAccess is `.name` applied to Inner. A missing field evaluates to None.
type FieldAccess struct {
	Inner Expr
	Name  string
	Pos   Position
}

// BracketAccess is `Inner[Key]`. The key's runtime type decides whether this
// behaves as a field lookup (string key) or a sequence index (integer key);
// that dispatch happens in the evaluator, not here.
type BracketAccess struct {
	Inner Expr
	Key   Expr
	Pos   Position
}

// Iterate is `Inner[]`: it streams every element of Inner's containers.
type Iterate struct {
	Inner Expr
	Pos   Position
}

// Slice is `Inner[Start:End]`. Start and End may each be nil, meaning
// "from the beginning" / "to the end" respectively.
type Slice struct {
	Inner Expr
	Start Expr
	End   Expr
	Pos   Position
}

// FunctionCall invokes a named builtin (or, for an unrecognized bare
// identifier outside call position, is never produced — see Str).
type FunctionCall struct {
	Name string
	Args []Expr
	Pos  Position
}

// Binary applies a binary operator to Left and Right.
type Binary struct {
	Op    string
	Left  Expr
	Right Expr
	Pos   Position
}

// UnaryMinus negates Inner.
type UnaryMinus struct {
	Inner Expr
	Pos   Position
}

// Tuple is a comma-separated `a, b, c` expression. Evaluating it broadcasts
// each item's stream against the others via left-to-right cartesian product.
type Tuple struct {
	Items []Expr
	Pos   Position
}

// Fold is `[ Inner ]`. When Inner is nil this is the empty list literal `[]`;
// otherwise it collects Inner's stream, once per input value, into a List.
type Fold struct {
	Inner Expr
	Pos   Position
}

// Pipe feeds Left's output stream into Right.
type Pipe struct {
	Left  Expr
	Right Expr
	Pos   Position
}

// Sequence evaluates Left for its side effects (such as in-place dict
// assignment) and discards its stream, then evaluates Right. Variables bound
// inside Left are not visible in Right.
type Sequence struct {
	Left  Expr
	Right Expr
	Pos   Position
}

// AsBinding evaluates Value and, for each resulting item, binds it to Name
// in a fresh scope before evaluating Body. Body is the remainder of the
// enclosing pipeline ("value as $name | body").
type AsBinding struct {
	Value Expr
	Name  string
	Body  Expr
	Pos   Position
}

// LetBinding is `let Value as $Name in Body`: like AsBinding but scoped
// explicitly via `in` rather than implicitly by pipeline position.
type LetBinding struct {
	Value Expr
	Name  string
	Body  Expr
	Pos   Position
}

// IfThenElse evaluates Cond and, per item, continues with Then or Else.
// `elif` chains desugar into nested IfThenElse nodes in the Else branch.
type IfThenElse struct {
	Cond Expr
	Then Expr
	Else Expr
	Pos  Position
}

// AssignField is `Target.Name = Value`: it rewrites a field in place.
type AssignField struct {
	Target Expr
	Name   string
	Value  Expr
	Pos    Position
}

// AssignBracket is `Target[Key] = Value`: it rewrites an element in place.
type AssignBracket struct {
	Target Expr
	Key    Expr
	Value  Expr
	Pos    Position
}

func (*Identity) exprNode()      {}
func (*Int) exprNode()           {}
func (*Float) exprNode()         {}
func (*Str) exprNode()           {}
func (*Bool) exprNode()          {}
func (*NoneLit) exprNode()       {}
func (*Variable) exprNode()      {}
func (*FieldAccess) exprNode()   {}
func (*BracketAccess) exprNode() {}
func (*Iterate) exprNode()       {}
func (*Slice) exprNode()         {}
func (*FunctionCall) exprNode()  {}
func (*Binary) exprNode()        {}
func (*UnaryMinus) exprNode()    {}
func (*Tuple) exprNode()         {}
func (*Fold) exprNode()          {}
func (*Pipe) exprNode()          {}
func (*Sequence) exprNode()      {}
func (*AsBinding) exprNode()     {}
func (*LetBinding) exprNode()    {}
func (*IfThenElse) exprNode()    {}
func (*AssignField) exprNode()   {}
func (*AssignBracket) exprNode() {}
