package compiler

import "fmt"

// ParseError describes a syntax error encountered while parsing a query.
type ParseError struct {
	Pos Position
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

// CompileError describes a static error found while lowering an AST into
// executable stages: an unknown function name or a wrong argument count.
// Other compile-time failures, such as an assignment path not rooted at
// `.`, are reported as plain errors. Regex patterns are not checked at
// compile time; a malformed pattern is a runtime error from `matches`.
type CompileError struct {
	Pos Position
	Msg string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

// knownFunctions lists every builtin the registry provides. The parser
// consults it to decide whether a bare identifier in expression position is
// a zero-argument function call or a bare string literal.
var knownFunctions = map[string]bool{
	"reverse":       true,
	"unique":        true,
	"length":        true,
	"sum":           true,
	"max":           true,
	"min":           true,
	"select":        true,
	"sort_by":       true,
	"join":          true,
	"map":           true,
	"type":          true,
	"not":           true,
	"str":           true,
	"int":           true,
	"float":         true,
	"bool":          true,
	"ts":            true,
	"sha256":        true,
	"match":         true,
	"uuid":          true,
	"debug":         true,
	"timestamp":     true,
	"clock":         true,
	"repeated_task": true,
	"keys":          true,
	"values":        true,
	"has":           true,
	"contains":      true,
	"flatten":       true,
	"first":         true,
	"last":          true,
	"empty":         true,
	"any":           true,
	"all":           true,
	"add":           true,
	"todo":          true,
	"done":          true,
	"category":      true,
	"tags":          true,
	"priority":      true,
	"level":         true,
}
