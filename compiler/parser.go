package compiler

import (
	"fmt"
	"strconv"
)

// Parser implements a recursive-descent parser over the query grammar's
// thirteen precedence levels, from Pipe (loosest) down to Primary (tightest).
type Parser struct {
	toks []Token
	pos  int
	err  error
}

// NewParser tokenizes input and prepares a Parser over the result.
func NewParser(input string) *Parser {
	return &Parser{toks: Tokenize(input)}
}

// Parse parses a complete query and returns its AST.
func Parse(input string) (Expr, error) {
	p := NewParser(input)
	expr := p.parsePipe()
	if p.err == nil && p.cur().Type != TokenEOF {
		p.errorf(p.cur().Pos, "unexpected trailing token %s", p.cur())
	}
	if p.err != nil {
		return nil, p.err
	}
	return expr, nil
}

func (p *Parser) cur() Token {
	return p.toks[p.pos]
}

func (p *Parser) advance() Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) expect(tt TokenType) Token {
	if p.err != nil {
		return p.cur()
	}
	if p.cur().Type != tt {
		p.errorf(p.cur().Pos, "expected %s, got %s", tt, p.cur())
		return p.cur()
	}
	return p.advance()
}

func (p *Parser) errorf(pos Position, format string, args ...any) {
	if p.err != nil {
		return
	}
	p.err = &ParseError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// --- Level 1: Pipe (right-associative, loosest) ---

func (p *Parser) parsePipe() Expr {
	left := p.parseSequence()
	if p.err != nil {
		return left
	}
	if p.cur().Type == TokenPipe {
		pos := p.cur().Pos
		p.advance()
		right := p.parsePipe()
		return &Pipe{Left: left, Right: right, Pos: pos}
	}
	return left
}

// --- Level 2: Sequence (left-associative ';') ---

func (p *Parser) parseSequence() Expr {
	left := p.parseAssign()
	for p.err == nil && p.cur().Type == TokenSemicolon {
		pos := p.cur().Pos
		p.advance()
		right := p.parseAssign()
		left = &Sequence{Left: left, Right: right, Pos: pos}
	}
	return left
}

// --- Level 3: Assignment (right-associative '=', restricted targets) ---

func (p *Parser) parseAssign() Expr {
	left := p.parseAsBinding()
	if p.err != nil {
		return left
	}
	if p.cur().Type == TokenAssignOp {
		pos := p.cur().Pos
		p.advance()
		value := p.parseAssign()
		switch t := left.(type) {
		case *FieldAccess:
			return &AssignField{Target: t.Inner, Name: t.Name, Value: value, Pos: pos}
		case *BracketAccess:
			return &AssignBracket{Target: t.Inner, Key: t.Key, Value: value, Pos: pos}
		default:
			p.errorf(pos, "invalid assignment target: expected a field or bracket access")
			return left
		}
	}
	return left
}

// --- Level 4: As-binding. Its body swallows the rest of the pipeline. ---

func (p *Parser) parseAsBinding() Expr {
	value := p.parseTuple()
	if p.err != nil {
		return value
	}
	if p.cur().Type == TokenAs {
		pos := p.cur().Pos
		p.advance()
		if p.cur().Type != TokenVariable {
			p.errorf(p.cur().Pos, "expected $name after 'as'")
			return value
		}
		name := p.cur().Literal
		p.advance()
		var body Expr = &Identity{Pos: pos}
		if p.cur().Type == TokenPipe {
			p.advance()
			body = p.parsePipe()
		}
		return &AsBinding{Value: value, Name: name, Body: body, Pos: pos}
	}
	return value
}

// --- Level 5: Tuple (comma, left-to-right cartesian product) ---

func (p *Parser) parseTuple() Expr {
	startPos := p.cur().Pos
	first := p.parseBoolean()
	if p.err != nil {
		return first
	}
	if p.cur().Type != TokenComma {
		return first
	}
	items := []Expr{first}
	for p.err == nil && p.cur().Type == TokenComma {
		p.advance()
		items = append(items, p.parseBoolean())
	}
	return &Tuple{Items: items, Pos: startPos}
}

// --- Level 6: Boolean and/or ---

func (p *Parser) parseBoolean() Expr {
	left := p.parseComparison()
	for p.err == nil && (p.cur().Type == TokenAnd || p.cur().Type == TokenOr) {
		op := p.cur()
		p.advance()
		right := p.parseComparison()
		opStr := "or"
		if op.Type == TokenAnd {
			opStr = "and"
		}
		left = &Binary{Op: opStr, Left: left, Right: right, Pos: op.Pos}
	}
	return left
}

// --- Level 7: Comparison, membership, regex match ---

func (p *Parser) parseComparison() Expr {
	left := p.parseAdditive()
	for p.err == nil {
		var opStr string
		switch p.cur().Type {
		case TokenEq:
			opStr = "=="
		case TokenNeq:
			opStr = "!="
		case TokenGte:
			opStr = ">="
		case TokenLte:
			opStr = "<="
		case TokenGt:
			opStr = ">"
		case TokenLt:
			opStr = "<"
		case TokenIn:
			opStr = "in"
		case TokenMatches:
			opStr = "matches"
		default:
			return left
		}
		pos := p.cur().Pos
		p.advance()
		right := p.parseAdditive()
		left = &Binary{Op: opStr, Left: left, Right: right, Pos: pos}
	}
	return left
}

// --- Level 8: Additive + - ---

func (p *Parser) parseAdditive() Expr {
	left := p.parseMultiplicative()
	for p.err == nil && (p.cur().Type == TokenPlus || p.cur().Type == TokenMinus) {
		op := p.cur()
		p.advance()
		right := p.parseMultiplicative()
		opStr := "+"
		if op.Type == TokenMinus {
			opStr = "-"
		}
		left = &Binary{Op: opStr, Left: left, Right: right, Pos: op.Pos}
	}
	return left
}

// --- Level 9: Multiplicative * / mod rem quot ---

func (p *Parser) parseMultiplicative() Expr {
	left := p.parseUnary()
	for p.err == nil {
		var opStr string
		switch p.cur().Type {
		case TokenStar:
			opStr = "*"
		case TokenSlash:
			opStr = "/"
		case TokenMod:
			opStr = "mod"
		case TokenRem:
			opStr = "rem"
		case TokenQuot:
			opStr = "quot"
		default:
			return left
		}
		pos := p.cur().Pos
		p.advance()
		right := p.parseUnary()
		left = &Binary{Op: opStr, Left: left, Right: right, Pos: pos}
	}
	return left
}

// --- Level 10: Unary minus (prefix, binds looser than power) ---

func (p *Parser) parseUnary() Expr {
	if p.cur().Type == TokenMinus {
		pos := p.cur().Pos
		p.advance()
		inner := p.parseUnary()
		return &UnaryMinus{Inner: inner, Pos: pos}
	}
	return p.parsePower()
}

// --- Level 11: Power ** (right-associative) ---

func (p *Parser) parsePower() Expr {
	left := p.parsePostfix()
	if p.err != nil {
		return left
	}
	if p.cur().Type == TokenPow {
		pos := p.cur().Pos
		p.advance()
		right := p.parseUnary()
		return &Binary{Op: "**", Left: left, Right: right, Pos: pos}
	}
	return left
}

// --- Level 12: Postfix chain (.field, [], [k], [a:b]) ---

func (p *Parser) parsePostfix() Expr {
	expr := p.parsePrimary()
	for p.err == nil {
		switch p.cur().Type {
		case TokenDot:
			pos := p.cur().Pos
			p.advance()
			if p.cur().Type != TokenIdentifier {
				p.errorf(p.cur().Pos, "expected field name after '.'")
				return expr
			}
			name := p.cur().Literal
			p.advance()
			expr = &FieldAccess{Inner: expr, Name: name, Pos: pos}

		case TokenLBracket:
			pos := p.cur().Pos
			p.advance()

			if p.cur().Type == TokenRBracket {
				p.advance()
				expr = &Iterate{Inner: expr, Pos: pos}
				continue
			}

			if p.cur().Type == TokenColon {
				p.advance()
				var end Expr
				if p.cur().Type != TokenRBracket {
					end = p.parseBoolean()
				}
				p.expect(TokenRBracket)
				expr = &Slice{Inner: expr, Start: nil, End: end, Pos: pos}
				continue
			}

			key := p.parseBoolean()
			if p.cur().Type == TokenColon {
				p.advance()
				var end Expr
				if p.cur().Type != TokenRBracket {
					end = p.parseBoolean()
				}
				p.expect(TokenRBracket)
				expr = &Slice{Inner: expr, Start: key, End: end, Pos: pos}
				continue
			}
			p.expect(TokenRBracket)
			expr = &BracketAccess{Inner: expr, Key: key, Pos: pos}

		default:
			return expr
		}
	}
	return expr
}

// --- Level 13: Primary ---

func (p *Parser) parsePrimary() Expr {
	tok := p.cur()
	switch tok.Type {
	case TokenDot:
		p.advance()
		if p.cur().Type == TokenIdentifier {
			name := p.cur().Literal
			p.advance()
			return &FieldAccess{Inner: &Identity{Pos: tok.Pos}, Name: name, Pos: tok.Pos}
		}
		return &Identity{Pos: tok.Pos}

	case TokenInt:
		p.advance()
		v, err := strconv.ParseInt(tok.Literal, 10, 64)
		if err != nil {
			p.errorf(tok.Pos, "invalid integer literal %q", tok.Literal)
			return &Int{Pos: tok.Pos}
		}
		return &Int{Value: v, Pos: tok.Pos}

	case TokenFloat:
		p.advance()
		v, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			p.errorf(tok.Pos, "invalid float literal %q", tok.Literal)
			return &Float{Pos: tok.Pos}
		}
		return &Float{Value: v, Pos: tok.Pos}

	case TokenString:
		p.advance()
		return &Str{Value: tok.Literal, Pos: tok.Pos}

	case TokenTrue:
		p.advance()
		return &Bool{Value: true, Pos: tok.Pos}

	case TokenFalse:
		p.advance()
		return &Bool{Value: false, Pos: tok.Pos}

	case TokenNone:
		p.advance()
		return &NoneLit{Pos: tok.Pos}

	case TokenVariable:
		p.advance()
		return &Variable{Name: tok.Literal, Pos: tok.Pos}

	case TokenLParen:
		p.advance()
		inner := p.parsePipe()
		p.expect(TokenRParen)
		return inner

	case TokenLBracket:
		p.advance()
		if p.cur().Type == TokenRBracket {
			p.advance()
			return &Fold{Inner: nil, Pos: tok.Pos}
		}
		inner := p.parsePipe()
		p.expect(TokenRBracket)
		return &Fold{Inner: inner, Pos: tok.Pos}

	case TokenIf:
		return p.parseIf()

	case TokenLet:
		return p.parseLet()

	case TokenIdentifier:
		return p.parseIdentifierOrCall(tok)

	default:
		p.errorf(tok.Pos, "unexpected token %s", tok)
		p.advance()
		return &NoneLit{Pos: tok.Pos}
	}
}

func (p *Parser) parseIdentifierOrCall(tok Token) Expr {
	p.advance()
	name := tok.Literal

	if p.cur().Type == TokenLParen {
		p.advance()
		var args []Expr
		if p.cur().Type != TokenRParen {
			args = append(args, p.parseArg())
			for p.cur().Type == TokenSemicolon {
				p.advance()
				args = append(args, p.parseArg())
			}
		}
		p.expect(TokenRParen)
		return &FunctionCall{Name: name, Args: args, Pos: tok.Pos}
	}

	if knownFunctions[name] {
		return &FunctionCall{Name: name, Args: nil, Pos: tok.Pos}
	}

	// An unrecognized bare identifier in expression position is a string
	// literal, e.g. `select(.category == work)` means `.category == "work"`.
	return &Str{Value: name, Pos: tok.Pos}
}

// parseArg parses one function-call argument: a pipeline like parsePipe,
// except that a ';' ends the argument instead of starting a Sequence.
func (p *Parser) parseArg() Expr {
	left := p.parseAssign()
	if p.err == nil && p.cur().Type == TokenPipe {
		pos := p.cur().Pos
		p.advance()
		right := p.parseArg()
		return &Pipe{Left: left, Right: right, Pos: pos}
	}
	return left
}

func (p *Parser) parseIf() Expr {
	pos := p.cur().Pos
	p.expect(TokenIf)
	cond := p.parseBoolean()
	p.expect(TokenThen)
	thenExpr := p.parsePipe()
	return p.parseIfTail(pos, cond, thenExpr)
}

func (p *Parser) parseIfTail(pos Position, cond, thenExpr Expr) Expr {
	switch p.cur().Type {
	case TokenElif:
		elifPos := p.cur().Pos
		p.advance()
		elifCond := p.parseBoolean()
		p.expect(TokenThen)
		elifThen := p.parsePipe()
		elseBranch := p.parseIfTail(elifPos, elifCond, elifThen)
		return &IfThenElse{Cond: cond, Then: thenExpr, Else: elseBranch, Pos: pos}
	case TokenElse:
		p.advance()
		elseExpr := p.parsePipe()
		return &IfThenElse{Cond: cond, Then: thenExpr, Else: elseExpr, Pos: pos}
	default:
		p.errorf(p.cur().Pos, "expected 'elif' or 'else'")
		return &IfThenElse{Cond: cond, Then: thenExpr, Else: &Identity{Pos: pos}, Pos: pos}
	}
}

func (p *Parser) parseLet() Expr {
	pos := p.cur().Pos
	p.expect(TokenLet)
	value := p.parseBoolean()
	p.expect(TokenAs)
	if p.cur().Type != TokenVariable {
		p.errorf(p.cur().Pos, "expected $name after 'as'")
		return &LetBinding{Value: value, Pos: pos}
	}
	name := p.cur().Literal
	p.advance()
	p.expect(TokenIn)
	body := p.parsePipe()
	return &LetBinding{Value: value, Name: name, Body: body, Pos: pos}
}
