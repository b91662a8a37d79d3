package compiler

import "testing"

func TestLexerBasicTokens(t *testing.T) {
	input := `. , | ; : ( ) [ ]`
	expected := []struct {
		typ TokenType
		lit string
	}{
		{TokenDot, "."},
		{TokenComma, ","},
		{TokenPipe, "|"},
		{TokenSemicolon, ";"},
		{TokenColon, ":"},
		{TokenLParen, "("},
		{TokenRParen, ")"},
		{TokenLBracket, "["},
		{TokenRBracket, "]"},
		{TokenEOF, ""},
	}

	l := NewLexer(input)
	for i, exp := range expected {
		tok := l.NextToken()
		if tok.Type != exp.typ {
			t.Errorf("token[%d] type = %v, want %v", i, tok.Type, exp.typ)
		}
		if tok.Literal != exp.lit {
			t.Errorf("token[%d] literal = %q, want %q", i, tok.Literal, exp.lit)
		}
	}
}

func TestLexerOperatorsGreedyMatch(t *testing.T) {
	input := `== != >= <= > < ** * / + - =`
	expected := []TokenType{
		TokenEq, TokenNeq, TokenGte, TokenLte, TokenGt, TokenLt,
		TokenPow, TokenStar, TokenSlash, TokenPlus, TokenMinus, TokenAssignOp,
		TokenEOF,
	}

	l := NewLexer(input)
	for i, want := range expected {
		tok := l.NextToken()
		if tok.Type != want {
			t.Errorf("token[%d] type = %v, want %v", i, tok.Type, want)
		}
	}
}

func TestLexerIntegersAndFloats(t *testing.T) {
	tests := []struct {
		input string
		typ   TokenType
		want  string
	}{
		{"42", TokenInt, "42"},
		{"0", TokenInt, "0"},
		{"3.14", TokenFloat, "3.14"},
		{"1.5e10", TokenFloat, "1.5e10"},
		{"2e-3", TokenFloat, "2e-3"},
	}

	for _, tc := range tests {
		l := NewLexer(tc.input)
		tok := l.NextToken()
		if tok.Type != tc.typ {
			t.Errorf("Lexer(%q): type = %v, want %v", tc.input, tok.Type, tc.typ)
		}
		if tok.Literal != tc.want {
			t.Errorf("Lexer(%q): literal = %q, want %q", tc.input, tok.Literal, tc.want)
		}
	}
}

func TestLexerStringEscapes(t *testing.T) {
	l := NewLexer(`"a\nb\t\"c\\d"`)
	tok := l.NextToken()
	if tok.Type != TokenString {
		t.Fatalf("type = %v, want STRING", tok.Type)
	}
	want := "a\nb\t\"c\\d"
	if tok.Literal != want {
		t.Errorf("literal = %q, want %q", tok.Literal, want)
	}
}

func TestLexerUnterminatedString(t *testing.T) {
	l := NewLexer(`"abc`)
	tok := l.NextToken()
	if tok.Type != TokenError {
		t.Fatalf("type = %v, want ERROR", tok.Type)
	}
}

func TestLexerVariable(t *testing.T) {
	l := NewLexer(`$offset $todo_keys`)
	tok := l.NextToken()
	if tok.Type != TokenVariable || tok.Literal != "offset" {
		t.Errorf("got %v %q, want VARIABLE offset", tok.Type, tok.Literal)
	}
	tok = l.NextToken()
	if tok.Type != TokenVariable || tok.Literal != "todo_keys" {
		t.Errorf("got %v %q, want VARIABLE todo_keys", tok.Type, tok.Literal)
	}
}

func TestLexerKeywordsVsIdentifiers(t *testing.T) {
	tests := []struct {
		input string
		typ   TokenType
	}{
		{"true", TokenTrue},
		{"false", TokenFalse},
		{"none", TokenNone},
		{"and", TokenAnd},
		{"or", TokenOr},
		{"in", TokenIn},
		{"matches", TokenMatches},
		{"mod", TokenMod},
		{"rem", TokenRem},
		{"quot", TokenQuot},
		{"as", TokenAs},
		{"let", TokenLet},
		{"if", TokenIf},
		{"then", TokenThen},
		{"elif", TokenElif},
		{"else", TokenElse},
		{"select", TokenIdentifier},
		{"map", TokenIdentifier},
		{"category", TokenIdentifier},
	}

	for _, tc := range tests {
		l := NewLexer(tc.input)
		tok := l.NextToken()
		if tok.Type != tc.typ {
			t.Errorf("Lexer(%q): type = %v, want %v", tc.input, tok.Type, tc.typ)
		}
	}
}

func TestLexerComment(t *testing.T) {
	l := NewLexer("1 # trailing comment\n+ 2")
	tok := l.NextToken()
	if tok.Type != TokenInt || tok.Literal != "1" {
		t.Fatalf("got %v %q", tok.Type, tok.Literal)
	}
	tok = l.NextToken()
	if tok.Type != TokenPlus {
		t.Fatalf("got %v, want +", tok.Type)
	}
}

func TestLexerPositions(t *testing.T) {
	l := NewLexer("ab\ncd")
	tok := l.NextToken() // "ab" identifier, line 1
	if tok.Pos.Line != 1 || tok.Pos.Column != 1 {
		t.Errorf("pos = %v, want line 1 col 1", tok.Pos)
	}
	tok = l.NextToken() // "cd" identifier, line 2
	if tok.Pos.Line != 2 || tok.Pos.Column != 1 {
		t.Errorf("pos = %v, want line 2 col 1", tok.Pos)
	}
}

func TestTokenizeTrailingEOF(t *testing.T) {
	toks := Tokenize(".foo")
	if len(toks) == 0 || toks[len(toks)-1].Type != TokenEOF {
		t.Fatalf("Tokenize did not end with EOF: %v", toks)
	}
}
