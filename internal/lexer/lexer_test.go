package lexer

import (
	"testing"

	"pitlang/internal/token"
)

func TestNextToken(t *testing.T) {
	input := `let five = 5;
let ten = 10;

let add = fn(x, y) {
  x + y;
};

let result = add(five, ten);
!-/*%5;
5 < 10 > 5;
5 <= 10 >= 5;

if (5 < 10) {
  return true;
} else {
  return false;
}
10 == 10; // comment
10 != 9;
true && false;
true || false;
++five;
--ten;
[1, 2];
{"foo": "bar"}
"foo\nbar"
`

	tests := []struct {
		expectedType    token.TokenType
		expectedLiteral string
	}{
		{token.LET, "let"},
		{token.IDENT, "five"},
		{token.ASSIGN, "="},
		{token.NUMBER, "5"},
		{token.SEMICOLON, ";"},
		{token.LET, "let"},
		{token.IDENT, "ten"},
		{token.ASSIGN, "="},
		{token.NUMBER, "10"},
		{token.SEMICOLON, ";"},
		{token.LET, "let"},
		{token.IDENT, "add"},
		{token.ASSIGN, "="},
		{token.FUNCTION, "fn"},
		{token.LPAREN, "("},
		{token.IDENT, "x"},
		{token.COMMA, ","},
		{token.IDENT, "y"},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},
		{token.IDENT, "x"},
		{token.PLUS, "+"},
		{token.IDENT, "y"},
		{token.SEMICOLON, ";"},
		{token.RBRACE, "}"},
		{token.SEMICOLON, ";"},
		{token.LET, "let"},
		{token.IDENT, "result"},
		{token.ASSIGN, "="},
		{token.IDENT, "add"},
		{token.LPAREN, "("},
		{token.IDENT, "five"},
		{token.COMMA, ","},
		{token.IDENT, "ten"},
		{token.RPAREN, ")"},
		{token.SEMICOLON, ";"},
		{token.BANG, "!"},
		{token.MINUS, "-"},
		{token.SLASH, "/"},
		{token.ASTERISK, "*"},
		{token.PERCENT, "%"},
		{token.NUMBER, "5"},
		{token.SEMICOLON, ";"},
		{token.NUMBER, "5"},
		{token.LT, "<"},
		{token.NUMBER, "10"},
		{token.GT, ">"},
		{token.NUMBER, "5"},
		{token.SEMICOLON, ";"},
		{token.NUMBER, "5"},
		{token.LT_EQ, "<="},
		{token.NUMBER, "10"},
		{token.GT_EQ, ">="},
		{token.NUMBER, "5"},
		{token.SEMICOLON, ";"},
		{token.IF, "if"},
		{token.LPAREN, "("},
		{token.NUMBER, "5"},
		{token.LT, "<"},
		{token.NUMBER, "10"},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},
		{token.RETURN, "return"},
		{token.TRUE, "true"},
		{token.SEMICOLON, ";"},
		{token.RBRACE, "}"},
		{token.ELSE, "else"},
		{token.LBRACE, "{"},
		{token.RETURN, "return"},
		{token.FALSE, "false"},
		{token.SEMICOLON, ";"},
		{token.RBRACE, "}"},
		{token.NUMBER, "10"},
		{token.EQ, "=="},
		{token.NUMBER, "10"},
		{token.SEMICOLON, ";"},
		{token.NUMBER, "10"},
		{token.NOT_EQ, "!="},
		{token.NUMBER, "9"},
		{token.SEMICOLON, ";"},
		{token.TRUE, "true"},
		{token.LOGICAL_AND, "&&"},
		{token.FALSE, "false"},
		{token.SEMICOLON, ";"},
		{token.TRUE, "true"},
		{token.LOGICAL_OR, "||"},
		{token.FALSE, "false"},
		{token.SEMICOLON, ";"},
		{token.INCREMENT, "++"},
		{token.IDENT, "five"},
		{token.SEMICOLON, ";"},
		{token.DECREMENT, "--"},
		{token.IDENT, "ten"},
		{token.SEMICOLON, ";"},
		{token.LBRACKET, "["},
		{token.NUMBER, "1"},
		{token.COMMA, ","},
		{token.NUMBER, "2"},
		{token.RBRACKET, "]"},
		{token.SEMICOLON, ";"},
		{token.LBRACE, "{"},
		{token.STRING, "foo"},
		{token.COLON, ":"},
		{token.STRING, "bar"},
		{token.RBRACE, "}"},
		{token.STRING, "foo\nbar"},
		{token.EOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok, err := l.NextToken()
		if err != nil {
			t.Fatalf("tests[%d] - unexpected error: %s", i, err)
		}

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q (literal %q)",
				i, tt.expectedType, tok.Type, tok.Literal)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestNextTokenTracksLineAndCol(t *testing.T) {
	input := "let a = 1;\nlet b = 2;"

	l := New(input)
	var last token.Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if tok.Type == token.EOF {
			break
		}
		last = tok
	}

	if last.Line != 2 {
		t.Fatalf("expected last token on line 2, got line %d (literal %q)", last.Line, last.Literal)
	}
	if last.Col != 10 {
		t.Fatalf("expected last token at col 10, got col %d (literal %q)", last.Col, last.Literal)
	}
}

func TestUnterminatedStringIsLexError(t *testing.T) {
	l := New(`"unterminated`)
	if _, err := l.NextToken(); err == nil {
		t.Fatalf("expected an error for an unterminated string literal")
	}
}

func TestIllegalCharacterIsLexError(t *testing.T) {
	l := New("@")
	if _, err := l.NextToken(); err == nil {
		t.Fatalf("expected an error for an illegal character")
	}
}
