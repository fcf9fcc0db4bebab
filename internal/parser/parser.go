// Package parser implements a recursive-descent, precedence-climbing
// parser that turns a token stream into an *ast.Program.
package parser

import (
	"strconv"

	"pitlang/internal/ast"
	"pitlang/internal/diagnostics"
	"pitlang/internal/lexer"
	"pitlang/internal/token"
)

// Precedence levels, lowest to highest. POWER sits between multiplicative
// and unary prefix so `^` binds tighter than `* / %` but looser than a
// leading `-`/`!` — needed for the calculator REPL scenario's `3^2%7`.
const (
	_ int = iota
	LOWEST
	ASSIGNMENT
	LOGICAL_OR
	LOGICAL_AND
	EQUALITY
	RELATIONAL
	ADDITIVE
	MULTIPLICATIVE
	POWER
	PREFIX
	CALL
)

var precedences = map[token.TokenType]int{
	token.ASSIGN:      ASSIGNMENT,
	token.LOGICAL_OR:  LOGICAL_OR,
	token.LOGICAL_AND: LOGICAL_AND,
	token.EQ:          EQUALITY,
	token.NOT_EQ:      EQUALITY,
	token.LT:          RELATIONAL,
	token.LT_EQ:       RELATIONAL,
	token.GT:          RELATIONAL,
	token.GT_EQ:       RELATIONAL,
	token.PLUS:        ADDITIVE,
	token.MINUS:       ADDITIVE,
	token.ASTERISK:    MULTIPLICATIVE,
	token.SLASH:       MULTIPLICATIVE,
	token.PERCENT:     MULTIPLICATIVE,
	token.CARET:       POWER,
	token.PERIOD:      CALL,
	token.LBRACKET:    CALL,
	token.LPAREN:      CALL,
}

type (
	prefixParseFn func() (ast.Expression, error)
	infixParseFn  func(ast.Expression) (ast.Expression, error)
)

// Parser consumes a token stream with one-token lookahead (curToken,
// peekToken) and aborts at the first error, per spec.
type Parser struct {
	l    *lexer.Lexer
	file string

	curToken  token.Token
	peekToken token.Token

	prefixParseFns map[token.TokenType]prefixParseFn
	infixParseFns  map[token.TokenType]infixParseFn
}

func New(l *lexer.Lexer, file string) (*Parser, error) {
	p := &Parser{l: l, file: file}

	p.prefixParseFns = make(map[token.TokenType]prefixParseFn)
	p.registerPrefix(token.IDENT, p.parseIdentifier)
	p.registerPrefix(token.NUMBER, p.parseNumberLiteral)
	p.registerPrefix(token.STRING, p.parseStringLiteral)
	p.registerPrefix(token.TRUE, p.parseBooleanLiteral)
	p.registerPrefix(token.FALSE, p.parseBooleanLiteral)
	p.registerPrefix(token.NULL, p.parseNullLiteral)
	p.registerPrefix(token.BANG, p.parseUnary)
	p.registerPrefix(token.MINUS, p.parseUnary)
	p.registerPrefix(token.INCREMENT, p.parseUnary)
	p.registerPrefix(token.DECREMENT, p.parseUnary)
	p.registerPrefix(token.LPAREN, p.parseGroupedExpression)
	p.registerPrefix(token.LBRACKET, p.parseArrayLiteral)
	p.registerPrefix(token.LBRACE, p.parseObjectLiteral)
	p.registerPrefix(token.FUNCTION, p.parseFunctionLiteral)

	p.infixParseFns = make(map[token.TokenType]infixParseFn)
	for _, tt := range []token.TokenType{
		token.PLUS, token.MINUS, token.ASTERISK, token.SLASH, token.PERCENT, token.CARET,
		token.EQ, token.NOT_EQ, token.LT, token.LT_EQ, token.GT, token.GT_EQ,
		token.LOGICAL_AND, token.LOGICAL_OR,
	} {
		p.registerInfix(tt, p.parseBinary)
	}
	p.registerInfix(token.ASSIGN, p.parseAssign)
	p.registerInfix(token.LPAREN, p.parseCall)
	p.registerInfix(token.LBRACKET, p.parseIndex)
	p.registerInfix(token.PERIOD, p.parseMember)

	if err := p.next(); err != nil {
		return nil, err
	}
	if err := p.next(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Parser) registerPrefix(t token.TokenType, fn prefixParseFn) { p.prefixParseFns[t] = fn }
func (p *Parser) registerInfix(t token.TokenType, fn infixParseFn)   { p.infixParseFns[t] = fn }

func (p *Parser) next() error {
	p.curToken = p.peekToken
	tok, err := p.l.NextToken()
	if err != nil {
		return p.lexError(err)
	}
	p.peekToken = tok
	return nil
}

func (p *Parser) lexError(err error) error {
	if le, ok := err.(*lexer.Error); ok {
		return diagnostics.New(diagnostics.KindLexError, p.file, le.Line, le.Col, "%s", le.Message)
	}
	return err
}

func (p *Parser) peekPrecedence() int {
	if pr, ok := precedences[p.peekToken.Type]; ok {
		return pr
	}
	return LOWEST
}

func (p *Parser) errorf(format string, args ...interface{}) error {
	return diagnostics.New(diagnostics.KindParseError, p.file, p.curToken.Line, p.curToken.Col, format, args...)
}

func (p *Parser) expectPeek(t token.TokenType) error {
	if p.peekToken.Type != t {
		return diagnostics.New(diagnostics.KindParseError, p.file, p.peekToken.Line, p.peekToken.Col,
			"expected next token to be %s, got %s (%q) instead", t, p.peekToken.Type, p.peekToken.Literal)
	}
	return p.next()
}

// ParseProgram parses the full token stream into a Program, aborting with
// the first ParseError or LexError encountered.
func (p *Parser) ParseProgram() (*ast.Program, error) {
	program := &ast.Program{}

	for p.curToken.Type != token.EOF {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		program.Statements = append(program.Statements, stmt)
		if err := p.next(); err != nil {
			return nil, err
		}
	}
	return program, nil
}

func (p *Parser) parseStatement() (ast.Statement, error) {
	switch p.curToken.Type {
	case token.LET:
		return p.parseLetStatement()
	case token.FUNCTION:
		return p.parseFunctionStatement()
	case token.IF:
		return p.parseIf()
	case token.WHILE:
		return p.parseWhile()
	case token.FOR:
		return p.parseFor()
	case token.RETURN:
		return p.parseReturn()
	case token.LBRACE:
		if p.looksLikeObjectLiteral() {
			return p.parseExpressionStatement()
		}
		return p.parseBlock()
	default:
		return p.parseExpressionStatement()
	}
}

// looksLikeObjectLiteral disambiguates a leading `{` in statement position:
// `{ key: expr, ... }` is an ObjectLiteral expression statement, while any
// other `{ ... }` is a bare Block statement. It decides by peeking one
// token past peekToken (key, then ':') on a throwaway copy of the lexer,
// without disturbing the parser's real token stream.
func (p *Parser) looksLikeObjectLiteral() bool {
	if p.peekToken.Type != token.IDENT && p.peekToken.Type != token.STRING {
		return false
	}
	lexCopy := *p.l
	afterKey, err := lexCopy.NextToken()
	if err != nil {
		return false
	}
	return afterKey.Type == token.COLON
}

func (p *Parser) parseLetStatement() (*ast.LetStatement, error) {
	stmt := &ast.LetStatement{Token: p.curToken}

	if err := p.expectPeek(token.IDENT); err != nil {
		return nil, err
	}
	stmt.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}

	if err := p.expectPeek(token.ASSIGN); err != nil {
		return nil, err
	}
	if err := p.next(); err != nil {
		return nil, err
	}

	val, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	stmt.Value = val

	if p.peekToken.Type == token.SEMICOLON {
		if err := p.next(); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

// parseFunctionStatement parses `fn IDENT ( params ) block`, sugar for a
// let-binding to a FunctionLiteral.
func (p *Parser) parseFunctionStatement() (*ast.FunctionStatement, error) {
	stmt := &ast.FunctionStatement{Token: p.curToken}

	if err := p.expectPeek(token.IDENT); err != nil {
		return nil, err
	}
	stmt.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}

	if err := p.expectPeek(token.LPAREN); err != nil {
		return nil, err
	}
	params, err := p.parseFunctionParameters()
	if err != nil {
		return nil, err
	}
	stmt.Parameters = params

	if err := p.expectPeek(token.LBRACE); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	stmt.Body = body
	return stmt, nil
}

func (p *Parser) parseFunctionParameters() ([]*ast.Identifier, error) {
	var params []*ast.Identifier

	if p.peekToken.Type == token.RPAREN {
		return params, p.next()
	}
	if err := p.next(); err != nil {
		return nil, err
	}
	params = append(params, &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal})

	for p.peekToken.Type == token.COMMA {
		if err := p.next(); err != nil {
			return nil, err
		}
		if err := p.next(); err != nil {
			return nil, err
		}
		params = append(params, &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal})
	}

	if err := p.expectPeek(token.RPAREN); err != nil {
		return nil, err
	}
	return params, nil
}

// parseIf accepts optional parentheses around the condition, and either a
// trailing `else block` or `else if ...` chained via ElseIf.
func (p *Parser) parseIf() (*ast.If, error) {
	stmt := &ast.If{Token: p.curToken}

	if err := p.next(); err != nil {
		return nil, err
	}
	hadParen := p.curToken.Type == token.LPAREN
	if hadParen {
		if err := p.next(); err != nil {
			return nil, err
		}
	}
	cond, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	stmt.Condition = cond
	if hadParen {
		if err := p.expectPeek(token.RPAREN); err != nil {
			return nil, err
		}
	}

	if err := p.expectPeek(token.LBRACE); err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	stmt.Then = then

	if p.peekToken.Type == token.ELSE {
		if err := p.next(); err != nil {
			return nil, err
		}
		if p.peekToken.Type == token.IF {
			if err := p.next(); err != nil {
				return nil, err
			}
			elseIf, err := p.parseIf()
			if err != nil {
				return nil, err
			}
			stmt.ElseIf = elseIf
		} else {
			if err := p.expectPeek(token.LBRACE); err != nil {
				return nil, err
			}
			elseBlock, err := p.parseBlock()
			if err != nil {
				return nil, err
			}
			stmt.Else = elseBlock
		}
	}
	return stmt, nil
}

func (p *Parser) parseWhile() (*ast.While, error) {
	stmt := &ast.While{Token: p.curToken}

	if err := p.next(); err != nil {
		return nil, err
	}
	hadParen := p.curToken.Type == token.LPAREN
	if hadParen {
		if err := p.next(); err != nil {
			return nil, err
		}
	}
	cond, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	stmt.Condition = cond
	if hadParen {
		if err := p.expectPeek(token.RPAREN); err != nil {
			return nil, err
		}
	}

	if err := p.expectPeek(token.LBRACE); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	stmt.Body = body
	return stmt, nil
}

// parseFor accepts both `for init; cond; step { body }` and the trailing-
// semicolon form `for init; cond; step; { body }` seen in example scripts.
func (p *Parser) parseFor() (*ast.For, error) {
	stmt := &ast.For{Token: p.curToken}

	if err := p.next(); err != nil {
		return nil, err
	}
	hadParen := p.curToken.Type == token.LPAREN
	if hadParen {
		if err := p.next(); err != nil {
			return nil, err
		}
	}

	if p.curToken.Type != token.SEMICOLON {
		init, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmt.Init = init
	}
	if p.curToken.Type != token.SEMICOLON {
		return nil, p.errorf("expected ';' after for-loop init, got %q", p.curToken.Literal)
	}
	if err := p.next(); err != nil {
		return nil, err
	}

	if p.curToken.Type != token.SEMICOLON {
		cond, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		stmt.Condition = cond
		if err := p.next(); err != nil {
			return nil, err
		}
	}
	if p.curToken.Type != token.SEMICOLON {
		return nil, p.errorf("expected ';' after for-loop condition, got %q", p.curToken.Literal)
	}
	if err := p.next(); err != nil {
		return nil, err
	}

	if p.curToken.Type != token.SEMICOLON && p.curToken.Type != token.LBRACE {
		step, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		stmt.Step = step
		if err := p.next(); err != nil {
			return nil, err
		}
	}
	// optional trailing ';' before the block, per the alternate grammar form.
	if p.curToken.Type == token.SEMICOLON {
		if err := p.next(); err != nil {
			return nil, err
		}
	}
	if hadParen && p.curToken.Type == token.RPAREN {
		if err := p.next(); err != nil {
			return nil, err
		}
	}

	if p.curToken.Type != token.LBRACE {
		return nil, p.errorf("expected '{' to start for-loop body, got %q", p.curToken.Literal)
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	stmt.Body = body
	return stmt, nil
}

func (p *Parser) parseReturn() (*ast.Return, error) {
	stmt := &ast.Return{Token: p.curToken}

	if p.peekToken.Type == token.SEMICOLON {
		if err := p.next(); err != nil {
			return nil, err
		}
		return stmt, nil
	}

	if err := p.next(); err != nil {
		return nil, err
	}
	val, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	stmt.Value = val

	if p.peekToken.Type == token.SEMICOLON {
		if err := p.next(); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

func (p *Parser) parseExpressionStatement() (*ast.ExpressionStatement, error) {
	stmt := &ast.ExpressionStatement{Token: p.curToken}

	expr, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	stmt.Expression = expr

	if p.peekToken.Type == token.SEMICOLON {
		if err := p.next(); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

func (p *Parser) parseBlock() (*ast.Block, error) {
	block := &ast.Block{Token: p.curToken}

	if err := p.next(); err != nil {
		return nil, err
	}
	for p.curToken.Type != token.RBRACE {
		if p.curToken.Type == token.EOF {
			return nil, diagnostics.New(diagnostics.KindParseError, p.file, block.Token.Line, block.Token.Col,
				"unterminated block starting at %d:%d", block.Token.Line, block.Token.Col)
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		block.Statements = append(block.Statements, stmt)
		if err := p.next(); err != nil {
			return nil, err
		}
	}
	return block, nil
}

// parseExpression is the precedence-climbing core: it parses a prefix
// expression then repeatedly folds in infix operators whose precedence
// exceeds the caller's floor.
func (p *Parser) parseExpression(precedence int) (ast.Expression, error) {
	prefix, ok := p.prefixParseFns[p.curToken.Type]
	if !ok {
		return nil, p.errorf("no prefix parse function for %q found", p.curToken.Literal)
	}
	left, err := prefix()
	if err != nil {
		return nil, err
	}

	for p.peekToken.Type != token.SEMICOLON && precedence < p.peekPrecedence() {
		infix, ok := p.infixParseFns[p.peekToken.Type]
		if !ok {
			return left, nil
		}
		if err := p.next(); err != nil {
			return nil, err
		}
		left, err = infix(left)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (p *Parser) parseIdentifier() (ast.Expression, error) {
	return &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}, nil
}

func (p *Parser) parseNumberLiteral() (ast.Expression, error) {
	lit := &ast.NumberLiteral{Token: p.curToken}
	value, err := strconv.ParseFloat(p.curToken.Literal, 64)
	if err != nil {
		return nil, p.errorf("could not parse %q as a number", p.curToken.Literal)
	}
	lit.Value = value
	return lit, nil
}

func (p *Parser) parseStringLiteral() (ast.Expression, error) {
	return &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal}, nil
}

func (p *Parser) parseBooleanLiteral() (ast.Expression, error) {
	return &ast.BooleanLiteral{Token: p.curToken, Value: p.curToken.Type == token.TRUE}, nil
}

func (p *Parser) parseNullLiteral() (ast.Expression, error) {
	return &ast.NullLiteral{Token: p.curToken}, nil
}

func (p *Parser) parseGroupedExpression() (ast.Expression, error) {
	if err := p.next(); err != nil {
		return nil, err
	}
	expr, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	if err := p.expectPeek(token.RPAREN); err != nil {
		return nil, err
	}
	return expr, nil
}

func (p *Parser) parseArrayLiteral() (ast.Expression, error) {
	arr := &ast.ArrayLiteral{Token: p.curToken}

	elems, err := p.parseExpressionList(token.RBRACKET)
	if err != nil {
		return nil, err
	}
	arr.Elements = elems
	return arr, nil
}

func (p *Parser) parseExpressionList(end token.TokenType) ([]ast.Expression, error) {
	var list []ast.Expression

	if p.peekToken.Type == end {
		return list, p.next()
	}
	if err := p.next(); err != nil {
		return nil, err
	}
	expr, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	list = append(list, expr)

	for p.peekToken.Type == token.COMMA {
		if err := p.next(); err != nil {
			return nil, err
		}
		if err := p.next(); err != nil {
			return nil, err
		}
		expr, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		list = append(list, expr)
	}

	if err := p.expectPeek(end); err != nil {
		return nil, err
	}
	return list, nil
}

// parseObjectLiteral parses `{ key: expr, ... }` where key is an
// identifier or a string literal.
func (p *Parser) parseObjectLiteral() (ast.Expression, error) {
	obj := &ast.ObjectLiteral{Token: p.curToken}

	for p.peekToken.Type != token.RBRACE {
		if err := p.next(); err != nil {
			return nil, err
		}

		var key string
		switch p.curToken.Type {
		case token.IDENT, token.STRING:
			key = p.curToken.Literal
		default:
			return nil, p.errorf("expected object key (identifier or string), got %q", p.curToken.Literal)
		}

		if err := p.expectPeek(token.COLON); err != nil {
			return nil, err
		}
		if err := p.next(); err != nil {
			return nil, err
		}
		val, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		obj.Fields = append(obj.Fields, ast.ObjectField{Key: key, Value: val})

		if p.peekToken.Type == token.COMMA {
			if err := p.next(); err != nil {
				return nil, err
			}
		} else if p.peekToken.Type != token.RBRACE {
			return nil, p.errorf("expected ',' or '}' in object literal, got %q", p.peekToken.Literal)
		}
	}

	if err := p.next(); err != nil {
		return nil, err
	}
	return obj, nil
}

func (p *Parser) parseFunctionLiteral() (ast.Expression, error) {
	lit := &ast.FunctionLiteral{Token: p.curToken}

	if err := p.expectPeek(token.LPAREN); err != nil {
		return nil, err
	}
	params, err := p.parseFunctionParameters()
	if err != nil {
		return nil, err
	}
	lit.Parameters = params

	if err := p.expectPeek(token.LBRACE); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	lit.Body = body
	return lit, nil
}

// parseUnary handles prefix `!`, `-`, `++`, `--`.
func (p *Parser) parseUnary() (ast.Expression, error) {
	expr := &ast.Unary{Token: p.curToken, Operator: p.curToken.Literal}

	if err := p.next(); err != nil {
		return nil, err
	}
	operand, err := p.parseExpression(PREFIX)
	if err != nil {
		return nil, err
	}
	expr.Operand = operand

	if expr.Operator == "++" || expr.Operator == "--" {
		if !isAssignable(expr.Operand) {
			return nil, p.errorf("invalid %s target: must be an identifier, index, or member expression", expr.Operator)
		}
	}
	return expr, nil
}

func (p *Parser) parseBinary(left ast.Expression) (ast.Expression, error) {
	expr := &ast.Binary{Token: p.curToken, Operator: p.curToken.Literal, Left: left}

	precedence := precedences[p.curToken.Type]
	if err := p.next(); err != nil {
		return nil, err
	}
	right, err := p.parseExpression(precedence)
	if err != nil {
		return nil, err
	}
	expr.Right = right
	return expr, nil
}

// parseAssign is right-associative: `a = b = c` parses as `a = (b = c)`.
func (p *Parser) parseAssign(left ast.Expression) (ast.Expression, error) {
	if !isAssignable(left) {
		return nil, p.errorf("invalid assignment target: left side must be an identifier, index, or member expression")
	}
	expr := &ast.Assign{Token: p.curToken, Target: left}

	if err := p.next(); err != nil {
		return nil, err
	}
	val, err := p.parseExpression(ASSIGNMENT - 1)
	if err != nil {
		return nil, err
	}
	expr.Value = val
	return expr, nil
}

func isAssignable(expr ast.Expression) bool {
	switch expr.(type) {
	case *ast.Identifier, *ast.Index, *ast.Member:
		return true
	default:
		return false
	}
}

func (p *Parser) parseCall(callee ast.Expression) (ast.Expression, error) {
	call := &ast.Call{Token: p.curToken, Callee: callee}

	args, err := p.parseExpressionList(token.RPAREN)
	if err != nil {
		return nil, err
	}
	call.Args = args
	return call, nil
}

func (p *Parser) parseIndex(target ast.Expression) (ast.Expression, error) {
	ix := &ast.Index{Token: p.curToken, Target: target}

	if err := p.next(); err != nil {
		return nil, err
	}
	idx, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	ix.Index = idx

	if err := p.expectPeek(token.RBRACKET); err != nil {
		return nil, err
	}
	return ix, nil
}

func (p *Parser) parseMember(target ast.Expression) (ast.Expression, error) {
	member := &ast.Member{Token: p.curToken, Target: target}

	if err := p.expectPeek(token.IDENT); err != nil {
		return nil, err
	}
	member.Name = p.curToken.Literal
	return member, nil
}
