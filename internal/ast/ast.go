// Package ast defines the abstract syntax tree produced by the parser.
//
// Every node carries the token.Token it was parsed from, so any node can
// report its source position for diagnostics.
package ast

import (
	"bytes"
	"strconv"
	"strings"

	"pitlang/internal/token"
)

// Node is the base of every AST node.
type Node interface {
	TokenLiteral() string
	String() string
	Pos() token.Token
}

type Statement interface {
	Node
	statementNode()
}

type Expression interface {
	Node
	expressionNode()
}

// Program is the ordered sequence of top-level statements produced by the
// parser.
type Program struct {
	Statements []Statement
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

func (p *Program) Pos() token.Token {
	if len(p.Statements) > 0 {
		return p.Statements[0].Pos()
	}
	return token.Token{}
}

func (p *Program) String() string {
	var out bytes.Buffer
	for _, s := range p.Statements {
		out.WriteString(s.String())
		out.WriteString("\n")
	}
	return out.String()
}

// ---- Literals ----

type NumberLiteral struct {
	Token token.Token
	Value float64
}

func (n *NumberLiteral) expressionNode()      {}
func (n *NumberLiteral) TokenLiteral() string { return n.Token.Literal }
func (n *NumberLiteral) Pos() token.Token     { return n.Token }
func (n *NumberLiteral) String() string       { return strconv.FormatFloat(n.Value, 'g', -1, 64) }

type StringLiteral struct {
	Token token.Token
	Value string
}

func (s *StringLiteral) expressionNode()      {}
func (s *StringLiteral) TokenLiteral() string { return s.Token.Literal }
func (s *StringLiteral) Pos() token.Token     { return s.Token }
func (s *StringLiteral) String() string       { return strconv.Quote(s.Value) }

type BooleanLiteral struct {
	Token token.Token
	Value bool
}

func (b *BooleanLiteral) expressionNode()      {}
func (b *BooleanLiteral) TokenLiteral() string { return b.Token.Literal }
func (b *BooleanLiteral) Pos() token.Token     { return b.Token }
func (b *BooleanLiteral) String() string       { return b.Token.Literal }

type NullLiteral struct {
	Token token.Token
}

func (n *NullLiteral) expressionNode()      {}
func (n *NullLiteral) TokenLiteral() string { return n.Token.Literal }
func (n *NullLiteral) Pos() token.Token     { return n.Token }
func (n *NullLiteral) String() string       { return "null" }

type Identifier struct {
	Token token.Token
	Value string
}

func (i *Identifier) expressionNode()      {}
func (i *Identifier) TokenLiteral() string { return i.Token.Literal }
func (i *Identifier) Pos() token.Token     { return i.Token }
func (i *Identifier) String() string       { return i.Value }

type ArrayLiteral struct {
	Token    token.Token // the '['
	Elements []Expression
}

func (a *ArrayLiteral) expressionNode()      {}
func (a *ArrayLiteral) TokenLiteral() string { return a.Token.Literal }
func (a *ArrayLiteral) Pos() token.Token     { return a.Token }
func (a *ArrayLiteral) String() string {
	elems := make([]string, len(a.Elements))
	for i, e := range a.Elements {
		elems[i] = e.String()
	}
	return "[" + strings.Join(elems, ", ") + "]"
}

// ObjectField is one `key: expr` pair in an ObjectLiteral, in source order.
type ObjectField struct {
	Key   string
	Value Expression
}

type ObjectLiteral struct {
	Token  token.Token // the '{'
	Fields []ObjectField
}

func (o *ObjectLiteral) expressionNode()      {}
func (o *ObjectLiteral) TokenLiteral() string { return o.Token.Literal }
func (o *ObjectLiteral) Pos() token.Token     { return o.Token }
func (o *ObjectLiteral) String() string {
	fields := make([]string, len(o.Fields))
	for i, f := range o.Fields {
		fields[i] = f.Key + ": " + f.Value.String()
	}
	return "{" + strings.Join(fields, ", ") + "}"
}

type FunctionLiteral struct {
	Token      token.Token // the 'fn'
	Parameters []*Identifier
	Body       *Block
}

func (f *FunctionLiteral) expressionNode()      {}
func (f *FunctionLiteral) TokenLiteral() string { return f.Token.Literal }
func (f *FunctionLiteral) Pos() token.Token     { return f.Token }
func (f *FunctionLiteral) String() string {
	params := make([]string, len(f.Parameters))
	for i, p := range f.Parameters {
		params[i] = p.String()
	}
	return "fn(" + strings.Join(params, ", ") + ") " + f.Body.String()
}

// ---- Operators ----

type Unary struct {
	Token    token.Token // the operator
	Operator string
	Operand  Expression
}

func (u *Unary) expressionNode()      {}
func (u *Unary) TokenLiteral() string { return u.Token.Literal }
func (u *Unary) Pos() token.Token     { return u.Token }
func (u *Unary) String() string       { return "(" + u.Operator + u.Operand.String() + ")" }

type Binary struct {
	Token    token.Token // the operator
	Left     Expression
	Operator string
	Right    Expression
}

func (b *Binary) expressionNode()      {}
func (b *Binary) TokenLiteral() string { return b.Token.Literal }
func (b *Binary) Pos() token.Token     { return b.Token }
func (b *Binary) String() string {
	return "(" + b.Left.String() + " " + b.Operator + " " + b.Right.String() + ")"
}

type Index struct {
	Token  token.Token // the '['
	Target Expression
	Index  Expression
}

func (ix *Index) expressionNode()      {}
func (ix *Index) TokenLiteral() string { return ix.Token.Literal }
func (ix *Index) Pos() token.Token     { return ix.Token }
func (ix *Index) String() string       { return "(" + ix.Target.String() + "[" + ix.Index.String() + "])" }

type Member struct {
	Token  token.Token // the '.'
	Target Expression
	Name   string
}

func (m *Member) expressionNode()      {}
func (m *Member) TokenLiteral() string { return m.Token.Literal }
func (m *Member) Pos() token.Token     { return m.Token }
func (m *Member) String() string       { return "(" + m.Target.String() + "." + m.Name + ")" }

type Call struct {
	Token  token.Token // the '('
	Callee Expression
	Args   []Expression
}

func (c *Call) expressionNode()      {}
func (c *Call) TokenLiteral() string { return c.Token.Literal }
func (c *Call) Pos() token.Token     { return c.Token }
func (c *Call) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	return c.Callee.String() + "(" + strings.Join(args, ", ") + ")"
}

// Assign is `target = value` where target is an Identifier, Index, or
// Member expression.
type Assign struct {
	Token  token.Token // the '='
	Target Expression
	Value  Expression
}

func (a *Assign) expressionNode()      {}
func (a *Assign) TokenLiteral() string { return a.Token.Literal }
func (a *Assign) Pos() token.Token     { return a.Token }
func (a *Assign) String() string {
	if _, ok := a.Value.(*Assign); ok {
		return a.Target.String() + " = (" + a.Value.String() + ")"
	}
	return a.Target.String() + " = " + a.Value.String()
}

// ---- Statements ----

type LetStatement struct {
	Token token.Token // the 'let'
	Name  *Identifier
	Value Expression
}

func (l *LetStatement) statementNode()       {}
func (l *LetStatement) TokenLiteral() string { return l.Token.Literal }
func (l *LetStatement) Pos() token.Token     { return l.Token }
func (l *LetStatement) String() string {
	return "let " + l.Name.String() + " = " + l.Value.String() + ";"
}

// FunctionStatement is sugar for `let name = fn(...) { ... };`.
type FunctionStatement struct {
	Token      token.Token // the 'fn'
	Name       *Identifier
	Parameters []*Identifier
	Body       *Block
}

func (f *FunctionStatement) statementNode()       {}
func (f *FunctionStatement) TokenLiteral() string { return f.Token.Literal }
func (f *FunctionStatement) Pos() token.Token     { return f.Token }
func (f *FunctionStatement) String() string {
	params := make([]string, len(f.Parameters))
	for i, p := range f.Parameters {
		params[i] = p.String()
	}
	return "fn " + f.Name.String() + "(" + strings.Join(params, ", ") + ") " + f.Body.String()
}

type Block struct {
	Token      token.Token // the '{'
	Statements []Statement
}

func (b *Block) statementNode()       {}
func (b *Block) TokenLiteral() string { return b.Token.Literal }
func (b *Block) Pos() token.Token     { return b.Token }
func (b *Block) String() string {
	var out bytes.Buffer
	out.WriteString("{ ")
	for _, s := range b.Statements {
		out.WriteString(s.String())
		out.WriteString(" ")
	}
	out.WriteString("}")
	return out.String()
}

type If struct {
	Token     token.Token // the 'if'
	Condition Expression
	Then      *Block
	Else      *Block // either Else or ElseIf is set, never both
	ElseIf    *If
}

func (i *If) statementNode()       {}
func (i *If) TokenLiteral() string { return i.Token.Literal }
func (i *If) Pos() token.Token     { return i.Token }
func (i *If) String() string {
	out := "if " + i.Condition.String() + " " + i.Then.String()
	if i.ElseIf != nil {
		out += " else " + i.ElseIf.String()
	} else if i.Else != nil {
		out += " else " + i.Else.String()
	}
	return out
}

type While struct {
	Token     token.Token // the 'while'
	Condition Expression
	Body      *Block
}

func (w *While) statementNode()       {}
func (w *While) TokenLiteral() string { return w.Token.Literal }
func (w *While) Pos() token.Token     { return w.Token }
func (w *While) String() string {
	return "while " + w.Condition.String() + " " + w.Body.String()
}

type For struct {
	Token     token.Token // the 'for'
	Init      Statement   // a LetStatement or ExpressionStatement, may be nil
	Condition Expression  // may be nil
	Step      Expression  // may be nil
	Body      *Block
}

func (f *For) statementNode()       {}
func (f *For) TokenLiteral() string { return f.Token.Literal }
func (f *For) Pos() token.Token     { return f.Token }
func (f *For) String() string {
	var out bytes.Buffer
	out.WriteString("for ")
	if f.Init != nil {
		out.WriteString(f.Init.String())
	}
	out.WriteString(" ")
	if f.Condition != nil {
		out.WriteString(f.Condition.String())
	}
	out.WriteString("; ")
	if f.Step != nil {
		out.WriteString(f.Step.String())
	}
	out.WriteString(" ")
	out.WriteString(f.Body.String())
	return out.String()
}

type Return struct {
	Token token.Token // the 'return'
	Value Expression  // may be nil
}

func (r *Return) statementNode()       {}
func (r *Return) TokenLiteral() string { return r.Token.Literal }
func (r *Return) Pos() token.Token     { return r.Token }
func (r *Return) String() string {
	if r.Value == nil {
		return "return;"
	}
	return "return " + r.Value.String() + ";"
}

type ExpressionStatement struct {
	Token      token.Token // the first token of the expression
	Expression Expression
}

func (e *ExpressionStatement) statementNode()       {}
func (e *ExpressionStatement) TokenLiteral() string { return e.Token.Literal }
func (e *ExpressionStatement) Pos() token.Token     { return e.Token }
func (e *ExpressionStatement) String() string       { return e.Expression.String() + ";" }
