// Package evaluator implements the tree-walking evaluator: it turns an
// *ast.Program plus a root *object.Environment into program behavior.
package evaluator

import (
	"fmt"
	"math"

	"pitlang/internal/ast"
	"pitlang/internal/diagnostics"
	"pitlang/internal/object"
)

// Evaluator walks an AST against a threaded Environment. File is the
// script path used to stamp diagnostics; MaxCallDepth bounds recursion
// so a runaway script reports StackOverflow instead of crashing the host
// process.
type Evaluator struct {
	File         string
	MaxCallDepth int

	depth int
}

func New(file string) *Evaluator {
	return &Evaluator{File: file, MaxCallDepth: 10000}
}

func newError(node ast.Node, kind, format string, args ...interface{}) *object.Error {
	return &object.Error{Kind: kind, Message: fmt.Sprintf(format, args...), Pos: node}
}

func isError(obj object.Object) bool {
	if obj == nil {
		return false
	}
	return obj.Type() == object.ERROR_OBJ
}

// Eval is the mutually-recursive core: it dispatches on the concrete AST
// node type and returns either a Value, a *object.ReturnValue signal
// (unwound by applyFunction), or a *object.Error.
func (e *Evaluator) Eval(node ast.Node, env *object.Environment) object.Object {
	switch node := node.(type) {

	case *ast.Program:
		return e.evalProgram(node, env)

	case *ast.ExpressionStatement:
		return e.Eval(node.Expression, env)

	case *ast.NumberLiteral:
		return &object.Number{Value: node.Value}

	case *ast.StringLiteral:
		return &object.String{Value: node.Value}

	case *ast.BooleanLiteral:
		return object.NativeBoolToBoolean(node.Value)

	case *ast.NullLiteral:
		return object.NULL

	case *ast.Identifier:
		return e.evalIdentifier(node, env)

	case *ast.ArrayLiteral:
		elements, err := e.evalExpressions(node.Elements, env)
		if err != nil {
			return err
		}
		return &object.Array{Elements: elements}

	case *ast.ObjectLiteral:
		m := object.NewMap()
		for _, field := range node.Fields {
			val := e.Eval(field.Value, env)
			if isError(val) {
				return val
			}
			m.Set(field.Key, val)
		}
		return m

	case *ast.FunctionLiteral:
		return &object.Function{Parameters: node.Parameters, Body: node.Body, Env: env}

	case *ast.FunctionStatement:
		fn := &object.Function{Parameters: node.Parameters, Body: node.Body, Env: env}
		env.Define(node.Name.Value, fn)
		return fn

	case *ast.LetStatement:
		val := e.Eval(node.Value, env)
		if isError(val) {
			return val
		}
		env.Define(node.Name.Value, val)
		return val

	case *ast.Block:
		return e.evalBlock(node, env)

	case *ast.If:
		return e.evalIf(node, env)

	case *ast.While:
		return e.evalWhile(node, env)

	case *ast.For:
		return e.evalFor(node, env)

	case *ast.Return:
		if node.Value == nil {
			return &object.ReturnValue{Value: object.NULL}
		}
		val := e.Eval(node.Value, env)
		if isError(val) {
			return val
		}
		return &object.ReturnValue{Value: val}

	case *ast.Unary:
		return e.evalUnary(node, env)

	case *ast.Binary:
		return e.evalBinary(node, env)

	case *ast.Index:
		return e.evalIndex(node, env)

	case *ast.Member:
		return e.evalMember(node, env)

	case *ast.Call:
		return e.evalCall(node, env)

	case *ast.Assign:
		return e.evalAssign(node, env)
	}

	return newError(node, diagnostics.KindTypeError, "unsupported AST node %T", node)
}

// evalProgram runs top-level statements in order. A top-level `return` is
// tolerated and simply stops execution early, per spec.
func (e *Evaluator) evalProgram(program *ast.Program, env *object.Environment) object.Object {
	var result object.Object = object.NULL
	for _, stmt := range program.Statements {
		result = e.Eval(stmt, env)
		if isError(result) {
			return result
		}
		if rv, ok := result.(*object.ReturnValue); ok {
			return rv.Value
		}
	}
	return result
}

// evalBlock runs statements in a fresh child scope, stopping immediately
// and propagating a ReturnValue or Error the moment one appears so it can
// unwind through nested if/while/for bodies to the enclosing call frame.
func (e *Evaluator) evalBlock(block *ast.Block, env *object.Environment) object.Object {
	scope := object.NewEnclosedEnvironment(env)
	var result object.Object = object.NULL
	for _, stmt := range block.Statements {
		result = e.Eval(stmt, scope)
		if isError(result) {
			return result
		}
		if _, ok := result.(*object.ReturnValue); ok {
			return result
		}
	}
	return result
}

func (e *Evaluator) evalIdentifier(node *ast.Identifier, env *object.Environment) object.Object {
	if val, ok := env.Get(node.Value); ok {
		return val
	}
	return newError(node, diagnostics.KindNameError, "identifier not found: %s", node.Value)
}

func (e *Evaluator) evalExpressions(exprs []ast.Expression, env *object.Environment) ([]object.Object, *object.Error) {
	result := make([]object.Object, 0, len(exprs))
	for _, expr := range exprs {
		val := e.Eval(expr, env)
		if isError(val) {
			return nil, val.(*object.Error)
		}
		result = append(result, val)
	}
	return result, nil
}

func (e *Evaluator) evalIf(node *ast.If, env *object.Environment) object.Object {
	cond := e.Eval(node.Condition, env)
	if isError(cond) {
		return cond
	}
	if object.IsTruthy(cond) {
		return e.evalBlock(node.Then, env)
	}
	if node.ElseIf != nil {
		return e.evalIf(node.ElseIf, env)
	}
	if node.Else != nil {
		return e.evalBlock(node.Else, env)
	}
	return object.NULL
}

func (e *Evaluator) evalWhile(node *ast.While, env *object.Environment) object.Object {
	var result object.Object = object.NULL
	for {
		cond := e.Eval(node.Condition, env)
		if isError(cond) {
			return cond
		}
		if !object.IsTruthy(cond) {
			return result
		}
		result = e.evalBlock(node.Body, env)
		if isError(result) {
			return result
		}
		if _, ok := result.(*object.ReturnValue); ok {
			return result
		}
	}
}

// evalFor gives the init declaration its own scope so it's visible to
// cond/step/body and ends at loop exit, per spec's scoping rule. The step
// runs after the body on every iteration, including the one whose next
// cond check exits the loop.
func (e *Evaluator) evalFor(node *ast.For, env *object.Environment) object.Object {
	scope := object.NewEnclosedEnvironment(env)

	if node.Init != nil {
		if res := e.Eval(node.Init, scope); isError(res) {
			return res
		}
	}

	var result object.Object = object.NULL
	for {
		if node.Condition != nil {
			cond := e.Eval(node.Condition, scope)
			if isError(cond) {
				return cond
			}
			if !object.IsTruthy(cond) {
				return result
			}
		}

		result = e.evalBlock(node.Body, scope)
		if isError(result) {
			return result
		}
		if _, ok := result.(*object.ReturnValue); ok {
			return result
		}

		if node.Step != nil {
			if res := e.Eval(node.Step, scope); isError(res) {
				return res
			}
		}
	}
}

func (e *Evaluator) evalUnary(node *ast.Unary, env *object.Environment) object.Object {
	switch node.Operator {
	case "!":
		val := e.Eval(node.Operand, env)
		if isError(val) {
			return val
		}
		return object.NativeBoolToBoolean(!object.IsTruthy(val))

	case "-":
		val := e.Eval(node.Operand, env)
		if isError(val) {
			return val
		}
		num, ok := val.(*object.Number)
		if !ok {
			return newError(node, diagnostics.KindTypeError, "unary '-' requires a number, got %s", val.Type())
		}
		return &object.Number{Value: -num.Value}

	case "++", "--":
		current := e.Eval(node.Operand, env)
		if isError(current) {
			return current
		}
		num, ok := current.(*object.Number)
		if !ok {
			return newError(node, diagnostics.KindTypeError, "'%s' requires a number target, got %s", node.Operator, current.Type())
		}
		delta := 1.0
		if node.Operator == "--" {
			delta = -1.0
		}
		updated := &object.Number{Value: num.Value + delta}
		if err := e.assignTo(node.Operand, updated, env); err != nil {
			return err
		}
		return updated
	}
	return newError(node, diagnostics.KindTypeError, "unknown unary operator: %s", node.Operator)
}

func (e *Evaluator) evalBinary(node *ast.Binary, env *object.Environment) object.Object {
	left := e.Eval(node.Left, env)
	if isError(left) {
		return left
	}

	// && and || short-circuit: the right operand is only evaluated (and
	// its side effects only incurred) when the left operand doesn't
	// already decide the result.
	switch node.Operator {
	case "&&":
		if !object.IsTruthy(left) {
			return left
		}
		right := e.Eval(node.Right, env)
		if isError(right) {
			return right
		}
		return right
	case "||":
		if object.IsTruthy(left) {
			return left
		}
		right := e.Eval(node.Right, env)
		if isError(right) {
			return right
		}
		return right
	}

	right := e.Eval(node.Right, env)
	if isError(right) {
		return right
	}

	switch node.Operator {
	case "==":
		return object.NativeBoolToBoolean(object.Equal(left, right))
	case "!=":
		return object.NativeBoolToBoolean(!object.Equal(left, right))
	}

	if node.Operator == "+" {
		if ls, ok := left.(*object.String); ok {
			return &object.String{Value: ls.Value + toDisplayString(right)}
		}
		if rs, ok := right.(*object.String); ok {
			return &object.String{Value: toDisplayString(left) + rs.Value}
		}
	}

	switch node.Operator {
	case "<", "<=", ">", ">=":
		return e.evalComparison(node, left, right)
	}

	ln, lok := left.(*object.Number)
	rn, rok := right.(*object.Number)
	if !lok || !rok {
		return newError(node, diagnostics.KindTypeError, "operator '%s' requires two numbers, got %s and %s", node.Operator, left.Type(), right.Type())
	}

	switch node.Operator {
	case "+":
		return &object.Number{Value: ln.Value + rn.Value}
	case "-":
		return &object.Number{Value: ln.Value - rn.Value}
	case "*":
		return &object.Number{Value: ln.Value * rn.Value}
	case "/":
		return &object.Number{Value: ln.Value / rn.Value}
	case "%":
		return &object.Number{Value: math.Mod(ln.Value, rn.Value)}
	case "^":
		return &object.Number{Value: math.Pow(ln.Value, rn.Value)}
	}
	return newError(node, diagnostics.KindTypeError, "unknown binary operator: %s", node.Operator)
}

func (e *Evaluator) evalComparison(node *ast.Binary, left, right object.Object) object.Object {
	if ln, ok := left.(*object.Number); ok {
		rn, ok := right.(*object.Number)
		if !ok {
			return newError(node, diagnostics.KindTypeError, "cannot compare number to %s", right.Type())
		}
		return compareNumbers(node.Operator, ln.Value, rn.Value)
	}
	if ls, ok := left.(*object.String); ok {
		rs, ok := right.(*object.String)
		if !ok {
			return newError(node, diagnostics.KindTypeError, "cannot compare string to %s", right.Type())
		}
		return compareStrings(node.Operator, ls.Value, rs.Value)
	}
	return newError(node, diagnostics.KindTypeError, "operator '%s' requires two numbers or two strings, got %s and %s", node.Operator, left.Type(), right.Type())
}

func compareNumbers(op string, a, b float64) object.Object {
	switch op {
	case "<":
		return object.NativeBoolToBoolean(a < b)
	case "<=":
		return object.NativeBoolToBoolean(a <= b)
	case ">":
		return object.NativeBoolToBoolean(a > b)
	case ">=":
		return object.NativeBoolToBoolean(a >= b)
	}
	return object.NULL
}

func compareStrings(op string, a, b string) object.Object {
	switch op {
	case "<":
		return object.NativeBoolToBoolean(a < b)
	case "<=":
		return object.NativeBoolToBoolean(a <= b)
	case ">":
		return object.NativeBoolToBoolean(a > b)
	case ">=":
		return object.NativeBoolToBoolean(a >= b)
	}
	return object.NULL
}

// toDisplayString is the canonical to-string conversion used by `+`
// string concatenation: Number without a trailing ".0", Bool as
// true/false, Null as null, Array/Object as their bracketed/braced dump.
func toDisplayString(val object.Object) string {
	return val.Inspect()
}

func (e *Evaluator) evalIndex(node *ast.Index, env *object.Environment) object.Object {
	target := e.Eval(node.Target, env)
	if isError(target) {
		return target
	}
	index := e.Eval(node.Index, env)
	if isError(index) {
		return index
	}

	switch t := target.(type) {
	case *object.Array:
		idx, ok := index.(*object.Number)
		if !ok {
			return newError(node, diagnostics.KindTypeError, "array index must be a number, got %s", index.Type())
		}
		i := int(idx.Value)
		if i < 0 {
			i += len(t.Elements)
		}
		if i < 0 || i >= len(t.Elements) {
			return newError(node, diagnostics.KindIndexError, "array index out of range: %d", int(idx.Value))
		}
		return t.Elements[i]

	case *object.Map:
		key, ok := index.(*object.String)
		if !ok {
			return newError(node, diagnostics.KindTypeError, "object index must be a string, got %s", index.Type())
		}
		if val, ok := t.Get(key.Value); ok {
			return val
		}
		return object.NULL

	case *object.String:
		idx, ok := index.(*object.Number)
		if !ok {
			return newError(node, diagnostics.KindTypeError, "string index must be a number, got %s", index.Type())
		}
		runes := []rune(t.Value)
		i := int(idx.Value)
		if i < 0 {
			i += len(runes)
		}
		if i < 0 || i >= len(runes) {
			return newError(node, diagnostics.KindIndexError, "string index out of range: %d", int(idx.Value))
		}
		return &object.String{Value: string(runes[i])}
	}

	return newError(node, diagnostics.KindTypeError, "cannot index into %s", target.Type())
}

// evalMember resolves dot access. On a Map (the language's Object value)
// user keys always shadow nothing since Map has no built-in method table
// of its own — a miss simply yields Null. On every other value kind, dot
// access looks up the fixed built-in method table for that kind.
func (e *Evaluator) evalMember(node *ast.Member, env *object.Environment) object.Object {
	target := e.Eval(node.Target, env)
	if isError(target) {
		return target
	}

	if m, ok := target.(*object.Map); ok {
		if val, ok := m.Get(node.Name); ok {
			return val
		}
		return object.NULL
	}

	builtin, ok := lookupBuiltinMethod(target, node.Name)
	if !ok {
		return newError(node, diagnostics.KindTypeError, "%s has no member '%s'", target.Type(), node.Name)
	}
	return builtin
}

func (e *Evaluator) evalCall(node *ast.Call, env *object.Environment) object.Object {
	callee := e.Eval(node.Callee, env)
	if isError(callee) {
		return callee
	}
	args, err := e.evalExpressions(node.Args, env)
	if err != nil {
		return err
	}
	return e.applyFunction(node, callee, args)
}

func (e *Evaluator) applyFunction(node ast.Node, fn object.Object, args []object.Object) object.Object {
	switch fn := fn.(type) {
	case *object.Function:
		e.depth++
		defer func() { e.depth-- }()
		if e.depth > e.MaxCallDepth {
			return newError(node, diagnostics.KindStackOverflow, "maximum call depth of %d exceeded", e.MaxCallDepth)
		}

		scope := object.NewEnclosedEnvironment(fn.Env)
		for i, param := range fn.Parameters {
			if i < len(args) {
				scope.Define(param.Value, args[i])
			} else {
				scope.Define(param.Value, object.NULL)
			}
		}

		result := e.evalBlock(fn.Body, scope)
		if isError(result) {
			return result
		}
		if rv, ok := result.(*object.ReturnValue); ok {
			return rv.Value
		}
		return object.NULL

	case *object.Builtin:
		result := fn.Fn(args...)
		if errObj, ok := result.(*object.Error); ok && errObj.Pos == nil {
			errObj.Pos = node
		}
		return result
	}
	return newError(node, diagnostics.KindTypeError, "not a function: %s", fn.Type())
}

func (e *Evaluator) evalAssign(node *ast.Assign, env *object.Environment) object.Object {
	val := e.Eval(node.Value, env)
	if isError(val) {
		return val
	}
	if err := e.assignTo(node.Target, val, env); err != nil {
		return err
	}
	return val
}

// assignTo implements the three assignable target kinds: Identifier
// rebinds in the nearest enclosing scope that defines it; Index mutates
// an Array element or inserts/updates an Object key; Member sets an
// Object key (setting a Member on a non-Object is an error).
func (e *Evaluator) assignTo(target ast.Expression, val object.Object, env *object.Environment) *object.Error {
	switch t := target.(type) {
	case *ast.Identifier:
		if _, err := env.Assign(t.Value, val); err != nil {
			return newError(t, diagnostics.KindNameError, "%s", err.Error())
		}
		return nil

	case *ast.Index:
		container := e.Eval(t.Target, env)
		if isError(container) {
			return container.(*object.Error)
		}
		index := e.Eval(t.Index, env)
		if isError(index) {
			return index.(*object.Error)
		}

		switch c := container.(type) {
		case *object.Array:
			idx, ok := index.(*object.Number)
			if !ok {
				return newError(t, diagnostics.KindTypeError, "array index must be a number, got %s", index.Type())
			}
			i := int(idx.Value)
			if i < 0 {
				i += len(c.Elements)
			}
			if i < 0 || i >= len(c.Elements) {
				return newError(t, diagnostics.KindIndexError, "array index out of range: %d", int(idx.Value))
			}
			c.Elements[i] = val
			return nil

		case *object.Map:
			key, ok := index.(*object.String)
			if !ok {
				return newError(t, diagnostics.KindTypeError, "object index must be a string, got %s", index.Type())
			}
			c.Set(key.Value, val)
			return nil
		}
		return newError(t, diagnostics.KindTypeError, "cannot index-assign into %s", container.Type())

	case *ast.Member:
		container := e.Eval(t.Target, env)
		if isError(container) {
			return container.(*object.Error)
		}
		m, ok := container.(*object.Map)
		if !ok {
			return newError(t, diagnostics.KindTypeError, "cannot set member '%s' on non-object %s", t.Name, container.Type())
		}
		m.Set(t.Name, val)
		return nil
	}
	return newError(target, diagnostics.KindTypeError, "invalid assignment target")
}
