package parser

import (
	"encoding/json"

	"pitlang/internal/ast"
)

// DumpAST renders program as an indented JSON tree for the `-debug-ast`
// CLI flag. It walks the AST by hand rather than relying on
// encoding/json's struct reflection, since ast.Expression/ast.Statement
// are interfaces and reflection alone can't recover a node's kind.
func DumpAST(program *ast.Program) (string, error) {
	nodes := make([]interface{}, len(program.Statements))
	for i, stmt := range program.Statements {
		nodes[i] = dumpNode(stmt)
	}
	b, err := json.MarshalIndent(map[string]interface{}{"statements": nodes}, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func dumpNode(n ast.Node) map[string]interface{} {
	if n == nil {
		return nil
	}
	out := map[string]interface{}{
		"kind": nodeKind(n),
		"pos": map[string]int{
			"line": n.Pos().Line,
			"col":  n.Pos().Col,
		},
	}

	switch node := n.(type) {
	case *ast.Program:
		stmts := make([]interface{}, len(node.Statements))
		for i, s := range node.Statements {
			stmts[i] = dumpNode(s)
		}
		out["statements"] = stmts
	case *ast.NumberLiteral:
		out["value"] = node.Value
	case *ast.StringLiteral:
		out["value"] = node.Value
	case *ast.BooleanLiteral:
		out["value"] = node.Value
	case *ast.Identifier:
		out["value"] = node.Value
	case *ast.ArrayLiteral:
		elems := make([]interface{}, len(node.Elements))
		for i, e := range node.Elements {
			elems[i] = dumpNode(e)
		}
		out["elements"] = elems
	case *ast.ObjectLiteral:
		fields := make([]interface{}, len(node.Fields))
		for i, f := range node.Fields {
			fields[i] = map[string]interface{}{"key": f.Key, "value": dumpNode(f.Value)}
		}
		out["fields"] = fields
	case *ast.FunctionLiteral:
		out["parameters"] = dumpIdentifiers(node.Parameters)
		out["body"] = dumpNode(node.Body)
	case *ast.Unary:
		out["operator"] = node.Operator
		out["operand"] = dumpNode(node.Operand)
	case *ast.Binary:
		out["operator"] = node.Operator
		out["left"] = dumpNode(node.Left)
		out["right"] = dumpNode(node.Right)
	case *ast.Index:
		out["target"] = dumpNode(node.Target)
		out["index"] = dumpNode(node.Index)
	case *ast.Member:
		out["target"] = dumpNode(node.Target)
		out["name"] = node.Name
	case *ast.Call:
		out["callee"] = dumpNode(node.Callee)
		args := make([]interface{}, len(node.Args))
		for i, a := range node.Args {
			args[i] = dumpNode(a)
		}
		out["args"] = args
	case *ast.Assign:
		out["target"] = dumpNode(node.Target)
		out["value"] = dumpNode(node.Value)
	case *ast.LetStatement:
		out["name"] = node.Name.Value
		out["value"] = dumpNode(node.Value)
	case *ast.FunctionStatement:
		out["name"] = node.Name.Value
		out["parameters"] = dumpIdentifiers(node.Parameters)
		out["body"] = dumpNode(node.Body)
	case *ast.Block:
		stmts := make([]interface{}, len(node.Statements))
		for i, s := range node.Statements {
			stmts[i] = dumpNode(s)
		}
		out["statements"] = stmts
	case *ast.If:
		out["condition"] = dumpNode(node.Condition)
		out["then"] = dumpNode(node.Then)
		if node.ElseIf != nil {
			out["elseIf"] = dumpNode(node.ElseIf)
		}
		if node.Else != nil {
			out["else"] = dumpNode(node.Else)
		}
	case *ast.While:
		out["condition"] = dumpNode(node.Condition)
		out["body"] = dumpNode(node.Body)
	case *ast.For:
		if node.Init != nil {
			out["init"] = dumpNode(node.Init)
		}
		if node.Condition != nil {
			out["condition"] = dumpNode(node.Condition)
		}
		if node.Step != nil {
			out["step"] = dumpNode(node.Step)
		}
		out["body"] = dumpNode(node.Body)
	case *ast.Return:
		if node.Value != nil {
			out["value"] = dumpNode(node.Value)
		}
	case *ast.ExpressionStatement:
		out["expression"] = dumpNode(node.Expression)
	case *ast.NullLiteral:
		// no payload
	}
	return out
}

func dumpIdentifiers(idents []*ast.Identifier) []interface{} {
	out := make([]interface{}, len(idents))
	for i, id := range idents {
		out[i] = dumpNode(id)
	}
	return out
}

func nodeKind(n ast.Node) string {
	switch n.(type) {
	case *ast.Program:
		return "Program"
	case *ast.NumberLiteral:
		return "NumberLiteral"
	case *ast.StringLiteral:
		return "StringLiteral"
	case *ast.BooleanLiteral:
		return "BooleanLiteral"
	case *ast.NullLiteral:
		return "NullLiteral"
	case *ast.Identifier:
		return "Identifier"
	case *ast.ArrayLiteral:
		return "ArrayLiteral"
	case *ast.ObjectLiteral:
		return "ObjectLiteral"
	case *ast.FunctionLiteral:
		return "FunctionLiteral"
	case *ast.Unary:
		return "Unary"
	case *ast.Binary:
		return "Binary"
	case *ast.Index:
		return "Index"
	case *ast.Member:
		return "Member"
	case *ast.Call:
		return "Call"
	case *ast.Assign:
		return "Assign"
	case *ast.LetStatement:
		return "LetStatement"
	case *ast.FunctionStatement:
		return "FunctionStatement"
	case *ast.Block:
		return "Block"
	case *ast.If:
		return "If"
	case *ast.While:
		return "While"
	case *ast.For:
		return "For"
	case *ast.Return:
		return "Return"
	case *ast.ExpressionStatement:
		return "ExpressionStatement"
	default:
		return "Unknown"
	}
}
