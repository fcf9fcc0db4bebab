package evaluator

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"pitlang/internal/diagnostics"
	"pitlang/internal/object"
)

// lookupBuiltinMethod returns the bound built-in Function for a dot
// access on a non-Object value, per the fixed (value-kind, method-name)
// dispatch tables in spec §4.4.
func lookupBuiltinMethod(receiver object.Object, name string) (*object.Builtin, bool) {
	slog.Debug("builtin method dispatch", slog.String("receiver", string(receiver.Type())), slog.String("name", name))
	switch r := receiver.(type) {
	case *object.Array:
		return arrayMethod(r, name)
	case *object.String:
		return stringMethod(r, name)
	case *object.Number:
		return numberMethod(r, name)
	}
	return nil, false
}

func methodError(kind, format string, args ...interface{}) *object.Error {
	return &object.Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func arrayMethod(arr *object.Array, name string) (*object.Builtin, bool) {
	switch name {
	case "push":
		return &object.Builtin{Name: name, Fn: func(args ...object.Object) object.Object {
			if len(args) != 1 {
				return methodError(diagnostics.KindArityError, "push() takes exactly 1 argument, got %d", len(args))
			}
			arr.Elements = append(arr.Elements, args[0])
			return arr
		}}, true

	case "pop":
		return &object.Builtin{Name: name, Fn: func(args ...object.Object) object.Object {
			if len(arr.Elements) == 0 {
				return methodError(diagnostics.KindIndexError, "pop() called on an empty array")
			}
			last := arr.Elements[len(arr.Elements)-1]
			arr.Elements = arr.Elements[:len(arr.Elements)-1]
			return last
		}}, true

	case "get":
		return &object.Builtin{Name: name, Fn: func(args ...object.Object) object.Object {
			if len(args) != 1 {
				return methodError(diagnostics.KindArityError, "get() takes exactly 1 argument, got %d", len(args))
			}
			idx, ok := args[0].(*object.Number)
			if !ok {
				return methodError(diagnostics.KindTypeError, "get() index must be a number")
			}
			i := arrayIndex(len(arr.Elements), idx.Value)
			if i < 0 || i >= len(arr.Elements) {
				return methodError(diagnostics.KindIndexError, "array index out of range: %d", int(idx.Value))
			}
			return arr.Elements[i]
		}}, true

	case "set":
		return &object.Builtin{Name: name, Fn: func(args ...object.Object) object.Object {
			if len(args) != 2 {
				return methodError(diagnostics.KindArityError, "set() takes exactly 2 arguments, got %d", len(args))
			}
			idx, ok := args[0].(*object.Number)
			if !ok {
				return methodError(diagnostics.KindTypeError, "set() index must be a number")
			}
			i := arrayIndex(len(arr.Elements), idx.Value)
			if i < 0 || i >= len(arr.Elements) {
				return methodError(diagnostics.KindIndexError, "array index out of range: %d", int(idx.Value))
			}
			arr.Elements[i] = args[1]
			return arr
		}}, true

	case "length":
		return &object.Builtin{Name: name, Fn: func(args ...object.Object) object.Object {
			return &object.Number{Value: float64(len(arr.Elements))}
		}}, true

	case "find":
		return &object.Builtin{Name: name, Fn: func(args ...object.Object) object.Object {
			if len(args) != 1 {
				return methodError(diagnostics.KindArityError, "find() takes exactly 1 argument, got %d", len(args))
			}
			for i, elem := range arr.Elements {
				if object.Equal(elem, args[0]) {
					return &object.Number{Value: float64(i)}
				}
			}
			return &object.Number{Value: -1}
		}}, true

	case "copy":
		return &object.Builtin{Name: name, Fn: func(args ...object.Object) object.Object {
			copied := make([]object.Object, len(arr.Elements))
			copy(copied, arr.Elements)
			return &object.Array{Elements: copied}
		}}, true
	}
	return nil, false
}

func arrayIndex(length int, raw float64) int {
	i := int(raw)
	if i < 0 {
		i += length
	}
	return i
}

func stringMethod(s *object.String, name string) (*object.Builtin, bool) {
	switch name {
	case "to_string":
		return &object.Builtin{Name: name, Fn: func(args ...object.Object) object.Object {
			return &object.String{Value: s.Value}
		}}, true

	case "to_number", "to_float":
		return &object.Builtin{Name: name, Fn: func(args ...object.Object) object.Object {
			f, err := strconv.ParseFloat(strings.TrimSpace(s.Value), 64)
			if err != nil {
				return methodError(diagnostics.KindTypeError, "cannot convert %q to a number", s.Value)
			}
			return &object.Number{Value: f}
		}}, true

	case "to_int":
		return &object.Builtin{Name: name, Fn: func(args ...object.Object) object.Object {
			f, err := strconv.ParseFloat(strings.TrimSpace(s.Value), 64)
			if err != nil {
				return methodError(diagnostics.KindTypeError, "cannot convert %q to a number", s.Value)
			}
			return &object.Number{Value: math.Trunc(f)}
		}}, true

	case "length":
		return &object.Builtin{Name: name, Fn: func(args ...object.Object) object.Object {
			return &object.Number{Value: float64(len([]rune(s.Value)))}
		}}, true

	case "split":
		return &object.Builtin{Name: name, Fn: func(args ...object.Object) object.Object {
			if len(args) != 1 {
				return methodError(diagnostics.KindArityError, "split() takes exactly 1 argument, got %d", len(args))
			}
			sep, ok := args[0].(*object.String)
			if !ok {
				return methodError(diagnostics.KindTypeError, "split() separator must be a string")
			}
			parts := strings.Split(s.Value, sep.Value)
			elems := make([]object.Object, len(parts))
			for i, p := range parts {
				elems[i] = &object.String{Value: p}
			}
			return &object.Array{Elements: elems}
		}}, true

	case "trim":
		return &object.Builtin{Name: name, Fn: func(args ...object.Object) object.Object {
			return &object.String{Value: strings.TrimSpace(s.Value)}
		}}, true

	case "replace":
		return &object.Builtin{Name: name, Fn: func(args ...object.Object) object.Object {
			if len(args) != 2 {
				return methodError(diagnostics.KindArityError, "replace() takes exactly 2 arguments, got %d", len(args))
			}
			oldS, ok1 := args[0].(*object.String)
			newS, ok2 := args[1].(*object.String)
			if !ok1 || !ok2 {
				return methodError(diagnostics.KindTypeError, "replace() arguments must be strings")
			}
			return &object.String{Value: strings.ReplaceAll(s.Value, oldS.Value, newS.Value)}
		}}, true

	case "find":
		return &object.Builtin{Name: name, Fn: func(args ...object.Object) object.Object {
			if len(args) != 1 {
				return methodError(diagnostics.KindArityError, "find() takes exactly 1 argument, got %d", len(args))
			}
			sub, ok := args[0].(*object.String)
			if !ok {
				return methodError(diagnostics.KindTypeError, "find() argument must be a string")
			}
			return &object.Number{Value: float64(strings.Index(s.Value, sub.Value))}
		}}, true

	case "ord":
		return &object.Builtin{Name: name, Fn: func(args ...object.Object) object.Object {
			runes := []rune(s.Value)
			if len(runes) == 0 {
				return methodError(diagnostics.KindIndexError, "ord() called on an empty string")
			}
			return &object.Number{Value: float64(runes[0])}
		}}, true

	case "get":
		return &object.Builtin{Name: name, Fn: func(args ...object.Object) object.Object {
			if len(args) != 1 {
				return methodError(diagnostics.KindArityError, "get() takes exactly 1 argument, got %d", len(args))
			}
			idx, ok := args[0].(*object.Number)
			if !ok {
				return methodError(diagnostics.KindTypeError, "get() index must be a number")
			}
			runes := []rune(s.Value)
			i := arrayIndex(len(runes), idx.Value)
			if i < 0 || i >= len(runes) {
				return methodError(diagnostics.KindIndexError, "string index out of range: %d", int(idx.Value))
			}
			return &object.String{Value: string(runes[i])}
		}}, true
	}
	return nil, false
}

func numberMethod(n *object.Number, name string) (*object.Builtin, bool) {
	switch name {
	case "to_string":
		return &object.Builtin{Name: name, Fn: func(args ...object.Object) object.Object {
			return &object.String{Value: n.Inspect()}
		}}, true

	case "round":
		return &object.Builtin{Name: name, Fn: func(args ...object.Object) object.Object {
			return &object.Number{Value: math.Round(n.Value)}
		}}, true

	case "floor":
		return &object.Builtin{Name: name, Fn: func(args ...object.Object) object.Object {
			return &object.Number{Value: math.Floor(n.Value)}
		}}, true

	case "ceil":
		return &object.Builtin{Name: name, Fn: func(args ...object.Object) object.Object {
			return &object.Number{Value: math.Ceil(n.Value)}
		}}, true
	}
	return nil, false
}
