// Package stdlib builds the `std` host object bound into the root
// Environment: I/O, time, random, file access, argv, exit, and the
// std.db database extension.
package stdlib

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"pitlang/internal/diagnostics"
	"pitlang/internal/object"
)

// ioErrorf builds the IOError *object.Error that std.* built-ins return
// when they are called with the wrong number or type of arguments. The
// evaluator propagates it like any other runtime error, so it aborts the
// script. An ordinary file-system failure is not reported this way:
// read_file returns Null and write_file returns false.
func ioErrorf(format string, args ...interface{}) *object.Error {
	return &object.Error{Kind: diagnostics.KindIOError, Message: fmt.Sprintf(format, args...)}
}

// Options configures the std object's effectful built-ins.
type Options struct {
	Argv    []string
	Stdout  io.Writer
	Stdin   io.Reader
	Root    string            // base directory for read_file/write_file path resolution
	Sandbox bool              // when true, read_file returns Null, write_file returns false and db.open returns an IOError, without touching the OS
	DBDSN   map[string]string // named DSNs, resolved by std.db.open when its dsn argument matches a key
}

// New builds the `std` Object, a plain *object.Map whose values are the
// built-in functions enumerated in spec §6 plus the std.db extension.
func New(opts Options) *object.Map {
	std := object.NewMap()
	scanner := bufio.NewScanner(opts.Stdin)

	std.Set("time", &object.Builtin{Name: "time", Fn: func(args ...object.Object) object.Object {
		return &object.Number{Value: float64(time.Now().UnixNano()) / 1e9}
	}})

	std.Set("random", &object.Builtin{Name: "random", Fn: func(args ...object.Object) object.Object {
		return &object.Number{Value: rand.Float64()}
	}})

	std.Set("print", &object.Builtin{Name: "print", Fn: func(args ...object.Object) object.Object {
		for _, a := range args {
			fmt.Fprint(opts.Stdout, a.Inspect())
		}
		return object.NULL
	}})

	std.Set("println", &object.Builtin{Name: "println", Fn: func(args ...object.Object) object.Object {
		for _, a := range args {
			fmt.Fprint(opts.Stdout, a.Inspect())
		}
		fmt.Fprint(opts.Stdout, "\n")
		return object.NULL
	}})

	std.Set("argv", &object.Builtin{Name: "argv", Fn: func(args ...object.Object) object.Object {
		elems := make([]object.Object, len(opts.Argv))
		for i, a := range opts.Argv {
			elems[i] = &object.String{Value: a}
		}
		return &object.Array{Elements: elems}
	}})

	std.Set("get_line", &object.Builtin{Name: "get_line", Fn: func(args ...object.Object) object.Object {
		if !scanner.Scan() {
			return object.NULL
		}
		return &object.String{Value: scanner.Text()}
	}})

	std.Set("read_file", &object.Builtin{Name: "read_file", Fn: func(args ...object.Object) object.Object {
		if opts.Sandbox {
			return object.NULL
		}
		if len(args) != 1 {
			return ioErrorf("read_file() takes exactly 1 argument, got %d", len(args))
		}
		path, ok := args[0].(*object.String)
		if !ok {
			return ioErrorf("read_file() path must be a string")
		}
		content, err := os.ReadFile(opts.resolve(path.Value))
		if err != nil {
			return object.NULL
		}
		return &object.String{Value: string(content)}
	}})

	std.Set("write_file", &object.Builtin{Name: "write_file", Fn: func(args ...object.Object) object.Object {
		if opts.Sandbox {
			return object.FALSE
		}
		if len(args) != 2 {
			return ioErrorf("write_file() takes exactly 2 arguments, got %d", len(args))
		}
		path, ok1 := args[0].(*object.String)
		content, ok2 := args[1].(*object.String)
		if !ok1 || !ok2 {
			return ioErrorf("write_file() arguments must be strings")
		}
		err := os.WriteFile(opts.resolve(path.Value), []byte(content.Value), 0644)
		return object.NativeBoolToBoolean(err == nil)
	}})

	std.Set("exit", &object.Builtin{Name: "exit", Fn: func(args ...object.Object) object.Object {
		code := 0
		if len(args) == 1 {
			if n, ok := args[0].(*object.Number); ok {
				code = int(n.Value)
			}
		}
		os.Exit(code)
		return object.NULL
	}})

	std.Set("db", newDB(opts.Sandbox, opts.DBDSN))

	return std
}

func (o Options) resolve(path string) string {
	if o.Root == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(o.Root, path)
}
