package stdlib

import (
	"bytes"
	"strings"
	"testing"

	"pitlang/internal/object"
)

func call(t *testing.T, std *object.Map, name string, args ...object.Object) object.Object {
	t.Helper()
	fn, ok := std.Get(name)
	if !ok {
		t.Fatalf("std.%s not defined", name)
	}
	builtin, ok := fn.(*object.Builtin)
	if !ok {
		t.Fatalf("std.%s is not a builtin, got %T", name, fn)
	}
	return builtin.Fn(args...)
}

func TestPrintHasNoSeparatorOrTrailingNewline(t *testing.T) {
	var buf bytes.Buffer
	std := New(Options{Stdout: &buf, Stdin: strings.NewReader("")})
	call(t, std, "print", &object.String{Value: "a"}, &object.Number{Value: 1})
	if buf.String() != "a1" {
		t.Fatalf("expected %q, got %q", "a1", buf.String())
	}
}

func TestPrintlnAddsTrailingNewline(t *testing.T) {
	var buf bytes.Buffer
	std := New(Options{Stdout: &buf, Stdin: strings.NewReader("")})
	call(t, std, "println", &object.String{Value: "hi"})
	if buf.String() != "hi\n" {
		t.Fatalf("expected %q, got %q", "hi\n", buf.String())
	}
}

func TestArgvReflectsOptions(t *testing.T) {
	std := New(Options{Argv: []string{"a.pit", "30"}, Stdout: &bytes.Buffer{}, Stdin: strings.NewReader("")})
	result := call(t, std, "argv")
	arr, ok := result.(*object.Array)
	if !ok || len(arr.Elements) != 2 {
		t.Fatalf("expected a 2-element array, got %v", result)
	}
	if arr.Elements[1].(*object.String).Value != "30" {
		t.Fatalf("expected second argv element %q, got %v", "30", arr.Elements[1])
	}
}

func TestGetLineReadsFromStdin(t *testing.T) {
	std := New(Options{Stdout: &bytes.Buffer{}, Stdin: strings.NewReader("hello\nworld\n")})
	first := call(t, std, "get_line")
	if s, ok := first.(*object.String); !ok || s.Value != "hello" {
		t.Fatalf("expected %q, got %v", "hello", first)
	}
	second := call(t, std, "get_line")
	if s, ok := second.(*object.String); !ok || s.Value != "world" {
		t.Fatalf("expected %q, got %v", "world", second)
	}
	third := call(t, std, "get_line")
	if _, ok := third.(*object.Null); !ok {
		t.Fatalf("expected Null at end of input, got %v", third)
	}
}

func TestSandboxModeBlocksFileAccess(t *testing.T) {
	std := New(Options{Stdout: &bytes.Buffer{}, Stdin: strings.NewReader(""), Sandbox: true})
	read := call(t, std, "read_file", &object.String{Value: "/etc/passwd"})
	if _, ok := read.(*object.Null); !ok {
		t.Fatalf("expected Null for sandboxed read_file, got %v", read)
	}
	write := call(t, std, "write_file", &object.String{Value: "x.txt"}, &object.String{Value: "data"})
	b, ok := write.(*object.Boolean)
	if !ok || b.Value != false {
		t.Fatalf("expected false for sandboxed write_file, got %v", write)
	}
}

func TestReadFileMissingReturnsNull(t *testing.T) {
	std := New(Options{Stdout: &bytes.Buffer{}, Stdin: strings.NewReader(""), Root: t.TempDir()})
	result := call(t, std, "read_file", &object.String{Value: "does-not-exist.txt"})
	if _, ok := result.(*object.Null); !ok {
		t.Fatalf("expected Null for a missing file, got %v", result)
	}
}

func TestWriteThenReadFileRoundTrips(t *testing.T) {
	dir := t.TempDir()
	std := New(Options{Stdout: &bytes.Buffer{}, Stdin: strings.NewReader(""), Root: dir})
	wrote := call(t, std, "write_file", &object.String{Value: "out.txt"}, &object.String{Value: "payload"})
	if b, ok := wrote.(*object.Boolean); !ok || !b.Value {
		t.Fatalf("expected write_file to succeed, got %v", wrote)
	}
	read := call(t, std, "read_file", &object.String{Value: "out.txt"})
	if s, ok := read.(*object.String); !ok || s.Value != "payload" {
		t.Fatalf("expected %q, got %v", "payload", read)
	}
}

func TestDBOpenResolvesNamedDSN(t *testing.T) {
	std := New(Options{
		Stdout: &bytes.Buffer{}, Stdin: strings.NewReader(""),
		DBDSN: map[string]string{"primary": ":memory:"},
	})
	dbObj, _ := std.Get("db")
	db := dbObj.(*object.Map)
	result := call(t, db, "open", &object.String{Value: "sqlite3"}, &object.String{Value: "primary"})
	if _, ok := result.(*object.Map); !ok {
		t.Fatalf("expected open() to resolve the named DSN and succeed, got %v", result)
	}
}

func TestDBOpenRejectsUnknownDriver(t *testing.T) {
	std := New(Options{Stdout: &bytes.Buffer{}, Stdin: strings.NewReader("")})
	dbObj, _ := std.Get("db")
	db := dbObj.(*object.Map)
	result := call(t, db, "open", &object.String{Value: "postgres"}, &object.String{Value: "dsn"})
	if _, ok := result.(*object.Error); !ok {
		t.Fatalf("expected an Error for an unsupported driver, got %v", result)
	}
}

func TestDBOpenBlockedInSandbox(t *testing.T) {
	std := New(Options{Stdout: &bytes.Buffer{}, Stdin: strings.NewReader(""), Sandbox: true})
	dbObj, _ := std.Get("db")
	db := dbObj.(*object.Map)
	result := call(t, db, "open", &object.String{Value: "sqlite3"}, &object.String{Value: ":memory:"})
	if _, ok := result.(*object.Error); !ok {
		t.Fatalf("expected an Error when db access is sandboxed, got %v", result)
	}
}

func TestDBOpenAndQuerySqlite(t *testing.T) {
	std := New(Options{Stdout: &bytes.Buffer{}, Stdin: strings.NewReader("")})
	dbObj, _ := std.Get("db")
	db := dbObj.(*object.Map)
	connObj := call(t, db, "open", &object.String{Value: "sqlite3"}, &object.String{Value: ":memory:"})
	conn, ok := connObj.(*object.Map)
	if !ok {
		t.Fatalf("expected open() to return a connection handle, got %v", connObj)
	}

	created := call(t, conn, "exec", &object.String{Value: "create table t (id integer, name text)"})
	if _, ok := created.(*object.Error); ok {
		t.Fatalf("unexpected error creating table: %v", created)
	}

	inserted := call(t, conn, "exec", &object.String{Value: "insert into t (id, name) values (?, ?)"}, &object.Number{Value: 1}, &object.String{Value: "ada"})
	n, ok := inserted.(*object.Number)
	if !ok || n.Value != 1 {
		t.Fatalf("expected exec() to report 1 affected row, got %v", inserted)
	}

	rowsObj := call(t, conn, "query", &object.String{Value: "select id, name from t"})
	rows, ok := rowsObj.(*object.Array)
	if !ok || len(rows.Elements) != 1 {
		t.Fatalf("expected a 1-row result, got %v", rowsObj)
	}
	row, ok := rows.Elements[0].(*object.Map)
	if !ok {
		t.Fatalf("expected a row Object, got %T", rows.Elements[0])
	}
	name, _ := row.Get("name")
	if s, ok := name.(*object.String); !ok || s.Value != "ada" {
		t.Fatalf("expected name %q, got %v", "ada", name)
	}

	closed := call(t, conn, "close")
	if _, ok := closed.(*object.Null); !ok {
		t.Fatalf("expected close() to return Null, got %v", closed)
	}
}
