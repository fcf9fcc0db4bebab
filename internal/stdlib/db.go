package stdlib

import (
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"

	"pitlang/internal/diagnostics"
	"pitlang/internal/object"
)

// newDB builds the std.db Object: a single "open" builtin that returns a
// connection handle Object bound to a live *sql.DB. dsns is the config
// file's named db_dsn table; open()'s dsn argument is resolved against it
// first, falling back to the literal argument when there's no match.
func newDB(sandbox bool, dsns map[string]string) *object.Map {
	db := object.NewMap()

	db.Set("open", &object.Builtin{Name: "open", Fn: func(args ...object.Object) object.Object {
		if sandbox {
			return dbErrorf("database access is disabled in sandbox mode")
		}
		if len(args) != 2 {
			return dbErrorf("open() takes exactly 2 arguments, got %d", len(args))
		}
		driver, ok1 := args[0].(*object.String)
		dsn, ok2 := args[1].(*object.String)
		if !ok1 || !ok2 {
			return dbErrorf("open() arguments must be strings")
		}
		if driver.Value != "sqlite3" && driver.Value != "mysql" {
			return dbErrorf("unsupported driver %q, expected \"sqlite3\" or \"mysql\"", driver.Value)
		}
		resolved := dsn.Value
		if named, ok := dsns[dsn.Value]; ok {
			resolved = named
		}
		conn, err := sql.Open(driver.Value, resolved)
		if err != nil {
			return dbErrorf("open(): %s", err)
		}
		if err := conn.Ping(); err != nil {
			return dbErrorf("open(): %s", err)
		}
		return newConnHandle(conn)
	}})

	return db
}

func dbErrorf(format string, args ...interface{}) *object.Error {
	return &object.Error{Kind: diagnostics.KindIOError, Message: fmt.Sprintf(format, args...)}
}

// newConnHandle wraps an open *sql.DB as an Object with query/exec/close
// builtins closing over the connection.
func newConnHandle(conn *sql.DB) *object.Map {
	handle := object.NewMap()

	handle.Set("query", &object.Builtin{Name: "query", Fn: func(args ...object.Object) object.Object {
		if len(args) < 1 {
			return dbErrorf("query() takes at least 1 argument, got %d", len(args))
		}
		query, ok := args[0].(*object.String)
		if !ok {
			return dbErrorf("query() sql must be a string")
		}
		rows, err := conn.Query(query.Value, unwrapArgs(args[1:])...)
		if err != nil {
			return dbErrorf("query(): %s", err)
		}
		defer rows.Close()

		cols, err := rows.Columns()
		if err != nil {
			return dbErrorf("query(): %s", err)
		}

		result := make([]object.Object, 0)
		for rows.Next() {
			values := make([]interface{}, len(cols))
			ptrs := make([]interface{}, len(cols))
			for i := range values {
				ptrs[i] = &values[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				return dbErrorf("query(): %s", err)
			}
			row := object.NewMap()
			for i, col := range cols {
				row.Set(col, wrapValue(values[i]))
			}
			result = append(result, row)
		}
		return &object.Array{Elements: result}
	}})

	handle.Set("exec", &object.Builtin{Name: "exec", Fn: func(args ...object.Object) object.Object {
		if len(args) < 1 {
			return dbErrorf("exec() takes at least 1 argument, got %d", len(args))
		}
		query, ok := args[0].(*object.String)
		if !ok {
			return dbErrorf("exec() sql must be a string")
		}
		res, err := conn.Exec(query.Value, unwrapArgs(args[1:])...)
		if err != nil {
			return dbErrorf("exec(): %s", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return dbErrorf("exec(): %s", err)
		}
		return &object.Number{Value: float64(affected)}
	}})

	handle.Set("close", &object.Builtin{Name: "close", Fn: func(args ...object.Object) object.Object {
		if err := conn.Close(); err != nil {
			return dbErrorf("close(): %s", err)
		}
		return object.NULL
	}})

	return handle
}

func unwrapArgs(args []object.Object) []interface{} {
	out := make([]interface{}, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case *object.Number:
			out[i] = v.Value
		case *object.String:
			out[i] = v.Value
		case *object.Boolean:
			out[i] = v.Value
		default:
			out[i] = nil
		}
	}
	return out
}

func wrapValue(v interface{}) object.Object {
	switch val := v.(type) {
	case nil:
		return object.NULL
	case int64:
		return &object.Number{Value: float64(val)}
	case float64:
		return &object.Number{Value: val}
	case bool:
		return object.NativeBoolToBoolean(val)
	case []byte:
		return &object.String{Value: string(val)}
	case string:
		return &object.String{Value: val}
	default:
		return &object.String{Value: ""}
	}
}
