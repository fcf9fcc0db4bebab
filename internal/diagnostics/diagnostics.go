// Package diagnostics renders PitLang's lex/parse/runtime errors in the
// uniform `<kind> at <file>:<line>:<col>: <message>` format.
package diagnostics

import "fmt"

// Kinds of diagnostic. Runtime errors use a narrower, more specific set
// (NameError, TypeError, ArityError, IndexError, StackOverflow, IOError)
// so a caller can branch on err.Kind without parsing the message text.
const (
	KindLexError  = "LexError"
	KindParseError = "ParseError"

	KindNameError     = "NameError"
	KindTypeError     = "TypeError"
	KindArityError    = "ArityError"
	KindIndexError    = "IndexError"
	KindStackOverflow = "StackOverflow"
	KindIOError       = "IOError"
)

// Diagnostic is a single positioned error report.
type Diagnostic struct {
	Kind    string
	File    string
	Line    int
	Col     int
	Message string
}

func New(kind, file string, line, col int, format string, args ...interface{}) *Diagnostic {
	return &Diagnostic{
		Kind:    kind,
		File:    file,
		Line:    line,
		Col:     col,
		Message: fmt.Sprintf(format, args...),
	}
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s at %s:%d:%d: %s", d.Kind, d.File, d.Line, d.Col, d.Message)
}
