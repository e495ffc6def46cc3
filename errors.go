package nanohs

import "fmt"

// LexError is raised by the lexer on malformed input: unterminated block
// comments/strings, bad escapes, bad hex digits, malformed character
// literals, or an invalid input byte. All lex errors are fatal.
type LexError struct {
	Message  string
	Position Position
}

func (e LexError) Error() string {
	return fmt.Sprintf("%s @ %s", e.Message, e.Position)
}

// ParseError is raised by the parser: a depth-cap overflow, unexpected
// trailing input at the top-level entry point, or a sub-parser returning
// "no match" when no alternative is left to try.
type ParseError struct {
	Message    string
	Production string
	Span       Span
}

func (e ParseError) Error() string {
	if e.Production == "" {
		return fmt.Sprintf("%s @ %s", e.Message, e.Span)
	}
	return fmt.Sprintf("%s: %s @ %s", e.Production, e.Message, e.Span)
}

// noMatch is the internal "this alternative doesn't apply" signal used by
// Try/backtracking. It never escapes ParseModule: it either gets absorbed
// by a Try, or ParseModule rewrites it into a ParseError. The narrower
// entry points ParseType and ParseExp return it unchanged when their
// production does not match.
type noMatch struct {
	production string
	span       Span
}

func (e noMatch) Error() string {
	return fmt.Sprintf("no match in %s @ %s", e.production, e.span)
}

func isNoMatch(err error) bool {
	_, ok := err.(noMatch)
	return ok
}

// EvalError is raised by the evaluator: a mismatched closure tag in apply
// (function expected), a CASE on a value that isn't a saturated
// constructor, or an entry/closure carrying an unrecognized tag.
type EvalError struct {
	Message string
}

func (e EvalError) Error() string {
	return e.Message
}
