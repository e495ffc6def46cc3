package nanohs

// TokenKind tags the payload a Token carries. The literal/virtual brace and
// semicolon distinction, and the multi-character operators, follow
// original_source/parse/lex.h's token_type enum.
type TokenKind int

const (
	TkEOF TokenKind = iota

	TkSymbol // operator symbol, optionally qualified
	TkName   // identifier or constructor, optionally qualified
	TkNumber
	TkChar
	TkString

	// Keywords
	TkCase
	TkClass
	TkData
	TkDeriving
	TkDo
	TkElse
	TkIf
	TkImport
	TkIn
	TkInfix
	TkInfixl
	TkInfixr
	TkInstance
	TkLet
	TkModule
	TkNewtype
	TkOf
	TkThen
	TkType
	TkWhere

	TkOpenBrace    // {
	TkCloseBrace   // }
	TkSemicolon    // ;
	TkVOpenBrace   // virtual {
	TkVCloseBrace  // virtual }
	TkVSemicolon   // virtual ;
	TkOpenParen    // (
	TkCloseParen   // )
	TkOpenBracket  // [
	TkCloseBracket // ]
	TkComma        // ,
	TkBacktick     // `

	TkRange   // ..
	TkHasType // ::
	TkEquals  // =
	TkLambda  // \
	TkBar     // |
	TkFrom    // <-
	TkTo      // ->
	TkAt      // @
	TkContext // =>
)

// keywords maps a spelled-out identifier to its keyword kind. An
// identifier token whose text exactly matches one of these is rewritten
// to the keyword kind by the lexer.
var keywords = map[string]TokenKind{
	"case":      TkCase,
	"class":     TkClass,
	"data":      TkData,
	"deriving":  TkDeriving,
	"do":        TkDo,
	"else":      TkElse,
	"if":        TkIf,
	"import":    TkImport,
	"in":        TkIn,
	"infix":     TkInfix,
	"infixl":    TkInfixl,
	"infixr":    TkInfixr,
	"instance":  TkInstance,
	"let":       TkLet,
	"module":    TkModule,
	"newtype":   TkNewtype,
	"of":        TkOf,
	"then":      TkThen,
	"type":      TkType,
	"where":     TkWhere,
}

// QualName is an optionally-qualified identifier or operator symbol: the
// qualifier is everything before the last `.`-separated component, the
// name is what follows it. Both are interned, so equality between two
// QualNames from the same Interner reduces to pointer (Sym) equality.
type QualName struct {
	HasQualifier bool
	Qualifier    Sym
	Name         Sym
}

func UnqualifiedName(name Sym) QualName {
	return QualName{Name: name}
}

// Token is a single lexical unit: its kind, its source position, its
// layout indent (the effective column, with tabs expanded), and a
// kind-determined payload.
type Token struct {
	Kind   TokenKind
	Pos    Position
	Indent int

	Name   QualName // TkSymbol, TkName
	Str    []byte   // TkString (decoded bytes)
	Number uint64    // TkNumber, TkChar
}
