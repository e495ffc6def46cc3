package nanohs

// NodeTag identifies the shape of an AST Node: its arity and the type of
// its optional payload are both determined by the tag. The full tag set of
// original_source/parse/parse.h's ast_tag is kept, including the tags this
// grammar subset never constructs (AST_OPERATOR, AST_PAT_AS, AST_PAT_NONE,
// AST_TYPE, AST_DATA, AST_CLASS, AST_INSTANCE, AST_CONSTR), treated as a
// reservation for future grammar extension.
type NodeTag int

const (
	// Expressions
	AstApply     NodeTag = iota // (fun, arg)
	AstUOperator                // (operator, lhs, rhs) — not yet fixity-resolved
	AstParens                   // (expr)
	AstOperator                 // (operator, lhs, rhs) — reserved, unemitted
	AstLSection                 // (operator, arg)
	AstRSection                 // (operator, arg)
	AstVar                      // payload: QualName
	AstCon                      // payload: QualName
	AstNumLit                   // payload: uint64
	AstCharLit                  // payload: uint64
	AstStrLit                   // payload: []byte
	AstCast                     // (expr, type)
	AstLambda                   // (patlist, expr)
	AstIf                       // (cond, then, else)
	AstCase                     // (scrutinee, branchlist)
	AstLet                      // (decllist, expr)
	AstDo                       // (stmtlist)

	// Patterns
	AstPatCon    // payload: QualName, (patlist)
	AstPatAs     // reserved, unemitted. payload: Sym, (pat)
	AstPatVar    // payload: Sym
	AstPatNumLit // payload: uint64
	AstPatCharLit
	AstPatStrLit
	AstPatNone // reserved, unemitted (wildcard)

	// Guards
	AstGuardPat  // (pat, expr)
	AstGuardLet  // (decllist)
	AstGuardBool // (expr)

	// Statements
	AstStmt     // (expr)
	AstStmtBind // (pat, expr)
	AstStmtLet  // (decllist)

	// Declarations
	AstBinding  // payload: Sym, (patlist, switchlist)
	AstHasType  // payload: Sym, (type)
	AstTypeDecl // reserved, unemitted. payload: Sym, (namelist, type)
	AstData     // reserved, unemitted. payload: Sym, (namelist, constrlist)
	AstClass    // reserved, unemitted. payload: Sym, (namelist, decllist)
	AstInstance // reserved, unemitted. payload: QualName, (typelist, decllist)
	AstInfix    // payload: QualName + fixity level (see Node.Int)
	AstInfixl
	AstInfixr

	// Types
	AstTypeApply // (fun, arg)
	AstTypeArrow // nullary; a "from -> to" type is TypeApply(TypeApply(TypeArrow, from), to)
	AstTypeCon   // payload: QualName
	AstTypeVar   // payload: Sym

	// Misc
	AstName     // payload: Sym
	AstQualName // payload: QualName
	AstTuple    // payload: int arity
	AstBranch   // (pat, switchlist)
	AstSwitch   // (guardlist, expr)
	AstConstr   // reserved, unemitted. payload: Sym, (typelist)

	// Lists
	AstNil  // ()
	AstCons // (head, tail)
)

// Node is a tagged tree: a fixed-arity (per Tag) array of children plus an
// optional, tag-determined payload. Invariant: every element of Children
// is non-nil; len(Children) matches what Tag expects.
type Node struct {
	Tag      NodeTag
	Span     Span
	Children []*Node

	// Payload, exactly one of which is meaningful depending on Tag.
	Name     Sym
	QualName QualName
	Number   uint64
	Str      []byte
	Int      int // arity for AstTuple, fixity level for AstInfix*
}

func newNode(tag NodeTag, span Span, children ...*Node) *Node {
	return &Node{Tag: tag, Span: span, Children: children}
}

// Nil constructs the AST_NIL list terminator.
func Nil(span Span) *Node { return newNode(AstNil, span) }

// Cons constructs an AST_CONS list cell.
func Cons(span Span, head, tail *Node) *Node { return newNode(AstCons, span, head, tail) }

// List builds a NIL-terminated CONS list from elems, in order.
func List(span Span, elems ...*Node) *Node {
	n := Nil(span)
	for i := len(elems) - 1; i >= 0; i-- {
		n = Cons(span, elems[i], n)
	}
	return n
}

// ListElems walks a NIL/CONS list back into a slice, in order.
func ListElems(n *Node) []*Node {
	var out []*Node
	for n.Tag == AstCons {
		out = append(out, n.Children[0])
		n = n.Children[1]
	}
	return out
}

func NewApply(span Span, fun, arg *Node) *Node { return newNode(AstApply, span, fun, arg) }

func NewUOperator(span Span, op, lhs, rhs *Node) *Node {
	return newNode(AstUOperator, span, op, lhs, rhs)
}

func NewParens(span Span, expr *Node) *Node { return newNode(AstParens, span, expr) }

func NewLSection(span Span, op, arg *Node) *Node { return newNode(AstLSection, span, op, arg) }

func NewRSection(span Span, op, arg *Node) *Node { return newNode(AstRSection, span, op, arg) }

func NewVar(span Span, name QualName) *Node {
	return &Node{Tag: AstVar, Span: span, QualName: name}
}

func NewCon(span Span, name QualName) *Node {
	return &Node{Tag: AstCon, Span: span, QualName: name}
}

func NewNumLit(span Span, v uint64) *Node {
	return &Node{Tag: AstNumLit, Span: span, Number: v}
}

func NewCharLit(span Span, v uint64) *Node {
	return &Node{Tag: AstCharLit, Span: span, Number: v}
}

func NewStrLit(span Span, v []byte) *Node {
	return &Node{Tag: AstStrLit, Span: span, Str: v}
}

func NewCast(span Span, expr, typ *Node) *Node { return newNode(AstCast, span, expr, typ) }

func NewLambda(span Span, pats, body *Node) *Node { return newNode(AstLambda, span, pats, body) }

func NewIf(span Span, cond, then, els *Node) *Node { return newNode(AstIf, span, cond, then, els) }

func NewCase(span Span, scrutinee, branches *Node) *Node {
	return newNode(AstCase, span, scrutinee, branches)
}

func NewLet(span Span, decls, body *Node) *Node { return newNode(AstLet, span, decls, body) }

func NewDo(span Span, stmts *Node) *Node { return newNode(AstDo, span, stmts) }

func NewPatCon(span Span, name QualName, pats *Node) *Node {
	return &Node{Tag: AstPatCon, Span: span, QualName: name, Children: []*Node{pats}}
}

func NewPatVar(span Span, name Sym) *Node {
	return &Node{Tag: AstPatVar, Span: span, Name: name}
}

func NewPatNumLit(span Span, v uint64) *Node {
	return &Node{Tag: AstPatNumLit, Span: span, Number: v}
}

func NewPatCharLit(span Span, v uint64) *Node {
	return &Node{Tag: AstPatCharLit, Span: span, Number: v}
}

func NewPatStrLit(span Span, v []byte) *Node {
	return &Node{Tag: AstPatStrLit, Span: span, Str: v}
}

func NewGuardPat(span Span, pat, expr *Node) *Node { return newNode(AstGuardPat, span, pat, expr) }

func NewGuardLet(span Span, decls *Node) *Node { return newNode(AstGuardLet, span, decls) }

func NewGuardBool(span Span, expr *Node) *Node { return newNode(AstGuardBool, span, expr) }

func NewStmt(span Span, expr *Node) *Node { return newNode(AstStmt, span, expr) }

func NewStmtBind(span Span, pat, expr *Node) *Node { return newNode(AstStmtBind, span, pat, expr) }

func NewStmtLet(span Span, decls *Node) *Node { return newNode(AstStmtLet, span, decls) }

func NewBinding(span Span, name Sym, pats, switches *Node) *Node {
	return &Node{Tag: AstBinding, Span: span, Name: name, Children: []*Node{pats, switches}}
}

func NewHasType(span Span, name Sym, typ *Node) *Node {
	return &Node{Tag: AstHasType, Span: span, Name: name, Children: []*Node{typ}}
}

func NewFixity(span Span, tag NodeTag, op QualName, level int) *Node {
	return &Node{Tag: tag, Span: span, QualName: op, Int: level}
}

func NewTypeApply(span Span, fun, arg *Node) *Node { return newNode(AstTypeApply, span, fun, arg) }

// NewTypeArrow builds the nullary arrow constructor itself, not an arrow
// type: a function type "from -> to" is TypeApply(TypeApply(TypeArrow,
// from), to), matching original_source/parse/parse.c's nested
// AST_TYPE_APPLY/AST_TYPE_ARROW encoding.
func NewTypeArrow(span Span) *Node { return newNode(AstTypeArrow, span) }

func NewTypeCon(span Span, name QualName) *Node {
	return &Node{Tag: AstTypeCon, Span: span, QualName: name}
}

func NewTypeVar(span Span, name Sym) *Node {
	return &Node{Tag: AstTypeVar, Span: span, Name: name}
}

func NewName(span Span, name Sym) *Node { return &Node{Tag: AstName, Span: span, Name: name} }

func NewQualName(span Span, name QualName) *Node {
	return &Node{Tag: AstQualName, Span: span, QualName: name}
}

func NewTuple(span Span, arity int) *Node {
	return &Node{Tag: AstTuple, Span: span, Int: arity}
}

func NewBranch(span Span, pat, switches *Node) *Node { return newNode(AstBranch, span, pat, switches) }

func NewSwitch(span Span, guards, expr *Node) *Node { return newNode(AstSwitch, span, guards, expr) }
