package nanohs

import "strings"

// Parser is a recursive-descent parser over a Lexer, built on a
// checkpointed-alternative design. Every production either returns
// a valid Node or an error; a distinguished noMatch sentinel means "this
// alternative doesn't apply", which Try absorbs by restoring the lexer and
// lets an outer production attempt something else. Anything else (a
// LexError, or a ParseError for a depth-cap overflow or a truly malformed
// construct) is fatal and propagates straight out, matching
// original_source/parse/parse.c's save_parser/restore_parser/try_parser.
type Parser struct {
	lex      *Lexer
	interner *Interner

	depth    int
	maxDepth int
}

// NewParser creates a parser over lex. cfg supplies parser.max_depth; pass
// nil to use the default of 4096 (original_source/parse/parse.h's
// MAX_DEPTH).
func NewParser(lex *Lexer, interner *Interner, cfg *Config) *Parser {
	maxDepth := 4096
	if cfg != nil {
		maxDepth = cfg.GetInt("parser.max_depth")
	}
	return &Parser{lex: lex, interner: interner, maxDepth: maxDepth}
}

// enterParse runs f with the recursion depth counter incremented, failing
// with a fatal ParseError if maxDepth is exceeded. It is a free function
// (not a method) so it can be generic over a production's return type.
func enterParse[T any](p *Parser, production string, f func() (T, error)) (T, error) {
	var zero T
	if p.depth >= p.maxDepth {
		pos := p.lex.Pos()
		return zero, ParseError{
			Message:    "parser recursion depth exceeded",
			Production: production,
			Span:       Span{pos, pos},
		}
	}
	p.depth++
	v, err := f()
	p.depth--
	return v, err
}

// tryParse runs f as an alternative that may not apply: it checkpoints the
// lexer first, and if f fails with noMatch, restores the lexer so a
// sibling alternative can try from the same starting point. Any other
// error (a real parse failure, or a LexError) is not recoverable and is
// returned as-is without restoring, since by that point the input has been
// committed to this alternative.
func tryParse[T any](p *Parser, production string, f func() (T, error)) (T, error) {
	saved := p.lex.Copy()
	v, err := enterParse(p, production, f)
	if err != nil {
		if isNoMatch(err) {
			p.lex = saved
		}
		return v, err
	}
	return v, nil
}

func (p *Parser) noMatch(production string) error {
	pos := p.lex.Pos()
	return noMatch{production: production, span: Span{pos, pos}}
}

func spanAt(pos Position) Span { return Span{pos, pos} }

// isConNameSym reports whether a symbol's text names a constructor: an
// uppercase-initial identifier, or an operator symbol beginning with ':'
// (original_source/parse/parse.c's is_con_name).
func isConNameSym(s Sym) bool {
	t := s.String()
	if t == "" {
		return false
	}
	c := t[0]
	return (c >= 'A' && c <= 'Z') || c == ':'
}

// tupleQualName synthesizes the canonical name for the n-ary tuple
// constructor: "()" for n==0, "(,)" for n==2, "(,,)" for n==3, and so on,
// mirroring how Haskell's own tuple constructors are named.
func (p *Parser) tupleQualName(arity int) QualName {
	name := "()"
	if arity > 0 {
		name = "(" + strings.Repeat(",", arity-1) + ")"
	}
	return QualName{Name: p.interner.Intern(name)}
}

// openBlock expects an opening brace for a let/where/do/case-of block,
// returning whether it was virtual.
func (p *Parser) openBlock() (bool, error) {
	_, virt, err := p.lex.NextOpen()
	return virt, err
}

// closeBlock matches the open produced by openBlock. A mismatched literal
// brace fails the production (it is recoverable: a try further up may
// still have another alternative to attempt).
func (p *Parser) closeBlock(virt bool) error {
	tok, err := p.lex.NextClose(virt)
	if err != nil {
		return err
	}
	want := TkCloseBrace
	if virt {
		want = TkVCloseBrace
	}
	if tok.Kind != want {
		p.lex.Unsee(tok)
		return p.noMatch("block")
	}
	return nil
}

// semicolonList parses zero or more occurrences of production, separated
// (and optionally surrounded) by real or virtual semicolons, collecting
// them into a NIL-terminated CONS list (original_source/parse/parse.c's
// parse_semicolon_list).
func (p *Parser) semicolonList(production string, f func() (*Node, error)) (*Node, error) {
	tok, err := p.lex.Next()
	if err != nil {
		return nil, err
	}
	for tok.Kind == TkSemicolon || tok.Kind == TkVSemicolon {
		tok, err = p.lex.Next()
		if err != nil {
			return nil, err
		}
	}
	p.lex.Unsee(tok)
	start := tok.Pos

	var elems []*Node
	for {
		elem, err := tryParse(p, production, f)
		if err != nil {
			if isNoMatch(err) {
				break
			}
			return nil, err
		}
		elems = append(elems, elem)

		tok, err = p.lex.Next()
		if err != nil {
			return nil, err
		}
		if tok.Kind != TkSemicolon && tok.Kind != TkVSemicolon {
			p.lex.Unsee(tok)
			break
		}
		for tok.Kind == TkSemicolon || tok.Kind == TkVSemicolon {
			tok, err = p.lex.Next()
			if err != nil {
				return nil, err
			}
		}
		p.lex.Unsee(tok)
	}
	return List(spanAt(start), elems...), nil
}

// --- Types ---------------------------------------------------------------

// ParseType parses a single type expression.
func (p *Parser) ParseType() (*Node, error) {
	return enterParse(p, "type", p.parseType)
}

func (p *Parser) parseType() (*Node, error) {
	lhs, err := enterParse(p, "btype", p.parseBType)
	if err != nil {
		return nil, err
	}
	tok, err := p.lex.Next()
	if err != nil {
		return nil, err
	}
	if tok.Kind == TkTo {
		rhs, err := enterParse(p, "type", p.parseType)
		if err != nil {
			return nil, err
		}
		arrow := NewTypeArrow(spanAt(tok.Pos))
		applyLhs := NewTypeApply(Span{lhs.Span.Start, lhs.Span.End}, arrow, lhs)
		return NewTypeApply(Span{lhs.Span.Start, rhs.Span.End}, applyLhs, rhs), nil
	}
	p.lex.Unsee(tok)
	return lhs, nil
}

func (p *Parser) parseBType() (*Node, error) {
	lhs, err := enterParse(p, "atype", p.parseAType)
	if err != nil {
		return nil, err
	}
	for {
		rhs, err := tryParse(p, "atype", p.parseAType)
		if err != nil {
			if isNoMatch(err) {
				return lhs, nil
			}
			return nil, err
		}
		lhs = NewTypeApply(Span{lhs.Span.Start, rhs.Span.End}, lhs, rhs)
	}
}

func (p *Parser) parseAType() (*Node, error) {
	tok, err := p.lex.Next()
	if err != nil {
		return nil, err
	}
	switch tok.Kind {
	case TkOpenParen:
		tok2, err := p.lex.Next()
		if err != nil {
			return nil, err
		}
		switch tok2.Kind {
		case TkCloseParen:
			return NewTuple(Span{tok.Pos, tok2.Pos}, 0), nil
		case TkComma:
			arity := 1
			for tok2.Kind == TkComma {
				arity++
				tok2, err = p.lex.Next()
				if err != nil {
					return nil, err
				}
			}
			if tok2.Kind == TkCloseParen {
				return NewTuple(Span{tok.Pos, tok2.Pos}, arity), nil
			}
			p.lex.Unsee(tok2)
			return nil, p.noMatch("atype")
		case TkTo:
			tok3, err := p.lex.Next()
			if err != nil {
				return nil, err
			}
			if tok3.Kind == TkCloseParen {
				return NewTypeArrow(Span{tok.Pos, tok3.Pos}), nil
			}
			p.lex.Unsee(tok3)
			return nil, p.noMatch("atype")
		default:
			p.lex.Unsee(tok2)
			arg, err := enterParse(p, "type", p.parseType)
			if err != nil {
				return nil, err
			}
			fun := NewTuple(spanAt(tok.Pos), 1)
			acc := NewTypeApply(Span{tok.Pos, arg.Span.End}, fun, arg)
			for {
				tok3, err := p.lex.Next()
				if err != nil {
					return nil, err
				}
				if tok3.Kind == TkCloseParen {
					acc.Span.End = tok3.Pos
					break
				}
				if tok3.Kind != TkComma {
					p.lex.Unsee(tok3)
					return nil, p.noMatch("atype")
				}
				arg2, err := enterParse(p, "type", p.parseType)
				if err != nil {
					return nil, err
				}
				fun.Int++
				acc = NewTypeApply(Span{tok.Pos, arg2.Span.End}, acc, arg2)
			}
			if fun.Int == 1 {
				return acc.Children[1], nil
			}
			return acc, nil
		}
	case TkName:
		if isConNameSym(tok.Name.Name) {
			return NewTypeCon(spanAt(tok.Pos), tok.Name), nil
		}
		if tok.Name.HasQualifier {
			return nil, ParseError{
				Message:    "expected an unqualified type variable",
				Production: "atype",
				Span:       spanAt(tok.Pos),
			}
		}
		return NewTypeVar(spanAt(tok.Pos), tok.Name.Name), nil
	}
	p.lex.Unsee(tok)
	return nil, p.noMatch("atype")
}

// --- Names -----------------------------------------------------------

// qname bundles the result of a qcon/gcon lookup: the resolved QualName
// plus the span it was read from, so downstream wrapping (into AstCon,
// AstPatCon, ...) can carry an accurate location.
type qname struct {
	Name QualName
	Span Span
}

// nameRes is the unqualified counterpart of qname, returned by parseVar.
type nameRes struct {
	Name Sym
	Span Span
}

func (p *Parser) parseVar() (nameRes, error) {
	tok, err := p.lex.Next()
	if err != nil {
		return nameRes{}, err
	}
	if tok.Kind == TkOpenParen {
		op, err := p.lex.Next()
		if err != nil {
			return nameRes{}, err
		}
		if op.Kind != TkSymbol || isConNameSym(op.Name.Name) {
			p.lex.Unsee(op)
			return nameRes{}, p.noMatch("var")
		}
		if op.Name.HasQualifier {
			return nameRes{}, ParseError{Message: "expected an unqualified name", Production: "var", Span: spanAt(op.Pos)}
		}
		close, err := p.lex.Next()
		if err != nil {
			return nameRes{}, err
		}
		if close.Kind != TkCloseParen {
			p.lex.Unsee(close)
			return nameRes{}, p.noMatch("var")
		}
		return nameRes{Name: op.Name.Name, Span: Span{tok.Pos, close.Pos}}, nil
	}
	if tok.Kind == TkName && !isConNameSym(tok.Name.Name) {
		if tok.Name.HasQualifier {
			return nameRes{}, ParseError{Message: "expected an unqualified name", Production: "var", Span: spanAt(tok.Pos)}
		}
		return nameRes{Name: tok.Name.Name, Span: spanAt(tok.Pos)}, nil
	}
	p.lex.Unsee(tok)
	return nameRes{}, p.noMatch("var")
}

func (p *Parser) parseQVar() (*Node, error) {
	tok, err := p.lex.Next()
	if err != nil {
		return nil, err
	}
	if tok.Kind == TkOpenParen {
		op, err := p.lex.Next()
		if err != nil {
			return nil, err
		}
		if op.Kind != TkSymbol || isConNameSym(op.Name.Name) {
			p.lex.Unsee(op)
			return nil, p.noMatch("qvar")
		}
		close, err := p.lex.Next()
		if err != nil {
			return nil, err
		}
		if close.Kind != TkCloseParen {
			p.lex.Unsee(close)
			return nil, p.noMatch("qvar")
		}
		return NewVar(Span{tok.Pos, close.Pos}, op.Name), nil
	}
	if tok.Kind == TkName && !isConNameSym(tok.Name.Name) {
		return NewVar(spanAt(tok.Pos), tok.Name), nil
	}
	p.lex.Unsee(tok)
	return nil, p.noMatch("qvar")
}

func (p *Parser) parseQCon() (qname, error) {
	tok, err := p.lex.Next()
	if err != nil {
		return qname{}, err
	}
	if tok.Kind == TkOpenParen {
		op, err := p.lex.Next()
		if err != nil {
			return qname{}, err
		}
		if op.Kind != TkSymbol || !isConNameSym(op.Name.Name) {
			p.lex.Unsee(op)
			return qname{}, p.noMatch("qcon")
		}
		close, err := p.lex.Next()
		if err != nil {
			return qname{}, err
		}
		if close.Kind != TkCloseParen {
			p.lex.Unsee(close)
			return qname{}, p.noMatch("qcon")
		}
		return qname{Name: op.Name, Span: Span{tok.Pos, close.Pos}}, nil
	}
	if tok.Kind == TkName && isConNameSym(tok.Name.Name) {
		return qname{Name: tok.Name, Span: spanAt(tok.Pos)}, nil
	}
	p.lex.Unsee(tok)
	return qname{}, p.noMatch("qcon")
}

func (p *Parser) parseGCon() (qname, error) {
	if qn, err := tryParse(p, "qcon", p.parseQCon); err == nil {
		return qn, nil
	} else if !isNoMatch(err) {
		return qname{}, err
	}

	tok, err := p.lex.Next()
	if err != nil {
		return qname{}, err
	}
	switch tok.Kind {
	case TkOpenParen:
		tok2, err := p.lex.Next()
		if err != nil {
			return qname{}, err
		}
		if tok2.Kind == TkCloseParen {
			return qname{Name: p.tupleQualName(0), Span: Span{tok.Pos, tok2.Pos}}, nil
		}
		if tok2.Kind == TkComma {
			arity := 1
			for tok2.Kind == TkComma {
				arity++
				tok2, err = p.lex.Next()
				if err != nil {
					return qname{}, err
				}
			}
			if tok2.Kind == TkCloseParen {
				return qname{Name: p.tupleQualName(arity), Span: Span{tok.Pos, tok2.Pos}}, nil
			}
			p.lex.Unsee(tok2)
			return qname{}, p.noMatch("gcon")
		}
		p.lex.Unsee(tok2)
		return qname{}, p.noMatch("gcon")
	case TkOpenBracket:
		tok2, err := p.lex.Next()
		if err != nil {
			return qname{}, err
		}
		if tok2.Kind != TkCloseBracket {
			p.lex.Unsee(tok2)
			return qname{}, p.noMatch("gcon")
		}
		return qname{Name: QualName{Name: p.interner.Intern("[]")}, Span: Span{tok.Pos, tok2.Pos}}, nil
	}
	p.lex.Unsee(tok)
	return qname{}, p.noMatch("gcon")
}

// --- Expressions -----------------------------------------------------

// ParseExp parses a single expression, including an optional :: type cast.
func (p *Parser) ParseExp() (*Node, error) {
	return enterParse(p, "exp", p.parseExp)
}

func (p *Parser) parseExp() (*Node, error) {
	expr, err := enterParse(p, "infixexp", p.parseInfixExp)
	if err != nil {
		return nil, err
	}
	for {
		tok, err := p.lex.Next()
		if err != nil {
			return nil, err
		}
		if tok.Kind != TkHasType {
			p.lex.Unsee(tok)
			return expr, nil
		}
		ty, err := enterParse(p, "type", p.parseType)
		if err != nil {
			return nil, err
		}
		expr = NewCast(Span{expr.Span.Start, ty.Span.End}, expr, ty)
	}
}

// parseInfixExp does not use the ordinary try/noMatch convention for its
// optional operator+rhs: if either fails to parse, the whole production
// still succeeds, returning arg1 alone (original_source/parse/parse.c's
// parse_infixexp does an explicit save/restore rather than delegating to
// try_parser, precisely so a lone lexp is a valid infixexp).
func (p *Parser) parseInfixExp() (*Node, error) {
	arg1, err := enterParse(p, "lexp", p.parseLExp)
	if err != nil {
		return nil, err
	}
	saved := p.lex.Copy()
	op, err := enterParse(p, "qop", p.parseQOp)
	if err != nil {
		if !isNoMatch(err) {
			return nil, err
		}
		p.lex = saved
		return arg1, nil
	}
	arg2, err := enterParse(p, "infixexp", p.parseInfixExp)
	if err != nil {
		if isNoMatch(err) {
			p.lex = saved
			return arg1, nil
		}
		return nil, err
	}
	return NewUOperator(Span{arg1.Span.Start, arg2.Span.End}, op, arg1, arg2), nil
}

func (p *Parser) parseLExp() (*Node, error) {
	tok, err := p.lex.Next()
	if err != nil {
		return nil, err
	}
	switch tok.Kind {
	case TkLambda:
		return p.parseLambdaCont(tok.Pos)
	case TkLet:
		return p.parseLetCont(tok.Pos)
	case TkIf:
		return p.parseIfCont(tok.Pos)
	case TkCase:
		return p.parseCaseCont(tok.Pos)
	case TkDo:
		return p.parseDoCont(tok.Pos)
	}
	p.lex.Unsee(tok)
	return enterParse(p, "fexp", p.parseFExp)
}

func (p *Parser) parseLambdaCont(start Position) (*Node, error) {
	var pats []*Node
	for {
		tok, err := p.lex.Next()
		if err != nil {
			return nil, err
		}
		if tok.Kind == TkTo {
			body, err := enterParse(p, "exp", p.parseExp)
			if err != nil {
				return nil, err
			}
			patList := List(spanAt(start), pats...)
			return NewLambda(Span{start, body.Span.End}, patList, body), nil
		}
		p.lex.Unsee(tok)
		pat, err := enterParse(p, "apat", p.parseAPat)
		if err != nil {
			return nil, err
		}
		pats = append(pats, pat)
	}
}

func (p *Parser) parseLetCont(start Position) (*Node, error) {
	virt, err := p.openBlock()
	if err != nil {
		return nil, err
	}
	decls, err := enterParse(p, "decls", p.parseDecls)
	if err != nil {
		return nil, err
	}
	if err := p.closeBlock(virt); err != nil {
		return nil, err
	}
	tok, err := p.lex.Next()
	if err != nil {
		return nil, err
	}
	if tok.Kind != TkIn {
		p.lex.Unsee(tok)
		return nil, p.noMatch("let")
	}
	body, err := enterParse(p, "exp", p.parseExp)
	if err != nil {
		return nil, err
	}
	return NewLet(Span{start, body.Span.End}, decls, body), nil
}

func (p *Parser) parseIfCont(start Position) (*Node, error) {
	cond, err := enterParse(p, "exp", p.parseExp)
	if err != nil {
		return nil, err
	}
	tok, err := p.lex.Next()
	if err != nil {
		return nil, err
	}
	if tok.Kind == TkSemicolon || tok.Kind == TkVSemicolon {
		tok, err = p.lex.Next()
		if err != nil {
			return nil, err
		}
	}
	if tok.Kind != TkThen {
		p.lex.Unsee(tok)
		return nil, p.noMatch("if")
	}
	then, err := enterParse(p, "exp", p.parseExp)
	if err != nil {
		return nil, err
	}
	tok2, err := p.lex.Next()
	if err != nil {
		return nil, err
	}
	if tok2.Kind == TkSemicolon || tok2.Kind == TkVSemicolon {
		tok2, err = p.lex.Next()
		if err != nil {
			return nil, err
		}
	}
	if tok2.Kind != TkElse {
		p.lex.Unsee(tok2)
		return nil, p.noMatch("if")
	}
	els, err := enterParse(p, "exp", p.parseExp)
	if err != nil {
		return nil, err
	}
	return NewIf(Span{start, els.Span.End}, cond, then, els), nil
}

func (p *Parser) parseCaseCont(start Position) (*Node, error) {
	scrutinee, err := enterParse(p, "exp", p.parseExp)
	if err != nil {
		return nil, err
	}
	tok, err := p.lex.Next()
	if err != nil {
		return nil, err
	}
	if tok.Kind != TkOf {
		p.lex.Unsee(tok)
		return nil, p.noMatch("case")
	}
	virt, err := p.openBlock()
	if err != nil {
		return nil, err
	}
	branches, err := enterParse(p, "alts", p.parseAlts)
	if err != nil {
		return nil, err
	}
	end := branches.Span.End
	if err := p.closeBlock(virt); err != nil {
		return nil, err
	}
	return NewCase(Span{start, end}, scrutinee, branches), nil
}

func (p *Parser) parseDoCont(start Position) (*Node, error) {
	virt, err := p.openBlock()
	if err != nil {
		return nil, err
	}
	stmts, err := enterParse(p, "stmts", p.parseStmts)
	if err != nil {
		return nil, err
	}
	end := stmts.Span.End
	if err := p.closeBlock(virt); err != nil {
		return nil, err
	}
	return NewDo(Span{start, end}, stmts), nil
}

func (p *Parser) parseFExp() (*Node, error) {
	expr, err := enterParse(p, "aexp", p.parseAExp)
	if err != nil {
		return nil, err
	}
	for {
		arg, err := tryParse(p, "aexp", p.parseAExp)
		if err != nil {
			if isNoMatch(err) {
				return expr, nil
			}
			return nil, err
		}
		expr = NewApply(Span{expr.Span.Start, arg.Span.End}, expr, arg)
	}
}

func (p *Parser) parseQOp() (*Node, error) {
	tok, err := p.lex.Next()
	if err != nil {
		return nil, err
	}
	if tok.Kind == TkSymbol {
		if isConNameSym(tok.Name.Name) {
			return NewCon(spanAt(tok.Pos), tok.Name), nil
		}
		return NewVar(spanAt(tok.Pos), tok.Name), nil
	}
	if tok.Kind == TkBacktick {
		nameTok, err := p.lex.Next()
		if err != nil {
			return nil, err
		}
		if nameTok.Kind != TkName {
			p.lex.Unsee(nameTok)
			return nil, p.noMatch("qop")
		}
		close, err := p.lex.Next()
		if err != nil {
			return nil, err
		}
		if close.Kind != TkBacktick {
			p.lex.Unsee(close)
			return nil, p.noMatch("qop")
		}
		span := Span{tok.Pos, close.Pos}
		if isConNameSym(nameTok.Name.Name) {
			return NewCon(span, nameTok.Name), nil
		}
		return NewVar(span, nameTok.Name), nil
	}
	p.lex.Unsee(tok)
	return nil, p.noMatch("qop")
}

func (p *Parser) parseParenCont() (*Node, error) {
	if op, err := tryParse(p, "qop", p.parseQOp); err == nil {
		arg, err := enterParse(p, "infixexp", p.parseInfixExp)
		if err != nil {
			return nil, err
		}
		tok, err := p.lex.Next()
		if err != nil {
			return nil, err
		}
		if tok.Kind != TkCloseParen {
			p.lex.Unsee(tok)
			return nil, p.noMatch("paren_cont")
		}
		return NewRSection(Span{op.Span.Start, tok.Pos}, op, arg), nil
	} else if !isNoMatch(err) {
		return nil, err
	}

	arg, err := enterParse(p, "infixexp", p.parseInfixExp)
	if err != nil {
		return nil, err
	}
	op, err := enterParse(p, "qop", p.parseQOp)
	if err != nil {
		return nil, err
	}
	tok, err := p.lex.Next()
	if err != nil {
		return nil, err
	}
	if tok.Kind != TkCloseParen {
		p.lex.Unsee(tok)
		return nil, p.noMatch("paren_cont")
	}
	return NewLSection(Span{arg.Span.Start, tok.Pos}, op, arg), nil
}

func (p *Parser) parseParenContRight() (*Node, error) {
	op, err := enterParse(p, "qop", p.parseQOp)
	if err != nil {
		return nil, err
	}
	arg, err := enterParse(p, "infixexp", p.parseInfixExp)
	if err != nil {
		return nil, err
	}
	tok, err := p.lex.Next()
	if err != nil {
		return nil, err
	}
	if tok.Kind != TkCloseParen {
		p.lex.Unsee(tok)
		return nil, p.noMatch("paren_cont_right")
	}
	return NewRSection(Span{op.Span.Start, tok.Pos}, op, arg), nil
}

func (p *Parser) parseAExp() (*Node, error) {
	if con, err := tryParse(p, "gcon", p.parseGCon); err == nil {
		return NewCon(con.Span, con.Name), nil
	} else if !isNoMatch(err) {
		return nil, err
	}
	if expr, err := tryParse(p, "qvar", p.parseQVar); err == nil {
		return expr, nil
	} else if !isNoMatch(err) {
		return nil, err
	}

	tok, err := p.lex.Next()
	if err != nil {
		return nil, err
	}
	switch tok.Kind {
	case TkOpenParen:
		return p.parseParenExp(tok.Pos)
	case TkNumber:
		return NewNumLit(spanAt(tok.Pos), tok.Number), nil
	case TkChar:
		return NewCharLit(spanAt(tok.Pos), tok.Number), nil
	case TkString:
		return NewStrLit(spanAt(tok.Pos), tok.Str), nil
	}
	p.lex.Unsee(tok)
	return nil, p.noMatch("aexp")
}

// parseParenExp implements the aexp production's "(" continuation: a
// parenthesized expression, a tuple literal, or a left/right operator
// section, distinguished by trying an inner exp first and then deciding
// between the three based on what follows it
// (original_source/parse/parse.c's parse_aexp TK_OPENPAREN case).
func (p *Parser) parseParenExp(start Position) (*Node, error) {
	s1 := p.lex.Copy()
	arg, err := enterParse(p, "exp", p.parseExp)
	if err != nil {
		if !isNoMatch(err) {
			return nil, err
		}
		p.lex = s1
		return enterParse(p, "paren_cont_right", p.parseParenContRight)
	}

	s2 := p.lex.Copy()
	p.lex = s1
	if section, err := tryParse(p, "paren_cont", p.parseParenCont); err == nil {
		return section, nil
	} else if !isNoMatch(err) {
		return nil, err
	}
	p.lex = s2

	tupleNode := NewTuple(spanAt(start), 1)
	fun := NewApply(Span{start, arg.Span.End}, tupleNode, arg)
	for {
		tok, err := p.lex.Next()
		if err != nil {
			return nil, err
		}
		if tok.Kind == TkCloseParen {
			fun.Span.End = tok.Pos
			break
		}
		if tok.Kind != TkComma {
			p.lex.Unsee(tok)
			return nil, p.noMatch("paren_exp")
		}
		arg2, err := enterParse(p, "exp", p.parseExp)
		if err != nil {
			return nil, err
		}
		tupleNode.Int++
		fun = NewApply(Span{start, arg2.Span.End}, fun, arg2)
	}
	if tupleNode.Int == 1 {
		return NewParens(fun.Span, fun.Children[1]), nil
	}
	return fun, nil
}

// --- Patterns ----------------------------------------------------------

func (p *Parser) parsePat() (*Node, error) {
	if con, err := tryParse(p, "gcon", p.parseGCon); err == nil {
		var pats []*Node
		for {
			pat, err := tryParse(p, "apat", p.parseAPat)
			if err != nil {
				if isNoMatch(err) {
					break
				}
				return nil, err
			}
			pats = append(pats, pat)
		}
		patList := List(con.Span, pats...)
		return NewPatCon(con.Span, con.Name, patList), nil
	} else if !isNoMatch(err) {
		return nil, err
	}
	return enterParse(p, "apat", p.parseAPat)
}

func (p *Parser) parseAPat() (*Node, error) {
	if con, err := tryParse(p, "gcon", p.parseGCon); err == nil {
		return NewPatCon(con.Span, con.Name, Nil(con.Span)), nil
	} else if !isNoMatch(err) {
		return nil, err
	}

	tok, err := p.lex.Next()
	if err != nil {
		return nil, err
	}
	switch tok.Kind {
	case TkOpenParen:
		var pats []*Node
		for {
			pat, err := enterParse(p, "pat", p.parsePat)
			if err != nil {
				return nil, err
			}
			pats = append(pats, pat)
			tok2, err := p.lex.Next()
			if err != nil {
				return nil, err
			}
			if tok2.Kind == TkCloseParen {
				if len(pats) == 1 {
					return pats[0], nil
				}
				span := Span{tok.Pos, tok2.Pos}
				return NewPatCon(span, p.tupleQualName(len(pats)), List(span, pats...)), nil
			}
			if tok2.Kind != TkComma {
				p.lex.Unsee(tok2)
				return nil, p.noMatch("apat")
			}
		}
	case TkName:
		if !isConNameSym(tok.Name.Name) {
			return NewPatVar(spanAt(tok.Pos), tok.Name.Name), nil
		}
	case TkNumber:
		return NewPatNumLit(spanAt(tok.Pos), tok.Number), nil
	case TkChar:
		return NewPatCharLit(spanAt(tok.Pos), tok.Number), nil
	case TkString:
		return NewPatStrLit(spanAt(tok.Pos), tok.Str), nil
	}
	p.lex.Unsee(tok)
	return nil, p.noMatch("apat")
}

// --- Case alternatives and guards ---------------------------------------

func (p *Parser) parseAlts() (*Node, error) {
	return p.semicolonList("alt", p.parseAlt)
}

func (p *Parser) parseAlt() (*Node, error) {
	pat, err := enterParse(p, "pat", p.parsePat)
	if err != nil {
		return nil, err
	}
	tok, err := p.lex.Next()
	if err != nil {
		return nil, err
	}
	if tok.Kind == TkTo {
		expr, err := enterParse(p, "exp", p.parseExp)
		if err != nil {
			return nil, err
		}
		sw := NewSwitch(Span{tok.Pos, expr.Span.End}, Nil(spanAt(tok.Pos)), expr)
		return NewBranch(Span{pat.Span.Start, expr.Span.End}, pat, List(sw.Span, sw)), nil
	}
	p.lex.Unsee(tok)
	cases, err := enterParse(p, "gdpat", p.parseGdPat)
	if err != nil {
		return nil, err
	}
	return NewBranch(Span{pat.Span.Start, cases.Span.End}, pat, cases), nil
}

func (p *Parser) parseGdPat() (*Node, error) {
	gd, err := enterParse(p, "guards", p.parseGuards)
	if err != nil {
		return nil, err
	}
	tok, err := p.lex.Next()
	if err != nil {
		return nil, err
	}
	if tok.Kind != TkTo {
		p.lex.Unsee(tok)
		return nil, p.noMatch("gdpat")
	}
	expr, err := enterParse(p, "exp", p.parseExp)
	if err != nil {
		return nil, err
	}
	cases, err := tryParse(p, "gdpat", p.parseGdPat)
	if err != nil {
		if !isNoMatch(err) {
			return nil, err
		}
		cases = Nil(spanAt(tok.Pos))
	}
	sw := NewSwitch(Span{gd.Span.Start, expr.Span.End}, gd, expr)
	return Cons(Span{sw.Span.Start, cases.Span.End}, sw, cases), nil
}

func (p *Parser) parseGuards() (*Node, error) {
	tok, err := p.lex.Next()
	if err != nil {
		return nil, err
	}
	if tok.Kind != TkBar {
		p.lex.Unsee(tok)
		return nil, p.noMatch("guards")
	}
	var guards []*Node
	for {
		guard, err := enterParse(p, "guard", p.parseGuard)
		if err != nil {
			return nil, err
		}
		guards = append(guards, guard)
		tok2, err := p.lex.Next()
		if err != nil {
			return nil, err
		}
		if tok2.Kind != TkComma {
			p.lex.Unsee(tok2)
			break
		}
	}
	return List(spanAt(tok.Pos), guards...), nil
}

func (p *Parser) parseGuardCont() (*Node, error) {
	pat, err := enterParse(p, "pat", p.parsePat)
	if err != nil {
		return nil, err
	}
	tok, err := p.lex.Next()
	if err != nil {
		return nil, err
	}
	if tok.Kind != TkFrom {
		p.lex.Unsee(tok)
		return nil, p.noMatch("guard")
	}
	expr, err := enterParse(p, "infixexp", p.parseInfixExp)
	if err != nil {
		return nil, err
	}
	return NewGuardPat(Span{pat.Span.Start, expr.Span.End}, pat, expr), nil
}

func (p *Parser) parseGuard() (*Node, error) {
	tok, err := p.lex.Next()
	if err != nil {
		return nil, err
	}
	if tok.Kind == TkLet {
		virt, err := p.openBlock()
		if err != nil {
			return nil, err
		}
		decls, err := enterParse(p, "decls", p.parseDecls)
		if err != nil {
			return nil, err
		}
		end := decls.Span.End
		if err := p.closeBlock(virt); err != nil {
			return nil, err
		}
		return NewGuardLet(Span{tok.Pos, end}, decls), nil
	}
	p.lex.Unsee(tok)

	if guard, err := tryParse(p, "guard_cont", p.parseGuardCont); err == nil {
		return guard, nil
	} else if !isNoMatch(err) {
		return nil, err
	}

	expr, err := enterParse(p, "infixexp", p.parseInfixExp)
	if err != nil {
		return nil, err
	}
	return NewGuardBool(expr.Span, expr), nil
}

// --- Do-block statements -------------------------------------------------

func (p *Parser) parseBindCont() (*Node, error) {
	pat, err := enterParse(p, "pat", p.parsePat)
	if err != nil {
		return nil, err
	}
	tok, err := p.lex.Next()
	if err != nil {
		return nil, err
	}
	if tok.Kind != TkFrom {
		p.lex.Unsee(tok)
		return nil, p.noMatch("stmt")
	}
	return pat, nil
}

func (p *Parser) parseStmts() (*Node, error) {
	return p.semicolonList("stmt", p.parseStmt)
}

func (p *Parser) parseStmt() (*Node, error) {
	tok, err := p.lex.Next()
	if err != nil {
		return nil, err
	}
	if tok.Kind == TkLet {
		virt, err := p.openBlock()
		if err != nil {
			return nil, err
		}
		decls, err := enterParse(p, "decls", p.parseDecls)
		if err != nil {
			return nil, err
		}
		end := decls.Span.End
		if err := p.closeBlock(virt); err != nil {
			return nil, err
		}
		return NewStmtLet(Span{tok.Pos, end}, decls), nil
	}
	p.lex.Unsee(tok)

	if pat, err := tryParse(p, "bind_cont", p.parseBindCont); err == nil {
		expr, err := enterParse(p, "exp", p.parseExp)
		if err != nil {
			return nil, err
		}
		return NewStmtBind(Span{pat.Span.Start, expr.Span.End}, pat, expr), nil
	} else if !isNoMatch(err) {
		return nil, err
	}

	expr, err := enterParse(p, "exp", p.parseExp)
	if err != nil {
		return nil, err
	}
	return NewStmt(expr.Span, expr), nil
}

// --- Declarations --------------------------------------------------------

// ParseTopDecls parses a semicolon-separated list of top-level
// declarations.
func (p *Parser) ParseTopDecls() (*Node, error) {
	return p.semicolonList("topdecl", p.parseTopDecl)
}

func (p *Parser) parseTopDecl() (*Node, error) {
	return p.parseDecl()
}

func (p *Parser) parseDecls() (*Node, error) {
	return p.semicolonList("decl", p.parseDecl)
}

func (p *Parser) parseTypeSignature() (*Node, error) {
	v, err := enterParse(p, "var", p.parseVar)
	if err != nil {
		return nil, err
	}
	tok, err := p.lex.Next()
	if err != nil {
		return nil, err
	}
	if tok.Kind != TkHasType {
		p.lex.Unsee(tok)
		return nil, p.noMatch("type_signature")
	}
	ty, err := enterParse(p, "type", p.parseType)
	if err != nil {
		return nil, err
	}
	return NewHasType(Span{v.Span.Start, ty.Span.End}, v.Name, ty), nil
}

func (p *Parser) parseRhs() (*Node, error) {
	tok, err := p.lex.Next()
	if err != nil {
		return nil, err
	}
	if tok.Kind == TkEquals {
		expr, err := enterParse(p, "exp", p.parseExp)
		if err != nil {
			return nil, err
		}
		sw := NewSwitch(Span{tok.Pos, expr.Span.End}, Nil(spanAt(tok.Pos)), expr)
		return List(sw.Span, sw), nil
	}
	p.lex.Unsee(tok)
	return enterParse(p, "gdrhs", p.parseGdRhs)
}

func (p *Parser) parseGdRhs() (*Node, error) {
	gd, err := enterParse(p, "guards", p.parseGuards)
	if err != nil {
		return nil, err
	}
	tok, err := p.lex.Next()
	if err != nil {
		return nil, err
	}
	if tok.Kind != TkEquals {
		p.lex.Unsee(tok)
		return nil, p.noMatch("gdrhs")
	}
	expr, err := enterParse(p, "exp", p.parseExp)
	if err != nil {
		return nil, err
	}
	cases, err := tryParse(p, "gdrhs", p.parseGdRhs)
	if err != nil {
		if !isNoMatch(err) {
			return nil, err
		}
		cases = Nil(spanAt(tok.Pos))
	}
	sw := NewSwitch(Span{gd.Span.Start, expr.Span.End}, gd, expr)
	return Cons(Span{sw.Span.Start, cases.Span.End}, sw, cases), nil
}

func (p *Parser) parseDecl() (*Node, error) {
	tok, err := p.lex.Next()
	if err != nil {
		return nil, err
	}
	if tok.Kind == TkInfix || tok.Kind == TkInfixl || tok.Kind == TkInfixr {
		return p.parseFixityCont(tok)
	}
	p.lex.Unsee(tok)

	if decl, err := tryParse(p, "type_signature", p.parseTypeSignature); err == nil {
		return decl, nil
	} else if !isNoMatch(err) {
		return nil, err
	}

	name, err := enterParse(p, "var", p.parseVar)
	if err != nil {
		return nil, err
	}
	var pats []*Node
	for {
		pat, err := tryParse(p, "pat", p.parsePat)
		if err != nil {
			if isNoMatch(err) {
				break
			}
			return nil, err
		}
		pats = append(pats, pat)
	}
	patList := List(name.Span, pats...)
	rhs, err := enterParse(p, "rhs", p.parseRhs)
	if err != nil {
		return nil, err
	}
	return NewBinding(Span{name.Span.Start, rhs.Span.End}, name.Name, patList, rhs), nil
}

func (p *Parser) parseFixityCont(kw Token) (*Node, error) {
	tag := AstInfix
	switch kw.Kind {
	case TkInfixl:
		tag = AstInfixl
	case TkInfixr:
		tag = AstInfixr
	}
	numTok, err := p.lex.Next()
	if err != nil {
		return nil, err
	}
	if numTok.Kind != TkNumber {
		p.lex.Unsee(numTok)
		return nil, p.noMatch("decl")
	}
	level := int(numTok.Number)

	opTok, err := p.lex.Next()
	if err != nil {
		return nil, err
	}
	if opTok.Kind == TkSymbol {
		if opTok.Name.HasQualifier {
			return nil, ParseError{Message: "expected an unqualified operator", Production: "decl", Span: spanAt(opTok.Pos)}
		}
		return NewFixity(Span{kw.Pos, opTok.Pos}, tag, opTok.Name, level), nil
	}
	if opTok.Kind == TkBacktick {
		nameTok, err := p.lex.Next()
		if err != nil {
			return nil, err
		}
		if nameTok.Kind != TkName {
			p.lex.Unsee(nameTok)
			return nil, p.noMatch("decl")
		}
		close, err := p.lex.Next()
		if err != nil {
			return nil, err
		}
		if close.Kind != TkBacktick {
			p.lex.Unsee(close)
			return nil, p.noMatch("decl")
		}
		return NewFixity(Span{kw.Pos, close.Pos}, tag, nameTok.Name, level), nil
	}
	p.lex.Unsee(opTok)
	return nil, p.noMatch("decl")
}

// --- Top-level entry point -----------------------------------------------

// ParseModule parses an entire source file: an optional
// "module Qualname where { ... }" header wrapping a list of top-level
// declarations, or a bare list of top-level declarations when no header is
// present, followed by a mandatory end-of-input check
// (original_source/parse/parse.c's parser_eof). Either way, the
// declaration list gets an implicit top-level layout block opened at the
// column of its first token, exactly as if it had followed a "where": a
// source file with no explicit braces is still laid out by indentation,
// not just the body of an explicit module. The module name itself carries
// no semantics here — module loading and name resolution are out of
// scope — so it is consumed but not retained in the result.
func (p *Parser) ParseModule() (module *Node, err error) {
	defer func() {
		if nm, ok := err.(noMatch); ok {
			err = ParseError{Message: "unexpected token", Production: nm.production, Span: nm.span}
		}
	}()

	tok, err := p.lex.Next()
	if err != nil {
		return nil, err
	}
	if tok.Kind != TkModule {
		p.lex.Unsee(tok)
		virt, err := p.openBlock()
		if err != nil {
			return nil, err
		}
		decls, err := p.ParseTopDecls()
		if err != nil {
			return nil, err
		}
		if err := p.closeBlock(virt); err != nil {
			return nil, err
		}
		if err := p.expectEOF(); err != nil {
			return nil, err
		}
		return decls, nil
	}

	nameTok, err := p.lex.Next()
	if err != nil {
		return nil, err
	}
	if nameTok.Kind != TkName {
		return nil, ParseError{Message: "expected a module name", Production: "module", Span: spanAt(nameTok.Pos)}
	}
	whereTok, err := p.lex.Next()
	if err != nil {
		return nil, err
	}
	if whereTok.Kind != TkWhere {
		return nil, ParseError{Message: "expected `where`", Production: "module", Span: spanAt(whereTok.Pos)}
	}
	virt, err := p.openBlock()
	if err != nil {
		return nil, err
	}
	decls, err := p.ParseTopDecls()
	if err != nil {
		return nil, err
	}
	if err := p.closeBlock(virt); err != nil {
		return nil, err
	}
	if err := p.expectEOF(); err != nil {
		return nil, err
	}
	return decls, nil
}

func (p *Parser) expectEOF() error {
	tok, err := p.lex.Next()
	if err != nil {
		return err
	}
	if tok.Kind != TkEOF {
		return ParseError{Message: "did not consume the entire input", Span: spanAt(tok.Pos)}
	}
	return nil
}
