package parser

import "kanso/internal/ast"

func (p *Parser) parseType() ast.TypeExpr {
	if p.match(AMPERSAND) {
		amp := p.previous()
		inner := p.parseType()
		return &ast.RefType{Pos: p.makePos(amp), EndPos: inner.NodeEndPos(), Inner: inner}
	}
	if p.match(STAR) {
		star := p.previous()
		inner := p.parseType()
		return &ast.PtrType{Pos: p.makePos(star), EndPos: inner.NodeEndPos(), Inner: inner}
	}
	if p.match(LEFT_PAREN) {
		l := p.previous()
		var elems []ast.TypeExpr
		if !p.check(RIGHT_PAREN) {
			elems = append(elems, p.parseType())
			for p.match(COMMA) {
				elems = append(elems, p.parseType())
			}
		}
		r := p.consume(RIGHT_PAREN, "expected ')' after tuple type")
		return &ast.TupleType{Pos: p.makePos(l), EndPos: p.makeEndPos(r), Elements: elems}
	}

	nameTok := p.consume(IDENTIFIER, "expected type name")
	name := p.makeIdent(nameTok)
	t := &ast.NamedType{Pos: name.Pos, EndPos: name.EndPos, Name: name}
	if p.match(LESS) {
		if !p.check(GREATER) {
			t.Args = append(t.Args, p.parseType())
			for p.match(COMMA) {
				t.Args = append(t.Args, p.parseType())
			}
		}
		closing := p.consume(GREATER, "expected '>' after type arguments")
		t.EndPos = p.makeEndPos(closing)
	}
	return t
}
