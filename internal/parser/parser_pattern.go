package parser

import "kanso/internal/ast"

// parsePattern parses a single pattern, then folds trailing "| pattern"
// alternates into an OrPattern. Or-patterns are desugared into separate
// decision tree branches downstream, before exhaustiveness is checked.
func (p *Parser) parsePattern() ast.Pattern {
	first := p.parsePatternAtom()
	if !p.check(PIPE) {
		return first
	}
	alts := []ast.Pattern{first}
	for p.match(PIPE) {
		alts = append(alts, p.parsePatternAtom())
	}
	return &ast.OrPattern{Pos: first.NodePos(), EndPos: alts[len(alts)-1].NodeEndPos(), Alternates: alts}
}

func (p *Parser) parsePatternAtom() ast.Pattern {
	if p.match(WILDCARD) {
		tok := p.previous()
		return &ast.WildcardPattern{Pos: p.makePos(tok), EndPos: p.makeEndPos(tok)}
	}
	if p.match(NUMBER, HEX_NUMBER) {
		tok := p.previous()
		return &ast.LiteralPattern{Pos: p.makePos(tok), EndPos: p.makeEndPos(tok), Kind: ast.LitInt, Raw: tok.Lexeme}
	}
	if p.match(STRING) {
		tok := p.previous()
		return &ast.LiteralPattern{Pos: p.makePos(tok), EndPos: p.makeEndPos(tok), Kind: ast.LitString, Raw: tok.Lexeme}
	}
	if p.match(TRUE, FALSE) {
		tok := p.previous()
		return &ast.LiteralPattern{Pos: p.makePos(tok), EndPos: p.makeEndPos(tok), Kind: ast.LitBool, Raw: tok.Lexeme}
	}
	if p.match(LEFT_PAREN) {
		l := p.previous()
		var elems []ast.Pattern
		if !p.check(RIGHT_PAREN) {
			elems = append(elems, p.parsePattern())
			for p.match(COMMA) {
				elems = append(elems, p.parsePattern())
			}
		}
		r := p.consume(RIGHT_PAREN, "expected ')' after tuple pattern")
		return &ast.TuplePattern{Pos: p.makePos(l), EndPos: p.makeEndPos(r), Elements: elems}
	}
	if p.check(IDENTIFIER) {
		name := p.consumeIdent("expected pattern")
		// Identifiers not followed by '(' or '{' are treated as bindings;
		// the resolver disambiguates constructors from plain bindings
		// once it has the program's constructor table.
		if p.check(LEFT_PAREN) {
			p.advance()
			var subs []ast.Pattern
			if !p.check(RIGHT_PAREN) {
				subs = append(subs, p.parsePattern())
				for p.match(COMMA) {
					subs = append(subs, p.parsePattern())
				}
			}
			end := p.consume(RIGHT_PAREN, "expected ')' after variant pattern payload")
			return &ast.VariantPattern{Pos: name.Pos, EndPos: p.makeEndPos(end), Variant: name, SubPatterns: subs}
		}
		if p.check(LEFT_BRACE) {
			p.advance()
			var fields []ast.StructPatternField
			for !p.check(RIGHT_BRACE) && !p.isAtEnd() {
				fname := p.consumeIdent("expected field name in struct pattern")
				var fpat ast.Pattern
				if p.match(COLON) {
					fpat = p.parsePattern()
				} else {
					fpat = &ast.BindPattern{Pos: fname.Pos, EndPos: fname.EndPos, Name: fname}
				}
				fields = append(fields, ast.StructPatternField{Name: fname, Pattern: fpat})
				if !p.match(COMMA) {
					break
				}
			}
			end := p.consume(RIGHT_BRACE, "expected '}' after struct pattern")
			return &ast.StructPattern{Pos: name.Pos, EndPos: p.makeEndPos(end), TypeName: name, Fields: fields}
		}
		if name.Value == "_" {
			return &ast.WildcardPattern{Pos: name.Pos, EndPos: name.EndPos}
		}
		mutable := false
		return &ast.BindPattern{Pos: name.Pos, EndPos: name.EndPos, Name: name, Mutable: mutable}
	}
	if p.match(MUT) {
		name := p.consumeIdent("expected binding name after 'mut'")
		return &ast.BindPattern{Pos: name.Pos, EndPos: name.EndPos, Name: name, Mutable: true}
	}

	tok := p.peek()
	p.errorAtCurrent("expected a pattern")
	p.advance()
	return &ast.WildcardPattern{Pos: p.makePos(tok), EndPos: p.makeEndPos(tok)}
}
