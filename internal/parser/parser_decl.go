package parser

import "kanso/internal/ast"

func (p *Parser) parseUse() *ast.Use {
	start := p.advance() // 'use'
	u := &ast.Use{Pos: p.makePos(start)}
	u.Path = append(u.Path, p.consumeIdent("expected module path segment"))
	for p.match(DOUBLE_COLON) {
		if p.match(LEFT_BRACE) {
			for !p.check(RIGHT_BRACE) && !p.isAtEnd() {
				u.Items = append(u.Items, p.consumeIdent("expected imported item name"))
				if !p.match(COMMA) {
					break
				}
			}
			end := p.consume(RIGHT_BRACE, "expected '}' after import list")
			u.EndPos = p.makeEndPos(end)
			return u
		}
		u.Path = append(u.Path, p.consumeIdent("expected module path segment"))
	}
	u.EndPos = u.Path[len(u.Path)-1].EndPos
	return u
}

// parseTypeParams parses an optional "<A, B>" list.
func (p *Parser) parseTypeParams() []ast.Ident {
	if !p.match(LESS) {
		return nil
	}
	var params []ast.Ident
	if !p.check(GREATER) {
		params = append(params, p.consumeIdent("expected type parameter"))
		for p.match(COMMA) {
			params = append(params, p.consumeIdent("expected type parameter"))
		}
	}
	p.consume(GREATER, "expected '>' after type parameters")
	return params
}

func (p *Parser) parseStruct() *ast.Struct {
	start := p.advance() // 'struct'
	name := p.consumeIdent("expected struct name")
	typeParam := p.parseTypeParams()
	p.consume(LEFT_BRACE, "expected '{' after struct name")

	s := &ast.Struct{Pos: p.makePos(start), Name: name, TypeParam: typeParam}
	for !p.check(RIGHT_BRACE) && !p.isAtEnd() {
		fieldStart := p.peek()
		fname := p.consumeIdent("expected field name")
		p.consume(COLON, "expected ':' after field name")
		ftype := p.parseType()
		s.Fields = append(s.Fields, &ast.StructField{
			Pos: p.makePos(fieldStart), EndPos: ftype.NodeEndPos(), Name: fname, Type: ftype,
		})
		if !p.match(COMMA) {
			break
		}
	}
	end := p.consume(RIGHT_BRACE, "expected '}' after struct fields")
	s.EndPos = p.makeEndPos(end)
	return s
}

func (p *Parser) parseEnum() *ast.Enum {
	start := p.advance() // 'enum'
	name := p.consumeIdent("expected enum name")
	typeParam := p.parseTypeParams()
	p.consume(LEFT_BRACE, "expected '{' after enum name")

	e := &ast.Enum{Pos: p.makePos(start), Name: name, TypeParam: typeParam}
	index := 0
	for !p.check(RIGHT_BRACE) && !p.isAtEnd() {
		vStart := p.peek()
		vname := p.consumeIdent("expected variant name")
		variant := &ast.EnumVariant{Pos: p.makePos(vStart), Name: vname, Index: index}
		index++
		if p.match(LEFT_PAREN) {
			if !p.check(RIGHT_PAREN) {
				variant.Fields = append(variant.Fields, p.parseType())
				for p.match(COMMA) {
					variant.Fields = append(variant.Fields, p.parseType())
				}
			}
			rp := p.consume(RIGHT_PAREN, "expected ')' after variant payload")
			variant.EndPos = p.makeEndPos(rp)
		} else {
			variant.EndPos = vname.EndPos
		}
		e.Variants = append(e.Variants, variant)
		if !p.match(COMMA) {
			break
		}
	}
	end := p.consume(RIGHT_BRACE, "expected '}' after enum variants")
	e.EndPos = p.makeEndPos(end)
	return e
}

func (p *Parser) parseTrait() *ast.Trait {
	start := p.advance() // 'trait'
	name := p.consumeIdent("expected trait name")
	typeParam := p.parseTypeParams()
	p.consume(LEFT_BRACE, "expected '{' after trait name")

	t := &ast.Trait{Pos: p.makePos(start), Name: name, TypeParam: typeParam}
	for !p.check(RIGHT_BRACE) && !p.isAtEnd() {
		if p.check(IDENTIFIER) && p.peek().Lexeme == "type" {
			p.advance()
			t.AssocTypes = append(t.AssocTypes, p.consumeIdent("expected associated type name"))
			p.match(SEMICOLON)
			continue
		}
		t.Methods = append(t.Methods, p.parseTraitMethod())
	}
	end := p.consume(RIGHT_BRACE, "expected '}' after trait body")
	t.EndPos = p.makeEndPos(end)
	return t
}

func (p *Parser) parseTraitMethod() *ast.TraitMethod {
	start := p.consume(FUN, "expected 'fn'")
	name := p.consumeIdent("expected method name")
	params := p.parseParamList()
	var result ast.TypeExpr
	if p.match(ARROW) {
		result = p.parseType()
	}
	m := &ast.TraitMethod{Pos: p.makePos(start), Name: name, Params: params, Result: result}
	if p.check(LEFT_BRACE) {
		m.Body = p.parseBlock()
		m.EndPos = m.Body.EndPos
	} else {
		end := p.consume(SEMICOLON, "expected ';' after trait method signature")
		m.EndPos = p.makeEndPos(end)
	}
	return m
}

func (p *Parser) parseInstance() *ast.Instance {
	start := p.advance() // 'instance'
	traitName := p.consumeIdent("expected trait name")
	var typeArgs []ast.TypeExpr
	if p.match(LESS) {
		if !p.check(GREATER) {
			typeArgs = append(typeArgs, p.parseType())
			for p.match(COMMA) {
				typeArgs = append(typeArgs, p.parseType())
			}
		}
		p.consume(GREATER, "expected '>' after instance type arguments")
	}
	p.consume(FOR, "expected 'for' in instance declaration")
	forType := p.parseType()
	p.consume(LEFT_BRACE, "expected '{' after instance head")

	inst := &ast.Instance{
		Pos: p.makePos(start), TraitName: traitName, TypeArgs: typeArgs, ForType: forType,
		AssocTypes: map[string]ast.TypeExpr{},
	}
	for !p.check(RIGHT_BRACE) && !p.isAtEnd() {
		if p.check(IDENTIFIER) && p.peek().Lexeme == "type" {
			p.advance()
			aname := p.consumeIdent("expected associated type name")
			p.consume(EQUAL, "expected '=' in associated type binding")
			atype := p.parseType()
			p.match(SEMICOLON)
			inst.AssocTypes[aname.Value] = atype
			continue
		}
		inst.Methods = append(inst.Methods, p.parseFunction())
	}
	end := p.consume(RIGHT_BRACE, "expected '}' after instance body")
	inst.EndPos = p.makeEndPos(end)
	return inst
}

func (p *Parser) parseImplicitDecl() *ast.ImplicitDecl {
	start := p.advance() // 'implicit'
	name := p.consumeIdent("expected implicit name")
	p.consume(COLON, "expected ':' after implicit name")
	ty := p.parseType()
	end := p.consume(SEMICOLON, "expected ';' after implicit declaration")
	return &ast.ImplicitDecl{Pos: p.makePos(start), EndPos: p.makeEndPos(end), Name: name, Type: ty}
}

func (p *Parser) parseParamList() []*ast.FunctionParam {
	p.consume(LEFT_PAREN, "expected '(' to start parameter list")
	var params []*ast.FunctionParam
	for !p.check(RIGHT_PAREN) && !p.isAtEnd() {
		pStart := p.peek()
		mutable := p.match(MUT)
		if p.check(SELF) {
			self := p.advance()
			params = append(params, &ast.FunctionParam{
				Pos: p.makePos(pStart), EndPos: p.makeEndPos(self),
				Name: ast.Ident{Value: "self"}, Mutable: mutable,
			})
		} else {
			pname := p.consumeIdent("expected parameter name")
			p.consume(COLON, "expected ':' after parameter name")
			ptype := p.parseType()
			params = append(params, &ast.FunctionParam{
				Pos: p.makePos(pStart), EndPos: ptype.NodeEndPos(), Name: pname, Type: ptype, Mutable: mutable,
			})
		}
		if !p.match(COMMA) {
			break
		}
	}
	p.consume(RIGHT_PAREN, "expected ')' after parameter list")
	return params
}

func (p *Parser) parseFunction() *ast.Function {
	start := p.consume(FUN, "expected 'fn'")
	name := p.consumeIdent("expected function name")
	typeParam := p.parseTypeParams()
	var constraints []*ast.TraitBound
	if p.match(COLON) {
		constraints = p.parseConstraintList()
	}

	allParams := p.parseParamList()
	fn := &ast.Function{Pos: p.makePos(start), Name: name, TypeParam: typeParam, Constraint: constraints}
	if len(allParams) > 0 && allParams[0].Name.Value == "self" {
		fn.Receiver = allParams[0]
		fn.Params = allParams[1:]
	} else {
		fn.Params = allParams
	}

	if p.check(IDENTIFIER) && p.peek().Lexeme == "yields" {
		p.advance()
		fn.YieldType = p.parseType()
	}
	if p.match(ARROW) {
		fn.Result = p.parseType()
	}

	fn.Body = p.parseBlock()
	fn.EndPos = fn.Body.EndPos
	return fn
}

// parseConstraintList parses "T: Trait, U: OtherTrait<X>" after the leading ':'.
func (p *Parser) parseConstraintList() []*ast.TraitBound {
	var bounds []*ast.TraitBound
	for {
		tparam := p.consumeIdent("expected constrained type parameter")
		p.consume(COLON, "expected ':' in trait bound")
		traitName := p.consumeIdent("expected trait name")
		bound := &ast.TraitBound{TypeParam: tparam, TraitName: traitName}
		if p.match(LESS) {
			if !p.check(GREATER) {
				bound.TypeArgs = append(bound.TypeArgs, p.parseType())
				for p.match(COMMA) {
					bound.TypeArgs = append(bound.TypeArgs, p.parseType())
				}
			}
			p.consume(GREATER, "expected '>' after trait bound type arguments")
		}
		bounds = append(bounds, bound)
		if !p.match(COMMA) {
			break
		}
		if p.check(LEFT_PAREN) {
			break
		}
	}
	return bounds
}
