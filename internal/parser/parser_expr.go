package parser

import "kanso/internal/ast"

var binaryPrecedence = map[string]int{
	"||": 1,
	"&&": 2,
	"==": 3, "!=": 3,
	"<": 4, "<=": 4, ">": 4, ">=": 4,
	"+": 5, "-": 5,
	"*": 6, "/": 6, "%": 6,
}

func (p *Parser) parseExpr() ast.Expr {
	return p.parseMatchOrPratt(0)
}

func (p *Parser) parseMatchOrPratt(minPrec int) ast.Expr {
	if p.check(MATCH) {
		return p.parseMatchExpr()
	}
	return p.parsePrattExpr(minPrec)
}

func (p *Parser) parsePrattExpr(minPrec int) ast.Expr {
	expr := p.parsePrefixExpr()
	for {
		tok := p.peek()
		prec, ok := binaryPrecedence[tok.Lexeme]
		if !ok || prec < minPrec {
			break
		}
		p.advance()
		right := p.parsePrattExpr(prec + 1)
		expr = &ast.BinaryExpr{Pos: expr.NodePos(), EndPos: right.NodeEndPos(), Op: tok.Lexeme, Left: expr, Right: right}
	}
	return expr
}

func (p *Parser) parsePrefixExpr() ast.Expr {
	if p.match(AMPERSAND) {
		amp := p.previous()
		value := p.parsePrefixExpr()
		return &ast.RefExpr{Pos: p.makePos(amp), EndPos: value.NodeEndPos(), X: value}
	}
	if p.match(MINUS, BANG, STAR) {
		op := p.previous()
		value := p.parsePrefixExpr()
		return &ast.UnaryExpr{Pos: p.makePos(op), EndPos: value.NodeEndPos(), Op: op.Lexeme, X: value}
	}
	return p.parsePostfixExpr(p.parsePrimaryExpr())
}

func (p *Parser) parsePostfixExpr(expr ast.Expr) ast.Expr {
	for {
		if p.match(DOT) {
			fieldTok := p.consume(IDENTIFIER, "expected field or method name after '.'")
			field := p.makeIdent(fieldTok)
			if p.check(LEFT_PAREN) {
				p.advance()
				args := p.parseExprList()
				end := p.consume(RIGHT_PAREN, "expected ')' after method arguments")
				expr = &ast.MethodCallExpr{Pos: expr.NodePos(), EndPos: p.makeEndPos(end), Receiver: expr, Name: field, Args: args}
			} else {
				expr = &ast.FieldAccessExpr{Pos: expr.NodePos(), EndPos: field.EndPos, Receiver: expr, Name: field}
			}
		} else {
			break
		}
	}
	return expr
}

func (p *Parser) parseExprList() []ast.Expr {
	var args []ast.Expr
	if p.check(RIGHT_PAREN) {
		return args
	}
	for {
		args = append(args, p.parseExpr())
		if !p.match(COMMA) {
			break
		}
	}
	return args
}

func (p *Parser) parsePrimaryExpr() ast.Expr {
	if p.match(TRUE, FALSE) {
		tok := p.previous()
		return &ast.LiteralExpr{Pos: p.makePos(tok), EndPos: p.makeEndPos(tok), Kind: ast.LitBool, Raw: tok.Lexeme}
	}
	if p.match(NUMBER, HEX_NUMBER) {
		tok := p.previous()
		return &ast.LiteralExpr{Pos: p.makePos(tok), EndPos: p.makeEndPos(tok), Kind: ast.LitInt, Raw: tok.Lexeme}
	}
	if p.match(STRING) {
		tok := p.previous()
		return &ast.LiteralExpr{Pos: p.makePos(tok), EndPos: p.makeEndPos(tok), Kind: ast.LitString, Raw: tok.Lexeme}
	}
	if p.match(CHAR) {
		tok := p.previous()
		return &ast.LiteralExpr{Pos: p.makePos(tok), EndPos: p.makeEndPos(tok), Kind: ast.LitChar, Raw: tok.Lexeme}
	}
	if p.check(SELF) {
		tok := p.advance()
		return &ast.IdentExpr{Pos: p.makePos(tok), EndPos: p.makeEndPos(tok), Name: ast.Ident{Value: "self"}}
	}
	if p.check(IDENTIFIER) {
		start := p.advance()
		firstIdent := p.makeIdent(start)
		var module ast.Ident
		name := firstIdent
		if p.match(DOUBLE_COLON) {
			module = firstIdent
			name = p.consumeIdent("expected identifier after '::'")
		}

		if p.check(LEFT_PAREN) {
			p.advance()
			args := p.parseExprList()
			rparen := p.consume(RIGHT_PAREN, "expected ')' after call arguments")
			return &ast.CallExpr{
				Pos: firstIdent.Pos, EndPos: p.makeEndPos(rparen),
				Callee: ast.CalleePath{Module: module, Name: name}, Args: args,
			}
		}
		if p.check(LEFT_BRACE) && p.looksLikeStructLiteral() {
			p.advance()
			return p.parseStructLiteralExpr(name)
		}
		return &ast.IdentExpr{Pos: firstIdent.Pos, EndPos: name.EndPos, Name: name}
	}

	if p.match(LEFT_PAREN) {
		l := p.previous()
		if p.check(RIGHT_PAREN) {
			r := p.advance()
			return &ast.TupleExpr{Pos: p.makePos(l), EndPos: p.makeEndPos(r), Elements: []ast.Expr{}}
		}
		first := p.parseExpr()
		if p.match(COMMA) {
			elements := []ast.Expr{first}
			if !p.check(RIGHT_PAREN) {
				for {
					elements = append(elements, p.parseExpr())
					if !p.match(COMMA) {
						break
					}
					if p.check(RIGHT_PAREN) {
						break
					}
				}
			}
			r := p.consume(RIGHT_PAREN, "expected ')' after tuple elements")
			return &ast.TupleExpr{Pos: p.makePos(l), EndPos: p.makeEndPos(r), Elements: elements}
		}
		r := p.consume(RIGHT_PAREN, "expected ')'")
		return &ast.ParenExpr{Pos: p.makePos(l), EndPos: p.makeEndPos(r), X: first}
	}

	tok := p.peek()
	p.errorAtCurrent("unexpected token in expression")
	p.advance()
	return &ast.BadExpr{Pos: p.makePos(tok), EndPos: p.makeEndPos(tok), Message: "unexpected token: " + tok.Lexeme}
}

// looksLikeStructLiteral always reports true: with no further lookahead,
// every identifier followed by '{' in expression position is parsed as the
// start of a struct literal.
func (p *Parser) looksLikeStructLiteral() bool {
	return true
}

func (p *Parser) parseStructLiteralExpr(typeName ast.Ident) ast.Expr {
	var fields []ast.StructLiteralField
	for !p.check(RIGHT_BRACE) && !p.isAtEnd() {
		fname := p.consumeIdent("expected field name")
		if !p.match(COLON) {
			fields = append(fields, ast.StructLiteralField{Name: fname, Value: &ast.IdentExpr{Name: fname}})
		} else {
			value := p.parseExpr()
			fields = append(fields, ast.StructLiteralField{Name: fname, Value: value})
		}
		if !p.match(COMMA) {
			break
		}
	}
	end := p.consume(RIGHT_BRACE, "expected '}' after struct literal")
	return &ast.StructLiteralExpr{Pos: typeName.Pos, EndPos: p.makeEndPos(end), TypeName: typeName, Fields: fields}
}

func (p *Parser) parseMatchExpr() ast.Expr {
	start := p.advance() // 'match'
	scrutinee := p.parsePrattExpr(0)
	p.consume(LEFT_BRACE, "expected '{' to start match body")

	m := &ast.MatchExpr{Pos: p.makePos(start), Scrutinee: scrutinee}
	for !p.check(RIGHT_BRACE) && !p.isAtEnd() {
		armStart := p.peek()
		pat := p.parsePattern()
		var guard ast.Expr
		if p.match(IF) {
			guard = p.parseExpr()
		}
		p.consume(ARROW, "expected '->' after match pattern")
		body := p.parseExpr()
		m.Arms = append(m.Arms, ast.MatchArm{Pos: p.makePos(armStart), Pattern: pat, Guard: guard, Body: body})
		if !p.match(COMMA) {
			break
		}
	}
	end := p.consume(RIGHT_BRACE, "expected '}' after match arms")
	m.EndPos = p.makeEndPos(end)
	return m
}
