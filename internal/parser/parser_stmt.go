package parser

import "kanso/internal/ast"

func (p *Parser) parseBlock() *ast.Block {
	start := p.consume(LEFT_BRACE, "expected '{' to start block")
	b := &ast.Block{Pos: p.makePos(start)}
	for !p.check(RIGHT_BRACE) && !p.isAtEnd() {
		stmt := p.parseStmt()
		if stmt != nil {
			b.Stmts = append(b.Stmts, stmt)
		}
	}
	end := p.consume(RIGHT_BRACE, "expected '}' to close block")
	b.EndPos = p.makeEndPos(end)
	return b
}

func (p *Parser) parseStmt() ast.Stmt {
	switch {
	case p.check(LET):
		return p.parseLetStmt()
	case p.check(RETURN):
		return p.parseReturnStmt()
	case p.check(YIELD):
		return p.parseYieldStmt()
	default:
		return p.parseExprOrAssignStmt()
	}
}

func (p *Parser) parseLetStmt() *ast.LetStmt {
	start := p.advance() // 'let'
	mutable := p.match(MUT)
	pat := p.parsePattern()
	var ty ast.TypeExpr
	if p.match(COLON) {
		ty = p.parseType()
	}
	p.consume(EQUAL, "expected '=' in let binding")
	value := p.parseExpr()
	end := p.consume(SEMICOLON, "expected ';' after let binding")
	return &ast.LetStmt{
		Pos: p.makePos(start), EndPos: p.makeEndPos(end),
		Pattern: pat, Type: ty, Mutable: mutable, Value: value,
	}
}

func (p *Parser) parseReturnStmt() *ast.ReturnStmt {
	start := p.advance() // 'return'
	var value ast.Expr
	if !p.check(SEMICOLON) {
		value = p.parseExpr()
	}
	end := p.consume(SEMICOLON, "expected ';' after return statement")
	return &ast.ReturnStmt{Pos: p.makePos(start), EndPos: p.makeEndPos(end), Value: value}
}

func (p *Parser) parseYieldStmt() *ast.YieldStmt {
	start := p.advance() // 'yield'
	value := p.parseExpr()
	end := p.consume(SEMICOLON, "expected ';' after yield statement")
	return &ast.YieldStmt{Pos: p.makePos(start), EndPos: p.makeEndPos(end), Value: value}
}

// parseExprOrAssignStmt disambiguates "expr;" from "place = expr;" by
// parsing the left-hand expression first and checking for a trailing '='.
func (p *Parser) parseExprOrAssignStmt() ast.Stmt {
	start := p.peek()
	expr := p.parseExpr()
	if p.match(EQUAL) {
		value := p.parseExpr()
		end := p.consume(SEMICOLON, "expected ';' after assignment")
		return &ast.AssignStmt{Pos: p.makePos(start), EndPos: p.makeEndPos(end), Target: expr, Value: value}
	}
	end := p.consume(SEMICOLON, "expected ';' after expression statement")
	return &ast.ExprStmt{Pos: p.makePos(start), EndPos: p.makeEndPos(end), X: expr}
}
