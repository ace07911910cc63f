package parser

import (
	"github.com/itealang/itea/frontend/ast"
	"github.com/itealang/itea/frontend/token"
)

func precedence(kind token.Kind) int {
	switch kind {
	case token.Or:
		return 1
	case token.And:
		return 2
	case token.BOr:
		return 3
	case token.BXor:
		return 4
	case token.Amp:
		return 5
	case token.Eq, token.Neq:
		return 6
	case token.Lt, token.Le, token.Gt, token.Ge:
		return 7
	case token.Shl, token.Shr:
		return 8
	case token.Add, token.Sub:
		return 9
	case token.Star, token.Div:
		return 10
	}
	return -1
}

func (p *Parser) parseExpression() ast.Expr {
	return p.parseRhs(0, p.parsePrimary())
}

func (p *Parser) parseRhs(minPrec int, lhs ast.Expr) ast.Expr {
	for {
		prec := precedence(p.cur().Kind)
		if prec < minPrec {
			return lhs
		}
		// A trailing `op=` is a compound assignment, not a binary operator.
		if p.tokens[p.pos+1].Kind == token.Assign {
			switch p.cur().Kind {
			case token.Add, token.Sub, token.Star, token.Div:
				return lhs
			}
		}

		op := p.next()
		rhs := p.parsePrimary()

		if prec < precedence(p.cur().Kind) {
			rhs = p.parseRhs(prec+1, rhs)
		}
		lhs = &ast.Binary{
			ExprBase: ast.ExprBase{Loc: ast.Pos{Line: op.Line, Column: op.Column}},
			Op:       op.Kind, LHS: lhs, RHS: rhs,
		}
	}
}

func (p *Parser) parsePrimary() ast.Expr {
	pos := p.pos2()
	var node ast.Expr

	switch p.cur().Kind {
	case token.Int:
		node = &ast.Literal{ExprBase: ast.ExprBase{Loc: pos}, Kind: ast.LitInt, Value: p.next().Text}

	case token.Float:
		node = &ast.Literal{ExprBase: ast.ExprBase{Loc: pos}, Kind: ast.LitFloat, Value: p.next().Text}

	case token.Double:
		node = &ast.Literal{ExprBase: ast.ExprBase{Loc: pos}, Kind: ast.LitDouble, Value: p.next().Text}

	case token.String:
		node = &ast.Literal{ExprBase: ast.ExprBase{Loc: pos}, Kind: ast.LitString, Value: p.next().Text}

	case token.Char:
		node = &ast.Literal{ExprBase: ast.ExprBase{Loc: pos}, Kind: ast.LitChar, Value: p.next().Text}

	case token.Ident:
		text := p.next().Text
		for p.at(token.Scope) {
			p.pos++
			text += "::" + p.consume(token.Ident).Text
		}
		node = &ast.Literal{ExprBase: ast.ExprBase{Loc: pos}, Kind: ast.LitIdent, Value: text}

	case token.LParen:
		p.pos++
		node = p.parseExpression()
		p.consume(token.RParen)

	case token.Not, token.Amp, token.Star, token.Tilde:
		op := p.next().Kind
		node = &ast.Unary{ExprBase: ast.ExprBase{Loc: pos}, Op: op, X: p.parsePrimary()}

	case token.LBrack:
		p.pos++
		var elems []ast.Expr
		if !p.at(token.RBrack) {
			for {
				elems = append(elems, p.parseExpression())
				if !p.match(token.Comma) {
					break
				}
			}
		}
		p.consume(token.RBrack)
		node = &ast.ArrayLit{ExprBase: ast.ExprBase{Loc: pos}, Elems: elems}

	default:
		p.unexpected()
	}

	// Postfix: call and index chains.
	for {
		switch {
		case p.match(token.LParen):
			var args []ast.Expr
			if !p.at(token.RParen) {
				for {
					args = append(args, p.parseExpression())
					if !p.match(token.Comma) {
						break
					}
				}
			}
			p.consume(token.RParen)
			node = &ast.Call{ExprBase: ast.ExprBase{Loc: pos}, Callee: node, Args: args}

		case p.match(token.LBrack):
			idx := p.parseExpression()
			p.consume(token.RBrack)
			node = &ast.Index{ExprBase: ast.ExprBase{Loc: pos}, Base: node, Idx: idx}

		default:
			return node
		}
	}
}
