package parser

import (
	"runtime"

	"github.com/itealang/itea/diag"
	"github.com/itealang/itea/frontend/ast"
	"github.com/itealang/itea/frontend/token"
	"github.com/itealang/itea/types"
)

// Parser builds an AST from a token sequence. Declaration types are
// resolved against the type context as they are read; identifiers in
// expressions stay textual until semantic analysis.
type Parser struct {
	tokens []token.Token
	pos    int
	tctx   *types.Context
}

// New creates a parser over tokens, resolving types against tctx.
func New(tokens []token.Token, tctx *types.Context) *Parser {
	return &Parser{tokens: tokens, tctx: tctx}
}

// DefaultCallConv returns the platform's default calling convention.
func DefaultCallConv() ast.CallConv {
	if runtime.GOOS == "windows" {
		return ast.CallFast
	}
	return ast.CallC
}

// Parse consumes the whole token sequence and returns the root nodes.
func (p *Parser) Parse() []ast.Node {
	var root []ast.Node
	for !p.at(token.EOF) {
		root = append(root, p.parseRoot())
	}
	return root
}

func (p *Parser) cur() *token.Token  { return &p.tokens[p.pos] }
func (p *Parser) next() *token.Token { t := &p.tokens[p.pos]; p.pos++; return t }

func (p *Parser) at(kind token.Kind) bool { return p.cur().Kind == kind }

func (p *Parser) match(kind token.Kind) bool {
	if p.at(kind) {
		p.pos++
		return true
	}
	return false
}

func (p *Parser) matchKw(kw token.KeywordKind) bool {
	if p.cur().Is(kw) {
		p.pos++
		return true
	}
	return false
}

func (p *Parser) unexpected() {
	t := p.cur()
	diag.Fatalf("unexpected token '%s'. line %d, column %d", t.Text, t.Line, t.Column)
}

func (p *Parser) consume(kind token.Kind) *token.Token {
	if !p.at(kind) {
		p.unexpected()
	}
	return p.next()
}

func (p *Parser) consumeKw(kw token.KeywordKind) *token.Token {
	if !p.cur().Is(kw) {
		p.unexpected()
	}
	return p.next()
}

func (p *Parser) pos2() ast.Pos {
	return ast.Pos{Line: p.cur().Line, Column: p.cur().Column}
}

// attrs collects leading @name attribute markers.
type attrs struct {
	fn     ast.FuncAttr
	global ast.GlobalAttr
}

func (p *Parser) parseAttrs() attrs {
	var a attrs
	for p.match(token.At) {
		name := p.consume(token.Ident)
		switch name.Text {
		case "inline":
			a.fn |= ast.AttrInline
		case "noreturn":
			a.fn |= ast.AttrNoReturn
		case "nonamespace":
			a.fn |= ast.AttrNoNamespace
		case "nomangle":
			a.fn |= ast.AttrNoMangle
		case "threadlocal":
			a.global |= ast.AttrThreadLocal
		default:
			diag.Fatalf("unknown attribute '%s'. line %d, column %d", name.Text, name.Line, name.Column)
		}
	}
	return a
}

func (p *Parser) parseCallConv() ast.CallConv {
	switch {
	case p.matchKw(token.KwCdecl):
		return ast.CallC
	case p.matchKw(token.KwFastcall):
		return ast.CallFast
	case p.matchKw(token.KwStdcall):
		return ast.CallStd
	case p.matchKw(token.KwAuto):
		return ast.CallAuto
	}
	return DefaultCallConv()
}

func (p *Parser) parseRoot() ast.Node {
	pos := p.pos2()
	a := p.parseAttrs()

	if p.cur().Kind != token.Keyword {
		p.unexpected()
	}

	switch p.cur().Word {
	case token.KwPublic, token.KwPrivate:
		vis := ast.Public
		if p.cur().Word == token.KwPrivate {
			vis = ast.Private
		}
		p.pos++

		cc := p.parseCallConv()
		if p.matchKw(token.KwFunc) {
			name := p.consume(token.Ident).Text
			params, vararg := p.parseParams()
			p.consume(token.Arrow)
			ret := p.parseType()

			fn := &ast.Function{
				Loc: pos, Vis: vis, CC: cc, Attrs: a.fn, Vararg: vararg,
				Name: name, Params: params, ReturnType: ret,
			}
			fn.Body = p.parseBlock()
			return fn
		}
		if p.matchKw(token.KwVar) {
			name := p.consume(token.Ident).Text
			p.consume(token.Colon)
			t := p.parseType()
			var init ast.Expr
			if p.match(token.Assign) {
				init = p.parseExpression()
			}
			p.consume(token.Semicolon)
			return &ast.GlobalVariable{
				Loc: pos, Vis: vis, Attrs: a.global, Name: name, Type: t, Init: init,
			}
		}
		p.unexpected()

	case token.KwImport:
		p.pos++
		cc := p.parseCallConv()
		p.consumeKw(token.KwFunc)
		name := p.consume(token.Ident).Text
		params, vararg := p.parseParams()
		p.consume(token.Arrow)
		ret := p.parseType()
		p.consume(token.Semicolon)
		return &ast.FunctionImport{
			Loc: pos, CC: cc, Attrs: a.fn, Vararg: vararg,
			Name: name, Params: params, ReturnType: ret,
		}

	case token.KwUsing:
		p.pos++
		path := p.consume(token.String).Text
		p.consume(token.Semicolon)
		return &ast.ModuleImport{Loc: pos, Path: path}
	}

	p.unexpected()
	return nil
}

// parseParams reads `(type name, ..., [...])`; a trailing ... flags vararg.
func (p *Parser) parseParams() ([]ast.Param, bool) {
	p.consume(token.LParen)
	if p.match(token.RParen) {
		return nil, false
	}

	var params []ast.Param
	vararg := false
	for {
		if p.at(token.Dot) {
			p.consume(token.Dot)
			p.consume(token.Dot)
			p.consume(token.Dot)
			vararg = true
			p.consume(token.RParen)
			break
		}

		t := p.parseType()
		name := p.consume(token.Ident).Text
		params = append(params, ast.Param{Type: t, Name: name})

		if p.match(token.RParen) {
			break
		}
		p.consume(token.Comma)
	}
	return params, vararg
}

// parseType reads the textual type syntax and resolves it immediately.
func (p *Parser) parseType() *types.Type {
	start := p.cur()
	text := ""

	first := p.consume(token.Ident).Text
	switch first {
	case "const", "signed", "unsigned":
		text = first + " "
		next := p.consume(token.Ident).Text
		switch next {
		case "const", "signed", "unsigned":
			text += next + " " + p.consume(token.Ident).Text
		default:
			text += next
		}
	default:
		text = first
	}

	for p.match(token.Star) {
		text += "*"
		if p.at(token.Ident) && p.cur().Text == "const" {
			text += " const"
			p.pos++
		}
	}

	for p.match(token.LBrack) {
		dim := p.consume(token.Int).Text
		p.consume(token.RBrack)
		text += "[" + dim + "]"
	}

	t, err := p.tctx.Parse(text)
	if err != nil {
		diag.Fatalf("undefined type '%s'. line %d, column %d", text, start.Line, start.Column)
	}
	return t
}

// parseBlock reads statements until the matching `end`.
func (p *Parser) parseBlock() []ast.Node {
	var body []ast.Node
	for {
		if p.matchKw(token.KwEnd) {
			return body
		}
		if p.at(token.EOF) {
			t := p.cur()
			diag.Fatalf("unexpected EOF (did you forget to close a function?). line %d, column %d", t.Line, t.Column)
		}
		body = append(body, p.parseStat())
	}
}

func (p *Parser) parseStat() ast.Node {
	pos := p.pos2()

	if p.cur().Kind == token.Keyword {
		switch p.cur().Word {
		case token.KwReturn:
			p.pos++
			var value ast.Expr
			if !p.at(token.Semicolon) {
				value = p.parseExpression()
			}
			p.consume(token.Semicolon)
			return &ast.Return{Loc: pos, Value: value}

		case token.KwVar:
			p.pos++
			v := p.parseVarTail(pos)
			p.consume(token.Semicolon)
			return v

		case token.KwIf:
			p.pos++
			return p.parseIf(pos)

		case token.KwWhile:
			p.pos++
			pred := p.parseExpression()
			p.consumeKw(token.KwDo)
			return &ast.While{Loc: pos, Pred: pred, Body: p.parseBlock()}

		case token.KwFor:
			p.pos++
			return p.parseFor(pos)

		case token.KwBreak:
			p.pos++
			p.consume(token.Semicolon)
			return &ast.Break{Loc: pos}

		case token.KwContinue:
			p.pos++
			p.consume(token.Semicolon)
			return &ast.Continue{Loc: pos}

		default:
			p.unexpected()
		}
	}

	// Expression or assignment statement.
	lhs := p.parseExpression()

	switch p.cur().Kind {
	case token.Assign:
		p.pos++
		rhs := p.parseExpression()
		p.consume(token.Semicolon)
		return &ast.Assign{Loc: pos, LHS: lhs, RHS: rhs}

	case token.Add, token.Sub, token.Star, token.Div:
		if p.tokens[p.pos+1].Kind == token.Assign {
			op := p.next().Kind
			p.pos++ // '='
			rhs := p.parseExpression()
			p.consume(token.Semicolon)
			return &ast.Assign{Loc: pos, Op: op, LHS: lhs, RHS: rhs}
		}
	}

	p.consume(token.Semicolon)
	return &ast.ExprStat{Loc: pos, X: lhs}
}

// parseVarTail reads `name [: type] [= expr]` after the var keyword.
func (p *Parser) parseVarTail(pos ast.Pos) *ast.Variable {
	name := p.consume(token.Ident).Text
	var t *types.Type
	if p.match(token.Colon) {
		t = p.parseType()
	}
	var init ast.Expr
	if p.match(token.Assign) {
		init = p.parseExpression()
	}
	return &ast.Variable{Loc: pos, Name: name, Type: t, Init: init}
}

func (p *Parser) parseIf(pos ast.Pos) *ast.If {
	p.consume(token.LParen)
	pred := p.parseExpression()
	p.consume(token.RParen)
	p.consumeKw(token.KwDo)

	node := &ast.If{Loc: pos, Pred: pred}

	var body []ast.Node
	var elseifTail *ast.ElseIf
	cur := &body

	for {
		if p.cur().Is(token.KwEnd) {
			p.pos++
			break
		}
		if p.cur().Is(token.KwElseIf) {
			arm := &ast.ElseIf{Loc: p.pos2()}
			p.pos++
			p.consume(token.LParen)
			arm.Pred = p.parseExpression()
			p.consume(token.RParen)
			p.consumeKw(token.KwDo)

			if elseifTail == nil {
				node.ElseIf = arm
			} else {
				elseifTail.Next = arm
			}
			elseifTail = arm
			cur = &arm.Body
			continue
		}
		if p.cur().Is(token.KwElse) {
			node.Otherwise = &ast.Else{Loc: p.pos2()}
			p.pos++
			cur = &node.Otherwise.Body
			continue
		}
		if p.at(token.EOF) {
			t := p.cur()
			diag.Fatalf("unexpected EOF (did you forget to close an if?). line %d, column %d", t.Line, t.Column)
		}
		*cur = append(*cur, p.parseStat())
	}

	node.Body = body
	return node
}

func (p *Parser) parseFor(pos ast.Pos) *ast.For {
	p.consume(token.LParen)

	node := &ast.For{Loc: pos}
	varPos := p.pos2()
	p.consumeKw(token.KwVar)
	node.Var = p.parseVarTail(varPos)
	p.consume(token.Semicolon)

	if !p.at(token.Semicolon) {
		node.Pred = p.parseExpression()
	}
	p.consume(token.Semicolon)

	if !p.at(token.RParen) {
		node.Step = p.parseStepStat()
	}
	p.consume(token.RParen)
	p.consumeKw(token.KwDo)
	node.Body = p.parseBlock()
	return node
}

// parseStepStat reads the step clause of a for header: an expression or
// an assignment, without the trailing semicolon.
func (p *Parser) parseStepStat() ast.Node {
	pos := p.pos2()
	lhs := p.parseExpression()

	switch p.cur().Kind {
	case token.Assign:
		p.pos++
		return &ast.Assign{Loc: pos, LHS: lhs, RHS: p.parseExpression()}

	case token.Add, token.Sub, token.Star, token.Div:
		if p.tokens[p.pos+1].Kind == token.Assign {
			op := p.next().Kind
			p.pos++
			return &ast.Assign{Loc: pos, Op: op, LHS: lhs, RHS: p.parseExpression()}
		}
	}
	return &ast.ExprStat{Loc: pos, X: lhs}
}
