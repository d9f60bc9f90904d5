// Package parser implements the recursive-descent Yul parser.
package parser

import (
	"fmt"
	"math/big"

	"github.com/r3e-network/neo-solidity-sub001/internal/ast"
	"github.com/r3e-network/neo-solidity-sub001/internal/token"
)

type parser struct {
	toks []token.Token
	pos  int
	errs []error
	bt   bracketTracker
}

// Parse converts a token stream into a single root Object.
// A Yul program is either an `object "name" { ... }` form or a bare
// Block; the bare-block form is normalized into an unnamed Object whose
// Code is that block, so every later stage has one entry shape to
// consume. A parse with any error produces no AST.
func Parse(toks []token.Token) (*ast.Object, []error) {
	p := &parser{toks: toks}
	obj := p.parseTop()
	if len(p.errs) > 0 {
		return nil, p.errs
	}
	return obj, nil
}

func (p *parser) cur() token.Token {
	if p.pos >= len(p.toks) {
		return p.toks[len(p.toks)-1] // EOF
	}
	return p.toks[p.pos]
}

func (p *parser) at(k token.Kind) bool { return p.cur().Kind == k }

func (p *parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) expect(k token.Kind, context string) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	p.errorf("expected %s in %s, got %s", k, context, p.cur().Kind)
	return token.Token{}, false
}

func (p *parser) errorf(format string, args ...interface{}) {
	p.errs = append(p.errs, &Error{Message: fmt.Sprintf(format, args...), Pos: p.cur().Pos})
}

// resync skips tokens until a statement boundary: a closing `}` or the
// start of a known statement keyword.
func (p *parser) resync() {
	p.advance() // always make progress, even if already sitting on a boundary token
	for !p.at(token.EOF) {
		switch p.cur().Kind {
		case token.RBRACE, token.LET, token.IF, token.SWITCH, token.FOR,
			token.BREAK, token.CONTINUE, token.LEAVE, token.FUNCTION, token.LBRACE:
			return
		}
		p.advance()
	}
}

func (p *parser) parseTop() *ast.Object {
	if p.at(token.OBJECT) {
		return p.parseObject()
	}
	pos := p.cur().Pos
	block := p.parseBlock("top-level block")
	obj := ast.NewObject(pos, "")
	obj.Code = block
	return obj
}

func (p *parser) parseObject() *ast.Object {
	start := p.advance().Pos // 'object'
	nameTok, _ := p.expect(token.STRING, "object header")
	obj := ast.NewObject(start, nameTok.Lexeme)

	p.bt.push(token.LBRACE, p.cur().Pos, "object body")
	if _, ok := p.expect(token.LBRACE, "object body"); !ok {
		p.resync()
	}

	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		switch {
		case p.at(token.CODE):
			p.advance()
			obj.Code = p.parseBlock("code block")
		case p.at(token.OBJECT):
			obj.SubObjects = append(obj.SubObjects, p.parseObject())
		case p.at(token.DATA):
			obj.DataItems = append(obj.DataItems, p.parseDataItem())
		default:
			p.errorf("expected 'code', 'object', or 'data' in object body, got %s", p.cur().Kind)
			p.resync()
		}
	}
	if t, ok := p.expect(token.RBRACE, "object body"); ok {
		p.bt.pop(token.LBRACE)
		_ = t
	}
	return obj
}

func (p *parser) parseDataItem() *ast.DataItem {
	start := p.advance().Pos // 'data'
	nameTok, _ := p.expect(token.STRING, "data item")
	item := &ast.DataItem{Name: nameTok.Lexeme}
	item.Position = start
	if p.at(token.HEX) {
		lit := p.advance()
		item.Value = hexBytes(lit.Lexeme)
	} else if p.at(token.IDENT) && p.cur().Lexeme == "hex" {
		p.advance() // 'hex' prefix of a hex"..." literal
		lit, _ := p.expect(token.STRING, "hex data literal")
		item.Value = hexBytes("0x" + lit.Lexeme)
	} else if p.at(token.STRING) {
		lit := p.advance()
		item.Value = []byte(lit.Lexeme)
	} else {
		p.errorf("expected hex or string literal for data item %q", item.Name)
	}
	return item
}

func (p *parser) parseBlock(context string) *ast.Block {
	start := p.cur().Pos
	p.bt.push(token.LBRACE, start, context)
	if _, ok := p.expect(token.LBRACE, context); !ok {
		p.resync()
	}
	block := ast.NewBlock(start)
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		before := p.pos
		stmt := p.parseStatement()
		if stmt != nil {
			block.Statements = append(block.Statements, stmt)
		}
		if p.pos == before {
			// parseStatement made no progress; force advance to avoid
			// an infinite loop on malformed input.
			p.advance()
		}
	}
	if _, ok := p.expect(token.RBRACE, context); ok {
		p.bt.pop(token.LBRACE)
	}
	return block
}

func (p *parser) parseStatement() ast.Node {
	switch p.cur().Kind {
	case token.LET:
		return p.parseVarDecl()
	case token.IF:
		return p.parseIf()
	case token.SWITCH:
		return p.parseSwitch()
	case token.FOR:
		return p.parseForLoop()
	case token.BREAK:
		return ast.NewBreak(p.advance().Pos)
	case token.CONTINUE:
		return ast.NewContinue(p.advance().Pos)
	case token.LEAVE:
		return ast.NewLeave(p.advance().Pos)
	case token.FUNCTION:
		return p.parseFunctionDef()
	case token.LBRACE:
		return p.parseBlock("nested block")
	case token.IDENT, token.BUILTIN:
		return p.parseAssignmentOrCall()
	default:
		p.errorf("unexpected token %s at start of statement", p.cur().Kind)
		p.resync()
		return nil
	}
}

func (p *parser) parseVarDecl() ast.Node {
	start := p.advance().Pos // 'let'
	decl := ast.NewVarDecl(start)
	decl.Names = append(decl.Names, p.parseIdentName())
	for p.at(token.COMMA) {
		p.advance()
		decl.Names = append(decl.Names, p.parseIdentName())
	}
	if p.at(token.ASSIGN) {
		p.advance()
		decl.Init = p.parseExpr()
	}
	return decl
}

func (p *parser) parseIdentName() string {
	if p.at(token.IDENT) {
		return p.advance().Lexeme
	}
	p.errorf("expected identifier, got %s", p.cur().Kind)
	return ""
}

func (p *parser) parseAssignmentOrCall() ast.Node {
	start := p.cur().Pos
	first := p.advance()

	if p.at(token.LPAREN) {
		call := p.finishCall(start, first.Lexeme)
		return call
	}

	// Assignment: identifier list followed by `:=`.
	targets := []string{first.Lexeme}
	for p.at(token.COMMA) {
		p.advance()
		targets = append(targets, p.parseIdentName())
	}
	assign := ast.NewAssignment(start)
	assign.Targets = targets
	if _, ok := p.expect(token.ASSIGN, "assignment"); !ok {
		p.resync()
		return assign
	}
	assign.Value = p.parseExpr()
	return assign
}

func (p *parser) parseExpr() ast.Node {
	switch p.cur().Kind {
	case token.DECIMAL:
		return p.parseNumberLiteral(ast.LiteralDecimal, 10)
	case token.HEX:
		return p.parseNumberLiteral(ast.LiteralHex, 16)
	case token.STRING:
		t := p.advance()
		lit := ast.NewLiteral(t.Pos, ast.LiteralString)
		lit.Str = t.Lexeme
		lit.Raw = t.Lexeme
		return lit
	case token.TRUE, token.FALSE:
		t := p.advance()
		lit := ast.NewLiteral(t.Pos, ast.LiteralBool)
		lit.Bool = t.Kind == token.TRUE
		lit.Raw = t.Lexeme
		return lit
	case token.IDENT, token.BUILTIN:
		start := p.cur().Pos
		name := p.advance().Lexeme
		if p.at(token.LPAREN) {
			return p.finishCall(start, name)
		}
		return ast.NewIdentifier(start, name)
	default:
		p.errorf("expected expression, got %s", p.cur().Kind)
		return nil
	}
}

func (p *parser) parseNumberLiteral(kind ast.LiteralKind, base int) ast.Node {
	t := p.advance()
	lit := ast.NewLiteral(t.Pos, kind)
	lit.Raw = t.Lexeme
	n := new(big.Int)
	text := t.Lexeme
	if base == 16 {
		text = text[2:] // strip "0x"
	}
	if _, ok := n.SetString(text, base); !ok {
		p.errorf("malformed number literal %q", t.Lexeme)
	}
	lit.Number = n
	return lit
}

func (p *parser) finishCall(start token.Position, callee string) *ast.FunctionCall {
	call := ast.NewFunctionCall(start, callee)
	p.bt.push(token.LPAREN, p.cur().Pos, "call arguments")
	if _, ok := p.expect(token.LPAREN, "call arguments"); !ok {
		p.resync()
		return call
	}
	for !p.at(token.RPAREN) && !p.at(token.EOF) {
		call.Args = append(call.Args, p.parseExpr())
		if p.at(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	if _, ok := p.expect(token.RPAREN, "call arguments"); ok {
		p.bt.pop(token.LPAREN)
	}
	return call
}

func (p *parser) parseIf() ast.Node {
	start := p.advance().Pos // 'if'
	n := ast.NewIf(start)
	n.Cond = p.parseExpr()
	n.Body = p.parseBlock("if body")
	return n
}

func (p *parser) parseSwitch() ast.Node {
	start := p.advance().Pos // 'switch'
	n := ast.NewSwitch(start)
	n.Expr = p.parseExpr()

	for p.at(token.CASE) {
		casePos := p.advance().Pos
		lit, _ := p.parseExpr().(*ast.Literal)
		if lit == nil {
			p.errorf("switch case requires a literal")
		}
		body := p.parseBlock("case body")
		n.Cases = append(n.Cases, ast.SwitchCase{Literal: lit, Body: body})
		_ = casePos
	}
	if p.at(token.DEFAULT) {
		p.advance()
		n.Default = p.parseBlock("default body")
	}
	if len(n.Cases) == 0 && n.Default == nil {
		p.errorf("switch requires at least one case or a default")
	}
	return n
}

func (p *parser) parseForLoop() ast.Node {
	start := p.advance().Pos // 'for'
	n := ast.NewForLoop(start)
	n.Init = p.parseBlock("for-init")
	n.Cond = p.parseExpr()
	n.Post = p.parseBlock("for-post")
	n.Body = p.parseBlock("for-body")
	return n
}

func (p *parser) parseFunctionDef() ast.Node {
	start := p.advance().Pos // 'function'
	nameTok := p.advance()
	fn := ast.NewFunctionDef(start, nameTok.Lexeme)

	p.bt.push(token.LPAREN, p.cur().Pos, "function parameters")
	if _, ok := p.expect(token.LPAREN, "function parameters"); ok {
		for !p.at(token.RPAREN) && !p.at(token.EOF) {
			fn.Params = append(fn.Params, p.parseIdentName())
			if p.at(token.COMMA) {
				p.advance()
				continue
			}
			break
		}
		if _, ok := p.expect(token.RPAREN, "function parameters"); ok {
			p.bt.pop(token.LPAREN)
		}
	}

	if p.at(token.ARROW) {
		p.advance()
		fn.Returns = append(fn.Returns, p.parseIdentName())
		for p.at(token.COMMA) {
			p.advance()
			fn.Returns = append(fn.Returns, p.parseIdentName())
		}
	}

	fn.Body = p.parseBlock("function body")
	return fn
}

func hexBytes(lexeme string) []byte {
	hex := lexeme[2:]
	if len(hex)%2 != 0 {
		hex = "0" + hex
	}
	out := make([]byte, len(hex)/2)
	for i := 0; i < len(out); i++ {
		out[i] = hexNibble(hex[2*i])<<4 | hexNibble(hex[2*i+1])
	}
	return out
}

func hexNibble(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	default:
		return 0
	}
}
