// Package parser is a recursive-descent parser for the ByteFlow surface
// language. It produces an *ast.Program from a token stream; it does not
// resolve identifiers or check types — that is the code generator's job,
// mirroring how the teacher's own parser stays purely syntactic.
//
// Expression grammar, precedence lowest to highest:
//
//	expr       := logicalOr
//	logicalOr  := logicalAnd ( "||" logicalAnd )*
//	logicalAnd := equality ( "&&" equality )*
//	equality   := relational ( ("=="|"!=") relational )*
//	relational := additive ( ("<"|"<="|">"|">=") additive )*
//	additive   := multiplicative ( ("+"|"-") multiplicative )*
//	multiplicative := unary ( ("*"|"/"|"%") unary )*
//	unary      := ("!"|"-") unary | postfix
//	postfix    := primary ( "[" expr "]" )*
//	primary    := INT_LIT | CHAR_LIT | STRING_LIT | "true" | "false"
//	            | IDENT [ "(" args ")" ] | "(" expr ")"
package parser

import (
	"byteflow/internal/ast"
	"byteflow/internal/diag"
	"byteflow/internal/token"
)

type Parser struct {
	tokens []token.Token
	pos    int
}

func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse consumes the whole token stream and returns a Program, or a
// diag.Diagnostic on the first syntax error (or a semantic one for a
// redeclared function).
func Parse(tokens []token.Token) (*ast.Program, error) {
	p := New(tokens)
	return p.parseProgram()
}

func (p *Parser) peek() token.Token     { return p.tokens[p.pos] }
func (p *Parser) peekKind() token.Kind  { return p.tokens[p.pos].Kind }
func (p *Parser) atEnd() bool           { return p.peekKind() == token.EOF }

func (p *Parser) advance() token.Token {
	t := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) check(k token.Kind) bool { return p.peekKind() == k }

func (p *Parser) match(k token.Kind) bool {
	if p.check(k) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(k token.Kind) (token.Token, error) {
	if p.check(k) {
		return p.advance(), nil
	}
	t := p.peek()
	return token.Token{}, diag.Syn(t.Line, t.Column, "expected %s, got %s %q", k, t.Kind, t.Lexeme)
}

func isTypeKeyword(k token.Kind) bool {
	switch k {
	case token.KW_INT, token.KW_BOOL, token.KW_CHAR, token.KW_VOID:
		return true
	default:
		return false
	}
}

func (p *Parser) parseBaseType() (ast.Type, error) {
	t := p.peek()
	var kind ast.TypeKind
	switch t.Kind {
	case token.KW_INT:
		kind = ast.Int
	case token.KW_BOOL:
		kind = ast.Bool
	case token.KW_CHAR:
		kind = ast.Char
	case token.KW_VOID:
		kind = ast.Void
	default:
		return ast.Type{}, diag.Syn(t.Line, t.Column, "expected a type, got %q", t.Lexeme)
	}
	p.advance()
	return ast.Type{Kind: kind}, nil
}

func (p *Parser) parseProgram() (*ast.Program, error) {
	prog := &ast.Program{FuncByName: make(map[string]*ast.Function)}
	for !p.atEnd() {
		if !isTypeKeyword(p.peekKind()) {
			t := p.peek()
			return nil, diag.Syn(t.Line, t.Column, "expected a declaration, got %q", t.Lexeme)
		}
		baseType, err := p.parseBaseType()
		if err != nil {
			return nil, err
		}
		nameTok, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		if p.check(token.LPAREN) {
			fn, err := p.parseFunctionRest(baseType, nameTok)
			if err != nil {
				return nil, err
			}
			if _, dup := prog.FuncByName[fn.Name]; dup {
				return nil, diag.Sem(nameTok.Line, nameTok.Column, "function %q redeclared", fn.Name)
			}
			prog.FuncByName[fn.Name] = fn
			prog.Functions = append(prog.Functions, fn)
			continue
		}
		decl, err := p.parseGlobalRest(baseType, nameTok)
		if err != nil {
			return nil, err
		}
		prog.Globals = append(prog.Globals, decl)
	}
	return prog, nil
}

func (p *Parser) parseFunctionRest(retType ast.Type, name token.Token) (*ast.Function, error) {
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	var params []ast.Param
	for !p.check(token.RPAREN) {
		if len(params) > 0 {
			if _, err := p.expect(token.COMMA); err != nil {
				return nil, err
			}
		}
		pt, err := p.parseBaseType()
		if err != nil {
			return nil, err
		}
		pn, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		params = append(params, ast.Param{Name: pn.Lexeme, Type: pt})
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.Function{Name: name.Lexeme, Params: params, ReturnType: retType, Body: body, Tok: name}, nil
}

func (p *Parser) parseGlobalRest(baseType ast.Type, name token.Token) (ast.Decl, error) {
	if p.check(token.LBRACKET) {
		dims, err := p.parseArrayDims()
		if err != nil {
			return nil, err
		}
		arrType := buildArrayType(baseType, dims)
		var elems []ast.Expr
		if p.match(token.ASSIGN) {
			elems, err = p.parseArrayInitList(dims)
			if err != nil {
				return nil, err
			}
		}
		if _, err := p.expect(token.SEMICOLON); err != nil {
			return nil, err
		}
		return &ast.GlobalArray{Name: name.Lexeme, Type: arrType, Init: elems, Tok: name}, nil
	}

	var init ast.Expr
	if p.match(token.ASSIGN) {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		init = e
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}
	return &ast.GlobalVar{Name: name.Lexeme, Type: baseType, Init: init, Tok: name}, nil
}

// parseArrayDims parses one or more consecutive "[N]" dimension groups,
// outermost dimension first (the leftmost bracket), per spec.md §3's
// "multi-dimensional arrays flatten row-major" contract.
func (p *Parser) parseArrayDims() ([]int, error) {
	var dims []int
	for p.match(token.LBRACKET) {
		sizeTok, err := p.expect(token.INT_LIT)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RBRACKET); err != nil {
			return nil, err
		}
		dims = append(dims, atoiMust(sizeTok.Lexeme))
	}
	return dims, nil
}

// buildArrayType nests elem inside an ast.Type for each dimension in dims
// (outermost first), e.g. dims [2,3] over int builds int[2][3] as
// Array(2, Array(3, int)).
func buildArrayType(elem ast.Type, dims []int) ast.Type {
	t := elem
	for i := len(dims) - 1; i >= 0; i-- {
		inner := t
		t = ast.Type{Kind: ast.Array, Elem: &inner, Len: dims[i]}
	}
	return t
}

// parseArrayInitList parses a brace initializer list for an array of the
// given dimensions and flattens it into a single row-major element slice.
// For a single dimension this is the familiar `{e0, e1, ...}`; for more
// than one dimension each element is itself a nested `{...}` group over
// the remaining dimensions (e.g. `{{1,2},{3,4}}` for an int[2][2]).
func (p *Parser) parseArrayInitList(dims []int) ([]ast.Expr, error) {
	if _, err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	var elems []ast.Expr
	for !p.check(token.RBRACE) {
		if len(elems) > 0 {
			if _, err := p.expect(token.COMMA); err != nil {
				return nil, err
			}
		}
		if len(dims) > 1 {
			sub, err := p.parseArrayInitList(dims[1:])
			if err != nil {
				return nil, err
			}
			elems = append(elems, sub...)
		} else {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
		}
	}
	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	return elems, nil
}

func atoiMust(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}

//  Statements

func (p *Parser) parseBlock() (*ast.Block, error) {
	if _, err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	var stmts []ast.Stmt
	for !p.check(token.RBRACE) {
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	return &ast.Block{Stmts: stmts}, nil
}

func (p *Parser) parseStmt() (ast.Stmt, error) {
	switch p.peekKind() {
	case token.LBRACE:
		return p.parseBlock()
	case token.KW_INT, token.KW_BOOL, token.KW_CHAR, token.KW_VOID:
		return p.parseVarDeclStmt()
	case token.KW_IF:
		return p.parseIf()
	case token.KW_WHILE:
		return p.parseWhile()
	case token.KW_FOR:
		return p.parseFor()
	case token.KW_SWITCH:
		return p.parseSwitch()
	case token.KW_BREAK:
		t := p.advance()
		if _, err := p.expect(token.SEMICOLON); err != nil {
			return nil, err
		}
		return &ast.Break{Tok: t}, nil
	case token.KW_RETURN:
		t := p.advance()
		var val ast.Expr
		if !p.check(token.SEMICOLON) {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			val = e
		}
		if _, err := p.expect(token.SEMICOLON); err != nil {
			return nil, err
		}
		return &ast.Return{Value: val, Tok: t}, nil
	default:
		return p.parseSimpleStmt(true)
	}
}

// parseSimpleStmt parses an assignment or a bare call, optionally consuming
// the trailing semicolon (callers inside a `for` header pass requireSemi=false).
func (p *Parser) parseSimpleStmt(requireSemi bool) (ast.Stmt, error) {
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	var stmt ast.Stmt
	if p.match(token.ASSIGN) {
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		stmt = &ast.Assign{Target: e, Value: val, Tok: e.Pos()}
	} else if call, ok := e.(*ast.CallExpr); ok {
		stmt = &ast.Call{Call: call}
	} else {
		t := e.Pos()
		return nil, diag.Syn(t.Line, t.Column, "expression statement must be an assignment or a call")
	}
	if requireSemi {
		if _, err := p.expect(token.SEMICOLON); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

// parseVarDeclStmt parses a local declaration statement, including its
// trailing semicolon. parseVarDeclRest itself does not consume that
// semicolon, since parseFor also drives it directly and needs to consume
// the for-header's own separating semicolon instead.
func (p *Parser) parseVarDeclStmt() (ast.Stmt, error) {
	baseType, err := p.parseBaseType()
	if err != nil {
		return nil, err
	}
	decl, err := p.parseVarDeclRest(baseType)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}
	return decl, nil
}

func (p *Parser) parseVarDeclRest(baseType ast.Type) (ast.Stmt, error) {
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	if p.check(token.LBRACKET) {
		dims, err := p.parseArrayDims()
		if err != nil {
			return nil, err
		}
		declType := buildArrayType(baseType, dims)
		var arrayInit []ast.Expr
		if p.match(token.ASSIGN) {
			arrayInit, err = p.parseArrayInitList(dims)
			if err != nil {
				return nil, err
			}
		}
		return &ast.VarDecl{Name: name.Lexeme, Type: declType, ArrayInit: arrayInit, Tok: name}, nil
	}
	var init ast.Expr
	if p.match(token.ASSIGN) {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		init = e
	}
	return &ast.VarDecl{Name: name.Lexeme, Type: baseType, Init: init, Tok: name}, nil
}

func (p *Parser) parseIf() (ast.Stmt, error) {
	p.advance() // if
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	then, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	var elseStmt ast.Stmt
	if p.match(token.KW_ELSE) {
		elseStmt, err = p.parseStmt()
		if err != nil {
			return nil, err
		}
	}
	return &ast.If{Cond: cond, Then: then, Else: elseStmt}, nil
}

func (p *Parser) parseWhile() (ast.Stmt, error) {
	p.advance() // while
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	body, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	return &ast.While{Cond: cond, Body: body}, nil
}

func (p *Parser) parseFor() (ast.Stmt, error) {
	p.advance() // for
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	var init ast.Stmt
	if !p.check(token.SEMICOLON) {
		var err error
		if isTypeKeyword(p.peekKind()) {
			bt, err := p.parseBaseType()
			if err != nil {
				return nil, err
			}
			init, err = p.parseVarDeclRest(bt)
			if err != nil {
				return nil, err
			}
		} else {
			init, err = p.parseSimpleStmt(false)
			if err != nil {
				return nil, err
			}
		}
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}
	var cond ast.Expr
	if !p.check(token.SEMICOLON) {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		cond = e
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}
	var step ast.Stmt
	if !p.check(token.RPAREN) {
		s, err := p.parseSimpleStmt(false)
		if err != nil {
			return nil, err
		}
		step = s
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	body, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	return &ast.For{Init: init, Cond: cond, Step: step, Body: body}, nil
}

func (p *Parser) parseSwitch() (ast.Stmt, error) {
	p.advance() // switch
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	target, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	sw := &ast.Switch{Target: target}
	for !p.check(token.RBRACE) {
		if p.match(token.KW_CASE) {
			val, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.COLON); err != nil {
				return nil, err
			}
			body, err := p.parseCaseBody()
			if err != nil {
				return nil, err
			}
			sw.Cases = append(sw.Cases, ast.CaseClause{Value: val, Body: body})
		} else if p.match(token.KW_DEFAULT) {
			if _, err := p.expect(token.COLON); err != nil {
				return nil, err
			}
			body, err := p.parseCaseBody()
			if err != nil {
				return nil, err
			}
			sw.Default = body
		} else {
			t := p.peek()
			return nil, diag.Syn(t.Line, t.Column, "expected case, default, or }, got %q", t.Lexeme)
		}
	}
	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	return sw, nil
}

func (p *Parser) parseCaseBody() ([]ast.Stmt, error) {
	var stmts []ast.Stmt
	for !p.check(token.KW_CASE) && !p.check(token.KW_DEFAULT) && !p.check(token.RBRACE) {
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	return stmts, nil
}

//  Expressions

func (p *Parser) parseExpr() (ast.Expr, error) { return p.parseLogicalOr() }

func (p *Parser) parseLogicalOr() (ast.Expr, error) {
	left, err := p.parseLogicalAnd()
	if err != nil {
		return nil, err
	}
	for p.check(token.OR_OR) {
		t := p.advance()
		right, err := p.parseLogicalAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Op: t.Kind, Left: left, Right: right, Tok: t}
	}
	return left, nil
}

func (p *Parser) parseLogicalAnd() (ast.Expr, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.check(token.AND_AND) {
		t := p.advance()
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Op: t.Kind, Left: left, Right: right, Tok: t}
	}
	return left, nil
}

func (p *Parser) parseEquality() (ast.Expr, error) {
	left, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for p.check(token.EQ) || p.check(token.NOT_EQ) {
		t := p.advance()
		right, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Op: t.Kind, Left: left, Right: right, Tok: t}
	}
	return left, nil
}

func (p *Parser) parseRelational() (ast.Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.check(token.LESS) || p.check(token.LESS_EQ) || p.check(token.GREATER) || p.check(token.GREATER_EQ) {
		t := p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Op: t.Kind, Left: left, Right: right, Tok: t}
	}
	return left, nil
}

func (p *Parser) parseAdditive() (ast.Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.check(token.PLUS) || p.check(token.MINUS) {
		t := p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Op: t.Kind, Left: left, Right: right, Tok: t}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.check(token.STAR) || p.check(token.SLASH) || p.check(token.PERCENT) {
		t := p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Op: t.Kind, Left: left, Right: right, Tok: t}
	}
	return left, nil
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	if p.check(token.NOT) || p.check(token.MINUS) {
		t := p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Op: t.Kind, Operand: operand, Tok: t}, nil
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (ast.Expr, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.check(token.LBRACKET) {
		t := p.advance()
		idx, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RBRACKET); err != nil {
			return nil, err
		}
		e = &ast.Index{Base: e, Idx: idx, Tok: t}
	}
	return e, nil
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	t := p.peek()
	switch t.Kind {
	case token.INT_LIT:
		p.advance()
		return &ast.IntLit{Value: atoiMust(t.Lexeme), Tok: t}, nil
	case token.CHAR_LIT:
		p.advance()
		return &ast.CharLit{Value: atoiMust(t.Lexeme), Tok: t}, nil
	case token.STRING_LIT:
		p.advance()
		return &ast.StringLit{Value: t.Lexeme, Tok: t}, nil
	case token.KW_TRUE:
		p.advance()
		return &ast.BoolLit{Value: true, Tok: t}, nil
	case token.KW_FALSE:
		p.advance()
		return &ast.BoolLit{Value: false, Tok: t}, nil
	case token.LPAREN:
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return e, nil
	case token.IDENT:
		p.advance()
		if p.check(token.LPAREN) {
			p.advance()
			var args []ast.Expr
			for !p.check(token.RPAREN) {
				if len(args) > 0 {
					if _, err := p.expect(token.COMMA); err != nil {
						return nil, err
					}
				}
				a, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				args = append(args, a)
			}
			if _, err := p.expect(token.RPAREN); err != nil {
				return nil, err
			}
			return &ast.CallExpr{Name: t.Lexeme, Args: args, Tok: t}, nil
		}
		return &ast.Ident{Name: t.Lexeme, Tok: t}, nil
	default:
		return nil, diag.Syn(t.Line, t.Column, "unexpected token %q", t.Lexeme)
	}
}
