package tiny

// Parser is a recursive-descent parser with a Pratt-style precedence
// climb for binary expressions (spec.md §4.4). It declares symbols
// eagerly as it parses: `:=`/`:`-declarations create a local inside a
// function body or a global at the top level, cooperating directly
// with the SymbolTable the way spec.md describes.
//
// Grounded on the teacher's parser.go/grammar_parser.go (recursive
// descent over a pre-scanned token stream with explicit precedence
// tables), adapted from PEG-grammar parsing to Tiny's own statement
// and expression grammar.
type Parser struct {
	tokens []Token
	idx    int
	fileID int

	sym *SymbolTable

	foreignTypes map[string]bool
	inFunction   bool
}

func NewParser(fileID int, source string, st *SymbolTable, foreignTypes map[string]bool) (*Parser, error) {
	lx := NewLexer(fileID, source)
	var tokens []Token
	for {
		tok, err := lx.Next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == TkEOF {
			break
		}
	}
	return &Parser{
		tokens:       tokens,
		fileID:       fileID,
		sym:          st,
		foreignTypes: foreignTypes,
	}, nil
}

func (p *Parser) cur() Token { return p.tokens[p.idx] }

func (p *Parser) peek(n int) Token {
	i := p.idx + n
	if i >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[i]
}

func (p *Parser) advance() Token {
	tok := p.tokens[p.idx]
	if p.idx < len(p.tokens)-1 {
		p.idx++
	}
	return tok
}

func (p *Parser) expect(kind TokenKind) (Token, error) {
	if p.cur().Kind != kind {
		return Token{}, newCompileError("parse", p.cur().Pos, "expected `%s`, got `%s`", tokenKindName(kind), p.cur())
	}
	return p.advance(), nil
}

var assignOps = map[TokenKind]bool{
	TkAssign: true, TkPlusAssign: true, TkMinusAssign: true,
	TkStarAssign: true, TkSlashAssign: true, TkPercentAssign: true,
	TkAmpAssign: true, TkPipeAssign: true,
}

var binPrec = map[TokenKind]int{
	TkOrOr: 2, TkAndAnd: 2,
	TkEq: 3, TkNeq: 3, TkLt: 3, TkLe: 3, TkGt: 3, TkGe: 3,
	TkPlus: 4, TkMinus: 4,
	TkStar: 5, TkSlash: 5, TkPercent: 5, TkAmp: 5, TkPipe: 5,
}

const minExprPrec = 2

// ParseProgram parses an entire compilation unit: a sequence of
// top-level function definitions, struct definitions, and executable
// statements (spec.md §4.4).
func (p *Parser) ParseProgram() (*Program, error) {
	prog := &Program{}
	for p.cur().Kind != TkEOF {
		switch p.cur().Kind {
		case TkFunc:
			fn, err := p.parseFuncDef()
			if err != nil {
				return nil, err
			}
			prog.Funcs = append(prog.Funcs, fn)
		case TkStruct:
			sd, err := p.parseStructDef()
			if err != nil {
				return nil, err
			}
			prog.Structs = append(prog.Structs, sd)
		default:
			stmt, err := p.parseStatement()
			if err != nil {
				return nil, err
			}
			prog.Stmts = append(prog.Stmts, stmt)
		}
	}
	return prog, nil
}

func (p *Parser) parseType() (*Type, error) {
	tok := p.cur()
	if t, ok := primitiveTypeTokens[tok.Kind]; ok {
		p.advance()
		return t, nil
	}
	if tok.Kind != TkIdent {
		return nil, newCompileError("parse", tok.Pos, "expected a type, got `%s`", tok)
	}
	p.advance()
	if p.foreignTypes[tok.Lexeme] {
		return ForeignType(tok.Lexeme), nil
	}
	sym := p.sym.DeclareStruct(tok.Lexeme, tok.Pos)
	return sym.Type, nil
}

// ---- top-level definitions ----

func (p *Parser) parseFuncDef() (*FuncDef, error) {
	start := p.cur()
	if p.inFunction {
		return nil, newCompileError("parse", start.Pos, "function definitions are not allowed inside other functions")
	}
	if _, err := p.expect(TkFunc); err != nil {
		return nil, err
	}
	nameTok, err := p.expect(TkIdent)
	if err != nil {
		return nil, err
	}
	fnSym, err := p.sym.DeclareFunction(nameTok.Lexeme, nameTok.Pos)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TkLParen); err != nil {
		return nil, err
	}
	var params []Param
	for p.cur().Kind != TkRParen {
		pTok, err := p.expect(TkIdent)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TkColon); err != nil {
			return nil, err
		}
		typ, err := p.parseType()
		if err != nil {
			return nil, err
		}
		params = append(params, Param{Name: pTok.Lexeme, Type: typ, Pos: pTok.Pos})
		if p.cur().Kind == TkComma {
			p.advance()
		} else {
			break
		}
	}
	if _, err := p.expect(TkRParen); err != nil {
		return nil, err
	}
	retType := VoidType
	if p.cur().Kind == TkColon {
		p.advance()
		retType, err = p.parseType()
		if err != nil {
			return nil, err
		}
	}
	fnSym.ReturnType = retType

	p.sym.EnterFunction(fnSym)
	p.inFunction = true
	p.sym.OpenScope()
	for i, prm := range params {
		if _, err := p.sym.DeclareArgument(prm.Name, prm.Type, i, len(params), prm.Pos); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(TkLBrace); err != nil {
		return nil, err
	}
	var stmts []Node
	for p.cur().Kind != TkRBrace && p.cur().Kind != TkEOF {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	if _, err := p.expect(TkRBrace); err != nil {
		return nil, err
	}
	p.sym.CloseScope()
	p.sym.LeaveFunction()
	p.inFunction = false

	body := &BlockStmt{base: mkbase(start.Pos, start.Line), Stmts: stmts}
	return &FuncDef{
		base:       mkbase(start.Pos, start.Line),
		Name:       nameTok.Lexeme,
		Params:     params,
		ReturnType: retType,
		Body:       body,
		Sym:        fnSym,
	}, nil
}

func (p *Parser) parseStructDef() (*StructDef, error) {
	start := p.cur()
	if p.inFunction {
		return nil, newCompileError("parse", start.Pos, "struct definitions are not allowed inside functions")
	}
	if _, err := p.expect(TkStruct); err != nil {
		return nil, err
	}
	nameTok, err := p.expect(TkIdent)
	if err != nil {
		return nil, err
	}
	sym := p.sym.DeclareStruct(nameTok.Lexeme, nameTok.Pos)
	if _, err := p.expect(TkLBrace); err != nil {
		return nil, err
	}
	var fields []FieldDecl
	var fieldSyms []*Symbol
	for p.cur().Kind != TkRBrace && p.cur().Kind != TkEOF {
		fTok, err := p.expect(TkIdent)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TkColon); err != nil {
			return nil, err
		}
		typ, err := p.parseType()
		if err != nil {
			return nil, err
		}
		fields = append(fields, FieldDecl{Name: fTok.Lexeme, Type: typ, Pos: fTok.Pos})
		fieldSyms = append(fieldSyms, &Symbol{Name: fTok.Lexeme, Kind: SymField, Type: typ, Pos: fTok.Pos})
		if p.cur().Kind == TkComma {
			p.advance()
		}
	}
	if _, err := p.expect(TkRBrace); err != nil {
		return nil, err
	}
	if err := p.sym.FinalizeStruct(sym, fieldSyms); err != nil {
		return nil, err
	}
	return &StructDef{base: mkbase(start.Pos, start.Line), Name: nameTok.Lexeme, Fields: fields, Sym: sym}, nil
}

// ---- statements ----

func (p *Parser) parseBlock() (*BlockStmt, error) {
	start := p.cur()
	if _, err := p.expect(TkLBrace); err != nil {
		return nil, err
	}
	p.sym.OpenScope()
	var stmts []Node
	for p.cur().Kind != TkRBrace && p.cur().Kind != TkEOF {
		stmt, err := p.parseStatement()
		if err != nil {
			p.sym.CloseScope()
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	p.sym.CloseScope()
	if _, err := p.expect(TkRBrace); err != nil {
		return nil, err
	}
	return &BlockStmt{base: mkbase(start.Pos, start.Line), Stmts: stmts}, nil
}

// parseBodyStmt parses either a brace-delimited block or a single
// statement, matching spec.md §8's examples (`if n <= 1 return 1`
// with no braces).
func (p *Parser) parseBodyStmt() (Node, error) {
	if p.cur().Kind == TkLBrace {
		return p.parseBlock()
	}
	return p.parseStatement()
}

func (p *Parser) parseStatement() (Node, error) {
	switch p.cur().Kind {
	case TkLBrace:
		return p.parseBlock()
	case TkIf:
		return p.parseIf()
	case TkWhile:
		return p.parseWhile()
	case TkFor:
		return p.parseFor()
	case TkReturn:
		return p.parseReturn()
	case TkBreak:
		tok := p.advance()
		return &BreakStmt{base: mkbase(tok.Pos, tok.Line)}, nil
	case TkContinue:
		tok := p.advance()
		return &ContinueStmt{base: mkbase(tok.Pos, tok.Line)}, nil
	case TkFunc:
		return nil, newCompileError("parse", p.cur().Pos, "function definitions are not allowed inside other functions")
	case TkStruct:
		return nil, newCompileError("parse", p.cur().Pos, "struct definitions are not allowed inside functions")
	case TkIdent:
		return p.parseIdentStatement()
	default:
		return p.parseExprStatement()
	}
}

func (p *Parser) parseIdentStatement() (Node, error) {
	nameTok := p.cur()
	switch p.peek(1).Kind {
	case TkDeclare:
		p.advance()
		p.advance()
		value, err := p.parseExpr(minExprPrec)
		if err != nil {
			return nil, err
		}
		var sym *Symbol
		if p.inFunction {
			sym, err = p.sym.DeclareLocal(nameTok.Lexeme, nil, nameTok.Pos)
		} else {
			sym, err = p.sym.DeclareGlobal(nameTok.Lexeme, nil, nameTok.Pos)
		}
		if err != nil {
			return nil, err
		}
		return &DeclareStmt{base: mkbase(nameTok.Pos, nameTok.Line), Name: nameTok.Lexeme, Value: value, Sym: sym}, nil

	case TkColon:
		p.advance()
		p.advance()
		typ, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TkAssign); err != nil {
			return nil, err
		}
		value, err := p.parseExpr(minExprPrec)
		if err != nil {
			return nil, err
		}
		var sym *Symbol
		if p.inFunction {
			sym, err = p.sym.DeclareLocal(nameTok.Lexeme, typ, nameTok.Pos)
		} else {
			sym, err = p.sym.DeclareGlobal(nameTok.Lexeme, typ, nameTok.Pos)
		}
		if err != nil {
			return nil, err
		}
		return &DeclareStmt{base: mkbase(nameTok.Pos, nameTok.Line), Name: nameTok.Lexeme, Annotated: typ, Value: value, Sym: sym}, nil

	case TkConstBind:
		p.advance()
		p.advance()
		lit, err := p.parseConstLiteral()
		if err != nil {
			return nil, err
		}
		typ := literalType(lit)
		sym, err := p.sym.DeclareConstant(nameTok.Lexeme, typ, nameTok.Pos)
		if err != nil {
			return nil, err
		}
		assignConstValue(sym, lit)
		return &ConstDeclStmt{base: mkbase(nameTok.Pos, nameTok.Line), Name: nameTok.Lexeme, Literal: lit, Sym: sym}, nil

	default:
		return p.parseExprStatement()
	}
}

func (p *Parser) parseExprStatement() (Node, error) {
	start := p.cur()
	expr, err := p.parseExpr(minExprPrec)
	if err != nil {
		return nil, err
	}
	if assignOps[p.cur().Kind] {
		op := p.advance()
		switch expr.(type) {
		case *IdentExpr, *DotExpr:
		default:
			return nil, newCompileError("parse", start.Pos, "left-hand side of assignment must be a variable or field")
		}
		value, err := p.parseExpr(minExprPrec)
		if err != nil {
			return nil, err
		}
		return &AssignStmt{base: mkbase(start.Pos, start.Line), Target: expr, Op: op.Kind, Value: value}, nil
	}
	if _, ok := expr.(*CallExpr); !ok {
		return nil, newCompileError("parse", start.Pos, "expression result is unused")
	}
	return expr, nil
}

func (p *Parser) parseIf() (Node, error) {
	start := p.advance() // 'if'
	cond, err := p.parseExpr(minExprPrec)
	if err != nil {
		return nil, err
	}
	then, err := p.parseBodyStmt()
	if err != nil {
		return nil, err
	}
	var elseNode Node
	if p.cur().Kind == TkElse {
		p.advance()
		if p.cur().Kind == TkIf {
			elseNode, err = p.parseIf()
		} else {
			elseNode, err = p.parseBodyStmt()
		}
		if err != nil {
			return nil, err
		}
	}
	return &IfStmt{base: mkbase(start.Pos, start.Line), Cond: cond, Then: then, Else: elseNode}, nil
}

func (p *Parser) parseWhile() (Node, error) {
	start := p.advance() // 'while'
	cond, err := p.parseExpr(minExprPrec)
	if err != nil {
		return nil, err
	}
	body, err := p.parseBodyStmt()
	if err != nil {
		return nil, err
	}
	return &WhileStmt{base: mkbase(start.Pos, start.Line), Cond: cond, Body: body}, nil
}

func (p *Parser) parseFor() (Node, error) {
	start := p.advance() // 'for'
	if _, err := p.expect(TkLParen); err != nil {
		return nil, err
	}
	var init, cond, step Node
	var err error
	if p.cur().Kind != TkSemi {
		init, err = p.parseStatement()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(TkSemi); err != nil {
		return nil, err
	}
	if p.cur().Kind != TkSemi {
		cond, err = p.parseExpr(minExprPrec)
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(TkSemi); err != nil {
		return nil, err
	}
	if p.cur().Kind != TkRParen {
		step, err = p.parseStatement()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(TkRParen); err != nil {
		return nil, err
	}
	body, err := p.parseBodyStmt()
	if err != nil {
		return nil, err
	}
	return &ForStmt{base: mkbase(start.Pos, start.Line), Init: init, Cond: cond, Step: step, Body: body}, nil
}

func (p *Parser) parseReturn() (Node, error) {
	start := p.advance() // 'return'
	if p.endsStatement() {
		return &ReturnStmt{base: mkbase(start.Pos, start.Line)}, nil
	}
	value, err := p.parseExpr(minExprPrec)
	if err != nil {
		return nil, err
	}
	return &ReturnStmt{base: mkbase(start.Pos, start.Line), Value: value}, nil
}

// endsStatement reports whether the current token cannot start an
// expression, used to detect a bare `return` with no trailing value.
func (p *Parser) endsStatement() bool {
	switch p.cur().Kind {
	case TkRBrace, TkEOF, TkIf, TkWhile, TkFor, TkReturn, TkBreak, TkContinue:
		return true
	default:
		return false
	}
}

// ---- expressions ----

func (p *Parser) parseExpr(minPrec int) (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		opTok := p.cur()
		prec, ok := binPrec[opTok.Kind]
		if !ok || prec < minPrec {
			break
		}
		p.advance()
		right, err := p.parseExpr(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{base: mkbase(opTok.Pos, opTok.Line), Op: opTok.Kind, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseUnary() (Node, error) {
	if p.cur().Kind == TkMinus || p.cur().Kind == TkBang {
		op := p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{base: mkbase(op.Pos, op.Line), Op: op.Kind, Operand: operand}, nil
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (Node, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.cur().Kind == TkDot {
		dot := p.advance()
		fTok, err := p.expect(TkIdent)
		if err != nil {
			return nil, err
		}
		expr = &DotExpr{base: mkbase(dot.Pos, dot.Line), Receiver: expr, Field: fTok.Lexeme}
	}
	return expr, nil
}

func (p *Parser) parsePrimary() (Node, error) {
	tok := p.cur()
	switch tok.Kind {
	case TkNull:
		p.advance()
		return &NullLit{base: mkbase(tok.Pos, tok.Line)}, nil
	case TkBool:
		p.advance()
		return &BoolLit{base: mkbase(tok.Pos, tok.Line), Value: tok.BoolVal}, nil
	case TkInt:
		p.advance()
		return &IntLit{base: mkbase(tok.Pos, tok.Line), Value: tok.IntVal}, nil
	case TkFloat:
		p.advance()
		return &FloatLit{base: mkbase(tok.Pos, tok.Line), Value: tok.FloatVal}, nil
	case TkChar:
		p.advance()
		return &CharLit{base: mkbase(tok.Pos, tok.Line), Value: tok.CharVal}, nil
	case TkString:
		p.advance()
		return &StringLit{base: mkbase(tok.Pos, tok.Line), Value: tok.StringVal}, nil
	case TkLParen:
		p.advance()
		inner, err := p.parseExpr(minExprPrec)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TkRParen); err != nil {
			return nil, err
		}
		return &ParenExpr{base: mkbase(tok.Pos, tok.Line), Inner: inner}, nil
	case TkNew:
		return p.parseNewExpr()
	case TkCast:
		return p.parseCastExpr()
	case TkIdent:
		return p.parseIdentOrCall()
	default:
		return nil, newCompileError("parse", tok.Pos, "unexpected token `%s`", tok)
	}
}

func (p *Parser) parseIdentOrCall() (Node, error) {
	tok := p.advance()
	if p.cur().Kind == TkLParen {
		p.advance()
		var args []Node
		for p.cur().Kind != TkRParen {
			arg, err := p.parseExpr(minExprPrec)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.cur().Kind == TkComma {
				p.advance()
			} else {
				break
			}
		}
		if _, err := p.expect(TkRParen); err != nil {
			return nil, err
		}
		sym, _ := p.sym.ReferenceFunction(tok.Lexeme)
		return &CallExpr{base: mkbase(tok.Pos, tok.Line), Callee: tok.Lexeme, Sym: sym, Args: args}, nil
	}
	sym, _ := p.sym.ReferenceVariable(tok.Lexeme)
	return &IdentExpr{base: mkbase(tok.Pos, tok.Line), Name: tok.Lexeme, Sym: sym}, nil
}

func (p *Parser) parseNewExpr() (Node, error) {
	start := p.advance() // 'new'
	nameTok, err := p.expect(TkIdent)
	if err != nil {
		return nil, err
	}
	sym := p.sym.DeclareStruct(nameTok.Lexeme, nameTok.Pos)
	if _, err := p.expect(TkLBrace); err != nil {
		return nil, err
	}
	var args []Node
	for p.cur().Kind != TkRBrace {
		arg, err := p.parseExpr(minExprPrec)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.cur().Kind == TkComma {
			p.advance()
		} else {
			break
		}
	}
	if _, err := p.expect(TkRBrace); err != nil {
		return nil, err
	}
	return &NewExpr{base: mkbase(start.Pos, start.Line), StructName: nameTok.Lexeme, StructSym: sym, Args: args}, nil
}

func (p *Parser) parseCastExpr() (Node, error) {
	start := p.advance() // 'cast'
	if _, err := p.expect(TkLParen); err != nil {
		return nil, err
	}
	value, err := p.parseExpr(minExprPrec)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TkComma); err != nil {
		return nil, err
	}
	target, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TkRParen); err != nil {
		return nil, err
	}
	return &CastExpr{base: mkbase(start.Pos, start.Line), Value: value, Target: target}, nil
}

// parseConstLiteral parses the right-hand side of `name :: literal`:
// it must be a literal of a primitive type, optionally negated for
// numeric literals (spec.md §4.4).
func (p *Parser) parseConstLiteral() (Node, error) {
	neg := false
	if p.cur().Kind == TkMinus {
		p.advance()
		neg = true
	}
	tok := p.cur()
	switch tok.Kind {
	case TkBool:
		if neg {
			return nil, newCompileError("parse", tok.Pos, "cannot negate a bool constant")
		}
		p.advance()
		return &BoolLit{base: mkbase(tok.Pos, tok.Line), Value: tok.BoolVal}, nil
	case TkInt:
		p.advance()
		v := tok.IntVal
		if neg {
			v = -v
		}
		return &IntLit{base: mkbase(tok.Pos, tok.Line), Value: v}, nil
	case TkFloat:
		p.advance()
		v := tok.FloatVal
		if neg {
			v = -v
		}
		return &FloatLit{base: mkbase(tok.Pos, tok.Line), Value: v}, nil
	case TkString:
		if neg {
			return nil, newCompileError("parse", tok.Pos, "cannot negate a string constant")
		}
		p.advance()
		return &StringLit{base: mkbase(tok.Pos, tok.Line), Value: tok.StringVal}, nil
	default:
		return nil, newCompileError("parse", tok.Pos, "constant right-hand side must be a literal")
	}
}

func literalType(n Node) *Type {
	switch n.(type) {
	case *BoolLit:
		return BoolType
	case *IntLit:
		return IntType
	case *FloatLit:
		return FloatType
	case *StringLit:
		return StringType
	default:
		return AnyType
	}
}

func assignConstValue(sym *Symbol, lit Node) {
	switch n := lit.(type) {
	case *BoolLit:
		sym.ConstBool = n.Value
	case *IntLit:
		sym.ConstInt = n.Value
	case *FloatLit:
		sym.ConstFloat = n.Value
	case *StringLit:
		sym.ConstStr = n.Value
	}
}
