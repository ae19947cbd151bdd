package compiler

import (
	"fmt"
	"strings"

	"gocc/pkg/arena"
	"gocc/pkg/diagnostic"
)

// Parser consumes the flat token slice produced by Lex and builds an AST
// in the supplied arena. It is recursive-descent with one-token
// lookahead for LL(1) productions and precedence climbing for binary
// expressions.
//
// Grammar:
//
//	program    = stmt* EOF
//	stmt       = exitStmt | defStmt | scope | ifStmt
//	exitStmt   = "exit" "(" expr ")" ";"
//	defStmt    = "def" IDENT "=" expr ";"
//	scope      = "{" stmt* "}"
//	ifStmt     = "if" "(" expr ")" scope ifPred?
//	ifPred     = "elif" "(" expr ")" scope ifPred? | "else" scope
//	expr       = term (binOp expr)*   -- precedence climbing, left-associative
//	term       = INT_LIT | IDENT | "(" expr ")"
//	binOp      = "+" | "-" | "*" | "/"
type Parser struct {
	tokens      []Token
	pos         int
	arena       *arena.Arena
	sourceLines []string
}

// NewParser constructs a Parser over tokens, allocating AST nodes from a.
// rawSource is used only to render line snippets in diagnostics.
func NewParser(tokens []Token, a *arena.Arena, rawSource string) *Parser {
	return &Parser{tokens: tokens, arena: a, sourceLines: strings.Split(rawSource, "\n")}
}

// Parse tokenizes nothing further and parses tokens into a Program.
func Parse(tokens []Token, a *arena.Arena, rawSource string) (*Program, error) {
	return NewParser(tokens, a, rawSource).ParseProgram()
}

// fmtError wraps a diagnostic message with the source line the given
// token appears on.
func (p *Parser) fmtError(tok Token, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	lineIdx := tok.Line - 1

	snippet := ""
	if lineIdx >= 0 && lineIdx < len(p.sourceLines) {
		snippet = strings.TrimSpace(p.sourceLines[lineIdx])
	}

	return &diagnostic.ParseError{Line: tok.Line, Snippet: snippet, Message: msg}
}

// peek returns the current token and whether one exists. The `>=`
// bound check below is load-bearing: a strict `>` admits an off-by-one
// read past the last token.
func (p *Parser) peek() (Token, bool) {
	return p.peekAt(0)
}

// peekAt returns the token `offset` positions ahead of the current one.
func (p *Parser) peekAt(offset int) (Token, bool) {
	i := p.pos + offset
	if i >= len(p.tokens) {
		return Token{}, false
	}
	return p.tokens[i], true
}

// advance consumes and returns the current token. Calling advance past
// the end of input is a programming error in this parser — every call
// site first confirms a token is present via peek/expect.
func (p *Parser) advance() Token {
	tok := p.tokens[p.pos]
	p.pos++
	return tok
}

// expect consumes the current token if its kind matches, else returns a
// ParseError naming the expected kind.
func (p *Parser) expect(kind TokenKind) (Token, error) {
	tok, ok := p.peek()
	if !ok {
		return Token{}, p.fmtError(p.lastOrZero(), "expected %s, got end of input", kind)
	}
	if tok.Kind != kind {
		return Token{}, p.fmtError(tok, "expected %s, got %s", kind, tok.Kind)
	}
	return p.advance(), nil
}

// lastOrZero returns the final token (for diagnostics anchored at
// end-of-input) or a zero Token on an empty program.
func (p *Parser) lastOrZero() Token {
	if len(p.tokens) == 0 {
		return Token{Line: 1}
	}
	return p.tokens[len(p.tokens)-1]
}

func (p *Parser) allocExpr() (*Expr, error)     { return arena.Alloc[Expr](p.arena) }
func (p *Parser) allocTerm() (*Term, error)     { return arena.Alloc[Term](p.arena) }
func (p *Parser) allocBin() (*BinExpr, error)   { return arena.Alloc[BinExpr](p.arena) }
func (p *Parser) allocScope() (*Scope, error)   { return arena.Alloc[Scope](p.arena) }
func (p *Parser) allocStmt() (*Stmt, error)     { return arena.Alloc[Stmt](p.arena) }
func (p *Parser) allocIfPred() (*IfPred, error) { return arena.Alloc[IfPred](p.arena) }

// ParseProgram consumes every token, emitting statements in source
// order. A statement that fails to match while tokens remain is a fatal
// parse error; exhausting the input cleanly — including an empty
// input — yields a Program with no statements.
func (p *Parser) ParseProgram() (*Program, error) {
	prog := &Program{}
	for {
		if _, ok := p.peek(); !ok {
			return prog, nil
		}
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		if stmt == nil {
			tok, _ := p.peek()
			return nil, p.fmtError(tok, "invalid statement")
		}
		prog.Stmts = append(prog.Stmts, stmt)
	}
}

// parseStmt returns (nil, nil) when the next tokens are not a valid
// statement prefix.
func (p *Parser) parseStmt() (*Stmt, error) {
	tok, ok := p.peek()
	if !ok {
		return nil, nil
	}

	switch tok.Kind {
	case Exit:
		return p.parseExitStmt()
	case Def:
		return p.parseDefStmt()
	case OpenCurly:
		return p.parseScopeStmt()
	case If:
		return p.parseIfStmt()
	default:
		return nil, nil
	}
}

func (p *Parser) parseExitStmt() (*Stmt, error) {
	p.advance() // "exit"
	if _, err := p.expect(OpenParen); err != nil {
		return nil, err
	}
	expr, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(CloseParen); err != nil {
		return nil, err
	}
	if _, err := p.expect(Semi); err != nil {
		return nil, err
	}

	exit, err := arena.Alloc[StmtExit](p.arena)
	if err != nil {
		return nil, err
	}
	exit.Expr = expr

	stmt, err := p.allocStmt()
	if err != nil {
		return nil, err
	}
	stmt.Kind = StmtKindExit
	stmt.Exit = exit
	return stmt, nil
}

func (p *Parser) parseDefStmt() (*Stmt, error) {
	p.advance() // "def"
	ident, err := p.expect(Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(Eq); err != nil {
		return nil, err
	}
	expr, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(Semi); err != nil {
		return nil, err
	}

	def, err := arena.Alloc[StmtDef](p.arena)
	if err != nil {
		return nil, err
	}
	def.Ident = ident
	def.Expr = expr

	stmt, err := p.allocStmt()
	if err != nil {
		return nil, err
	}
	stmt.Kind = StmtKindDef
	stmt.Def = def
	return stmt, nil
}

func (p *Parser) parseScopeStmt() (*Stmt, error) {
	scope, err := p.parseScope()
	if err != nil {
		return nil, err
	}

	stmt, err := p.allocStmt()
	if err != nil {
		return nil, err
	}
	stmt.Kind = StmtKindScope
	stmt.Scope = scope
	return stmt, nil
}

// parseScope requires an opening '{' and consumes statements until a
// matching '}', which is mandatory.
func (p *Parser) parseScope() (*Scope, error) {
	if _, err := p.expect(OpenCurly); err != nil {
		return nil, err
	}

	scope, err := p.allocScope()
	if err != nil {
		return nil, err
	}

	for {
		tok, ok := p.peek()
		if ok && tok.Kind == CloseCurly {
			p.advance()
			return scope, nil
		}
		if !ok {
			return nil, p.fmtError(p.lastOrZero(), "expected '}'")
		}
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		if stmt == nil {
			return nil, p.fmtError(tok, "expected '}'")
		}
		scope.Stmts = append(scope.Stmts, stmt)
	}
}

func (p *Parser) parseIfStmt() (*Stmt, error) {
	p.advance() // "if"
	if _, err := p.expect(OpenParen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(CloseParen); err != nil {
		return nil, err
	}
	scope, err := p.parseScope()
	if err != nil {
		return nil, err
	}
	pred, err := p.parseIfPred()
	if err != nil {
		return nil, err
	}

	stmtIf, err := arena.Alloc[StmtIf](p.arena)
	if err != nil {
		return nil, err
	}
	stmtIf.Cond = cond
	stmtIf.Scope = scope
	stmtIf.Pred = pred

	stmt, err := p.allocStmt()
	if err != nil {
		return nil, err
	}
	stmt.Kind = StmtKindIf
	stmt.If = stmtIf
	return stmt, nil
}

// parseIfPred returns (nil, nil) when there is no elif/else tail.
func (p *Parser) parseIfPred() (*IfPred, error) {
	tok, ok := p.peek()
	if !ok {
		return nil, nil
	}

	switch tok.Kind {
	case Elif:
		p.advance()
		if _, err := p.expect(OpenParen); err != nil {
			return nil, err
		}
		cond, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(CloseParen); err != nil {
			return nil, err
		}
		scope, err := p.parseScope()
		if err != nil {
			return nil, err
		}
		next, err := p.parseIfPred()
		if err != nil {
			return nil, err
		}

		pred, err := p.allocIfPred()
		if err != nil {
			return nil, err
		}
		pred.Kind = IfPredElif
		pred.Cond = cond
		pred.Scope = scope
		pred.Next = next
		return pred, nil

	case Else:
		p.advance()
		scope, err := p.parseScope()
		if err != nil {
			return nil, err
		}

		pred, err := p.allocIfPred()
		if err != nil {
			return nil, err
		}
		pred.Kind = IfPredElse
		pred.Scope = scope
		return pred, nil

	default:
		return nil, nil
	}
}

// parseExpr implements precedence climbing: each level of recursion
// accepts operators whose precedence is at least minPrec, recursing
// with minPrec+1 on the right-hand side to force left associativity.
func (p *Parser) parseExpr(minPrec int) (*Expr, error) {
	lhs, err := p.parseTerm()
	if err != nil {
		return nil, err
	}

	for {
		tok, ok := p.peek()
		if !ok {
			break
		}
		prec, isOp := Precedence(tok.Kind)
		if !isOp || prec < minPrec {
			break
		}
		op := p.advance()

		rhs, err := p.parseExpr(prec + 1)
		if err != nil {
			return nil, err
		}

		// The previous lhs is cloned at the top level — its tag and
		// payload pointers copied into a freshly allocated Expr — before
		// becoming the new binary node's left child. Without the clone,
		// lhs would end up as its own left child once reassigned below.
		lhsClone, err := p.cloneExpr(lhs)
		if err != nil {
			return nil, err
		}

		bin, err := p.allocBin()
		if err != nil {
			return nil, err
		}
		bin.Op = binOpFor(op.Kind)
		bin.Lhs = lhsClone
		bin.Rhs = rhs

		next, err := p.allocExpr()
		if err != nil {
			return nil, err
		}
		next.Kind = ExprBin
		next.Bin = bin
		lhs = next
	}

	return lhs, nil
}

func (p *Parser) cloneExpr(e *Expr) (*Expr, error) {
	clone, err := p.allocExpr()
	if err != nil {
		return nil, err
	}
	*clone = *e
	return clone, nil
}

func binOpFor(k TokenKind) BinOp {
	switch k {
	case Plus:
		return OpAdd
	case Minus:
		return OpSub
	case Star:
		return OpMul
	case Slash:
		return OpDiv
	default:
		panic(fmt.Sprintf("binOpFor: %s is not a binary operator", k))
	}
}

// parseTerm parses an integer literal, an identifier, or a parenthesized
// expression, returning it wrapped in an Expr.
func (p *Parser) parseTerm() (*Expr, error) {
	tok, ok := p.peek()
	if !ok {
		return nil, p.fmtError(p.lastOrZero(), "expected expression, got end of input")
	}

	switch tok.Kind {
	case IntLit:
		p.advance()
		term, err := p.allocTerm()
		if err != nil {
			return nil, err
		}
		term.Kind = TermIntLit
		term.Tok = tok
		return p.wrapTerm(term)

	case Ident:
		p.advance()
		term, err := p.allocTerm()
		if err != nil {
			return nil, err
		}
		term.Kind = TermIdent
		term.Tok = tok
		return p.wrapTerm(term)

	case OpenParen:
		p.advance()
		inner, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(CloseParen); err != nil {
			return nil, err
		}
		term, err := p.allocTerm()
		if err != nil {
			return nil, err
		}
		term.Kind = TermParen
		term.Inner = inner
		return p.wrapTerm(term)

	default:
		return nil, p.fmtError(tok, "expected expression, got %s", tok.Kind)
	}
}

func (p *Parser) wrapTerm(term *Term) (*Expr, error) {
	expr, err := p.allocExpr()
	if err != nil {
		return nil, err
	}
	expr.Kind = ExprTerm
	expr.Term = term
	return expr, nil
}
