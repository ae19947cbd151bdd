package compiler

import (
	"testing"

	"gocc/pkg/arena"

	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, src string) *Program {
	t.Helper()
	toks, err := Lex(src)
	require.NoError(t, err)
	prog, err := Parse(toks, arena.New(0), src)
	require.NoError(t, err)
	return prog
}

func TestParseProgram_EmptyInputIsLegal(t *testing.T) {
	prog := mustParse(t, "")
	require.Empty(t, prog.Stmts)
}

func TestParseProgram_ExitLiteral(t *testing.T) {
	prog := mustParse(t, "exit(7);")
	require.Len(t, prog.Stmts, 1)

	stmt := prog.Stmts[0]
	require.Equal(t, StmtKindExit, stmt.Kind)
	require.Equal(t, ExprTerm, stmt.Exit.Expr.Kind)
	require.Equal(t, "7", stmt.Exit.Expr.Term.Tok.Lexeme)
}

func TestParseProgram_DefStatement(t *testing.T) {
	prog := mustParse(t, "def x = 5;")
	require.Len(t, prog.Stmts, 1)

	stmt := prog.Stmts[0]
	require.Equal(t, StmtKindDef, stmt.Kind)
	require.Equal(t, "x", stmt.Def.Ident.Lexeme)
	require.Equal(t, "5", stmt.Def.Expr.Term.Tok.Lexeme)
}

// Precedence climbing: "*"/"/" bind tighter than "+"/"-", so
// `2 + 3 * 4` must parse as `2 + (3 * 4)`, not `(2 + 3) * 4`.
func TestParseExpr_PrecedenceClimbsCorrectly(t *testing.T) {
	prog := mustParse(t, "exit(2+3*4);")
	expr := prog.Stmts[0].Exit.Expr

	require.Equal(t, ExprBin, expr.Kind)
	require.Equal(t, OpAdd, expr.Bin.Op)
	require.Equal(t, "2", expr.Bin.Lhs.Term.Tok.Lexeme)

	rhs := expr.Bin.Rhs
	require.Equal(t, ExprBin, rhs.Kind)
	require.Equal(t, OpMul, rhs.Bin.Op)
	require.Equal(t, "3", rhs.Bin.Lhs.Term.Tok.Lexeme)
	require.Equal(t, "4", rhs.Bin.Rhs.Term.Tok.Lexeme)
}

func TestParseExpr_ParensOverridePrecedence(t *testing.T) {
	prog := mustParse(t, "exit((2+3)*4);")
	expr := prog.Stmts[0].Exit.Expr

	require.Equal(t, ExprBin, expr.Kind)
	require.Equal(t, OpMul, expr.Bin.Op)

	lhs := expr.Bin.Lhs
	require.Equal(t, ExprTerm, lhs.Kind)
	require.Equal(t, TermParen, lhs.Term.Kind)
	require.Equal(t, OpAdd, lhs.Term.Inner.Bin.Op)
}

// Left-associativity: `8-4-2` must parse as `(8-4)-2`, not `8-(4-2)`.
func TestParseExpr_LeftAssociative(t *testing.T) {
	prog := mustParse(t, "exit(8-4-2);")
	expr := prog.Stmts[0].Exit.Expr

	require.Equal(t, OpSub, expr.Bin.Op)
	require.Equal(t, "2", expr.Bin.Rhs.Term.Tok.Lexeme)

	lhs := expr.Bin.Lhs
	require.Equal(t, ExprBin, lhs.Kind)
	require.Equal(t, OpSub, lhs.Bin.Op)
	require.Equal(t, "8", lhs.Bin.Lhs.Term.Tok.Lexeme)
	require.Equal(t, "4", lhs.Bin.Rhs.Term.Tok.Lexeme)
}

func TestParseProgram_ScopeStatement(t *testing.T) {
	prog := mustParse(t, "{ exit(1); exit(2); }")
	require.Len(t, prog.Stmts, 1)
	require.Equal(t, StmtKindScope, prog.Stmts[0].Kind)
	require.Len(t, prog.Stmts[0].Scope.Stmts, 2)
}

func TestParseProgram_IfElifElse(t *testing.T) {
	prog := mustParse(t, `
		if (1) { exit(1); }
		elif (2) { exit(2); }
		else { exit(3); }
	`)
	require.Len(t, prog.Stmts, 1)

	stmt := prog.Stmts[0]
	require.Equal(t, StmtKindIf, stmt.Kind)
	require.NotNil(t, stmt.If.Pred)
	require.Equal(t, IfPredElif, stmt.If.Pred.Kind)
	require.NotNil(t, stmt.If.Pred.Next)
	require.Equal(t, IfPredElse, stmt.If.Pred.Next.Kind)
	require.Nil(t, stmt.If.Pred.Next.Next)
}

func TestParseProgram_IfWithNoTail(t *testing.T) {
	prog := mustParse(t, "if (1) { exit(1); }")
	require.Nil(t, prog.Stmts[0].If.Pred)
}

func TestParseProgram_MissingOpenParenAfterExit(t *testing.T) {
	toks, err := Lex("exit 5);")
	require.NoError(t, err)
	_, err = Parse(toks, arena.New(0), "exit 5);")
	require.Error(t, err)
}

func TestParseProgram_MissingCloseParen(t *testing.T) {
	toks, err := Lex("exit(5;")
	require.NoError(t, err)
	_, err = Parse(toks, arena.New(0), "exit(5;")
	require.Error(t, err)
}

func TestParseProgram_UnclosedScopeIsFatal(t *testing.T) {
	toks, err := Lex("{ exit(1);")
	require.NoError(t, err)
	_, err = Parse(toks, arena.New(0), "{ exit(1);")
	require.Error(t, err)
}

func TestParseProgram_GarbageTokenIsFatal(t *testing.T) {
	toks, err := Lex("= = =;")
	require.NoError(t, err)
	_, err = Parse(toks, arena.New(0), "= = =;")
	require.Error(t, err)
}
