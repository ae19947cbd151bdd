package compiler

import (
	"gocc/pkg/arena"

	"github.com/pkg/errors"
)

// Options configures a single Compile call. The zero value is valid and
// uses arena.DefaultCapacity.
type Options struct {
	// ArenaCapacity overrides the AST arena's byte capacity. Zero means
	// arena.DefaultCapacity.
	ArenaCapacity int
}

// Result carries everything a caller might want out of a successful
// compile: the generated assembly text plus the Program and token stream
// that produced it, kept alive only for diagnostics/tests.
type Result struct {
	Assembly string
	Program  *Program
	Tokens   []Token
}

// Compile runs the full pipeline — Lex, Parse, Generate — over src and
// returns the resulting NASM source text.
func Compile(src string, opts Options) (*Result, error) {
	tokens, err := Lex(src)
	if err != nil {
		return nil, errors.Wrap(err, "lex")
	}

	a := arena.New(opts.ArenaCapacity)

	prog, err := Parse(tokens, a, src)
	if err != nil {
		return nil, errors.Wrap(err, "parse")
	}

	asm, err := Generate(prog)
	if err != nil {
		return nil, errors.Wrap(err, "generate")
	}

	return &Result{Assembly: asm, Program: prog, Tokens: tokens}, nil
}
