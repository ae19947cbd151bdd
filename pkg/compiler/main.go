// Package compiler implements the tokenizer, parser, and NASM code
// generator for the gocc toy language.
package compiler
