// Command goccc is the gocc command-line driver: it reads a source
// file, runs it through pkg/compiler, and either writes the resulting
// assembly or assembles and links it into an executable.
package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"gocc/pkg/compiler"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	outputPath  string
	emitAsmOnly bool
	verbose     bool

	log = logrus.New()
)

func main() {
	root := &cobra.Command{
		Use:   "goccc <source-file>",
		Short: "Compile a gocc source file to a native executable",
		Args:  cobra.ExactArgs(1),
		RunE:  run,
	}
	root.Flags().StringVarP(&outputPath, "output", "o", "", "output path (default: input file name with its extension stripped)")
	root.Flags().BoolVarP(&emitAsmOnly, "S", "S", false, "emit assembly only; skip assemble and link")
	root.Flags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline stage transitions")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	srcPath, err := filepath.Abs(args[0])
	if err != nil {
		return errors.Wrap(err, "resolve source path")
	}

	data, err := os.ReadFile(srcPath)
	if err != nil {
		return errors.Wrap(err, "read source file")
	}

	asmPath, exePath := derivePaths(srcPath, outputPath)

	start := time.Now()
	res, err := compiler.Compile(string(data), compiler.Options{})
	if err != nil {
		return errors.Wrap(err, "compile")
	}
	log.WithFields(logrus.Fields{
		"tokens":     len(res.Tokens),
		"statements": len(res.Program.Stmts),
		"elapsed":    time.Since(start),
	}).Debug("compiled source to assembly")

	if err := os.WriteFile(asmPath, []byte(res.Assembly), 0o644); err != nil {
		return errors.Wrap(err, "write assembly file")
	}
	log.WithField("path", asmPath).Debug("wrote assembly")

	if emitAsmOnly {
		return nil
	}

	if err := assembleAndLink(asmPath, exePath); err != nil {
		return err
	}
	log.WithField("path", exePath).Debug("wrote executable")
	return nil
}

// derivePaths computes the .asm and final executable paths from the
// source path and an optional user-supplied output override.
func derivePaths(srcPath, override string) (asmPath, exePath string) {
	base := strings.TrimSuffix(srcPath, filepath.Ext(srcPath))
	exePath = base
	if override != "" {
		exePath = override
	}
	return base + ".asm", exePath
}

// assembleAndLink shells out to nasm and ld: the driver is a thin
// shell around an assembler and linker it does not itself implement.
func assembleAndLink(asmPath, exePath string) error {
	objPath := strings.TrimSuffix(asmPath, ".asm") + ".o"

	nasmCmd := exec.Command("nasm", "-f", "elf64", "-o", objPath, asmPath)
	if out, err := nasmCmd.CombinedOutput(); err != nil {
		return errors.Wrapf(err, "nasm failed: %s", strings.TrimSpace(string(out)))
	}

	ldCmd := exec.Command("ld", "-o", exePath, objPath)
	if out, err := ldCmd.CombinedOutput(); err != nil {
		return errors.Wrapf(err, "ld failed: %s", strings.TrimSpace(string(out)))
	}

	return nil
}
