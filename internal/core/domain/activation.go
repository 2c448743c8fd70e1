package domain

import (
	"bytes"
	"strings"

	"go.trai.ch/zerr"
	"mvdan.cc/sh/v3/syntax"
)

// ActivationStep is one command of an activation sequence.
type ActivationStep struct {
	// Index is the 1-based position of the step in the sequence.
	Index int

	// Command is one top-level shell statement. Compound statements such as
	// if, for, function definitions or heredocs span several lines.
	Command string
}

// ActivationSequence is the ordered list of commands run on environment entry.
type ActivationSequence []ActivationStep

// Commands returns the command lines in order.
func (s ActivationSequence) Commands() []string {
	out := make([]string, len(s))
	for i, step := range s {
		out[i] = step.Command
	}
	return out
}

// ParseActivation splits a shell hook into its top-level bash statements.
// Comments are dropped and line continuations are joined.
func ParseActivation(hook string) (ActivationSequence, error) {
	parser := syntax.NewParser(syntax.Variant(syntax.LangBash))
	file, err := parser.Parse(strings.NewReader(hook), "shellHook")
	if err != nil {
		return nil, zerr.With(zerr.Wrap(ErrInvalidShellHook, err.Error()), "hook", hook)
	}

	printer := syntax.NewPrinter()
	seq := make(ActivationSequence, 0, len(file.Stmts))
	for _, stmt := range file.Stmts {
		var buf bytes.Buffer
		if err := printer.Print(&buf, stmt); err != nil {
			return nil, zerr.Wrap(err, "failed to print shell statement")
		}
		seq = append(seq, ActivationStep{
			Index:   len(seq) + 1,
			Command: strings.TrimRight(buf.String(), "\n"),
		})
	}
	return seq, nil
}
