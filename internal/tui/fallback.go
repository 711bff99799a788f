// Package tui implements the terminal user interface using Bubble Tea.
package tui

import (
	"fmt"
	"io"
)

// FallbackRunner handles non-TTY execution by guiding users to CLI commands.
type FallbackRunner struct {
	out io.Writer
}

// NewFallbackRunner creates a new FallbackRunner writing to out.
func NewFallbackRunner(out io.Writer) *FallbackRunner {
	return &FallbackRunner{out: out}
}

// Run prints the commands that work without a terminal.
func (f *FallbackRunner) Run() error {
	fmt.Fprintln(f.out, "Non-TTY environment detected; the policy wizard needs a terminal.")
	fmt.Fprintln(f.out, "Non-interactive commands:")
	fmt.Fprintln(f.out, "  policydesk sessions                                   list policy sessions")
	fmt.Fprintln(f.out, "  policydesk compliance --type <t> --jurisdiction <j>   research compliance requirements")
	fmt.Fprintln(f.out, "  policydesk serve                                      run the /api/agent proxy")
	return nil
}
