// Copyright (C) 2025 Creditor Corp. Group.
// See LICENSE for copying information.

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/BoostyLabs/ordwallet/wallet"
)

// errNotInteractive defines that confirmation can not be asked without terminal.
var errNotInteractive = errors.New("confirmation requires interactive terminal, use --yes")

// terminalConfirmer asks user to approve operation in terminal.
type terminalConfirmer struct {
	in  *os.File
	out io.Writer
}

func newTerminalConfirmer(in *os.File, out io.Writer) *terminalConfirmer {
	return &terminalConfirmer{in: in, out: out}
}

// Confirm implements wallet.Confirmer.
func (c *terminalConfirmer) Confirm(ctx context.Context, prompt wallet.Prompt) (bool, error) {
	if !term.IsTerminal(int(c.in.Fd())) {
		return false, errNotInteractive
	}

	writePrompt(c.out, prompt)

	answer := make(chan string, 1)
	go func() {
		line, _ := bufio.NewReader(c.in).ReadString('\n')
		answer <- line
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case line := <-answer:
		return isYes(line), nil
	}
}

func writePrompt(w io.Writer, prompt wallet.Prompt) {
	fmt.Fprintf(w, "%s\n%s\n", prompt.Title, prompt.Description)
	for _, field := range prompt.Fields {
		fmt.Fprintf(w, "  %-14s %s\n", field.Name+":", field.Value)
	}
	fmt.Fprint(w, "Confirm? [y/N]: ")
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
