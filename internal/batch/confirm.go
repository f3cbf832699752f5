package batch

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Confirmer is the single interactive gate between building and
// sending. Implementations block until the operator has decided.
type Confirmer interface {
	// Confirm asks the operator whether to proceed and returns the
	// decision. It is called at most once per run.
	Confirm() (bool, error)
}

// TerminalConfirmer reads y/n answers (case-insensitive) from an input
// stream and reprompts on anything else.
type TerminalConfirmer struct {
	In  io.Reader
	Out io.Writer
}

// Confirm prompts until the operator answers y or n.
func (t *TerminalConfirmer) Confirm() (bool, error) {
	reader := bufio.NewReader(t.In)
	for {
		fmt.Fprint(t.Out, "Proceed? [y/n] ")
		line, err := reader.ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y":
			return true, nil
		case "n":
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("could not read confirmation: %w", err)
		}
		fmt.Fprintln(t.Out, "Unexpected input.")
	}
}
