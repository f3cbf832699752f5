package parser

import (
	"fmt"
	"os"
)

// ParseRecipients reads a recipients file and returns one raw,
// unvalidated address candidate per line, in file order. No trimming,
// deduplication or validation happens here; blank lines are kept and
// surface later as per-recipient build errors. An empty file yields an
// empty list.
func ParseRecipients(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read recipients file %s: %w", path, err)
	}
	return splitLines(string(data)), nil
}
