package parser

import (
	"fmt"
	"os"
	"path/filepath"
)

// Attachment is one file attached to every mail of a run: the base name
// of the source path plus its raw bytes.
type Attachment struct {
	Filename string
	Content  []byte
}

// String returns the attachment's filename.
func (a Attachment) String() string {
	return a.Filename
}

// LoadAttachments reads every path into an Attachment, preserving input
// order. Order determines MIME part order downstream. Any unreadable
// file or path without a usable file name fails the whole load,
// attachments are operator-supplied and few.
func LoadAttachments(paths []string) ([]Attachment, error) {
	attachments := make([]Attachment, 0, len(paths))
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("could not read attachment %s: %w", path, err)
		}
		name := filepath.Base(path)
		if name == "." || name == ".." || name == string(filepath.Separator) {
			return nil, fmt.Errorf("attachment path %s has no usable file name", path)
		}
		attachments = append(attachments, Attachment{Filename: name, Content: content})
	}
	return attachments, nil
}
