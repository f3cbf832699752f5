// Package parser reads the operator-supplied input files for a run:
// the mail content file, the recipients file and attachment files.
package parser

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrUnsupportedContentType indicates a content file whose extension
	// is neither .txt nor .html.
	ErrUnsupportedContentType = errors.New("unsupported content file type")

	// ErrMalformedContent indicates a content file that does not follow
	// the subject / separator / body layout.
	ErrMalformedContent = errors.New("malformed content file")
)

// ContentType identifies the media type of the mail body. It is derived
// from the content file's extension, never from the file's contents.
type ContentType int

const (
	TypePlain ContentType = iota
	TypeHTML
)

// String returns the human-readable name of the content type.
func (t ContentType) String() string {
	if t == TypeHTML {
		return "Html"
	}
	return "Plain"
}

// Content is the parsed mail content shared read-only across every
// recipient of a run.
type Content struct {
	Subject string
	Body    string
	Type    ContentType
}

// String renders the content the way it is shown to the operator before
// sending: subject and body separated by the three-dash line.
func (c *Content) String() string {
	return fmt.Sprintf("Content Type: %s\n\n%s\n---\n%s", c.Type, c.Subject, c.Body)
}

// ParseContent reads and parses a content file. The first line is the
// subject, the second line must be empty or exactly "---", and the
// remaining lines form the body. The body may be empty; fewer than two
// lines is an error.
func ParseContent(path string) (*Content, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read content file %s: %w", path, err)
	}

	ctype, err := contentTypeForPath(path)
	if err != nil {
		return nil, err
	}

	lines := splitLines(string(data))
	if len(lines) < 2 {
		return nil, fmt.Errorf("%w %s: premature end of file, expected format: subject line, separator line, body", ErrMalformedContent, path)
	}

	if sep := lines[1]; sep != "" && sep != "---" {
		return nil, fmt.Errorf("%w %s: separator missing, subject and body must be separated by a blank line or three dashes (---)", ErrMalformedContent, path)
	}

	return &Content{
		Subject: lines[0],
		Body:    strings.Join(lines[2:], "\n"),
		Type:    ctype,
	}, nil
}

// contentTypeForPath maps the file extension onto a ContentType.
func contentTypeForPath(path string) (ContentType, error) {
	switch filepath.Ext(path) {
	case ".txt":
		return TypePlain, nil
	case ".html":
		return TypeHTML, nil
	default:
		return TypePlain, fmt.Errorf("%w: %s, only .txt and .html are allowed", ErrUnsupportedContentType, path)
	}
}

// splitLines splits s into lines. Both "\n" and "\r\n" terminate a
// line, and a trailing terminator does not produce a final empty line,
// so a file ending in a newline has no phantom last line.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.TrimSuffix(s, "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
