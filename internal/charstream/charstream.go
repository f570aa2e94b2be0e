// Package charstream builds the character streams tokenizers are bound to.
package charstream

import (
	"io"
	"strings"

	"github.com/pkg/errors"
)

// UnknownSourceName is used when the stream doesn't come from a named source.
const UnknownSourceName = "<unknown>"

// Stream is an immutable, fully buffered character stream.
type Stream struct {
	name string
	text string
}

// FromReader reads r to the end and returns a Stream holding its contents.
func FromReader(r io.Reader, sourceName string) (*Stream, error) {
	var sb strings.Builder
	if _, err := io.Copy(&sb, r); err != nil {
		return nil, errors.Wrapf(err, "failed reading character stream %q", sourceName)
	}
	if sourceName == "" {
		sourceName = UnknownSourceName
	}
	return &Stream{name: sourceName, text: sb.String()}, nil
}

// FromString returns a Stream over text.
func FromString(text string) (*Stream, error) {
	return FromReader(strings.NewReader(text), "")
}

// SourceName of the stream.
func (s *Stream) SourceName() string { return s.name }

// Text returns the whole stream contents.
func (s *Stream) Text() string { return s.text }

// Len returns the stream size in bytes.
func (s *Stream) Len() int { return len(s.text) }
