// Package api defines the contracts the lexer facade consumes: tokenizers, their factories, tokens
// and lexical failures.
// It's split from package lexer to break the cyclic dependency between the facade and the tokenizer
// implementations, which register themselves with it.
package api

import (
	"fmt"

	"github.com/gomlx/go-autocomplete/lexer/atn"
)

// Channels tokens can be routed to.
const (
	// DefaultChannel holds the tokens consumed by grammar rules.
	DefaultChannel = 0

	// HiddenChannel conventionally holds whitespace and comments.
	HiddenChannel = 1
)

// TokenTypeInvalid is never assigned to a rule. Rule token types start at 1.
const TokenTypeInvalid = 0

// CharStream is the input a Tokenizer is bound to.
type CharStream interface {
	SourceName() string
	Text() string
}

// Token recognized by a Tokenizer. Tokens are read-only once emitted.
type Token struct {
	Type    int
	Channel int
	Text    string

	// Start and Stop are the byte offsets of the token in the input, Stop exclusive.
	Start, Stop int

	// Line starts at 1, Column counts characters from the start of the line, starting at 0.
	Line, Column int

	// TokenIndex is the position of the token in the tokenizer output.
	TokenIndex int
}

// String implements fmt.Stringer.
func (t *Token) String() string {
	return fmt.Sprintf("[@%d,%d:%d=%q,<%d>,channel=%d,%d:%d]",
		t.TokenIndex, t.Start, t.Stop, t.Text, t.Type, t.Channel, t.Line, t.Column)
}

// Failure describes one position where a Tokenizer could not recognize any token.
type Failure struct {
	// Offset is the byte offset of the failure in the input.
	Offset int

	// Line starts at 1, Column counts characters from the start of the line, starting at 0.
	Line, Column int

	// Text is the offending input the tokenizer gave up on.
	Text string

	Message string
}

// String implements fmt.Stringer.
func (f Failure) String() string {
	return fmt.Sprintf("line %d:%d %s", f.Line, f.Column, f.Message)
}

// FailureObserver is notified of lexical failures while a Tokenizer runs.
// Observers must not abort tokenization: the tokenizer recovers on its own and continues.
type FailureObserver interface {
	LexFailure(f Failure)
}

// FailureObserverFunc adapts a function to a FailureObserver.
type FailureObserverFunc func(f Failure)

// LexFailure implements FailureObserver.
func (fn FailureObserverFunc) LexFailure(f Failure) { fn(f) }

// Tokenizer is bound to one CharStream. Tokenizers are stateful and not safe for concurrent use.
type Tokenizer interface {
	// RuleNames indexed by rule number.
	RuleNames() []string

	// ATN is the automaton shared by every tokenizer of the same grammar.
	ATN() *atn.ATN

	// Vocabulary maps token types to display names.
	Vocabulary() Vocabulary

	// AddFailureObserver registers an observer for lexical failures.
	AddFailureObserver(observer FailureObserver)

	// RemoveFailureObservers unregisters all observers, including the default one that logs failures.
	RemoveFailureObservers()

	// AllTokens tokenizes the whole bound stream. It recovers from lexical failures after
	// notifying observers.
	AllTokens() []*Token
}

// TokenizerFactory creates tokenizers for one grammar. It is stateless from its callers' point of
// view: every call to CreateTokenizer yields an independent Tokenizer.
type TokenizerFactory interface {
	CreateTokenizer(input CharStream) (Tokenizer, error)

	// IsValidSuggestion reports whether candidate is an acceptable completion for this grammar.
	IsValidSuggestion(candidate string) bool
}
