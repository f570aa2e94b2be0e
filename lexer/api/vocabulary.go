package api

import "strconv"

// Vocabulary maps token types to names.
type Vocabulary interface {
	// MaxTokenType is the highest token type in the vocabulary.
	MaxTokenType() int

	// LiteralName is the quoted literal of a token type, e.g. "'+'", or "" if it has none.
	LiteralName(tokenType int) string

	// SymbolicName is the rule name of a token type, or "" if unknown.
	SymbolicName(tokenType int) string

	// DisplayName is the literal name if any, else the symbolic name, else the type number.
	DisplayName(tokenType int) string
}

// TokenVocabulary is a Vocabulary backed by name tables indexed by token type.
type TokenVocabulary struct {
	literalNames  []string
	symbolicNames []string
}

var _ Vocabulary = &TokenVocabulary{}

// NewVocabulary creates a TokenVocabulary. Both tables are indexed by token type, and either may
// be shorter than the other.
func NewVocabulary(literalNames, symbolicNames []string) *TokenVocabulary {
	return &TokenVocabulary{
		literalNames:  append([]string(nil), literalNames...),
		symbolicNames: append([]string(nil), symbolicNames...),
	}
}

// MaxTokenType implements Vocabulary.
func (v *TokenVocabulary) MaxTokenType() int {
	return max(len(v.literalNames), len(v.symbolicNames)) - 1
}

// LiteralName implements Vocabulary.
func (v *TokenVocabulary) LiteralName(tokenType int) string {
	if tokenType < 0 || tokenType >= len(v.literalNames) {
		return ""
	}
	return v.literalNames[tokenType]
}

// SymbolicName implements Vocabulary.
func (v *TokenVocabulary) SymbolicName(tokenType int) string {
	if tokenType < 0 || tokenType >= len(v.symbolicNames) {
		return ""
	}
	return v.symbolicNames[tokenType]
}

// DisplayName implements Vocabulary.
func (v *TokenVocabulary) DisplayName(tokenType int) string {
	if name := v.LiteralName(tokenType); name != "" {
		return name
	}
	if name := v.SymbolicName(tokenType); name != "" {
		return name
	}
	return strconv.Itoa(tokenType)
}
