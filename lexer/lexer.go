// Package lexer provides the Facade an autocompletion engine uses in front of a grammar's
// tokenizer: tokenization of partially typed input that reports where confident tokenization
// stopped, introspection of the lexer automaton, and the caches keyed by automaton objects.
//
// Given a grammar file (see api.ParseGrammarFile), NewFromFile instantiates the TokenizerFactory
// registered for its "factory_class" and wraps it in a Facade.
package lexer

import (
	"github.com/gomlx/go-autocomplete/lexer/api"
	"github.com/gomlx/go-autocomplete/lexer/rules"
	"github.com/pkg/errors"
)

// TokenizerFactory creates the tokenizers of one grammar, and validates completion candidates.
type TokenizerFactory = api.TokenizerFactory

// Tokenizer is bound to one input stream.
type Tokenizer = api.Tokenizer

// Token recognized by a Tokenizer.
type Token = api.Token

// GrammarConfig holds the contents of a grammar file.
type GrammarConfig = api.GrammarConfig

// DefaultChannel holds the tokens consumed by grammar rules.
const DefaultChannel = api.DefaultChannel

// FactoryConstructor is used by TokenizerFactory implementations to provide factories for
// different factory classes.
type FactoryConstructor func(config *api.GrammarConfig) (api.TokenizerFactory, error)

// RegisterFactoryClass used by TokenizerFactory implementations.
func RegisterFactoryClass(name string, constructor FactoryConstructor) {
	registerOfClasses[name] = constructor
}

var (
	registerOfClasses = make(map[string]FactoryConstructor)
)

func init() {
	// The grammar-driven factory is always included, and is the default class.
	RegisterFactoryClass(rules.ClassName, rules.New)
}

// NewFactory creates the TokenizerFactory for config, using the constructor registered for
// config.FactoryClass. An empty class selects rules.ClassName.
func NewFactory(config *api.GrammarConfig) (api.TokenizerFactory, error) {
	class := config.FactoryClass
	if class == "" {
		class = rules.ClassName
	}
	constructor, found := registerOfClasses[class]
	if !found {
		return nil, errors.Errorf("unknown tokenizer factory class %q", class)
	}
	return constructor(config)
}

// NewFromFile parses the grammar file at filePath and returns a Facade over its TokenizerFactory.
// The facade is named after the grammar.
func NewFromFile(filePath string) (*Facade, error) {
	config, err := api.ParseGrammarFile(filePath)
	if err != nil {
		return nil, err
	}
	factory, err := NewFactory(config)
	if err != nil {
		return nil, errors.WithMessagef(err, "while loading grammar %q", filePath)
	}
	return New(factory).WithName(config.Name), nil
}
