// Package rules implements an api.TokenizerFactory driven by the rule table of a GrammarConfig.
//
// Each rule is either a literal or a regular expression (Go's regexp/syntax, without anchors).
// Rules are compiled once into a shared atn.ATN, and every Tokenizer created by the Factory
// simulates that same automaton.
package rules

import (
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/gomlx/go-autocomplete/lexer/api"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// ClassName under which New is registered with the lexer package.
const ClassName = "rules"

// SuggestionMatchTimeout bounds the evaluation of a grammar's suggestion pattern.
var SuggestionMatchTimeout = 100 * time.Millisecond

// Factory creates Tokenizers for one grammar.
type Factory struct {
	grammar           *grammar
	suggestionPattern *regexp2.Regexp
	invalid           map[string]bool
}

// Compile time assert that rules.Factory implements api.TokenizerFactory interface.
var _ api.TokenizerFactory = &Factory{}

// New compiles config into a Factory.
//
// It implements the lexer.FactoryConstructor function signature.
func New(config *api.GrammarConfig) (api.TokenizerFactory, error) {
	g, err := compileGrammar(config)
	if err != nil {
		return nil, err
	}
	f := &Factory{grammar: g, invalid: make(map[string]bool, len(config.InvalidSuggestions))}
	for _, s := range config.InvalidSuggestions {
		f.invalid[s] = true
	}
	if config.SuggestionPattern != "" {
		f.suggestionPattern, err = regexp2.Compile(config.SuggestionPattern, regexp2.None)
		if err != nil {
			return nil, errors.Wrapf(err, "grammar %q has invalid suggestion_pattern", config.Name)
		}
		f.suggestionPattern.MatchTimeout = SuggestionMatchTimeout
	}
	klog.V(2).InfoS("Compiled grammar", "grammar", g.name, "rules", len(g.ruleNames),
		"states", g.atn.NumStates(), "transitions", g.atn.NumTransitions())
	return f, nil
}

// CreateTokenizer implements api.TokenizerFactory.
func (f *Factory) CreateTokenizer(input api.CharStream) (api.Tokenizer, error) {
	if input == nil {
		return nil, errors.Errorf("grammar %q: nil input stream", f.grammar.name)
	}
	return newTokenizer(f.grammar, input), nil
}

// IsValidSuggestion implements api.TokenizerFactory: a candidate is valid if it is not blank, not
// listed in the grammar's invalid_suggestions, and matches its suggestion_pattern, if any.
func (f *Factory) IsValidSuggestion(candidate string) bool {
	if strings.TrimSpace(candidate) == "" || f.invalid[candidate] {
		return false
	}
	if f.suggestionPattern == nil {
		return true
	}
	matched, err := f.suggestionPattern.MatchString(candidate)
	if err != nil {
		klog.ErrorS(err, "Failed to match suggestion pattern", "grammar", f.grammar.name, "candidate", candidate)
		return false
	}
	return matched
}
