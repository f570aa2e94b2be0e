package rules

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gomlx/go-autocomplete/lexer/api"
	"github.com/gomlx/go-autocomplete/lexer/atn"
	"k8s.io/klog/v2"
)

// Tokenizer implements api.Tokenizer by simulating the grammar's ATN over its bound input.
//
// At each position it takes the longest match over all rules, ties going to the rule defined
// first. When no rule matches, observers are notified and the offending character is skipped.
type Tokenizer struct {
	grammar   *grammar
	input     api.CharStream
	observers []api.FailureObserver
}

// Compile time assert that rules.Tokenizer implements api.Tokenizer interface.
var _ api.Tokenizer = &Tokenizer{}

// loggingObserver is installed on every new Tokenizer, until RemoveFailureObservers is called.
type loggingObserver struct {
	grammar, source string
}

// LexFailure implements api.FailureObserver.
func (o loggingObserver) LexFailure(f api.Failure) {
	klog.V(1).InfoS("Lexical failure", "grammar", o.grammar, "source", o.source,
		"line", f.Line, "column", f.Column, "message", f.Message)
}

func newTokenizer(g *grammar, input api.CharStream) *Tokenizer {
	return &Tokenizer{
		grammar:   g,
		input:     input,
		observers: []api.FailureObserver{loggingObserver{grammar: g.name, source: input.SourceName()}},
	}
}

// RuleNames implements api.Tokenizer.
func (t *Tokenizer) RuleNames() []string { return t.grammar.ruleNames }

// ATN implements api.Tokenizer.
func (t *Tokenizer) ATN() *atn.ATN { return t.grammar.atn }

// Vocabulary implements api.Tokenizer.
func (t *Tokenizer) Vocabulary() api.Vocabulary { return t.grammar.vocabulary }

// AddFailureObserver implements api.Tokenizer.
func (t *Tokenizer) AddFailureObserver(observer api.FailureObserver) {
	t.observers = append(t.observers, observer)
}

// RemoveFailureObservers implements api.Tokenizer.
func (t *Tokenizer) RemoveFailureObservers() {
	t.observers = nil
}

// AllTokens implements api.Tokenizer.
func (t *Tokenizer) AllTokens() []*api.Token {
	text := t.input.Text()
	tokens := make([]*api.Token, 0)
	pos, line, column := 0, 1, 0
	advance := func(end int) {
		for _, r := range text[pos:end] {
			if r == '\n' {
				line++
				column = 0
			} else {
				column++
			}
		}
		pos = end
	}

	for pos < len(text) {
		ruleIndex, end := t.grammar.longestMatch(text, pos)
		if ruleIndex < 0 {
			_, size := utf8.DecodeRuneInString(text[pos:])
			t.notify(api.Failure{
				Offset:  pos,
				Line:    line,
				Column:  column,
				Text:    text[pos : pos+size],
				Message: fmt.Sprintf("token recognition error at: '%s'", escapeWhitespace(text[pos:pos+size])),
			})
			advance(pos + size)
			continue
		}
		if !t.grammar.skip[ruleIndex] {
			tokens = append(tokens, &api.Token{
				Type:       ruleIndex + 1,
				Channel:    t.grammar.channels[ruleIndex],
				Text:       text[pos:end],
				Start:      pos,
				Stop:       end,
				Line:       line,
				Column:     column,
				TokenIndex: len(tokens),
			})
		}
		advance(end)
	}
	return tokens
}

func (t *Tokenizer) notify(f api.Failure) {
	for _, observer := range t.observers {
		observer.LexFailure(f)
	}
}

// longestMatch returns the rule matching the longest non-empty prefix of text[pos:], and where
// that match ends. It returns ruleIndex -1 if no rule matches.
func (g *grammar) longestMatch(text string, pos int) (ruleIndex, end int) {
	ruleIndex, end = -1, pos
	current := g.atn.Closure(g.atn.TokensStartState().ID)
	for ii := pos; len(current) > 0; {
		if ii > pos {
			if accepted := g.acceptingRule(current); accepted >= 0 {
				ruleIndex, end = accepted, ii
			}
		}
		if ii >= len(text) {
			break
		}
		r, size := utf8.DecodeRuneInString(text[ii:])
		var next []atn.StateID
		for _, id := range current {
			for _, tid := range g.atn.State(id).Transitions {
				if tr := g.atn.Transition(tid); !tr.IsEpsilon() && tr.Matches(r) {
					next = append(next, tr.Target)
				}
			}
		}
		current = g.atn.Closure(next...)
		ii += size
	}
	return
}

// acceptingRule returns the lowest rule index whose stop state is in states, or -1.
func (g *grammar) acceptingRule(states []atn.StateID) int {
	best := -1
	for _, id := range states {
		s := g.atn.State(id)
		if s.Kind == atn.StateRuleStop && (best < 0 || s.RuleIndex < best) {
			best = s.RuleIndex
		}
	}
	return best
}

var whitespaceEscaper = strings.NewReplacer("\n", `\n`, "\r", `\r`, "\t", `\t`)

func escapeWhitespace(s string) string {
	return whitespaceEscaper.Replace(s)
}
