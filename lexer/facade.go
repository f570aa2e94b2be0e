package lexer

import (
	"io"
	"strings"
	"time"
	"unicode/utf8"

	autocomplete "github.com/gomlx/go-autocomplete"
	"github.com/gomlx/go-autocomplete/internal/charstream"
	"github.com/gomlx/go-autocomplete/lexer/api"
	"github.com/gomlx/go-autocomplete/lexer/atn"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

var (
	// ErrNotAtomTransition is returned when a label is requested for a transition that doesn't
	// consume exactly one specific character.
	ErrNotAtomTransition = errors.New("not an atom transition")

	// ErrUnknownRule is returned for rule numbers outside the grammar's rule table.
	ErrUnknownRule = errors.New("unknown rule")
)

// DefaultFacadeName is used for metrics and logs of facades not given a name with WithName.
const DefaultFacadeName = "default"

// TokenizationResult holds the tokens recognized in a text, and the suffix of the text from the
// first lexical failure on.
type TokenizationResult struct {
	// Tokens in input order, including those recognized after a lexical failure.
	Tokens []*api.Token

	// UntokenizedText is the input from the first lexical failure to the end, or "" if the whole
	// input was tokenized.
	UntokenizedText string
}

// Facade sits in front of a TokenizerFactory: it tokenizes partially typed input, exposes the
// automaton of the grammar, and holds the caches keyed by automaton objects.
//
// Automaton introspection goes through a single "shape probe" tokenizer, bound to an empty input
// and built on first use. Since the automaton is immutable, the caches are never invalidated.
//
// A Facade is meant for a single caller at a time: it is not safe for concurrent use. Wrap it with
// a lock, or create one Facade per goroutine, if needed.
type Facade struct {
	id      string
	name    string
	factory api.TokenizerFactory

	// probe is the shape probe, nil until first needed.
	probe api.Tokenizer

	labels                 map[atn.TransitionID]string
	labelHits, labelMisses int

	suggestions *SuggestionCache

	metrics *Metrics
}

// New creates a Facade over factory, with an unbounded suggestion cache and no metrics.
func New(factory api.TokenizerFactory) *Facade {
	f := &Facade{
		id:          strings.ReplaceAll(uuid.NewString(), "-", ""),
		name:        DefaultFacadeName,
		factory:     factory,
		labels:      make(map[atn.TransitionID]string),
		suggestions: newSuggestionCache(0),
	}
	klog.V(2).InfoS("Created lexer facade", "id", f.id, "version", autocomplete.Version)
	return f
}

// WithName sets the name used in logs and metric labels.
func (f *Facade) WithName(name string) *Facade {
	f.name = name
	return f
}

// WithMaxSuggestionEntries bounds the suggestion cache to maxEntries, evicting the least recently
// used entries. If maxEntries <= 0 the cache is unbounded (the default).
//
// It replaces the current suggestion cache, so it should be called before the Facade is used.
func (f *Facade) WithMaxSuggestionEntries(maxEntries int) *Facade {
	f.suggestions = newSuggestionCache(maxEntries)
	return f
}

// WithMetrics sets the Metrics to report to. See NewMetrics.
func (f *Facade) WithMetrics(metrics *Metrics) *Facade {
	f.metrics = metrics
	return f
}

// ID uniquely identifies the Facade in logs.
func (f *Facade) ID() string { return f.id }

// Name of the Facade, see WithName.
func (f *Facade) Name() string { return f.name }

// Tokenize text with a fresh tokenizer.
//
// Lexical failures are not errors: the tokenizer recovers from them and keeps going, and the
// result's UntokenizedText holds text from the first failure on. An error is only returned if the
// tokenizer cannot be created.
func (f *Facade) Tokenize(text string) (*TokenizationResult, error) {
	stream, err := charstream.FromString(text)
	if err != nil {
		return nil, errors.WithMessagef(err, "facade %q", f.name)
	}
	return f.tokenizeStream(stream)
}

// TokenizeReader is like Tokenize, but reads the text from r. Failing to read r is returned as an
// error.
func (f *Facade) TokenizeReader(r io.Reader, sourceName string) (*TokenizationResult, error) {
	stream, err := charstream.FromReader(r, sourceName)
	if err != nil {
		return nil, errors.WithMessagef(err, "facade %q", f.name)
	}
	return f.tokenizeStream(stream)
}

// TokenizeDefaultChannel is like Tokenize, but only returns tokens on the DefaultChannel.
// UntokenizedText is not affected by the filtering.
func (f *Facade) TokenizeDefaultChannel(text string) (*TokenizationResult, error) {
	result, err := f.Tokenize(text)
	if err != nil {
		return nil, err
	}
	filtered := make([]*api.Token, 0, len(result.Tokens))
	for _, token := range result.Tokens {
		if token.Channel == api.DefaultChannel {
			filtered = append(filtered, token)
		}
	}
	result.Tokens = filtered
	return result, nil
}

func (f *Facade) tokenizeStream(stream api.CharStream) (*TokenizationResult, error) {
	start := time.Now()
	tokenizer, err := f.factory.CreateTokenizer(stream)
	if err != nil {
		return nil, errors.WithMessagef(err, "facade %q failed to create tokenizer for %q", f.name, stream.SourceName())
	}

	// Only the first failure is kept: it freezes the boundary of confident tokenization.
	var first *api.Failure
	tokenizer.RemoveFailureObservers()
	tokenizer.AddFailureObserver(api.FailureObserverFunc(func(failure api.Failure) {
		if first == nil {
			first = &failure
		}
	}))

	result := &TokenizationResult{Tokens: tokenizer.AllTokens()}
	if result.Tokens == nil {
		result.Tokens = []*api.Token{}
	}
	if first != nil {
		text := stream.Text()
		result.UntokenizedText = text[min(max(first.Offset, 0), len(text)):]
	}

	if f.metrics != nil {
		f.metrics.TokenizationsTotal.WithLabelValues(f.name).Inc()
		f.metrics.TokenizationDuration.WithLabelValues(f.name).Observe(time.Since(start).Seconds())
		if first != nil {
			f.metrics.LexicalFailuresTotal.WithLabelValues(f.name).Inc()
		}
	}
	if klogV := klog.V(4); klogV.Enabled() {
		klogV.InfoS("Tokenized input", "facade", f.name, "source", stream.SourceName(),
			"tokens", len(result.Tokens), "untokenized", result.UntokenizedText)
	}
	return result, nil
}

// shapeProbe returns the memoized tokenizer used to reach the automaton, creating it on first use.
// A failure to create it is not memoized.
func (f *Facade) shapeProbe() (api.Tokenizer, error) {
	if f.probe != nil {
		return f.probe, nil
	}
	stream, err := charstream.FromString("")
	if err != nil {
		return nil, errors.WithMessagef(err, "facade %q", f.name)
	}
	probe, err := f.factory.CreateTokenizer(stream)
	if err != nil {
		return nil, errors.WithMessagef(err, "facade %q failed to create shape probe tokenizer", f.name)
	}
	f.probe = probe
	klog.V(2).InfoS("Created shape probe", "facade", f.name, "id", f.id, "rules", len(probe.RuleNames()))
	return f.probe, nil
}

// RuleNames returns the grammar's rule names, indexed by rule number.
// The returned slice is shared and must not be modified.
func (f *Facade) RuleNames() ([]string, error) {
	probe, err := f.shapeProbe()
	if err != nil {
		return nil, err
	}
	return probe.RuleNames(), nil
}

// ATN returns the grammar's automaton.
func (f *Facade) ATN() (*atn.ATN, error) {
	probe, err := f.shapeProbe()
	if err != nil {
		return nil, err
	}
	return probe.ATN(), nil
}

// StartStateForRule returns the entry state of the rule's subgraph.
func (f *Facade) StartStateForRule(ruleNumber int) (*atn.State, error) {
	a, err := f.ATN()
	if err != nil {
		return nil, err
	}
	state := a.RuleStartState(ruleNumber)
	if state == nil {
		return nil, errors.Wrapf(ErrUnknownRule, "rule number %d (grammar has %d rules)", ruleNumber, a.NumRules())
	}
	return state, nil
}

// Vocabulary returns the grammar's token vocabulary.
func (f *Facade) Vocabulary() (api.Vocabulary, error) {
	probe, err := f.shapeProbe()
	if err != nil {
		return nil, err
	}
	return probe.Vocabulary(), nil
}

// RuleNameForState returns the name of the rule owning state.
func (f *Facade) RuleNameForState(state *atn.State) (string, error) {
	if state == nil {
		return "", errors.New("nil state")
	}
	ruleNames, err := f.RuleNames()
	if err != nil {
		return "", err
	}
	if state.RuleIndex < 0 || state.RuleIndex >= len(ruleNames) {
		return "", errors.Wrapf(ErrUnknownRule, "state %s", state)
	}
	return ruleNames[state.RuleIndex], nil
}

// LabelFor returns the text consumed by an atom transition: its code point as a string.
// The result is memoized by transition id, so t must belong to this Facade's automaton.
func (f *Facade) LabelFor(t *atn.Transition) (string, error) {
	if t == nil || t.Kind != atn.TransitionAtom {
		return "", ErrNotAtomTransition
	}
	if label, found := f.labels[t.ID]; found {
		f.labelHits++
		f.countLabelLookup(ResultHit)
		return label, nil
	}
	if !utf8.ValidRune(t.Label) {
		return "", errors.Errorf("transition #%d has invalid code point %d", t.ID, t.Label)
	}
	label := string(t.Label)
	f.labels[t.ID] = label
	f.labelMisses++
	f.countLabelLookup(ResultMiss)
	return label, nil
}

func (f *Facade) countLabelLookup(result string) {
	if f.metrics != nil {
		f.metrics.LabelCacheLookups.WithLabelValues(f.name, result).Inc()
	}
}

// SuggestionCache returns the cache the suggestion engine populates and consults.
func (f *Facade) SuggestionCache() *SuggestionCache {
	return f.suggestions
}

// IsValidSuggestion reports whether candidate is an acceptable completion, as decided by the
// TokenizerFactory.
func (f *Facade) IsValidSuggestion(candidate string) bool {
	return f.factory.IsValidSuggestion(candidate)
}

// Stats returns a snapshot of the cache counters.
func (f *Facade) Stats() CacheStats {
	return CacheStats{
		LabelEntries:      len(f.labels),
		LabelHits:         f.labelHits,
		LabelMisses:       f.labelMisses,
		SuggestionEntries: f.suggestions.Len(),
	}
}
