package lexer

import (
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/gomlx/go-autocomplete/lexer/api"
	"github.com/gomlx/go-autocomplete/lexer/atn"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// arithFile defines INT, PLUS, MINUS and WS (on the hidden channel).
var arithFile = filepath.Join("testdata", "arith.yaml")

func newArithFacade(t *testing.T) *Facade {
	f, err := NewFromFile(arithFile)
	require.NoError(t, err)
	return f
}

// tokenStrings renders tokens as TYPE"text" using the facade's vocabulary.
func tokenStrings(t *testing.T, f *Facade, tokens []*api.Token) []string {
	vocab, err := f.Vocabulary()
	require.NoError(t, err)
	out := make([]string, len(tokens))
	for ii, token := range tokens {
		out[ii] = vocab.SymbolicName(token.Type) + `"` + token.Text + `"`
	}
	return out
}

func TestTokenize(t *testing.T) {
	f := newArithFacade(t)
	assert.Equal(t, "arith", f.Name())

	result, err := f.Tokenize("12 + 3x")
	require.NoError(t, err)
	want := []string{`INT"12"`, `WS" "`, `PLUS"+"`, `WS" "`, `INT"3"`}
	if diff := cmp.Diff(want, tokenStrings(t, f, result.Tokens)); diff != "" {
		t.Errorf("Tokenize() tokens mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "x", result.UntokenizedText)

	defaultResult, err := f.TokenizeDefaultChannel("12 + 3x")
	require.NoError(t, err)
	want = []string{`INT"12"`, `PLUS"+"`, `INT"3"`}
	if diff := cmp.Diff(want, tokenStrings(t, f, defaultResult.Tokens)); diff != "" {
		t.Errorf("TokenizeDefaultChannel() tokens mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, result.UntokenizedText, defaultResult.UntokenizedText)
}

func TestTokenizeDefaultChannelIsSubset(t *testing.T) {
	f := newArithFacade(t)
	result, err := f.Tokenize("1 + 2 - 3 ?")
	require.NoError(t, err)

	filtered := make([]*api.Token, 0)
	for _, token := range result.Tokens {
		if token.Channel == DefaultChannel {
			filtered = append(filtered, token)
		}
	}
	assert.Len(t, filtered, 5)
	for ii := 1; ii < len(filtered); ii++ {
		assert.Less(t, filtered[ii-1].TokenIndex, filtered[ii].TokenIndex)
	}

	defaultResult, err := f.TokenizeDefaultChannel("1 + 2 - 3 ?")
	require.NoError(t, err)
	require.Len(t, defaultResult.Tokens, len(filtered))
	for ii, token := range defaultResult.Tokens {
		assert.Equal(t, *filtered[ii], *token)
		assert.Equal(t, DefaultChannel, token.Channel)
	}
	assert.Equal(t, "?", defaultResult.UntokenizedText)
	assert.Equal(t, result.UntokenizedText, defaultResult.UntokenizedText)
}

func TestTokenizeEmpty(t *testing.T) {
	f := newArithFacade(t)
	result, err := f.Tokenize("")
	require.NoError(t, err)
	assert.NotNil(t, result.Tokens)
	assert.Empty(t, result.Tokens)
	assert.Equal(t, "", result.UntokenizedText)
}

func TestTokenizeValidInput(t *testing.T) {
	f := newArithFacade(t)
	for _, text := range []string{"1", "1+2", " 10 - 20\n+ 3 ", "\t\t"} {
		result, err := f.Tokenize(text)
		require.NoError(t, err)
		assert.Equal(t, "", result.UntokenizedText, "input %q", text)
		var sb strings.Builder
		for _, token := range result.Tokens {
			sb.WriteString(token.Text)
		}
		assert.True(t, strings.HasPrefix(text, sb.String()), "input %q", text)
	}
}

func TestTokenizeSingleInvalidCharacter(t *testing.T) {
	f := newArithFacade(t)
	testCases := []struct {
		text   string
		column int
	}{
		{"x", 0},
		{"1 + x", 4},
		{"1 + 2 * 3", 6},
		{"12?34", 2},
		{"1 +\n2 é 3", 6},
	}
	for _, tc := range testCases {
		result, err := f.Tokenize(tc.text)
		require.NoError(t, err)
		assert.Equal(t, tc.text[tc.column:], result.UntokenizedText, "input %q", tc.text)
	}
}

func TestTokenizeFirstFailureWins(t *testing.T) {
	f := newArithFacade(t)
	result, err := f.Tokenize("1 a 2 b 3")
	require.NoError(t, err)
	assert.Equal(t, "a 2 b 3", result.UntokenizedText)

	// Tokens recognized after the failures are still returned.
	assert.Equal(t, []string{`INT"1"`, `WS" "`, `WS" "`, `INT"2"`, `WS" "`, `WS" "`, `INT"3"`},
		tokenStrings(t, f, result.Tokens))
}

func TestTokenizeReader(t *testing.T) {
	f := newArithFacade(t)
	result, err := f.TokenizeReader(strings.NewReader("3-2!"), "buffer")
	require.NoError(t, err)
	assert.Len(t, result.Tokens, 3)
	assert.Equal(t, "!", result.UntokenizedText)

	_, err = f.TokenizeReader(iotest.ErrReader(assert.AnError), "broken")
	require.Error(t, err)
	assert.True(t, errors.Is(err, assert.AnError))
}

func TestRuleNames(t *testing.T) {
	f := newArithFacade(t)
	names, err := f.RuleNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"INT", "PLUS", "MINUS", "WS"}, names)

	_, err = f.Tokenize("1 + 2")
	require.NoError(t, err)
	again, err := f.RuleNames()
	require.NoError(t, err)
	assert.Equal(t, names, again)

	// Same probe, same automaton.
	a1, err := f.ATN()
	require.NoError(t, err)
	a2, err := f.ATN()
	require.NoError(t, err)
	assert.Same(t, a1, a2)
}

func TestStartStateForRule(t *testing.T) {
	f := newArithFacade(t)
	state, err := f.StartStateForRule(1)
	require.NoError(t, err)
	assert.Equal(t, atn.StateRuleStart, state.Kind)
	assert.Equal(t, 1, state.RuleIndex)

	name, err := f.RuleNameForState(state)
	require.NoError(t, err)
	assert.Equal(t, "PLUS", name)

	_, err = f.StartStateForRule(4)
	assert.True(t, errors.Is(err, ErrUnknownRule))
	_, err = f.StartStateForRule(-1)
	assert.True(t, errors.Is(err, ErrUnknownRule))

	a, err := f.ATN()
	require.NoError(t, err)
	_, err = f.RuleNameForState(a.TokensStartState())
	assert.True(t, errors.Is(err, ErrUnknownRule))
	_, err = f.RuleNameForState(nil)
	assert.Error(t, err)
}

func TestVocabulary(t *testing.T) {
	f := newArithFacade(t)
	vocab, err := f.Vocabulary()
	require.NoError(t, err)
	assert.Equal(t, 4, vocab.MaxTokenType())
	assert.Equal(t, "INT", vocab.DisplayName(1))
	assert.Equal(t, "'+'", vocab.DisplayName(2))
	assert.Equal(t, "'-'", vocab.LiteralName(3))
}

func TestLabelFor(t *testing.T) {
	f := newArithFacade(t)
	start, err := f.StartStateForRule(1)
	require.NoError(t, err)
	a, err := f.ATN()
	require.NoError(t, err)
	plus := a.Outgoing(start)[0]
	require.Equal(t, atn.TransitionAtom, plus.Kind)

	label, err := f.LabelFor(plus)
	require.NoError(t, err)
	assert.Equal(t, "+", label)
	again, err := f.LabelFor(plus)
	require.NoError(t, err)
	assert.Equal(t, label, again)

	stats := f.Stats()
	assert.Equal(t, 1, stats.LabelEntries)
	assert.Equal(t, 1, stats.LabelHits)
	assert.Equal(t, 1, stats.LabelMisses)

	// INT starts with a set transition.
	intStart, err := f.StartStateForRule(0)
	require.NoError(t, err)
	var set *atn.Transition
	for _, tr := range a.Outgoing(intStart) {
		for _, id := range a.Closure(tr.Target) {
			for _, next := range a.Outgoing(a.State(id)) {
				if next.Kind == atn.TransitionSet {
					set = next
				}
			}
		}
	}
	require.NotNil(t, set)
	_, err = f.LabelFor(set)
	assert.True(t, errors.Is(err, ErrNotAtomTransition))
	_, err = f.LabelFor(nil)
	assert.True(t, errors.Is(err, ErrNotAtomTransition))

	// Non-ASCII code points decode to their UTF-8 string.
	label, err = f.LabelFor(&atn.Transition{ID: 1000, Kind: atn.TransitionAtom, Label: 'λ'})
	require.NoError(t, err)
	assert.Equal(t, "λ", label)
}

func TestSuggestionCache(t *testing.T) {
	f := newArithFacade(t)
	state, err := f.StartStateForRule(1)
	require.NoError(t, err)

	cache := f.SuggestionCache()
	assert.Same(t, cache, f.SuggestionCache())
	key := SuggestionKey{Rule: "PLUS", State: state.ID, Text: "1 "}
	_, found := cache.Get(key)
	assert.False(t, found)

	cache.Put(key, NewSuggestionSet("+"))
	cache.Put(key, NewSuggestionSet("+", "-"))
	got, found := cache.Get(key)
	require.True(t, found)
	assert.Equal(t, []string{"+", "-"}, got.Sorted())
	assert.True(t, got.Contains("-"))
	assert.Equal(t, 1, cache.Len())
	assert.Equal(t, 1, f.Stats().SuggestionEntries)
}

func TestBoundedSuggestionCache(t *testing.T) {
	f := newArithFacade(t).WithMaxSuggestionEntries(2)
	cache := f.SuggestionCache()
	for _, text := range []string{"a", "b", "c"} {
		cache.Put(SuggestionKey{Rule: "INT", Text: text}, NewSuggestionSet(text))
	}
	assert.Equal(t, 2, cache.Len())
	_, found := cache.Get(SuggestionKey{Rule: "INT", Text: "a"})
	assert.False(t, found)
	_, found = cache.Get(SuggestionKey{Rule: "INT", Text: "c"})
	assert.True(t, found)
}

func TestIsValidSuggestion(t *testing.T) {
	f := newArithFacade(t)
	assert.True(t, f.IsValidSuggestion("+"))
	assert.False(t, f.IsValidSuggestion("_"))
	assert.False(t, f.IsValidSuggestion("a b"))
}

func TestStatsString(t *testing.T) {
	stats := CacheStats{LabelEntries: 1200, LabelHits: 1234567, LabelMisses: 3, SuggestionEntries: 0}
	assert.Equal(t, "labels: 1,200 entries (1,234,567 hits, 3 misses); suggestions: 0 entries", stats.String())
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	f := newArithFacade(t).WithMetrics(metrics)

	_, err := f.Tokenize("1 + 2")
	require.NoError(t, err)
	_, err = f.TokenizeDefaultChannel("1 + x")
	require.NoError(t, err)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.TokenizationsTotal.WithLabelValues("arith")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.LexicalFailuresTotal.WithLabelValues("arith")))

	start, err := f.StartStateForRule(2)
	require.NoError(t, err)
	a, err := f.ATN()
	require.NoError(t, err)
	minus := a.Outgoing(start)[0]
	for i := 0; i < 3; i++ {
		_, err = f.LabelFor(minus)
		require.NoError(t, err)
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.LabelCacheLookups.WithLabelValues("arith", ResultMiss)))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.LabelCacheLookups.WithLabelValues("arith", ResultHit)))
}

// flakyFactory fails to create the first `failures` tokenizers.
type flakyFactory struct {
	api.TokenizerFactory
	failures int
	created  int
}

func (ff *flakyFactory) CreateTokenizer(input api.CharStream) (api.Tokenizer, error) {
	if ff.failures > 0 {
		ff.failures--
		return nil, errors.New("out of tokenizers")
	}
	ff.created++
	return ff.TokenizerFactory.CreateTokenizer(input)
}

func newFlakyFacade(t *testing.T, failures int) (*Facade, *flakyFactory) {
	config, err := api.ParseGrammarFile(arithFile)
	require.NoError(t, err)
	base, err := NewFactory(config)
	require.NoError(t, err)
	ff := &flakyFactory{TokenizerFactory: base, failures: failures}
	return New(ff), ff
}

func TestTokenizerCreationFailure(t *testing.T) {
	f, _ := newFlakyFacade(t, 1)
	_, err := f.Tokenize("1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of tokenizers")

	result, err := f.Tokenize("1")
	require.NoError(t, err)
	assert.Len(t, result.Tokens, 1)
}

func TestShapeProbeMemoized(t *testing.T) {
	f, ff := newFlakyFacade(t, 1)
	_, err := f.RuleNames()
	require.Error(t, err)

	// The failure isn't memoized, the success is.
	for i := 0; i < 3; i++ {
		names, err := f.RuleNames()
		require.NoError(t, err)
		assert.Len(t, names, 4)
		_, err = f.Vocabulary()
		require.NoError(t, err)
	}
	assert.Equal(t, 1, ff.created)

	// Tokenize always uses a fresh tokenizer.
	_, err = f.Tokenize("1")
	require.NoError(t, err)
	_, err = f.Tokenize("2")
	require.NoError(t, err)
	assert.Equal(t, 3, ff.created)
}

func TestNewFactory(t *testing.T) {
	config, err := api.ParseGrammarFile(arithFile)
	require.NoError(t, err)

	config.FactoryClass = "no-such-class"
	_, err = NewFactory(config)
	assert.Error(t, err)

	config.FactoryClass = ""
	factory, err := NewFactory(config)
	require.NoError(t, err)
	assert.True(t, factory.IsValidSuggestion("+"))

	var gotConfig *api.GrammarConfig
	RegisterFactoryClass("test-class", func(config *api.GrammarConfig) (api.TokenizerFactory, error) {
		gotConfig = config
		return factory, nil
	})
	defer delete(registerOfClasses, "test-class")
	config.FactoryClass = "test-class"
	got, err := NewFactory(config)
	require.NoError(t, err)
	assert.Same(t, config, gotConfig)
	assert.Equal(t, factory, got)

	_, err = NewFromFile(filepath.Join("testdata", "missing.yaml"))
	assert.Error(t, err)
}
