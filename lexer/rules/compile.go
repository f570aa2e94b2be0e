package rules

import (
	"regexp/syntax"
	"unicode"

	"github.com/gomlx/go-autocomplete/lexer/api"
	"github.com/gomlx/go-autocomplete/lexer/atn"
	"github.com/pkg/errors"
)

// grammar is the compiled, immutable form of a GrammarConfig. It is shared by every Tokenizer
// created by the same Factory.
type grammar struct {
	name       string
	atn        *atn.ATN
	ruleNames  []string
	channels   []int
	skip       []bool
	vocabulary *api.TokenVocabulary
}

// compileGrammar builds the ATN of all rules in config, in order.
func compileGrammar(config *api.GrammarConfig) (*grammar, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	g := &grammar{name: config.Name}
	literalNames := make([]string, len(config.Rules)+1)
	symbolicNames := make([]string, len(config.Rules)+1)
	b := atn.NewBuilder()
	for _, rule := range config.Rules {
		ruleIndex, start, stop := b.AddRule()
		c := &ruleCompiler{builder: b, ruleIndex: ruleIndex}
		if rule.Literal != "" {
			c.literal([]rune(rule.Literal), false, start, stop)
			literalNames[ruleIndex+1] = "'" + rule.Literal + "'"
		} else {
			re, err := syntax.Parse(rule.Pattern, syntax.Perl)
			if err != nil {
				return nil, errors.Wrapf(err, "grammar %q: rule %q has invalid pattern", config.Name, rule.Name)
			}
			if err = c.compile(re.Simplify(), start, stop); err != nil {
				return nil, errors.WithMessagef(err, "grammar %q: rule %q", config.Name, rule.Name)
			}
		}
		symbolicNames[ruleIndex+1] = rule.Name
		channel, _ := rule.ChannelNumber() // Already validated.
		g.ruleNames = append(g.ruleNames, rule.Name)
		g.channels = append(g.channels, channel)
		g.skip = append(g.skip, rule.Skip)
	}

	var err error
	g.atn, err = b.Build()
	if err != nil {
		return nil, err
	}
	for ruleIndex, name := range g.ruleNames {
		start, stop := g.atn.RuleStartState(ruleIndex), g.atn.RuleStopState(ruleIndex)
		for _, id := range g.atn.Closure(start.ID) {
			if id == stop.ID {
				return nil, errors.Errorf("grammar %q: rule %q can match the empty string", config.Name, name)
			}
		}
	}
	g.vocabulary = api.NewVocabulary(literalNames, symbolicNames)
	return g, nil
}

// ruleCompiler translates one rule's regexp into ATN states owned by ruleIndex.
type ruleCompiler struct {
	builder   *atn.Builder
	ruleIndex int
}

// compile adds states and transitions so that paths from `from` to `to` match exactly re.
func (c *ruleCompiler) compile(re *syntax.Regexp, from, to atn.StateID) error {
	b := c.builder
	switch re.Op {
	case syntax.OpEmptyMatch:
		b.Epsilon(from, to)

	case syntax.OpLiteral:
		c.literal(re.Rune, re.Flags&syntax.FoldCase != 0, from, to)

	case syntax.OpCharClass:
		intervals := make([]atn.Interval, 0, len(re.Rune)/2)
		for ii := 0; ii+1 < len(re.Rune); ii += 2 {
			intervals = append(intervals, atn.Interval{Lo: re.Rune[ii], Hi: re.Rune[ii+1]})
		}
		b.Set(from, to, intervals, false)

	case syntax.OpAnyCharNotNL:
		b.Set(from, to, []atn.Interval{{Lo: '\n', Hi: '\n'}}, true)

	case syntax.OpAnyChar:
		b.Wildcard(from, to)

	case syntax.OpCapture:
		return c.compile(re.Sub[0], from, to)

	case syntax.OpConcat:
		if len(re.Sub) == 0 {
			b.Epsilon(from, to)
			return nil
		}
		current := from
		for ii, sub := range re.Sub {
			next := to
			if ii < len(re.Sub)-1 {
				next = b.AddState(c.ruleIndex)
			}
			if err := c.compile(sub, current, next); err != nil {
				return err
			}
			current = next
		}

	case syntax.OpAlternate:
		for _, sub := range re.Sub {
			if err := c.compile(sub, from, to); err != nil {
				return err
			}
		}

	case syntax.OpQuest:
		if err := c.compile(re.Sub[0], from, to); err != nil {
			return err
		}
		b.Epsilon(from, to)

	case syntax.OpStar, syntax.OpPlus:
		entry, exit := b.AddState(c.ruleIndex), b.AddState(c.ruleIndex)
		b.Epsilon(from, entry)
		if err := c.compile(re.Sub[0], entry, exit); err != nil {
			return err
		}
		b.Epsilon(exit, entry)
		if re.Op == syntax.OpStar {
			b.Epsilon(entry, to)
		} else {
			b.Epsilon(exit, to)
		}

	default:
		return errors.Errorf("unsupported pattern construct %q", re.String())
	}
	return nil
}

// literal chains one transition per rune from `from` to `to`. With foldCase every rune matches
// its whole case-folding orbit.
func (c *ruleCompiler) literal(runes []rune, foldCase bool, from, to atn.StateID) {
	b := c.builder
	if len(runes) == 0 {
		b.Epsilon(from, to)
		return
	}
	current := from
	for ii, r := range runes {
		next := to
		if ii < len(runes)-1 {
			next = b.AddState(c.ruleIndex)
		}
		if foldCase && unicode.SimpleFold(r) != r {
			var orbit []atn.Interval
			for f := r; ; {
				orbit = append(orbit, atn.Interval{Lo: f, Hi: f})
				if f = unicode.SimpleFold(f); f == r {
					break
				}
			}
			b.Set(current, next, orbit, false)
		} else {
			b.Atom(current, next, r)
		}
		current = next
	}
}
