package atn

import "github.com/pkg/errors"

// Builder incrementally constructs an ATN. It is not reusable: after Build it returns errors.
type Builder struct {
	atn   *ATN
	built bool
}

// NewBuilder returns a Builder whose ATN already holds the tokens-start state.
func NewBuilder() *Builder {
	b := &Builder{atn: &ATN{}}
	b.atn.tokensStart = b.addState(StateTokensStart, -1)
	return b
}

func (b *Builder) addState(kind StateKind, ruleIndex int) StateID {
	id := StateID(len(b.atn.states))
	b.atn.states = append(b.atn.states, State{ID: id, Kind: kind, RuleIndex: ruleIndex})
	return id
}

func (b *Builder) addTransition(from StateID, t Transition) TransitionID {
	t.ID = TransitionID(len(b.atn.transitions))
	b.atn.transitions = append(b.atn.transitions, t)
	b.atn.states[from].Transitions = append(b.atn.states[from].Transitions, t.ID)
	return t.ID
}

// AddRule creates the start and stop states of a new rule and links the tokens-start state to it.
// The rule index is the number of rules added before it.
func (b *Builder) AddRule() (ruleIndex int, start, stop StateID) {
	ruleIndex = len(b.atn.ruleToStartState)
	start = b.addState(StateRuleStart, ruleIndex)
	stop = b.addState(StateRuleStop, ruleIndex)
	b.atn.ruleToStartState = append(b.atn.ruleToStartState, start)
	b.atn.ruleToStopState = append(b.atn.ruleToStopState, stop)
	b.Epsilon(b.atn.tokensStart, start)
	return
}

// AddState creates a basic state owned by ruleIndex.
func (b *Builder) AddState(ruleIndex int) StateID {
	return b.addState(StateBasic, ruleIndex)
}

// Epsilon adds an epsilon transition.
func (b *Builder) Epsilon(from, to StateID) TransitionID {
	return b.addTransition(from, Transition{Kind: TransitionEpsilon, Target: to})
}

// Atom adds a transition consuming exactly r.
func (b *Builder) Atom(from, to StateID, r rune) TransitionID {
	return b.addTransition(from, Transition{Kind: TransitionAtom, Target: to, Label: r})
}

// Set adds a transition consuming one character in (or, if negated, outside) intervals.
func (b *Builder) Set(from, to StateID, intervals []Interval, negated bool) TransitionID {
	kind := TransitionSet
	if negated {
		kind = TransitionNotSet
	}
	ivs := make([]Interval, len(intervals))
	copy(ivs, intervals)
	return b.addTransition(from, Transition{Kind: kind, Target: to, Intervals: ivs})
}

// Wildcard adds a transition consuming any character.
func (b *Builder) Wildcard(from, to StateID) TransitionID {
	return b.addTransition(from, Transition{Kind: TransitionWildcard, Target: to})
}

// Build returns the finished ATN. Later calls to Build fail.
func (b *Builder) Build() (*ATN, error) {
	if b.built {
		return nil, errors.New("atn.Builder.Build called twice")
	}
	b.built = true
	return b.atn, nil
}
