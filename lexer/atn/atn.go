// Package atn holds the augmented transition network (ATN) of a lexer: the finite-state graph
// compiled from a grammar's lexical rules.
//
// States and transitions live in arenas owned by the ATN and are addressed by stable integer ids
// (StateID and TransitionID). Once built an ATN is immutable, so ids can be used as cache keys for
// the lifetime of the grammar.
package atn

import "fmt"

// StateID indexes a State in its ATN.
type StateID int

// TransitionID indexes a Transition in its ATN.
type TransitionID int

// InvalidState is returned where no state applies.
const InvalidState StateID = -1

// StateKind classifies states.
type StateKind int

const (
	StateBasic StateKind = iota
	StateTokensStart
	StateRuleStart
	StateRuleStop
)

// String implements fmt.Stringer.
func (k StateKind) String() string {
	switch k {
	case StateBasic:
		return "basic"
	case StateTokensStart:
		return "tokens-start"
	case StateRuleStart:
		return "rule-start"
	case StateRuleStop:
		return "rule-stop"
	}
	return fmt.Sprintf("StateKind(%d)", int(k))
}

// TransitionKind classifies transitions.
type TransitionKind int

const (
	// TransitionEpsilon consumes no input.
	TransitionEpsilon TransitionKind = iota

	// TransitionAtom consumes exactly one character equal to Label.
	TransitionAtom

	// TransitionSet consumes one character inside any of Intervals.
	TransitionSet

	// TransitionNotSet consumes one character outside all Intervals.
	TransitionNotSet

	// TransitionWildcard consumes any one character.
	TransitionWildcard
)

// String implements fmt.Stringer.
func (k TransitionKind) String() string {
	switch k {
	case TransitionEpsilon:
		return "epsilon"
	case TransitionAtom:
		return "atom"
	case TransitionSet:
		return "set"
	case TransitionNotSet:
		return "not-set"
	case TransitionWildcard:
		return "wildcard"
	}
	return fmt.Sprintf("TransitionKind(%d)", int(k))
}

// Interval is an inclusive range of code points.
type Interval struct {
	Lo, Hi rune
}

// Contains reports whether r is within the interval.
func (iv Interval) Contains(r rune) bool {
	return iv.Lo <= r && r <= iv.Hi
}

// State is a node of the ATN.
type State struct {
	ID   StateID
	Kind StateKind

	// RuleIndex of the rule owning this state, or -1 for the tokens-start state.
	RuleIndex int

	// Transitions leaving this state, in insertion order.
	Transitions []TransitionID
}

// String implements fmt.Stringer.
func (s *State) String() string {
	return fmt.Sprintf("%s#%d(rule=%d)", s.Kind, s.ID, s.RuleIndex)
}

// Transition is an edge of the ATN.
type Transition struct {
	ID     TransitionID
	Kind   TransitionKind
	Target StateID

	// Label is the code point consumed by TransitionAtom transitions.
	Label rune

	// Intervals consumed (or excluded) by TransitionSet and TransitionNotSet transitions.
	Intervals []Interval
}

// IsEpsilon reports whether the transition consumes no input.
func (t *Transition) IsEpsilon() bool {
	return t.Kind == TransitionEpsilon
}

// Matches reports whether the transition consumes r.
func (t *Transition) Matches(r rune) bool {
	switch t.Kind {
	case TransitionAtom:
		return r == t.Label
	case TransitionSet:
		return inIntervals(t.Intervals, r)
	case TransitionNotSet:
		return !inIntervals(t.Intervals, r)
	case TransitionWildcard:
		return true
	}
	return false
}

func inIntervals(intervals []Interval, r rune) bool {
	for _, iv := range intervals {
		if iv.Contains(r) {
			return true
		}
	}
	return false
}

// ATN is an immutable lexer automaton. Create it with a Builder.
type ATN struct {
	states           []State
	transitions      []Transition
	ruleToStartState []StateID
	ruleToStopState  []StateID
	tokensStart      StateID
}

// NumStates in the ATN. Valid StateIDs are in [0, NumStates).
func (a *ATN) NumStates() int { return len(a.states) }

// NumTransitions in the ATN. Valid TransitionIDs are in [0, NumTransitions).
func (a *ATN) NumTransitions() int { return len(a.transitions) }

// NumRules in the ATN.
func (a *ATN) NumRules() int { return len(a.ruleToStartState) }

// State returns the state with the given id, or nil if it is out of range.
func (a *ATN) State(id StateID) *State {
	if id < 0 || int(id) >= len(a.states) {
		return nil
	}
	return &a.states[id]
}

// Transition returns the transition with the given id, or nil if it is out of range.
func (a *ATN) Transition(id TransitionID) *Transition {
	if id < 0 || int(id) >= len(a.transitions) {
		return nil
	}
	return &a.transitions[id]
}

// Outgoing returns the transitions leaving s.
func (a *ATN) Outgoing(s *State) []*Transition {
	out := make([]*Transition, 0, len(s.Transitions))
	for _, id := range s.Transitions {
		out = append(out, &a.transitions[id])
	}
	return out
}

// TokensStartState is the entry state of the whole lexer: it has one epsilon transition to the
// start state of each rule, in rule order.
func (a *ATN) TokensStartState() *State {
	return &a.states[a.tokensStart]
}

// RuleStartState returns the entry state of rule ruleIndex, or nil if the rule doesn't exist.
func (a *ATN) RuleStartState(ruleIndex int) *State {
	if ruleIndex < 0 || ruleIndex >= len(a.ruleToStartState) {
		return nil
	}
	return &a.states[a.ruleToStartState[ruleIndex]]
}

// RuleStopState returns the accepting state of rule ruleIndex, or nil if the rule doesn't exist.
func (a *ATN) RuleStopState(ruleIndex int) *State {
	if ruleIndex < 0 || ruleIndex >= len(a.ruleToStopState) {
		return nil
	}
	return &a.states[a.ruleToStopState[ruleIndex]]
}

// Closure returns the states reachable from ids through epsilon transitions only, ids included.
// The order is deterministic: depth-first, following transitions in insertion order.
func (a *ATN) Closure(ids ...StateID) []StateID {
	seen := make(map[StateID]bool, len(ids))
	var out []StateID
	var visit func(id StateID)
	visit = func(id StateID) {
		if seen[id] {
			return
		}
		seen[id] = true
		out = append(out, id)
		for _, tid := range a.states[id].Transitions {
			if t := &a.transitions[tid]; t.IsEpsilon() {
				visit(t.Target)
			}
		}
	}
	for _, id := range ids {
		visit(id)
	}
	return out
}
