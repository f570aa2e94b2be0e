package lexer

import (
	"fmt"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/gomlx/go-autocomplete/lexer/atn"
	lru "github.com/hashicorp/golang-lru/v2"
	"k8s.io/klog/v2"
)

// SuggestionKey identifies a suggestion computation: the rule being completed, the automaton state
// reached within it, and the partial text typed so far.
type SuggestionKey struct {
	Rule  string
	State atn.StateID
	Text  string
}

// SuggestionSet is a set of suggestion strings.
type SuggestionSet map[string]struct{}

// NewSuggestionSet returns a set holding items.
func NewSuggestionSet(items ...string) SuggestionSet {
	s := make(SuggestionSet, len(items))
	s.Add(items...)
	return s
}

// Add items to the set.
func (s SuggestionSet) Add(items ...string) {
	for _, item := range items {
		s[item] = struct{}{}
	}
}

// Contains reports whether item is in the set.
func (s SuggestionSet) Contains(item string) bool {
	_, found := s[item]
	return found
}

// Sorted returns the items in lexicographic order.
func (s SuggestionSet) Sorted() []string {
	items := make([]string, 0, len(s))
	for item := range s {
		items = append(items, item)
	}
	sort.Strings(items)
	return items
}

// SuggestionCache maps SuggestionKey to the suggestions computed for it. It is populated and read
// by the suggestion engine; keys are unique and the last Put wins.
//
// By default entries are never evicted, since grammars are immutable. If created with a bound, the
// least recently used entries are evicted beyond it.
//
// SuggestionCache is not safe for concurrent use.
type SuggestionCache struct {
	entries map[SuggestionKey]SuggestionSet
	bounded *lru.Cache[SuggestionKey, SuggestionSet]
}

// newSuggestionCache returns an unbounded cache if maxEntries <= 0.
func newSuggestionCache(maxEntries int) *SuggestionCache {
	if maxEntries > 0 {
		bounded, err := lru.New[SuggestionKey, SuggestionSet](maxEntries)
		if err == nil {
			return &SuggestionCache{bounded: bounded}
		}
		klog.ErrorS(err, "Failed to create bounded suggestion cache, using an unbounded one", "maxEntries", maxEntries)
	}
	return &SuggestionCache{entries: make(map[SuggestionKey]SuggestionSet)}
}

// Get returns the suggestions stored for key.
func (c *SuggestionCache) Get(key SuggestionKey) (SuggestionSet, bool) {
	if c.bounded != nil {
		return c.bounded.Get(key)
	}
	set, found := c.entries[key]
	return set, found
}

// Put stores suggestions for key, replacing any previous value.
func (c *SuggestionCache) Put(key SuggestionKey, suggestions SuggestionSet) {
	if c.bounded != nil {
		c.bounded.Add(key, suggestions)
		return
	}
	c.entries[key] = suggestions
}

// Len returns the number of entries.
func (c *SuggestionCache) Len() int {
	if c.bounded != nil {
		return c.bounded.Len()
	}
	return len(c.entries)
}

// CacheStats is a snapshot of a Facade's caches.
type CacheStats struct {
	LabelEntries      int
	LabelHits         int
	LabelMisses       int
	SuggestionEntries int
}

// String implements fmt.Stringer.
func (s CacheStats) String() string {
	return fmt.Sprintf("labels: %s entries (%s hits, %s misses); suggestions: %s entries",
		humanize.Comma(int64(s.LabelEntries)), humanize.Comma(int64(s.LabelHits)),
		humanize.Comma(int64(s.LabelMisses)), humanize.Comma(int64(s.SuggestionEntries)))
}
