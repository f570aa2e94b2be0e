package api

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gomlx/go-autocomplete/internal/files"
	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"
)

// RuleConfig describes one lexical rule. Exactly one of Literal or Pattern must be set.
type RuleConfig struct {
	Name string `json:"name"`

	// Literal is matched verbatim.
	Literal string `json:"literal,omitempty"`

	// Pattern is a regular expression in Go's regexp/syntax (no anchors or word boundaries).
	Pattern string `json:"pattern,omitempty"`

	// Channel is "default", "hidden" or a channel number. Empty means "default".
	Channel string `json:"channel,omitempty"`

	// Skip drops matched tokens from the tokenizer output.
	Skip bool `json:"skip,omitempty"`
}

// ChannelNumber parses Channel.
func (r *RuleConfig) ChannelNumber() (int, error) {
	switch strings.ToLower(r.Channel) {
	case "", "default":
		return DefaultChannel, nil
	case "hidden":
		return HiddenChannel, nil
	}
	n, err := strconv.Atoi(r.Channel)
	if err != nil || n < 0 {
		return 0, errors.Errorf("rule %q has invalid channel %q", r.Name, r.Channel)
	}
	return n, nil
}

// GrammarConfig holds the contents of a grammar file: the lexical rules and the suggestion
// validation settings of one grammar.
//
// The extra field ConfigFile holds the path of the file it was read from, if any.
type GrammarConfig struct {
	ConfigFile string `json:"-"`

	Name string `json:"name"`

	// FactoryClass selects the registered TokenizerFactory constructor.
	FactoryClass string `json:"factory_class"`

	// Rules in priority order: on equally long matches the earlier rule wins.
	Rules []RuleConfig `json:"rules"`

	// SuggestionPattern, if set, must match a whole candidate for it to be a valid suggestion.
	SuggestionPattern string `json:"suggestion_pattern,omitempty"`

	// InvalidSuggestions are never valid suggestions.
	InvalidSuggestions []string `json:"invalid_suggestions,omitempty"`
}

// Validate checks the rule table is well-formed.
func (c *GrammarConfig) Validate() error {
	if len(c.Rules) == 0 {
		return errors.Errorf("grammar %q has no rules", c.Name)
	}
	seen := make(map[string]bool, len(c.Rules))
	for ii := range c.Rules {
		rule := &c.Rules[ii]
		if rule.Name == "" {
			return errors.Errorf("grammar %q: rule #%d has no name", c.Name, ii)
		}
		if seen[rule.Name] {
			return errors.Errorf("grammar %q: rule %q defined twice", c.Name, rule.Name)
		}
		seen[rule.Name] = true
		if (rule.Literal == "") == (rule.Pattern == "") {
			return errors.Errorf("grammar %q: rule %q must set exactly one of literal or pattern", c.Name, rule.Name)
		}
		if _, err := rule.ChannelNumber(); err != nil {
			return errors.WithMessagef(err, "grammar %q", c.Name)
		}
	}
	return nil
}

// ParseGrammarFile parses the given file into a GrammarConfig structure. Files ending in ".yaml"
// or ".yml" are parsed as YAML, anything else as JSON. A leading "~" is expanded.
func ParseGrammarFile(filePath string) (*GrammarConfig, error) {
	resolved, err := files.ResolvePath(filePath)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(resolved)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read file %q", resolved)
	}
	var config *GrammarConfig
	switch strings.ToLower(filepath.Ext(resolved)) {
	case ".yaml", ".yml":
		config, err = ParseGrammarYAML(content)
	default:
		config, err = ParseGrammarContent(content)
	}
	if err != nil {
		return nil, errors.WithMessagef(err, "read from file %q", resolved)
	}
	config.ConfigFile = resolved
	return config, nil
}

// ParseGrammarContent parses the given json content into a validated GrammarConfig structure.
func ParseGrammarContent(jsonContent []byte) (*GrammarConfig, error) {
	config := &GrammarConfig{}
	err := json.Unmarshal(jsonContent, config)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse grammar json content")
	}
	if err = config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// ParseGrammarYAML parses the given yaml content into a validated GrammarConfig structure.
func ParseGrammarYAML(yamlContent []byte) (*GrammarConfig, error) {
	jsonContent, err := yaml.YAMLToJSON(yamlContent)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse grammar yaml content")
	}
	return ParseGrammarContent(jsonContent)
}
