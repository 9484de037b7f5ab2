package segment

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Mode tells the segmenter what to do with a node kind.
type Mode string

const (
	// ModeInclude checks the node's text.
	ModeInclude Mode = "include"
	// ModeExclude hides the node from the checker entirely.
	ModeExclude Mode = "exclude"
	// ModeTransform replaces the node with a placeholder the checker reads
	// instead of the original text.
	ModeTransform Mode = "transform"
)

// Rule is the treatment of one node kind.
type Rule struct {
	Mode Mode   `toml:"mode"`
	As   string `toml:"as"`
}

// Rules maps goldmark node kind names (ast.NodeKind.String(), e.g.
// "CodeSpan", "FencedCodeBlock") to a Rule. Kinds without an entry are
// included.
type Rules struct {
	nodes map[string]Rule
}

var defaultRules = map[string]Rule{
	"CodeBlock":       {Mode: ModeExclude},
	"FencedCodeBlock": {Mode: ModeExclude},
	"HTMLBlock":       {Mode: ModeExclude},
	"RawHTML":         {Mode: ModeExclude},
	"AutoLink":        {Mode: ModeExclude},
	"Image":           {Mode: ModeExclude},
	"CodeSpan":        {Mode: ModeTransform, As: "code"},
	"TaskCheckBox":    {Mode: ModeExclude},
	"FootnoteLink":    {Mode: ModeExclude},
}

// DefaultRules returns the built-in rule set for Markdown.
func DefaultRules() *Rules {
	return &Rules{nodes: maps.Clone(defaultRules)}
}

// NewRules layers overrides on top of the defaults.
func NewRules(overrides map[string]Rule) (*Rules, error) {
	r := DefaultRules()
	for kind, rule := range overrides {
		kind = strings.TrimSpace(kind)
		if kind == "" {
			return nil, fmt.Errorf("rule with empty node kind")
		}
		rule.Mode = Mode(strings.ToLower(string(rule.Mode)))
		switch rule.Mode {
		case ModeInclude, ModeExclude:
		case ModeTransform:
			if rule.As == "" {
				return nil, fmt.Errorf("node %s: transform needs a non-empty \"as\"", kind)
			}
		case "":
			return nil, fmt.Errorf("node %s: missing mode", kind)
		default:
			return nil, fmt.Errorf("node %s: invalid mode %q (expected include|exclude|transform)", kind, rule.Mode)
		}
		r.nodes[kind] = rule
	}
	return r, nil
}

// For returns the rule for a node kind.
func (r *Rules) For(kind string) Rule {
	if r == nil {
		return Rule{Mode: ModeInclude}
	}
	if rule, ok := r.nodes[kind]; ok {
		return rule
	}
	return Rule{Mode: ModeInclude}
}

// kinds lists node kinds with an explicit rule, sorted.
func (r *Rules) kinds() []string {
	if r == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(r.nodes))
}
