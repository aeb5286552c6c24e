package model

// ViolationNode is one DOM element that failed an accessibility rule.
type ViolationNode struct {
	// HTML is the element rendered as raw markup.
	HTML string `json:"html"`

	// Target holds the CSS selectors that locate the element.
	// Nested frames produce more than one selector.
	Target []string `json:"target,omitempty"`
}

// Selector returns the node's target selectors joined into a single key.
func (n ViolationNode) Selector() string {
	switch len(n.Target) {
	case 0:
		return ""
	case 1:
		return n.Target[0]
	}
	s := n.Target[0]
	for _, t := range n.Target[1:] {
		s += " >>> " + t
	}
	return s
}

// Violation is one accessibility rule failure detected on a page.
type Violation struct {
	// ID is the rule identifier, e.g. "image-alt".
	ID string `json:"id"`

	// Description explains what the rule checks.
	Description string `json:"description"`

	// Help is a short summary of how to fix the failure.
	Help string `json:"help,omitempty"`

	// HelpURL points to the rule documentation and its WCAG reference.
	HelpURL string `json:"help_url"`

	// Impact is the severity reported by the engine.
	Impact Impact `json:"impact"`

	// Tags are the rule tags, e.g. "wcag2a" or "best-practice".
	Tags []string `json:"tags,omitempty"`

	// Nodes are the offending elements in engine order.
	Nodes []ViolationNode `json:"nodes"`
}
