package audit

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nao1215/a11yscan/internal/model"
)

// engineResults mirrors the subset of the axe results document we consume.
// Pointer fields distinguish a missing value from an empty one.
type engineResults struct {
	Violations *[]engineViolation `json:"violations"`
}

type engineViolation struct {
	ID          string        `json:"id"`
	Description *string       `json:"description"`
	Help        string        `json:"help"`
	HelpURL     *string       `json:"helpUrl"`
	Impact      *string       `json:"impact"`
	Tags        []string      `json:"tags"`
	Nodes       *[]engineNode `json:"nodes"`
}

type engineNode struct {
	HTML   *string           `json:"html"`
	Target []json.RawMessage `json:"target"`
}

// decodeViolations validates raw engine output and converts it.
func decodeViolations(raw json.RawMessage) ([]model.Violation, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, fmt.Errorf("%w: empty result", ErrMalformedResult)
	}

	var res engineResults
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResult, err)
	}
	if res.Violations == nil {
		return nil, fmt.Errorf("%w: violations is missing", ErrMalformedResult)
	}

	out := make([]model.Violation, 0, len(*res.Violations))
	for i, ev := range *res.Violations {
		v, err := ev.toModel()
		if err != nil {
			return nil, fmt.Errorf("%w: violations[%d]: %w", ErrMalformedResult, i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func (ev engineViolation) toModel() (model.Violation, error) {
	switch {
	case ev.Description == nil:
		return model.Violation{}, errMissing("description")
	case ev.HelpURL == nil:
		return model.Violation{}, errMissing("helpUrl")
	case ev.Impact == nil:
		return model.Violation{}, errMissing("impact")
	case ev.Nodes == nil:
		return model.Violation{}, errMissing("nodes")
	}

	nodes := make([]model.ViolationNode, 0, len(*ev.Nodes))
	for j, n := range *ev.Nodes {
		if n.HTML == nil {
			return model.Violation{}, fmt.Errorf("nodes[%d]: %w", j, errMissing("html"))
		}
		nodes = append(nodes, model.ViolationNode{
			HTML:   *n.HTML,
			Target: flattenTarget(n.Target),
		})
	}

	return model.Violation{
		ID:          ev.ID,
		Description: *ev.Description,
		Help:        ev.Help,
		HelpURL:     *ev.HelpURL,
		Impact:      model.Impact(*ev.Impact),
		Tags:        ev.Tags,
		Nodes:       nodes,
	}, nil
}

func errMissing(field string) error {
	return fmt.Errorf("%s is missing", field)
}

// flattenTarget turns axe selectors into strings. Shadow DOM selectors arrive
// as nested arrays and are joined with " >> ". Entries of any other shape are
// dropped since the target is informational.
func flattenTarget(target []json.RawMessage) []string {
	if len(target) == 0 {
		return nil
	}
	out := make([]string, 0, len(target))
	for _, raw := range target {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			out = append(out, s)
			continue
		}
		var path []string
		if err := json.Unmarshal(raw, &path); err == nil && len(path) > 0 {
			out = append(out, strings.Join(path, " >> "))
		}
	}
	return out
}
