package model

// Impact is the severity the audit engine assigns to a violation.
//
// Design decision: Impact is a string type rather than an iota enum. The value
// comes from the audit engine and is rendered verbatim, so an engine that
// introduces a new level still produces a faithful report. Rank provides the
// ordering needed for summaries.
type Impact string

const (
	// ImpactMinor is a violation with little effect on users.
	ImpactMinor Impact = "minor"
	// ImpactModerate is a violation that makes content harder to use.
	ImpactModerate Impact = "moderate"
	// ImpactSerious is a violation that blocks some users from some content.
	ImpactSerious Impact = "serious"
	// ImpactCritical is a violation that blocks users from content entirely.
	ImpactCritical Impact = "critical"
)

// KnownImpacts lists the impact levels in ascending order of severity.
var KnownImpacts = []Impact{ImpactMinor, ImpactModerate, ImpactSerious, ImpactCritical}

// String returns the impact as reported by the engine.
func (i Impact) String() string {
	return string(i)
}

// Rank returns a sortable weight for the impact.
// Unknown values rank below ImpactMinor.
func (i Impact) Rank() int {
	switch i {
	case ImpactMinor:
		return 1
	case ImpactModerate:
		return 2
	case ImpactSerious:
		return 3
	case ImpactCritical:
		return 4
	default:
		return 0
	}
}
