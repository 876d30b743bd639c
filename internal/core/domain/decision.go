package domain

// Decision is the estimator's actuation intent for one sample.
type Decision int

const (
	DecisionNone Decision = iota
	DecisionTrigger
	DecisionRelease
)

func (d Decision) String() string {
	switch d {
	case DecisionTrigger:
		return "trigger"
	case DecisionRelease:
		return "release"
	default:
		return "none"
	}
}
