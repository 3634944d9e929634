package projection

import (
	"strings"

	"github.com/gear6io/oraport/pipeline/config"
)

// DefaultNegativeEpsilon is the threshold below which numeric values are
// treated as decode defects and exported as NULL
const DefaultNegativeEpsilon = config.DEFAULT_EPSILON

// Policy decides how each column is projected. Column names are matched
// case-insensitively.
type Policy struct {
	Exclude             map[string]struct{}
	NullReplacement     map[string]struct{}
	CoerceNumericToText bool
	NegativeEpsilon     float64
}

// NewPolicy builds a policy from column name lists
func NewPolicy(exclude, nullReplacement []string, coerce bool, epsilon float64) Policy {
	return Policy{
		Exclude:             nameSet(exclude),
		NullReplacement:     nameSet(nullReplacement),
		CoerceNumericToText: coerce,
		NegativeEpsilon:     epsilon,
	}
}

// PolicyFromConfig maps the policy section of the configuration
func PolicyFromConfig(cfg config.PolicyConfig) Policy {
	return NewPolicy(cfg.Exclude, cfg.NullReplacement, cfg.CoerceNumericToText, cfg.NegativeEpsilon)
}

func (p Policy) excluded(column string) bool {
	_, ok := p.Exclude[strings.ToUpper(column)]
	return ok
}

func (p Policy) replacesNull(column string) bool {
	_, ok := p.NullReplacement[strings.ToUpper(column)]
	return ok
}

func (p Policy) epsilon() float64 {
	if p.NegativeEpsilon <= 0 {
		return DefaultNegativeEpsilon
	}
	return p.NegativeEpsilon
}

func nameSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		name = strings.ToUpper(strings.TrimSpace(name))
		if name != "" {
			set[name] = struct{}{}
		}
	}
	return set
}
