// Package projection turns catalog metadata into a SELECT statement that
// works around Oracle decode hazards: spatial columns become WKT text,
// unreliable numerics become text, and known-bad columns are dropped.
package projection

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/gear6io/oraport/pipeline/catalog"
	"github.com/gear6io/oraport/pkg/errors"
)

// Rule is the transformation applied to one output column
type Rule int

const (
	Passthrough Rule = iota
	GeometryWKT
	NullReplacement
	NumericText
)

func (r Rule) String() string {
	switch r {
	case GeometryWKT:
		return "geometry_wkt"
	case NullReplacement:
		return "null_replacement"
	case NumericText:
		return "numeric_text"
	default:
		return "passthrough"
	}
}

// WKTSuffix is appended to geometry column names in the output
const WKTSuffix = "_wkt"

var identifierPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_$#]{0,127}$`)

// Column is one projected output column
type Column struct {
	Name   string // output name
	Source string // catalog column name
	Rule   Rule
}

// Spec is the structured form of a projection. SQL is its only renderer.
type Spec struct {
	Owner   string
	Table   string
	Columns []Column
	epsilon float64
}

// Names returns the output column names in order
func (s *Spec) Names() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// ValidateIdentifier checks that name is a plain Oracle identifier that is
// safe to interpolate into SQL
func ValidateIdentifier(name string) error {
	if !identifierPattern.MatchString(name) {
		return invalidIdentifier(name)
	}
	return nil
}

func invalidIdentifier(name string) *errors.Error {
	return errors.New(ErrInvalidIdentifier, "invalid identifier", nil).AddContext("identifier", name)
}

// Build applies the policy to each column in catalog order. The first
// matching rule wins: exclusion, geometry, null replacement, numeric
// coercion, then passthrough.
func Build(table catalog.TableDescriptor, columns []catalog.ColumnDescriptor, policy Policy) (*Spec, error) {
	if err := ValidateIdentifier(table.Owner); err != nil {
		return nil, err
	}
	if err := ValidateIdentifier(table.Name); err != nil {
		return nil, err
	}
	if policy.NegativeEpsilon < 0 {
		return nil, errors.New(ErrInvalidPolicy, "negative epsilon must be >= 0", nil).
			AddContext("negative_epsilon", strconv.FormatFloat(policy.NegativeEpsilon, 'g', -1, 64))
	}

	spec := &Spec{
		Owner:   table.Owner,
		Table:   table.Name,
		Columns: make([]Column, 0, len(columns)),
		epsilon: policy.epsilon(),
	}

	for _, col := range columns {
		if policy.excluded(col.Name) {
			continue
		}
		if !identifierPattern.MatchString(col.Name) {
			return nil, invalidIdentifier(col.Name).AddContext("table", table.String())
		}

		out := Column{Name: col.Name, Source: col.Name, Rule: Passthrough}
		switch {
		case col.Type == catalog.TypeGeometry:
			out.Rule = GeometryWKT
			out.Name = col.Name + WKTSuffix
		case policy.replacesNull(col.Name):
			out.Rule = NullReplacement
		case policy.CoerceNumericToText && col.Type == catalog.TypeNumeric:
			out.Rule = NumericText
		}
		spec.Columns = append(spec.Columns, out)
	}

	if len(spec.Columns) == 0 {
		return nil, errors.New(ErrEmptyProjection, "projection has no columns", nil).AddContext("table", table.String())
	}
	return spec, nil
}

// SQL renders the SELECT statement for the spec
func (s *Spec) SQL() string {
	exprs := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		exprs[i] = s.expression(c)
	}
	return fmt.Sprintf("SELECT %s FROM %s.%s", strings.Join(exprs, ", "), quote(s.Owner), quote(s.Table))
}

func (s *Spec) expression(c Column) string {
	src := quote(c.Source)
	switch c.Rule {
	case GeometryWKT:
		return fmt.Sprintf("SDO_UTIL.TO_WKTGEOMETRY(%s) AS %s", src, quote(c.Name))
	case NullReplacement:
		return fmt.Sprintf("NVL(TO_CHAR(%s), 'NULL') AS %s", src, quote(c.Name))
	case NumericText:
		return fmt.Sprintf("TO_CHAR(CASE WHEN %s < -%s THEN NULL ELSE %s END) AS %s",
			src, strconv.FormatFloat(s.epsilon, 'g', -1, 64), src, quote(c.Name))
	default:
		return src
	}
}

func quote(identifier string) string {
	return `"` + identifier + `"`
}
