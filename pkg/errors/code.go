package errors

import (
	"regexp"
	"strings"
)

// Code names a failure as "<package>.<what_failed>", for example
// "catalog.query_failed". Outcomes and logs carry the string form.
type Code struct {
	value string
}

// CommonInternal is the code for failures that carry no code of their own
var CommonInternal = MustNewCode("common.internal")

var codeRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*\.[a-z][a-z0-9_]*$`)

// InvalidCodeError reports a code string rejected by NewCode
type InvalidCodeError struct {
	Value  string
	Reason string
}

func (e *InvalidCodeError) Error() string {
	return "invalid error code " + `"` + e.Value + `": ` + e.Reason
}

// NewCode validates s. The "err" substring is rejected: the code says
// what failed, the type already says it is an error.
func NewCode(s string) (Code, error) {
	if !codeRegex.MatchString(s) {
		return Code{}, &InvalidCodeError{Value: s, Reason: "want lower-case package.name"}
	}
	if strings.Contains(s, "err") {
		return Code{}, &InvalidCodeError{Value: s, Reason: `must not contain "err"`}
	}
	return Code{value: s}, nil
}

// MustNewCode is NewCode for package-level declarations
func MustNewCode(s string) Code {
	code, err := NewCode(s)
	if err != nil {
		panic(err)
	}
	return code
}

func (c Code) String() string {
	return c.value
}

// Package is the part before the dot: the package that declares the code
func (c Code) Package() string {
	pkg, _, found := strings.Cut(c.value, ".")
	if !found {
		return ""
	}
	return pkg
}

// Name is the part after the dot
func (c Code) Name() string {
	_, name, found := strings.Cut(c.value, ".")
	if !found {
		return c.value
	}
	return name
}

func (c Code) IsValid() bool {
	return codeRegex.MatchString(c.value)
}

func (c Code) Equals(other Code) bool {
	return c.value == other.value
}
