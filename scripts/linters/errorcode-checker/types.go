package main

// ErrorCodeInfo describes one `X = errors.MustNewCode("pkg.name")` declaration
type ErrorCodeInfo struct {
	Name    string // Go identifier
	Value   string // code string
	File    string
	Line    int
	Package string // Go package name of the declaring file
	Dir     string
	Used    bool
	UsedIn  []string
}

// Key identifies a declaration across packages with the same identifier
func (i *ErrorCodeInfo) Key() string {
	return i.Dir + ":" + i.Name
}

// Violation is a single finding tied to a source position
type Violation struct {
	File    string
	Line    int
	Message string
}
