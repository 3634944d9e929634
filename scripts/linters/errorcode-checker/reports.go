package main

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

// sortedCodes returns declarations ordered by package, then name
func (c *ErrorCodeChecker) sortedCodes() []*ErrorCodeInfo {
	infos := make([]*ErrorCodeInfo, 0, len(c.errorCodes))
	for _, info := range c.errorCodes {
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Dir != infos[j].Dir {
			return infos[i].Dir < infos[j].Dir
		}
		return infos[i].Name < infos[j].Name
	})
	return infos
}

// Report lists unused ErrorCodes grouped by package
func (c *ErrorCodeChecker) Report() (bool, []string) {
	var report []string
	allUsed := true
	lastDir := ""

	for _, info := range c.sortedCodes() {
		if info.Dir != lastDir {
			report = append(report, fmt.Sprintf("\n📦 Package: %s (%s)", info.Package, info.Dir))
			lastDir = info.Dir
		}
		if info.Used {
			report = append(report, fmt.Sprintf("  ✅ %s (%s) used %d time(s)", info.Name, info.Value, len(info.UsedIn)))
			continue
		}
		allUsed = false
		report = append(report, fmt.Sprintf("  ❌ UNUSED: %s (%s) declared in %s:%d", info.Name, info.Value, info.File, info.Line))
	}

	return allUsed, report
}

// CheckDuplicates reports code strings declared more than once
func (c *ErrorCodeChecker) CheckDuplicates() []Violation {
	seen := make(map[string]*ErrorCodeInfo)
	var violations []Violation

	for _, info := range c.sortedCodes() {
		if first, ok := seen[info.Value]; ok {
			violations = append(violations, Violation{
				File:    info.File,
				Line:    info.Line,
				Message: fmt.Sprintf("code %q already declared as %s in %s:%d", info.Value, first.Name, first.File, first.Line),
			})
			continue
		}
		seen[info.Value] = info
	}
	return violations
}

// CheckPrefixes reports codes whose prefix is not the declaring package name
func (c *ErrorCodeChecker) CheckPrefixes(shared []string) []Violation {
	allowed := make(map[string]bool, len(shared))
	for _, p := range shared {
		allowed[p] = true
	}

	var violations []Violation
	for _, info := range c.sortedCodes() {
		prefix, _, _ := strings.Cut(info.Value, ".")
		if prefix == info.Package || allowed[prefix] {
			continue
		}
		violations = append(violations, Violation{
			File:    info.File,
			Line:    info.Line,
			Message: fmt.Sprintf("code %q in package %s should start with %q", info.Value, info.Package, info.Package+"."),
		})
	}
	return violations
}

// CheckForbiddenPatterns scans non-test sources for error constructors that
// bypass error codes
func (c *ErrorCodeChecker) CheckForbiddenPatterns(patterns []string) ([]Violation, error) {
	var compiled []*regexp.Regexp
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid forbidden pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}

	var violations []Violation
	for _, pf := range c.files {
		if pf.test {
			continue
		}
		found, err := scanFile(pf.path, compiled)
		if err != nil {
			return nil, err
		}
		violations = append(violations, found...)
	}

	sort.Slice(violations, func(i, j int) bool {
		if violations[i].File != violations[j].File {
			return violations[i].File < violations[j].File
		}
		return violations[i].Line < violations[j].Line
	})
	return violations, nil
}

func scanFile(path string, patterns []*regexp.Regexp) ([]Violation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var violations []Violation
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(text), "//") {
			continue
		}
		for _, re := range patterns {
			if re.MatchString(text) {
				violations = append(violations, Violation{File: path, Line: line, Message: "forbidden pattern " + re.String()})
			}
		}
	}
	return violations, scanner.Err()
}

func formatViolations(title string, violations []Violation) []string {
	if len(violations) == 0 {
		return []string{"✅ No " + title + " found"}
	}
	report := []string{fmt.Sprintf("🚨 %d %s:", len(violations), title)}
	for _, v := range violations {
		report = append(report, fmt.Sprintf("  %s:%d: %s", v.File, v.Line, v.Message))
	}
	return report
}
