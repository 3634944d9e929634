package main

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrorCodeChecker collects error code declarations and their uses
type ErrorCodeChecker struct {
	fileSet    *token.FileSet
	errorCodes map[string]*ErrorCodeInfo
	files      []*parsedFile
	verbose    bool
}

type parsedFile struct {
	path string
	dir  string
	test bool
	ast  *ast.File
}

// NewErrorCodeChecker creates a new ErrorCodeChecker
func NewErrorCodeChecker(verbose bool) *ErrorCodeChecker {
	return &ErrorCodeChecker{
		fileSet:    token.NewFileSet(),
		errorCodes: make(map[string]*ErrorCodeInfo),
		verbose:    verbose,
	}
}

func (c *ErrorCodeChecker) debug(format string, args ...interface{}) {
	if c.verbose {
		fmt.Printf(format, args...)
	}
}

// CheckDirectory parses every Go file under dir, then resolves which
// declared codes are referenced from non-test code
func (c *ErrorCodeChecker) CheckDirectory(dir string, excludePaths []string) error {
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		for _, excludePath := range excludePaths {
			if strings.Contains(filepath.ToSlash(path), excludePath) {
				if info.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		if info.IsDir() || !strings.HasSuffix(path, ".go") {
			return nil
		}
		return c.CheckFile(path)
	})
	if err != nil {
		return err
	}

	c.resolveUsage()
	return nil
}

// CheckFile parses one file and records its declarations
func (c *ErrorCodeChecker) CheckFile(filePath string) error {
	file, err := parser.ParseFile(c.fileSet, filePath, nil, 0)
	if err != nil {
		return fmt.Errorf("failed to parse file %s: %w", filePath, err)
	}

	pf := &parsedFile{
		path: filePath,
		dir:  filepath.Dir(filePath),
		test: strings.HasSuffix(filePath, "_test.go"),
		ast:  file,
	}
	c.files = append(c.files, pf)

	if !pf.test {
		c.checkDeclarations(pf)
	}
	return nil
}

// checkDeclarations finds `Name = errors.MustNewCode("value")`
func (c *ErrorCodeChecker) checkDeclarations(pf *parsedFile) {
	ast.Inspect(pf.ast, func(n ast.Node) bool {
		spec, ok := n.(*ast.ValueSpec)
		if !ok {
			return true
		}
		for i, name := range spec.Names {
			if i >= len(spec.Values) {
				break
			}
			value, ok := mustNewCodeValue(spec.Values[i])
			if !ok {
				continue
			}
			pos := c.fileSet.Position(name.Pos())
			info := &ErrorCodeInfo{
				Name:    name.Name,
				Value:   value,
				File:    pf.path,
				Line:    pos.Line,
				Package: pf.ast.Name.Name,
				Dir:     pf.dir,
			}
			c.errorCodes[info.Key()] = info
			c.debug("declared %s = %q at %s:%d\n", info.Name, info.Value, info.File, info.Line)
		}
		return true
	})
}

func mustNewCodeValue(expr ast.Expr) (string, bool) {
	call, ok := expr.(*ast.CallExpr)
	if !ok || len(call.Args) != 1 {
		return "", false
	}
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok || sel.Sel.Name != "MustNewCode" {
		return "", false
	}
	lit, ok := call.Args[0].(*ast.BasicLit)
	if !ok || lit.Kind != token.STRING {
		return "", false
	}
	value, err := strconv.Unquote(lit.Value)
	if err != nil {
		return "", false
	}
	return value, true
}

// resolveUsage marks a code used when a non-test file refers to it, either
// unqualified from its own package or as pkg.Name from another one
func (c *ErrorCodeChecker) resolveUsage() {
	byName := make(map[string][]*ErrorCodeInfo)
	for _, info := range c.errorCodes {
		byName[info.Name] = append(byName[info.Name], info)
	}

	for _, pf := range c.files {
		if pf.test {
			continue
		}
		ast.Inspect(pf.ast, func(n ast.Node) bool {
			switch x := n.(type) {
			case *ast.SelectorExpr:
				pkg, ok := x.X.(*ast.Ident)
				if !ok {
					return true
				}
				for _, info := range byName[x.Sel.Name] {
					if info.Package == pkg.Name {
						c.markUsed(info, pf, x.Pos())
					}
				}
				return false
			case *ast.Ident:
				for _, info := range byName[x.Name] {
					if info.Dir != pf.dir {
						continue
					}
					pos := c.fileSet.Position(x.Pos())
					if pos.Filename == info.File && pos.Line == info.Line {
						continue
					}
					c.markUsed(info, pf, x.Pos())
				}
			}
			return true
		})
	}
}

func (c *ErrorCodeChecker) markUsed(info *ErrorCodeInfo, pf *parsedFile, pos token.Pos) {
	info.Used = true
	info.UsedIn = append(info.UsedIn, fmt.Sprintf("%s:%d", pf.path, c.fileSet.Position(pos).Line))
}
