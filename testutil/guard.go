// Package testutil provides source-level checks for tests: package layering
// guards and doc-comment coverage of exported types.
package testutil

import (
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// AssertNoDirectImports scans the non-test .go files in dir and fails if any
// import path satisfies forbidden. It does not follow build tags.
func AssertNoDirectImports(t testing.TB, dir string, forbidden func(importPath string) bool, reason string) {
	t.Helper()
	viols, err := directImportViolations(dir, forbidden)
	if err != nil {
		t.Fatalf("scan %s: %v", dir, err)
	}
	failIfDirectViolations(t, reason, viols)
}

// InternalImportForbidden matches any import path containing /internal/.
func InternalImportForbidden(path string) bool {
	return strings.Contains(path, "/internal/")
}

// ThirdPartyImport matches import paths outside the standard library and
// this module.
func ThirdPartyImport(path string) bool {
	first, _, _ := strings.Cut(path, "/")
	return strings.Contains(first, ".")
}

// CallerImportForbidden matches the packages that sit above the core
// service: transports, the CLI and configuration loading.
func CallerImportForbidden(path string) bool {
	for _, layer := range []string{"/internal/adapters/", "/internal/cli", "/internal/config"} {
		if strings.Contains(path, layer) {
			return true
		}
	}
	return false
}

func directImportViolations(dir string, forbidden func(importPath string) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	fset := token.NewFileSet()
	var viols []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		file, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.ImportsOnly)
		if err != nil {
			return nil, err
		}
		for _, imp := range file.Imports {
			ip, err := strconv.Unquote(imp.Path.Value)
			if err != nil {
				return nil, err
			}
			if forbidden(ip) {
				viols = append(viols, ip+" (in "+name+")")
			}
		}
	}
	return viols, nil
}

// AssertExportedTypesDocumented fails if a standalone exported type
// declaration in dir's non-test files has no doc comment. Grouped
// declarations, such as alias blocks, are not checked.
func AssertExportedTypesDocumented(t testing.TB, dir string) {
	t.Helper()
	missing, err := undocumentedTypes(dir)
	if err != nil {
		t.Fatalf("scan %s: %v", dir, err)
	}
	if len(missing) > 0 {
		t.Fatalf("exported types without doc comments:\n%s", strings.Join(missing, "\n"))
	}
}

func undocumentedTypes(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	fset := token.NewFileSet()
	var missing []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		file, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.ParseComments)
		if err != nil {
			return nil, err
		}
		for _, decl := range file.Decls {
			gen, ok := decl.(*ast.GenDecl)
			if !ok || gen.Tok != token.TYPE || gen.Lparen.IsValid() {
				continue
			}
			for _, spec := range gen.Specs {
				ts := spec.(*ast.TypeSpec)
				if ts.Name.IsExported() && gen.Doc == nil && ts.Doc == nil {
					missing = append(missing, ts.Name.Name+" (in "+name+")")
				}
			}
		}
	}
	return missing, nil
}

type fatalLogger interface {
	Fatalf(format string, args ...any)
}

func failIfDirectViolations(t fatalLogger, reason string, viols []string) {
	if len(viols) > 0 {
		t.Fatalf("forbidden direct imports detected (%s):\n%s", reason, strings.Join(viols, "\n"))
	}
}
