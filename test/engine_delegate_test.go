package test

import (
	"go/ast"
	"go/parser"
	"go/token"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// TestEngine_DelegateMethodComplexity keeps Engine methods thin. Session and credential
// logic belongs in internal/flows and credential; a method that outgrows its budget is
// usually carrying that logic inline.
//
// Every exception names the flow file its logic should move to, so exceptions cannot
// silently become permanent.
func TestEngine_DelegateMethodComplexity(t *testing.T) {
	const maxLines = 50

	type exception struct {
		limit  int
		reason string
		target string
	}
	exceptions := map[string]exception{
		"Validate": {60, "status mapping and sliding refresh dispatch", "internal/flows/validate.go"},
	}
	for name, exc := range exceptions {
		if exc.reason == "" || exc.target == "" {
			t.Errorf("exception %q must name a reason and a target flow file", name)
		}
	}

	files, err := filepath.Glob("../engine*.go")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	sort.Strings(files)

	fset := token.NewFileSet()
	seen := 0
	for _, path := range files {
		if strings.HasSuffix(path, "_test.go") {
			continue
		}
		file, err := parser.ParseFile(fset, path, nil, parser.SkipObjectResolution)
		if err != nil {
			t.Fatalf("parse %s: %v", path, err)
		}

		for _, decl := range file.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || fn.Recv == nil || fn.Body == nil || !isEngineReceiver(fn.Recv) {
				continue
			}
			seen++

			start := fset.Position(fn.Pos()).Line
			end := fset.Position(fn.End()).Line
			length := end - start + 1

			limit := maxLines
			if exc, ok := exceptions[fn.Name.Name]; ok {
				limit = exc.limit
			}
			if length > limit {
				t.Errorf("%s:%d: method %s is %d lines (limit %d); move the logic into internal/flows",
					filepath.Base(path), start, fn.Name.Name, length, limit)
			}
		}
	}

	if seen == 0 {
		t.Fatal("no Engine methods found; is the test running from the test/ directory?")
	}
}

func isEngineReceiver(recv *ast.FieldList) bool {
	if len(recv.List) != 1 {
		return false
	}
	star, ok := recv.List[0].Type.(*ast.StarExpr)
	if !ok {
		return false
	}
	ident, ok := star.X.(*ast.Ident)
	return ok && ident.Name == "Engine"
}
