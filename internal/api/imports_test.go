package api

import (
	"go/parser"
	"go/token"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

const modulePath = "tools.zach/dev/dresscode/"

// TestImportGroups checks that module imports sit in their own group, apart
// from third-party ones.
func TestImportGroups(t *testing.T) {
	files, err := filepath.Glob("*.go")
	if err != nil {
		t.Fatal(err)
	}
	fset := token.NewFileSet()
	for _, name := range files {
		f, err := parser.ParseFile(fset, name, nil, parser.ImportsOnly)
		if err != nil {
			t.Fatal(err)
		}
		for i := 1; i < len(f.Imports); i++ {
			prev, cur := f.Imports[i-1], f.Imports[i]
			prevPath, _ := strconv.Unquote(prev.Path.Value)
			curPath, _ := strconv.Unquote(cur.Path.Value)
			adjacent := fset.Position(cur.Pos()).Line == fset.Position(prev.End()).Line+1
			if adjacent && strings.HasPrefix(prevPath, modulePath) != strings.HasPrefix(curPath, modulePath) {
				t.Errorf("%s: %q and %q share an import group", name, prevPath, curPath)
			}
		}
	}
}
