package frontend

import (
	"go/ast"
	"os"
	"path/filepath"
	"testing"

	"github.com/ajroetker/go-ctree/ctype"
)

const kernels = `package kernels

import m "math"

// Norm returns the euclidean norm of xs.
func Norm[T ~float32 | ~float64](xs []T, n int) float64 {
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(xs[i] * xs[i])
	}
	return m.Sqrt(sum)
}

func Choose(p float64, a, b int64) int64 {
	if p < 0.5 {
		return a
	}
	return b
}

func (r recv) Method() {}
`

func TestParseFunc(t *testing.T) {
	f, err := ParseFunc(kernels, "Norm")
	if err != nil {
		t.Fatal(err)
	}
	if f.Name != "Norm" || len(f.TypeParams) != 1 || f.TypeParams[0].Name != "T" {
		t.Fatalf("unexpected func %+v", f)
	}
	if f.TypeParams[0].Constraint != "~float32 | ~float64" {
		t.Errorf("constraint = %q", f.TypeParams[0].Constraint)
	}
	if got := f.ParamNames(); len(got) != 2 || got[0] != "xs" || got[1] != "n" {
		t.Errorf("ParamNames = %v", got)
	}
	if f.Params[0].Type != "[]T" || f.Params[0].Hint != nil {
		t.Errorf("generic param = %+v, want no hint", f.Params[0])
	}
	if !ctype.Equal(f.Params[1].Hint, ctype.Int64) && !ctype.Equal(f.Params[1].Hint, ctype.Int32) {
		t.Errorf("int param hint = %v", f.Params[1].Hint)
	}
	if len(f.Results) != 1 || !ctype.Equal(f.Results[0].Hint, ctype.Float64) {
		t.Errorf("results = %+v", f.Results)
	}
	if f.Imports["m"] != "math" {
		t.Errorf("imports = %v", f.Imports)
	}
	if f.Doc == nil {
		t.Error("doc comment dropped")
	}
}

func TestParseFuncSharedTypeFields(t *testing.T) {
	f, err := ParseFunc(kernels, "Choose")
	if err != nil {
		t.Fatal(err)
	}
	want := []struct {
		name string
		hint ctype.Type
	}{{"p", ctype.Float64}, {"a", ctype.Int64}, {"b", ctype.Int64}}
	if len(f.Params) != len(want) {
		t.Fatalf("params = %+v", f.Params)
	}
	for i, w := range want {
		if f.Params[i].Name != w.name || !ctype.Equal(f.Params[i].Hint, w.hint) {
			t.Errorf("param %d = %+v, want %s %s", i, f.Params[i], w.name, w.hint)
		}
	}
}

func TestParseFuncBareDecl(t *testing.T) {
	f, err := ParseFunc("func apply(x float64) float64 { return x * 2 }", "")
	if err != nil {
		t.Fatal(err)
	}
	if f.Name != "apply" {
		t.Errorf("name = %s", f.Name)
	}
	if pos := f.Position(f.Body.Pos()); pos == "apply" {
		t.Errorf("position not resolved: %s", pos)
	}
}

func TestParseFuncErrors(t *testing.T) {
	if _, err := ParseFunc(kernels, "Missing"); err == nil {
		t.Error("missing function found")
	}
	if _, err := ParseFunc(kernels, ""); err == nil {
		t.Error("ambiguous unnamed lookup accepted")
	}
	if _, err := ParseFunc("func broken( {", "broken"); err == nil {
		t.Error("syntax error accepted")
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kernels.go")
	if err := os.WriteFile(path, []byte(kernels), 0o644); err != nil {
		t.Fatal(err)
	}
	funcs, err := ParseFile(path)
	if err != nil {
		t.Fatal(err)
	}
	// The method is skipped.
	if len(funcs) != 2 {
		t.Fatalf("got %d funcs, want 2", len(funcs))
	}
	if f, err := Lookup(funcs, "Choose"); err != nil || f.Name != "Choose" {
		t.Errorf("Lookup = %v, %v", f, err)
	}
}

func TestNormalize(t *testing.T) {
	src := `func k(xs []float64, n int) float64 {
	if n < 0 {
		panic("negative length")
	}
	if s := xs[0]; s > 1 {
		return s
	} else if t := xs[1]; t > 1 {
		return t
	}
	return ((xs[0] + xs[1])) * 2
}`
	f, err := ParseFunc(src, "k")
	if err != nil {
		t.Fatal(err)
	}
	list := f.Body.List
	if len(list) != 2 {
		t.Fatalf("body has %d statements, want 2 (scoped if, return)", len(list))
	}
	block, ok := list[0].(*ast.BlockStmt)
	if !ok || len(block.List) != 2 {
		t.Fatalf("statement 0 is %T, want a block holding the init and the if", list[0])
	}
	if _, ok := block.List[0].(*ast.AssignStmt); !ok {
		t.Errorf("block starts with %T, want the head init", block.List[0])
	}
	head := block.List[1].(*ast.IfStmt)
	if head.Init != nil {
		t.Error("head init left on the if")
	}
	// The else-if init must stay behind the head condition.
	els, ok := head.Else.(*ast.BlockStmt)
	if !ok || len(els.List) != 2 {
		t.Fatalf("else arm is %T, want a block holding the init and the else-if", head.Else)
	}
	if _, ok := els.List[0].(*ast.AssignStmt); !ok {
		t.Errorf("else block starts with %T, want the else-if init", els.List[0])
	}
	if elif := els.List[1].(*ast.IfStmt); elif.Init != nil {
		t.Error("else-if init left on the if")
	}
	ret := list[1].(*ast.ReturnStmt)
	bin := ret.Results[0].(*ast.BinaryExpr)
	if _, ok := bin.X.(*ast.BinaryExpr); !ok {
		t.Errorf("parens not unwrapped: left operand is %T", bin.X)
	}
}
