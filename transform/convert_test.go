package transform

import (
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"

	"github.com/ajroetker/go-ctree/codegen"
	"github.com/ajroetker/go-ctree/ctype"
	"github.com/ajroetker/go-ctree/frontend"
	"github.com/ajroetker/go-ctree/ir"
)

func convert(t *testing.T, src string) *Result {
	t.Helper()
	fn, err := frontend.ParseFunc(src, "")
	if err != nil {
		t.Fatalf("ParseFunc: %v", err)
	}
	res, err := Convert(fn)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	return res
}

func render(t *testing.T, n ir.Node) string {
	t.Helper()
	out, err := codegen.Generate(n)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return out
}

func TestConvertChoose(t *testing.T) {
	res := convert(t, `
func choose(p float64, a, b int64) int64 {
	if p < 0.5 {
		return a
	}
	return b
}`)
	want := &ir.FuncDecl{
		Name:   "choose",
		Return: ctype.Int64,
		Params: []*ir.SymbolRef{
			ir.TypedSym("p", ctype.Float64),
			ir.TypedSym("a", ctype.Int64),
			ir.TypedSym("b", ctype.Int64),
		},
		Body: []ir.Node{
			&ir.If{
				Cond: ir.Bin(ir.OpLt, ir.Sym("p"), ir.Float(0.5)),
				Then: []ir.Node{&ir.Return{Value: ir.Sym("a")}},
			},
			&ir.Return{Value: ir.Sym("b")},
		},
	}
	if !ir.Equal(res.Func, want) {
		t.Errorf("Convert mismatch:\n got: %s\nwant: %s", render(t, res.Func), render(t, want))
	}
	if diff := cmp.Diff([]string{"float64", "int64", "int64"}, res.ParamTypes); diff != "" {
		t.Errorf("ParamTypes (-want +got):\n%s", diff)
	}
	if res.ResultType != "int64" {
		t.Errorf("ResultType = %q", res.ResultType)
	}
}

func TestConvertElseIfChain(t *testing.T) {
	res := convert(t, `
func sign(x float64) int32 {
	if x < 0 {
		return -1
	} else if x > 0 {
		return 1
	} else {
		return 0
	}
}`)
	want := `int sign(double x) {
    if (x < 0) {
        return -1;
    } else if (x > 0) {
        return 1;
    } else {
        return 0;
    }
}`
	if got := render(t, res.Func); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestConvertRangeLoops(t *testing.T) {
	res := convert(t, `
func total(xs []float64, n int64) float64 {
	var s float64
	for i := range n {
		s += float64(i)
	}
	for i, x := range xs {
		s += x * float64(i)
	}
	return s
}`)
	body := res.Func.Body
	if len(body) != 4 {
		t.Fatalf("body has %d statements, want 4", len(body))
	}
	s, ok := body[0].(*ir.VarDecl)
	if !ok || !ctype.Equal(s.Type, ctype.Float64) || s.Init == nil {
		t.Errorf("var s float64 = %#v, want typed zero-initialized decl", body[0])
	}

	counted := body[1].(*ir.For)
	if got := render(t, counted.Cond); got != "i < n" {
		t.Errorf("range n cond = %q", got)
	}

	overSlice := body[2].(*ir.For)
	if got := render(t, overSlice.Cond); got != "i < len(xs)" {
		t.Errorf("range xs cond = %q", got)
	}
	elem, ok := overSlice.Body[0].(*ir.VarDecl)
	if !ok || elem.Name != "x" {
		t.Fatalf("first body statement = %#v, want x := xs[i]", overSlice.Body[0])
	}
	if got := render(t, elem.Init); got != "xs[i]" {
		t.Errorf("x init = %q", got)
	}
}

func TestConvertMath(t *testing.T) {
	res := convert(t, `
import "math"

func area(r float64) float64 {
	return math.Pi * math.Pow(r, 2) + math.Abs(math.Sqrt(r))
}`)
	if diff := cmp.Diff([]string{"math.h"}, res.Includes); diff != "" {
		t.Errorf("Includes (-want +got):\n%s", diff)
	}
	ret := res.Func.Body[0].(*ir.Return)
	got := render(t, ret.Value)
	for _, want := range []string{"pow(r, 2)", "fabs(sqrt(r))", "3.14159"} {
		if !strings.Contains(got, want) {
			t.Errorf("%q does not contain %q", got, want)
		}
	}
}

func TestConvertMinMax(t *testing.T) {
	res := convert(t, `func clamp(x float64) float64 { return max(0.0, min(x, 1.0)) }`)
	got := render(t, res.Func.Body[0].(*ir.Return).Value)
	want := "0.0 > (x < 1.0 ? x : 1.0) ? 0.0 : x < 1.0 ? x : 1.0"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestConvertGeneric(t *testing.T) {
	res := convert(t, `
func scale[T float32 | float64](xs []T, k T) T {
	var acc T
	acc = xs[0] * k
	return T(acc)
}`)
	if diff := cmp.Diff([]string{"T"}, res.TypeParams); diff != "" {
		t.Errorf("TypeParams (-want +got):\n%s", diff)
	}
	if res.Func.Params[0].Type != nil || res.Func.Return != nil {
		t.Errorf("generic types should be unresolved before Specialize")
	}
	acc := res.Func.Body[0].(*ir.VarDecl)
	call, ok := acc.Init.(*ir.FuncCall)
	if !ok || call.Func.(*ir.SymbolRef).Name != "T" {
		t.Errorf("var acc T init = %#v, want T(0)", acc.Init)
	}
}

func TestConvertDeclarationMarker(t *testing.T) {
	res := convert(t, `
func f(x float64) float64 {
	y
	y = x
	return y
}`)
	marker, ok := res.Func.Body[0].(*ir.SymbolRef)
	if !ok || marker.Name != "y" || marker.Type != nil {
		t.Errorf("body[0] = %#v, want bare y", res.Func.Body[0])
	}
}

func TestConvertErrors(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		construct string
	}{
		{"switch", `func f(x int) int { switch x { case 1: return 2 }; return 0 }`, "switch statement"},
		{"go", `func f() { go f() }`, "go statement"},
		{"defer", `func f() { defer f() }`, "defer statement"},
		{"closure", `func f(x int) int { g := func() int { return x }; return g() }`, "function literal"},
		{"multi-assign", `func f() int { a, b := 1, 2; return a + b }`, "assignment"},
		{"composite", `func f() int { xs := []int{1}; return xs[0] }`, "composite literal"},
		{"while", `func f(x int) int { for x < 3 { x++ }; return x }`, "for statement"},
		{"break", `func f(n int) { for i := 0; i < n; i++ { break } }`, "break statement"},
		{"keyword", `func f(x int) int { double := x; return double }`, "identifier"},
		{"multiple results", `func f(x int) (int, int) { return x, x }`, "result"},
		{"string param", `func f(s string) {}`, "parameter"},
		{"selector", `func f(x int) int { return x.y }`, "selector"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, err := frontend.ParseFunc(tt.src, "")
			if err != nil {
				t.Fatalf("ParseFunc: %v", err)
			}
			_, err = Convert(fn)
			var te *TransformError
			if !errors.As(err, &te) {
				t.Fatalf("got %v, want *TransformError", err)
			}
			if te.Construct != tt.construct {
				t.Errorf("Construct = %q, want %q (%v)", te.Construct, tt.construct, err)
			}
			if te.Pos == "" {
				t.Error("error carries no position")
			}
		})
	}
}

func TestInferType(t *testing.T) {
	env := &Env{
		Vars: map[string]ctype.Type{
			"f":  ctype.Float32,
			"d":  ctype.Float64,
			"i":  ctype.Int32,
			"c":  ctype.Int8,
			"u":  ctype.Uint64,
			"xs": ctype.ArrayOf(ctype.Float32, 4),
		},
		Funcs: map[string]ctype.Func{"g": {Return: ctype.Int16}},
	}
	tests := []struct {
		name string
		expr ir.Expr
		want ctype.Type
	}{
		{"float32 + int", ir.Bin(ir.OpAdd, ir.Sym("f"), ir.Sym("i")), ctype.Float32},
		{"float32 * double", ir.Bin(ir.OpMul, ir.Sym("f"), ir.Sym("d")), ctype.Float64},
		{"char promotes", ir.Bin(ir.OpAdd, ir.Sym("c"), ir.Sym("c")), ctype.Int32},
		{"unsigned wins", ir.Bin(ir.OpAdd, ir.Sym("u"), ir.Sym("i")), ctype.Uint64},
		{"comparison", ir.Bin(ir.OpLt, ir.Sym("d"), ir.Sym("d")), ctype.Int32},
		{"not", ir.Unary(ir.OpNot, ir.Sym("d")), ctype.Int32},
		{"element", ir.Index(ir.Sym("xs"), ir.Int(0)), ctype.Float32},
		{"cast", &ir.Cast{Type: ctype.Uint8, Value: ir.Sym("d")}, ctype.Uint8},
		{"libm", ir.Call("sqrt", ir.Sym("f")), ctype.Float64},
		{"known func", ir.Call("g"), ctype.Int16},
		{"untyped int", ir.Int(3), ctype.Int64},
		{"ternary", &ir.Ternary{Cond: ir.Sym("i"), Then: ir.Sym("i"), Else: ir.Sym("d")}, ctype.Float64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := InferType(tt.expr, env)
			if err != nil {
				t.Fatal(err)
			}
			if !ctype.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := InferType(ir.Call("mystery"), env); err == nil {
		t.Error("unknown call inferred")
	}
}
