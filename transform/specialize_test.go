package transform

import (
	"strings"
	"testing"

	"github.com/cockroachdb/errors"

	"github.com/ajroetker/go-ctree/ctype"
	"github.com/ajroetker/go-ctree/ir"
)

// A type-less local declared by a bare reference and assigned later must come
// out of Specialize as a typed declaration at the marker's position.
func TestSpecializeFillsUninitializedAccumulator(t *testing.T) {
	res := convert(t, `
func l2norm(A []float64, n int64) float64 {
	sum
	sum = 0.0
	for i := int64(0); i < n; i++ {
		sum += A[i] * A[i]
	}
	return sum
}`)
	fn, err := Specialize(res, []ctype.Type{ctype.ArrayOf(ctype.Float64, 12), ctype.Int64})
	if err != nil {
		t.Fatal(err)
	}
	decl, ok := fn.Body[0].(*ir.VarDecl)
	if !ok {
		t.Fatalf("body[0] = %T, want *ir.VarDecl", fn.Body[0])
	}
	if decl.Name != "sum" || !ctype.Equal(decl.Type, ctype.Float64) || decl.Init != nil {
		t.Errorf("decl = %+v, want double sum", decl)
	}
	want := `double l2norm(double* A, long n) {
    double sum;
    sum = 0.0;
    for (long i = (long)0; i < n; i++) {
        sum += A[i] * A[i];
    }
    return sum;
}`
	if got := render(t, fn); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}

	// The converted function is left untouched.
	if _, ok := res.Func.Body[0].(*ir.SymbolRef); !ok {
		t.Error("Specialize modified its input")
	}
}

func TestFillDeclarations(t *testing.T) {
	t.Run("nested scope", func(t *testing.T) {
		fn := &ir.FuncDecl{
			Name:   "f",
			Return: ctype.Float32,
			Params: []*ir.SymbolRef{ir.TypedSym("xs", ctype.ArrayOf(ctype.Float32, 4))},
			Body: []ir.Node{
				ir.Sym("acc"),
				ir.CountedFor("i", ir.Int(4),
					&ir.Assign{Target: ir.Sym("acc"), Value: ir.Index(ir.Sym("xs"), ir.Sym("i"))},
				),
				&ir.VarDecl{Name: "twice", Init: ir.Bin(ir.OpMul, ir.Sym("acc"), ir.Int(2))},
				&ir.Return{Value: ir.Sym("twice")},
			},
		}
		if err := FillDeclarations(fn); err != nil {
			t.Fatal(err)
		}
		acc := fn.Body[0].(*ir.VarDecl)
		if !ctype.Equal(acc.Type, ctype.Float32) {
			t.Errorf("acc type = %v, want float32", acc.Type)
		}
		twice := fn.Body[2].(*ir.VarDecl)
		if !ctype.Equal(twice.Type, ctype.Float32) {
			t.Errorf("twice type = %v, want float32 (resolved in the loop, visible after it)", twice.Type)
		}
	})

	t.Run("pointer local drops shape", func(t *testing.T) {
		fn := &ir.FuncDecl{
			Name:   "f",
			Return: ctype.Void,
			Params: []*ir.SymbolRef{ir.TypedSym("xs", ctype.ArrayOf(ctype.Int32, 8))},
			Body:   []ir.Node{&ir.VarDecl{Name: "p", Init: ir.Sym("xs")}},
		}
		if err := FillDeclarations(fn); err != nil {
			t.Fatal(err)
		}
		if got := fn.Body[0].(*ir.VarDecl).Type; !ctype.Equal(got, ctype.PointerTo(ctype.Int32)) {
			t.Errorf("p type = %v", got)
		}
	})

	t.Run("never assigned", func(t *testing.T) {
		fn := &ir.FuncDecl{Name: "f", Return: ctype.Void, Body: []ir.Node{ir.Sym("ghost")}}
		err := FillDeclarations(fn)
		var te *TransformError
		if !errors.As(err, &te) || !strings.Contains(te.Reason, "ghost") {
			t.Errorf("got %v, want TransformError naming ghost", err)
		}
	})

	t.Run("uninferable initializer", func(t *testing.T) {
		fn := &ir.FuncDecl{Name: "f", Return: ctype.Void, Body: []ir.Node{
			&ir.VarDecl{Name: "x", Init: ir.Call("mystery")},
		}}
		var te *TransformError
		if err := FillDeclarations(fn); !errors.As(err, &te) {
			t.Errorf("got %v, want TransformError", err)
		}
	})
}

func TestSpecializeGeneric(t *testing.T) {
	res := convert(t, `
func scale[T float32 | float64](xs []T, k T) T {
	var acc T
	acc = xs[0] * k
	return T(acc)
}`)
	fn, err := Specialize(res, []ctype.Type{ctype.ArrayOf(ctype.Float32, 3), ctype.Float32})
	if err != nil {
		t.Fatal(err)
	}
	want := `float scale(float* xs, float k) {
    float acc = (float)0;
    acc = xs[0] * k;
    return (float)acc;
}`
	if got := render(t, fn); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestSpecializeResolvesLen(t *testing.T) {
	res := convert(t, `
func total(xs []int32) int64 {
	var s int64
	for i := range xs {
		s += int64(xs[i])
	}
	return s
}`)
	fn, err := Specialize(res, []ctype.Type{ctype.ArrayOf(ctype.Int32, 2, 3)})
	if err != nil {
		t.Fatal(err)
	}
	loop := fn.Body[1].(*ir.For)
	if got := render(t, loop.Cond); got != "i < 6" {
		t.Errorf("cond = %q, want the flattened length", got)
	}
}

func TestSpecializeInfersReturn(t *testing.T) {
	res := convert(t, `func half(x any) any { return x / 2 }`)
	fn, err := Specialize(res, []ctype.Type{ctype.Float32})
	if err != nil {
		t.Fatal(err)
	}
	if !ctype.Equal(fn.Return, ctype.Float32) {
		t.Errorf("return = %v, want float32", fn.Return)
	}

	res = convert(t, `func store(xs []float64) { xs[0] = 1.0 }`)
	fn, err = Specialize(res, []ctype.Type{ctype.ArrayOf(ctype.Float64, 1)})
	if err != nil {
		t.Fatal(err)
	}
	if !ctype.IsVoid(fn.Return) {
		t.Errorf("return = %v, want void", fn.Return)
	}
}

func TestSpecializeErrors(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		params []ctype.Type
		reason string
	}{
		{
			name:   "arity",
			src:    `func f(x float64) float64 { return x }`,
			params: []ctype.Type{ctype.Float64, ctype.Float64},
			reason: "2 parameter types given",
		},
		{
			name:   "concrete mismatch",
			src:    `func f(x float64) float64 { return x }`,
			params: []ctype.Type{ctype.Int32},
			reason: "does not match float64",
		},
		{
			name:   "slice needs array",
			src:    `func f[T float64](xs []T) T { return xs[0] }`,
			params: []ctype.Type{ctype.Float64},
			reason: "is not an array",
		},
		{
			name:   "conflicting binding",
			src:    `func f[T float32 | float64](a, b []T) T { return a[0] + b[0] }`,
			params: []ctype.Type{ctype.ArrayOf(ctype.Float32, 1), ctype.ArrayOf(ctype.Float64, 1)},
			reason: "bound to both",
		},
		{
			name:   "len of scalar",
			src:    `func f(x []float64, n int64) int64 { return len(n) }`,
			params: []ctype.Type{ctype.ArrayOf(ctype.Float64, 1), ctype.Int64},
			reason: "no known extent",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := convert(t, tt.src)
			_, err := Specialize(res, tt.params)
			var te *TransformError
			if !errors.As(err, &te) {
				t.Fatalf("got %v, want *TransformError", err)
			}
			if !strings.Contains(te.Reason, tt.reason) {
				t.Errorf("reason %q does not mention %q", te.Reason, tt.reason)
			}
		})
	}
}

// An else-if init reads memory the head condition guards, so it must run
// after that condition and only when it fails.
func TestSpecializeElseIfInitStaysGuarded(t *testing.T) {
	res := convert(t, `
func pick(xs []float64, i int64) float64 {
	if i >= 4 {
		return 0.0
	} else if v := xs[i]; v > 0 {
		return v
	}
	return 1.0
}`)
	fn, err := Specialize(res, []ctype.Type{ctype.ArrayOf(ctype.Float64, 4), ctype.Int64})
	if err != nil {
		t.Fatal(err)
	}
	want := `double pick(double* xs, long i) {
    if (i >= 4) {
        return 0.0;
    } else {
        double v = xs[i];
        if (v > 0) {
            return v;
        }
    }
    return 1.0;
}`
	if got := render(t, fn); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestSpecializeIfInitScopes(t *testing.T) {
	res := convert(t, `
func twice(xs []float64) float64 {
	if v := xs[0]; v > 1 {
		return v
	}
	if v := xs[1]; v > 1 {
		return v
	}
	return 0.0
}`)
	fn, err := Specialize(res, []ctype.Type{ctype.ArrayOf(ctype.Float64, 2)})
	if err != nil {
		t.Fatal(err)
	}
	want := `double twice(double* xs) {
    {
        double v = xs[0];
        if (v > 1) {
            return v;
        }
    }
    {
        double v = xs[1];
        if (v > 1) {
            return v;
        }
    }
    return 0.0;
}`
	if got := render(t, fn); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}
