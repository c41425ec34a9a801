package ir

import (
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"

	"github.com/ajroetker/go-ctree/ctype"
)

func sampleFunc() *FuncDecl {
	return &FuncDecl{
		Name:   "fib",
		Return: ctype.Int64,
		Params: []*SymbolRef{TypedSym("n", ctype.Int64)},
		Body: []Node{
			&If{
				Cond: Bin(OpLt, Sym("n"), Int(2)),
				Then: []Node{&Return{Value: Sym("n")}},
				Else: []Node{&Return{Value: Bin(OpAdd,
					Call("fib", Bin(OpSub, Sym("n"), Int(1))),
					Call("fib", Bin(OpSub, Sym("n"), Int(2))),
				)}},
			},
		},
	}
}

func TestRequiresTerminator(t *testing.T) {
	tests := []struct {
		node Node
		want bool
	}{
		{&Include{Target: "math.h", Angled: true}, false},
		{&Comment{Text: "x"}, false},
		{&Define{Name: "N", Body: "4"}, false},
		{&Pragma{Text: "once"}, false},
		{&FuncDecl{Name: "f"}, true},
		{&FuncDecl{Name: "f", Body: []Node{}}, false},
		{&Assign{Target: Sym("a"), Value: Int(1)}, true},
		{&Return{}, true},
		{Call("f"), true},
		{&If{Cond: Sym("c")}, false},
		{CountedFor("i", Int(3)), false},
		{&Block{}, false},
	}
	for _, tt := range tests {
		if got := tt.node.RequiresTerminator(); got != tt.want {
			t.Errorf("%s.RequiresTerminator() = %v, want %v", tt.node.Kind(), got, tt.want)
		}
	}
}

func TestWalkPreOrder(t *testing.T) {
	var kinds []string
	err := Walk(sampleFunc(), func(n Node) error {
		kinds = append(kinds, n.Kind())
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"FuncDecl", "SymbolRef",
		"If", "BinaryOp", "SymbolRef", "Constant",
		"Return", "SymbolRef",
		"Return", "BinaryOp",
		"FuncCall", "SymbolRef", "BinaryOp", "SymbolRef", "Constant",
		"FuncCall", "SymbolRef", "BinaryOp", "SymbolRef", "Constant",
	}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Errorf("walk order mismatch (-want +got):\n%s", diff)
	}
}

func TestWalkSkipAndStop(t *testing.T) {
	count := 0
	Inspect(sampleFunc(), func(n Node) bool {
		count++
		_, isIf := n.(*If)
		return !isIf
	})
	if count != 3 {
		t.Errorf("visited %d nodes with If pruned, want 3", count)
	}

	stop := errors.New("stop")
	err := Walk(sampleFunc(), func(n Node) error {
		if _, ok := n.(*Return); ok {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Errorf("Walk error = %v, want stop", err)
	}
}

func TestRewriteReplacesSymbols(t *testing.T) {
	fn := sampleFunc()
	out, err := Rewrite(fn, func(n Node) (Node, error) {
		if s, ok := n.(*SymbolRef); ok && s.Name == "n" && s.Type == nil {
			return Index(Sym("xs"), Sym("i")), nil
		}
		return n, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	refs := 0
	Inspect(out, func(n Node) bool {
		if a, ok := n.(*ArrayRef); ok {
			if s, ok := a.Array.(*SymbolRef); ok && s.Name == "xs" {
				refs++
			}
		}
		return true
	})
	if refs != 4 {
		t.Errorf("rewrote %d references, want 4", refs)
	}
	// The typed parameter is a declaration and is left alone by the callback.
	if fn.Params[0].Name != "n" {
		t.Errorf("parameter renamed to %s", fn.Params[0].Name)
	}
}

func TestRewriteRemovesStatements(t *testing.T) {
	fn := &FuncDecl{Name: "f", Body: []Node{
		&Comment{Text: "drop me"},
		&Return{Value: Int(1)},
	}}
	out, err := Rewrite(fn, func(n Node) (Node, error) {
		if _, ok := n.(*Comment); ok {
			return nil, nil
		}
		return n, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := len(out.(*FuncDecl).Body); got != 1 {
		t.Errorf("body has %d statements, want 1", got)
	}
}

func TestRewriteRejectsStatementInExprSlot(t *testing.T) {
	n := Bin(OpAdd, Sym("a"), Sym("b"))
	_, err := Rewrite(n, func(n Node) (Node, error) {
		if s, ok := n.(*SymbolRef); ok && s.Name == "b" {
			return &Return{}, nil
		}
		return n, nil
	})
	if err == nil || !strings.Contains(err.Error(), "BinaryOp.Right") {
		t.Errorf("Rewrite error = %v, want BinaryOp.Right complaint", err)
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := sampleFunc()
	cp := Clone(orig)
	if !Equal(orig, cp) {
		t.Fatal("clone differs from original")
	}
	if diff := cmp.Diff(orig, cp); diff != "" {
		t.Fatalf("clone differs (-orig +clone):\n%s", diff)
	}
	cp.Params[0].Name = "m"
	cp.Body[0].(*If).Then[0].(*Return).Value = Int(0)
	if orig.Params[0].Name != "n" {
		t.Error("renaming clone parameter changed original")
	}
	if _, ok := orig.Body[0].(*If).Then[0].(*Return).Value.(*SymbolRef); !ok {
		t.Error("editing clone body changed original")
	}
	if Equal(orig, cp) {
		t.Error("Equal did not notice the edit")
	}
}

func TestEqualDistinguishesForwardDecl(t *testing.T) {
	a := &FuncDecl{Name: "f", Return: ctype.Int32}
	b := &FuncDecl{Name: "f", Return: ctype.Int32, Body: []Node{}}
	if Equal(a, b) {
		t.Error("forward declaration equals empty definition")
	}
}

func TestSignature(t *testing.T) {
	fn := &FuncDecl{Name: "choose", Params: []*SymbolRef{Sym("p"), Sym("a"), Sym("b")}}
	want := ctype.Func{Return: ctype.Int64, Params: []ctype.Type{ctype.Float64, ctype.Int64, ctype.Int64}}
	fn.SetSignature(want)
	if got := fn.Signature(); !ctype.Equal(got, want) {
		t.Errorf("Signature = %s, want %s", got, want)
	}
	if fn.Param("a").Type != ctype.Type(ctype.Int64) {
		t.Errorf("param a typed %v", fn.Param("a").Type)
	}
}

func TestFindFunc(t *testing.T) {
	p := &Project{Name: "p", Files: []*CFile{
		{Name: "a", Body: []Node{&FuncDecl{Name: "fib", Return: ctype.Int64}}},
		{Name: "b", Body: []Node{sampleFunc()}},
	}}
	got := p.FindFunc("fib")
	if got == nil || got.Body == nil {
		t.Fatalf("FindFunc returned %v, want the definition", got)
	}
	if p.Files[0].FindFunc("fib") == nil {
		t.Error("CFile.FindFunc missed the forward declaration")
	}
	if p.FindFunc("nope") != nil {
		t.Error("FindFunc found a missing function")
	}
}

func TestOperatorTables(t *testing.T) {
	if OpPostInc.Token() != "++" || !OpPostInc.Postfix() || OpPreInc.Postfix() {
		t.Error("increment operators wrong")
	}
	if OpMul.Precedence() <= OpAdd.Precedence() || OpAnd.Precedence() <= OpOr.Precedence() {
		t.Error("precedence ordering wrong")
	}
	if OpComma.Token() != "," || OpComma.Precedence() >= PrecTernary {
		t.Error("comma operator wrong")
	}
	if Precedence(Int(-1)) != PrecUnary || Precedence(Int(1)) != PrecPrimary {
		t.Error("constant precedence wrong")
	}
}

func TestDot(t *testing.T) {
	out := Dot(&CFile{Name: "fib", Body: []Node{sampleFunc()}})
	if !strings.HasPrefix(out, "digraph ctree {") {
		t.Errorf("missing digraph header:\n%s", out)
	}
	for _, want := range []string{`"CFile fib"`, `"FuncDecl fib func(int64) int64"`, `"BinaryOp Lt"`, "n0 -> n1;"} {
		if !strings.Contains(out, want) {
			t.Errorf("dot output missing %s:\n%s", want, out)
		}
	}
	if Dot(&CFile{Name: "fib", Body: []Node{sampleFunc()}}) != out {
		t.Error("dot output not stable")
	}
}

func TestCountedForCounterWidth(t *testing.T) {
	tests := []struct {
		bound Expr
		want  ctype.Type
	}{
		{Int(12), ctype.Int32},
		{Int(1<<31 - 1), ctype.Int32},
		{Int(1 << 31), ctype.Int64},
		{Sym("n"), ctype.Int32},
	}
	for _, tt := range tests {
		loop := CountedFor("i", tt.bound)
		got := loop.Init.(*Assign).Target.(*SymbolRef).Type
		if !ctype.Equal(got, tt.want) {
			t.Errorf("CountedFor(i, %v) counter = %v, want %v", tt.bound, got, tt.want)
		}
	}
}
