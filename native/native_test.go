package native

import (
	"os/exec"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/go-ctree/codegen"
	"github.com/ajroetker/go-ctree/ctype"
	"github.com/ajroetker/go-ctree/toolchain"
)

func TestFrameScalars(t *testing.T) {
	sig := ctype.Func{Return: ctype.Int64, Params: []ctype.Type{ctype.Float64, ctype.Int32, ctype.Bool}}
	f, err := NewFrame(sig, []any{0.25, 7, true})
	require.NoError(t, err)
	defer f.Release()

	require.Len(t, f.Args, 3)
	assert.Equal(t, 0.25, *(*float64)(f.Args[0]))
	assert.Equal(t, int32(7), *(*int32)(f.Args[1]), "int is narrowed to the C width")
	assert.True(t, *(*bool)(f.Args[2]))

	*(*int64)(f.Ret) = 42
	assert.Equal(t, int64(42), f.Result())
}

func TestFrameArraysShareMemory(t *testing.T) {
	xs := []float32{1, 2, 3}
	grid, err := ctype.NewArray(make([]int16, 6), 2, 3)
	require.NoError(t, err)

	sig := ctype.Func{Return: ctype.Void, Params: []ctype.Type{
		ctype.ArrayOf(ctype.Float32, 3),
		ctype.ArrayOf(ctype.Int16, 2, 3),
	}}
	f, err := NewFrame(sig, []any{xs, grid})
	require.NoError(t, err)
	defer f.Release()

	(*[3]float32)(f.Args[0])[1] = 20
	(*[6]int16)(f.Args[1])[5] = -1
	assert.Equal(t, []float32{1, 20, 3}, xs)
	assert.Equal(t, int16(-1), grid.Data.([]int16)[5])

	assert.Nil(t, f.Ret)
	assert.Nil(t, f.Result())
}

func TestFrameErrors(t *testing.T) {
	sig := ctype.Func{Return: ctype.Void, Params: []ctype.Type{ctype.Float64}}

	_, err := NewFrame(sig, nil)
	assert.Error(t, err, "arity")

	_, err = NewFrame(sig, []any{"x"})
	assert.Error(t, err, "string for double")

	_, err = NewFrame(ctype.Func{Params: []ctype.Type{ctype.Int32}}, []any{1.5})
	assert.Error(t, err, "float for int")

	_, err = NewFrame(ctype.Func{Params: []ctype.Type{ctype.ArrayOf(ctype.Float64, 1)}}, []any{1.5})
	assert.Error(t, err, "scalar for array")
}

func TestGoTypeSizes(t *testing.T) {
	for _, s := range []ctype.Scalar{
		ctype.Bool, ctype.Int8, ctype.Int16, ctype.Int32, ctype.Int64,
		ctype.Uint8, ctype.Uint16, ctype.Uint32, ctype.Uint64,
		ctype.Float32, ctype.Float64,
	} {
		gt, ok := GoType(s)
		require.True(t, ok, s.String())
		want := s.Width() / 8
		if s.Kind == ctype.KindBool {
			want = 1
		}
		assert.Equal(t, uintptr(want), gt.Size(), s.String())
	}
	_, ok := GoType(ctype.Void)
	assert.False(t, ok)
}

func TestLoadMissing(t *testing.T) {
	_, err := NewLoader().Load("/nonexistent/module.so")
	var le *LoadError
	require.True(t, errors.As(err, &le), "got %v", err)
	assert.Equal(t, "/nonexistent/module.so", le.Path)
}

func TestLoadAndCall(t *testing.T) {
	if !Supported {
		t.Skip("native loading not supported in this build")
	}
	cfg := toolchain.DefaultConfig().WithEnv()
	if _, err := exec.LookPath(cfg.CC); err != nil {
		t.Skip("no C compiler")
	}
	cfg.WorkDir = t.TempDir()
	src := `void scale(double* xs, double k, long n) {
    for (long i = 0; i < n; i++) {
        xs[i] = xs[i] * k;
    }
}

void scale_trampoline(void** args, void* ret) {
    scale((double*)args[0], *(double*)args[1], *(long*)args[2]);
}

long add(long a, long b) {
    return a + b;
}

void add_trampoline(void** args, void* ret) {
    *(long*)ret = add(*(long*)args[0], *(long*)args[1]);
}
`
	art, err := toolchain.NewCC(cfg, nil).Compile("scale", []codegen.File{{Name: "scale.c", Source: src}})
	require.NoError(t, err)
	defer art.Cleanup()

	mod, err := NewLoader().Load(art.Module)
	require.NoError(t, err)
	defer mod.Close()

	scale, err := mod.Bind("scale_trampoline", ctype.Func{Return: ctype.Void, Params: []ctype.Type{
		ctype.ArrayOf(ctype.Float64, 3), ctype.Float64, ctype.Int64,
	}})
	require.NoError(t, err)
	xs := []float64{1, 2, 3}
	_, err = scale.Call([]any{xs, 2.0, 3})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 4, 6}, xs)

	add, err := mod.Bind("add_trampoline", ctype.Func{Return: ctype.Int64, Params: []ctype.Type{ctype.Int64, ctype.Int64}})
	require.NoError(t, err)
	got, err := add.Call([]any{int64(40), int64(2)})
	require.NoError(t, err)
	assert.Equal(t, int64(42), got)

	_, err = mod.Bind("missing_trampoline", ctype.Func{Return: ctype.Void})
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "missing_trampoline", le.Symbol)
}
