package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/go-ctree/ctype"
)

func TestParseDescriptors(t *testing.T) {
	types, err := parseDescriptors("float64[12], int32[3x4],float32")
	require.NoError(t, err)
	require.Len(t, types, 3)
	assert.True(t, ctype.Equal(ctype.ArrayOf(ctype.Float64, 12), types[0]))
	assert.True(t, ctype.Equal(ctype.ArrayOf(ctype.Int32, 3, 4), types[1]))
	assert.True(t, ctype.Equal(ctype.Float32, types[2]))

	for _, bad := range []string{"string", "float64[12", "float64[a]", "float64[-1]"} {
		_, err := parseDescriptors(bad)
		assert.Error(t, err, bad)
	}

	types, err = parseDescriptors("  ")
	require.NoError(t, err)
	assert.Empty(t, types)
}

func TestZeroArgs(t *testing.T) {
	args, err := zeroArgs([]ctype.Type{ctype.Int64, ctype.ArrayOf(ctype.Float32, 5), ctype.ArrayOf(ctype.Uint8, 2, 3)})
	require.NoError(t, err)
	assert.Equal(t, int64(0), args[0])
	assert.Equal(t, make([]float32, 5), args[1])
	grid, ok := args[2].(*ctype.Array)
	require.True(t, ok)
	assert.Equal(t, []int{2, 3}, grid.Shape)

	// The zero values describe back to the types they came from.
	types, err := ctype.DescribeAll(args)
	require.NoError(t, err)
	assert.True(t, ctype.Equal(ctype.ArrayOf(ctype.Uint8, 2, 3), types[2]))
}

func writeKernel(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kernel.go")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestEmitMapKernel(t *testing.T) {
	path := writeKernel(t, "package k\n\nfunc apply(x float64) float64 { return x * 2 }\n")
	out, err := run(t, "emit", "--map", "--pragma", "ivdep", "--args", "float64[12]", path)
	require.NoError(t, err)
	assert.Contains(t, out, "void apply(double* x, double* out) {")
	assert.Contains(t, out, "#pragma ivdep")
	assert.Contains(t, out, "for (int i = 0; i < 12; i++) {")
	assert.Contains(t, out, "void apply_trampoline(void** args, void* ret) {")
}

func TestEmitToDirectory(t *testing.T) {
	path := writeKernel(t, "package k\n\nfunc add(a, b int64) int64 { return a + b }\n")
	dir := t.TempDir()
	_, err := run(t, "emit", "-f", "add", "--args", "int64,int64", "-o", dir, path)
	require.NoError(t, err)
	src, err := os.ReadFile(filepath.Join(dir, "add.c"))
	require.NoError(t, err)
	assert.Contains(t, string(src), "long add(long a, long b) {")
}

func TestDot(t *testing.T) {
	path := writeKernel(t, "package k\n\nfunc add(a, b int64) int64 { return a + b }\n")
	out, err := run(t, "dot", path)
	require.NoError(t, err)
	assert.Contains(t, out, "digraph")
}

func TestEmitErrors(t *testing.T) {
	path := writeKernel(t, "package k\n\nfunc apply(x float64) float64 { return x * 2 }\n")

	_, err := run(t, "emit", "--map", "--args", "float64", path)
	assert.Error(t, err, "map without an array")

	_, err = run(t, "emit", "-f", "missing", "--args", "float64", path)
	assert.Error(t, err)

	_, err = run(t, "emit", "--config", filepath.Join(t.TempDir(), "none.yaml"), "--args", "float64", path)
	assert.Error(t, err, "missing config file")
}
