// Copyright 2025 go-highway Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ctype

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// ConfigError reports a call argument whose runtime shape cannot be
// classified into a C type.
type ConfigError struct {
	// Index is the position of the argument in the call, or -1 when the
	// argument was described on its own.
	Index int

	// GoType is the dynamic Go type of the argument ("<nil>" for nil).
	GoType string

	// Reason says what made the argument unclassifiable.
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("cannot classify argument %d (%s): %s", e.Index, e.GoType, e.Reason)
	}
	return fmt.Sprintf("cannot classify argument (%s): %s", e.GoType, e.Reason)
}

// Array is an n-dimensional view over a flat Go slice in row-major order.
// Shape carries the per-axis extents; their product must equal len(Data).
type Array struct {
	Data  any
	Shape []int
}

// NewArray wraps data with the given shape. With no shape the array is 1-D.
func NewArray(data any, shape ...int) (*Array, error) {
	a := &Array{Data: data, Shape: append([]int(nil), shape...)}
	if len(a.Shape) == 0 {
		v := reflect.ValueOf(data)
		if v.Kind() != reflect.Slice {
			return nil, &ConfigError{Index: -1, GoType: goTypeName(data), Reason: "array data must be a slice"}
		}
		a.Shape = []int{v.Len()}
	}
	if _, err := Describe(a); err != nil {
		return nil, err
	}
	return a, nil
}

// Len returns the flattened element count.
func (a *Array) Len() int {
	return reflect.ValueOf(a.Data).Len()
}

// Describe classifies a single call argument.
//
// Scalars become [Scalar]; slices, Go arrays and [Array] values become a
// [Pointer] whose Shape records the buffer extent. Anything else fails with
// a *ConfigError.
func Describe(arg any) (Type, error) {
	return describe(-1, arg)
}

// DescribeAll classifies an ordered argument list, failing on the first
// argument that cannot be classified.
func DescribeAll(args []any) ([]Type, error) {
	types := make([]Type, len(args))
	for i, arg := range args {
		t, err := describe(i, arg)
		if err != nil {
			return nil, err
		}
		types[i] = t
	}
	return types, nil
}

func describe(index int, arg any) (Type, error) {
	fail := func(format string, args ...any) (Type, error) {
		return nil, errors.WithStack(&ConfigError{Index: index, GoType: goTypeName(arg), Reason: fmt.Sprintf(format, args...)})
	}

	switch a := arg.(type) {
	case nil:
		return fail("nil has no C type")
	case *Array:
		if a == nil {
			return fail("nil array")
		}
		return describeArray(index, a)
	case Array:
		return describeArray(index, &a)
	}

	v := reflect.ValueOf(arg)
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		elem, ok := scalarOf(v.Type().Elem().Kind())
		if !ok {
			return fail("element kind %s is not supported", v.Type().Elem().Kind())
		}
		return ArrayOf(elem, v.Len()), nil
	default:
		s, ok := scalarOf(v.Kind())
		if !ok {
			return fail("kind %s is not supported", v.Kind())
		}
		return s, nil
	}
}

func describeArray(index int, a *Array) (Type, error) {
	fail := func(format string, args ...any) (Type, error) {
		return nil, errors.WithStack(&ConfigError{Index: index, GoType: "ctype.Array", Reason: fmt.Sprintf(format, args...)})
	}
	v := reflect.ValueOf(a.Data)
	if v.Kind() != reflect.Slice {
		return fail("array data must be a slice, got %s", goTypeName(a.Data))
	}
	elem, ok := scalarOf(v.Type().Elem().Kind())
	if !ok {
		return fail("element kind %s is not supported", v.Type().Elem().Kind())
	}
	if len(a.Shape) == 0 {
		return fail("array has no shape")
	}
	n := 1
	for axis, d := range a.Shape {
		if d < 0 {
			return fail("axis %d has negative extent %d", axis, d)
		}
		n *= d
	}
	if n != v.Len() {
		return fail("shape %v holds %d elements, data has %d", a.Shape, n, v.Len())
	}
	return ArrayOf(elem, a.Shape...), nil
}

func scalarOf(k reflect.Kind) (Scalar, bool) {
	switch k {
	case reflect.Bool:
		return Bool, true
	case reflect.Int8:
		return Int8, true
	case reflect.Int16:
		return Int16, true
	case reflect.Int32:
		return Int32, true
	case reflect.Int64:
		return Int64, true
	case reflect.Int:
		if strconv.IntSize == 32 {
			return Int32, true
		}
		return Int64, true
	case reflect.Uint8:
		return Uint8, true
	case reflect.Uint16:
		return Uint16, true
	case reflect.Uint32:
		return Uint32, true
	case reflect.Uint64:
		return Uint64, true
	case reflect.Uint:
		if strconv.IntSize == 32 {
			return Uint32, true
		}
		return Uint64, true
	case reflect.Float32:
		return Float32, true
	case reflect.Float64:
		return Float64, true
	}
	return Scalar{}, false
}

func goTypeName(v any) string {
	if v == nil {
		return "<nil>"
	}
	return reflect.TypeOf(v).String()
}

// ParseGoType maps a Go type expression used as a hint in kernel source
// ("float64", "[]int32", "*float32") to a descriptor. Type parameters,
// "any" and unknown names yield nil: the type is decided at specialization.
func ParseGoType(expr string) Type {
	expr = strings.TrimSpace(expr)
	switch {
	case strings.HasPrefix(expr, "[]"):
		if elem := ParseGoType(expr[2:]); elem != nil {
			return PointerTo(elem)
		}
		return nil
	case strings.HasPrefix(expr, "*"):
		if elem := ParseGoType(expr[1:]); elem != nil {
			return PointerTo(elem)
		}
		return nil
	}
	switch expr {
	case "bool":
		return Bool
	case "int8":
		return Int8
	case "int16":
		return Int16
	case "int32", "rune":
		return Int32
	case "int64":
		return Int64
	case "int":
		if strconv.IntSize == 32 {
			return Int32
		}
		return Int64
	case "uint8", "byte":
		return Uint8
	case "uint16":
		return Uint16
	case "uint32":
		return Uint32
	case "uint64":
		return Uint64
	case "uint":
		if strconv.IntSize == 32 {
			return Uint32
		}
		return Uint64
	case "float32":
		return Float32
	case "float64":
		return Float64
	}
	return nil
}
