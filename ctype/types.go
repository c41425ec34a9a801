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
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Type is a C type descriptor.
type Type interface {
	// CName returns the C spelling of the type, e.g. "double" or "float*".
	CName() string

	// String returns the canonical descriptor text. Distinct descriptors
	// never share a String form.
	String() string

	isType()
}

// Kind enumerates the scalar kinds.
type Kind int

const (
	KindVoid Kind = iota
	KindBool
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
)

// String returns the Go-style name of the kind.
func (k Kind) String() string {
	switch k {
	case KindVoid:
		return "void"
	case KindBool:
		return "bool"
	case KindInt8:
		return "int8"
	case KindInt16:
		return "int16"
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindUint8:
		return "uint8"
	case KindUint16:
		return "uint16"
	case KindUint32:
		return "uint32"
	case KindUint64:
		return "uint64"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Scalar is a C arithmetic type, or void.
type Scalar struct {
	Kind Kind
}

// Predeclared scalar descriptors.
var (
	Void    = Scalar{KindVoid}
	Bool    = Scalar{KindBool}
	Int8    = Scalar{KindInt8}
	Int16   = Scalar{KindInt16}
	Int32   = Scalar{KindInt32}
	Int64   = Scalar{KindInt64}
	Uint8   = Scalar{KindUint8}
	Uint16  = Scalar{KindUint16}
	Uint32  = Scalar{KindUint32}
	Uint64  = Scalar{KindUint64}
	Float32 = Scalar{KindFloat32}
	Float64 = Scalar{KindFloat64}
)

func (Scalar) isType() {}

// Width returns the size of the scalar in bits. Void has width 0.
func (s Scalar) Width() int {
	switch s.Kind {
	case KindVoid:
		return 0
	case KindBool, KindInt8, KindUint8:
		return 8
	case KindInt16, KindUint16:
		return 16
	case KindInt32, KindUint32, KindFloat32:
		return 32
	default:
		return 64
	}
}

// Signed reports whether the scalar is a signed integer or a float.
func (s Scalar) Signed() bool {
	switch s.Kind {
	case KindInt8, KindInt16, KindInt32, KindInt64, KindFloat32, KindFloat64:
		return true
	}
	return false
}

// IsFloat reports whether the scalar is a floating-point type.
func (s Scalar) IsFloat() bool {
	return s.Kind == KindFloat32 || s.Kind == KindFloat64
}

// IsInteger reports whether the scalar is an integer type (bool included).
func (s Scalar) IsInteger() bool {
	return s.Kind != KindVoid && !s.IsFloat()
}

// CName returns the C spelling. int64 maps to long, matching the LP64
// convention the generated wrappers assume.
func (s Scalar) CName() string {
	switch s.Kind {
	case KindVoid:
		return "void"
	case KindBool:
		return "_Bool"
	case KindInt8:
		return "signed char"
	case KindInt16:
		return "short"
	case KindInt32:
		return "int"
	case KindInt64:
		return "long"
	case KindUint8:
		return "unsigned char"
	case KindUint16:
		return "unsigned short"
	case KindUint32:
		return "unsigned int"
	case KindUint64:
		return "unsigned long"
	case KindFloat32:
		return "float"
	case KindFloat64:
		return "double"
	default:
		return "void"
	}
}

func (s Scalar) String() string {
	return s.Kind.String()
}

// Pointer is a pointer to Elem. Shape, when non-empty, records the extent of
// each axis of the buffer the pointer addresses.
type Pointer struct {
	Elem  Type
	Shape []int
}

func (Pointer) isType() {}

// PointerTo returns a shapeless pointer to elem.
func PointerTo(elem Type) Pointer {
	return Pointer{Elem: elem}
}

// ArrayOf returns a pointer descriptor for a buffer of elem with the given shape.
func ArrayOf(elem Scalar, shape ...int) Pointer {
	return Pointer{Elem: elem, Shape: append([]int(nil), shape...)}
}

// NDim returns the number of axes, 0 for a shapeless pointer.
func (p Pointer) NDim() int {
	return len(p.Shape)
}

// Len returns the flattened element count, or -1 for a shapeless pointer.
func (p Pointer) Len() int {
	if len(p.Shape) == 0 {
		return -1
	}
	return lo.Reduce(p.Shape, func(acc, n int, _ int) int { return acc * n }, 1)
}

// CName returns the C spelling: "double*", "void**".
func (p Pointer) CName() string {
	if p.Elem == nil {
		return "void*"
	}
	return p.Elem.CName() + "*"
}

func (p Pointer) String() string {
	elem := "void"
	if p.Elem != nil {
		elem = p.Elem.String()
	}
	if len(p.Shape) == 0 {
		return "*" + elem
	}
	dims := lo.Map(p.Shape, func(n int, _ int) string { return strconv.Itoa(n) })
	return elem + "[" + strings.Join(dims, "x") + "]"
}

// Func is a function signature.
type Func struct {
	Return Type
	Params []Type
}

func (Func) isType() {}

// CName returns the C spelling of a pointer to a function with this signature.
func (f Func) CName() string {
	ret := "void"
	if f.Return != nil {
		ret = f.Return.CName()
	}
	params := lo.Map(f.Params, func(t Type, _ int) string { return t.CName() })
	if len(params) == 0 {
		params = []string{"void"}
	}
	return ret + " (*)(" + strings.Join(params, ", ") + ")"
}

func (f Func) String() string {
	params := lo.Map(f.Params, func(t Type, _ int) string { return t.String() })
	ret := "void"
	if f.Return != nil {
		ret = f.Return.String()
	}
	return "func(" + strings.Join(params, ", ") + ") " + ret
}

// Equal reports whether two descriptors are structurally identical.
// A nil descriptor only equals nil.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch a := a.(type) {
	case Scalar:
		b, ok := b.(Scalar)
		return ok && a.Kind == b.Kind
	case Pointer:
		b, ok := b.(Pointer)
		if !ok || len(a.Shape) != len(b.Shape) || !Equal(a.Elem, b.Elem) {
			return false
		}
		for i := range a.Shape {
			if a.Shape[i] != b.Shape[i] {
				return false
			}
		}
		return true
	case Func:
		b, ok := b.(Func)
		if !ok || len(a.Params) != len(b.Params) || !Equal(a.Return, b.Return) {
			return false
		}
		for i := range a.Params {
			if !Equal(a.Params[i], b.Params[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// IsVoid reports whether t is nil or the void scalar.
func IsVoid(t Type) bool {
	s, ok := t.(Scalar)
	return t == nil || (ok && s.Kind == KindVoid)
}

// Elem returns the element type of a pointer descriptor, or nil.
func Elem(t Type) Type {
	if p, ok := t.(Pointer); ok {
		return p.Elem
	}
	return nil
}
