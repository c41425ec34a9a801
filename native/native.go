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

// Package native loads compiled modules and calls their entry points.
//
// Every entry point is reached through a trampoline with the C signature
//
//	void name(void** args, void* ret)
//
// so one call shape serves every kernel signature. Slot i of args points at
// argument i (for arrays, at the first element) and ret points at storage
// for the result.
package native

import (
	"fmt"
	"reflect"
	"runtime"
	"unsafe"

	"github.com/cockroachdb/errors"

	"github.com/ajroetker/go-ctree/ctype"
)

// Loader opens compiled modules.
type Loader interface {
	Load(path string) (Module, error)
}

// Module is a loaded shared module.
type Module interface {
	// Bind resolves the trampoline called symbol. sig is the signature of
	// the entry point the trampoline forwards to.
	Bind(symbol string, sig ctype.Func) (Entry, error)

	// Close unloads the module. Entries bound from it must not be called
	// afterwards.
	Close() error
}

// Entry is a callable entry point.
type Entry interface {
	Call(args []any) (any, error)
	Signature() ctype.Func
}

// LoadError reports a module that failed to load or a missing symbol.
type LoadError struct {
	Path   string
	Symbol string
	Reason string
}

func (e *LoadError) Error() string {
	if e.Symbol != "" {
		return fmt.Sprintf("native: %s: symbol %s: %s", e.Path, e.Symbol, e.Reason)
	}
	return fmt.Sprintf("native: %s: %s", e.Path, e.Reason)
}

// Frame is the argument vector for one trampoline call. The Go memory it
// references is pinned until Release.
type Frame struct {
	Args []unsafe.Pointer
	Ret  unsafe.Pointer

	result reflect.Value
	pinner runtime.Pinner
}

// NewFrame marshals args for a call with signature sig. Scalars are copied
// into storage of the exact C width; slices are passed by their data
// pointer, so the callee writes through to the caller's memory.
func NewFrame(sig ctype.Func, args []any) (*Frame, error) {
	if len(args) != len(sig.Params) {
		return nil, errors.Newf("native: %d arguments for %d parameters", len(args), len(sig.Params))
	}
	f := &Frame{Args: make([]unsafe.Pointer, len(args))}
	for i, arg := range args {
		p, err := f.slot(sig.Params[i], arg)
		if err != nil {
			f.Release()
			return nil, errors.Wrapf(err, "native: argument %d", i)
		}
		f.Args[i] = p
	}
	if !ctype.IsVoid(sig.Return) {
		t, ok := GoType(sig.Return)
		if !ok {
			f.Release()
			return nil, errors.Newf("native: unsupported result type %s", sig.Return)
		}
		f.result = reflect.New(t)
		f.Ret = f.result.UnsafePointer()
		f.pinner.Pin(f.Ret)
	}
	return f, nil
}

func (f *Frame) slot(t ctype.Type, arg any) (unsafe.Pointer, error) {
	switch t := t.(type) {
	case ctype.Scalar:
		gt, ok := GoType(t)
		if !ok {
			return nil, errors.Newf("unsupported type %s", t)
		}
		v := reflect.ValueOf(arg)
		if !v.IsValid() || !v.CanConvert(gt) || isFloat(v.Kind()) != t.IsFloat() {
			return nil, errors.Newf("%T is not a %s", arg, t)
		}
		p := reflect.New(gt)
		p.Elem().Set(v.Convert(gt))
		ptr := p.UnsafePointer()
		f.pinner.Pin(ptr)
		return ptr, nil

	case ctype.Pointer:
		if a, ok := arg.(*ctype.Array); ok {
			arg = a.Data
		} else if a, ok := arg.(ctype.Array); ok {
			arg = a.Data
		}
		v := reflect.ValueOf(arg)
		var ptr unsafe.Pointer
		switch v.Kind() {
		case reflect.Slice:
			ptr = v.UnsafePointer()
		case reflect.Array:
			// Arrays arrive by value; the callee sees a copy.
			c := reflect.New(v.Type())
			c.Elem().Set(v)
			ptr = c.UnsafePointer()
		default:
			return nil, errors.Newf("%T is not an array", arg)
		}
		if ptr != nil {
			f.pinner.Pin(ptr)
		}
		return ptr, nil
	}
	return nil, errors.Newf("unsupported parameter type %v", t)
}

// Result returns the value stored through Ret, or nil for a void call.
func (f *Frame) Result() any {
	if !f.result.IsValid() {
		return nil
	}
	return f.result.Elem().Interface()
}

// Release unpins the frame's memory.
func (f *Frame) Release() {
	f.pinner.Unpin()
}

// GoType returns the Go type with the same layout as the C scalar t.
func GoType(t ctype.Type) (reflect.Type, bool) {
	s, ok := t.(ctype.Scalar)
	if !ok {
		return nil, false
	}
	switch s.Kind {
	case ctype.KindBool:
		return reflect.TypeFor[bool](), true
	case ctype.KindInt8:
		return reflect.TypeFor[int8](), true
	case ctype.KindInt16:
		return reflect.TypeFor[int16](), true
	case ctype.KindInt32:
		return reflect.TypeFor[int32](), true
	case ctype.KindInt64:
		return reflect.TypeFor[int64](), true
	case ctype.KindUint8:
		return reflect.TypeFor[uint8](), true
	case ctype.KindUint16:
		return reflect.TypeFor[uint16](), true
	case ctype.KindUint32:
		return reflect.TypeFor[uint32](), true
	case ctype.KindUint64:
		return reflect.TypeFor[uint64](), true
	case ctype.KindFloat32:
		return reflect.TypeFor[float32](), true
	case ctype.KindFloat64:
		return reflect.TypeFor[float64](), true
	}
	return nil, false
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}
