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

//go:build cgo && (linux || darwin)

package native

/*
#cgo linux LDFLAGS: -ldl
#include <dlfcn.h>
#include <stdlib.h>

static void* ct_dlopen(const char* path) {
	return dlopen(path, RTLD_NOW | RTLD_LOCAL);
}
static const char* ct_dlerror(void) {
	return dlerror();
}
static int ct_dlclose(void* h) {
	return dlclose(h);
}

// Clear dlerror, call dlsym, and return the error (if any) alongside the symbol.
static void* ct_dlsym_clear(void* h, const char* name, char** err) {
	dlerror();
	void* p = dlsym(h, name);
	char* e = dlerror();
	if (e) { if (err) *err = e; return NULL; }
	if (err) *err = NULL;
	return p;
}

typedef void (*ct_trampoline)(void**, void*);

static void ct_call(void* fn, void** args, void* ret) {
	((ct_trampoline)fn)(args, ret);
}
*/
import "C"

import (
	"sync"
	"unsafe"

	"github.com/cockroachdb/errors"

	"github.com/ajroetker/go-ctree/ctype"
)

// Supported reports whether this build can load native modules.
const Supported = true

// dlerr returns the last dlerror as a Go string, or a fallback label.
func dlerr() string {
	if e := C.ct_dlerror(); e != nil {
		return C.GoString(e)
	}
	return "unknown dlerror"
}

type dlLoader struct{}

// NewLoader returns a Loader backed by dlopen.
func NewLoader() Loader { return dlLoader{} }

func (dlLoader) Load(path string) (Module, error) {
	cs := C.CString(path)
	defer C.free(unsafe.Pointer(cs))
	h := C.ct_dlopen(cs)
	if h == nil {
		return nil, errors.WithStack(&LoadError{Path: path, Reason: dlerr()})
	}
	return &dlModule{path: path, handle: h}, nil
}

type dlModule struct {
	path string

	mu     sync.Mutex
	handle unsafe.Pointer
}

func (m *dlModule) Bind(symbol string, sig ctype.Func) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handle == nil {
		return nil, errors.WithStack(&LoadError{Path: m.path, Symbol: symbol, Reason: "module is closed"})
	}
	cs := C.CString(symbol)
	defer C.free(unsafe.Pointer(cs))
	var cerr *C.char
	p := C.ct_dlsym_clear(m.handle, cs, &cerr)
	if cerr != nil || p == nil {
		reason := "not found"
		if cerr != nil {
			reason = C.GoString(cerr)
		}
		return nil, errors.WithStack(&LoadError{Path: m.path, Symbol: symbol, Reason: reason})
	}
	return &dlEntry{fn: p, sig: sig}, nil
}

func (m *dlModule) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handle == nil {
		return nil
	}
	h := m.handle
	m.handle = nil
	if C.ct_dlclose(h) != 0 {
		return errors.WithStack(&LoadError{Path: m.path, Reason: "dlclose: " + dlerr()})
	}
	return nil
}

type dlEntry struct {
	fn  unsafe.Pointer
	sig ctype.Func
}

func (e *dlEntry) Signature() ctype.Func { return e.sig }

func (e *dlEntry) Call(args []any) (any, error) {
	f, err := NewFrame(e.sig, args)
	if err != nil {
		return nil, err
	}
	defer f.Release()

	var argv *unsafe.Pointer
	if len(f.Args) > 0 {
		argv = &f.Args[0]
	}
	C.ct_call(e.fn, argv, f.Ret)
	return f.Result(), nil
}
