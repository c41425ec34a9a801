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

// Package jit specializes Go kernels to native code on first use.
//
// A SpecializedFunc classifies each call's arguments into a Fingerprint
// (element type, dimensionality and shape of every argument). The first call
// with a new fingerprint translates the kernel to C, compiles it with the
// external toolchain, loads the module and binds its entry point; later calls
// with the same fingerprint dispatch straight to the bound entry. Concurrent
// first calls with one fingerprint share a single compilation.
//
//	f, err := jit.FromSource(src, "apply", jit.MapKernel{Pragma: "ivdep"})
//	out, err := jit.Map(f, xs)
package jit

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/singleflight"

	"github.com/ajroetker/go-ctree/codegen"
	"github.com/ajroetker/go-ctree/ctype"
	"github.com/ajroetker/go-ctree/frontend"
	"github.com/ajroetker/go-ctree/ir"
	"github.com/ajroetker/go-ctree/native"
	"github.com/ajroetker/go-ctree/toolchain"
	"github.com/ajroetker/go-ctree/transform"
)

// ErrClosed is returned by calls on a closed SpecializedFunc.
var ErrClosed = errors.New("jit: specialized function is closed")

// InvocationError reports arguments that do not fit the bound signature.
type InvocationError struct {
	Func string

	// Index is the offending argument, or -1 when the problem is the count.
	Index int

	Reason string
}

func (e *InvocationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("jit: calling %s: %s", e.Func, e.Reason)
	}
	return fmt.Sprintf("jit: calling %s: argument %d: %s", e.Func, e.Index, e.Reason)
}

// Option configures a SpecializedFunc.
type Option func(*SpecializedFunc)

// WithCompiler sets the compiler. The default is a toolchain.CC built from
// toolchain.DefaultConfig with environment overrides.
func WithCompiler(c toolchain.Compiler) Option {
	return func(f *SpecializedFunc) { f.compiler = c }
}

// WithConfig compiles with a toolchain.CC for cfg.
func WithConfig(cfg toolchain.Config) Option {
	return func(f *SpecializedFunc) { f.config = &cfg }
}

// WithLoader sets the module loader. The default is native.NewLoader().
func WithLoader(l native.Loader) Option {
	return func(f *SpecializedFunc) { f.loader = l }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(f *SpecializedFunc) { f.logger = l }
}

// WithTuning adds a tuning value to every fingerprint, so differently tuned
// builds of one kernel never share an entry.
func WithTuning(tuning string) Option {
	return func(f *SpecializedFunc) { f.tuning = tuning }
}

// WithRetryFailures disables failure memoization: a fingerprint whose
// translation, compilation or load failed is attempted again on the next
// call instead of returning the remembered error.
func WithRetryFailures() Option {
	return func(f *SpecializedFunc) { f.retryFailures = true }
}

// Stats counts what a SpecializedFunc has done.
type Stats struct {
	// Compilations is the number of toolchain invocations.
	Compilations int64
	Hits         int64
	Misses       int64
	// Entries is the number of bound entry points in the cache.
	Entries  int64
	Failures int64
}

// SpecializedFunc is a kernel that compiles one native variant per
// fingerprint. It is safe for concurrent use.
type SpecializedFunc struct {
	kernel *transform.Result
	tr     Translator

	compiler      toolchain.Compiler
	config        *toolchain.Config
	loader        native.Loader
	logger        *slog.Logger
	tuning        string
	retryFailures bool

	cache    sync.Map // Fingerprint.Key -> *specialization
	failures sync.Map // Fingerprint.Key -> error
	group    singleflight.Group

	// calls is held for reading by every native call and for writing by
	// Close, so no module is unloaded under a running entry point.
	calls   sync.RWMutex
	mu      sync.Mutex
	modules []native.Module
	closed  atomic.Bool

	compilations, hits, misses, entries, failed atomic.Int64
}

// specialization is an immutable cache entry.
type specialization struct {
	fingerprint Fingerprint
	entry       native.Entry
	buildID     string
	module      string
}

// New prepares fn for specialization with tr. Conversion errors surface
// here, before any call.
func New(fn *frontend.Func, tr Translator, opts ...Option) (*SpecializedFunc, error) {
	kernel, err := transform.Convert(fn)
	if err != nil {
		return nil, err
	}
	f := &SpecializedFunc{kernel: kernel, tr: tr}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	if f.compiler == nil {
		cfg := toolchain.DefaultConfig().WithEnv()
		if f.config != nil {
			cfg = *f.config
		}
		f.compiler = toolchain.NewCC(cfg, f.logger)
	}
	if f.loader == nil {
		f.loader = native.NewLoader()
	}
	return f, nil
}

// FromSource parses the function called name from Go source and calls New.
func FromSource(src, name string, tr Translator, opts ...Option) (*SpecializedFunc, error) {
	fn, err := frontend.ParseFunc(src, name)
	if err != nil {
		return nil, err
	}
	return New(fn, tr, opts...)
}

// Name returns the kernel name.
func (f *SpecializedFunc) Name() string { return f.kernel.Func.Name }

// Fingerprint classifies args. It fails with a *ctype.ConfigError for an
// argument the type adapter cannot describe.
func (f *SpecializedFunc) Fingerprint(args ...any) (Fingerprint, error) {
	fp, _, err := f.fingerprint(args)
	return fp, err
}

func (f *SpecializedFunc) fingerprint(args []any) (Fingerprint, []ctype.Type, error) {
	types, err := ctype.DescribeAll(args)
	if err != nil {
		return Fingerprint{}, nil, err
	}
	return newFingerprint(f.Name(), types, f.tuning), types, nil
}

// Call runs the kernel on args, specializing it first if no entry exists
// for their fingerprint. It returns the kernel's result, or nil for kernels
// that write their output through an argument.
func (f *SpecializedFunc) Call(args ...any) (any, error) {
	if f.closed.Load() {
		return nil, ErrClosed
	}
	if a, ok := f.tr.(Arity); ok {
		if n := a.Arity(f.kernel); len(args) != n {
			return nil, errors.WithStack(&InvocationError{Func: f.Name(), Index: -1, Reason: fmt.Sprintf("got %d arguments, want %d", len(args), n)})
		}
	}
	fp, types, err := f.fingerprint(args)
	if err != nil {
		return nil, err
	}

	if v, ok := f.cache.Load(fp.Key); ok {
		f.hits.Add(1)
		return f.dispatch(v.(*specialization), args, types)
	}
	f.misses.Add(1)

	v, err, _ := f.group.Do(fp.Key, func() (any, error) {
		if v, ok := f.cache.Load(fp.Key); ok {
			return v, nil
		}
		if prev, ok := f.failures.Load(fp.Key); ok {
			return nil, prev.(error)
		}
		s, err := f.specialize(fp, types)
		if errors.Is(err, ErrClosed) {
			return nil, err
		}
		if err != nil {
			f.failed.Add(1)
			if !f.retryFailures {
				f.failures.Store(fp.Key, err)
			}
			return nil, err
		}
		f.cache.Store(fp.Key, s)
		f.entries.Add(1)
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return f.dispatch(v.(*specialization), args, types)
}

func (f *SpecializedFunc) dispatch(s *specialization, args []any, types []ctype.Type) (any, error) {
	sig := s.entry.Signature()
	if len(types) != len(sig.Params) {
		return nil, errors.WithStack(&InvocationError{Func: f.Name(), Index: -1, Reason: fmt.Sprintf("got %d arguments, entry point takes %d", len(types), len(sig.Params))})
	}
	for i, t := range types {
		if !ctype.Equal(t, sig.Params[i]) {
			return nil, errors.WithStack(&InvocationError{Func: f.Name(), Index: i, Reason: fmt.Sprintf("got %s, entry point takes %s", t, sig.Params[i])})
		}
	}
	f.calls.RLock()
	defer f.calls.RUnlock()
	if f.closed.Load() {
		return nil, ErrClosed
	}
	return s.entry.Call(args)
}

// Generate returns the C source that a call with args would compile,
// without compiling it.
func (f *SpecializedFunc) Generate(args ...any) ([]codegen.File, error) {
	fp, types, err := f.fingerprint(args)
	if err != nil {
		return nil, err
	}
	files, _, _, err := f.translate(fp, types)
	return files, err
}

// translate runs the translator, adds the trampoline and renders the project.
func (f *SpecializedFunc) translate(fp Fingerprint, types []ctype.Type) ([]codegen.File, *ir.Project, *ir.FuncDecl, error) {
	tl, err := f.tr.Translate(Request{Kernel: f.kernel, Args: types, Tuning: f.tuning, Fingerprint: fp})
	if err != nil {
		return nil, nil, nil, err
	}
	if tl == nil || tl.Project == nil {
		return nil, nil, nil, errors.Newf("jit: translator produced no project for %s", f.Name())
	}
	var (
		entry *ir.FuncDecl
		file  *ir.CFile
	)
	// Skip prototypes: the trampoline goes into the file with the definition.
	for _, cf := range tl.Project.Files {
		for _, n := range cf.Body {
			if fd, ok := n.(*ir.FuncDecl); ok && fd.Name == tl.Entry && fd.Body != nil {
				entry, file = fd, cf
				break
			}
		}
		if entry != nil {
			break
		}
	}
	if entry == nil {
		return nil, nil, nil, errors.Newf("jit: translator produced no definition of entry point %q", tl.Entry)
	}
	tramp, err := transform.Trampoline(entry)
	if err != nil {
		return nil, nil, nil, err
	}
	file.Body = append(file.Body, tramp)

	files, err := codegen.GenerateProject(tl.Project)
	if err != nil {
		return nil, nil, nil, err
	}
	return files, tl.Project, entry, nil
}

func (f *SpecializedFunc) specialize(fp Fingerprint, types []ctype.Type) (*specialization, error) {
	start := time.Now()
	log := f.logger.With("func", f.Name(), "fingerprint", fp.Desc)
	log.Debug("specializing")

	files, project, entry, err := f.translate(fp, types)
	if err != nil {
		log.Warn("translation failed", "error", err)
		return nil, err
	}

	f.compilations.Add(1)
	art, err := f.compiler.Compile(project.Name, files)
	if err != nil {
		log.Warn("compile failed", "error", err)
		return nil, err
	}
	defer func() {
		if err := art.Cleanup(); err != nil {
			log.Warn("cleanup failed", "dir", art.Dir, "error", err)
		}
	}()

	mod, err := f.loader.Load(art.Module)
	if err != nil {
		log.Warn("load failed", "module", art.Module, "error", err)
		return nil, err
	}
	bound, err := mod.Bind(entry.Name+transform.TrampolineSuffix, entry.Signature())
	if err != nil {
		_ = mod.Close()
		log.Warn("bind failed", "module", art.Module, "error", err)
		return nil, err
	}

	f.mu.Lock()
	if f.closed.Load() {
		f.mu.Unlock()
		log.Debug("closed during compilation, unloading", "module", art.Module)
		return nil, errors.CombineErrors(ErrClosed, mod.Close())
	}
	f.modules = append(f.modules, mod)
	f.mu.Unlock()

	log.Info("compiled", "key", fp.Short(), "build_id", art.BuildID, "elapsed", time.Since(start))
	return &specialization{fingerprint: fp, entry: bound, buildID: art.BuildID, module: art.Module}, nil
}

// Stats returns a snapshot of the counters.
func (f *SpecializedFunc) Stats() Stats {
	return Stats{
		Compilations: f.compilations.Load(),
		Hits:         f.hits.Load(),
		Misses:       f.misses.Load(),
		Entries:      f.entries.Load(),
		Failures:     f.failed.Load(),
	}
}

// Close unloads every module. It waits for native calls in progress; calls
// after Close, and compilations that finish after it, fail with ErrClosed.
func (f *SpecializedFunc) Close() error {
	f.calls.Lock()
	defer f.calls.Unlock()
	if f.closed.Swap(true) {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var errs []error
	for _, m := range f.modules {
		errs = append(errs, m.Close())
	}
	f.modules = nil
	return errors.Join(errs...)
}
