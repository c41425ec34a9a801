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

package toolchain

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/ajroetker/go-ctree/codegen"
)

// CompileError reports a nonzero exit from the compiler.
type CompileError struct {
	Command string
	Output  string
	Err     error
}

func (e *CompileError) Error() string {
	out := strings.TrimSpace(e.Output)
	if out == "" {
		return fmt.Sprintf("toolchain: %s: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("toolchain: %s: %v\n%s", e.Command, e.Err, out)
}

func (e *CompileError) Unwrap() error { return e.Err }

// Compiler builds a shared module from generated source files.
type Compiler interface {
	Compile(name string, files []codegen.File) (*Artifact, error)
}

// Artifact is a compiled module on disk.
type Artifact struct {
	// BuildID is unique per compilation and part of the module file name,
	// so the dynamic loader never returns a stale module cached by path.
	BuildID string

	// Dir holds the sources and the module.
	Dir string

	// Module is the path of the shared module.
	Module string

	// Sources are the paths of the C files that were compiled.
	Sources []string

	Elapsed time.Duration

	keep bool
}

// Cleanup removes the build directory unless the configuration asked to keep
// it. A loaded module stays usable after its file is removed.
func (a *Artifact) Cleanup() error {
	if a == nil || a.keep {
		return nil
	}
	return errors.Wrap(os.RemoveAll(a.Dir), "remove build directory")
}

// CC compiles with an external C compiler. It is safe for concurrent use;
// every build gets its own directory.
type CC struct {
	cfg    Config
	logger *slog.Logger
}

// NewCC returns a compiler for cfg. A nil logger uses slog.Default().
func NewCC(cfg Config, logger *slog.Logger) *CC {
	if logger == nil {
		logger = slog.Default()
	}
	return &CC{cfg: cfg, logger: logger}
}

// Config returns the configuration the compiler was created with.
func (c *CC) Config() Config { return c.cfg }

// Available reports an error when the configured compiler is not on PATH.
func (c *CC) Available() error {
	_, err := exec.LookPath(c.cfg.CC)
	return errors.Wrapf(err, "toolchain: compiler %q", c.cfg.CC)
}

// Compile writes files into a fresh build directory and links them into one
// shared module named after name and a new build ID.
func (c *CC) Compile(name string, files []codegen.File) (*Artifact, error) {
	if len(files) == 0 {
		return nil, errors.Newf("toolchain: nothing to compile for %s", name)
	}
	if err := c.cfg.Validate(); err != nil {
		return nil, err
	}
	id := uuid.Must(uuid.NewV7()).String()

	base := c.cfg.WorkDir
	if base == "" {
		base = os.TempDir()
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, errors.Wrap(err, "create work directory")
	}
	dir, err := os.MkdirTemp(base, "ctree-"+name+"-")
	if err != nil {
		return nil, errors.Wrap(err, "create build directory")
	}

	art := &Artifact{
		BuildID: id,
		Dir:     dir,
		Module:  filepath.Join(dir, name+"-"+id+ModuleExt()),
		keep:    c.cfg.Keep,
	}
	for _, f := range files {
		path := filepath.Join(dir, filepath.Base(f.Name))
		if err := os.WriteFile(path, []byte(f.Source), 0o644); err != nil {
			_ = art.Cleanup()
			return nil, errors.Wrapf(err, "write %s", f.Name)
		}
		art.Sources = append(art.Sources, path)
	}

	args := c.cfg.args(art.Module, art.Sources)
	cmd := exec.Command(c.cfg.CC, args...)
	cmd.Dir = dir
	c.logger.Debug("invoking compiler", "cc", c.cfg.CC, "args", args, "build_id", id)

	start := time.Now()
	output, err := cmd.CombinedOutput()
	art.Elapsed = time.Since(start)
	if err != nil {
		_ = art.Cleanup()
		return nil, errors.WithStack(&CompileError{
			Command: c.cfg.CC + " " + strings.Join(args, " "),
			Output:  string(output),
			Err:     err,
		})
	}
	return art, nil
}

// ModuleExt returns the shared module extension for the host.
func ModuleExt() string {
	switch runtime.GOOS {
	case "darwin":
		return ".dylib"
	case "windows":
		return ".dll"
	}
	return ".so"
}
