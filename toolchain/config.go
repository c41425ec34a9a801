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

// Package toolchain drives the external C compiler that turns generated
// source into loadable shared modules.
package toolchain

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Config selects the compiler and its flags. It is passed explicitly to the
// driver; nothing in this package reads global state after LoadConfig.
type Config struct {
	// CC is the compiler executable. Defaults to "cc".
	CC string `yaml:"cc"`

	// CFlags are passed before the sources. Defaults to
	// -O3 -fPIC -shared -std=c99.
	CFlags []string `yaml:"cflags"`

	// LDFlags are passed after the sources. Defaults to -lm.
	LDFlags []string `yaml:"ldflags"`

	// CPUFlags adds host-specific target flags (see CPUFlags).
	CPUFlags bool `yaml:"cpu_flags"`

	// WorkDir is where build directories are created. Defaults to the
	// system temporary directory.
	WorkDir string `yaml:"workdir"`

	// Keep leaves sources and modules on disk after loading.
	Keep bool `yaml:"keep"`
}

// DefaultConfig returns the configuration used when nothing is specified.
func DefaultConfig() Config {
	return Config{
		CC:       "cc",
		CFlags:   []string{"-O3", "-fPIC", "-shared", "-std=c99"},
		LDFlags:  []string{"-lm"},
		CPUFlags: true,
	}
}

// LoadConfig reads a YAML configuration from path on top of DefaultConfig
// and applies environment overrides. An empty path loads only the defaults
// and the environment.
//
//	cc: clang
//	cflags: [-O2, -fPIC, -shared]
//	keep: true
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrap(err, "read toolchain config")
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.Wrapf(err, "parse toolchain config %s", path)
		}
	}
	cfg = cfg.WithEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// WithEnv returns c with $CC, $CFLAGS, $LDFLAGS and $CTREE_WORKDIR applied.
// $CFLAGS and $LDFLAGS replace the configured flags.
func (c Config) WithEnv() Config {
	if cc := os.Getenv("CC"); cc != "" {
		c.CC = cc
	}
	if flags := os.Getenv("CFLAGS"); flags != "" {
		c.CFlags = strings.Fields(flags)
	}
	if flags := os.Getenv("LDFLAGS"); flags != "" {
		c.LDFlags = strings.Fields(flags)
	}
	if dir := os.Getenv("CTREE_WORKDIR"); dir != "" {
		c.WorkDir = dir
	}
	return c
}

// Validate reports every problem with c.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.CC) == "" {
		errs = append(errs, errors.New("toolchain: cc must be set"))
	}
	for _, f := range c.CFlags {
		if f == "-o" || strings.HasPrefix(f, "-o ") {
			errs = append(errs, errors.New("toolchain: cflags must not set the output file"))
		}
	}
	if c.WorkDir != "" {
		if fi, err := os.Stat(c.WorkDir); err == nil && !fi.IsDir() {
			errs = append(errs, errors.Newf("toolchain: workdir %s is not a directory", c.WorkDir))
		}
	}
	return errors.Join(errs...)
}

// args returns the compiler arguments for building out from srcs.
func (c Config) args(out string, srcs []string) []string {
	args := append([]string(nil), c.CFlags...)
	if c.CPUFlags {
		args = append(args, CPUFlags()...)
	}
	args = append(args, "-o", out)
	args = append(args, srcs...)
	return append(args, c.LDFlags...)
}
