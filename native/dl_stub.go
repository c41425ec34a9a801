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

//go:build !cgo || !(linux || darwin)

package native

import "github.com/cockroachdb/errors"

// Supported reports whether this build can load native modules.
const Supported = false

type stubLoader struct{}

// NewLoader returns a Loader that always fails: loading modules needs cgo
// on linux or darwin.
func NewLoader() Loader { return stubLoader{} }

func (stubLoader) Load(path string) (Module, error) {
	return nil, errors.WithStack(&LoadError{Path: path, Reason: "native loading requires cgo on linux or darwin"})
}
