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

// Package ctype describes the C types that generated kernels are declared
// with, and classifies Go call arguments into those types.
//
// A descriptor is one of three shapes:
//
//   - [Scalar]: a C arithmetic type (double, int, unsigned char, ...).
//   - [Pointer]: a pointer to an element type, optionally carrying the
//     per-axis extent of the buffer it points to. Buffer arguments
//     (slices, [Array]) are described this way.
//   - [Func]: a function signature.
//
// Descriptors are immutable values. Two descriptors are interchangeable
// exactly when [Equal] reports true, which is also exactly when their
// String forms match; the specialization cache relies on this.
package ctype
