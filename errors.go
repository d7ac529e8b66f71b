// Copyright 2024 The Cockroach Authors
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

package densehash

import "github.com/cockroachdb/errors"

// Sentinel errors for the four failure kinds this package can report.
// Callers should compare with errors.Is, since construction and rehash
// failures are wrapped with additional context.
var (
	// ErrInvalidArgument is returned for a non-positive initial capacity,
	// a max load factor outside (0, 1], a growth factor <= 1, or a
	// hashable ratio outside [0.5, 0.95].
	ErrInvalidArgument = errors.New("densehash: invalid argument")

	// ErrCapacityOverflow is returned when an initial or grown capacity
	// would reach or exceed the maximum representable size.
	ErrCapacityOverflow = errors.New("densehash: capacity overflow")

	// ErrNotFound is returned by At when the requested key is absent.
	ErrNotFound = errors.New("densehash: key not found")

	// ErrAllocatorFailure is returned when a configured Allocator panics
	// or otherwise cannot satisfy a request made during construction or
	// rehash. The original table is left intact when this occurs during
	// rehash.
	ErrAllocatorFailure = errors.New("densehash: allocator failure")
)

func invalidArgf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidArgument, format, args...)
}

func capacityOverflowf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrCapacityOverflow, format, args...)
}

func errNotFoundf[K any](key K) error {
	return errors.Wrapf(ErrNotFound, "key %v not found", key)
}
