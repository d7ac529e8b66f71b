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

import "go.uber.org/zap"

// HashFunc computes a 64-bit hash for a key. Equal keys (per the paired
// EqualFunc) must always hash equal; the hash need not be cryptographically
// strong but should be uniformly distributed across all 64 bits.
type HashFunc[K comparable] func(key K) uint64

// EqualFunc reports whether two keys are equivalent. It must be reflexive
// (equal(a, a) == true for every a) and consistent with the paired
// HashFunc.
type EqualFunc[K comparable] func(a, b K) bool

// Option configures a Map or Set at construction time.
type Option[K comparable, V any] interface {
	apply(t *table[K, V]) error
}

type optionFunc[K comparable, V any] func(t *table[K, V]) error

func (f optionFunc[K, V]) apply(t *table[K, V]) error { return f(t) }

// WithMaxLoadFactor sets the fraction of capacity that may be filled before
// an insert triggers growth. f must lie in (0, 1]; the default is 1.0.
func WithMaxLoadFactor[K comparable, V any](f float64) Option[K, V] {
	return optionFunc[K, V](func(t *table[K, V]) error {
		if f <= 0 || f > 1 {
			return invalidArgf("max load factor %v must be in (0, 1]", f)
		}
		t.maxLoad = f
		return nil
	})
}

// WithGrowthFactor sets the multiplier applied to capacity on rehash. g must
// be greater than 1; the default is 2.
func WithGrowthFactor[K comparable, V any](g float64) Option[K, V] {
	return optionFunc[K, V](func(t *table[K, V]) error {
		if g <= 1 {
			return invalidArgf("growth factor %v must be greater than 1", g)
		}
		t.growth = g
		return nil
	})
}

// WithHashableRatio sets alpha, the fraction of capacity reserved for the
// hashable (primary) region; the remainder is the collision region. alpha
// must lie in [0.5, 0.95]; the default is 0.8, within the [0.7, 0.82] range
// the container's design targets.
func WithHashableRatio[K comparable, V any](alpha float64) Option[K, V] {
	return optionFunc[K, V](func(t *table[K, V]) error {
		if alpha < 0.5 || alpha > 0.95 {
			return invalidArgf("hashable ratio %v must be in [0.5, 0.95]", alpha)
		}
		t.hashableRatio = alpha
		return nil
	})
}

// WithAllocator sets the Allocator used for the Node[K,V] backing slice,
// both at construction and on every rehash. The default allocator uses
// make() and relies on the garbage collector.
func WithAllocator[K comparable, V any](a Allocator[K, V]) Option[K, V] {
	return optionFunc[K, V](func(t *table[K, V]) error {
		if a == nil {
			return invalidArgf("allocator must not be nil")
		}
		t.allocator = a
		return nil
	})
}

// WithLogger attaches a *zap.Logger used for debug-level tracing of grow
// and rehash events. The default is a no-op logger, so normal operation
// pays nothing for logging.
func WithLogger[K comparable, V any](logger *zap.Logger) Option[K, V] {
	return optionFunc[K, V](func(t *table[K, V]) error {
		if logger == nil {
			logger = zap.NewNop()
		}
		t.logger = logger
		return nil
	})
}
