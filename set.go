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

// Set is a dense, open-addressed container holding unique keys of type K.
// It shares its engine with Map, instantiated with V = struct{} so a
// membership entry costs no extra value storage. The zero value of Set is
// not usable; construct one with NewSet.
type Set[K comparable] struct {
	t *table[K, struct{}]
}

// NewSet constructs a Set whose BucketCount is capacity, using hash and
// equal to locate and compare keys. It grows when an insert would push
// Len() above MaxLoadFactor() * BucketCount(), or earlier when a colliding
// key finds the collision region full.
func NewSet[K comparable](capacity uint64, hash HashFunc[K], equal EqualFunc[K], opts ...Option[K, struct{}]) (*Set[K], error) {
	t, err := newTable(capacity, hash, equal, opts...)
	if err != nil {
		return nil, err
	}
	return &Set[K]{t: t}, nil
}

// Len reports the number of keys currently stored.
func (s *Set[K]) Len() int { return int(s.t.size) }

// Empty reports whether Len() == 0.
func (s *Set[K]) Empty() bool { return s.t.size == 0 }

// BucketCount reports the total number of cells backing the container.
func (s *Set[K]) BucketCount() uint64 { return s.t.capacity }

// MaxBucketCount reports the largest bucket count the container could
// ever be grown to.
func (s *Set[K]) MaxBucketCount() uint64 { return maxRepresentableCapacity - 1 }

// LoadFactor reports size / BucketCount.
func (s *Set[K]) LoadFactor() float64 { return s.t.loadFactor() }

// MaxLoadFactor reports the configured max load factor.
func (s *Set[K]) MaxLoadFactor() float64 { return s.t.maxLoad }

// SetMaxLoadFactor changes the max load factor. It does not itself trigger
// a rehash; the new bound takes effect on the next insert.
func (s *Set[K]) SetMaxLoadFactor(f float64) error { return s.t.setMaxLoadFactor(f) }

// HashFunc returns the hash function this Set was constructed with.
func (s *Set[K]) HashFunc() HashFunc[K] { return s.t.hash }

// KeyEqual returns the equality function this Set was constructed with.
func (s *Set[K]) KeyEqual() EqualFunc[K] { return s.t.equal }

// Allocator returns the Allocator this Set was constructed with.
func (s *Set[K]) Allocator() Allocator[K, struct{}] { return s.t.allocator }

// Clear removes every key. BucketCount is unchanged.
func (s *Set[K]) Clear() { s.t.clear() }

// Rehash grows or shrinks the backing storage so that BucketCount is at
// least n and at least enough to hold Len() keys at the current max load
// factor, then reinserts every key.
func (s *Set[K]) Rehash(n uint64) error { return s.t.rehash(n) }

// Reserve rehashes to a BucketCount of at least n when n exceeds
// MaxLoadFactor() * BucketCount(), and does nothing otherwise. n is not
// scaled by the max load factor, so with a max load factor below 1 fewer
// than n keys fit before the next growth.
func (s *Set[K]) Reserve(n uint64) error { return s.t.reserve(n) }

// Contains reports whether key is present.
func (s *Set[K]) Contains(key K) bool {
	idx, _ := s.t.find(key)
	return idx != s.t.capacity
}

// Count returns 1 if key is present and 0 otherwise.
func (s *Set[K]) Count(key K) int {
	if s.Contains(key) {
		return 1
	}
	return 0
}

// Insert adds key if absent, reporting whether it was newly inserted.
func (s *Set[K]) Insert(key K) (bool, error) {
	_, created, err := s.t.findOrCreate(key)
	return created, err
}

// Emplace is an alias for Insert kept for readers translating code that
// distinguishes construction from assignment.
func (s *Set[K]) Emplace(key K) (bool, error) {
	return s.Insert(key)
}

// Erase removes key, reporting whether it was present.
func (s *Set[K]) Erase(key K) bool { return s.t.erase(key) }

// Swap exchanges the entire contents, configuration, and backing storage
// of s and other.
func (s *Set[K]) Swap(other *Set[K]) {
	s.t, other.t = other.t, s.t
}

// Merge inserts every key of other that is not already present in s.
// other is unchanged.
func (s *Set[K]) Merge(other *Set[K]) error {
	for i := uint64(0); i < other.t.capacity; i++ {
		n := &other.t.nodes[i]
		if !n.occupied() {
			continue
		}
		if _, err := s.Insert(n.key); err != nil {
			return err
		}
	}
	return nil
}

// All returns a range-over-func iterator yielding every key. Mutating the
// Set from within yield is not supported.
func (s *Set[K]) All(yield func(K) bool) {
	for i := s.t.nextOccupied(0); i < s.t.capacity; i = s.t.nextOccupied(i + 1) {
		if !yield(s.t.nodes[i].key) {
			return
		}
	}
}

// SetIterator references one key of a Set. Any mutation of the parent Set
// invalidates every outstanding SetIterator.
type SetIterator[K comparable] struct {
	t   *table[K, struct{}]
	idx uint64
}

// Valid reports whether it refers to an existing key.
func (it SetIterator[K]) Valid() bool { return it.idx < it.t.capacity }

// Key returns the referenced key. It must only be called when Valid().
func (it SetIterator[K]) Key() K { return it.t.nodes[it.idx].key }

// Next returns an iterator to the next key in storage order.
func (it SetIterator[K]) Next() SetIterator[K] {
	return SetIterator[K]{t: it.t, idx: it.t.nextOccupied(it.idx + 1)}
}

// Begin returns an iterator to the first key in storage order, or an
// invalid iterator if the Set is empty.
func (s *Set[K]) Begin() SetIterator[K] {
	return SetIterator[K]{t: s.t, idx: s.t.nextOccupied(0)}
}

// End returns the past-the-end iterator.
func (s *Set[K]) End() SetIterator[K] {
	return SetIterator[K]{t: s.t, idx: s.t.capacity}
}

// EraseIterator removes the key it refers to and returns an iterator to
// the key that logically follows it, matching the swap-to-head erase
// policy described on Map.EraseIterator.
func (s *Set[K]) EraseIterator(it SetIterator[K]) SetIterator[K] {
	if it.idx < s.t.capacity {
		s.t.erase(s.t.nodes[it.idx].key)
	}
	return SetIterator[K]{t: s.t, idx: s.t.nextOccupied(it.idx)}
}

// EraseRange removes every key in [start, end) and returns an iterator to
// the key that logically follows the removed range.
func (s *Set[K]) EraseRange(start, end SetIterator[K]) SetIterator[K] {
	// Collect the keys first: a swap-to-head erase can move a key from
	// beyond end into the range, and that key must survive.
	var keys []K
	for cur := start; cur.idx != end.idx && cur.idx < s.t.capacity; cur = cur.Next() {
		keys = append(keys, s.t.nodes[cur.idx].key)
	}
	for _, k := range keys {
		s.t.erase(k)
	}
	return SetIterator[K]{t: s.t, idx: s.t.nextOccupied(start.idx)}
}
