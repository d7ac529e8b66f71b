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

// Map is a dense, open-addressed associative container mapping keys of
// type K to values of type V. See the package doc for its layout and
// collision-resolution strategy. The zero value of Map is not usable;
// construct one with NewMap.
type Map[K comparable, V any] struct {
	t *table[K, V]
}

// NewMap constructs a Map whose BucketCount is capacity, using hash and
// equal to locate and compare keys. It grows when an insert would push
// Len() above MaxLoadFactor() * BucketCount(), or earlier when a colliding
// key finds the collision region full. hash
// and equal must agree: equal(a, b) == true implies hash(a) == hash(b).
func NewMap[K comparable, V any](capacity uint64, hash HashFunc[K], equal EqualFunc[K], opts ...Option[K, V]) (*Map[K, V], error) {
	t, err := newTable(capacity, hash, equal, opts...)
	if err != nil {
		return nil, err
	}
	return &Map[K, V]{t: t}, nil
}

// Len reports the number of entries currently stored.
func (m *Map[K, V]) Len() int { return int(m.t.size) }

// Empty reports whether Len() == 0.
func (m *Map[K, V]) Empty() bool { return m.t.size == 0 }

// BucketCount reports the total number of cells backing the container,
// including both the hashable and collision regions.
func (m *Map[K, V]) BucketCount() uint64 { return m.t.capacity }

// MaxBucketCount reports the largest bucket count the container could
// ever be grown to.
func (m *Map[K, V]) MaxBucketCount() uint64 { return maxRepresentableCapacity - 1 }

// LoadFactor reports size / BucketCount.
func (m *Map[K, V]) LoadFactor() float64 { return m.t.loadFactor() }

// MaxLoadFactor reports the configured max load factor.
func (m *Map[K, V]) MaxLoadFactor() float64 { return m.t.maxLoad }

// SetMaxLoadFactor changes the max load factor. It does not itself trigger
// a rehash; the new bound takes effect on the next insert.
func (m *Map[K, V]) SetMaxLoadFactor(f float64) error { return m.t.setMaxLoadFactor(f) }

// HashFunc returns the hash function this Map was constructed with.
func (m *Map[K, V]) HashFunc() HashFunc[K] { return m.t.hash }

// KeyEqual returns the equality function this Map was constructed with.
func (m *Map[K, V]) KeyEqual() EqualFunc[K] { return m.t.equal }

// Allocator returns the Allocator this Map was constructed with.
func (m *Map[K, V]) Allocator() Allocator[K, V] { return m.t.allocator }

// Clear removes every entry. BucketCount is unchanged.
func (m *Map[K, V]) Clear() { m.t.clear() }

// Rehash grows or shrinks the backing storage so that BucketCount is at
// least n and at least enough to hold Len() entries at the current max
// load factor, then reinserts every entry.
func (m *Map[K, V]) Rehash(n uint64) error { return m.t.rehash(n) }

// Reserve rehashes to a BucketCount of at least n when n exceeds
// MaxLoadFactor() * BucketCount(), and does nothing otherwise. n is not
// scaled by the max load factor, so with a max load factor below 1 fewer
// than n entries fit before the next growth.
func (m *Map[K, V]) Reserve(n uint64) error { return m.t.reserve(n) }

// Contains reports whether key is present.
func (m *Map[K, V]) Contains(key K) bool {
	idx, _ := m.t.find(key)
	return idx != m.t.capacity
}

// Count returns 1 if key is present and 0 otherwise; it exists for parity
// with the multi-key containers this design is modeled on, which never
// hold duplicates.
func (m *Map[K, V]) Count(key K) int {
	if m.Contains(key) {
		return 1
	}
	return 0
}

// Find returns the value stored for key and true, or the zero value and
// false if key is absent.
func (m *Map[K, V]) Find(key K) (V, bool) {
	idx, _ := m.t.find(key)
	if idx == m.t.capacity {
		var zero V
		return zero, false
	}
	return m.t.nodes[idx].value, true
}

// At returns the value stored for key, or ErrNotFound if key is absent.
func (m *Map[K, V]) At(key K) (V, error) {
	idx, _ := m.t.find(key)
	if idx == m.t.capacity {
		var zero V
		return zero, errNotFoundf(key)
	}
	return m.t.nodes[idx].value, nil
}

// Index returns a pointer to the value stored for key, inserting a
// zero-valued entry for key first if it was absent. It mirrors operator[]
// from the container this design is modeled on: the returned pointer is
// invalidated by any subsequent mutation.
func (m *Map[K, V]) Index(key K) (*V, error) {
	idx, _, err := m.t.findOrCreate(key)
	if err != nil {
		return nil, err
	}
	return &m.t.nodes[idx].value, nil
}

// Insert adds key/value if key is absent, reporting whether it did. If key
// is already present, Insert leaves its value unchanged and reports false.
func (m *Map[K, V]) Insert(key K, value V) (bool, error) {
	idx, created, err := m.t.findOrCreate(key)
	if err != nil {
		return false, err
	}
	if created {
		m.t.nodes[idx].value = value
	}
	return created, nil
}

// Emplace is an alias for Insert kept for readers translating code that
// distinguishes construction from assignment; Go's value semantics make
// the two identical here.
func (m *Map[K, V]) Emplace(key K, value V) (bool, error) {
	return m.Insert(key, value)
}

// Put inserts key/value, overwriting any existing value for key. It
// reports whether key was newly inserted.
func (m *Map[K, V]) Put(key K, value V) (bool, error) {
	idx, created, err := m.t.findOrCreate(key)
	if err != nil {
		return false, err
	}
	m.t.nodes[idx].value = value
	return created, nil
}

// Erase removes key, reporting whether it was present.
func (m *Map[K, V]) Erase(key K) bool { return m.t.erase(key) }

// Swap exchanges the entire contents, configuration, and backing storage
// of m and other.
func (m *Map[K, V]) Swap(other *Map[K, V]) {
	m.t, other.t = other.t, m.t
}

// Merge inserts every entry of other that is not already present in m;
// entries already present in m keep their existing value. other is
// unchanged.
func (m *Map[K, V]) Merge(other *Map[K, V]) error {
	for i := uint64(0); i < other.t.capacity; i++ {
		n := &other.t.nodes[i]
		if !n.occupied() {
			continue
		}
		if _, err := m.Insert(n.key, n.value); err != nil {
			return err
		}
	}
	return nil
}

// All returns a range-over-func iterator yielding every key/value pair.
// Mutating the Map from within yield is not supported.
func (m *Map[K, V]) All(yield func(K, V) bool) {
	for i := m.t.nextOccupied(0); i < m.t.capacity; i = m.t.nextOccupied(i + 1) {
		if !yield(m.t.nodes[i].key, m.t.nodes[i].value) {
			return
		}
	}
}

// MapIterator references one entry of a Map. Any mutation of the parent
// Map invalidates every outstanding MapIterator.
type MapIterator[K comparable, V any] struct {
	t   *table[K, V]
	idx uint64
}

// Valid reports whether it refers to an existing entry.
func (it MapIterator[K, V]) Valid() bool { return it.idx < it.t.capacity }

// Key returns the entry's key. It must only be called when Valid().
func (it MapIterator[K, V]) Key() K { return it.t.nodes[it.idx].key }

// Value returns the entry's value. It must only be called when Valid().
func (it MapIterator[K, V]) Value() V { return it.t.nodes[it.idx].value }

// Next returns an iterator to the next entry in storage order.
func (it MapIterator[K, V]) Next() MapIterator[K, V] {
	return MapIterator[K, V]{t: it.t, idx: it.t.nextOccupied(it.idx + 1)}
}

// Begin returns an iterator to the first entry in storage order, or an
// invalid iterator if the Map is empty.
func (m *Map[K, V]) Begin() MapIterator[K, V] {
	return MapIterator[K, V]{t: m.t, idx: m.t.nextOccupied(0)}
}

// End returns the past-the-end iterator.
func (m *Map[K, V]) End() MapIterator[K, V] {
	return MapIterator[K, V]{t: m.t, idx: m.t.capacity}
}

// EraseIterator removes the entry it refers to and returns an iterator to
// the entry that logically follows it. Because erasing a primary cell with
// a nonempty chain swaps a successor up into it, the returned iterator may
// still be positioned at it's original index, now holding that successor;
// this is intentional and matches the swap-to-head erase policy, so a
// caller looping with it = m.EraseIterator(it) visits every surviving
// entry exactly once.
func (m *Map[K, V]) EraseIterator(it MapIterator[K, V]) MapIterator[K, V] {
	if it.idx < m.t.capacity {
		m.t.erase(m.t.nodes[it.idx].key)
	}
	return MapIterator[K, V]{t: m.t, idx: m.t.nextOccupied(it.idx)}
}

// EraseRange removes every entry in [start, end) and returns an iterator
// to the entry that logically follows the removed range.
func (m *Map[K, V]) EraseRange(start, end MapIterator[K, V]) MapIterator[K, V] {
	// Collect the keys first: a swap-to-head erase can move an entry from
	// beyond end into the range, and that entry must survive.
	var keys []K
	for cur := start; cur.idx != end.idx && cur.idx < m.t.capacity; cur = cur.Next() {
		keys = append(keys, m.t.nodes[cur.idx].key)
	}
	for _, k := range keys {
		m.t.erase(k)
	}
	return MapIterator[K, V]{t: m.t, idx: m.t.nextOccupied(start.idx)}
}
