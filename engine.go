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

import (
	"math"
	"math/bits"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

const (
	defaultMaxLoad       = 1.0
	defaultGrowthFactor  = 2.0
	defaultHashableRatio = 0.8

	// debugInvariants gates the expensive, panic-on-failure invariant walk
	// performed by table.checkInvariants. Flip to true only when chasing a
	// correctness bug in this package; it is never enabled in committed
	// tests because it turns every mutation into an O(capacity) scan.
	debugInvariants = false
)

// maxRepresentableCapacity is the one capacity value Construct and rehash
// both refuse, since it leaves no room for the trailing sentinel cell.
const maxRepresentableCapacity = ^uint64(0)

// table is the ~600-line engine shared by Map[K,V] and Set[K]. It owns the
// node array, the hashable/collision split, the collision-region free list,
// and every algorithm from the container's design: hash-slot assignment,
// find, insert, erase, and rehash. Map and Set differ only in what they do
// with V and which subset of operations they expose.
type table[K comparable, V any] struct {
	nodes []Node[K, V]

	capacity uint64 // C: total cells, excluding the trailing sentinel
	hashable uint64 // H = floor(hashableRatio * C)
	size     uint64

	// head and tail delimit the collision-region free list FIFO, threaded
	// through the next fields of reclaimed cells. head == tail means the
	// free list is empty and the next cell comes from the bump pointer at
	// head, provided head < capacity.
	head, tail uint64

	maxLoad       float64
	growth        float64
	hashableRatio float64

	hash      HashFunc[K]
	equal     EqualFunc[K]
	allocator Allocator[K, V]
	logger    *zap.Logger
}

func newTable[K comparable, V any](capacity uint64, hash HashFunc[K], equal EqualFunc[K], opts ...Option[K, V]) (*table[K, V], error) {
	if hash == nil {
		return nil, invalidArgf("hash function must not be nil")
	}
	if equal == nil {
		return nil, invalidArgf("equal function must not be nil")
	}
	if capacity < 1 {
		return nil, invalidArgf("capacity %d must be at least 1", capacity)
	}
	if capacity == maxRepresentableCapacity {
		return nil, capacityOverflowf("capacity %d reaches the maximum representable size", capacity)
	}

	t := &table[K, V]{
		capacity:      capacity,
		maxLoad:       defaultMaxLoad,
		growth:        defaultGrowthFactor,
		hashableRatio: defaultHashableRatio,
		hash:          hash,
		equal:         equal,
		allocator:     defaultAllocator[K, V]{},
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		if err := opt.apply(t); err != nil {
			return nil, err
		}
	}

	nodes, err := t.allocNodes(int(capacity) + 1)
	if err != nil {
		return nil, err
	}
	t.nodes = nodes
	t.hashable = computeHashable(capacity, t.hashableRatio)
	t.head = t.hashable
	t.tail = t.hashable
	return t, nil
}

// computeHashable returns H = floor(alpha*C), clamped to [1, C] so that a
// degenerate capacity of 1 still has a usable primary slot and a container
// never reserves more hashable cells than it has.
func computeHashable(capacity uint64, alpha float64) uint64 {
	h := uint64(float64(capacity) * alpha)
	if h < 1 {
		h = 1
	}
	if h > capacity {
		h = capacity
	}
	return h
}

// allocNodes calls the configured Allocator, translating a panic or a nil
// result into ErrAllocatorFailure so construction and rehash can report it
// as a normal error instead of crashing the caller.
func (t *table[K, V]) allocNodes(n int) (nodes []Node[K, V], err error) {
	defer func() {
		if r := recover(); r != nil {
			nodes = nil
			err = errors.Wrapf(ErrAllocatorFailure, "allocator panicked: %v", r)
		}
	}()
	nodes = t.allocator.AllocNodes(n)
	if nodes == nil {
		return nil, errors.Wrap(ErrAllocatorFailure, "allocator returned a nil slice")
	}
	return nodes, nil
}

// primarySlot implements the hash-slot assignment function: mask h with
// (2^ceil(log2 hashable)) - 1, then fold indices that land in
// [hashable, 2^ceil(log2 hashable)) back into [0, hashable).
func (t *table[K, V]) primarySlot(h uint64) uint64 {
	if t.hashable <= 1 {
		return 0
	}
	mask := maskFor(t.hashable)
	i := h & mask
	if i >= t.hashable {
		return i - t.hashable
	}
	return i
}

// maskFor returns (2^ceil(log2 n)) - 1 without relying on undefined
// leading-zero behavior when n == 1 (bits.Len64(0) is well-defined as 0).
func maskFor(n uint64) uint64 {
	if n <= 1 {
		return 0
	}
	width := bits.Len64(n - 1)
	return (uint64(1) << width) - 1
}

// find walks key's chain starting at its primary slot. It returns the
// index of the matching occupied cell and its predecessor in the chain
// (the primary slot itself when the match is at the primary slot), or
// (capacity, last cell of the chain) if key is absent. erase uses the
// predecessor of a found cell to unlink a collision cell, and insert uses
// the last cell to splice a new collision cell onto the end of the chain.
func (t *table[K, V]) find(key K) (idx, prev uint64) {
	h := t.hash(key)
	fingerprint := h >> 1
	cur := t.primarySlot(h)
	prev = cur
	for {
		n := &t.nodes[cur]
		if n.occupied() && n.fingerprint() == fingerprint && t.equal(n.key, key) {
			return cur, prev
		}
		prev = cur
		cur = n.next
		if cur == 0 {
			return t.capacity, prev
		}
	}
}

// chainTail returns the index of the last cell in the chain headed by the
// occupied primary cell p.
func (t *table[K, V]) chainTail(p uint64) uint64 {
	cur := p
	for t.nodes[cur].next != 0 {
		cur = t.nodes[cur].next
	}
	return cur
}

// findOrCreate returns the index holding key, creating a zero-valued
// cell for it if absent. Callers that need a value written (Map) do so on
// the returned index; Set has nothing further to do. The insert path's
// "rehash then restart" loop repeats until the insert succeeds: each
// iteration either returns or performs exactly one rehash before looping,
// and a rehash strictly increases capacity, so the loop terminates. One
// call can rehash more than once, e.g. when a single growth step from a
// small capacity still leaves no room under the max load factor.
func (t *table[K, V]) findOrCreate(key K) (idx uint64, created bool, err error) {
	for {
		h := t.hash(key)
		found, prev := t.find(key)
		if found != t.capacity {
			return found, false, nil
		}

		if t.size+1 > uint64(t.maxLoad*float64(t.capacity)) {
			if err := t.growAndRehash(); err != nil {
				return 0, false, err
			}
			continue
		}

		p := t.primarySlot(h)
		var insertIdx uint64
		if !t.nodes[p].occupied() {
			insertIdx = p
		} else {
			newIdx, ok := t.acquireCollisionCell()
			if !ok {
				if err := t.growAndRehash(); err != nil {
					return 0, false, err
				}
				continue
			}
			insertIdx = newIdx
			t.nodes[prev].next = insertIdx
		}

		var zero V
		t.nodes[insertIdx].key = key
		t.nodes[insertIdx].value = zero
		t.nodes[insertIdx].setFull(h)
		t.nodes[insertIdx].next = 0
		t.size++
		t.checkInvariants()
		return insertIdx, true, nil
	}
}

// insertKnownAbsent inserts key/value without checking whether key is
// already present. It is used only by rehash, which iterates the distinct
// occupied cells of the table being replaced and therefore never offers a
// duplicate key.
func (t *table[K, V]) insertKnownAbsent(key K, value V) error {
	for {
		h := t.hash(key)
		if t.size+1 > uint64(t.maxLoad*float64(t.capacity)) {
			if err := t.growAndRehash(); err != nil {
				return err
			}
			continue
		}

		p := t.primarySlot(h)
		var insertIdx uint64
		if !t.nodes[p].occupied() {
			insertIdx = p
		} else {
			newIdx, ok := t.acquireCollisionCell()
			if !ok {
				if err := t.growAndRehash(); err != nil {
					return err
				}
				continue
			}
			insertIdx = newIdx
			t.nodes[t.chainTail(p)].next = insertIdx
		}

		t.nodes[insertIdx].key = key
		t.nodes[insertIdx].value = value
		t.nodes[insertIdx].setFull(h)
		t.nodes[insertIdx].next = 0
		t.size++
		return nil
	}
}

// acquireCollisionCell returns an unused cell in [hashable, capacity),
// preferring the reclaimed-cell FIFO over extending the bump pointer. ok is
// false when the collision region is completely full, i.e. the caller must
// rehash before retrying.
func (t *table[K, V]) acquireCollisionCell() (idx uint64, ok bool) {
	if t.head == t.tail {
		if t.head >= t.capacity {
			return 0, false
		}
		idx = t.head
		t.head++
		t.tail++
		return idx, true
	}

	idx = t.nodes[t.head].next
	if idx == t.tail {
		t.tail = t.head
	} else {
		t.nodes[t.head].next = t.nodes[idx].next
	}
	return idx, true
}

// releaseCollisionCell appends e to the free-list FIFO's tail. e must be an
// unoccupied cell in [hashable, capacity). Writing through cells[tail].next
// is always in-bounds because the backing array carries one extra sentinel
// cell at index capacity.
func (t *table[K, V]) releaseCollisionCell(e uint64) {
	t.nodes[t.tail].next = e
	t.tail = e
}

// erase removes key if present, returning whether it was found. Case A
// (primary cell) swaps a successor up to preserve the invariant that every
// occupied primary cell heads its own chain; Case B (collision cell)
// unlinks it from its predecessor. Either way the vacated collision cell,
// if any, is returned to the free list.
func (t *table[K, V]) erase(key K) bool {
	idx, prev := t.find(key)
	if idx == t.capacity {
		return false
	}

	freed := idx
	next := t.nodes[idx].next
	if idx < t.hashable {
		if next == 0 {
			t.nodes[idx].setEmpty()
			t.size--
			t.checkInvariants()
			return true
		}
		t.nodes[idx], t.nodes[next] = t.nodes[next], t.nodes[idx]
		freed = next
	} else {
		t.nodes[prev].next = next
	}

	t.nodes[freed].setEmpty()
	t.nodes[freed].next = 0
	t.releaseCollisionCell(freed)
	t.size--
	t.checkInvariants()
	return true
}

// clear marks every cell empty and resets the free list, without zeroing
// key or value storage: memory is only actually reclaimed on destruction,
// on a rehash that discards this backing array, or when a future insert
// overwrites a cell's contents.
func (t *table[K, V]) clear() {
	for i := uint64(0); i < t.capacity; i++ {
		t.nodes[i].setEmpty()
	}
	t.size = 0
	t.head = t.hashable
	t.tail = t.hashable
}

// growAndRehash grows capacity by the configured growth factor and
// rehashes into it. Called only from the insert path's two triggers.
func (t *table[K, V]) growAndRehash() error {
	next := uint64(float64(t.capacity) * t.growth)
	if next <= t.capacity {
		next = t.capacity + 1
	}
	return t.rehashTo(next)
}

// rehash constructs a table sized to max(n, ceil(size/maxLoad)), reinserts
// every occupied entry, and swaps it in.
func (t *table[K, V]) rehash(n uint64) error {
	minNeeded := uint64(math.Ceil(float64(t.size) / t.maxLoad))
	target := n
	if minNeeded > target {
		target = minNeeded
	}
	if target < 1 {
		target = 1
	}
	return t.rehashTo(target)
}

// reserve rehashes only if n would not fit under the current capacity and
// max load factor.
func (t *table[K, V]) reserve(n uint64) error {
	if float64(n) <= t.maxLoad*float64(t.capacity) {
		return nil
	}
	return t.rehash(n)
}

// rehashTo builds a full replacement table at newCapacity, reinserts every
// occupied entry from t, and only then swaps state into t. If allocation or
// reinsertion fails, t is left completely untouched.
func (t *table[K, V]) rehashTo(newCapacity uint64) error {
	if newCapacity < 1 {
		newCapacity = 1
	}
	if newCapacity == maxRepresentableCapacity {
		return capacityOverflowf("grown capacity %d reaches the maximum representable size", newCapacity)
	}

	replacement := &table[K, V]{
		capacity:      newCapacity,
		maxLoad:       t.maxLoad,
		growth:        t.growth,
		hashableRatio: t.hashableRatio,
		hash:          t.hash,
		equal:         t.equal,
		allocator:     t.allocator,
		logger:        t.logger,
	}
	nodes, err := replacement.allocNodes(int(newCapacity) + 1)
	if err != nil {
		return err
	}
	replacement.nodes = nodes
	replacement.hashable = computeHashable(newCapacity, replacement.hashableRatio)
	replacement.head = replacement.hashable
	replacement.tail = replacement.hashable

	for i := uint64(0); i < t.capacity; i++ {
		n := &t.nodes[i]
		if n.occupied() {
			if err := replacement.insertKnownAbsent(n.key, n.value); err != nil {
				return err
			}
		}
	}

	t.logger.Debug("densehash: rehash",
		zap.Uint64("old_capacity", t.capacity),
		zap.Uint64("new_capacity", replacement.capacity),
		zap.Uint64("size", t.size))

	old := t.nodes
	oldAllocator := t.allocator
	*t = *replacement
	oldAllocator.FreeNodes(old)
	t.checkInvariants()
	return nil
}

func (t *table[K, V]) setMaxLoadFactor(f float64) error {
	if f <= 0 || f > 1 {
		return invalidArgf("max load factor %v must be in (0, 1]", f)
	}
	t.maxLoad = f
	return nil
}

func (t *table[K, V]) loadFactor() float64 {
	return float64(t.size) / float64(t.capacity)
}

// nextOccupied returns the smallest occupied index >= from, or capacity if
// none exists. It is the advancement primitive for both Map and Set
// iterators.
func (t *table[K, V]) nextOccupied(from uint64) uint64 {
	i := from
	for i < t.capacity && !t.nodes[i].occupied() {
		i++
	}
	return i
}

// checkInvariants re-derives size, chain membership, and free-list shape
// from scratch and panics on mismatch. It is a programming-error detector
// for this package's own development, not a user-facing error path, and is
// compiled in but inert unless debugInvariants is flipped to true.
func (t *table[K, V]) checkInvariants() {
	if !debugInvariants {
		return
	}

	var counted uint64
	for i := uint64(0); i < t.capacity; i++ {
		n := &t.nodes[i]
		if !n.occupied() {
			continue
		}
		counted++
		if i < t.hashable {
			continue
		}
		// Every occupied collision cell must be reachable from some
		// primary cell's chain; verified indirectly by requiring find to
		// relocate it.
		idx, _ := t.find(n.key)
		if idx != i {
			panic("densehash: invariant violation: occupied collision cell unreachable from its chain")
		}
	}
	if counted != t.size {
		panic("densehash: invariant violation: size does not match occupied cell count")
	}

	seen := make(map[uint64]bool)
	if t.head != t.tail {
		cur := t.head
		for {
			if seen[cur] {
				panic("densehash: invariant violation: free list cycle")
			}
			seen[cur] = true
			if t.nodes[cur].occupied() {
				panic("densehash: invariant violation: free list references an occupied cell")
			}
			next := t.nodes[cur].next
			if next == t.tail {
				break
			}
			cur = next
		}
	}
}
