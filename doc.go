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

// Package densehash implements a dense, open-addressed associative
// container offering both a key->value Map and a key-only Set. Unlike
// Swiss-table style designs (linear/quadratic probing over groups of
// control bytes), this container resolves collisions with an embedded
// singly-linked chain threaded through a dedicated collision region of the
// same backing array used for primary (hashed) storage.
//
// # Layout
//
// All entries live in one contiguous slice of Node[K,V] plus a trailing
// sentinel cell. The slice is split into a hashable prefix of H = floor(alpha
// * C) cells addressed directly by hash, and a collision suffix of C - H
// cells that absorb hash collisions. A key whose primary slot is already
// occupied by a different key is placed in the collision suffix and linked
// from the primary cell's chain.
//
//	[ 0 .......... H-1 | H .......... C-1 | C (sentinel) ]
//	   primary (hashed)    collision chain    free-list tail guard
//
// Each node packs a presence bit and a 63-bit hash fingerprint into a single
// uint64 (meta), and a uint64 successor index (next) into its own chain; 0
// always means end-of-chain because the collision region starts at H >= 1,
// so index 0 can never be a legitimate successor.
//
// Free collision cells are threaded into a FIFO via their own next fields,
// delimited by head/tail indices into [H, C]. Reclaimed cells are reused
// before the FIFO's bump-pointer tail extends further into the collision
// region, keeping it compact.
//
// On erase of an occupied primary cell that heads a nonempty chain, the
// chain's second entry is swapped up into the primary cell rather than
// rewritten in place; this preserves the invariant that every occupied
// primary cell is the head of its own chain without needing back-pointers.
//
// # Concurrency
//
// Map and Set are not safe for concurrent use by multiple goroutines, unless
// all of them are performing reads and none is mutating. Any mutating
// operation (Insert, Put, Emplace, Erase, Clear, Rehash, Reserve, Swap,
// Merge, Index, SetMaxLoadFactor) may invalidate every outstanding Iterator.
package densehash
