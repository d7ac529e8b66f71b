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
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func newIntSet(t *testing.T, capacity uint64, opts ...Option[int, struct{}]) *Set[int] {
	t.Helper()
	s, err := NewSet[int](capacity, intHash, intEqual, opts...)
	require.NoError(t, err)
	return s
}

func toBuiltinSet(s *Set[int]) map[int]struct{} {
	r := make(map[int]struct{})
	s.All(func(k int) bool {
		r[k] = struct{}{}
		return true
	})
	return r
}

func TestSetBasic(t *testing.T) {
	s := newIntSet(t, 1)
	const count = 200
	want := make(map[int]struct{})

	for i := 0; i < count; i++ {
		require.False(t, s.Contains(i))
	}
	for i := 0; i < count; i++ {
		created, err := s.Insert(i)
		require.NoError(t, err)
		require.True(t, created)
		want[i] = struct{}{}
		require.True(t, s.Contains(i))
		require.Equal(t, i+1, s.Len())
	}
	require.Equal(t, want, toBuiltinSet(s))

	for i := 0; i < count; i++ {
		created, err := s.Insert(i)
		require.NoError(t, err)
		require.False(t, created)
	}
	require.Equal(t, count, s.Len())

	for i := 0; i < count; i++ {
		require.True(t, s.Erase(i))
		delete(want, i)
		require.False(t, s.Contains(i))
		require.Equal(t, count-i-1, s.Len())
	}
	require.False(t, s.Erase(0))
}

func TestSetIteratorAndErase(t *testing.T) {
	s := newIntSet(t, 4)
	want := make(map[int]struct{})
	for i := 0; i < 60; i++ {
		_, err := s.Insert(i)
		require.NoError(t, err)
		want[i] = struct{}{}
	}

	visited := make(map[int]struct{})
	for it := s.Begin(); it.Valid(); {
		k := it.Key()
		if k%4 == 0 {
			it = s.EraseIterator(it)
			delete(want, k)
			continue
		}
		visited[k] = struct{}{}
		it = it.Next()
	}
	require.Equal(t, want, visited)
	require.Equal(t, want, toBuiltinSet(s))
}

func TestSetMerge(t *testing.T) {
	a := newIntSet(t, 4)
	b := newIntSet(t, 4)
	for i := 0; i < 10; i++ {
		_, err := a.Insert(i)
		require.NoError(t, err)
	}
	for i := 5; i < 15; i++ {
		_, err := b.Insert(i)
		require.NoError(t, err)
	}
	require.NoError(t, a.Merge(b))
	require.Equal(t, 15, a.Len())
	require.Equal(t, 10, b.Len())
}

func TestSetSwap(t *testing.T) {
	a := newIntSet(t, 4)
	b := newIntSet(t, 4)
	_, err := a.Insert(1)
	require.NoError(t, err)
	_, err = b.Insert(2)
	require.NoError(t, err)

	a.Swap(b)
	require.True(t, a.Contains(2))
	require.True(t, b.Contains(1))
}

func TestSetClearAndReuse(t *testing.T) {
	s := newIntSet(t, 8)
	for i := 0; i < 50; i++ {
		_, err := s.Insert(i)
		require.NoError(t, err)
	}
	s.Clear()
	require.Equal(t, 0, s.Len())
	for i := 0; i < 50; i++ {
		require.False(t, s.Contains(i))
	}
	_, err := s.Insert(7)
	require.NoError(t, err)
	require.True(t, s.Contains(7))
}

func TestSetRandomProperties(t *testing.T) {
	s := newIntSet(t, 1)
	want := make(map[int]struct{})
	for i := 0; i < 20000; i++ {
		switch r := rand.Float64(); {
		case r < 0.5:
			k := rand.Intn(5000)
			_, err := s.Insert(k)
			require.NoError(t, err)
			want[k] = struct{}{}
		case r < 0.9:
			var k int
			for kk := range want {
				k = kk
				break
			}
			if len(want) > 0 {
				require.True(t, s.Erase(k))
				delete(want, k)
			}
		default:
			require.NoError(t, s.Reserve(uint64(len(want)*2+1)))
		}
		require.Equal(t, len(want), s.Len())
	}
	require.Equal(t, want, toBuiltinSet(s))
}
