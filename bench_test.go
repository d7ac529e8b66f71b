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
	"strconv"
	"testing"

	"github.com/aclements/go-perfevent/perfbench"
)

var benchSizeCases = []int{6, 12, 18, 24, 30, 64, 128, 256, 1024, 4096, 1 << 16}

func benchSizes(f func(b *testing.B, n int)) func(*testing.B) {
	return func(b *testing.B) {
		for _, n := range benchSizeCases {
			b.Run("len="+strconv.Itoa(n), func(b *testing.B) { f(b, n) })
		}
	}
}

func BenchmarkGetHit(b *testing.B) {
	b.Run("impl=runtimeMap", benchSizes(benchmarkRuntimeMapGetHit))
	b.Run("impl=denseMap", benchSizes(benchmarkDenseMapGetHit))
}

func BenchmarkGetMiss(b *testing.B) {
	b.Run("impl=runtimeMap", benchSizes(benchmarkRuntimeMapGetMiss))
	b.Run("impl=denseMap", benchSizes(benchmarkDenseMapGetMiss))
}

func BenchmarkPutGrow(b *testing.B) {
	b.Run("impl=runtimeMap", benchSizes(benchmarkRuntimeMapPutGrow))
	b.Run("impl=denseMap", benchSizes(benchmarkDenseMapPutGrow))
}

func BenchmarkPutReserved(b *testing.B) {
	b.Run("impl=runtimeMap", benchSizes(benchmarkRuntimeMapPutReserved))
	b.Run("impl=denseMap", benchSizes(benchmarkDenseMapPutReserved))
}

func BenchmarkIter(b *testing.B) {
	b.Run("impl=runtimeMap", benchSizes(benchmarkRuntimeMapIter))
	b.Run("impl=denseMap", benchSizes(benchmarkDenseMapIter))
}

func benchmarkRuntimeMapGetHit(b *testing.B, n int) {
	defer perfbench.Open(b).Close()
	m := make(map[int]int, n)
	for i := 0; i < n; i++ {
		m[i] = i
	}
	b.ResetTimer()
	var tmp int
	for i := 0; i < b.N; i++ {
		tmp += m[i%n]
	}
	_ = tmp
}

func benchmarkDenseMapGetHit(b *testing.B, n int) {
	defer perfbench.Open(b).Close()
	m, err := NewMap[int, int](uint64(n), intHash, intEqual)
	if err != nil {
		b.Fatal(err)
	}
	for i := 0; i < n; i++ {
		if _, err := m.Put(i, i); err != nil {
			b.Fatal(err)
		}
	}
	b.ResetTimer()
	var tmp int
	for i := 0; i < b.N; i++ {
		v, _ := m.Find(i % n)
		tmp += v
	}
	_ = tmp
}

func benchmarkRuntimeMapGetMiss(b *testing.B, n int) {
	defer perfbench.Open(b).Close()
	m := make(map[int]int, n)
	for i := 0; i < n; i++ {
		m[i] = i
	}
	b.ResetTimer()
	var tmp int
	for i := 0; i < b.N; i++ {
		tmp += m[n+(i%n)]
	}
	_ = tmp
}

func benchmarkDenseMapGetMiss(b *testing.B, n int) {
	defer perfbench.Open(b).Close()
	m, err := NewMap[int, int](uint64(n), intHash, intEqual)
	if err != nil {
		b.Fatal(err)
	}
	for i := 0; i < n; i++ {
		if _, err := m.Put(i, i); err != nil {
			b.Fatal(err)
		}
	}
	b.ResetTimer()
	var tmp int
	for i := 0; i < b.N; i++ {
		v, _ := m.Find(n + (i % n))
		tmp += v
	}
	_ = tmp
}

func benchmarkRuntimeMapPutGrow(b *testing.B, n int) {
	for i := 0; i < b.N; i++ {
		m := make(map[int]int)
		for j := 0; j < n; j++ {
			m[j] = j
		}
	}
}

func benchmarkDenseMapPutGrow(b *testing.B, n int) {
	for i := 0; i < b.N; i++ {
		m, err := NewMap[int, int](1, intHash, intEqual)
		if err != nil {
			b.Fatal(err)
		}
		for j := 0; j < n; j++ {
			if _, err := m.Put(j, j); err != nil {
				b.Fatal(err)
			}
		}
	}
}

func benchmarkRuntimeMapPutReserved(b *testing.B, n int) {
	for i := 0; i < b.N; i++ {
		m := make(map[int]int, n)
		for j := 0; j < n; j++ {
			m[j] = j
		}
	}
}

func benchmarkDenseMapPutReserved(b *testing.B, n int) {
	for i := 0; i < b.N; i++ {
		m, err := NewMap[int, int](uint64(n), intHash, intEqual)
		if err != nil {
			b.Fatal(err)
		}
		for j := 0; j < n; j++ {
			if _, err := m.Put(j, j); err != nil {
				b.Fatal(err)
			}
		}
	}
}

func benchmarkRuntimeMapIter(b *testing.B, n int) {
	m := make(map[int]int, n)
	for i := 0; i < n; i++ {
		m[i] = i
	}
	b.ResetTimer()
	var tmp int
	for i := 0; i < b.N; i++ {
		for k, v := range m {
			tmp += k + v
		}
	}
	_ = tmp
}

func benchmarkDenseMapIter(b *testing.B, n int) {
	m, err := NewMap[int, int](uint64(n), intHash, intEqual)
	if err != nil {
		b.Fatal(err)
	}
	for i := 0; i < n; i++ {
		if _, err := m.Put(i, i); err != nil {
			b.Fatal(err)
		}
	}
	b.ResetTimer()
	var tmp int
	for i := 0; i < b.N; i++ {
		m.All(func(k, v int) bool {
			tmp += k + v
			return true
		})
	}
	_ = tmp
}
