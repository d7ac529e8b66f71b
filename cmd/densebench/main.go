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

// Command densebench drives a densehash.Map through a synthetic workload
// and reports throughput and final load-factor/bucket-count statistics. It
// exists to exercise the library outside of `go test -bench` and to give a
// worked example of constructing a Map with non-default options.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/coalesced/densehash"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		entries       int
		capacity      int
		maxLoadFactor float64
		hashableRatio float64
		verbose       bool
	)

	cmd := &cobra.Command{
		Use:   "densebench",
		Short: "Run a synthetic insert/lookup workload against a densehash.Map",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := zap.NewNop()
			if verbose {
				var err error
				logger, err = zap.NewDevelopment()
				if err != nil {
					return err
				}
				defer func() { _ = logger.Sync() }()
			}
			return runWorkload(logger, entries, capacity, maxLoadFactor, hashableRatio)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&entries, "entries", 1_000_000, "number of distinct keys to insert")
	flags.IntVar(&capacity, "capacity", 16, "initial bucket count")
	flags.Float64Var(&maxLoadFactor, "max-load-factor", 0.9, "maximum load factor before growth")
	flags.Float64Var(&hashableRatio, "hashable-ratio", 0.8, "fraction of capacity reserved for the primary region")
	flags.BoolVar(&verbose, "verbose", false, "log grow/rehash events at debug level")
	return cmd
}

func runWorkload(logger *zap.Logger, entries, capacity int, maxLoadFactor, hashableRatio float64) error {
	m, err := densehash.NewMap[int, int64](
		uint64(capacity),
		mixHash,
		func(a, b int) bool { return a == b },
		densehash.WithMaxLoadFactor[int, int64](maxLoadFactor),
		densehash.WithHashableRatio[int, int64](hashableRatio),
		densehash.WithLogger[int, int64](logger),
	)
	if err != nil {
		return err
	}

	start := time.Now()
	for i := 0; i < entries; i++ {
		if _, err := m.Put(i, int64(i)); err != nil {
			return err
		}
	}
	insertDuration := time.Since(start)

	rng := rand.New(rand.NewSource(1))
	start = time.Now()
	var hits int64
	const lookups = 1_000_000
	for i := 0; i < lookups; i++ {
		if _, ok := m.Find(rng.Intn(entries)); ok {
			hits++
		}
	}
	lookupDuration := time.Since(start)

	fmt.Printf("entries:        %d\n", m.Len())
	fmt.Printf("buckets:        %d\n", m.BucketCount())
	fmt.Printf("load factor:    %.4f\n", m.LoadFactor())
	fmt.Printf("insert:         %s (%.0f ops/s)\n", insertDuration, float64(entries)/insertDuration.Seconds())
	fmt.Printf("lookup:         %s (%.0f ops/s, %d/%d hits)\n", lookupDuration, float64(lookups)/lookupDuration.Seconds(), hits, lookups)
	return nil
}

// mixHash is splitmix64's finalizer, a cheap, well-distributed default for
// int keys when no domain-specific hash function is available.
func mixHash(k int) uint64 {
	x := uint64(k)
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
