// elErr: a high-performance tool for estimating sequencing error models from amplicon reads.
// Copyright (c) 2021 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/elerr/blob/master/LICENSE.txt>.

package fastq

import (
	"runtime"
	"sort"
	"sync/atomic"

	"github.com/exascience/pargo/parallel"
	psort "github.com/exascience/pargo/sort"
	"github.com/exascience/pargo/sync"

	"github.com/exascience/elerr/internal"
)

type (
	// A UniqueSequence is a distinct read sequence together with the
	// number of reads that have exactly this sequence, and the
	// per-position average of their reported quality scores.
	UniqueSequence struct {
		SEQ            string
		Count          int32
		QualityProfile []float64

		qualSums []int64
		index    int32
	}

	// A Derep is the result of dereplicating the reads of a FASTQ
	// file. Uniques is sorted by decreasing Count, with ties broken by
	// sequence. ReadMap maps the index of every read in the original
	// input to the index of its unique sequence in Uniques.
	Derep struct {
		Uniques []*UniqueSequence
		ReadMap []int32

		index map[string]int32
	}
)

type uniqueKey string

func (k uniqueKey) Hash() uint64 {
	return internal.StringHash(string(k))
}

func uniqueLess(u1, u2 *UniqueSequence) bool {
	if u1.Count != u2.Count {
		return u1.Count > u2.Count
	}
	return u1.SEQ < u2.SEQ
}

type stableUniqueSorter []*UniqueSequence

func (s stableUniqueSorter) SequentialSort(i, j int) {
	uniques := s[i:j]
	sort.SliceStable(uniques, func(i, j int) bool {
		return uniqueLess(uniques[i], uniques[j])
	})
}

func (s stableUniqueSorter) NewTemp() psort.StableSorter {
	return stableUniqueSorter(make([]*UniqueSequence, len(s)))
}

func (s stableUniqueSorter) Len() int {
	return len(s)
}

func (s stableUniqueSorter) Less(i, j int) bool {
	return uniqueLess(s[i], s[j])
}

func (s stableUniqueSorter) Assign(source psort.StableSorter) func(i, j, len int) {
	dst, src := s, source.(stableUniqueSorter)
	return func(i, j, len int) {
		copy(dst[i:i+len], src[j:j+len])
	}
}

// Dereplicate collapses the given reads into unique sequences.
//
// Reads are accumulated into a concurrent map; the order of the result
// does not depend on the schedule, because unique sequences are sorted
// by decreasing count afterwards, with ties broken by comparing the
// sequences themselves.
func Dereplicate(reads []*Read, qualityOffset uint8) *Derep {
	uniquesMap := sync.NewMap(16 * runtime.GOMAXPROCS(0))
	entries := make([]*UniqueSequence, len(reads))
	parallel.Range(0, len(reads), 0, func(low, high int) {
		for i := low; i < high; i++ {
			read := reads[i]
			entry := &UniqueSequence{
				SEQ:      read.SEQ,
				qualSums: make([]int64, len(read.SEQ)),
				index:    -1,
			}
			if value, found := uniquesMap.LoadOrStore(uniqueKey(read.SEQ), entry); found {
				entry = value.(*UniqueSequence)
			}
			atomic.AddInt32(&entry.Count, 1)
			for j := 0; j < len(read.QUAL); j++ {
				atomic.AddInt64(&entry.qualSums[j], int64(read.QUAL[j]-qualityOffset))
			}
			entries[i] = entry
		}
	})
	var uniques []*UniqueSequence
	for _, entry := range entries {
		if entry.index == -1 {
			entry.index = int32(len(uniques))
			uniques = append(uniques, entry)
		}
	}
	psort.StableSort(stableUniqueSorter(uniques))
	index := make(map[string]int32, len(uniques))
	for i, unique := range uniques {
		unique.index = int32(i)
		unique.QualityProfile = make([]float64, len(unique.qualSums))
		for j, sum := range unique.qualSums {
			unique.QualityProfile[j] = float64(sum) / float64(unique.Count)
		}
		unique.qualSums = nil
		index[unique.SEQ] = int32(i)
	}
	readMap := make([]int32, len(reads))
	parallel.Range(0, len(reads), 0, func(low, high int) {
		for i := low; i < high; i++ {
			readMap[i] = entries[i].index
		}
	})
	return &Derep{Uniques: uniques, ReadMap: readMap, index: index}
}

// Find returns the index in Uniques of the given sequence, or -1 if no
// read had exactly this sequence.
func (derep *Derep) Find(seq string) int32 {
	if index, ok := derep.index[seq]; ok {
		return index
	}
	return -1
}
