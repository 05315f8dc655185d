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

package kmer

import (
	"log"
	"sort"
)

// MaxK is the largest supported k-mer size. Larger k-mers would not
// fit in the 2 bits per base encoding of an int32 key.
const MaxK = 15

var baseToBaseIndexTable = map[byte]int32{'A': 0, 'C': 1, 'G': 2, 'T': 3}

func baseToBaseIndex(base byte) int32 {
	if index, ok := baseToBaseIndexTable[base]; ok {
		return index
	}
	return -1
}

// A Profile is the k-mer composition of a sequence: the 2-bit packed
// codes of all its overlapping k-mers, one entry per occurrence, in
// sorted order.
type Profile []int32

// NewProfile computes the k-mer composition profile of a sequence.
//
// The sequence must consist of the bases A, C, G, and T only, and must
// be at least k bases long.
func NewProfile(seq string, k int) Profile {
	if k < 1 || k > MaxK {
		log.Panicf("invalid k-mer size %v", k)
	}
	if len(seq) < k {
		log.Panicf("sequence of length %v shorter than k-mer size %v", len(seq), k)
	}
	var mask int32
	for i := 0; i < k; i++ {
		mask = (mask << 2) | 3
	}
	profile := make(Profile, 0, len(seq)-k+1)
	var key int32
	for i := 0; i < k; i++ {
		baseIndex := baseToBaseIndex(seq[i])
		if baseIndex == -1 {
			log.Panicf("invalid base %q in sequence", seq[i])
		}
		key = (key << 2) | baseIndex
	}
	profile = append(profile, key)
	for i := k; i < len(seq); i++ {
		baseIndex := baseToBaseIndex(seq[i])
		if baseIndex == -1 {
			log.Panicf("invalid base %q in sequence", seq[i])
		}
		key = ((key << 2) | baseIndex) & mask
		profile = append(profile, key)
	}
	sort.Slice(profile, func(i, j int) bool {
		return profile[i] < profile[j]
	})
	return profile
}

func minInt(x, y int) int {
	if x < y {
		return x
	}
	return y
}

// Distance returns the k-mer composition distance between two
// profiles: 1 minus the number of shared k-mers divided by the size of
// the smaller profile. K-mers occurring multiple times are shared as
// often as the smaller number of occurrences.
func Distance(profile1, profile2 Profile) float64 {
	shared := 0
	for i, j := 0, 0; i < len(profile1) && j < len(profile2); {
		switch {
		case profile1[i] < profile2[j]:
			i++
		case profile1[i] > profile2[j]:
			j++
		default:
			shared++
			i++
			j++
		}
	}
	return 1 - float64(shared)/float64(minInt(len(profile1), len(profile2)))
}
