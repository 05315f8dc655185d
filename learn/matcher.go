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

package learn

import (
	"math"

	"github.com/exascience/pargo/parallel"

	"github.com/exascience/elerr/fastq"
	"github.com/exascience/elerr/kmer"
)

// matchReferences determines for every unique sequence the candidate
// references at minimal k-mer distance, as indices into references.
//
// With TieModeAbundance, exact distance ties are reduced to the
// reference with the highest observed abundance, the first listed one
// among equal abundances, so every entry holds exactly one candidate.
// With TieModeLikelihood, all tied candidates are kept in reference
// table order for later resolution.
//
// Every unique sequence is handled independently, and its candidates
// are written into its own slot, so the result is in unique-sequence
// order regardless of the parallel schedule. A panic in any worker
// fails the whole phase.
func matchReferences(uniques []*fastq.UniqueSequence, references []*ReferenceSequence, k, tieMode int) [][]int32 {
	profiles := make([]kmer.Profile, len(references))
	parallel.Range(0, len(references), 0, func(low, high int) {
		for i := low; i < high; i++ {
			profiles[i] = kmer.NewProfile(references[i].SEQ, k)
		}
	})
	assignment := make([][]int32, len(uniques))
	parallel.Range(0, len(uniques), 0, func(low, high int) {
		for i := low; i < high; i++ {
			profile := kmer.NewProfile(uniques[i].SEQ, k)
			var candidates []int32
			bestDistance := math.Inf(1)
			for j := range references {
				distance := kmer.Distance(profile, profiles[j])
				if distance < bestDistance {
					bestDistance = distance
					candidates = append(candidates[:0], int32(j))
				} else if distance == bestDistance {
					candidates = append(candidates, int32(j))
				}
			}
			if tieMode == TieModeAbundance {
				winner := candidates[0]
				for _, candidate := range candidates[1:] {
					if references[candidate].ObservedAbundance > references[winner].ObservedAbundance {
						winner = candidate
					}
				}
				candidates = []int32{winner}
			}
			assignment[i] = candidates
		}
	})
	return assignment
}
