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
	"github.com/willf/bitset"

	"github.com/exascience/elerr/fastq"
	"github.com/exascience/elerr/internal"
)

// A sampledRead pairs one drawn read with its resolved reference.
type sampledRead struct {
	sequence  string
	qual      string
	reference int32
}

// sampleReads draws size distinct reads uniformly at random without
// replacement and returns them in draw order, each with the reference
// its unique sequence is assigned to. Drawn reads whose unique
// sequence still has more than one candidate reference cannot
// contribute to the transition table they would help build; they count
// towards the drawn total but are dropped from the sample, and their
// number is returned separately.
//
// The caller guarantees size <= len(reads), so the rejection loop
// always terminates.
func sampleReads(reads []*fastq.Read, readMap []int32, assignment [][]int32, size int, seed int64) (sample []sampledRead, dropped int) {
	random := internal.NewRand(seed)
	drawn := bitset.New(uint(len(reads)))
	sample = make([]sampledRead, 0, size)
	for nofDrawn := 0; nofDrawn < size; nofDrawn++ {
		index := random.Intn(len(reads))
		for drawn.Test(uint(index)) {
			index = random.Intn(len(reads))
		}
		drawn.Set(uint(index))
		candidates := assignment[readMap[index]]
		if len(candidates) > 1 {
			dropped++
			continue
		}
		read := reads[index]
		sample = append(sample, sampledRead{
			sequence:  read.SEQ,
			qual:      read.QUAL,
			reference: candidates[0],
		})
	}
	return sample, dropped
}
