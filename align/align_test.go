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

package align

import (
	"math/rand"
	"strings"
	"testing"
)

func stripGaps(s string) string {
	return strings.ReplaceAll(s, string(Gap), "")
}

func makeRandomSequence(length int) string {
	bases := []byte("ACGT")
	seq := make([]byte, length)
	for i := range seq {
		seq[i] = bases[rand.Intn(4)]
	}
	return string(seq)
}

func mutate(seq string) string {
	bases := []byte("ACGT")
	var result []byte
	for i := 0; i < len(seq); i++ {
		switch p := rand.Float64(); {
		case p < 0.02:
			result = append(result, bases[rand.Intn(4)])
		case p < 0.03:
			// deletion
		case p < 0.04:
			result = append(result, seq[i], bases[rand.Intn(4)])
		default:
			result = append(result, seq[i])
		}
	}
	if len(result) == 0 {
		return seq
	}
	return string(result)
}

func TestGlobalIdentical(t *testing.T) {
	seq := "ACGTACGTACGTACGT"
	alignedRef, alignedObs := Global(seq, seq)
	if alignedRef != seq || alignedObs != seq {
		t.Error("GlobalIdentical 1 failed")
	}
}

func TestGlobalSubstitution(t *testing.T) {
	reference := "AAACCCGGGTTTAAACCC"
	observed := "AAACCCGAGTTTAAACCC"
	alignedRef, alignedObs := Global(reference, observed)
	if alignedRef != reference || alignedObs != observed {
		t.Fatal("GlobalSubstitution 1 failed")
	}
	mismatches := 0
	for i := range alignedRef {
		if alignedRef[i] != alignedObs[i] {
			mismatches++
		}
	}
	if mismatches != 1 {
		t.Error("GlobalSubstitution 2 failed")
	}
}

func TestGlobalDeletion(t *testing.T) {
	reference := "AAACCCGGGTTT"
	observed := "AAACCGGGTTT"
	alignedRef, alignedObs := Global(reference, observed)
	if alignedRef != reference {
		t.Error("GlobalDeletion 1 failed")
	}
	if stripGaps(alignedObs) != observed || strings.Count(alignedObs, string(Gap)) != 1 {
		t.Error("GlobalDeletion 2 failed")
	}
}

func TestGlobalInsertion(t *testing.T) {
	reference := "AAACCGGGTTT"
	observed := "AAACCCGGGTTT"
	alignedRef, alignedObs := Global(reference, observed)
	if alignedObs != observed {
		t.Error("GlobalInsertion 1 failed")
	}
	if stripGaps(alignedRef) != reference || strings.Count(alignedRef, string(Gap)) != 1 {
		t.Error("GlobalInsertion 2 failed")
	}
}

func TestGlobalInvariants(t *testing.T) {
	for n := 0; n < 200; n++ {
		reference := makeRandomSequence(100 + rand.Intn(100))
		observed := mutate(reference)
		alignedRef, alignedObs := Global(reference, observed)
		if len(alignedRef) != len(alignedObs) {
			t.Fatal("GlobalInvariants 1 failed")
		}
		if stripGaps(alignedRef) != reference || stripGaps(alignedObs) != observed {
			t.Error("GlobalInvariants 2 failed")
			break
		}
		doubleGap := false
		for i := range alignedRef {
			if alignedRef[i] == Gap && alignedObs[i] == Gap {
				doubleGap = true
			}
		}
		if doubleGap {
			t.Error("GlobalInvariants 3 failed")
			break
		}
		alignedRef2, alignedObs2 := Global(reference, observed)
		if alignedRef2 != alignedRef || alignedObs2 != alignedObs {
			t.Error("GlobalInvariants 4 failed")
			break
		}
	}
}

func BenchmarkGlobal(b *testing.B) {
	b.StopTimer()
	reference := makeRandomSequence(250)
	observed := mutate(reference)
	b.StartTimer()
	for i := 0; i < b.N; i++ {
		Global(reference, observed)
	}
}
