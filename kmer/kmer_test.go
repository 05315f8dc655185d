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
	"math"
	"math/rand"
	"testing"
)

func makeRandomSequence(length int) string {
	bases := []byte("ACGT")
	seq := make([]byte, length)
	for i := range seq {
		seq[i] = bases[rand.Intn(4)]
	}
	return string(seq)
}

func TestNewProfile(t *testing.T) {
	profile := NewProfile("ACGT", 2)
	// AC = 1, CG = 6, GT = 11
	expected := Profile{1, 6, 11}
	if len(profile) != len(expected) {
		t.Fatal("NewProfile 1 failed")
	}
	for i, key := range profile {
		if key != expected[i] {
			t.Error("NewProfile 2 failed")
		}
	}
	for i := 1; i < len(profile); i++ {
		if profile[i] < profile[i-1] {
			t.Error("NewProfile 3 failed")
		}
	}
}

func TestDistance(t *testing.T) {
	seq := makeRandomSequence(200)
	profile := NewProfile(seq, 7)
	if Distance(profile, profile) != 0 {
		t.Error("Distance 1 failed")
	}
	if Distance(NewProfile("AAAA", 2), NewProfile("TTTT", 2)) != 1 {
		t.Error("Distance 2 failed")
	}
	if d := Distance(NewProfile("AACC", 2), NewProfile("AACG", 2)); math.Abs(d-1.0/3.0) > 1e-12 {
		t.Error("Distance 3 failed")
	}
	// AAAA holds AA three times, AATT holds it once
	if d := Distance(NewProfile("AAAA", 2), NewProfile("AATT", 2)); math.Abs(d-2.0/3.0) > 1e-12 {
		t.Error("Distance 4 failed")
	}
}

func TestDistanceSymmetry(t *testing.T) {
	for n := 0; n < 100; n++ {
		profile1 := NewProfile(makeRandomSequence(150), 7)
		profile2 := NewProfile(makeRandomSequence(150), 7)
		d12 := Distance(profile1, profile2)
		d21 := Distance(profile2, profile1)
		if d12 != d21 {
			t.Error("DistanceSymmetry 1 failed")
			break
		}
		if d12 < 0 || d12 > 1 {
			t.Error("DistanceSymmetry 2 failed")
			break
		}
	}
}

func BenchmarkDistance(b *testing.B) {
	b.StopTimer()
	profile1 := NewProfile(makeRandomSequence(250), 7)
	profile2 := NewProfile(makeRandomSequence(250), 7)
	b.StartTimer()
	for i := 0; i < b.N; i++ {
		Distance(profile1, profile2)
	}
}
