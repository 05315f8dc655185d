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
	"fmt"
	"math"
	"math/rand"
	"testing"
)

func makeRedundantReads(n int) []*Read {
	bases := []byte("ACGT")
	pool := make([]string, 50)
	for i := range pool {
		seq := make([]byte, 60)
		for j := range seq {
			seq[j] = bases[rand.Intn(4)]
		}
		pool[i] = string(seq)
	}
	reads := make([]*Read, n)
	for i := range reads {
		seq := pool[rand.Intn(len(pool))]
		qual := make([]byte, len(seq))
		for j := range qual {
			qual[j] = byte(33 + rand.Intn(42))
		}
		reads[i] = &Read{QNAME: fmt.Sprintf("read%v", i), SEQ: seq, QUAL: string(qual)}
	}
	return reads
}

func TestDereplicate(t *testing.T) {
	reads := []*Read{
		{QNAME: "r1", SEQ: "ACGT", QUAL: "IIII"},
		{QNAME: "r2", SEQ: "AAAA", QUAL: "!!!!"},
		{QNAME: "r3", SEQ: "ACGT", QUAL: "5555"},
		{QNAME: "r4", SEQ: "ACGT", QUAL: "IIII"},
	}
	derep := Dereplicate(reads, 33)
	if len(derep.Uniques) != 2 {
		t.Fatal("Dereplicate 1 failed")
	}
	if derep.Uniques[0].SEQ != "ACGT" || derep.Uniques[0].Count != 3 {
		t.Error("Dereplicate 2 failed")
	}
	if derep.Uniques[1].SEQ != "AAAA" || derep.Uniques[1].Count != 1 {
		t.Error("Dereplicate 3 failed")
	}
	for i, expected := range []int32{0, 1, 0, 0} {
		if derep.ReadMap[i] != expected {
			t.Error("Dereplicate 4 failed")
		}
	}
	// 'I' decodes to 40 and '5' to 20, so the average is 100/3
	for _, q := range derep.Uniques[0].QualityProfile {
		if math.Abs(q-100.0/3.0) > 1e-12 {
			t.Error("Dereplicate 5 failed")
		}
	}
	for _, q := range derep.Uniques[1].QualityProfile {
		if q != 0 {
			t.Error("Dereplicate 6 failed")
		}
	}
	if derep.Find("ACGT") != 0 || derep.Find("AAAA") != 1 || derep.Find("GGGG") != -1 {
		t.Error("Dereplicate 7 failed")
	}
}

func TestDereplicateInvariants(t *testing.T) {
	reads := makeRedundantReads(10000)
	derep := Dereplicate(reads, 33)
	if len(derep.ReadMap) != len(reads) {
		t.Error("DereplicateInvariants 1 failed")
	}
	var total int32
	for _, unique := range derep.Uniques {
		total += unique.Count
	}
	if total != int32(len(reads)) {
		t.Error("DereplicateInvariants 2 failed")
	}
	for i, read := range reads {
		if derep.Uniques[derep.ReadMap[i]].SEQ != read.SEQ {
			t.Error("DereplicateInvariants 3 failed")
			break
		}
	}
	for i := 1; i < len(derep.Uniques); i++ {
		if uniqueLess(derep.Uniques[i], derep.Uniques[i-1]) {
			t.Error("DereplicateInvariants 4 failed")
			break
		}
	}
}

func TestDereplicateDeterminism(t *testing.T) {
	reads := makeRedundantReads(20000)
	derep1 := Dereplicate(reads, 33)
	derep2 := Dereplicate(reads, 33)
	if len(derep1.Uniques) != len(derep2.Uniques) {
		t.Fatal("DereplicateDeterminism 1 failed")
	}
	for i, unique1 := range derep1.Uniques {
		unique2 := derep2.Uniques[i]
		if unique1.SEQ != unique2.SEQ || unique1.Count != unique2.Count {
			t.Error("DereplicateDeterminism 2 failed")
			break
		}
	}
	for i := range derep1.ReadMap {
		if derep1.ReadMap[i] != derep2.ReadMap[i] {
			t.Error("DereplicateDeterminism 3 failed")
			break
		}
	}
}

func BenchmarkDereplicate(b *testing.B) {
	b.StopTimer()
	reads := makeRedundantReads(100000)
	b.StartTimer()
	for i := 0; i < b.N; i++ {
		Dereplicate(reads, 33)
	}
}
