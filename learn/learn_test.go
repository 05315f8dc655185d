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
	"fmt"
	"io/ioutil"
	"math"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/exascience/elerr/fasta"
	"github.com/exascience/elerr/fastq"
	"github.com/exascience/elerr/internal"
	"github.com/exascience/elerr/model"
)

func randomSequence(random *internal.Rand, length int) string {
	bases := make([]byte, length)
	for i := range bases {
		bases[i] = "ACGT"[random.Intn(4)]
	}
	return string(bases)
}

func flatProfile(length int, qual float64) []float64 {
	profile := make([]float64, length)
	for i := range profile {
		profile[i] = qual
	}
	return profile
}

// makeReads produces count reads with the given sequence, all at
// quality score 40.
func makeReads(reads []*fastq.Read, seq string, count int) []*fastq.Read {
	qual := strings.Repeat("I", len(seq))
	for i := 0; i < count; i++ {
		reads = append(reads, &fastq.Read{
			QNAME: fmt.Sprintf("read%v", len(reads)),
			SEQ:   seq,
			QUAL:  qual,
		})
	}
	return reads
}

func TestRunInvalidOptions(t *testing.T) {
	reads := makeReads(nil, strings.Repeat("ACGT", 10), 4)
	table := []*fasta.Sequence{{Name: "ref1", Bases: strings.Repeat("ACGT", 10)}}
	options := DefaultOptions()
	options.SampleSize = 4
	options.TieMode = 3
	if _, err := Run(reads, table, options); err == nil {
		t.Error("Run invalid tie mode failed")
	}
	options = DefaultOptions()
	options.SampleSize = 4
	options.KmerSize = 0
	if _, err := Run(reads, table, options); err == nil {
		t.Error("Run invalid k-mer size failed")
	}
	options.KmerSize = 16
	if _, err := Run(reads, table, options); err == nil {
		t.Error("Run too large k-mer size failed")
	}
}

func TestSamplingSize(t *testing.T) {
	reads := makeReads(nil, strings.Repeat("ACGT", 10), 5)
	table := []*fasta.Sequence{{Name: "ref1", Bases: strings.Repeat("ACGT", 10)}}
	options := DefaultOptions()
	options.SampleSize = 6
	_, err := Run(reads, table, options)
	serr, ok := err.(SamplingSizeError)
	if !ok {
		t.Fatal("Run oversized sample error type failed")
	}
	if serr.Requested != 6 || serr.Available != 5 {
		t.Error("Run oversized sample error values failed")
	}
	options.SampleSize = 5
	if _, err := Run(reads, table, options); err != nil {
		t.Error("Run full sample failed")
	}
}

func TestEmptyReferenceTable(t *testing.T) {
	reads := makeReads(nil, strings.Repeat("ACGT", 10), 5)
	table := []*fasta.Sequence{
		{Name: "ref1", Bases: strings.Repeat("TTGGCCAA", 5)},
		{Name: "ref2", Bases: strings.Repeat("GGTTAACC", 5)},
	}
	options := DefaultOptions()
	options.SampleSize = 5
	_, err := Run(reads, table, options)
	terr, ok := err.(EmptyReferenceTableError)
	if !ok {
		t.Fatal("Run empty reference table error type failed")
	}
	if terr.References != 2 {
		t.Error("Run empty reference table error values failed")
	}
}

func TestMatchReferences(t *testing.T) {
	bases := []byte(strings.Repeat("ACGT", 10))
	s2 := string(bases)
	bases[20] = 'G'
	s3 := string(bases)
	bases[20] = 'C'
	ambiguous := string(bases)
	s1 := strings.Repeat("TTGGCCAA", 5)
	uniques := []*fastq.UniqueSequence{
		{SEQ: s1, Count: 5},
		{SEQ: ambiguous, Count: 2},
		{SEQ: s3, Count: 9},
	}
	references := []*ReferenceSequence{
		{ID: "r1", SEQ: s1, ObservedAbundance: 5},
		{ID: "r2", SEQ: s2, ObservedAbundance: 9},
		{ID: "r3", SEQ: s3, ObservedAbundance: 9},
	}
	assignment := matchReferences(uniques, references, 7, TieModeAbundance)
	if !reflect.DeepEqual(assignment, [][]int32{{0}, {1}, {2}}) {
		t.Error("matchReferences abundance tie breaking failed")
	}
	references[2].ObservedAbundance = 12
	assignment = matchReferences(uniques, references, 7, TieModeAbundance)
	if !reflect.DeepEqual(assignment[1], []int32{2}) {
		t.Error("matchReferences highest abundance failed")
	}
	assignment = matchReferences(uniques, references, 7, TieModeLikelihood)
	if !reflect.DeepEqual(assignment, [][]int32{{0}, {1, 2}, {2}}) {
		t.Error("matchReferences kept tied candidates failed")
	}
}

func TestSampleReads(t *testing.T) {
	reads := make([]*fastq.Read, 100)
	readMap := make([]int32, 100)
	for i := range reads {
		reads[i] = &fastq.Read{
			QNAME: fmt.Sprintf("read%v", i),
			SEQ:   fmt.Sprintf("SEQ%04d", i),
			QUAL:  "IIIIIII",
		}
	}
	assignment := [][]int32{{0}}
	sample, dropped := sampleReads(reads, readMap, assignment, 60, 17)
	if len(sample) != 60 || dropped != 0 {
		t.Error("sampleReads size failed")
	}
	distinct := make(map[string]bool)
	for _, read := range sample {
		distinct[read.sequence] = true
	}
	if len(distinct) != 60 {
		t.Error("sampleReads distinct draws failed")
	}
	sample2, _ := sampleReads(reads, readMap, assignment, 60, 17)
	if !reflect.DeepEqual(sample, sample2) {
		t.Error("sampleReads determinism failed")
	}
	sample, dropped = sampleReads(reads, readMap, [][]int32{{0, 1}}, 60, 17)
	if len(sample) != 0 || dropped != 60 {
		t.Error("sampleReads dropped unresolved reads failed")
	}
	sample, dropped = sampleReads(reads, readMap, assignment, 100, 17)
	if len(sample) != 100 || dropped != 0 {
		t.Error("sampleReads exhaustive draw failed")
	}
}

func totalTransitionCount(transitions *model.TransitionMatrix) (total int64) {
	for refBase := int32(0); refBase < model.NrOfBases; refBase++ {
		for obsBase := int32(0); obsBase < model.NrOfBases; obsBase++ {
			for qual := 0; qual <= model.MaxQualityScore; qual++ {
				total += transitions[refBase][obsBase][qual]
			}
		}
	}
	return total
}

func TestTabulateTransitions(t *testing.T) {
	references := []*ReferenceSequence{{ID: "r1", SEQ: "ACGTACGTAC"}}
	sample := []sampledRead{{
		sequence:  "ACGTGCGTAC",
		qual:      strings.Repeat("I", 10),
		reference: 0,
	}}
	transitions := tabulateTransitions(sample, references, 33)
	if transitions[0][2][40] != 1 {
		t.Error("tabulateTransitions substitution failed")
	}
	if transitions[0][0][40] != 2 || transitions[1][1][40] != 3 ||
		transitions[2][2][40] != 2 || transitions[3][3][40] != 2 {
		t.Error("tabulateTransitions identities failed")
	}
	if totalTransitionCount(transitions) != 10 {
		t.Error("tabulateTransitions total failed")
	}

	// a deleted base contributes nothing
	sample = []sampledRead{{
		sequence:  "ACGTCGTAC",
		qual:      strings.Repeat("I", 9),
		reference: 0,
	}}
	transitions = tabulateTransitions(sample, references, 33)
	if totalTransitionCount(transitions) != 9 {
		t.Error("tabulateTransitions gap column total failed")
	}
	if transitions[0][0][40] != 2 || transitions[1][1][40] != 3 ||
		transitions[2][2][40] != 2 || transitions[3][3][40] != 2 {
		t.Error("tabulateTransitions gap column identities failed")
	}
}

func TestResolveAmbiguities(t *testing.T) {
	bases := []byte(strings.Repeat("ACGT", 10))
	refA := string(bases)
	bases[20] = 'G'
	refG := string(bases)
	bases[20] = 'C'
	uniques := []*fastq.UniqueSequence{
		{SEQ: string(bases), Count: 2, QualityProfile: flatProfile(40, 40)},
	}
	references := []*ReferenceSequence{
		{ID: "refG", SEQ: refG},
		{ID: "refA", SEQ: refA},
	}
	errors := new(model.ErrorMatrix)
	errors[2][1][40] = 0.004
	errors[0][1][40] = 0.01
	assignment := [][]int32{{0, 1}}
	if resolved := resolveAmbiguities(uniques, references, assignment, errors); resolved != 1 {
		t.Error("resolveAmbiguities count failed")
	}
	if !reflect.DeepEqual(assignment[0], []int32{1}) {
		t.Error("resolveAmbiguities likelihood winner failed")
	}

	// a 0 against a 0 goes to the first listed candidate
	assignment = [][]int32{{0, 1}}
	resolveAmbiguities(uniques, references, assignment, new(model.ErrorMatrix))
	if !reflect.DeepEqual(assignment[0], []int32{0}) {
		t.Error("resolveAmbiguities zero likelihood tie failed")
	}

	// resolved entries are left alone
	assignment = [][]int32{{1}}
	if resolved := resolveAmbiguities(uniques, references, assignment, errors); resolved != 0 {
		t.Error("resolveAmbiguities single candidate failed")
	}
}

func TestRunEndToEnd(t *testing.T) {
	random := internal.NewRand(42)
	table := make([]*fasta.Sequence, 3)
	for i := range table {
		table[i] = &fasta.Sequence{
			Name:  fmt.Sprintf("reference%v", i+1),
			Bases: randomSequence(random, 50),
		}
	}
	reads := make([]*fastq.Read, 10000)
	qual := strings.Repeat("I", 50)
	for i := range reads {
		bases := []byte(table[random.Intn(3)].Bases)
		for j, base := range bases {
			if base == 'A' && random.Float64() < 0.01 {
				bases[j] = 'C'
			}
		}
		reads[i] = &fastq.Read{QNAME: fmt.Sprintf("read%v", i), SEQ: string(bases), QUAL: qual}
	}
	result, err := Run(reads, table, DefaultOptions())
	if err != nil {
		t.Fatal("Run end to end failed: ", err)
	}
	if len(result.References) != 3 {
		t.Error("Run end to end reference count failed")
	}
	if len(result.ReadMap) != 10000 {
		t.Error("Run end to end read map length failed")
	}
	var totalCount int64
	for _, unique := range result.Uniques {
		totalCount += int64(unique.Count)
	}
	if totalCount != 10000 {
		t.Error("Run end to end unique count total failed")
	}
	if len(result.Assignment) != len(result.Uniques) {
		t.Error("Run end to end assignment length failed")
	}
	for _, reference := range result.Assignment {
		if reference < 0 || int(reference) >= len(result.References) {
			t.Fatal("Run end to end assignment range failed")
		}
	}
	for i := 0; i < len(reads); i += 997 {
		if result.Uniques[result.ReadMap[i]].SEQ != reads[i].SEQ {
			t.Error("Run end to end read map consistency failed")
		}
	}
	if result.SampledReads != 10000 || result.DroppedReads != 0 {
		t.Error("Run end to end sample bookkeeping failed")
	}
	if math.Abs(result.Errors[0][1][40]-0.01) > 0.005 {
		t.Errorf("Run end to end error rate failed: %v", result.Errors[0][1][40])
	}
	for refBase := int32(0); refBase < model.NrOfBases; refBase++ {
		for obsBase := int32(0); obsBase < model.NrOfBases; obsBase++ {
			for qual := 0; qual <= model.MaxQualityScore; qual++ {
				if prob := result.Errors[refBase][obsBase][qual]; prob < 0 || prob > 1 {
					t.Fatal("Run end to end probability range failed")
				}
			}
		}
	}
	result2, err := Run(reads, table, DefaultOptions())
	if err != nil {
		t.Fatal("Run end to end rerun failed: ", err)
	}
	if !reflect.DeepEqual(result.Errors, result2.Errors) ||
		!reflect.DeepEqual(result.Transitions, result2.Transitions) ||
		!reflect.DeepEqual(result.Assignment, result2.Assignment) {
		t.Error("Run end to end determinism failed")
	}
}

func TestRunLikelihoodTieMode(t *testing.T) {
	bases := []byte(strings.Repeat("ACGT", 10))
	refA := string(bases)
	bases[20] = 'G'
	refB := string(bases)
	bases[20] = 'C'
	ambiguous := string(bases)
	bases = []byte(refA)
	bases[12] = 'C'
	errored := string(bases)

	var reads []*fastq.Read
	reads = makeReads(reads, refA, 400)
	reads = makeReads(reads, refB, 400)
	reads = makeReads(reads, errored, 150)
	reads = makeReads(reads, ambiguous, 100)
	table := []*fasta.Sequence{
		{Name: "refB", Bases: refB},
		{Name: "refA", Bases: refA},
	}
	options := DefaultOptions()
	options.SampleSize = len(reads)
	options.TieMode = TieModeLikelihood
	result, err := Run(reads, table, options)
	if err != nil {
		t.Fatal("Run likelihood tie mode failed: ", err)
	}
	if result.SampledReads != 950 || result.DroppedReads != 100 {
		t.Error("Run likelihood tie mode dropped reads failed")
	}
	// the A to C rate at quality 40 is exactly 150 substitutions out
	// of 9100 reference A observations
	if math.Abs(result.Errors[0][1][40]-150.0/9100.0) > 1.0e-12 {
		t.Errorf("Run likelihood tie mode fitted rate failed: %v", result.Errors[0][1][40])
	}
	if result.Errors[2][1][40] != 0 {
		t.Error("Run likelihood tie mode unobserved rate failed")
	}
	if result.References[0].ID != "refB" || result.References[1].ID != "refA" {
		t.Fatal("Run likelihood tie mode reference order failed")
	}
	ambiguousIndex := -1
	for index, unique := range result.Uniques {
		if unique.SEQ == ambiguous {
			ambiguousIndex = index
		}
	}
	if ambiguousIndex < 0 {
		t.Fatal("Run likelihood tie mode unique lookup failed")
	}
	if result.Assignment[ambiguousIndex] != 1 {
		t.Error("Run likelihood tie mode resolution failed")
	}
	if result.References[1].EstimatedAbundance != 650 ||
		result.References[0].EstimatedAbundance != 400 {
		t.Error("Run likelihood tie mode estimated abundances failed")
	}
	if result.References[1].ObservedAbundance != 400 ||
		result.References[0].ObservedAbundance != 400 {
		t.Error("Run likelihood tie mode observed abundances failed")
	}
}

func TestSaveLoadAndPrintReport(t *testing.T) {
	random := internal.NewRand(7)
	table := []*fasta.Sequence{{Name: "reference1", Bases: randomSequence(random, 50)}}
	reads := makeReads(nil, table[0].Bases, 20)
	options := DefaultOptions()
	options.SampleSize = 20
	result, err := Run(reads, table, options)
	if err != nil {
		t.Fatal("Run for save failed: ", err)
	}
	tmp := t.TempDir()
	modelFile := filepath.Join(tmp, "model.elerr")
	if err := result.Save(modelFile); err != nil {
		t.Fatal("Save failed: ", err)
	}
	loaded, err := Load(modelFile)
	if err != nil {
		t.Fatal("Load failed: ", err)
	}
	if loaded.RunID != result.RunID ||
		loaded.TotalReads != result.TotalReads ||
		loaded.SampleSize != result.SampleSize ||
		loaded.QualityOffset != result.QualityOffset {
		t.Error("Load arguments failed")
	}
	if !reflect.DeepEqual(loaded.References, result.References) {
		t.Error("Load references failed")
	}
	if !reflect.DeepEqual(loaded.Assignment, result.Assignment) ||
		!reflect.DeepEqual(loaded.ReadMap, result.ReadMap) {
		t.Error("Load assignment failed")
	}
	if !reflect.DeepEqual(loaded.Transitions, result.Transitions) ||
		!reflect.DeepEqual(loaded.Errors, result.Errors) {
		t.Error("Load matrices failed")
	}
	if len(loaded.Uniques) != len(result.Uniques) {
		t.Fatal("Load uniques length failed")
	}
	for index, unique := range result.Uniques {
		if loaded.Uniques[index].SEQ != unique.SEQ ||
			loaded.Uniques[index].Count != unique.Count ||
			!reflect.DeepEqual(loaded.Uniques[index].QualityProfile, unique.QualityProfile) {
			t.Error("Load uniques failed")
		}
	}
	reportFile := filepath.Join(tmp, "model.txt")
	if err := loaded.PrintReport(reportFile); err != nil {
		t.Fatal("PrintReport failed: ", err)
	}
	report, err := ioutil.ReadFile(reportFile)
	if err != nil {
		t.Fatal("PrintReport read back failed: ", err)
	}
	contents := string(report)
	for _, section := range []string{
		"#:elErrReport.v1.0:5",
		"Arguments",
		"References",
		"Assignments",
		"TransitionCounts",
		"ErrorRates",
		"run_id",
	} {
		if !strings.Contains(contents, section) {
			t.Error("PrintReport contents failed: ", section)
		}
	}
}

func BenchmarkRun(b *testing.B) {
	b.StopTimer()
	random := internal.NewRand(42)
	table := make([]*fasta.Sequence, 3)
	for i := range table {
		table[i] = &fasta.Sequence{
			Name:  fmt.Sprintf("reference%v", i+1),
			Bases: randomSequence(random, 50),
		}
	}
	reads := make([]*fastq.Read, 1000)
	qual := strings.Repeat("I", 50)
	for i := range reads {
		bases := []byte(table[random.Intn(3)].Bases)
		for j := range bases {
			if random.Float64() < 0.01 {
				bases[j] = "ACGT"[random.Intn(4)]
			}
		}
		reads[i] = &fastq.Read{QNAME: fmt.Sprintf("read%v", i), SEQ: string(bases), QUAL: qual}
	}
	options := DefaultOptions()
	options.SampleSize = 1000
	b.StartTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Run(reads, table, options); err != nil {
			b.Fatal(err)
		}
	}
}
