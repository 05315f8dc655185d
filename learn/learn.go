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

// Package learn estimates a sequencing error model from amplicon reads
// of a community of known reference sequences. Reads are dereplicated
// into unique sequences, every unique sequence is assigned to the
// closest reference by k-mer distance, a random sample of reads is
// aligned against the assigned references to tabulate base transitions
// per reported quality score, and the resulting counts are smoothed
// into error probabilities. Unique sequences tied between multiple
// references can be resolved afterwards against the fitted model.
package learn

import (
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/exascience/elerr/fasta"
	"github.com/exascience/elerr/fastq"
	"github.com/exascience/elerr/kmer"
	"github.com/exascience/elerr/model"
)

const (
	// TieModeAbundance breaks exact distance ties during matching by
	// observed reference abundance, first listed reference winning
	// among equal abundances.
	TieModeAbundance = 1

	// TieModeLikelihood keeps all tied references during matching and
	// resolves them against the fitted error model afterwards.
	TieModeLikelihood = 2
)

// Options control a learning run.
type Options struct {
	SampleSize    int
	TieMode       int
	KmerSize      int
	QualityOffset uint8
	Seed          int64

	// Smoother turns the tabulated transition counts into an error
	// model. When nil, model.Smooth is used.
	Smoother func(*model.TransitionMatrix) *model.ErrorMatrix
}

// DefaultOptions returns the options used when no flags are given.
func DefaultOptions() Options {
	return Options{
		SampleSize:    10000,
		TieMode:       TieModeAbundance,
		KmerSize:      7,
		QualityOffset: 33,
	}
}

// A ReferenceSequence is one entry of the filtered reference table.
// ObservedAbundance is the number of reads whose sequence is exactly
// SEQ; EstimatedAbundance is the total count of the unique sequences
// assigned to this reference once every assignment is resolved.
type ReferenceSequence struct {
	ID                 string
	SEQ                string
	ObservedAbundance  int64
	EstimatedAbundance int64
}

// A Result is the complete outcome of a learning run. Assignment holds
// for every unique sequence the index of its resolved reference in
// References. ReadMap maps every input read to its unique sequence, so
// References, Uniques, ReadMap and Assignment together assign every
// read to a reference.
type Result struct {
	RunID         string
	SampleSize    int
	TieMode       int
	KmerSize      int
	QualityOffset uint8
	Seed          int64
	TotalReads    int
	SampledReads  int
	DroppedReads  int
	References    []*ReferenceSequence
	Uniques       []*fastq.UniqueSequence
	ReadMap       []int32
	Assignment    []int32
	Transitions   *model.TransitionMatrix
	Errors        *model.ErrorMatrix

	err error
}

// A SamplingSizeError is returned when the requested sample is larger
// than the number of available reads.
type SamplingSizeError struct {
	Requested, Available int
}

func (err SamplingSizeError) Error() string {
	return fmt.Sprintf("requested sampling size %v exceeds the total number of reads %v", err.Requested, err.Available)
}

// An EmptyReferenceTableError is returned when no reference sequence
// is left after removing the references that no read matches exactly.
type EmptyReferenceTableError struct {
	References int
}

func (err EmptyReferenceTableError) Error() string {
	return fmt.Sprintf("none of the %v reference sequences exactly matches any read", err.References)
}

// filterReferences keeps the references that at least one read matches
// exactly, in table order, and records their observed abundances.
// References without an exact match are reported and removed.
func filterReferences(table []*fasta.Sequence, derep *fastq.Derep) []*ReferenceSequence {
	references := make([]*ReferenceSequence, 0, len(table))
	for _, sequence := range table {
		index := derep.Find(sequence.Bases)
		if index < 0 {
			log.Println("Removing reference sequence", sequence.Name, "because no read matches it exactly.")
			continue
		}
		references = append(references, &ReferenceSequence{
			ID:                sequence.Name,
			SEQ:               sequence.Bases,
			ObservedAbundance: int64(derep.Uniques[index].Count),
		})
	}
	return references
}

// Run learns an error model from the given reads and reference table.
//
// The phases run in a fixed order: dereplication, reference filtering,
// reference matching, read sampling, transition tabulation, smoothing,
// and ambiguity resolution. Only the matching phase is parallel; its
// results are written into per-sequence slots, so the outcome does not
// depend on the schedule. Given the same inputs, options and seed, Run
// produces the same result except for the fresh RunID.
func Run(reads []*fastq.Read, table []*fasta.Sequence, options Options) (*Result, error) {
	if options.TieMode != TieModeAbundance && options.TieMode != TieModeLikelihood {
		return nil, fmt.Errorf("invalid tie mode %v, must be %v or %v", options.TieMode, TieModeAbundance, TieModeLikelihood)
	}
	if options.KmerSize < 1 || options.KmerSize > kmer.MaxK {
		return nil, fmt.Errorf("invalid k-mer size %v, must be between 1 and %v", options.KmerSize, kmer.MaxK)
	}
	if options.SampleSize > len(reads) {
		return nil, SamplingSizeError{Requested: options.SampleSize, Available: len(reads)}
	}
	derep := fastq.Dereplicate(reads, options.QualityOffset)
	log.Println("Dereplicated", len(reads), "reads into", len(derep.Uniques), "unique sequences.")
	references := filterReferences(table, derep)
	if len(references) == 0 {
		return nil, EmptyReferenceTableError{References: len(table)}
	}
	log.Println("Kept", len(references), "of", len(table), "reference sequences.")
	if options.TieMode == TieModeAbundance {
		log.Println("Matching references with abundance-based tie breaking.")
	} else {
		log.Println("Matching references with likelihood-based tie breaking.")
	}
	assignment := matchReferences(derep.Uniques, references, options.KmerSize, options.TieMode)
	sample, dropped := sampleReads(reads, derep.ReadMap, assignment, options.SampleSize, options.Seed)
	log.Println("Sampled", len(sample), "reads for the transition table;", dropped, "of the drawn reads still had multiple candidate references and were dropped.")
	transitions := tabulateTransitions(sample, references, options.QualityOffset)
	smoother := options.Smoother
	if smoother == nil {
		smoother = model.Smooth
	}
	errors := smoother(transitions)
	resolved := resolveAmbiguities(derep.Uniques, references, assignment, errors)
	if options.TieMode == TieModeLikelihood {
		log.Println("Resolved", resolved, "ambiguous unique sequences against the error model.")
	}
	finalAssignment := make([]int32, len(assignment))
	for index, candidates := range assignment {
		finalAssignment[index] = candidates[0]
	}
	for index, unique := range derep.Uniques {
		references[finalAssignment[index]].EstimatedAbundance += int64(unique.Count)
	}
	return &Result{
		RunID:         uuid.New().String(),
		SampleSize:    options.SampleSize,
		TieMode:       options.TieMode,
		KmerSize:      options.KmerSize,
		QualityOffset: options.QualityOffset,
		Seed:          options.Seed,
		TotalReads:    len(reads),
		SampledReads:  len(sample),
		DroppedReads:  dropped,
		References:    references,
		Uniques:       derep.Uniques,
		ReadMap:       derep.ReadMap,
		Assignment:    finalAssignment,
		Transitions:   transitions,
		Errors:        errors,
	}, nil
}
