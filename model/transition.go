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

package model

import "math"

func minInt(x, y int) int {
	if x < y {
		return x
	}
	return y
}

func maxInt(x, y int) int {
	if x > y {
		return x
	}
	return y
}

func fastRound(value float64) int {
	return int(value + 0.5)
}

const (
	// NrOfBases is the number of distinct bases in the tables.
	NrOfBases = 4

	// MaxQualityScore is the highest reported quality score in the tables.
	MaxQualityScore = 93
)

var baseToBaseIndexTable = map[byte]int32{'A': 0, 'a': 0, 'C': 1, 'c': 1, 'G': 2, 'g': 2, 'T': 3, 't': 3}

// BaseToBaseIndex returns the index of the given base in the
// transition and error tables, or -1 for anything that is not an A,
// C, G, or T.
func BaseToBaseIndex(base byte) int32 {
	if index, ok := baseToBaseIndexTable[base]; ok {
		return index
	}
	return -1
}

// BaseIndexToBase returns the base for the given table index.
func BaseIndexToBase(index int32) byte {
	return "ACGT"[index]
}

type (
	// A TransitionMatrix counts how often each reference base, at each
	// reported quality score, was observed as each base in aligned
	// read positions. The diagonal holds the identity observations;
	// they are not errors, but they are the denominators that turn the
	// off-diagonal counts into rates.
	TransitionMatrix [NrOfBases][NrOfBases][MaxQualityScore + 1]int64

	// An ErrorMatrix holds, for each reference base and reported
	// quality score, the probability of observing each base. All cells
	// are in [0,1]; they are not required to be monotone in the
	// quality score.
	ErrorMatrix [NrOfBases][NrOfBases][MaxQualityScore + 1]float64
)

// Update records a single observation.
func (matrix *TransitionMatrix) Update(refBase, obsBase int32, qual uint8) {
	matrix[refBase][obsBase][qual]++
}

// Merge adds the counts of another transition matrix to this one.
func (matrix *TransitionMatrix) Merge(other *TransitionMatrix) {
	for refBase := 0; refBase < NrOfBases; refBase++ {
		for obsBase := 0; obsBase < NrOfBases; obsBase++ {
			for qual := 0; qual <= MaxQualityScore; qual++ {
				matrix[refBase][obsBase][qual] += other[refBase][obsBase][qual]
			}
		}
	}
}

// Observations returns the total number of observations of the given
// reference base at the given quality score, regardless of the
// observed base.
func (matrix *TransitionMatrix) Observations(refBase int32, qual uint8) (total int64) {
	for obsBase := int32(0); obsBase < NrOfBases; obsBase++ {
		total += matrix[refBase][obsBase][qual]
	}
	return total
}

// RoundQuality rounds an average quality score to the nearest integer
// score, clamped to the valid range of the tables.
func RoundQuality(quality float64) int {
	return maxInt(minInt(fastRound(quality), MaxQualityScore), 0)
}

// QualityToErrorProbability converts a phred-scaled quality score to
// an error probability.
func QualityToErrorProbability(phred float64) float64 {
	return math.Pow(10, phred/-10)
}

// ErrorProbabilityToQuality converts an error probability to a
// phred-scaled quality score.
func ErrorProbabilityToQuality(prob float64) int {
	if prob == 0.0 {
		return MaxQualityScore
	}
	return maxInt(minInt(int(math.Round(-10*math.Log10(prob))), MaxQualityScore), 1)
}
