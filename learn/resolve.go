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
	"github.com/exascience/elerr/align"
	"github.com/exascience/elerr/fastq"
	"github.com/exascience/elerr/model"
)

// candidateLikelihood scores how plausibly the unique sequence reads
// as a sequencing error of the candidate reference: the product of the
// error-model probabilities at the true substitution columns of their
// global alignment. Identity columns are not scored, and neither are
// columns with a gap on the observed side (no observation to score) or
// on the reference side (no reference base to condition on). The
// quality of a substitution is the rounded average quality the reads
// behind the unique sequence report at that position.
//
// The product is computed in plain probability space: a single
// substitution with a fitted probability of exactly 0 makes the whole
// candidate likelihood 0.
func candidateLikelihood(unique *fastq.UniqueSequence, reference *ReferenceSequence, errors *model.ErrorMatrix) float64 {
	alignedRef, alignedObs := align.Global(reference.SEQ, unique.SEQ)
	likelihood := 1.0
	position := 0
	for i := 0; i < len(alignedObs); i++ {
		obsBase := alignedObs[i]
		if obsBase == align.Gap {
			continue
		}
		refBase := alignedRef[i]
		if refBase == align.Gap || refBase == obsBase {
			position++
			continue
		}
		refIndex := model.BaseToBaseIndex(refBase)
		obsIndex := model.BaseToBaseIndex(obsBase)
		if refIndex >= 0 && obsIndex >= 0 {
			qual := model.RoundQuality(unique.QualityProfile[position])
			likelihood *= errors[refIndex][obsIndex][qual]
		}
		position++
	}
	return likelihood
}

// resolveAmbiguities reduces every multi-valued assignment to the
// candidate with the maximum likelihood under the error model and
// returns the number of unique sequences that were resolved. Equal
// maximum likelihoods, including a 0 against a 0, go to the first
// listed candidate; the input order decides such degenerate ties.
func resolveAmbiguities(uniques []*fastq.UniqueSequence, references []*ReferenceSequence, assignment [][]int32, errors *model.ErrorMatrix) (resolved int) {
	for index, candidates := range assignment {
		if len(candidates) < 2 {
			continue
		}
		unique := uniques[index]
		winner := candidates[0]
		bestLikelihood := candidateLikelihood(unique, references[winner], errors)
		for _, candidate := range candidates[1:] {
			likelihood := candidateLikelihood(unique, references[candidate], errors)
			if likelihood > bestLikelihood {
				bestLikelihood = likelihood
				winner = candidate
			}
		}
		assignment[index] = []int32{winner}
		resolved++
	}
	return resolved
}
