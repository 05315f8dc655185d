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
	"github.com/exascience/elerr/model"
)

// tabulateTransitions aligns every sampled read against its assigned
// reference and counts which base each reference base was observed as,
// at the decoded quality score the read reports for that position.
// Identity columns are recorded too; the smoother needs them as
// denominators. Columns with a gap on either side contribute nothing,
// insertions and deletions are not part of the substitution model.
// Whatever single optimal alignment align.Global returns is accepted.
func tabulateTransitions(sample []sampledRead, references []*ReferenceSequence, qualityOffset uint8) *model.TransitionMatrix {
	transitions := new(model.TransitionMatrix)
	for _, read := range sample {
		alignedRef, alignedObs := align.Global(references[read.reference].SEQ, read.sequence)
		position := 0
		for i := 0; i < len(alignedObs); i++ {
			obsBase := alignedObs[i]
			if obsBase == align.Gap {
				continue
			}
			refBase := alignedRef[i]
			if refBase == align.Gap {
				position++
				continue
			}
			refIndex := model.BaseToBaseIndex(refBase)
			obsIndex := model.BaseToBaseIndex(obsBase)
			if refIndex >= 0 && obsIndex >= 0 {
				transitions.Update(refIndex, obsIndex, read.qual[position]-qualityOffset)
			}
			position++
		}
	}
	return transitions
}
