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
	"math"
	"strings"
	"sync"
)

// Gap is the character inserted into aligned sequences where the other
// sequence has an extra base.
const Gap byte = '-'

const (
	matchValue       = 5
	mismatchPenalty  = -4
	gapOpenPenalty   = -8
	gapExtendPenalty = -3
)

type int32Matrix struct {
	cols  int32
	array []int32
}

func (m *int32Matrix) ensureSize(rows, cols int32) {
	m.cols = cols
	totalSize := rows * cols
	if totalSize <= int32(cap(m.array)) {
		m.array = m.array[:totalSize]
		for i := int32(0); i < totalSize; i++ {
			m.array[i] = 0
		}
	} else {
		m.array = make([]int32, totalSize)
	}
}

func (m *int32Matrix) at(row, col int32) int32 {
	return m.array[row*m.cols+col]
}

func (m *int32Matrix) setAt(row, col, value int32) {
	m.array[row*m.cols+col] = value
}

func (m *int32Matrix) rowView(row int32) []int32 {
	offset := row * m.cols
	return m.array[offset : offset+m.cols]
}

type alignmentMatrices struct {
	nw, backtrack                          int32Matrix
	bestGapV, bestGapH, gapSizeV, gapSizeH []int32
}

var alignmentMatricesPool = sync.Pool{New: func() interface{} { return &alignmentMatrices{} }}

func getAlignmentMatrices() *alignmentMatrices {
	return alignmentMatricesPool.Get().(*alignmentMatrices)
}

func putAlignmentMatrices(m *alignmentMatrices) {
	alignmentMatricesPool.Put(m)
}

func ensureVector(v []int32, sz, initValue int32) (result []int32) {
	if sz <= int32(cap(v)) {
		result = v[:sz]
	} else {
		result = make([]int32, sz)
	}
	for i := int32(0); i < sz; i++ {
		result[i] = initValue
	}
	return
}

func reverseBytes(b []byte) []byte {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return b
}

// Global computes a global alignment of an observed sequence against a
// reference sequence, with affine gap penalties. It returns both
// sequences with gap characters inserted so that they have equal
// length. When multiple alignments have the same score, one of them is
// returned; which one is deterministic for given inputs.
func Global(reference, observed string) (alignedRef, alignedObs string) {
	if len(reference) == 0 || len(observed) == 0 {
		return reference + strings.Repeat(string(Gap), len(observed)),
			strings.Repeat(string(Gap), len(reference)) + observed
	}

	m := getAlignmentMatrices()
	defer putAlignmentMatrices(m)

	refLength := int32(len(reference))
	obsLength := int32(len(observed))

	nrow := refLength + 1
	ncol := obsLength + 1
	m.nw.ensureSize(nrow, ncol)
	m.backtrack.ensureSize(nrow, ncol)

	const lowInitValue = math.MinInt32 / 2

	m.bestGapV = ensureVector(m.bestGapV, ncol+1, lowInitValue)
	m.gapSizeV = ensureVector(m.gapSizeV, ncol+1, 0)
	m.bestGapH = ensureVector(m.bestGapH, nrow+1, lowInitValue)
	m.gapSizeH = ensureVector(m.gapSizeH, nrow+1, 0)

	topRow := m.nw.rowView(0)
	topRow[1] = gapOpenPenalty
	currentValue := int32(gapOpenPenalty)
	for i := 2; i < len(topRow); i++ {
		currentValue += gapExtendPenalty
		topRow[i] = currentValue
	}
	m.nw.setAt(1, 0, gapOpenPenalty)
	currentValue = gapOpenPenalty
	for i := int32(2); i < nrow; i++ {
		currentValue += gapExtendPenalty
		m.nw.setAt(i, 0, currentValue)
	}

	curRow := m.nw.rowView(0)

	for i := int32(1); i < nrow; i++ {
		refBase := reference[i-1]
		lastRow := curRow
		curRow = m.nw.rowView(i)
		curBacktrackRow := m.backtrack.rowView(i)

		for j := int32(1); j < ncol; j++ {
			obsBase := observed[j-1]
			stepDiag := lastRow[j-1]
			if refBase == obsBase {
				stepDiag += matchValue
			} else {
				stepDiag += mismatchPenalty
			}

			prevGap := lastRow[j] + gapOpenPenalty
			m.bestGapV[j] += gapExtendPenalty
			if prevGap > m.bestGapV[j] {
				m.bestGapV[j] = prevGap
				m.gapSizeV[j] = 1
			} else {
				m.gapSizeV[j]++
			}

			stepDown := m.bestGapV[j]
			kd := m.gapSizeV[j]

			prevGap = curRow[j-1] + gapOpenPenalty
			m.bestGapH[i] += gapExtendPenalty
			if prevGap > m.bestGapH[i] {
				m.bestGapH[i] = prevGap
				m.gapSizeH[i] = 1
			} else {
				m.gapSizeH[i]++
			}

			stepRight := m.bestGapH[i]
			ki := m.gapSizeH[i]

			if stepDiag >= stepDown && stepDiag >= stepRight {
				curRow[j] = stepDiag
				curBacktrackRow[j] = 0
			} else if stepRight >= stepDown {
				curRow[j] = stepRight
				curBacktrackRow[j] = -ki
			} else {
				curRow[j] = stepDown
				curBacktrackRow[j] = kd
			}
		}
	}

	refBytes := make([]byte, 0, nrow+ncol)
	obsBytes := make([]byte, 0, nrow+ncol)
	p1 := refLength
	p2 := obsLength
	for p1 > 0 && p2 > 0 {
		btr := m.backtrack.at(p1, p2)
		if btr > 0 {
			for n := int32(0); n < btr; n++ {
				refBytes = append(refBytes, reference[p1-1])
				obsBytes = append(obsBytes, Gap)
				p1--
			}
		} else if btr < 0 {
			for n := btr; n < 0; n++ {
				refBytes = append(refBytes, Gap)
				obsBytes = append(obsBytes, observed[p2-1])
				p2--
			}
		} else {
			refBytes = append(refBytes, reference[p1-1])
			obsBytes = append(obsBytes, observed[p2-1])
			p1--
			p2--
		}
	}
	for ; p1 > 0; p1-- {
		refBytes = append(refBytes, reference[p1-1])
		obsBytes = append(obsBytes, Gap)
	}
	for ; p2 > 0; p2-- {
		refBytes = append(refBytes, Gap)
		obsBytes = append(obsBytes, observed[p2-1])
	}

	return string(reverseBytes(refBytes)), string(reverseBytes(obsBytes))
}
