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

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// loessSpan is the fraction of the observed quality scores that
// contributes to each locally fitted value.
const loessSpan = 0.75

// A ratePoint is one observed substitution rate. The weight is the
// number of observations behind the rate, so that scores seen in many
// reads dominate the fit.
type ratePoint struct {
	qual   float64
	rate   float64
	weight float64
}

// observedRates collects the per-score substitution rates for one
// reference/observed base pair. Scores at which the reference base was
// never observed contribute no point.
func observedRates(transitions *TransitionMatrix, refBase, obsBase int32) []ratePoint {
	var points []ratePoint
	for qual := 0; qual <= MaxQualityScore; qual++ {
		total := transitions.Observations(refBase, uint8(qual))
		if total == 0 {
			continue
		}
		points = append(points, ratePoint{
			qual:   float64(qual),
			rate:   float64(transitions[refBase][obsBase][qual]) / float64(total),
			weight: float64(total),
		})
	}
	return points
}

func clipProbability(prob float64) float64 {
	if prob < 0 {
		return 0
	}
	if prob > 1 {
		return 1
	}
	return prob
}

func tricube(u float64) float64 {
	v := 1 - u*u*u
	return v * v * v
}

// distinctQuals counts the distinct quality scores that carry a
// positive weight in a local window.
func distinctQuals(quals, weights []float64) int {
	count := 0
	for i, qual := range quals {
		if weights[i] <= 0 {
			continue
		}
		seen := false
		for j := 0; j < i; j++ {
			if weights[j] > 0 && quals[j] == qual {
				seen = true
				break
			}
		}
		if !seen {
			count++
		}
	}
	return count
}

// localMean is the weighted mean of a single local window, used when
// the window degenerates to one distinct quality score. When the
// window weights all vanish, the unweighted mean is used instead.
func localMean(rates, weights []float64) float64 {
	var sum, weightSum float64
	for i, rate := range rates {
		sum += rate * weights[i]
		weightSum += weights[i]
	}
	if weightSum == 0 {
		sum = 0
		for _, rate := range rates {
			sum += rate
		}
		return clipProbability(sum / float64(len(rates)))
	}
	return clipProbability(sum / weightSum)
}

// smoothPair fits a locally weighted regression through the observed
// rates of one base pair and evaluates it at every quality score,
// clipped to [0,1]. A probability of exactly 0 is representable, so a
// score that never produced a particular substitution can keep a zero
// error probability. Scores outside the observed range get the
// extrapolation of the nearest local fit.
func smoothPair(points []ratePoint, probs *[MaxQualityScore + 1]float64) {
	if len(points) == 0 {
		return
	}
	allSame := true
	for _, point := range points[1:] {
		if point.qual != points[0].qual {
			allSame = false
			break
		}
	}
	if allSame {
		rates := make([]float64, len(points))
		weights := make([]float64, len(points))
		for i, point := range points {
			rates[i] = point.rate
			weights[i] = point.weight
		}
		value := clipProbability(stat.Mean(rates, weights))
		for qual := range probs {
			probs[qual] = value
		}
		return
	}
	window := minInt(maxInt(3, fastRound(loessSpan*float64(len(points)))), len(points))
	order := make([]int, len(points))
	quals := make([]float64, window)
	rates := make([]float64, window)
	weights := make([]float64, window)
	for qual := 0; qual <= MaxQualityScore; qual++ {
		target := float64(qual)
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(i, j int) bool {
			return math.Abs(points[order[i]].qual-target) < math.Abs(points[order[j]].qual-target)
		})
		maxDist := math.Abs(points[order[window-1]].qual - target)
		for i := 0; i < window; i++ {
			point := points[order[i]]
			quals[i] = point.qual
			rates[i] = point.rate
			if maxDist > 0 {
				weights[i] = tricube(math.Abs(point.qual-target)/maxDist) * point.weight
			} else {
				weights[i] = point.weight
			}
		}
		if distinctQuals(quals, weights) < 2 {
			probs[qual] = localMean(rates, weights)
			continue
		}
		alpha, beta := stat.LinearRegression(quals, rates, weights, false)
		probs[qual] = clipProbability(alpha + beta*target)
	}
}

// Smooth turns raw transition counts into an error model. Each of the
// twelve substitution pairs is smoothed independently over the quality
// scores; the identity probabilities are then set to the complement of
// the substitution probabilities at each score. Base pairs without any
// observations keep an all-zero substitution profile.
func Smooth(transitions *TransitionMatrix) *ErrorMatrix {
	errors := new(ErrorMatrix)
	for refBase := int32(0); refBase < NrOfBases; refBase++ {
		for obsBase := int32(0); obsBase < NrOfBases; obsBase++ {
			if refBase == obsBase {
				continue
			}
			points := observedRates(transitions, refBase, obsBase)
			smoothPair(points, &errors[refBase][obsBase])
		}
	}
	for refBase := int32(0); refBase < NrOfBases; refBase++ {
		for qual := 0; qual <= MaxQualityScore; qual++ {
			substitutions := 0.0
			for obsBase := int32(0); obsBase < NrOfBases; obsBase++ {
				if obsBase != refBase {
					substitutions += errors[refBase][obsBase][qual]
				}
			}
			errors[refBase][refBase][qual] = clipProbability(1 - substitutions)
		}
	}
	return errors
}
