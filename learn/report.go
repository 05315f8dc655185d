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
	"io"
	"os"
	"strconv"

	"github.com/exascience/elerr/model"
)

func maxInt(x, y int) int {
	if x > y {
		return x
	}
	return y
}

func (result *Result) fprintln(w io.Writer, a ...interface{}) {
	if result.err != nil {
		return
	}
	_, result.err = fmt.Fprintln(w, a...)
}

func (result *Result) fprintf(w io.Writer, format string, a ...interface{}) {
	if result.err != nil {
		return
	}
	_, result.err = fmt.Fprintf(w, format, a...)
}

const (
	argumentString           = "Argument"
	valueString              = "Value"
	referenceString          = "Reference"
	lengthString             = "Length"
	observedAbundanceString  = "ObservedAbundance"
	estimatedAbundanceString = "EstimatedAbundance"
	uniqueSequenceString     = "UniqueSequence"
	countString              = "Count"
	referenceBaseString      = "ReferenceBase"
	observedBaseString       = "ObservedBase"
	qualityScoreString       = "QualityScore"
	observationsString       = "Observations"
	errorProbabilityString   = "ErrorProbability"
)

func (result *Result) printArgumentsTable(file io.Writer) {
	arguments := [][2]string{
		{"run_id", result.RunID},
		{"sample_size", strconv.Itoa(result.SampleSize)},
		{"tie_mode", strconv.Itoa(result.TieMode)},
		{"kmer_size", strconv.Itoa(result.KmerSize)},
		{"quality_offset", strconv.Itoa(int(result.QualityOffset))},
		{"seed", strconv.FormatInt(result.Seed, 10)},
		{"total_reads", strconv.Itoa(result.TotalReads)},
		{"sampled_reads", strconv.Itoa(result.SampledReads)},
		{"dropped_reads", strconv.Itoa(result.DroppedReads)},
	}

	result.fprintln(file, "#:elErrTable:2:"+strconv.Itoa(len(arguments))+":\045s:\045s:;")
	result.fprintln(file, "#:elErrTable:Arguments:Learning argument values used in this run")

	maxLenArgument := len(argumentString)
	maxLenValue := len(valueString)

	for _, row := range arguments {
		maxLenArgument = maxInt(maxLenArgument, len(row[0]))
		maxLenValue = maxInt(maxLenValue, len(row[1]))
	}

	result.fprintf(file, "%-[1]*[2]s", maxLenArgument, argumentString)
	result.fprintf(file, "  %-[1]*[2]s\n", maxLenValue, valueString)

	for _, row := range arguments {
		result.fprintf(file, "%-[1]*[2]s", maxLenArgument, row[0])
		result.fprintf(file, "  %-[1]*[2]s\n", maxLenValue, row[1])
	}

	result.fprintln(file)
}

func (result *Result) printReferencesTable(file io.Writer) {
	result.fprintln(file, "#:elErrTable:4:"+strconv.Itoa(len(result.References))+":\045s:\045d:\045d:\045d:;")
	result.fprintln(file, "#:elErrTable:References:Reference sequences with observed and estimated abundances")

	maxLenReference := len(referenceString)
	maxLenLength := len(lengthString)
	maxLenObserved := len(observedAbundanceString)
	maxLenEstimated := len(estimatedAbundanceString)

	for _, reference := range result.References {
		maxLenReference = maxInt(maxLenReference, len(reference.ID))
		maxLenLength = maxInt(maxLenLength, len(strconv.Itoa(len(reference.SEQ))))
		maxLenObserved = maxInt(maxLenObserved, len(strconv.FormatInt(reference.ObservedAbundance, 10)))
		maxLenEstimated = maxInt(maxLenEstimated, len(strconv.FormatInt(reference.EstimatedAbundance, 10)))
	}

	result.fprintf(file, "%-[1]*[2]s", maxLenReference, referenceString)
	result.fprintf(file, "  %-[1]*[2]s", maxLenLength, lengthString)
	result.fprintf(file, "  %-[1]*[2]s", maxLenObserved, observedAbundanceString)
	result.fprintf(file, "  %-[1]*[2]s\n", maxLenEstimated, estimatedAbundanceString)

	for _, reference := range result.References {
		result.fprintf(file, "%-[1]*[2]s", maxLenReference, reference.ID)
		result.fprintf(file, "  %[1]*[2]d", maxLenLength, len(reference.SEQ))
		result.fprintf(file, "  %[1]*[2]d", maxLenObserved, reference.ObservedAbundance)
		result.fprintf(file, "  %[1]*[2]d\n", maxLenEstimated, reference.EstimatedAbundance)
	}

	result.fprintln(file)
}

func (result *Result) printAssignmentsTable(file io.Writer) {
	result.fprintln(file, "#:elErrTable:4:"+strconv.Itoa(len(result.Uniques))+":\045d:\045d:\045d:\045s:;")
	result.fprintln(file, "#:elErrTable:Assignments:Unique sequences with their assigned references")

	maxLenUniqueSequence := len(uniqueSequenceString)
	maxLenLength := len(lengthString)
	maxLenCount := len(countString)
	maxLenReference := len(referenceString)

	for index, unique := range result.Uniques {
		maxLenUniqueSequence = maxInt(maxLenUniqueSequence, len(strconv.Itoa(index)))
		maxLenLength = maxInt(maxLenLength, len(strconv.Itoa(len(unique.SEQ))))
		maxLenCount = maxInt(maxLenCount, len(strconv.FormatInt(int64(unique.Count), 10)))
		maxLenReference = maxInt(maxLenReference, len(result.References[result.Assignment[index]].ID))
	}

	result.fprintf(file, "%-[1]*[2]s", maxLenUniqueSequence, uniqueSequenceString)
	result.fprintf(file, "  %-[1]*[2]s", maxLenLength, lengthString)
	result.fprintf(file, "  %-[1]*[2]s", maxLenCount, countString)
	result.fprintf(file, "  %-[1]*[2]s\n", maxLenReference, referenceString)

	for index, unique := range result.Uniques {
		result.fprintf(file, "%[1]*[2]d", maxLenUniqueSequence, index)
		result.fprintf(file, "  %[1]*[2]d", maxLenLength, len(unique.SEQ))
		result.fprintf(file, "  %[1]*[2]d", maxLenCount, unique.Count)
		result.fprintf(file, "  %-[1]*[2]s\n", maxLenReference, result.References[result.Assignment[index]].ID)
	}

	result.fprintln(file)
}

func (result *Result) printTransitionCountsTable(file io.Writer) {
	rows := 0
	maxLenQualityScore := len(qualityScoreString)
	maxLenObservations := len(observationsString)

	for refBase := int32(0); refBase < model.NrOfBases; refBase++ {
		for obsBase := int32(0); obsBase < model.NrOfBases; obsBase++ {
			for qual := 0; qual <= model.MaxQualityScore; qual++ {
				if count := result.Transitions[refBase][obsBase][qual]; count > 0 {
					rows++
					maxLenQualityScore = maxInt(maxLenQualityScore, len(strconv.Itoa(qual)))
					maxLenObservations = maxInt(maxLenObservations, len(strconv.FormatInt(count, 10)))
				}
			}
		}
	}

	result.fprintln(file, "#:elErrTable:4:"+strconv.Itoa(rows)+":\045s:\045s:\045d:\045d:;")
	result.fprintln(file, "#:elErrTable:TransitionCounts:Observed base transitions per reported quality score")

	maxLenReferenceBase := len(referenceBaseString)
	maxLenObservedBase := len(observedBaseString)

	result.fprintf(file, "%-[1]*[2]s", maxLenReferenceBase, referenceBaseString)
	result.fprintf(file, "  %-[1]*[2]s", maxLenObservedBase, observedBaseString)
	result.fprintf(file, "  %-[1]*[2]s", maxLenQualityScore, qualityScoreString)
	result.fprintf(file, "  %-[1]*[2]s\n", maxLenObservations, observationsString)

	for refBase := int32(0); refBase < model.NrOfBases; refBase++ {
		for obsBase := int32(0); obsBase < model.NrOfBases; obsBase++ {
			for qual := 0; qual <= model.MaxQualityScore; qual++ {
				if count := result.Transitions[refBase][obsBase][qual]; count > 0 {
					result.fprintf(file, "%-[1]*[2]s", maxLenReferenceBase, string(model.BaseIndexToBase(refBase)))
					result.fprintf(file, "  %-[1]*[2]s", maxLenObservedBase, string(model.BaseIndexToBase(obsBase)))
					result.fprintf(file, "  %[1]*[2]d", maxLenQualityScore, qual)
					result.fprintf(file, "  %[1]*[2]d\n", maxLenObservations, count)
				}
			}
		}
	}

	result.fprintln(file)
}

func (result *Result) printErrorRatesTable(file io.Writer) {
	rows := 0
	maxLenQualityScore := len(qualityScoreString)

	for refBase := int32(0); refBase < model.NrOfBases; refBase++ {
		for qual := 0; qual <= model.MaxQualityScore; qual++ {
			if result.Transitions.Observations(refBase, uint8(qual)) > 0 {
				rows += model.NrOfBases
				maxLenQualityScore = maxInt(maxLenQualityScore, len(strconv.Itoa(qual)))
			}
		}
	}

	result.fprintln(file, "#:elErrTable:4:"+strconv.Itoa(rows)+":\045s:\045s:\045d:\045.6f:;")
	result.fprintln(file, "#:elErrTable:ErrorRates:Smoothed error probabilities at the observed quality scores")

	maxLenReferenceBase := len(referenceBaseString)
	maxLenObservedBase := len(observedBaseString)
	maxLenErrorProbability := len(errorProbabilityString)

	result.fprintf(file, "%-[1]*[2]s", maxLenReferenceBase, referenceBaseString)
	result.fprintf(file, "  %-[1]*[2]s", maxLenObservedBase, observedBaseString)
	result.fprintf(file, "  %-[1]*[2]s", maxLenQualityScore, qualityScoreString)
	result.fprintf(file, "  %-[1]*[2]s\n", maxLenErrorProbability, errorProbabilityString)

	for refBase := int32(0); refBase < model.NrOfBases; refBase++ {
		for obsBase := int32(0); obsBase < model.NrOfBases; obsBase++ {
			for qual := 0; qual <= model.MaxQualityScore; qual++ {
				if result.Transitions.Observations(refBase, uint8(qual)) > 0 {
					result.fprintf(file, "%-[1]*[2]s", maxLenReferenceBase, string(model.BaseIndexToBase(refBase)))
					result.fprintf(file, "  %-[1]*[2]s", maxLenObservedBase, string(model.BaseIndexToBase(obsBase)))
					result.fprintf(file, "  %[1]*[2]d", maxLenQualityScore, qual)
					result.fprintf(file, "  %[1]*.6[2]f\n", maxLenErrorProbability, result.Errors[refBase][obsBase][qual])
				}
			}
		}
	}

	result.fprintln(file)
}

// PrintReport writes the learned model and its bookkeeping as a text
// report of width-formatted tables.
func (result *Result) PrintReport(name string) (err error) {
	file, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		if nerr := file.Close(); err == nil {
			err = nerr
		}
	}()
	result.fprintln(file, "#:elErrReport.v1.0:5")
	result.printArgumentsTable(file)
	result.printReferencesTable(file)
	result.printAssignmentsTable(file)
	result.printTransitionCountsTable(file)
	result.printErrorRatesTable(file)
	return result.err
}
