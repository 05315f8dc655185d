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

package cmd

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/exascience/elerr/fasta"
	"github.com/exascience/elerr/fastq"
	"github.com/exascience/elerr/internal"
	"github.com/exascience/elerr/model"
)

// SimulateHelp is the help string for this command.
const SimulateHelp = "Simulate parameters:\n" +
	"elerr simulate fasta-file fastq-file\n" +
	"[--read-count nr]\n" +
	"[--error-rate nr]\n" +
	"[--quality nr]\n" +
	"[--abundances nr,...,nr]\n" +
	"[--quality-offset nr]\n" +
	"[--seed nr]\n" +
	"[--log-path path]\n"

// Simulate parses the command line for generating synthetic amplicon
// reads from a reference table, and executes the command.
//
// Every generated read is a copy of a reference sequence in which each
// base is replaced by a random other base with the given probability,
// with all base qualities set to the given fixed score. Reads are drawn
// from the references proportionally to the given relative abundances,
// or uniformly when no abundances are given.
func Simulate() error {
	var (
		readCount, quality, qualityOffset int
		errorRate                         float64
		abundances, logPath               string
		seed                              int64
	)

	var flags flag.FlagSet

	flags.IntVar(&readCount, "read-count", 10000, "number of reads to generate")
	flags.Float64Var(&errorRate, "error-rate", 0.01, "substitution probability per base")
	flags.IntVar(&quality, "quality", 40, "base quality score reported for every base")
	flags.StringVar(&abundances, "abundances", "", "comma-separated relative abundances of the reference sequences")
	flags.IntVar(&qualityOffset, "quality-offset", 33, "phred encoding offset of the base quality scores")
	flags.Int64Var(&seed, "seed", 0, "seed for the read generator")
	flags.StringVar(&logPath, "log-path", "", "write log files to this directory")

	parseFlags(flags, 4, SimulateHelp)

	fastaFile := getFilename(os.Args[2], SimulateHelp)
	fastqFile := getFilename(os.Args[3], SimulateHelp)

	setLogOutput(logPath)

	// sanity checks

	var sanityChecksFailed bool

	if !checkExist("", fastaFile) {
		sanityChecksFailed = true
	}
	if !checkCreate("", fastqFile) {
		sanityChecksFailed = true
	}

	if readCount < 1 {
		sanityChecksFailed = true
		log.Println("Error: Invalid read-count: ", readCount)
	}

	if errorRate < 0 || errorRate > 1 {
		sanityChecksFailed = true
		log.Println("Error: Invalid error-rate: ", errorRate)
	}

	if quality < 0 || quality > model.MaxQualityScore {
		sanityChecksFailed = true
		log.Println("Error: Invalid quality: ", quality)
	}

	if qualityOffset != 33 && qualityOffset != 64 {
		sanityChecksFailed = true
		log.Println("Error: Invalid quality-offset: ", qualityOffset)
	}

	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, SimulateHelp)
		os.Exit(1)
	}

	// building output command line

	var command bytes.Buffer

	fmt.Fprint(&command, os.Args[0], " simulate ", fastaFile, " ", fastqFile)
	fmt.Fprint(&command, " --read-count ", readCount)
	fmt.Fprint(&command, " --error-rate ", errorRate)
	fmt.Fprint(&command, " --quality ", quality)
	if abundances != "" {
		fmt.Fprint(&command, " --abundances ", abundances)
	}
	fmt.Fprint(&command, " --quality-offset ", qualityOffset)
	fmt.Fprint(&command, " --seed ", seed)
	if logPath != "" {
		fmt.Fprint(&command, " --log-path ", logPath)
	}

	// executing command

	log.Println("Executing command:\n", command.String())

	table := fasta.ParseFasta(fastaFile)

	weights := make([]float64, len(table))
	if abundances == "" {
		for i := range weights {
			weights[i] = 1
		}
	} else {
		parts := strings.Split(abundances, ",")
		if len(parts) != len(table) {
			return fmt.Errorf("%v abundances given for %v reference sequences", len(parts), len(table))
		}
		for i, part := range parts {
			weights[i] = internal.ParseFloat(strings.TrimSpace(part), 64)
			if weights[i] < 0 {
				return fmt.Errorf("negative abundance %v for reference sequence %v", weights[i], table[i].Name)
			}
		}
	}

	// cumulative totals for drawing references proportionally to weight
	var total float64
	cumulative := make([]float64, len(table))
	for i, weight := range weights {
		total += weight
		cumulative[i] = total
	}
	if total <= 0 {
		return fmt.Errorf("the abundances sum to %v", total)
	}

	quals := make([]string, len(table))
	for i, sequence := range table {
		quals[i] = strings.Repeat(string([]byte{uint8(qualityOffset) + uint8(quality)}), len(sequence.Bases))
	}

	output, err := fastq.Create(fastqFile)
	if err != nil {
		return err
	}

	random := internal.NewRand(seed)
	for i := 0; i < readCount; i++ {
		draw := random.Float64() * total
		reference := 0
		for draw >= cumulative[reference] && reference < len(table)-1 {
			reference++
		}
		bases := []byte(table[reference].Bases)
		for position, base := range bases {
			if random.Float64() < errorRate {
				bases[position] = substituteBase(random, base)
			}
		}
		output.Write(&fastq.Read{
			QNAME: fmt.Sprint("read", i+1, " ", table[reference].Name),
			SEQ:   string(bases),
			QUAL:  quals[reference],
		})
	}
	return output.Close()
}

// substituteBase picks a random base different from the given one.
func substituteBase(random *internal.Rand, base byte) byte {
	for {
		substitute := "ACGT"[random.Intn(4)]
		if substitute != base {
			return substitute
		}
	}
}
