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
	"runtime"

	"github.com/exascience/elerr/fasta"
	"github.com/exascience/elerr/fastq"
	"github.com/exascience/elerr/kmer"
	"github.com/exascience/elerr/learn"
)

// LearnHelp is the help string for this command.
const LearnHelp = "Learn parameters:\n" +
	"elerr learn fastq-file fasta-file elerr-file\n" +
	"[--sample-size nr]\n" +
	"[--tie-mode nr]\n" +
	"[--kmer-size nr]\n" +
	"[--quality-offset nr]\n" +
	"[--seed nr]\n" +
	"[--report file]\n" +
	"[--nr-of-threads nr]\n" +
	"[--timed]\n" +
	"[--profile file]\n" +
	"[--log-path path]\n"

// Learn parses the command line for learning an error model, and
// executes the command.
func Learn() error {
	var (
		sampleSize, tieMode, kmerSize, qualityOffset, nrOfThreads int
		seed                                                      int64
		report, profile, logPath                                  string
		timed                                                     bool
	)

	var flags flag.FlagSet

	flags.IntVar(&sampleSize, "sample-size", 10000, "number of reads to sample for tabulating transitions")
	flags.IntVar(&tieMode, "tie-mode", learn.TieModeAbundance, "tie-breaking mode for reads at equal distance to multiple references")
	flags.IntVar(&kmerSize, "kmer-size", 7, "k-mer size for the composition distance between reads and references")
	flags.IntVar(&qualityOffset, "quality-offset", 33, "phred encoding offset of the base quality scores")
	flags.Int64Var(&seed, "seed", 0, "seed for the random read sampler")
	flags.StringVar(&report, "report", "", "write a text report of the learned model to this file")
	flags.IntVar(&nrOfThreads, "nr-of-threads", 0, "number of worker threads")
	flags.BoolVar(&timed, "timed", false, "measure the runtime")
	flags.StringVar(&profile, "profile", "", "write a runtime profile to this file")
	flags.StringVar(&logPath, "log-path", "", "write log files to this directory")

	parseFlags(flags, 5, LearnHelp)

	fastqFile := getFilename(os.Args[2], LearnHelp)
	fastaFile := getFilename(os.Args[3], LearnHelp)
	elerrFile := getFilename(os.Args[4], LearnHelp)

	setLogOutput(logPath)

	// sanity checks

	var sanityChecksFailed bool

	if !checkExist("", fastqFile) {
		sanityChecksFailed = true
	}
	if !checkExist("", fastaFile) {
		sanityChecksFailed = true
	}
	if !checkCreate("", elerrFile) {
		sanityChecksFailed = true
	}
	if report != "" && !checkCreate("--report", report) {
		sanityChecksFailed = true
	}

	if sampleSize < 1 {
		sanityChecksFailed = true
		log.Println("Error: Invalid sample-size: ", sampleSize)
	}

	if tieMode != learn.TieModeAbundance && tieMode != learn.TieModeLikelihood {
		sanityChecksFailed = true
		log.Println("Error: Invalid tie-mode: ", tieMode)
	}

	if kmerSize < 1 || kmerSize > kmer.MaxK {
		sanityChecksFailed = true
		log.Println("Error: Invalid kmer-size: ", kmerSize)
	}

	if qualityOffset != 33 && qualityOffset != 64 {
		sanityChecksFailed = true
		log.Println("Error: Invalid quality-offset: ", qualityOffset)
	}

	if nrOfThreads < 0 {
		sanityChecksFailed = true
		log.Println("Error: Invalid nr-of-threads: ", nrOfThreads)
	}

	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, LearnHelp)
		os.Exit(1)
	}

	// building output command line

	var command bytes.Buffer

	fmt.Fprint(&command, os.Args[0], " learn ", fastqFile, " ", fastaFile, " ", elerrFile)
	fmt.Fprint(&command, " --sample-size ", sampleSize)
	fmt.Fprint(&command, " --tie-mode ", tieMode)
	fmt.Fprint(&command, " --kmer-size ", kmerSize)
	fmt.Fprint(&command, " --quality-offset ", qualityOffset)
	fmt.Fprint(&command, " --seed ", seed)
	if report != "" {
		fmt.Fprint(&command, " --report ", report)
	}
	if nrOfThreads > 0 {
		runtime.GOMAXPROCS(nrOfThreads)
		fmt.Fprint(&command, " --nr-of-threads ", nrOfThreads)
	}
	if timed {
		fmt.Fprint(&command, " --timed")
	}
	if profile != "" {
		fmt.Fprint(&command, " --profile ", profile)
	}
	if logPath != "" {
		fmt.Fprint(&command, " --log-path ", logPath)
	}

	// executing command

	log.Println("Executing command:\n", command.String())

	var reads []*fastq.Read
	err := timedRun(timed, profile, "Reading the FASTQ file.", 1, func() (err error) {
		reads, err = fastq.ParseFastq(fastqFile, uint8(qualityOffset))
		return err
	})
	if err != nil {
		return err
	}

	var table []*fasta.Sequence
	err = timedRun(timed, profile, "Reading the reference table.", 2, func() error {
		table = fasta.ParseFasta(fastaFile)
		return nil
	})
	if err != nil {
		return err
	}

	options := learn.Options{
		SampleSize:    sampleSize,
		TieMode:       tieMode,
		KmerSize:      kmerSize,
		QualityOffset: uint8(qualityOffset),
		Seed:          seed,
	}

	var result *learn.Result
	err = timedRun(timed, profile, "Learning the error model.", 3, func() (err error) {
		result, err = learn.Run(reads, table, options)
		return err
	})
	if err != nil {
		return err
	}

	err = timedRun(timed, profile, "Writing the model file.", 4, func() error {
		return result.Save(elerrFile)
	})
	if err != nil {
		return err
	}

	if report != "" {
		return timedRun(timed, profile, "Writing the report.", 5, func() error {
			return result.PrintReport(report)
		})
	}
	return nil
}
