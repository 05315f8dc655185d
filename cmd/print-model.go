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

	"github.com/exascience/elerr/learn"
)

// PrintModelHelp is the help string for this command.
const PrintModelHelp = "Print-model parameters:\n" +
	"elerr print-model elerr-file report-file\n" +
	"[--log-path path]\n"

// PrintModel parses the command line for printing a previously learned
// error model as a text report, and executes the command.
func PrintModel() error {
	var logPath string

	var flags flag.FlagSet

	flags.StringVar(&logPath, "log-path", "", "write log files to this directory")

	parseFlags(flags, 4, PrintModelHelp)

	elerrFile := getFilename(os.Args[2], PrintModelHelp)
	reportFile := getFilename(os.Args[3], PrintModelHelp)

	setLogOutput(logPath)

	// sanity checks

	var sanityChecksFailed bool

	if !checkExist("", elerrFile) {
		sanityChecksFailed = true
	}
	if !checkCreate("", reportFile) {
		sanityChecksFailed = true
	}

	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, PrintModelHelp)
		os.Exit(1)
	}

	// building output command line

	var command bytes.Buffer

	fmt.Fprint(&command, os.Args[0], " print-model ", elerrFile, " ", reportFile)
	if logPath != "" {
		fmt.Fprint(&command, " --log-path ", logPath)
	}

	// executing command

	log.Println("Executing command:\n", command.String())

	result, err := learn.Load(elerrFile)
	if err != nil {
		return err
	}
	return result.PrintReport(reportFile)
}
