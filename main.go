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

// elErr is a high-performance tool for estimating sequencing error
// models from amplicon reads of mock communities.
//
// Please see https://github.com/exascience/elerr for a documentation
// of the tool, and below (and/or
// https://godoc.org/github.com/ExaScience/elerr) for the API
// documentation.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/exascience/elerr/cmd"
)

func printHelp() {
	fmt.Fprintln(os.Stderr, "Available commands: learn, print-model, simulate")
	fmt.Fprint(os.Stderr, "\n", cmd.LearnHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.PrintModelHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.SimulateHelp)
}

func main() {
	fmt.Fprintln(os.Stderr, cmd.ProgramMessage)
	if len(os.Args) < 2 {
		log.Println("Incorrect number of parameters.")
		fmt.Fprint(os.Stderr, cmd.HelpMessage)
		printHelp()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "learn":
		err = cmd.Learn()
	case "print-model":
		err = cmd.PrintModel()
	case "simulate":
		err = cmd.Simulate()
	case "help", "-help", "--help", "-h", "--h":
		printHelp()
	default:
		log.Println("Incorrect command: ", os.Args[1])
		fmt.Fprint(os.Stderr, cmd.HelpMessage)
		printHelp()
		os.Exit(1)
	}
	if err != nil {
		log.Fatal(err)
	}
}
