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

package fasta

import (
	"bufio"
	"log"

	"github.com/exascience/elerr/internal"
	"github.com/exascience/elerr/utils"
)

// A Sequence is a named reference sequence from a FASTA file.
type Sequence struct {
	Name  string
	Bases string
}

func nameFromHeader(b []byte) string {
	i := 1
	for ; i < len(b); i++ {
		if c := b[i]; c >= '!' && c <= '~' {
			break
		}
	}
	j := i + 1
	for ; j < len(b); j++ {
		if c := b[j]; c < '!' || c > '~' {
			break
		}
	}
	return string(b[i:j])
}

var baseTable = map[byte]byte{
	'A': 'A', 'a': 'A',
	'C': 'C', 'c': 'C',
	'G': 'G', 'g': 'G',
	'T': 'T', 't': 'T',
}

func appendBases(seq, b []byte, name, filename string) []byte {
	for _, c := range b {
		base, ok := baseTable[c]
		if !ok {
			log.Panicf("invalid character %q in sequence %v in fasta file %v", c, name, filename)
		}
		seq = append(seq, base)
	}
	return seq
}

// ParseFasta sequentially parses a FASTA file into a list of reference
// sequences, preserving the order in which they occur in the file.
// The file may be gzip-compressed.
//
// Sequences may only contain the bases A, C, G, and T. Lower case
// letters are normalized to upper case, and any other character,
// including IUPAC ambiguity codes, is rejected.
func ParseFasta(filename string) (fasta []*Sequence) {
	f := internal.FileOpen(filename)
	defer internal.Close(f)

	scanner := bufio.NewScanner(utils.HandleGzip(bufio.NewReader(f)))

	if !scanner.Scan() {
		log.Panicf("empty fasta file %v", filename)
	}
	b := scanner.Bytes()
	for len(b) == 0 {
		if !scanner.Scan() {
			log.Panicf("empty fasta file %v", filename)
		}
		b = scanner.Bytes()
	}
	if b[0] != '>' {
		log.Panicf("invalid fasta file %v - missing first header", filename)
	}

	seen := make(map[string]bool)
	name := nameFromHeader(b)
	seen[name] = true
	var seq []byte

scanLoop:
	for scanner.Scan() {
		b := scanner.Bytes()
		if len(b) == 0 {
			if !scanner.Scan() {
				break scanLoop
			}
			b = scanner.Bytes()
			for len(b) == 0 {
				if !scanner.Scan() {
					break scanLoop
				}
				b = scanner.Bytes()
			}
			if b[0] != '>' {
				log.Panicf("invalid fasta file %v - empty line", filename)
			}
		}
		if b[0] == '>' {
			fasta = append(fasta, &Sequence{Name: name, Bases: string(seq)})
			name = nameFromHeader(b)
			if seen[name] {
				log.Panicf("duplicate sequence name %v in fasta file %v", name, filename)
			}
			seen[name] = true
			seq = seq[:0]
		} else {
			seq = appendBases(seq, b, name, filename)
		}
	}

	fasta = append(fasta, &Sequence{Name: name, Bases: string(seq)})

	if err := scanner.Err(); err != nil {
		log.Panic(err)
	}

	return fasta
}
