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
	"bytes"
	"compress/gzip"
	"io/ioutil"
	"path/filepath"
	"testing"
)

func sequencesEqual(fasta1, fasta2 []*Sequence) bool {
	if len(fasta1) != len(fasta2) {
		return false
	}
	for i, seq1 := range fasta1 {
		if seq1.Name != fasta2[i].Name || seq1.Bases != fasta2[i].Bases {
			return false
		}
	}
	return true
}

func TestParseFasta(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "refs.fasta")
	contents := ">ref1 first reference\nACGTACGT\nacgt\n\n>ref2\nGGGGCCCC\n"
	if err := ioutil.WriteFile(filename, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	expected := []*Sequence{
		{Name: "ref1", Bases: "ACGTACGTACGT"},
		{Name: "ref2", Bases: "GGGGCCCC"},
	}
	if !sequencesEqual(ParseFasta(filename), expected) {
		t.Error("ParseFasta 1 failed")
	}
}

func TestParseFastaGzip(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "refs.fasta.gz")
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write([]byte(">ref1\nACGTACGT\n>ref2\nTTTTAAAA\n")); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := ioutil.WriteFile(filename, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	expected := []*Sequence{
		{Name: "ref1", Bases: "ACGTACGT"},
		{Name: "ref2", Bases: "TTTTAAAA"},
	}
	if !sequencesEqual(ParseFasta(filename), expected) {
		t.Error("ParseFasta 2 failed")
	}
}
