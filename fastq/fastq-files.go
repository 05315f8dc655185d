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

package fastq

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/exascience/pargo/pipeline"

	"github.com/exascience/elerr/internal"
	"github.com/exascience/elerr/utils"
)

// GzExt is the file extension that selects gzip-compressed output.
const GzExt = ".gz"

// A Read is a single sequencing read from a FASTQ file.
type Read struct {
	QNAME string
	SEQ   string
	QUAL  string
}

// MaxQualityScore is the highest quality score that can be encoded in
// a FASTQ file.
const MaxQualityScore = 93

// check validates a read against the given quality score encoding,
// normalizing lower case bases to upper case.
func (read *Read) check(qualityOffset uint8) error {
	if strings.ContainsAny(read.SEQ, "acgt") {
		read.SEQ = strings.ToUpper(read.SEQ)
	}
	for i := 0; i < len(read.SEQ); i++ {
		switch read.SEQ[i] {
		case 'A', 'C', 'G', 'T':
		default:
			return fmt.Errorf("invalid base %q in read %v", read.SEQ[i], read.QNAME)
		}
	}
	if len(read.QUAL) != len(read.SEQ) {
		return fmt.Errorf("read %v has %v bases but %v quality scores", read.QNAME, len(read.SEQ), len(read.QUAL))
	}
	for i := 0; i < len(read.QUAL); i++ {
		if q := read.QUAL[i]; q < qualityOffset || q > qualityOffset+MaxQualityScore {
			return fmt.Errorf("invalid quality score %q in read %v", q, read.QNAME)
		}
	}
	return nil
}

// An InputFile represents a FASTQ file for input.
type InputFile struct {
	name    string
	rc      io.ReadCloser
	scanner *bufio.Scanner
	line    int
	data    interface{}
}

// Open a FASTQ file for input. The file may be gzip-compressed.
//
// If the name is "/dev/stdin", then the input is read from os.Stdin.
func Open(name string) (*InputFile, error) {
	if name == "/dev/stdin" {
		return &InputFile{
			name:    name,
			rc:      os.Stdin,
			scanner: bufio.NewScanner(utils.HandleGzip(bufio.NewReader(os.Stdin))),
		}, nil
	}
	file, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	return &InputFile{
		name:    name,
		rc:      file,
		scanner: bufio.NewScanner(utils.HandleGzip(bufio.NewReader(file))),
	}, nil
}

// Close closes the FASTQ input file.
func (f *InputFile) Close() error {
	if f.rc != os.Stdin {
		return f.rc.Close()
	}
	return nil
}

func (f *InputFile) scanLine() (string, bool) {
	if f.scanner.Scan() {
		f.line++
		return f.scanner.Text(), true
	}
	if err := f.scanner.Err(); err != nil {
		log.Panic(err)
	}
	return "", false
}

// Err implements the method of the pipeline.Source interface.
func (f *InputFile) Err() error {
	return nil
}

// Prepare implements the method of the pipeline.Source interface.
func (f *InputFile) Prepare(_ context.Context) (size int) {
	return -1
}

// Fetch implements the method of the pipeline.Source interface.
//
// Fetch reads up to size complete four-line FASTQ records. Structural
// problems in the file are reported immediately; the contents of the
// records are validated in a later pipeline stage.
func (f *InputFile) Fetch(size int) (fetched int) {
	var records []*Read
	for fetched = 0; fetched < size; fetched++ {
		header, ok := f.scanLine()
		if !ok {
			break
		}
		if len(header) == 0 || header[0] != '@' {
			log.Panicf("invalid fastq file %v - missing @ header in line %v", f.name, f.line)
		}
		seq, ok := f.scanLine()
		if !ok {
			log.Panicf("invalid fastq file %v - truncated record in line %v", f.name, f.line)
		}
		plus, ok := f.scanLine()
		if !ok {
			log.Panicf("invalid fastq file %v - truncated record in line %v", f.name, f.line)
		}
		if len(plus) == 0 || plus[0] != '+' {
			log.Panicf("invalid fastq file %v - missing + separator in line %v", f.name, f.line)
		}
		qual, ok := f.scanLine()
		if !ok {
			log.Panicf("invalid fastq file %v - truncated record in line %v", f.name, f.line)
		}
		records = append(records, &Read{QNAME: header[1:], SEQ: seq, QUAL: qual})
	}
	f.data = records
	return fetched
}

// Data implements the method of the pipeline.Source interface.
func (f *InputFile) Data() interface{} {
	return f.data
}

const (
	minBatchSize = 1024
	maxBatchSize = 65536
)

// RunPipeline parses all reads from the FASTQ input file into memory,
// validating them in parallel against the given quality score
// encoding.
func (f *InputFile) RunPipeline(output *[]*Read, qualityOffset uint8) error {
	var p pipeline.Pipeline
	p.Source(f)
	p.SetVariableBatchSize(minBatchSize, maxBatchSize)
	p.Add(
		pipeline.LimitedPar(0, pipeline.Receive(func(_ int, data interface{}) interface{} {
			reads := data.([]*Read)
			for _, read := range reads {
				if err := read.check(qualityOffset); err != nil {
					p.SetErr(fmt.Errorf("%v in fastq file %v", err, f.name))
					break
				}
			}
			return reads
		})),
		pipeline.StrictOrd(pipeline.Slice(output)),
	)
	p.Run()
	return p.Err()
}

// ParseFastq reads a complete FASTQ file into memory.
func ParseFastq(filename string, qualityOffset uint8) (reads []*Read, err error) {
	input, err := Open(filename)
	if err != nil {
		return nil, err
	}
	defer func() {
		nerr := input.Close()
		if err == nil {
			err = nerr
		}
	}()
	err = input.RunPipeline(&reads, qualityOffset)
	return reads, err
}

// An OutputFile represents a FASTQ file for output.
type OutputFile struct {
	wc  io.WriteCloser
	gz  *gzip.Writer
	buf *bufio.Writer
}

// Create a FASTQ file for output. The output is gzip-compressed when
// the filename ends in .gz.
//
// If the name is "/dev/stdout", then the output is written to
// os.Stdout.
func Create(name string) (*OutputFile, error) {
	if name == "/dev/stdout" {
		return &OutputFile{wc: os.Stdout, buf: bufio.NewWriter(os.Stdout)}, nil
	}
	file, err := os.Create(name)
	if err != nil {
		return nil, err
	}
	if filepath.Ext(name) == GzExt {
		gz := gzip.NewWriter(file)
		return &OutputFile{wc: file, gz: gz, buf: bufio.NewWriter(gz)}, nil
	}
	return &OutputFile{wc: file, buf: bufio.NewWriter(file)}, nil
}

// Write writes a single four-line FASTQ record.
func (f *OutputFile) Write(read *Read) {
	internal.WriteByte(f.buf, '@')
	internal.WriteString(f.buf, read.QNAME)
	internal.WriteByte(f.buf, '\n')
	internal.WriteString(f.buf, read.SEQ)
	internal.WriteString(f.buf, "\n+\n")
	internal.WriteString(f.buf, read.QUAL)
	internal.WriteByte(f.buf, '\n')
}

// Close closes the FASTQ output file.
func (f *OutputFile) Close() error {
	if err := f.buf.Flush(); err != nil {
		return err
	}
	if f.gz != nil {
		if err := f.gz.Close(); err != nil {
			return err
		}
	}
	if f.wc != os.Stdout {
		return f.wc.Close()
	}
	return nil
}
