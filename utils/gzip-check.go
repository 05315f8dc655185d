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

package utils

import (
	"bufio"
	"compress/gzip"
	"io"
	"log"
)

// HandleGzip checks if the given reader produces a gzip file
// by looking at the initial bytes. It then either returns
// a gzip.Reader, or returns the given reader unchanged.
// HandleGzip uses Peek.
func HandleGzip(buf *bufio.Reader) io.Reader {
	magic, err := buf.Peek(2)
	if err != nil && err != io.EOF {
		log.Panic(err)
	}
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		r, err := gzip.NewReader(buf)
		if err != nil {
			log.Panic(err)
		}
		return r
	}
	return buf
}
