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
	"encoding/gob"
	"os"

	"github.com/golang/snappy"
)

// Save writes the result to a snappy-compressed gob file.
func (result *Result) Save(name string) (err error) {
	file, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		if nerr := file.Close(); err == nil {
			err = nerr
		}
	}()
	writer := snappy.NewBufferedWriter(file)
	if err = gob.NewEncoder(writer).Encode(result); err != nil {
		return err
	}
	return writer.Close()
}

// Load reads a result previously written by Save.
func Load(name string) (result *Result, err error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer func() {
		if nerr := file.Close(); err == nil {
			err = nerr
		}
	}()
	result = new(Result)
	if err = gob.NewDecoder(snappy.NewReader(file)).Decode(result); err != nil {
		return nil, err
	}
	return result, nil
}
