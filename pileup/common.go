// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package pileup

import (
	"github.com/grailbio/base/errors"
	"github.com/grailbio/mpileup/interval"
)

// Common pileup components.

// PosType is the integer type used to represent genomic positions.
type PosType = interval.PosType

// PosTypeMax is the maximum value that can be represented by a PosType.
const PosTypeMax = interval.PosTypeMax

const (
	// BaseA represents an A base.
	BaseA byte = iota
	// BaseC represents an C base.
	BaseC
	// BaseG represents an G base.
	BaseG
	// BaseT represents an T base.
	BaseT
	// BaseX is a catch-all.
	BaseX
)

const (
	// NBase is the number of regular base types.
	NBase = 4
	// NBaseEnum counts BaseX as well as the regular base types.
	NBaseEnum = 5
)

// EnumToASCIITable is the A/C/G/T/X -> ASCII mapping, with X rendered as 'N'.
var EnumToASCIITable = [...]byte{'A', 'C', 'G', 'T', 'N'}

// StrandType describes which strand a read base was observed on.
type StrandType int

const (
	// StrandNone means the strand is unknown, e.g. because the column was
	// parsed in strand-collapsing mode.
	StrandNone StrandType = iota
	// StrandFwd means the base was reported in uppercase.
	StrandFwd
	// StrandRev means the base was reported in lowercase.
	StrandRev
)

// StrandTypeToASCIITable is the StrandType -> ASCII mapping.
var StrandTypeToASCIITable = [...]byte{'.', '+', '-'}

// asciiToEnumTable maps both cases of A/C/G/T to the base enum; everything
// else is BaseX.
var asciiToEnumTable [256]byte

func init() {
	for i := range asciiToEnumTable {
		asciiToEnumTable[i] = BaseX
	}
	for enum, c := range EnumToASCIITable[:NBase] {
		asciiToEnumTable[c] = byte(enum)
		asciiToEnumTable[c|0x20] = byte(enum)
	}
}

// ASCIIToEnum returns the A/C/G/T/X enum for a pileup base character along
// with the strand implied by its case.  Characters which aren't letters
// report StrandNone.
func ASCIIToEnum(c byte) (base byte, strand StrandType) {
	base = asciiToEnumTable[c]
	switch {
	case c >= 'A' && c <= 'Z':
		strand = StrandFwd
	case c >= 'a' && c <= 'z':
		strand = StrandRev
	}
	return
}

// IsFormatError returns true if err was caused by a malformed pileup line.
func IsFormatError(err error) bool {
	return errors.Is(errors.Invalid, err)
}
