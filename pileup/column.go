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
	"fmt"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
)

// nPileupFields is the number of tab-separated fields in a samtools pileup
// line for a single input file without -s/-O style extra columns.
const nPileupFields = 6

// Column represents a single pileup line: every read base covering one
// genomic position.
//
// - Coord is zero-based; the text format is 1-based.
// - Bases[i] and Quals[i] describe the same read.  len(Bases) == len(Quals)
//   always holds, including after filtering.
// - Coverage is the depth reported by samtools, and is not updated by the
//   filters.
type Column struct {
	Chrom    string
	Coord    PosType
	RefBase  byte
	Coverage int
	Bases    []byte
	Quals    []byte

	// RawBases and RawQuals hold the undecoded read-base and quality fields.
	// They are only populated when ParseOpts.KeepRaw is set.
	RawBases string
	RawQuals string
}

// ParseOpts controls how a pileup line is decoded.
type ParseOpts struct {
	// KeepStrand preserves strand information: forward-strand bases are
	// uppercase and reverse-strand bases lowercase.  By default all bases are
	// uppercased.
	KeepStrand bool
	// KeepRaw retains the undecoded read-base and quality fields in the
	// Column.
	KeepRaw bool
}

// DefaultParseOpts is the strand-collapsing, raw-discarding configuration.
var DefaultParseOpts = ParseOpts{}

// ParseColumn parses one line of samtools pileup output.  A trailing newline
// is ignored.  The reference base is upper-cased but otherwise accepted as is;
// samtools reports 'N' when it wasn't given a reference.
func ParseColumn(line string, opts ParseOpts) (*Column, error) {
	line = strings.TrimRight(line, "\r\n")
	fields := strings.Split(line, "\t")
	if len(fields) != nPileupFields {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("pileup.ParseColumn: expected %d tab-separated fields, got %d in line %q", nPileupFields, len(fields), line))
	}
	c := &Column{Chrom: fields[0]}
	pos1, err := strconv.ParseInt(fields[1], 10, 32)
	if err != nil || pos1 <= 0 {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("pileup.ParseColumn: %s: invalid position %q", c.Chrom, fields[1]))
	}
	c.Coord = PosType(pos1 - 1)
	if len(fields[2]) != 1 {
		return nil, c.formatError(fmt.Sprintf("invalid reference base %q", fields[2]))
	}
	c.RefBase = toUpper(fields[2][0])
	if c.Coverage, err = strconv.Atoi(fields[3]); err != nil || c.Coverage < 0 {
		return nil, c.formatError(fmt.Sprintf("invalid coverage %q", fields[3]))
	}
	if opts.KeepRaw {
		c.RawBases = fields[4]
		c.RawQuals = fields[5]
	}
	if err = c.decode(fields[4], fields[5], opts.KeepStrand); err != nil {
		return nil, err
	}
	return c, nil
}

// decode fills c.Bases and c.Quals from the raw pileup fields.
func (c *Column) decode(rawBases, rawQuals string, keepStrand bool) (err error) {
	// samtools emits "*" in both columns for a zero-coverage position.
	if rawBases == "*" && rawQuals == "*" && c.Coverage == 0 {
		c.Bases = []byte{}
		c.Quals = []byte{}
		return nil
	}
	if c.Quals, err = DecodeQuals(rawQuals); err != nil {
		return c.wrapFormatError(err)
	}
	bases := []byte(rawBases)
	bases = StripSegmentMarkers(bases)
	bases = ResolveMatches(bases, c.RefBase, keepStrand)
	if bases, err = ExciseIndels(bases); err != nil {
		return c.wrapFormatError(err)
	}
	if len(bases) != len(c.Quals) {
		return c.formatError(fmt.Sprintf("mismatch between number of parsed bases (%d) and quality values (%d)", len(bases), len(c.Quals)))
	}
	c.Bases, c.Quals = DropDeletions(bases, c.Quals)
	return nil
}

func (c *Column) formatError(msg string) error {
	return errors.E(errors.Invalid, fmt.Sprintf("pileup.ParseColumn: %s:%d: %s", c.Chrom, c.Coord+1, msg))
}

func (c *Column) wrapFormatError(err error) error {
	return errors.E(errors.Invalid, fmt.Sprintf("pileup.ParseColumn: %s:%d", c.Chrom, c.Coord+1), err)
}

// String renders c in a compact human-readable form, for logging.
func (c *Column) String() string {
	return fmt.Sprintf("%s:%d %c cov=%d bases=%s quals=%v", c.Chrom, c.Coord+1, c.RefBase, c.Coverage, c.Bases, c.Quals)
}
