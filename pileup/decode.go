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

	"github.com/grailbio/base/errors"
)

// The read-base column of samtools pileup output
// (http://www.htslib.org/doc/samtools-mpileup.html) is decoded by the
// following stages, applied in order by ParseColumn:
//
//   StripSegmentMarkers: "^" + mapping-quality byte, and "$", are removed.
//   ResolveMatches:      "." / "," are replaced with the reference base.
//   ExciseIndels:        "+3ACG" / "-2TT" runs are removed; they have no
//                        quality value.
//   DropDeletions:       "*" placeholders are removed together with their
//                        quality value.
//
// DecodeQuals converts the quality column to Phred scores, and must run
// before DropDeletions.
//
// All stages rewrite their input in place and return the shortened slice.

const (
	segmentStart  = '^'
	segmentEnd    = '$'
	fwdMatch      = '.'
	revMatch      = ','
	deletedRefPos = '*'

	// PhredOffset is subtracted from each quality character to get a Phred
	// score.
	PhredOffset = 33
)

// StripSegmentMarkers removes read-segment start markers (along with the
// mapping-quality character that follows each one) and read-segment end
// markers.
func StripSegmentMarkers(bases []byte) []byte {
	out := bases[:0]
	for i := 0; i < len(bases); i++ {
		switch bases[i] {
		case segmentStart:
			// The next byte is a mapping quality and may be any printable
			// character, including '+', '-', '$' and digits.
			i++
		case segmentEnd:
		default:
			out = append(out, bases[i])
		}
	}
	return out
}

// ResolveMatches replaces match symbols with the reference base.
//
// If keepStrand is true, '.' becomes the uppercase reference base and ','
// the lowercase one, and the case of mismatch letters is left alone, so case
// encodes strand.  Otherwise both symbols become refBase and the whole string
// is uppercased.
func ResolveMatches(bases []byte, refBase byte, keepStrand bool) []byte {
	upperRef := toUpper(refBase)
	if keepStrand {
		lowerRef := toLower(refBase)
		for i, c := range bases {
			switch c {
			case fwdMatch:
				bases[i] = upperRef
			case revMatch:
				bases[i] = lowerRef
			}
		}
		return bases
	}
	for i, c := range bases {
		switch c {
		case fwdMatch, revMatch:
			bases[i] = upperRef
		default:
			bases[i] = toUpper(c)
		}
	}
	return bases
}

// ExciseIndels removes every indel marker: a '+' or '-' followed by a run of
// digits giving a length N, followed by N sequence characters.  Matching is
// purely lexical.  If removing a marker makes a new one appear (a dangling
// sign directly in front of a digit run), that one is removed as well.
//
// An error is returned if a marker claims more characters than remain.
func ExciseIndels(bases []byte) ([]byte, error) {
	i := 0
	for i < len(bases) {
		c := bases[i]
		if (c != '+' && c != '-') || i+1 >= len(bases) || !isDigit(bases[i+1]) {
			i++
			continue
		}
		digitEnd := i + 1
		n := 0
		for digitEnd < len(bases) && isDigit(bases[digitEnd]) {
			n = n*10 + int(bases[digitEnd]-'0')
			if n > len(bases) {
				break
			}
			digitEnd++
		}
		markerEnd := digitEnd + n
		if markerEnd > len(bases) {
			return bases, errors.E(errors.Invalid, fmt.Sprintf("indel marker %q at offset %d runs past end of read bases", bases[i:], i))
		}
		bases = append(bases[:i], bases[markerEnd:]...)
		if i > 0 {
			// The character before the excised marker may be a sign that now
			// precedes a digit.
			i--
		}
	}
	return bases, nil
}

// DropDeletions removes each deleted-reference placeholder from bases,
// together with the quality value at the same index.
//
// REQUIRES: len(bases) == len(quals).
func DropDeletions(bases, quals []byte) ([]byte, []byte) {
	outBases := bases[:0]
	outQuals := quals[:0]
	for i, c := range bases {
		if c == deletedRefPos {
			continue
		}
		outBases = append(outBases, c)
		outQuals = append(outQuals, quals[i])
	}
	return outBases, outQuals
}

// DecodeQuals converts a Phred+33 encoded quality string to Phred scores.
func DecodeQuals(raw string) ([]byte, error) {
	quals := make([]byte, len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c < PhredOffset {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("invalid quality character %q at offset %d", c, i))
		}
		quals[i] = c - PhredOffset
	}
	return quals, nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func toUpper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}

func toLower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}
