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
package pileup_test

import (
	"strings"
	"testing"

	"github.com/grailbio/mpileup/pileup"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/require"
)

func TestParseColumn(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		opts     pileup.ParseOpts
		chrom    string
		coord    pileup.PosType
		ref      byte
		coverage int
		bases    string
		quals    []byte
	}{
		{
			"noMarkup",
			"seq1\t100\tA\t3\t...\t+++",
			pileup.DefaultParseOpts,
			"seq1", 99, 'A', 3,
			"AAA",
			[]byte{10, 10, 10},
		},
		{
			"strandCollapsing",
			"chr2\t1\tT\t4\t,.aG\tIIII\n",
			pileup.DefaultParseOpts,
			"chr2", 0, 'T', 4,
			"TTAG",
			[]byte{40, 40, 40, 40},
		},
		{
			"strandPreserving",
			"chr2\t1\tt\t4\t,.aG\tIIII",
			pileup.ParseOpts{KeepStrand: true},
			"chr2", 0, 'T', 4,
			"tTaG",
			[]byte{40, 40, 40, 40},
		},
		{
			"insertion",
			"seq1\t7\tA\t2\tA+2AGA\t5I",
			pileup.DefaultParseOpts,
			"seq1", 6, 'A', 2,
			"AA",
			[]byte{20, 40},
		},
		{
			"deletionPlaceholder",
			"seq1\t8\tC\t3\tA*A\t5+I",
			pileup.DefaultParseOpts,
			"seq1", 7, 'C', 3,
			"AA",
			[]byte{20, 40},
		},
		{
			// Example from the samtools pileup documentation.
			"insertionsWithSegmentEnd",
			"seq2\t156\tA\t11\t.$......+2AG.+2AG.+2AGGG\t<975;:<<<<<",
			pileup.DefaultParseOpts,
			"seq2", 155, 'A', 11,
			"AAAAAAAAAGG",
			[]byte{27, 24, 22, 20, 26, 25, 27, 27, 27, 27, 27},
		},
		{
			// Example from the samtools pileup documentation.
			"deletionsWithSegmentStart",
			"seq3\t200\tA\t20\t,,,,,..,.-4CACC.-4CACC....,.,,.^~.\t==<<<<<<<<<<<::<;2<<",
			pileup.DefaultParseOpts,
			"seq3", 199, 'A', 20,
			strings.Repeat("A", 20),
			[]byte{28, 28, 27, 27, 27, 27, 27, 27, 27, 27, 27, 27, 27, 25, 25, 27, 26, 17, 27, 27},
		},
		{
			"placeholderReference",
			"chr1\t10\tN\t2\tAc\tII",
			pileup.DefaultParseOpts,
			"chr1", 9, 'N', 2,
			"AC",
			[]byte{40, 40},
		},
		{
			"zeroCoverage",
			"chr1\t11\tG\t0\t*\t*",
			pileup.DefaultParseOpts,
			"chr1", 10, 'G', 0,
			"",
			[]byte{},
		},
		{
			"zeroCoverageEmptyFields",
			"chr1\t12\tG\t0\t\t",
			pileup.DefaultParseOpts,
			"chr1", 11, 'G', 0,
			"",
			[]byte{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := pileup.ParseColumn(tt.line, tt.opts)
			assert.NoError(t, err)
			expect.EQ(t, c.Chrom, tt.chrom)
			expect.EQ(t, c.Coord, tt.coord)
			expect.EQ(t, c.RefBase, tt.ref)
			expect.EQ(t, c.Coverage, tt.coverage)
			expect.EQ(t, string(c.Bases), tt.bases)
			require.Equal(t, tt.quals, c.Quals)
			expect.EQ(t, len(c.Bases), len(c.Quals))
			expect.EQ(t, c.RawBases, "")
			expect.EQ(t, c.RawQuals, "")
		})
	}
}

func TestParseColumnKeepRaw(t *testing.T) {
	c, err := pileup.ParseColumn("seq1\t8\tC\t3\t^~A*$A\t5+I", pileup.ParseOpts{KeepRaw: true})
	assert.NoError(t, err)
	expect.EQ(t, c.RawBases, "^~A*$A")
	expect.EQ(t, c.RawQuals, "5+I")
	expect.EQ(t, string(c.Bases), "AA")
}

func TestParseColumnErrors(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		substr string
	}{
		{"tooFewFields", "seq1\t100\tA\t3\t...", "expected 6"},
		{"tooManyFields", "seq1\t100\tA\t3\t...\t+++\t]]]", "expected 6"},
		{"badCoord", "seq1\tx\tA\t3\t...\t+++", "invalid position"},
		{"zeroCoord", "seq1\t0\tA\t3\t...\t+++", "invalid position"},
		{"badRef", "seq1\t100\tAC\t3\t...\t+++", "seq1:100"},
		{"badCoverage", "seq1\t100\tA\tthree\t...\t+++", "invalid coverage"},
		{"tooFewQuals", "seq1\t100\tA\t3\t...\t++", "seq1:100"},
		{"tooManyQuals", "seq1\t100\tA\t3\t.+1A.\t+++", "seq1:100"},
		{"truncatedIndel", "seq1\t100\tA\t1\t.+3AC\t+", "seq1:100"},
		{"badQual", "seq1\t100\tA\t1\t.\t\x1f", "seq1:100"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := pileup.ParseColumn(tt.line, pileup.DefaultParseOpts)
			assert.True(t, err != nil)
			expect.True(t, pileup.IsFormatError(err), "%v", err)
			assert.HasSubstr(t, err.Error(), tt.substr)
		})
	}
}

// Every well-formed line must produce equal-length bases and quals,
// regardless of where markup appears.
func TestParseColumnLengthInvariant(t *testing.T) {
	readBases := []string{
		".",
		",",
		"^!.",
		".$",
		"*",
		"a",
		"N",
		".+1A",
		",-2tt",
		"^]*$",
	}
	// Build every two- and three-read combination.
	var combos []string
	for _, a := range readBases {
		for _, b := range readBases {
			combos = append(combos, a+b)
			for _, c := range readBases {
				combos = append(combos, a+b+c)
			}
		}
	}
	for _, keepStrand := range []bool{false, true} {
		for _, bases := range combos {
			nReads := strings.Count(bases, ".") + strings.Count(bases, ",") +
				strings.Count(bases, "*") + strings.Count(bases, "a") + strings.Count(bases, "N")
			// Each read contributes exactly one of the characters counted above,
			// except the mapping-quality bytes which are never those characters.
			line := "chr1\t1000\tG\t" + "3\t" + bases + "\t" + strings.Repeat("5", nReads)
			c, err := pileup.ParseColumn(line, pileup.ParseOpts{KeepStrand: keepStrand})
			assert.NoError(t, err, "line %q", line)
			expect.EQ(t, len(c.Bases), len(c.Quals), "line %q", line)
		}
	}
}
