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
	"testing"

	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/assert"
)

func TestStripSegmentMarkers(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"...", "..."},
		{".$,$", ".,"},
		{"^~.^!,", ".,"},
		// The mapping quality may itself look like markup.
		{"^+.^-,^$A^1c", ".,Ac"},
		{"^^.", "."},
		{".$^", "."},
		{"", ""},
	}
	for _, tt := range tests {
		got := StripSegmentMarkers([]byte(tt.in))
		expect.EQ(t, string(got), tt.want, "input %q", tt.in)
	}
}

func TestResolveMatches(t *testing.T) {
	tests := []struct {
		in         string
		ref        byte
		keepStrand bool
		want       string
	}{
		{",.aG", 'T', false, "TTAG"},
		{",.aG", 'T', true, "tTaG"},
		{",.aG", 't', true, "tTaG"},
		{".,+2ag*", 'C', false, "CC+2AG*"},
		{".,+2ag*", 'C', true, "Cc+2ag*"},
		{"..", 'N', false, "NN"},
	}
	for _, tt := range tests {
		got := ResolveMatches([]byte(tt.in), tt.ref, tt.keepStrand)
		expect.EQ(t, string(got), tt.want, "input %q ref %c keepStrand %v", tt.in, tt.ref, tt.keepStrand)
	}
}

func TestExciseIndels(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"A+2AGA", "AA"},
		{"AAAAAAA+2AGA+2AGA+2AGGG", "AAAAAAAAAGG"},
		{"C-4CACCC-4CACCC", "CCC"},
		{"A+12ACGTACGTACGTC", "AC"},
		{"+1A-1C", ""},
		{"A+1a+1cG", "AG"},
		// A sign left dangling in front of a digit run by an excision.
		{"A+-1C2GG", "A"},
		{"A+", "A+"},
		{"A-", "A-"},
		{"A*A", "A*A"},
	}
	for _, tt := range tests {
		got, err := ExciseIndels([]byte(tt.in))
		expect.NoError(t, err)
		expect.EQ(t, string(got), tt.want, "input %q", tt.in)
	}

	for _, in := range []string{"A+5AC", "A-99999999999999999999"} {
		_, err := ExciseIndels([]byte(in))
		expect.True(t, err != nil, "input %q", in)
		expect.True(t, IsFormatError(err))
	}
}

func TestDropDeletions(t *testing.T) {
	bases, quals := DropDeletions([]byte("A*A"), []byte{10, 20, 30})
	expect.EQ(t, string(bases), "AA")
	expect.EQ(t, quals, []byte{10, 30})

	bases, quals = DropDeletions([]byte("**"), []byte{1, 2})
	expect.EQ(t, len(bases), 0)
	expect.EQ(t, len(quals), 0)

	bases, quals = DropDeletions([]byte("*C*G*"), []byte{1, 2, 3, 4, 5})
	assert.Equal(t, "CG", string(bases))
	assert.Equal(t, []byte{2, 4}, quals)
}

func TestDecodeQuals(t *testing.T) {
	quals, err := DecodeQuals("+++")
	expect.NoError(t, err)
	expect.EQ(t, quals, []byte{10, 10, 10})

	quals, err = DecodeQuals("!I~")
	expect.NoError(t, err)
	expect.EQ(t, quals, []byte{0, 40, 93})

	quals, err = DecodeQuals("")
	expect.NoError(t, err)
	expect.EQ(t, len(quals), 0)

	_, err = DecodeQuals("I I")
	expect.True(t, IsFormatError(err))
}

func TestASCIIToEnum(t *testing.T) {
	tests := []struct {
		c      byte
		base   byte
		strand StrandType
	}{
		{'A', BaseA, StrandFwd},
		{'c', BaseC, StrandRev},
		{'G', BaseG, StrandFwd},
		{'t', BaseT, StrandRev},
		{'N', BaseX, StrandFwd},
		{'n', BaseX, StrandRev},
		{'*', BaseX, StrandNone},
	}
	for _, tt := range tests {
		base, strand := ASCIIToEnum(tt.c)
		expect.EQ(t, base, tt.base, "char %c", tt.c)
		expect.EQ(t, strand, tt.strand, "char %c", tt.c)
	}
}
