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

// Illumina 1.5+ flags unreliable base calls with Q2 or lower, and GATK
// historically did not recalibrate bases below Q5, so anything under Q3 is
// dropped by default.
const DefaultMinQual = 3

// DefaultAllowedBases is the set of bases kept by FilterAmbiguous by default.
const DefaultAllowedBases = "ACGT"

// FilterLowQual removes every base whose quality is below minQual, along with
// its quality value.
func (c *Column) FilterLowQual(minQual byte) {
	c.filter(func(base, qual byte) bool { return qual >= minQual })
}

// FilterAmbiguous removes every base not in allowed, along with its quality
// value.  Membership is case-sensitive, so a column parsed with
// ParseOpts.KeepStrand loses its reverse-strand bases unless allowed also
// lists the lowercase letters.
func (c *Column) FilterAmbiguous(allowed string) {
	var keep [256]bool
	for i := 0; i < len(allowed); i++ {
		keep[allowed[i]] = true
	}
	c.filter(func(base, qual byte) bool { return keep[base] })
}

// filter compacts Bases and Quals in place, in lock-step.
func (c *Column) filter(keep func(base, qual byte) bool) {
	n := 0
	for i, base := range c.Bases {
		if keep(base, c.Quals[i]) {
			c.Bases[n] = base
			c.Quals[n] = c.Quals[i]
			n++
		}
	}
	c.Bases = c.Bases[:n]
	c.Quals = c.Quals[:n]
}
