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
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/mpileup/pileup"
	"github.com/grailbio/mpileup/samtools"
)

var (
	region       = flag.String("region", "", "Restrict the pileup to the specified region. Format as <contig ID>:<1-based first pos>-<last pos>, <contig ID>:<1-based pos>, or just <contig ID>; at most one of -region and -bed may be set, and without either every contig in the BAM header is processed")
	bedPath      = flag.String("bed", "", "Input BED path; the pileup is restricted to its intervals")
	refPath      = flag.String("ref", "", "Reference FASTA path, passed to samtools mpileup -f")
	samtoolsPath = flag.String("samtools", samtools.DefaultBinary, "samtools executable")
	mpileupArgs  = flag.String("mpileup-args", "", "Extra whitespace-separated arguments for samtools mpileup; may not include -r, -l, or -f when -ref is set")
	window       = flag.Int("window", samtools.DefaultWindowSize, "Number of positions per samtools mpileup invocation")
	keepStrand   = flag.Bool("keep-strand", false, "Report reverse-strand bases in lowercase")
	minBaseQual  = flag.Int("min-base-qual", pileup.DefaultMinQual, "Bases with quality below this level are dropped; negative disables the filter")
	allowedBases = flag.String("allowed-bases", pileup.DefaultAllowedBases, "Bases outside this set are dropped; empty disables the filter")
	format       = flag.String("format", "tsv", "Output format; 'tsv', 'tsv-bgz', 'basestrand-tsv', and 'basestrand-rio' supported")
	outPath      = flag.String("out", "", "Output path; default is stdout for the text formats")
	pileupIn     = flag.String("pileup-in", "", "Decode this samtools pileup text file (optionally gzipped) instead of running samtools")
)

func bioMPileupUsage() {
	fmt.Printf("Usage: %s [OPTIONS] bampath\n", os.Args[0])
	fmt.Printf("       %s [OPTIONS] -pileup-in pileup.txt\n", os.Args[0])
	fmt.Printf("Other options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = bioMPileupUsage
	shutdown := grail.Init()
	defer shutdown()

	opts := runOpts{
		region:       *region,
		bedPath:      *bedPath,
		refPath:      *refPath,
		samtoolsPath: *samtoolsPath,
		mpileupArgs:  strings.Fields(*mpileupArgs),
		window:       *window,
		keepStrand:   *keepStrand,
		minBaseQual:  *minBaseQual,
		allowedBases: *allowedBases,
		format:       *format,
		outPath:      *outPath,
		pileupIn:     *pileupIn,
	}
	ctx := vcontext.Background()
	if err := run(ctx, opts, flag.Args(), os.Stdout); err != nil {
		log.Fatalf("bio-mpileup: %v", err)
	}
	log.Debug.Printf("exiting")
}
