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

/*
bio-mpileup runs "samtools mpileup" over a region of a BAM file, one
subprocess per window of positions, decodes the pileup text into per-position
bases and Phred qualities, filters low-quality and ambiguous bases, and writes
the result as TSV or as per-strand base counts.

It can also decode existing pileup text with -pileup-in instead of running
samtools.

Sample usage:
bio-mpileup \
    -region chr1:1000000-2000000 \
    -ref ref.fa \
    -out chr1.pileup.tsv \
    my.bam

bio-mpileup \
    -bed my-regions.bed \
    -format basestrand-rio \
    -out my.basestrand.rio \
    my.bam
*/
package main
