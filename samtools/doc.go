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

// Package samtools drives the samtools binary as a subprocess: it reads BAM
// headers with "samtools view -H" and produces pileup columns for a sequence
// range by running "samtools mpileup" over fixed-size windows, parsing each
// window's output with package pileup.
//
// Every call starts a fresh subprocess whose output is buffered in memory;
// nothing is cached between calls.
//
// Example:
//   tool, err := samtools.New("")
//   ...
//   it := tool.MPileup(ctx, samtools.MPileupOpts{BAMPath: "in.bam", Seq: "chr1"})
//   for it.Scan() {
//     col := it.Column()
//     ...
//   }
//   if err := it.Close(); err != nil { ... }
package samtools
