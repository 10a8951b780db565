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
package samtools

import "strings"

// Stderr lines samtools prints during normal operation.
var expectedStderr = map[string]bool{
	"":                                     true,
	"[mpileup] 1 samples in 1 input files": true,
	"[fai_load] build FASTA index.":        true,
}

// unexpectedStderrLines returns the lines of stderr that samtools does not
// print during normal operation, in order.
func unexpectedStderrLines(stderr []byte) []string {
	var lines []string
	for _, line := range strings.Split(string(stderr), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if !expectedStderr[line] {
			lines = append(lines, line)
		}
	}
	return lines
}
