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
	"io"

	"github.com/grailbio/base/tsv"
)

// ColumnWriter writes decoded pileup columns as TSV, one line per column:
//   #CHROM POS REF DP BASES QUALS
// POS is 1-based, DP is the coverage reported by samtools, and QUALS is a
// comma-separated list of Phred scores.  Empty BASES/QUALS are written as
// ".".
type ColumnWriter struct {
	w            *tsv.Writer
	headerNeeded bool
}

// NewColumnWriter creates a ColumnWriter.  The header line is written before
// the first column.
func NewColumnWriter(w io.Writer) *ColumnWriter {
	return &ColumnWriter{w: tsv.NewWriter(w), headerNeeded: true}
}

// writeChromPosRef appends the CHROM/POS/REF columns, converting pos from
// 0-based to 1-based.
func writeChromPosRef(tsvw *tsv.Writer, refName string, pos PosType, refChar byte) {
	tsvw.WriteString(refName)         // CHROM
	tsvw.WriteUint32(uint32(pos + 1)) // POS
	tsvw.WriteByte(refChar)
}

func (cw *ColumnWriter) writeHeader() error {
	cw.headerNeeded = false
	cw.w.WriteString("#CHROM\tPOS\tREF\tDP\tBASES\tQUALS")
	return cw.w.EndLine()
}

// Write appends one column.
func (cw *ColumnWriter) Write(c *Column) error {
	if cw.headerNeeded {
		if err := cw.writeHeader(); err != nil {
			return err
		}
	}
	writeChromPosRef(cw.w, c.Chrom, c.Coord, c.RefBase)
	cw.w.WriteUint32(uint32(c.Coverage))
	if len(c.Bases) == 0 {
		cw.w.WriteByte('.')
		cw.w.WriteByte('.')
		return cw.w.EndLine()
	}
	cw.w.WriteString(string(c.Bases))
	for _, q := range c.Quals {
		cw.w.WriteCsvUint32(uint32(q))
	}
	cw.w.EndCsv()
	return cw.w.EndLine()
}

// Flush writes any buffered data, including the header if no column was
// written.
func (cw *ColumnWriter) Flush() error {
	if cw.headerNeeded {
		if err := cw.writeHeader(); err != nil {
			return err
		}
	}
	return cw.w.Flush()
}
