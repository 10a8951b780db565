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
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/grailbio/base/recordio"
	"github.com/grailbio/base/recordio/recordiozstd"
	"github.com/grailbio/base/tsv"
)

const (
	refNamesHeader = "RefNames"
	trailerVersion = 1

	// Marshalled size of a BaseStrandPile: RefID, Pos, and 8 counts.
	baseStrandRecordSize = 4 * (2 + NBase*2)
)

func init() {
	recordiozstd.Init()
}

// BaseStrandPile is the per-(base, strand) count summary of one Column.
//
// - Pos is zero-based.
// - In Counts[][], base is the major dimension, with BaseA=0, C=1, G=2, T=3.
//   Strand is the minor dimension, with forward=0 and reverse=1.
type BaseStrandPile struct {
	RefID  uint32
	Pos    uint32
	Counts [NBase][2]uint32
}

// BaseStrandCounter converts Columns to BaseStrandPiles, assigning reference
// IDs in order of first appearance.
//
// Strand comes from base case, so the columns should be parsed with
// ParseOpts.KeepStrand; otherwise every base is counted as forward.  Bases
// other than A/C/G/T are not counted.
type BaseStrandCounter struct {
	refIDs   map[string]uint32
	refNames []string
	piles    []BaseStrandPile
}

// NewBaseStrandCounter creates an empty BaseStrandCounter.
func NewBaseStrandCounter() *BaseStrandCounter {
	return &BaseStrandCounter{refIDs: make(map[string]uint32)}
}

// Add tallies c and appends the result.
func (bc *BaseStrandCounter) Add(c *Column) {
	refID, ok := bc.refIDs[c.Chrom]
	if !ok {
		refID = uint32(len(bc.refNames))
		bc.refIDs[c.Chrom] = refID
		bc.refNames = append(bc.refNames, c.Chrom)
	}
	pile := BaseStrandPile{RefID: refID, Pos: uint32(c.Coord)}
	for _, b := range c.Bases {
		base, strand := ASCIIToEnum(b)
		if base == BaseX {
			continue
		}
		if strand == StrandRev {
			pile.Counts[base][1]++
		} else {
			pile.Counts[base][0]++
		}
	}
	bc.piles = append(bc.piles, pile)
}

// Piles returns the piles added so far, in order.
func (bc *BaseStrandCounter) Piles() []BaseStrandPile {
	return bc.piles
}

// RefNames returns the reference names indexed by BaseStrandPile.RefID.
func (bc *BaseStrandCounter) RefNames() []string {
	return bc.refNames
}

// WriteBaseStrandsRio writes the given BaseStrand-pileup entries to the given
// writer, using zstd-compressed recordio.
func WriteBaseStrandsRio(piles []BaseStrandPile, refNames []string, out io.Writer) error {
	recordWriter := recordio.NewWriter(out, recordio.WriterOpts{
		Marshal:      marshalBaseStrand,
		Transformers: []string{recordiozstd.Name},
	})
	recordWriter.AddHeader(refNamesHeader, strings.Join(refNames, "\000"))
	recordWriter.AddHeader(recordio.KeyTrailer, true)
	for i := range piles {
		recordWriter.Append(&piles[i])
	}
	recordWriter.SetTrailer(baseStrandsRioTrailer(len(piles)))
	return recordWriter.Finish()
}

func baseStrandsRioTrailer(numPiles int) []byte {
	var buffer bytes.Buffer
	// Writes to a bytes.Buffer can't fail.
	_ = binary.Write(&buffer, binary.LittleEndian, int64(trailerVersion))
	_ = binary.Write(&buffer, binary.LittleEndian, int64(numPiles))
	return buffer.Bytes()
}

func parseBaseStrandsTrailer(trailer []byte) (int64, error) {
	r := bytes.NewReader(trailer)
	var version, numPiles int64
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return 0, err
	}
	if version != trailerVersion {
		return 0, fmt.Errorf("unrecognized trailer version: got %d, want %d", version, trailerVersion)
	}
	if err := binary.Read(r, binary.LittleEndian, &numPiles); err != nil {
		return 0, err
	}
	return numPiles, nil
}

func marshalBaseStrand(scratch []byte, p interface{}) ([]byte, error) {
	t := scratch
	if cap(t) < baseStrandRecordSize {
		t = make([]byte, baseStrandRecordSize)
	}
	t = t[:baseStrandRecordSize]
	pile := p.(*BaseStrandPile)
	binary.LittleEndian.PutUint32(t[0:4], pile.RefID)
	binary.LittleEndian.PutUint32(t[4:8], pile.Pos)
	off := 8
	for base := 0; base < NBase; base++ {
		for strand := 0; strand < 2; strand++ {
			binary.LittleEndian.PutUint32(t[off:off+4], pile.Counts[base][strand])
			off += 4
		}
	}
	return t, nil
}

func unmarshalBaseStrand(in []byte) (interface{}, error) {
	if len(in) != baseStrandRecordSize {
		return nil, fmt.Errorf("basestrand record has %d bytes, want %d", len(in), baseStrandRecordSize)
	}
	pile := &BaseStrandPile{
		RefID: binary.LittleEndian.Uint32(in[0:4]),
		Pos:   binary.LittleEndian.Uint32(in[4:8]),
	}
	off := 8
	for base := 0; base < NBase; base++ {
		for strand := 0; strand < 2; strand++ {
			pile.Counts[base][strand] = binary.LittleEndian.Uint32(in[off : off+4])
			off += 4
		}
	}
	return pile, nil
}

// ReadBaseStrandsRio reads BaseStrand piles from a recordio file written by
// WriteBaseStrandsRio.
func ReadBaseStrandsRio(rs io.ReadSeeker) (piles []BaseStrandPile, refNames []string, err error) {
	scanner := recordio.NewScanner(rs, recordio.ScannerOpts{
		Unmarshal: unmarshalBaseStrand,
	})
	if len(scanner.Trailer()) != 0 {
		var numPiles int64
		if numPiles, err = parseBaseStrandsTrailer(scanner.Trailer()); err != nil {
			return
		}
		piles = make([]BaseStrandPile, 0, numPiles)
	}
	for _, kv := range scanner.Header() {
		// Cannot return an error on unrecognized key since recordio can write
		// its own.
		if kv.Key == refNamesHeader {
			if packed := kv.Value.(string); packed != "" {
				refNames = strings.Split(packed, "\000")
			}
		}
	}
	for scanner.Scan() {
		piles = append(piles, *scanner.Get().(*BaseStrandPile))
	}
	err = scanner.Err()
	return
}

// WriteBaseStrandToTSV writes piles as a TSV with a 1-based POS column and
// one count column per (base, strand).
func WriteBaseStrandToTSV(piles []BaseStrandPile, refNames []string, w io.Writer) (err error) {
	outTSV := tsv.NewWriter(w)
	outTSV.WriteString("#CHROM\tPOS\tA+\tA-\tC+\tC-\tG+\tG-\tT+\tT-")
	if err = outTSV.EndLine(); err != nil {
		return
	}
	for _, pile := range piles {
		if int(pile.RefID) >= len(refNames) {
			return fmt.Errorf("WriteBaseStrandToTSV: refID %d out of range (%d reference names)", pile.RefID, len(refNames))
		}
		outTSV.WriteString(refNames[pile.RefID])
		outTSV.WriteUint32(pile.Pos + 1)
		for base := 0; base < NBase; base++ {
			outTSV.WriteUint32(pile.Counts[base][0])
			outTSV.WriteUint32(pile.Counts[base][1])
		}
		if err = outTSV.EndLine(); err != nil {
			return
		}
	}
	return outTSV.Flush()
}

// BaseStrandTsvRow represents a single row written by WriteBaseStrandToTSV.
type BaseStrandTsvRow struct {
	Chr  string `tsv:"#CHROM"` // Chromosome
	Pos  int64  `tsv:"POS"`    // 1-based position in chromosome
	FwdA int64  `tsv:"A+"`     // A count on the forward strand
	RevA int64  `tsv:"A-"`     // A count on the reverse strand
	FwdC int64  `tsv:"C+"`     // C count on the forward strand
	RevC int64  `tsv:"C-"`     // C count on the reverse strand
	FwdG int64  `tsv:"G+"`     // G count on the forward strand
	RevG int64  `tsv:"G-"`     // G count on the reverse strand
	FwdT int64  `tsv:"T+"`     // T count on the forward strand
	RevT int64  `tsv:"T-"`     // T count on the reverse strand
}

// ReadBaseStrandTsv reads a file written by WriteBaseStrandToTSV.
func ReadBaseStrandTsv(r io.Reader) ([]BaseStrandTsvRow, error) {
	tsvReader := tsv.NewReader(r)
	tsvReader.Comment = '#'

	rows := make([]BaseStrandTsvRow, 0)
	for {
		var row BaseStrandTsvRow
		if err := tsvReader.Read(&row); err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}
