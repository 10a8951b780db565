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

import (
	"context"
	"fmt"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/mpileup/interval"
	"v.io/x/lib/vlog"
)

// FaidxEntry is one line of a samtools FASTA index (.fai).
type FaidxEntry struct {
	Name      string
	Length    int64
	Offset    int64
	LineBases int64
	LineWidth int64
}

// ReadFaidx parses a .fai file.
func ReadFaidx(r io.Reader) ([]FaidxEntry, error) {
	tsvReader := tsv.NewReader(r)
	var entries []FaidxEntry
	for {
		var e FaidxEntry
		if err := tsvReader.Read(&e); err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.E(errors.Invalid, "samtools.ReadFaidx", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func readFaidxPath(ctx context.Context, path string) (entries []FaidxEntry, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if e := in.Close(ctx); e != nil && err == nil {
			err = e
		}
	}()
	entries, err = ReadFaidx(in.Reader(ctx))
	if err != nil {
		err = errors.E(err, path)
	}
	return
}

// checkReference verifies that refPath exists and, when refPath.fai exists,
// that it lists seq with length seqLen.  Without an index the check is
// skipped; samtools builds the index on first use.  A negative seqLen skips
// the length comparison.
func checkReference(ctx context.Context, refPath, seq string, seqLen interval.PosType) error {
	if _, err := file.Stat(ctx, refPath); err != nil {
		return errors.E(errors.Precondition, fmt.Sprintf("samtools: reference file %s does not exist", refPath), err)
	}
	faiPath := refPath + ".fai"
	if _, err := file.Stat(ctx, faiPath); err != nil {
		vlog.VI(1).Infof("%s: no index, skipping reference length check", faiPath)
		return nil
	}
	entries, err := readFaidxPath(ctx, faiPath)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.Name != seq {
			continue
		}
		if seqLen >= 0 && e.Length != int64(seqLen) {
			return configError(fmt.Sprintf("samtools: inconsistent lengths for contig %s (%d in BAM header, %d in %s)", seq, seqLen, e.Length, faiPath))
		}
		return nil
	}
	return configError(fmt.Sprintf("samtools: contig %s is in the BAM header but missing from %s", seq, faiPath))
}
