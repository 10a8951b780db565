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
package interval

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strconv"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	"v.io/x/lib/vlog"
)

// NewBEDOpts defines behavior of the BED readers.
type NewBEDOpts struct {
	// OneBasedInput indicates the BED start coordinates are 1-based instead of
	// the standard 0-based.
	OneBasedInput bool
}

// ReadBEDEntries loads the first three columns of a BED, merging
// touching/overlapping intervals and eliminating empty ones in the process.
// Entries are returned in input order.  Within a contig the input must be
// sorted by start coordinate, and a contig may not be split across
// non-adjacent blocks of lines.  Header lines ("#", "track", "browser") are
// skipped.
func ReadBEDEntries(reader io.Reader, opts NewBEDOpts) (entries []Entry, err error) {
	var startSubtract int
	if opts.OneBasedInput {
		startSubtract++
	}
	seen := make(map[string]bool)
	r := bufio.NewReader(reader)
	var (
		lineIdx  int
		lastChr  string
		cur      Entry
		haveCur  bool
		totBases int64
	)
	flush := func() {
		if haveCur {
			entries = append(entries, cur)
			totBases += int64(cur.Len())
		}
		haveCur = false
	}
	for {
		line, e := r.ReadBytes('\n')
		if len(line) == 0 && e != nil {
			if e != io.EOF {
				err = e
			}
			break
		}
		lineIdx++
		fields := bytes.Fields(line)
		if len(fields) == 0 || fields[0][0] == '#' ||
			bytes.Equal(fields[0], []byte("track")) || bytes.Equal(fields[0], []byte("browser")) {
			continue
		}
		if len(fields) < 3 {
			err = errors.Errorf("interval.ReadBEDEntries: line %d has fewer tokens than expected", lineIdx)
			return
		}
		var start, end int
		if start, err = strconv.Atoi(string(fields[1])); err != nil {
			err = errors.Wrapf(err, "interval.ReadBEDEntries: line %d", lineIdx)
			return
		}
		start -= startSubtract
		if start < 0 {
			err = errors.Errorf("interval.ReadBEDEntries: negative start coordinate %s on line %d", fields[1], lineIdx)
			return
		}
		if end, err = strconv.Atoi(string(fields[2])); err != nil {
			err = errors.Wrapf(err, "interval.ReadBEDEntries: line %d", lineIdx)
			return
		}
		if end < start || end >= PosTypeMax {
			err = errors.Errorf("interval.ReadBEDEntries: invalid coordinate pair on line %d", lineIdx)
			return
		}
		chr := string(fields[0])
		if chr != lastChr {
			if seen[chr] {
				err = errors.Errorf("interval.ReadBEDEntries: unsorted input (split chromosome %v) on line %d", chr, lineIdx)
				return
			}
			seen[chr] = true
			lastChr = chr
		}
		if end == start {
			continue
		}
		next := Entry{ChrName: chr, Start0: PosType(start), End: PosType(end)}
		switch {
		case !haveCur || cur.ChrName != chr:
			flush()
			cur, haveCur = next, true
		case next.Start0 < cur.Start0:
			err = errors.Errorf("interval.ReadBEDEntries: unsorted input on line %d", lineIdx)
			return
		case next.Start0 > cur.End:
			flush()
			cur, haveCur = next, true
		default:
			if next.End > cur.End {
				cur.End = next.End
			}
		}
	}
	if err != nil {
		return nil, err
	}
	flush()
	vlog.VI(1).Infof("BED loaded: %d interval(s), %d base(s) covered", len(entries), totBases)
	return entries, nil
}

// ReadBEDEntriesFromPath is a wrapper for ReadBEDEntries that takes a path
// instead of an io.Reader.  Gzipped input is detected by file extension.
func ReadBEDEntriesFromPath(ctx context.Context, path string, opts NewBEDOpts) (entries []Entry, err error) {
	var infile file.File
	if infile, err = file.Open(ctx, path); err != nil {
		return
	}
	defer func() {
		if cerr := infile.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	reader := io.Reader(infile.Reader(ctx))
	switch fileio.DetermineType(path) {
	case fileio.Gzip:
		var gz *gzip.Reader
		if gz, err = gzip.NewReader(reader); err != nil {
			return
		}
		defer gz.Close()
		reader = gz
	}
	if entries, err = ReadBEDEntries(reader, opts); err != nil {
		err = errors.Wrap(err, path)
	}
	return
}
