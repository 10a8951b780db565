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
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/mpileup/interval"
	"github.com/grailbio/mpileup/pileup"
)

const (
	// DefaultWindowSize is the number of positions covered by one mpileup
	// invocation.
	DefaultWindowSize = 1000
	// maxDepth is passed to mpileup -d; the samtools default of 8000 silently
	// drops reads in deep regions.
	maxDepth = 1000000
)

// MPileupOpts describes one MPileup request.
type MPileupOpts struct {
	// BAMPath is the coordinate-sorted, indexed input.
	BAMPath string
	// Seq must name an @SQ record of the BAM header.
	Seq string
	// RefPath is an optional FASTA reference, passed with -f.
	RefPath string
	// Start1 and End are the 1-based, inclusive bounds of the range.  Zero
	// means the start or end of the sequence.
	Start1, End interval.PosType
	// ExtraArgs are appended to every mpileup command line.  They may not
	// contain -r/--region or -l/--positions, nor -f/--fasta-ref when RefPath
	// is set.
	ExtraArgs []string
	// WindowSize is the number of positions per subprocess.  Zero means
	// DefaultWindowSize.
	WindowSize interval.PosType
	// Parse controls how each pileup line is decoded.
	Parse pileup.ParseOpts
}

// Iterator yields pileup columns in coordinate order.  It is lazy, forward-only
// and single-use.
type Iterator interface {
	// Scan advances to the next column.  It returns false at the end of the
	// range or on error.
	//
	// REQUIRES: Close has not been called.
	Scan() bool
	// Column returns the current column.  It must only be called after Scan
	// returns true.
	Column() *pileup.Column
	// Err returns the error encountered during iteration, or nil.
	Err() error
	// Close must be called exactly once. It returns the value of Err().
	Close() error
}

type errorIterator struct {
	err error
}

func (i *errorIterator) Scan() bool             { return false }
func (i *errorIterator) Column() *pileup.Column { panic("shall not be called") }
func (i *errorIterator) Err() error             { return i.err }
func (i *errorIterator) Close() error           { return i.err }

// NewErrorIterator creates an Iterator that yields no column and returns err
// in Err and Close.
func NewErrorIterator(err error) Iterator {
	return &errorIterator{err: err}
}

type windowIterator struct {
	ctx     context.Context
	tool    *Tool
	opts    MPileupOpts
	windows []interval.Entry
	next    int

	window interval.Entry
	sc     *pileup.Scanner
	col    *pileup.Column
	err    error
	closed bool
}

// MPileup runs "samtools mpileup" over [opts.Start1, opts.End] of opts.Seq,
// one subprocess per window, and returns the parsed columns.
//
// The request is validated against the BAM header before any mpileup
// subprocess runs; validation failures satisfy IsConfigError.  A failed
// samtools run is reported as a *CommandError, and malformed output as an
// error satisfying pileup.IsFormatError.
func (t *Tool) MPileup(ctx context.Context, opts MPileupOpts) Iterator {
	windows, err := t.prepare(ctx, &opts)
	if err != nil {
		return NewErrorIterator(err)
	}
	return &windowIterator{ctx: ctx, tool: t, opts: opts, windows: windows}
}

// PileupColumns is MPileup with default options and no extra mpileup
// arguments.  refPath may be empty, and zero start1/end select the whole
// sequence.
func (t *Tool) PileupColumns(ctx context.Context, bamPath, seq, refPath string, start1, end interval.PosType) Iterator {
	return t.MPileup(ctx, MPileupOpts{
		BAMPath: bamPath,
		Seq:     seq,
		RefPath: refPath,
		Start1:  start1,
		End:     end,
	})
}

// prepare validates opts, fills in defaults, and returns the windows to run.
func (t *Tool) prepare(ctx context.Context, opts *MPileupOpts) ([]interval.Entry, error) {
	if opts.WindowSize == 0 {
		opts.WindowSize = DefaultWindowSize
	}
	if opts.WindowSize < 0 {
		return nil, configError(fmt.Sprintf("samtools.MPileup: invalid window size %d", opts.WindowSize))
	}
	if opts.Start1 < 0 || opts.End < 0 {
		return nil, configError(fmt.Sprintf("samtools.MPileup: invalid range %d-%d", opts.Start1, opts.End))
	}
	if err := checkExtraArgs(opts.ExtraArgs, opts.RefPath != ""); err != nil {
		return nil, err
	}
	header, err := t.Header(ctx, opts.BAMPath)
	if err != nil {
		return nil, err
	}
	if !header.HasSeq(opts.Seq) {
		return nil, configError(fmt.Sprintf("samtools.MPileup: sequence %q not found in header of %s", opts.Seq, opts.BAMPath))
	}
	seqLen, hasLen := header.SeqLen(opts.Seq)
	if opts.Start1 == 0 {
		opts.Start1 = 1
	}
	if opts.End == 0 {
		if !hasLen {
			return nil, configError(fmt.Sprintf("samtools.MPileup: no length for sequence %q in header of %s", opts.Seq, opts.BAMPath))
		}
		opts.End = seqLen
	}
	if opts.End < opts.Start1 {
		return nil, configError(fmt.Sprintf("samtools.MPileup: invalid range %s:%d-%d", opts.Seq, opts.Start1, opts.End))
	}
	if opts.RefPath != "" {
		if !hasLen {
			seqLen = -1
		}
		if err := checkReference(ctx, opts.RefPath, opts.Seq, seqLen); err != nil {
			return nil, err
		}
	}
	return interval.Split(interval.Entry{ChrName: opts.Seq, Start0: opts.Start1 - 1, End: opts.End}, opts.WindowSize), nil
}

// conflictingArgs lists the mpileup options MPileup sets itself.  The
// fasta-ref entry only applies when a reference was given.
var conflictingArgs = []struct {
	short, long string
	needsRef    bool
}{
	{"-r", "--region", false},
	{"-l", "--positions", false},
	{"-f", "--fasta-ref", true},
}

func checkExtraArgs(args []string, hasRef bool) error {
	for _, arg := range args {
		for _, c := range conflictingArgs {
			if c.needsRef && !hasRef {
				continue
			}
			if strings.HasPrefix(arg, c.short) && !strings.HasPrefix(arg, "--") ||
				arg == c.long || strings.HasPrefix(arg, c.long+"=") {
				return configError(fmt.Sprintf("samtools.MPileup: extra argument %q conflicts with %s/%s set by MPileup", arg, c.short, c.long))
			}
		}
	}
	return nil
}

func (it *windowIterator) mpileupArgs(w interval.Entry) []string {
	args := []string{"mpileup", "-d", strconv.Itoa(maxDepth), "-r", interval.RegionString(w)}
	if it.opts.RefPath != "" {
		args = append(args, "-f", it.opts.RefPath)
	}
	args = append(args, it.opts.ExtraArgs...)
	return append(args, it.opts.BAMPath)
}

// Scan implements Iterator.
func (it *windowIterator) Scan() bool {
	if it.closed {
		panic("windowIterator.Scan called after Close")
	}
	for it.err == nil {
		if it.sc != nil {
			if it.sc.Scan() {
				it.col = it.sc.Column()
				return true
			}
			if err := it.sc.Err(); err != nil {
				it.err = errors.E(errors.Invalid, "samtools.MPileup: "+interval.RegionString(it.window), err)
				return false
			}
			it.sc = nil
		}
		if it.next >= len(it.windows) {
			return false
		}
		it.window = it.windows[it.next]
		it.next++
		stdout, err := it.tool.run(it.ctx, it.mpileupArgs(it.window)...)
		if err != nil {
			it.err = err
			return false
		}
		it.sc = pileup.NewScanner(bytes.NewReader(stdout), it.opts.Parse)
	}
	return false
}

// Column implements Iterator.
func (it *windowIterator) Column() *pileup.Column {
	return it.col
}

// Err implements Iterator.
func (it *windowIterator) Err() error {
	return it.err
}

// Close implements Iterator.
func (it *windowIterator) Close() error {
	it.closed = true
	it.sc = nil
	return it.err
}
