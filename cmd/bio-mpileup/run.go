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
	"context"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/hts/bgzf"
	"github.com/grailbio/mpileup/interval"
	"github.com/grailbio/mpileup/pileup"
	"github.com/grailbio/mpileup/samtools"
)

type runOpts struct {
	region       string
	bedPath      string
	refPath      string
	samtoolsPath string
	mpileupArgs  []string
	window       int
	keepStrand   bool
	minBaseQual  int
	allowedBases string
	format       string
	outPath      string
	pileupIn     string
}

func (opts *runOpts) validate(nArgs int) error {
	switch opts.format {
	case "tsv", "basestrand-tsv":
	case "tsv-bgz", "basestrand-rio":
		if opts.outPath == "" {
			return fmt.Errorf("-format=%s requires -out", opts.format)
		}
	default:
		return fmt.Errorf("unknown -format %q", opts.format)
	}
	if opts.pileupIn != "" {
		if nArgs != 0 {
			return fmt.Errorf("no positional arguments expected with -pileup-in")
		}
		if opts.region != "" || opts.bedPath != "" {
			return fmt.Errorf("-region and -bed cannot be used with -pileup-in")
		}
		return nil
	}
	if nArgs != 1 {
		return fmt.Errorf("expected exactly one positional argument (bampath), got %d", nArgs)
	}
	if opts.region != "" && opts.bedPath != "" {
		return fmt.Errorf("at most one of -region and -bed may be set")
	}
	if opts.window <= 0 {
		return fmt.Errorf("-window must be positive, got %d", opts.window)
	}
	return nil
}

// basestrand reports whether the output format counts bases per strand.
func (opts *runOpts) basestrand() bool {
	return strings.HasPrefix(opts.format, "basestrand")
}

func (opts *runOpts) parseOpts() pileup.ParseOpts {
	return pileup.ParseOpts{KeepStrand: opts.keepStrand || opts.basestrand()}
}

// filter applies the -min-base-qual and -allowed-bases filters to c.
func (opts *runOpts) filter(c *pileup.Column) {
	if opts.minBaseQual >= 0 {
		minQual := opts.minBaseQual
		if minQual > 255 {
			minQual = 255
		}
		c.FilterLowQual(byte(minQual))
	}
	if opts.allowedBases != "" {
		allowed := opts.allowedBases
		if opts.parseOpts().KeepStrand {
			allowed = strings.ToUpper(allowed) + strings.ToLower(allowed)
		}
		c.FilterAmbiguous(allowed)
	}
}

// mpileupRequests returns one MPileupOpts per contig range to process, in
// order.
func (opts *runOpts) mpileupRequests(ctx context.Context, tool *samtools.Tool, bamPath string) ([]samtools.MPileupOpts, error) {
	base := samtools.MPileupOpts{
		BAMPath:    bamPath,
		RefPath:    opts.refPath,
		ExtraArgs:  opts.mpileupArgs,
		WindowSize: interval.PosType(opts.window),
		Parse:      opts.parseOpts(),
	}
	if opts.region != "" {
		e, err := interval.ParseRegionString(opts.region)
		if err != nil {
			return nil, err
		}
		req := base
		req.Seq = e.ChrName
		req.Start1 = e.Start0 + 1
		if e.Bounded() {
			req.End = e.End
		}
		return []samtools.MPileupOpts{req}, nil
	}
	header, err := tool.Header(ctx, bamPath)
	if err != nil {
		return nil, err
	}
	var reqs []samtools.MPileupOpts
	if opts.bedPath == "" {
		for _, seq := range header.SeqNames() {
			if _, ok := header.SeqLen(seq); !ok {
				log.Printf("bio-mpileup: skipping %s, which has no length in the header of %s", seq, bamPath)
				continue
			}
			req := base
			req.Seq = seq
			reqs = append(reqs, req)
		}
		return reqs, nil
	}
	samHeader, err := header.SAM()
	if err != nil {
		return nil, err
	}
	refLens := make(map[string]interval.PosType)
	for _, ref := range samHeader.Refs() {
		refLens[ref.Name()] = interval.PosType(ref.Len())
	}
	entries, err := interval.ReadBEDEntriesFromPath(ctx, opts.bedPath, interval.NewBEDOpts{})
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		refLen, ok := refLens[e.ChrName]
		if !ok {
			return nil, fmt.Errorf("%s: contig %s not in the header of %s", opts.bedPath, e.ChrName, bamPath)
		}
		if e.End > refLen {
			e.End = refLen
		}
		if e.Start0 >= e.End {
			continue
		}
		req := base
		req.Seq = e.ChrName
		req.Start1 = e.Start0 + 1
		req.End = e.End
		reqs = append(reqs, req)
	}
	return reqs, nil
}

// drain filters every column of it and passes it to fn.  It closes it.
func (opts *runOpts) drain(it samtools.Iterator, fn func(*pileup.Column) error) (err error) {
	defer func() {
		if e := it.Close(); e != nil && err == nil {
			err = e
		}
	}()
	for it.Scan() {
		c := it.Column()
		opts.filter(c)
		if err = fn(c); err != nil {
			return
		}
	}
	return it.Err()
}

func (opts *runOpts) forEachColumn(ctx context.Context, args []string, fn func(*pileup.Column) error) error {
	if opts.pileupIn != "" {
		sc, err := pileup.Open(ctx, opts.pileupIn, opts.parseOpts())
		if err != nil {
			return err
		}
		return opts.drain(sc, fn)
	}
	tool, err := samtools.New(opts.samtoolsPath)
	if err != nil {
		return err
	}
	reqs, err := opts.mpileupRequests(ctx, tool, args[0])
	if err != nil {
		return err
	}
	for _, req := range reqs {
		log.Debug.Printf("bio-mpileup: %s:%d-%d", req.Seq, req.Start1, req.End)
		if err := opts.drain(tool.MPileup(ctx, req), fn); err != nil {
			return err
		}
	}
	return nil
}

// columnSink consumes filtered columns and renders them in one output format.
type columnSink interface {
	add(c *pileup.Column) error
	finish() error
}

type tsvSink struct {
	w *pileup.ColumnWriter
}

func (s *tsvSink) add(c *pileup.Column) error { return s.w.Write(c) }
func (s *tsvSink) finish() error              { return s.w.Flush() }

type basestrandSink struct {
	counter *pileup.BaseStrandCounter
	out     io.Writer
	rio     bool
}

func (s *basestrandSink) add(c *pileup.Column) error {
	s.counter.Add(c)
	return nil
}

func (s *basestrandSink) finish() error {
	if s.rio {
		return pileup.WriteBaseStrandsRio(s.counter.Piles(), s.counter.RefNames(), s.out)
	}
	return pileup.WriteBaseStrandToTSV(s.counter.Piles(), s.counter.RefNames(), s.out)
}

func run(ctx context.Context, opts runOpts, args []string, stdout io.Writer) (err error) {
	if err = opts.validate(len(args)); err != nil {
		return
	}
	out := stdout
	if opts.outPath != "" {
		var dst file.File
		if dst, err = file.Create(ctx, opts.outPath); err != nil {
			return
		}
		defer file.CloseAndReport(ctx, dst, &err)
		out = dst.Writer(ctx)
	}

	var sink columnSink
	switch opts.format {
	case "tsv":
		sink = &tsvSink{w: pileup.NewColumnWriter(out)}
	case "tsv-bgz":
		bgzfWriter := bgzf.NewWriter(out, runtime.NumCPU())
		defer func() {
			if e := bgzfWriter.Close(); e != nil && err == nil {
				err = e
			}
		}()
		sink = &tsvSink{w: pileup.NewColumnWriter(bgzfWriter)}
	case "basestrand-tsv", "basestrand-rio":
		sink = &basestrandSink{
			counter: pileup.NewBaseStrandCounter(),
			out:     out,
			rio:     opts.format == "basestrand-rio",
		}
	}

	var nColumns int
	if err = opts.forEachColumn(ctx, args, func(c *pileup.Column) error {
		nColumns++
		return sink.add(c)
	}); err != nil {
		return
	}
	if err = sink.finish(); err != nil {
		return
	}
	if opts.outPath != "" {
		log.Printf("bio-mpileup: wrote %d columns to %s", nColumns, opts.outPath)
	}
	return
}
