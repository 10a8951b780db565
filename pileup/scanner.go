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
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/klauspost/compress/gzip"
	pkgerrors "github.com/pkg/errors"
	"v.io/x/lib/vlog"
)

// Scanner reads samtools pileup text one line at a time.  Empty lines are
// skipped.  Unlike bufio.Scanner there is no limit on line length, which
// matters for very deep pileups.
//
// Example:
//   sc := pileup.NewScanner(r, pileup.DefaultParseOpts)
//   for sc.Scan() {
//     col := sc.Column()
//     ...
//   }
//   if err := sc.Err(); err != nil { ... }
type Scanner struct {
	r      *bufio.Reader
	opts   ParseOpts
	col    *Column
	lineNo int
	err    error
	done   bool
}

// NewScanner creates a Scanner that parses lines from r with the given
// options.
func NewScanner(r io.Reader, opts ParseOpts) *Scanner {
	return &Scanner{r: bufio.NewReaderSize(r, 64<<10), opts: opts}
}

// Scan advances to the next column.  It returns false at end of input or on
// error; Err distinguishes the two.
func (s *Scanner) Scan() bool {
	for !s.done {
		line, err := s.r.ReadString('\n')
		if err != nil {
			s.done = true
			if err != io.EOF {
				s.err = pkgerrors.Wrapf(err, "reading line %d", s.lineNo+1)
				return false
			}
		}
		s.lineNo++
		if line == "" || line == "\n" || line == "\r\n" {
			continue
		}
		if s.col, err = ParseColumn(line, s.opts); err != nil {
			s.err = annotate(err, fmt.Sprintf("line %d", s.lineNo))
			s.done = true
			return false
		}
		return true
	}
	return false
}

// Column returns the column parsed by the last successful Scan.  Each call to
// Scan allocates a new Column, so the caller may retain it.
func (s *Scanner) Column() *Column {
	return s.col
}

// Err returns the first error encountered, or nil.
func (s *Scanner) Err() error {
	return s.err
}

// FileScanner is a Scanner that owns the file it reads from.
type FileScanner struct {
	*Scanner
	ctx    context.Context
	in     file.File
	gz     *gzip.Reader
	path   string
	closed bool
}

// Open opens a pileup text file for scanning.  The path may be anything
// understood by grailbio/base/file; a ".gz" suffix selects gzip decoding.
func Open(ctx context.Context, path string, opts ParseOpts) (*FileScanner, error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	fs := &FileScanner{ctx: ctx, in: in, path: path}
	reader := io.Reader(in.Reader(ctx))
	if fileio.DetermineType(path) == fileio.Gzip {
		if fs.gz, err = gzip.NewReader(reader); err != nil {
			_ = in.Close(ctx)
			return nil, pkgerrors.Wrap(err, path)
		}
		reader = fs.gz
	}
	vlog.VI(1).Infof("%s: opened pileup (gzip: %v)", path, fs.gz != nil)
	fs.Scanner = NewScanner(reader, opts)
	return fs, nil
}

// Err returns the first error encountered, annotated with the path.
func (fs *FileScanner) Err() error {
	if err := fs.Scanner.Err(); err != nil {
		return annotate(err, fs.path)
	}
	return nil
}

// Close releases the underlying file.  It returns Err() if it is non-nil.
func (fs *FileScanner) Close() error {
	if fs.closed {
		return fs.Err()
	}
	fs.closed = true
	var err errors.Once
	err.Set(fs.Err())
	if fs.gz != nil {
		err.Set(fs.gz.Close())
	}
	err.Set(fs.in.Close(fs.ctx))
	return err.Err()
}

// annotate adds context to err while keeping format errors recognizable by
// IsFormatError.
func annotate(err error, msg string) error {
	if IsFormatError(err) {
		return errors.E(errors.Invalid, msg, err)
	}
	return pkgerrors.Wrap(err, msg)
}
