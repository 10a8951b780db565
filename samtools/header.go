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
	"strconv"
	"strings"

	"github.com/grailbio/hts/sam"
	"github.com/grailbio/mpileup/interval"
)

// Header is the text header of a BAM file, as printed by "samtools view -H".
type Header struct {
	// Lines holds the header records in order, without line terminators.
	Lines []string
}

// Header runs "samtools view -H bamPath" and returns its output.  The header
// is fetched anew on every call.
func (t *Tool) Header(ctx context.Context, bamPath string) (*Header, error) {
	stdout, err := t.run(ctx, "view", "-H", bamPath)
	if err != nil {
		return nil, err
	}
	return ParseHeader(stdout), nil
}

// ParseHeader splits SAM header text into lines.  A trailing empty line is
// dropped.
func ParseHeader(text []byte) *Header {
	s := strings.TrimSuffix(string(text), "\n")
	if s == "" {
		return &Header{}
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return &Header{Lines: lines}
}

// sqFields calls fn with the fields following the tag of each @SQ record,
// stopping early when fn returns false.
func (h *Header) sqFields(fn func(fields []string) bool) {
	for _, line := range h.Lines {
		fields := strings.Fields(line)
		if len(fields) == 0 || fields[0] != "@SQ" {
			continue
		}
		if !fn(fields[1:]) {
			return
		}
	}
}

func tagValue(fields []string, tag string) (string, bool) {
	for _, f := range fields {
		if strings.HasPrefix(f, tag) {
			return f[len(tag):], true
		}
	}
	return "", false
}

// SeqNames returns the SN: values of the @SQ records, in header order.
func (h *Header) SeqNames() []string {
	var names []string
	h.sqFields(func(fields []string) bool {
		if name, ok := tagValue(fields, "SN:"); ok {
			names = append(names, name)
		}
		return true
	})
	return names
}

// HasSeq reports whether the header has an @SQ record named seq.
func (h *Header) HasSeq(seq string) bool {
	for _, name := range h.SeqNames() {
		if name == seq {
			return true
		}
	}
	return false
}

// SeqLen returns the LN: value of the @SQ record named seq.  It returns false
// if there is no such record, or if the record has no valid length.
func (h *Header) SeqLen(seq string) (length interval.PosType, ok bool) {
	h.sqFields(func(fields []string) bool {
		if name, found := tagValue(fields, "SN:"); !found || name != seq {
			return true
		}
		if ln, found := tagValue(fields, "LN:"); found {
			if n, err := strconv.ParseInt(ln, 10, 32); err == nil && n >= 0 {
				length, ok = interval.PosType(n), true
			}
		}
		return false
	})
	return
}

// SAM parses the header into a typed sam.Header.
func (h *Header) SAM() (*sam.Header, error) {
	if len(h.Lines) == 0 {
		return sam.NewHeader(nil, nil)
	}
	return sam.NewHeader([]byte(strings.Join(h.Lines, "\n")+"\n"), nil)
}
