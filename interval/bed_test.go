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
	"bytes"
	"context"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/klauspost/compress/gzip"
)

const testBED = `track name=test
# comment
chr1	2488104	2488172
chr1	2488150	2488200
chr1	2488200	2488210
chr1	2489165	2489165
chr1	2489782	2489907
chr2	100	200	extra	columns
`

func TestReadBEDEntries(t *testing.T) {
	entries, err := ReadBEDEntries(strings.NewReader(testBED), NewBEDOpts{})
	assert.NoError(t, err)
	expect.EQ(t, entries, []Entry{
		{"chr1", 2488104, 2488210},
		{"chr1", 2489782, 2489907},
		{"chr2", 100, 200},
	})

	entries, err = ReadBEDEntries(strings.NewReader("chrX\t1\t10"), NewBEDOpts{OneBasedInput: true})
	assert.NoError(t, err)
	expect.EQ(t, entries, []Entry{{"chrX", 0, 10}})
}

func TestReadBEDEntriesErrors(t *testing.T) {
	for _, bed := range []string{
		"chr1\t10\n",
		"chr1\tx\t10\n",
		"chr1\t20\t10\n",
		"chr1\t100\t200\nchr1\t50\t60\n",
		"chr1\t1\t2\nchr2\t1\t2\nchr1\t5\t6\n",
	} {
		_, err := ReadBEDEntries(strings.NewReader(bed), NewBEDOpts{})
		expect.True(t, err != nil, "bed %q", bed)
	}
}

func TestReadBEDEntriesFromPath(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(testBED))
	assert.NoError(t, err)
	assert.NoError(t, gz.Close())
	gzPath := filepath.Join(tmpdir, "test.bed.gz")
	assert.NoError(t, ioutil.WriteFile(gzPath, buf.Bytes(), 0644))
	plainPath := filepath.Join(tmpdir, "test.bed")
	assert.NoError(t, ioutil.WriteFile(plainPath, []byte(testBED), 0644))

	ctx := context.Background()
	fromGz, err := ReadBEDEntriesFromPath(ctx, gzPath, NewBEDOpts{})
	assert.NoError(t, err)
	fromPlain, err := ReadBEDEntriesFromPath(ctx, plainPath, NewBEDOpts{})
	assert.NoError(t, err)
	expect.EQ(t, fromGz, fromPlain)
	expect.EQ(t, len(fromPlain), 3)
}
