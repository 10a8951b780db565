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
	"os"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"v.io/x/lib/lookpath"
)

// DefaultBinary is the samtools executable looked up on $PATH by New.
const DefaultBinary = "samtools"

// Logger is the subset of github.com/grailbio/base/log.Level used by Tool.
type Logger interface {
	Printf(format string, args ...interface{})
}

// Tool runs samtools subcommands.  The zero value is not usable; create one
// with New, or fill in Path and Runner directly.
type Tool struct {
	// Path is the samtools executable.
	Path string
	// Runner runs the subprocesses.  Nil means ExecRunner.
	Runner Runner
	// Log receives warnings, e.g. unexpected samtools stderr output.  Nil
	// means log.Error.
	Log Logger
	// Debug receives a trace of every command run.  Nil means log.Debug.
	Debug Logger
}

// New creates a Tool for the given samtools binary.  An empty binary means
// DefaultBinary.  A name without a path separator is resolved against $PATH.
func New(binary string) (*Tool, error) {
	if binary == "" {
		binary = DefaultBinary
	}
	path := binary
	if strings.ContainsRune(binary, os.PathSeparator) {
		if _, err := os.Stat(binary); err != nil {
			return nil, errors.E(errors.Precondition, "samtools.New: binary not found", err)
		}
	} else {
		var err error
		env := map[string]string{"PATH": os.Getenv("PATH")}
		if path, err = lookpath.Look(env, binary); err != nil {
			return nil, errors.E(errors.Precondition, "samtools.New: "+binary+" not found on $PATH", err)
		}
	}
	return &Tool{Path: path, Runner: ExecRunner{}}, nil
}

// IsConfigError reports whether err was caused by an invalid request, e.g. an
// unknown sequence or conflicting mpileup arguments, as opposed to a samtools
// failure or malformed output.
func IsConfigError(err error) bool {
	return errors.Is(errors.Precondition, err)
}

func configError(msg string) error {
	return errors.E(errors.Precondition, msg)
}

func (t *Tool) runner() Runner {
	if t.Runner == nil {
		return ExecRunner{}
	}
	return t.Runner
}

func (t *Tool) warnf(format string, args ...interface{}) {
	if t.Log == nil {
		log.Error.Printf(format, args...)
		return
	}
	t.Log.Printf(format, args...)
}

func (t *Tool) debugf(format string, args ...interface{}) {
	if t.Debug == nil {
		log.Debug.Printf(format, args...)
		return
	}
	t.Debug.Printf(format, args...)
}

// run runs one samtools subcommand and returns its stdout.  Unexpected stderr
// lines are logged as warnings.
func (t *Tool) run(ctx context.Context, args ...string) ([]byte, error) {
	t.debugf("samtools: running %s %s", t.Path, strings.Join(args, " "))
	stdout, stderr, err := t.runner().Run(ctx, t.Path, args...)
	if err != nil {
		return nil, err
	}
	for _, line := range unexpectedStderrLines(stderr) {
		t.warnf("samtools %s: unexpected stderr line: %s", args[0], line)
	}
	return stdout, nil
}
