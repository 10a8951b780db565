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
	"os/exec"
	"strings"
)

// Runner runs an external command to completion and returns its buffered
// stdout and stderr.  A non-zero exit status is reported as a *CommandError.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner is the os/exec Runner.  Cancelling ctx kills the process.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error) {
	var outBuf, errBuf bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	if err = cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return outBuf.Bytes(), errBuf.Bytes(), ctxErr
		}
		status := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			status = exitErr.ExitCode()
		}
		return outBuf.Bytes(), errBuf.Bytes(), &CommandError{
			Args:       append([]string{name}, args...),
			ExitStatus: status,
			Stderr:     errBuf.String(),
			Err:        err,
		}
	}
	return outBuf.Bytes(), errBuf.Bytes(), nil
}

// CommandError reports an external command that could not be started or
// exited with a non-zero status.
type CommandError struct {
	// Args is the full command line, starting with the binary.
	Args []string
	// ExitStatus is the process exit code, or -1 if the process did not exit
	// normally.
	ExitStatus int
	// Stderr is the captured standard error stream.
	Stderr string
	// Err is the underlying error from os/exec.
	Err error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", strings.Join(e.Args, " "), e.ExitStatus)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": stderr: " + stderr
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying os/exec error.
func (e *CommandError) Unwrap() error { return e.Err }
