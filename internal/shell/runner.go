// Package shell runs external commands and captures their output.
//
// Everything that talks to the device goes through the Runner interface so
// that tests can substitute scripted output for pm, dumpsys, appops, mkswap
// and swapon.
package shell

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Result holds the captured output and exit status of one command.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Err      error // set when the command could not be started or waited on
}

// OK reports whether the command started and exited with status 0.
func (r Result) OK() bool {
	return r.Err == nil && r.ExitCode == 0
}

// Output returns stdout as a string.
func (r Result) Output() string {
	return string(r.Stdout)
}

// Error describes a failed result, or returns nil if the result is OK.
func (r Result) Error(name string, args ...string) error {
	if r.OK() {
		return nil
	}
	cmdline := strings.TrimSpace(name + " " + strings.Join(args, " "))
	if r.Err != nil {
		return fmt.Errorf("%s: %w", cmdline, r.Err)
	}
	if stderr := strings.TrimSpace(string(r.Stderr)); stderr != "" {
		return fmt.Errorf("%s: exit status %d (stderr: %s)", cmdline, r.ExitCode, stderr)
	}
	return fmt.Errorf("%s: exit status %d", cmdline, r.ExitCode)
}

// Runner executes a command and blocks until it exits.
type Runner interface {
	Run(name string, args ...string) Result
}

// Exec is the Runner backed by os/exec. Commands are started directly,
// never through sh -c, so package names are passed verbatim.
type Exec struct{}

// Run implements Runner.
func (Exec) Run(name string, args ...string) Result {
	var stdout, stderr bytes.Buffer
	cmd := exec.Command(name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		} else {
			res.Err = err
			res.ExitCode = -1
		}
	}
	return res
}
