package shell

import (
	"fmt"
	"strings"
	"sync"
)

// Fake is a scripted Runner. Responses are keyed by the full command line
// ("appops get com.a REQUEST_INSTALL_PACKAGES"). A key with several queued
// results returns them in order and repeats the last one once exhausted.
// Commands with no script fail as if the binary did not exist.
type Fake struct {
	mu        sync.Mutex
	responses map[string][]Result
	calls     []string
}

// NewFake returns an empty Fake.
func NewFake() *Fake {
	return &Fake{responses: make(map[string][]Result)}
}

// On queues results for a command line.
func (f *Fake) On(cmdline string, results ...Result) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[cmdline] = append(f.responses[cmdline], results...)
	return f
}

// Stdout queues a successful result with the given output.
func (f *Fake) Stdout(cmdline, out string) *Fake {
	return f.On(cmdline, Result{Stdout: []byte(out)})
}

// Fail queues a result that exits with the given status.
func (f *Fake) Fail(cmdline string, code int) *Fake {
	return f.On(cmdline, Result{ExitCode: code})
}

// Run implements Runner.
func (f *Fake) Run(name string, args ...string) Result {
	cmdline := strings.TrimSpace(name + " " + strings.Join(args, " "))

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, cmdline)

	queue, ok := f.responses[cmdline]
	if !ok || len(queue) == 0 {
		return Result{ExitCode: -1, Err: fmt.Errorf("exec: %q: executable file not found in $PATH", name)}
	}
	res := queue[0]
	if len(queue) > 1 {
		f.responses[cmdline] = queue[1:]
	}
	return res
}

// Calls returns every command line run so far, in order.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// Count returns how many times cmdline was run.
func (f *Fake) Count(cmdline string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == cmdline {
			n++
		}
	}
	return n
}
