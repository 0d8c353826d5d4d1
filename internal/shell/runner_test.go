package shell

import (
	"errors"
	"strings"
	"testing"
)

func TestResultOK(t *testing.T) {
	tests := []struct {
		name string
		res  Result
		want bool
	}{
		{"zero exit", Result{}, true},
		{"non-zero exit", Result{ExitCode: 1}, false},
		{"start failure", Result{ExitCode: -1, Err: errors.New("not found")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.res.OK(); got != tt.want {
				t.Errorf("OK() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResultError(t *testing.T) {
	if err := (Result{}).Error("pm", "list"); err != nil {
		t.Errorf("Error() on OK result = %v, want nil", err)
	}

	err := Result{ExitCode: 2, Stderr: []byte("boom\n")}.Error("appops", "set", "com.a")
	if err == nil {
		t.Fatal("Error() should not be nil for exit status 2")
	}
	msg := err.Error()
	if !strings.Contains(msg, "appops set com.a") || !strings.Contains(msg, "exit status 2") || !strings.Contains(msg, "boom") {
		t.Errorf("unexpected error message: %q", msg)
	}

	startErr := errors.New("no such file")
	err = Result{ExitCode: -1, Err: startErr}.Error("mkswap")
	if !errors.Is(err, startErr) {
		t.Errorf("Error() should wrap the start error, got %v", err)
	}
}

func TestExecRunMissingBinary(t *testing.T) {
	res := Exec{}.Run("droidops-definitely-not-a-binary")
	if res.OK() {
		t.Fatal("running a missing binary should not be OK")
	}
	if res.Err == nil {
		t.Error("expected a start error for a missing binary")
	}
}

func TestFakeQueuesAndRepeats(t *testing.T) {
	f := NewFake()
	f.Stdout("appops get com.a OP", "deny")
	f.Stdout("appops get com.a OP", "allow")

	if got := f.Run("appops", "get", "com.a", "OP").Output(); got != "deny" {
		t.Errorf("first call = %q, want deny", got)
	}
	if got := f.Run("appops", "get", "com.a", "OP").Output(); got != "allow" {
		t.Errorf("second call = %q, want allow", got)
	}
	if got := f.Run("appops", "get", "com.a", "OP").Output(); got != "allow" {
		t.Errorf("third call should repeat last result, got %q", got)
	}
	if n := f.Count("appops get com.a OP"); n != 3 {
		t.Errorf("Count() = %d, want 3", n)
	}

	if res := f.Run("unscripted"); res.OK() {
		t.Error("unscripted commands should fail")
	}
}
