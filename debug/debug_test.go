package debug

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"strings"
	"testing"
)

func TestSetLevel(t *testing.T) {
	defer SetLevel("info")

	for _, lvl := range []string{"debug", "INFO", "notice", "warning", "error", "critical"} {
		if err := SetLevel(lvl); err != nil {
			t.Fatalf("SetLevel(%q) = %v", lvl, err)
		}
	}
	if err := SetLevel("loud"); err == nil {
		t.Fatal("SetLevel(loud) should fail")
	}
}

func TestTracingFollowsLevel(t *testing.T) {
	defer SetLevel("info")

	if err := SetLevel("info"); err != nil {
		t.Fatal(err)
	}
	if Tracing() {
		t.Fatal("tracing should be off at INFO")
	}
	if err := SetLevel("debug"); err != nil {
		t.Fatal(err)
	}
	if !Tracing() {
		t.Fatal("tracing should be on at DEBUG")
	}
}

func TestDropHelpersDoNotPanic(t *testing.T) {
	DropError("TEST", errors.New("boom"))
	DropError("TEST", nil)
	DropMessage("TEST", "message")
	DropTrace("TEST", "suppressed at info")
}

func TestDropTraceGatedByLevel(t *testing.T) {
	var buf bytes.Buffer
	setOutput(&buf)
	defer setOutput(os.Stderr)
	defer SetLevel("info")

	if err := SetLevel("info"); err != nil {
		t.Fatal(err)
	}
	DropTrace("GROW", "hidden at info")
	DropMessage("RUN", "shown at info")
	if strings.Contains(buf.String(), "hidden at info") {
		t.Fatalf("trace written at INFO: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "RUN: shown at info") {
		t.Fatalf("info message missing: %q", buf.String())
	}

	if err := SetLevel("debug"); err != nil {
		t.Fatal(err)
	}
	DropTrace("GROW", "shown at debug")
	if !strings.Contains(buf.String(), "GROW: shown at debug") {
		t.Fatalf("trace missing at DEBUG: %q", buf.String())
	}
}

func TestSetOutputKeepsLevel(t *testing.T) {
	defer setOutput(os.Stderr)
	defer SetLevel("info")

	if err := SetLevel("debug"); err != nil {
		t.Fatal(err)
	}
	setOutput(&bytes.Buffer{})
	if !Tracing() {
		t.Fatal("level lost when switching output")
	}
}

// Fatal exits the process, so it runs in a re-executed test binary.
func TestFatalExits(t *testing.T) {
	if mode := os.Getenv("HASHIDX_FATAL"); mode != "" {
		if mode == "nil" {
			Fatal("CLI", nil)
		}
		Fatal("CLI", errors.New("bad flag"))
		return
	}

	for _, tc := range []struct {
		mode, want string
	}{
		{"err", "CLI: bad flag\n"},
		{"nil", "CLI\n"},
	} {
		cmd := exec.Command(os.Args[0], "-test.run=^TestFatalExits$")
		cmd.Env = append(os.Environ(), "HASHIDX_FATAL="+tc.mode)
		var stderr bytes.Buffer
		cmd.Stderr = &stderr
		err := cmd.Run()

		var exit *exec.ExitError
		if !errors.As(err, &exit) || exit.ExitCode() != 1 {
			t.Fatalf("%s: Run() = %v, want exit status 1", tc.mode, err)
		}
		if stderr.String() != tc.want {
			t.Fatalf("%s: stderr = %q, want %q", tc.mode, stderr.String(), tc.want)
		}
	}
}
