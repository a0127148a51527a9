package capability

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func TestProbeSelectsBinaryWhenPresent(t *testing.T) {
	beat := Probe(func(name string) (string, error) {
		if name != BeatCommand {
			t.Fatalf("unexpected lookup %q", name)
		}
		return "/usr/bin/aubioonset", nil
	})
	if !beat.Available() {
		t.Fatal("expected capability to be available")
	}
	if beat.Name() != BeatCommand || beat.Detail() != "/usr/bin/aubioonset" {
		t.Fatalf("unexpected capability %#v", beat)
	}
}

func TestProbeFallsBackToNop(t *testing.T) {
	beat := Probe(func(string) (string, error) { return "", exec.ErrNotFound })
	if beat.Available() {
		t.Fatal("expected fallback to be unavailable")
	}
	if _, ok := beat.(Nop); !ok {
		t.Fatalf("expected Nop fallback, got %T", beat)
	}
	if beat.Detail() == "" {
		t.Fatal("expected a reason for the fallback")
	}
}

func TestProbeUsesPathLookup(t *testing.T) {
	binDir := t.TempDir()
	stub := filepath.Join(binDir, BeatCommand)
	if err := os.WriteFile(stub, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	t.Setenv("PATH", binDir)

	beat := Probe(nil)
	if !beat.Available() || beat.Detail() != stub {
		t.Fatalf("expected stub on PATH to be selected, got %#v", beat)
	}
}

func TestNopDefaultDetail(t *testing.T) {
	if (Nop{}).Detail() == "" {
		t.Fatal("expected default detail")
	}
}
