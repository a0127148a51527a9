package capability

import (
	"fmt"
	"os/exec"
	"strings"
)

// BeatCommand is the onset detector probed at startup.
const BeatCommand = "aubioonset"

// Beat is the optional audio beat-detection capability used by the display
// engine. Exactly one implementation is selected at startup.
type Beat interface {
	Name() string
	Available() bool
	Detail() string
}

// LookPath resolves a command name to an executable path.
type LookPath func(file string) (string, error)

// Nop is the fallback when no detector is installed.
type Nop struct {
	Reason string
}

func (Nop) Name() string    { return "none" }
func (Nop) Available() bool { return false }

func (n Nop) Detail() string {
	if n.Reason == "" {
		return "beat detection disabled"
	}
	return n.Reason
}

// Binary is a detector backed by an external executable.
type Binary struct {
	Command string
	Path    string
}

func (b Binary) Name() string    { return b.Command }
func (b Binary) Available() bool { return true }
func (b Binary) Detail() string  { return b.Path }

// Probe selects the binary-backed detector when BeatCommand is on PATH and
// falls back to Nop otherwise. A nil lookPath uses exec.LookPath.
func Probe(lookPath LookPath) Beat {
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	path, err := lookPath(BeatCommand)
	if err != nil || strings.TrimSpace(path) == "" {
		return Nop{Reason: fmt.Sprintf("binary %q not found; beat sync disabled", BeatCommand)}
	}
	return Binary{Command: BeatCommand, Path: path}
}
