package preflight

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"icandy/internal/associations"
	"icandy/internal/capability"
	"icandy/internal/config"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckCreatableDirectory passes when path is an accessible directory, or
// when it is missing but its nearest existing ancestor is writable so the
// build can create it.
func CheckCreatableDirectory(name, path string) Result {
	if _, err := os.Stat(path); err == nil || !os.IsNotExist(err) {
		return CheckDirectoryAccess(name, path)
	}
	ancestor := filepath.Dir(path)
	for {
		if _, err := os.Stat(ancestor); err == nil {
			break
		}
		parent := filepath.Dir(ancestor)
		if parent == ancestor {
			break
		}
		ancestor = parent
	}
	if err := unix.Access(ancestor, unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: cannot create under %s: %v)", path, ancestor, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
}

// CheckReadableFile verifies that path is a readable regular file.
func CheckReadableFile(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if !info.Mode().IsRegular() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not a regular file)", path)}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: unreadable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckCredentials reports whether an Unsplash access key can be resolved.
// The key itself is never included in the detail.
func CheckCredentials(cfg *config.Config) Result {
	const name = "Unsplash credentials"
	probe := *cfg
	key, err := probe.RequireAccessKey()
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: "access key " + maskKey(key)}
}

// CheckStoreFile parses the association store and reports missing assets.
// A store that does not exist yet passes.
func CheckStoreFile(path string) Result {
	const name = "Association store"
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (not built yet)", path)}
	}
	store, _, err := associations.Open(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	missing := store.MissingAssets()
	detail := fmt.Sprintf("%d keys, %d assets", store.KeyCount(), store.AssetCount())
	if len(missing) > 0 {
		return Result{Name: name, Detail: fmt.Sprintf("%s, %d missing on disk", detail, len(missing))}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckBeat reports the selected beat-detection capability. The capability
// is optional, so the check always passes.
func CheckBeat(beat capability.Beat) Result {
	const name = "Beat detection"
	if beat == nil || !beat.Available() {
		detail := "unavailable"
		if beat != nil {
			detail = beat.Detail()
		}
		return Result{Name: name, Passed: true, Detail: detail}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", beat.Name(), beat.Detail())}
}

func maskKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
