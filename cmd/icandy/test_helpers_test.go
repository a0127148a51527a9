package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"icandy/internal/config"
	"icandy/internal/testsupport"
)

type cliTestEnv struct {
	dir        string
	configPath string
	cfg        *config.Config
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) cliTestEnv {
	t.Helper()
	opts = append([]testsupport.ConfigOption{testsupport.WithAssetsPerKey(2)}, opts...)
	cfg := testsupport.NewConfig(t, opts...)
	dir := testsupport.BaseDir(cfg)
	t.Setenv("HOME", dir)
	t.Setenv("UNSPLASH_ACCESS_KEY", "")

	env := cliTestEnv{dir: dir, configPath: filepath.Join(dir, "config.toml"), cfg: cfg}
	testsupport.WriteConfig(t, env.configPath, cfg)
	return env
}

func writeScript(t *testing.T, dir, content string) string {
	t.Helper()
	return testsupport.WriteFile(t, filepath.Join(dir, "script.txt"), content)
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
