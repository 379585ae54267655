package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	stateDir   string
	logDir     string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(base, "etc", "remoteaccessd.toml"),
		stateDir:   filepath.Join(base, "run"),
		logDir:     filepath.Join(base, "logs"),
	}
	content := fmt.Sprintf(`[watch]
fsnotify = false
udev = false

[network]
boot_config_path = %q

[provisioning]
wpa_dir = %q

[audio]
enabled = false

[paths]
log_dir = %q
state_dir = %q
`,
		filepath.Join(base, "boot", "config.txt"),
		filepath.Join(base, "wpa"),
		env.logDir,
		env.stateDir,
	)
	if err := os.MkdirAll(filepath.Dir(env.configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func asRoot(t *testing.T, root bool) {
	t.Helper()
	prev := geteuid
	geteuid = func() int {
		if root {
			return 0
		}
		return 1000
	}
	t.Cleanup(func() { geteuid = prev })
}

func runCLI(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
