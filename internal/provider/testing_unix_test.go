//go:build !windows

package provider

import (
	"os"
	"path/filepath"
	"testing"
)

// installTool writes an executable shell script named name to a temporary
// directory placed first in PATH.
func installTool(t *testing.T, name, script string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatalf("writing tool %s: %v", name, err)
	}

	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}
