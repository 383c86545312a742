package main

import (
	"os"
	"path/filepath"
	"testing"
)

const testCatalogJSON = `{
	"Copper Disc": {"classes": ["Warrior"]},
	"Platinum Disc": {"min_dkp": 10}
}`

const testLog = "[Mon Aug 17 07:15:39 2020] Bob tells the guild, 'Copper Disc on corpse'\n" +
	"[Mon Aug 17 07:15:40 2020] Amy says out of character, 'anyone need a platinum disc?'\n" +
	"[Mon Aug 17 07:15:41 2020] You say to your guild, 'Copper Disc'\n" +
	"[Mon Aug 17 07:15:42 2020] Jim tells the guild, 'gz'\n"

// writeTestFile writes content to name in dir and returns its path.
func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// withConfig points --config at a file that does not exist so tests run
// on the defaults, and restores the previous value afterwards.
func withConfig(t *testing.T) {
	t.Helper()
	orig := configPath
	configPath = filepath.Join(t.TempDir(), "missing.toml")
	t.Cleanup(func() { configPath = orig })
}
