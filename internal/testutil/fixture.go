// Package testutil locates the sample projects under testdata/fixtures.
package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"

	"repoviz/internal/paths"
)

// Fixture is one sample project.
type Fixture struct {
	// Name is the directory name under testdata/fixtures, e.g. "express-api".
	Name string

	// Root is the absolute path to the project
	Root string
}

// LoadFixture returns the named fixture, failing the test when it is missing.
func LoadFixture(t *testing.T, name string) *Fixture {
	t.Helper()

	dir := filepath.Join(getFixturesRoot(t), name)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("Fixture directory not found: %s", dir)
	}
	return &Fixture{Name: name, Root: dir}
}

// Path joins slash-separated rel onto the fixture root.
func (f *Fixture) Path(rel string) string {
	return paths.JoinRepoPath(f.Root, rel)
}

// getFixturesRoot returns the absolute path to testdata/fixtures/.
func getFixturesRoot(t *testing.T) string {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get caller information")
	}

	// Navigate from internal/testutil to project root
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(thisFile)))
	fixturesRoot := filepath.Join(projectRoot, "testdata", "fixtures")

	if _, err := os.Stat(fixturesRoot); os.IsNotExist(err) {
		t.Fatalf("Fixtures root not found: %s", fixturesRoot)
	}
	return fixturesRoot
}

// AvailableFixtures lists the fixture names in lexical order.
func AvailableFixtures(t *testing.T) []string {
	t.Helper()

	entries, err := os.ReadDir(getFixturesRoot(t))
	if err != nil {
		t.Fatalf("Failed to read fixtures directory: %v", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() && !isHiddenDir(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names
}

// ForEachFixture runs fn as a subtest for every fixture.
func ForEachFixture(t *testing.T, fn func(t *testing.T, f *Fixture)) {
	t.Helper()

	for _, name := range AvailableFixtures(t) {
		t.Run(name, func(t *testing.T) {
			fn(t, LoadFixture(t, name))
		})
	}
}

func isHiddenDir(name string) bool {
	return len(name) > 0 && name[0] == '.'
}
